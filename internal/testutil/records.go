// Package testutil holds helpers shared by tests across packages.
package testutil

import (
	"path/filepath"
	"testing"

	"github.com/roach88/graphmirror/internal/ir"
	"github.com/roach88/graphmirror/internal/schema"
	"github.com/roach88/graphmirror/internal/store"
)

// Record builds a remote record of entity carrying exactly the schema's
// tracked fields: values come from fields, everything else is null.
// Unknown keys in fields fail the test.
func Record(t testing.TB, entity string, fields map[string]any) ir.RemoteRecord {
	t.Helper()
	s, ok := schema.Default().Lookup(entity)
	if !ok {
		t.Fatalf("unknown entity %q", entity)
	}

	rec := make(ir.RemoteRecord, len(s.Fields))
	for _, name := range s.FieldNames() {
		rec[name] = nil
	}
	for k, v := range fields {
		if _, ok := s.Field(k); !ok {
			t.Fatalf("entity %s has no field %q", entity, k)
		}
		rec[k] = v
	}
	return rec
}

// Batch builds one record per fields map.
func Batch(t testing.TB, entity string, fields ...map[string]any) []ir.RemoteRecord {
	t.Helper()
	out := make([]ir.RemoteRecord, len(fields))
	for i, f := range fields {
		out[i] = Record(t, entity, f)
	}
	return out
}

// OpenStore opens a store in a temp directory, closed on cleanup.
func OpenStore(t testing.TB) *store.Store {
	t.Helper()
	s, err := store.Open(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}
