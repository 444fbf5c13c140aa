package store

import (
	"path/filepath"
	"testing"

	"github.com/roach88/graphmirror/internal/ir"
)

// createTestStore creates a new store in a temp directory for testing.
func createTestStore(t *testing.T) *Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.db")
	s, err := Open(path)
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

// createTestRecord creates a record with minimal fields.
func createTestRecord(entity, viewer, key string, owner int64) ir.LocalRecord {
	return ir.LocalRecord{
		Entity: entity,
		Viewer: viewer,
		Key:    key,
		Owner:  owner,
		Fields: ir.IRObject{"name": ir.IRString("record " + key)},
	}
}
