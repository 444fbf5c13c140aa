package reconcile

import (
	"context"

	"github.com/roach88/graphmirror/internal/ir"
	"github.com/roach88/graphmirror/internal/queryir"
	"github.com/roach88/graphmirror/internal/schema"
	"github.com/roach88/graphmirror/internal/store"
)

// EntityPolicy decides how one entity is reconciled.
type EntityPolicy interface {
	// IsStream reports whether local records absent from a batch are kept.
	IsStream() bool
}

// ConflictResolver is implemented by policies that can recover when a
// create hits a uniqueness conflict.
type ConflictResolver interface {
	// Resolve stores rec over the record it collided with, keeping that
	// record's storage id.
	Resolve(ctx context.Context, st Store, rec ir.LocalRecord) (ir.LocalRecord, error)
}

// SnapshotPolicy keeps the local scope identical to the latest batch.
type SnapshotPolicy struct{}

func (SnapshotPolicy) IsStream() bool { return false }

// StreamPolicy only appends and updates.
type StreamPolicy struct{}

func (StreamPolicy) IsStream() bool { return true }

// ReusingStreamPolicy is a StreamPolicy whose conflicting creates update
// the existing record. The remote sometimes repeats an item within one
// batch, or returns an item that has aged out of the local window.
type ReusingStreamPolicy struct {
	StreamPolicy
}

var _ ConflictResolver = ReusingStreamPolicy{}

// Resolve looks up the record rec collided with and overwrites it.
func (ReusingStreamPolicy) Resolve(ctx context.Context, st Store, rec ir.LocalRecord) (ir.LocalRecord, error) {
	existing, err := st.Get(ctx, rec.Entity, queryir.All(
		store.ByViewer(rec.Viewer),
		store.ByKey(rec.Key),
		store.ByOwner(rec.Owner),
	))
	if err != nil {
		return ir.LocalRecord{}, err
	}
	rec.ID = existing.ID
	return st.Save(ctx, rec)
}

// DefaultPolicies derives a policy for every entity in the registry from
// its stream flag. Session-scoped streams (user, notification, stream)
// compare against a window of the newest rows only, so they reuse
// identities on conflict.
func DefaultPolicies(registry *schema.Registry) map[string]EntityPolicy {
	policies := make(map[string]EntityPolicy)
	for _, name := range registry.Names() {
		s, _ := registry.Lookup(name)
		switch {
		case s.IsStream && s.SessionScoped():
			policies[name] = ReusingStreamPolicy{}
		case s.IsStream:
			policies[name] = StreamPolicy{}
		default:
			policies[name] = SnapshotPolicy{}
		}
	}
	return policies
}
