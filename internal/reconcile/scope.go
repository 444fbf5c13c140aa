package reconcile

import (
	"context"
	"fmt"

	"github.com/roach88/graphmirror/internal/ir"
	"github.com/roach88/graphmirror/internal/queryir"
	"github.com/roach88/graphmirror/internal/schema"
	"github.com/roach88/graphmirror/internal/store"
)

// Scope is the set of local records a batch is compared against.
type Scope struct {
	// Context is the owner's natural key, empty for session scope.
	Context string

	// Owner is the storage id of the owner's user record, 0 for session
	// scope.
	Owner int64

	// Records in storage order.
	Records []ir.LocalRecord

	byKey map[string]ir.LocalRecord
}

// Has reports whether key is in scope.
func (sc *Scope) Has(key string) bool {
	_, ok := sc.byKey[key]
	return ok
}

// Keys returns the scope's primary keys in storage order.
func (sc *Scope) Keys() []string {
	keys := make([]string, len(sc.Records))
	for i, r := range sc.Records {
		keys[i] = r.Key
	}
	return keys
}

// LoadScope loads the local comparison set of entity s for viewer.
//
// Session-scoped entities ignore contextKey and load the viewer's newest
// RowLimit records. Owner-scoped entities resolve contextKey to the
// viewer's local record of the owner and load every record it owns; an
// unknown owner is a NOT_FOUND error.
func LoadScope(ctx context.Context, st Store, s *schema.Schema, viewer, contextKey string) (*Scope, error) {
	sc := &Scope{}

	if s.SessionScoped() {
		recs, err := st.Latest(ctx, s.Name, store.ByViewer(viewer), s.RowLimit)
		if err != nil {
			return nil, fmt.Errorf("load %s scope: %w", s.Name, err)
		}
		sc.Records = recs
	} else {
		owner, _ := s.Owner()
		ownerRec, err := st.Get(ctx, owner.Target, queryir.All(store.ByViewer(viewer), store.ByKey(contextKey)))
		if err != nil {
			if ir.IsNotFound(err) {
				return nil, &ir.Error{
					Code:    ir.ErrCodeNotFound,
					Message: fmt.Sprintf("context %s %s is not stored for viewer %s", owner.Target, contextKey, viewer),
					Entity:  s.Name,
					Field:   owner.Name,
					Key:     contextKey,
					Err:     err,
				}
			}
			return nil, fmt.Errorf("load %s scope: %w", s.Name, err)
		}

		recs, err := st.Filter(ctx, s.Name, queryir.All(store.ByViewer(viewer), store.ByOwner(ownerRec.ID)))
		if err != nil {
			return nil, fmt.Errorf("load %s scope: %w", s.Name, err)
		}
		sc.Context = contextKey
		sc.Owner = ownerRec.ID
		sc.Records = recs
	}

	sc.byKey = make(map[string]ir.LocalRecord, len(sc.Records))
	for i, r := range sc.Records {
		r.Fields = s.Retype(r.Fields)
		sc.Records[i] = r
		sc.byKey[r.Key] = r
	}
	return sc, nil
}
