package ir

import "sort"

// RemoteRecord is one row returned by the remote API: field name to raw
// decoded value. Numbers arrive as json.Number (or Go integer types from
// YAML fixtures). A RemoteRecord is never persisted as-is.
type RemoteRecord map[string]any

// Keys returns the record's field names in sorted order.
func (r RemoteRecord) Keys() []string {
	keys := make([]string, 0, len(r))
	for k := range r {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// LocalRecord is a persisted row belonging to exactly one viewer.
//
// Identity within the store is (Entity, Viewer, Key, Owner). Owner is the
// storage ID of the owning user record for owner-scoped entities and 0
// otherwise.
type LocalRecord struct {
	ID     int64    `json:"id"`
	Entity string   `json:"entity"`
	Viewer string   `json:"viewer"`
	Key    string   `json:"key"`
	Owner  int64    `json:"owner,omitempty"`
	Fields IRObject `json:"fields"`
}

// Run records one reconcile call in the run log.
type Run struct {
	Seq           int64  `json:"seq"`
	ID            string `json:"id"`
	Entity        string `json:"entity"`
	Viewer        string `json:"viewer"`
	Context       string `json:"context,omitempty"`
	Stream        bool   `json:"stream"`
	Added         int    `json:"added"`
	Updated       int    `json:"updated"`
	Deleted       int    `json:"deleted"`
	Resolved      int    `json:"resolved"`
	Status        string `json:"status"`
	Error         string `json:"error,omitempty"`
	EngineVersion string `json:"engine_version"`
}

// Run statuses.
const (
	RunStatusOK    = "ok"
	RunStatusError = "error"
)
