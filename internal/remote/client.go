package remote

import (
	"context"
	"fmt"
	"sort"

	"github.com/roach88/graphmirror/internal/ir"
)

// Client fetches records from the remote API.
type Client interface {
	// Fetch runs one query.
	Fetch(ctx context.Context, query string) ([]ir.RemoteRecord, error)

	// FetchBatch runs several queries as one request. queries and the
	// result are keyed by the caller's context identifiers.
	FetchBatch(ctx context.Context, queries map[string]string) (map[string][]ir.RemoteRecord, error)
}

// FetchEach implements FetchBatch on top of Fetch for clients without a
// native batch endpoint. Queries run in key order.
func FetchEach(ctx context.Context, c Client, queries map[string]string) (map[string][]ir.RemoteRecord, error) {
	keys := make([]string, 0, len(queries))
	for key := range queries {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	out := make(map[string][]ir.RemoteRecord, len(queries))
	for _, key := range keys {
		recs, err := c.Fetch(ctx, queries[key])
		if err != nil {
			return nil, fmt.Errorf("batch entry %s: %w", key, err)
		}
		out[key] = recs
	}
	return out, nil
}
