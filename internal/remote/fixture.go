package remote

import (
	"context"
	"fmt"
	"sync"

	"github.com/roach88/graphmirror/internal/ir"
	"github.com/roach88/graphmirror/internal/query"
	"github.com/roach88/graphmirror/internal/schema"
)

// Fixture is one canned response.
type Fixture struct {
	Entity  string           `json:"entity" yaml:"entity"`
	Clause  string           `json:"clause" yaml:"clause"`
	Records []map[string]any `json:"records" yaml:"records"`
}

// FixtureFile is the on-disk fixture format.
type FixtureFile struct {
	Fixtures []Fixture `json:"fixtures" yaml:"fixtures"`
}

// FixtureClient answers queries from canned responses.
//
// A response is found by rebuilding the query from (entity, clause), so a
// fixture lists only the clause. Tracked fields missing from a fixture
// record are returned as null. Queries without a fixture return no
// records. Safe for concurrent use.
type FixtureClient struct {
	mu        sync.Mutex
	responses map[string][]ir.RemoteRecord
	queries   []string
}

var _ Client = (*FixtureClient)(nil)

// NewFixtureClient indexes fixtures against the registry's schemas.
func NewFixtureClient(registry *schema.Registry, fixtures []Fixture) (*FixtureClient, error) {
	c := &FixtureClient{responses: make(map[string][]ir.RemoteRecord)}
	for i, f := range fixtures {
		s, ok := registry.Lookup(f.Entity)
		if !ok {
			return nil, fmt.Errorf("fixture %d: unknown entity %q", i, f.Entity)
		}
		q := query.Build(s, f.Clause)
		if _, dup := c.responses[q]; dup {
			return nil, fmt.Errorf("fixture %d: duplicate response for %q", i, q)
		}

		recs := make([]ir.RemoteRecord, len(f.Records))
		for j, raw := range f.Records {
			rec := make(ir.RemoteRecord, len(s.Fields))
			for _, name := range s.FieldNames() {
				rec[name] = nil
			}
			for k, v := range raw {
				rec[k] = v
			}
			recs[j] = rec
		}
		c.responses[q] = recs
	}
	return c, nil
}

// LoadFixtureClient reads a fixture file (JSON, YAML or CUE).
func LoadFixtureClient(registry *schema.Registry, path string) (*FixtureClient, error) {
	var file FixtureFile
	if err := DecodeFile(path, &file); err != nil {
		return nil, err
	}
	c, err := NewFixtureClient(registry, file.Fixtures)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return c, nil
}

// Fetch returns the canned response for q.
func (c *FixtureClient) Fetch(ctx context.Context, q string) ([]ir.RemoteRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.queries = append(c.queries, q)

	recs := c.responses[q]
	out := make([]ir.RemoteRecord, len(recs))
	for i, rec := range recs {
		cp := make(ir.RemoteRecord, len(rec))
		for k, v := range rec {
			cp[k] = v
		}
		out[i] = cp
	}
	return out, nil
}

// FetchBatch fetches each query in turn.
func (c *FixtureClient) FetchBatch(ctx context.Context, queries map[string]string) (map[string][]ir.RemoteRecord, error) {
	return FetchEach(ctx, c, queries)
}

// Queries returns every query fetched so far, in order.
func (c *FixtureClient) Queries() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]string(nil), c.queries...)
}
