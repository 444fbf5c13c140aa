package querysql

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/graphmirror/internal/ir"
	"github.com/roach88/graphmirror/internal/queryir"
)

func newCompiler() *SQLCompiler {
	return NewSQLCompiler("entity", "viewer", "pkey", "owner_ref", "fields")
}

func TestCompileSelect(t *testing.T) {
	tests := []struct {
		name       string
		query      queryir.Select
		wantSQL    string
		wantParams []any
	}{
		{
			name:    "no filter",
			query:   queryir.Select{From: "records", Columns: []string{"id", "pkey"}},
			wantSQL: "SELECT id, pkey FROM records ORDER BY id ASC",
		},
		{
			name: "single equals",
			query: queryir.Select{
				From:    "records",
				Columns: []string{"id"},
				Filter:  queryir.Eq("viewer", ir.IRString("alice")),
			},
			wantSQL:    "SELECT id FROM records WHERE viewer = ? ORDER BY id ASC",
			wantParams: []any{"alice"},
		},
		{
			name: "conjunction keeps predicate order",
			query: queryir.Select{
				From:    "records",
				Columns: []string{"id"},
				Filter: queryir.All(
					queryir.Eq("entity", ir.IRString("album")),
					queryir.Eq("viewer", ir.IRString("alice")),
					queryir.Eq("owner_ref", ir.IRInt(7)),
				),
			},
			wantSQL:    "SELECT id FROM records WHERE entity = ? AND viewer = ? AND owner_ref = ? ORDER BY id ASC",
			wantParams: []any{"album", "alice", int64(7)},
		},
		{
			name:    "empty conjunction",
			query:   queryir.Select{From: "records", Columns: []string{"id"}, Filter: queryir.All()},
			wantSQL: "SELECT id FROM records WHERE 1 = 1 ORDER BY id ASC",
		},
		{
			name: "newest window",
			query: queryir.Select{
				From:    "records",
				Columns: []string{"id", "pkey"},
				Filter:  queryir.Eq("entity", ir.IRString("stream")),
				Newest:  50,
			},
			wantSQL:    "SELECT id, pkey FROM (SELECT id, pkey FROM records WHERE entity = ? ORDER BY id DESC LIMIT ?) ORDER BY id ASC",
			wantParams: []any{"stream", 50},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sql, params, err := newCompiler().Compile(tt.query)
			require.NoError(t, err)
			assert.Equal(t, tt.wantSQL, sql)
			assert.Equal(t, tt.wantParams, params)
		})
	}
}

func TestCompileRejects(t *testing.T) {
	tests := []struct {
		name    string
		query   queryir.Query
		wantErr string
	}{
		{
			name:    "nil query",
			query:   nil,
			wantErr: "nil query",
		},
		{
			name:    "column outside whitelist",
			query:   queryir.Select{From: "records", Columns: []string{"secret"}},
			wantErr: "unknown column",
		},
		{
			name: "filter outside whitelist",
			query: queryir.Select{
				From:    "records",
				Columns: []string{"id"},
				Filter:  queryir.Eq("1=1 OR pkey", ir.IRString("x")),
			},
			wantErr: "unknown filter column",
		},
		{
			name: "null comparison",
			query: queryir.Select{
				From:    "records",
				Columns: []string{"id"},
				Filter:  queryir.Eq("pkey", ir.IRNull{}),
			},
			wantErr: "null comparison",
		},
		{
			name: "object parameter",
			query: queryir.Select{
				From:    "records",
				Columns: []string{"id"},
				Filter:  queryir.Eq("fields", ir.IRObject{}),
			},
			wantErr: "unsupported IRValue",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := newCompiler().Compile(tt.query)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestCompilePointerSelect(t *testing.T) {
	q := &queryir.Select{From: "records", Columns: []string{"id"}}
	sql, _, err := newCompiler().Compile(q)
	require.NoError(t, err)
	assert.Equal(t, "SELECT id FROM records ORDER BY id ASC", sql)

	var nilSelect *queryir.Select
	_, _, err = newCompiler().Compile(nilSelect)
	require.Error(t, err)
}
