package queryir

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/graphmirror/internal/ir"
)

var recordColumns = map[string]bool{"id": true, "entity": true, "viewer": true, "pkey": true}

func TestFields(t *testing.T) {
	p := All(
		Eq("entity", ir.IRString("album")),
		All(Eq("viewer", ir.IRString("alice")), Eq("pkey", ir.IRString("a1"))),
	)
	assert.Equal(t, []string{"entity", "viewer", "pkey"}, Fields(p))
	assert.Empty(t, Fields(nil))
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		query   Select
		wantErr string
	}{
		{
			name:  "valid",
			query: Select{From: "records", Columns: []string{"id"}, Filter: Eq("viewer", ir.IRString("alice"))},
		},
		{
			name:    "missing table",
			query:   Select{Columns: []string{"id"}},
			wantErr: "missing table",
		},
		{
			name:    "no columns",
			query:   Select{From: "records"},
			wantErr: "no columns",
		},
		{
			name:    "unknown column",
			query:   Select{From: "records", Columns: []string{"id; DROP TABLE records"}},
			wantErr: "unknown column",
		},
		{
			name:    "unknown filter column",
			query:   Select{From: "records", Columns: []string{"id"}, Filter: All(Eq("owner", ir.IRInt(1)))},
			wantErr: "unknown filter column",
		},
		{
			name:    "negative window",
			query:   Select{From: "records", Columns: []string{"id"}, Newest: -1},
			wantErr: "negative window",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Validate(tt.query, recordColumns)
			if tt.wantErr == "" {
				require.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}
