// Package query builds remote query strings for mirrored entities.
//
// The remote language is SQL-like:
//
//	SELECT <tracked fields> FROM <entity> <clause>
//
// The clause is caller-supplied text starting at the filter keyword. It is
// passed through untouched; a malformed clause surfaces as a fetch error.
package query

import (
	"fmt"
	"strings"

	"github.com/roach88/graphmirror/internal/schema"
)

// Build returns the remote query requesting exactly the schema's tracked
// fields, in declaration order.
func Build(s *schema.Schema, clause string) string {
	q := "SELECT " + strings.Join(s.FieldNames(), ", ") + " FROM " + s.Name
	if clause = strings.TrimSpace(clause); clause != "" {
		q += " " + clause
	}
	return q
}

// ForContext formats a clause template holding one %d verb with a context
// identifier, e.g. "WHERE owner=%d" and 1001.
func ForContext(template string, contextID int64) string {
	return fmt.Sprintf(template, contextID)
}
