// Package querysql compiles queryir selects to parameterized SQLite SQL.
package querysql

import (
	"fmt"
	"strings"

	"github.com/roach88/graphmirror/internal/ir"
	"github.com/roach88/graphmirror/internal/queryir"
)

// SQLCompiler compiles queryir selects against a fixed column whitelist.
//
// Every query is ordered by id so reads are deterministic. Values are always
// bound as ? parameters; only whitelisted identifiers reach the SQL text.
type SQLCompiler struct {
	allowed map[string]bool
}

// NewSQLCompiler creates a compiler that accepts only the given columns.
// The id column is always allowed since it drives ordering.
func NewSQLCompiler(columns ...string) *SQLCompiler {
	allowed := map[string]bool{"id": true}
	for _, c := range columns {
		allowed[c] = true
	}
	return &SQLCompiler{allowed: allowed}
}

// Compile converts a query to (sql, params).
func (c *SQLCompiler) Compile(q queryir.Query) (string, []any, error) {
	switch query := q.(type) {
	case queryir.Select:
		return c.compileSelect(query)
	case *queryir.Select:
		if query == nil {
			return "", nil, fmt.Errorf("cannot compile nil query")
		}
		return c.compileSelect(*query)
	case nil:
		return "", nil, fmt.Errorf("cannot compile nil query")
	default:
		return "", nil, fmt.Errorf("unsupported query type: %T", q)
	}
}

func (c *SQLCompiler) compileSelect(q queryir.Select) (string, []any, error) {
	if err := queryir.Validate(q, c.allowed); err != nil {
		return "", nil, err
	}

	columns := strings.Join(q.Columns, ", ")

	var where string
	var params []any
	if q.Filter != nil {
		filterSQL, filterParams, err := c.compilePredicate(q.Filter)
		if err != nil {
			return "", nil, fmt.Errorf("compile filter: %w", err)
		}
		where = " WHERE " + filterSQL
		params = filterParams
	}

	if q.Newest == 0 {
		sql := fmt.Sprintf("SELECT %s FROM %s%s ORDER BY %s", columns, q.From, where, orderKey("ASC"))
		return sql, params, nil
	}

	// Take the window newest-first, then hand it back oldest-first.
	inner := fmt.Sprintf("SELECT %s FROM %s%s ORDER BY %s LIMIT ?", columns, q.From, where, orderKey("DESC"))
	sql := fmt.Sprintf("SELECT %s FROM (%s) ORDER BY %s", columns, inner, orderKey("ASC"))
	return sql, append(params, q.Newest), nil
}

func orderKey(direction string) string {
	return "id " + direction
}

// compilePredicate compiles a predicate to a WHERE fragment.
func (c *SQLCompiler) compilePredicate(p queryir.Predicate) (string, []any, error) {
	switch pred := p.(type) {
	case nil:
		return "1 = 1", nil, nil
	case queryir.Equals:
		return c.compileEquals(pred)
	case queryir.And:
		return c.compileAnd(pred)
	default:
		return "", nil, fmt.Errorf("unsupported predicate type: %T", p)
	}
}

func (c *SQLCompiler) compileEquals(eq queryir.Equals) (string, []any, error) {
	param, err := irValueToParam(eq.Value)
	if err != nil {
		return "", nil, fmt.Errorf("field %s: %w", eq.Field, err)
	}
	if param == nil {
		// "= NULL" never matches in SQL.
		return "", nil, fmt.Errorf("field %s: null comparison is not supported", eq.Field)
	}
	return eq.Field + " = ?", []any{param}, nil
}

func (c *SQLCompiler) compileAnd(and queryir.And) (string, []any, error) {
	if len(and.Predicates) == 0 {
		return "1 = 1", nil, nil
	}

	parts := make([]string, 0, len(and.Predicates))
	var params []any
	for _, pred := range and.Predicates {
		sql, p, err := c.compilePredicate(pred)
		if err != nil {
			return "", nil, err
		}
		parts = append(parts, sql)
		params = append(params, p...)
	}
	return strings.Join(parts, " AND "), params, nil
}

// irValueToParam converts a scalar IRValue to a driver parameter.
func irValueToParam(v ir.IRValue) (any, error) {
	switch val := v.(type) {
	case ir.IRString:
		return string(val), nil
	case ir.IRInt:
		return int64(val), nil
	case ir.IRBool:
		return bool(val), nil
	case ir.IRNull, nil:
		return nil, nil
	default:
		return nil, fmt.Errorf("unsupported IRValue type for SQL parameter: %T", v)
	}
}
