package queryir

import "github.com/roach88/graphmirror/internal/ir"

// Query is a sealed interface; only Select implements it.
type Query interface {
	queryNode()
}

// Predicate is a sealed filter condition.
//
// Predicate types:
//   - Equals: column = literal
//   - And: all predicates must hold
type Predicate interface {
	predicateNode()
}

// Select reads rows from one table.
//
//	SELECT <columns> FROM <from> WHERE <filter> ORDER BY id
//
// When Newest is positive only the Newest rows with the highest id are
// returned, still in ascending id order.
type Select struct {
	From    string    // Table name
	Columns []string  // Explicit column list (no SELECT *)
	Filter  Predicate // WHERE conditions (nil = no filter)
	Newest  int       // Window size, 0 = all rows
}

func (Select) queryNode() {}

// Equals is a column-equals-literal predicate. Values are always bound as
// parameters, never interpolated.
type Equals struct {
	Field string
	Value ir.IRValue
}

func (Equals) predicateNode() {}

// And is a conjunction. An empty And is vacuously true.
type And struct {
	Predicates []Predicate
}

func (And) predicateNode() {}

// Eq is shorthand for an Equals predicate.
func Eq(field string, value ir.IRValue) Equals {
	return Equals{Field: field, Value: value}
}

// All is shorthand for an And predicate.
func All(preds ...Predicate) And {
	return And{Predicates: preds}
}
