package queryir

import "fmt"

// Fields returns every column referenced by a predicate, in order.
func Fields(p Predicate) []string {
	var out []string
	walk(p, func(eq Equals) { out = append(out, eq.Field) })
	return out
}

// Validate checks that a select only names allowed columns and that its
// window is not negative.
func Validate(q Select, allowed map[string]bool) error {
	if q.From == "" {
		return fmt.Errorf("select: missing table")
	}
	if len(q.Columns) == 0 {
		return fmt.Errorf("select from %s: no columns", q.From)
	}
	if q.Newest < 0 {
		return fmt.Errorf("select from %s: negative window %d", q.From, q.Newest)
	}
	for _, c := range q.Columns {
		if !allowed[c] {
			return fmt.Errorf("select from %s: unknown column %q", q.From, c)
		}
	}
	for _, f := range Fields(q.Filter) {
		if !allowed[f] {
			return fmt.Errorf("select from %s: unknown filter column %q", q.From, f)
		}
	}
	return nil
}

func walk(p Predicate, visit func(Equals)) {
	switch pred := p.(type) {
	case Equals:
		visit(pred)
	case And:
		for _, child := range pred.Predicates {
			walk(child, visit)
		}
	}
}
