package harness

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"slices"
	"sort"

	"github.com/roach88/graphmirror/internal/ir"
	"github.com/roach88/graphmirror/internal/queryir"
	"github.com/roach88/graphmirror/internal/schema"
	"github.com/roach88/graphmirror/internal/store"
)

// AssertionContext is the state assertions run against.
type AssertionContext struct {
	Ctx    context.Context
	Store  *store.Store
	Viewer string
}

// AssertionError describes one failed assertion.
type AssertionError struct {
	Type     string
	Expected string
	Actual   string
}

// Error implements the error interface.
func (e *AssertionError) Error() string {
	return fmt.Sprintf("assertion failed: %s\n  Expected: %s\n  Actual: %s", e.Type, e.Expected, e.Actual)
}

// EvaluateAssertions runs every assertion and returns the failure messages.
func EvaluateAssertions(assertions []Assertion, actx *AssertionContext) []string {
	var errs []string
	for i, a := range assertions {
		if err := evaluate(a, actx); err != nil {
			errs = append(errs, fmt.Sprintf("assertions[%d]: %v", i, err))
		}
	}
	return errs
}

func evaluate(a Assertion, actx *AssertionContext) error {
	switch a.Type {
	case AssertKeys:
		return assertKeys(a, actx)
	case AssertFields:
		return assertFields(a, actx)
	case AssertRunCount:
		return assertRunCount(a, actx)
	case AssertStructCount:
		return assertStructCount(a, actx)
	default:
		return fmt.Errorf("unknown assertion type %q", a.Type)
	}
}

func assertKeys(a Assertion, actx *AssertionContext) error {
	pred := []queryir.Predicate{store.ByViewer(actx.Viewer)}
	if a.Context != "" {
		owner, err := ownerID(a, actx)
		if err != nil {
			return err
		}
		pred = append(pred, store.ByOwner(owner))
	}

	recs, err := actx.Store.Filter(actx.Ctx, a.Entity, queryir.All(pred...))
	if err != nil {
		return err
	}
	keys := make([]string, len(recs))
	for i, r := range recs {
		keys[i] = r.Key
	}

	if !slices.Equal(keys, a.Keys) {
		return &AssertionError{
			Type:     AssertKeys,
			Expected: fmt.Sprintf("%s keys %v", a.Entity, a.Keys),
			Actual:   fmt.Sprintf("%v", keys),
		}
	}
	return nil
}

// ownerID resolves the assertion's context to the storage id of the
// owner record the entity's owner field points at.
func ownerID(a Assertion, actx *AssertionContext) (int64, error) {
	s, _ := schema.Default().Lookup(a.Entity)
	owner, ok := s.Owner()
	if !ok {
		return 0, fmt.Errorf("%s is session-scoped and has no context", a.Entity)
	}
	rec, err := actx.Store.Get(actx.Ctx, owner.Target, queryir.All(store.ByViewer(actx.Viewer), store.ByKey(a.Context)))
	if err != nil {
		return 0, err
	}
	return rec.ID, nil
}

func assertFields(a Assertion, actx *AssertionContext) error {
	rec, err := actx.Store.Get(actx.Ctx, a.Entity, queryir.All(store.ByViewer(actx.Viewer), store.ByKey(a.Key)))
	if err != nil {
		return err
	}

	names := make([]string, 0, len(a.Expect))
	for name := range a.Expect {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		want, err := json.Marshal(a.Expect[name])
		if err != nil {
			return fmt.Errorf("field %s: %w", name, err)
		}
		got, err := ir.MarshalIRValue(rec.Fields[name])
		if err != nil {
			return fmt.Errorf("field %s: %w", name, err)
		}
		if !bytes.Equal(want, got) {
			return &AssertionError{
				Type:     AssertFields,
				Expected: fmt.Sprintf("%s %s.%s = %s", a.Entity, a.Key, name, want),
				Actual:   string(got),
			}
		}
	}
	return nil
}

func assertRunCount(a Assertion, actx *AssertionContext) error {
	runs, err := actx.Store.ReadRuns(actx.Ctx, actx.Viewer, 0)
	if err != nil {
		return err
	}
	n := 0
	for _, r := range runs {
		if a.Status == "" || r.Status == a.Status {
			n++
		}
	}
	if n != a.Count {
		return &AssertionError{
			Type:     AssertRunCount,
			Expected: fmt.Sprintf("%d runs (status %q)", a.Count, a.Status),
			Actual:   fmt.Sprintf("%d runs", n),
		}
	}
	return nil
}

func assertStructCount(a Assertion, actx *AssertionContext) error {
	n, err := actx.Store.CountStructs(actx.Ctx, a.Kind)
	if err != nil {
		return err
	}
	if n != a.Count {
		return &AssertionError{
			Type:     AssertStructCount,
			Expected: fmt.Sprintf("%d %s structs", a.Count, a.Kind),
			Actual:   fmt.Sprintf("%d", n),
		}
	}
	return nil
}
