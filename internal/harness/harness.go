package harness

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"slices"

	"github.com/roach88/graphmirror/internal/ir"
	"github.com/roach88/graphmirror/internal/reconcile"
	"github.com/roach88/graphmirror/internal/schema"
	"github.com/roach88/graphmirror/internal/store"
)

// Harness executes one scenario.
type Harness struct {
	registry *schema.Registry
	store    *store.Store
	engine   *reconcile.Engine
	viewer   string
	seq      int64
}

// Run executes a scenario in a fresh in-memory store.
//
// The returned error covers failures of the harness itself (store setup,
// a failing setup batch). Failed expectations and assertions are reported
// in the Result.
func Run(scenario *Scenario) (*Result, error) {
	st, err := store.Open(":memory:")
	if err != nil {
		return nil, fmt.Errorf("failed to create in-memory store: %w", err)
	}
	defer st.Close()

	registry := schema.Default()
	viewer := scenario.Viewer
	if viewer == "" {
		viewer = DefaultViewer
	}

	h := &Harness{
		registry: registry,
		store:    st,
		engine: reconcile.New(registry, st,
			reconcile.WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))),
			reconcile.WithRunIDGenerator(reconcile.NewSequenceGenerator("run")),
		),
		viewer: viewer,
	}

	ctx := context.Background()
	result := NewResult()

	for i, b := range scenario.Setup {
		batch, err := h.records(b.Entity, b.Records, b.Exact)
		if err != nil {
			return nil, fmt.Errorf("setup[%d]: %w", i, err)
		}
		res, err := h.engine.Reconcile(ctx, b.Entity, viewer, batch, reconcile.Options{})
		h.trace(result, PhaseSetup, b.Entity, res, err)
		if err != nil {
			return nil, fmt.Errorf("setup[%d]: %w", i, err)
		}
	}

	for i, step := range scenario.Flow {
		batch, err := h.records(step.Reconcile, step.Records, step.Exact)
		if err != nil {
			return nil, fmt.Errorf("flow[%d]: %w", i, err)
		}
		res, err := h.engine.Reconcile(ctx, step.Reconcile, viewer, batch, reconcile.Options{
			Context: step.Context,
			Stream:  step.Stream,
		})
		h.trace(result, PhaseFlow, step.Reconcile, res, err)
		for _, msg := range checkExpect(step.Expect, res, err) {
			result.AddError(fmt.Sprintf("flow[%d] %s: %s", i, step.Reconcile, msg))
		}
	}

	actx := &AssertionContext{Ctx: ctx, Store: st, Viewer: viewer}
	for _, msg := range EvaluateAssertions(scenario.Assertions, actx) {
		result.AddError(msg)
	}
	return result, nil
}

// records converts scenario records to a remote batch, padding missing
// tracked fields with null unless exact is set.
func (h *Harness) records(entity string, raw []map[string]any, exact bool) ([]ir.RemoteRecord, error) {
	s, ok := h.registry.Lookup(entity)
	if !ok {
		return nil, fmt.Errorf("unknown entity %q", entity)
	}

	batch := make([]ir.RemoteRecord, len(raw))
	for i, fields := range raw {
		rec := make(ir.RemoteRecord, len(s.Fields))
		if !exact {
			for _, name := range s.FieldNames() {
				rec[name] = nil
			}
		}
		for k, v := range fields {
			rec[k] = v
		}
		batch[i] = rec
	}
	return batch, nil
}

func (h *Harness) trace(result *Result, phase, entity string, res reconcile.Result, err error) {
	h.seq++
	event := TraceEvent{
		Seq:      h.seq,
		Phase:    phase,
		Entity:   entity,
		RunID:    res.RunID,
		Context:  res.Context,
		Added:    nonNil(res.Added),
		Updated:  nonNil(res.Updated),
		Deleted:  nonNil(res.Deleted),
		Resolved: nonNil(res.Resolved),
	}
	if err != nil {
		event.Error = errorCode(err)
	}
	result.Trace = append(result.Trace, event)
}

// errorCode returns the ir error code of err, or "ERROR" for any other
// failure.
func errorCode(err error) string {
	if code, ok := ir.CodeOf(err); ok {
		return string(code)
	}
	return "ERROR"
}

func checkExpect(expect *ExpectClause, res reconcile.Result, err error) []string {
	var msgs []string
	switch {
	case expect != nil && expect.Error != "":
		if err == nil {
			msgs = append(msgs, fmt.Sprintf("expected error %s, reconcile succeeded", expect.Error))
		} else if code := errorCode(err); code != expect.Error {
			msgs = append(msgs, fmt.Sprintf("expected error %s, got %v", expect.Error, err))
		}
	case err != nil:
		msgs = append(msgs, fmt.Sprintf("unexpected error: %v", err))
	}
	if expect == nil {
		return msgs
	}

	lists := []struct {
		name      string
		want, got []string
	}{
		{"added", expect.Added, res.Added},
		{"updated", expect.Updated, res.Updated},
		{"deleted", expect.Deleted, res.Deleted},
		{"resolved", expect.Resolved, res.Resolved},
	}
	for _, l := range lists {
		if l.want == nil {
			continue
		}
		if !slices.Equal(l.want, nonNil(l.got)) {
			msgs = append(msgs, fmt.Sprintf("%s: expected %v, got %v", l.name, l.want, nonNil(l.got)))
		}
	}
	return msgs
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
