package harness

import (
	"testing"

	"github.com/sebdah/goldie/v2"

	"github.com/roach88/graphmirror/internal/ir"
)

// Snapshot renders a scenario's trace as canonical JSON for golden files.
func Snapshot(name string, result *Result) ([]byte, error) {
	trace := make([]any, len(result.Trace))
	for i, event := range result.Trace {
		m := map[string]any{
			"seq":      event.Seq,
			"phase":    event.Phase,
			"entity":   event.Entity,
			"run_id":   event.RunID,
			"added":    event.Added,
			"updated":  event.Updated,
			"deleted":  event.Deleted,
			"resolved": event.Resolved,
		}
		if event.Context != "" {
			m["context"] = event.Context
		}
		if event.Error != "" {
			m["error"] = event.Error
		}
		trace[i] = m
	}

	return ir.MarshalCanonical(map[string]any{
		"scenario_name": name,
		"trace":         trace,
	})
}

// RunWithGolden executes a scenario, fails t on any expectation or
// assertion failure, and compares the trace with
// testdata/golden/{scenario.Name}.golden.
//
// To regenerate golden files, run:
//
//	go test ./internal/harness -update
func RunWithGolden(t *testing.T, scenario *Scenario) error {
	t.Helper()

	result, err := Run(scenario)
	if err != nil {
		return err
	}
	for _, msg := range result.Errors {
		t.Error(msg)
	}
	return AssertGolden(t, scenario.Name, result)
}

// AssertGolden compares an existing result's trace with its golden file.
func AssertGolden(t *testing.T, name string, result *Result) error {
	t.Helper()

	data, err := Snapshot(name, result)
	if err != nil {
		return err
	}

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, name, data)
	return nil
}
