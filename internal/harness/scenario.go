package harness

import (
	"bytes"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/roach88/graphmirror/internal/ir"
	"github.com/roach88/graphmirror/internal/schema"
)

// DefaultViewer is used when a scenario names no viewer.
const DefaultViewer = "viewer"

// Scenario is one reconcile test case.
type Scenario struct {
	// Name identifies the scenario and its golden file.
	Name string `yaml:"name"`

	Description string `yaml:"description"`

	// Viewer owns every record of the scenario. Default: DefaultViewer.
	Viewer string `yaml:"viewer,omitempty"`

	// Setup batches are reconciled first and must succeed.
	Setup []Batch `yaml:"setup,omitempty"`

	// Flow steps are the reconciles under test.
	Flow []FlowStep `yaml:"flow"`

	// Assertions check the final local state.
	Assertions []Assertion `yaml:"assertions"`
}

// Batch is a setup reconcile.
type Batch struct {
	Entity  string           `yaml:"entity"`
	Records []map[string]any `yaml:"records"`

	// Exact sends records as written instead of padding missing tracked
	// fields with null.
	Exact bool `yaml:"exact,omitempty"`
}

// FlowStep is a reconcile under test.
type FlowStep struct {
	// Reconcile is the entity name.
	Reconcile string           `yaml:"reconcile"`
	Records   []map[string]any `yaml:"records"`
	Exact     bool             `yaml:"exact,omitempty"`

	// Context is the explicit owner natural key.
	Context string `yaml:"context,omitempty"`

	// Stream overrides the entity's stream flag.
	Stream *bool `yaml:"stream,omitempty"`

	Expect *ExpectClause `yaml:"expect,omitempty"`
}

// ExpectClause describes the expected result of a flow step. A nil list
// is not checked; an empty list must match an empty result list.
type ExpectClause struct {
	// Error is the expected error code, e.g. CONTEXT_MISMATCH.
	Error string `yaml:"error,omitempty"`

	Added    []string `yaml:"added,omitempty"`
	Updated  []string `yaml:"updated,omitempty"`
	Deleted  []string `yaml:"deleted,omitempty"`
	Resolved []string `yaml:"resolved,omitempty"`
}

// Assertion checks the final local state.
type Assertion struct {
	Type string `yaml:"type"`

	// Entity is checked by keys and fields.
	Entity string `yaml:"entity,omitempty"`

	// Context limits keys to one owner (keys).
	Context string `yaml:"context,omitempty"`

	// Keys are the expected primary keys in storage order (keys).
	Keys []string `yaml:"keys,omitempty"`

	// Key selects the record (fields).
	Key string `yaml:"key,omitempty"`

	// Expect is a subset of the record's stored fields (fields).
	Expect map[string]any `yaml:"expect,omitempty"`

	// Kind is the struct kind (struct_count).
	Kind string `yaml:"kind,omitempty"`

	// Status filters runs by status (run_count).
	Status string `yaml:"status,omitempty"`

	// Count is the expected number (run_count, struct_count).
	Count int `yaml:"count,omitempty"`
}

// Assertion types.
const (
	AssertKeys        = "keys"
	AssertFields      = "fields"
	AssertRunCount    = "run_count"
	AssertStructCount = "struct_count"
)

var errorCodes = map[string]bool{
	string(ir.ErrCodeSchemaMismatch):    true,
	string(ir.ErrCodeTypeMismatch):      true,
	string(ir.ErrCodeNotFound):          true,
	string(ir.ErrCodeIntegrityConflict): true,
	string(ir.ErrCodeContextMismatch):   true,
}

// LoadScenario reads a scenario file. Unknown YAML fields are rejected.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}
	return ParseScenario(data)
}

// ParseScenario decodes and validates a scenario.
func ParseScenario(data []byte) (*Scenario, error) {
	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if err := validateScenario(&scenario, schema.Default()); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}
	return &scenario, nil
}

func validateScenario(s *Scenario, registry *schema.Registry) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}
	if s.Description == "" {
		return fmt.Errorf("description is required")
	}
	if len(s.Flow) == 0 {
		return fmt.Errorf("flow list is required and must be non-empty")
	}

	known := func(entity string) bool {
		_, ok := registry.Lookup(entity)
		return ok
	}

	for i, b := range s.Setup {
		if !known(b.Entity) {
			return fmt.Errorf("setup[%d]: unknown entity %q", i, b.Entity)
		}
	}
	for i, step := range s.Flow {
		if !known(step.Reconcile) {
			return fmt.Errorf("flow[%d]: unknown entity %q", i, step.Reconcile)
		}
		if step.Expect != nil && step.Expect.Error != "" && !errorCodes[step.Expect.Error] {
			return fmt.Errorf("flow[%d].expect: unknown error code %q", i, step.Expect.Error)
		}
	}

	for i, a := range s.Assertions {
		if err := validateAssertion(i, a, known); err != nil {
			return err
		}
	}
	return nil
}

func validateAssertion(index int, a Assertion, known func(string) bool) error {
	switch a.Type {
	case AssertKeys:
		if !known(a.Entity) {
			return fmt.Errorf("assertions[%d]: unknown entity %q", index, a.Entity)
		}
		if a.Keys == nil {
			return fmt.Errorf("assertions[%d]: keys is required for keys (use [] for none)", index)
		}
	case AssertFields:
		if !known(a.Entity) {
			return fmt.Errorf("assertions[%d]: unknown entity %q", index, a.Entity)
		}
		if a.Key == "" || len(a.Expect) == 0 {
			return fmt.Errorf("assertions[%d]: key and expect are required for fields", index)
		}
	case AssertRunCount:
		if a.Count < 0 {
			return fmt.Errorf("assertions[%d]: count must be non-negative", index)
		}
		if a.Status != "" && a.Status != ir.RunStatusOK && a.Status != ir.RunStatusError {
			return fmt.Errorf("assertions[%d]: unknown run status %q", index, a.Status)
		}
	case AssertStructCount:
		if a.Kind == "" {
			return fmt.Errorf("assertions[%d]: kind is required for struct_count", index)
		}
		if a.Count < 0 {
			return fmt.Errorf("assertions[%d]: count must be non-negative", index)
		}
	case "":
		return fmt.Errorf("assertions[%d]: type is required", index)
	default:
		return fmt.Errorf("assertions[%d]: unknown assertion type %q", index, a.Type)
	}
	return nil
}
