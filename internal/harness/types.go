package harness

// Trace phases.
const (
	PhaseSetup = "setup"
	PhaseFlow  = "flow"
)

// TraceEvent records the outcome of one reconcile.
type TraceEvent struct {
	Seq      int64    `json:"seq"`
	Phase    string   `json:"phase"`
	Entity   string   `json:"entity"`
	RunID    string   `json:"run_id"`
	Context  string   `json:"context,omitempty"`
	Added    []string `json:"added"`
	Updated  []string `json:"updated"`
	Deleted  []string `json:"deleted"`
	Resolved []string `json:"resolved"`

	// Error is the error code of a failed reconcile.
	Error string `json:"error,omitempty"`
}

// Result is the outcome of a scenario.
type Result struct {
	// Pass is true when every expectation and assertion held.
	Pass bool `json:"pass"`

	Trace []TraceEvent `json:"trace"`

	// Errors describes every failed expectation and assertion.
	Errors []string `json:"errors,omitempty"`
}

// NewResult creates a passing result.
func NewResult() *Result {
	return &Result{
		Pass:   true,
		Trace:  []TraceEvent{},
		Errors: []string{},
	}
}

// AddError records a failure and marks the result as failed.
func (r *Result) AddError(err string) {
	r.Errors = append(r.Errors, err)
	r.Pass = false
}
