package harness

// RunSummary is the outcome of one reduction of a scenario's program.
type RunSummary struct {
	Workers int    `json:"workers"`
	Status  string `json:"status"`
	Steps   int64  `json:"steps"`
	Agents  int    `json:"agents"`
	Hash    string `json:"hash"`
}

// Result is the outcome of a test scenario execution.
type Result struct {
	// Pass is true if every run met every expectation and all runs reached
	// the same canonical net.
	Pass bool `json:"pass"`

	// Runs has one entry per worker count, in scenario order.
	Runs []RunSummary `json:"runs"`

	// Errors contains validation error messages.
	// Empty if Pass is true.
	Errors []string `json:"errors,omitempty"`

	// Canonical is the canonical JSON of the first run's final net.
	Canonical []byte `json:"-"`

	// Rules counts rule firings of the first run.
	Rules map[string]int64 `json:"rules,omitempty"`
}

// NewResult creates a new passing result.
func NewResult() *Result {
	return &Result{
		Pass:   true,
		Runs:   []RunSummary{},
		Errors: []string{},
	}
}

// AddError adds a validation error and marks the result as failed.
func (r *Result) AddError(err string) {
	r.Errors = append(r.Errors, err)
	r.Pass = false
}
