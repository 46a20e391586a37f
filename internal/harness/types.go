package harness

// TraceEvent is one crossing observed during a scenario.
type TraceEvent struct {
	// AtMS is scheduler time since the scenario started.
	AtMS  int64  `json:"at_ms"`
	Label string `json:"label"`
	Depth int64  `json:"depth"`
	Epoch int64  `json:"epoch"`
	Seq   int64  `json:"seq"`
}

// Result is the outcome of a scenario execution.
type Result struct {
	// Pass indicates overall test success.
	// True if all assertions hold.
	Pass bool `json:"pass"`

	// Instance is the engine instance id the trace was recorded under.
	Instance string `json:"instance"`

	// Trace contains every crossing in firing order.
	Trace []TraceEvent `json:"trace"`

	// Errors contains assertion failure messages.
	// Empty if Pass is true.
	Errors []string `json:"errors,omitempty"`

	// Final engine state, captured after the last step.
	Marks    []string `json:"marks"`
	Tracked  []string `json:"tracked"`
	Failures int64    `json:"failures"`
	Logged   int      `json:"logged"`
}

// NewResult creates a new passing result.
func NewResult() *Result {
	return &Result{
		Pass:    true,
		Trace:   []TraceEvent{},
		Errors:  []string{},
		Marks:   []string{},
		Tracked: []string{},
	}
}

// AddError adds a validation error and marks the result as failed.
func (r *Result) AddError(err string) {
	r.Errors = append(r.Errors, err)
	r.Pass = false
}

// AddCrossing appends a crossing to the trace.
func (r *Result) AddCrossing(ev TraceEvent) {
	r.Trace = append(r.Trace, ev)
}

// Labels returns the trace labels in firing order.
func (r *Result) Labels() []string {
	out := make([]string, len(r.Trace))
	for i, ev := range r.Trace {
		out[i] = ev.Label
	}
	return out
}
