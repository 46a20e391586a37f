package harness

import (
	"fmt"
	"slices"
	"strings"
)

// AssertionError is returned when an assertion fails.
// It includes detailed context to help debug the failure.
type AssertionError struct {
	Type     string       // Assertion type for categorization
	Expected string       // Human-readable expected outcome
	Actual   string       // Human-readable actual outcome
	Trace    []TraceEvent // Full trace for debugging context
}

// Error implements the error interface.
func (e *AssertionError) Error() string {
	var buf strings.Builder

	fmt.Fprintf(&buf, "Assertion failed: %s\n", e.Type)
	fmt.Fprintf(&buf, "  Expected: %s\n", e.Expected)
	fmt.Fprintf(&buf, "  Actual: %s\n", e.Actual)

	fmt.Fprintf(&buf, "\nFull trace:\n")
	for i, ev := range e.Trace {
		fmt.Fprintf(&buf, "  [%d] t=%dms %s depth=%d epoch=%d\n", i+1, ev.AtMS, ev.Label, ev.Depth, ev.Epoch)
	}

	return buf.String()
}

// assertTraceContains checks the trace for a crossing of the label,
// optionally at a given depth and epoch.
func assertTraceContains(trace []TraceEvent, a Assertion) error {
	for _, ev := range trace {
		if ev.Label != a.Label {
			continue
		}
		if a.Depth != nil && ev.Depth != *a.Depth {
			continue
		}
		if a.Epoch != nil && ev.Epoch != *a.Epoch {
			continue
		}
		return nil
	}

	want := a.Label
	if a.Depth != nil {
		want += fmt.Sprintf(" at depth %d", *a.Depth)
	}
	if a.Epoch != nil {
		want += fmt.Sprintf(" in epoch %d", *a.Epoch)
	}
	return &AssertionError{
		Type:     AssertTraceContains,
		Expected: "crossing " + want,
		Actual:   "not found in trace",
		Trace:    trace,
	}
}

// assertTraceOrder checks that labels first fire in the given order.
// Labels don't need to be consecutive.
func assertTraceOrder(trace []TraceEvent, a Assertion) error {
	// First position of each expected label, 1-indexed.
	positions := make(map[string]int)
	for i, ev := range trace {
		if positions[ev.Label] == 0 {
			positions[ev.Label] = i + 1
		}
	}

	for _, label := range a.Labels {
		if positions[label] == 0 {
			return &AssertionError{
				Type:     AssertTraceOrder,
				Expected: fmt.Sprintf("all labels present: %v", a.Labels),
				Actual:   fmt.Sprintf("missing label: %s", label),
				Trace:    trace,
			}
		}
	}

	for i := 1; i < len(a.Labels); i++ {
		prev, curr := a.Labels[i-1], a.Labels[i]
		if positions[prev] >= positions[curr] {
			return &AssertionError{
				Type:     AssertTraceOrder,
				Expected: fmt.Sprintf("labels in order: %v", a.Labels),
				Actual: fmt.Sprintf("%s (pos %d) should be before %s (pos %d)",
					prev, positions[prev], curr, positions[curr]),
				Trace: trace,
			}
		}
	}
	return nil
}

// assertTraceCount checks the label fires exactly Count times.
func assertTraceCount(trace []TraceEvent, a Assertion) error {
	count := 0
	for _, ev := range trace {
		if ev.Label == a.Label {
			count++
		}
	}
	if count != a.Count {
		return &AssertionError{
			Type:     AssertTraceCount,
			Expected: fmt.Sprintf("%s fired %d times", a.Label, a.Count),
			Actual:   fmt.Sprintf("fired %d times", count),
			Trace:    trace,
		}
	}
	return nil
}

// assertLabels compares a final-state label list exactly.
func assertLabels(kind string, got, want []string, trace []TraceEvent) error {
	if want == nil {
		want = []string{}
	}
	if !slices.Equal(got, want) {
		return &AssertionError{
			Type:     kind,
			Expected: fmt.Sprintf("%v", want),
			Actual:   fmt.Sprintf("%v", got),
			Trace:    trace,
		}
	}
	return nil
}

// EvaluateAssertions evaluates all assertions against the result.
// Returns a slice of error messages for failed assertions.
func EvaluateAssertions(result *Result, assertions []Assertion) []string {
	var errors []string

	for i, a := range assertions {
		var err error

		switch a.Type {
		case AssertTraceContains:
			err = assertTraceContains(result.Trace, a)
		case AssertTraceOrder:
			err = assertTraceOrder(result.Trace, a)
		case AssertTraceCount:
			err = assertTraceCount(result.Trace, a)
		case AssertTracked:
			err = assertLabels(AssertTracked, result.Tracked, a.Labels, result.Trace)
		case AssertMarks:
			err = assertLabels(AssertMarks, result.Marks, a.Labels, result.Trace)
		case AssertLogged:
			if result.Logged != a.Count {
				err = &AssertionError{
					Type:     AssertLogged,
					Expected: fmt.Sprintf("%d crossings logged", a.Count),
					Actual:   fmt.Sprintf("%d crossings logged", result.Logged),
					Trace:    result.Trace,
				}
			}
		default:
			err = fmt.Errorf("assertion[%d]: unknown assertion type %q", i, a.Type)
		}

		if err != nil {
			errors = append(errors, err.Error())
		}
	}

	return errors
}
