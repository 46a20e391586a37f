package harness

import (
	"testing"

	"github.com/sebdah/goldie/v2"

	"github.com/roach88/scrolldepth/internal/ir"
)

// TraceSnapshot captures the complete trace for a scenario execution.
// All fields use canonical JSON serialization for deterministic comparison.
type TraceSnapshot struct {
	ScenarioName string       `json:"scenario_name"`
	Instance     string       `json:"instance"`
	Trace        []TraceEvent `json:"trace"`
	Marks        []string     `json:"marks"`
	Tracked      []string     `json:"tracked"`
}

// NewTraceSnapshot builds the snapshot of a result.
func NewTraceSnapshot(name string, result *Result) TraceSnapshot {
	return TraceSnapshot{
		ScenarioName: name,
		Instance:     result.Instance,
		Trace:        result.Trace,
		Marks:        result.Marks,
		Tracked:      result.Tracked,
	}
}

// toCanonicalMap converts a TraceSnapshot to a map[string]any for canonical JSON serialization.
// This is required because ir.MarshalCanonical only handles primitives, maps and slices.
func (s *TraceSnapshot) toCanonicalMap() map[string]any {
	traceList := make([]any, len(s.Trace))
	for i, ev := range s.Trace {
		traceList[i] = map[string]any{
			"at_ms": ev.AtMS,
			"label": ev.Label,
			"depth": ev.Depth,
			"epoch": ev.Epoch,
			"seq":   ev.Seq,
		}
	}

	marks := s.Marks
	if marks == nil {
		marks = []string{}
	}
	tracked := s.Tracked
	if tracked == nil {
		tracked = []string{}
	}

	return map[string]any{
		"scenario_name": s.ScenarioName,
		"instance":      s.Instance,
		"trace":         traceList,
		"marks":         marks,
		"tracked":       tracked,
	}
}

// MarshalCanonical renders the snapshot as canonical JSON.
func (s *TraceSnapshot) MarshalCanonical() ([]byte, error) {
	return ir.MarshalCanonical(s.toCanonicalMap())
}

// RunWithGolden executes a scenario and compares the trace against a golden file.
// The golden file is stored in testdata/golden/{scenario.Name}.golden
//
// To regenerate golden files, run:
//
//	go test ./internal/harness -update
func RunWithGolden(t *testing.T, scenario *Scenario) (*Result, error) {
	t.Helper()

	result, err := Run(scenario)
	if err != nil {
		return nil, err
	}
	if err := AssertGolden(t, scenario.Name, result); err != nil {
		return nil, err
	}
	return result, nil
}

// AssertGolden compares the given result's trace against a golden file.
// This is useful when you've already run a scenario and want to compare
// the result against a golden file without re-running.
func AssertGolden(t *testing.T, scenarioName string, result *Result) error {
	t.Helper()

	snapshot := NewTraceSnapshot(scenarioName, result)
	traceJSON, err := snapshot.MarshalCanonical()
	if err != nil {
		return err
	}

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, scenarioName, traceJSON)

	return nil
}
