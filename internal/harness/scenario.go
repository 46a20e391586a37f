package harness

import (
	"bytes"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/roach88/scrolldepth/internal/config"
)

// Scenario is a scripted scroll session: a page, a tracker attached to
// it, timed steps that move the page and the clock, and assertions on
// the resulting crossings.
type Scenario struct {
	// Name uniquely identifies this scenario and names its golden file.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description"`

	// Page is the initial document.
	Page PageSpec `yaml:"page"`

	// Tracker is the engine configuration under test.
	Tracker config.Config `yaml:"tracker"`

	// Steps run in order after the tracker is attached.
	Steps []Step `yaml:"steps"`

	// Assertions validate the final trace and engine state.
	Assertions []Assertion `yaml:"assertions,omitempty"`

	// Instance is the fixed engine instance id.
	// If empty, defaults to "test-engine-default" so golden traces are
	// byte-identical across runs.
	Instance string `yaml:"instance,omitempty"`
}

// PageSpec describes the in-memory page a scenario runs against.
type PageSpec struct {
	Height   float64              `yaml:"height"`
	Viewport float64              `yaml:"viewport"`
	Elements map[string][]float64 `yaml:"elements,omitempty"`
	Regions  map[string]Region    `yaml:"regions,omitempty"`
}

// Region is a nested scrollable box on the page.
type Region struct {
	Top           float64              `yaml:"top"`
	ClientHeight  float64              `yaml:"client_height"`
	ContentHeight float64              `yaml:"content_height"`
	ScrollTop     float64              `yaml:"scroll_top,omitempty"`
	Elements      map[string][]float64 `yaml:"elements,omitempty"`
}

// Step is one action. Exactly one of the action fields must be set.
// Region, when set, retargets scroll, grow and elements at a nested
// region instead of the body.
type Step struct {
	Scroll   *float64             `yaml:"scroll,omitempty"`
	Advance  time.Duration        `yaml:"advance,omitempty"`
	Grow     *float64             `yaml:"grow,omitempty"`
	Resize   *float64             `yaml:"resize,omitempty"`
	Elements map[string][]float64 `yaml:"elements,omitempty"`
	Reset    bool                 `yaml:"reset,omitempty"`
	Check    bool                 `yaml:"check,omitempty"`
	Update   bool                 `yaml:"update,omitempty"`
	Destroy  bool                 `yaml:"destroy,omitempty"`

	Region string `yaml:"region,omitempty"`
}

// Action names the step's action.
func (s Step) Action() string {
	switch {
	case s.Scroll != nil:
		return StepScroll
	case s.Advance != 0:
		return StepAdvance
	case s.Grow != nil:
		return StepGrow
	case s.Resize != nil:
		return StepResize
	case s.Elements != nil:
		return StepElements
	case s.Reset:
		return StepReset
	case s.Check:
		return StepCheck
	case s.Update:
		return StepUpdate
	case s.Destroy:
		return StepDestroy
	default:
		return ""
	}
}

func (s Step) actions() int {
	n := 0
	for _, set := range []bool{
		s.Scroll != nil, s.Advance != 0, s.Grow != nil, s.Resize != nil,
		s.Elements != nil, s.Reset, s.Check, s.Update, s.Destroy,
	} {
		if set {
			n++
		}
	}
	return n
}

// Step action names.
const (
	StepScroll   = "scroll"
	StepAdvance  = "advance"
	StepGrow     = "grow"
	StepResize   = "resize"
	StepElements = "elements"
	StepReset    = "reset"
	StepCheck    = "check"
	StepUpdate   = "update"
	StepDestroy  = "destroy"
)

// Assertion validates the trace or final engine state.
type Assertion struct {
	// Type specifies the assertion type:
	// - "trace_contains": a crossing for Label (optionally at Depth/Epoch)
	// - "trace_order": Labels fire in this relative order
	// - "trace_count": Label fires exactly Count times
	// - "tracked": the final tracked set is exactly Labels
	// - "marks": the final marks are exactly Labels, in depth order
	// - "logged": Count crossings were persisted to the crossing log
	Type string `yaml:"type"`

	Label  string   `yaml:"label,omitempty"`
	Labels []string `yaml:"labels,omitempty"`
	Depth  *int64   `yaml:"depth,omitempty"`
	Epoch  *int64   `yaml:"epoch,omitempty"`
	Count  int      `yaml:"count,omitempty"`
}

// Assertion type constants.
const (
	AssertTraceContains = "trace_contains"
	AssertTraceOrder    = "trace_order"
	AssertTraceCount    = "trace_count"
	AssertTracked       = "tracked"
	AssertMarks         = "marks"
	AssertLogged        = "logged"
)

// LoadScenario reads and parses a scenario YAML file.
// Returns an error if the file doesn't exist, is malformed,
// contains unknown fields (typos), or is missing required fields.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}
	return ParseScenario(data)
}

// ParseScenario parses scenario YAML with strict field checking.
func ParseScenario(data []byte) (*Scenario, error) {
	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true) // Reject unknown fields
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if err := validateTrackerSchema(data); err != nil {
		return nil, fmt.Errorf("invalid scenario: tracker: %w", err)
	}
	if err := validateScenario(&scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}

	return &scenario, nil
}

// validateTrackerSchema runs the tracker subtree through the config
// schema so scenarios and config files accept the same shapes.
func validateTrackerSchema(data []byte) error {
	var raw struct {
		Tracker yaml.Node `yaml:"tracker"`
	}
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return err
	}
	if raw.Tracker.Kind == 0 {
		return nil
	}
	out, err := yaml.Marshal(&raw.Tracker)
	if err != nil {
		return err
	}
	return config.ValidateSchema("tracker", out)
}

// validateScenario checks that required fields are present and valid.
func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}

	if s.Description == "" {
		return fmt.Errorf("description is required")
	}

	if s.Page.Height < 0 {
		return fmt.Errorf("page.height must be >= 0")
	}
	if s.Page.Viewport <= 0 {
		return fmt.Errorf("page.viewport must be > 0")
	}

	if err := s.Tracker.Validate(); err != nil {
		return fmt.Errorf("tracker: %w", err)
	}
	if s.Tracker.Distances.Empty() {
		return fmt.Errorf("tracker.distances must configure at least one distance")
	}

	if len(s.Steps) == 0 {
		return fmt.Errorf("steps list is required and must be non-empty")
	}
	for i, step := range s.Steps {
		if n := step.actions(); n != 1 {
			return fmt.Errorf("steps[%d]: exactly one action is required, got %d", i, n)
		}
		if step.Advance < 0 {
			return fmt.Errorf("steps[%d]: advance must be positive", i)
		}
		if step.Region != "" {
			if _, ok := s.Page.Regions[step.Region]; !ok {
				return fmt.Errorf("steps[%d]: unknown region %q", i, step.Region)
			}
			switch step.Action() {
			case StepScroll, StepGrow, StepElements:
			default:
				return fmt.Errorf("steps[%d]: region only applies to scroll, grow and elements", i)
			}
		}
	}

	for i, assertion := range s.Assertions {
		if err := validateAssertion(i, &assertion); err != nil {
			return err
		}
	}

	return nil
}

// validateAssertion validates a single assertion based on its type.
func validateAssertion(index int, a *Assertion) error {
	if a.Type == "" {
		return fmt.Errorf("assertions[%d]: type is required", index)
	}

	switch a.Type {
	case AssertTraceContains:
		if a.Label == "" {
			return fmt.Errorf("assertions[%d]: label is required for trace_contains", index)
		}
	case AssertTraceOrder:
		if len(a.Labels) == 0 {
			return fmt.Errorf("assertions[%d]: labels list is required for trace_order", index)
		}
	case AssertTraceCount:
		if a.Label == "" {
			return fmt.Errorf("assertions[%d]: label is required for trace_count", index)
		}
		if a.Count < 0 {
			return fmt.Errorf("assertions[%d]: count must be non-negative for trace_count", index)
		}
	case AssertTracked, AssertMarks:
		// An empty list asserts emptiness.
	case AssertLogged:
		if a.Count < 0 {
			return fmt.Errorf("assertions[%d]: count must be non-negative for logged", index)
		}
	default:
		return fmt.Errorf("assertions[%d]: unknown assertion type %q", index, a.Type)
	}

	return nil
}
