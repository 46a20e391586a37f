package ir

import (
	"fmt"
	"strconv"
)

// Kind identifies what a measurement is expressed in.
type Kind string

const (
	KindPercentage Kind = "percentage"
	KindPixel      Kind = "pixel"
	KindElement    Kind = "element"
)

// Kinds lists every kind in canonical evaluation order.
var Kinds = []Kind{KindPercentage, KindPixel, KindElement}

// Frequency distinguishes a single threshold from a repeating step.
type Frequency string

const (
	// FrequencyEach produces exactly one mark per value.
	FrequencyEach Frequency = "each"
	// FrequencyEvery produces a mark at every multiple of the value.
	FrequencyEvery Frequency = "every"
)

// Frequencies lists every frequency in canonical evaluation order.
var Frequencies = []Frequency{FrequencyEvery, FrequencyEach}

// MeasurementSpec is a declarative threshold request.
// Identity is the full (Kind, Frequency, Value) triple.
type MeasurementSpec struct {
	Kind      Kind      `json:"kind"`
	Frequency Frequency `json:"frequency"`
	// Value is a canonical decimal for percentage and pixel specs and a
	// selector for element specs.
	Value string `json:"value"`
}

// NumericSpec builds a percentage or pixel spec. The value is stored in
// shortest decimal form so 25 and 25.0 map to the same key.
func NumericSpec(kind Kind, freq Frequency, n float64) MeasurementSpec {
	return MeasurementSpec{Kind: kind, Frequency: freq, Value: FormatNumber(n)}
}

// ElementSpec builds an element spec for a selector.
func ElementSpec(freq Frequency, selector string) MeasurementSpec {
	return MeasurementSpec{Kind: KindElement, Frequency: freq, Value: selector}
}

// Number parses the numeric value of a percentage or pixel spec.
func (s MeasurementSpec) Number() (float64, error) {
	if s.Kind == KindElement {
		return 0, fmt.Errorf("element spec %q has no numeric value", s.Value)
	}
	n, err := strconv.ParseFloat(s.Value, 64)
	if err != nil {
		return 0, fmt.Errorf("spec %s/%s: invalid number %q: %w", s.Kind, s.Frequency, s.Value, err)
	}
	return n, nil
}

// String renders the spec as "kind/frequency/value".
func (s MeasurementSpec) String() string {
	return fmt.Sprintf("%s/%s/%s", s.Kind, s.Frequency, s.Value)
}

// FormatNumber renders n in the shortest decimal form used for keys and labels.
func FormatNumber(n float64) string {
	return strconv.FormatFloat(n, 'f', -1, 64)
}

// NumericSet lists percentage or pixel values by frequency.
type NumericSet struct {
	Each  []float64 `json:"each,omitempty" yaml:"each,omitempty"`
	Every []float64 `json:"every,omitempty" yaml:"every,omitempty"`
}

// SelectorSet lists element selectors by frequency.
type SelectorSet struct {
	Each  []string `json:"each,omitempty" yaml:"each,omitempty"`
	Every []string `json:"every,omitempty" yaml:"every,omitempty"`
}

// Distances is the configuration accepted by Engine.On.
// Every listed (kind, frequency, value) combination is registered.
type Distances struct {
	Percentage *NumericSet  `json:"percentage,omitempty" yaml:"percentage,omitempty"`
	Pixel      *NumericSet  `json:"pixel,omitempty" yaml:"pixel,omitempty"`
	Element    *SelectorSet `json:"element,omitempty" yaml:"element,omitempty"`
}

// Specs expands the configuration into individual measurement specs.
// Order: percentage, pixel, element; each before every; values as listed.
func (d Distances) Specs() []MeasurementSpec {
	var specs []MeasurementSpec
	for _, ns := range []struct {
		kind Kind
		set  *NumericSet
	}{{KindPercentage, d.Percentage}, {KindPixel, d.Pixel}} {
		if ns.set == nil {
			continue
		}
		for _, n := range ns.set.Each {
			specs = append(specs, NumericSpec(ns.kind, FrequencyEach, n))
		}
		for _, n := range ns.set.Every {
			specs = append(specs, NumericSpec(ns.kind, FrequencyEvery, n))
		}
	}
	if d.Element != nil {
		for _, sel := range d.Element.Each {
			specs = append(specs, ElementSpec(FrequencyEach, sel))
		}
		for _, sel := range d.Element.Every {
			specs = append(specs, ElementSpec(FrequencyEvery, sel))
		}
	}
	return specs
}

// Empty reports whether no values are configured.
func (d Distances) Empty() bool {
	return len(d.Specs()) == 0
}

// Listener receives crossing notifications. A returned error (or a panic)
// is isolated by the engine and never stops other listeners.
type Listener func(c Crossing) error

// Mark is a single depth threshold plus the listeners to invoke when it
// is crossed. Marks are disposable; only Label survives recomputation.
type Mark struct {
	Label     string     `json:"label"`
	Depth     int64      `json:"depth"`
	Listeners []Listener `json:"-"`
}

// Crossing is the payload delivered to listeners and dispatch sinks.
type Crossing struct {
	Label string `json:"label"`
	Depth int64  `json:"depth"`

	// Instance identifies the engine that produced the crossing.
	Instance string `json:"instance,omitempty"`
	// Epoch counts resets on the producing engine; a label fires at most
	// once per epoch.
	Epoch int64 `json:"epoch"`
	// Seq is the engine's logical clock value at firing time.
	Seq int64 `json:"seq"`
}
