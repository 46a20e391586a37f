package config

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/roach88/scrolldepth/internal/engine"
	"github.com/roach88/scrolldepth/internal/geometry"
	"github.com/roach88/scrolldepth/internal/ir"
	"github.com/roach88/scrolldepth/internal/sink"
)

// Config is one tracker: the region to watch, its bounds and timing,
// the distances to report and where crossings go.
type Config struct {
	Context   string `yaml:"context,omitempty" json:"context,omitempty"`
	MinHeight int64  `yaml:"min_height,omitempty" json:"min_height,omitempty"`
	Top       Bound  `yaml:"top,omitempty" json:"top,omitzero"`
	Bottom    Bound  `yaml:"bottom,omitempty" json:"bottom,omitzero"`

	// Throttle and PollInterval are nil when unset so engine defaults
	// apply. A zero PollInterval disables growth polling.
	Throttle     *time.Duration `yaml:"throttle,omitempty" json:"throttle,omitempty"`
	PollInterval *time.Duration `yaml:"poll_interval,omitempty" json:"poll_interval,omitempty"`

	Distances ir.Distances `yaml:"distances" json:"distances"`
	Dispatch  Dispatch     `yaml:"dispatch,omitempty" json:"dispatch,omitzero"`
}

// Dispatch configures where crossings are sent.
type Dispatch struct {
	Category string `yaml:"category,omitempty" json:"category,omitempty"`
	Label    string `yaml:"label,omitempty" json:"label,omitempty"`
	Event    string `yaml:"event,omitempty" json:"event,omitempty"`
	// DB is a SQLite path for the crossing log.
	DB      string `yaml:"db,omitempty" json:"db,omitempty"`
	Webhook string `yaml:"webhook,omitempty" json:"webhook,omitempty"`
}

// Bound is a top or bottom bound written as a number of pixels or as a
// selector string.
type Bound struct {
	geometry.BoundSpec
}

// UnmarshalYAML accepts a scalar number or string.
func (b *Bound) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind != yaml.ScalarNode {
		return fmt.Errorf("line %d: bound must be a number or a selector", node.Line)
	}
	var n float64
	switch node.ShortTag() {
	case "!!int", "!!float":
		if err := node.Decode(&n); err != nil {
			return err
		}
		b.BoundSpec = geometry.Pixels(n)
		return nil
	}
	if node.Value == "" {
		return fmt.Errorf("line %d: empty bound selector", node.Line)
	}
	b.BoundSpec = geometry.Selector(node.Value)
	return nil
}

// MarshalYAML writes the bound back in its source form.
func (b Bound) MarshalYAML() (any, error) {
	if b.IsPixels {
		return b.Pixels, nil
	}
	return b.Selector, nil
}

// IsZero lets omitempty drop unset bounds.
func (b Bound) IsZero() bool {
	return b.BoundSpec.IsZero()
}

func (b Bound) MarshalJSON() ([]byte, error) {
	if b.IsPixels {
		return json.Marshal(b.Pixels)
	}
	return json.Marshal(b.Selector)
}

// Load reads, validates and decodes a config file.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	return Parse(path, data)
}

// Parse validates data against the schema and decodes it strictly.
func Parse(filename string, data []byte) (*Config, error) {
	if err := ValidateSchema(filename, data); err != nil {
		return nil, err
	}

	var cfg Config
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("decode %s: %w", filename, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", filename, err)
	}
	return &cfg, nil
}

// Validate checks what the schema cannot express. It is also the only
// check applied to configs built in code or embedded in scenarios.
func (c Config) Validate() error {
	if c.MinHeight < 0 {
		return &ValidationError{Field: "min_height", Message: fmt.Sprintf("must be >= 0, got %d", c.MinHeight)}
	}
	if c.Throttle != nil && *c.Throttle < 0 {
		return &ValidationError{Field: "throttle", Message: "must not be negative"}
	}
	if c.PollInterval != nil && *c.PollInterval < 0 {
		return &ValidationError{Field: "poll_interval", Message: "must not be negative"}
	}
	for _, bound := range []struct {
		field string
		b     Bound
	}{{"top", c.Top}, {"bottom", c.Bottom}} {
		if bound.b.IsPixels && !finite(bound.b.Pixels) {
			return &ValidationError{Field: bound.field, Message: "must be finite"}
		}
	}
	for _, spec := range c.Distances.Specs() {
		if spec.Kind == ir.KindElement {
			if spec.Value == "" {
				return &ValidationError{Field: "distances.element", Message: "empty selector"}
			}
			continue
		}
		n, err := spec.Number()
		if err != nil || !finite(n) {
			return &ValidationError{Field: "distances." + string(spec.Kind), Message: fmt.Sprintf("invalid value %q", spec.Value)}
		}
		if spec.Frequency == ir.FrequencyEvery && n <= 0 {
			return &ValidationError{Field: "distances." + string(spec.Kind) + ".every", Message: fmt.Sprintf("step must be > 0, got %s", spec.Value)}
		}
	}
	return nil
}

// EngineOptions converts the config into engine options.
func (c Config) EngineOptions() []engine.Option {
	opts := []engine.Option{
		engine.WithContext(c.Context),
		engine.WithMinHeight(c.MinHeight),
		engine.WithBounds(c.Top.BoundSpec, c.Bottom.BoundSpec),
	}
	if c.Throttle != nil {
		opts = append(opts, engine.WithThrottle(*c.Throttle))
	}
	if c.PollInterval != nil {
		opts = append(opts, engine.WithPollInterval(*c.PollInterval))
	}
	return opts
}

// Tagging returns the analytics fields for data-layer and webhook sinks.
func (c Config) Tagging() sink.Tagging {
	return sink.Tagging{
		Event:    c.Dispatch.Event,
		Label:    c.Dispatch.Label,
		Category: c.Dispatch.Category,
	}
}

// JSON renders the config for the instance record of the crossing log.
func (c Config) JSON() (string, error) {
	data, err := json.Marshal(c)
	if err != nil {
		return "", fmt.Errorf("marshal config: %w", err)
	}
	return string(data), nil
}

func finite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}
