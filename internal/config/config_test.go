package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/scrolldepth/internal/engine"
	"github.com/roach88/scrolldepth/internal/geometry"
	"github.com/roach88/scrolldepth/internal/ir"
	"github.com/roach88/scrolldepth/internal/sink"
	"github.com/roach88/scrolldepth/internal/testutil"
)

func TestLoad_Article(t *testing.T) {
	cfg, err := Load(filepath.Join("testdata", "article.yaml"))
	require.NoError(t, err)

	assert.Equal(t, "body", cfg.Context)
	assert.Equal(t, int64(600), cfg.MinHeight)
	assert.Equal(t, geometry.Pixels(120), cfg.Top.BoundSpec)
	assert.Equal(t, geometry.Selector("#comments"), cfg.Bottom.BoundSpec)
	require.NotNil(t, cfg.Throttle)
	assert.Equal(t, 250*time.Millisecond, *cfg.Throttle)
	require.NotNil(t, cfg.PollInterval)
	assert.Equal(t, time.Second, *cfg.PollInterval)

	assert.Equal(t, []ir.MeasurementSpec{
		ir.NumericSpec(ir.KindPercentage, ir.FrequencyEvery, 25),
		ir.NumericSpec(ir.KindPixel, ir.FrequencyEach, 500),
		ir.NumericSpec(ir.KindPixel, ir.FrequencyEach, 1500),
		ir.ElementSpec(ir.FrequencyEach, "#footer"),
	}, cfg.Distances.Specs())

	assert.Equal(t, sink.Tagging{Label: "/posts/hello", Category: "articles"}, cfg.Tagging())
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
	assert.True(t, errors.Is(err, os.ErrNotExist))
}

func TestParse_Empty(t *testing.T) {
	cfg, err := Parse("empty.yaml", []byte(""))
	require.NoError(t, err)
	assert.True(t, cfg.Distances.Empty())
	assert.Nil(t, cfg.Throttle)
}

func TestParse_SchemaErrors(t *testing.T) {
	tests := []struct {
		name  string
		yaml  string
		field string
	}{
		{"unknown field", "colour: red\n", "colour"},
		{"negative min height", "min_height: -1\n", "min_height"},
		{"fractional min height", "min_height: 1.5\n", "min_height"},
		{"bad duration", "throttle: soon\n", "throttle"},
		{"non-positive every", "distances:\n  percentage:\n    every: [0]\n", "distances.percentage.every.0"},
		{"empty selector", "distances:\n  element:\n    each: [\"\"]\n", "distances.element.each.0"},
		{"empty bound", "top: \"\"\n", "top"},
		{"bad webhook", "dispatch:\n  webhook: ftp://x\n", "dispatch.webhook"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse("bad.yaml", []byte(tt.yaml))
			require.Error(t, err)

			var ve *ValidationError
			require.True(t, errors.As(err, &ve), "got %T: %v", err, err)
			assert.Equal(t, tt.field, ve.Field)
		})
	}
}

func TestParse_InvalidYAML(t *testing.T) {
	_, err := Parse("broken.yaml", []byte("distances: [\n"))
	assert.Error(t, err)
}

func TestParse_ZeroPollInterval(t *testing.T) {
	cfg, err := Parse("c.yaml", []byte("poll_interval: 0s\n"))
	require.NoError(t, err)
	require.NotNil(t, cfg.PollInterval)
	assert.Equal(t, time.Duration(0), *cfg.PollInterval)
}

func TestValidate(t *testing.T) {
	neg := -time.Second

	tests := []struct {
		name  string
		cfg   Config
		field string
	}{
		{"negative min height", Config{MinHeight: -5}, "min_height"},
		{"negative throttle", Config{Throttle: &neg}, "throttle"},
		{"negative poll", Config{PollInterval: &neg}, "poll_interval"},
		{
			"zero every step",
			Config{Distances: ir.Distances{Pixel: &ir.NumericSet{Every: []float64{0}}}},
			"distances.pixel.every",
		},
		{
			"empty element",
			Config{Distances: ir.Distances{Element: &ir.SelectorSet{Each: []string{""}}}},
			"distances.element",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			var ve *ValidationError
			require.True(t, errors.As(err, &ve), "got %v", err)
			assert.Equal(t, tt.field, ve.Field)
		})
	}

	assert.NoError(t, Config{}.Validate())
}

func TestEngineOptions(t *testing.T) {
	cfg, err := Parse("c.yaml", []byte(`
min_height: 100
top: 50
poll_interval: 0s
distances:
  percentage:
    every: [50]
`))
	require.NoError(t, err)

	page := geometry.NewPage(1055, 50)
	sched := testutil.NewManualScheduler()
	opts := append(cfg.EngineOptions(), engine.WithIDGenerator(testutil.NewFixedIDGenerator("cfg")))

	e, err := engine.New(page, sched, opts...)
	require.NoError(t, err)
	defer e.Destroy()

	e.On(cfg.Distances, func(ir.Crossing) error { return nil })

	// H = 1055 - 50 - 5 = 1000, offset 50.
	var depths []int64
	for _, m := range e.Marks() {
		depths = append(depths, m.Depth)
	}
	assert.Equal(t, []int64{550, 1050}, depths)
	assert.Equal(t, 0, sched.Pending(), "polling disabled, nothing scheduled")
}

func TestEngineOptions_InvalidContext(t *testing.T) {
	cfg := Config{Context: "#missing"}
	_, err := engine.New(geometry.NewPage(1000, 500), testutil.NewManualScheduler(), cfg.EngineOptions()...)
	assert.True(t, engine.IsConfigurationError(err))
}

func TestConfigJSON(t *testing.T) {
	d := 250 * time.Millisecond
	cfg := Config{
		Context:  "#feed",
		Top:      Bound{geometry.Pixels(10)},
		Bottom:   Bound{geometry.Selector("#end")},
		Throttle: &d,
		Distances: ir.Distances{
			Percentage: &ir.NumericSet{Every: []float64{12.5}},
		},
	}

	got, err := cfg.JSON()
	require.NoError(t, err)
	assert.JSONEq(t, `{
		"context": "#feed",
		"top": 10,
		"bottom": "#end",
		"throttle": 250000000,
		"distances": {"percentage": {"every": [12.5]}}
	}`, got)
}

func TestConfigJSON_UnsetBoundsOmitted(t *testing.T) {
	got, err := Config{}.JSON()
	require.NoError(t, err)
	assert.JSONEq(t, `{"distances": {}}`, got)
}
