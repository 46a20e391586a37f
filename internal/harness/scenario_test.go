package harness

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/scrolldepth/internal/geometry"
)

const minimalScenario = `
name: minimal
description: "one step"
page:
  height: 1005
  viewport: 50
tracker:
  distances:
    percentage:
      each: [50]
steps:
  - scroll: 500
`

func TestParseScenario_Minimal(t *testing.T) {
	s, err := ParseScenario([]byte(minimalScenario))
	require.NoError(t, err)

	assert.Equal(t, "minimal", s.Name)
	assert.Equal(t, 1005.0, s.Page.Height)
	require.Len(t, s.Steps, 1)
	assert.Equal(t, StepScroll, s.Steps[0].Action())
	assert.Equal(t, 500.0, *s.Steps[0].Scroll)
	assert.Empty(t, s.Instance)
}

func TestParseScenario_AllStepKinds(t *testing.T) {
	s, err := ParseScenario([]byte(`
name: kinds
description: "every step kind"
page:
  height: 2000
  viewport: 500
  regions:
    "#feed":
      top: 100
      client_height: 300
      content_height: 900
tracker:
  top: "#header"
  distances:
    element:
      every: [".item"]
steps:
  - scroll: 10
  - scroll: 20
    region: "#feed"
  - advance: 250ms
  - grow: 3000
  - resize: 400
  - elements:
      ".item": [100, 200]
  - reset: true
  - check: true
  - update: true
  - destroy: true
`))
	require.NoError(t, err)

	var got []string
	for _, st := range s.Steps {
		got = append(got, st.Action())
	}
	assert.Equal(t, []string{
		StepScroll, StepScroll, StepAdvance, StepGrow, StepResize,
		StepElements, StepReset, StepCheck, StepUpdate, StepDestroy,
	}, got)
	assert.Equal(t, 250*time.Millisecond, s.Steps[2].Advance)
	assert.Equal(t, "#feed", s.Steps[1].Region)
	assert.Equal(t, geometry.Selector("#header"), s.Tracker.Top.BoundSpec)
}

func TestParseScenario_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		yaml    string
		wantErr string
	}{
		{
			name:    "missing name",
			yaml:    "description: d\npage: {height: 10, viewport: 5}\ntracker: {distances: {percentage: {each: [1]}}}\nsteps: [{check: true}]\n",
			wantErr: "name is required",
		},
		{
			name:    "missing description",
			yaml:    "name: n\npage: {height: 10, viewport: 5}\ntracker: {distances: {percentage: {each: [1]}}}\nsteps: [{check: true}]\n",
			wantErr: "description is required",
		},
		{
			name:    "zero viewport",
			yaml:    "name: n\ndescription: d\npage: {height: 10}\ntracker: {distances: {percentage: {each: [1]}}}\nsteps: [{check: true}]\n",
			wantErr: "viewport",
		},
		{
			name:    "no distances",
			yaml:    "name: n\ndescription: d\npage: {height: 10, viewport: 5}\nsteps: [{check: true}]\n",
			wantErr: "distances",
		},
		{
			name:    "no steps",
			yaml:    "name: n\ndescription: d\npage: {height: 10, viewport: 5}\ntracker: {distances: {percentage: {each: [1]}}}\n",
			wantErr: "steps list is required",
		},
		{
			name:    "two actions in one step",
			yaml:    "name: n\ndescription: d\npage: {height: 10, viewport: 5}\ntracker: {distances: {percentage: {each: [1]}}}\nsteps: [{check: true, reset: true}]\n",
			wantErr: "exactly one action",
		},
		{
			name:    "unknown region",
			yaml:    "name: n\ndescription: d\npage: {height: 10, viewport: 5}\ntracker: {distances: {percentage: {each: [1]}}}\nsteps: [{scroll: 1, region: '#x'}]\n",
			wantErr: "unknown region",
		},
		{
			name:    "unknown field",
			yaml:    "name: n\ndescription: d\npage: {height: 10, viewport: 5}\ntracker: {distances: {percentage: {each: [1]}}}\nsteps: [{check: true}]\nasserts: []\n",
			wantErr: "failed to parse YAML",
		},
		{
			name:    "tracker schema violation",
			yaml:    "name: n\ndescription: d\npage: {height: 10, viewport: 5}\ntracker: {min_height: -3, distances: {percentage: {each: [1]}}}\nsteps: [{check: true}]\n",
			wantErr: "tracker",
		},
		{
			name:    "unknown assertion",
			yaml:    "name: n\ndescription: d\npage: {height: 10, viewport: 5}\ntracker: {distances: {percentage: {each: [1]}}}\nsteps: [{check: true}]\nassertions: [{type: final_state}]\n",
			wantErr: "unknown assertion type",
		},
		{
			name:    "trace_count without label",
			yaml:    "name: n\ndescription: d\npage: {height: 10, viewport: 5}\ntracker: {distances: {percentage: {each: [1]}}}\nsteps: [{check: true}]\nassertions: [{type: trace_count, count: 1}]\n",
			wantErr: "label is required",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseScenario([]byte(tt.yaml))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestLoadScenario_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "s.yaml")
	require.NoError(t, os.WriteFile(path, []byte(minimalScenario), 0o644))

	s, err := LoadScenario(path)
	require.NoError(t, err)
	assert.Equal(t, "minimal", s.Name)
}

func TestLoadScenario_Missing(t *testing.T) {
	_, err := LoadScenario(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}
