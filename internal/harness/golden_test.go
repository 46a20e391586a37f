package harness

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTraceSnapshot_Canonical(t *testing.T) {
	r := NewResult()
	r.Instance = "eng-1"
	r.AddCrossing(TraceEvent{AtMS: 500, Label: "#footer", Depth: 1900, Epoch: 0, Seq: 1})
	r.Marks = []string{"#footer"}
	r.Tracked = []string{"#footer"}

	snap := NewTraceSnapshot("s", r)
	got, err := snap.MarshalCanonical()
	require.NoError(t, err)
	assert.Equal(t,
		`{"instance":"eng-1","marks":["#footer"],"scenario_name":"s","trace":[{"at_ms":500,"depth":1900,"epoch":0,"label":"#footer","seq":1}],"tracked":["#footer"]}`,
		string(got))
}

func TestTraceSnapshot_EmptyLists(t *testing.T) {
	snap := TraceSnapshot{ScenarioName: "empty", Instance: "i"}
	got, err := snap.MarshalCanonical()
	require.NoError(t, err)
	assert.Equal(t, `{"instance":"i","marks":[],"scenario_name":"empty","trace":[],"tracked":[]}`, string(got))
}
