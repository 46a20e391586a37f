package cli

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type marksResponse struct {
	Status string      `json:"status"`
	Data   MarksResult `json:"data"`
}

func TestMarks_Text(t *testing.T) {
	out, err := execute(t, NewMarksCommand(textOpts()), simpleConfig,
		"--height", "2005", "--viewport", "500", "--element", "#footer=1800")
	require.NoError(t, err)

	assert.Contains(t, out, "height 2005, viewport 500, depth 500")
	assert.Contains(t, out, "LABEL")
	assert.Contains(t, out, "500px")
	assert.Contains(t, out, "#footer")
	assert.Less(t, strings.Index(out, "500px"), strings.Index(out, "50%"))
	assert.Less(t, strings.Index(out, "#footer"), strings.Index(out, "100%"))
}

func TestMarks_JSON(t *testing.T) {
	out, err := execute(t, NewMarksCommand(jsonOpts()), simpleConfig,
		"--height", "2005", "--viewport", "500", "--element", "#footer=1800")
	require.NoError(t, err)

	var resp marksResponse
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, "ok", resp.Status)
	assert.Equal(t, int64(500), resp.Data.Depth)
	assert.Equal(t, []MarkRow{
		{Label: "500px", Depth: 500, Reached: true},
		{Label: "50%", Depth: 1000},
		{Label: "#footer", Depth: 1800},
		{Label: "100%", Depth: 2000},
	}, resp.Data.Marks)
}

func TestMarks_ScrollPosition(t *testing.T) {
	out, err := execute(t, NewMarksCommand(jsonOpts()), simpleConfig,
		"--height", "2005", "--viewport", "500", "--scroll", "1000")
	require.NoError(t, err)

	var resp marksResponse
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, int64(1500), resp.Data.Depth)

	reached := map[string]bool{}
	for _, m := range resp.Data.Marks {
		reached[m.Label] = m.Reached
	}
	// No --element, so #footer has no mark.
	assert.Equal(t, map[string]bool{"500px": true, "50%": true, "100%": false}, reached)
}

func TestMarks_MissingConfig(t *testing.T) {
	_, err := execute(t, NewMarksCommand(textOpts()), "/nonexistent.yaml", "--height", "1000")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}

func TestMarks_RequiresHeight(t *testing.T) {
	_, err := execute(t, NewMarksCommand(textOpts()), simpleConfig)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "height")
}

func TestMarks_InvalidElement(t *testing.T) {
	_, err := execute(t, NewMarksCommand(textOpts()), simpleConfig, "--height", "1000", "--element", "#footer")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}

func TestParseElementFlag(t *testing.T) {
	tests := []struct {
		in      string
		sel     string
		offsets []float64
		wantErr bool
	}{
		{in: "#footer=1800", sel: "#footer", offsets: []float64{1800}},
		{in: ".card=100, 250.5,", sel: ".card", offsets: []float64{100, 250.5}},
		{in: "[data-x=1]=40", sel: "[data-x=1]", offsets: []float64{40}},
		{in: "#footer", wantErr: true},
		{in: "=100", wantErr: true},
		{in: "#footer=", wantErr: true},
		{in: "#footer=abc", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			sel, offsets, err := parseElementFlag(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.sel, sel)
			assert.Equal(t, tt.offsets, offsets)
		})
	}
}
