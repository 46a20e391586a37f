package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/scrolldepth/internal/config"
)

func TestValidate_Valid(t *testing.T) {
	out, err := execute(t, NewValidateCommand(textOpts()), simpleConfig)
	require.NoError(t, err)

	assert.Contains(t, out, "✓ "+simpleConfig)
	assert.Contains(t, out, "✓ All configs valid")
}

func TestValidate_ValidJSON(t *testing.T) {
	out, err := execute(t, NewValidateCommand(jsonOpts()), simpleConfig)
	require.NoError(t, err)

	var resp struct {
		Status string           `json:"status"`
		Data   ValidationResult `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, "ok", resp.Status)
	assert.True(t, resp.Data.Valid)
	require.Len(t, resp.Data.Configs, 1)
	assert.Equal(t, simpleConfig, resp.Data.Configs[0].Path)
}

func TestValidate_SchemaViolation(t *testing.T) {
	bad := filepath.Join("testdata", "bad_schema.yaml")
	out, err := execute(t, NewValidateCommand(textOpts()), bad)
	require.Error(t, err)

	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, out, "✗ "+bad)
	assert.Contains(t, out, "min_height")
	assert.Contains(t, out, "✗ Validation failed")
}

func TestValidate_MixedJSON(t *testing.T) {
	bad := filepath.Join("testdata", "bad_schema.yaml")
	out, err := execute(t, NewValidateCommand(jsonOpts()), simpleConfig, bad)
	require.Error(t, err)

	var resp struct {
		Status string           `json:"status"`
		Data   ValidationResult `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, "error", resp.Status)
	assert.False(t, resp.Data.Valid)
	require.Len(t, resp.Data.Configs, 2)
	assert.True(t, resp.Data.Configs[0].Valid)
	assert.False(t, resp.Data.Configs[1].Valid)
	require.Len(t, resp.Data.Configs[1].Errors, 1)
	assert.Equal(t, "min_height", resp.Data.Configs[1].Errors[0].Field)
}

func TestValidate_NotFound(t *testing.T) {
	out, err := execute(t, NewValidateCommand(textOpts()), "/nonexistent/tracker.yaml")
	require.Error(t, err)

	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, err.Error(), "E005")
	assert.Contains(t, out, "config not found")
}

func TestValidate_RequiresArg(t *testing.T) {
	_, err := execute(t, NewValidateCommand(textOpts()))
	require.Error(t, err)
}

func TestIssueFromError(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		wantCode string
		field    string
	}{
		{
			name:     "semantic",
			err:      fmt.Errorf("tracker.yaml: %w", &config.ValidationError{Field: "distances.pixel.every", Message: "step must be > 0"}),
			wantCode: ErrCodeValidation,
			field:    "distances.pixel.every",
		},
		{
			name:     "decode",
			err:      errors.New("decode tracker.yaml: yaml: line 2: mapping values are not allowed"),
			wantCode: ErrCodeParse,
			field:    "config",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			issue := issueFromError(tt.err)
			assert.Equal(t, tt.wantCode, issue.Code)
			assert.Equal(t, tt.field, issue.Field)
			assert.Zero(t, issue.Line)
		})
	}
}
