package engine

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRuntimeError_Error(t *testing.T) {
	cause := errors.New("boom")

	assert.Equal(t, "CONFIGURATION: bad (context=#main): boom",
		NewConfigurationError("#main", "bad", cause).Error())
	assert.Equal(t, "LISTENER_FAILURE: listener failed (context=body, label=25%): boom",
		NewListenerFailure("body", "25%", cause).Error())
	assert.Equal(t, "DESTROYED: gone", (&RuntimeError{Code: ErrCodeDestroyed, Message: "gone"}).Error())
}

func TestRuntimeError_Helpers(t *testing.T) {
	cause := errors.New("boom")
	cfg := NewConfigurationError("#main", "bad", cause)
	wrapped := fmt.Errorf("setup: %w", cfg)

	assert.True(t, IsConfigurationError(cfg))
	assert.True(t, IsConfigurationError(wrapped))
	assert.False(t, IsListenerFailure(wrapped))
	assert.True(t, IsListenerFailure(NewListenerFailure("body", "x", cause)))
	assert.False(t, IsConfigurationError(cause))
	assert.False(t, IsConfigurationError(nil))
	assert.ErrorIs(t, wrapped, cause)
}
