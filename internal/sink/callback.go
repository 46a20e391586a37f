package sink

import (
	"context"

	"github.com/roach88/scrolldepth/internal/ir"
)

// CrossingFunc is called for each crossing (in-process, zero serialisation).
type CrossingFunc func(ctx context.Context, c ir.Crossing) error

// Callback delivers crossings via a Go function call.
type Callback struct {
	fn CrossingFunc
}

// NewCallback creates a Callback sink. fn may be nil.
func NewCallback(fn CrossingFunc) *Callback {
	return &Callback{fn: fn}
}

func (c *Callback) Send(ctx context.Context, cr ir.Crossing) error {
	if c.fn != nil {
		return c.fn(ctx, cr)
	}
	return nil
}

func (c *Callback) Close() error { return nil }
