// Package sink defines dispatch backends for crossings.
package sink

import (
	"context"

	"github.com/roach88/scrolldepth/internal/ir"
)

// Sink is the dispatch interface. Implementations deliver crossings to
// different backends (data-layer JSON lines, webhook, sqlite log,
// in-process callback).
type Sink interface {
	Send(ctx context.Context, c ir.Crossing) error
	Close() error
}

// Listener adapts s to an engine listener. Send errors are returned to
// the engine, which logs and counts them without stopping other
// listeners.
func Listener(ctx context.Context, s Sink) ir.Listener {
	return func(c ir.Crossing) error {
		return s.Send(ctx, c)
	}
}
