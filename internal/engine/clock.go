package engine

import "sync/atomic"

// Clock is a monotonic logical clock. Every crossing an engine emits is
// stamped with the next value, so replayed scenarios order identically
// regardless of wall-clock time.
//
// Clock is safe for concurrent use, although an engine only ever calls
// it from its loop goroutine.
type Clock struct {
	seq atomic.Int64
}

// NewClock creates a new clock starting at 0.
func NewClock() *Clock {
	return &Clock{}
}

// Next increments the clock and returns the new value.
func (c *Clock) Next() int64 {
	return c.seq.Add(1)
}
