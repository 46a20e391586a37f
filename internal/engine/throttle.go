package engine

import (
	"time"

	"github.com/roach88/scrolldepth/internal/loop"
)

// Throttle bounds how often fn runs.
//
// A call made while the window is idle (fn never ran, or last ran at
// least one window ago) runs fn immediately. Any other call stores its
// argument and ensures exactly one trailing run at last+window with the
// most recent argument. Not safe for concurrent use.
type Throttle[T any] struct {
	sched  loop.Scheduler
	window time.Duration
	fn     func(T)

	ran     bool
	last    time.Time
	pending loop.Timer
	arg     T
	stopped bool
}

// NewThrottle wraps fn.
func NewThrottle[T any](sched loop.Scheduler, window time.Duration, fn func(T)) *Throttle[T] {
	return &Throttle[T]{sched: sched, window: window, fn: fn}
}

// Call requests a run of fn with arg.
func (t *Throttle[T]) Call(arg T) {
	if t.stopped {
		return
	}

	now := t.sched.Now()
	if !t.ran || now.Sub(t.last) >= t.window {
		t.cancelPending()
		t.run(now, arg)
		return
	}

	t.arg = arg
	if t.pending != nil {
		return
	}
	t.pending = t.sched.AfterFunc(t.last.Add(t.window).Sub(now), t.trailing)
}

// Pending reports whether a trailing run is scheduled.
func (t *Throttle[T]) Pending() bool {
	return t.pending != nil
}

// Stop drops any pending trailing run; later calls do nothing.
func (t *Throttle[T]) Stop() {
	t.stopped = true
	t.cancelPending()
}

func (t *Throttle[T]) trailing() {
	t.pending = nil
	if t.stopped {
		return
	}
	arg := t.arg
	var zero T
	t.arg = zero
	t.run(t.sched.Now(), arg)
}

func (t *Throttle[T]) run(now time.Time, arg T) {
	t.ran = true
	t.last = now
	t.fn(arg)
}

func (t *Throttle[T]) cancelPending() {
	if t.pending != nil {
		t.pending.Stop()
		t.pending = nil
	}
}
