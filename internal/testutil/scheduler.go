// Package testutil provides deterministic time and identity for tests
// and the replay harness.
package testutil

import (
	"slices"
	"sync"
	"time"

	"github.com/roach88/scrolldepth/internal/loop"
)

// Epoch is the instant a ManualScheduler starts at.
var Epoch = time.Unix(0, 0).UTC()

// ManualScheduler is a loop.Scheduler whose time only moves when
// Advance is called. Due callbacks run synchronously inside Advance, in
// due-time order, ties broken by scheduling order.
//
// Thread-safety: methods may be called from any goroutine, but callbacks
// run on the goroutine calling Advance.
type ManualScheduler struct {
	mu     sync.Mutex
	now    time.Time
	nextID int
	timers []*manualTimer
}

type manualTimer struct {
	s      *ManualScheduler
	id     int
	at     time.Time
	period time.Duration
	fn     func()
	done   bool
}

// NewManualScheduler returns a scheduler positioned at Epoch.
func NewManualScheduler() *ManualScheduler {
	return &ManualScheduler{now: Epoch}
}

// Now implements loop.Scheduler.
func (s *ManualScheduler) Now() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.now
}

// Elapsed returns how far time has advanced since Epoch.
func (s *ManualScheduler) Elapsed() time.Duration {
	return s.Now().Sub(Epoch)
}

// AfterFunc implements loop.Scheduler.
func (s *ManualScheduler) AfterFunc(d time.Duration, fn func()) loop.Timer {
	return s.schedule(d, 0, fn)
}

// Every implements loop.Scheduler. A non-positive period panics, as
// time.NewTicker does.
func (s *ManualScheduler) Every(d time.Duration, fn func()) loop.Timer {
	if d <= 0 {
		panic("testutil: non-positive interval for Every")
	}
	return s.schedule(d, d, fn)
}

func (s *ManualScheduler) schedule(d, period time.Duration, fn func()) *manualTimer {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.nextID++
	t := &manualTimer{
		s:      s,
		id:     s.nextID,
		at:     s.now.Add(max(d, 0)),
		period: period,
		fn:     fn,
	}
	s.timers = append(s.timers, t)
	return t
}

// Advance moves time forward by d, running every callback that falls
// due on the way. Callbacks may schedule or stop timers; a timer
// scheduled inside the window runs too if it becomes due.
func (s *ManualScheduler) Advance(d time.Duration) {
	s.mu.Lock()
	target := s.now.Add(d)
	s.mu.Unlock()

	for {
		s.mu.Lock()
		t := s.nextDue(target)
		if t == nil {
			s.now = target
			s.mu.Unlock()
			return
		}
		s.now = t.at
		if t.period > 0 {
			t.at = t.at.Add(t.period)
		} else {
			t.done = true
			s.remove(t)
		}
		fn := t.fn
		s.mu.Unlock()

		fn()
	}
}

// Pending returns the number of active timers.
func (s *ManualScheduler) Pending() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.timers)
}

func (s *ManualScheduler) nextDue(target time.Time) *manualTimer {
	var best *manualTimer
	for _, t := range s.timers {
		if t.at.After(target) {
			continue
		}
		if best == nil || t.at.Before(best.at) || (t.at.Equal(best.at) && t.id < best.id) {
			best = t
		}
	}
	return best
}

func (s *ManualScheduler) remove(t *manualTimer) {
	s.timers = slices.DeleteFunc(s.timers, func(x *manualTimer) bool { return x == t })
}

// Stop implements loop.Timer.
func (t *manualTimer) Stop() bool {
	t.s.mu.Lock()
	defer t.s.mu.Unlock()

	if t.done {
		return false
	}
	t.done = true
	t.s.remove(t)
	return true
}

var _ loop.Scheduler = (*ManualScheduler)(nil)
