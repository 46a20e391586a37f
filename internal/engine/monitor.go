package engine

import (
	"time"

	"github.com/roach88/scrolldepth/internal/loop"
)

// Monitor watches for changes that invalidate computed marks: viewport
// resizes (throttled) and document growth (polled). Both end in the same
// update callback.
type Monitor struct {
	sched    loop.Scheduler
	interval time.Duration
	height   func() float64
	update   func()

	resize  *Throttle[struct{}]
	poll    loop.Timer
	last    float64
	stopped bool
}

// NewMonitor creates a monitor. height samples the document height;
// update recomputes and checks. A non-positive interval disables polling.
func NewMonitor(sched loop.Scheduler, window, interval time.Duration, height func() float64, update func()) *Monitor {
	m := &Monitor{
		sched:    sched,
		interval: interval,
		height:   height,
		update:   update,
	}
	m.resize = NewThrottle(sched, window, func(struct{}) { m.update() })
	return m
}

// Start records the current height and begins polling.
func (m *Monitor) Start() {
	if m.stopped || m.poll != nil {
		return
	}
	m.last = m.height()
	if m.interval > 0 {
		m.poll = m.sched.Every(m.interval, m.sample)
	}
}

// Resized reports a resize signal.
func (m *Monitor) Resized() {
	if m.stopped {
		return
	}
	m.resize.Call(struct{}{})
}

// Stop ends polling and drops any pending throttled update.
func (m *Monitor) Stop() {
	m.stopped = true
	m.resize.Stop()
	if m.poll != nil {
		m.poll.Stop()
		m.poll = nil
	}
}

func (m *Monitor) sample() {
	if m.stopped {
		return
	}
	if h := m.height(); h != m.last {
		m.update()
		// Re-sample: the update itself may have changed the layout.
		m.last = m.height()
	}
}
