// Package loop provides the single-writer event loop that engine
// instances run on.
//
// Engines are not goroutine-safe. Every engine operation, timer callback
// and adapter event executes as a task on one Loop goroutine, one at a
// time, in FIFO order. Foreign goroutines hand work over with Post or Do.
package loop

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"
)

// ErrClosed is returned by Do when the loop no longer accepts tasks.
var ErrClosed = errors.New("loop: closed")

// Timer is a cancellable scheduled callback.
type Timer interface {
	// Stop prevents any further run of the callback. It reports whether
	// the timer was still active. When called on the loop goroutine, no
	// run happens after Stop returns, even one already posted.
	Stop() bool
}

// Scheduler is the time source engines use for throttling and polling.
// Callbacks always run on the scheduler's event loop.
type Scheduler interface {
	Now() time.Time
	AfterFunc(d time.Duration, fn func()) Timer
	Every(d time.Duration, fn func()) Timer
}

// Loop runs posted tasks on a single goroutine.
type Loop struct {
	queue *taskQueue
	now   func() time.Time
}

// New returns a Loop. Call Run to start processing.
func New() *Loop {
	return &Loop{queue: newTaskQueue(), now: time.Now}
}

// Post enqueues fn. Safe from any goroutine. Returns false once the loop
// has stopped.
func (l *Loop) Post(fn func()) bool {
	return l.queue.Enqueue(fn)
}

// Do runs fn on the loop and waits for it to finish.
// It must not be called from the loop goroutine.
func (l *Loop) Do(ctx context.Context, fn func()) error {
	done := make(chan struct{})
	if !l.Post(func() {
		defer close(done)
		fn()
	}) {
		return ErrClosed
	}
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Run processes tasks until ctx is cancelled or Stop is called.
//
// A panicking task is logged and the loop continues.
func (l *Loop) Run(ctx context.Context) error {
	slog.Debug("loop starting")

	for {
		if task, ok := l.queue.TryDequeue(); ok {
			runTask(task)
			continue
		}

		select {
		case <-ctx.Done():
			slog.Debug("loop stopping: context cancelled")
			l.queue.Close()
			return ctx.Err()

		case <-l.queue.Wait():
			// The signal channel closes with the queue.
			if l.queue.Len() == 0 && l.closed() {
				slog.Debug("loop stopping: queue closed")
				return nil
			}
		}
	}
}

// Stop closes the queue. Tasks already queued still run.
func (l *Loop) Stop() {
	l.queue.Close()
}

// Len returns the number of queued tasks.
func (l *Loop) Len() int {
	return l.queue.Len()
}

func (l *Loop) closed() bool {
	l.queue.mu.Lock()
	defer l.queue.mu.Unlock()
	return l.queue.closed
}

func runTask(task func()) {
	defer func() {
		if r := recover(); r != nil {
			slog.Error("loop task panicked", "panic", r)
		}
	}()
	task()
}

// Now implements Scheduler.
func (l *Loop) Now() time.Time {
	return l.now()
}

// AfterFunc implements Scheduler: after d, fn is posted to the loop.
func (l *Loop) AfterFunc(d time.Duration, fn func()) Timer {
	t := &loopTimer{}
	t.timer = time.AfterFunc(d, func() {
		l.Post(func() {
			if t.stopped.CompareAndSwap(false, true) {
				fn()
			}
		})
	})
	return t
}

// Every implements Scheduler: fn is posted to the loop every d until
// the timer is stopped.
func (l *Loop) Every(d time.Duration, fn func()) Timer {
	t := &loopTimer{done: make(chan struct{})}
	ticker := time.NewTicker(d)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-t.done:
				return
			case <-ticker.C:
				if !l.Post(func() {
					if !t.stopped.Load() {
						fn()
					}
				}) {
					return
				}
			}
		}
	}()
	return t
}

type loopTimer struct {
	stopped atomic.Bool
	timer   *time.Timer
	done    chan struct{}
	once    sync.Once
}

func (t *loopTimer) Stop() bool {
	active := t.stopped.CompareAndSwap(false, true)
	if t.timer != nil {
		t.timer.Stop()
	}
	if t.done != nil {
		t.once.Do(func() { close(t.done) })
	}
	return active
}

var _ Scheduler = (*Loop)(nil)
