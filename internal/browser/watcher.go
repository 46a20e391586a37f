package browser

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"sync"
	"time"

	"github.com/roach88/scrolldepth/internal/geometry"
)

// DefaultWatchInterval is how often Watcher samples the tab.
const DefaultWatchInterval = 100 * time.Millisecond

// Poster hands a function to the goroutine that owns the engine.
type Poster func(fn func())

// Watcher is a geometry.EventSource backed by polling. The page has no
// push channel for scroll events, so scroll offset and viewport size are
// sampled and every change is reported as an event.
type Watcher struct {
	page     *Page
	context  string
	post     Poster
	interval time.Duration
	logger   *slog.Logger

	mu     sync.Mutex
	nextID int
	subs   map[geometry.EventKind]map[int]func()
	last   snapshot
	primed bool
}

var _ geometry.EventSource = (*Watcher)(nil)

// NewWatcher watches page for changes relevant to the region selected by
// contextSel. Handlers run through post.
func NewWatcher(page *Page, contextSel string, post Poster, interval time.Duration) *Watcher {
	if interval <= 0 {
		interval = DefaultWatchInterval
	}
	return &Watcher{
		page:     page,
		context:  contextSel,
		post:     post,
		interval: interval,
		logger:   page.logger,
		subs:     make(map[geometry.EventKind]map[int]func()),
	}
}

// Subscribe registers fn for kind. The returned cancel is idempotent.
func (w *Watcher) Subscribe(kind geometry.EventKind, fn func()) func() {
	w.mu.Lock()
	defer w.mu.Unlock()
	id := w.nextID
	w.nextID++
	if w.subs[kind] == nil {
		w.subs[kind] = make(map[int]func())
	}
	w.subs[kind][id] = fn
	return func() {
		w.mu.Lock()
		defer w.mu.Unlock()
		delete(w.subs[kind], id)
	}
}

// Run samples until ctx is done. Sample errors are logged and skipped.
func (w *Watcher) Run(ctx context.Context) error {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			s, err := w.sample()
			if err != nil {
				w.logger.Debug("browser: watch sample failed", "error", err)
				continue
			}
			w.observe(s)
		}
	}
}

func (w *Watcher) sample() (snapshot, error) {
	var s snapshot
	if err := w.page.eval(pollJS, &s, w.context); err != nil {
		return snapshot{}, fmt.Errorf("poll: %w", err)
	}
	return s, nil
}

// observe compares s with the previous sample and posts one dispatch per
// changed event kind. The first sample only primes the state.
func (w *Watcher) observe(s snapshot) {
	w.mu.Lock()
	if !w.primed {
		w.last, w.primed = s, true
		w.mu.Unlock()
		return
	}
	kinds := w.last.changes(s)
	w.last = s
	w.mu.Unlock()

	for _, kind := range kinds {
		w.post(func() { w.dispatch(kind) })
	}
}

func (w *Watcher) dispatch(kind geometry.EventKind) {
	w.mu.Lock()
	ids := make([]int, 0, len(w.subs[kind]))
	for id := range w.subs[kind] {
		ids = append(ids, id)
	}
	fns := make([]func(), 0, len(ids))
	// Subscription order.
	slices.Sort(ids)
	for _, id := range ids {
		fns = append(fns, w.subs[kind][id])
	}
	w.mu.Unlock()

	for _, fn := range fns {
		fn()
	}
}

// snapshot is the result of pollJS.
type snapshot struct {
	ScrollY      float64 `json:"scroll_y"`
	RegionScroll float64 `json:"region_scroll"`
	Viewport     float64 `json:"viewport"`
	Width        float64 `json:"width"`
}

func (prev snapshot) changes(next snapshot) []geometry.EventKind {
	var kinds []geometry.EventKind
	if prev.ScrollY != next.ScrollY || prev.RegionScroll != next.RegionScroll {
		kinds = append(kinds, geometry.EventScroll)
	}
	if prev.Viewport != next.Viewport || prev.Width != next.Width {
		kinds = append(kinds, geometry.EventResize)
	}
	return kinds
}
