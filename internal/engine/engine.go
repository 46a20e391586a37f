package engine

import (
	"fmt"
	"log/slog"
	"slices"
	"time"

	"github.com/roach88/scrolldepth/internal/geometry"
	"github.com/roach88/scrolldepth/internal/ir"
	"github.com/roach88/scrolldepth/internal/loop"
	"github.com/roach88/scrolldepth/internal/marks"
	"github.com/roach88/scrolldepth/internal/registry"
)

// Scheduler is the time source an engine throttles and polls with.
type Scheduler = loop.Scheduler

const (
	// DefaultThrottle is the window for throttled scroll checks and
	// resize recomputes.
	DefaultThrottle = 500 * time.Millisecond

	// DefaultPollInterval is how often document height is sampled.
	DefaultPollInterval = 500 * time.Millisecond
)

// Engine tracks crossings for one scrollable region.
//
// All methods must be called on the scheduler's event loop.
type Engine struct {
	id     string
	doc    geometry.Document
	region geometry.Region
	sched  Scheduler
	logger *slog.Logger
	clock  *Clock

	contextSel   string
	minHeight    int64
	top, bottom  geometry.BoundSpec
	window       time.Duration
	pollInterval time.Duration
	events       geometry.EventSource
	idGen        IDGenerator

	registry *registry.Registry
	tracked  *TrackedSet
	marks    []ir.Mark
	epoch    int64
	failures int64

	monitor   *Monitor
	scroll    *Throttle[struct{}]
	cancels   []func()
	destroyed bool
}

// Option configures an Engine.
type Option func(*Engine)

// WithContext selects the tracked region. Empty or "body" tracks the
// document body.
func WithContext(selector string) Option {
	return func(e *Engine) {
		e.contextSel = selector
	}
}

// WithMinHeight disables all marks while the measured context height is
// below n pixels.
func WithMinHeight(n int64) Option {
	return func(e *Engine) {
		e.minHeight = n
	}
}

// WithBounds constrains the trackable range. Zero specs mean no bound.
func WithBounds(top, bottom geometry.BoundSpec) Option {
	return func(e *Engine) {
		e.top = top
		e.bottom = bottom
	}
}

// WithLogger sets the logger. Default: slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(e *Engine) {
		e.logger = l
	}
}

// WithEventSource subscribes the engine to scroll and resize events.
// Subscriptions are cancelled by Destroy.
func WithEventSource(src geometry.EventSource) Option {
	return func(e *Engine) {
		e.events = src
	}
}

// WithIDGenerator sets the instance id source. Default: UUIDv7Generator.
func WithIDGenerator(g IDGenerator) Option {
	return func(e *Engine) {
		e.idGen = g
	}
}

// WithThrottle sets the throttle window for scroll checks and resize
// recomputes. Default: 500ms.
func WithThrottle(d time.Duration) Option {
	return func(e *Engine) {
		e.window = d
	}
}

// WithPollInterval sets the growth polling interval. Zero disables
// polling. Default: 500ms.
func WithPollInterval(d time.Duration) Option {
	return func(e *Engine) {
		e.pollInterval = d
	}
}

// New creates an engine for the region of doc selected by WithContext.
//
// An unresolvable region or invalid option returns a RuntimeError with
// code CONFIGURATION. No marks exist until On is called.
func New(doc geometry.Document, sched Scheduler, opts ...Option) (*Engine, error) {
	e := &Engine{
		doc:          doc,
		sched:        sched,
		clock:        NewClock(),
		window:       DefaultThrottle,
		pollInterval: DefaultPollInterval,
		registry:     registry.New(),
		tracked:      NewTrackedSet(),
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.logger == nil {
		e.logger = slog.Default()
	}
	if e.idGen == nil {
		e.idGen = UUIDv7Generator{}
	}
	if e.contextSel == "" {
		e.contextSel = geometry.BodySelector
	}

	if doc == nil || sched == nil {
		return nil, NewConfigurationError(e.contextSel, "document and scheduler are required", nil)
	}
	if e.minHeight < 0 {
		return nil, NewConfigurationError(e.contextSel, fmt.Sprintf("min height must be >= 0, got %d", e.minHeight), nil)
	}
	if e.window < 0 || e.pollInterval < 0 {
		return nil, NewConfigurationError(e.contextSel, "throttle window and poll interval must be >= 0", nil)
	}

	region, err := doc.Region(e.contextSel)
	if err != nil {
		return nil, NewConfigurationError(e.contextSel, "unable to find context", err)
	}
	e.region = region
	e.id = e.idGen.Generate()

	e.scroll = NewThrottle(sched, e.window, func(struct{}) { e.CheckDepth() })
	e.monitor = NewMonitor(sched, e.window, e.pollInterval, e.contentHeight, e.Update)
	e.monitor.Start()

	if e.events != nil {
		e.cancels = append(e.cancels,
			e.events.Subscribe(geometry.EventScroll, e.HandleScroll),
			e.events.Subscribe(geometry.EventResize, e.HandleResize),
		)
	}

	e.logger.Debug("engine created", "instance", e.id, "context", e.contextSel)
	return e, nil
}

// ID returns the engine instance id.
func (e *Engine) ID() string {
	return e.id
}

// Context returns the selector of the tracked region.
func (e *Engine) Context() string {
	return e.contextSel
}

// On registers listener for every distance in d and recomputes.
func (e *Engine) On(d ir.Distances, listener ir.Listener) {
	if e.destroyed {
		e.logger.Debug("ignoring registration on destroyed engine",
			"code", ErrCodeDestroyed, "instance", e.id)
		return
	}
	if listener == nil {
		e.logger.Warn("ignoring nil listener", "instance", e.id)
		return
	}
	for _, spec := range d.Specs() {
		e.registry.Register(spec, listener)
	}
	e.Update()
}

// Update recomputes marks from the current geometry and checks depth.
func (e *Engine) Update() {
	if e.destroyed {
		return
	}
	e.marks = marks.Compute(e.registry.Snapshot(), e.measure(), e.minHeight)
	e.CheckDepth()
}

// CheckDepth fires every untracked mark the current depth has reached.
func (e *Engine) CheckDepth() {
	if e.destroyed {
		return
	}
	// The slice header is captured here; Update replaces e.marks rather
	// than mutating it, so listeners cannot disturb this iteration.
	snapshot := e.marks
	depth := e.region.CurrentDepth()
	Detect(snapshot, depth, e.tracked, e.fire)
}

// HandleScroll is the throttled scroll entry point.
func (e *Engine) HandleScroll() {
	if e.destroyed {
		return
	}
	e.scroll.Call(struct{}{})
}

// HandleResize is the throttled resize entry point.
func (e *Engine) HandleResize() {
	if e.destroyed {
		return
	}
	e.monitor.Resized()
}

// Reset forgets every fired label so passed marks fire again on the next
// check, and starts a new epoch. It does not check by itself.
func (e *Engine) Reset() {
	if e.destroyed {
		return
	}
	e.tracked.Reset()
	e.epoch++
	e.logger.Debug("engine reset", "instance", e.id, "epoch", e.epoch)
}

// Destroy stops polling, drops pending throttled calls and cancels event
// subscriptions. Nothing runs afterwards. Safe to call more than once.
func (e *Engine) Destroy() {
	if e.destroyed {
		return
	}
	e.destroyed = true
	e.monitor.Stop()
	e.scroll.Stop()
	for _, cancel := range e.cancels {
		cancel()
	}
	e.cancels = nil
	e.registry.Clear()
	e.marks = nil
	e.logger.Debug("engine destroyed", "instance", e.id)
}

// Destroyed reports whether Destroy has been called.
func (e *Engine) Destroyed() bool {
	return e.destroyed
}

// Marks returns a copy of the current mark collection.
func (e *Engine) Marks() []ir.Mark {
	return slices.Clone(e.marks)
}

// Tracked returns the labels fired in the current epoch, sorted.
func (e *Engine) Tracked() []string {
	return e.tracked.Labels()
}

// Epoch returns the number of resets so far.
func (e *Engine) Epoch() int64 {
	return e.epoch
}

// Failures returns the number of listener failures so far.
func (e *Engine) Failures() int64 {
	return e.failures
}

// measure snapshots the region geometry with bounds resolved.
// contentHeight is the extent growth polling samples: the document for
// body tracking, the region's own content for a nested context.
func (e *Engine) contentHeight() float64 {
	if e.contextSel == geometry.BodySelector {
		return e.doc.Height()
	}
	return e.region.ScrollHeight()
}

func (e *Engine) measure() marks.Geometry {
	top := e.resolveBound("top", e.top)
	bottom := e.resolveBound("bottom", e.bottom)
	return marks.Measure(e.region.ScrollHeight(), top, bottom).WithElements(locator{e})
}

func (e *Engine) resolveBound(which string, spec geometry.BoundSpec) marks.Bound {
	if spec.IsZero() {
		return marks.Bound{}
	}
	v, ok := e.doc.ResolveBound(spec)
	if !ok {
		e.logger.Debug("bound did not resolve, ignoring it",
			"code", ErrCodeBoundResolution, "instance", e.id, "bound", which, "spec", spec.String())
		return marks.Bound{}
	}
	return marks.At(v)
}

// fire delivers a crossing for m to each of its listeners in order.
func (e *Engine) fire(m ir.Mark) bool {
	c := ir.Crossing{
		Label:    m.Label,
		Depth:    m.Depth,
		Instance: e.id,
		Epoch:    e.epoch,
		Seq:      e.clock.Next(),
	}
	e.logger.Debug("mark crossed", "instance", e.id, "label", c.Label, "depth", c.Depth)
	for _, l := range m.Listeners {
		if e.destroyed {
			return false
		}
		e.invoke(l, c)
	}
	return !e.destroyed
}

func (e *Engine) invoke(l ir.Listener, c ir.Crossing) {
	defer func() {
		if r := recover(); r != nil {
			e.listenerFailed(c, fmt.Errorf("panic: %v", r))
		}
	}()
	if err := l(c); err != nil {
		e.listenerFailed(c, err)
	}
}

func (e *Engine) listenerFailed(c ir.Crossing, err error) {
	e.failures++
	e.logger.Error("listener failed",
		"code", ErrCodeListenerFailure, "instance", e.id, "depth", c.Depth,
		"error", NewListenerFailure(e.contextSel, c.Label, err))
}

// locator logs selector misses before handing them to the calculator.
type locator struct {
	e *Engine
}

func (l locator) ElementOffsets(selector string) ([]float64, error) {
	offs, err := l.e.region.ElementOffsets(selector)
	if err != nil {
		l.e.logger.Debug("selector did not resolve",
			"code", ErrCodeUnresolvedSelector, "instance", l.e.id, "selector", selector, "error", err)
	}
	return offs, err
}
