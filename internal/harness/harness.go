package harness

import (
	"context"
	"fmt"
	"log/slog"
	"maps"
	"slices"

	"github.com/roach88/scrolldepth/internal/engine"
	"github.com/roach88/scrolldepth/internal/geometry"
	"github.com/roach88/scrolldepth/internal/ir"
	"github.com/roach88/scrolldepth/internal/sink"
	"github.com/roach88/scrolldepth/internal/store"
	"github.com/roach88/scrolldepth/internal/testutil"
)

// Harness is the scenario execution engine. It drives a real engine
// against an in-memory page with a manual scheduler and a fixed
// instance id, so the same scenario always yields the same trace.
type Harness struct {
	page   *geometry.Page
	sched  *testutil.ManualScheduler
	engine *engine.Engine
	store  *store.Store
	logger *slog.Logger
	result *Result
}

// Option configures Run.
type Option func(*runOptions)

type runOptions struct {
	store  *store.Store
	logger *slog.Logger
	sinks  []sink.Sink
}

// WithStore persists crossings to st instead of a throwaway in-memory
// log. The caller keeps ownership of st.
func WithStore(st *store.Store) Option {
	return func(o *runOptions) {
		o.store = st
	}
}

// WithLogger sets the logger handed to the engine. Default: discard.
func WithLogger(l *slog.Logger) Option {
	return func(o *runOptions) {
		o.logger = l
	}
}

// WithSink also dispatches every crossing to s. The caller keeps
// ownership of s.
func WithSink(s sink.Sink) Option {
	return func(o *runOptions) {
		o.sinks = append(o.sinks, s)
	}
}

// Run executes a scenario and returns the result.
//
// Execution flow:
// 1. Build the page and attach a tracker from scenario.Tracker
// 2. Register one listener that records the trace and dispatches
// 3. Execute steps in order
// 4. Capture final engine state and evaluate assertions
func Run(scenario *Scenario, opts ...Option) (*Result, error) {
	var ro runOptions
	for _, opt := range opts {
		opt(&ro)
	}
	if ro.logger == nil {
		ro.logger = slog.New(slog.DiscardHandler) // Suppress logs in tests
	}

	st := ro.store
	if st == nil {
		var err error
		st, err = store.Open(":memory:")
		if err != nil {
			return nil, fmt.Errorf("failed to create in-memory store: %w", err)
		}
		defer st.Close()
	}

	page := buildPage(scenario.Page)
	sched := testutil.NewManualScheduler()

	engineOpts := append(scenario.Tracker.EngineOptions(),
		engine.WithEventSource(page),
		engine.WithIDGenerator(testutil.NewFixedIDGenerator(scenario.Instance)),
		engine.WithLogger(ro.logger),
	)
	eng, err := engine.New(page, sched, engineOpts...)
	if err != nil {
		return nil, fmt.Errorf("failed to attach tracker: %w", err)
	}
	defer eng.Destroy()

	h := &Harness{
		page:   page,
		sched:  sched,
		engine: eng,
		store:  st,
		logger: ro.logger,
		result: NewResult(),
	}
	h.result.Instance = eng.ID()

	ctx := context.Background()
	cfgJSON, err := scenario.Tracker.JSON()
	if err != nil {
		return nil, err
	}
	if err := st.WriteInstance(ctx, store.Instance{
		ID:      eng.ID(),
		Context: eng.Context(),
		Page:    scenario.Name,
		Config:  cfgJSON,
	}); err != nil {
		return nil, err
	}

	router := sink.NewRouter(ro.logger, st)
	for _, s := range ro.sinks {
		router.Add(s)
	}
	dispatch := sink.Listener(ctx, router)

	eng.On(scenario.Tracker.Distances, func(c ir.Crossing) error {
		h.result.AddCrossing(TraceEvent{
			AtMS:  sched.Elapsed().Milliseconds(),
			Label: c.Label,
			Depth: c.Depth,
			Epoch: c.Epoch,
			Seq:   c.Seq,
		})
		return dispatch(c)
	})

	for i, step := range scenario.Steps {
		if err := h.apply(step); err != nil {
			return nil, fmt.Errorf("step %d (%s): %w", i, step.Action(), err)
		}
		h.logger.Debug("step completed", "step", i, "action", step.Action(), "crossings", len(h.result.Trace))
	}

	if err := h.capture(ctx); err != nil {
		return nil, err
	}

	for _, msg := range EvaluateAssertions(h.result, scenario.Assertions) {
		h.result.AddError(msg)
	}
	return h.result, nil
}

func (h *Harness) apply(step Step) error {
	switch step.Action() {
	case StepScroll:
		if step.Region != "" {
			return h.page.ScrollRegion(step.Region, *step.Scroll)
		}
		h.page.ScrollTo(*step.Scroll)
	case StepAdvance:
		h.sched.Advance(step.Advance)
	case StepGrow:
		if step.Region != "" {
			return h.page.GrowRegion(step.Region, *step.Grow)
		}
		h.page.Grow(*step.Grow)
	case StepResize:
		h.page.Resize(*step.Resize)
	case StepElements:
		for _, sel := range slices.Sorted(maps.Keys(step.Elements)) {
			if step.Region != "" {
				if err := h.page.SetRegionElements(step.Region, sel, step.Elements[sel]); err != nil {
					return err
				}
				continue
			}
			h.page.SetElements(sel, step.Elements[sel])
		}
	case StepReset:
		h.engine.Reset()
	case StepCheck:
		h.engine.CheckDepth()
	case StepUpdate:
		h.engine.Update()
	case StepDestroy:
		h.engine.Destroy()
	default:
		return fmt.Errorf("no action set")
	}
	return nil
}

// capture records the engine's final state on the result.
func (h *Harness) capture(ctx context.Context) error {
	for _, m := range h.engine.Marks() {
		h.result.Marks = append(h.result.Marks, m.Label)
	}
	h.result.Tracked = append(h.result.Tracked, h.engine.Tracked()...)
	h.result.Failures = h.engine.Failures()

	logged, err := h.store.ReadCrossings(ctx, h.engine.ID())
	if err != nil {
		return fmt.Errorf("failed to read crossing log: %w", err)
	}
	h.result.Logged = len(logged)
	return nil
}

func buildPage(spec PageSpec) *geometry.Page {
	page := geometry.NewPage(spec.Height, spec.Viewport)
	for _, sel := range slices.Sorted(maps.Keys(spec.Elements)) {
		page.SetElements(sel, spec.Elements[sel])
	}
	for _, sel := range slices.Sorted(maps.Keys(spec.Regions)) {
		r := spec.Regions[sel]
		page.AddRegion(sel, geometry.PageRegion{
			Top:           r.Top,
			ClientHeight:  r.ClientHeight,
			ContentHeight: r.ContentHeight,
			ScrollTop:     r.ScrollTop,
			Elements:      maps.Clone(r.Elements),
		})
	}
	return page
}
