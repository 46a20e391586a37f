package engine

import (
	"log/slog"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/roach88/scrolldepth/internal/geometry"
	"github.com/roach88/scrolldepth/internal/ir"
	"github.com/roach88/scrolldepth/internal/testutil"
)

const testInstance = "eng-test"

// newTestEngine builds an engine on page driven by a manual scheduler
// and subscribed to the page's scroll and resize events.
func newTestEngine(t *testing.T, page *geometry.Page, opts ...Option) (*Engine, *testutil.ManualScheduler) {
	t.Helper()
	sched := testutil.NewManualScheduler()
	base := []Option{
		WithIDGenerator(testutil.NewFixedIDGenerator(testInstance)),
		WithEventSource(page),
		WithLogger(slog.New(slog.DiscardHandler)),
	}
	e, err := New(page, sched, append(base, opts...)...)
	require.NoError(t, err)
	t.Cleanup(e.Destroy)
	return e, sched
}

// recorder collects crossings delivered to its listener.
type recorder struct {
	got []ir.Crossing
}

func (r *recorder) listener(c ir.Crossing) error {
	r.got = append(r.got, c)
	return nil
}

func (r *recorder) labels() []string {
	out := make([]string, len(r.got))
	for i, c := range r.got {
		out[i] = c.Label
	}
	return out
}

func markDepths(marks []ir.Mark) map[string]int64 {
	out := make(map[string]int64, len(marks))
	for _, m := range marks {
		out[m.Label] = m.Depth
	}
	return out
}

func percentages(each []float64, every ...float64) ir.Distances {
	return ir.Distances{Percentage: &ir.NumericSet{Each: each, Every: every}}
}
