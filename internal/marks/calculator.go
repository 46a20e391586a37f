package marks

import (
	"cmp"
	"fmt"
	"log/slog"
	"math"
	"slices"

	"github.com/roach88/scrolldepth/internal/ir"
	"github.com/roach88/scrolldepth/internal/registry"
)

// Compute derives the mark collection for the registered entries.
//
// The result is sorted by (depth, label) and depends only on its inputs.
// A context shorter than minHeight yields no marks at all. Marks sharing
// a label are merged and their listeners concatenated in encounter order;
// marks sharing only a depth stay separate.
func Compute(entries []registry.Entry, geo Geometry, minHeight int64) []ir.Mark {
	if geo.ContextHeight < minHeight {
		return nil
	}

	b := &builder{index: make(map[string]int)}
	for _, e := range entries {
		switch e.Spec.Kind {
		case ir.KindPercentage, ir.KindPixel:
			computeNumeric(b, e, geo)
		case ir.KindElement:
			computeElement(b, e, geo)
		default:
			slog.Debug("skipping spec with unknown kind", "spec", e.Spec.String())
		}
	}

	slices.SortStableFunc(b.marks, func(a, c ir.Mark) int {
		return cmp.Or(cmp.Compare(a.Depth, c.Depth), cmp.Compare(a.Label, c.Label))
	})
	return b.marks
}

type builder struct {
	marks []ir.Mark
	index map[string]int
}

func (b *builder) add(label string, depth int64, listeners []ir.Listener) {
	if i, ok := b.index[label]; ok {
		b.marks[i].Listeners = append(b.marks[i].Listeners, listeners...)
		return
	}
	ls := make([]ir.Listener, len(listeners))
	copy(ls, listeners)
	b.index[label] = len(b.marks)
	b.marks = append(b.marks, ir.Mark{Label: label, Depth: depth, Listeners: ls})
}

func computeNumeric(b *builder, e registry.Entry, geo Geometry) {
	n, err := e.Spec.Number()
	if err != nil {
		slog.Debug("skipping spec with invalid value", "spec", e.Spec.String(), "error", err)
		return
	}
	if math.IsNaN(n) || math.IsInf(n, 0) {
		slog.Debug("skipping spec with non-finite value", "spec", e.Spec.String())
		return
	}

	h := float64(geo.ContextHeight)
	depthOf := func(k float64) float64 {
		if e.Spec.Kind == ir.KindPercentage {
			return math.Floor(h*k/100) + float64(geo.Offset)
		}
		return math.Floor(k) + float64(geo.Offset)
	}
	suffix := "px"
	if e.Spec.Kind == ir.KindPercentage {
		suffix = "%"
	}
	emit := func(k float64) {
		depth := depthOf(k)
		if !geo.admits(depth) {
			return
		}
		b.add(ir.FormatNumber(k)+suffix, int64(depth), e.Listeners)
	}

	if e.Spec.Frequency == ir.FrequencyEach {
		emit(n)
		return
	}

	if n <= 0 {
		slog.Debug("skipping non-positive step", "spec", e.Spec.String())
		return
	}
	total := 100.0
	if e.Spec.Kind == ir.KindPixel {
		total = h
	}
	count := math.Floor(total / n)
	if count > MaxStepMarks {
		slog.Warn("step yields too many marks, truncating",
			"spec", e.Spec.String(), "marks", count, "max", MaxStepMarks)
		count = MaxStepMarks
	}
	for i := 1.0; i <= count; i++ {
		emit(roundStep(i * n))
	}
}

// roundStep drops the float noise of repeated steps, so 3 × 10.1 is
// labelled 30.3 and not 30.299999999999997.
func roundStep(v float64) float64 {
	return math.Round(v*1e9) / 1e9
}

// elementDepth floors an element offset, rejecting offsets no int64 holds.
func elementDepth(off float64) (int64, bool) {
	d := math.Floor(off)
	if math.IsNaN(d) || d < math.MinInt64 || d >= math.MaxInt64 {
		return 0, false
	}
	return int64(d), true
}

func computeElement(b *builder, e registry.Entry, geo Geometry) {
	if geo.Elements == nil {
		return
	}
	sel := e.Spec.Value
	// Unresolved selectors contribute nothing.
	offsets, err := geo.Elements.ElementOffsets(sel)
	if err != nil || len(offsets) == 0 {
		return
	}

	if e.Spec.Frequency == ir.FrequencyEach {
		if d, ok := elementDepth(offsets[0]); ok {
			b.add(sel, d, e.Listeners)
		}
		return
	}
	for i, off := range offsets {
		if d, ok := elementDepth(off); ok {
			b.add(fmt.Sprintf("%s[%d]", sel, i), d, e.Listeners)
		}
	}
}
