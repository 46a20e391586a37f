// Package marks turns registered measurement specs and a geometry
// snapshot into the concrete depth thresholds an engine checks against.
package marks

import "math"

// Margin is subtracted from every measured context height to absorb
// sub-pixel rounding, so "100%" is reachable when scrolled to the end.
const Margin = 5

// MaxStepMarks caps the marks a single "every" step may produce.
const MaxStepMarks = 10000

// Bound is an optional pixel offset constraining the trackable range.
type Bound struct {
	Value float64
	Set   bool
}

// At returns a bound set to v.
func At(v float64) Bound {
	return Bound{Value: v, Set: true}
}

// ElementLocator resolves a selector to the offsets of matching elements
// from the top of the tracked context, in document order.
type ElementLocator interface {
	ElementOffsets(selector string) ([]float64, error)
}

// Geometry is the snapshot a computation runs against.
type Geometry struct {
	// ContextHeight is the trackable height in whole pixels, margin applied.
	ContextHeight int64
	Top           Bound
	Bottom        Bound
	// Offset is the top bound in whole pixels, or 0.
	Offset   int64
	Elements ElementLocator
}

// Measure normalises a raw context height against optional bounds.
//
// With a top bound the height is measured from it; with a bottom bound
// the height is the distance between the bounds. Margin is then
// subtracted and the result floored.
func Measure(raw float64, top, bottom Bound) Geometry {
	h := raw
	if top.Set {
		h = raw - top.Value
	}
	if bottom.Set {
		h = bottom.Value
		if top.Set {
			h -= top.Value
		}
	}
	h -= Margin

	var offset int64
	if top.Set {
		offset = int64(math.Floor(top.Value))
	}
	return Geometry{
		ContextHeight: int64(math.Floor(h)),
		Top:           top,
		Bottom:        bottom,
		Offset:        offset,
	}
}

// WithElements returns a copy of g that resolves selectors through loc.
func (g Geometry) WithElements(loc ElementLocator) Geometry {
	g.Elements = loc
	return g
}

// admits reports whether a percentage or pixel depth lies inside the
// trackable range. Depths are checked before conversion to int64, so
// values beyond its range are rejected instead of wrapping.
func (g Geometry) admits(depth float64) bool {
	if math.IsNaN(depth) || depth < math.MinInt64 {
		return false
	}
	if depth > float64(g.ContextHeight+g.Offset) {
		return false
	}
	if g.Top.Set && depth <= g.Top.Value {
		return false
	}
	if g.Bottom.Set && depth >= g.Bottom.Value {
		return false
	}
	return true
}
