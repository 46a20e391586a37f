// Package geometry defines what the engine needs from a host document:
// a scrollable region to measure, bound resolution, document height for
// growth polling, and scroll/resize notifications.
//
// Page is an in-memory document used by the harness and tests; the
// browser package provides the same interfaces over a live Chrome tab.
package geometry

import (
	"fmt"
	"strconv"
)

// BodySelector names the document body. An empty selector means the same.
const BodySelector = "body"

// Region is a scrollable area whose depth is tracked.
type Region interface {
	// ScrollHeight is the full scrollable extent of the region.
	ScrollHeight() float64
	// CurrentDepth is how far into the region the user has seen.
	CurrentDepth() float64
	// ElementOffsets returns the distance of every element matching
	// selector from the top of the region, in document order.
	ElementOffsets(selector string) ([]float64, error)
}

// Document is the host page an engine is attached to.
type Document interface {
	Region(selector string) (Region, error)
	// Height is the maximum of the document's extent measures.
	Height() float64
	ResolveBound(b BoundSpec) (float64, bool)
}

// EventKind distinguishes the notifications an EventSource delivers.
type EventKind string

const (
	EventScroll EventKind = "scroll"
	EventResize EventKind = "resize"
)

// EventSource delivers scroll and resize notifications. The returned
// cancel func detaches the handler and is safe to call more than once.
type EventSource interface {
	Subscribe(kind EventKind, fn func()) (cancel func())
}

// BoundSpec is a top or bottom bound: either a pixel offset or a
// selector resolved to an element's offset from the document top.
type BoundSpec struct {
	Pixels   float64
	Selector string
	IsPixels bool
}

// Pixels returns a bound at a fixed offset.
func Pixels(v float64) BoundSpec {
	return BoundSpec{Pixels: v, IsPixels: true}
}

// Selector returns a bound at the first element matching sel.
func Selector(sel string) BoundSpec {
	return BoundSpec{Selector: sel}
}

// IsZero reports whether no bound is configured.
func (b BoundSpec) IsZero() bool {
	return !b.IsPixels && b.Selector == ""
}

func (b BoundSpec) String() string {
	switch {
	case b.IsPixels:
		return strconv.FormatFloat(b.Pixels, 'f', -1, 64)
	case b.Selector != "":
		return b.Selector
	default:
		return "<none>"
	}
}

// ErrNoRegion is wrapped by Region lookups that find nothing.
type ErrNoRegion struct {
	Selector string
}

func (e *ErrNoRegion) Error() string {
	return fmt.Sprintf("no scrollable region matches %q", e.Selector)
}

// VisibleInViewport returns how many pixels of a box are inside the
// viewport, given the box's top relative to the viewport and its height.
func VisibleInViewport(rectTop, height, viewport float64) float64 {
	var v float64
	switch {
	case rectTop > 0:
		v = min(height, viewport-rectTop)
	case rectTop+height < viewport:
		v = rectTop + height
	default:
		v = viewport
	}
	return max(0, v)
}
