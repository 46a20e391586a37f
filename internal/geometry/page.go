package geometry

import (
	"fmt"
	"math"
	"slices"
)

// Page is an in-memory document with a body and optional nested
// scrollable regions. Offsets are in pixels from the document top.
// Not safe for concurrent use.
type Page struct {
	height   float64
	viewport float64
	scrollY  float64
	elements map[string][]float64
	regions  map[string]*PageRegion

	nextSub int
	subs    map[EventKind][]subscription
}

type subscription struct {
	id int
	fn func()
}

// PageRegion is a nested scrollable box inside a Page.
type PageRegion struct {
	page *Page

	// Top is the box's offset from the document top.
	Top float64
	// ClientHeight is the box's visible height.
	ClientHeight float64
	// ContentHeight is the box's scrollable extent.
	ContentHeight float64
	ScrollTop     float64
	// Elements holds offsets from the top of the region's content.
	Elements map[string][]float64
}

// NewPage returns a page of the given height seen through a viewport.
func NewPage(height, viewport float64) *Page {
	return &Page{
		height:   height,
		viewport: viewport,
		elements: make(map[string][]float64),
		regions:  make(map[string]*PageRegion),
		subs:     make(map[EventKind][]subscription),
	}
}

// AddRegion registers a nested scrollable region under selector.
func (p *Page) AddRegion(selector string, r PageRegion) *PageRegion {
	r.page = p
	if r.Elements == nil {
		r.Elements = make(map[string][]float64)
	}
	p.regions[selector] = &r
	return &r
}

// Region implements Document.
func (p *Page) Region(selector string) (Region, error) {
	if selector == "" || selector == BodySelector {
		return bodyRegion{p}, nil
	}
	r, ok := p.regions[selector]
	if !ok {
		return nil, &ErrNoRegion{Selector: selector}
	}
	return r, nil
}

// Height implements Document. The viewport counts as an extent measure,
// so a short document still reports the viewport height.
func (p *Page) Height() float64 {
	return max(p.height, p.viewport)
}

// Viewport returns the viewport height.
func (p *Page) Viewport() float64 {
	return p.viewport
}

// ScrollY returns the body scroll offset.
func (p *Page) ScrollY() float64 {
	return p.scrollY
}

// ResolveBound implements Document. Selector bounds resolve to the first
// matching element or, failing that, the top of a matching region.
func (p *Page) ResolveBound(b BoundSpec) (float64, bool) {
	if b.IsPixels {
		return b.Pixels, true
	}
	if b.Selector == "" {
		return 0, false
	}
	if offs := p.elements[b.Selector]; len(offs) > 0 {
		return math.Floor(offs[0]), true
	}
	if r, ok := p.regions[b.Selector]; ok {
		return math.Floor(r.Top), true
	}
	return 0, false
}

// SetElements replaces the offsets recorded for selector. An empty
// offsets slice removes it.
func (p *Page) SetElements(selector string, offsets []float64) {
	if len(offsets) == 0 {
		delete(p.elements, selector)
		return
	}
	p.elements[selector] = slices.Clone(offsets)
}

// SetRegionElements replaces element offsets inside a nested region.
func (p *Page) SetRegionElements(region, selector string, offsets []float64) error {
	r, ok := p.regions[region]
	if !ok {
		return &ErrNoRegion{Selector: region}
	}
	if len(offsets) == 0 {
		delete(r.Elements, selector)
		return nil
	}
	r.Elements[selector] = slices.Clone(offsets)
	return nil
}

// ScrollTo moves the body scroll offset, clamped to the scrollable
// range, and notifies scroll subscribers.
func (p *Page) ScrollTo(y float64) {
	p.scrollY = clamp(y, 0, max(0, p.height-p.viewport))
	p.emit(EventScroll)
}

// ScrollRegion scrolls a nested region and notifies scroll subscribers.
func (p *Page) ScrollRegion(selector string, top float64) error {
	r, ok := p.regions[selector]
	if !ok {
		return &ErrNoRegion{Selector: selector}
	}
	r.ScrollTop = clamp(top, 0, max(0, r.ContentHeight-r.ClientHeight))
	p.emit(EventScroll)
	return nil
}

// Resize changes the viewport height and notifies resize subscribers.
func (p *Page) Resize(viewport float64) {
	p.viewport = viewport
	p.scrollY = clamp(p.scrollY, 0, max(0, p.height-p.viewport))
	p.emit(EventResize)
}

// Grow changes the document height without any notification, the way
// lazily loaded content does. Growth is picked up by polling.
func (p *Page) Grow(height float64) {
	p.height = height
}

// GrowRegion changes a nested region's content height silently.
func (p *Page) GrowRegion(selector string, height float64) error {
	r, ok := p.regions[selector]
	if !ok {
		return &ErrNoRegion{Selector: selector}
	}
	r.ContentHeight = height
	return nil
}

// Subscribe implements EventSource. Handlers run synchronously in
// subscription order.
func (p *Page) Subscribe(kind EventKind, fn func()) func() {
	p.nextSub++
	id := p.nextSub
	p.subs[kind] = append(p.subs[kind], subscription{id: id, fn: fn})
	return func() {
		p.subs[kind] = slices.DeleteFunc(p.subs[kind], func(s subscription) bool { return s.id == id })
	}
}

// Subscribers returns the number of live handlers for kind.
func (p *Page) Subscribers(kind EventKind) int {
	return len(p.subs[kind])
}

func (p *Page) emit(kind EventKind) {
	// Handlers may cancel themselves.
	for _, s := range slices.Clone(p.subs[kind]) {
		s.fn()
	}
}

type bodyRegion struct {
	p *Page
}

func (b bodyRegion) ScrollHeight() float64 {
	return b.p.height
}

func (b bodyRegion) CurrentDepth() float64 {
	return b.p.scrollY + VisibleInViewport(-b.p.scrollY, b.p.height, b.p.viewport)
}

func (b bodyRegion) ElementOffsets(selector string) ([]float64, error) {
	offs, ok := b.p.elements[selector]
	if !ok {
		return nil, fmt.Errorf("selector %q matched no elements", selector)
	}
	return slices.Clone(offs), nil
}

// ScrollHeight implements Region.
func (r *PageRegion) ScrollHeight() float64 {
	return r.ContentHeight
}

// CurrentDepth implements Region: the region's scroll offset plus the
// part of its box visible in the page viewport.
func (r *PageRegion) CurrentDepth() float64 {
	rectTop := r.Top - r.page.scrollY
	return r.ScrollTop + VisibleInViewport(rectTop, r.ClientHeight, r.page.viewport)
}

// ElementOffsets implements Region.
func (r *PageRegion) ElementOffsets(selector string) ([]float64, error) {
	offs, ok := r.Elements[selector]
	if !ok {
		return nil, fmt.Errorf("selector %q matched no elements in region", selector)
	}
	return slices.Clone(offs), nil
}

func clamp(v, lo, hi float64) float64 {
	return max(lo, min(v, hi))
}

var (
	_ Document    = (*Page)(nil)
	_ EventSource = (*Page)(nil)
	_ Region      = (*PageRegion)(nil)
)
