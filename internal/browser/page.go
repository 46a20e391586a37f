package browser

import (
	"context"
	"fmt"
	"log/slog"
	"math"

	"github.com/go-rod/rod"

	"github.com/roach88/scrolldepth/internal/geometry"
)

// Page is a live tab seen as a geometry.Document.
//
// Measurements are evaluated on demand. The geometry interfaces have no
// error returns, so evaluation failures are logged and read as zero.
type Page struct {
	ctx    context.Context
	tab    *rod.Page
	url    string
	logger *slog.Logger
}

var _ geometry.Document = (*Page)(nil)

func newPage(ctx context.Context, tab *rod.Page, url string, logger *slog.Logger) *Page {
	return &Page{ctx: ctx, tab: tab, url: url, logger: logger}
}

// URL returns the address the tab was opened on.
func (p *Page) URL() string {
	return p.url
}

// Rod exposes the underlying tab.
func (p *Page) Rod() *rod.Page {
	return p.tab
}

// Close closes the tab.
func (p *Page) Close() error {
	return p.tab.Close()
}

// regionMetrics is the result of regionJS.
type regionMetrics struct {
	Found        bool    `json:"found"`
	ScrollHeight float64 `json:"scroll_height"`
	ScrollTop    float64 `json:"scroll_top"`
	RectTop      float64 `json:"rect_top"`
	ClientHeight float64 `json:"client_height"`
	Viewport     float64 `json:"viewport"`
}

// depth is the scroll offset plus the visible part of the region.
func (m regionMetrics) depth() float64 {
	return m.ScrollTop + geometry.VisibleInViewport(m.RectTop, m.ClientHeight, m.Viewport)
}

func (p *Page) eval(js string, out any, args ...any) error {
	res, err := p.tab.Context(p.ctx).Eval(js, args...)
	if err != nil {
		return fmt.Errorf("browser: eval: %w", err)
	}
	if err := res.Value.Unmarshal(out); err != nil {
		return fmt.Errorf("browser: decode eval result: %w", err)
	}
	return nil
}

func (p *Page) metrics(selector string) (regionMetrics, error) {
	var m regionMetrics
	if err := p.eval(regionJS, &m, selector); err != nil {
		return regionMetrics{}, err
	}
	if !m.Found {
		return regionMetrics{}, &geometry.ErrNoRegion{Selector: selector}
	}
	return m, nil
}

// Region returns the region for selector if it exists right now.
func (p *Page) Region(selector string) (geometry.Region, error) {
	if selector == "" {
		selector = geometry.BodySelector
	}
	if _, err := p.metrics(selector); err != nil {
		return nil, err
	}
	return &region{page: p, selector: selector}, nil
}

// Height is the maximum of the document's extent measures.
func (p *Page) Height() float64 {
	var h float64
	if err := p.eval(heightJS, &h); err != nil {
		p.logger.Warn("browser: document height", "url", p.url, "error", err)
		return 0
	}
	return h
}

// ResolveBound resolves pixel bounds directly and selector bounds to the
// first matching element's offset from the document top.
func (p *Page) ResolveBound(b geometry.BoundSpec) (float64, bool) {
	if b.IsPixels {
		return b.Pixels, true
	}
	if b.Selector == "" {
		return 0, false
	}
	var v *float64
	if err := p.eval(boundJS, &v, b.Selector); err != nil {
		p.logger.Debug("browser: bound", "selector", b.Selector, "error", err)
		return 0, false
	}
	if v == nil {
		return 0, false
	}
	return math.Floor(*v), true
}

type region struct {
	page     *Page
	selector string
}

func (r *region) ScrollHeight() float64 {
	m, err := r.page.metrics(r.selector)
	if err != nil {
		r.page.logger.Warn("browser: region height", "context", r.selector, "error", err)
		return 0
	}
	return m.ScrollHeight
}

func (r *region) CurrentDepth() float64 {
	m, err := r.page.metrics(r.selector)
	if err != nil {
		r.page.logger.Warn("browser: region depth", "context", r.selector, "error", err)
		return 0
	}
	return m.depth()
}

func (r *region) ElementOffsets(selector string) ([]float64, error) {
	var offs []float64
	if err := r.page.eval(elementsJS, &offs, r.selector, selector); err != nil {
		return nil, err
	}
	if offs == nil {
		return nil, &geometry.ErrNoRegion{Selector: r.selector}
	}
	return offs, nil
}
