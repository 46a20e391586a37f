package sink

import (
	"context"
	"encoding/json"
	"io"
	"os"
	"sync"

	"github.com/roach88/scrolldepth/internal/ir"
)

// DefaultEvent is the data-layer event name analytics tags listen for.
const DefaultEvent = "scrollTracking"

// Event is one data-layer push.
type Event struct {
	Event      string     `json:"event"`
	Attributes Attributes `json:"attributes"`
}

// Attributes carries the analytics fields of an Event. Distance is the
// mark label ("25%", "500px", "#footer").
type Attributes struct {
	Distance string `json:"distance"`
	Label    string `json:"label"`
	Category string `json:"category,omitempty"`
}

// Tagging names the analytics fields attached to every event.
type Tagging struct {
	// Event defaults to DefaultEvent.
	Event string
	// Label identifies the page, typically its path.
	Label    string
	Category string
}

// EventFor builds the data-layer event for c.
func (t Tagging) EventFor(c ir.Crossing) Event {
	name := t.Event
	if name == "" {
		name = DefaultEvent
	}
	return Event{
		Event: name,
		Attributes: Attributes{
			Distance: c.Label,
			Label:    t.Label,
			Category: t.Category,
		},
	}
}

// DataLayer writes data-layer events as JSON lines to an io.Writer
// (default os.Stdout).
type DataLayer struct {
	mu  sync.Mutex
	tag Tagging
	enc *json.Encoder
}

// NewDataLayer creates a DataLayer sink. If w is nil, os.Stdout is used.
func NewDataLayer(w io.Writer, tag Tagging) *DataLayer {
	if w == nil {
		w = os.Stdout
	}
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	return &DataLayer{tag: tag, enc: enc}
}

func (d *DataLayer) Send(_ context.Context, c ir.Crossing) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.enc.Encode(d.tag.EventFor(c))
}

func (d *DataLayer) Close() error { return nil }
