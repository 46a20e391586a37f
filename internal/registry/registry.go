// Package registry holds the measurement specs registered on an engine
// and the listeners attached to each of them.
//
// Keys are (kind, frequency, value) triples. The registry only grows;
// it is cleared when the owning engine is torn down.
package registry

import (
	"github.com/roach88/scrolldepth/internal/ir"
)

// Entry is one registered spec with its listeners in registration order.
type Entry struct {
	Spec      ir.MeasurementSpec
	Listeners []ir.Listener
}

// Registry maps measurement specs to ordered listener lists.
// Not safe for concurrent use; the engine owns it on its event loop.
type Registry struct {
	order     []ir.MeasurementSpec
	listeners map[ir.MeasurementSpec][]ir.Listener
}

// New returns an empty registry.
func New() *Registry {
	return &Registry{listeners: make(map[ir.MeasurementSpec][]ir.Listener)}
}

// Register appends listener under spec, creating the key if absent.
// No validation happens here; invalid values are skipped at compute time.
func (r *Registry) Register(spec ir.MeasurementSpec, listener ir.Listener) {
	if _, ok := r.listeners[spec]; !ok {
		r.order = append(r.order, spec)
	}
	r.listeners[spec] = append(r.listeners[spec], listener)
}

// Listeners returns a copy of the listeners registered under spec.
func (r *Registry) Listeners(spec ir.MeasurementSpec) []ir.Listener {
	ls, ok := r.listeners[spec]
	if !ok {
		return nil
	}
	out := make([]ir.Listener, len(ls))
	copy(out, ls)
	return out
}

// Len returns the number of distinct specs.
func (r *Registry) Len() int {
	return len(r.order)
}

// Snapshot returns every entry grouped by kind (percentage, pixel,
// element), then frequency (every, each), then value insertion order.
// Listener slices are copies so a recompute cannot observe later
// registrations through the snapshot.
func (r *Registry) Snapshot() []Entry {
	entries := make([]Entry, 0, len(r.order))
	for _, kind := range ir.Kinds {
		for _, freq := range ir.Frequencies {
			for _, spec := range r.order {
				if spec.Kind != kind || spec.Frequency != freq {
					continue
				}
				entries = append(entries, Entry{Spec: spec, Listeners: r.Listeners(spec)})
			}
		}
	}
	return entries
}

// Clear drops every spec and listener.
func (r *Registry) Clear() {
	r.order = nil
	clear(r.listeners)
}
