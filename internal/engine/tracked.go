package engine

import "slices"

// TrackedSet records the mark labels an engine has already fired.
// A label stays in the set until Reset.
type TrackedSet struct {
	labels map[string]struct{}
}

// NewTrackedSet returns an empty set.
func NewTrackedSet() *TrackedSet {
	return &TrackedSet{labels: make(map[string]struct{})}
}

// IsTracked reports whether label has fired since the last reset.
func (s *TrackedSet) IsTracked(label string) bool {
	_, ok := s.labels[label]
	return ok
}

// MarkTracked records label and reports whether it was new.
func (s *TrackedSet) MarkTracked(label string) bool {
	if s.IsTracked(label) {
		return false
	}
	s.labels[label] = struct{}{}
	return true
}

// Reset forgets every label.
func (s *TrackedSet) Reset() {
	clear(s.labels)
}

// Len returns the number of tracked labels.
func (s *TrackedSet) Len() int {
	return len(s.labels)
}

// Labels returns the tracked labels, sorted.
func (s *TrackedSet) Labels() []string {
	out := make([]string, 0, len(s.labels))
	for l := range s.labels {
		out = append(out, l)
	}
	slices.Sort(out)
	return out
}
