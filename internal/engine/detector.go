package engine

import "github.com/roach88/scrolldepth/internal/ir"

// Detect fires every mark in marks that depth has reached and that is
// not yet tracked, in slice order.
//
// The label is recorded in tracked before fire is called, so a fire that
// re-enters the engine and checks again cannot fire the same label twice.
// fire returns false to abandon the rest of the check. Detect returns the
// number of marks fired.
//
// marks must not be modified by fire; engines pass the slice they
// captured when the check began.
func Detect(marks []ir.Mark, depth float64, tracked *TrackedSet, fire func(ir.Mark) bool) int {
	fired := 0
	for _, m := range marks {
		if depth < float64(m.Depth) {
			continue
		}
		if !tracked.MarkTracked(m.Label) {
			continue
		}
		fired++
		if !fire(m) {
			break
		}
	}
	return fired
}
