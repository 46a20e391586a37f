// Package engine implements the scroll-depth crossing engine.
//
// An Engine owns one scrollable region. Callers register distances with
// On; the engine turns them into marks (see package marks) against the
// region's current geometry and fires each mark's listeners the first
// time the current depth reaches it.
//
// ARCHITECTURE:
//
// Single-Writer Event Loop:
// Engines are not goroutine-safe. Every operation, throttled callback,
// polling tick and adapter event runs on one event loop (package loop),
// so no engine state is ever touched concurrently. Tests and the replay
// harness substitute a manual scheduler for deterministic time.
//
// Recompute Path:
// Registration, resize (throttled) and document growth (polled) all end
// in Update, which recomputes the mark slice wholesale and then checks
// depth. Scroll events only check depth, throttled.
//
// At-Most-Once Firing:
// A label is recorded in the TrackedSet before its listeners run and is
// only forgotten by Reset. Each check iterates the mark slice captured at
// its start, so listeners that call On, Reset or Destroy affect the next
// check, never the one in progress.
//
// Failure Isolation:
// Listener errors and panics are logged and counted. They never stop the
// remaining listeners or marks of a check.
package engine
