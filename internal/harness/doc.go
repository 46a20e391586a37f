// Package harness replays scripted scroll sessions against a real
// engine with deterministic time.
//
// # Scenario Format
//
// Scenarios are defined in YAML files with the following structure:
//
//	name: article_quarters
//	description: "Quarter marks fire once each as the reader scrolls"
//	page:
//	  height: 1005
//	  viewport: 50
//	  elements:
//	    "#footer": [900]
//	tracker:
//	  poll_interval: 0s
//	  distances:
//	    percentage:
//	      every: [25]
//	steps:
//	  - scroll: 300
//	  - advance: 500ms
//	  - reset: true
//	  - check: true
//	assertions:
//	  - type: trace_order
//	    labels: ["25%", "50%"]
//	  - type: trace_count
//	    label: "25%"
//	    count: 2
//
// The tracker block is a config.Config and is checked against the same
// schema as tracker config files. Steps act on the in-memory page
// (scroll, grow, resize, elements), on the clock (advance) or on the
// engine (reset, check, update, destroy). Scroll, grow and elements
// target a nested region when region is set.
//
// # Determinism
//
// The engine runs on a testutil.ManualScheduler, so throttle windows
// and growth polling only progress on advance steps, and the instance
// id is fixed. The same scenario always produces the same trace, which
// RunWithGolden compares against testdata/golden/<name>.golden.
//
// # Assertion Types
//
//   - trace_contains: a crossing of label (optionally at depth/epoch)
//   - trace_order: labels first fire in the given relative order
//   - trace_count: label fires exactly count times
//   - tracked: the final tracked set, sorted
//   - marks: the final mark labels, in depth order
//   - logged: crossings persisted to the crossing log
package harness
