package cli

import (
	"bytes"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/scrolldepth/internal/harness"
	"github.com/roach88/scrolldepth/internal/store"
)

// ReplayOptions holds flags for the replay command.
type ReplayOptions struct {
	*RootOptions
	Database string // optional - persist the first run's crossings
	Runs     int
}

// ReplayResult holds the replay outcome of one scenario.
type ReplayResult struct {
	Scenario      string               `json:"scenario"`
	Instance      string               `json:"instance"`
	Runs          int                  `json:"runs"`
	Deterministic bool                 `json:"deterministic"`
	Pass          bool                 `json:"pass"`
	Trace         []harness.TraceEvent `json:"trace"`
	Errors        []string             `json:"errors,omitempty"`
}

// NewReplayCommand creates the replay command.
func NewReplayCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ReplayOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "replay <scenario>",
		Short: "Replay a scenario and verify determinism",
		Long: `Replay one scenario several times and verify that every run
produces the same crossing trace.

With --db the first run's crossings are written to the SQLite crossing
log under the scenario's instance id. Rerunning against the same
database is idempotent.

Exit codes:
  0 - Deterministic and all assertions hold
  1 - Runs differ or an assertion failed
  2 - Command error (scenario not found, database error, etc.)

Examples:
  scrolldepth replay testdata/scenarios/article_quarters.yaml
  scrolldepth replay testdata/scenarios/nested_feed.yaml --db ./crossings.db
  scrolldepth replay testdata/scenarios/infinite_feed.yaml --runs 5 --format json`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runReplay(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "path to SQLite crossing log")
	cmd.Flags().IntVar(&opts.Runs, "runs", 2, "number of runs to compare")

	return cmd
}

func runReplay(opts *ReplayOptions, path string, cmd *cobra.Command) error {
	if opts.Runs < 1 {
		return NewExitError(ExitCommandError, "--runs must be >= 1")
	}

	scenario, err := harness.LoadScenario(path)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to load scenario", err)
	}

	var first *harness.Result
	var firstSnap []byte
	deterministic := true

	for i := range opts.Runs {
		runOpts := []harness.Option{harness.WithLogger(opts.logger())}
		if i == 0 && opts.Database != "" {
			st, err := store.Open(opts.Database)
			if err != nil {
				return WrapExitError(ExitCommandError, "failed to open database", err)
			}
			defer st.Close()
			runOpts = append(runOpts, harness.WithStore(st))
		}

		result, err := harness.Run(scenario, runOpts...)
		if err != nil {
			return WrapExitError(ExitCommandError, fmt.Sprintf("run %d failed", i+1), err)
		}
		snapshot := harness.NewTraceSnapshot(scenario.Name, result)
		snap, err := snapshot.MarshalCanonical()
		if err != nil {
			return WrapExitError(ExitCommandError, "failed to marshal trace", err)
		}

		if i == 0 {
			first, firstSnap = result, snap
			continue
		}
		if !bytes.Equal(firstSnap, snap) {
			deterministic = false
			opts.logger().Warn("replay diverged", "scenario", scenario.Name, "run", i+1)
		}
	}

	out := ReplayResult{
		Scenario:      scenario.Name,
		Instance:      first.Instance,
		Runs:          opts.Runs,
		Deterministic: deterministic,
		Pass:          first.Pass,
		Trace:         first.Trace,
		Errors:        first.Errors,
	}

	if opts.Format == "json" {
		status := "ok"
		if !out.Deterministic || !out.Pass {
			status = "error"
		}
		if err := encodeJSON(cmd.OutOrStdout(), CLIResponse{Status: status, Data: out}); err != nil {
			return err
		}
	} else {
		outputReplayText(cmd, out)
	}

	if !out.Deterministic {
		return NewExitError(ExitFailure, "non-deterministic replay detected")
	}
	if !out.Pass {
		return NewExitError(ExitFailure, fmt.Sprintf("%d assertion(s) failed", len(out.Errors)))
	}
	return nil
}

func outputReplayText(cmd *cobra.Command, r ReplayResult) {
	w := cmd.OutOrStdout()

	fmt.Fprintf(w, "Scenario: %s (instance %s)\n", r.Scenario, r.Instance)
	fmt.Fprintln(w)
	fmt.Fprintln(w, "=== Trace ===")
	if len(r.Trace) == 0 {
		fmt.Fprintln(w, "  (no crossings)")
	}
	for _, ev := range r.Trace {
		fmt.Fprintf(w, "  [%d] t=%dms %s depth=%d epoch=%d\n", ev.Seq, ev.AtMS, ev.Label, ev.Depth, ev.Epoch)
	}
	fmt.Fprintln(w)

	for _, e := range r.Errors {
		fmt.Fprintf(w, "✗ %s\n", e)
	}
	if r.Deterministic {
		fmt.Fprintf(w, "✓ %d run(s) deterministic\n", r.Runs)
	} else {
		fmt.Fprintln(w, "✗ Runs differ")
	}
}
