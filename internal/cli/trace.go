package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/roach88/scrolldepth/internal/ir"
	"github.com/roach88/scrolldepth/internal/store"
)

// TraceOptions holds flags for the trace command.
type TraceOptions struct {
	*RootOptions
	Database string
	Instance string // optional - one instance only
}

// TraceInstance is one engine instance and its crossings in firing order.
type TraceInstance struct {
	ID        string        `json:"id"`
	Context   string        `json:"context"`
	Page      string        `json:"page,omitempty"`
	Epochs    int64         `json:"epochs"`
	Crossings []ir.Crossing `json:"crossings"`
}

// TraceResult holds the complete trace output.
type TraceResult struct {
	Instances []TraceInstance `json:"instances"`
	Total     int             `json:"total_crossings"`
}

// NewTraceCommand creates the trace command.
func NewTraceCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &TraceOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "trace",
		Short: "Show the crossing log",
		Long: `Show the crossings recorded in a SQLite crossing log.

Crossings are grouped by engine instance and listed in firing order
with their depth and epoch.

Examples:
  scrolldepth trace --db ./crossings.db
  scrolldepth trace --db ./crossings.db --instance article-1
  scrolldepth trace --db ./crossings.db --format json`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTrace(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "path to SQLite database (required)")
	_ = cmd.MarkFlagRequired("db")
	cmd.Flags().StringVar(&opts.Instance, "instance", "", "show one instance only")

	return cmd
}

func runTrace(opts *TraceOptions, cmd *cobra.Command) error {
	ctx := context.Background()

	// Open would create a fresh database; a missing log is an error here.
	if _, err := os.Stat(opts.Database); err != nil {
		return WrapExitError(ExitCommandError, fmt.Sprintf("%s: database not found", ErrCodeNotFound), err)
	}
	st, err := store.Open(opts.Database)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to open database", err)
	}
	defer st.Close()

	summaries, err := st.Instances(ctx)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to list instances", err)
	}

	result := TraceResult{Instances: []TraceInstance{}}
	for _, sum := range summaries {
		if opts.Instance != "" && sum.ID != opts.Instance {
			continue
		}
		crossings, err := st.ReadCrossings(ctx, sum.ID)
		if err != nil {
			return WrapExitError(ExitCommandError, "failed to read crossings", err)
		}
		ti := TraceInstance{
			ID:        sum.ID,
			Context:   sum.Context,
			Page:      sum.Page,
			Crossings: crossings,
		}
		for _, c := range crossings {
			ti.Epochs = max(ti.Epochs, c.Epoch+1)
		}
		result.Instances = append(result.Instances, ti)
		result.Total += len(crossings)
	}

	if opts.Instance != "" && len(result.Instances) == 0 {
		return NewExitError(ExitCommandError, fmt.Sprintf("instance not found: %s", opts.Instance))
	}

	if opts.Format == "json" {
		return encodeJSON(cmd.OutOrStdout(), CLIResponse{Status: "ok", Data: result})
	}
	return outputTraceText(cmd, result, opts.Verbose)
}

// outputTraceText outputs the trace result as text.
func outputTraceText(cmd *cobra.Command, result TraceResult, verbose bool) error {
	w := cmd.OutOrStdout()

	if len(result.Instances) == 0 {
		fmt.Fprintln(w, "No instances recorded.")
		return nil
	}

	for _, inst := range result.Instances {
		fmt.Fprintf(w, "=== %s ===\n", truncateID(inst.ID))
		fmt.Fprintf(w, "Context: %s\n", inst.Context)
		if inst.Page != "" {
			fmt.Fprintf(w, "Page:    %s\n", inst.Page)
		}
		if verbose {
			fmt.Fprintf(w, "ID:      %s\n", inst.ID)
		}
		if len(inst.Crossings) == 0 {
			fmt.Fprintln(w, "  (no crossings)")
		}
		for _, c := range inst.Crossings {
			fmt.Fprintf(w, "  [%d] %s depth=%d epoch=%d\n", c.Seq, c.Label, c.Depth, c.Epoch)
		}
		fmt.Fprintln(w)
	}

	fmt.Fprintf(w, "Total crossings: %d\n", result.Total)
	return nil
}

// truncateID truncates a long ID for display.
func truncateID(id string) string {
	if len(id) <= 16 {
		return id
	}
	return id[:8] + "..." + id[len(id)-8:]
}
