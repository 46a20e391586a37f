package cli

import (
	"fmt"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/roach88/scrolldepth/internal/config"
	"github.com/roach88/scrolldepth/internal/engine"
	"github.com/roach88/scrolldepth/internal/geometry"
	"github.com/roach88/scrolldepth/internal/ir"
	"github.com/roach88/scrolldepth/internal/loop"
)

// MarksOptions holds flags for the marks command.
type MarksOptions struct {
	*RootOptions
	Height   float64
	Viewport float64
	Scroll   float64
	Elements []string // "selector=offset,offset"
}

// MarkRow is one computed mark.
type MarkRow struct {
	Label   string `json:"label"`
	Depth   int64  `json:"depth"`
	Reached bool   `json:"reached"`
}

// MarksResult holds the marks computed for a page shape.
type MarksResult struct {
	Config   string    `json:"config"`
	Height   float64   `json:"height"`
	Viewport float64   `json:"viewport"`
	Depth    int64     `json:"depth"`
	Marks    []MarkRow `json:"marks"`
}

// NewMarksCommand creates the marks command.
func NewMarksCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &MarksOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "marks <config>",
		Short: "Compute the marks a config produces for a page",
		Long: `Compute the marks a tracker config produces for a page of the
given shape, without a browser.

The page is body-scrolled; --element places selector matches at
document offsets so element distances and selector bounds resolve.
Marks already reached at the --scroll position are flagged.

Examples:
  scrolldepth marks tracker.yaml --height 4000 --viewport 800
  scrolldepth marks tracker.yaml --height 4000 --element "#footer=3600"
  scrolldepth marks tracker.yaml --height 4000 --scroll 1200 --format json`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runMarks(opts, args[0], cmd)
		},
	}

	cmd.Flags().Float64Var(&opts.Height, "height", 0, "document height in pixels (required)")
	_ = cmd.MarkFlagRequired("height")
	cmd.Flags().Float64Var(&opts.Viewport, "viewport", 800, "viewport height in pixels")
	cmd.Flags().Float64Var(&opts.Scroll, "scroll", 0, "body scroll offset")
	cmd.Flags().StringArrayVar(&opts.Elements, "element", nil, `element offsets as "selector=offset[,offset...]"`)

	return cmd
}

func runMarks(opts *MarksOptions, path string, cmd *cobra.Command) error {
	formatter := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}

	cfg, err := config.Load(path)
	if err != nil {
		issue := issueFromError(err)
		_ = formatter.Error(issue.Code, err.Error(), nil)
		return WrapExitError(ExitCommandError, "failed to load config", err)
	}
	if opts.Height <= 0 || opts.Viewport <= 0 {
		return NewExitError(ExitCommandError, "--height and --viewport must be > 0")
	}

	page := geometry.NewPage(opts.Height, opts.Viewport)
	for _, flag := range opts.Elements {
		sel, offsets, err := parseElementFlag(flag)
		if err != nil {
			return WrapExitError(ExitCommandError, "invalid --element", err)
		}
		page.SetElements(sel, offsets)
	}
	page.ScrollTo(opts.Scroll)

	// The loop is never run: with polling off and no events the engine
	// schedules nothing.
	engineOpts := append(cfg.EngineOptions(),
		engine.WithPollInterval(0),
		engine.WithLogger(opts.logger()),
	)
	eng, err := engine.New(page, loop.New(), engineOpts...)
	if err != nil {
		_ = formatter.Error(ErrCodeEngine, err.Error(), nil)
		return WrapExitError(ExitFailure, "failed to attach tracker", err)
	}
	defer eng.Destroy()

	reached := make(map[string]bool)
	eng.On(cfg.Distances, func(c ir.Crossing) error {
		reached[c.Label] = true
		return nil
	})

	result := MarksResult{
		Config:   path,
		Height:   opts.Height,
		Viewport: opts.Viewport,
		Marks:    []MarkRow{},
	}
	if body, err := page.Region(eng.Context()); err == nil {
		result.Depth = int64(body.CurrentDepth())
	}
	for _, m := range eng.Marks() {
		result.Marks = append(result.Marks, MarkRow{Label: m.Label, Depth: m.Depth, Reached: reached[m.Label]})
	}

	if opts.Format == "json" {
		return encodeJSON(formatter.Writer, CLIResponse{Status: "ok", Data: result})
	}
	return outputMarksText(cmd, result)
}

// parseElementFlag splits "selector=o1,o2" into its parts. The selector
// may itself contain '=' (attribute selectors), so the last one splits.
func parseElementFlag(s string) (string, []float64, error) {
	i := strings.LastIndex(s, "=")
	if i <= 0 {
		return "", nil, fmt.Errorf("%q: want selector=offset[,offset...]", s)
	}
	sel := s[:i]
	var offsets []float64
	for _, part := range strings.Split(s[i+1:], ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		f, err := strconv.ParseFloat(part, 64)
		if err != nil {
			return "", nil, fmt.Errorf("%q: invalid offset %q", s, part)
		}
		offsets = append(offsets, f)
	}
	if len(offsets) == 0 {
		return "", nil, fmt.Errorf("%q: no offsets", s)
	}
	return sel, offsets, nil
}

func outputMarksText(cmd *cobra.Command, result MarksResult) error {
	w := cmd.OutOrStdout()

	fmt.Fprintf(w, "Marks for %s (height %g, viewport %g, depth %d)\n",
		result.Config, result.Height, result.Viewport, result.Depth)
	if len(result.Marks) == 0 {
		fmt.Fprintln(w, "  (no marks)")
		return nil
	}

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "  LABEL\tDEPTH\tREACHED")
	for _, m := range result.Marks {
		mark := ""
		if m.Reached {
			mark = "✓"
		}
		fmt.Fprintf(tw, "  %s\t%d\t%s\n", m.Label, m.Depth, mark)
	}
	return tw.Flush()
}
