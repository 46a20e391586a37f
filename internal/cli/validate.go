package cli

import (
	"errors"
	"fmt"
	"io/fs"

	"github.com/spf13/cobra"

	"github.com/roach88/scrolldepth/internal/config"
)

// ValidationIssue is one problem found in a config file.
type ValidationIssue struct {
	Field   string `json:"field"`
	Message string `json:"message"`
	Code    string `json:"code"`
	Line    int    `json:"line,omitempty"`
}

// ConfigResult holds the validation result of one file.
type ConfigResult struct {
	Path   string            `json:"path"`
	Valid  bool              `json:"valid"`
	Errors []ValidationIssue `json:"errors,omitempty"`
}

// ValidationResult holds validation results.
type ValidationResult struct {
	Valid   bool           `json:"valid"`
	Configs []ConfigResult `json:"configs"`
}

// NewValidateCommand creates the validate command.
func NewValidateCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate <config>...",
		Short: "Validate tracker configs",
		Long: `Validate tracker config files without attaching a tracker.

Each file is checked against the config schema (types, required fields,
duration syntax, selector and step constraints) and then for the
semantic rules the schema cannot express.

Exit codes:
  0 - All configs valid
  1 - One or more configs invalid
  2 - Command error (file not found)

Examples:
  scrolldepth validate tracker.yaml
  scrolldepth validate configs/*.yaml --format json`,
		Args:          cobra.MinimumNArgs(1),
		SilenceUsage:  true, // Don't print usage on errors
		SilenceErrors: true, // Don't print errors - we handle our own error output
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(rootOpts, args, cmd)
		},
	}

	return cmd
}

func runValidate(opts *RootOptions, paths []string, cmd *cobra.Command) error {
	formatter := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(), // Verbose logs go to stderr to avoid corrupting JSON
		Verbose:   opts.Verbose,
	}

	result := ValidationResult{Valid: true, Configs: make([]ConfigResult, 0, len(paths))}
	for _, path := range paths {
		formatter.VerboseLog("Validating %s", path)

		_, err := config.Load(path)
		if errors.Is(err, fs.ErrNotExist) {
			if ferr := formatter.Error(ErrCodeNotFound, fmt.Sprintf("config not found: %s", path), nil); ferr != nil {
				return ferr
			}
			return NewExitError(ExitCommandError, fmt.Sprintf("%s: config not found: %s", ErrCodeNotFound, path))
		}

		cr := ConfigResult{Path: path, Valid: err == nil}
		if err != nil {
			cr.Errors = []ValidationIssue{issueFromError(err)}
			result.Valid = false
		}
		result.Configs = append(result.Configs, cr)
	}

	if opts.Format == "json" {
		status := "ok"
		if !result.Valid {
			status = "error"
		}
		if err := encodeJSON(formatter.Writer, CLIResponse{Status: status, Data: result}); err != nil {
			return err
		}
	} else {
		outputValidateText(formatter, result)
	}

	if !result.Valid {
		return NewExitError(ExitFailure, "validation failed")
	}
	return nil
}

// issueFromError classifies a config load error.
func issueFromError(err error) ValidationIssue {
	var ve *config.ValidationError
	if !errors.As(err, &ve) {
		return ValidationIssue{Field: "config", Message: err.Error(), Code: ErrCodeParse}
	}
	issue := ValidationIssue{Field: ve.Field, Message: ve.Message, Code: ErrCodeValidation}
	// Only schema errors carry a source position.
	if ve.Pos.IsValid() {
		issue.Code = ErrCodeSchema
		issue.Line = ve.Pos.Line()
	}
	return issue
}

func outputValidateText(formatter *OutputFormatter, result ValidationResult) {
	w := formatter.Writer
	for _, cr := range result.Configs {
		if cr.Valid {
			fmt.Fprintf(w, "✓ %s\n", cr.Path)
			continue
		}
		fmt.Fprintf(w, "✗ %s\n", cr.Path)
		for _, issue := range cr.Errors {
			if issue.Line > 0 {
				fmt.Fprintf(w, "  [%s] %s: %s (line %d)\n", issue.Code, issue.Field, issue.Message, issue.Line)
			} else {
				fmt.Fprintf(w, "  [%s] %s: %s\n", issue.Code, issue.Field, issue.Message)
			}
		}
	}

	if result.Valid {
		fmt.Fprintln(w, "✓ All configs valid")
		return
	}
	fmt.Fprintln(w, "✗ Validation failed")
}
