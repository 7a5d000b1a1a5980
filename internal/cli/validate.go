package cli

import (
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/roach88/inet/internal/compiler"
)

// ValidationResult holds validation results.
type ValidationResult struct {
	Valid        bool                       `json:"valid"`
	Agents       int                        `json:"agents"`
	Rules        int                        `json:"rules"`
	ActivePairs  int                        `json:"active_pairs"`
	Errors       []compiler.ValidationError `json:"errors,omitempty"`
	MissingRules []string                   `json:"missing_rules,omitempty"`
	Warnings     []compiler.CycleWarning    `json:"warnings,omitempty"`
}

// NewValidateCommand creates the validate command.
func NewValidateCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate <program>",
		Short: "Check a program without reducing it",
		Long: `Check a CUE program's declarations, build its initial net and report
problems without running any rule.

Errors (exit code 1):
  - undeclared kinds, malformed port references, duplicate names
  - wiring that leaves a port unbound or binds it twice

Warnings (reported, exit code 0):
  - active pairs of the initial net with no rule
  - rules that may recreate their own redex and reduce forever`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(rootOpts, args[0], cmd)
		},
	}

	return cmd
}

func runValidate(opts *RootOptions, path string, cmd *cobra.Command) error {
	formatter := opts.formatter(cmd)

	prog, err := compiler.Load(path)
	if err != nil {
		return fail(formatter, ExitCommandError, ErrCodeLoad, "failed to load program", err)
	}
	formatter.VerboseLog("loaded %s: %d kinds, %d rules, %d agents", path, len(prog.Kinds), len(prog.Rules), len(prog.Net.Agents))

	result := ValidationResult{
		Errors:   compiler.Validate(prog),
		Warnings: compiler.AnalyzeCycles(prog.Rules),
	}

	if len(result.Errors) == 0 {
		built, err := prog.Build()
		if err != nil {
			result.Errors = append(result.Errors, buildError(err))
		} else {
			result.Agents = built.Net.Len()
			result.Rules = built.Table.Len()
			result.ActivePairs = len(built.Net.ActivePairs())
			result.MissingRules = built.MissingRules()
		}
	}
	result.Valid = len(result.Errors) == 0

	if formatter.JSON() {
		if err := formatter.Success(result, nil); err != nil {
			return WrapExitError(ExitCommandError, "failed to write output", err)
		}
	} else {
		writeValidateText(cmd.OutOrStdout(), path, result)
	}

	if !result.Valid {
		return NewExitError(ExitFailure, fmt.Sprintf("validation failed with %d error(s)", len(result.Errors)))
	}
	return nil
}

// buildError converts a Build failure into a validation error.
func buildError(err error) compiler.ValidationError {
	verr := compiler.ValidationError{Field: "net", Message: err.Error(), Code: compiler.ErrWiring}
	var ce *compiler.CompileError
	if errors.As(err, &ce) {
		verr.Field = ce.Field
		verr.Message = ce.Message
		if ce.Pos.IsValid() {
			verr.Line = ce.Pos.Line()
		}
	}
	return verr
}

func writeValidateText(w io.Writer, path string, r ValidationResult) {
	for _, e := range r.Errors {
		fmt.Fprintf(w, "  %s\n", e.Error())
	}
	for _, m := range r.MissingRules {
		fmt.Fprintf(w, "  warning: no rule for %s\n", m)
	}
	for _, cw := range r.Warnings {
		fmt.Fprintf(w, "  warning: %s\n", cw.Message)
	}
	if !r.Valid {
		fmt.Fprintf(w, "✗ %s: %d error(s)\n", path, len(r.Errors))
		return
	}
	fmt.Fprintf(w, "✓ %s: %d agents, %d rules, %d active pairs\n", path, r.Agents, r.Rules, r.ActivePairs)
}
