package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/stal/internal/setexpr"
)

// ValidationResult holds validation results.
type ValidationResult struct {
	Valid       bool              `json:"valid"`
	Expression  string            `json:"expression,omitempty"`
	Commands    int               `json:"commands,omitempty"`
	Temporaries int               `json:"temporaries,omitempty"`
	Errors      []ValidationIssue `json:"errors,omitempty"`
}

// ValidationIssue is one problem found in a query document.
type ValidationIssue struct {
	Field   string `json:"field,omitempty"`
	Message string `json:"message"`
	Code    string `json:"code"`
	Line    int    `json:"line,omitempty"`
	Column  int    `json:"column,omitempty"`
}

// NewValidateCommand creates the validate command.
func NewValidateCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ExplainOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "validate <query-file>",
		Short: "Check a query document without printing commands",
		Long: `Decode and compile a query document and report problems with their
source position. Exits 1 when the document is invalid and 2 when it
cannot be read.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true, // Don't print usage on errors
		SilenceErrors: true, // Don't print errors - we handle our own error output
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(opts, args[0], cmd)
		},
	}

	addQueryFlags(cmd, &opts.QueryOptions)

	return cmd
}

func runValidate(opts *ExplainOptions, path string, cmd *cobra.Command) error {
	formatter := newFormatter(opts.RootOptions, cmd)

	loaded, err := LoadQuery(path, opts.QueryOptions)
	if err != nil {
		var loadErr *LoadError
		if errors.As(err, &loadErr) && loadErr.Code != ErrCodeNotFound {
			return outputValidationErrors(formatter, []ValidationIssue{{
				Field:   loadErr.Field,
				Message: loadErr.Message,
				Code:    loadErr.Code,
				Line:    loadErr.Pos.Line,
				Column:  loadErr.Pos.Column,
			}})
		}
		return loadFailure(formatter, err)
	}

	result := ValidationResult{
		Valid:       true,
		Commands:    len(loaded.Query.Explain()),
		Temporaries: len(loaded.Query.Solve().Temporaries()),
	}
	if loaded.Document.Set != nil {
		result.Expression = setexpr.String(loaded.Document.Set)
	}
	formatter.VerboseLog("%s: %s", path, result.Expression)

	if formatter.Format == "json" {
		return formatter.Success(result)
	}

	fmt.Fprintf(formatter.Writer, "✓ %s valid: %d command(s), %d temporary key(s)\n",
		path, result.Commands, result.Temporaries)
	return nil
}

// outputValidationErrors outputs validation errors.
func outputValidationErrors(formatter *OutputFormatter, errs []ValidationIssue) error {
	if formatter.Format == "json" {
		response := CLIResponse{
			Status: "error",
			Data: ValidationResult{
				Valid:  false,
				Errors: errs,
			},
			Error: &CLIError{
				Code:    errs[0].Code,
				Message: errs[0].Message,
			},
		}
		if err := formatter.encode(response); err != nil {
			return err
		}

		// Validation failures = exit code 1
		return NewExitError(ExitFailure, fmt.Sprintf("validation failed with %d error(s)", len(errs)))
	}

	// Text format
	fmt.Fprintln(formatter.Writer, "✗ Validation failed")
	fmt.Fprintln(formatter.Writer)

	for _, err := range errs {
		if err.Line > 0 {
			fmt.Fprintf(formatter.Writer, "line %d, column %d\n", err.Line, err.Column)
		}
		if err.Field != "" {
			fmt.Fprintf(formatter.Writer, "  %s: %s: %s\n\n", err.Code, err.Field, err.Message)
		} else {
			fmt.Fprintf(formatter.Writer, "  %s: %s\n\n", err.Code, err.Message)
		}
	}

	// Validation failures = exit code 1
	return NewExitError(ExitFailure, fmt.Sprintf("validation failed with %d error(s)", len(errs)))
}
