package cli

import (
	"github.com/spf13/cobra"
)

// SolveOptions holds flags for the solve command.
type SolveOptions struct {
	*RootOptions
	QueryOptions
}

// SolveResult is the JSON payload of solve.
type SolveResult struct {
	Commands    [][]string `json:"commands"`
	Answer      int        `json:"answer"`
	Temporaries []string   `json:"temporaries"`
	Fingerprint string     `json:"fingerprint"`
}

// NewSolveCommand creates the solve command.
func NewSolveCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &SolveOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "solve <query-file>",
		Short: "Print the transaction that answers a query",
		Long: `Print the MULTI/EXEC transaction that answers a query and deletes every
temporary key it created, one command per line. The text output can be
piped into redis-cli. The answer is the reply of the terminal command
inside the EXEC result; --format json reports its index.

Example:
  stal solve query.yaml | redis-cli
  stal solve --format json query.yaml`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSolve(opts, args[0], cmd)
		},
	}

	addQueryFlags(cmd, &opts.QueryOptions)

	return cmd
}

func runSolve(opts *SolveOptions, path string, cmd *cobra.Command) error {
	formatter := newFormatter(opts.RootOptions, cmd)

	loaded, err := LoadQuery(path, opts.QueryOptions)
	if err != nil {
		return loadFailure(formatter, err)
	}

	prog := loaded.Query.Solve()
	formatter.VerboseLog("%s: %d op(s), answer at %d, fingerprint %s", path, len(prog.Ops), prog.Answer, prog.Fingerprint())

	if formatter.Format == "json" {
		temporaries := prog.Temporaries()
		if temporaries == nil {
			temporaries = []string{}
		}
		return formatter.Success(SolveResult{
			Commands:    prog.Strings(),
			Answer:      prog.Answer,
			Temporaries: temporaries,
			Fingerprint: prog.Fingerprint(),
		})
	}

	formatter.Lines(commandLines(prog.Ops))
	return nil
}
