package cli

import (
	"github.com/spf13/cobra"

	"github.com/roach88/stal/internal/setplan"
)

// ExplainOptions holds flags for the explain command.
type ExplainOptions struct {
	*RootOptions
	QueryOptions
}

// ExplainResult is the JSON payload of explain.
type ExplainResult struct {
	Commands  [][]string `json:"commands"`
	Namespace string     `json:"namespace"`
}

// NewExplainCommand creates the explain command.
func NewExplainCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ExplainOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "explain <query-file>",
		Short: "Print the commands a query compiles to",
		Long: `Print the commands that compute a query, one per line, without the
MULTI/EXEC wrapping or the cleanup of temporary keys. The last line is the
terminal command whose reply is the answer.

The output is meant for reading. Piping it into redis-cli works but leaves
the temporary keys behind; use solve for that.

Example:
  stal explain query.yaml
  stal explain --namespace tmp --command SCARD query.cue`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runExplain(opts, args[0], cmd)
		},
	}

	addQueryFlags(cmd, &opts.QueryOptions)

	return cmd
}

func runExplain(opts *ExplainOptions, path string, cmd *cobra.Command) error {
	formatter := newFormatter(opts.RootOptions, cmd)

	loaded, err := LoadQuery(path, opts.QueryOptions)
	if err != nil {
		return loadFailure(formatter, err)
	}

	commands := loaded.Query.Explain()
	formatter.VerboseLog("%s: %d command(s), namespace %q", path, len(commands), loaded.Query.Namespace())

	if formatter.Format == "json" {
		return formatter.Success(ExplainResult{
			Commands:  commandArgs(commands),
			Namespace: loaded.Query.Namespace(),
		})
	}

	formatter.Lines(commandLines(commands))
	return nil
}

func commandLines(cmds []setplan.Command) []string {
	out := make([]string, len(cmds))
	for i, c := range cmds {
		out[i] = c.String()
	}
	return out
}

func commandArgs(cmds []setplan.Command) [][]string {
	out := make([][]string, len(cmds))
	for i, c := range cmds {
		out[i] = c.Strings()
	}
	return out
}
