package cli

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/roach88/stal/internal/setplan"
	"github.com/roach88/stal/internal/store"
)

// RunOptions holds flags for the run command.
type RunOptions struct {
	*RootOptions
	QueryOptions
	Database string
	Seed     string
	Explain  bool
}

// NewRunCommand creates the run command.
func NewRunCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &RunOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "run <query-file>",
		Short: "Answer a query against a SQLite set store",
		Long: `Compile a query and evaluate its transaction against a SQLite database
that stores sets the way Redis does. The database is created if it does
not exist; --seed loads a YAML map of key to members first.

Example:
  stal run --db ./sets.db --seed seed.yaml query.yaml
  stal run --db ./sets.db --format json query.cue`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runQuery(opts, args[0], cmd)
		},
	}

	addQueryFlags(cmd, &opts.QueryOptions)
	cmd.Flags().StringVar(&opts.Database, "db", "", "path to SQLite database (required)")
	cmd.Flags().StringVar(&opts.Seed, "seed", "", "YAML file mapping keys to members, loaded before the query")
	cmd.Flags().BoolVar(&opts.Explain, "explain", false, "run the explain commands instead of the transaction (keeps temporaries)")
	_ = cmd.MarkFlagRequired("db")

	return cmd
}

func runQuery(opts *RunOptions, path string, cmd *cobra.Command) error {
	traceID := opts.traceID()
	configureLogging(opts.RootOptions, cmd, traceID)

	formatter := newFormatter(opts.RootOptions, cmd)
	formatter.TraceID = traceID

	loaded, err := LoadQuery(path, opts.QueryOptions)
	if err != nil {
		return loadFailure(formatter, err)
	}

	ctx, stop := commandContext(cmd)
	defer stop()

	slog.Info("opening database", "path", opts.Database)
	st, err := store.Open(opts.Database)
	if err != nil {
		_ = formatter.Error(ErrCodeStore, err.Error(), nil)
		return WrapExitError(ExitCommandError, "failed to open database", err)
	}
	defer func() {
		if closeErr := st.Close(); closeErr != nil {
			slog.Error("error closing database", "error", closeErr)
		}
	}()

	if opts.Seed != "" {
		sets, err := loadSeed(opts.Seed)
		if err != nil {
			_ = formatter.Error(ErrCodeNotFound, err.Error(), nil)
			return WrapExitError(ExitCommandError, "failed to load seed", err)
		}
		if err := st.Seed(ctx, sets); err != nil {
			_ = formatter.Error(ErrCodeStore, err.Error(), nil)
			return WrapExitError(ExitCommandError, "failed to seed database", err)
		}
		slog.Info("seeded database", "keys", len(sets))
	}

	prog := program(loaded.Query, opts.Explain)
	slog.Debug("evaluating", "ops", len(prog.Ops), "answer", prog.Answer, "fingerprint", prog.Fingerprint())

	reply, err := st.Eval(ctx, prog)
	if err != nil {
		_ = formatter.Error(ErrCodeStore, err.Error(), nil)
		return WrapExitError(ExitCommandError, "failed to evaluate query", err)
	}
	slog.Info("query answered", "path", path)

	return formatter.Reply(reply)
}

// program returns the solve program, or the explain commands framed as a
// program whose answer is the terminal command.
func program(q *setplan.Query, explain bool) setplan.Program {
	if !explain {
		return q.Solve()
	}
	ops := q.Explain()
	return setplan.Program{Ops: ops, Answer: len(ops) - 1}
}

// loadSeed reads a YAML map of key to members.
func loadSeed(path string) (map[string][]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read seed file: %w", err)
	}
	var sets map[string][]string
	if err := yaml.Unmarshal(data, &sets); err != nil {
		return nil, fmt.Errorf("failed to parse seed file: %w", err)
	}
	return sets, nil
}

// configureLogging installs the default slog logger for a run or exec
// invocation. Logs go to stderr so they never mix with command output.
func configureLogging(opts *RootOptions, cmd *cobra.Command, traceID string) {
	logLevel := slog.LevelWarn
	if opts.Verbose {
		logLevel = slog.LevelDebug
	}
	handler := slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{
		Level: logLevel,
	})
	slog.SetDefault(slog.New(handler).With("trace_id", traceID))
}

// commandContext returns the command's context, cancelled on SIGINT or
// SIGTERM.
func commandContext(cmd *cobra.Command) (context.Context, context.CancelFunc) {
	// Use command's context if available (for testing), otherwise create one
	parent := cmd.Context()
	if parent == nil {
		parent = context.Background()
	}
	return signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
}
