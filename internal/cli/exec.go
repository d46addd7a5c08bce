package cli

import (
	"context"
	"log/slog"
	"os"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"

	"github.com/roach88/stal/internal/redisexec"
)

// ExecOptions holds flags for the exec command.
type ExecOptions struct {
	*RootOptions
	QueryOptions
	Addr     string
	Username string
	Password string
	DB       int
	Timeout  time.Duration
	Explain  bool
}

// NewExecCommand creates the exec command.
func NewExecCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ExecOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "exec <query-file>",
		Short: "Answer a query against a Redis server",
		Long: `Compile a query and submit its transaction to a Redis server in a single
round trip. The password may also be given in the REDIS_PASSWORD
environment variable.

Example:
  stal exec --addr localhost:6379 query.yaml
  stal exec --addr redis:6379 --redis-db 2 --namespace tmp query.cue`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return execQuery(opts, args[0], cmd)
		},
	}

	addQueryFlags(cmd, &opts.QueryOptions)
	cmd.Flags().StringVar(&opts.Addr, "addr", "localhost:6379", "Redis server address")
	cmd.Flags().StringVar(&opts.Username, "user", "", "Redis ACL username")
	cmd.Flags().StringVar(&opts.Password, "password", "", "Redis password")
	cmd.Flags().IntVar(&opts.DB, "redis-db", 0, "Redis logical database")
	cmd.Flags().DurationVar(&opts.Timeout, "timeout", 5*time.Second, "overall deadline for the query")
	cmd.Flags().BoolVar(&opts.Explain, "explain", false, "pipeline the explain commands instead of the transaction (keeps temporaries)")

	return cmd
}

func execQuery(opts *ExecOptions, path string, cmd *cobra.Command) error {
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
	ctx, cancel := context.WithTimeout(ctx, opts.Timeout)
	defer cancel()

	password := opts.Password
	if password == "" {
		password = os.Getenv("REDIS_PASSWORD")
	}
	client := redis.NewUniversalClient(&redis.UniversalOptions{
		Addrs:    []string{opts.Addr},
		Username: opts.Username,
		Password: password,
		DB:       opts.DB,
		// RESP2 is understood by every server version.
		Protocol: 2,
	})
	defer func() {
		if closeErr := client.Close(); closeErr != nil {
			slog.Error("error closing redis client", "error", closeErr)
		}
	}()

	prog := program(loaded.Query, opts.Explain)
	slog.Info("submitting query", "addr", opts.Addr, "ops", len(prog.Ops))

	reply, err := redisexec.New(client).Eval(ctx, prog)
	if err != nil {
		_ = formatter.Error(ErrCodeRedis, err.Error(), nil)
		return WrapExitError(ExitCommandError, "failed to evaluate query", err)
	}
	slog.Info("query answered", "path", path)

	return formatter.Reply(reply)
}
