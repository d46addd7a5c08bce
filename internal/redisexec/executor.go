package redisexec

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"github.com/redis/go-redis/v9"

	"github.com/roach88/stal/internal/setplan"
)

// ErrAnswerOutOfRange is returned when a program's answer index does not
// address one of its ops.
var ErrAnswerOutOfRange = errors.New("answer index out of range")

// setReplies lists the commands whose array reply is an unordered set.
var setReplies = map[string]bool{
	"SMEMBERS": true,
	"SUNION":   true,
	"SINTER":   true,
	"SDIFF":    true,
}

// Executor submits programs to Redis.
type Executor struct {
	client redis.UniversalClient
}

// New returns an Executor using client. The caller keeps ownership of the
// client and closes it.
func New(client redis.UniversalClient) *Executor {
	return &Executor{client: client}
}

// Eval runs prog and returns the reply of its answer op.
func (e *Executor) Eval(ctx context.Context, prog setplan.Program) (any, error) {
	if prog.Answer < 0 || prog.Answer >= len(prog.Ops) {
		return nil, fmt.Errorf("%w: %d of %d", ErrAnswerOutOfRange, prog.Answer, len(prog.Ops))
	}

	slog.Debug("submitting program",
		"ops", len(prog.Ops),
		"answer", prog.Answer,
		"transactional", prog.Transactional(),
		"fingerprint", prog.Fingerprint())

	if !prog.Transactional() {
		cmds, err := e.pipeline(ctx, prog.Ops, false)
		if err != nil {
			return nil, err
		}
		return reply(prog.Ops[prog.Answer], cmds[prog.Answer])
	}

	// The queued ops start right after MULTI.
	queued := prog.Ops[1 : len(prog.Ops)-1]
	if prog.Answer == 0 || prog.Answer > len(queued) {
		return nil, fmt.Errorf("%w: %d is not a queued op", ErrAnswerOutOfRange, prog.Answer)
	}
	cmds, err := e.pipeline(ctx, queued, true)
	if err != nil {
		return nil, err
	}
	return reply(prog.Ops[prog.Answer], cmds[prog.Answer-1])
}

// Exec runs ops in one pipeline, outside any transaction, and returns a
// reply per op.
func (e *Executor) Exec(ctx context.Context, ops []setplan.Command) ([]any, error) {
	cmds, err := e.pipeline(ctx, ops, false)
	if err != nil {
		return nil, err
	}
	replies := make([]any, len(cmds))
	for i, cmd := range cmds {
		if replies[i], err = reply(ops[i], cmd); err != nil {
			return nil, fmt.Errorf("op %d: %w", i, err)
		}
	}
	return replies, nil
}

func (e *Executor) pipeline(ctx context.Context, ops []setplan.Command, tx bool) ([]*redis.Cmd, error) {
	cmds := make([]*redis.Cmd, 0, len(ops))
	fn := func(pipe redis.Pipeliner) error {
		for _, op := range ops {
			cmds = append(cmds, pipe.Do(ctx, op.Args()...))
		}
		return nil
	}

	var err error
	if tx {
		_, err = e.client.TxPipelined(ctx, fn)
	} else {
		_, err = e.client.Pipelined(ctx, fn)
	}
	// A nil reply is an answer, not a failure.
	if err != nil && !errors.Is(err, redis.Nil) {
		return nil, fmt.Errorf("redis pipeline: %w", err)
	}
	for i, cmd := range cmds {
		if err := cmd.Err(); err != nil && !errors.Is(err, redis.Nil) {
			return nil, fmt.Errorf("op %d %s: %w", i, ops[i].Name(), err)
		}
	}
	return cmds, nil
}

// reply extracts the result of cmd, which ran op.
func reply(op setplan.Command, cmd *redis.Cmd) (any, error) {
	v, err := cmd.Result()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op.Name(), err)
	}
	return normalize(strings.ToUpper(op.Name()), v), nil
}

// normalize turns array replies of strings into []string, sorted when the
// command answers with a set.
func normalize(name string, v any) any {
	items, ok := v.([]any)
	if !ok {
		return v
	}

	out := make([]string, 0, len(items))
	for _, item := range items {
		s, ok := item.(string)
		if !ok {
			return v
		}
		out = append(out, s)
	}
	if setReplies[name] {
		sort.Strings(out)
	}
	return out
}
