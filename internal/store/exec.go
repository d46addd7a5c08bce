package store

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/roach88/stal/internal/setplan"
)

// Transaction errors.
var (
	ErrNestedMulti        = errors.New("MULTI calls can not be nested")
	ErrExecWithoutMulti   = errors.New("EXEC without MULTI")
	ErrUnterminatedMulti  = errors.New("MULTI without EXEC")
	ErrAnswerOutOfRange   = errors.New("answer index out of range")
	ErrUnexpectedExecType = errors.New("EXEC reply is not a list")
)

// Reply status strings.
const (
	StatusOK     = "OK"
	StatusQueued = "QUEUED"
)

// Exec runs ops in order and returns one reply per op, mirroring what a
// Redis connection would answer:
//
//	MULTI        "OK"
//	queued op    "QUEUED"
//	EXEC         []any with the replies of the queued ops
//	other op     its own reply
//
// Commands queued between MULTI and EXEC run in a single SQLite
// transaction; if any of them fails the whole batch is rolled back and an
// error returned. Unknown commands and arity errors inside MULTI are
// reported when queued, before anything runs.
//
// On error, the replies gathered so far are returned alongside it.
func (s *Store) Exec(ctx context.Context, ops []setplan.Command) ([]any, error) {
	replies := make([]any, 0, len(ops))

	var (
		inMulti bool
		queued  []setplan.Command
	)
	for i, op := range ops {
		if len(op) == 0 {
			return replies, fmt.Errorf("op %d: empty command", i)
		}

		switch name := strings.ToUpper(op.Name()); {
		case name == setplan.CommandMulti:
			if inMulti {
				return replies, fmt.Errorf("op %d: %w", i, ErrNestedMulti)
			}
			inMulti = true
			queued = nil
			replies = append(replies, StatusOK)

		case name == setplan.CommandExec:
			if !inMulti {
				return replies, fmt.Errorf("op %d: %w", i, ErrExecWithoutMulti)
			}
			results, err := s.execBatch(ctx, queued)
			if err != nil {
				return replies, fmt.Errorf("op %d: %w", i, err)
			}
			inMulti = false
			replies = append(replies, results)

		case inMulti:
			if _, err := lookup(op.Name(), op[1:]); err != nil {
				return replies, fmt.Errorf("op %d: %w", i, err)
			}
			queued = append(queued, op)
			replies = append(replies, StatusQueued)

		default:
			reply, err := run(ctx, s.db, op)
			if err != nil {
				return replies, fmt.Errorf("op %d: %w", i, err)
			}
			replies = append(replies, reply)
		}
	}

	if inMulti {
		return replies, ErrUnterminatedMulti
	}
	return replies, nil
}

// execBatch runs queued commands atomically.
func (s *Store) execBatch(ctx context.Context, ops []setplan.Command) ([]any, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("exec: begin tx: %w", err)
	}
	defer tx.Rollback() // No-op if committed

	results := make([]any, 0, len(ops))
	for _, op := range ops {
		reply, err := run(ctx, tx, op)
		if err != nil {
			return nil, err
		}
		results = append(results, reply)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("exec: commit: %w", err)
	}
	return results, nil
}

func run(ctx context.Context, q querier, op setplan.Command) (any, error) {
	h, err := lookup(op.Name(), op[1:])
	if err != nil {
		return nil, err
	}
	return h.run(ctx, q, op[1:])
}

// Eval executes a program and returns the reply at its answer index. For
// transactional programs the reply is taken from the EXEC result, since
// the op itself only answers QUEUED.
func (s *Store) Eval(ctx context.Context, prog setplan.Program) (any, error) {
	slog.Debug("evaluating program",
		"ops", len(prog.Ops),
		"answer", prog.Answer,
		"fingerprint", prog.Fingerprint())

	replies, err := s.Exec(ctx, prog.Ops)
	if err != nil {
		return nil, err
	}
	return Answer(prog, replies)
}

// Answer picks the reply of prog.Answer out of the replies to prog.Ops.
func Answer(prog setplan.Program, replies []any) (any, error) {
	if prog.Answer < 0 || prog.Answer >= len(replies) {
		return nil, fmt.Errorf("%w: %d of %d", ErrAnswerOutOfRange, prog.Answer, len(replies))
	}
	if !prog.Transactional() {
		return replies[prog.Answer], nil
	}

	results, ok := replies[len(replies)-1].([]any)
	if !ok {
		return nil, fmt.Errorf("%w: %T", ErrUnexpectedExecType, replies[len(replies)-1])
	}
	// Queued ops start right after MULTI.
	idx := prog.Answer - 1
	if idx < 0 || idx >= len(results) {
		return nil, fmt.Errorf("%w: %d of %d queued", ErrAnswerOutOfRange, idx, len(results))
	}
	return results[idx], nil
}
