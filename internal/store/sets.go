package store

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// Errors returned for commands the store cannot run.
var (
	ErrUnknownCommand = errors.New("unknown command")
	ErrWrongArity     = errors.New("wrong number of arguments")
)

// handler runs one command against q and returns its Redis-shaped reply:
// a status string, an int64 or a sorted []string.
type handler struct {
	minArgs int // not counting the command name
	run     func(ctx context.Context, q querier, args [][]byte) (any, error)
}

var handlers = map[string]handler{
	"SADD":        {2, sadd},
	"SREM":        {2, srem},
	"SMEMBERS":    {1, smembers},
	"SCARD":       {1, scard},
	"SISMEMBER":   {2, sismember},
	"SUNION":      {1, combine(opUnion)},
	"SINTER":      {1, combine(opInter)},
	"SDIFF":       {1, combine(opDiff)},
	"SUNIONSTORE": {2, combineStore(opUnion)},
	"SINTERSTORE": {2, combineStore(opInter)},
	"SDIFFSTORE":  {2, combineStore(opDiff)},
	"DEL":         {1, del},
	"EXISTS":      {1, exists},
}

// lookup returns the handler for a command and checks its arity.
func lookup(name string, args [][]byte) (handler, error) {
	h, ok := handlers[strings.ToUpper(name)]
	if !ok {
		return handler{}, fmt.Errorf("%w '%s'", ErrUnknownCommand, name)
	}
	if len(args) < h.minArgs {
		return handler{}, fmt.Errorf("%w for '%s' command", ErrWrongArity, strings.ToLower(name))
	}
	return h, nil
}

type setOp int

const (
	opUnion setOp = iota
	opInter
	opDiff
)

func sadd(ctx context.Context, q querier, args [][]byte) (any, error) {
	var added int64
	for _, member := range args[1:] {
		res, err := q.ExecContext(ctx, `INSERT OR IGNORE INTO members (key, member) VALUES (?, ?)`, args[0], member)
		if err != nil {
			return nil, fmt.Errorf("sadd: %w", err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return nil, fmt.Errorf("sadd: %w", err)
		}
		added += n
	}
	return added, nil
}

func srem(ctx context.Context, q querier, args [][]byte) (any, error) {
	var removed int64
	for _, member := range args[1:] {
		res, err := q.ExecContext(ctx, `DELETE FROM members WHERE key = ? AND member = ?`, args[0], member)
		if err != nil {
			return nil, fmt.Errorf("srem: %w", err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return nil, fmt.Errorf("srem: %w", err)
		}
		removed += n
	}
	return removed, nil
}

func smembers(ctx context.Context, q querier, args [][]byte) (any, error) {
	members, err := queryMembers(ctx, q, `SELECT member FROM members WHERE key = ? ORDER BY member`, args[0])
	if err != nil {
		return nil, fmt.Errorf("smembers: %w", err)
	}
	return members, nil
}

func scard(ctx context.Context, q querier, args [][]byte) (any, error) {
	var n int64
	if err := q.QueryRowContext(ctx, `SELECT COUNT(*) FROM members WHERE key = ?`, args[0]).Scan(&n); err != nil {
		return nil, fmt.Errorf("scard: %w", err)
	}
	return n, nil
}

func sismember(ctx context.Context, q querier, args [][]byte) (any, error) {
	var n int64
	err := q.QueryRowContext(ctx,
		`SELECT EXISTS(SELECT 1 FROM members WHERE key = ? AND member = ?)`, args[0], args[1]).Scan(&n)
	if err != nil {
		return nil, fmt.Errorf("sismember: %w", err)
	}
	return n, nil
}

func del(ctx context.Context, q querier, args [][]byte) (any, error) {
	var deleted int64
	for _, key := range distinct(args) {
		res, err := q.ExecContext(ctx, `DELETE FROM members WHERE key = ?`, key)
		if err != nil {
			return nil, fmt.Errorf("del: %w", err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return nil, fmt.Errorf("del: %w", err)
		}
		if n > 0 {
			deleted++
		}
	}
	return deleted, nil
}

func exists(ctx context.Context, q querier, args [][]byte) (any, error) {
	var total int64
	for _, key := range args {
		var n int64
		if err := q.QueryRowContext(ctx, `SELECT EXISTS(SELECT 1 FROM members WHERE key = ?)`, key).Scan(&n); err != nil {
			return nil, fmt.Errorf("exists: %w", err)
		}
		total += n
	}
	return total, nil
}

func combine(op setOp) func(context.Context, querier, [][]byte) (any, error) {
	return func(ctx context.Context, q querier, args [][]byte) (any, error) {
		members, err := compute(ctx, q, op, args)
		if err != nil {
			return nil, err
		}
		return members, nil
	}
}

// combineStore computes the operator over args[1:] and replaces the set at
// args[0] with the result. The destination may also be a source.
func combineStore(op setOp) func(context.Context, querier, [][]byte) (any, error) {
	return func(ctx context.Context, q querier, args [][]byte) (any, error) {
		members, err := compute(ctx, q, op, args[1:])
		if err != nil {
			return nil, err
		}
		if _, err := q.ExecContext(ctx, `DELETE FROM members WHERE key = ?`, args[0]); err != nil {
			return nil, fmt.Errorf("store result: %w", err)
		}
		for _, m := range members {
			if _, err := q.ExecContext(ctx, `INSERT INTO members (key, member) VALUES (?, ?)`, args[0], []byte(m)); err != nil {
				return nil, fmt.Errorf("store result: %w", err)
			}
		}
		return int64(len(members)), nil
	}
}

// compute returns the sorted members resulting from op over keys.
func compute(ctx context.Context, q querier, op setOp, keys [][]byte) ([]string, error) {
	var (
		query string
		args  []any
	)

	switch op {
	case opUnion:
		query = `SELECT DISTINCT member FROM members WHERE key IN (` + placeholders(len(keys)) + `) ORDER BY member`
		args = blobArgs(keys)

	case opInter:
		// PRIMARY KEY (key, member) makes COUNT(*) the number of distinct
		// keys holding the member.
		uniq := distinct(keys)
		query = `SELECT member FROM members WHERE key IN (` + placeholders(len(uniq)) + `)
			GROUP BY member HAVING COUNT(*) = ? ORDER BY member`
		args = append(blobArgs(uniq), len(uniq))

	case opDiff:
		if len(keys) == 1 {
			query = `SELECT member FROM members WHERE key = ? ORDER BY member`
			args = blobArgs(keys)
			break
		}
		query = `SELECT member FROM members WHERE key = ? AND member NOT IN (
			SELECT member FROM members WHERE key IN (` + placeholders(len(keys)-1) + `)
		) ORDER BY member`
		args = blobArgs(keys)
	}

	members, err := queryMembers(ctx, q, query, args...)
	if err != nil {
		return nil, fmt.Errorf("compute set: %w", err)
	}
	return members, nil
}

func queryMembers(ctx context.Context, q querier, query string, args ...any) ([]string, error) {
	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	members := []string{}
	for rows.Next() {
		var m []byte
		if err := rows.Scan(&m); err != nil {
			return nil, err
		}
		members = append(members, string(m))
	}
	return members, rows.Err()
}

func placeholders(n int) string {
	return strings.TrimSuffix(strings.Repeat("?,", n), ",")
}

func blobArgs(keys [][]byte) []any {
	out := make([]any, len(keys))
	for i, k := range keys {
		out[i] = k
	}
	return out
}

// distinct drops repeated keys, keeping first occurrences in order.
func distinct(keys [][]byte) [][]byte {
	seen := make(map[string]bool, len(keys))
	out := make([][]byte, 0, len(keys))
	for _, k := range keys {
		if seen[string(k)] {
			continue
		}
		seen[string(k)] = true
		out = append(out, k)
	}
	return out
}
