package store

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/stal/internal/setexpr"
	"github.com/roach88/stal/internal/setplan"
)

func nested() setexpr.Set {
	return setexpr.NewDiff(
		setexpr.NewInter(setexpr.K("foo"), setexpr.K("bar")),
		setexpr.K("baz"),
	)
}

func TestCommands(t *testing.T) {
	tests := []struct {
		name string
		cmd  setplan.Command
		want any
	}{
		{"smembers", setplan.Cmd("SMEMBERS", "baz"), []string{"3", "9"}},
		{"smembers missing", setplan.Cmd("SMEMBERS", "nope"), []string{}},
		{"scard", setplan.Cmd("SCARD", "foo"), int64(4)},
		{"sismember yes", setplan.Cmd("SISMEMBER", "foo", "1"), int64(1)},
		{"sismember no", setplan.Cmd("SISMEMBER", "foo", "9"), int64(0)},
		{"sunion", setplan.Cmd("SUNION", "foo", "baz"), []string{"1", "2", "3", "4", "9"}},
		{"sinter", setplan.Cmd("SINTER", "foo", "bar"), []string{"2", "3", "4"}},
		{"sinter repeated key", setplan.Cmd("SINTER", "foo", "foo"), []string{"1", "2", "3", "4"}},
		{"sinter missing key", setplan.Cmd("SINTER", "foo", "nope"), []string{}},
		{"sdiff", setplan.Cmd("SDIFF", "foo", "bar", "baz"), []string{"1"}},
		{"sdiff single", setplan.Cmd("SDIFF", "baz"), []string{"3", "9"}},
		{"exists", setplan.Cmd("EXISTS", "foo", "nope", "foo"), int64(2)},
		{"lowercase name", setplan.Cmd("scard", "baz"), int64(2)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := seedStore(t)
			replies, err := s.Exec(context.Background(), []setplan.Command{tt.cmd})
			require.NoError(t, err)
			assert.Equal(t, []any{tt.want}, replies)
		})
	}
}

func TestCommands_Mutations(t *testing.T) {
	ctx := context.Background()
	s := seedStore(t)

	replies, err := s.Exec(ctx, []setplan.Command{
		setplan.Cmd("SADD", "new", "a", "b", "a"),
		setplan.Cmd("SREM", "new", "a", "zzz"),
		setplan.Cmd("SINTERSTORE", "dst", "foo", "bar"),
		setplan.Cmd("SDIFFSTORE", "dst", "dst", "baz"),
		setplan.Cmd("SUNIONSTORE", "empty", "nope"),
		setplan.Cmd("DEL", "foo", "foo", "nope"),
	})
	require.NoError(t, err)
	assert.Equal(t, []any{int64(2), int64(1), int64(3), int64(2), int64(0), int64(1)}, replies)

	members, err := s.Members(ctx, "dst")
	require.NoError(t, err)
	assert.Equal(t, []string{"2", "4"}, members)

	keys, err := s.Keys(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"bar", "baz", "dst", "new"}, keys)
}

func TestExec_BinaryMembers(t *testing.T) {
	ctx := context.Background()
	s := createTestStore(t)

	key := []byte{0x00, 0xff}
	_, err := s.Exec(ctx, []setplan.Command{{[]byte("SADD"), key, {0x01}, {0x02}}})
	require.NoError(t, err)

	replies, err := s.Exec(ctx, []setplan.Command{{[]byte("SMEMBERS"), key}})
	require.NoError(t, err)
	assert.Equal(t, []any{[]string{"\x01", "\x02"}}, replies)
}

func TestExec_Transaction(t *testing.T) {
	s := seedStore(t)

	replies, err := s.Exec(context.Background(), []setplan.Command{
		setplan.Cmd("MULTI"),
		setplan.Cmd("SCARD", "foo"),
		setplan.Cmd("SMEMBERS", "baz"),
		setplan.Cmd("EXEC"),
	})
	require.NoError(t, err)
	assert.Equal(t, []any{
		StatusOK,
		StatusQueued,
		StatusQueued,
		[]any{int64(4), []string{"3", "9"}},
	}, replies)
}

func TestExec_Errors(t *testing.T) {
	tests := []struct {
		name string
		ops  []setplan.Command
		err  error
	}{
		{"unknown command", []setplan.Command{setplan.Cmd("FLUSHALL")}, ErrUnknownCommand},
		{"wrong arity", []setplan.Command{setplan.Cmd("SINTERSTORE", "dst")}, ErrWrongArity},
		{"nested multi", []setplan.Command{setplan.Cmd("MULTI"), setplan.Cmd("MULTI")}, ErrNestedMulti},
		{"exec without multi", []setplan.Command{setplan.Cmd("EXEC")}, ErrExecWithoutMulti},
		{"unterminated multi", []setplan.Command{setplan.Cmd("MULTI"), setplan.Cmd("SCARD", "foo")}, ErrUnterminatedMulti},
		{"unknown queued", []setplan.Command{setplan.Cmd("MULTI"), setplan.Cmd("NOPE"), setplan.Cmd("EXEC")}, ErrUnknownCommand},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := seedStore(t)
			_, err := s.Exec(context.Background(), tt.ops)
			require.Error(t, err)
			assert.True(t, errors.Is(err, tt.err), "got %v", err)
		})
	}
}

func TestExec_QueueErrorRunsNothing(t *testing.T) {
	ctx := context.Background()
	s := seedStore(t)

	_, err := s.Exec(ctx, []setplan.Command{
		setplan.Cmd("MULTI"),
		setplan.Cmd("DEL", "foo"),
		setplan.Cmd("SINTERSTORE"),
		setplan.Cmd("EXEC"),
	})
	require.Error(t, err)

	members, err := s.Members(ctx, "foo")
	require.NoError(t, err)
	assert.Len(t, members, 4)
}

func TestEval_Solve(t *testing.T) {
	ctx := context.Background()
	s := seedStore(t)

	got, err := s.Eval(ctx, setplan.New("SMEMBERS", nested()).Solve())
	require.NoError(t, err)
	// (foo ∩ bar) - baz = {2,3,4} - {3,9}
	assert.Equal(t, []string{"2", "4"}, got)

	// Temporaries are gone after the program ran.
	keys, err := s.Keys(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"bar", "baz", "foo"}, keys)
}

func TestEval_ModesAgree(t *testing.T) {
	ctx := context.Background()
	s := seedStore(t)

	trees := []setexpr.Set{
		setexpr.K("foo"),
		nested(),
		setexpr.NewUnion(setexpr.NewDiff(setexpr.K("foo"), setexpr.K("bar")), setexpr.K("baz")),
		setexpr.NewInter(setexpr.NewUnion(setexpr.K("foo"), setexpr.K("baz")), setexpr.NewUnion(setexpr.K("bar"), setexpr.K("baz"))),
	}

	for _, tree := range trees {
		t.Run(setexpr.String(tree), func(t *testing.T) {
			templated, err := s.Eval(ctx, setplan.New("SMEMBERS", tree).Solve())
			require.NoError(t, err)

			members, err := s.Eval(ctx, setplan.Members(tree).Solve())
			require.NoError(t, err)

			assert.Equal(t, templated, members)
		})
	}
}

func TestEval_Count(t *testing.T) {
	s := seedStore(t)

	got, err := s.Eval(context.Background(), setplan.New("SCARD", nested()).Solve())
	require.NoError(t, err)
	assert.Equal(t, int64(2), got)
}

func TestEval_Explain(t *testing.T) {
	ctx := context.Background()
	s := seedStore(t)

	ops := setplan.New("SMEMBERS", nested()).Explain()
	got, err := s.Eval(ctx, setplan.Program{Ops: ops, Answer: len(ops) - 1})
	require.NoError(t, err)
	assert.Equal(t, []string{"2", "4"}, got)

	// Explain does not clean up after itself.
	keys, err := s.Keys(ctx)
	require.NoError(t, err)
	assert.Contains(t, keys, "stal:0")
	assert.Contains(t, keys, "stal:1")
}

func TestAnswer_OutOfRange(t *testing.T) {
	_, err := Answer(setplan.Program{Ops: []setplan.Command{setplan.Cmd("SCARD", "a")}, Answer: 3}, []any{int64(0)})
	assert.True(t, errors.Is(err, ErrAnswerOutOfRange))

	prog := setplan.New("SCARD", setexpr.K("a")).Solve()
	_, err = Answer(prog, []any{StatusOK, StatusQueued, "not a list"})
	assert.True(t, errors.Is(err, ErrUnexpectedExecType))
}
