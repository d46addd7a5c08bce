package setplan

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/roach88/stal/internal/setexpr"
)

func TestCommand_String(t *testing.T) {
	assert.Equal(t, "SINTERSTORE stal:0 foo bar", Cmd("SINTERSTORE", "stal:0", "foo", "bar").String())
	assert.Equal(t, `SMEMBERS "two words"`, Cmd("SMEMBERS", "two words").String())
	assert.Equal(t, `SMEMBERS ""`, Cmd("SMEMBERS", "").String())
	assert.Equal(t, `SMEMBERS "\x00\xff"`, Command{[]byte("SMEMBERS"), {0x00, 0xff}}.String())
}

func TestCommand_Name(t *testing.T) {
	assert.Equal(t, "DEL", Cmd("DEL", "a").Name())
	assert.Equal(t, "", Command{}.Name())
}

func TestCommand_Args(t *testing.T) {
	args := Cmd("SCARD", "a").Args()
	assert.Equal(t, []any{[]byte("SCARD"), []byte("a")}, args)
}

func TestCommand_CloneIsDeep(t *testing.T) {
	c := Cmd("SCARD", "a")
	clone := c.Clone()
	clone[1][0] = 'b'

	assert.Equal(t, "a", string(c[1]))
}

func TestProgram_Transactional(t *testing.T) {
	assert.True(t, New("SCARD", setexpr.K("a")).Solve().Transactional())
	assert.False(t, Program{Ops: New("SCARD", setexpr.K("a")).Explain()}.Transactional())
	assert.False(t, Program{}.Transactional())
}

func TestProgram_Temporaries(t *testing.T) {
	assert.Nil(t, New("SCARD", setexpr.K("a")).Solve().Temporaries())
	assert.Equal(t, []string{"stal:0", "stal:1"}, New("SCARD", nested()).Solve().Temporaries())

	// A DEL used as the terminal command is not the cleanup command.
	q := New("DEL", setexpr.K("a"))
	assert.Nil(t, q.Solve().Temporaries())
}

func TestProgram_Fingerprint(t *testing.T) {
	a := New("SCARD", nested()).Solve()
	b := New("SMEMBERS", nested()).Solve()
	c := New("SCARD", nested(), WithNamespace("tmp")).Solve()

	assert.Len(t, a.Fingerprint(), 64)
	assert.NotEqual(t, a.Fingerprint(), b.Fingerprint())
	assert.NotEqual(t, a.Fingerprint(), c.Fingerprint())

	// Argument boundaries are part of the digest.
	x := Program{Ops: []Command{Cmd("A", "bc")}}
	y := Program{Ops: []Command{Cmd("A", "b", "c")}}
	assert.NotEqual(t, x.Fingerprint(), y.Fingerprint())
}

func TestProgram_Strings(t *testing.T) {
	got := New("SCARD", setexpr.K("a")).Solve().Strings()
	assert.Equal(t, [][]string{{"MULTI"}, {"SCARD", "a"}, {"EXEC"}}, got)
}
