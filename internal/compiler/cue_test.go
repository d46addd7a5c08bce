package compiler

import (
	"errors"
	"testing"

	"cuelang.org/go/cue/cuecontext"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/stal/internal/setexpr"
	"github.com/roach88/stal/internal/setplan"
)

func TestCompileQuery_Nested(t *testing.T) {
	ctx := cuecontext.New()
	v := ctx.CompileString(`
		command: "SCARD"
		set: diff: [{inter: ["foo", "bar"]}, "baz"]
	`)
	require.NoError(t, v.Err())

	doc, err := CompileQuery(v, Options{})
	require.NoError(t, err)

	assert.Equal(t, "SCARD", doc.Command)
	assert.Equal(t, "(diff (inter foo bar) baz)", setexpr.String(doc.Set))
}

func TestCompileQuery_AllFields(t *testing.T) {
	doc, err := CompileCUE([]byte(`
		members: true
		namespace: "tmp"
		set: union: ["a", "b"]
	`), "q.cue", Options{})
	require.NoError(t, err)

	assert.True(t, doc.Members)
	assert.Equal(t, "tmp", doc.Namespace)

	q, err := doc.Query()
	require.NoError(t, err)
	assert.Equal(t, []setplan.Command{setplan.Cmd("SUNION", "a", "b")}, q.Explain())
}

func TestCompileQuery_Template(t *testing.T) {
	doc, err := CompileCUE([]byte(`
		template: ["SMOVE", "{0}", "{1}", "member"]
		sets: [{union: ["a", "b"]}, "c"]
	`), "q.cue", Options{})
	require.NoError(t, err)

	assert.Equal(t, []string{"SMOVE", "{0}", "{1}", "member"}, doc.Template)
	require.Len(t, doc.Sets, 2)

	q, err := doc.Query()
	require.NoError(t, err)
	assert.Equal(t, []setplan.Command{
		setplan.Cmd("SUNIONSTORE", "stal:0", "a", "b"),
		setplan.Cmd("SMOVE", "stal:0", "c", "member"),
	}, q.Explain())
}

func TestCompileQuery_BytesKey(t *testing.T) {
	doc, err := CompileCUE([]byte(`set: inter: ['\x00raw', "b"]`), "q.cue", Options{})
	require.NoError(t, err)

	_, sets, ok := setexpr.Operator(doc.Set)
	require.True(t, ok)
	assert.Equal(t, setexpr.Key{0x00, 'r', 'a', 'w'}, sets[0])
}

func TestCompileQuery_NormalizeKeys(t *testing.T) {
	// "e" followed by a combining acute accent normalizes to U+00E9.
	src := []byte("set: \"cafe\u0301\"")

	doc, err := CompileCUE(src, "q.cue", Options{NormalizeKeys: true})
	require.NoError(t, err)
	assert.Equal(t, setexpr.Key("caf\u00e9"), doc.Set)

	doc, err = CompileCUE(src, "q.cue", Options{})
	require.NoError(t, err)
	assert.Equal(t, setexpr.Key("cafe\u0301"), doc.Set)
}

func TestCompileQuery_Errors(t *testing.T) {
	tests := []struct {
		name  string
		src   string
		field string
		msg   string
	}{
		{"unknown field", `sett: "a"`, "sett", "unknown field"},
		{"unknown operator", `set: xor: ["a", "b"]`, "set.xor", "unknown operator"},
		{"two operators", `set: {union: ["a"], inter: ["b"]}`, "set", "exactly one field"},
		{"empty operator", `set: union: []`, "set.union", "at least one operand"},
		{"operand not list", `set: union: "a"`, "set.union", "expected list"},
		{"bad key type", `set: union: [1]`, "set.union[0]", "expected key string"},
		{"command not string", `command: 3`, "command", "expected string"},
		{"members not bool", `members: "yes"`, "members", "expected bool"},
		{"template not list", `template: "SCARD"`, "template", "expected list of strings"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := CompileCUE([]byte(tt.src), "q.cue", Options{})
			require.Error(t, err)

			var compileErr *CompileError
			require.True(t, errors.As(err, &compileErr), "got %T: %v", err, err)
			assert.Equal(t, tt.field, compileErr.Field)
			assert.Contains(t, compileErr.Message, tt.msg)
		})
	}
}

func TestCompileQuery_NotStruct(t *testing.T) {
	v := cuecontext.New().CompileString(`"just a string"`)
	_, err := CompileQuery(v, Options{})

	var compileErr *CompileError
	require.True(t, errors.As(err, &compileErr))
	assert.Equal(t, "document", compileErr.Field)
}

func TestCompileCUE_SyntaxError(t *testing.T) {
	_, err := CompileCUE([]byte(`set: {`), "broken.cue", Options{})
	require.Error(t, err)

	var compileErr *CompileError
	require.True(t, errors.As(err, &compileErr))
	assert.Equal(t, "cue", compileErr.Field)
	assert.True(t, compileErr.Pos.IsValid())
	assert.Equal(t, "broken.cue", compileErr.Pos.Filename)
}
