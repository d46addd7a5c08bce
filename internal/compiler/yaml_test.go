package compiler

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/stal/internal/setexpr"
	"github.com/roach88/stal/internal/setplan"
)

func TestDecodeYAML_Nested(t *testing.T) {
	doc, err := DecodeYAML([]byte(`
command: SMEMBERS
set:
  diff:
    - inter: [foo, bar]
    - baz
`), Options{})
	require.NoError(t, err)

	assert.Equal(t, "SMEMBERS", doc.Command)
	assert.Equal(t, "(diff (inter foo bar) baz)", setexpr.String(doc.Set))
}

func TestDecodeYAML_JSON(t *testing.T) {
	doc, err := DecodeYAML([]byte(`{"members": true, "set": {"union": ["a", {"inter": ["b", "c"]}]}}`), Options{})
	require.NoError(t, err)

	assert.True(t, doc.Members)
	assert.Equal(t, "(union a (inter b c))", setexpr.String(doc.Set))
}

func TestDecodeYAML_ScalarKeysKeepText(t *testing.T) {
	doc, err := DecodeYAML([]byte(`set: {union: [123, "007", "users:1"]}`), Options{})
	require.NoError(t, err)

	_, sets, _ := setexpr.Operator(doc.Set)
	assert.Equal(t, []setexpr.Set{setexpr.K("123"), setexpr.K("007"), setexpr.K("users:1")}, sets)
}

func TestDecodeYAML_Aliases(t *testing.T) {
	doc, err := DecodeYAML([]byte(`
template: [SMOVE, "{0}", "{1}", m]
sets:
  - &shared {inter: [a, b]}
  - *shared
`), Options{})
	require.NoError(t, err)
	require.Len(t, doc.Sets, 2)
	assert.Equal(t, setexpr.String(doc.Sets[0]), setexpr.String(doc.Sets[1]))
}

func TestDecodeYAML_NormalizeKeys(t *testing.T) {
	src := []byte("set: \"cafe\u0301\"")

	doc, err := DecodeYAML(src, Options{NormalizeKeys: true})
	require.NoError(t, err)
	assert.Equal(t, setexpr.Key("caf\u00e9"), doc.Set)

	doc, err = DecodeYAML(src, Options{})
	require.NoError(t, err)
	assert.Equal(t, setexpr.Key("cafe\u0301"), doc.Set)
}

func TestDecodeYAML_Errors(t *testing.T) {
	tests := []struct {
		name  string
		src   string
		field string
		msg   string
		line  int
	}{
		{"unknown field", "sett: a\n", "sett", "unknown field", 1},
		{"duplicate field", "set: a\nset: b\n", "set", "duplicate field", 2},
		{"unknown operator", "set:\n  xor: [a, b]\n", "set.xor", "unknown operator", 2},
		{"two operators", "set: {union: [a], inter: [b]}\n", "set", "exactly one field", 1},
		{"empty operator", "set:\n  union: []\n", "set.union", "at least one operand", 2},
		{"operand not list", "set: {union: a}\n", "set.union", "expected sequence", 1},
		{"null key", "set: {union: [a, ~]}\n", "set.union[1]", "null is not a key name", 1},
		{"members not bool", "members: yes please\n", "members", "expected bool", 1},
		{"command not scalar", "command: [SCARD]\n", "command", "expected string", 1},
		{"not a mapping", "- a\n- b\n", "document", "expected mapping", 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := DecodeYAML([]byte(tt.src), Options{Filename: "q.yaml"})
			require.Error(t, err)

			var compileErr *CompileError
			require.True(t, errors.As(err, &compileErr), "got %T: %v", err, err)
			assert.Equal(t, tt.field, compileErr.Field)
			assert.Contains(t, compileErr.Message, tt.msg)
			assert.Equal(t, tt.line, compileErr.Pos.Line)
			assert.Equal(t, "q.yaml", compileErr.Pos.Filename)
		})
	}
}

func TestDecodeYAML_Empty(t *testing.T) {
	_, err := DecodeYAML([]byte(""), Options{})

	var compileErr *CompileError
	require.True(t, errors.As(err, &compileErr))
	assert.Equal(t, "empty document", compileErr.Message)
}

func TestDecodeYAML_Malformed(t *testing.T) {
	_, err := DecodeYAML([]byte("set: [a, b"), Options{})

	var compileErr *CompileError
	require.True(t, errors.As(err, &compileErr))
	assert.Equal(t, "document", compileErr.Field)
}

func TestLoadFile(t *testing.T) {
	dir := t.TempDir()
	files := map[string]string{
		"q.yaml": "set: {inter: [a, b]}\n",
		"q.yml":  "set: {inter: [a, b]}\n",
		"q.json": `{"set": {"inter": ["a", "b"]}}`,
		"q.cue":  `set: inter: ["a", "b"]`,
	}

	for name, content := range files {
		t.Run(name, func(t *testing.T) {
			path := filepath.Join(dir, name)
			require.NoError(t, os.WriteFile(path, []byte(content), 0644))

			doc, err := LoadFile(path, Options{})
			require.NoError(t, err)

			q, err := doc.Query()
			require.NoError(t, err)
			assert.Equal(t, setplan.Cmd("SINTERSTORE", "stal:0", "a", "b"), q.Explain()[0])
		})
	}
}

func TestLoadFile_Errors(t *testing.T) {
	_, err := LoadFile(filepath.Join(t.TempDir(), "missing.yaml"), Options{})
	require.Error(t, err)
	assert.True(t, errors.Is(err, os.ErrNotExist))

	path := filepath.Join(t.TempDir(), "q.txt")
	require.NoError(t, os.WriteFile(path, []byte("set: a"), 0644))
	_, err = LoadFile(path, Options{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported document extension")
}

func TestLoadFile_ReportsFilename(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("set: {xor: [a]}\n"), 0644))

	_, err := LoadFile(path, Options{})

	var compileErr *CompileError
	require.True(t, errors.As(err, &compileErr))
	assert.Equal(t, path, compileErr.Pos.Filename)
	assert.Contains(t, err.Error(), path+":1:")
}
