package cli

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// writeQuery writes a query document to a temp dir and returns its path.
func writeQuery(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestSolve_Golden(t *testing.T) {
	out, _, err := execute(NewSolveCommand, &RootOptions{Format: "text"}, query("nested.yaml"))
	require.NoError(t, err)

	newGoldie(t).Assert(t, "solve_nested", []byte(out))
}

func TestSolve_JSON(t *testing.T) {
	out, _, err := execute(NewSolveCommand, &RootOptions{Format: "json"}, query("nested.yaml"))
	require.NoError(t, err)

	var resp struct {
		Status string      `json:"status"`
		Data   SolveResult `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))

	assert.Equal(t, "ok", resp.Status)
	assert.Equal(t, 3, resp.Data.Answer)
	assert.Equal(t, []string{"stal:0", "stal:1"}, resp.Data.Temporaries)
	assert.Equal(t, []string{"MULTI"}, resp.Data.Commands[0])
	assert.Equal(t, []string{"SMEMBERS", "stal:0"}, resp.Data.Commands[resp.Data.Answer])
	assert.Len(t, resp.Data.Fingerprint, 64)
}

func TestSolve_KeyHasNoTemporaries(t *testing.T) {
	path := writeQuery(t, "q.yaml", "set: foo\n")

	out, _, err := execute(NewSolveCommand, &RootOptions{Format: "json"}, path)
	require.NoError(t, err)

	var resp struct {
		Data SolveResult `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, []string{}, resp.Data.Temporaries)
	assert.Equal(t, 1, resp.Data.Answer)
}

func TestSolve_FingerprintStable(t *testing.T) {
	first, _, err := execute(NewSolveCommand, &RootOptions{Format: "json"}, query("nested.yaml"))
	require.NoError(t, err)
	second, _, err := execute(NewSolveCommand, &RootOptions{Format: "json"}, query("nested.cue"))
	require.NoError(t, err)

	assert.Equal(t, first, second)
}

func TestSolve_Verbose(t *testing.T) {
	out, errOut, err := execute(NewSolveCommand, &RootOptions{Format: "text", Verbose: true}, query("nested.yaml"))
	require.NoError(t, err)

	assert.Contains(t, errOut, "answer at 3")
	assert.NotContains(t, out, "answer at")
}
