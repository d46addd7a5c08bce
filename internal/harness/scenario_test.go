package harness

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadScenario_ValidFile(t *testing.T) {
	scenario, err := LoadScenario(filepath.Join("testdata", "scenarios", "nested_diff.yaml"))
	require.NoError(t, err)

	assert.Equal(t, "nested_diff", scenario.Name)
	assert.Equal(t, "members of foo and bar that are not in baz", scenario.Description)
	assert.Equal(t, []string{"3", "9"}, scenario.Seed["baz"])
	assert.Equal(t, []string{"2", "4"}, scenario.Expect.Members)
	assert.Len(t, scenario.Assertions, 3)
	assert.Equal(t, AssertFinalState, scenario.Assertions[2].Type)
	assert.Equal(t, "foo", scenario.Assertions[2].Key)
}

func TestLoadScenario_MissingFile(t *testing.T) {
	_, err := LoadScenario(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to read scenario file")
}

func TestLoadScenario_AllFixtures(t *testing.T) {
	paths, err := filepath.Glob(filepath.Join("testdata", "scenarios", "*.yaml"))
	require.NoError(t, err)
	require.NotEmpty(t, paths)

	for _, path := range paths {
		_, err := LoadScenario(path)
		assert.NoError(t, err, path)
	}
}

func TestParseScenario_EmptyMembers(t *testing.T) {
	scenario, err := ParseScenario([]byte(`
name: empty
description: empty set expected
query: {set: a}
expect:
  members: []
`))
	require.NoError(t, err)
	assert.NotNil(t, scenario.Expect.Members)
	assert.Empty(t, scenario.Expect.Members)
}

func TestParseScenario_Count(t *testing.T) {
	scenario, err := ParseScenario([]byte(`
name: count
description: count expected
query: {command: SCARD, set: a}
expect:
  count: 0
`))
	require.NoError(t, err)
	require.NotNil(t, scenario.Expect.Count)
	assert.Equal(t, int64(0), *scenario.Expect.Count)
}

func TestParseScenario_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		content string
		errMsg  string
	}{
		{
			name:    "unknown field",
			content: "name: x\ndescription: d\nquery: {set: a}\nexpect: {count: 1}\nexpectt: {}\n",
			errMsg:  "field expectt not found",
		},
		{
			name:    "missing name",
			content: "description: d\nquery: {set: a}\nexpect: {count: 1}\n",
			errMsg:  "name is required",
		},
		{
			name:    "missing description",
			content: "name: x\nquery: {set: a}\nexpect: {count: 1}\n",
			errMsg:  "description is required",
		},
		{
			name:    "missing query",
			content: "name: x\ndescription: d\nexpect: {count: 1}\n",
			errMsg:  "query is required",
		},
		{
			name:    "missing expect",
			content: "name: x\ndescription: d\nquery: {set: a}\n",
			errMsg:  "exactly one of members, count or nil",
		},
		{
			name:    "two expectations",
			content: "name: x\ndescription: d\nquery: {set: a}\nexpect: {count: 1, members: [a]}\n",
			errMsg:  "exactly one of members, count or nil",
		},
		{
			name:    "unknown assertion",
			content: "name: x\ndescription: d\nquery: {set: a}\nexpect: {count: 1}\nassertions: [{type: trace_order}]\n",
			errMsg:  `unknown assertion type "trace_order"`,
		},
		{
			name:    "final_state without key",
			content: "name: x\ndescription: d\nquery: {set: a}\nexpect: {count: 1}\nassertions: [{type: final_state, members: []}]\n",
			errMsg:  "key is required for final_state",
		},
		{
			name:    "final_state without members",
			content: "name: x\ndescription: d\nquery: {set: a}\nexpect: {count: 1}\nassertions: [{type: final_state, key: a}]\n",
			errMsg:  "members is required for final_state",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "scenario.yaml")
			require.NoError(t, os.WriteFile(path, []byte(tt.content), 0644))

			_, err := LoadScenario(path)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.errMsg)
		})
	}
}
