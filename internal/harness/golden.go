package harness

import (
	"encoding/json"
	"testing"

	"github.com/sebdah/goldie/v2"

	"github.com/roach88/stal/internal/setplan"
)

// Snapshot captures what a scenario compiled to and what it answered.
// Field order is fixed so the JSON rendering is deterministic.
type Snapshot struct {
	Scenario string   `json:"scenario"`
	Explain  []string `json:"explain"`
	Solve    []string `json:"solve"`
	Answer   int      `json:"answer"`
	Reply    any      `json:"reply"`
}

// NewSnapshot builds the snapshot of a scenario result.
func NewSnapshot(name string, result *Result) Snapshot {
	return Snapshot{
		Scenario: name,
		Explain:  commandStrings(result.Explain),
		Solve:    commandStrings(result.Program.Ops),
		Answer:   result.Program.Answer,
		Reply:    result.Reply,
	}
}

// Marshal renders the snapshot as indented JSON with a trailing newline.
func (s Snapshot) Marshal() ([]byte, error) {
	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return nil, err
	}
	return append(data, '\n'), nil
}

func commandStrings(cmds []setplan.Command) []string {
	out := make([]string, len(cmds))
	for i, cmd := range cmds {
		out[i] = cmd.String()
	}
	return out
}

// RunWithGolden executes a scenario and compares its snapshot against a
// golden file stored in testdata/golden/{scenario.Name}.golden
//
// To regenerate golden files, run:
//
//	go test ./internal/harness -update
//
// Returns error if scenario execution fails.
// Test failure (via goldie) occurs if the snapshot doesn't match the golden
// file.
func RunWithGolden(t *testing.T, scenario *Scenario) (*Result, error) {
	t.Helper()

	result, err := Run(scenario)
	if err != nil {
		return nil, err
	}

	if err := AssertGolden(t, scenario.Name, result); err != nil {
		return nil, err
	}
	return result, nil
}

// AssertGolden compares an existing result against a golden file without
// re-running the scenario.
func AssertGolden(t *testing.T, scenarioName string, result *Result) error {
	t.Helper()

	data, err := NewSnapshot(scenarioName, result).Marshal()
	if err != nil {
		return err
	}

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, scenarioName, data)

	return nil
}
