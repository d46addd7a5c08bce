package harness

import (
	"bytes"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Scenario defines a query test scenario.
type Scenario struct {
	// Name uniquely identifies this scenario. It also names the golden file.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description"`

	// Seed maps keys to the members loaded before the query runs.
	Seed map[string][]string `yaml:"seed,omitempty"`

	// Query is the query document, in the same shape accepted by
	// compiler.DecodeQuery.
	Query yaml.Node `yaml:"query"`

	// Expect is the expected answer of the solve program.
	Expect Expect `yaml:"expect"`

	// Assertions are extra checks run after the expectation.
	// Supported types: no_temporaries, explain_agrees, final_state
	Assertions []Assertion `yaml:"assertions,omitempty"`
}

// Expect specifies the expected reply. Exactly one field is set.
type Expect struct {
	// Members is the expected set reply, in any order. An empty list
	// expects an empty set.
	Members []string `yaml:"members,omitempty,flow"`

	// Count is the expected integer reply.
	Count *int64 `yaml:"count,omitempty"`

	// Nil expects a nil reply.
	Nil bool `yaml:"nil,omitempty"`
}

// Assertion validates the store after the query ran.
type Assertion struct {
	// Type specifies the assertion type:
	// - "no_temporaries": no key of the query namespace survives the program
	// - "explain_agrees": the explain commands yield the same reply
	// - "final_state": Key holds exactly Members
	Type string `yaml:"type"`

	// Key is the key to inspect (used by final_state).
	Key string `yaml:"key,omitempty"`

	// Members are the expected members of Key (used by final_state).
	Members []string `yaml:"members,omitempty,flow"`
}

// Assertion type constants.
const (
	AssertNoTemporaries = "no_temporaries"
	AssertExplainAgrees = "explain_agrees"
	AssertFinalState    = "final_state"
)

// LoadScenario reads and parses a scenario YAML file.
// Returns an error if the file doesn't exist, is malformed,
// contains unknown fields (typos), or is missing required fields.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}
	return ParseScenario(data)
}

// ParseScenario parses scenario YAML with strict field validation.
func ParseScenario(data []byte) (*Scenario, error) {
	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true) // Reject unknown fields
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if err := validateScenario(&scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}

	return &scenario, nil
}

// validateScenario checks that required fields are present and valid.
func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}

	if s.Description == "" {
		return fmt.Errorf("description is required")
	}

	if s.Query.Kind == 0 {
		return fmt.Errorf("query is required")
	}

	for key := range s.Seed {
		if key == "" {
			return fmt.Errorf("seed: key names must be non-empty")
		}
	}

	set := 0
	if s.Expect.Members != nil {
		set++
	}
	if s.Expect.Count != nil {
		set++
	}
	if s.Expect.Nil {
		set++
	}
	if set != 1 {
		return fmt.Errorf("expect: exactly one of members, count or nil is required")
	}

	for i, assertion := range s.Assertions {
		if err := validateAssertion(i, &assertion); err != nil {
			return err
		}
	}

	return nil
}

// validateAssertion validates a single assertion based on its type.
func validateAssertion(index int, a *Assertion) error {
	if a.Type == "" {
		return fmt.Errorf("assertions[%d]: type is required", index)
	}

	switch a.Type {
	case AssertNoTemporaries, AssertExplainAgrees:
	case AssertFinalState:
		if a.Key == "" {
			return fmt.Errorf("assertions[%d]: key is required for final_state", index)
		}
		if a.Members == nil {
			return fmt.Errorf("assertions[%d]: members is required for final_state", index)
		}
	default:
		return fmt.Errorf("assertions[%d]: unknown assertion type %q", index, a.Type)
	}

	return nil
}
