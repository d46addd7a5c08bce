package harness

import (
	"context"
	"fmt"
	"reflect"
	"sort"
	"strings"

	"github.com/roach88/stal/internal/setplan"
	"github.com/roach88/stal/internal/store"
)

// AssertionError is returned when a check fails.
// It includes detailed context to help debug the failure.
type AssertionError struct {
	Type     string            // Assertion type for categorization
	Expected string            // Human-readable expected outcome
	Actual   string            // Human-readable actual outcome
	Program  []setplan.Command // Program that ran, for context
}

// Error implements the error interface.
func (e *AssertionError) Error() string {
	var buf strings.Builder

	fmt.Fprintf(&buf, "Assertion failed: %s\n", e.Type)
	fmt.Fprintf(&buf, "  Expected: %s\n", e.Expected)
	fmt.Fprintf(&buf, "  Actual: %s\n", e.Actual)

	if len(e.Program) > 0 {
		fmt.Fprintf(&buf, "\nProgram:\n")
		for i, op := range e.Program {
			fmt.Fprintf(&buf, "  [%d] %s\n", i, op)
		}
	}

	return buf.String()
}

// checkExpect compares a reply with the scenario expectation.
func checkExpect(reply any, expect Expect) error {
	switch {
	case expect.Members != nil:
		got, ok := reply.([]string)
		if !ok {
			return &AssertionError{Type: "expect", Expected: "set reply", Actual: fmt.Sprintf("%T %v", reply, reply)}
		}
		want := sortedCopy(expect.Members)
		if !reflect.DeepEqual(sortedCopy(got), want) {
			return &AssertionError{Type: "expect", Expected: fmt.Sprintf("members %v", want), Actual: fmt.Sprintf("members %v", got)}
		}

	case expect.Count != nil:
		got, ok := reply.(int64)
		if !ok || got != *expect.Count {
			return &AssertionError{Type: "expect", Expected: fmt.Sprintf("count %d", *expect.Count), Actual: fmt.Sprintf("%v", reply)}
		}

	case expect.Nil:
		if reply != nil {
			return &AssertionError{Type: "expect", Expected: "nil reply", Actual: fmt.Sprintf("%v", reply)}
		}
	}
	return nil
}

// assertNoTemporaries checks that no key in the query namespace outlived
// the program.
func assertNoTemporaries(result *Result, namespace string) error {
	var left []string
	for _, key := range result.Keys {
		if strings.HasPrefix(key, namespace+":") {
			left = append(left, key)
		}
	}
	if len(left) == 0 {
		return nil
	}
	return &AssertionError{
		Type:     AssertNoTemporaries,
		Expected: "no temporaries after EXEC",
		Actual:   fmt.Sprintf("keys %v", left),
		Program:  result.Program.Ops,
	}
}

// assertExplainAgrees runs the explain commands and compares their final
// reply with the solve answer.
func assertExplainAgrees(ctx context.Context, st *store.Store, result *Result) error {
	prog := setplan.Program{Ops: result.Explain, Answer: len(result.Explain) - 1}
	reply, err := st.Eval(ctx, prog)
	if err != nil {
		return fmt.Errorf("explain_agrees: %w", err)
	}
	if !reflect.DeepEqual(reply, result.Reply) {
		return &AssertionError{
			Type:     AssertExplainAgrees,
			Expected: fmt.Sprintf("%v", result.Reply),
			Actual:   fmt.Sprintf("%v", reply),
			Program:  result.Explain,
		}
	}
	return nil
}

// assertFinalState checks the members of one key.
func assertFinalState(ctx context.Context, st *store.Store, assertion Assertion) error {
	got, err := st.Members(ctx, assertion.Key)
	if err != nil {
		return fmt.Errorf("final_state: %w", err)
	}
	want := sortedCopy(assertion.Members)
	if !reflect.DeepEqual(got, want) {
		return &AssertionError{
			Type:     AssertFinalState,
			Expected: fmt.Sprintf("%s = %v", assertion.Key, want),
			Actual:   fmt.Sprintf("%s = %v", assertion.Key, got),
		}
	}
	return nil
}

func sortedCopy(s []string) []string {
	out := append([]string{}, s...)
	sort.Strings(out)
	return out
}

// AssertionContext provides context for evaluating assertions.
type AssertionContext struct {
	Store     *store.Store
	Ctx       context.Context
	Namespace string
}

// EvaluateAssertions evaluates all assertions against the result.
// Returns a slice of error messages for failed assertions.
// The actx parameter provides database access for store-backed assertions.
func EvaluateAssertions(result *Result, assertions []Assertion, actx *AssertionContext) []string {
	var errors []string

	for i, assertion := range assertions {
		var err error

		switch assertion.Type {
		case AssertNoTemporaries:
			ns := setplan.DefaultNamespace
			if actx != nil && actx.Namespace != "" {
				ns = actx.Namespace
			}
			err = assertNoTemporaries(result, ns)
		case AssertExplainAgrees, AssertFinalState:
			if actx == nil || actx.Store == nil {
				err = fmt.Errorf("assertion[%d]: %s requires database context", i, assertion.Type)
			} else if assertion.Type == AssertExplainAgrees {
				err = assertExplainAgrees(actx.Ctx, actx.Store, result)
			} else {
				err = assertFinalState(actx.Ctx, actx.Store, assertion)
			}
		default:
			err = fmt.Errorf("assertion[%d]: unknown assertion type %q", i, assertion.Type)
		}

		if err != nil {
			errors = append(errors, err.Error())
		}
	}

	return errors
}
