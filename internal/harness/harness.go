package harness

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/roach88/stal/internal/compiler"
	"github.com/roach88/stal/internal/store"
)

// Harness is the test execution engine.
type Harness struct {
	store  *store.Store
	logger *slog.Logger
}

// Run executes a test scenario and returns the result.
//
// Each scenario runs in a fresh in-memory database for isolation.
//
// Execution flow:
// 1. Create fresh in-memory database and load the seed
// 2. Compile the query document
// 3. Evaluate the solve program
// 4. Check the expectation, then the assertions in order
//
// An error is returned when the scenario cannot run at all (bad query,
// store failure). Failed checks are reported in the Result instead.
func Run(scenario *Scenario) (*Result, error) {
	st, err := store.Open(":memory:")
	if err != nil {
		return nil, fmt.Errorf("failed to create in-memory store: %w", err)
	}
	defer st.Close()

	ctx := context.Background()
	if err := st.Seed(ctx, scenario.Seed); err != nil {
		return nil, fmt.Errorf("failed to seed store: %w", err)
	}

	doc, err := compiler.DecodeQuery(&scenario.Query, compiler.Options{Filename: scenario.Name})
	if err != nil {
		return nil, fmt.Errorf("failed to decode query: %w", err)
	}
	q, err := doc.Query()
	if err != nil {
		return nil, fmt.Errorf("failed to compile query: %w", err)
	}

	h := &Harness{
		store:  st,
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)), // Suppress logs in tests
	}

	result := NewResult()
	result.Explain = q.Explain()
	result.Program = q.Solve()

	if err := h.solve(ctx, result); err != nil {
		return nil, err
	}

	if err := checkExpect(result.Reply, scenario.Expect); err != nil {
		result.AddError(err.Error())
	}

	actx := &AssertionContext{
		Store:     st,
		Ctx:       ctx,
		Namespace: q.Namespace(),
	}
	for _, errMsg := range EvaluateAssertions(result, scenario.Assertions, actx) {
		result.AddError(errMsg)
	}

	return result, nil
}

// solve evaluates the solve program and records the reply and the keys
// left in the store.
func (h *Harness) solve(ctx context.Context, result *Result) error {
	h.logger.Debug("evaluating program",
		"ops", len(result.Program.Ops),
		"fingerprint", result.Program.Fingerprint())

	reply, err := h.store.Eval(ctx, result.Program)
	if err != nil {
		return fmt.Errorf("failed to evaluate program: %w", err)
	}
	result.Reply = reply

	keys, err := h.store.Keys(ctx)
	if err != nil {
		return fmt.Errorf("failed to list keys: %w", err)
	}
	result.Keys = keys
	return nil
}
