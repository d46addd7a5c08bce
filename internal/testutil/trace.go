// Package testutil holds helpers shared by tests across packages.
package testutil

import "sync"

// FixedTraceGenerator returns predetermined trace IDs for testing.
//
// This enables deterministic CLI output and golden comparison. Once the
// listed IDs are used up, the last one is repeated.
//
// Thread-safety: FixedTraceGenerator is safe for concurrent use via internal mutex.
type FixedTraceGenerator struct {
	mu  sync.Mutex
	ids []string
	idx int
}

// NewFixedTraceGenerator creates a generator that returns ids in order.
// With no ids, Generate returns "test-trace-default".
func NewFixedTraceGenerator(ids ...string) *FixedTraceGenerator {
	if len(ids) == 0 {
		ids = []string{"test-trace-default"}
	}
	return &FixedTraceGenerator{ids: ids}
}

// Generate returns the next predetermined trace ID.
func (g *FixedTraceGenerator) Generate() string {
	g.mu.Lock()
	defer g.mu.Unlock()

	id := g.ids[g.idx]
	if g.idx < len(g.ids)-1 {
		g.idx++
	}
	return id
}
