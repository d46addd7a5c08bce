package cli

import "github.com/google/uuid"

// TraceIDGenerator produces the IDs that correlate a run or exec
// invocation with its log lines and JSON response.
type TraceIDGenerator interface {
	Generate() string
}

// UUIDv7Generator generates time-sortable UUIDv7 trace IDs.
//
// Thread-safety: UUIDv7Generator is stateless and safe for concurrent use.
type UUIDv7Generator struct{}

// Generate creates a new UUIDv7 and returns it as a hyphenated string.
//
// Panics if UUID generation fails (should never happen in practice).
func (g UUIDv7Generator) Generate() string {
	return uuid.Must(uuid.NewV7()).String()
}

func (o *RootOptions) traceID() string {
	if o.TraceIDs == nil {
		return UUIDv7Generator{}.Generate()
	}
	return o.TraceIDs.Generate()
}
