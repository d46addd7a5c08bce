package harness

import "github.com/roach88/stal/internal/setplan"

// Result is the outcome of a scenario execution.
type Result struct {
	// Pass indicates overall test success.
	// True if the expectation and all assertions hold.
	Pass bool `json:"pass"`

	// Explain is the query compiled in explain mode.
	Explain []setplan.Command `json:"-"`

	// Program is the query compiled in solve mode.
	Program setplan.Program `json:"-"`

	// Reply is the answer of Program as returned by the store.
	Reply any `json:"reply"`

	// Keys lists the keys present in the store right after Program ran.
	Keys []string `json:"keys"`

	// Errors contains validation error messages.
	// Empty if Pass is true.
	Errors []string `json:"errors,omitempty"`
}

// NewResult creates a new passing result.
func NewResult() *Result {
	return &Result{
		Pass:   true,
		Keys:   []string{},
		Errors: []string{},
	}
}

// AddError adds a validation error and marks the result as failed.
func (r *Result) AddError(err string) {
	r.Errors = append(r.Errors, err)
	r.Pass = false
}
