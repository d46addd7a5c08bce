package setexpr

import (
	"errors"
	"fmt"
)

// ValidationError describes one malformed node of a tree.
type ValidationError struct {
	Path    string // e.g. "$.diff[0].inter"
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Path, e.Message)
}

// Validate checks a tree that was not built through the New* constructors,
// typically one decoded from a document.
//
// Every problem is reported, joined with errors.Join, so callers see all of
// them at once. Use errors.As with *ValidationError to inspect the first.
//
// Checked rules:
//  1. No nil nodes
//  2. Every operator has at least one child
//
// Validate is a pure function with no side effects.
func Validate(s Set) error {
	v := &validator{}
	v.validate(s, "$")
	return errors.Join(v.errs...)
}

// validator accumulates errors during traversal.
type validator struct {
	errs []error
}

func (v *validator) addError(path, format string, args ...any) {
	v.errs = append(v.errs, &ValidationError{Path: path, Message: fmt.Sprintf(format, args...)})
}

func (v *validator) validate(s Set, path string) {
	if s == nil {
		v.addError(path, "nil set")
		return
	}
	if _, ok := KeyOf(s); ok {
		return
	}

	op, sets, ok := Operator(s)
	if !ok {
		v.addError(path, "unsupported node type %T", s)
		return
	}

	childPath := path + "." + op.String()
	if len(sets) == 0 {
		v.addError(childPath, "%s requires at least one operand", op)
		return
	}
	for i, child := range sets {
		v.validate(child, fmt.Sprintf("%s[%d]", childPath, i))
	}
}
