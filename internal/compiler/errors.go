package compiler

import (
	"fmt"

	"cuelang.org/go/cue/errors"
	"cuelang.org/go/cue/token"
)

// Position locates an error in a source document.
type Position struct {
	Filename string
	Line     int
	Column   int
}

// IsValid reports whether the position carries a line number.
func (p Position) IsValid() bool {
	return p.Line > 0
}

func (p Position) String() string {
	if p.Filename == "" {
		return fmt.Sprintf("%d:%d", p.Line, p.Column)
	}
	return fmt.Sprintf("%s:%d:%d", p.Filename, p.Line, p.Column)
}

// positionOf converts a CUE position.
func positionOf(pos token.Pos) Position {
	if !pos.IsValid() {
		return Position{}
	}
	return Position{Filename: pos.Filename(), Line: pos.Line(), Column: pos.Column()}
}

// CompileError represents a compilation error with source position.
type CompileError struct {
	Field   string // document path, e.g. "set.diff[0]"
	Message string
	Pos     Position
}

func (e *CompileError) Error() string {
	if e.Pos.IsValid() {
		return fmt.Sprintf("%s: %s: %s", e.Pos, e.Field, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// formatCUEError extracts position info from CUE errors.
func formatCUEError(err error) error {
	if err == nil {
		return nil
	}

	// CUE errors may contain multiple errors
	errs := errors.Errors(err)
	if len(errs) == 0 {
		return err
	}

	// Return first error with position info
	firstErr := errs[0]
	positions := errors.Positions(firstErr)
	if len(positions) > 0 {
		return &CompileError{
			Field:   "cue",
			Message: firstErr.Error(),
			Pos:     positionOf(positions[0]),
		}
	}

	return err
}
