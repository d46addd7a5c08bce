// Package compiler turns query documents written in CUE, YAML or JSON into
// setexpr trees and setplan queries.
//
// A document names a set expression and the terminal command applied to
// it. Expression nodes are key names or single-field operator maps:
//
//	set: {diff: [{inter: [foo, bar]}, baz]}
//
// Every decoding error is a *CompileError carrying the document path of the
// offending node and, where the source format provides one, its position.
// CUE documents may spell binary keys as CUE bytes literals.
package compiler
