// Package setexpr provides the expression tree for set algebra over named
// Redis sets.
//
// A Set is either a leaf Key naming a stored set, or an operator node that
// combines one or more child expressions:
//
//	Union  result is the union of all children
//	Inter  result is the intersection of all children
//	Diff   result is the first child minus every following child
//
// SEALED INTERFACE:
//
// Set is sealed with a marker method. Only types in this package implement
// it, so consumers can switch exhaustively:
//
//	switch s := set.(type) {
//	case setexpr.Key:
//	    // leaf
//	case setexpr.Union, setexpr.Inter, setexpr.Diff:
//	    // operator
//	}
//
// Operator reports the operator and children of any non-leaf node, which is
// usually more convenient than the type switch above.
//
// IMMUTABILITY:
//
// Trees are never mutated after construction. The compiler in package
// setplan only reads them, so one tree can be compiled from many goroutines
// at once.
//
// EMPTY OPERATORS:
//
// An operator with no children has no meaning in Redis. The New*
// constructors panic on it. Trees decoded from documents are checked with
// Validate instead, which reports every offending node by path.
package setexpr
