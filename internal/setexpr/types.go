package setexpr

import "fmt"

// Set is a node of a set-algebra expression tree.
//
// This is a sealed interface - only Key, Union, Inter and Diff implement it.
type Set interface {
	setNode() // Marker method - seals interface to this package
}

// Key references an existing set stored under the given raw key bytes.
// Compiling a Key emits no command; its bytes are used verbatim as an
// operand by the parent.
type Key []byte

func (Key) setNode() {}

// Union is the union of all its children.
//
// Redis equivalents: SUNION, SUNIONSTORE.
type Union struct {
	Sets []Set
}

func (Union) setNode() {}

// Inter is the intersection of all its children.
//
// Redis equivalents: SINTER, SINTERSTORE.
type Inter struct {
	Sets []Set
}

func (Inter) setNode() {}

// Diff is the first child minus the union of the remaining children.
//
// Redis equivalents: SDIFF, SDIFFSTORE.
type Diff struct {
	Sets []Set
}

func (Diff) setNode() {}

// K builds a Key from a string.
func K(name string) Key {
	return Key(name)
}

// NewKey builds a Key from raw bytes. The bytes are copied.
func NewKey(name []byte) Key {
	k := make(Key, len(name))
	copy(k, name)
	return k
}

// NewUnion builds a Union. Panics if sets is empty.
func NewUnion(sets ...Set) Union {
	mustOperands(OpUnion, sets)
	return Union{Sets: sets}
}

// NewInter builds an Inter. Panics if sets is empty.
func NewInter(sets ...Set) Inter {
	mustOperands(OpInter, sets)
	return Inter{Sets: sets}
}

// NewDiff builds a Diff. Panics if sets is empty.
func NewDiff(sets ...Set) Diff {
	mustOperands(OpDiff, sets)
	return Diff{Sets: sets}
}

// New builds the operator node for op. Panics if sets is empty or op is
// not a known operator.
func New(op Op, sets ...Set) Set {
	switch op {
	case OpUnion:
		return NewUnion(sets...)
	case OpInter:
		return NewInter(sets...)
	case OpDiff:
		return NewDiff(sets...)
	default:
		panic(fmt.Sprintf("setexpr: unknown operator %d", int(op)))
	}
}

func mustOperands(op Op, sets []Set) {
	if len(sets) == 0 {
		panic(fmt.Sprintf("setexpr: %s requires at least one operand", op))
	}
	for i, s := range sets {
		if s == nil {
			panic(fmt.Sprintf("setexpr: %s operand %d is nil", op, i))
		}
	}
}

// Operator returns the operator and children of s. ok is false when s is a
// Key (or nil), which has neither.
func Operator(s Set) (op Op, sets []Set, ok bool) {
	switch n := s.(type) {
	case Union:
		return OpUnion, n.Sets, true
	case *Union:
		return OpUnion, n.Sets, true
	case Inter:
		return OpInter, n.Sets, true
	case *Inter:
		return OpInter, n.Sets, true
	case Diff:
		return OpDiff, n.Sets, true
	case *Diff:
		return OpDiff, n.Sets, true
	default:
		return 0, nil, false
	}
}

// KeyOf returns the key bytes of a leaf. ok is false for operator nodes.
func KeyOf(s Set) (Key, bool) {
	switch n := s.(type) {
	case Key:
		return n, true
	case *Key:
		if n == nil {
			return nil, false
		}
		return *n, true
	default:
		return nil, false
	}
}
