package setplan

import (
	"bytes"
	"fmt"
	"strconv"

	"github.com/roach88/stal/internal/setexpr"
)

// DefaultNamespace prefixes temporary keys unless overridden with
// WithNamespace. Caller-owned set names must not use it.
const DefaultNamespace = "stal"

// compilation holds the accumulators of a single traversal. It is never
// shared between calls.
type compilation struct {
	namespace string
	ids       []string
	ops       []Command
}

func newCompilation(namespace string) *compilation {
	if namespace == "" {
		namespace = DefaultNamespace
	}
	return &compilation{namespace: namespace}
}

// allocate reserves the next temporary key.
func (c *compilation) allocate() string {
	id := c.namespace + ":" + strconv.Itoa(len(c.ids))
	c.ids = append(c.ids, id)
	return id
}

// inner compiles s as a non-root node and returns the key holding its
// result. Leaves return their own key and emit nothing.
func (c *compilation) inner(s setexpr.Set) []byte {
	if k, ok := setexpr.KeyOf(s); ok {
		return bytes.Clone(k)
	}
	op, sets := mustOperator(s)

	id := c.allocate()
	cmd := make(Command, 0, 2+len(sets))
	cmd = append(cmd, []byte(op.StoreCommand()), []byte(id))
	for _, child := range sets {
		cmd = append(cmd, c.inner(child))
	}
	c.ops = append(c.ops, cmd)
	return []byte(id)
}

// root compiles an operator node whose reply is consumed directly. It uses
// the non-storing command form and allocates no temporary. The returned
// command is not appended to ops.
func (c *compilation) root(s setexpr.Set) Command {
	op, sets := mustOperator(s)

	cmd := make(Command, 0, 1+len(sets))
	cmd = append(cmd, []byte(op.Command()))
	for _, child := range sets {
		cmd = append(cmd, c.inner(child))
	}
	return cmd
}

func mustOperator(s setexpr.Set) (setexpr.Op, []setexpr.Set) {
	if s == nil {
		panic("setplan: nil set in expression tree")
	}
	op, sets, ok := setexpr.Operator(s)
	if !ok {
		panic(fmt.Sprintf("setplan: unsupported set node %T", s))
	}
	if len(sets) == 0 {
		panic(fmt.Sprintf("setplan: %s node has no operands", op))
	}
	return op, sets
}

// Convert compiles s as a non-root node using DefaultNamespace, appending
// allocated temporaries to ids and emitted commands to ops. It returns the
// key that holds the result of s: the leaf key itself for a Key, otherwise
// a fresh temporary.
//
// Malformed trees (nil nodes, operators without operands) panic; use
// setexpr.Validate on trees that did not come from the constructors.
func Convert(s setexpr.Set, ids *[]string, ops *[]Command) []byte {
	return ConvertNamespace(s, DefaultNamespace, ids, ops)
}

// ConvertNamespace is Convert with an explicit temporary namespace.
// Numbering continues from len(*ids).
func ConvertNamespace(s setexpr.Set, namespace string, ids *[]string, ops *[]Command) []byte {
	c := newCompilation(namespace)
	c.ids = *ids
	c.ops = *ops
	ref := c.inner(s)
	*ids = c.ids
	*ops = c.ops
	return ref
}
