package setplan

import (
	"errors"
	"fmt"

	"github.com/roach88/stal/internal/setexpr"
)

// ErrInvalidTemplate is returned by FromTemplate for templates whose slots
// cannot be filled.
var ErrInvalidTemplate = errors.New("invalid command template")

// Slot plugs the result of Set into argument position Pos of a template.
// Position 0 is the command name and cannot be a slot.
type Slot struct {
	Set setexpr.Set
	Pos int
}

// Query is a terminal command applied to the results of one or more set
// expressions. Build one with New, Members or FromTemplate.
//
// A Query is immutable; Explain and Solve may be called concurrently.
type Query struct {
	template  Command
	slots     []Slot
	namespace string
	members   bool
}

// Option configures a Query.
type Option func(*Query)

// WithNamespace sets the prefix of temporary keys. An empty namespace
// selects DefaultNamespace.
func WithNamespace(namespace string) Option {
	return func(q *Query) {
		q.namespace = namespace
	}
}

// New returns a query that applies operation (e.g. "SMEMBERS", "SCARD") to
// the result of s.
func New(operation string, s setexpr.Set, opts ...Option) *Query {
	q := &Query{
		template: Command{[]byte(operation), nil},
		slots:    []Slot{{Set: s, Pos: 1}},
	}
	q.apply(opts)
	return q
}

// Members returns a query for the members of s. When s is an operator node
// the root is emitted as SUNION/SINTER/SDIFF and its reply is the answer,
// saving one temporary. A Key compiles to SMEMBERS on the key.
func Members(s setexpr.Set, opts ...Option) *Query {
	q := New("SMEMBERS", s, opts...)
	q.members = true
	return q
}

// FromTemplate returns a query whose terminal command is template with each
// slot position replaced by the key holding the slot's result. Slots are
// compiled in the order given.
//
// Example:
//
//	q, err := FromTemplate(Cmd("SMOVE", "", "", "member"),
//	    Slot{Set: src, Pos: 1},
//	    Slot{Set: dst, Pos: 2})
func FromTemplate(template Command, slots []Slot, opts ...Option) (*Query, error) {
	if len(template) == 0 {
		return nil, fmt.Errorf("%w: empty template", ErrInvalidTemplate)
	}
	if len(slots) == 0 {
		return nil, fmt.Errorf("%w: no slots", ErrInvalidTemplate)
	}

	seen := make(map[int]bool, len(slots))
	for i, slot := range slots {
		if slot.Pos < 1 || slot.Pos >= len(template) {
			return nil, fmt.Errorf("%w: slot %d position %d out of range [1, %d)",
				ErrInvalidTemplate, i, slot.Pos, len(template))
		}
		if seen[slot.Pos] {
			return nil, fmt.Errorf("%w: position %d used by more than one slot", ErrInvalidTemplate, slot.Pos)
		}
		seen[slot.Pos] = true
		if err := setexpr.Validate(slot.Set); err != nil {
			return nil, fmt.Errorf("%w: slot %d: %w", ErrInvalidTemplate, i, err)
		}
	}

	q := &Query{
		template: template.Clone(),
		slots:    append([]Slot(nil), slots...),
	}
	q.apply(opts)
	return q, nil
}

func (q *Query) apply(opts []Option) {
	for _, opt := range opts {
		opt(q)
	}
}

// Namespace returns the temporary key prefix used by the query.
func (q *Query) Namespace() string {
	if q.namespace == "" {
		return DefaultNamespace
	}
	return q.namespace
}

// terminal compiles every slot and returns the answer command.
func (q *Query) terminal(c *compilation) Command {
	if q.members {
		if _, isKey := setexpr.KeyOf(q.slots[0].Set); !isKey {
			return c.root(q.slots[0].Set)
		}
	}

	cmd := q.template.Clone()
	for _, slot := range q.slots {
		cmd[slot.Pos] = c.inner(slot.Set)
	}
	return cmd
}

// Explain returns the commands that compute the query without transaction
// wrapping or cleanup. The last command is the terminal one. The result is
// meant for inspection; running it leaves temporaries behind.
func (q *Query) Explain() []Command {
	c := newCompilation(q.namespace)
	cmd := q.terminal(c)
	return append(c.ops, cmd)
}

// Solve returns the transactional program for the query:
//
//	MULTI
//	<one command per operator node>
//	<terminal command>          <- Program.Answer
//	DEL <every temporary>       (only if any were allocated)
//	EXEC
func (q *Query) Solve() Program {
	c := newCompilation(q.namespace)
	c.ops = append(c.ops, Cmd(CommandMulti))

	cmd := q.terminal(c)
	c.ops = append(c.ops, cmd)
	answer := len(c.ops) - 1

	if len(c.ids) > 0 {
		del := make(Command, 0, 1+len(c.ids))
		del = append(del, []byte(CommandDel))
		for _, id := range c.ids {
			del = append(del, []byte(id))
		}
		c.ops = append(c.ops, del)
	}

	c.ops = append(c.ops, Cmd(CommandExec))
	return Program{Ops: c.ops, Answer: answer}
}
