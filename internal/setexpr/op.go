package setexpr

import "strings"

// Op identifies a set operator.
type Op int

const (
	OpUnion Op = iota + 1
	OpInter
	OpDiff
)

// String returns the lowercase document name of the operator.
func (o Op) String() string {
	switch o {
	case OpUnion:
		return "union"
	case OpInter:
		return "inter"
	case OpDiff:
		return "diff"
	default:
		return "unknown"
	}
}

// Command returns the Redis command that computes the operator and replies
// with the resulting members.
func (o Op) Command() string {
	switch o {
	case OpUnion:
		return "SUNION"
	case OpInter:
		return "SINTER"
	case OpDiff:
		return "SDIFF"
	default:
		panic("setexpr: command of unknown operator")
	}
}

// StoreCommand returns the Redis command that computes the operator and
// writes the result to a destination key given as its first argument.
func (o Op) StoreCommand() string {
	return o.Command() + "STORE"
}

// ParseOp maps a document name ("union", "inter", "diff") to an Op. The
// long forms "intersection" and "difference" are accepted as well.
func ParseOp(name string) (Op, bool) {
	switch strings.ToLower(name) {
	case "union":
		return OpUnion, true
	case "inter", "intersection":
		return OpInter, true
	case "diff", "difference":
		return OpDiff, true
	default:
		return 0, false
	}
}
