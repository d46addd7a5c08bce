package setplan

import (
	"bytes"
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"
)

// Command names emitted around the compiled ops.
const (
	CommandMulti = "MULTI"
	CommandExec  = "EXEC"
	CommandDel   = "DEL"
)

// DomainProgram prefixes program fingerprints. The version suffix allows
// the encoding to change later.
const DomainProgram = "stal/program/v1"

// Command is one Redis command argument vector: the command name followed
// by its arguments, all raw bytes.
type Command [][]byte

// Cmd builds a Command from strings.
func Cmd(args ...string) Command {
	cmd := make(Command, len(args))
	for i, a := range args {
		cmd[i] = []byte(a)
	}
	return cmd
}

// Name returns the command name, or "" for an empty command.
func (c Command) Name() string {
	if len(c) == 0 {
		return ""
	}
	return string(c[0])
}

// Clone returns a deep copy of c.
func (c Command) Clone() Command {
	out := make(Command, len(c))
	for i, arg := range c {
		out[i] = bytes.Clone(arg)
	}
	return out
}

// Strings returns the arguments as strings.
func (c Command) Strings() []string {
	out := make([]string, len(c))
	for i, arg := range c {
		out[i] = string(arg)
	}
	return out
}

// Args returns the arguments as []any, the form Redis clients take.
func (c Command) Args() []any {
	out := make([]any, len(c))
	for i, arg := range c {
		out[i] = arg
	}
	return out
}

// String renders c the way redis-cli accepts it on one line. Arguments
// that are empty or contain whitespace, quotes or non-printable bytes are
// quoted.
func (c Command) String() string {
	parts := make([]string, len(c))
	for i, arg := range c {
		parts[i] = quoteArg(arg)
	}
	return strings.Join(parts, " ")
}

func quoteArg(arg []byte) string {
	if len(arg) == 0 || !utf8.Valid(arg) {
		return strconv.Quote(string(arg))
	}
	for _, r := range string(arg) {
		if r == '"' || r == '\'' || unicode.IsSpace(r) || !unicode.IsPrint(r) {
			return strconv.Quote(string(arg))
		}
	}
	return string(arg)
}

// Program is a compiled, transaction-wrapped command sequence. The reply
// of Ops[Answer] is the query result.
type Program struct {
	Ops    []Command
	Answer int
}

// Transactional reports whether the program is wrapped in MULTI/EXEC.
func (p Program) Transactional() bool {
	n := len(p.Ops)
	return n >= 2 &&
		strings.EqualFold(p.Ops[0].Name(), CommandMulti) &&
		strings.EqualFold(p.Ops[n-1].Name(), CommandExec)
}

// Temporaries returns the keys removed by the cleanup command, in
// allocation order, or nil when the program allocated none.
func (p Program) Temporaries() []string {
	n := len(p.Ops)
	if !p.Transactional() {
		return nil
	}
	del := p.Ops[n-2]
	if n-2 <= p.Answer || !strings.EqualFold(del.Name(), CommandDel) {
		return nil
	}
	return del.Strings()[1:]
}

// Fingerprint returns a hex SHA-256 digest identifying the program. Equal
// programs always share a fingerprint, so compiling the same tree twice can
// be checked cheaply.
//
// Format: SHA256(domain + 0x00 + uvarint(answer) + per op: uvarint(argc),
// per arg: uvarint(len) + bytes)
func (p Program) Fingerprint() string {
	h := sha256.New()
	h.Write([]byte(DomainProgram))
	h.Write([]byte{0x00})

	var buf [binary.MaxVarintLen64]byte
	writeUvarint := func(v int) {
		n := binary.PutUvarint(buf[:], uint64(v))
		h.Write(buf[:n])
	}

	writeUvarint(p.Answer)
	for _, op := range p.Ops {
		writeUvarint(len(op))
		for _, arg := range op {
			writeUvarint(len(arg))
			h.Write(arg)
		}
	}
	return hex.EncodeToString(h.Sum(nil))
}

// Strings returns every op as a string slice, for display and JSON output.
func (p Program) Strings() [][]string {
	out := make([][]string, len(p.Ops))
	for i, op := range p.Ops {
		out[i] = op.Strings()
	}
	return out
}
