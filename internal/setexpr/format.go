package setexpr

import (
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"
)

// String renders s as an s-expression, e.g. (diff (inter foo bar) baz).
// Keys that contain spaces, parentheses, quotes or non-printable bytes are
// quoted Go-style.
func String(s Set) string {
	var b strings.Builder
	writeSet(&b, s)
	return b.String()
}

func writeSet(b *strings.Builder, s Set) {
	if s == nil {
		b.WriteString("<nil>")
		return
	}
	if k, ok := KeyOf(s); ok {
		b.WriteString(formatKey(k))
		return
	}
	op, sets, _ := Operator(s)
	b.WriteByte('(')
	b.WriteString(op.String())
	for _, child := range sets {
		b.WriteByte(' ')
		writeSet(b, child)
	}
	b.WriteByte(')')
}

func formatKey(k Key) string {
	if len(k) == 0 || !utf8.Valid(k) {
		return strconv.Quote(string(k))
	}
	for _, r := range string(k) {
		if r == '(' || r == ')' || r == '"' || unicode.IsSpace(r) || !unicode.IsPrint(r) {
			return strconv.Quote(string(k))
		}
	}
	return string(k)
}
