package compiler

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"golang.org/x/text/unicode/norm"

	"github.com/roach88/stal/internal/setexpr"
	"github.com/roach88/stal/internal/setplan"
)

// Document is a query document after decoding, before it is turned into a
// setplan.Query. CUE, YAML and JSON documents share this shape:
//
//	command: SMEMBERS                        # optional, default SMEMBERS
//	members: true                            # optional root shortcut
//	namespace: tmp                           # optional temporary prefix
//	set: {diff: [{inter: [foo, bar]}, baz]}
//
// or, with a template whose "{N}" arguments are replaced by sets[N]:
//
//	template: [SMOVE, "{0}", "{1}", member]
//	sets: [{union: [a, b]}, c]
type Document struct {
	Command   string
	Members   bool
	Namespace string
	Set       setexpr.Set

	Template []string
	Sets     []setexpr.Set
}

// Options controls decoding.
type Options struct {
	// Filename is reported in error positions for YAML documents.
	Filename string

	// NormalizeKeys applies Unicode NFC normalization to key names, so that
	// visually identical names typed in different editors address the same
	// Redis key. Keys given as CUE bytes are never normalized.
	NormalizeKeys bool
}

// DefaultCommand is the terminal command of documents that name none.
const DefaultCommand = "SMEMBERS"

// Document field names.
const (
	fieldCommand   = "command"
	fieldMembers   = "members"
	fieldNamespace = "namespace"
	fieldSet       = "set"
	fieldTemplate  = "template"
	fieldSets      = "sets"
)

var placeholderRE = regexp.MustCompile(`^\{(\d+)\}$`)

func (o Options) key(name string) setexpr.Key {
	if o.NormalizeKeys {
		name = norm.NFC.String(name)
	}
	return setexpr.K(name)
}

// Query builds the compiled query described by the document.
func (d *Document) Query() (*setplan.Query, error) {
	opts := []setplan.Option{setplan.WithNamespace(d.Namespace)}

	if d.Template != nil {
		if d.Set != nil || d.Command != "" || d.Members {
			return nil, &CompileError{Field: fieldTemplate, Message: "template cannot be combined with set, command or members"}
		}
		return d.templateQuery(opts)
	}

	if d.Set == nil {
		return nil, &CompileError{Field: fieldSet, Message: "set or template is required"}
	}
	if len(d.Sets) > 0 {
		return nil, &CompileError{Field: fieldSets, Message: "sets requires template"}
	}

	command := d.Command
	if command == "" {
		command = DefaultCommand
	}
	if d.Members {
		if !strings.EqualFold(command, DefaultCommand) {
			return nil, &CompileError{Field: fieldMembers, Message: fmt.Sprintf("members cannot be combined with command %q", command)}
		}
		return setplan.Members(d.Set, opts...), nil
	}
	return setplan.New(command, d.Set, opts...), nil
}

func (d *Document) templateQuery(opts []setplan.Option) (*setplan.Query, error) {
	if len(d.Template) == 0 {
		return nil, &CompileError{Field: fieldTemplate, Message: "template must not be empty"}
	}

	used := make([]bool, len(d.Sets))
	var slots []setplan.Slot
	for pos, arg := range d.Template {
		m := placeholderRE.FindStringSubmatch(arg)
		if m == nil {
			continue
		}
		n, err := strconv.Atoi(m[1])
		if err != nil || n >= len(d.Sets) {
			return nil, &CompileError{
				Field:   fmt.Sprintf("%s[%d]", fieldTemplate, pos),
				Message: fmt.Sprintf("placeholder %s has no matching entry in sets", arg),
			}
		}
		used[n] = true
		slots = append(slots, setplan.Slot{Set: d.Sets[n], Pos: pos})
	}

	for i, ok := range used {
		if !ok {
			return nil, &CompileError{
				Field:   fmt.Sprintf("%s[%d]", fieldSets, i),
				Message: "set is not referenced by the template",
			}
		}
	}

	q, err := setplan.FromTemplate(setplan.Cmd(d.Template...), slots, opts...)
	if err != nil {
		return nil, &CompileError{Field: fieldTemplate, Message: err.Error()}
	}
	return q, nil
}
