package compiler

import (
	"fmt"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"

	"github.com/roach88/stal/internal/setexpr"
)

// CompileCUE parses CUE source and compiles the resulting value with
// CompileQuery.
func CompileCUE(data []byte, filename string, opts Options) (*Document, error) {
	ctx := cuecontext.New()
	v := ctx.CompileBytes(data, cue.Filename(filename))
	if err := v.Err(); err != nil {
		return nil, formatCUEError(err)
	}
	return CompileQuery(v, opts)
}

// CompileQuery parses a CUE value into a Document.
// Uses CUE SDK's Go API directly (not CLI subprocess).
//
// Keys may be CUE strings or CUE bytes ('\x00raw'), the latter for binary
// key names:
//
//	command: "SCARD"
//	set: diff: [{inter: ["foo", "bar"]}, 'baz']
func CompileQuery(v cue.Value, opts Options) (*Document, error) {
	if err := v.Err(); err != nil {
		return nil, formatCUEError(err)
	}
	if v.Kind() != cue.StructKind {
		return nil, &CompileError{
			Field:   "document",
			Message: fmt.Sprintf("expected struct, got %v", v.IncompleteKind()),
			Pos:     positionOf(v.Pos()),
		}
	}

	doc := &Document{}
	iter, err := v.Fields()
	if err != nil {
		return nil, formatCUEError(err)
	}
	for iter.Next() {
		name := iter.Selector().String()
		field := iter.Value()

		switch name {
		case fieldCommand:
			doc.Command, err = cueString(field, name)
		case fieldNamespace:
			doc.Namespace, err = cueString(field, name)
		case fieldMembers:
			doc.Members, err = field.Bool()
			if err != nil {
				err = cueTypeError(field, name, "bool")
			}
		case fieldSet:
			doc.Set, err = compileSetCUE(field, name, opts)
		case fieldTemplate:
			doc.Template, err = cueStrings(field, name)
		case fieldSets:
			doc.Sets, err = compileSetListCUE(field, name, opts)
		default:
			err = &CompileError{Field: name, Message: "unknown field", Pos: positionOf(field.Pos())}
		}
		if err != nil {
			return nil, err
		}
	}

	return doc, nil
}

// compileSetCUE compiles one expression node.
func compileSetCUE(v cue.Value, path string, opts Options) (setexpr.Set, error) {
	switch v.Kind() {
	case cue.StringKind:
		s, err := v.String()
		if err != nil {
			return nil, formatCUEError(err)
		}
		return opts.key(s), nil

	case cue.BytesKind:
		b, err := v.Bytes()
		if err != nil {
			return nil, formatCUEError(err)
		}
		return setexpr.NewKey(b), nil

	case cue.StructKind:
		iter, err := v.Fields()
		if err != nil {
			return nil, formatCUEError(err)
		}

		var (
			op      setexpr.Op
			name    string
			operand cue.Value
			count   int
		)
		for iter.Next() {
			count++
			name = iter.Selector().String()
			operand = iter.Value()
			var ok bool
			op, ok = setexpr.ParseOp(name)
			if !ok {
				return nil, &CompileError{
					Field:   path + "." + name,
					Message: "unknown operator (want union, inter or diff)",
					Pos:     positionOf(operand.Pos()),
				}
			}
		}
		if count != 1 {
			return nil, &CompileError{
				Field:   path,
				Message: fmt.Sprintf("operator node must have exactly one field, found %d", count),
				Pos:     positionOf(v.Pos()),
			}
		}

		sets, err := compileSetListCUE(operand, path+"."+name, opts)
		if err != nil {
			return nil, err
		}
		if len(sets) == 0 {
			return nil, &CompileError{
				Field:   path + "." + name,
				Message: fmt.Sprintf("%s requires at least one operand", op),
				Pos:     positionOf(operand.Pos()),
			}
		}
		return setexpr.New(op, sets...), nil

	default:
		return nil, cueTypeError(v, path, "key string, bytes or operator struct")
	}
}

func compileSetListCUE(v cue.Value, path string, opts Options) ([]setexpr.Set, error) {
	if v.Kind() != cue.ListKind {
		return nil, cueTypeError(v, path, "list")
	}
	iter, err := v.List()
	if err != nil {
		return nil, formatCUEError(err)
	}

	var sets []setexpr.Set
	for i := 0; iter.Next(); i++ {
		s, err := compileSetCUE(iter.Value(), fmt.Sprintf("%s[%d]", path, i), opts)
		if err != nil {
			return nil, err
		}
		sets = append(sets, s)
	}
	return sets, nil
}

func cueString(v cue.Value, path string) (string, error) {
	s, err := v.String()
	if err != nil {
		return "", cueTypeError(v, path, "string")
	}
	return s, nil
}

func cueStrings(v cue.Value, path string) ([]string, error) {
	if v.Kind() != cue.ListKind {
		return nil, cueTypeError(v, path, "list of strings")
	}
	iter, err := v.List()
	if err != nil {
		return nil, formatCUEError(err)
	}

	out := []string{}
	for i := 0; iter.Next(); i++ {
		s, err := cueString(iter.Value(), fmt.Sprintf("%s[%d]", path, i))
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, nil
}

func cueTypeError(v cue.Value, path, want string) error {
	return &CompileError{
		Field:   path,
		Message: fmt.Sprintf("expected %s, got %v", want, v.IncompleteKind()),
		Pos:     positionOf(v.Pos()),
	}
}
