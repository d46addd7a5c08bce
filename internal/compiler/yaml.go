package compiler

import (
	"fmt"

	"gopkg.in/yaml.v3"

	"github.com/roach88/stal/internal/setexpr"
)

// DecodeYAML parses a YAML or JSON document and decodes it with
// DecodeQuery.
func DecodeYAML(data []byte, opts Options) (*Document, error) {
	var root yaml.Node
	if err := yaml.Unmarshal(data, &root); err != nil {
		return nil, &CompileError{Field: "document", Message: err.Error(), Pos: Position{Filename: opts.Filename}}
	}
	return DecodeQuery(&root, opts)
}

// DecodeQuery decodes a parsed YAML node into a Document. Errors carry the
// line and column of the offending node.
func DecodeQuery(node *yaml.Node, opts Options) (*Document, error) {
	node = resolve(node)
	if node.Kind == 0 || node.Kind == yaml.DocumentNode {
		if len(node.Content) == 0 {
			return nil, &CompileError{Field: "document", Message: "empty document", Pos: Position{Filename: opts.Filename}}
		}
		node = resolve(node.Content[0])
	}
	if node.Kind != yaml.MappingNode {
		return nil, yamlTypeError(node, "document", "mapping", opts)
	}

	doc := &Document{}
	seen := map[string]bool{}
	for i := 0; i+1 < len(node.Content); i += 2 {
		name := node.Content[i].Value
		value := resolve(node.Content[i+1])
		if seen[name] {
			return nil, yamlError(node.Content[i], name, "duplicate field", opts)
		}
		seen[name] = true

		var err error
		switch name {
		case fieldCommand:
			doc.Command, err = yamlString(value, name, opts)
		case fieldNamespace:
			doc.Namespace, err = yamlString(value, name, opts)
		case fieldMembers:
			if value.Kind != yaml.ScalarNode || value.ShortTag() != "!!bool" {
				err = yamlTypeError(value, name, "bool", opts)
			} else if decodeErr := value.Decode(&doc.Members); decodeErr != nil {
				err = yamlError(value, name, decodeErr.Error(), opts)
			}
		case fieldSet:
			doc.Set, err = decodeSetYAML(value, name, opts)
		case fieldTemplate:
			doc.Template, err = yamlStrings(value, name, opts)
		case fieldSets:
			doc.Sets, err = decodeSetListYAML(value, name, opts)
		default:
			err = yamlError(node.Content[i], name, "unknown field", opts)
		}
		if err != nil {
			return nil, err
		}
	}

	return doc, nil
}

// decodeSetYAML decodes one expression node: a scalar key name or a
// mapping with a single union/inter/diff field.
func decodeSetYAML(node *yaml.Node, path string, opts Options) (setexpr.Set, error) {
	node = resolve(node)
	switch node.Kind {
	case yaml.ScalarNode:
		if node.ShortTag() == "!!null" {
			return nil, yamlError(node, path, "null is not a key name", opts)
		}
		return opts.key(node.Value), nil

	case yaml.MappingNode:
		if len(node.Content) != 2 {
			return nil, yamlError(node, path,
				fmt.Sprintf("operator node must have exactly one field, found %d", len(node.Content)/2), opts)
		}
		name := node.Content[0].Value
		op, ok := setexpr.ParseOp(name)
		if !ok {
			return nil, yamlError(node.Content[0], path+"."+name, "unknown operator (want union, inter or diff)", opts)
		}
		operand := resolve(node.Content[1])
		sets, err := decodeSetListYAML(operand, path+"."+name, opts)
		if err != nil {
			return nil, err
		}
		if len(sets) == 0 {
			return nil, yamlError(operand, path+"."+name, fmt.Sprintf("%s requires at least one operand", op), opts)
		}
		return setexpr.New(op, sets...), nil

	default:
		return nil, yamlTypeError(node, path, "key name or operator mapping", opts)
	}
}

func decodeSetListYAML(node *yaml.Node, path string, opts Options) ([]setexpr.Set, error) {
	node = resolve(node)
	if node.Kind != yaml.SequenceNode {
		return nil, yamlTypeError(node, path, "sequence", opts)
	}

	sets := make([]setexpr.Set, 0, len(node.Content))
	for i, item := range node.Content {
		s, err := decodeSetYAML(item, fmt.Sprintf("%s[%d]", path, i), opts)
		if err != nil {
			return nil, err
		}
		sets = append(sets, s)
	}
	return sets, nil
}

func yamlString(node *yaml.Node, path string, opts Options) (string, error) {
	if node.Kind != yaml.ScalarNode || node.ShortTag() == "!!null" {
		return "", yamlTypeError(node, path, "string", opts)
	}
	return node.Value, nil
}

func yamlStrings(node *yaml.Node, path string, opts Options) ([]string, error) {
	if node.Kind != yaml.SequenceNode {
		return nil, yamlTypeError(node, path, "sequence of strings", opts)
	}
	out := make([]string, 0, len(node.Content))
	for i, item := range node.Content {
		s, err := yamlString(resolve(item), fmt.Sprintf("%s[%d]", path, i), opts)
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, nil
}

// resolve follows YAML aliases to their anchored node.
func resolve(node *yaml.Node) *yaml.Node {
	for node.Kind == yaml.AliasNode && node.Alias != nil {
		node = node.Alias
	}
	return node
}

func yamlError(node *yaml.Node, path, message string, opts Options) error {
	return &CompileError{
		Field:   path,
		Message: message,
		Pos:     Position{Filename: opts.Filename, Line: node.Line, Column: node.Column},
	}
}

func yamlTypeError(node *yaml.Node, path, want string, opts Options) error {
	return yamlError(node, path, fmt.Sprintf("expected %s, got %s", want, kindName(node)), opts)
}

func kindName(node *yaml.Node) string {
	switch node.Kind {
	case yaml.ScalarNode:
		return "scalar " + node.ShortTag()
	case yaml.MappingNode:
		return "mapping"
	case yaml.SequenceNode:
		return "sequence"
	case yaml.DocumentNode:
		return "document"
	default:
		return "alias"
	}
}
