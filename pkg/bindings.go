package tracelang

import (
	"fmt"
	"strconv"

	"gopkg.in/yaml.v3"
)

// ParseBindings reads a YAML mapping of variable names to values into the
// evaluator's value domain, standing in for the translation a debugger host
// performs on captured debuggee state. Scalars map to Int/Float/Bool/String,
// sequences to Array, and mappings to Record; a mapping may carry a
// `$variant` key naming the record's variant.
func ParseBindings(data []byte) (map[string]Value, error) {
	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, err
	}

	return DecodeBindings(&doc)
}

func DecodeBindings(node *yaml.Node) (map[string]Value, error) {
	if node.Kind == yaml.DocumentNode {
		if len(node.Content) == 0 {
			return map[string]Value{}, nil
		}

		node = node.Content[0]
	}

	if node.Kind == 0 {
		return map[string]Value{}, nil
	}

	if node.Kind != yaml.MappingNode {
		return nil, fmt.Errorf("bindings must be a mapping, got %s", nodeKind(node))
	}

	bindings := map[string]Value{}
	for i := 0; i+1 < len(node.Content); i += 2 {
		v, err := valueFromYAML(node.Content[i+1])
		if err != nil {
			return nil, err
		}

		bindings[node.Content[i].Value] = v
	}

	return bindings, nil
}

func valueFromYAML(node *yaml.Node) (Value, error) {
	switch node.Kind {
	case yaml.ScalarNode:
		return scalarFromYAML(node)
	case yaml.SequenceNode:
		arr := make(Array, 0, len(node.Content))
		for _, elem := range node.Content {
			v, err := valueFromYAML(elem)
			if err != nil {
				return nil, err
			}

			arr = append(arr, v)
		}

		return arr, nil
	case yaml.MappingNode:
		rec := Record{}
		for i := 0; i+1 < len(node.Content); i += 2 {
			name := node.Content[i].Value
			if name == "$variant" {
				rec.Variant = node.Content[i+1].Value
				continue
			}

			v, err := valueFromYAML(node.Content[i+1])
			if err != nil {
				return nil, err
			}

			rec.Fields = append(rec.Fields, Field{Name: name, Value: v})
		}

		return rec, nil
	case yaml.AliasNode:
		return valueFromYAML(node.Alias)
	default:
		return nil, fmt.Errorf("line %d: cannot translate %s into a value", node.Line, nodeKind(node))
	}
}

func scalarFromYAML(node *yaml.Node) (Value, error) {
	switch node.Tag {
	case "!!int":
		n, err := strconv.ParseInt(node.Value, 0, 64)
		if err != nil {
			return nil, fmt.Errorf("line %d: invalid integer %q", node.Line, node.Value)
		}

		return Int(n), nil
	case "!!float":
		f, err := strconv.ParseFloat(node.Value, 64)
		if err != nil {
			return nil, fmt.Errorf("line %d: invalid float %q", node.Line, node.Value)
		}

		return Float(f), nil
	case "!!bool":
		return Bool(node.Value == "true" || node.Value == "True"), nil
	case "!!null":
		return Unit{}, nil
	default:
		return String(node.Value), nil
	}
}

func nodeKind(node *yaml.Node) string {
	switch node.Kind {
	case yaml.ScalarNode:
		return "a scalar"
	case yaml.SequenceNode:
		return "a sequence"
	case yaml.MappingNode:
		return "a mapping"
	case yaml.DocumentNode:
		return "a document"
	default:
		return "an alias"
	}
}
