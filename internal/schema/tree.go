package schema

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"strconv"

	json "github.com/goccy/go-json"
	"gopkg.in/yaml.v3"
)

// tree is an order-preserving document tree shared by the JSON and YAML
// readers. Schema objects are ordered maps, which neither encoding/json nor
// plain struct decoding can represent.
type tree struct {
	kind    treeKind
	members []member
	items   []*tree
	text    string
	flag    bool
}

type treeKind int

const (
	treeNull treeKind = iota
	treeObject
	treeArray
	treeString
	treeBool
	treeNumber
)

func (k treeKind) String() string {
	switch k {
	case treeNull:
		return "null"
	case treeObject:
		return "object"
	case treeArray:
		return "array"
	case treeString:
		return "string"
	case treeBool:
		return "bool"
	case treeNumber:
		return "number"
	default:
		return "unknown"
	}
}

type member struct {
	key   string
	value *tree
}

// get returns the value stored under key, or nil.
func (t *tree) get(key string) *tree {
	if t == nil || t.kind != treeObject {
		return nil
	}

	for _, m := range t.members {
		if m.key == key {
			return m.value
		}
	}

	return nil
}

// readJSON parses a JSON document into a tree using the streaming decoder so
// that object member order survives.
func readJSON(data []byte) (*tree, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	t, err := readJSONValue(dec)
	if err != nil {
		return nil, err
	}

	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return nil, errors.New("unexpected data after top-level value")
	}

	return t, nil
}

func readJSONValue(dec *json.Decoder) (*tree, error) {
	tok, err := dec.Token()
	if err != nil {
		return nil, err
	}

	switch v := tok.(type) {
	case json.Delim:
		switch v {
		case '{':
			return readJSONObject(dec)
		case '[':
			return readJSONArray(dec)
		default:
			return nil, fmt.Errorf("unexpected delimiter %q", v)
		}
	case string:
		return &tree{kind: treeString, text: v}, nil
	case bool:
		return &tree{kind: treeBool, flag: v}, nil
	case json.Number:
		return &tree{kind: treeNumber, text: v.String()}, nil
	case float64:
		return &tree{kind: treeNumber, text: strconv.FormatFloat(v, 'g', -1, 64)}, nil
	case nil:
		return &tree{kind: treeNull}, nil
	default:
		return nil, fmt.Errorf("unexpected token %v", tok)
	}
}

func readJSONObject(dec *json.Decoder) (*tree, error) {
	t := &tree{kind: treeObject}

	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return nil, err
		}

		key, ok := keyTok.(string)
		if !ok {
			return nil, fmt.Errorf("expected object key, got %v", keyTok)
		}

		value, err := readJSONValue(dec)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", key, err)
		}

		t.members = append(t.members, member{key: key, value: value})
	}

	// closing '}'
	if _, err := dec.Token(); err != nil {
		return nil, err
	}

	return t, nil
}

func readJSONArray(dec *json.Decoder) (*tree, error) {
	t := &tree{kind: treeArray}

	for dec.More() {
		value, err := readJSONValue(dec)
		if err != nil {
			return nil, fmt.Errorf("[%d]: %w", len(t.items), err)
		}

		t.items = append(t.items, value)
	}

	// closing ']'
	if _, err := dec.Token(); err != nil {
		return nil, err
	}

	return t, nil
}

// readYAML parses a YAML document into a tree. Mapping node content keeps
// the document order.
func readYAML(data []byte) (*tree, error) {
	var doc yaml.Node

	err := yaml.Unmarshal(data, &doc)
	if err != nil {
		return nil, err
	}

	if doc.Kind == 0 {
		return &tree{kind: treeNull}, nil
	}

	return fromYAMLNode(&doc)
}

func fromYAMLNode(n *yaml.Node) (*tree, error) {
	switch n.Kind {
	case yaml.DocumentNode:
		if len(n.Content) == 0 {
			return &tree{kind: treeNull}, nil
		}

		return fromYAMLNode(n.Content[0])
	case yaml.AliasNode:
		return fromYAMLNode(n.Alias)
	case yaml.MappingNode:
		t := &tree{kind: treeObject}

		for i := 0; i+1 < len(n.Content); i += 2 {
			key := n.Content[i]
			if key.Kind != yaml.ScalarNode {
				return nil, fmt.Errorf("line %d: mapping key must be a scalar", key.Line)
			}

			value, err := fromYAMLNode(n.Content[i+1])
			if err != nil {
				return nil, fmt.Errorf("%s: %w", key.Value, err)
			}

			t.members = append(t.members, member{key: key.Value, value: value})
		}

		return t, nil
	case yaml.SequenceNode:
		t := &tree{kind: treeArray}

		for i, c := range n.Content {
			value, err := fromYAMLNode(c)
			if err != nil {
				return nil, fmt.Errorf("[%d]: %w", i, err)
			}

			t.items = append(t.items, value)
		}

		return t, nil
	case yaml.ScalarNode:
		switch n.Tag {
		case "!!null":
			return &tree{kind: treeNull}, nil
		case "!!bool":
			var b bool
			if err := n.Decode(&b); err != nil {
				return nil, fmt.Errorf("line %d: %w", n.Line, err)
			}

			return &tree{kind: treeBool, flag: b}, nil
		case "!!int", "!!float":
			return &tree{kind: treeNumber, text: n.Value}, nil
		default:
			return &tree{kind: treeString, text: n.Value}, nil
		}
	default:
		return nil, fmt.Errorf("line %d: unsupported YAML node", n.Line)
	}
}
