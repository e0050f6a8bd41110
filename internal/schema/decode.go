package schema

import (
	"errors"
	"fmt"
	"slices"
)

// ErrMalformed is returned when a schema document does not follow the
// expected structure.
var ErrMalformed = errors.New("malformed schema")

func malformed(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrMalformed, fmt.Sprintf(format, args...))
}

// decodeDefinitions converts a document tree into Definitions.
func decodeDefinitions(root *tree) (*Definitions, error) {
	if root == nil || root.kind != treeObject {
		return nil, malformed("top level must be an object")
	}

	defs := &Definitions{Tokens: map[string]string{}}

	if v := root.get("version"); v != nil {
		if v.kind != treeString && v.kind != treeNumber {
			return nil, malformed("version must be a string")
		}

		defs.Version = v.text
	}

	if toks := root.get("tokens"); toks != nil {
		if toks.kind != treeObject {
			return nil, malformed("tokens must be an object")
		}

		for _, m := range toks.members {
			if m.value.kind != treeString {
				return nil, malformed("token %s: spelling must be a string", m.key)
			}

			defs.Tokens[m.key] = m.value.text
		}
	}

	types := root.get("types")
	if types == nil {
		return defs, nil
	}

	if types.kind != treeArray {
		return nil, malformed("types must be an array")
	}

	for i, item := range types.items {
		node, err := decodeNode(item)
		if err != nil {
			return nil, fmt.Errorf("types[%d]: %w", i, err)
		}

		defs.Nodes = append(defs.Nodes, node)
	}

	return defs, nil
}

func decodeNode(t *tree) (Node, error) {
	if t.kind != treeObject {
		return Node{}, malformed("node must be an object")
	}

	ident := t.get("ident")
	if ident == nil || ident.kind != treeString || ident.text == "" {
		return Node{}, malformed("node without ident")
	}

	node := Node{Name: ident.text, Exhaustive: true}

	if ex := t.get("exhaustive"); ex != nil {
		if ex.kind != treeBool {
			return Node{}, malformed("%s: exhaustive must be a bool", node.Name)
		}

		node.Exhaustive = ex.flag
	}

	features, err := decodeFeatures(t.get("features"))
	if err != nil {
		return Node{}, fmt.Errorf("%s: %w", node.Name, err)
	}

	node.Availability = features

	fields, variants := t.get("fields"), t.get("variants")

	switch {
	case fields != nil && variants != nil:
		return Node{}, malformed("%s: both fields and variants declared", node.Name)
	case fields != nil:
		node.Shape = ShapeStruct

		if fields.kind != treeObject {
			return Node{}, malformed("%s: fields must be an object", node.Name)
		}

		for _, m := range fields.members {
			ft, err := decodeType(m.value)
			if err != nil {
				return Node{}, fmt.Errorf("%s.%s: %w", node.Name, m.key, err)
			}

			node.Fields = append(node.Fields, Field{Name: m.key, Type: ft})
		}
	case variants != nil:
		node.Shape = ShapeEnum

		if variants.kind != treeObject {
			return Node{}, malformed("%s: variants must be an object", node.Name)
		}

		for _, m := range variants.members {
			v := Variant{Name: m.key}

			switch m.value.kind {
			case treeNull:
			case treeArray:
				for i, item := range m.value.items {
					ft, err := decodeType(item)
					if err != nil {
						return Node{}, fmt.Errorf("%s::%s[%d]: %w", node.Name, m.key, i, err)
					}

					v.Payload = append(v.Payload, ft)
				}
			default:
				return Node{}, malformed("%s::%s: payload must be an array", node.Name, m.key)
			}

			node.Variants = append(node.Variants, v)
		}
	default:
		node.Shape = ShapeOpaque
	}

	return node, nil
}

func decodeFeatures(t *tree) ([]string, error) {
	if t == nil {
		return nil, nil
	}

	if t.kind != treeObject {
		return nil, malformed("features must be an object")
	}

	anyOf := t.get("any")
	if anyOf == nil {
		return nil, nil
	}

	if anyOf.kind != treeArray {
		return nil, malformed("features.any must be an array")
	}

	out := make([]string, 0, len(anyOf.items))
	for _, f := range anyOf.items {
		if f.kind != treeString {
			return nil, malformed("feature names must be strings")
		}

		out = append(out, f.text)
	}

	slices.Sort(out)

	return slices.Compact(out), nil
}

// decodeType reads a single-key object such as {"box": {"syn": "Expr"}}.
func decodeType(t *tree) (*FieldType, error) {
	if t == nil || t.kind != treeObject || len(t.members) != 1 {
		return nil, malformed("type must be an object with exactly one key")
	}

	key, v := t.members[0].key, t.members[0].value

	name := func() (string, error) {
		if v.kind != treeString || v.text == "" {
			return "", malformed("%s: expected a type name", key)
		}

		return v.text, nil
	}

	switch key {
	case "syn":
		n, err := name()
		if err != nil {
			return nil, err
		}

		return NodeRef(n), nil
	case "ext", "proc_macro2":
		n, err := name()
		if err != nil {
			return nil, err
		}

		return ForeignRef(n), nil
	case "std":
		n, err := name()
		if err != nil {
			return nil, err
		}

		return Primitive(n), nil
	case "token":
		n, err := name()
		if err != nil {
			return nil, err
		}

		return Token(n), nil
	case "group":
		n, err := name()
		if err != nil {
			return nil, err
		}

		return Group(n), nil
	case "box", "vec", "option":
		elem, err := decodeType(v)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", key, err)
		}

		switch key {
		case "box":
			return Indirect(elem), nil
		case "vec":
			return Sequence(elem), nil
		default:
			return Optional(elem), nil
		}
	case "punctuated":
		if v.kind != treeObject {
			return nil, malformed("punctuated must be an object")
		}

		elem, err := decodeType(v.get("element"))
		if err != nil {
			return nil, fmt.Errorf("punctuated.element: %w", err)
		}

		p := v.get("punct")
		if p == nil || p.kind != treeString || p.text == "" {
			return nil, malformed("punctuated.punct must name a token")
		}

		return Delimited(elem, p.text), nil
	case "tuple":
		if v.kind != treeArray || len(v.items) == 0 {
			return nil, malformed("tuple must be a non-empty array")
		}

		items := make([]*FieldType, 0, len(v.items))
		for i, it := range v.items {
			ft, err := decodeType(it)
			if err != nil {
				return nil, fmt.Errorf("tuple[%d]: %w", i, err)
			}

			items = append(items, ft)
		}

		return Tuple(items...), nil
	default:
		return nil, malformed("unknown type key %q", key)
	}
}
