package schema

import (
	"slices"
	"strings"

	"mirror-generator/internal/common"
)

// Shape is the structural kind of a node.
type Shape int

const (
	ShapeOpaque Shape = iota // private or unsupported type, excluded from generation
	ShapeStruct              // ordered named fields
	ShapeEnum                // ordered variants with at most one payload
)

// String returns a human-readable representation of the Shape.
func (s Shape) String() string {
	switch s {
	case ShapeOpaque:
		return "opaque"
	case ShapeStruct:
		return "struct"
	case ShapeEnum:
		return "enum"
	default:
		return common.UnknownStr
	}
}

// Field is a named struct field.
type Field struct {
	Name string
	Type *FieldType
}

// Variant is a named enum variant. Payload holds zero or one type except
// for grandfathered multi-payload enums.
type Variant struct {
	Name    string
	Payload []*FieldType
}

// IsUnit reports whether the variant carries no payload.
func (v *Variant) IsUnit() bool {
	return len(v.Payload) == 0
}

// Node is one AST type definition.
type Node struct {
	Name string
	// Shape selects which of Fields or Variants is meaningful.
	Shape    Shape
	Fields   []Field
	Variants []Variant
	// Exhaustive is false when the original type may grow variants or
	// fields that the schema does not enumerate.
	Exhaustive bool
	// Availability lists the feature tags that enable this node. Empty
	// means always available.
	Availability []string
}

// Field returns the struct field with the given name.
func (n *Node) Field(name string) (*Field, bool) {
	for i := range n.Fields {
		if n.Fields[i].Name == name {
			return &n.Fields[i], true
		}
	}

	return nil, false
}

// Variant returns the enum variant with the given name.
func (n *Node) Variant(name string) (*Variant, bool) {
	for i := range n.Variants {
		if n.Variants[i].Name == name {
			return &n.Variants[i], true
		}
	}

	return nil, false
}

// MemberNames returns the field names of a struct or the variant names of
// an enum.
func (n *Node) MemberNames() []string {
	var out []string
	for _, f := range n.Fields {
		out = append(out, f.Name)
	}

	for _, v := range n.Variants {
		out = append(out, v.Name)
	}

	return out
}

// AvailableIn reports whether the node is enabled by the given feature set.
func (n *Node) AvailableIn(features []string) bool {
	if len(n.Availability) == 0 {
		return true
	}

	for _, f := range n.Availability {
		if slices.Contains(features, f) {
			return true
		}
	}

	return false
}

// Definitions is the full schema: nodes plus the token spelling table.
// It is immutable once loaded.
type Definitions struct {
	Version string
	Nodes   []Node
	// Tokens maps a token or group name to its canonical spelling.
	Tokens map[string]string
}

// Lookup returns the node with the given name.
func (d *Definitions) Lookup(name string) (*Node, bool) {
	for i := range d.Nodes {
		if d.Nodes[i].Name == name {
			return &d.Nodes[i], true
		}
	}

	return nil, false
}

// Names returns the node names in declaration order.
func (d *Definitions) Names() []string {
	out := make([]string, len(d.Nodes))
	for i := range d.Nodes {
		out[i] = d.Nodes[i].Name
	}

	return out
}

// Token returns the canonical spelling of a token or group.
func (d *Definitions) Token(name string) (string, bool) {
	s, ok := d.Tokens[name]

	return s, ok
}

// Sorted returns the nodes ordered by name. Every generation pass iterates
// in this order so that output is deterministic.
func (d *Definitions) Sorted() []*Node {
	out := make([]*Node, 0, len(d.Nodes))
	for i := range d.Nodes {
		out = append(out, &d.Nodes[i])
	}

	slices.SortStableFunc(out, func(a, b *Node) int {
		return strings.Compare(a.Name, b.Name)
	})

	return out
}

// Filter returns a copy of the definitions restricted to nodes available
// under the given features. A nil feature list keeps every node.
func (d *Definitions) Filter(features []string) *Definitions {
	out := &Definitions{
		Version: d.Version,
		Tokens:  d.Tokens,
	}

	for _, n := range d.Nodes {
		if features == nil || n.AvailableIn(features) {
			out.Nodes = append(out.Nodes, n)
		}
	}

	return out
}
