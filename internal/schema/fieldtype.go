package schema

import (
	"strings"

	"mirror-generator/internal/common"
)

// Kind is the closed set of field type shapes.
type Kind int

const (
	KindInvalid    Kind = iota
	KindIndirect        // single-owner heap indirection
	KindSequence        // growable ordered list
	KindDelimited       // ordered list threading separator placeholders
	KindOptional        // zero or one value
	KindTuple           // fixed positional tuple
	KindToken           // presence-only token placeholder
	KindGroup           // presence-only delimiter group placeholder
	KindNodeRef         // reference to another schema node
	KindForeignRef      // reference to a type outside the schema
	KindPrimitive       // text, number or boolean leaf
)

// String returns a human-readable representation of the Kind.
func (k Kind) String() string {
	switch k {
	case KindIndirect:
		return "indirect"
	case KindSequence:
		return "sequence"
	case KindDelimited:
		return "delimited"
	case KindOptional:
		return "optional"
	case KindTuple:
		return "tuple"
	case KindToken:
		return "token"
	case KindGroup:
		return "group"
	case KindNodeRef:
		return "node"
	case KindForeignRef:
		return "foreign"
	case KindPrimitive:
		return "primitive"
	default:
		return common.UnknownStr
	}
}

// FieldType describes the declared type of a field or variant payload.
type FieldType struct {
	Kind Kind
	// Elem is the inner type of Indirect, Sequence, Delimited and Optional.
	Elem *FieldType
	// Punct names the separator token of a Delimited sequence.
	Punct string
	// Items are the positional members of a Tuple.
	Items []*FieldType
	// Name is the referenced token, group, node, foreign or primitive name.
	Name string
}

func Indirect(t *FieldType) *FieldType { return &FieldType{Kind: KindIndirect, Elem: t} }
func Sequence(t *FieldType) *FieldType { return &FieldType{Kind: KindSequence, Elem: t} }
func Optional(t *FieldType) *FieldType { return &FieldType{Kind: KindOptional, Elem: t} }
func Token(name string) *FieldType     { return &FieldType{Kind: KindToken, Name: name} }
func Group(name string) *FieldType     { return &FieldType{Kind: KindGroup, Name: name} }
func NodeRef(name string) *FieldType   { return &FieldType{Kind: KindNodeRef, Name: name} }
func ForeignRef(name string) *FieldType {
	return &FieldType{Kind: KindForeignRef, Name: name}
}
func Primitive(name string) *FieldType { return &FieldType{Kind: KindPrimitive, Name: name} }

// Delimited builds a delimited sequence of t separated by the punct token.
func Delimited(t *FieldType, punct string) *FieldType {
	return &FieldType{Kind: KindDelimited, Elem: t, Punct: punct}
}

// Tuple builds a fixed tuple of the given items.
func Tuple(items ...*FieldType) *FieldType {
	return &FieldType{Kind: KindTuple, Items: items}
}

// IsMarker reports whether t is a token or group placeholder.
func (t *FieldType) IsMarker() bool {
	return t.Kind == KindToken || t.Kind == KindGroup
}

// Walk calls fn for t and every type nested inside it, outermost first.
func (t *FieldType) Walk(fn func(*FieldType)) {
	if t == nil {
		return
	}

	fn(t)

	if t.Elem != nil {
		t.Elem.Walk(fn)
	}

	for _, it := range t.Items {
		it.Walk(fn)
	}
}

// String renders the type in a compact constructor notation, e.g.
// "Optional(Tuple(Token(Else), Indirect(Expr)))".
func (t *FieldType) String() string {
	if t == nil {
		return "<nil>"
	}

	switch t.Kind {
	case KindIndirect:
		return "Indirect(" + t.Elem.String() + ")"
	case KindSequence:
		return "Sequence(" + t.Elem.String() + ")"
	case KindDelimited:
		return "Delimited(" + t.Elem.String() + ", " + t.Punct + ")"
	case KindOptional:
		return "Optional(" + t.Elem.String() + ")"
	case KindTuple:
		parts := make([]string, 0, len(t.Items))
		for _, it := range t.Items {
			parts = append(parts, it.String())
		}

		return "Tuple(" + strings.Join(parts, ", ") + ")"
	case KindToken:
		return "Token(" + t.Name + ")"
	case KindGroup:
		return "Group(" + t.Name + ")"
	case KindNodeRef:
		return t.Name
	case KindForeignRef:
		return "Foreign(" + t.Name + ")"
	case KindPrimitive:
		return "Primitive(" + t.Name + ")"
	default:
		return common.UnknownStr
	}
}
