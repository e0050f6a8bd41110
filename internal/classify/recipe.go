package classify

import (
	"strconv"
	"strings"

	"mirror-generator/internal/common"
	"mirror-generator/internal/exceptions"
	"mirror-generator/internal/schema"
)

// Op is one primitive operation of a conversion recipe.
type Op int

const (
	OpIdentity    Op = iota // value passes through unchanged
	OpTextual               // textual conversion through a binding
	OpRecurse               // the referenced node's own conversion
	OpBox                   // heap indirection; collapses in the mirror
	OpSequence              // map over a sequence
	OpDelimited             // map over a delimited sequence, separators resynthesized
	OpOptional              // map over an optional
	OpPresence              // optional with nothing to store but presence
	OpTuple                 // fixed tuple split into retained and resynthesized items
	OpPlaceholder           // dropped token; canonical placeholder on rebuild
	OpPosition              // dropped source position; synthetic default on rebuild
	OpEmpty                 // dropped synthetically empty node; empty instance on rebuild
	OpZero                  // dropped opaque node; zero value on rebuild
	OpDefaulted             // omitted when equal to its default
)

// String returns a human-readable representation of the Op.
func (o Op) String() string {
	switch o {
	case OpIdentity:
		return "identity"
	case OpTextual:
		return "textual"
	case OpRecurse:
		return "recurse"
	case OpBox:
		return "box"
	case OpSequence:
		return "map_sequence"
	case OpDelimited:
		return "map_delimited"
	case OpOptional:
		return "map_optional"
	case OpPresence:
		return "presence"
	case OpTuple:
		return "tuple"
	case OpPlaceholder:
		return "placeholder"
	case OpPosition:
		return "default_position"
	case OpEmpty:
		return "empty_instance"
	case OpZero:
		return "zero"
	case OpDefaulted:
		return "defaulted"
	default:
		return common.UnknownStr
	}
}

// Recipe describes how one value converts in both directions.
type Recipe struct {
	Op Op
	// Orig is the schema type on the original side.
	Orig *schema.FieldType
	// Mirror is the mirror type, nil when the value is dropped.
	Mirror *Type
	// Elem is the element recipe of containers, Box, Presence and Defaulted.
	Elem *Recipe
	// Items are the per-item recipes of a Tuple, or the field recipes of
	// an Empty node in declaration order.
	Items []*Recipe
	// Kept indexes the retained Items of a Tuple.
	Kept []int
	// Node is the referenced node of Recurse, Empty and Zero.
	Node string
	// Token is the placeholder of Placeholder or the separator of Delimited.
	Token string
	// Binding is the foreign or primitive binding of Textual, Identity and
	// Position.
	Binding *exceptions.Binding
	// Shared marks an Optional whose element mirror already is the pointer.
	Shared bool
}

// Dropped reports whether the value has no mirror representation.
func (r *Recipe) Dropped() bool {
	return r.Mirror == nil
}

// Fallible reports whether rebuilding can fail.
func (r *Recipe) Fallible() bool {
	switch r.Op {
	case OpRecurse:
		return true
	case OpTextual:
		return r.Binding.Fallible
	case OpBox:
		return r.Elem.Fallible() || (r.Mirror != nil && r.Mirror.IsPointer())
	case OpSequence, OpDelimited, OpOptional, OpDefaulted:
		return r.Elem.Fallible()
	case OpTuple:
		for _, i := range r.Kept {
			if r.Items[i].Fallible() {
				return true
			}
		}

		return false
	case OpIdentity, OpPresence, OpPlaceholder, OpPosition, OpEmpty, OpZero:
		return false
	default:
		return false
	}
}

// String renders the recipe tree, e.g. "map_sequence(recurse(Attribute))".
func (r *Recipe) String() string {
	switch r.Op {
	case OpRecurse, OpEmpty, OpZero:
		return r.Op.String() + "(" + r.Node + ")"
	case OpPlaceholder:
		return r.Op.String() + "(" + r.Token + ")"
	case OpTuple:
		parts := make([]string, 0, len(r.Items))
		for _, it := range r.Items {
			parts = append(parts, it.String())
		}

		return "tuple(" + strings.Join(parts, ", ") + ")"
	case OpIdentity, OpTextual, OpPosition:
		return r.Op.String()
	default:
		if r.Elem != nil {
			return r.Op.String() + "(" + r.Elem.String() + ")"
		}

		return r.Op.String()
	}
}

// TypeKind is the shape of a mirror type.
type TypeKind int

const (
	TypeNode    TypeKind = iota // a generated or hand-written mirror node
	TypeBasic                   // a Go type named by a binding
	TypeBool                    // presence flag
	TypeSlice                   // []Elem
	TypePointer                 // *Elem
	TypeTuple                   // punct.TupleN[Items...]
)

// Type is a mirror-side Go type.
type Type struct {
	Kind  TypeKind
	Name  string
	Elem  *Type
	Items []*Type
}

// NodeType returns the mirror type of the named node.
func NodeType(name string) *Type { return &Type{Kind: TypeNode, Name: name} }

// Basic returns a Go type spelled as name, e.g. "string" or "uint32".
func Basic(name string) *Type { return &Type{Kind: TypeBasic, Name: name} }

// Bool returns the presence flag type.
func Bool() *Type { return &Type{Kind: TypeBool} }

// SliceOf returns []t.
func SliceOf(t *Type) *Type { return &Type{Kind: TypeSlice, Elem: t} }

// PointerTo returns *t.
func PointerTo(t *Type) *Type { return &Type{Kind: TypePointer, Elem: t} }

// TupleOf returns the punct tuple of items.
func TupleOf(items ...*Type) *Type {
	return &Type{Kind: TypeTuple, Items: items}
}

// IsPointer reports whether t is a pointer type.
func (t *Type) IsPointer() bool {
	return t != nil && t.Kind == TypePointer
}

// String returns the Go spelling of t inside the mirror package.
func (t *Type) String() string {
	switch t.Kind {
	case TypeNode, TypeBasic:
		return t.Name
	case TypeBool:
		return "bool"
	case TypeSlice:
		return "[]" + t.Elem.String()
	case TypePointer:
		return "*" + t.Elem.String()
	case TypeTuple:
		parts := make([]string, 0, len(t.Items))
		for _, it := range t.Items {
			parts = append(parts, it.String())
		}

		return "punct.Tuple" + strconv.Itoa(len(t.Items)) + "[" + strings.Join(parts, ", ") + "]"
	default:
		return common.UnknownStr
	}
}
