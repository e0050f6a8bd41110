package classify

import (
	"strconv"
	"strings"

	"mirror-generator/internal/common"
	"mirror-generator/internal/schema"
)

// Package aliases used in generated code.
const (
	AliasAST    = "ast"
	AliasToken  = "token"
	AliasMirror = "mirror"
	AliasPunct  = "punct"
)

// OrigType returns the Go spelling of ft on the original side.
func (c *Classifier) OrigType(ft *schema.FieldType) string {
	switch ft.Kind {
	case schema.KindIndirect, schema.KindOptional:
		if ft.Kind == schema.KindOptional && ft.Elem.Kind == schema.KindIndirect {
			return "*" + c.OrigType(ft.Elem.Elem)
		}

		return "*" + c.OrigType(ft.Elem)
	case schema.KindSequence:
		return "[]" + c.OrigType(ft.Elem)
	case schema.KindDelimited:
		return AliasPunct + ".List[" + c.OrigType(ft.Elem) + ", " + AliasToken + "." + ft.Punct + "]"
	case schema.KindTuple:
		parts := make([]string, 0, len(ft.Items))
		for _, it := range ft.Items {
			parts = append(parts, c.OrigType(it))
		}

		return AliasPunct + ".Tuple" + strconv.Itoa(len(ft.Items)) + "[" + strings.Join(parts, ", ") + "]"
	case schema.KindToken, schema.KindGroup:
		return AliasToken + "." + ft.Name
	case schema.KindNodeRef:
		return AliasAST + "." + ft.Name
	case schema.KindForeignRef:
		if b, ok := c.tables.ForeignBinding(ft.Name); ok {
			return b.Orig
		}

		return AliasAST + "." + ft.Name
	case schema.KindPrimitive:
		return c.tables.PrimitiveBinding(ft.Name).Orig
	default:
		return common.UnknownStr
	}
}

// PayloadType returns the Go type of an enum payload field on the original
// side. Boxed payloads collapse to a single pointer.
func (c *Classifier) PayloadType(ft *schema.FieldType) string {
	if ft.Kind == schema.KindIndirect {
		ft = ft.Elem
	}

	return "*" + c.OrigType(ft)
}
