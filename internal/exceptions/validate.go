package exceptions

import (
	"maps"
	"slices"

	"mirror-generator/internal/diagnostic"
	"mirror-generator/internal/match"
	"mirror-generator/internal/schema"
)

// Validate checks that every override targets an existing node, field or
// variant whose shape agrees with the override.
func Validate(t *Tables, defs *schema.Definitions) *diagnostic.Diagnostics {
	v := &validator{t: t, defs: defs, diags: &diagnostic.Diagnostics{}}

	v.fields()
	v.variants()
	v.enums()
	v.nodeLists()
	v.keywords()
	v.layouts()
	v.bindings()

	return v.diags
}

type validator struct {
	t     *Tables
	defs  *schema.Definitions
	diags *diagnostic.Diagnostics
}

func (v *validator) missing(node, member, format string, args ...any) {
	v.diags.Errorf(diagnostic.CodeOverrideMissing, node, member, format, args...)
}

func (v *validator) mismatch(node, member, format string, args ...any) {
	v.diags.Errorf(diagnostic.CodeOverrideShape, node, member, format, args...)
}

// node looks up name and reports it when missing or of the wrong shape.
func (v *validator) node(name string, shape schema.Shape, what string) (*schema.Node, bool) {
	n, ok := v.defs.Lookup(name)
	if !ok {
		v.missing(name, "", "%s targets undeclared node%s", what, match.Hint(name, v.defs.Names()))
		return nil, false
	}

	if n.Shape != shape {
		v.mismatch(name, "", "%s requires a %s node, found %s", what, shape, n.Shape)
		return nil, false
	}

	return n, true
}

func (v *validator) fields() {
	for _, r := range v.t.Fields {
		if r.Node == Wildcard {
			for _, field := range r.Field {
				matched := 0

				for _, n := range v.defs.Sorted() {
					if f, ok := n.Field(field); ok && n.Shape == schema.ShapeStruct {
						matched++

						v.fieldShape(n, f, v.t.Field(n.Name, field))
					}
				}

				if matched == 0 {
					v.diags.AddWarning(diagnostic.CodeOverrideMissing,
						"wildcard field rule matches no field", Wildcard, field)
				}
			}

			continue
		}

		n, ok := v.node(r.Node, schema.ShapeStruct, "field rule")
		if !ok {
			continue
		}

		for _, field := range r.Field {
			f, ok := n.Field(field)
			if !ok {
				v.missing(n.Name, field, "field rule targets undeclared field%s", match.Hint(field, n.MemberNames()))
				continue
			}

			v.fieldShape(n, f, v.t.Field(n.Name, field))
		}
	}
}

func (v *validator) fieldShape(n *schema.Node, f *schema.Field, o FieldOverride) {
	ft := f.Type

	if o.Flatten {
		target, ok := v.structTarget(ft)
		if !ok {
			v.mismatch(n.Name, f.Name, "flatten requires a struct or enum node reference, found %s", ft)
		} else if target.Shape == schema.ShapeEnum {
			v.flattenEnum(n, f, target)
		}

		if o.Omit != OmitNone {
			v.mismatch(n.Name, f.Name, "a flattened field cannot be omitted")
		}
	}

	switch o.Omit {
	case OmitEmpty:
		switch ft.Kind {
		case schema.KindSequence, schema.KindDelimited, schema.KindOptional, schema.KindPrimitive:
		default:
			v.mismatch(n.Name, f.Name, "omit empty requires a container, found %s", ft)
		}
	case OmitZero:
		target, ok := v.structTarget(ft)
		if !ok || ft.Kind != schema.KindNodeRef {
			v.mismatch(n.Name, f.Name, "omit zero requires a node reference, found %s", ft)
			return
		}

		if target.Shape == schema.ShapeEnum {
			rule := v.t.Enum(target.Name)
			if rule.Default == "" {
				v.mismatch(n.Name, f.Name, "omit zero on enum %s requires a default variant", target.Name)
			}
		}
	case OmitNone:
	}
}

// structTarget resolves NodeRef (or Indirect(NodeRef)) to its node.
// flattenEnum checks that every variant of target can merge its tag into
// the parent object, which rules out unit variants.
func (v *validator) flattenEnum(n *schema.Node, f *schema.Field, target *schema.Node) {
	if f.Type.Kind != schema.KindNodeRef {
		v.mismatch(n.Name, f.Name, "a flattened enum must be referenced directly, found %s", f.Type)
		return
	}

	for _, variant := range target.Variants {
		if len(variant.Payload) != 1 || variant.Payload[0].IsMarker() {
			v.mismatch(n.Name, f.Name, "cannot flatten enum %s: variant %s has no payload", target.Name, variant.Name)
			return
		}
	}
}

func (v *validator) structTarget(ft *schema.FieldType) (*schema.Node, bool) {
	if ft.Kind == schema.KindIndirect {
		ft = ft.Elem
	}

	if ft.Kind != schema.KindNodeRef {
		return nil, false
	}

	n, ok := v.defs.Lookup(ft.Name)
	if !ok || n.Shape == schema.ShapeOpaque {
		return nil, false
	}

	return n, true
}

func (v *validator) variants() {
	for _, r := range v.t.Variants {
		n, ok := v.node(r.Node, schema.ShapeEnum, "variant rule")
		if !ok {
			continue
		}

		if _, ok := n.Variant(r.Variant); !ok {
			v.missing(n.Name, r.Variant, "variant rule targets undeclared variant%s", match.Hint(r.Variant, n.MemberNames()))
		}

		if r.Rename == "" {
			v.mismatch(n.Name, r.Variant, "variant rule without a spelling")
		}
	}
}

func (v *validator) enums() {
	for _, r := range v.t.Enums {
		n, ok := v.node(r.Node, schema.ShapeEnum, "enum rule")
		if !ok {
			continue
		}

		if r.Default != "" {
			dv, ok := n.Variant(r.Default)
			if !ok {
				v.missing(n.Name, r.Default, "default targets undeclared variant%s", match.Hint(r.Default, n.MemberNames()))
			} else if !dv.IsUnit() && !dv.Payload[0].IsMarker() {
				v.mismatch(n.Name, r.Default, "default variant must carry no data")
			}
		}

		if r.TokenSpelled {
			for _, variant := range n.Variants {
				if len(variant.Payload) != 1 || !variant.Payload[0].IsMarker() {
					v.mismatch(n.Name, variant.Name, "token spelled enum requires a single token payload")
					continue
				}

				if _, ok := v.defs.Token(variant.Payload[0].Name); !ok {
					v.diags.Errorf(diagnostic.CodeUnknownToken, n.Name, variant.Name,
						"token %q is not in the token table", variant.Payload[0].Name)
				}
			}
		}
	}
}

func (v *validator) nodeLists() {
	for _, name := range v.t.Nodes.Manual {
		if _, ok := v.defs.Lookup(name); !ok {
			v.missing(name, "", "manual node is not declared%s", match.Hint(name, v.defs.Names()))
		}
	}

	for _, name := range v.t.Nodes.MultiPayload {
		if _, ok := v.node(name, schema.ShapeEnum, "multi payload allowance"); !ok {
			continue
		}

		if !v.t.IsManual(name) {
			v.diags.Errorf(diagnostic.CodeMultiPayload, name, "",
				"multi payload enums must be hand-written")
		}
	}

	for _, name := range v.t.Nodes.OpaqueRefs {
		v.node(name, schema.ShapeOpaque, "opaque reference allowance")
	}
}

func (v *validator) keywords() {
	for _, k := range v.t.Keywords {
		if _, ok := v.defs.Token(k); !ok {
			v.diags.AddWarning(diagnostic.CodeOverrideMissing, "keyword is not in the token table", "", k)
		}
	}
}

func (v *validator) layouts() {
	for _, r := range v.t.Layouts {
		n, ok := v.node(r.Node, schema.ShapeStruct, "layout rule")
		if !ok {
			continue
		}

		term, ok := n.Field(r.Terminator)
		if !ok {
			v.missing(n.Name, r.Terminator, "layout terminator is not declared%s", match.Hint(r.Terminator, n.MemberNames()))
		} else if term.Type.Kind != schema.KindOptional || !term.Type.Elem.IsMarker() {
			v.mismatch(n.Name, r.Terminator, "layout terminator must be an optional token, found %s", term.Type)
		}

		f, ok := n.Field(r.Field)
		if !ok {
			v.missing(n.Name, r.Field, "layout field is not declared%s", match.Hint(r.Field, n.MemberNames()))
			continue
		}

		switch {
		case r.Body == (len(r.Shapes) > 0):
			v.mismatch(n.Name, r.Field, "layout rule needs exactly one of shapes or body")
		case r.Body:
			if f.Type.Kind != schema.KindOptional {
				v.mismatch(n.Name, r.Field, "layout body must be optional, found %s", f.Type)
			}
		default:
			v.layoutShapes(n, f, r)
		}
	}
}

func (v *validator) layoutShapes(n *schema.Node, f *schema.Field, r LayoutRule) {
	target, ok := v.structTarget(f.Type)
	if !ok || f.Type.Kind != schema.KindNodeRef || target.Shape != schema.ShapeEnum {
		v.mismatch(n.Name, f.Name, "layout shapes require an enum reference, found %s", f.Type)
		return
	}

	for _, name := range slices.Sorted(maps.Keys(r.Shapes)) {
		layout := r.Shapes[name]
		if _, ok := target.Variant(name); !ok {
			v.missing(target.Name, name, "layout shape targets undeclared variant%s", match.Hint(name, target.MemberNames()))
		}

		if !slices.Contains([]Layout{LayoutRecord, LayoutTuple, LayoutEmpty}, layout) {
			v.mismatch(target.Name, name, "unknown layout %q", layout)
		}
	}

	for _, variant := range target.Variants {
		if _, ok := r.Shapes[variant.Name]; !ok {
			v.mismatch(target.Name, variant.Name, "variant has no layout")
		}
	}
}

func (v *validator) bindings() {
	for _, name := range v.t.ForeignNames() {
		b := v.t.Foreign[name]
		if b.Position && b.Default == "" {
			v.mismatch("", name, "position binding requires a default expression")
		}

		if b.Position && b.IsTextual() {
			v.mismatch("", name, "position binding cannot convert")
		}

		if b.Fallible && b.Rebuild == "" {
			v.mismatch("", name, "fallible binding requires a rebuild template")
		}
	}
}
