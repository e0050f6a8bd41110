package schema

import (
	"slices"

	"mirror-generator/internal/diagnostic"
	"mirror-generator/internal/match"
)

// ValidateOptions carries the allow-lists consulted by Validate.
type ValidateOptions struct {
	// Features is the active feature set. Nil enables every node.
	Features []string
	// Foreign lists the foreign types with a known binding.
	Foreign []string
	// Excluded lists reference targets that may stay unresolved.
	Excluded []string
	// OpaqueRefs lists opaque nodes that may be referenced.
	OpaqueRefs []string
	// MultiPayload lists enums allowed to declare multi-payload variants.
	MultiPayload []string
}

// Validate checks the structural invariants of defs. Every problem is
// reported; the caller decides whether to stop on errors.
func Validate(defs *Definitions, opts ValidateOptions) *diagnostic.Diagnostics {
	diags := &diagnostic.Diagnostics{}

	seen := make(map[string]bool, len(defs.Nodes))
	for _, n := range defs.Nodes {
		if seen[n.Name] {
			diags.Errorf(diagnostic.CodeDuplicateNode, n.Name, "", "node declared more than once")
		}

		seen[n.Name] = true
	}

	for _, n := range defs.Sorted() {
		if opts.Features != nil && !n.AvailableIn(opts.Features) {
			continue
		}

		switch n.Shape {
		case ShapeStruct:
			if len(n.Fields) == 0 {
				diags.AddWarning(diagnostic.CodeEmptyStruct, "struct declares no fields", n.Name, "")
			}

			fieldNames := map[string]bool{}
			for _, f := range n.Fields {
				if fieldNames[f.Name] {
					diags.Errorf(diagnostic.CodeMalformed, n.Name, f.Name, "field declared more than once")
				}

				fieldNames[f.Name] = true

				validateType(diags, defs, opts, n.Name, f.Name, f.Type)
			}
		case ShapeEnum:
			if len(n.Variants) == 0 {
				diags.Errorf(diagnostic.CodeMalformed, n.Name, "", "enum declares no variants")
			}

			variantNames := map[string]bool{}
			for _, v := range n.Variants {
				if variantNames[v.Name] {
					diags.Errorf(diagnostic.CodeMalformed, n.Name, v.Name, "variant declared more than once")
				}

				variantNames[v.Name] = true

				if len(v.Payload) > 1 && !slices.Contains(opts.MultiPayload, n.Name) {
					diags.Errorf(diagnostic.CodeMultiPayload, n.Name, v.Name,
						"variant declares %d payload types", len(v.Payload))
				}

				for _, p := range v.Payload {
					validateType(diags, defs, opts, n.Name, v.Name, p)
				}
			}
		case ShapeOpaque:
		}
	}

	return diags
}

func validateType(
	diags *diagnostic.Diagnostics,
	defs *Definitions,
	opts ValidateOptions,
	node, member string,
	ft *FieldType,
) {
	ft.Walk(func(t *FieldType) {
		switch t.Kind {
		case KindToken, KindGroup:
			if _, ok := defs.Token(t.Name); !ok {
				diags.Errorf(diagnostic.CodeUnknownToken, node, member, "%s %q is not in the token table", t.Kind, t.Name)
			}
		case KindDelimited:
			if _, ok := defs.Token(t.Punct); !ok {
				diags.Errorf(diagnostic.CodeUnknownToken, node, member, "separator %q is not in the token table", t.Punct)
			}
		case KindNodeRef:
			if slices.Contains(opts.Excluded, t.Name) {
				return
			}

			target, ok := defs.Lookup(t.Name)
			if !ok {
				diags.Errorf(diagnostic.CodeUnresolvedRef, node, member,
					"reference to undeclared node %q%s", t.Name, match.Hint(t.Name, defs.Names()))

				return
			}

			if target.Shape == ShapeOpaque && !slices.Contains(opts.OpaqueRefs, t.Name) {
				diags.Errorf(diagnostic.CodeOpaqueRef, node, member, "reference to opaque node %q is not permitted", t.Name)
			}

			if opts.Features != nil && !target.AvailableIn(opts.Features) {
				diags.Errorf(diagnostic.CodeExcludedRef, node, member,
					"reference to %q which is not available under the active features", t.Name)
			}
		case KindForeignRef:
			if !slices.Contains(opts.Foreign, t.Name) && !slices.Contains(opts.Excluded, t.Name) {
				diags.Errorf(diagnostic.CodeUnresolvedRef, node, member,
					"foreign type %q has no binding%s", t.Name, match.Hint(t.Name, opts.Foreign))
			}
		case KindTuple:
			if len(t.Items) == 0 {
				diags.Errorf(diagnostic.CodeMalformed, node, member, "empty tuple")
			}
		case KindIndirect, KindSequence, KindOptional, KindPrimitive, KindInvalid:
		}
	})
}
