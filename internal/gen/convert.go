package gen

import (
	"fmt"

	"mirror-generator/internal/classify"
	"mirror-generator/internal/plan"
)

// payloadRecipe returns the recipe of one payload value. The original
// payload field is always a pointer, so a boxed payload's Box is implied.
func payloadRecipe(v *plan.VariantPlan) *classify.Recipe {
	if v.Payload.Op == classify.OpBox {
		return v.Payload.Elem
	}

	return v.Payload
}

// conversions emits the projection and reconstruction pair of every
// generated node.
func (e *emitter) conversions() error {
	for _, s := range e.p.Structs {
		e.structToMirror(s)
		e.structFromMirror(s)
	}

	for _, en := range e.p.Enums {
		e.enumToMirror(en)
		e.enumFromMirror(en)
	}

	return e.err
}

func (e *emitter) structToMirror(s *plan.StructPlan) {
	e.resetVars()

	e.printf("// %s converts an ast.%s into its mirror.", mirrorFunc(s.Name), s.Name)
	e.printf("func %s(in ast.%s) %s {", mirrorFunc(s.Name), s.Name, s.Name)
	e.printf("\treturn %s{", s.Name)

	for _, f := range s.Emitted() {
		e.printf("\t\t%s: %s,", f.MirrorName(), e.project(f.Recipe, "in."+f.GoName))
	}

	e.printf("\t}")
	e.printf("}")
	e.printf("")
}

func (e *emitter) structFromMirror(s *plan.StructPlan) {
	e.resetVars()

	zero := "ast." + s.Name + "{}"

	e.printf("// %s rebuilds an ast.%s from its mirror.", rebuildFunc(s.Name), s.Name)
	e.printf("func %s(in %s) (ast.%s, error) {", rebuildFunc(s.Name), s.Name, s.Name)

	if s.Layout != nil {
		e.layoutCheck(s, zero)
	}

	e.printf("\tvar out ast.%s", s.Name)

	fallible := false

	for _, f := range s.Fields {
		if f.Emitted() && f.Recipe.Fallible() {
			fallible = true

			break
		}
	}

	if fallible {
		e.printf("\tvar err error")
	}

	e.printf("")

	for _, f := range s.Fields {
		target := "out." + f.GoName

		switch {
		case !f.Emitted():
			e.printf("\t%s = %s", target, e.rebuild(f.Recipe, ""))
		case f.Recipe.Fallible():
			e.printf("\t%s, err = %s", target, e.rebuild(f.Recipe, "in."+f.MirrorName()))
			e.printf("\tif err != nil {")
			e.printf("\t\treturn %s, mirror.WithField(err, %s, %s)", zero, quote(s.Name), quote(f.JSONName))
			e.printf("\t}")
		default:
			e.printf("\t%s = %s", target, e.rebuild(f.Recipe, "in."+f.MirrorName()))
		}
	}

	e.printf("")
	e.printf("\treturn out, nil")
	e.printf("}")
	e.printf("")
}

// layoutCheck emits the terminator consistency check of a struct.
func (e *emitter) layoutCheck(s *plan.StructPlan, zero string) {
	rule := s.Layout

	field, ok := s.Field(rule.Field)
	if !ok || !field.Emitted() {
		e.fail(fmt.Errorf("layout of %s names missing field %s", s.Name, rule.Field))

		return
	}

	term, ok := s.Field(rule.Terminator)
	if !ok || !term.Emitted() {
		e.fail(fmt.Errorf("layout of %s names missing terminator %s", s.Name, rule.Terminator))

		return
	}

	terminated := "in." + term.MirrorName()
	value := "in." + field.MirrorName()

	if rule.Body {
		e.printf("\tif err := mirror.CheckBody(%s, %s != nil, %s); err != nil {", quote(s.Name), value, terminated)
		e.printf("\t\treturn %s, err", zero)
		e.printf("\t}")
		e.printf("")

		return
	}

	if field.Recipe.Mirror.IsPointer() {
		value = "mirror.OrZero(" + value + ")"
	}

	enum := field.Recipe.Mirror.String()
	if field.Recipe.Mirror.IsPointer() {
		enum = field.Recipe.Mirror.Elem.String()
	}

	en, ok := e.p.Enum(enum)
	if !ok {
		e.fail(fmt.Errorf("layout of %s: field %s is not an enum", s.Name, rule.Field))

		return
	}

	e.printf("\tvar layout mirror.Layout")
	e.printf("")
	e.printf("\tswitch %s.Kind {", value)

	for _, v := range en.Variants {
		layout, ok := rule.Shapes[v.Name]
		if !ok {
			continue
		}

		e.printf("\tcase %s:", kindConst(en.Name, v.Name))
		e.printf("\t\tlayout = %s", layoutConst(string(layout)))
	}

	if en.CatchAll {
		e.printf("\tcase %s:", kindConst(en.Name, "Unknown"))
		e.printf("\t\treturn %s, mirror.Unreachable(%s)", zero, quote(en.Name))
	}

	e.printf("\t}")
	e.printf("")
	e.printf("\tif err := mirror.CheckLayout(%s, layout, %s); err != nil {", quote(s.Name), terminated)
	e.printf("\t\treturn %s, err", zero)
	e.printf("\t}")
	e.printf("")
}

func layoutConst(layout string) string {
	switch layout {
	case "record":
		return "mirror.LayoutRecord"
	case "tuple":
		return "mirror.LayoutTuple"
	default:
		return "mirror.LayoutEmpty"
	}
}

func (e *emitter) enumToMirror(en *plan.EnumPlan) {
	e.resetVars()

	e.printf("// %s converts an ast.%s into its mirror.", mirrorFunc(en.Name), en.Name)
	e.printf("func %s(in ast.%s) %s {", mirrorFunc(en.Name), en.Name, en.Name)
	e.printf("\tswitch in.Kind {")

	for _, v := range en.Variants {
		e.printf("\tcase ast.%s:", kindConst(en.Name, v.Name))

		if !v.HasPayload() {
			e.printf("\t\treturn %s{Kind: %s}", en.Name, kindConst(en.Name, v.Name))

			continue
		}

		payload := "mirror.MapPtr(in." + v.Name + ", " + e.projectFn(payloadRecipe(v)) + ")"
		e.printf("\t\treturn %s{Kind: %s, %s: %s}", en.Name, kindConst(en.Name, v.Name), v.Name, payload)
	}

	e.printf("\tdefault:")
	e.printf("\t\tpanic(mirror.InvalidKind(%s, in.Kind))", quote(en.Name))
	e.printf("\t}")
	e.printf("}")
	e.printf("")
}

func (e *emitter) enumFromMirror(en *plan.EnumPlan) {
	e.resetVars()

	zero := "ast." + en.Name + "{}"

	e.printf("// %s rebuilds an ast.%s from its mirror.", rebuildFunc(en.Name), en.Name)
	e.printf("func %s(in %s) (ast.%s, error) {", rebuildFunc(en.Name), en.Name, en.Name)
	e.printf("\tswitch in.Kind {")

	for _, v := range en.Variants {
		orig := "ast." + kindConst(en.Name, v.Name)

		e.printf("\tcase %s:", kindConst(en.Name, v.Name))

		switch {
		case !v.HasOrigPayload():
			e.printf("\t\treturn ast.%s{Kind: %s}, nil", en.Name, orig)

		case !v.HasPayload():
			e.printf("\t\treturn ast.%s{Kind: %s, %s: mirror.Box(%s)}, nil",
				en.Name, orig, v.Name, e.rebuild(payloadRecipe(v), ""))

		default:
			r := payloadRecipe(v)

			e.printf("\t\tif in.%s == nil {", v.Name)
			e.printf("\t\t\treturn %s, mirror.MissingPayload(%s, %s)", zero, quote(en.Name), quote(v.Name))
			e.printf("\t\t}")
			e.printf("")

			if !r.Fallible() {
				fn := e.rebuildFn(r, r.Mirror.String(), false)
				e.printf("\t\treturn ast.%s{Kind: %s, %s: mirror.MapPtr(in.%s, %s)}, nil", en.Name, orig, v.Name, v.Name, fn)

				continue
			}

			fn := e.rebuildFn(r, r.Mirror.String(), true)
			e.printf("\t\tpayload, err := mirror.TryMapPtr(in.%s, %s)", v.Name, fn)
			e.printf("\t\tif err != nil {")
			e.printf("\t\t\treturn %s, mirror.WithField(err, %s, %s)", zero, quote(en.Name), quote(v.JSONName))
			e.printf("\t\t}")
			e.printf("")
			e.printf("\t\treturn ast.%s{Kind: %s, %s: payload}, nil", en.Name, orig, v.Name)
		}
	}

	if en.CatchAll {
		e.printf("\tcase %s:", kindConst(en.Name, "Unknown"))
		e.printf("\t\treturn %s, mirror.Unreachable(%s)", zero, quote(en.Name))
	}

	e.printf("\tdefault:")
	e.printf("\t\treturn %s, mirror.Inconsistent(%s, \"invalid kind %%d\", in.Kind)", zero, quote(en.Name))
	e.printf("\t}")
	e.printf("}")
	e.printf("")
}
