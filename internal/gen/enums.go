package gen

import "mirror-generator/internal/plan"

// enums emits the mirror type, kind constants and JSON methods of every
// enum plan in name order.
func (e *emitter) enums() error {
	for _, en := range e.p.Enums {
		e.enumType(en)
		e.enumMarshal(en)
		e.enumUnmarshal(en)
	}

	return e.err
}

func kindConst(enum, variant string) string {
	return enum + "Kind" + variant
}

func (e *emitter) enumType(en *plan.EnumPlan) {
	kind := en.Name + "Kind"

	e.printf("// %s mirrors ast.%s.", en.Name, en.Name)
	e.printf("type %s struct {", en.Name)
	e.printf("\tKind %s", kind)

	for _, v := range en.Variants {
		if v.HasPayload() {
			e.printf("\t%s *%s", v.Name, payloadRecipe(v).Mirror)
		}
	}

	if en.CatchAll {
		e.printf("\tUnknown *mirror.RawVariant")
	}

	e.printf("}")
	e.printf("")
	e.printf("// %s selects the variant of %s.", kind, en.Name)
	e.printf("type %s int", kind)
	e.printf("")
	e.printf("const (")

	for _, v := range en.Variants {
		e.printf("\t%s %s = %d", kindConst(en.Name, v.Name), kind, v.Kind)
	}

	if en.CatchAll {
		e.printf("\t%s %s = %d", kindConst(en.Name, "Unknown"), kind, en.UnknownKind)
	}

	e.printf(")")
	e.printf("")
}

func (e *emitter) enumMarshal(en *plan.EnumPlan) {
	e.printf("func (m %s) MarshalJSON() ([]byte, error) {", en.Name)
	e.printf("\tswitch m.Kind {")

	for _, v := range en.Variants {
		e.printf("\tcase %s:", kindConst(en.Name, v.Name))

		if v.HasPayload() {
			e.printf("\t\treturn mirror.MarshalVariant(%s, m.%s)", quote(v.JSONName), v.Name)
		} else {
			e.printf("\t\treturn mirror.MarshalUnit(%s)", quote(v.JSONName))
		}
	}

	if en.CatchAll {
		e.printf("\tcase %s:", kindConst(en.Name, "Unknown"))
		e.printf("\t\treturn mirror.MarshalRaw(m.Unknown)")
	}

	e.printf("\tdefault:")
	e.printf("\t\treturn nil, mirror.InvalidKind(%s, m.Kind)", quote(en.Name))
	e.printf("\t}")
	e.printf("}")
	e.printf("")
}

func (e *emitter) enumUnmarshal(en *plan.EnumPlan) {
	e.printf("func (m *%s) UnmarshalJSON(data []byte) error {", en.Name)
	e.printf("\tname, payload, err := mirror.UnmarshalVariant(data)")
	e.printf("\tif err != nil {")
	e.printf("\t\treturn err")
	e.printf("\t}")
	e.printf("")
	e.printf("\t*m = %s{}", en.Name)
	e.printf("")
	e.printf("\tswitch name {")

	for _, v := range en.Variants {
		e.printf("\tcase %s:", quote(v.JSONName))
		e.printf("\t\tm.Kind = %s", kindConst(en.Name, v.Name))

		if v.HasPayload() {
			e.printf("\t\treturn mirror.DecodePayload(%s, name, payload, &m.%s)", quote(en.Name), v.Name)
		} else {
			e.printf("\t\treturn mirror.ExpectUnit(%s, name, payload)", quote(en.Name))
		}
	}

	e.printf("\tdefault:")

	if en.CatchAll {
		e.printf("\t\tm.Kind = %s", kindConst(en.Name, "Unknown"))
		e.printf("\t\tm.Unknown = mirror.NewRawVariant(name, payload)")
		e.printf("")
		e.printf("\t\treturn nil")
	} else {
		e.printf("\t\treturn mirror.UnknownVariant(%s, name)", quote(en.Name))
	}

	e.printf("\t}")
	e.printf("}")
	e.printf("")
}
