package gen

import (
	"strings"

	"mirror-generator/internal/plan"
)

// structs emits the mirror type of every struct plan in name order.
func (e *emitter) structs() error {
	for _, s := range e.p.Structs {
		e.structType(s)
	}

	return e.err
}

func (e *emitter) structType(s *plan.StructPlan) {
	e.printf("// %s mirrors ast.%s.", s.Name, s.Name)
	e.printf("type %s struct {", s.Name)

	for _, f := range s.Emitted() {
		if f.Flatten && !f.FlattenEnum {
			e.printf("\t%s", f.Recipe.Mirror)

			continue
		}

		e.printf("\t%s %s `%s`", f.MirrorName(), f.Recipe.Mirror, f.Tag())
	}

	e.printf("}")
	e.printf("")

	if f, ok := s.FlattenedEnum(); ok {
		e.flattenedMethods(s, f)

		return
	}

	if s.Passthrough == nil {
		return
	}

	// The mirror serializes as its single field.
	name := s.Passthrough.MirrorName()

	e.printf("func (m %s) MarshalJSON() ([]byte, error) {", s.Name)
	e.printf("\treturn mirror.Marshal(m.%s)", name)
	e.printf("}")
	e.printf("")
	e.printf("func (m *%s) UnmarshalJSON(data []byte) error {", s.Name)
	e.printf("\treturn mirror.Unmarshal(data, &m.%s)", name)
	e.printf("}")
	e.printf("")
}

// flattenedMethods merges the variant member of f into the object of s.
// The local plain type drops the methods so the struct tags apply.
func (e *emitter) flattenedMethods(s *plan.StructPlan, f *plan.FieldPlan) {
	keys := "nil"
	if own := e.p.ObjectKeys(s); len(own) > 0 {
		quoted := make([]string, 0, len(own))
		for _, k := range own {
			quoted = append(quoted, quote(k))
		}

		keys = "[]string{" + strings.Join(quoted, ", ") + "}"
	}

	e.printf("func (m %s) MarshalJSON() ([]byte, error) {", s.Name)
	e.printf("\ttype plain %s", s.Name)
	e.printf("")
	e.printf("\treturn mirror.MarshalFlattened(plain(m), m.%s)", f.MirrorName())
	e.printf("}")
	e.printf("")
	e.printf("func (m *%s) UnmarshalJSON(data []byte) error {", s.Name)
	e.printf("\ttype plain %s", s.Name)
	e.printf("")
	e.printf("\treturn mirror.UnmarshalFlattened(%s, data, (*plain)(m), %s, &m.%s)",
		quote(s.Name), keys, f.MirrorName())
	e.printf("}")
	e.printf("")
}
