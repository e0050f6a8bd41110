package plan

import (
	"mirror-generator/internal/classify"
	"mirror-generator/internal/diagnostic"
	"mirror-generator/internal/exceptions"
	"mirror-generator/internal/schema"
)

// Plan is the final output of the planning pipeline.
// It contains everything needed for code generation.
type Plan struct {
	// Structs are the struct mirrors, sorted by name.
	Structs []*StructPlan
	// Enums are the enum mirrors, sorted by name.
	Enums []*EnumPlan
	// Empty lists synthetically empty struct nodes. They get no mirror.
	Empty []string
	// Manual lists hand-written nodes. Generated code calls their
	// conversion functions but does not define them.
	Manual []string
	// Opaque lists opaque nodes.
	Opaque []string
	// Defs is the schema the plan was built from.
	Defs *schema.Definitions
	// Tables are the exception tables the plan was built with.
	Tables *exceptions.Tables
	// Classifier classified every type in the plan.
	Classifier *classify.Classifier
	// Diagnostics contains all warnings and errors from planning.
	Diagnostics diagnostic.Diagnostics
}

// Struct returns the struct plan with the given name.
func (p *Plan) Struct(name string) (*StructPlan, bool) {
	for _, s := range p.Structs {
		if s.Name == name {
			return s, true
		}
	}

	return nil, false
}

// Enum returns the enum plan with the given name.
func (p *Plan) Enum(name string) (*EnumPlan, bool) {
	for _, e := range p.Enums {
		if e.Name == name {
			return e, true
		}
	}

	return nil, false
}

// StructPlan describes the mirror of one struct node.
type StructPlan struct {
	Name string
	// Fields holds every schema field in declaration order, dropped ones
	// included, because reconstruction still has to fill them.
	Fields []*FieldPlan
	// Passthrough is the single field the mirror serializes as, if any.
	Passthrough *FieldPlan
	// Layout is the consistency rule checked on reconstruction, if any.
	Layout *exceptions.LayoutRule
}

// Emitted returns the fields present in the mirror.
func (s *StructPlan) Emitted() []*FieldPlan {
	var out []*FieldPlan

	for _, f := range s.Fields {
		if f.Emitted() {
			out = append(out, f)
		}
	}

	return out
}

// FlattenedEnum returns the flattened enum field, if any.
func (s *StructPlan) FlattenedEnum() (*FieldPlan, bool) {
	for _, f := range s.Emitted() {
		if f.FlattenEnum {
			return f, true
		}
	}

	return nil, false
}

// Field returns the field plan with the given schema name.
func (s *StructPlan) Field(name string) (*FieldPlan, bool) {
	for _, f := range s.Fields {
		if f.Name == name {
			return f, true
		}
	}

	return nil, false
}

// FieldPlan describes one field of a struct mirror.
type FieldPlan struct {
	// Name is the schema field name.
	Name string
	// GoName is the exported Go field name on both sides.
	GoName string
	// JSONName is the serialized key.
	JSONName string
	// Recipe converts the field. An omit-zero field is wrapped in a
	// Defaulted recipe.
	Recipe *classify.Recipe
	// Flatten embeds the field's struct mirror, or with FlattenEnum
	// merges the enum's variant member into the parent object.
	Flatten bool
	// FlattenEnum marks a flattened field of enum type.
	FlattenEnum bool
	// Omit is the omit-if-default predicate.
	Omit exceptions.OmitKind
}

// Emitted reports whether the field is present in the mirror.
func (f *FieldPlan) Emitted() bool {
	return !f.Recipe.Dropped()
}

// MirrorName returns the Go field name in the mirror. An embedded field
// is named after its type.
func (f *FieldPlan) MirrorName() string {
	if f.Flatten && !f.FlattenEnum {
		return embeddedName(f.Recipe.Mirror)
	}

	return f.GoName
}

// Tag returns the struct tag of the mirror field, empty for embedded
// fields. A flattened enum is skipped by the struct encoding and written
// by the mirror's own MarshalJSON.
func (f *FieldPlan) Tag() string {
	if f.FlattenEnum {
		return `json:"-"`
	}

	if f.Flatten {
		return ""
	}

	if f.Omit != exceptions.OmitNone {
		return `json:"` + f.JSONName + `,omitempty"`
	}

	return `json:"` + f.JSONName + `"`
}

func embeddedName(t *classify.Type) string {
	if t.IsPointer() {
		return t.Elem.Name
	}

	return t.Name
}

// EnumPlan describes the mirror of one enum node.
type EnumPlan struct {
	Name       string
	Exhaustive bool
	Variants   []*VariantPlan
	// Default names the variant omitted when omit-zero applies.
	Default string
	// CatchAll adds an Unknown variant preserving unrecognized input.
	CatchAll bool
	// UnknownKind is the Kind value of the catch-all.
	UnknownKind int
}

// Variant returns the variant plan with the given schema name.
func (e *EnumPlan) Variant(name string) (*VariantPlan, bool) {
	for _, v := range e.Variants {
		if v.Name == name {
			return v, true
		}
	}

	return nil, false
}

// VariantPlan describes one mirror enum variant.
type VariantPlan struct {
	// Name is the schema variant name, also the Go payload field name.
	Name string
	// JSONName is the external tag.
	JSONName string
	// Payload converts the payload, nil for unit variants.
	Payload *classify.Recipe
	// Kind is the value of the mirror Kind constant.
	Kind int
}

// HasPayload reports whether the mirror variant carries a payload.
func (v *VariantPlan) HasPayload() bool {
	return v.Payload != nil && !v.Payload.Dropped()
}

// HasOrigPayload reports whether the original variant carries a payload.
func (v *VariantPlan) HasOrigPayload() bool {
	return v.Payload != nil
}
