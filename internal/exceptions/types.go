package exceptions

import (
	"errors"
	"fmt"
	"maps"
	"path"
	"slices"

	"gopkg.in/yaml.v3"
)

// Wildcard matches every node in a field rule.
const Wildcard = "*"

// Tables is the root of an exceptions file.
type Tables struct {
	// Version of the exceptions file format.
	Version string `yaml:"version,omitempty"`

	// Fields are per-(node, field) overrides.
	Fields []FieldRule `yaml:"fields,omitempty"`

	// Variants are per-(node, variant) spellings.
	Variants []VariantRule `yaml:"variants,omitempty"`

	// Enums are per-enum settings.
	Enums []EnumRule `yaml:"enums,omitempty"`

	// Nodes are per-node allow and deny lists.
	Nodes NodeLists `yaml:"nodes,omitempty"`

	// Keywords lists keyword tokens. An optional keyword field serializes
	// under the keyword's spelling, e.g. "mut".
	Keywords []string `yaml:"keywords,omitempty"`

	// Layouts are reconstruction-time consistency rules.
	Layouts []LayoutRule `yaml:"layouts,omitempty"`

	// Foreign binds foreign type names to Go code.
	Foreign map[string]Binding `yaml:"foreign,omitempty"`

	// Primitives binds primitive type names to Go code.
	Primitives map[string]Binding `yaml:"primitives,omitempty"`
}

// OmitKind selects the omit-if-default predicate of a mirror field.
type OmitKind string

const (
	// OmitNone keeps the field in the serialized form.
	OmitNone OmitKind = ""
	// OmitEmpty omits an empty container or false presence flag.
	OmitEmpty OmitKind = "empty"
	// OmitZero omits a structured value equal to its default.
	OmitZero OmitKind = "zero"
)

// IsValid returns true if the kind is a recognized value.
func (k OmitKind) IsValid() bool {
	return k == OmitNone || k == OmitEmpty || k == OmitZero
}

// UnmarshalYAML implements yaml.Unmarshaler and rejects unknown kinds.
func (k *OmitKind) UnmarshalYAML(node *yaml.Node) error {
	var s string
	if err := node.Decode(&s); err != nil {
		return err
	}

	kind := OmitKind(s)
	if !kind.IsValid() {
		return fmt.Errorf("line %d: unknown omit kind %q (want empty or zero)", node.Line, s)
	}

	*k = kind

	return nil
}

// StringArray is a string slice that can be unmarshaled from a single
// string or a list.
type StringArray []string

// UnmarshalYAML implements yaml.Unmarshaler.
func (s *StringArray) UnmarshalYAML(node *yaml.Node) error {
	switch node.Kind {
	case yaml.ScalarNode:
		var single string
		if err := node.Decode(&single); err != nil {
			return err
		}

		*s = StringArray{single}

		return nil
	case yaml.SequenceNode:
		var multi []string
		if err := node.Decode(&multi); err != nil {
			return err
		}

		*s = multi

		return nil
	default:
		return errors.New("expected string or list of strings")
	}
}

// FieldRule overrides the mirror treatment of one or more fields.
type FieldRule struct {
	// Node is the owning node, or "*" for every node.
	Node string `yaml:"node"`
	// Field is the schema field name (or names).
	Field StringArray `yaml:"field"`
	// Rename sets the serialized field name.
	Rename string `yaml:"rename,omitempty"`
	// Flatten merges the field's members into the parent object.
	Flatten bool `yaml:"flatten,omitempty"`
	// Omit selects the omit-if-default predicate.
	Omit OmitKind `yaml:"omit,omitempty"`
}

// VariantRule fixes the serialized name of an enum variant.
type VariantRule struct {
	Node    string `yaml:"node"`
	Variant string `yaml:"variant"`
	Rename  string `yaml:"rename"`
}

// EnumRule holds per-enum settings.
type EnumRule struct {
	Node string `yaml:"node"`
	// TokenSpelled names every variant by its token payload's spelling.
	TokenSpelled bool `yaml:"token_spelled,omitempty"`
	// Default is the variant an omitted field decodes to.
	Default string `yaml:"default,omitempty"`
}

// NodeLists are per-node allow and deny lists.
type NodeLists struct {
	// Manual nodes have hand-written mirrors and conversions.
	Manual []string `yaml:"manual,omitempty"`
	// MultiPayload enums may declare variants with several payloads.
	MultiPayload []string `yaml:"multi_payload,omitempty"`
	// OpaqueRefs are opaque nodes that may be referenced. References to
	// them are dropped from the mirror.
	OpaqueRefs []string `yaml:"opaque_refs,omitempty"`
	// Excluded are reference targets allowed to stay unresolved.
	Excluded []string `yaml:"excluded,omitempty"`
	// PassthroughDisallow are node name patterns never made passthrough.
	PassthroughDisallow []string `yaml:"passthrough_disallow,omitempty"`
	// PassthroughDisallowFields are field names that never make their
	// node passthrough, e.g. modifier lists.
	PassthroughDisallowFields []string `yaml:"passthrough_disallow_fields,omitempty"`
}

// Layout classifies the physical shape of a struct-like node.
type Layout string

const (
	LayoutRecord Layout = "record"
	LayoutTuple  Layout = "tuple"
	LayoutEmpty  Layout = "empty"
)

// LayoutRule ties a field's shape to a separately stored terminator flag.
//
// With Shapes set, Field names an enum and each variant maps to a layout:
// a record layout must not be terminated, tuple and empty layouts must be.
// With Body set, Field names an optional body: a present body must not be
// terminated, an absent one must be.
type LayoutRule struct {
	Node       string            `yaml:"node"`
	Field      string            `yaml:"field"`
	Terminator string            `yaml:"terminator"`
	Shapes     map[string]Layout `yaml:"shapes,omitempty"`
	Body       bool              `yaml:"body,omitempty"`
}

// Binding tells the generator how a foreign or primitive type maps to Go.
//
// Project and Rebuild are text/template snippets applied to the source
// expression ("{{.}}"). Empty snippets mean identity.
type Binding struct {
	// Orig is the Go type on the original side.
	Orig string `yaml:"orig"`
	// Mirror is the Go type on the mirror side. Defaults to Orig.
	Mirror string `yaml:"mirror,omitempty"`
	// Position marks source-position handles, dropped from the mirror.
	Position bool `yaml:"position,omitempty"`
	// Default is the expression rebuilding a dropped position.
	Default string `yaml:"default,omitempty"`
	// Project converts an original value into its mirror value.
	Project string `yaml:"project,omitempty"`
	// Rebuild converts a mirror value back.
	Rebuild string `yaml:"rebuild,omitempty"`
	// Fallible marks Rebuild as returning (value, error).
	Fallible bool `yaml:"fallible,omitempty"`
}

// IsTextual reports whether the binding converts between representations.
func (b *Binding) IsTextual() bool {
	return b.Project != "" || b.Rebuild != ""
}

// MirrorType returns the Go type used in the mirror.
func (b *Binding) MirrorType() string {
	if b.Mirror != "" {
		return b.Mirror
	}

	return b.Orig
}

// FieldOverride is the merged result of every rule matching a field.
type FieldOverride struct {
	Rename  string
	Flatten bool
	Omit    OmitKind
}

// Field merges the rules for (node, field). Wildcard rules apply first so
// that exact rules win.
func (t *Tables) Field(node, field string) FieldOverride {
	var out FieldOverride

	apply := func(r *FieldRule) {
		if r.Rename != "" {
			out.Rename = r.Rename
		}

		if r.Flatten {
			out.Flatten = true
		}

		if r.Omit != OmitNone {
			out.Omit = r.Omit
		}
	}

	for _, target := range []string{Wildcard, node} {
		for i := range t.Fields {
			r := &t.Fields[i]
			if r.Node == target && slices.Contains(r.Field, field) {
				apply(r)
			}
		}
	}

	return out
}

// VariantName returns the fixed spelling of (node, variant), if any.
func (t *Tables) VariantName(node, variant string) (string, bool) {
	for _, r := range t.Variants {
		if r.Node == node && r.Variant == variant {
			return r.Rename, true
		}
	}

	return "", false
}

// Enum returns the settings of an enum node.
func (t *Tables) Enum(node string) EnumRule {
	for _, r := range t.Enums {
		if r.Node == node {
			return r
		}
	}

	return EnumRule{Node: node}
}

// IsManual reports whether node is hand-written.
func (t *Tables) IsManual(node string) bool {
	return slices.Contains(t.Nodes.Manual, node)
}

// IsKeyword reports whether token is a keyword token.
func (t *Tables) IsKeyword(token string) bool {
	return slices.Contains(t.Keywords, token)
}

// PassthroughAllowed reports whether node may serialize as its single
// remaining field.
func (t *Tables) PassthroughAllowed(node, field string) bool {
	if slices.Contains(t.Nodes.PassthroughDisallowFields, field) {
		return false
	}

	for _, pattern := range t.Nodes.PassthroughDisallow {
		if ok, _ := path.Match(pattern, node); ok {
			return false
		}
	}

	return true
}

// Layout returns the layout rule for node, if any.
func (t *Tables) Layout(node string) (*LayoutRule, bool) {
	for i := range t.Layouts {
		if t.Layouts[i].Node == node {
			return &t.Layouts[i], true
		}
	}

	return nil, false
}

// ForeignBinding returns the binding of a foreign type.
func (t *Tables) ForeignBinding(name string) (*Binding, bool) {
	b, ok := t.Foreign[name]
	if !ok {
		return nil, false
	}

	return &b, true
}

// PrimitiveBinding returns the binding of a primitive type. Unbound
// primitives map to the Go type of the same name.
func (t *Tables) PrimitiveBinding(name string) *Binding {
	if b, ok := t.Primitives[name]; ok {
		return &b
	}

	return &Binding{Orig: name}
}

// ForeignNames returns the bound foreign type names, sorted.
func (t *Tables) ForeignNames() []string {
	return slices.Sorted(maps.Keys(t.Foreign))
}
