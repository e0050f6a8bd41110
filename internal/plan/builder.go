package plan

import (
	"errors"
	"io"
	"log/slog"
	"strings"

	"mirror-generator/internal/classify"
	"mirror-generator/internal/common"
	"mirror-generator/internal/diagnostic"
	"mirror-generator/internal/exceptions"
	"mirror-generator/internal/schema"
)

// catchAllVariant is the Go name of the catch-all variant.
const catchAllVariant = "Unknown"

// kindField is the Go name of the discriminant field of enum mirrors.
const kindField = "Kind"

// Config holds configuration for planning.
type Config struct {
	// Features restricts the schema to nodes available under these
	// features. Nil keeps every node.
	Features []string
	// Logger receives per-pass summaries. Nil discards.
	Logger *slog.Logger
}

// Builder performs the planning pipeline.
type Builder struct {
	defs   *schema.Definitions
	tables *exceptions.Tables
	config Config
	logger *slog.Logger
}

// NewBuilder creates a new Builder.
func NewBuilder(defs *schema.Definitions, tables *exceptions.Tables, config Config) *Builder {
	logger := config.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	if tables == nil {
		tables = exceptions.Default()
	}

	return &Builder{
		defs:   defs.Filter(config.Features),
		tables: tables,
		config: config,
		logger: logger,
	}
}

// Build runs the planning pipeline. The returned plan is never nil and
// carries every diagnostic; the error is non-nil iff any diagnostic is an
// error.
func (b *Builder) Build() (*Plan, error) {
	p := &Plan{
		Defs:   b.defs,
		Tables: b.tables,
	}

	p.Diagnostics.Merge(schema.Validate(b.defs, b.validateOptions()))
	p.Diagnostics.Merge(exceptions.Validate(b.tables, b.defs))

	if p.Diagnostics.HasErrors() {
		b.logger.Debug("validation failed", "errors", len(p.Diagnostics.Errors))

		return p, p.Diagnostics.Error()
	}

	p.Classifier = classify.New(b.defs, b.tables)
	p.Empty = p.Classifier.EmptyNodes()

	for _, n := range b.defs.Sorted() {
		switch {
		case b.tables.IsManual(n.Name):
			p.Manual = append(p.Manual, n.Name)
		case n.Shape == schema.ShapeOpaque:
			p.Opaque = append(p.Opaque, n.Name)
		case p.Classifier.IsEmpty(n.Name):
		case n.Shape == schema.ShapeStruct:
			p.Structs = append(p.Structs, b.buildStruct(p, n))
		case n.Shape == schema.ShapeEnum:
			p.Enums = append(p.Enums, b.buildEnum(p, n))
		}
	}

	b.checkFlatten(p)
	b.checkCollisions(p)

	b.logger.Debug("plan built",
		"structs", len(p.Structs),
		"enums", len(p.Enums),
		"empty", len(p.Empty),
		"manual", len(p.Manual),
		"errors", len(p.Diagnostics.Errors),
		"warnings", len(p.Diagnostics.Warnings))

	return p, p.Diagnostics.Error()
}

func (b *Builder) validateOptions() schema.ValidateOptions {
	return schema.ValidateOptions{
		Features:     b.config.Features,
		Foreign:      b.tables.ForeignNames(),
		Excluded:     b.tables.Nodes.Excluded,
		OpaqueRefs:   b.tables.Nodes.OpaqueRefs,
		MultiPayload: b.tables.Nodes.MultiPayload,
	}
}

func (b *Builder) buildStruct(p *Plan, n *schema.Node) *StructPlan {
	sp := &StructPlan{Name: n.Name}

	if rule, ok := b.tables.Layout(n.Name); ok {
		sp.Layout = rule
	}

	for _, f := range n.Fields {
		r, err := p.Classifier.Field(f.Type)
		if err != nil {
			addFault(&p.Diagnostics, err, n.Name, f.Name)

			continue
		}

		ov := b.tables.Field(n.Name, f.Name)
		fp := &FieldPlan{
			Name:     f.Name,
			GoName:   common.CamelCase(f.Name),
			JSONName: b.jsonName(f, ov),
			Recipe:   r,
		}

		if !r.Dropped() {
			fp.Flatten = ov.Flatten
			fp.FlattenEnum = ov.Flatten && b.isEnumRef(f.Type)
			fp.Omit = ov.Omit

			// An absent optional is left out unless a rule says otherwise.
			if fp.Omit == exceptions.OmitNone && !fp.Flatten && f.Type.Kind == schema.KindOptional {
				fp.Omit = exceptions.OmitEmpty
			}
		}

		sp.Fields = append(sp.Fields, fp)
	}

	emitted := sp.Emitted()
	if len(emitted) == 1 {
		f := emitted[0]
		if b.tables.PassthroughAllowed(n.Name, f.Name) && f.Recipe.Orig.Kind != schema.KindOptional {
			if f.Flatten {
				p.Diagnostics.AddInfo(diagnostic.CodeOverrideShape,
					"passthrough takes precedence over flatten", n.Name, f.Name)
			}

			f.Flatten = false
			f.FlattenEnum = false
			f.Omit = exceptions.OmitNone
			sp.Passthrough = f
		}
	}

	for _, f := range sp.Fields {
		if f.Omit == exceptions.OmitZero {
			f.Recipe = classify.Defaulted(f.Recipe)
		}
	}

	return sp
}

func (b *Builder) isEnumRef(ft *schema.FieldType) bool {
	if ft.Kind != schema.KindNodeRef {
		return false
	}

	n, ok := b.defs.Lookup(ft.Name)

	return ok && n.Shape == schema.ShapeEnum
}

// jsonName derives the serialized key of a field: explicit rename first,
// then the keyword spelling of an optional keyword token, then the field
// name without its keyword-dodging underscore.
func (b *Builder) jsonName(f schema.Field, ov exceptions.FieldOverride) string {
	if ov.Rename != "" {
		return ov.Rename
	}

	if f.Type.Kind == schema.KindOptional && f.Type.Elem.Kind == schema.KindToken &&
		b.tables.IsKeyword(f.Type.Elem.Name) {
		if spelling, ok := b.defs.Token(f.Type.Elem.Name); ok {
			return spelling
		}
	}

	return strings.TrimSuffix(f.Name, "_")
}

func (b *Builder) buildEnum(p *Plan, n *schema.Node) *EnumPlan {
	rule := b.tables.Enum(n.Name)
	ep := &EnumPlan{
		Name:       n.Name,
		Exhaustive: n.Exhaustive,
		CatchAll:   !n.Exhaustive,
		Default:    rule.Default,
	}

	names := make(map[string]string, len(n.Variants))
	kind := 1

	for _, v := range n.Variants {
		switch {
		case v.Name == catchAllVariant && ep.CatchAll:
			p.Diagnostics.Errorf(diagnostic.CodeCatchAllCollision, n.Name, v.Name,
				"variant collides with the catch-all of a non-exhaustive enum")

			continue
		case v.Name == kindField:
			p.Diagnostics.Errorf(diagnostic.CodeNameCollision, n.Name, v.Name,
				"variant collides with the %s discriminant", kindField)

			continue
		}

		vp := &VariantPlan{Name: v.Name, JSONName: b.variantName(n, &v, rule)}

		switch len(v.Payload) {
		case 0:
		case 1:
			r, err := p.Classifier.Payload(v.Payload[0])
			if err != nil {
				addFault(&p.Diagnostics, err, n.Name, v.Name)

				continue
			}

			vp.Payload = r
		default:
			p.Diagnostics.Errorf(diagnostic.CodeMultiPayload, n.Name, v.Name,
				"multi-payload variant of a generated enum")

			continue
		}

		if other, dup := names[vp.JSONName]; dup {
			p.Diagnostics.Errorf(diagnostic.CodeNameCollision, n.Name, v.Name,
				"variant name %q already used by %s", vp.JSONName, other)

			continue
		}

		names[vp.JSONName] = v.Name

		if v.Name == rule.Default {
			vp.Kind = 0
		} else {
			vp.Kind = kind
			kind++
		}

		ep.Variants = append(ep.Variants, vp)
	}

	ep.UnknownKind = kind

	return ep
}

func (b *Builder) variantName(n *schema.Node, v *schema.Variant, rule exceptions.EnumRule) string {
	if name, ok := b.tables.VariantName(n.Name, v.Name); ok {
		return name
	}

	if rule.TokenSpelled && len(v.Payload) == 1 && v.Payload[0].IsMarker() {
		if spelling, ok := b.defs.Token(v.Payload[0].Name); ok {
			return spelling
		}
	}

	return common.SnakeCase(v.Name)
}

// checkFlatten rejects flatten on anything but a plain struct mirror or
// an enum whose every variant encodes as an object.
func (b *Builder) checkFlatten(p *Plan) {
	for _, sp := range p.Structs {
		enums := 0

		for _, f := range sp.Fields {
			if !f.Flatten {
				continue
			}

			if f.FlattenEnum {
				enums++
				if enums > 1 {
					p.Diagnostics.Errorf(diagnostic.CodeOverrideShape, sp.Name, f.Name,
						"only one enum can be flattened into a mirror")

					continue
				}

				checkFlattenEnum(p, sp, f)

				continue
			}

			target, ok := p.Struct(embeddedName(f.Recipe.Mirror))

			switch {
			case !ok:
				p.Diagnostics.Errorf(diagnostic.CodeOverrideShape, sp.Name, f.Name,
					"flatten requires a generated struct mirror, got %s", f.Recipe.Mirror)
			case target.Passthrough != nil:
				p.Diagnostics.Errorf(diagnostic.CodeOverrideShape, sp.Name, f.Name,
					"cannot flatten %s: it serializes as its single field", target.Name)
			default:
				if inner, ok := target.FlattenedEnum(); ok {
					p.Diagnostics.Errorf(diagnostic.CodeOverrideShape, sp.Name, f.Name,
						"cannot flatten %s: it merges the enum of field %s", target.Name, inner.Name)
				}
			}
		}
	}
}

func checkFlattenEnum(p *Plan, sp *StructPlan, f *FieldPlan) {
	en, ok := p.Enum(f.Recipe.Mirror.String())
	if !ok || f.Recipe.Op != classify.OpRecurse {
		p.Diagnostics.Errorf(diagnostic.CodeOverrideShape, sp.Name, f.Name,
			"flatten requires a generated enum mirror, got %s", f.Recipe.Mirror)

		return
	}

	for _, v := range en.Variants {
		if !v.HasPayload() {
			p.Diagnostics.Errorf(diagnostic.CodeOverrideShape, sp.Name, f.Name,
				"cannot flatten %s: variant %s encodes as a bare name", en.Name, v.Name)

			return
		}
	}
}

// checkCollisions reports JSON keys that appear twice in one mirror,
// flattened members included.
func (b *Builder) checkCollisions(p *Plan) {
	for _, sp := range p.Structs {
		if sp.Passthrough != nil {
			continue
		}

		seen := map[string]string{}

		for _, f := range sp.Emitted() {
			keys := []string{f.JSONName}

			switch {
			case f.FlattenEnum:
				keys = variantKeys(p, f)
			case f.Flatten:
				keys = memberKeys(p, embeddedName(f.Recipe.Mirror), map[string]bool{})
			}

			for _, k := range keys {
				if other, dup := seen[k]; dup {
					p.Diagnostics.Errorf(diagnostic.CodeNameCollision, sp.Name, f.Name,
						"JSON key %q already used by %s", k, other)

					continue
				}

				seen[k] = f.Name
			}
		}
	}
}

func memberKeys(p *Plan, node string, visiting map[string]bool) []string {
	sp, ok := p.Struct(node)
	if !ok || visiting[node] || sp.Passthrough != nil {
		return nil
	}

	visiting[node] = true

	var keys []string

	for _, f := range sp.Emitted() {
		if f.FlattenEnum {
			continue
		}

		if f.Flatten {
			keys = append(keys, memberKeys(p, embeddedName(f.Recipe.Mirror), visiting)...)

			continue
		}

		keys = append(keys, f.JSONName)
	}

	return keys
}

// variantKeys lists the tags a flattened enum field may write.
func variantKeys(p *Plan, f *FieldPlan) []string {
	en, ok := p.Enum(f.Recipe.Mirror.String())
	if !ok {
		return nil
	}

	keys := make([]string, 0, len(en.Variants))
	for _, v := range en.Variants {
		keys = append(keys, v.JSONName)
	}

	return keys
}

// ObjectKeys lists the JSON keys the members of s occupy, flattened struct
// members included. The variant member of a flattened enum is not listed.
func (p *Plan) ObjectKeys(s *StructPlan) []string {
	return memberKeys(p, s.Name, map[string]bool{})
}

func addFault(diags *diagnostic.Diagnostics, err error, node, member string) {
	var f *classify.Fault
	if errors.As(err, &f) {
		diags.AddError(f.Code, f.Message, node, member)

		return
	}

	diags.AddError(diagnostic.CodeUnsupportedType, err.Error(), node, member)
}

// Build plans defs with tables under the given features.
func Build(defs *schema.Definitions, tables *exceptions.Tables, features []string) (*Plan, error) {
	return NewBuilder(defs, tables, Config{Features: features}).Build()
}
