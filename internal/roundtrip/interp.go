package roundtrip

import (
	"errors"
	"fmt"
	"reflect"

	"mirror-generator/internal/classify"
	"mirror-generator/internal/exceptions"
	"mirror-generator/internal/plan"
	"mirror-generator/pkg/mirror"
)

var (
	// ErrManualNode is returned for hand-written nodes, whose conversions
	// the plan does not describe.
	ErrManualNode = errors.New("hand-written node")
	// ErrShape is returned when a dynamic value does not fit its recipe.
	ErrShape = errors.New("value does not match its type")
)

func shapef(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrShape, fmt.Sprintf(format, args...))
}

// Interpreter runs the conversion recipes of a plan over dynamic values.
type Interpreter struct {
	p *plan.Plan
}

// NewInterpreter creates an Interpreter for p.
func NewInterpreter(p *plan.Plan) *Interpreter {
	return &Interpreter{p: p}
}

// payloadRecipe strips the implied Box of an enum payload.
func payloadRecipe(v *plan.VariantPlan) *classify.Recipe {
	if v.Payload.Op == classify.OpBox {
		return v.Payload.Elem
	}

	return v.Payload
}

// Project converts an original node value into its mirror, the dynamic
// form of NToMirror.
func (in *Interpreter) Project(node string, v any) (any, error) {
	if s, ok := in.p.Struct(node); ok {
		orig, ok := v.(Struct)
		if !ok {
			return nil, shapef("%s: want struct, got %T", node, v)
		}

		out := MirrorStruct{Node: node, Fields: make(map[string]any, len(s.Fields))}

		for _, f := range s.Emitted() {
			m, err := in.project(f.Recipe, orig.Fields[f.Name])
			if err != nil {
				return nil, fmt.Errorf("%s.%s: %w", node, f.Name, err)
			}

			out.Fields[f.GoName] = m
		}

		return out, nil
	}

	if e, ok := in.p.Enum(node); ok {
		orig, ok := v.(Enum)
		if !ok {
			return nil, shapef("%s: want enum, got %T", node, v)
		}

		vp, ok := e.Variant(orig.Kind)
		if !ok {
			panic(mirror.InvalidKind(node, orig.Kind))
		}

		out := MirrorEnum{Node: node, Kind: vp.Name}
		if vp.HasPayload() && orig.Payload != nil {
			m, err := in.project(payloadRecipe(vp), orig.Payload)
			if err != nil {
				return nil, fmt.Errorf("%s.%s: %w", node, vp.Name, err)
			}

			out.Payload = m
		}

		return out, nil
	}

	return nil, in.unknownNode(node)
}

func (in *Interpreter) unknownNode(node string) error {
	for _, m := range in.p.Manual {
		if m == node {
			return fmt.Errorf("%w: %s", ErrManualNode, node)
		}
	}

	return fmt.Errorf("no mirror for node %s", node)
}

func (in *Interpreter) project(r *classify.Recipe, v any) (any, error) {
	switch r.Op {
	case classify.OpRecurse:
		return in.Project(r.Node, v)

	case classify.OpIdentity:
		return v, nil

	case classify.OpTextual:
		t, ok := v.(Text)
		if !ok {
			return nil, shapef("want text, got %T", v)
		}

		return t.Text, nil

	case classify.OpBox:
		p, ok := v.(Ptr)
		if !ok {
			return nil, shapef("want pointer, got %T", v)
		}

		m, err := in.project(r.Elem, p.Elem)
		if err != nil || !r.Mirror.IsPointer() {
			return m, err
		}

		return Ptr{Elem: m}, nil

	case classify.OpSequence:
		items, ok := v.([]any)
		if !ok && v != nil {
			return nil, shapef("want sequence, got %T", v)
		}

		return in.projectAll(r.Elem, items)

	case classify.OpDelimited:
		l, ok := v.(List)
		if !ok {
			return nil, shapef("want delimited sequence, got %T", v)
		}

		return in.projectAll(r.Elem, l.Values)

	case classify.OpOptional:
		if v == nil {
			return nil, nil
		}

		p, ok := v.(Ptr)
		if !ok {
			return nil, shapef("want optional, got %T", v)
		}

		m, err := in.project(r.Elem, p.Elem)
		if err != nil || r.Shared {
			return m, err
		}

		return Ptr{Elem: m}, nil

	case classify.OpPresence:
		return v != nil, nil

	case classify.OpTuple:
		t, ok := v.(Tuple)
		if !ok || len(t.Items) != len(r.Items) {
			return nil, shapef("want %d-tuple, got %T", len(r.Items), v)
		}

		if len(r.Kept) == 1 {
			return in.project(r.Items[r.Kept[0]], t.Items[r.Kept[0]])
		}

		out := Tuple{Items: make([]any, 0, len(r.Kept))}

		for _, k := range r.Kept {
			m, err := in.project(r.Items[k], t.Items[k])
			if err != nil {
				return nil, err
			}

			out.Items = append(out.Items, m)
		}

		return out, nil

	case classify.OpDefaulted:
		m, err := in.project(r.Elem, v)
		if err != nil {
			return nil, err
		}

		if in.isZero(m) {
			return nil, nil
		}

		return Ptr{Elem: m}, nil

	default:
		return nil, fmt.Errorf("recipe %s has no projection", r)
	}
}

func (in *Interpreter) projectAll(r *classify.Recipe, items []any) ([]any, error) {
	out := make([]any, 0, len(items))

	for i, it := range items {
		m, err := in.project(r, it)
		if err != nil {
			return nil, fmt.Errorf("[%d]: %w", i, err)
		}

		out = append(out, m)
	}

	return out, nil
}

// Rebuild converts a mirror value back into the original node value, the
// dynamic form of NFromMirror.
func (in *Interpreter) Rebuild(node string, m any) (any, error) {
	if s, ok := in.p.Struct(node); ok {
		mv, ok := m.(MirrorStruct)
		if !ok {
			return nil, shapef("%s: want struct mirror, got %T", node, m)
		}

		return in.rebuildStruct(s, mv)
	}

	if e, ok := in.p.Enum(node); ok {
		mv, ok := m.(MirrorEnum)
		if !ok {
			return nil, shapef("%s: want enum mirror, got %T", node, m)
		}

		return in.rebuildEnum(e, mv)
	}

	return nil, in.unknownNode(node)
}

func (in *Interpreter) rebuildStruct(s *plan.StructPlan, m MirrorStruct) (any, error) {
	if s.Layout != nil {
		if err := in.checkLayout(s, m); err != nil {
			return nil, err
		}
	}

	out := Struct{Node: s.Name, Fields: make(map[string]any, len(s.Fields))}

	for _, f := range s.Fields {
		var src any
		if f.Emitted() {
			src = m.Fields[f.GoName]
		}

		v, err := in.rebuild(f.Recipe, src)
		if err != nil {
			return nil, mirror.WithField(err, s.Name, f.JSONName)
		}

		out.Fields[f.Name] = v
	}

	return out, nil
}

func (in *Interpreter) checkLayout(s *plan.StructPlan, m MirrorStruct) error {
	rule := s.Layout

	field, _ := s.Field(rule.Field)
	term, _ := s.Field(rule.Terminator)

	terminated, _ := m.Fields[term.GoName].(bool)
	value := m.Fields[field.GoName]

	if rule.Body {
		return mirror.CheckBody(s.Name, value != nil, terminated)
	}

	if p, ok := value.(Ptr); ok {
		value = p.Elem
	}

	var layout mirror.Layout

	if e, ok := value.(MirrorEnum); ok {
		if e.Kind == UnknownKind {
			return mirror.Unreachable(e.Node)
		}

		switch rule.Shapes[e.Kind] {
		case exceptions.LayoutRecord:
			layout = mirror.LayoutRecord
		case exceptions.LayoutTuple:
			layout = mirror.LayoutTuple
		case exceptions.LayoutEmpty:
			layout = mirror.LayoutEmpty
		}
	}

	return mirror.CheckLayout(s.Name, layout, terminated)
}

func (in *Interpreter) rebuildEnum(e *plan.EnumPlan, m MirrorEnum) (any, error) {
	if e.CatchAll && m.Kind == UnknownKind {
		return nil, mirror.Unreachable(e.Name)
	}

	vp, ok := e.Variant(m.Kind)
	if !ok {
		return nil, mirror.Inconsistent(e.Name, "invalid kind %s", m.Kind)
	}

	out := Enum{Node: e.Name, Kind: vp.Name}

	switch {
	case !vp.HasOrigPayload():
	case !vp.HasPayload():
		v, err := in.rebuild(payloadRecipe(vp), nil)
		if err != nil {
			return nil, err
		}

		out.Payload = v
	default:
		if m.Payload == nil {
			return nil, mirror.MissingPayload(e.Name, vp.Name)
		}

		v, err := in.rebuild(payloadRecipe(vp), m.Payload)
		if err != nil {
			return nil, mirror.WithField(err, e.Name, vp.JSONName)
		}

		out.Payload = v
	}

	return out, nil
}

func (in *Interpreter) rebuild(r *classify.Recipe, m any) (any, error) {
	switch r.Op {
	case classify.OpRecurse:
		return in.Rebuild(r.Node, m)

	case classify.OpIdentity:
		return m, nil

	case classify.OpTextual:
		s, ok := m.(string)
		if !ok {
			return nil, shapef("want string, got %T", m)
		}

		if r.Binding.Fallible && s == "" {
			return nil, mirror.InvalidData("", "cannot parse empty %s", r.Orig.Name)
		}

		return Text{Type: r.Orig.Name, Text: s}, nil

	case classify.OpPlaceholder:
		return Token{Name: r.Token}, nil

	case classify.OpPosition:
		return Position{}, nil

	case classify.OpZero:
		return Zero{Node: r.Node}, nil

	case classify.OpEmpty:
		return in.emptyInstance(r)

	case classify.OpBox:
		switch {
		case r.Elem.Dropped():
			v, err := in.rebuild(r.Elem, nil)

			return Ptr{Elem: v}, err
		case r.Mirror.IsPointer():
			p, ok := m.(Ptr)
			if !ok {
				return nil, mirror.InvalidData("", "required value is missing")
			}

			m = p.Elem
		}

		v, err := in.rebuild(r.Elem, m)
		if err != nil {
			return nil, err
		}

		return Ptr{Elem: v}, nil

	case classify.OpSequence, classify.OpDelimited:
		items, ok := m.([]any)
		if !ok && m != nil {
			return nil, shapef("want sequence mirror, got %T", m)
		}

		out := make([]any, 0, len(items))

		for i, it := range items {
			v, err := in.rebuild(r.Elem, it)
			if err != nil {
				return nil, mirror.WithIndex(err, i)
			}

			out = append(out, v)
		}

		if r.Op == classify.OpDelimited {
			return List{Values: out, Punct: r.Token}, nil
		}

		return out, nil

	case classify.OpOptional:
		if m == nil {
			return nil, nil
		}

		if !r.Shared {
			p, ok := m.(Ptr)
			if !ok {
				return nil, shapef("want optional mirror, got %T", m)
			}

			m = p.Elem
		}

		v, err := in.rebuild(r.Elem, m)
		if err != nil {
			return nil, err
		}

		return Ptr{Elem: v}, nil

	case classify.OpPresence:
		present, ok := m.(bool)
		if !ok {
			return nil, shapef("want presence flag, got %T", m)
		}

		if !present {
			return nil, nil
		}

		v, err := in.rebuild(r.Elem, nil)

		return Ptr{Elem: v}, err

	case classify.OpTuple:
		return in.rebuildTuple(r, m)

	case classify.OpDefaulted:
		if p, ok := m.(Ptr); ok {
			return in.rebuild(r.Elem, p.Elem)
		}

		return in.rebuild(r.Elem, in.zero(r.Elem.Mirror))

	default:
		return nil, fmt.Errorf("recipe %s has no reconstruction", r)
	}
}

func (in *Interpreter) rebuildTuple(r *classify.Recipe, m any) (any, error) {
	sources := make(map[int]any, len(r.Kept))

	switch len(r.Kept) {
	case 0:
	case 1:
		sources[r.Kept[0]] = m
	default:
		t, ok := m.(Tuple)
		if !ok || len(t.Items) != len(r.Kept) {
			return nil, shapef("want %d-tuple mirror, got %T", len(r.Kept), m)
		}

		for j, k := range r.Kept {
			sources[k] = t.Items[j]
		}
	}

	out := Tuple{Items: make([]any, len(r.Items))}

	for i, it := range r.Items {
		v, err := in.rebuild(it, sources[i])
		if err != nil {
			return nil, err
		}

		out.Items[i] = v
	}

	return out, nil
}

func (in *Interpreter) emptyInstance(r *classify.Recipe) (any, error) {
	n, ok := in.p.Defs.Lookup(r.Node)
	if !ok {
		return nil, fmt.Errorf("empty node %s is not defined", r.Node)
	}

	out := Struct{Node: r.Node, Fields: make(map[string]any, len(n.Fields))}

	for i, f := range n.Fields {
		v, err := in.rebuild(r.Items[i], nil)
		if err != nil {
			return nil, err
		}

		out.Fields[f.Name] = v
	}

	return out, nil
}

// isZero reports whether a mirror value equals the zero value of its Go
// type, the dynamic form of mirror.IsZero.
func (in *Interpreter) isZero(m any) bool {
	switch v := m.(type) {
	case nil:
		return true
	case Ptr:
		return false
	case []any:
		return len(v) == 0
	case Tuple:
		for _, it := range v.Items {
			if !in.isZero(it) {
				return false
			}
		}

		return true
	case MirrorStruct:
		for _, f := range v.Fields {
			if !in.isZero(f) {
				return false
			}
		}

		return true
	case MirrorEnum:
		e, ok := in.p.Enum(v.Node)
		if !ok || v.Payload != nil || v.Unknown != nil {
			return false
		}

		vp, ok := e.Variant(v.Kind)

		return ok && vp.Kind == 0
	default:
		return reflect.ValueOf(m).IsZero()
	}
}

// zero returns the zero mirror value of t.
func (in *Interpreter) zero(t *classify.Type) any {
	switch t.Kind {
	case classify.TypeNode:
		if s, ok := in.p.Struct(t.Name); ok {
			out := MirrorStruct{Node: t.Name, Fields: make(map[string]any)}
			for _, f := range s.Emitted() {
				out.Fields[f.GoName] = in.zero(f.Recipe.Mirror)
			}

			return out
		}

		out := MirrorEnum{Node: t.Name}

		if e, ok := in.p.Enum(t.Name); ok {
			for _, v := range e.Variants {
				if v.Kind == 0 {
					out.Kind = v.Name
				}
			}
		}

		return out
	case classify.TypeBasic:
		return zeroBasic(t.Name)
	case classify.TypeBool:
		return false
	case classify.TypeSlice:
		return []any{}
	case classify.TypeTuple:
		out := Tuple{Items: make([]any, len(t.Items))}
		for i, it := range t.Items {
			out.Items[i] = in.zero(it)
		}

		return out
	default:
		return nil
	}
}

func zeroBasic(goType string) any {
	switch goType {
	case "string":
		return ""
	case "bool":
		return false
	case "int":
		return 0
	case "uint32":
		return uint32(0)
	default:
		return nil
	}
}
