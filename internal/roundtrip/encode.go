package roundtrip

import (
	"bytes"
	"fmt"

	"github.com/goccy/go-json"

	"mirror-generator/internal/exceptions"
	"mirror-generator/internal/plan"
	"mirror-generator/pkg/mirror"
)

// Encoder serializes dynamic mirror values exactly as the generated mirror
// types marshal.
type Encoder struct {
	p *plan.Plan
}

// NewEncoder creates an Encoder for p.
func NewEncoder(p *plan.Plan) *Encoder {
	return &Encoder{p: p}
}

// Encode returns the JSON encoding of a mirror value.
func (enc *Encoder) Encode(m any) ([]byte, error) {
	var buf bytes.Buffer
	if err := enc.encode(&buf, m); err != nil {
		return nil, err
	}

	return buf.Bytes(), nil
}

func (enc *Encoder) encode(buf *bytes.Buffer, m any) error {
	switch v := m.(type) {
	case nil:
		buf.WriteString("null")
	case Ptr:
		return enc.encode(buf, v.Elem)
	case []any:
		return enc.array(buf, v)
	case Tuple:
		return enc.array(buf, v.Items)
	case MirrorStruct:
		return enc.structValue(buf, v)
	case MirrorEnum:
		return enc.enumValue(buf, v)
	default:
		b, err := json.Marshal(v)
		if err != nil {
			return err
		}

		buf.Write(b)
	}

	return nil
}

func (enc *Encoder) array(buf *bytes.Buffer, items []any) error {
	buf.WriteByte('[')

	for i, it := range items {
		if i > 0 {
			buf.WriteByte(',')
		}

		if err := enc.encode(buf, it); err != nil {
			return err
		}
	}

	buf.WriteByte(']')

	return nil
}

func (enc *Encoder) structValue(buf *bytes.Buffer, m MirrorStruct) error {
	s, ok := enc.p.Struct(m.Node)
	if !ok {
		return fmt.Errorf("no mirror for node %s", m.Node)
	}

	if s.Passthrough != nil {
		return enc.encode(buf, m.Fields[s.Passthrough.GoName])
	}

	buf.WriteByte('{')

	first := true
	if err := enc.members(buf, s, m, &first); err != nil {
		return err
	}

	if f, ok := s.FlattenedEnum(); ok {
		if err := enc.variantMember(buf, m.Fields[f.GoName], first); err != nil {
			return fmt.Errorf("%s.%s: %w", s.Name, f.Name, err)
		}
	}

	buf.WriteByte('}')

	return nil
}

// members writes the object members of a struct mirror, inlining
// flattened fields.
func (enc *Encoder) members(buf *bytes.Buffer, s *plan.StructPlan, m MirrorStruct, first *bool) error {
	for _, f := range s.Emitted() {
		value := m.Fields[f.GoName]

		if f.FlattenEnum {
			// Written after the other members, as mirror.MarshalFlattened does.
			continue
		}

		if f.Flatten {
			if p, ok := value.(Ptr); ok {
				value = p.Elem
			}

			inner, ok := value.(MirrorStruct)
			if !ok {
				// A nil embedded pointer contributes no members.
				continue
			}

			sp, ok := enc.p.Struct(inner.Node)
			if !ok {
				return fmt.Errorf("no mirror for node %s", inner.Node)
			}

			if err := enc.members(buf, sp, inner, first); err != nil {
				return err
			}

			continue
		}

		if f.Omit != exceptions.OmitNone && empty(value) {
			continue
		}

		if !*first {
			buf.WriteByte(',')
		}

		*first = false

		key, err := json.Marshal(f.JSONName)
		if err != nil {
			return err
		}

		buf.Write(key)
		buf.WriteByte(':')

		if err := enc.encode(buf, value); err != nil {
			return fmt.Errorf("%s.%s: %w", s.Name, f.Name, err)
		}
	}

	return nil
}

// variantMember writes the tag and payload of a flattened enum as one
// more object member.
func (enc *Encoder) variantMember(buf *bytes.Buffer, value any, first bool) error {
	var tagged bytes.Buffer
	if err := enc.encode(&tagged, value); err != nil {
		return err
	}

	b := tagged.Bytes()
	if len(b) < 2 || b[0] != '{' {
		return fmt.Errorf("%w: flattened variant encodes as %s, not an object", mirror.ErrMalformedVariant, b)
	}

	if !first {
		buf.WriteByte(',')
	}

	buf.Write(b[1 : len(b)-1])

	return nil
}

// empty follows the omitempty rule of encoding/json.
func empty(m any) bool {
	switch v := m.(type) {
	case nil:
		return true
	case bool:
		return !v
	case string:
		return v == ""
	case int:
		return v == 0
	case uint32:
		return v == 0
	case []any:
		return len(v) == 0
	default:
		return false
	}
}

func (enc *Encoder) enumValue(buf *bytes.Buffer, m MirrorEnum) error {
	e, ok := enc.p.Enum(m.Node)
	if !ok {
		return fmt.Errorf("no mirror for node %s", m.Node)
	}

	var (
		b   []byte
		err error
	)

	switch {
	case e.CatchAll && m.Kind == UnknownKind:
		if m.Unknown == nil {
			return mirror.InvalidKind(m.Node, m.Kind)
		}

		b, err = mirror.MarshalRaw(m.Unknown)
	default:
		vp, ok := e.Variant(m.Kind)
		if !ok {
			return mirror.InvalidKind(m.Node, m.Kind)
		}

		if !vp.HasPayload() {
			b, err = mirror.MarshalUnit(vp.JSONName)

			break
		}

		var payload bytes.Buffer
		if err := enc.encode(&payload, m.Payload); err != nil {
			return err
		}

		b, err = mirror.MarshalVariant(vp.JSONName, json.RawMessage(payload.Bytes()))
	}

	if err != nil {
		return err
	}

	buf.Write(b)

	return nil
}
