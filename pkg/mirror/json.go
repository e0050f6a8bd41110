package mirror

import (
	"bytes"
	"errors"
	"fmt"
	"slices"

	"github.com/goccy/go-json"
)

// Decoding errors of the externally tagged enum encoding.
var (
	ErrUnknownVariant   = errors.New("unknown variant")
	ErrMalformedVariant = errors.New("malformed variant")
	ErrInvalidKind      = errors.New("invalid kind")
)

// Marshal encodes v as JSON.
func Marshal(v any) ([]byte, error) {
	return json.Marshal(v)
}

// Unmarshal decodes JSON into v.
func Unmarshal(data []byte, v any) error {
	return json.Unmarshal(data, v)
}

// MarshalIndent encodes v as indented JSON.
func MarshalIndent(v any) ([]byte, error) {
	return json.MarshalIndent(v, "", "  ")
}

// RawVariant preserves a variant a non-exhaustive enum does not know.
type RawVariant struct {
	Name string
	// Payload is nil for a unit variant.
	Payload json.RawMessage
}

// NewRawVariant preserves name and a private copy of payload.
func NewRawVariant(name string, payload json.RawMessage) *RawVariant {
	r := &RawVariant{Name: name}
	if payload != nil {
		r.Payload = append(json.RawMessage(nil), payload...)
	}

	return r
}

// MarshalUnit encodes a unit variant as its bare name.
func MarshalUnit(name string) ([]byte, error) {
	return json.Marshal(name)
}

// MarshalVariant encodes a payload variant as {"name": payload}.
func MarshalVariant(name string, payload any) ([]byte, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("variant %s: %w", name, err)
	}

	return wrapVariant(name, body)
}

// MarshalRaw encodes a preserved variant exactly as it was read.
func MarshalRaw(r *RawVariant) ([]byte, error) {
	if r.Payload == nil {
		return MarshalUnit(r.Name)
	}

	return wrapVariant(r.Name, r.Payload)
}

func wrapVariant(name string, body []byte) ([]byte, error) {
	key, err := json.Marshal(name)
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer

	buf.Grow(len(key) + len(body) + 3)
	buf.WriteByte('{')
	buf.Write(key)
	buf.WriteByte(':')
	buf.Write(body)
	buf.WriteByte('}')

	return buf.Bytes(), nil
}

// UnmarshalVariant splits an externally tagged variant into its name and
// payload. The payload is nil for a unit variant.
func UnmarshalVariant(data []byte) (string, json.RawMessage, error) {
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return "", nil, fmt.Errorf("%w: empty input", ErrMalformedVariant)
	}

	switch data[0] {
	case '"':
		var name string
		if err := json.Unmarshal(data, &name); err != nil {
			return "", nil, fmt.Errorf("%w: %w", ErrMalformedVariant, err)
		}

		return name, nil, nil
	case '{':
		var fields map[string]json.RawMessage
		if err := json.Unmarshal(data, &fields); err != nil {
			return "", nil, fmt.Errorf("%w: %w", ErrMalformedVariant, err)
		}

		if len(fields) != 1 {
			return "", nil, fmt.Errorf("%w: expected exactly one key, got %d", ErrMalformedVariant, len(fields))
		}

		for name, payload := range fields {
			return name, payload, nil
		}
	}

	return "", nil, fmt.Errorf("%w: expected a string or an object", ErrMalformedVariant)
}

// MarshalFlattened encodes parent, which must encode as an object, with
// the externally tagged variant merged in as one more member.
func MarshalFlattened(parent, variant any) ([]byte, error) {
	obj, err := json.Marshal(parent)
	if err != nil {
		return nil, err
	}

	tagged, err := json.Marshal(variant)
	if err != nil {
		return nil, err
	}

	obj, tagged = bytes.TrimSpace(obj), bytes.TrimSpace(tagged)

	if len(obj) < 2 || obj[0] != '{' {
		return nil, fmt.Errorf("%w: flattened parent encodes as %s", ErrMalformedVariant, obj)
	}

	if len(tagged) < 2 || tagged[0] != '{' {
		return nil, fmt.Errorf("%w: flattened variant encodes as %s, not an object", ErrMalformedVariant, tagged)
	}

	members := bytes.TrimSpace(obj[1 : len(obj)-1])

	var buf bytes.Buffer

	buf.Grow(len(obj) + len(tagged))
	buf.WriteByte('{')
	buf.Write(members)

	if len(members) > 0 {
		buf.WriteByte(',')
	}

	buf.Write(tagged[1 : len(tagged)-1])
	buf.WriteByte('}')

	return buf.Bytes(), nil
}

// UnmarshalFlattened decodes an object written by MarshalFlattened. The
// members named by keys decode into parent; the one remaining member is
// the variant tag and decodes into variant.
func UnmarshalFlattened(node string, data []byte, parent any, keys []string, variant any) error {
	var members map[string]json.RawMessage
	if err := json.Unmarshal(data, &members); err != nil {
		return fmt.Errorf("%w: %s: %w", ErrMalformedVariant, node, err)
	}

	var rest []string

	for name := range members {
		if !slices.Contains(keys, name) {
			rest = append(rest, name)
		}
	}

	if len(rest) != 1 {
		slices.Sort(rest)

		return fmt.Errorf("%w: %s expects one variant member, got %q", ErrMalformedVariant, node, rest)
	}

	if err := json.Unmarshal(data, parent); err != nil {
		return fmt.Errorf("%s: %w", node, err)
	}

	tagged, err := wrapVariant(rest[0], members[rest[0]])
	if err != nil {
		return err
	}

	return json.Unmarshal(tagged, variant)
}

// ExpectUnit fails when a unit variant of node was given a payload.
func ExpectUnit(node, name string, payload json.RawMessage) error {
	if payload != nil {
		return fmt.Errorf("%w: %s variant %q takes no payload", ErrMalformedVariant, node, name)
	}

	return nil
}

// DecodePayload decodes the payload of variant name of node into a fresh
// value stored in dst.
func DecodePayload[T any](node, name string, payload json.RawMessage, dst **T) error {
	if payload == nil {
		return fmt.Errorf("%w: %s variant %q requires a payload", ErrMalformedVariant, node, name)
	}

	v := new(T)
	if err := json.Unmarshal(payload, v); err != nil {
		return fmt.Errorf("%s variant %q: %w", node, name, err)
	}

	*dst = v

	return nil
}

// UnknownVariant reports a tag an exhaustive enum does not declare.
func UnknownVariant(node, name string) error {
	return fmt.Errorf("%w: %s has no variant %q", ErrUnknownVariant, node, name)
}

// InvalidKind reports a Kind value outside the declared variants.
func InvalidKind(node string, kind any) error {
	return fmt.Errorf("%w: %s kind %v", ErrInvalidKind, node, kind)
}
