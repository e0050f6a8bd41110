package roundtrip

import "mirror-generator/pkg/mirror"

// UnknownKind is the Kind of a mirror enum holding a preserved unknown
// variant.
const UnknownKind = "Unknown"

// Struct is an original struct node. Fields are keyed by schema field name.
type Struct struct {
	Node   string
	Fields map[string]any
}

// Enum is an original enum node. Payload is nil for unit variants.
type Enum struct {
	Node    string
	Kind    string
	Payload any
}

// Token is a token or group placeholder.
type Token struct {
	Name string
}

// Ptr is a present pointer on either side. An absent pointer is nil.
type Ptr struct {
	Elem any
}

// List is a delimited sequence.
type List struct {
	Values []any
	Punct  string
}

// Tuple is a fixed tuple.
type Tuple struct {
	Items []any
}

// Text is a foreign value with a textual mirror.
type Text struct {
	Type string
	Text string
}

// Position is a source position handle.
type Position struct {
	Offset int
}

// Zero is the zero value of an opaque or excluded type.
type Zero struct {
	Node string
}

// MirrorStruct is a struct mirror. Fields are keyed by Go field name and
// hold only the emitted fields.
type MirrorStruct struct {
	Node   string
	Fields map[string]any
}

// MirrorEnum is an enum mirror. Payload is nil when the variant carries
// no mirror payload.
type MirrorEnum struct {
	Node    string
	Kind    string
	Payload any
	Unknown *mirror.RawVariant
}
