package classify

import (
	"fmt"
	"slices"

	"mirror-generator/internal/diagnostic"
	"mirror-generator/internal/exceptions"
	"mirror-generator/internal/schema"
)

// Fault is a generation-time classification failure.
type Fault struct {
	Code    string
	Message string
}

func (f *Fault) Error() string {
	return f.Message
}

func faultf(code, format string, args ...any) *Fault {
	return &Fault{Code: code, Message: fmt.Sprintf(format, args...)}
}

// Classifier classifies field types against one schema and exception
// table set.
type Classifier struct {
	defs   *schema.Definitions
	tables *exceptions.Tables
	empty  map[string]bool
}

// New creates a Classifier and computes the set of synthetically empty
// struct nodes.
func New(defs *schema.Definitions, tables *exceptions.Tables) *Classifier {
	c := &Classifier{
		defs:   defs,
		tables: tables,
		empty:  make(map[string]bool),
	}
	c.computeEmpty()

	return c
}

// computeEmpty finds the least fixpoint of struct nodes whose every field
// is dropped. Such nodes get no mirror type and rebuild as an instance of
// their placeholders.
func (c *Classifier) computeEmpty() {
	for changed := true; changed; {
		changed = false

		for _, n := range c.defs.Sorted() {
			if n.Shape != schema.ShapeStruct || len(n.Fields) == 0 ||
				c.empty[n.Name] || c.tables.IsManual(n.Name) {
				continue
			}

			all := true

			for _, f := range n.Fields {
				r, err := c.Field(f.Type)
				if err != nil || !r.Dropped() {
					all = false

					break
				}
			}

			if all {
				c.empty[n.Name] = true
				changed = true
			}
		}
	}
}

// IsEmpty reports whether node is synthetically empty.
func (c *Classifier) IsEmpty(node string) bool {
	return c.empty[node]
}

// EmptyNodes returns the synthetically empty nodes, sorted.
func (c *Classifier) EmptyNodes() []string {
	out := make([]string, 0, len(c.empty))
	for name := range c.empty {
		out = append(out, name)
	}

	slices.Sort(out)

	return out
}

// Field classifies the type of a struct field.
func (c *Classifier) Field(ft *schema.FieldType) (*Recipe, error) {
	return c.classify(ft, false)
}

// Payload classifies an enum variant payload. A boxed payload collapses to
// its target. Compound payloads are not supported.
func (c *Classifier) Payload(ft *schema.FieldType) (*Recipe, error) {
	target := ft
	boxed := ft.Kind == schema.KindIndirect

	if boxed {
		target = ft.Elem
	}

	r, err := c.classify(target, true)
	if err != nil {
		return nil, err
	}

	switch r.Op {
	case OpRecurse, OpTextual, OpIdentity, OpPlaceholder, OpPosition, OpEmpty, OpZero:
	default:
		return nil, faultf(diagnostic.CodeUnsupportedType,
			"variant payload %s is not supported", ft)
	}

	if boxed {
		return &Recipe{Op: OpBox, Orig: ft, Elem: r, Mirror: r.Mirror}, nil
	}

	return r, nil
}

// Defaulted wraps the recipe of an omit-zero field. The mirror stores a
// pointer that is nil when the value equals its default.
func Defaulted(r *Recipe) *Recipe {
	return &Recipe{Op: OpDefaulted, Orig: r.Orig, Elem: r, Mirror: PointerTo(r.Mirror)}
}

func (c *Classifier) classify(ft *schema.FieldType, nested bool) (*Recipe, error) {
	switch ft.Kind {
	case schema.KindIndirect:
		inner, err := c.classify(ft.Elem, true)
		if err != nil {
			return nil, err
		}

		r := &Recipe{Op: OpBox, Orig: ft, Elem: inner}
		if !inner.Dropped() {
			r.Mirror = inner.Mirror
			if c.isStruct(inner.Mirror) {
				r.Mirror = PointerTo(inner.Mirror)
			}
		}

		return r, nil

	case schema.KindSequence, schema.KindDelimited:
		inner, err := c.classify(ft.Elem, true)
		if err != nil {
			return nil, err
		}

		if inner.Dropped() {
			return nil, faultf(diagnostic.CodeUnsupportedType,
				"sequence of dropped elements %s", ft)
		}

		r := &Recipe{Op: OpSequence, Orig: ft, Elem: inner, Mirror: SliceOf(inner.Mirror)}
		if ft.Kind == schema.KindDelimited {
			r.Op = OpDelimited
			r.Token = ft.Punct
		}

		return r, nil

	case schema.KindOptional:
		return c.optional(ft)

	case schema.KindTuple:
		if nested {
			return nil, faultf(diagnostic.CodeUnsupportedType,
				"tuple %s is only supported directly inside an optional", ft)
		}

		return nil, faultf(diagnostic.CodeTupleTopLevel, "fixed tuple %s outside an optional", ft)

	case schema.KindToken, schema.KindGroup:
		return &Recipe{Op: OpPlaceholder, Orig: ft, Token: ft.Name}, nil

	case schema.KindNodeRef:
		return c.nodeRef(ft)

	case schema.KindForeignRef:
		return c.foreign(ft)

	case schema.KindPrimitive:
		b := c.tables.PrimitiveBinding(ft.Name)

		op := OpIdentity
		if b.IsTextual() {
			op = OpTextual
		}

		return &Recipe{Op: op, Orig: ft, Binding: b, Mirror: Basic(b.MirrorType())}, nil

	default:
		return nil, faultf(diagnostic.CodeUnsupportedType, "unsupported field type %s", ft)
	}
}

func (c *Classifier) optional(ft *schema.FieldType) (*Recipe, error) {
	elem := ft.Elem

	switch {
	case elem.IsMarker():
		return presence(ft, &Recipe{Op: OpPlaceholder, Orig: elem, Token: elem.Name}), nil
	case elem.Kind == schema.KindOptional:
		return nil, faultf(diagnostic.CodeNestedOptional, "optional of optional %s", ft)
	}

	var (
		inner *Recipe
		err   error
	)

	switch elem.Kind {
	case schema.KindTuple:
		inner, err = c.tuple(elem)
	case schema.KindIndirect:
		// The original side stores Optional(Indirect(T)) as a single *T.
		inner, err = c.classify(elem.Elem, true)
	default:
		inner, err = c.classify(elem, true)
	}

	if err != nil {
		return nil, err
	}

	if inner.Dropped() {
		return presence(ft, inner), nil
	}

	r := &Recipe{Op: OpOptional, Orig: ft, Elem: inner, Mirror: PointerTo(inner.Mirror)}

	if inner.Mirror.IsPointer() {
		if !sharesPointer(inner) {
			return nil, faultf(diagnostic.CodeNestedOptional,
				"optional %s wraps a value that is already optional", ft)
		}

		r.Shared = true
		r.Mirror = inner.Mirror
	}

	return r, nil
}

// sharesPointer reports whether the pointer mirror of r comes from a boxed
// struct, which an enclosing optional can reuse.
func sharesPointer(r *Recipe) bool {
	switch r.Op {
	case OpBox:
		return true
	case OpTuple:
		return len(r.Kept) == 1 && r.Items[r.Kept[0]].Op == OpBox
	default:
		return false
	}
}

func presence(ft *schema.FieldType, inner *Recipe) *Recipe {
	return &Recipe{Op: OpPresence, Orig: ft, Elem: inner, Mirror: Bool()}
}

func (c *Classifier) tuple(ft *schema.FieldType) (*Recipe, error) {
	if n := len(ft.Items); n < 2 || n > 3 {
		return nil, faultf(diagnostic.CodeUnsupportedType,
			"tuples of %d items are not supported", n)
	}

	r := &Recipe{Op: OpTuple, Orig: ft}

	for i, it := range ft.Items {
		ir, err := c.classify(it, true)
		if err != nil {
			return nil, err
		}

		r.Items = append(r.Items, ir)
		if !ir.Dropped() {
			r.Kept = append(r.Kept, i)
		}
	}

	switch len(r.Kept) {
	case 0:
	case 1:
		r.Mirror = r.Items[r.Kept[0]].Mirror
	default:
		mirrors := make([]*Type, 0, len(r.Kept))
		for _, i := range r.Kept {
			mirrors = append(mirrors, r.Items[i].Mirror)
		}

		r.Mirror = TupleOf(mirrors...)
	}

	return r, nil
}

func (c *Classifier) nodeRef(ft *schema.FieldType) (*Recipe, error) {
	name := ft.Name

	n, ok := c.defs.Lookup(name)
	if !ok {
		if slices.Contains(c.tables.Nodes.Excluded, name) {
			return &Recipe{Op: OpZero, Orig: ft, Node: name}, nil
		}

		return nil, faultf(diagnostic.CodeUnresolvedRef, "reference to unknown node %s", name)
	}

	switch {
	case c.tables.IsManual(name):
		return &Recipe{Op: OpRecurse, Orig: ft, Node: name, Mirror: NodeType(name)}, nil

	case n.Shape == schema.ShapeOpaque:
		if !slices.Contains(c.tables.Nodes.OpaqueRefs, name) {
			return nil, faultf(diagnostic.CodeOpaqueRef, "reference to opaque node %s", name)
		}

		return &Recipe{Op: OpZero, Orig: ft, Node: name}, nil

	case c.empty[name]:
		r := &Recipe{Op: OpEmpty, Orig: ft, Node: name}

		for _, f := range n.Fields {
			fr, err := c.Field(f.Type)
			if err != nil {
				return nil, err
			}

			r.Items = append(r.Items, fr)
		}

		return r, nil

	default:
		return &Recipe{Op: OpRecurse, Orig: ft, Node: name, Mirror: NodeType(name)}, nil
	}
}

func (c *Classifier) foreign(ft *schema.FieldType) (*Recipe, error) {
	b, ok := c.tables.ForeignBinding(ft.Name)
	if !ok {
		if slices.Contains(c.tables.Nodes.Excluded, ft.Name) {
			return &Recipe{Op: OpZero, Orig: ft, Node: ft.Name}, nil
		}

		return nil, faultf(diagnostic.CodeUnresolvedRef, "foreign type %s has no binding", ft.Name)
	}

	switch {
	case b.Position:
		return &Recipe{Op: OpPosition, Orig: ft, Binding: b}, nil
	case b.IsTextual():
		return &Recipe{Op: OpTextual, Orig: ft, Binding: b, Mirror: Basic(b.MirrorType())}, nil
	default:
		return &Recipe{Op: OpIdentity, Orig: ft, Binding: b, Mirror: Basic(b.MirrorType())}, nil
	}
}

func (c *Classifier) isStruct(t *Type) bool {
	if t.Kind != TypeNode {
		return false
	}

	n, ok := c.defs.Lookup(t.Name)

	return ok && n.Shape == schema.ShapeStruct
}

// IsStructNode reports whether name is a struct node with a mirror.
func (c *Classifier) IsStructNode(name string) bool {
	return c.isStruct(NodeType(name)) && !c.empty[name]
}
