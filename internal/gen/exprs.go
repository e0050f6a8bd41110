package gen

import (
	"fmt"
	"strconv"
	"strings"

	"mirror-generator/internal/classify"
	"mirror-generator/internal/common"
	"mirror-generator/internal/schema"
)

// operand parenthesizes a dereference so that a selector or call applies
// to the pointee.
func operand(src string) string {
	if strings.HasPrefix(src, "*") {
		return "(" + src + ")"
	}

	return src
}

func mirrorFunc(node string) string  { return node + "ToMirror" }
func rebuildFunc(node string) string { return node + "FromMirror" }

func (e *emitter) origType(r *classify.Recipe) string {
	return e.p.Classifier.OrigType(r.Orig)
}

// optionalElemType returns the Go type an optional's pointer points to on
// the original side.
func (e *emitter) optionalElemType(r *classify.Recipe) string {
	return e.p.Classifier.OrigType(r.Elem.Orig)
}

// project returns an expression converting src, an original value, into
// its mirror value.
func (e *emitter) project(r *classify.Recipe, src string) string {
	switch r.Op {
	case classify.OpRecurse:
		return mirrorFunc(r.Node) + "(" + src + ")"

	case classify.OpIdentity:
		if m := r.Binding.MirrorType(); m != r.Binding.Orig {
			return m + "(" + src + ")"
		}

		return src

	case classify.OpTextual:
		return e.expand(r.Binding.Project, src)

	case classify.OpBox:
		if r.Mirror.IsPointer() {
			return "mirror.MapPtr(" + src + ", " + e.projectFn(r.Elem) + ")"
		}

		return e.project(r.Elem, "*"+src)

	case classify.OpSequence:
		return "mirror.MapSlice(" + src + ", " + e.projectFn(r.Elem) + ")"

	case classify.OpDelimited:
		return "mirror.MapSlice(" + operand(src) + ".Values(), " + e.projectFn(r.Elem) + ")"

	case classify.OpOptional:
		if r.Shared {
			return "mirror.FlatMapPtr(" + src + ", " + e.projectFn(r.Elem) + ")"
		}

		return "mirror.MapPtr(" + src + ", " + e.projectFn(r.Elem) + ")"

	case classify.OpPresence:
		return src + " != nil"

	case classify.OpTuple:
		if len(r.Kept) == 1 {
			k := r.Kept[0]

			return e.project(r.Items[k], operand(src)+".V"+strconv.Itoa(k))
		}

		parts := make([]string, 0, len(r.Kept))
		for j, k := range r.Kept {
			parts = append(parts, fmt.Sprintf("V%d: %s", j, e.project(r.Items[k], operand(src)+".V"+strconv.Itoa(k))))
		}

		return r.Mirror.String() + "{" + strings.Join(parts, ", ") + "}"

	case classify.OpDefaulted:
		return "mirror.OmitZero(" + e.project(r.Elem, src) + ")"

	default:
		e.fail(fmt.Errorf("recipe %s has no projection", r))

		return src
	}
}

// projectFn returns a function value projecting one element.
func (e *emitter) projectFn(r *classify.Recipe) string {
	if r.Op == classify.OpRecurse {
		return mirrorFunc(r.Node)
	}

	v := e.vars.Next()

	return "func(" + v + " " + e.origType(r) + ") " + r.Mirror.String() +
		" { return " + e.project(r, v) + " }"
}

// rebuild returns an expression converting src, a mirror value, back into
// the original value. When r.Fallible() the expression is a single call
// returning (value, error).
func (e *emitter) rebuild(r *classify.Recipe, src string) string {
	switch r.Op {
	case classify.OpRecurse:
		return rebuildFunc(r.Node) + "(" + src + ")"

	case classify.OpIdentity:
		if m := r.Binding.MirrorType(); m != r.Binding.Orig {
			return r.Binding.Orig + "(" + src + ")"
		}

		return src

	case classify.OpTextual:
		return e.expand(r.Binding.Rebuild, src)

	case classify.OpPlaceholder:
		return e.origType(r) + "{}"

	case classify.OpPosition:
		if r.Binding.Default != "" {
			return r.Binding.Default
		}

		return r.Binding.Orig + "{}"

	case classify.OpZero:
		if r.Orig.Kind == schema.KindNodeRef {
			return e.origType(r) + "{}"
		}

		return "*new(" + e.origType(r) + ")"

	case classify.OpEmpty:
		return e.emptyInstance(r)

	case classify.OpBox:
		switch {
		case r.Elem.Dropped():
			return "mirror.Box(" + e.rebuild(r.Elem, "") + ")"
		case r.Mirror.IsPointer():
			return "mirror.TryBox(" + src + ", " + e.rebuildFn(r.Elem, r.Elem.Mirror.String(), true) + ")"
		case r.Elem.Fallible():
			return "mirror.TryBoxValue(" + src + ", " + e.rebuildFn(r.Elem, r.Elem.Mirror.String(), true) + ")"
		default:
			return "mirror.Box(" + e.rebuild(r.Elem, src) + ")"
		}

	case classify.OpSequence:
		fn := e.rebuildFn(r.Elem, r.Elem.Mirror.String(), r.Fallible())
		if r.Fallible() {
			return "mirror.TryMapSlice(" + src + ", " + fn + ")"
		}

		return "mirror.MapSlice(" + src + ", " + fn + ")"

	case classify.OpDelimited:
		fn := e.rebuildFn(r.Elem, r.Elem.Mirror.String(), r.Fallible())
		sep := "[" + e.p.Classifier.OrigType(schema.Token(r.Token)) + "]"

		if r.Fallible() {
			return "mirror.TryMapDelimited" + sep + "(" + src + ", " + fn + ")"
		}

		return "mirror.MapDelimited" + sep + "(" + src + ", " + fn + ")"

	case classify.OpOptional:
		param := r.Elem.Mirror.String()

		call := "MapPtr"
		if r.Shared {
			call = "MapShared"
		}

		if r.Fallible() {
			call = "Try" + call
		}

		return "mirror." + call + "(" + src + ", " + e.rebuildFn(r.Elem, param, r.Fallible()) + ")"

	case classify.OpPresence:
		return "mirror.Present(" + src + ", " + e.rebuild(r.Elem, "") + ")"

	case classify.OpTuple:
		// Only the infallible form is an expression; fallible tuples are
		// rebuilt by rebuildFn.
		sources := e.tupleSources(r, src)
		values := make(map[int]string, len(sources))

		for _, k := range r.Kept {
			values[k] = e.rebuild(r.Items[k], sources[k])
		}

		return e.tupleLiteral(r, values)

	case classify.OpDefaulted:
		return e.rebuild(r.Elem, "mirror.OrZero("+src+")")

	default:
		e.fail(fmt.Errorf("recipe %s has no reconstruction", r))

		return src
	}
}

// rebuildFn returns a function value rebuilding one element from param.
// A fallible function returns (value, error) even when r itself cannot
// fail.
func (e *emitter) rebuildFn(r *classify.Recipe, param string, fallible bool) string {
	if r.Op == classify.OpRecurse && fallible {
		return rebuildFunc(r.Node)
	}

	v := e.vars.Next()
	out := e.origType(r)

	if !fallible {
		return "func(" + v + " " + param + ") " + out + " { return " + e.rebuild(r, v) + " }"
	}

	head := "func(" + v + " " + param + ") (" + out + ", error) {\n"

	switch {
	case r.Op == classify.OpTuple && r.Fallible():
		return head + e.tupleBody(r, v) + "}"
	case r.Fallible():
		return head + "return " + e.rebuild(r, v) + "\n}"
	default:
		return head + "return " + e.rebuild(r, v) + ", nil\n}"
	}
}

// tupleSources maps each retained tuple item to its mirror expression.
func (e *emitter) tupleSources(r *classify.Recipe, src string) map[int]string {
	sources := make(map[int]string, len(r.Kept))

	if len(r.Kept) == 1 {
		sources[r.Kept[0]] = src

		return sources
	}

	for j, k := range r.Kept {
		sources[k] = operand(src) + ".V" + strconv.Itoa(j)
	}

	return sources
}

// tupleBody rebuilds a fallible tuple as a statement list ending in a
// return.
func (e *emitter) tupleBody(r *classify.Recipe, src string) string {
	var sb strings.Builder

	sources := e.tupleSources(r, src)
	values := make(map[int]string, len(sources))
	zero := e.origType(r) + "{}"

	for _, k := range r.Kept {
		it := r.Items[k]
		if !it.Fallible() {
			values[k] = e.rebuild(it, sources[k])

			continue
		}

		local := e.vars.Next()
		fmt.Fprintf(&sb, "%s, err := %s\nif err != nil {\nreturn %s, err\n}\n", local, e.rebuild(it, sources[k]), zero)
		values[k] = local
	}

	fmt.Fprintf(&sb, "return %s, nil\n", e.tupleLiteral(r, values))

	return sb.String()
}

// tupleLiteral builds a tuple literal from the converted retained values,
// resynthesizing the dropped items.
func (e *emitter) tupleLiteral(r *classify.Recipe, values map[int]string) string {
	parts := make([]string, 0, len(r.Items))

	for i, it := range r.Items {
		value, kept := values[i]
		if !kept {
			value = e.rebuild(it, "")
		}

		parts = append(parts, fmt.Sprintf("V%d: %s", i, value))
	}

	return e.origType(r) + "{" + strings.Join(parts, ", ") + "}"
}

// emptyInstance builds a synthetically empty node from its placeholders.
func (e *emitter) emptyInstance(r *classify.Recipe) string {
	n, ok := e.p.Defs.Lookup(r.Node)
	if !ok {
		e.fail(fmt.Errorf("empty node %s is not defined", r.Node))

		return e.origType(r) + "{}"
	}

	parts := make([]string, 0, len(n.Fields))

	for i, f := range n.Fields {
		parts = append(parts, common.CamelCase(f.Name)+": "+e.rebuild(r.Items[i], ""))
	}

	return e.origType(r) + "{" + strings.Join(parts, ", ") + "}"
}
