package punct

// List is a sequence of values separated by placeholder tokens of type P.
// It holds either one separator fewer than values, or exactly as many when
// the list carries a trailing separator.
type List[T, P any] struct {
	values []T
	puncts []P
}

// Pair is one value together with the separator that follows it, if any.
type Pair[T, P any] struct {
	Value T
	Punct *P
}

// From builds a list from values, resynthesizing every separator as the
// zero placeholder. The result carries no trailing separator.
func From[T, P any](values []T) List[T, P] {
	l := List[T, P]{values: make([]T, 0, len(values))}
	for _, v := range values {
		l.Push(v)
	}

	return l
}

// Values returns the values without separators. The result is never nil.
func (l List[T, P]) Values() []T {
	out := make([]T, len(l.values))
	copy(out, l.values)

	return out
}

// Len returns the number of values.
func (l List[T, P]) Len() int {
	return len(l.values)
}

// IsEmpty reports whether the list holds no values.
func (l List[T, P]) IsEmpty() bool {
	return len(l.values) == 0
}

// Trailing reports whether the last value is followed by a separator.
func (l List[T, P]) Trailing() bool {
	return len(l.values) > 0 && len(l.puncts) == len(l.values)
}

// Push appends a value, inserting a zero separator when the previous value
// has none.
func (l *List[T, P]) Push(v T) {
	if len(l.values) > len(l.puncts) {
		var p P
		l.puncts = append(l.puncts, p)
	}

	l.values = append(l.values, v)
}

// PushPunct appends a trailing separator. It panics when the list is empty
// or already ends in a separator.
func (l *List[T, P]) PushPunct(p P) {
	if len(l.values) == len(l.puncts) {
		panic("punct: separator without a preceding value")
	}

	l.puncts = append(l.puncts, p)
}

// Pairs returns the values with their following separators.
func (l List[T, P]) Pairs() []Pair[T, P] {
	out := make([]Pair[T, P], len(l.values))
	for i := range l.values {
		out[i].Value = l.values[i]
		if i < len(l.puncts) {
			out[i].Punct = &l.puncts[i]
		}
	}

	return out
}
