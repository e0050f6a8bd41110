package mirror

import (
	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"

	"mirror-generator/pkg/punct"
)

// MapSlice applies f to every element. The result is never nil, so an
// empty sequence serializes as [].
func MapSlice[T, U any](in []T, f func(T) U) []U {
	out := make([]U, 0, len(in))
	for _, v := range in {
		out = append(out, f(v))
	}

	return out
}

// TryMapSlice applies a fallible f to every element.
func TryMapSlice[T, U any](in []T, f func(T) (U, error)) ([]U, error) {
	out := make([]U, 0, len(in))

	for i, v := range in {
		u, err := f(v)
		if err != nil {
			return nil, WithIndex(err, i)
		}

		out = append(out, u)
	}

	return out, nil
}

// MapPtr applies f to the pointee, keeping nil as nil.
func MapPtr[T, U any](in *T, f func(T) U) *U {
	if in == nil {
		return nil
	}

	u := f(*in)

	return &u
}

// TryMapPtr applies a fallible f to the pointee, keeping nil as nil.
func TryMapPtr[T, U any](in *T, f func(T) (U, error)) (*U, error) {
	if in == nil {
		return nil, nil
	}

	u, err := f(*in)
	if err != nil {
		return nil, err
	}

	return &u, nil
}

// FlatMapPtr applies f to the pointee when f already yields a pointer.
func FlatMapPtr[T, U any](in *T, f func(T) *U) *U {
	if in == nil {
		return nil
	}

	return f(*in)
}

// MapShared rebuilds an optional whose mirror shares the element pointer.
// f receives the non-nil pointer itself.
func MapShared[T, U any](in *T, f func(*T) U) *U {
	if in == nil {
		return nil
	}

	u := f(in)

	return &u
}

// TryMapShared is the fallible form of MapShared.
func TryMapShared[T, U any](in *T, f func(*T) (U, error)) (*U, error) {
	if in == nil {
		return nil, nil
	}

	u, err := f(in)
	if err != nil {
		return nil, err
	}

	return &u, nil
}

// MapDelimited rebuilds a delimited sequence, resynthesizing separators.
func MapDelimited[P, T, U any](in []T, f func(T) U) punct.List[U, P] {
	return punct.From[U, P](MapSlice(in, f))
}

// TryMapDelimited is the fallible form of MapDelimited.
func TryMapDelimited[P, T, U any](in []T, f func(T) (U, error)) (punct.List[U, P], error) {
	values, err := TryMapSlice(in, f)
	if err != nil {
		return punct.List[U, P]{}, err
	}

	return punct.From[U, P](values), nil
}

// Box moves v to the heap.
func Box[T any](v T) *T {
	return &v
}

// TryBox rebuilds a required boxed value. A nil mirror pointer is invalid
// data because the original value always holds one.
func TryBox[T, U any](in *T, f func(T) (U, error)) (*U, error) {
	if in == nil {
		return nil, InvalidData("", "required value is missing")
	}

	return TryMapPtr(in, f)
}

// TryBoxValue rebuilds v and moves the result to the heap.
func TryBoxValue[T, U any](in T, f func(T) (U, error)) (*U, error) {
	u, err := f(in)
	if err != nil {
		return nil, err
	}

	return &u, nil
}

// Present returns v when present is set and nil otherwise.
func Present[T any](present bool, v T) *T {
	if !present {
		return nil
	}

	return &v
}

// IsZero reports whether v equals the zero value of its type, treating
// empty and nil slices and maps alike.
func IsZero[T any](v T) bool {
	var zero T

	return cmp.Equal(v, zero, cmpopts.EquateEmpty())
}

// OmitZero returns nil when v is zero, so that omitempty drops it.
func OmitZero[T any](v T) *T {
	if IsZero(v) {
		return nil
	}

	return &v
}

// OrZero returns the pointee, or the zero value for nil.
func OrZero[T any](p *T) T {
	if p == nil {
		var zero T

		return zero
	}

	return *p
}
