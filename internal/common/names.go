package common

import (
	"maps"
	"slices"
	"strings"
	"unicode"
)

// UnknownStr is the String() value of out-of-range enumerations.
const UnknownStr = "unknown"

// CamelCase converts a snake_case schema identifier into an exported Go
// identifier. A single trailing underscore (used to dodge keywords, e.g.
// "trait_") is dropped.
func CamelCase(s string) string {
	s = strings.TrimSuffix(s, "_")

	var sb strings.Builder

	upper := true

	for _, r := range s {
		if r == '_' {
			upper = true
			continue
		}

		if upper {
			sb.WriteRune(unicode.ToUpper(r))
			upper = false

			continue
		}

		sb.WriteRune(r)
	}

	return sb.String()
}

// SnakeCase converts a CamelCase identifier into snake_case.
func SnakeCase(s string) string {
	var sb strings.Builder

	for i, r := range s {
		if unicode.IsUpper(r) {
			if i > 0 {
				sb.WriteByte('_')
			}

			sb.WriteRune(unicode.ToLower(r))

			continue
		}

		sb.WriteRune(r)
	}

	return sb.String()
}

// LowerFirst lowercases the first letter of s.
func LowerFirst(s string) string {
	if s == "" {
		return ""
	}

	return strings.ToLower(s[:1]) + s[1:]
}

// SortedKeys returns the keys of m in ascending order.
func SortedKeys[V any](m map[string]V) []string {
	return slices.Sorted(maps.Keys(m))
}
