package match

import (
	"cmp"
	"fmt"
	"slices"
)

// MinScore is the similarity below which no suggestion is made.
const MinScore = 0.6

// Candidate is a known name scored against a lookup.
type Candidate struct {
	Name  string
	Score float64
}

// Rank scores every known name against name, best first. Ties are broken
// by name so the order is deterministic.
func Rank(name string, known []string) []Candidate {
	out := make([]Candidate, 0, len(known))
	for _, k := range known {
		out = append(out, Candidate{Name: k, Score: Similarity(name, k)})
	}

	slices.SortFunc(out, func(a, b Candidate) int {
		if c := cmp.Compare(b.Score, a.Score); c != 0 {
			return c
		}

		return cmp.Compare(a.Name, b.Name)
	})

	return out
}

// Suggest returns the known name closest to name, if any scores at least
// MinScore. An exact match is never suggested.
func Suggest(name string, known []string) (string, bool) {
	for _, c := range Rank(name, known) {
		if c.Score < MinScore {
			break
		}

		if c.Name != name {
			return c.Name, true
		}
	}

	return "", false
}

// Hint formats the suggestion for name as a message suffix, or returns the
// empty string when there is none.
func Hint(name string, known []string) string {
	s, ok := Suggest(name, known)
	if !ok {
		return ""
	}

	return fmt.Sprintf(" (did you mean %q?)", s)
}
