package gen

import "strconv"

// Stem numbers the locals of one generated function: v1, v2, ...
// The numbered names never collide with the identifiers the emitters
// declare themselves (in, out, err, layout, payload) since those carry
// no digits.
type Stem struct {
	prefix string
	last   int
}

// NewStem returns a Stem handing out prefix1, prefix2, ...
func NewStem(prefix string) *Stem {
	return &Stem{prefix: prefix}
}

// Next returns a fresh local name.
func (s *Stem) Next() string {
	s.last++

	return s.prefix + strconv.Itoa(s.last)
}

// Reset restarts the numbering for the next function.
func (s *Stem) Reset() {
	s.last = 0
}
