package common

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCamelCase(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"attrs", "Attrs"},
		{"semi_token", "SemiToken"},
		{"trait_", "Trait"},
		{"colon2_token", "Colon2Token"},
		{"ty", "Ty"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, CamelCase(tt.in), tt.in)
	}
}

func TestSnakeCase(t *testing.T) {
	assert.Equal(t, "half_open", SnakeCase("HalfOpen"))
	assert.Equal(t, "angle_bracketed", SnakeCase("AngleBracketed"))
	assert.Equal(t, "lit", SnakeCase("Lit"))
}

func TestSortedKeys(t *testing.T) {
	keys := SortedKeys(map[string]int{"b": 1, "a": 2, "c": 3})
	assert.Equal(t, []string{"a", "b", "c"}, keys)
}
