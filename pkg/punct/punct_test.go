package punct

import (
	"testing"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type comma struct{}

func TestList_From(t *testing.T) {
	l := From[int, comma]([]int{1, 2, 3})

	assert.Equal(t, 3, l.Len())
	assert.Equal(t, []int{1, 2, 3}, l.Values())
	assert.False(t, l.Trailing())

	pairs := l.Pairs()
	require.Len(t, pairs, 3)
	assert.NotNil(t, pairs[0].Punct)
	assert.NotNil(t, pairs[1].Punct)
	assert.Nil(t, pairs[2].Punct)
}

func TestList_Empty(t *testing.T) {
	l := From[int, comma](nil)

	assert.True(t, l.IsEmpty())
	assert.False(t, l.Trailing())
	assert.NotNil(t, l.Values())
	assert.Empty(t, l.Values())

	var zero List[string, comma]
	assert.NotNil(t, zero.Values())
}

func TestList_Trailing(t *testing.T) {
	var l List[string, comma]

	l.Push("a")
	l.PushPunct(comma{})
	assert.True(t, l.Trailing())

	l.Push("b")
	assert.False(t, l.Trailing())
	assert.Equal(t, []string{"a", "b"}, l.Values())

	assert.Panics(t, func() {
		var empty List[string, comma]
		empty.PushPunct(comma{})
	})
}

func TestList_ValuesIsACopy(t *testing.T) {
	l := From[int, comma]([]int{1})
	v := l.Values()
	v[0] = 9
	assert.Equal(t, []int{1}, l.Values())
}

func TestTuple2_JSON(t *testing.T) {
	in := Tuple2[bool, string]{V0: true, V1: "path"}

	data, err := json.Marshal(in)
	require.NoError(t, err)
	assert.JSONEq(t, `[true, "path"]`, string(data))

	var out Tuple2[bool, string]
	require.NoError(t, json.Unmarshal(data, &out))
	assert.Equal(t, in, out)
}

func TestTuple3_JSON(t *testing.T) {
	in := &Tuple3[int, string, []int]{V0: 1, V1: "x", V2: []int{2}}

	data, err := json.Marshal(in)
	require.NoError(t, err)
	assert.JSONEq(t, `[1, "x", [2]]`, string(data))

	var out Tuple3[int, string, []int]
	require.NoError(t, json.Unmarshal(data, &out))
	assert.Equal(t, *in, out)
}

func TestTuple_UnmarshalErrors(t *testing.T) {
	var t2 Tuple2[int, int]
	assert.ErrorContains(t, json.Unmarshal([]byte(`[1]`), &t2), "2-element array")
	assert.ErrorContains(t, json.Unmarshal([]byte(`[1, "x"]`), &t2), "tuple item 1")
	assert.Error(t, json.Unmarshal([]byte(`{"a": 1}`), &t2))

	var t3 Tuple3[int, int, int]
	assert.ErrorContains(t, json.Unmarshal([]byte(`[1, 2, 3, 4]`), &t3), "3-element array")
}
