package subscription

import (
	"reflect"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTypeTree(t *testing.T) {
	tree := newTypeTree[string]()
	a, b, c := reflect.TypeFor[int](), reflect.TypeFor[string](), reflect.TypeFor[*event]()

	_, ok := tree.get([]reflect.Type{a, b})
	require.False(t, ok)

	tree.put([]reflect.Type{a, b}, "ab")
	tree.put([]reflect.Type{a, b, c}, "abc")
	tree.put([]reflect.Type{b, a}, "ba")

	v, ok := tree.get([]reflect.Type{a, b})
	require.True(t, ok)
	assert.Equal(t, "ab", v)

	v, ok = tree.get([]reflect.Type{a, b, c})
	require.True(t, ok)
	assert.Equal(t, "abc", v)

	v, ok = tree.get([]reflect.Type{b, a})
	require.True(t, ok)
	assert.Equal(t, "ba", v)

	_, ok = tree.get([]reflect.Type{a})
	assert.False(t, ok, "a prefix holds no value")
}

func TestTypeTreeGetOrCompute(t *testing.T) {
	tree := newTypeTree[int]()
	key := []reflect.Type{reflect.TypeFor[int](), reflect.TypeFor[int]()}

	computed := 0
	compute := func() int {
		computed++
		return 42
	}
	assert.Equal(t, 42, tree.getOrCompute(key, compute))
	assert.Equal(t, 42, tree.getOrCompute(key, compute))
	assert.Equal(t, 1, computed)
}
