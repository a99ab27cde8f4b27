package registry

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistry(t *testing.T) {
	r := New[int]()

	_, ok := r.Get("a")
	assert.False(t, ok)

	r.Add("a", 1)
	got, ok := r.Get("a")
	require.True(t, ok)
	assert.Equal(t, 1, got)

	// GetOrAdd keeps the existing value
	got, loaded := r.GetOrAdd("a", func() int { return 2 })
	assert.True(t, loaded)
	assert.Equal(t, 1, got)

	got, loaded = r.GetOrAdd("b", func() int { return 2 })
	assert.False(t, loaded)
	assert.Equal(t, 2, got)
	assert.Equal(t, 2, r.Len())

	seen := map[string]int{}
	r.ForEach(func(name string, value int) bool {
		seen[name] = value
		return true
	})
	assert.Equal(t, map[string]int{"a": 1, "b": 2}, seen)

	r.Del("a")
	_, ok = r.Get("a")
	assert.False(t, ok)
	assert.Equal(t, 1, r.Len())
}
