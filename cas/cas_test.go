package cas

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestMemoryCAS(t *testing.T) {
	m := NewMemoryCAS()
	h1, seen := m.Put([]byte("one"))
	require.False(t, seen)
	h2, seen := m.Put([]byte("two"))
	require.False(t, seen)
	require.NotEqual(t, h1, h2)

	again, seen := m.Put([]byte("one"))
	require.True(t, seen)
	require.Equal(t, h1, again)
	require.Equal(t, 2, m.Count(h1))
	require.Equal(t, 1, m.Count(h2))
	require.Equal(t, 2, m.Len())

	data, ok := m.Get(h2)
	require.True(t, ok)
	require.Equal(t, []byte("two"), data)
	require.False(t, m.Has(Sum([]byte("three"))))
}

func TestMemoryCASCopiesInput(t *testing.T) {
	m := NewMemoryCAS()
	buf := []byte("abc")
	h, _ := m.Put(buf)
	buf[0] = 'x'
	data, ok := m.Get(h)
	require.True(t, ok)
	require.Equal(t, []byte("abc"), data)
}

func TestLRUCacheEviction(t *testing.T) {
	c := NewLRUCache(3)
	h1, _ := c.Put([]byte("1"))
	h2, _ := c.Put([]byte("2"))
	h3, _ := c.Put([]byte("3"))

	// touching 1 makes 2 the oldest
	_, seen := c.Put([]byte("1"))
	require.True(t, seen)

	h4, seen := c.Put([]byte("4"))
	require.False(t, seen)
	require.Equal(t, 3, c.Len())
	require.True(t, c.Has(h1))
	require.False(t, c.Has(h2))
	require.True(t, c.Has(h3))
	require.True(t, c.Has(h4))

	_, seen = c.Put([]byte("2"))
	require.False(t, seen)
	require.Equal(t, CacheStats{Size: 3, MaxSize: 3}, c.Stats())
}

func TestLRUCacheDefaultSize(t *testing.T) {
	c := NewLRUCache(0)
	require.Equal(t, DefaultWindow, c.Stats().MaxSize)
}
