package lispcore

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHashTableGetSetRemove(t *testing.T) {
	h := NewHashTable[string, int](djb2Hash)

	_, ok := h.Get("a")
	assert.False(t, ok)

	require.NoError(t, h.Set("a", 1))
	require.NoError(t, h.Set("b", 2))
	assert.Equal(t, 2, h.Len())

	v, ok := h.Get("a")
	require.True(t, ok)
	assert.Equal(t, 1, v)

	assert.True(t, h.Remove("a"))
	assert.False(t, h.Remove("a"))
	_, ok = h.Get("a")
	assert.False(t, ok)
	assert.Equal(t, 1, h.Len())
}

func TestHashTableNewerEntryMasksOlder(t *testing.T) {
	h := NewHashTable[string, int](djb2Hash)
	require.NoError(t, h.Set("x", 1))
	require.NoError(t, h.Set("x", 2))
	v, ok := h.Get("x")
	require.True(t, ok)
	assert.Equal(t, 2, v)
	assert.Equal(t, 1, h.Len())
}

func TestHashTableGrowsPastManyEntries(t *testing.T) {
	h := NewHashTable[string, int](djb2Hash)
	const n = 500
	for i := 0; i < n; i++ {
		require.NoError(t, h.Set(fmt.Sprintf("key-%d", i), i))
	}
	assert.Equal(t, n, h.Len())
}
