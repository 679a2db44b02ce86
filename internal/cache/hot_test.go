package cache

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHotCache_SetAndGet(t *testing.T) {
	hot, err := NewHotCache(8)
	require.NoError(t, err)

	hot.Set("pkg:vlc", []byte("v"), time.Now().Add(time.Hour))

	value, ok := hot.Get("pkg:vlc")
	assert.True(t, ok)
	assert.Equal(t, []byte("v"), value)

	_, ok = hot.Get("pkg:nope")
	assert.False(t, ok)
}

func TestHotCache_NeverExceedsCapacity(t *testing.T) {
	hot, err := NewHotCache(4)
	require.NoError(t, err)

	expiry := time.Now().Add(time.Hour)
	for i := 0; i < 20; i++ {
		hot.Set(fmt.Sprintf("k%d", i), []byte("v"), expiry)
		assert.LessOrEqual(t, hot.Len(), 4)
	}
	assert.Equal(t, uint64(16), hot.Stats().Evictions)
}

func TestHotCache_EvictsLeastRecentlyAccessed(t *testing.T) {
	// Given: a full cache where "a" was re-read after insertion
	hot, err := NewHotCache(3)
	require.NoError(t, err)
	expiry := time.Now().Add(time.Hour)
	hot.Set("a", []byte("v"), expiry)
	hot.Set("b", []byte("v"), expiry)
	hot.Set("c", []byte("v"), expiry)
	_, _ = hot.Get("a")

	// When: a fourth entry forces an eviction
	hot.Set("d", []byte("v"), expiry)

	// Then: "b" goes, "a" stays (the read refreshed its recency)
	_, ok := hot.Get("b")
	assert.False(t, ok)
	_, ok = hot.Get("a")
	assert.True(t, ok)
}

func TestHotCache_RefusesExpiredEntries(t *testing.T) {
	hot, err := NewHotCache(8)
	require.NoError(t, err)
	hot.Set("k", []byte("v"), time.Now().Add(time.Minute))

	hot.now = func() time.Time { return time.Now().Add(time.Hour) }

	_, ok := hot.Get("k")
	assert.False(t, ok)
	assert.Equal(t, 0, hot.Len(), "expired entry is dropped on read")
	assert.Equal(t, uint64(1), hot.Stats().Misses)
}

func TestHotCache_DeletePrefix(t *testing.T) {
	hot, err := NewHotCache(8)
	require.NoError(t, err)
	expiry := time.Now().Add(time.Hour)
	hot.Set("search:a", []byte("v"), expiry)
	hot.Set("search:b", []byte("v"), expiry)
	hot.Set("pkg:a", []byte("v"), expiry)

	removed := hot.DeletePrefix("search:")

	assert.Equal(t, 2, removed)
	assert.Equal(t, 1, hot.Len())
	assert.Zero(t, hot.Stats().Evictions, "explicit removal is not an eviction")
}

func TestHotCache_ClearResetsCounters(t *testing.T) {
	hot, err := NewHotCache(2)
	require.NoError(t, err)
	expiry := time.Now().Add(time.Hour)
	hot.Set("a", []byte("v"), expiry)
	hot.Set("b", []byte("v"), expiry)
	hot.Set("c", []byte("v"), expiry) // evicts
	_, _ = hot.Get("a")

	hot.Clear()

	st := hot.Stats()
	assert.Equal(t, 0, st.Entries)
	assert.Zero(t, st.Hits)
	assert.Zero(t, st.Misses)
	assert.Zero(t, st.Evictions)
	assert.Equal(t, 2, st.Capacity)
}
