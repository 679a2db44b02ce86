package cache

import (
	"fmt"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	seekerr "github.com/nixseek/nixseek/internal/errors"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := OpenStore(filepath.Join(t.TempDir(), "cache.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestStore_SetAndGet(t *testing.T) {
	store := newTestStore(t)

	require.NoError(t, store.Set("pkg:firefox", []byte(`{"name":"firefox"}`), time.Hour))

	entry, err := store.Get("pkg:firefox")
	require.NoError(t, err)
	require.NotNil(t, entry)
	assert.Equal(t, []byte(`{"name":"firefox"}`), entry.Value)
	assert.Equal(t, time.Hour, entry.TTL)
	assert.Equal(t, int64(1), entry.HitCount)
}

func TestStore_GetMissing(t *testing.T) {
	store := newTestStore(t)

	entry, err := store.Get("pkg:nope")
	require.NoError(t, err)
	assert.Nil(t, entry)
}

func TestStore_ExpiredEntryIsAbsent(t *testing.T) {
	// Given: an entry one hour old with a one-minute TTL
	store := newTestStore(t)
	require.NoError(t, store.Set("search:old", []byte("v"), time.Minute))

	// When: the clock advances past the expiry instant
	store.now = func() time.Time { return time.Now().Add(time.Hour) }

	// Then: the entry is logically absent even though never pruned
	entry, err := store.Get("search:old")
	require.NoError(t, err)
	assert.Nil(t, entry)
}

func TestStore_OverwriteIsLastWriteWins(t *testing.T) {
	store := newTestStore(t)

	require.NoError(t, store.Set("k", []byte("old"), time.Hour))
	require.NoError(t, store.Set("k", []byte("new"), time.Hour))

	entry, err := store.Get("k")
	require.NoError(t, err)
	require.NotNil(t, entry)
	assert.Equal(t, []byte("new"), entry.Value)
	assert.Equal(t, int64(1), entry.HitCount, "overwrite resets hit count")
}

func TestStore_Delete(t *testing.T) {
	store := newTestStore(t)
	require.NoError(t, store.Set("k", []byte("v"), time.Hour))

	removed, err := store.Delete("k")
	require.NoError(t, err)
	assert.True(t, removed)

	entry, err := store.Get("k")
	require.NoError(t, err)
	assert.Nil(t, entry)

	removed, err = store.Delete("k")
	require.NoError(t, err)
	assert.False(t, removed)
}

func TestStore_DeletePrefixScopesToNamespace(t *testing.T) {
	store := newTestStore(t)
	require.NoError(t, store.Set("search:a", []byte("1"), time.Hour))
	require.NoError(t, store.Set("search:b", []byte("2"), time.Hour))
	require.NoError(t, store.Set("pkg:a", []byte("3"), time.Hour))

	removed, err := store.DeletePrefix("search:")
	require.NoError(t, err)
	assert.Equal(t, int64(2), removed)

	entry, err := store.Get("pkg:a")
	require.NoError(t, err)
	assert.NotNil(t, entry, "other namespaces must be untouched")
}

func TestStore_PruneExpired(t *testing.T) {
	store := newTestStore(t)
	require.NoError(t, store.Set("short", []byte("v"), time.Minute))
	require.NoError(t, store.Set("long", []byte("v"), 48*time.Hour))

	store.now = func() time.Time { return time.Now().Add(time.Hour) }

	removed, err := store.PruneExpired()
	require.NoError(t, err)
	assert.Equal(t, int64(1), removed)

	st, err := store.Stats()
	require.NoError(t, err)
	assert.Equal(t, 1, st.Entries)
}

func TestStore_StatsCounters(t *testing.T) {
	store := newTestStore(t)
	require.NoError(t, store.Set("k", []byte("v"), time.Hour))

	_, _ = store.Get("k")    // hit
	_, _ = store.Get("nope") // miss

	st, err := store.Stats()
	require.NoError(t, err)
	assert.Equal(t, uint64(1), st.Hits)
	assert.Equal(t, uint64(1), st.Misses)
	assert.Equal(t, 1, st.Entries)
	assert.Positive(t, st.SizeBytes)
}

func TestStore_ClearResetsEverything(t *testing.T) {
	store := newTestStore(t)
	require.NoError(t, store.Set("k1", []byte("v"), time.Hour))
	require.NoError(t, store.Set("k2", []byte("v"), time.Hour))
	_, _ = store.Get("k1")

	require.NoError(t, store.Clear())

	st, err := store.Stats()
	require.NoError(t, err)
	assert.Equal(t, 0, st.Entries)
	assert.Equal(t, uint64(0), st.Hits)
	assert.Equal(t, uint64(0), st.Misses)
}

func TestStore_ReclaimSpace(t *testing.T) {
	store := newTestStore(t)
	require.NoError(t, store.Set("k", []byte("v"), time.Hour))
	_, err := store.DeletePrefix("k")
	require.NoError(t, err)

	assert.NoError(t, store.ReclaimSpace())
}

func TestStore_ConcurrentReadersAndWriters(t *testing.T) {
	store := newTestStore(t)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(2)
		go func(i int) {
			defer wg.Done()
			for j := 0; j < 20; j++ {
				key := fmt.Sprintf("k%d", j%5)
				_ = store.Set(key, []byte(fmt.Sprintf("v%d-%d", i, j)), time.Hour)
			}
		}(i)
		go func() {
			defer wg.Done()
			for j := 0; j < 20; j++ {
				entry, err := store.Get(fmt.Sprintf("k%d", j%5))
				assert.NoError(t, err)
				if entry != nil {
					// A reader must observe a complete value, never a torn write.
					assert.True(t, len(entry.Value) >= 4)
				}
			}
		}()
	}
	wg.Wait()
}

func TestStore_InMemory(t *testing.T) {
	store, err := OpenStore("")
	require.NoError(t, err)
	defer func() { _ = store.Close() }()

	require.NoError(t, store.Set("k", []byte("v"), time.Hour))
	entry, err := store.Get("k")
	require.NoError(t, err)
	require.NotNil(t, entry)

	st, err := store.Stats()
	require.NoError(t, err)
	assert.Zero(t, st.SizeBytes, "in-memory store has no backing file")
}

func TestStore_IOFailureCarriesStoreCode(t *testing.T) {
	store := newTestStore(t)
	require.NoError(t, store.Set("k", []byte("v"), time.Hour))
	require.NoError(t, store.Close())

	_, err := store.Get("k")
	require.Error(t, err)
	assert.Equal(t, seekerr.ErrCodeStoreIO, seekerr.GetCode(err))

	err = store.Set("k", []byte("v"), time.Hour)
	require.Error(t, err)
	assert.Equal(t, seekerr.ErrCodeStoreIO, seekerr.GetCode(err))
}

func TestStore_SurvivesReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cache.db")

	store, err := OpenStore(path)
	require.NoError(t, err)
	require.NoError(t, store.Set("k", []byte("persisted"), time.Hour))
	require.NoError(t, store.Close())

	reopened, err := OpenStore(path)
	require.NoError(t, err)
	defer func() { _ = reopened.Close() }()

	entry, err := reopened.Get("k")
	require.NoError(t, err)
	require.NotNil(t, entry)
	assert.Equal(t, []byte("persisted"), entry.Value)
}
