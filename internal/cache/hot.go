package cache

import (
	"strings"
	"sync/atomic"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
)

// hotEntry carries the cached bytes plus the expiry instant inherited from
// the persistent tier, so expiry checks need no second lookup.
type hotEntry struct {
	value     []byte
	expiresAt time.Time
}

// HotStats reports in-memory tier statistics.
type HotStats struct {
	Hits      uint64
	Misses    uint64
	Evictions uint64
	Entries   int
	Capacity  int
}

// HotCache is the fast, volatile cache tier: a fixed-capacity map with
// least-recently-used eviction by access order. It holds a strict subset of
// what the persistent store could hold and is never the sole source of
// truth. Safe for concurrent use.
type HotCache struct {
	arena    *lru.Cache[string, hotEntry]
	capacity int

	hits      atomic.Uint64
	misses    atomic.Uint64
	evictions atomic.Uint64

	// now is injectable for expiry tests.
	now func() time.Time
}

// NewHotCache creates a hot cache bounded to capacity entries.
func NewHotCache(capacity int) (*HotCache, error) {
	arena, err := lru.New[string, hotEntry](capacity)
	if err != nil {
		return nil, err
	}
	return &HotCache{arena: arena, capacity: capacity, now: time.Now}, nil
}

// Get returns the cached value for key, updating LRU recency. An expired
// entry is never returned; it is dropped and counted as a miss.
func (h *HotCache) Get(key string) ([]byte, bool) {
	entry, ok := h.arena.Get(key)
	if !ok {
		h.misses.Add(1)
		return nil, false
	}
	if h.now().After(entry.expiresAt) {
		h.arena.Remove(key)
		h.misses.Add(1)
		return nil, false
	}
	h.hits.Add(1)
	return entry.value, true
}

// Set stores value under key with the given expiry instant. When over
// capacity the least-recently-used entry is evicted first.
func (h *HotCache) Set(key string, value []byte, expiresAt time.Time) {
	if evicted := h.arena.Add(key, hotEntry{value: value, expiresAt: expiresAt}); evicted {
		h.evictions.Add(1)
	}
}

// Delete removes a single key.
func (h *HotCache) Delete(key string) {
	h.arena.Remove(key)
}

// DeletePrefix removes every entry whose key starts with prefix and
// returns the number removed. Explicit removals are not counted as
// capacity evictions.
func (h *HotCache) DeletePrefix(prefix string) int {
	removed := 0
	for _, key := range h.arena.Keys() {
		if strings.HasPrefix(key, prefix) {
			if h.arena.Remove(key) {
				removed++
			}
		}
	}
	return removed
}

// Clear drops all entries and resets counters.
func (h *HotCache) Clear() {
	h.arena.Purge()
	h.hits.Store(0)
	h.misses.Store(0)
	h.evictions.Store(0)
}

// Len returns the number of resident entries.
func (h *HotCache) Len() int {
	return h.arena.Len()
}

// Keys returns resident keys in LRU order (oldest first).
func (h *HotCache) Keys() []string {
	return h.arena.Keys()
}

// Stats returns current hot-tier statistics.
func (h *HotCache) Stats() HotStats {
	return HotStats{
		Hits:      h.hits.Load(),
		Misses:    h.misses.Load(),
		Evictions: h.evictions.Load(),
		Entries:   h.arena.Len(),
		Capacity:  h.capacity,
	}
}
