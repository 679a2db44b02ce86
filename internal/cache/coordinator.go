// Package cache implements the two-tier cache: a durable SQLite store and
// an in-memory LRU hot cache, unified behind a read-through/write-through
// coordinator.
package cache

import (
	"log/slog"
	"sync"
	"time"
)

// Stats merges statistics across both tiers. Counters accumulate
// monotonically and reset only on Clear.
type Stats struct {
	Hits        uint64 `json:"hits"`
	Misses      uint64 `json:"misses"`
	Evictions   uint64 `json:"evictions"`
	Entries     int    `json:"entries"`
	SizeBytes   int64  `json:"size_bytes"`
	HotEntries  int    `json:"hot_entries"`
	HotCapacity int    `json:"hot_capacity"`
}

// HitRate returns the fraction of lookups served from either tier.
func (s Stats) HitRate() float64 {
	total := s.Hits + s.Misses
	if total == 0 {
		return 0
	}
	return float64(s.Hits) / float64(total)
}

// Options configures a Coordinator.
type Options struct {
	// Enabled, when false, makes every operation a pass-through no-op:
	// reads always miss, writes silently succeed.
	Enabled bool

	// StorePath is the persistent database path. Empty means in-memory.
	StorePath string

	// HotCapacity bounds the in-memory tier in entries.
	HotCapacity int

	// TTLs maps each namespace to its entry lifetime.
	TTLs map[Namespace]time.Duration
}

// Coordinator unifies the hot and persistent tiers behind a read-through/
// write-through contract. It owns the invalidation policy and the
// per-namespace TTL table; it never fetches from upstream sources itself.
//
// Persistent-store failures are absorbed here: they degrade the operation
// to cache-miss behavior and are logged, never propagated.
type Coordinator struct {
	enabled bool
	hot     *HotCache
	store   *Store // nil when the backing store failed to open
	ttls    map[Namespace]time.Duration

	// invMu orders hot-tier promotion against invalidation: promotions
	// take the read side, invalidations the write side, so a reader can
	// never resurrect a just-invalidated value into the hot tier.
	invMu sync.RWMutex
}

// NewCoordinator builds the two tiers from opts. A store that cannot be
// opened degrades the coordinator to hot-tier-only caching.
func NewCoordinator(opts Options) (*Coordinator, error) {
	if opts.HotCapacity <= 0 {
		opts.HotCapacity = 64
	}
	hot, err := NewHotCache(opts.HotCapacity)
	if err != nil {
		return nil, err
	}

	c := &Coordinator{
		enabled: opts.Enabled,
		hot:     hot,
		ttls:    opts.TTLs,
	}

	if opts.Enabled {
		store, err := OpenStore(opts.StorePath)
		if err != nil {
			slog.Warn("cache_store_unavailable", slog.String("error", err.Error()))
		} else {
			c.store = store
		}
	}

	return c, nil
}

// Close releases the persistent store.
func (c *Coordinator) Close() error {
	if c.store != nil {
		return c.store.Close()
	}
	return nil
}

// Enabled reports whether caching is active.
func (c *Coordinator) Enabled() bool {
	return c.enabled
}

// TTLFor resolves the configured TTL for a namespace.
func (c *Coordinator) TTLFor(ns Namespace) time.Duration {
	if ttl, ok := c.ttls[ns]; ok {
		return ttl
	}
	return 5 * time.Minute
}

// Get performs a read-through lookup: hot tier first, then the persistent
// store, promoting persistent hits into the hot tier. Returns (nil, false)
// on a both-tier miss or when caching is disabled.
func (c *Coordinator) Get(key string) ([]byte, bool) {
	if !c.enabled {
		return nil, false
	}

	if value, ok := c.hot.Get(key); ok {
		return value, true
	}

	if c.store == nil {
		return nil, false
	}

	c.invMu.RLock()
	defer c.invMu.RUnlock()

	entry, err := c.store.Get(key)
	if err != nil {
		slog.Warn("cache_read_degraded", slog.String("key", key), slog.String("error", err.Error()))
		return nil, false
	}
	if entry == nil {
		return nil, false
	}

	c.hot.Set(key, entry.Value, entry.ExpiresAt())
	return entry.Value, true
}

// Populate writes through both tiers: persistent store first, then hot.
// A persistent write failure still populates the hot tier (best-effort
// degraded caching) and is logged, not returned.
func (c *Coordinator) Populate(ns Namespace, key string, value []byte) {
	if !c.enabled {
		return
	}

	ttl := c.TTLFor(ns)
	expiresAt := time.Now().Add(ttl)

	if c.store != nil {
		if err := c.store.Set(key, value, ttl); err != nil {
			slog.Warn("cache_write_degraded", slog.String("key", key), slog.String("error", err.Error()))
		}
	}

	c.hot.Set(key, value, expiresAt)
}

// Invalidate removes key from both tiers.
func (c *Coordinator) Invalidate(key string) {
	if !c.enabled {
		return
	}

	c.invMu.Lock()
	defer c.invMu.Unlock()

	if c.store != nil {
		if _, err := c.store.Delete(key); err != nil {
			slog.Warn("cache_invalidate_degraded", slog.String("key", key), slog.String("error", err.Error()))
		}
	}
	c.hot.Delete(key)
}

// InvalidatePrefix removes every key with the given prefix from both tiers
// and returns the number of persistent rows removed.
func (c *Coordinator) InvalidatePrefix(prefix string) int64 {
	if !c.enabled {
		return 0
	}

	c.invMu.Lock()
	defer c.invMu.Unlock()

	var removed int64
	if c.store != nil {
		n, err := c.store.DeletePrefix(prefix)
		if err != nil {
			slog.Warn("cache_invalidate_degraded", slog.String("prefix", prefix), slog.String("error", err.Error()))
		}
		removed = n
	}
	c.hot.DeletePrefix(prefix)
	return removed
}

// InvalidateNamespace removes every entry of one namespace without
// touching the others.
func (c *Coordinator) InvalidateNamespace(ns Namespace) int64 {
	return c.InvalidatePrefix(Prefix(ns))
}

// Clear performs a full invalidation of all namespaces and resets all
// counters in both tiers.
func (c *Coordinator) Clear() error {
	c.invMu.Lock()
	defer c.invMu.Unlock()

	c.hot.Clear()
	if c.store != nil {
		return c.store.Clear()
	}
	return nil
}

// Prune removes expired entries from the persistent store and returns the
// count. The hot tier needs no sweep: expired entries are refused on read
// and rotate out by recency.
func (c *Coordinator) Prune() int64 {
	if c.store == nil {
		return 0
	}
	n, err := c.store.PruneExpired()
	if err != nil {
		slog.Warn("cache_prune_degraded", slog.String("error", err.Error()))
		return 0
	}
	if n > 0 {
		slog.Info("cache_pruned", slog.Int64("removed", n))
	}
	return n
}

// ReclaimSpace compacts the persistent store after bulk deletion.
// Best-effort: failure is logged and swallowed.
func (c *Coordinator) ReclaimSpace() {
	if c.store == nil {
		return
	}
	if err := c.store.ReclaimSpace(); err != nil {
		slog.Warn("cache_reclaim_degraded", slog.String("error", err.Error()))
	}
}

// Stats reports merged statistics across both tiers. Hits count service
// from either tier; misses count both-tier misses; evictions are hot-tier
// capacity evictions; entry count and size come from the authoritative
// persistent tier. In hot-only degraded mode (store failed to open) every
// hot miss is final, so the hot tier's miss counter stands in.
func (c *Coordinator) Stats() Stats {
	hot := c.hot.Stats()
	merged := Stats{
		Hits:        hot.Hits,
		Evictions:   hot.Evictions,
		HotEntries:  hot.Entries,
		HotCapacity: hot.Capacity,
	}

	if c.store == nil {
		merged.Misses = hot.Misses
		return merged
	}

	st, err := c.store.Stats()
	if err != nil {
		slog.Warn("cache_stats_degraded", slog.String("error", err.Error()))
		merged.Misses = hot.Misses
		return merged
	}
	merged.Hits += st.Hits
	merged.Misses = st.Misses
	merged.Entries = st.Entries
	merged.SizeBytes = st.SizeBytes
	return merged
}
