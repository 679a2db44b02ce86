package cache

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite" // Pure Go SQLite driver (no CGO)

	seekerr "github.com/nixseek/nixseek/internal/errors"
)

// Entry is a single persistent cache record. An entry is logically absent
// once now > InsertedAt + TTL, even if it is still physically present.
type Entry struct {
	Key        string
	Value      []byte
	InsertedAt time.Time
	TTL        time.Duration
	HitCount   int64
}

// ExpiresAt returns the expiry instant of the entry.
func (e *Entry) ExpiresAt() time.Time {
	return e.InsertedAt.Add(e.TTL)
}

// StoreStats reports persistent-store statistics. Counters accumulate
// monotonically and reset only on Clear.
type StoreStats struct {
	Hits      uint64
	Misses    uint64
	Entries   int
	SizeBytes int64
}

// Store is the durable cache tier: a single SQLite file holding TTL-stamped
// key/value rows. Safe for concurrent use from multiple goroutines of one
// process; no other process is assumed to write it.
type Store struct {
	db   *sql.DB
	path string

	// now is injectable for expiry tests.
	now func() time.Time
}

const storeSchema = `
CREATE TABLE IF NOT EXISTS cache (
	key          TEXT PRIMARY KEY,
	value        BLOB NOT NULL,
	inserted_at  INTEGER NOT NULL,
	ttl_seconds  INTEGER NOT NULL,
	hit_count    INTEGER NOT NULL DEFAULT 0
);
CREATE INDEX IF NOT EXISTS idx_cache_expiry ON cache(inserted_at + ttl_seconds);

CREATE TABLE IF NOT EXISTS meta (
	key   TEXT PRIMARY KEY,
	value INTEGER NOT NULL
);
INSERT OR IGNORE INTO meta (key, value) VALUES ('hits', 0);
INSERT OR IGNORE INTO meta (key, value) VALUES ('misses', 0);
`

// OpenStore opens (or creates) the persistent store at path.
// An empty path opens an in-memory store for testing.
func OpenStore(path string) (*Store, error) {
	dsn := ":memory:"
	if path != "" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, seekerr.StoreError("failed to create cache directory", err)
		}
		dsn = path
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, seekerr.StoreError("failed to open cache database", err)
	}

	// Single connection: serializes writers and keeps the in-memory case
	// from opening separate databases per connection.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	// WAL keeps readers unblocked during writes. Pragmas must be issued as
	// statements; modernc.org/sqlite ignores them in the DSN.
	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA busy_timeout = 5000",
		"PRAGMA synchronous = NORMAL",
		"PRAGMA temp_store = MEMORY",
	}
	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			_ = db.Close()
			return nil, seekerr.StoreError("failed to set pragma", err)
		}
	}

	if _, err := db.Exec(storeSchema); err != nil {
		_ = db.Close()
		return nil, seekerr.StoreError("failed to initialize cache schema", err)
	}

	return &Store{db: db, path: path, now: time.Now}, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

// Get returns the entry for key, or (nil, nil) when the key is absent or
// expired. Expired rows are deleted lazily. The hit/miss counters and the
// entry hit count are updated as a side effect.
func (s *Store) Get(key string) (*Entry, error) {
	var (
		value    []byte
		inserted int64
		ttlSecs  int64
		hits     int64
	)
	err := s.db.QueryRow(
		`SELECT value, inserted_at, ttl_seconds, hit_count FROM cache WHERE key = ?`, key,
	).Scan(&value, &inserted, &ttlSecs, &hits)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		s.bumpCounter("misses")
		return nil, nil
	case err != nil:
		return nil, seekerr.StoreError(fmt.Sprintf("cache read failed for %q", key), err)
	}

	entry := &Entry{
		Key:        key,
		Value:      value,
		InsertedAt: time.Unix(inserted, 0),
		TTL:        time.Duration(ttlSecs) * time.Second,
		HitCount:   hits,
	}

	if s.now().After(entry.ExpiresAt()) {
		// Logically absent; remove the stale row opportunistically.
		_, _ = s.db.Exec(`DELETE FROM cache WHERE key = ?`, key)
		s.bumpCounter("misses")
		return nil, nil
	}

	_, _ = s.db.Exec(`UPDATE cache SET hit_count = hit_count + 1 WHERE key = ?`, key)
	s.bumpCounter("hits")
	entry.HitCount++
	return entry, nil
}

// Set inserts or replaces the entry for key. The replace is atomic with
// respect to concurrent readers: a reader observes either the old or the
// new value, never a partial write.
func (s *Store) Set(key string, value []byte, ttl time.Duration) error {
	_, err := s.db.Exec(
		`INSERT OR REPLACE INTO cache (key, value, inserted_at, ttl_seconds, hit_count)
		 VALUES (?, ?, ?, ?, 0)`,
		key, value, s.now().Unix(), int64(ttl/time.Second),
	)
	if err != nil {
		return seekerr.StoreError(fmt.Sprintf("cache write failed for %q", key), err)
	}
	return nil
}

// Delete removes a single key. Reports whether a row was removed.
func (s *Store) Delete(key string) (bool, error) {
	res, err := s.db.Exec(`DELETE FROM cache WHERE key = ?`, key)
	if err != nil {
		return false, seekerr.StoreError(fmt.Sprintf("cache delete failed for %q", key), err)
	}
	n, _ := res.RowsAffected()
	return n > 0, nil
}

// DeletePrefix removes every entry whose key starts with prefix and returns
// the number of removed rows. Used for namespace-wide invalidation.
func (s *Store) DeletePrefix(prefix string) (int64, error) {
	res, err := s.db.Exec(
		`DELETE FROM cache WHERE key LIKE ? ESCAPE '\'`, escapeLike(prefix)+"%",
	)
	if err != nil {
		return 0, seekerr.StoreError(fmt.Sprintf("cache prefix delete failed for %q", prefix), err)
	}
	return res.RowsAffected()
}

// PruneExpired removes rows past their TTL and returns the count. Not
// required for correctness: Get already treats expired rows as absent.
func (s *Store) PruneExpired() (int64, error) {
	res, err := s.db.Exec(
		`DELETE FROM cache WHERE inserted_at + ttl_seconds < ?`, s.now().Unix(),
	)
	if err != nil {
		return 0, seekerr.StoreError("cache prune failed", err)
	}
	return res.RowsAffected()
}

// Clear removes all entries and resets the hit/miss counters.
func (s *Store) Clear() error {
	if _, err := s.db.Exec(`DELETE FROM cache`); err != nil {
		return seekerr.StoreError("cache clear failed", err)
	}
	if _, err := s.db.Exec(`UPDATE meta SET value = 0 WHERE key IN ('hits', 'misses')`); err != nil {
		return seekerr.StoreError("cache counter reset failed", err)
	}
	return nil
}

// ReclaimSpace compacts the backing file after bulk deletion. Best-effort;
// a failure here never affects correctness.
func (s *Store) ReclaimSpace() error {
	if _, err := s.db.Exec(`VACUUM`); err != nil {
		return seekerr.StoreError("cache vacuum failed", err)
	}
	return nil
}

// Stats returns current persistent-store statistics.
func (s *Store) Stats() (StoreStats, error) {
	var st StoreStats
	if err := s.db.QueryRow(`SELECT COUNT(*) FROM cache`).Scan(&st.Entries); err != nil {
		return st, seekerr.StoreError("cache stats failed", err)
	}
	_ = s.db.QueryRow(`SELECT value FROM meta WHERE key = 'hits'`).Scan(&st.Hits)
	_ = s.db.QueryRow(`SELECT value FROM meta WHERE key = 'misses'`).Scan(&st.Misses)

	if s.path != "" {
		if info, err := os.Stat(s.path); err == nil {
			st.SizeBytes = info.Size()
		}
	}
	return st, nil
}

// bumpCounter increments a meta counter; counter errors are ignored since
// statistics must never fail a cache operation.
func (s *Store) bumpCounter(name string) {
	_, _ = s.db.Exec(`UPDATE meta SET value = value + 1 WHERE key = ?`, name)
}

// escapeLike escapes LIKE wildcards in a literal prefix.
func escapeLike(s string) string {
	out := make([]byte, 0, len(s))
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case '%', '_', '\\':
			out = append(out, '\\')
		}
		out = append(out, s[i])
	}
	return string(out)
}
