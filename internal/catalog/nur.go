package catalog

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/nixseek/nixseek/internal/cache"
)

// nurIndexURL is the community-maintained NUR package index.
const nurIndexURL = "https://raw.githubusercontent.com/nix-community/nur-search/master/data/packages.json"

// NURSource fetches candidates from the Nix User Repository. The full index
// snapshot is downloaded once and cached through the coordinator under the
// index namespace; candidate filtering then runs against the snapshot.
type NURSource struct {
	client   *http.Client
	cache    *cache.Coordinator
	indexURL string
}

// NewNURSource creates the NUR source adapter. cache may be nil, in which
// case every fetch downloads the index.
func NewNURSource(client *http.Client, coordinator *cache.Coordinator) *NURSource {
	if client == nil {
		client = http.DefaultClient
	}
	return &NURSource{
		client:   client,
		cache:    coordinator,
		indexURL: nurIndexURL,
	}
}

// ID implements Source.
func (s *NURSource) ID() SourceID {
	return SourceNUR
}

// nurIndexEntry is one value of the NUR index attribute map.
type nurIndexEntry struct {
	Version string `json:"version"`
	Meta    struct {
		Description string `json:"description"`
	} `json:"meta"`
}

// FetchCandidates loads the NUR index (from cache when fresh) and returns
// the records whose attribute path or description mentions the query.
func (s *NURSource) FetchCandidates(ctx context.Context, query string) ([]Package, error) {
	raw, err := s.loadIndex(ctx)
	if err != nil {
		return nil, err
	}

	var index map[string]nurIndexEntry
	if err := json.Unmarshal(raw, &index); err != nil {
		return nil, fmt.Errorf("nur index malformed: %w", err)
	}

	queryLower := strings.ToLower(query)
	var candidates []Package
	for attr, entry := range index {
		if !strings.Contains(strings.ToLower(attr), queryLower) &&
			!strings.Contains(strings.ToLower(entry.Meta.Description), queryLower) {
			continue
		}
		// Attribute paths look like "repos.<owner>.<name>".
		name := attr
		if i := strings.LastIndex(attr, "."); i >= 0 {
			name = attr[i+1:]
		}
		candidates = append(candidates, Package{
			Name:        name,
			Version:     entry.Version,
			Description: entry.Meta.Description,
			AttrPath:    attr,
			Source:      SourceNUR,
		})
	}

	slog.Debug("nur_fetch_complete",
		slog.String("query", query),
		slog.Int("index_size", len(index)),
		slog.Int("candidates", len(candidates)))
	return candidates, nil
}

// indexCacheKey is the cache key of the NUR index snapshot.
func indexCacheKey() string {
	return cache.Key(cache.NamespaceIndex, "nur")
}

// loadIndex returns the raw index JSON, serving from the cache when a fresh
// snapshot exists and writing through after a download.
func (s *NURSource) loadIndex(ctx context.Context) ([]byte, error) {
	if s.cache != nil {
		if raw, ok := s.cache.Get(indexCacheKey()); ok {
			return raw, nil
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.indexURL, nil)
	if err != nil {
		return nil, fmt.Errorf("nur index request: %w", err)
	}
	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("nur index download: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("nur index download: HTTP %d", resp.StatusCode)
	}

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("nur index download: %w", err)
	}

	if s.cache != nil {
		s.cache.Populate(cache.NamespaceIndex, indexCacheKey(), raw)
	}
	slog.Info("nur_index_updated", slog.Int("bytes", len(raw)))
	return raw, nil
}
