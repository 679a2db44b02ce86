package search

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"runtime"
	"strconv"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/nixseek/nixseek/internal/cache"
	"github.com/nixseek/nixseek/internal/catalog"
	seekerr "github.com/nixseek/nixseek/internal/errors"
)

// maxQueryLength bounds accepted query strings.
const maxQueryLength = 200

// Options configures the search engine.
type Options struct {
	// DefaultLimit is the result limit applied when a request has none.
	DefaultLimit int
	// FuzzyThreshold is the minimum similarity for fuzzy acceptance.
	FuzzyThreshold float64
	// Timeout is the hard per-query deadline covering all source fetches.
	Timeout time.Duration
	// Workers bounds the candidate-scoring pool. Zero means GOMAXPROCS.
	Workers int
}

// Request is one logical search.
type Request struct {
	// Query is the raw query string.
	Query string
	// Scope is the set of sources to consult.
	Scope []catalog.SourceID
	// Limit truncates the ranked result list. Zero uses the default.
	Limit int
	// Fuzzy enables the fuzzy match tier.
	Fuzzy bool
	// UseCache consults and populates the search-result cache.
	UseCache bool
}

// Response is the outcome of a successful (possibly degraded) search.
type Response struct {
	// Results is the ranked, truncated result list.
	Results []MatchResult `json:"results"`
	// Degraded is true when at least one requested source failed or timed
	// out while at least one other succeeded.
	Degraded bool `json:"degraded,omitempty"`
	// FailedSources names the sources that did not contribute.
	FailedSources []string `json:"failed_sources,omitempty"`
	// FromCache is true when the response was served without any fetch.
	FromCache bool `json:"from_cache,omitempty"`
}

// Engine orchestrates a logical search: cache fast path, parallel source
// fan-out, scoring, deterministic ranking, and cache write-back. The cache
// coordinator is shared across all concurrent searches.
type Engine struct {
	cache   *cache.Coordinator
	sources map[catalog.SourceID]catalog.Source
	opts    Options
}

// NewEngine creates a search engine over the given sources.
func NewEngine(coordinator *cache.Coordinator, sources []catalog.Source, opts Options) *Engine {
	if opts.DefaultLimit <= 0 {
		opts.DefaultLimit = 50
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 30 * time.Second
	}
	if opts.Workers <= 0 {
		opts.Workers = runtime.GOMAXPROCS(0)
	}
	byID := make(map[catalog.SourceID]catalog.Source, len(sources))
	for _, src := range sources {
		byID[src.ID()] = src
	}
	return &Engine{cache: coordinator, sources: byID, opts: opts}
}

// cachedSearch is the serialized form of a search result list.
type cachedSearch struct {
	Results []MatchResult `json:"results"`
}

// Search executes one logical search per the request. Individual source
// failures degrade the response; it returns an error only for invalid
// queries or when every requested source failed or produced nothing.
func (e *Engine) Search(ctx context.Context, req Request) (*Response, error) {
	query := strings.TrimSpace(req.Query)
	if query == "" {
		return nil, seekerr.New(seekerr.ErrCodeQueryEmpty, "query must not be empty", nil)
	}
	if len(query) > maxQueryLength {
		return nil, seekerr.New(seekerr.ErrCodeQueryTooLong,
			fmt.Sprintf("query exceeds %d characters", maxQueryLength), nil)
	}
	if req.Limit <= 0 {
		req.Limit = e.opts.DefaultLimit
	}
	if len(req.Scope) == 0 {
		req.Scope = []catalog.SourceID{catalog.SourceNixpkgs}
	}

	key := cache.Key(cache.NamespaceSearch,
		strings.ToLower(query),
		catalog.ScopeString(req.Scope),
		strconv.Itoa(req.Limit),
		strconv.FormatBool(req.Fuzzy),
	)

	if req.UseCache {
		if raw, ok := e.cache.Get(key); ok {
			var cached cachedSearch
			if err := json.Unmarshal(raw, &cached); err == nil {
				slog.Debug("search_cache_hit", slog.String("query", query))
				return &Response{Results: cached.Results, FromCache: true}, nil
			}
			// Undecodable entry: drop it and fall through to a fresh search.
			e.cache.Invalidate(key)
		}
	}

	start := time.Now()
	candidates, failed := e.fetchAll(ctx, query, req.Scope)

	if len(failed) == len(req.Scope) {
		errs := make([]string, 0, len(failed))
		for _, f := range failed {
			errs = append(errs, f.err.Error())
		}
		return nil, seekerr.NoResults(query,
			fmt.Errorf("all sources failed: %s", strings.Join(errs, "; ")))
	}

	matcher := Matcher{FuzzyEnabled: req.Fuzzy, FuzzyThreshold: e.opts.FuzzyThreshold}
	results := e.scoreParallel(query, candidates, matcher)
	SortResults(results)
	if len(results) > req.Limit {
		results = results[:req.Limit]
	}

	if len(results) == 0 {
		err := seekerr.NoResults(query, nil)
		if hint := Suggest(query, candidates); hint != "" {
			err = err.WithSuggestion(hint)
		}
		return nil, err
	}

	resp := &Response{Results: results, Degraded: len(failed) > 0}
	for _, f := range failed {
		resp.FailedSources = append(resp.FailedSources, string(f.id))
	}

	// Write back only a complete merge: not after cancellation, and not a
	// partial list missing a failed source's contribution.
	if req.UseCache && !resp.Degraded && ctx.Err() == nil {
		if raw, err := json.Marshal(cachedSearch{Results: results}); err == nil {
			e.cache.Populate(cache.NamespaceSearch, key, raw)
		}
	}

	slog.Info("search_complete",
		slog.String("query", query),
		slog.Int("results", len(results)),
		slog.Bool("degraded", resp.Degraded),
		slog.Duration("duration", time.Since(start)))
	return resp, nil
}

// sourceFailure records why one source did not contribute.
type sourceFailure struct {
	id  catalog.SourceID
	err error
}

// fetchResult is one source fetch outcome delivered on the collection channel.
type fetchResult struct {
	id         catalog.SourceID
	candidates []catalog.Package
	err        error
}

// fetchAll dispatches one fetch per source concurrently and collects until
// all complete or the per-query deadline expires. The deadline is a hard
// cancellation: outstanding fetches are abandoned fire-and-forget and
// counted as timed out; the caller is never blocked past the deadline.
func (e *Engine) fetchAll(ctx context.Context, query string, scope []catalog.SourceID) ([]catalog.Package, []sourceFailure) {
	fctx, cancel := context.WithTimeout(ctx, e.opts.Timeout)
	defer cancel()

	// Buffered so abandoned fetches never block on send.
	resCh := make(chan fetchResult, len(scope))
	pending := make(map[catalog.SourceID]bool, len(scope))

	for _, id := range scope {
		src, ok := e.sources[id]
		if !ok {
			resCh <- fetchResult{id: id, err: fmt.Errorf("no adapter for source %q", id)}
			pending[id] = true
			continue
		}
		pending[id] = true
		go func(id catalog.SourceID, src catalog.Source) {
			candidates, err := src.FetchCandidates(fctx, query)
			resCh <- fetchResult{id: id, candidates: candidates, err: err}
		}(id, src)
	}

	var (
		candidates []catalog.Package
		failed     []sourceFailure
	)
	for len(pending) > 0 {
		select {
		case res := <-resCh:
			delete(pending, res.id)
			if res.err != nil {
				ferr := classifyFetchError(res.id, res.err)
				failed = append(failed, sourceFailure{id: res.id, err: ferr})
				slog.Warn("source_fetch_failed",
					slog.String("source", string(res.id)),
					slog.Bool("retryable", seekerr.IsRetryable(ferr)),
					slog.String("error", res.err.Error()))
				continue
			}
			candidates = append(candidates, res.candidates...)

		case <-fctx.Done():
			for id := range pending {
				failed = append(failed, sourceFailure{id: id, err: seekerr.SourceTimeout(string(id), fctx.Err())})
				slog.Warn("source_fetch_timeout", slog.String("source", string(id)))
			}
			return candidates, failed
		}
	}
	return candidates, failed
}

// classifyFetchError maps a raw adapter error onto the source taxonomy.
// errors.Is unwraps deadline errors buried by transports (e.g. *url.Error
// from an HTTP adapter).
func classifyFetchError(id catalog.SourceID, err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return seekerr.SourceTimeout(string(id), err)
	}
	return seekerr.SourceUnavailable(string(id), err)
}

// scoreParallel applies the matcher over the candidate union, partitioned
// across the bounded worker pool. Partitioning never affects the final
// ordering: results are fully re-sorted by the caller.
func (e *Engine) scoreParallel(query string, candidates []catalog.Package, matcher Matcher) []MatchResult {
	if len(candidates) == 0 {
		return nil
	}

	workers := e.opts.Workers
	chunk := (len(candidates) + workers - 1) / workers

	partitions := make([][]MatchResult, (len(candidates)+chunk-1)/chunk)
	var g errgroup.Group
	g.SetLimit(workers)

	for p := 0; p*chunk < len(candidates); p++ {
		p := p
		lo, hi := p*chunk, (p+1)*chunk
		if hi > len(candidates) {
			hi = len(candidates)
		}
		g.Go(func() error {
			var out []MatchResult
			for _, pkg := range candidates[lo:hi] {
				if result, ok := matcher.Score(query, pkg); ok {
					out = append(out, result)
				}
			}
			partitions[p] = out
			return nil
		})
	}
	_ = g.Wait() // scoring goroutines never return errors

	var results []MatchResult
	for _, part := range partitions {
		results = append(results, part...)
	}
	return results
}
