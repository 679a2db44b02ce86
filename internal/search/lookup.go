package search

import (
	"context"
	"encoding/json"
	"log/slog"
	"strings"

	"github.com/nixseek/nixseek/internal/cache"
	"github.com/nixseek/nixseek/internal/catalog"
	seekerr "github.com/nixseek/nixseek/internal/errors"
)

// Lookup resolves the metadata of a single package by exact name, serving
// from the package-metadata cache when fresh. Returns NoResults (with a
// "did you mean" hint when one exists) if no source knows the name.
func (e *Engine) Lookup(ctx context.Context, name string, scope []catalog.SourceID) (*catalog.Package, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, seekerr.New(seekerr.ErrCodeQueryEmpty, "package name must not be empty", nil)
	}
	if len(scope) == 0 {
		scope = []catalog.SourceID{catalog.SourceNixpkgs}
	}

	key := cache.Key(cache.NamespacePackage,
		strings.ToLower(name), catalog.ScopeString(scope))

	if raw, ok := e.cache.Get(key); ok {
		var pkg catalog.Package
		if err := json.Unmarshal(raw, &pkg); err == nil {
			slog.Debug("lookup_cache_hit", slog.String("name", name))
			return &pkg, nil
		}
		e.cache.Invalidate(key)
	}

	candidates, failed := e.fetchAll(ctx, name, scope)
	if len(failed) == len(scope) {
		return nil, seekerr.NoResults(name, failed[0].err)
	}

	nameLower := strings.ToLower(name)
	for _, pkg := range candidates {
		if strings.ToLower(pkg.Name) == nameLower {
			if raw, err := json.Marshal(pkg); err == nil && len(failed) == 0 {
				e.cache.Populate(cache.NamespacePackage, key, raw)
			}
			return &pkg, nil
		}
	}

	err := seekerr.NoResults(name, nil)
	if hint := Suggest(name, candidates); hint != "" {
		err = err.WithSuggestion(hint)
	}
	return nil, err
}
