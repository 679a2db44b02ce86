// Package catalog defines package records and the upstream catalog sources
// they are fetched from.
package catalog

import (
	"context"
	"fmt"
	"strings"
)

// SourceID identifies an upstream catalog. The set is closed: new sources
// are added by extending it, not by inheritance.
type SourceID string

const (
	// SourceNixpkgs is the primary nixpkgs catalog.
	SourceNixpkgs SourceID = "nixpkgs"
	// SourceNUR is the Nix User Repository community catalog.
	SourceNUR SourceID = "nur"
)

// ParseScope converts a CLI scope string into the set of sources to query.
func ParseScope(scope string) ([]SourceID, error) {
	switch strings.ToLower(scope) {
	case "", "nixpkgs":
		return []SourceID{SourceNixpkgs}, nil
	case "nur":
		return []SourceID{SourceNUR}, nil
	case "all":
		return []SourceID{SourceNixpkgs, SourceNUR}, nil
	default:
		return nil, fmt.Errorf("unknown source scope %q (expected nixpkgs, nur, or all)", scope)
	}
}

// ScopeString renders a source set deterministically, for cache keys.
func ScopeString(scope []SourceID) string {
	parts := make([]string, len(scope))
	for i, s := range scope {
		parts[i] = string(s)
	}
	return strings.Join(parts, ",")
}

// Package is one package record as returned by a source. Immutable once
// fetched within a query.
type Package struct {
	Name        string   `json:"name"`
	Version     string   `json:"version"`
	Description string   `json:"description"`
	AttrPath    string   `json:"attr_path,omitempty"`
	Source      SourceID `json:"source"`
}

// DisplayName returns the name prefixed with its source for CLI output.
func (p Package) DisplayName() string {
	if p.Source == "" {
		return p.Name
	}
	return fmt.Sprintf("%s/%s", p.Source, p.Name)
}

// Source fetches raw candidate records from one upstream catalog. A source
// is a potentially slow, potentially failing black box; callers bound it
// with a context deadline and tolerate individual failures.
type Source interface {
	// ID returns the catalog this source serves.
	ID() SourceID

	// FetchCandidates returns candidate records for the query hint.
	FetchCandidates(ctx context.Context, query string) ([]Package, error)
}
