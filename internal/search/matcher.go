// Package search implements query matching and the search engine that fans
// a query out across catalog sources.
package search

import (
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/agnivade/levenshtein"

	"github.com/nixseek/nixseek/internal/catalog"
)

// Tier is the precedence class of a match. Lower values are stronger
// matches and always rank ahead of higher values regardless of score.
type Tier int

const (
	// TierExactName means the query equals the package name.
	TierExactName Tier = iota + 1
	// TierNamePrefix means the package name starts with the query.
	TierNamePrefix
	// TierNameContains means the query is a substring of the name.
	TierNameContains
	// TierDescription means the query is a substring of the description.
	TierDescription
	// TierFuzzy means the name matched by edit-distance similarity.
	TierFuzzy
)

// String returns the display name of the tier.
func (t Tier) String() string {
	switch t {
	case TierExactName:
		return "exact"
	case TierNamePrefix:
		return "prefix"
	case TierNameContains:
		return "name"
	case TierDescription:
		return "description"
	case TierFuzzy:
		return "fuzzy"
	default:
		return "unknown"
	}
}

// MatchResult is one scored candidate.
type MatchResult struct {
	Package catalog.Package `json:"package"`
	Tier    Tier            `json:"tier"`
	Score   float64         `json:"score"`
}

// Matcher scores candidates against a query. It is pure and stateless:
// the same inputs always produce the same result.
type Matcher struct {
	// FuzzyEnabled turns the fuzzy tier on.
	FuzzyEnabled bool
	// FuzzyThreshold is the minimum similarity for fuzzy acceptance.
	FuzzyThreshold float64
}

// Score evaluates a candidate against the query. Tiers are checked in
// strict precedence order and the first match wins; comparison is
// case-insensitive throughout. Returns ok=false when the candidate falls
// below the acceptance threshold of every tier.
func (m Matcher) Score(query string, pkg catalog.Package) (MatchResult, bool) {
	queryLower := strings.ToLower(query)
	nameLower := strings.ToLower(pkg.Name)

	qLen := float64(utf8.RuneCountInString(queryLower))
	nLen := float64(utf8.RuneCountInString(nameLower))

	switch {
	case nameLower == queryLower:
		return MatchResult{Package: pkg, Tier: TierExactName, Score: 1.0}, true

	case strings.HasPrefix(nameLower, queryLower):
		return MatchResult{Package: pkg, Tier: TierNamePrefix, Score: 0.8 + 0.2*qLen/nLen}, true

	case strings.Contains(nameLower, queryLower):
		return MatchResult{Package: pkg, Tier: TierNameContains, Score: 0.6 + 0.2*qLen/nLen}, true

	case strings.Contains(strings.ToLower(pkg.Description), queryLower):
		return MatchResult{Package: pkg, Tier: TierDescription, Score: 0.5}, true
	}

	if m.FuzzyEnabled {
		if sim := Similarity(queryLower, nameLower); sim >= m.FuzzyThreshold {
			return MatchResult{Package: pkg, Tier: TierFuzzy, Score: sim}, true
		}
	}

	return MatchResult{}, false
}

// Similarity computes an edit-distance similarity normalized to [0,1]:
// identical strings score 1.0, fully dissimilar strings 0.0. Monotonic in
// match quality: closer strings score higher.
func Similarity(a, b string) float64 {
	if a == b {
		return 1.0
	}
	longest := utf8.RuneCountInString(a)
	if n := utf8.RuneCountInString(b); n > longest {
		longest = n
	}
	if longest == 0 {
		return 1.0
	}
	dist := levenshtein.ComputeDistance(a, b)
	return 1.0 - float64(dist)/float64(longest)
}

// Suggest is the relaxed suggestion mode: it ignores the fuzzy threshold
// and returns the single closest candidate name, as a "did you mean" hint
// for a query that produced zero accepted results. Returns "" when nothing
// resembles the query at all.
func Suggest(query string, candidates []catalog.Package) string {
	queryLower := strings.ToLower(query)

	best := ""
	bestSim := 0.0
	for _, pkg := range candidates {
		sim := Similarity(queryLower, strings.ToLower(pkg.Name))
		if sim > bestSim || (sim == bestSim && best != "" && pkg.Name < best) {
			best = pkg.Name
			bestSim = sim
		}
	}
	if bestSim <= 0 {
		return ""
	}
	return best
}

// SortResults orders results deterministically: tier ascending, then score
// descending, then package name ascending, then source, regardless of the
// order candidates were scored in.
func SortResults(results []MatchResult) {
	sort.Slice(results, func(i, j int) bool {
		a, b := results[i], results[j]
		if a.Tier != b.Tier {
			return a.Tier < b.Tier
		}
		if a.Score != b.Score {
			return a.Score > b.Score
		}
		if a.Package.Name != b.Package.Name {
			return a.Package.Name < b.Package.Name
		}
		return a.Package.Source < b.Package.Source
	})
}
