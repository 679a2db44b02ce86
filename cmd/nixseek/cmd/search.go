package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/nixseek/nixseek/internal/catalog"
	seekerr "github.com/nixseek/nixseek/internal/errors"
	"github.com/nixseek/nixseek/internal/output"
	"github.com/nixseek/nixseek/internal/search"
)

// searchOptions holds CLI flags for search.
type searchOptions struct {
	limit   int
	source  string // "nixpkgs", "nur", "all"
	noFuzzy bool
	format  string // "text", "json"
}

func newSearchCmd() *cobra.Command {
	var opts searchOptions

	cmd := &cobra.Command{
		Use:   "search <query>",
		Short: "Search package catalogs",
		Long: `Search nixpkgs (and optionally NUR) for packages matching the query.

Matches are ranked by tier: exact name, name prefix, name substring,
description substring, then fuzzy. Results are cached; repeat queries are
served without touching the network.

Examples:
  nixseek search firefox
  nixseek search "media player" --source all
  nixseek search ripgrep --limit 5 --format json`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			query := strings.Join(args, " ")
			return runSearch(cmd.Context(), cmd, query, opts)
		},
	}

	cmd.Flags().IntVarP(&opts.limit, "limit", "n", 0, "Maximum number of results (default from config)")
	cmd.Flags().StringVarP(&opts.source, "source", "s", "", "Source scope: nixpkgs, nur, all")
	cmd.Flags().BoolVar(&opts.noFuzzy, "no-fuzzy", false, "Disable fuzzy matching")
	cmd.Flags().StringVarP(&opts.format, "format", "f", "text", "Output format: text, json")

	return cmd
}

func runSearch(ctx context.Context, cmd *cobra.Command, query string, opts searchOptions) error {
	cfg, coordinator, engine, err := buildApp()
	if err != nil {
		return err
	}
	defer func() { _ = coordinator.Close() }()

	out := output.New(cmd.OutOrStdout())

	scopeStr := opts.source
	if scopeStr == "" && cfg.Search.IncludeNUR {
		scopeStr = "all"
	}
	scope, err := catalog.ParseScope(scopeStr)
	if err != nil {
		return seekerr.InvalidQuery(err.Error())
	}

	resp, err := engine.Search(ctx, search.Request{
		Query:    query,
		Scope:    scope,
		Limit:    opts.limit,
		Fuzzy:    cfg.Search.Fuzzy && !opts.noFuzzy,
		UseCache: coordinator.Enabled(),
	})
	if err != nil {
		// Rendered by errors.FormatForCLI in main, suggestion included.
		return err
	}

	if opts.format == "json" {
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(resp)
	}

	for _, r := range resp.Results {
		out.Linef("%-40s %-12s %s", r.Package.DisplayName(), r.Package.Version,
			truncate(r.Package.Description, 60))
	}
	out.Dim(fmt.Sprintf("%d result(s) [%s]", len(resp.Results), matchSummary(resp.Results)))

	if resp.Degraded {
		out.Warningf("partial results: source(s) unavailable: %s",
			strings.Join(resp.FailedSources, ", "))
	}
	return nil
}

// matchSummary renders a compact tier breakdown like "2 exact, 5 fuzzy".
func matchSummary(results []search.MatchResult) string {
	counts := map[search.Tier]int{}
	order := []search.Tier{}
	for _, r := range results {
		if counts[r.Tier] == 0 {
			order = append(order, r.Tier)
		}
		counts[r.Tier]++
	}
	parts := make([]string, 0, len(order))
	for _, t := range order {
		parts = append(parts, fmt.Sprintf("%d %s", counts[t], t))
	}
	return strings.Join(parts, ", ")
}

// truncate shortens s to at most n runes. Slicing by rune keeps multibyte
// descriptions valid UTF-8.
func truncate(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n-1]) + "…"
}
