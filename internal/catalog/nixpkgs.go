package catalog

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os/exec"
	"runtime"
	"strings"
)

// NixpkgsSource fetches candidates from the primary nixpkgs catalog via the
// local `nix search --json` command.
type NixpkgsSource struct {
	// run executes the search command; injectable for tests.
	run func(ctx context.Context, args ...string) ([]byte, error)

	// system is the platform attribute prefix to strip from result keys,
	// e.g. "x86_64-linux".
	system string
}

// NewNixpkgsSource creates the nixpkgs source adapter.
func NewNixpkgsSource() *NixpkgsSource {
	return &NixpkgsSource{
		run: func(ctx context.Context, args ...string) ([]byte, error) {
			out, err := exec.CommandContext(ctx, "nix", args...).Output()
			if err != nil {
				if ee, ok := err.(*exec.ExitError); ok && len(ee.Stderr) > 0 {
					return nil, fmt.Errorf("nix search: %s", strings.TrimSpace(string(ee.Stderr)))
				}
				return nil, fmt.Errorf("nix search: %w", err)
			}
			return out, nil
		},
		system: nixSystem(),
	}
}

// ID implements Source.
func (s *NixpkgsSource) ID() SourceID {
	return SourceNixpkgs
}

// nixSearchEntry is one value of the `nix search --json` attribute map.
type nixSearchEntry struct {
	Pname       string `json:"pname"`
	Version     string `json:"version"`
	Description string `json:"description"`
}

// FetchCandidates runs `nix search --json nixpkgs <query>` and parses the
// attribute map into package records.
func (s *NixpkgsSource) FetchCandidates(ctx context.Context, query string) ([]Package, error) {
	out, err := s.run(ctx, "search", "--json", "nixpkgs", query)
	if err != nil {
		return nil, err
	}

	var raw map[string]nixSearchEntry
	if err := json.Unmarshal(out, &raw); err != nil {
		return nil, fmt.Errorf("nix search output malformed: %w", err)
	}

	legacyPrefix := "legacyPackages." + s.system + "."
	candidates := make([]Package, 0, len(raw))
	for attr, entry := range raw {
		name := strings.TrimPrefix(attr, legacyPrefix)
		if name == attr {
			// Fall back to stripping any legacyPackages.<system>. prefix.
			if rest, ok := strings.CutPrefix(attr, "legacyPackages."); ok {
				if _, after, found := strings.Cut(rest, "."); found {
					name = after
				}
			}
		}
		version := entry.Version
		if version == "" {
			version = "unknown"
		}
		candidates = append(candidates, Package{
			Name:        name,
			Version:     version,
			Description: entry.Description,
			AttrPath:    attr,
			Source:      SourceNixpkgs,
		})
	}

	slog.Debug("nixpkgs_fetch_complete",
		slog.String("query", query),
		slog.Int("candidates", len(candidates)))
	return candidates, nil
}

// nixSystem maps the runtime platform to a Nix system tuple.
func nixSystem() string {
	arch := runtime.GOARCH
	switch arch {
	case "amd64":
		arch = "x86_64"
	case "arm64":
		arch = "aarch64"
	}
	return arch + "-" + runtime.GOOS
}
