package catalog

import (
	"context"
	"errors"
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const nixSearchOutput = `{
	"legacyPackages.x86_64-linux.firefox": {
		"pname": "firefox",
		"version": "130.0",
		"description": "Web browser built from Firefox source tree"
	},
	"legacyPackages.x86_64-linux.firefox-esr": {
		"pname": "firefox-esr",
		"version": "128.2.0esr",
		"description": "Extended support release"
	},
	"legacyPackages.aarch64-darwin.firefox-bin": {
		"pname": "firefox-bin",
		"version": "",
		"description": ""
	}
}`

func TestNixpkgsSource_ParsesSearchOutput(t *testing.T) {
	var gotArgs []string
	src := &NixpkgsSource{
		run: func(_ context.Context, args ...string) ([]byte, error) {
			gotArgs = args
			return []byte(nixSearchOutput), nil
		},
		system: "x86_64-linux",
	}

	candidates, err := src.FetchCandidates(context.Background(), "firefox")
	require.NoError(t, err)
	assert.Equal(t, []string{"search", "--json", "nixpkgs", "firefox"}, gotArgs)

	require.Len(t, candidates, 3)
	sort.Slice(candidates, func(i, j int) bool { return candidates[i].Name < candidates[j].Name })

	assert.Equal(t, "firefox", candidates[0].Name)
	assert.Equal(t, "130.0", candidates[0].Version)
	assert.Equal(t, "legacyPackages.x86_64-linux.firefox", candidates[0].AttrPath)
	assert.Equal(t, SourceNixpkgs, candidates[0].Source)

	// A foreign-system prefix is still stripped down to the package name.
	assert.Equal(t, "firefox-bin", candidates[1].Name)
	assert.Equal(t, "unknown", candidates[1].Version, "missing version is normalized")

	assert.Equal(t, "firefox-esr", candidates[2].Name)
}

func TestNixpkgsSource_PropagatesCommandFailure(t *testing.T) {
	src := &NixpkgsSource{
		run: func(context.Context, ...string) ([]byte, error) {
			return nil, errors.New("nix search: command not found")
		},
		system: "x86_64-linux",
	}

	_, err := src.FetchCandidates(context.Background(), "vim")
	assert.Error(t, err)
}

func TestNixpkgsSource_RejectsMalformedOutput(t *testing.T) {
	src := &NixpkgsSource{
		run: func(context.Context, ...string) ([]byte, error) {
			return []byte("error: flakes disabled"), nil
		},
		system: "x86_64-linux",
	}

	_, err := src.FetchCandidates(context.Background(), "vim")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "malformed")
}

func TestNixpkgsSource_EmptyResultSet(t *testing.T) {
	src := &NixpkgsSource{
		run: func(context.Context, ...string) ([]byte, error) {
			return []byte(`{}`), nil
		},
		system: "x86_64-linux",
	}

	candidates, err := src.FetchCandidates(context.Background(), "no-such-thing")
	require.NoError(t, err)
	assert.Empty(t, candidates)
}

func TestNixSystem(t *testing.T) {
	system := nixSystem()
	assert.NotEmpty(t, system)
	assert.Contains(t, system, "-")
}
