package catalog

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseScope(t *testing.T) {
	tests := []struct {
		in   string
		want []SourceID
	}{
		{"", []SourceID{SourceNixpkgs}},
		{"nixpkgs", []SourceID{SourceNixpkgs}},
		{"nur", []SourceID{SourceNUR}},
		{"all", []SourceID{SourceNixpkgs, SourceNUR}},
		{"ALL", []SourceID{SourceNixpkgs, SourceNUR}},
	}
	for _, tt := range tests {
		got, err := ParseScope(tt.in)
		require.NoError(t, err, "scope %q", tt.in)
		assert.Equal(t, tt.want, got)
	}

	_, err := ParseScope("aur")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "aur")
}

func TestScopeString(t *testing.T) {
	assert.Equal(t, "nixpkgs", ScopeString([]SourceID{SourceNixpkgs}))
	assert.Equal(t, "nixpkgs,nur", ScopeString([]SourceID{SourceNixpkgs, SourceNUR}))
	assert.Equal(t, "", ScopeString(nil))
}

func TestPackageDisplayName(t *testing.T) {
	assert.Equal(t, "nur/firefox-nightly", Package{Name: "firefox-nightly", Source: SourceNUR}.DisplayName())
	assert.Equal(t, "orphan", Package{Name: "orphan"}.DisplayName())
}
