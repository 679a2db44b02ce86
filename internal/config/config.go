// Package config loads and validates nixseek configuration.
//
// Configuration resolves in three layers: built-in defaults, the user
// config file (~/.config/nixseek/config.yaml), then environment variable
// overrides (highest priority).
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Config represents the complete nixseek configuration.
type Config struct {
	General GeneralConfig `yaml:"general" json:"general"`
	Search  SearchConfig  `yaml:"search" json:"search"`
	Cache   CacheConfig   `yaml:"cache" json:"cache"`
}

// GeneralConfig holds application-wide settings.
type GeneralConfig struct {
	// Debug enables debug logging to the user log directory.
	Debug bool `yaml:"debug" json:"debug"`
	// LogLevel is the minimum log level (debug, info, warn, error).
	LogLevel string `yaml:"log_level" json:"log_level"`
}

// SearchConfig configures query matching and fan-out.
type SearchConfig struct {
	// MaxResults is the default result limit per query.
	MaxResults int `yaml:"max_results" json:"max_results"`

	// Fuzzy enables the edit-distance match tier.
	Fuzzy bool `yaml:"fuzzy" json:"fuzzy"`

	// FuzzyThreshold is the minimum normalized similarity (0.0-1.0) for a
	// fuzzy match to be accepted into the result list.
	FuzzyThreshold float64 `yaml:"fuzzy_threshold" json:"fuzzy_threshold"`

	// IncludeNUR includes the NUR community repository in searches by default.
	IncludeNUR bool `yaml:"include_nur" json:"include_nur"`

	// Timeout is the hard per-query deadline covering all source fetches.
	Timeout time.Duration `yaml:"timeout" json:"timeout"`
}

// CacheConfig configures the two-tier cache.
type CacheConfig struct {
	// Enabled turns caching on. When false every cache operation is a
	// pass-through no-op.
	Enabled bool `yaml:"enabled" json:"enabled"`

	// Directory overrides the cache directory. Empty means the per-user
	// default under os.UserCacheDir.
	Directory string `yaml:"directory" json:"directory"`

	// MemoryBudgetMB bounds the in-memory hot cache. Capacity in entries
	// is derived from this budget.
	MemoryBudgetMB int `yaml:"memory_budget_mb" json:"memory_budget_mb"`

	// SearchTTL is the lifetime of cached search result lists.
	SearchTTL time.Duration `yaml:"search_ttl" json:"search_ttl"`

	// PackageTTL is the lifetime of cached package metadata.
	PackageTTL time.Duration `yaml:"package_ttl" json:"package_ttl"`

	// IndexTTL is the lifetime of cached upstream index snapshots.
	IndexTTL time.Duration `yaml:"index_ttl" json:"index_ttl"`
}

// NewConfig returns a Config populated with defaults.
func NewConfig() *Config {
	return &Config{
		General: GeneralConfig{
			Debug:    false,
			LogLevel: "info",
		},
		Search: SearchConfig{
			MaxResults:     50,
			Fuzzy:          true,
			FuzzyThreshold: 0.6,
			IncludeNUR:     false,
			Timeout:        30 * time.Second,
		},
		Cache: CacheConfig{
			Enabled:        true,
			MemoryBudgetMB: 4,
			SearchTTL:      5 * time.Minute,
			PackageTTL:     time.Hour,
			IndexTTL:       24 * time.Hour,
		},
	}
}

// hotEntryEstimateBytes is the assumed average size of a hot cache entry
// (serialized result list plus key and bookkeeping) used to derive the
// entry capacity from the memory budget.
const hotEntryEstimateBytes = 4 * 1024

// HotCacheCapacity derives the hot cache entry capacity from the
// configured memory budget. Never below 64 entries.
func (c *Config) HotCacheCapacity() int {
	capacity := c.Cache.MemoryBudgetMB * 1024 * 1024 / hotEntryEstimateBytes
	if capacity < 64 {
		capacity = 64
	}
	return capacity
}

// CacheDir returns the directory holding the persistent cache file.
func (c *Config) CacheDir() string {
	if c.Cache.Directory != "" {
		return c.Cache.Directory
	}
	dir, err := os.UserCacheDir()
	if err != nil {
		dir = os.TempDir()
	}
	return filepath.Join(dir, "nixseek")
}

// StorePath returns the path of the persistent cache database.
func (c *Config) StorePath() string {
	return filepath.Join(c.CacheDir(), "cache.db")
}

// UserConfigPath returns the path of the user configuration file.
func UserConfigPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		dir = "."
	}
	return filepath.Join(dir, "nixseek", "config.yaml")
}

// Load reads configuration: defaults, then the user config file if present,
// then environment overrides.
func Load() (*Config, error) {
	cfg := NewConfig()

	path := UserConfigPath()
	if data, err := os.ReadFile(path); err == nil {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
		}
	} else if !os.IsNotExist(err) {
		return nil, fmt.Errorf("failed to read config %s: %w", path, err)
	}

	cfg.applyEnvOverrides()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// applyEnvOverrides applies NIXSEEK_* environment variables on top of the
// loaded configuration. Env vars have the highest priority.
func (c *Config) applyEnvOverrides() {
	if _, ok := os.LookupEnv("NIXSEEK_DEBUG"); ok {
		c.General.Debug = true
		c.General.LogLevel = "debug"
	}
	if _, ok := os.LookupEnv("NIXSEEK_NO_CACHE"); ok {
		c.Cache.Enabled = false
	}
	if v, ok := os.LookupEnv("NIXSEEK_MAX_RESULTS"); ok {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			c.Search.MaxResults = n
		}
	}
	if v, ok := os.LookupEnv("NIXSEEK_TIMEOUT"); ok {
		if d, err := time.ParseDuration(v); err == nil && d > 0 {
			c.Search.Timeout = d
		}
	}
}

// Validate checks configuration invariants.
func (c *Config) Validate() error {
	if c.Search.MaxResults <= 0 {
		return fmt.Errorf("search.max_results must be positive, got %d", c.Search.MaxResults)
	}
	if c.Search.FuzzyThreshold < 0 || c.Search.FuzzyThreshold > 1 {
		return fmt.Errorf("search.fuzzy_threshold must be in [0,1], got %v", c.Search.FuzzyThreshold)
	}
	if c.Search.Timeout <= 0 {
		return fmt.Errorf("search.timeout must be positive, got %v", c.Search.Timeout)
	}
	if c.Cache.MemoryBudgetMB <= 0 {
		return fmt.Errorf("cache.memory_budget_mb must be positive, got %d", c.Cache.MemoryBudgetMB)
	}
	for name, ttl := range map[string]time.Duration{
		"cache.search_ttl":  c.Cache.SearchTTL,
		"cache.package_ttl": c.Cache.PackageTTL,
		"cache.index_ttl":   c.Cache.IndexTTL,
	} {
		if ttl <= 0 {
			return fmt.Errorf("%s must be positive, got %v", name, ttl)
		}
	}
	return nil
}

// WriteYAML writes the configuration to a YAML file, creating parent
// directories as needed.
func (c *Config) WriteYAML(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create config dir: %w", err)
	}
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to serialize config: %w", err)
	}
	return os.WriteFile(path, data, 0o644)
}
