// Package cmd provides the CLI commands for nixseek.
package cmd

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/spf13/cobra"

	"github.com/nixseek/nixseek/internal/cache"
	"github.com/nixseek/nixseek/internal/catalog"
	"github.com/nixseek/nixseek/internal/config"
	seekerr "github.com/nixseek/nixseek/internal/errors"
	"github.com/nixseek/nixseek/internal/logging"
	"github.com/nixseek/nixseek/internal/search"
	"github.com/nixseek/nixseek/pkg/version"
)

var (
	debugMode      bool
	noCache        bool
	loggingCleanup func()
)

// NewRootCmd creates the root command for the nixseek CLI.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "nixseek",
		Short: "Fast package search for Nix",
		Long: `nixseek answers "does package X exist, and how closely does it match my
query" against nixpkgs and the NUR community repository, keeping repeated
queries near-instant with a two-tier cache.

Examples:
  nixseek search firefox
  nixseek search "media player" --source all --limit 20
  nixseek info ripgrep
  nixseek cache stats`,
		Version:      version.Version,
		SilenceUsage: true,
		// Errors render once, through errors.FormatForCLI in main.
		SilenceErrors: true,
	}

	cmd.SetVersionTemplate("nixseek version {{.Version}}\n")

	cmd.PersistentFlags().BoolVar(&debugMode, "debug", false, "Enable debug logging")
	cmd.PersistentFlags().BoolVar(&noCache, "no-cache", false, "Bypass the cache for this invocation")

	cmd.PersistentPreRunE = startLogging
	cmd.PersistentPostRunE = stopLogging

	cmd.AddCommand(newSearchCmd())
	cmd.AddCommand(newInfoCmd())
	cmd.AddCommand(newCacheCmd())
	cmd.AddCommand(newVersionCmd())

	return cmd
}

// Execute runs the root command.
func Execute() error {
	return NewRootCmd().Execute()
}

// startLogging initializes file logging before any command runs.
func startLogging(_ *cobra.Command, _ []string) error {
	logCfg := logging.DefaultConfig()
	if debugMode {
		logCfg = logging.DebugConfig()
	}
	cleanup, err := logging.SetupDefault(logCfg)
	if err != nil {
		// Logging is best-effort for a CLI: continue without a log file.
		return nil
	}
	loggingCleanup = cleanup
	return nil
}

// stopLogging flushes the log file after the command completes.
func stopLogging(_ *cobra.Command, _ []string) error {
	if loggingCleanup != nil {
		loggingCleanup()
		loggingCleanup = nil
	}
	return nil
}

// cacheOptions builds coordinator options from the configuration.
func cacheOptions(cfg *config.Config, enabled bool) cache.Options {
	return cache.Options{
		Enabled:     enabled,
		StorePath:   cfg.StorePath(),
		HotCapacity: cfg.HotCacheCapacity(),
		TTLs: map[cache.Namespace]time.Duration{
			cache.NamespaceSearch:  cfg.Cache.SearchTTL,
			cache.NamespacePackage: cfg.Cache.PackageTTL,
			cache.NamespaceIndex:   cfg.Cache.IndexTTL,
		},
	}
}

// buildApp wires configuration, cache, sources, and the search engine.
// Every call site receives the same explicit coordinator handle; there are
// no process-wide cache singletons.
func buildApp() (*config.Config, *cache.Coordinator, *search.Engine, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, nil, seekerr.ConfigError("failed to load configuration", err)
	}

	enabled := cfg.Cache.Enabled && !noCache
	coordinator, err := cache.NewCoordinator(cacheOptions(cfg, enabled))
	if err != nil {
		return nil, nil, nil, seekerr.StoreError("failed to initialize cache", err)
	}

	httpClient := &http.Client{Timeout: cfg.Search.Timeout}
	sources := []catalog.Source{
		catalog.NewNixpkgsSource(),
		catalog.NewNURSource(httpClient, coordinator),
	}

	engine := search.NewEngine(coordinator, sources, search.Options{
		DefaultLimit:   cfg.Search.MaxResults,
		FuzzyThreshold: cfg.Search.FuzzyThreshold,
		Timeout:        cfg.Search.Timeout,
	})

	slog.Debug("app_initialized",
		slog.Bool("cache_enabled", enabled),
		slog.Int("hot_capacity", cfg.HotCacheCapacity()))
	return cfg, coordinator, engine, nil
}

// buildMaintenanceApp wires configuration and the cache for the maintenance
// commands. The store is opened unconditionally: clearing or pruning the
// persistent file must work even when caching is disabled for queries
// (config or --no-cache), since a stale file is exactly what those commands
// exist to deal with.
func buildMaintenanceApp() (*config.Config, *cache.Coordinator, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, seekerr.ConfigError("failed to load configuration", err)
	}
	coordinator, err := cache.NewCoordinator(cacheOptions(cfg, true))
	if err != nil {
		return nil, nil, seekerr.StoreError("failed to initialize cache", err)
	}
	return cfg, coordinator, nil
}
