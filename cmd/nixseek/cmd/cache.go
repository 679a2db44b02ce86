package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/gofrs/flock"
	"github.com/spf13/cobra"

	"github.com/nixseek/nixseek/internal/output"
)

func newCacheCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cache",
		Short: "Inspect and manage the query cache",
	}

	cmd.AddCommand(newCacheStatsCmd())
	cmd.AddCommand(newCacheClearCmd())
	cmd.AddCommand(newCachePruneCmd())
	cmd.AddCommand(newCacheReclaimCmd())

	return cmd
}

func newCacheStatsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Show cache statistics",
		RunE: func(cmd *cobra.Command, _ []string) error {
			_, coordinator, err := buildMaintenanceApp()
			if err != nil {
				return err
			}
			defer func() { _ = coordinator.Close() }()

			out := output.New(cmd.OutOrStdout())
			st := coordinator.Stats()

			out.Linef("Entries:     %d persistent, %d/%d hot",
				st.Entries, st.HotEntries, st.HotCapacity)
			out.Linef("Size:        %s", output.HumanBytes(st.SizeBytes))
			out.Linef("Hits:        %d", st.Hits)
			out.Linef("Misses:      %d", st.Misses)
			out.Linef("Evictions:   %d", st.Evictions)
			out.Linef("Hit rate:    %.1f%%", st.HitRate()*100)
			return nil
		},
	}
}

func newCacheClearCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "clear",
		Short: "Remove all cached entries across every namespace",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, coordinator, err := buildMaintenanceApp()
			if err != nil {
				return err
			}
			defer func() { _ = coordinator.Close() }()

			out := output.New(cmd.OutOrStdout())

			// Serialize destructive maintenance against other nixseek
			// processes sharing the cache file.
			unlock, err := lockCacheDir(cfg.CacheDir())
			if err != nil {
				return err
			}
			defer unlock()

			if err := coordinator.Clear(); err != nil {
				return fmt.Errorf("cache clear failed: %w", err)
			}
			coordinator.ReclaimSpace()
			out.Success("cache cleared")
			return nil
		},
	}
}

func newCachePruneCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "prune",
		Short: "Remove expired entries",
		RunE: func(cmd *cobra.Command, _ []string) error {
			_, coordinator, err := buildMaintenanceApp()
			if err != nil {
				return err
			}
			defer func() { _ = coordinator.Close() }()

			out := output.New(cmd.OutOrStdout())
			removed := coordinator.Prune()
			out.Successf("pruned %d expired entrie(s)", removed)
			return nil
		},
	}
}

func newCacheReclaimCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "reclaim",
		Short: "Compact the cache file after bulk deletion",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, coordinator, err := buildMaintenanceApp()
			if err != nil {
				return err
			}
			defer func() { _ = coordinator.Close() }()

			out := output.New(cmd.OutOrStdout())

			unlock, err := lockCacheDir(cfg.CacheDir())
			if err != nil {
				return err
			}
			defer unlock()

			coordinator.ReclaimSpace()
			out.Success("cache compacted")
			return nil
		},
	}
}

// lockCacheDir takes an exclusive cross-process lock on the cache
// directory for destructive maintenance operations.
func lockCacheDir(dir string) (func(), error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create cache dir: %w", err)
	}
	fl := flock.New(filepath.Join(dir, ".maintenance.lock"))
	if err := fl.Lock(); err != nil {
		return nil, fmt.Errorf("failed to lock cache dir: %w", err)
	}
	return func() { _ = fl.Unlock() }, nil
}
