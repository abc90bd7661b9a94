package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"takeoutsync/internal/metacache"
)

func newCacheCommand(ctx *commandContext) *cobra.Command {
	cacheCmd := &cobra.Command{
		Use:   "cache",
		Short: "Inspect and manage the metadata cache",
	}

	cacheCmd.AddCommand(newCacheStatsCommand(ctx))
	cacheCmd.AddCommand(newCacheClearCommand(ctx))

	return cacheCmd
}

func newCacheStatsCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Show metadata cache usage",
		RunE: func(cmd *cobra.Command, args []string) error {
			store, warn, err := openMetadataCache(ctx)
			out := cmd.OutOrStdout()
			if warn != "" {
				fmt.Fprintln(out, warn)
			}
			if err != nil || store == nil {
				return err
			}
			defer store.Close()

			count, err := store.Count(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintf(out, "Path:    %s\n", store.Path())
			fmt.Fprintf(out, "Entries: %d\n", count)
			if info, err := os.Stat(store.Path()); err == nil {
				fmt.Fprintf(out, "Size:    %s\n", humanBytes(info.Size()))
			}
			return nil
		},
	}
}

func newCacheClearCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "clear",
		Short: "Remove every cached metadata entry",
		RunE: func(cmd *cobra.Command, args []string) error {
			store, warn, err := openMetadataCache(ctx)
			out := cmd.OutOrStdout()
			if warn != "" {
				fmt.Fprintln(out, warn)
			}
			if err != nil || store == nil {
				return err
			}
			defer store.Close()

			count, err := store.Count(cmd.Context())
			if err != nil {
				return err
			}
			if err := store.Clear(cmd.Context()); err != nil {
				return err
			}
			fmt.Fprintf(out, "Removed %d cached entries\n", count)
			return nil
		},
	}
}

func openMetadataCache(ctx *commandContext) (*metacache.Store, string, error) {
	cfg, err := ctx.ensureConfig()
	if err != nil {
		return nil, "", err
	}
	if !cfg.Metadata.CacheEnabled {
		return nil, "Metadata cache is disabled (metadata.cache_enabled = false)", nil
	}
	if _, err := os.Stat(cfg.MetadataCachePath()); errors.Is(err, os.ErrNotExist) {
		return nil, "Metadata cache is empty", nil
	}
	store, err := metacache.Open(cfg.MetadataCachePath())
	if err != nil {
		return nil, "", fmt.Errorf("open metadata cache: %w", err)
	}
	return store, "", nil
}

func humanBytes(n int64) string {
	const unit = 1024
	if n < unit {
		return fmt.Sprintf("%d B", n)
	}
	div, exp := int64(unit), 0
	for m := n / unit; m >= unit; m /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %ciB", float64(n)/float64(div), "KMGTPE"[exp])
}
