package main

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"takeoutsync/internal/config"
	"takeoutsync/internal/logging"
	"takeoutsync/internal/metacache"
	"takeoutsync/internal/metadata"
	"takeoutsync/internal/preflight"
	"takeoutsync/internal/reconcile"
	"takeoutsync/internal/runstate"
)

func newReconcileCommand(ctx *commandContext) *cobra.Command {
	var (
		mode       string
		apply      bool
		noOrganize bool
		include    []string
		exclude    []string
		jsonOut    bool
	)

	cmd := &cobra.Command{
		Use:   "reconcile <takeout-dir | output.json>",
		Short: "Match a takeout against the destination and organize it",
		Long: "Parses the takeout (or a library dump from a previous run), pairs live photos,\n" +
			"attaches sidecar manifests, merges prior run state, and matches every unresolved\n" +
			"item against the destination. Without --apply no destination change is made.",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			if mode != "" {
				cfg.Reconcile.Mode = mode
			}
			if cmd.Flags().Changed("apply") {
				cfg.Reconcile.WhatIf = !apply
			}
			if len(include) > 0 {
				cfg.Filters.IncludeAlbums = include
			}
			if len(exclude) > 0 {
				cfg.Filters.ExcludeAlbums = append(cfg.Filters.ExcludeAlbums, exclude...)
			}
			if err := cfg.Validate(); err != nil {
				return err
			}

			source, err := config.ExpandPath(strings.TrimSpace(args[0]))
			if err != nil {
				return err
			}
			if failed := preflight.Failed(preflight.RunAll(cfg, source)); len(failed) > 0 {
				lines := make([]string, len(failed))
				for i, r := range failed {
					lines[i] = fmt.Sprintf("%s: %s", r.Name, r.Detail)
				}
				return fmt.Errorf("preflight failed (run `takeoutsync doctor`):\n  %s", strings.Join(lines, "\n  "))
			}

			base, err := ctx.logger()
			if err != nil {
				return err
			}
			now := time.Now()
			logging.Retention{Root: cfg.Paths.LogDir, Pattern: "*.log", Days: cfg.Logging.RetentionDays}.Sweep(base, now)
			logging.Retention{Root: cfg.Paths.RunsDir, Pattern: runstate.LogFile, Days: cfg.Logging.RetentionDays}.Sweep(base, now)

			run, err := reconcile.OpenRun(cfg, base, now)
			if err != nil {
				if errors.Is(err, runstate.ErrLocked) {
					return fmt.Errorf("another reconcile is running against %s", cfg.Paths.RunsDir)
				}
				return err
			}
			defer run.Close()

			var cache *metacache.Store
			if cfg.Metadata.CacheEnabled {
				cache, err = metacache.Open(cfg.MetadataCachePath())
				if err != nil {
					logging.WarnWithContext(run.Logger(), "metadata cache unavailable", "cache_unavailable",
						logging.Error(err),
						logging.String(logging.FieldImpact, "metadata is re-read from every file"),
					)
					cache = nil
				} else {
					defer cache.Close()
				}
			}

			extractor := metadata.NewToolExtractor(cfg.Metadata.ExiftoolBinary, cfg.Metadata.FFprobeBinary, cfg.Metadata.ExifFallback)
			reader := metadata.NewReader(extractor, run.Logger(),
				metadata.WithCache(cache),
				metadata.WithConcurrency(cfg.Metadata.Concurrency),
			)
			opts := reconcile.OptionsFromConfig(cfg)
			opts.SkipOrganize = noOrganize

			driver := reconcile.NewDriver(run, cfg.Paths.RunsDir, ctx.destination(), reader, opts)
			summary, runErr := driver.Run(cmd.Context(), source)

			out := cmd.OutOrStdout()
			if jsonOut {
				if err := writeJSON(cmd, summary); err != nil {
					return err
				}
			} else {
				renderSummary(out, summary, cfg.Reconcile.WhatIf)
				fmt.Fprintf(out, "\nRun log: %s\n", run.Session.Path())
			}
			return runErr
		},
	}

	cmd.Flags().StringVar(&mode, "mode", "", "Override reconcile.mode (organize or import)")
	cmd.Flags().BoolVar(&apply, "apply", false, "Apply changes to the destination (disables what-if)")
	cmd.Flags().BoolVar(&noOrganize, "no-organize", false, "Stop after writing output.json")
	cmd.Flags().StringSliceVar(&include, "include", nil, "Only reconcile albums matching these patterns")
	cmd.Flags().StringSliceVar(&exclude, "exclude", nil, "Skip albums matching these patterns")
	cmd.Flags().BoolVar(&jsonOut, "json", false, "Print the run summary as JSON")
	return cmd
}
