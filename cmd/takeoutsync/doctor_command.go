package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"takeoutsync/internal/config"
	"takeoutsync/internal/preflight"
)

func newDoctorCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "doctor [takeout-dir | output.json]",
		Short: "Check external tools, directories, and an optional source",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			var source string
			if len(args) == 1 {
				if source, err = config.ExpandPath(strings.TrimSpace(args[0])); err != nil {
					return err
				}
			}

			status := newStatusWriter(cmd.OutOrStdout())
			status.heading("Preflight")
			results := preflight.RunAll(cfg, source)
			for _, r := range results {
				result := outcomePass
				if !r.Passed {
					result = outcomeFail
				}
				status.line(result, r.Name, r.Detail)
			}
			status.line(outcomeNote, "Destination", cfg.Destination.Client)
			status.line(outcomeNote, "Mode", cfg.Reconcile.Mode)

			if failed := preflight.Failed(results); len(failed) > 0 {
				return fmt.Errorf("%d check(s) failed", len(failed))
			}
			return nil
		},
	}
}
