package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"takeoutsync/internal/config"
	"takeoutsync/internal/dupegroups"
)

type dupeAlbum struct {
	Title   string   `json:"title"`
	Groups  int      `json:"groups"`
	Library []string `json:"library"`
	Takeout []string `json:"takeout"`
}

func newDupesCommand(ctx *commandContext) *cobra.Command {
	var jsonOut bool
	cmd := &cobra.Command{
		Use:   "dupes <photosweeper.plist> <takeout-dir>",
		Short: "Group duplicate-finder results by takeout album",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			logger, err := ctx.logger()
			if err != nil {
				return err
			}
			plistPath, err := config.ExpandPath(args[0])
			if err != nil {
				return err
			}
			root, err := config.ExpandPath(args[1])
			if err != nil {
				return err
			}

			groups, err := dupegroups.Load(plistPath)
			if err != nil {
				return err
			}
			albums, err := dupegroups.AlbumsFromTakeout(root, logger)
			if err != nil {
				return err
			}
			matcher := dupegroups.NewMatcher(albums, cfg.Destination.DefaultAlbumPrefix, logger)

			var report []dupeAlbum
			for _, a := range matcher.Assign(groups) {
				entry := dupeAlbum{Title: a.Title, Groups: len(a.Groups)}
				for _, g := range a.Groups {
					lib, tk := g.Split()
					for _, f := range lib {
						entry.Library = append(entry.Library, f.Path)
					}
					for _, f := range tk {
						entry.Takeout = append(entry.Takeout, f.Path)
					}
				}
				report = append(report, entry)
			}

			if jsonOut {
				return writeJSON(cmd, report)
			}
			out := cmd.OutOrStdout()
			if len(report) == 0 {
				fmt.Fprintln(out, "No duplicate groups")
				return nil
			}
			rows := make([][]string, 0, len(report))
			for _, r := range report {
				rows = append(rows, []string{r.Title, strconv.Itoa(r.Groups), strconv.Itoa(len(r.Library)), strconv.Itoa(len(r.Takeout))})
			}
			fmt.Fprintln(out, renderTable(
				[]string{"Album", "Groups", "In library", "In takeout"},
				rows,
				[]columnAlignment{alignLeft, alignRight, alignRight, alignRight},
			))
			return nil
		},
	}
	cmd.Flags().BoolVar(&jsonOut, "json", false, "Print as JSON")
	return cmd
}
