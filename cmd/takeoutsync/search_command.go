package main

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"takeoutsync/internal/destination"
)

func newSearchCommand(ctx *commandContext) *cobra.Command {
	var (
		at      string
		window  time.Duration
		jsonOut bool
	)
	cmd := &cobra.Command{
		Use:   "search [filename]",
		Short: "Look up media items in Photos by filename or capture time",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := ctx.requirePhotos()
			if err != nil {
				return err
			}
			var query destination.Query
			switch {
			case len(args) == 1:
				query = destination.Query{Kind: destination.ByName, Name: strings.TrimSpace(args[0])}
			case at != "":
				ts, err := time.Parse(time.RFC3339, at)
				if err != nil {
					return fmt.Errorf("--at: %w", err)
				}
				query = destination.Query{Kind: destination.ByTime, From: ts.Add(-window), To: ts.Add(window)}
			default:
				return errors.New("give a filename or --at")
			}

			results, err := client.Search(cmd.Context(), []destination.Query{query})
			if err != nil {
				return err
			}
			var found []destination.PhotoInfo
			if len(results) == 1 {
				found = results[0]
			}
			if jsonOut {
				return writeJSON(cmd, found)
			}
			out := cmd.OutOrStdout()
			if len(found) == 0 {
				fmt.Fprintln(out, "No matching media items")
				return nil
			}
			rows := make([][]string, 0, len(found))
			for _, p := range found {
				rows = append(rows, []string{p.ID, p.Filename, strconv.FormatInt(p.Size, 10), p.Timestamp.Local().Format(time.DateTime)})
			}
			fmt.Fprintln(out, renderTable(
				[]string{"ID", "Filename", "Size", "Taken"},
				rows,
				[]columnAlignment{alignLeft, alignLeft, alignRight, alignLeft},
			))
			return nil
		},
	}
	cmd.Flags().StringVar(&at, "at", "", "Search by capture time (RFC 3339)")
	cmd.Flags().DurationVar(&window, "window", 2*time.Second, "Half-width of the --at time window")
	cmd.Flags().BoolVar(&jsonOut, "json", false, "Print as JSON")
	return cmd
}
