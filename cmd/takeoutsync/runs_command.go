package main

import (
	"fmt"
	"os"
	"strconv"

	"github.com/spf13/cobra"

	"takeoutsync/internal/runstate"
)

type runRow struct {
	ID        string `json:"id"`
	Started   string `json:"started,omitempty"`
	Albums    int    `json:"createdAlbums"`
	Images    int    `json:"importedImages"`
	HasOutput bool   `json:"hasOutput"`
	HasFinal  bool   `json:"hasFinal"`
}

func newRunsCommand(ctx *commandContext) *cobra.Command {
	var jsonOut bool
	cmd := &cobra.Command{
		Use:   "runs",
		Short: "List prior runs and the state they recorded",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			dirs, err := runstate.Discover(cfg.Paths.RunsDir)
			if err != nil {
				return err
			}
			logger, err := ctx.logger()
			if err != nil {
				return err
			}

			rows := make([]runRow, 0, len(dirs))
			for _, dir := range dirs {
				row := runRow{ID: dir.ID, HasOutput: exists(dir.File(runstate.OutputFile)), HasFinal: exists(dir.File(runstate.FinalFile))}
				if started, ok := dir.Started(); ok {
					row.Started = started.Format("2006-01-02 15:04:05")
				}
				albums, err := runstate.ReadCreatedAlbums(dir)
				if err != nil {
					return err
				}
				images, err := runstate.ReadImportedImages(dir, logger)
				if err != nil {
					return err
				}
				row.Albums, row.Images = len(albums), len(images)
				rows = append(rows, row)
			}

			if jsonOut {
				return writeJSON(cmd, rows)
			}
			out := cmd.OutOrStdout()
			if len(rows) == 0 {
				fmt.Fprintf(out, "No runs under %s\n", cfg.Paths.RunsDir)
				return nil
			}
			table := make([][]string, 0, len(rows))
			for _, r := range rows {
				table = append(table, []string{r.ID, r.Started, strconv.Itoa(r.Albums), strconv.Itoa(r.Images), yesNo(r.HasOutput), yesNo(r.HasFinal)})
			}
			fmt.Fprintln(out, renderTable(
				[]string{"Run", "Started", "Albums", "Images", "Output", "Final"},
				table,
				[]columnAlignment{alignLeft, alignLeft, alignRight, alignRight, alignLeft, alignLeft},
			))
			return nil
		},
	}
	cmd.Flags().BoolVar(&jsonOut, "json", false, "Print as JSON")
	return cmd
}

func exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
