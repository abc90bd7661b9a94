package main

import (
	"errors"
	"fmt"
	"math/rand/v2"

	"github.com/spf13/cobra"

	"takeoutsync/internal/config"
	"takeoutsync/internal/logging"
	"takeoutsync/internal/takeout"
)

func newSampleCommand() *cobra.Command {
	var count int
	cmd := &cobra.Command{
		Use:         "sample <takeout-dir>",
		Short:       "Print random media files from a takeout",
		Args:        cobra.ExactArgs(1),
		Annotations: map[string]string{"skipConfigLoad": "true"},
		RunE: func(cmd *cobra.Command, args []string) error {
			if count < 1 {
				return errors.New("-n must be at least 1")
			}
			root, err := config.ExpandPath(args[0])
			if err != nil {
				return err
			}
			dirs, err := takeout.PhotosDirs(root, logging.NewNop())
			if err != nil {
				return err
			}
			var paths []string
			for _, dir := range dirs {
				found, err := takeout.MediaPaths(dir)
				if err != nil {
					return err
				}
				paths = append(paths, found...)
			}
			if len(paths) == 0 {
				return fmt.Errorf("no media files under %s", root)
			}

			rand.Shuffle(len(paths), func(i, j int) { paths[i], paths[j] = paths[j], paths[i] })
			out := cmd.OutOrStdout()
			for _, path := range paths[:min(count, len(paths))] {
				fmt.Fprintln(out, path)
			}
			return nil
		},
	}
	cmd.Flags().IntVarP(&count, "count", "n", 1, "Number of files to print")
	return cmd
}
