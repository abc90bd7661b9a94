package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

func newInspectCommand(ctx *commandContext) *cobra.Command {
	var show bool
	cmd := &cobra.Command{
		Use:   "inspect <media-id>",
		Short: "Print the Photos properties of a media item",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := ctx.requirePhotos()
			if err != nil {
				return err
			}
			id := strings.TrimSpace(args[0])
			props, err := client.Properties(cmd.Context(), id)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), props)
			if show {
				return client.Spotlight(cmd.Context(), id)
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&show, "show", false, "Also reveal the item in the Photos window")
	return cmd
}
