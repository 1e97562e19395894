package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newVersionCommand(ctx *commandContext) *cobra.Command {
	var binary string

	cmd := &cobra.Command{
		Use:   "version",
		Short: "Show the detected HandBrakeCLI version",
		RunE: func(cmd *cobra.Command, args []string) error {
			hb, err := discoverHandBrake(cmd, ctx, binary)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s (%s)\n", versionLine(hb.Version()), hb.Executable())
			return nil
		},
	}

	cmd.Flags().StringVar(&binary, "binary", "", "Path to the HandBrakeCLI executable")
	return cmd
}
