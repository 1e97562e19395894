package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"hbwrap/internal/deps"
	"hbwrap/internal/handbrake"
)

func newDoctorCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "doctor",
		Short: "Check external dependencies",
		RunE: func(cmd *cobra.Command, args []string) error {
			var binary string
			if cfg, err := ctx.ensureConfig(); err == nil {
				binary = cfg.HandBrake.Binary
			} else {
				fmt.Fprintf(cmd.ErrOrStderr(), "warning: configuration not loaded: %v\n", err)
			}

			statuses := deps.Check(deps.Defaults(binary))

			rows := make([][]string, 0, len(statuses))
			missing := 0
			for _, status := range statuses {
				state := "ok"
				detail := status.Path
				if !status.Available {
					state = "missing"
					detail = status.Detail
					if !status.Optional {
						missing++
					}
				}
				if status.Available {
					if hb, err := handbrake.NewWithPath(cmd.Context(), status.Path); err == nil {
						detail = versionLine(hb.Version())
					}
				}
				rows = append(rows, []string{status.Name, status.Command, state, detail})
			}

			fmt.Fprintln(cmd.OutOrStdout(), renderTable(
				[]string{"Dependency", "Command", "Status", "Detail"}, rows))

			if missing > 0 {
				return fmt.Errorf("%d required dependency(ies) missing", missing)
			}
			return nil
		},
	}
}

// versionLine reduces multi-line --version output to its first line.
func versionLine(version string) string {
	line, _, _ := strings.Cut(version, "\n")
	return strings.TrimSpace(line)
}
