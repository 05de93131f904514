package cli

import (
	"github.com/spf13/cobra"
)

// newStatusCmd creates the status command
func newStatusCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:          "status",
		Aliases:      []string{"st"},
		Short:        "Show the stack with per-commit PR, check, and review state",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			d, err := setup(cmd.Context())
			if err != nil {
				return err
			}

			status, err := d.engine.Status(cmd.Context())
			if err != nil {
				return err
			}
			if len(status.Statuses) == 0 {
				d.log.Info("stack is empty, %s is up to date", d.cfg.TargetBranch)
				return nil
			}
			for _, line := range status.Render(d.cfg.TargetBranch) {
				d.log.Line(line)
			}
			return nil
		},
	}

	return cmd
}
