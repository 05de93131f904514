package cli

import (
	"time"

	"github.com/spf13/cobra"
)

// newAutoMergeCmd creates the automerge command
func newAutoMergeCmd() *cobra.Command {
	var interval time.Duration

	cmd := &cobra.Command{
		Use:          "automerge",
		Short:        "Wait for checks and reviews, then merge the whole stack",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			d, err := setup(cmd.Context())
			if err != nil {
				return err
			}

			if interval <= 0 {
				interval = d.cfg.MergePoll
			}
			result, err := d.engine.AutoMerge(cmd.Context(), interval)
			if err != nil {
				return err
			}
			reportMerge(d.log, d.cfg.TargetBranch, result)
			return nil
		},
	}

	cmd.Flags().DurationVar(&interval, "interval", 0, "Poll interval (defaults to the configured mergePollSeconds)")

	return cmd
}
