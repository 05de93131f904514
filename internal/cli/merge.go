package cli

import (
	"github.com/spf13/cobra"

	"jaspr.dev/jaspr/internal/output"
	"jaspr.dev/jaspr/internal/stack"
)

// newMergeCmd creates the merge command
func newMergeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:          "merge",
		Short:        "Merge the mergeable prefix of the stack into the target branch",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			d, err := setup(cmd.Context())
			if err != nil {
				return err
			}

			result, err := d.engine.Merge(cmd.Context())
			if err != nil {
				return err
			}
			reportMerge(d.log, d.cfg.TargetBranch, result)
			return nil
		},
	}

	return cmd
}

func reportMerge(log *output.Splog, targetBranch string, result *stack.MergeResult) {
	if result.Merged == 0 {
		log.Info("nothing to merge yet")
		log.Tip("run 'jaspr status' to see what each PR is waiting on")
		return
	}
	log.Info("%s is now at %s", targetBranch, result.NewTargetHead)
	for _, number := range result.ClosedPRs {
		log.Debug("closed PR #%d", number)
	}
	for _, name := range result.DeletedBranches {
		log.Debug("deleted %s", name)
	}
	if result.Remaining > 0 {
		log.Info("%d commit(s) remain in the stack", result.Remaining)
		log.Tip("rebase onto %s to continue working on them", targetBranch)
	}
}
