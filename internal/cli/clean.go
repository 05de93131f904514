package cli

import (
	"fmt"

	"github.com/AlecAivazis/survey/v2"
	"github.com/spf13/cobra"

	"jaspr.dev/jaspr/internal/stack"
)

// newCleanCmd creates the clean command
func newCleanCmd() *cobra.Command {
	var (
		abandoned  bool
		allAuthors bool
		yes        bool
	)

	cmd := &cobra.Command{
		Use:          "clean",
		Short:        "Delete remote branches no open PR needs anymore",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			d, err := setup(cmd.Context())
			if err != nil {
				return err
			}

			plan, err := d.engine.PlanClean(cmd.Context(), stack.CleanOptions{
				IncludeAbandoned: abandoned,
				AllAuthors:       allAuthors,
			})
			if err != nil {
				return err
			}

			names := plan.Branches()
			if len(names) == 0 {
				d.log.Info("nothing to clean")
				return nil
			}

			for _, name := range plan.Orphaned {
				d.log.Line("  orphaned:  " + name)
			}
			for _, name := range plan.Abandoned {
				d.log.Line("  abandoned: " + name)
			}

			if !yes {
				confirmed := false
				prompt := &survey.Confirm{
					Message: fmt.Sprintf("Delete these %d remote branch(es)?", len(names)),
				}
				if err := survey.AskOne(prompt, &confirmed); err != nil {
					return err
				}
				if !confirmed {
					d.log.Info("aborted, nothing deleted")
					return nil
				}
			}

			if err := d.engine.ExecuteClean(cmd.Context(), plan); err != nil {
				return err
			}
			d.log.Info("deleted %d branch(es)", len(names))
			return nil
		},
	}

	cmd.Flags().BoolVar(&abandoned, "abandoned", false, "Also delete branches of PRs unreachable from any named stack")
	cmd.Flags().BoolVar(&allAuthors, "all-authors", false, "Include branches last touched by other authors")
	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "Skip the confirmation prompt")

	return cmd
}
