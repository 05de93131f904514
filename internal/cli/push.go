package cli

import (
	"github.com/spf13/cobra"

	"jaspr.dev/jaspr/internal/stack"
)

// newPushCmd creates the push command
func newPushCmd() *cobra.Command {
	var (
		stackName string
		draft     bool
	)

	cmd := &cobra.Command{
		Use:          "push",
		Short:        "Push the stack, creating or updating one PR per commit",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			d, err := setup(cmd.Context())
			if err != nil {
				return err
			}

			opts := stack.PushOptions{
				StackName: stackName,
				Draft:     draft,
			}
			if err := d.engine.Push(cmd.Context(), opts); err != nil {
				return err
			}

			status, err := d.engine.Status(cmd.Context())
			if err != nil {
				return err
			}
			for _, line := range status.Render(d.cfg.TargetBranch) {
				d.log.Line(line)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&stackName, "stack", "", "Also publish the whole stack under this named branch")
	cmd.Flags().BoolVar(&draft, "draft", false, "Create new PRs as drafts")

	return cmd
}
