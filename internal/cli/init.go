package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"jaspr.dev/jaspr/internal/config"
	"jaspr.dev/jaspr/internal/git"
	"jaspr.dev/jaspr/internal/output"
)

// newInitCmd creates the init command
func newInitCmd() *cobra.Command {
	var (
		remote       string
		targetBranch string
		branchPrefix string
		stackPrefix  string
		mergePoll    int
	)

	cmd := &cobra.Command{
		Use:          "init",
		Short:        "Initialize jaspr in the current repository",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			repoRoot, err := git.RepoRoot(".")
			if err != nil {
				return fmt.Errorf("not a git repository: %w", err)
			}

			raw := &config.RepoConfig{}
			if remote != "" {
				raw.Remote = &remote
			}
			if targetBranch != "" {
				raw.TargetBranch = &targetBranch
			}
			if branchPrefix != "" {
				raw.BranchPrefix = &branchPrefix
			}
			if stackPrefix != "" {
				raw.StackPrefix = &stackPrefix
			}
			if mergePoll > 0 {
				raw.MergePollSeconds = &mergePoll
			}

			if err := config.Save(repoRoot, raw); err != nil {
				return fmt.Errorf("failed to write config: %w", err)
			}

			// Re-load to apply defaults and surface prefix collisions now
			// rather than on the first push.
			cfg, err := config.Load(repoRoot)
			if err != nil {
				return err
			}

			splog := output.NewSplog()
			splog.Info("Initialized jaspr")
			splog.Info("  remote:        %s", cfg.Remote)
			splog.Info("  target branch: %s", cfg.TargetBranch)
			splog.Info("  branch prefix: %s", cfg.BranchPrefix)
			splog.Info("  stack prefix:  %s", cfg.StackPrefix)
			return nil
		},
	}

	cmd.Flags().StringVar(&remote, "remote", "", "Remote to push stacks to (default origin)")
	cmd.Flags().StringVar(&targetBranch, "target", "", "Branch the stack merges into (default main)")
	cmd.Flags().StringVar(&branchPrefix, "branch-prefix", "", "Prefix for per-commit branches (default jaspr)")
	cmd.Flags().StringVar(&stackPrefix, "stack-prefix", "", "Prefix for named-stack branches (default jaspr-stack)")
	cmd.Flags().IntVar(&mergePoll, "merge-poll", 0, "Automerge poll interval in seconds (default 30)")

	return cmd
}
