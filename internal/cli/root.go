// Package cli wires the jaspr commands together with cobra.
package cli

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"jaspr.dev/jaspr/internal/config"
	"jaspr.dev/jaspr/internal/git"
	"jaspr.dev/jaspr/internal/github"
	"jaspr.dev/jaspr/internal/output"
	"jaspr.dev/jaspr/internal/retry"
	"jaspr.dev/jaspr/internal/stack"
)

var verbose bool

// NewRootCmd creates the root cobra command
func NewRootCmd(version, commit, date string) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "jaspr",
		Short: "Jaspr turns each commit on your branch into its own stacked pull request",
		Long: `Jaspr turns each commit on your branch into its own stacked pull request.

Commits are tracked by a commit-id trailer in their message, so amending or
reordering them updates the same PRs instead of opening new ones.`,
		Version: fmt.Sprintf("%s (%s, built %s)", version, commit, date),
	}

	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug output")

	rootCmd.AddCommand(newInitCmd())
	rootCmd.AddCommand(newPushCmd())
	rootCmd.AddCommand(newStatusCmd())
	rootCmd.AddCommand(newMergeCmd())
	rootCmd.AddCommand(newAutoMergeCmd())
	rootCmd.AddCommand(newCleanCmd())

	return rootCmd
}

// deps is everything a stack command needs, assembled once per invocation.
type deps struct {
	repoRoot string
	cfg      *config.Config
	log      *output.Splog
	engine   *stack.Engine
}

// setup opens the repository, loads configuration, and connects to the
// forge hosting the configured remote.
func setup(ctx context.Context) (*deps, error) {
	repoRoot, err := git.RepoRoot(".")
	if err != nil {
		return nil, fmt.Errorf("not a git repository: %w", err)
	}

	gitClient, err := git.Open(repoRoot)
	if err != nil {
		return nil, err
	}

	cfg, err := config.Load(repoRoot)
	if err != nil {
		return nil, err
	}

	log := output.NewSplog()
	if verbose {
		log.EnableVerbose(filepath.Join(repoRoot, ".git", "jaspr.log"))
	}

	remoteURL, err := gitClient.ConfigValue(ctx, "remote."+cfg.Remote+".url")
	if err != nil {
		return nil, err
	}
	if remoteURL == "" {
		return nil, fmt.Errorf("remote %q has no URL configured", cfg.Remote)
	}

	ghClient, err := github.NewRealClient(ctx, remoteURL, retry.Default(github.IsRateLimit))
	if err != nil {
		return nil, err
	}

	return &deps{
		repoRoot: repoRoot,
		cfg:      cfg,
		log:      log,
		engine:   stack.New(gitClient, ghClient, cfg, log),
	}, nil
}
