package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"jaspr.dev/jaspr/internal/config"
)

func newRepoRoot(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, ".git"), 0o755))
	return dir
}

func TestLoad(t *testing.T) {
	t.Parallel()

	t.Run("missing file yields the defaults", func(t *testing.T) {
		t.Parallel()
		root := newRepoRoot(t)
		require.False(t, config.IsInitialized(root))

		cfg, err := config.Load(root)
		require.NoError(t, err)
		require.Equal(t, "origin", cfg.Remote)
		require.Equal(t, "main", cfg.TargetBranch)
		require.Equal(t, "jaspr", cfg.BranchPrefix)
		require.Equal(t, "jaspr-stack", cfg.StackPrefix)
		require.Equal(t, 30*time.Second, cfg.MergePoll)
	})

	t.Run("saved settings round trip", func(t *testing.T) {
		t.Parallel()
		root := newRepoRoot(t)

		remote := "upstream"
		target := "develop"
		poll := 5
		require.NoError(t, config.Save(root, &config.RepoConfig{
			Remote:           &remote,
			TargetBranch:     &target,
			MergePollSeconds: &poll,
		}))
		require.True(t, config.IsInitialized(root))

		cfg, err := config.Load(root)
		require.NoError(t, err)
		require.Equal(t, "upstream", cfg.Remote)
		require.Equal(t, "develop", cfg.TargetBranch)
		require.Equal(t, 5*time.Second, cfg.MergePoll)
		// Unset fields keep their defaults.
		require.Equal(t, "jaspr", cfg.BranchPrefix)
	})

	t.Run("corrupt config file is an error", func(t *testing.T) {
		t.Parallel()
		root := newRepoRoot(t)
		require.NoError(t, os.WriteFile(filepath.Join(root, ".git", ".jaspr_config"), []byte("{not json"), 0o600))

		_, err := config.Load(root)
		require.Error(t, err)
	})

	t.Run("colliding prefixes are rejected", func(t *testing.T) {
		t.Parallel()
		root := newRepoRoot(t)

		prefix := "jaspr"
		require.NoError(t, config.Save(root, &config.RepoConfig{
			BranchPrefix: &prefix,
			StackPrefix:  &prefix,
		}))

		_, err := config.Load(root)
		require.ErrorContains(t, err, "must differ")
	})
}

func TestValidate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name         string
		branchPrefix string
		stackPrefix  string
		wantErr      bool
	}{
		{"distinct prefixes", "jaspr", "jaspr-stack", false},
		{"equal prefixes", "jaspr", "jaspr", true},
		{"stack nested under branch", "jaspr", "jaspr/stacks", true},
		{"branch nested under stack", "stacks/jaspr", "stacks", true},
		{"empty prefix", "", "jaspr-stack", true},
		{"whitespace in prefix", "my prefix", "jaspr-stack", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			cfg := &config.Config{
				Remote:       "origin",
				TargetBranch: "main",
				BranchPrefix: tt.branchPrefix,
				StackPrefix:  tt.stackPrefix,
			}
			err := cfg.Validate()
			if tt.wantErr {
				require.Error(t, err)
			} else {
				require.NoError(t, err)
			}
		})
	}
}
