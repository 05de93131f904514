// Package config provides repository configuration management,
// including reading and writing jaspr configuration files.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
)

const configFileName = ".jaspr_config"

// Defaults applied when a field is absent from the config file.
const (
	DefaultRemote           = "origin"
	DefaultTargetBranch     = "main"
	DefaultBranchPrefix     = "jaspr"
	DefaultStackPrefix      = "jaspr-stack"
	DefaultMergePollSeconds = 30
)

// RepoConfig represents the repository configuration stored in
// .git/.jaspr_config.
type RepoConfig struct {
	Remote           *string `json:"remote,omitempty"`
	TargetBranch     *string `json:"targetBranch,omitempty"`
	BranchPrefix     *string `json:"branchPrefix,omitempty"`
	StackPrefix      *string `json:"stackPrefix,omitempty"`
	MergePollSeconds *int    `json:"mergePollSeconds,omitempty"`
}

// Config is the resolved configuration with all defaults applied.
type Config struct {
	Remote       string
	TargetBranch string
	BranchPrefix string
	StackPrefix  string
	MergePoll    time.Duration
}

// Load reads the repository configuration, applies defaults, and validates
// it. A missing config file yields the defaults.
func Load(repoRoot string) (*Config, error) {
	raw, err := readRepoConfig(repoRoot)
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		Remote:       DefaultRemote,
		TargetBranch: DefaultTargetBranch,
		BranchPrefix: DefaultBranchPrefix,
		StackPrefix:  DefaultStackPrefix,
		MergePoll:    DefaultMergePollSeconds * time.Second,
	}
	if raw.Remote != nil && *raw.Remote != "" {
		cfg.Remote = *raw.Remote
	}
	if raw.TargetBranch != nil && *raw.TargetBranch != "" {
		cfg.TargetBranch = *raw.TargetBranch
	}
	if raw.BranchPrefix != nil && *raw.BranchPrefix != "" {
		cfg.BranchPrefix = *raw.BranchPrefix
	}
	if raw.StackPrefix != nil && *raw.StackPrefix != "" {
		cfg.StackPrefix = *raw.StackPrefix
	}
	if raw.MergePollSeconds != nil && *raw.MergePollSeconds > 0 {
		cfg.MergePoll = time.Duration(*raw.MergePollSeconds) * time.Second
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks structural constraints on the configuration. The two
// branch namespaces must never collide, so the prefixes have to differ and
// neither may be a path prefix of the other.
func (c *Config) Validate() error {
	if c.BranchPrefix == c.StackPrefix {
		return fmt.Errorf("branchPrefix and stackPrefix must differ, both are %q", c.BranchPrefix)
	}
	if strings.HasPrefix(c.BranchPrefix, c.StackPrefix+"/") ||
		strings.HasPrefix(c.StackPrefix, c.BranchPrefix+"/") {
		return fmt.Errorf("branchPrefix %q and stackPrefix %q overlap", c.BranchPrefix, c.StackPrefix)
	}
	for _, p := range []string{c.BranchPrefix, c.StackPrefix} {
		if p == "" || strings.ContainsAny(p, " \t") {
			return fmt.Errorf("invalid branch prefix %q", p)
		}
	}
	return nil
}

// Save writes the repository configuration file.
func Save(repoRoot string, raw *RepoConfig) error {
	configJSON, err := json.MarshalIndent(raw, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	return os.WriteFile(configPath(repoRoot), configJSON, 0600)
}

// IsInitialized checks whether a config file exists for the repository.
func IsInitialized(repoRoot string) bool {
	_, err := os.Stat(configPath(repoRoot))
	return err == nil
}

func configPath(repoRoot string) string {
	return filepath.Join(repoRoot, ".git", configFileName)
}

func readRepoConfig(repoRoot string) (*RepoConfig, error) {
	data, err := os.ReadFile(configPath(repoRoot))
	if err != nil {
		// Config doesn't exist - return default
		return &RepoConfig{}, nil
	}

	var raw RepoConfig
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("failed to parse repo config: %w", err)
	}
	return &raw, nil
}
