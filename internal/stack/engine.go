package stack

import (
	"time"

	"github.com/google/uuid"

	"jaspr.dev/jaspr/internal/config"
	"jaspr.dev/jaspr/internal/git"
	"jaspr.dev/jaspr/internal/github"
	"jaspr.dev/jaspr/internal/output"
)

// Engine runs stack reconciliation against the git and forge collaborators.
// It holds no mutable state across operations; everything it needs lives in
// git refs and forge PR metadata.
type Engine struct {
	git git.Client
	gh  github.Client
	cfg *config.Config
	log *output.Splog

	// newID mints commit ids; injectable for deterministic tests.
	newID func() string

	// sleep suspends between polls and delete retries; injectable so tests
	// run with a no-op clock.
	sleep func(time.Duration)

	deleteRetries    int
	deleteRetryDelay time.Duration
}

// New creates an engine over the given collaborators.
func New(gitClient git.Client, ghClient github.Client, cfg *config.Config, log *output.Splog) *Engine {
	return &Engine{
		git:              gitClient,
		gh:               ghClient,
		cfg:              cfg,
		log:              log,
		newID:            func() string { return uuid.NewString() },
		sleep:            func(d time.Duration) { time.Sleep(d) },
		deleteRetries:    3,
		deleteRetryDelay: 2 * time.Second,
	}
}

// SetIDSource overrides the commit id generator, for tests.
func (e *Engine) SetIDSource(newID func() string) {
	e.newID = newID
}

// SetSleep overrides the sleep function, for tests.
func (e *Engine) SetSleep(sleep func(time.Duration)) {
	e.sleep = sleep
}

// trackingRef is the remote-tracking ref of the target branch.
func (e *Engine) trackingRef() string {
	return e.cfg.Remote + "/" + e.cfg.TargetBranch
}

// commitBranch is the current remote branch name for a commit id.
func (e *Engine) commitBranch(commitID string) string {
	return BranchName(e.cfg.BranchPrefix, e.cfg.TargetBranch, commitID)
}
