// Package github provides the forge collaborator for jaspr.
package github

import "context"

// PullRequest contains the pull request state the engine consumes.
// Number 0 and NodeID "" mean the PR has not been created yet.
type PullRequest struct {
	NodeID      string
	Number      int
	HeadRefName string
	BaseRefName string
	Title       string
	Body        string
	Draft       bool
	Permalink   string

	// ChecksPass is nil while checks have not concluded.
	ChecksPass *bool

	// Approved is nil when no review has been given, false on an explicit
	// change request.
	Approved *bool
}

// CreatePROptions contains options for creating a pull request
type CreatePROptions struct {
	Title string
	Body  string
	Head  string
	Base  string
	Draft bool
}

// UpdatePROptions contains options for updating a pull request. Nil fields
// are left unchanged.
type UpdatePROptions struct {
	Title *string
	Body  *string
	Base  *string
	Draft *bool
}

// Client is the forge collaborator. The real implementation talks to the
// GitHub API; tests use a fake that simulates the PR lifecycle.
type Client interface {
	// ListOpenPRs returns every open pull request of the repository,
	// including per-PR check and approval state.
	ListOpenPRs(ctx context.Context) ([]PullRequest, error)

	// CreatePR creates a new pull request.
	CreatePR(ctx context.Context, opts CreatePROptions) (*PullRequest, error)

	// UpdatePR updates an existing pull request.
	UpdatePR(ctx context.Context, number int, opts UpdatePROptions) error

	// ClosePR closes a pull request without merging it.
	ClosePR(ctx context.Context, number int) error

	// ReconcileAutoClosedPRs gives the forge a chance to settle PRs it
	// auto-closed after a push. A no-op against the real forge.
	ReconcileAutoClosedPRs(ctx context.Context) error

	// RepoURL returns the https URL of the repository, without a trailing
	// slash.
	RepoURL() string
}
