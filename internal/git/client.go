package git

import "context"

// Client is the local VCS collaborator consumed by the stack engine. The
// real implementation shells out to git and reads objects through go-git;
// tests use an in-memory fake.
type Client interface {
	// Fetch updates remote-tracking refs, pruning deleted branches when
	// prune is set.
	Fetch(ctx context.Context, remote string, prune bool) error

	// LogRange returns the commits reachable from head but not from base,
	// oldest first. Commit.ID is not populated; callers extract it from the
	// message trailer.
	LogRange(ctx context.Context, head, base string) ([]Commit, error)

	// ResolveRef resolves a ref expression to a commit hash.
	ResolveRef(ctx context.Context, ref string) (string, error)

	// CommitInfo returns the commit a hash or ref points at.
	CommitInfo(ctx context.Context, ref string) (*Commit, error)

	// CurrentBranch returns the checked-out branch name, or
	// errors.ErrDetachedHead when HEAD is detached.
	CurrentBranch(ctx context.Context) (string, error)

	// IsWorkingTreeClean reports whether the working tree has no uncommitted
	// changes.
	IsWorkingTreeClean(ctx context.Context) (bool, error)

	// ResetHard resets the current branch and working tree to ref.
	ResetHard(ctx context.Context, ref string) error

	// CherryPick applies the given commit on top of HEAD, preserving its
	// author and using committer for the new commit.
	CherryPick(ctx context.Context, hash string, committer Ident) error

	// AmendMessage rewrites the message of the HEAD commit, preserving the
	// author and using committer for the new commit.
	AmendMessage(ctx context.Context, message string, committer Ident) error

	// Push pushes all refspecs in one atomic push. Force applies to every
	// non-delete refspec.
	Push(ctx context.Context, remote string, specs []RefSpec, force bool) error

	// PushWithLease force-pushes a single refspec, refusing if the remote
	// ref no longer points at expected.
	PushWithLease(ctx context.Context, remote string, spec RefSpec, expected string) error

	// RemoteBranches enumerates the remote-tracking branches of remote as of
	// the last fetch.
	RemoteBranches(ctx context.Context, remote string) ([]RemoteBranch, error)

	// IsAncestor reports whether ancestor is reachable from descendant.
	IsAncestor(ctx context.Context, ancestor, descendant string) (bool, error)

	// BehindCount returns how many commits of ref are missing from head's
	// ancestry (head..ref).
	BehindCount(ctx context.Context, head, ref string) (int, error)

	// ConfigValue reads a git config value, returning "" when unset.
	ConfigValue(ctx context.Context, key string) (string, error)
}
