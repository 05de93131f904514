package stack

import (
	"context"

	"jaspr.dev/jaspr/internal/git"
	"jaspr.dev/jaspr/internal/github"
)

// CommitStatus joins one stack commit with its remote branch head and open
// pull request. Derived per invocation, never persisted.
type CommitStatus struct {
	Commit     git.Commit
	RemoteHead string
	PR         *github.PullRequest
}

// Pushed reports whether the remote commit branch points at the local
// commit.
func (s *CommitStatus) Pushed() bool {
	return s.RemoteHead != "" && s.RemoteHead == s.Commit.Hash
}

// Mergeable reports whether the commit can be merged: an open, non-draft PR
// whose checks have concluded and passed and which is approved, with the
// remote branch matching the local commit.
func (s *CommitStatus) Mergeable() bool {
	return s.Pushed() &&
		s.PR != nil &&
		!s.PR.Draft &&
		s.PR.ChecksPass != nil && *s.PR.ChecksPass &&
		s.PR.Approved != nil && *s.PR.Approved
}

// StackStatus is the full per-commit status of the stack plus the
// stack-level problems the status display reports.
type StackStatus struct {
	Statuses     []CommitStatus
	BehindTarget int
	DuplicateIDs map[string][]string
}

// StackCheck reports the cumulative check for position i: the commit and
// every commit below it is mergeable and the stack is not behind target.
func (st *StackStatus) StackCheck(i int) bool {
	if st.BehindTarget > 0 {
		return false
	}
	for j := 0; j <= i; j++ {
		if !st.Statuses[j].Mergeable() {
			return false
		}
	}
	return true
}

// AllMergeable reports whether the entire stack passes the stack check.
func (st *StackStatus) AllMergeable() bool {
	return len(st.Statuses) > 0 && st.StackCheck(len(st.Statuses)-1)
}

// resolveStatuses joins the stack against remote branch heads and open PRs
// by commit id. Revision-history branches are ignored; only branches and
// PRs for the configured target branch participate.
func (e *Engine) resolveStatuses(ctx context.Context, stack []git.Commit) ([]CommitStatus, error) {
	branches, err := e.git.RemoteBranches(ctx, e.cfg.Remote)
	if err != nil {
		return nil, err
	}
	headByID := make(map[string]string)
	for _, branch := range branches {
		parts, ok := ParseBranchName(branch.Name, e.cfg.BranchPrefix)
		if !ok || parts.Revision != 0 || parts.TargetRef != e.cfg.TargetBranch {
			continue
		}
		headByID[parts.CommitID] = branch.Head
	}

	prs, err := e.gh.ListOpenPRs(ctx)
	if err != nil {
		return nil, err
	}
	prByID := make(map[string]*github.PullRequest)
	for i := range prs {
		parts, ok := ParseBranchName(prs[i].HeadRefName, e.cfg.BranchPrefix)
		if !ok || parts.Revision != 0 || parts.TargetRef != e.cfg.TargetBranch {
			continue
		}
		if _, exists := prByID[parts.CommitID]; !exists {
			prByID[parts.CommitID] = &prs[i]
		}
	}

	statuses := make([]CommitStatus, len(stack))
	for i, commit := range stack {
		statuses[i] = CommitStatus{
			Commit:     commit,
			RemoteHead: headByID[commit.ID],
			PR:         prByID[commit.ID],
		}
	}
	return statuses, nil
}

// Status fetches fresh remote state and produces the full stack status. It
// never rewrites history; commits without an id simply show as unpushed.
func (e *Engine) Status(ctx context.Context) (*StackStatus, error) {
	if err := e.git.Fetch(ctx, e.cfg.Remote, true); err != nil {
		return nil, err
	}

	stack, err := e.readStack(ctx)
	if err != nil {
		return nil, err
	}
	statuses, err := e.resolveStatuses(ctx, stack)
	if err != nil {
		return nil, err
	}

	behind, err := e.git.BehindCount(ctx, "HEAD", e.trackingRef())
	if err != nil {
		return nil, err
	}

	return &StackStatus{
		Statuses:     statuses,
		BehindTarget: behind,
		DuplicateIDs: duplicateIDs(stack),
	}, nil
}
