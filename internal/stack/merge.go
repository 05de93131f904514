package stack

import (
	"context"

	jasprerrors "jaspr.dev/jaspr/internal/errors"
	"jaspr.dev/jaspr/internal/git"
	"jaspr.dev/jaspr/internal/github"
)

// MergeResult describes what a merge pass did.
type MergeResult struct {
	// Merged is how many commits were advanced into the target branch.
	Merged int

	// NewTargetHead is the hash the target branch now points at; empty when
	// nothing merged.
	NewTargetHead string

	// ClosedPRs are the PR numbers closed because the target subsumed them.
	ClosedPRs []int

	// DeletedBranches are the remote branches removed after the merge.
	DeletedBranches []string

	// Remaining is how many commits are left in the local stack.
	Remaining int
}

// Merge advances the target branch through the longest mergeable prefix of
// the stack in a single push, then closes subsumed PRs, rebases the rest,
// and deletes branches the merge made unreachable. A stack with no
// mergeable prefix is left untouched.
func (e *Engine) Merge(ctx context.Context) (*MergeResult, error) {
	if err := e.git.Fetch(ctx, e.cfg.Remote, true); err != nil {
		return nil, err
	}

	behind, err := e.git.BehindCount(ctx, "HEAD", e.trackingRef())
	if err != nil {
		return nil, err
	}
	if behind > 0 {
		return nil, jasprerrors.NewBehindTargetError(e.cfg.TargetBranch, behind)
	}

	stack, err := e.readStack(ctx)
	if err != nil {
		return nil, err
	}
	if len(stack) == 0 {
		return nil, jasprerrors.ErrEmptyStack
	}

	statuses, err := e.resolveStatuses(ctx, stack)
	if err != nil {
		return nil, err
	}

	// The boundary is the top of the longest mergeable prefix, scanning
	// from the oldest commit up.
	boundary := -1
	for i := range statuses {
		if !statuses[i].Mergeable() {
			break
		}
		boundary = i
	}
	if boundary < 0 {
		return &MergeResult{Remaining: len(stack)}, nil
	}

	// The boundary PR must target the overall branch before the push;
	// advancing the target past a PR's base would otherwise empty its diff
	// and the forge would auto-close it.
	boundaryPR := statuses[boundary].PR
	if boundaryPR.BaseRefName != e.cfg.TargetBranch {
		target := e.cfg.TargetBranch
		if err := e.gh.UpdatePR(ctx, boundaryPR.Number, github.UpdatePROptions{Base: &target}); err != nil {
			return nil, err
		}
	}

	// The actual merge: fast-forward the target branch to the boundary
	// commit by hash. Everything at or below the boundary is now target
	// history. The lease makes a concurrent push to target fail this merge
	// instead of being overwritten.
	oldTargetHead, err := e.git.ResolveRef(ctx, e.trackingRef())
	if err != nil {
		return nil, err
	}
	boundaryHash := stack[boundary].Hash
	spec := git.RefSpec{Local: boundaryHash, Remote: e.cfg.TargetBranch}
	if err := e.git.PushWithLease(ctx, e.cfg.Remote, spec, oldTargetHead); err != nil {
		return nil, err
	}
	e.log.Info("merged %d commit(s) into %s", boundary+1, e.cfg.TargetBranch)

	result := &MergeResult{
		Merged:        boundary + 1,
		NewTargetHead: boundaryHash,
		Remaining:     len(stack) - boundary - 1,
	}

	// PRs strictly below the boundary are subsumed by the target advance.
	for i := 0; i < boundary; i++ {
		if statuses[i].PR == nil {
			continue
		}
		if err := e.gh.ClosePR(ctx, statuses[i].PR.Number); err != nil {
			return nil, err
		}
		result.ClosedPRs = append(result.ClosedPRs, statuses[i].PR.Number)
	}

	// The stack above the merge point shifts down: any PR still based on
	// the boundary commit's branch moves onto the target branch.
	boundaryBranch := e.commitBranch(stack[boundary].ID)
	prs, err := e.gh.ListOpenPRs(ctx)
	if err != nil {
		return nil, err
	}
	for _, pr := range prs {
		if pr.BaseRefName != boundaryBranch {
			continue
		}
		target := e.cfg.TargetBranch
		if err := e.gh.UpdatePR(ctx, pr.Number, github.UpdatePROptions{Base: &target}); err != nil {
			return nil, err
		}
	}

	if err := e.gh.ReconcileAutoClosedPRs(ctx); err != nil {
		return nil, err
	}

	// Branch deletion comes last so no PR is ever left based on a ref that
	// is about to vanish.
	deleted, err := e.deleteMergedBranches(ctx, stack[:boundary+1])
	if err != nil {
		return nil, err
	}
	result.DeletedBranches = deleted

	return result, nil
}

// deleteMergedBranches removes every commit branch and revision-history
// variant belonging to the merged commits. Deletion can race forge-side PR
// bookkeeping, so it is retried a bounded number of times with a short
// delay.
func (e *Engine) deleteMergedBranches(ctx context.Context, merged []git.Commit) ([]string, error) {
	mergedIDs := make(map[string]bool, len(merged))
	for _, commit := range merged {
		mergedIDs[commit.ID] = true
	}

	branches, err := e.git.RemoteBranches(ctx, e.cfg.Remote)
	if err != nil {
		return nil, err
	}

	var specs []git.RefSpec
	var names []string
	for _, branch := range branches {
		parts, ok := ParseBranchName(branch.Name, e.cfg.BranchPrefix)
		if !ok || parts.TargetRef != e.cfg.TargetBranch || !mergedIDs[parts.CommitID] {
			continue
		}
		specs = append(specs, git.RefSpec{Local: git.DeleteRef, Remote: branch.Name})
		names = append(names, branch.Name)
	}
	if len(specs) == 0 {
		return nil, nil
	}

	var lastErr error
	for attempt := 0; attempt <= e.deleteRetries; attempt++ {
		if attempt > 0 {
			e.sleep(e.deleteRetryDelay)
		}
		if lastErr = e.git.Push(ctx, e.cfg.Remote, specs, false); lastErr == nil {
			return names, nil
		}
		e.log.Debug("branch deletion failed (attempt %d): %v", attempt+1, lastErr)
	}
	return nil, lastErr
}
