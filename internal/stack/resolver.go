package stack

import (
	"context"
	"fmt"

	jasprerrors "jaspr.dev/jaspr/internal/errors"
	"jaspr.dev/jaspr/internal/git"
)

// readStack returns the commits between the tracked target and HEAD, oldest
// first, with commit ids extracted from message trailers. It never rewrites
// history; commits without an id come back with an empty ID.
func (e *Engine) readStack(ctx context.Context) ([]git.Commit, error) {
	commits, err := e.git.LogRange(ctx, "HEAD", e.trackingRef())
	if err != nil {
		return nil, err
	}
	for i := range commits {
		if commits[i].IsMerge() {
			return nil, fmt.Errorf("commit %s: %w", commits[i].Hash, jasprerrors.ErrMergeCommit)
		}
		commits[i].ID = Footers(commits[i].FullMessage)[CommitIDFooter]
	}
	return commits, nil
}

// ResolveStack returns the local stack with every commit carrying an id,
// minting and back-filling ids via history rewrite when absent. The rewrite
// changes hashes, so the stack is re-derived from git afterwards rather than
// patched in place. Resolving an unchanged stack again is a no-op.
func (e *Engine) ResolveStack(ctx context.Context) ([]git.Commit, error) {
	stack, err := e.readStack(ctx)
	if err != nil {
		return nil, err
	}

	first := -1
	for i, commit := range stack {
		if commit.ID == "" {
			first = i
			break
		}
	}
	if first < 0 {
		return stack, nil
	}

	e.log.Debug("assigning commit ids to %d commit(s), rewriting history from %s",
		len(stack)-first, stack[first].Hash)

	// Replay everything from the first id-less commit. Cherry-pick keeps
	// the author; the committer identity is carried over explicitly so the
	// rewrite does not change who the commits belong to.
	if err := e.git.ResetHard(ctx, stack[first].Hash+"^"); err != nil {
		return nil, err
	}
	for _, commit := range stack[first:] {
		if err := e.git.CherryPick(ctx, commit.Hash, commit.Committer); err != nil {
			return nil, err
		}
		if commit.ID != "" {
			continue
		}
		message := AddFooters(commit.FullMessage, map[string]string{CommitIDFooter: e.newID()})
		if err := e.git.AmendMessage(ctx, message, commit.Committer); err != nil {
			return nil, err
		}
	}

	resolved, err := e.readStack(ctx)
	if err != nil {
		return nil, err
	}
	for _, commit := range resolved {
		if commit.ID == "" {
			return nil, jasprerrors.NewInvariantError("commit %s has no commit id after rewrite", commit.Hash)
		}
	}
	return resolved, nil
}

// duplicateIDs returns commit hashes grouped by id, for ids shared by more
// than one commit in the stack.
func duplicateIDs(stack []git.Commit) map[string][]string {
	byID := make(map[string][]string)
	for _, commit := range stack {
		if commit.ID == "" {
			continue
		}
		byID[commit.ID] = append(byID[commit.ID], commit.Hash)
	}
	for id, hashes := range byID {
		if len(hashes) < 2 {
			delete(byID, id)
		}
	}
	return byID
}

// firstDuplicateID converts a duplicate group into the reported error.
func firstDuplicateID(stack []git.Commit) error {
	dupes := duplicateIDs(stack)
	for _, commit := range stack {
		if hashes, ok := dupes[commit.ID]; ok {
			return jasprerrors.NewDuplicateCommitIDError(commit.ID, hashes)
		}
	}
	return nil
}
