package stack_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	jasprerrors "jaspr.dev/jaspr/internal/errors"
	"jaspr.dev/jaspr/internal/stack"
)

func TestMerge(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	t.Run("merges the whole stack when everything is ready", func(t *testing.T) {
		t.Parallel()
		scene, eng := newTestEngine(t)
		scene.SetStack("one", "two", "three")
		require.NoError(t, eng.Push(ctx, stack.PushOptions{}))
		scene.GitHub.ApproveAll()

		result, err := eng.Merge(ctx)
		require.NoError(t, err)
		require.Equal(t, 3, result.Merged)
		require.Equal(t, 0, result.Remaining)

		top := scene.Git.Stack()[2]
		require.Equal(t, top.Hash, result.NewTargetHead)
		require.Equal(t, top.Hash, scene.Branches()["main"])

		// The boundary PR is auto-closed by the forge when the target reaches
		// its head, then reconciled to merged; the rest are closed outright.
		require.Equal(t, []int{101, 102}, result.ClosedPRs)
		require.Equal(t, "merged", scene.GitHub.PR(103).State)
		require.Equal(t, "closed", scene.GitHub.PR(101).State)

		require.ElementsMatch(t, result.DeletedBranches,
			[]string{"jaspr/main/id-1", "jaspr/main/id-2", "jaspr/main/id-3"})
		require.NotContains(t, scene.Branches(), "jaspr/main/id-1")
	})

	t.Run("merges only the mergeable prefix", func(t *testing.T) {
		t.Parallel()
		scene, eng := newTestEngine(t)
		scene.SetStack("one", "two", "three")
		require.NoError(t, eng.Push(ctx, stack.PushOptions{}))
		scene.GitHub.ApproveAll()
		scene.GitHub.SetApproved(103, nil)

		result, err := eng.Merge(ctx)
		require.NoError(t, err)
		require.Equal(t, 2, result.Merged)
		require.Equal(t, 1, result.Remaining)

		boundary := scene.Git.Stack()[1]
		require.Equal(t, boundary.Hash, scene.Branches()["main"])

		require.Equal(t, []int{101}, result.ClosedPRs)
		require.Equal(t, "merged", scene.GitHub.PR(102).State)

		// The surviving PR is rebased onto the target branch.
		require.Equal(t, "open", scene.GitHub.PR(103).State)
		require.Equal(t, "main", scene.GitHub.PR(103).BaseRefName)

		require.ElementsMatch(t, result.DeletedBranches,
			[]string{"jaspr/main/id-1", "jaspr/main/id-2"})
		require.Contains(t, scene.Branches(), "jaspr/main/id-3")
	})

	t.Run("partial merge keeps the chain above the boundary intact", func(t *testing.T) {
		t.Parallel()
		scene, eng := newTestEngine(t)
		scene.SetStack("one", "two", "three", "four", "five")
		require.NoError(t, eng.Push(ctx, stack.PushOptions{}))
		scene.GitHub.ApproveAll()
		scene.GitHub.SetApproved(103, nil)
		scene.GitHub.SetApproved(104, nil)
		scene.GitHub.SetApproved(105, nil)

		result, err := eng.Merge(ctx)
		require.NoError(t, err)
		require.Equal(t, 2, result.Merged)
		require.Equal(t, 3, result.Remaining)
		require.Equal(t, scene.Git.Stack()[1].Hash, scene.Branches()["main"])

		// Only the PR directly above the boundary moves to the target; the
		// rest of the chain keeps its bases.
		require.Equal(t, "main", scene.GitHub.PR(103).BaseRefName)
		require.Equal(t, "jaspr/main/id-3", scene.GitHub.PR(104).BaseRefName)
		require.Equal(t, "jaspr/main/id-4", scene.GitHub.PR(105).BaseRefName)
		for _, pr := range []int{103, 104, 105} {
			require.Equal(t, "open", scene.GitHub.PR(pr).State, "PR #%d", pr)
		}
	})

	t.Run("leaves the stack alone when nothing is mergeable", func(t *testing.T) {
		t.Parallel()
		scene, eng := newTestEngine(t)
		scene.SetStack("one", "two")
		require.NoError(t, eng.Push(ctx, stack.PushOptions{}))

		result, err := eng.Merge(ctx)
		require.NoError(t, err)
		require.Zero(t, result.Merged)
		require.Equal(t, 2, result.Remaining)
		require.Empty(t, result.ClosedPRs)
		require.Len(t, scene.GitHub.OpenPRs(), 2)
	})

	t.Run("locally amended commits are not mergeable until pushed", func(t *testing.T) {
		t.Parallel()
		scene, eng := newTestEngine(t)
		scene.SetStack("one", "two")
		require.NoError(t, eng.Push(ctx, stack.PushOptions{}))
		scene.GitHub.ApproveAll()

		// Rewriting the stack gives every commit a new hash; the approvals on
		// the PRs now cover hashes the remote branches no longer match.
		commits := scene.Git.Stack()
		scene.SetStack(commits[0].FullMessage, commits[1].FullMessage)

		result, err := eng.Merge(ctx)
		require.NoError(t, err)
		require.Zero(t, result.Merged)
		require.Equal(t, 2, result.Remaining)
		require.Len(t, scene.GitHub.OpenPRs(), 2)
	})

	t.Run("retries branch deletion", func(t *testing.T) {
		t.Parallel()
		scene, eng := newTestEngine(t)
		scene.SetStack("one")
		require.NoError(t, eng.Push(ctx, stack.PushOptions{}))
		scene.GitHub.ApproveAll()
		scene.Git.FailDeletes = 2

		result, err := eng.Merge(ctx)
		require.NoError(t, err)
		require.Equal(t, []string{"jaspr/main/id-1"}, result.DeletedBranches)
		require.NotContains(t, scene.Branches(), "jaspr/main/id-1")
	})

	t.Run("gives up when deletion keeps failing", func(t *testing.T) {
		t.Parallel()
		scene, eng := newTestEngine(t)
		scene.SetStack("one")
		require.NoError(t, eng.Push(ctx, stack.PushOptions{}))
		scene.GitHub.ApproveAll()
		scene.Git.FailDeletes = 10

		_, err := eng.Merge(ctx)
		require.Error(t, err)
	})

	t.Run("refuses to merge while behind target", func(t *testing.T) {
		t.Parallel()
		scene, eng := newTestEngine(t)
		scene.SetStack("one")
		require.NoError(t, eng.Push(ctx, stack.PushOptions{}))
		scene.Git.SetBehind(2)

		_, err := eng.Merge(ctx)
		var behindErr *jasprerrors.BehindTargetError
		require.True(t, errors.As(err, &behindErr))
		require.Equal(t, 2, behindErr.Commits)
	})

	t.Run("empty stack is rejected", func(t *testing.T) {
		t.Parallel()
		_, eng := newTestEngine(t)
		_, err := eng.Merge(ctx)
		require.True(t, errors.Is(err, jasprerrors.ErrEmptyStack))
	})
}
