package stack_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	jasprerrors "jaspr.dev/jaspr/internal/errors"
	"jaspr.dev/jaspr/internal/stack"
)

func TestResolveStack(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	t.Run("mints ids for commits without one", func(t *testing.T) {
		t.Parallel()
		scene, eng := newTestEngine(t)
		scene.SetStack("one", "two")

		resolved, err := eng.ResolveStack(ctx)
		require.NoError(t, err)
		require.Len(t, resolved, 2)
		require.Equal(t, "id-1", resolved[0].ID)
		require.Equal(t, "id-2", resolved[1].ID)

		// The id lives in the commit message trailer, not just in memory.
		require.Equal(t, "id-1", stack.Footers(resolved[0].FullMessage)[stack.CommitIDFooter])
	})

	t.Run("resolving again is a no-op", func(t *testing.T) {
		t.Parallel()
		scene, eng := newTestEngine(t)
		scene.SetStack("one", "two")

		first, err := eng.ResolveStack(ctx)
		require.NoError(t, err)
		second, err := eng.ResolveStack(ctx)
		require.NoError(t, err)
		require.Equal(t, first, second)
	})

	t.Run("rewrites only from the first id-less commit", func(t *testing.T) {
		t.Parallel()
		scene, eng := newTestEngine(t)
		scene.SetStack("one\n\ncommit-id: keep", "two")
		bottom := scene.Git.Stack()[0]

		resolved, err := eng.ResolveStack(ctx)
		require.NoError(t, err)
		require.Equal(t, bottom.Hash, resolved[0].Hash)
		require.Equal(t, "keep", resolved[0].ID)
		require.Equal(t, "id-1", resolved[1].ID)
	})

	t.Run("preserves author and committer across the rewrite", func(t *testing.T) {
		t.Parallel()
		scene, eng := newTestEngine(t)
		scene.SetStack("one")
		original := scene.Git.Stack()[0]

		resolved, err := eng.ResolveStack(ctx)
		require.NoError(t, err)
		require.NotEqual(t, original.Hash, resolved[0].Hash)
		require.Equal(t, original.Author, resolved[0].Author)
		require.Equal(t, original.Committer, resolved[0].Committer)
	})

	t.Run("rejects merge commits", func(t *testing.T) {
		t.Parallel()
		scene, eng := newTestEngine(t)
		scene.SetStack("one")
		scene.AddMergeCommit("merge feature branch")

		_, err := eng.ResolveStack(ctx)
		require.True(t, errors.Is(err, jasprerrors.ErrMergeCommit))
	})
}
