package stack_test

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"jaspr.dev/jaspr/internal/stack"
)

func TestStatus(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	t.Run("joins commits with branches and PRs", func(t *testing.T) {
		t.Parallel()
		scene, eng := newTestEngine(t)
		scene.SetStack("one", "two")
		require.NoError(t, eng.Push(ctx, stack.PushOptions{}))

		status, err := eng.Status(ctx)
		require.NoError(t, err)
		require.Len(t, status.Statuses, 2)
		for i, s := range status.Statuses {
			require.True(t, s.Pushed(), "commit %d not pushed", i)
			require.NotNil(t, s.PR)
			require.False(t, s.Mergeable(), "checks have not concluded yet")
		}
		require.Zero(t, status.BehindTarget)
		require.Empty(t, status.DuplicateIDs)
	})

	t.Run("never rewrites history", func(t *testing.T) {
		t.Parallel()
		scene, eng := newTestEngine(t)
		scene.SetStack("one")
		before := scene.Git.Stack()

		status, err := eng.Status(ctx)
		require.NoError(t, err)
		require.Equal(t, before, scene.Git.Stack())

		// The unpushed commit has no id yet, so nothing to join on.
		s := status.Statuses[0]
		require.False(t, s.Pushed())
		require.Nil(t, s.PR)
	})

	t.Run("stack check is cumulative from the bottom", func(t *testing.T) {
		t.Parallel()
		scene, eng := newTestEngine(t)
		scene.SetStack("one", "two", "three")
		require.NoError(t, eng.Push(ctx, stack.PushOptions{}))
		scene.GitHub.ApproveAll()
		scene.GitHub.SetApproved(102, nil)

		status, err := eng.Status(ctx)
		require.NoError(t, err)
		require.True(t, status.StackCheck(0))
		require.False(t, status.StackCheck(1))
		require.False(t, status.StackCheck(2), "a hole below blocks everything above")
		require.False(t, status.AllMergeable())
	})

	t.Run("behind target fails every stack check", func(t *testing.T) {
		t.Parallel()
		scene, eng := newTestEngine(t)
		scene.SetStack("one")
		require.NoError(t, eng.Push(ctx, stack.PushOptions{}))
		scene.GitHub.ApproveAll()
		scene.Git.SetBehind(3)

		status, err := eng.Status(ctx)
		require.NoError(t, err)
		require.Equal(t, 3, status.BehindTarget)
		require.False(t, status.StackCheck(0))
	})

	t.Run("reports duplicate commit ids", func(t *testing.T) {
		t.Parallel()
		scene, eng := newTestEngine(t)
		scene.SetStack("one\n\ncommit-id: dup", "two\n\ncommit-id: dup")

		status, err := eng.Status(ctx)
		require.NoError(t, err)
		require.Len(t, status.DuplicateIDs, 1)
		require.Len(t, status.DuplicateIDs["dup"], 2)
	})
}

func TestRender(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	t.Run("top of the stack renders first", func(t *testing.T) {
		t.Parallel()
		scene, eng := newTestEngine(t)
		scene.SetStack("one", "two")
		require.NoError(t, eng.Push(ctx, stack.PushOptions{}))

		status, err := eng.Status(ctx)
		require.NoError(t, err)
		lines := status.Render("main")
		require.Len(t, lines, 2)
		require.Contains(t, lines[0], "two")
		require.Contains(t, lines[0], "/pull/102")
		require.Contains(t, lines[1], "one")
	})

	t.Run("glyphs track PR state", func(t *testing.T) {
		t.Parallel()
		scene, eng := newTestEngine(t)
		scene.SetStack("one")
		require.NoError(t, eng.Push(ctx, stack.PushOptions{}))
		scene.GitHub.ApproveAll()

		status, err := eng.Status(ctx)
		require.NoError(t, err)
		bits := status.Bits(0)
		require.Equal(t, [6]stack.StatusBit{
			stack.BitSuccess, // pushed
			stack.BitSuccess, // PR exists
			stack.BitSuccess, // checks pass
			stack.BitSuccess, // ready for review
			stack.BitSuccess, // approved
			stack.BitSuccess, // stack check
		}, bits)

		failed := false
		scene.GitHub.SetChecks(101, &failed)
		status, err = eng.Status(ctx)
		require.NoError(t, err)
		bits = status.Bits(0)
		require.Equal(t, stack.BitFail, bits[2])
		require.Equal(t, stack.BitEmpty, bits[5])
	})

	t.Run("pending states render as waiting", func(t *testing.T) {
		t.Parallel()
		scene, eng := newTestEngine(t)
		scene.SetStack("one")
		require.NoError(t, eng.Push(ctx, stack.PushOptions{Draft: true}))

		status, err := eng.Status(ctx)
		require.NoError(t, err)
		bits := status.Bits(0)
		require.Equal(t, stack.BitPending, bits[2], "checks not concluded")
		require.Equal(t, stack.BitPending, bits[3], "draft is not ready")
		require.Equal(t, stack.BitPending, bits[4], "no review yet")
	})

	t.Run("reports the rebase hint when behind", func(t *testing.T) {
		t.Parallel()
		scene, eng := newTestEngine(t)
		scene.SetStack("one")
		scene.Git.SetBehind(2)

		status, err := eng.Status(ctx)
		require.NoError(t, err)
		out := strings.Join(status.Render("main"), "\n")
		require.Contains(t, out, "2 commit(s) behind main")
		require.Contains(t, out, "git rebase")
	})

	t.Run("duplicate ids render as a warning", func(t *testing.T) {
		t.Parallel()
		scene, eng := newTestEngine(t)
		scene.SetStack("one\n\ncommit-id: dup", "two\n\ncommit-id: dup")

		status, err := eng.Status(ctx)
		require.NoError(t, err)
		require.Equal(t, stack.BitWarning, status.Bits(0)[5])

		out := strings.Join(status.Render("main"), "\n")
		require.Contains(t, out, "Duplicate commit id dup")
	})
}
