package stack_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	jasprerrors "jaspr.dev/jaspr/internal/errors"
	"jaspr.dev/jaspr/internal/stack"
)

func TestAutoMerge(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	t.Run("merges immediately when everything is ready", func(t *testing.T) {
		t.Parallel()
		scene, eng := newTestEngine(t)
		scene.SetStack("one", "two")
		require.NoError(t, eng.Push(ctx, stack.PushOptions{}))
		scene.GitHub.ApproveAll()

		result, err := eng.AutoMerge(ctx, time.Second)
		require.NoError(t, err)
		require.Equal(t, 2, result.Merged)
	})

	t.Run("waits for pending checks and reviews", func(t *testing.T) {
		t.Parallel()
		scene, eng := newTestEngine(t)
		scene.SetStack("one")
		require.NoError(t, eng.Push(ctx, stack.PushOptions{}))

		// Checks conclude while the poll loop is asleep.
		eng.SetSleep(func(time.Duration) { scene.GitHub.ApproveAll() })

		result, err := eng.AutoMerge(ctx, time.Second)
		require.NoError(t, err)
		require.Equal(t, 1, result.Merged)
	})

	t.Run("aborts on a failing check", func(t *testing.T) {
		t.Parallel()
		scene, eng := newTestEngine(t)
		scene.SetStack("one")
		require.NoError(t, eng.Push(ctx, stack.PushOptions{}))
		failed := false
		scene.GitHub.SetChecks(101, &failed)

		_, err := eng.AutoMerge(ctx, time.Second)
		require.ErrorContains(t, err, "failing check")
	})

	t.Run("aborts on requested changes", func(t *testing.T) {
		t.Parallel()
		scene, eng := newTestEngine(t)
		scene.SetStack("one")
		require.NoError(t, eng.Push(ctx, stack.PushOptions{}))
		rejected := false
		scene.GitHub.SetApproved(101, &rejected)

		_, err := eng.AutoMerge(ctx, time.Second)
		require.ErrorContains(t, err, "changes requested")
	})

	t.Run("aborts on a draft PR", func(t *testing.T) {
		t.Parallel()
		scene, eng := newTestEngine(t)
		scene.SetStack("one")
		require.NoError(t, eng.Push(ctx, stack.PushOptions{Draft: true}))

		_, err := eng.AutoMerge(ctx, time.Second)
		require.ErrorContains(t, err, "draft")
	})

	t.Run("aborts when behind target", func(t *testing.T) {
		t.Parallel()
		scene, eng := newTestEngine(t)
		scene.SetStack("one")
		require.NoError(t, eng.Push(ctx, stack.PushOptions{}))
		scene.Git.SetBehind(1)

		_, err := eng.AutoMerge(ctx, time.Second)
		var behindErr *jasprerrors.BehindTargetError
		require.True(t, errors.As(err, &behindErr))
	})

	t.Run("empty stack is rejected", func(t *testing.T) {
		t.Parallel()
		_, eng := newTestEngine(t)
		_, err := eng.AutoMerge(ctx, time.Second)
		require.True(t, errors.Is(err, jasprerrors.ErrEmptyStack))
	})

	t.Run("stops when the context is cancelled", func(t *testing.T) {
		t.Parallel()
		scene, eng := newTestEngine(t)
		scene.SetStack("one")
		require.NoError(t, eng.Push(ctx, stack.PushOptions{}))

		cancelCtx, cancel := context.WithCancel(ctx)
		eng.SetSleep(func(time.Duration) { cancel() })

		_, err := eng.AutoMerge(cancelCtx, time.Second)
		require.True(t, errors.Is(err, context.Canceled))
	})
}
