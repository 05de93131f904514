package stack

import (
	"context"
	"fmt"
	"time"

	jasprerrors "jaspr.dev/jaspr/internal/errors"
)

// AutoMerge polls remote state until the whole stack is mergeable, then
// merges it. It aborts on conditions that will not self-resolve without
// user action: a failing check, an explicit change request, a draft PR, an
// empty stack, or a stack behind target. Each tick is a complete,
// independent reconciliation pass over fresh state, so cancelling between
// ticks loses no correctness.
func (e *Engine) AutoMerge(ctx context.Context, interval time.Duration) (*MergeResult, error) {
	for {
		status, err := e.Status(ctx)
		if err != nil {
			return nil, err
		}

		if status.BehindTarget > 0 {
			return nil, jasprerrors.NewBehindTargetError(e.cfg.TargetBranch, status.BehindTarget)
		}
		if len(status.Statuses) == 0 {
			return nil, jasprerrors.ErrEmptyStack
		}
		if err := blockedReason(status); err != nil {
			return nil, err
		}

		if status.AllMergeable() {
			return e.Merge(ctx)
		}

		for _, line := range status.Render(e.cfg.TargetBranch) {
			e.log.Line(line)
		}
		e.log.Info("waiting %s for checks and reviews...", interval)

		if err := ctx.Err(); err != nil {
			return nil, err
		}
		e.sleep(interval)
	}
}

// blockedReason reports a condition that polling cannot outwait.
func blockedReason(status *StackStatus) error {
	for _, s := range status.Statuses {
		if s.PR == nil {
			continue
		}
		if s.PR.ChecksPass != nil && !*s.PR.ChecksPass {
			return fmt.Errorf("PR #%d has a failing check, fix it and push again", s.PR.Number)
		}
		if s.PR.Approved != nil && !*s.PR.Approved {
			return fmt.Errorf("PR #%d has changes requested, address the review", s.PR.Number)
		}
		if s.PR.Draft {
			return fmt.Errorf("PR #%d is a draft, mark it ready for review", s.PR.Number)
		}
	}
	return nil
}
