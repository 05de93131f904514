package stack

import (
	"context"
	"regexp"
	"sort"

	jasprerrors "jaspr.dev/jaspr/internal/errors"
	"jaspr.dev/jaspr/internal/git"
	"jaspr.dev/jaspr/internal/github"
)

// PushOptions controls a push invocation.
type PushOptions struct {
	// StackName, when set, also pushes the whole stack under this label in
	// the named-stack namespace.
	StackName string

	// Draft marks every created PR as a draft regardless of its subject.
	Draft bool
}

// A commit whose subject starts with draft/wip gets a draft PR.
var draftSubject = regexp.MustCompile(`(?i)^(draft|wip)\b`)

// Push reconciles remote branches and PRs with the local stack: it
// force-pushes out-of-date commit branches (archiving their prior heads as
// revision-history branches), creates missing PRs, and rewires PR bases to
// mirror the stack order.
func (e *Engine) Push(ctx context.Context, opts PushOptions) error {
	clean, err := e.git.IsWorkingTreeClean(ctx)
	if err != nil {
		return err
	}
	if !clean {
		return jasprerrors.ErrDirtyWorkTree
	}
	if opts.StackName != "" {
		if _, err := e.git.CurrentBranch(ctx); err != nil {
			return err
		}
	}

	if err := e.git.Fetch(ctx, e.cfg.Remote, true); err != nil {
		return err
	}

	stack, err := e.ResolveStack(ctx)
	if err != nil {
		return err
	}
	if len(stack) == 0 {
		return jasprerrors.ErrEmptyStack
	}
	if err := firstDuplicateID(stack); err != nil {
		return err
	}

	openByID, err := e.openPRsForStack(ctx, stack)
	if err != nil {
		return err
	}

	branches, err := e.git.RemoteBranches(ctx, e.cfg.Remote)
	if err != nil {
		return err
	}
	headByName := make(map[string]string, len(branches))
	revisions := make(map[string][]int)
	for _, branch := range branches {
		headByName[branch.Name] = branch.Head
		parts, ok := ParseBranchName(branch.Name, e.cfg.BranchPrefix)
		if ok && parts.Revision > 0 && parts.TargetRef == e.cfg.TargetBranch {
			revisions[parts.CommitID] = append(revisions[parts.CommitID], parts.Revision)
		}
	}
	for id := range revisions {
		sort.Ints(revisions[id])
	}

	desiredBase := func(i int) string {
		if i == 0 {
			return e.cfg.TargetBranch
		}
		return e.commitBranch(stack[i-1].ID)
	}

	// Reorder repair: a PR whose commit moved to a new predecessor is
	// parked on the target branch before any branch is force-pushed. If the
	// old base branch were overwritten first, the PR's diff could become
	// empty and the forge would auto-close it. The true base is restored
	// after the push.
	for i, commit := range stack {
		pr := openByID[commit.ID]
		if pr == nil || pr.BaseRefName == desiredBase(i) {
			continue
		}
		if pr.BaseRefName != e.cfg.TargetBranch {
			e.log.Debug("parking PR #%d on %s during reorder", pr.Number, e.cfg.TargetBranch)
			target := e.cfg.TargetBranch
			if err := e.gh.UpdatePR(ctx, pr.Number, github.UpdatePROptions{Base: &target}); err != nil {
				return err
			}
			pr.BaseRefName = target
		}
	}

	// Branch diff: every commit branch whose remote head differs gets a
	// force-push, with its current remote head archived first as the next
	// revision-history branch so reviewers keep a diff link across
	// force-pushes.
	var specs []git.RefSpec
	for _, commit := range stack {
		name := e.commitBranch(commit.ID)
		head, exists := headByName[name]
		if exists && head == commit.Hash {
			continue
		}
		if exists {
			next := 1
			if existing := revisions[commit.ID]; len(existing) > 0 {
				next = existing[len(existing)-1] + 1
			}
			specs = append(specs, git.RefSpec{
				Local:  head,
				Remote: RevisionBranchName(e.cfg.BranchPrefix, e.cfg.TargetBranch, commit.ID, next),
			})
			revisions[commit.ID] = append(revisions[commit.ID], next)
		}
		specs = append(specs, git.RefSpec{Local: commit.Hash, Remote: name})
	}

	if opts.StackName != "" {
		headHash, err := e.git.ResolveRef(ctx, "HEAD")
		if err != nil {
			return err
		}
		stackBranch := StackBranchName(e.cfg.StackPrefix, e.cfg.TargetBranch, opts.StackName)
		if headByName[stackBranch] != headHash {
			specs = append(specs, git.RefSpec{Local: headHash, Remote: stackBranch})
		}
	}

	if len(specs) > 0 {
		e.log.Debug("pushing %d ref(s) atomically", len(specs))
		if err := e.git.Push(ctx, e.cfg.Remote, specs, true); err != nil {
			return err
		}
	}

	// PR pass: create what is missing, align what differs.
	prs := make([]*github.PullRequest, len(stack))
	for i, commit := range stack {
		subject, _ := SubjectAndBody(TrimFooters(commit.FullMessage))
		draft := opts.Draft || draftSubject.MatchString(commit.ShortMessage)

		pr := openByID[commit.ID]
		if pr == nil {
			created, err := e.gh.CreatePR(ctx, github.CreatePROptions{
				Title: subject,
				Head:  e.commitBranch(commit.ID),
				Base:  desiredBase(i),
				Draft: draft,
			})
			if err != nil {
				return err
			}
			e.log.Info("created PR #%d: %s", created.Number, subject)
			prs[i] = created
			continue
		}

		upd := github.UpdatePROptions{}
		changed := false
		if pr.Title != subject {
			upd.Title = &subject
			pr.Title = subject
			changed = true
		}
		if base := desiredBase(i); pr.BaseRefName != base {
			upd.Base = &base
			pr.BaseRefName = base
			changed = true
		}
		if pr.Draft != draft {
			upd.Draft = &draft
			pr.Draft = draft
			changed = true
		}
		if changed {
			if err := e.gh.UpdatePR(ctx, pr.Number, upd); err != nil {
				return err
			}
		}
		prs[i] = pr
	}

	// Body pass: stack links need PR numbers, which exist only after every
	// PR has been created.
	for i, commit := range stack {
		entries := make([]stackBodyEntry, 0, len(stack))
		for j := len(stack) - 1; j >= 0; j-- {
			entries = append(entries, stackBodyEntry{
				Number:    prs[j].Number,
				Current:   j == i,
				Revisions: e.revisionLinks(stack[j].ID, revisions[stack[j].ID]),
			})
		}

		generated := renderBody(commit.FullMessage, entries)
		body := mergeBody(prs[i].Body, generated)
		if body != prs[i].Body {
			if err := e.gh.UpdatePR(ctx, prs[i].Number, github.UpdatePROptions{Body: &body}); err != nil {
				return err
			}
		}
	}

	return nil
}

// openPRsForStack maps the stack's commit ids to their open PRs, rejecting
// any id with more than one open PR.
func (e *Engine) openPRsForStack(ctx context.Context, stack []git.Commit) (map[string]*github.PullRequest, error) {
	ids := make(map[string]bool, len(stack))
	for _, commit := range stack {
		ids[commit.ID] = true
	}

	prs, err := e.gh.ListOpenPRs(ctx)
	if err != nil {
		return nil, err
	}

	grouped := make(map[string][]*github.PullRequest)
	for i := range prs {
		parts, ok := ParseBranchName(prs[i].HeadRefName, e.cfg.BranchPrefix)
		if !ok || parts.Revision != 0 || parts.TargetRef != e.cfg.TargetBranch || !ids[parts.CommitID] {
			continue
		}
		grouped[parts.CommitID] = append(grouped[parts.CommitID], &prs[i])
	}

	byID := make(map[string]*github.PullRequest, len(grouped))
	for id, group := range grouped {
		if len(group) > 1 {
			numbers := make([]int, len(group))
			for i, pr := range group {
				numbers[i] = pr.Number
			}
			sort.Ints(numbers)
			return nil, jasprerrors.NewMultipleOpenPRsError(id, numbers)
		}
		byID[id] = group[0]
	}
	return byID, nil
}
