package stack

import (
	"context"
	"sort"

	"jaspr.dev/jaspr/internal/git"
	"jaspr.dev/jaspr/internal/github"
)

// CleanPlan lists remote branches that can be deleted safely. Orphaned and
// abandoned are intentionally separate cleanup tiers with independent
// predicates; a branch matching both is reported as orphaned.
type CleanPlan struct {
	// Orphaned branches match the naming scheme but no open PR's head ref
	// corresponds to their commit id.
	Orphaned []string

	// Abandoned branches back open PRs that are not reachable from any
	// named stack. Only collected when asked for.
	Abandoned []string
}

// Branches returns every branch in the plan, orphaned first.
func (p *CleanPlan) Branches() []string {
	return append(append([]string{}, p.Orphaned...), p.Abandoned...)
}

// CleanOptions controls clean planning.
type CleanOptions struct {
	// IncludeAbandoned also collects branches of PRs unreachable from any
	// named stack.
	IncludeAbandoned bool

	// AllAuthors disables the restriction to branches whose head commit was
	// authored by the configured git user.
	AllAuthors bool
}

// PlanClean computes the deletable remote branches. It fetches with prune
// first so deletions done out-of-band are already reflected.
func (e *Engine) PlanClean(ctx context.Context, opts CleanOptions) (*CleanPlan, error) {
	if err := e.git.Fetch(ctx, e.cfg.Remote, true); err != nil {
		return nil, err
	}

	prs, err := e.gh.ListOpenPRs(ctx)
	if err != nil {
		return nil, err
	}
	openHeads := make(map[string]bool, len(prs))
	for _, pr := range prs {
		openHeads[pr.HeadRefName] = true
	}

	branches, err := e.git.RemoteBranches(ctx, e.cfg.Remote)
	if err != nil {
		return nil, err
	}

	var userEmail string
	if !opts.AllAuthors {
		userEmail, err = e.git.ConfigValue(ctx, "user.email")
		if err != nil {
			return nil, err
		}
	}

	plan := &CleanPlan{}
	planned := make(map[string]bool)
	for _, branch := range branches {
		parts, ok := ParseBranchName(branch.Name, e.cfg.BranchPrefix)
		if !ok || parts.TargetRef != e.cfg.TargetBranch {
			continue
		}
		// Revision-history branches follow their commit's current branch.
		current := e.commitBranch(parts.CommitID)
		if openHeads[current] {
			continue
		}
		if !opts.AllAuthors {
			mine, err := e.authoredBy(ctx, branch.Head, userEmail)
			if err != nil {
				return nil, err
			}
			if !mine {
				continue
			}
		}
		plan.Orphaned = append(plan.Orphaned, branch.Name)
		planned[branch.Name] = true
	}

	if opts.IncludeAbandoned {
		abandoned, err := e.abandonedBranches(ctx, prs, branches, planned)
		if err != nil {
			return nil, err
		}
		plan.Abandoned = abandoned
	}

	sort.Strings(plan.Orphaned)
	sort.Strings(plan.Abandoned)
	return plan, nil
}

// abandonedBranches finds branches of open PRs whose head commit is not
// reachable from any named-stack branch.
func (e *Engine) abandonedBranches(ctx context.Context, prs []github.PullRequest, branches []git.RemoteBranch, planned map[string]bool) ([]string, error) {
	var stackHeads []string
	headByName := make(map[string]string, len(branches))
	for _, branch := range branches {
		headByName[branch.Name] = branch.Head
		if _, ok := ParseStackBranchName(branch.Name, e.cfg.StackPrefix); ok {
			stackHeads = append(stackHeads, branch.Head)
		}
	}

	var abandoned []string
	for _, pr := range prs {
		parts, ok := ParseBranchName(pr.HeadRefName, e.cfg.BranchPrefix)
		if !ok || parts.Revision != 0 || parts.TargetRef != e.cfg.TargetBranch {
			continue
		}
		head, exists := headByName[pr.HeadRefName]
		if !exists || planned[pr.HeadRefName] {
			continue
		}

		reachable := false
		for _, stackHead := range stackHeads {
			ok, err := e.git.IsAncestor(ctx, head, stackHead)
			if err != nil {
				return nil, err
			}
			if ok {
				reachable = true
				break
			}
		}
		if !reachable {
			abandoned = append(abandoned, pr.HeadRefName)
		}
	}
	return abandoned, nil
}

// ExecuteClean force-deletes exactly the planned branches.
func (e *Engine) ExecuteClean(ctx context.Context, plan *CleanPlan) error {
	names := plan.Branches()
	if len(names) == 0 {
		return nil
	}
	specs := make([]git.RefSpec, 0, len(names))
	for _, name := range names {
		specs = append(specs, git.RefSpec{Local: git.DeleteRef, Remote: name})
	}
	return e.git.Push(ctx, e.cfg.Remote, specs, false)
}

func (e *Engine) authoredBy(ctx context.Context, hash, email string) (bool, error) {
	if email == "" {
		return true, nil
	}
	commit, err := e.git.CommitInfo(ctx, hash)
	if err != nil {
		return false, err
	}
	return commit.Author.Email == email, nil
}
