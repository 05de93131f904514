package testhelpers

import (
	"context"
	"fmt"
	"sort"
	"strings"

	jasprerrors "jaspr.dev/jaspr/internal/errors"
	"jaspr.dev/jaspr/internal/git"
)

// FakeGit is an in-memory git.Client over a Scene. The local stack is a
// linear list of commits on top of the remote target branch.
type FakeGit struct {
	scene *Scene

	stack     []git.Commit
	cleanTree bool
	branch    string
	behind    int
	config    map[string]string

	// replay state for the resolver's rewrite
	replaying bool

	// FailDeletes makes the next N delete pushes fail, for retry tests.
	FailDeletes int

	// PushCount counts non-empty pushes, for idempotence assertions.
	PushCount int

	// ForcedRefs records every forced refspec pushed, newest push last.
	ForcedRefs []string
}

// Stack returns a copy of the local stack, oldest first.
func (g *FakeGit) Stack() []git.Commit {
	return append([]git.Commit{}, g.stack...)
}

// SetDirty marks the working tree dirty.
func (g *FakeGit) SetDirty() { g.cleanTree = false }

// SetDetached detaches HEAD.
func (g *FakeGit) SetDetached() { g.branch = "" }

// SetBehind pretends the remote target has n commits the local stack lacks.
func (g *FakeGit) SetBehind(n int) { g.behind = n }

// SetConfig sets a git config value returned by ConfigValue.
func (g *FakeGit) SetConfig(key, value string) { g.config[key] = value }

// Fetch is a no-op; the fake's remote view is always current.
func (g *FakeGit) Fetch(ctx context.Context, remote string, prune bool) error {
	return nil
}

func (g *FakeGit) LogRange(ctx context.Context, head, base string) ([]git.Commit, error) {
	if head != "HEAD" || base != g.scene.remote+"/"+g.scene.targetBranch {
		return nil, fmt.Errorf("fake git: unexpected log range %s..%s", base, head)
	}
	return g.Stack(), nil
}

func (g *FakeGit) ResolveRef(ctx context.Context, ref string) (string, error) {
	if ref == "HEAD" {
		if n := len(g.stack); n > 0 {
			return g.stack[n-1].Hash, nil
		}
		return g.scene.TargetHead(), nil
	}
	if ref == g.scene.remote+"/"+g.scene.targetBranch {
		return g.scene.TargetHead(), nil
	}
	if _, ok := g.scene.commits[ref]; ok {
		return ref, nil
	}
	return "", fmt.Errorf("fake git: unknown ref %s", ref)
}

func (g *FakeGit) CommitInfo(ctx context.Context, ref string) (*git.Commit, error) {
	hash, err := g.ResolveRef(ctx, ref)
	if err != nil {
		return nil, err
	}
	commit := g.scene.commits[hash]
	return &commit, nil
}

func (g *FakeGit) CurrentBranch(ctx context.Context) (string, error) {
	if g.branch == "" {
		return "", jasprerrors.ErrDetachedHead
	}
	return g.branch, nil
}

func (g *FakeGit) IsWorkingTreeClean(ctx context.Context) (bool, error) {
	return g.cleanTree, nil
}

// ResetHard only supports the resolver's rewrite entry point: resetting to
// the parent of a stack commit truncates the stack there.
func (g *FakeGit) ResetHard(ctx context.Context, ref string) error {
	hash := strings.TrimSuffix(ref, "^")
	if hash == ref {
		return fmt.Errorf("fake git: reset --hard only supports <hash>^, got %s", ref)
	}
	for i, commit := range g.stack {
		if commit.Hash == hash {
			g.stack = g.stack[:i]
			g.replaying = true
			return nil
		}
	}
	return fmt.Errorf("fake git: commit %s is not in the stack", hash)
}

func (g *FakeGit) CherryPick(ctx context.Context, hash string, committer git.Ident) error {
	if !g.replaying {
		return fmt.Errorf("fake git: cherry-pick outside a replay")
	}
	original, ok := g.scene.commits[hash]
	if !ok {
		return fmt.Errorf("fake git: unknown commit %s", hash)
	}
	parent := g.scene.TargetHead()
	if n := len(g.stack); n > 0 {
		parent = g.stack[n-1].Hash
	}
	replayed := g.scene.newCommit(original.FullMessage, parent, original.Author)
	replayed.Committer = committer
	g.scene.commits[replayed.Hash] = replayed
	g.stack = append(g.stack, replayed)
	return nil
}

func (g *FakeGit) AmendMessage(ctx context.Context, message string, committer git.Ident) error {
	n := len(g.stack)
	if n == 0 {
		return fmt.Errorf("fake git: nothing to amend")
	}
	parent := g.scene.parents[g.stack[n-1].Hash]
	amended := g.scene.newCommit(message, parent, g.stack[n-1].Author)
	amended.Committer = committer
	g.scene.commits[amended.Hash] = amended
	g.stack[n-1] = amended
	return nil
}

func (g *FakeGit) Push(ctx context.Context, remote string, specs []git.RefSpec, force bool) error {
	if len(specs) == 0 {
		return nil
	}
	hasDelete := false
	for _, spec := range specs {
		if spec.IsDelete() {
			hasDelete = true
		}
	}
	if hasDelete && g.FailDeletes > 0 {
		g.FailDeletes--
		return fmt.Errorf("fake git: remote rejected branch deletion")
	}

	// Validate the whole batch before applying anything; the real push is
	// atomic.
	for _, spec := range specs {
		if spec.IsDelete() {
			continue
		}
		if _, ok := g.scene.commits[spec.Local]; !ok {
			return fmt.Errorf("fake git: pushing unknown object %s", spec.Local)
		}
		if !force {
			if old, exists := g.scene.branches[spec.Remote]; exists && !g.scene.isAncestor(old, spec.Local) {
				return fmt.Errorf("fake git: non-fast-forward push to %s", spec.Remote)
			}
		}
	}

	g.PushCount++
	for _, spec := range specs {
		if spec.IsDelete() {
			delete(g.scene.branches, spec.Remote)
			continue
		}
		g.scene.branches[spec.Remote] = spec.Local
		if force {
			g.ForcedRefs = append(g.ForcedRefs, spec.Local+":"+spec.Remote)
		}
	}
	g.scene.afterPush()
	return nil
}

func (g *FakeGit) PushWithLease(ctx context.Context, remote string, spec git.RefSpec, expected string) error {
	if old := g.scene.branches[spec.Remote]; old != expected {
		return fmt.Errorf("fake git: lease failed for %s, expected %s got %s", spec.Remote, expected, old)
	}
	return g.Push(ctx, remote, []git.RefSpec{spec}, true)
}

func (g *FakeGit) RemoteBranches(ctx context.Context, remote string) ([]git.RemoteBranch, error) {
	names := make([]string, 0, len(g.scene.branches))
	for name := range g.scene.branches {
		names = append(names, name)
	}
	sort.Strings(names)

	branches := make([]git.RemoteBranch, 0, len(names))
	for _, name := range names {
		branches = append(branches, git.RemoteBranch{Name: name, Head: g.scene.branches[name]})
	}
	return branches, nil
}

func (g *FakeGit) IsAncestor(ctx context.Context, ancestor, descendant string) (bool, error) {
	return g.scene.isAncestor(ancestor, descendant), nil
}

func (g *FakeGit) BehindCount(ctx context.Context, head, ref string) (int, error) {
	return g.behind, nil
}

func (g *FakeGit) ConfigValue(ctx context.Context, key string) (string, error) {
	return g.config[key], nil
}
