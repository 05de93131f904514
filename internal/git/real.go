package git

import (
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"

	gogit "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"

	jasprerrors "jaspr.dev/jaspr/internal/errors"
)

// RealClient implements Client against an on-disk repository.
type RealClient struct {
	runner *CommandRunner
	repo   *gogit.Repository
}

// Open opens the repository containing dir and returns a client for it.
func Open(dir string) (*RealClient, error) {
	repo, err := gogit.PlainOpenWithOptions(dir, &gogit.PlainOpenOptions{
		DetectDotGit: true,
	})
	if err != nil {
		return nil, fmt.Errorf("not a git repository: %w", err)
	}
	return &RealClient{runner: NewCommandRunner(dir), repo: repo}, nil
}

// RepoRoot returns the root directory of the repository containing dir.
func RepoRoot(dir string) (string, error) {
	repo, err := gogit.PlainOpenWithOptions(dir, &gogit.PlainOpenOptions{
		DetectDotGit: true,
	})
	if err != nil {
		return "", fmt.Errorf("not a git repository: %w", err)
	}
	worktree, err := repo.Worktree()
	if err != nil {
		return "", fmt.Errorf("failed to get worktree: %w", err)
	}
	return worktree.Filesystem.Root(), nil
}

// Fetch updates remote-tracking refs.
func (c *RealClient) Fetch(ctx context.Context, remote string, prune bool) error {
	args := []string{"fetch", remote}
	if prune {
		args = append(args, "--prune")
	}
	_, err := c.runner.Run(ctx, args...)
	return err
}

// LogRange returns the commits reachable from head but not from base, oldest
// first. Base is excluded by ancestry, not by tip identity, so a base that has
// advanced past head's branch point still masks everything it can reach.
func (c *RealClient) LogRange(ctx context.Context, head, base string) ([]Commit, error) {
	headHash, err := c.resolveHash(head)
	if err != nil {
		return nil, err
	}
	baseHash, err := c.resolveHash(base)
	if err != nil {
		return nil, err
	}
	excluded, err := c.reachableFrom(baseHash)
	if err != nil {
		return nil, err
	}

	var commits []Commit
	seen := make(map[plumbing.Hash]bool)
	queue := []plumbing.Hash{headHash}
	for len(queue) > 0 {
		hash := queue[0]
		queue = queue[1:]
		if seen[hash] || excluded[hash] {
			continue
		}
		seen[hash] = true

		obj, err := c.repo.CommitObject(hash)
		if err != nil {
			return nil, fmt.Errorf("failed to get commit %s: %w", hash, err)
		}
		commits = append(commits, toCommit(obj))
		for _, parent := range obj.ParentHashes {
			if !seen[parent] && !excluded[parent] {
				queue = append(queue, parent)
			}
		}
	}

	// Walk order is newest first; the stack wants oldest first.
	for i, j := 0, len(commits)-1; i < j; i, j = i+1, j-1 {
		commits[i], commits[j] = commits[j], commits[i]
	}
	return commits, nil
}

// reachableFrom returns every commit hash in start's ancestry, start included.
func (c *RealClient) reachableFrom(start plumbing.Hash) (map[plumbing.Hash]bool, error) {
	reachable := make(map[plumbing.Hash]bool)
	queue := []plumbing.Hash{start}
	for len(queue) > 0 {
		hash := queue[0]
		queue = queue[1:]
		if reachable[hash] {
			continue
		}
		reachable[hash] = true

		obj, err := c.repo.CommitObject(hash)
		if err != nil {
			return nil, fmt.Errorf("failed to get commit %s: %w", hash, err)
		}
		queue = append(queue, obj.ParentHashes...)
	}
	return reachable, nil
}

// ResolveRef resolves a ref expression to a commit hash.
func (c *RealClient) ResolveRef(ctx context.Context, ref string) (string, error) {
	hash, err := c.resolveHash(ref)
	if err != nil {
		return "", err
	}
	return hash.String(), nil
}

// CommitInfo returns the commit a hash or ref points at.
func (c *RealClient) CommitInfo(ctx context.Context, ref string) (*Commit, error) {
	hash, err := c.resolveHash(ref)
	if err != nil {
		return nil, err
	}
	obj, err := c.repo.CommitObject(hash)
	if err != nil {
		return nil, fmt.Errorf("failed to get commit %s: %w", hash, err)
	}
	commit := toCommit(obj)
	return &commit, nil
}

// CurrentBranch returns the checked-out branch name.
func (c *RealClient) CurrentBranch(ctx context.Context) (string, error) {
	name, err := c.runner.Run(ctx, "symbolic-ref", "--short", "-q", "HEAD")
	if err != nil {
		if exitCode(err) == 1 {
			return "", jasprerrors.ErrDetachedHead
		}
		return "", err
	}
	return name, nil
}

// IsWorkingTreeClean reports whether the working tree has no uncommitted
// changes.
func (c *RealClient) IsWorkingTreeClean(ctx context.Context) (bool, error) {
	out, err := c.runner.Run(ctx, "status", "--porcelain")
	if err != nil {
		return false, err
	}
	return out == "", nil
}

// ResetHard resets the current branch and working tree to ref.
func (c *RealClient) ResetHard(ctx context.Context, ref string) error {
	_, err := c.runner.Run(ctx, "reset", "--hard", ref)
	return err
}

// CherryPick applies the given commit on top of HEAD.
func (c *RealClient) CherryPick(ctx context.Context, hash string, committer Ident) error {
	_, err := c.runner.RunWithEnv(ctx, committerEnv(committer),
		"cherry-pick", "--allow-empty", "--keep-redundant-commits", hash)
	return err
}

// AmendMessage rewrites the message of the HEAD commit. The author is
// preserved by git commit --amend itself.
func (c *RealClient) AmendMessage(ctx context.Context, message string, committer Ident) error {
	_, err := c.runner.RunWithEnvAndInput(ctx, committerEnv(committer), message,
		"commit", "--amend", "--allow-empty", "-F", "-")
	return err
}

// Push pushes all refspecs in one atomic push.
func (c *RealClient) Push(ctx context.Context, remote string, specs []RefSpec, force bool) error {
	if len(specs) == 0 {
		return nil
	}
	args := []string{"push", "--atomic", remote}
	for _, spec := range specs {
		args = append(args, formatRefSpec(spec, force))
	}
	_, err := c.runner.Run(ctx, args...)
	return err
}

// PushWithLease force-pushes a single refspec, refusing if the remote ref no
// longer points at expected.
func (c *RealClient) PushWithLease(ctx context.Context, remote string, spec RefSpec, expected string) error {
	lease := fmt.Sprintf("--force-with-lease=refs/heads/%s:%s", spec.Remote, expected)
	_, err := c.runner.Run(ctx, "push", lease, remote, formatRefSpec(spec, false))
	return err
}

// RemoteBranches enumerates remote-tracking branches as of the last fetch.
func (c *RealClient) RemoteBranches(ctx context.Context, remote string) ([]RemoteBranch, error) {
	refs, err := c.repo.References()
	if err != nil {
		return nil, fmt.Errorf("failed to get references: %w", err)
	}

	prefix := "refs/remotes/" + remote + "/"
	var branches []RemoteBranch
	err = refs.ForEach(func(ref *plumbing.Reference) error {
		name := ref.Name().String()
		if !strings.HasPrefix(name, prefix) {
			return nil
		}
		short := strings.TrimPrefix(name, prefix)
		if short == "HEAD" {
			return nil
		}
		branches = append(branches, RemoteBranch{Name: short, Head: ref.Hash().String()})
		return nil
	})
	return branches, err
}

// IsAncestor reports whether ancestor is reachable from descendant.
func (c *RealClient) IsAncestor(ctx context.Context, ancestor, descendant string) (bool, error) {
	_, err := c.runner.Run(ctx, "merge-base", "--is-ancestor", ancestor, descendant)
	if err != nil {
		if exitCode(err) == 1 {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

// BehindCount returns how many commits of ref are missing from head's
// ancestry.
func (c *RealClient) BehindCount(ctx context.Context, head, ref string) (int, error) {
	out, err := c.runner.Run(ctx, "rev-list", "--count", head+".."+ref)
	if err != nil {
		return 0, err
	}
	var n int
	if _, err := fmt.Sscanf(out, "%d", &n); err != nil {
		return 0, fmt.Errorf("unexpected rev-list output %q: %w", out, err)
	}
	return n, nil
}

// ConfigValue reads a git config value, returning "" when unset.
func (c *RealClient) ConfigValue(ctx context.Context, key string) (string, error) {
	out, err := c.runner.Run(ctx, "config", "--get", key)
	if err != nil {
		if exitCode(err) == 1 {
			return "", nil
		}
		return "", err
	}
	return out, nil
}

func (c *RealClient) resolveHash(ref string) (plumbing.Hash, error) {
	// Try full ref name, local branch, remote branch, then arbitrary
	// revision expressions.
	for _, candidate := range []string{ref, "refs/heads/" + ref, "refs/remotes/" + ref} {
		if r, err := c.repo.Reference(plumbing.ReferenceName(candidate), true); err == nil {
			return r.Hash(), nil
		}
	}
	hash, err := c.repo.ResolveRevision(plumbing.Revision(ref))
	if err != nil {
		return plumbing.ZeroHash, fmt.Errorf("failed to resolve ref %s: %w", ref, err)
	}
	return *hash, nil
}

func toCommit(obj *object.Commit) Commit {
	message := strings.TrimRight(obj.Message, "\n")
	subject := message
	if idx := strings.Index(subject, "\n"); idx >= 0 {
		subject = subject[:idx]
	}
	parents := make([]string, 0, len(obj.ParentHashes))
	for _, parent := range obj.ParentHashes {
		parents = append(parents, parent.String())
	}
	return Commit{
		Hash:         obj.Hash.String(),
		ShortMessage: strings.TrimSpace(subject),
		FullMessage:  message,
		Parents:      parents,
		Author:       Ident{Name: obj.Author.Name, Email: obj.Author.Email},
		Committer:    Ident{Name: obj.Committer.Name, Email: obj.Committer.Email},
		AuthorTime:   obj.Author.When,
		CommitTime:   obj.Committer.When,
	}
}

func formatRefSpec(spec RefSpec, force bool) string {
	if spec.IsDelete() {
		return ":refs/heads/" + spec.Remote
	}
	formatted := spec.Local + ":refs/heads/" + spec.Remote
	if force {
		formatted = "+" + formatted
	}
	return formatted
}

func committerEnv(committer Ident) []string {
	if committer.Name == "" && committer.Email == "" {
		return nil
	}
	return []string{
		"GIT_COMMITTER_NAME=" + committer.Name,
		"GIT_COMMITTER_EMAIL=" + committer.Email,
	}
}

func exitCode(err error) int {
	var cmdErr *jasprerrors.GitCommandError
	if errors.As(err, &cmdErr) {
		var exitErr *exec.ExitError
		if errors.As(cmdErr.Err, &exitErr) {
			return exitErr.ExitCode()
		}
	}
	return -1
}
