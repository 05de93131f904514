// Package testhelpers provides in-memory fakes of the git and forge
// collaborators that simulate just enough of their behavior for engine
// tests: linear history, atomic pushes, PR numbering, and the forge's
// auto-close of PRs whose diff becomes empty.
package testhelpers

import (
	"fmt"
	"strings"

	"jaspr.dev/jaspr/internal/git"
	"jaspr.dev/jaspr/internal/github"
)

// Scene holds the shared state of one simulated repository: its remote
// branches, its pull requests, and the local stack.
type Scene struct {
	Git    *FakeGit
	GitHub *FakeGitHub

	remote       string
	targetBranch string

	branches map[string]string // remote branch name -> head hash
	parents  map[string]string // hash -> parent hash
	commits  map[string]git.Commit

	hashSeq int
}

// NewScene creates a simulated repository whose remote target branch points
// at an initial commit.
func NewScene(remote, targetBranch string) *Scene {
	s := &Scene{
		remote:       remote,
		targetBranch: targetBranch,
		branches:     map[string]string{},
		parents:      map[string]string{},
		commits:      map[string]git.Commit{},
	}
	root := s.newCommit("initial commit", "", git.Ident{Name: "CI", Email: "ci@example.com"})
	s.branches[targetBranch] = root.Hash

	s.Git = &FakeGit{
		scene:     s,
		stack:     nil,
		cleanTree: true,
		branch:    "dev",
		config:    map[string]string{"user.email": "dev@example.com"},
	}
	s.GitHub = &FakeGitHub{
		scene:   s,
		repoURL: "https://github.com/acme/widgets",
		nextPR:  100,
	}
	return s
}

// TargetHead returns the hash the remote target branch points at.
func (s *Scene) TargetHead() string {
	return s.branches[s.targetBranch]
}

// Branches returns a copy of the remote branch map.
func (s *Scene) Branches() map[string]string {
	out := make(map[string]string, len(s.branches))
	for name, head := range s.branches {
		out[name] = head
	}
	return out
}

// AddCommit appends a commit with the given message to the local stack.
func (s *Scene) AddCommit(message string) git.Commit {
	parent := s.TargetHead()
	if n := len(s.Git.stack); n > 0 {
		parent = s.Git.stack[n-1].Hash
	}
	commit := s.newCommit(message, parent, git.Ident{Name: "Dev", Email: "dev@example.com"})
	s.Git.stack = append(s.Git.stack, commit)
	return commit
}

// SetStack replaces the local stack with commits carrying the given
// messages, oldest first.
func (s *Scene) SetStack(messages ...string) []git.Commit {
	s.Git.stack = nil
	out := make([]git.Commit, 0, len(messages))
	for _, message := range messages {
		out = append(out, s.AddCommit(message))
	}
	return out
}

// AddMergeCommit appends a two-parent commit to the local stack.
func (s *Scene) AddMergeCommit(message string) git.Commit {
	side := s.newCommit("side branch", s.TargetHead(), git.Ident{Name: "Dev", Email: "dev@example.com"})
	commit := s.AddCommit(message)
	commit.Parents = append(commit.Parents, side.Hash)
	s.commits[commit.Hash] = commit
	s.Git.stack[len(s.Git.stack)-1] = commit
	return commit
}

// SideCommit creates a commit on the target head that is not part of the
// local stack and not reachable from it.
func (s *Scene) SideCommit(message string) git.Commit {
	return s.newCommit(message, s.TargetHead(), git.Ident{Name: "Dev", Email: "dev@example.com"})
}

// SetRemoteBranch points a remote branch at a commit directly, bypassing a
// push.
func (s *Scene) SetRemoteBranch(name, hash string) {
	s.branches[name] = hash
}

func (s *Scene) newCommit(message, parent string, ident git.Ident) git.Commit {
	s.hashSeq++
	hash := fmt.Sprintf("%07x", s.hashSeq)

	subject := message
	if idx := strings.Index(subject, "\n"); idx >= 0 {
		subject = subject[:idx]
	}
	commit := git.Commit{
		Hash:         hash,
		ShortMessage: strings.TrimSpace(subject),
		FullMessage:  message,
		Author:       ident,
		Committer:    ident,
	}
	if parent != "" {
		commit.Parents = []string{parent}
		s.parents[hash] = parent
	}
	s.commits[hash] = commit
	return commit
}

// isAncestor walks the parent chain of descendant looking for ancestor.
func (s *Scene) isAncestor(ancestor, descendant string) bool {
	for hash := descendant; hash != ""; hash = s.parents[hash] {
		if hash == ancestor {
			return true
		}
	}
	return false
}

// afterPush mimics the forge reacting to branch updates: a PR whose base
// and head branches now point at the same commit has an empty diff and is
// auto-closed, as is a PR whose head branch disappeared.
func (s *Scene) afterPush() {
	for _, pr := range s.GitHub.prs {
		if pr.State != "open" {
			continue
		}
		headHash, headExists := s.branches[pr.HeadRefName]
		if !headExists {
			pr.State = "closed"
			pr.AutoClosed = true
			continue
		}
		baseHash, baseExists := s.branches[pr.BaseRefName]
		if baseExists && baseHash == headHash {
			pr.State = "closed"
			pr.AutoClosed = true
		}
	}
}

var _ git.Client = (*FakeGit)(nil)
var _ github.Client = (*FakeGitHub)(nil)
