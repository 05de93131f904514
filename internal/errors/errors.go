// Package errors provides sentinel errors and custom error types for jaspr.
// Use errors.Is() and errors.As() to check for specific error types.
package errors

import (
	"errors"
	"fmt"
	"strings"
)

// Sentinel errors for user and workflow conditions
var (
	// ErrDirtyWorkTree indicates the working tree has uncommitted changes
	ErrDirtyWorkTree = errors.New("working tree is not clean")

	// ErrDetachedHead indicates HEAD is not on a branch
	ErrDetachedHead = errors.New("HEAD is detached")

	// ErrEmptyStack indicates there are no local commits to operate on
	ErrEmptyStack = errors.New("stack is empty")

	// ErrMergeCommit indicates the commit range contains a merge commit
	ErrMergeCommit = errors.New("merge commits are not supported in a stack")

	// ErrUnauthorized indicates the forge rejected our credentials
	ErrUnauthorized = errors.New("GitHub rejected the request as unauthorized, check your token")
)

// BehindTargetError indicates the remote target branch has commits that are
// not part of the local stack's ancestry.
type BehindTargetError struct {
	TargetBranch string
	Commits      int
}

func (e *BehindTargetError) Error() string {
	return fmt.Sprintf("local stack is %d commit(s) behind %s, rebase first", e.Commits, e.TargetBranch)
}

// NewBehindTargetError creates a new BehindTargetError
func NewBehindTargetError(targetBranch string, commits int) *BehindTargetError {
	return &BehindTargetError{TargetBranch: targetBranch, Commits: commits}
}

// DuplicateCommitIDError indicates two or more commits in the stack carry the
// same commit id. This is reported, never silently repaired.
type DuplicateCommitIDError struct {
	CommitID string
	Hashes   []string
}

func (e *DuplicateCommitIDError) Error() string {
	return fmt.Sprintf("commit id %s is shared by commits %s; amend all but one to mint fresh ids",
		e.CommitID, strings.Join(e.Hashes, ", "))
}

// NewDuplicateCommitIDError creates a new DuplicateCommitIDError
func NewDuplicateCommitIDError(commitID string, hashes []string) *DuplicateCommitIDError {
	return &DuplicateCommitIDError{CommitID: commitID, Hashes: hashes}
}

// MultipleOpenPRsError indicates more than one open pull request exists for a
// single commit id.
type MultipleOpenPRsError struct {
	CommitID string
	Numbers  []int
}

func (e *MultipleOpenPRsError) Error() string {
	nums := make([]string, len(e.Numbers))
	for i, n := range e.Numbers {
		nums[i] = fmt.Sprintf("#%d", n)
	}
	return fmt.Sprintf("multiple open pull requests (%s) exist for commit id %s, close all but one",
		strings.Join(nums, ", "), e.CommitID)
}

// NewMultipleOpenPRsError creates a new MultipleOpenPRsError
func NewMultipleOpenPRsError(commitID string, numbers []int) *MultipleOpenPRsError {
	return &MultipleOpenPRsError{CommitID: commitID, Numbers: numbers}
}

// InvariantError indicates the remote or local state violates a structural
// invariant. It is a distinct kind from transport failures so callers can
// tell "you have a data problem" from "the network failed".
type InvariantError struct {
	Message string
}

func (e *InvariantError) Error() string {
	return "invariant violated: " + e.Message
}

// NewInvariantError creates a new InvariantError
func NewInvariantError(format string, args ...interface{}) *InvariantError {
	return &InvariantError{Message: fmt.Sprintf(format, args...)}
}

// GitCommandError represents an error from a git command execution
type GitCommandError struct {
	Args   []string
	Stdout string
	Stderr string
	Err    error
}

func (e *GitCommandError) Error() string {
	msg := fmt.Sprintf("git command failed: git %s", strings.Join(e.Args, " "))
	if e.Stderr != "" {
		msg += "\nstderr: " + e.Stderr
	}
	if e.Stdout != "" {
		msg += "\nstdout: " + e.Stdout
	}
	if e.Err != nil {
		msg += fmt.Sprintf("\n%v", e.Err)
	}
	return msg
}

func (e *GitCommandError) Unwrap() error {
	return e.Err
}

// NewGitCommandError creates a new GitCommandError
func NewGitCommandError(args []string, stdout, stderr string, err error) *GitCommandError {
	return &GitCommandError{Args: args, Stdout: stdout, Stderr: stderr, Err: err}
}
