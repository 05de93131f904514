package testhelpers

import (
	"context"
	"fmt"

	"jaspr.dev/jaspr/internal/github"
)

// FakePR is a pull request held by the fake forge, with the lifecycle state
// the real forge keeps server-side.
type FakePR struct {
	github.PullRequest

	// State is open, closed, or merged.
	State string

	// AutoClosed is set when the forge closed the PR itself because its
	// diff became empty or its head branch vanished.
	AutoClosed bool
}

// FakeGitHub is an in-memory github.Client over a Scene.
type FakeGitHub struct {
	scene   *Scene
	repoURL string
	prs     []*FakePR
	nextPR  int

	// Mutations counts every create/update/close call, for idempotence
	// assertions.
	Mutations int
}

func (f *FakeGitHub) RepoURL() string {
	return f.repoURL
}

func (f *FakeGitHub) ListOpenPRs(ctx context.Context) ([]github.PullRequest, error) {
	var open []github.PullRequest
	for _, pr := range f.prs {
		if pr.State == "open" {
			open = append(open, pr.PullRequest)
		}
	}
	return open, nil
}

func (f *FakeGitHub) CreatePR(ctx context.Context, opts github.CreatePROptions) (*github.PullRequest, error) {
	f.Mutations++
	f.nextPR++
	pr := &FakePR{
		PullRequest: github.PullRequest{
			NodeID:      fmt.Sprintf("node-%d", f.nextPR),
			Number:      f.nextPR,
			HeadRefName: opts.Head,
			BaseRefName: opts.Base,
			Title:       opts.Title,
			Body:        opts.Body,
			Draft:       opts.Draft,
			Permalink:   fmt.Sprintf("%s/pull/%d", f.repoURL, f.nextPR),
		},
		State: "open",
	}
	f.prs = append(f.prs, pr)
	out := pr.PullRequest
	return &out, nil
}

func (f *FakeGitHub) UpdatePR(ctx context.Context, number int, opts github.UpdatePROptions) error {
	pr := f.find(number)
	if pr == nil {
		return fmt.Errorf("fake github: no PR #%d", number)
	}
	f.Mutations++
	if opts.Title != nil {
		pr.Title = *opts.Title
	}
	if opts.Body != nil {
		pr.Body = *opts.Body
	}
	if opts.Base != nil {
		pr.BaseRefName = *opts.Base
	}
	if opts.Draft != nil {
		pr.Draft = *opts.Draft
	}
	return nil
}

func (f *FakeGitHub) ClosePR(ctx context.Context, number int) error {
	pr := f.find(number)
	if pr == nil {
		return fmt.Errorf("fake github: no PR #%d", number)
	}
	f.Mutations++
	pr.State = "closed"
	return nil
}

// ReconcileAutoClosedPRs marks PRs the forge auto-closed during a target
// advance as merged, mirroring what GitHub's bookkeeping settles to.
func (f *FakeGitHub) ReconcileAutoClosedPRs(ctx context.Context) error {
	for _, pr := range f.prs {
		if pr.State == "closed" && pr.AutoClosed {
			pr.State = "merged"
		}
	}
	return nil
}

// PR returns the fake's record for a PR number, nil when absent.
func (f *FakeGitHub) PR(number int) *FakePR {
	return f.find(number)
}

// OpenPRs returns the open PRs, creation order.
func (f *FakeGitHub) OpenPRs() []*FakePR {
	var open []*FakePR
	for _, pr := range f.prs {
		if pr.State == "open" {
			open = append(open, pr)
		}
	}
	return open
}

// SetChecks sets the check conclusion for a PR; nil means still running.
func (f *FakeGitHub) SetChecks(number int, pass *bool) {
	if pr := f.find(number); pr != nil {
		pr.ChecksPass = pass
	}
}

// SetApproved sets the review state for a PR; nil means no review yet.
func (f *FakeGitHub) SetApproved(number int, approved *bool) {
	if pr := f.find(number); pr != nil {
		pr.Approved = approved
	}
}

// ApproveAll marks every open PR as approved with passing checks.
func (f *FakeGitHub) ApproveAll() {
	yes := true
	for _, pr := range f.prs {
		if pr.State == "open" {
			pass := yes
			approved := yes
			pr.ChecksPass = &pass
			pr.Approved = &approved
		}
	}
}

// OpenRawPR injects an open PR directly, bypassing the engine, for
// constraint-violation tests.
func (f *FakeGitHub) OpenRawPR(head, base string) *FakePR {
	f.nextPR++
	pr := &FakePR{
		PullRequest: github.PullRequest{
			NodeID:      fmt.Sprintf("node-%d", f.nextPR),
			Number:      f.nextPR,
			HeadRefName: head,
			BaseRefName: base,
			Permalink:   fmt.Sprintf("%s/pull/%d", f.repoURL, f.nextPR),
		},
		State: "open",
	}
	f.prs = append(f.prs, pr)
	return pr
}

func (f *FakeGitHub) find(number int) *FakePR {
	for _, pr := range f.prs {
		if pr.Number == number {
			return pr
		}
	}
	return nil
}
