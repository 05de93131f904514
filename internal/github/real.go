package github

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"os/exec"
	"strings"

	gogithub "github.com/google/go-github/v62/github"
	"golang.org/x/oauth2"

	jasprerrors "jaspr.dev/jaspr/internal/errors"
	"jaspr.dev/jaspr/internal/retry"
)

const (
	checkConclusionFailure        = "FAILURE"
	checkConclusionCanceled       = "CANCELLED"
	checkConclusionTimedOut       = "TIMED_OUT"
	checkConclusionActionRequired = "ACTION_REQUIRED"
)

// RealClient implements Client against the GitHub API.
type RealClient struct {
	client   *gogithub.Client
	token    string
	hostname string
	owner    string
	repo     string
	policy   retry.Policy
}

// NewRealClient creates a client for the repository identified by remoteURL,
// discovering a token from GITHUB_TOKEN or the gh CLI. Every API call is
// wrapped in the given retry policy.
func NewRealClient(ctx context.Context, remoteURL string, policy retry.Policy) (*RealClient, error) {
	token, err := discoverToken(ctx)
	if err != nil {
		return nil, err
	}

	info, err := ParseRemoteURL(remoteURL)
	if err != nil {
		return nil, err
	}

	ts := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token})
	tc := oauth2.NewClient(ctx, ts)
	client := gogithub.NewClient(tc)

	// GitHub Enterprise hosts serve the API under /api/v3.
	if info.Hostname != "github.com" {
		baseURL, err := url.Parse(fmt.Sprintf("https://%s/api/v3/", info.Hostname))
		if err != nil {
			return nil, fmt.Errorf("failed to parse base URL for hostname %s: %w", info.Hostname, err)
		}
		uploadURL, err := url.Parse(fmt.Sprintf("https://%s/api/uploads/", info.Hostname))
		if err != nil {
			return nil, fmt.Errorf("failed to parse upload URL for hostname %s: %w", info.Hostname, err)
		}
		client.BaseURL = baseURL
		client.UploadURL = uploadURL
	}

	if policy.Classify == nil {
		policy.Classify = IsRateLimit
	}

	return &RealClient{
		client:   client,
		token:    token,
		hostname: info.Hostname,
		owner:    info.Owner,
		repo:     info.Repo,
		policy:   policy,
	}, nil
}

// IsRateLimit classifies rate-limiting errors from the GitHub API.
func IsRateLimit(err error) bool {
	var rateErr *gogithub.RateLimitError
	var abuseErr *gogithub.AbuseRateLimitError
	return errors.As(err, &rateErr) || errors.As(err, &abuseErr)
}

// RepoURL returns the https URL of the repository.
func (c *RealClient) RepoURL() string {
	return fmt.Sprintf("https://%s/%s/%s", c.hostname, c.owner, c.repo)
}

// ListOpenPRs returns every open pull request with check and approval state.
func (c *RealClient) ListOpenPRs(ctx context.Context) ([]PullRequest, error) {
	var all []*gogithub.PullRequest
	opts := &gogithub.PullRequestListOptions{
		State:       "open",
		ListOptions: gogithub.ListOptions{PerPage: 100},
	}
	for {
		var page []*gogithub.PullRequest
		var resp *gogithub.Response
		err := c.do(ctx, func() error {
			var err error
			page, resp, err = c.client.PullRequests.List(ctx, c.owner, c.repo, opts)
			return err
		})
		if err != nil {
			return nil, err
		}
		all = append(all, page...)
		if resp.NextPage == 0 {
			break
		}
		opts.Page = resp.NextPage
	}

	prs := make([]PullRequest, 0, len(all))
	for _, pr := range all {
		info := toPullRequest(pr)

		if pr.Head != nil && pr.Head.SHA != nil {
			checksPass, err := c.checksState(ctx, *pr.Head.SHA)
			if err != nil {
				return nil, err
			}
			info.ChecksPass = checksPass
		}

		approved, err := c.approvalState(ctx, info.Number)
		if err != nil {
			return nil, err
		}
		info.Approved = approved

		prs = append(prs, info)
	}
	return prs, nil
}

// CreatePR creates a new pull request.
func (c *RealClient) CreatePR(ctx context.Context, opts CreatePROptions) (*PullRequest, error) {
	newPR := &gogithub.NewPullRequest{
		Title: gogithub.String(opts.Title),
		Head:  gogithub.String(opts.Head),
		Base:  gogithub.String(opts.Base),
		Draft: gogithub.Bool(opts.Draft),
	}
	if opts.Body != "" {
		newPR.Body = gogithub.String(opts.Body)
	}

	var created *gogithub.PullRequest
	err := c.do(ctx, func() error {
		var err error
		created, _, err = c.client.PullRequests.Create(ctx, c.owner, c.repo, newPR)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create pull request: %w", err)
	}
	info := toPullRequest(created)
	return &info, nil
}

// UpdatePR updates an existing pull request. Draft transitions go through
// the GraphQL API, which is the only API that supports them.
func (c *RealClient) UpdatePR(ctx context.Context, number int, opts UpdatePROptions) error {
	if opts.Draft != nil {
		var pr *gogithub.PullRequest
		err := c.do(ctx, func() error {
			var err error
			pr, _, err = c.client.PullRequests.Get(ctx, c.owner, c.repo, number)
			return err
		})
		if err != nil {
			return c.mapErr(err)
		}
		if pr.Draft != nil && *pr.Draft != *opts.Draft {
			if pr.NodeID == nil {
				return fmt.Errorf("PR %d does not have a node id", number)
			}
			if err := c.updateDraftStatus(ctx, *pr.NodeID, *opts.Draft); err != nil {
				return fmt.Errorf("failed to update draft status for PR %d: %w", number, err)
			}
		}
	}

	update := &gogithub.PullRequest{}
	if opts.Title != nil {
		update.Title = opts.Title
	}
	if opts.Body != nil {
		update.Body = opts.Body
	}
	if opts.Base != nil {
		update.Base = &gogithub.PullRequestBranch{Ref: opts.Base}
	}
	if opts.Title == nil && opts.Body == nil && opts.Base == nil {
		return nil
	}

	err := c.do(ctx, func() error {
		_, _, err := c.client.PullRequests.Edit(ctx, c.owner, c.repo, number, update)
		return err
	})
	if err != nil {
		return fmt.Errorf("failed to update pull request #%d: %w", number, c.mapErr(err))
	}
	return nil
}

// ClosePR closes a pull request without merging it.
func (c *RealClient) ClosePR(ctx context.Context, number int) error {
	err := c.do(ctx, func() error {
		_, _, err := c.client.PullRequests.Edit(ctx, c.owner, c.repo, number, &gogithub.PullRequest{
			State: gogithub.String("closed"),
		})
		return err
	})
	if err != nil {
		return fmt.Errorf("failed to close pull request #%d: %w", number, c.mapErr(err))
	}
	return nil
}

// ReconcileAutoClosedPRs is a no-op against the real forge; GitHub settles
// auto-closed PRs on its own.
func (c *RealClient) ReconcileAutoClosedPRs(ctx context.Context) error {
	return nil
}

// checksState returns nil while checks are still running, otherwise whether
// every concluded check passed.
func (c *RealClient) checksState(ctx context.Context, headSHA string) (*bool, error) {
	var runs *gogithub.ListCheckRunsResults
	err := c.do(ctx, func() error {
		var err error
		runs, _, err = c.client.Checks.ListCheckRunsForRef(ctx, c.owner, c.repo, headSHA, &gogithub.ListCheckRunsOptions{
			ListOptions: gogithub.ListOptions{PerPage: 100},
		})
		return err
	})
	if err != nil {
		return nil, c.mapErr(err)
	}

	hasPending := false
	hasFailing := false
	for _, run := range runs.CheckRuns {
		if run.Status != nil {
			status := strings.ToUpper(*run.Status)
			if status == "QUEUED" || status == "IN_PROGRESS" {
				hasPending = true
			}
		}
		if run.Conclusion != nil {
			switch strings.ToUpper(*run.Conclusion) {
			case checkConclusionFailure, checkConclusionCanceled, checkConclusionTimedOut, checkConclusionActionRequired:
				hasFailing = true
			}
		}
	}

	if hasFailing {
		return gogithub.Bool(false), nil
	}
	if hasPending {
		return nil, nil
	}
	return gogithub.Bool(true), nil
}

// approvalState returns nil when no review exists, false when the latest
// review of any reviewer requests changes, true when at least one reviewer
// approved and none object.
func (c *RealClient) approvalState(ctx context.Context, number int) (*bool, error) {
	var reviews []*gogithub.PullRequestReview
	err := c.do(ctx, func() error {
		var err error
		reviews, _, err = c.client.PullRequests.ListReviews(ctx, c.owner, c.repo, number, &gogithub.ListOptions{PerPage: 100})
		return err
	})
	if err != nil {
		return nil, c.mapErr(err)
	}

	// Reviews are returned oldest first; the last review per reviewer wins.
	latest := make(map[string]string)
	for _, review := range reviews {
		if review.User == nil || review.User.Login == nil || review.State == nil {
			continue
		}
		state := strings.ToUpper(*review.State)
		if state != "APPROVED" && state != "CHANGES_REQUESTED" {
			continue
		}
		latest[*review.User.Login] = state
	}

	if len(latest) == 0 {
		return nil, nil
	}
	approved := false
	for _, state := range latest {
		if state == "CHANGES_REQUESTED" {
			return gogithub.Bool(false), nil
		}
		if state == "APPROVED" {
			approved = true
		}
	}
	return gogithub.Bool(approved), nil
}

func (c *RealClient) do(ctx context.Context, op func() error) error {
	err := c.policy.Do(ctx, op)
	return c.mapErr(err)
}

// mapErr collapses unauthorized responses into the single user-facing
// "check your token" error, regardless of which operation triggered it.
func (c *RealClient) mapErr(err error) error {
	if err == nil {
		return nil
	}
	var respErr *gogithub.ErrorResponse
	if errors.As(err, &respErr) && respErr.Response != nil {
		code := respErr.Response.StatusCode
		if code == http.StatusUnauthorized || code == http.StatusForbidden {
			return jasprerrors.ErrUnauthorized
		}
	}
	return err
}

// discoverToken looks for a token in GITHUB_TOKEN, falling back to the gh
// CLI.
func discoverToken(ctx context.Context) (string, error) {
	if token := os.Getenv("GITHUB_TOKEN"); token != "" {
		return token, nil
	}

	out, err := exec.CommandContext(ctx, "gh", "auth", "token").Output()
	if err != nil {
		return "", fmt.Errorf("no GitHub token: set GITHUB_TOKEN or log in with 'gh auth login'")
	}
	token := strings.TrimSpace(string(out))
	if token == "" {
		return "", fmt.Errorf("no GitHub token: set GITHUB_TOKEN or log in with 'gh auth login'")
	}
	return token, nil
}

// RemoteInfo contains parsed information from a git remote URL
type RemoteInfo struct {
	Hostname string
	Owner    string
	Repo     string
}

// ParseRemoteURL parses a git remote URL and extracts hostname, owner, and
// repo. Supports github.com and GitHub Enterprise, in https and ssh forms.
func ParseRemoteURL(remoteURL string) (*RemoteInfo, error) {
	remoteURL = strings.TrimSpace(remoteURL)
	remoteURL = strings.TrimSuffix(remoteURL, ".git")

	var hostname, path string
	switch {
	case strings.Contains(remoteURL, "@"):
		// git@hostname:owner/repo
		parts := strings.SplitN(remoteURL, "@", 2)
		hostAndPath := parts[1]
		if idx := strings.IndexAny(hostAndPath, ":/"); idx > 0 {
			hostname = hostAndPath[:idx]
			path = hostAndPath[idx+1:]
		} else {
			return nil, fmt.Errorf("invalid ssh remote URL %q", remoteURL)
		}
	default:
		// https://hostname/owner/repo
		trimmed := strings.TrimPrefix(strings.TrimPrefix(remoteURL, "https://"), "http://")
		parts := strings.SplitN(trimmed, "/", 2)
		if len(parts) != 2 {
			return nil, fmt.Errorf("invalid https remote URL %q", remoteURL)
		}
		hostname = parts[0]
		path = parts[1]
	}

	segments := strings.Split(path, "/")
	if len(segments) < 2 {
		return nil, fmt.Errorf("remote URL path must be owner/repo, got %q", path)
	}
	owner := segments[0]
	repo := segments[len(segments)-1]
	if hostname == "" || owner == "" || repo == "" {
		return nil, fmt.Errorf("failed to parse remote URL %q", remoteURL)
	}
	return &RemoteInfo{Hostname: hostname, Owner: owner, Repo: repo}, nil
}

func toPullRequest(pr *gogithub.PullRequest) PullRequest {
	info := PullRequest{}
	if pr.NodeID != nil {
		info.NodeID = *pr.NodeID
	}
	if pr.Number != nil {
		info.Number = *pr.Number
	}
	if pr.Title != nil {
		info.Title = *pr.Title
	}
	if pr.Body != nil {
		info.Body = *pr.Body
	}
	if pr.Draft != nil {
		info.Draft = *pr.Draft
	}
	if pr.HTMLURL != nil {
		info.Permalink = *pr.HTMLURL
	}
	if pr.Head != nil && pr.Head.Ref != nil {
		info.HeadRefName = *pr.Head.Ref
	}
	if pr.Base != nil && pr.Base.Ref != nil {
		info.BaseRefName = *pr.Base.Ref
	}
	return info
}
