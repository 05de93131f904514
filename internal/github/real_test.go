package github_test

import (
	"errors"
	"testing"

	gogithub "github.com/google/go-github/v62/github"
	"github.com/stretchr/testify/require"

	"jaspr.dev/jaspr/internal/github"
)

func TestParseRemoteURL(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		url      string
		hostname string
		owner    string
		repo     string
		wantErr  bool
	}{
		{
			name:     "ssh",
			url:      "git@github.com:acme/widgets.git",
			hostname: "github.com",
			owner:    "acme",
			repo:     "widgets",
		},
		{
			name:     "ssh scheme",
			url:      "ssh://git@github.com/acme/widgets",
			hostname: "github.com",
			owner:    "acme",
			repo:     "widgets",
		},
		{
			name:     "https",
			url:      "https://github.com/acme/widgets.git",
			hostname: "github.com",
			owner:    "acme",
			repo:     "widgets",
		},
		{
			name:     "enterprise https",
			url:      "https://ghe.acme.internal/platform/widgets",
			hostname: "ghe.acme.internal",
			owner:    "platform",
			repo:     "widgets",
		},
		{
			name:    "no path",
			url:     "https://github.com",
			wantErr: true,
		},
		{
			name:    "not a remote",
			url:     "widgets",
			wantErr: true,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			info, err := github.ParseRemoteURL(tt.url)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			require.Equal(t, tt.hostname, info.Hostname)
			require.Equal(t, tt.owner, info.Owner)
			require.Equal(t, tt.repo, info.Repo)
		})
	}
}

func TestIsRateLimit(t *testing.T) {
	t.Parallel()

	require.True(t, github.IsRateLimit(&gogithub.RateLimitError{}))
	require.True(t, github.IsRateLimit(&gogithub.AbuseRateLimitError{}))
	require.False(t, github.IsRateLimit(errors.New("boom")))
	require.False(t, github.IsRateLimit(nil))
}
