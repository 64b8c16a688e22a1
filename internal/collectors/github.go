package collectors

import (
	"context"
	"net/url"
	"strings"
	"time"

	"github.com/jonathan/career-metric/internal/fetch"
)

// DefaultGitHubBaseURL is the public GitHub REST API.
const DefaultGitHubBaseURL = "https://api.github.com"

// GitHubFailureMessage is the degraded message returned when a profile
// cannot be fetched.
const GitHubFailureMessage = "Unable to fetch GitHub profile"

// GitHubSummary is the normalized artifact for a GitHub profile.
type GitHubSummary struct {
	Username         *string `json:"username"`
	Name             *string `json:"name"`
	PublicRepos      int     `json:"public_repos"`
	Followers        int     `json:"followers"`
	Following        int     `json:"following"`
	ProfileCreatedAt *string `json:"profile_created_at"`
}

// githubUser mirrors the fields consumed from GET /users/{username}.
type githubUser struct {
	Login       *string `json:"login"`
	Name        *string `json:"name"`
	PublicRepos int     `json:"public_repos"`
	Followers   int     `json:"followers"`
	Following   int     `json:"following"`
	CreatedAt   *string `json:"created_at"`
}

// GitHubOptions configures the GitHub collector.
type GitHubOptions struct {
	BaseURL string
	Timeout time.Duration
	Token   string
}

// GitHubCollector reads one public profile per call.
type GitHubCollector struct {
	baseURL string
	client  *fetch.Client
}

// NewGitHubCollector creates a GitHubCollector. Zero options fall back to the
// public API and a 10 second timeout.
func NewGitHubCollector(opts GitHubOptions) *GitHubCollector {
	baseURL := strings.TrimRight(opts.BaseURL, "/")
	if baseURL == "" {
		baseURL = DefaultGitHubBaseURL
	}

	headers := map[string]string{
		"Accept":               "application/vnd.github+json",
		"X-GitHub-Api-Version": "2022-11-28",
	}
	if opts.Token != "" {
		headers["Authorization"] = "Bearer " + opts.Token
	}

	return &GitHubCollector{
		baseURL: baseURL,
		client: fetch.NewClient(&fetch.Options{
			Timeout:   opts.Timeout,
			UserAgent: fetch.DefaultUserAgent,
			Headers:   headers,
		}),
	}
}

// Source implements Collector.
func (c *GitHubCollector) Source() Source {
	return SourceGitHub
}

// Collect implements Collector. Any transport error, timeout, cancellation or
// non-2xx response returns *Error.
func (c *GitHubCollector) Collect(ctx context.Context, username string) (any, error) {
	endpoint := c.baseURL + "/users/" + url.PathEscape(username)

	var user githubUser
	if err := c.client.JSON(ctx, endpoint, &user); err != nil {
		return nil, &Error{Source: SourceGitHub, Message: GitHubFailureMessage, Cause: err}
	}

	return GitHubSummary{
		Username:         user.Login,
		Name:             user.Name,
		PublicRepos:      user.PublicRepos,
		Followers:        user.Followers,
		Following:        user.Following,
		ProfileCreatedAt: user.CreatedAt,
	}, nil
}
