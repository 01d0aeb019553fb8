package github

import (
	"context"
	"fmt"
	"net/url"
)

// Repository is a repository visible to the authenticated user.
type Repository struct {
	Name            string `json:"name"`
	FullName        string `json:"full_name"`
	Description     string `json:"description"`
	Language        string `json:"language"`
	Private         bool   `json:"private"`
	StargazersCount int    `json:"stargazers_count"`
	ForksCount      int    `json:"forks_count"`
	OpenIssuesCount int    `json:"open_issues_count"`
	UpdatedAt       string `json:"updated_at"`
	Owner           struct {
		Login string `json:"login"`
	} `json:"owner"`
}

// maxHealthPenalty caps how many open issues count against health.
const maxHealthPenalty = 30

// HealthScore is a coarse 70 to 100 score from the open issue count.
func (r Repository) HealthScore() float64 {
	return float64(100 - min(r.OpenIssuesCount, maxHealthPenalty))
}

// PullRequest is an open pull request.
type PullRequest struct {
	Number    int    `json:"number"`
	Title     string `json:"title"`
	State     string `json:"state"`
	HTMLURL   string `json:"html_url"`
	CreatedAt string `json:"created_at"`
	UpdatedAt string `json:"updated_at"`
	User      struct {
		Login string `json:"login"`
	} `json:"user"`
	Head struct {
		Ref string `json:"ref"`
		SHA string `json:"sha"`
	} `json:"head"`
	Base struct {
		Ref string `json:"ref"`
	} `json:"base"`
}

// ListRepositories returns the user's most recently updated repositories.
func (c *Client) ListRepositories(ctx context.Context) ([]Repository, error) {
	var repos []Repository
	if err := c.getJSON(ctx, "/user/repos?sort=updated&per_page=50", &repos); err != nil {
		return nil, fmt.Errorf("listing repositories: %w", err)
	}
	return repos, nil
}

// ListPullRequests returns open pull requests for a repository.
func (c *Client) ListPullRequests(ctx context.Context, owner, repo string) ([]PullRequest, error) {
	path := fmt.Sprintf("/repos/%s/%s/pulls?state=open&per_page=20", url.PathEscape(owner), url.PathEscape(repo))
	var prs []PullRequest
	if err := c.getJSON(ctx, path, &prs); err != nil {
		return nil, fmt.Errorf("listing pull requests for %s/%s: %w", owner, repo, err)
	}
	return prs, nil
}

// GetPullRequest returns one pull request.
func (c *Client) GetPullRequest(ctx context.Context, owner, repo string, prNumber int) (PullRequest, error) {
	path := fmt.Sprintf("/repos/%s/%s/pulls/%d", url.PathEscape(owner), url.PathEscape(repo), prNumber)
	var pr PullRequest
	if err := c.getJSON(ctx, path, &pr); err != nil {
		return PullRequest{}, fmt.Errorf("fetching PR #%d in %s/%s: %w", prNumber, owner, repo, err)
	}
	return pr, nil
}
