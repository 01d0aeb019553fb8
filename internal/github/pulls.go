package github

import (
	"context"
	"fmt"
	"net/url"
)

const (
	filesPerPage = 100
	// GitHub stops listing files after 3000.
	maxFilePages = 30
)

// PRFile represents a file changed in a pull request. Patch is empty for
// binary files and for files too large for GitHub to diff.
type PRFile struct {
	Filename  string `json:"filename"`
	Status    string `json:"status"`
	Additions int    `json:"additions"`
	Deletions int    `json:"deletions"`
	Changes   int    `json:"changes"`
	Patch     string `json:"patch,omitempty"`
}

// GetPRFiles fetches every file changed in a pull request, in GitHub's
// order, following pages until a short page comes back.
func (c *Client) GetPRFiles(ctx context.Context, owner, repo string, prNumber int) ([]PRFile, error) {
	var all []PRFile
	for page := 1; page <= maxFilePages; page++ {
		path := fmt.Sprintf("/repos/%s/%s/pulls/%d/files?per_page=%d&page=%d",
			url.PathEscape(owner), url.PathEscape(repo), prNumber, filesPerPage, page)
		var files []PRFile
		if err := c.getJSON(ctx, path, &files); err != nil {
			return nil, fmt.Errorf("fetching files for PR #%d in %s/%s: %w", prNumber, owner, repo, err)
		}
		all = append(all, files...)
		if len(files) < filesPerPage {
			break
		}
	}
	return all, nil
}

// GetPRDiff fetches the unified diff for a pull request.
func (c *Client) GetPRDiff(ctx context.Context, owner, repo string, prNumber int) (string, error) {
	path := fmt.Sprintf("/repos/%s/%s/pulls/%d", url.PathEscape(owner), url.PathEscape(repo), prNumber)
	body, err := c.get(ctx, path, mediaDiff)
	if err != nil {
		return "", fmt.Errorf("fetching diff for PR #%d in %s/%s: %w", prNumber, owner, repo, err)
	}
	return string(body), nil
}
