package github

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/dshills/patchguard/internal/review"
)

// Review events accepted by the GitHub reviews API.
const (
	EventApprove        = "APPROVE"
	EventRequestChanges = "REQUEST_CHANGES"
	EventComment        = "COMMENT"
)

// ReviewComment represents an inline comment on a PR review. Line refers to
// the new file, so Side is always RIGHT.
type ReviewComment struct {
	Path     string `json:"path"`
	Line     int    `json:"line"`
	Side     string `json:"side,omitempty"`
	Body     string `json:"body"`
	CommitID string `json:"commit_id,omitempty"`
}

// ReviewRequest represents a PR review to post.
type ReviewRequest struct {
	CommitID string          `json:"commit_id,omitempty"`
	Body     string          `json:"body"`
	Event    string          `json:"event"`
	Comments []ReviewComment `json:"comments"`
}

// ParseEvent maps a CLI event name to an API event. "auto" and "" return "",
// meaning the caller picks from the decision.
func ParseEvent(s string) (string, error) {
	switch strings.ToLower(s) {
	case "", "auto":
		return "", nil
	case "approve":
		return EventApprove, nil
	case "request-changes", "request_changes":
		return EventRequestChanges, nil
	case "comment":
		return EventComment, nil
	}
	return "", fmt.Errorf("unknown review event %q (want auto, approve, request-changes or comment)", s)
}

// EventForDecision picks the review event the findings support: approve when
// there are none, request changes when approval is blocked, comment otherwise.
func EventForDecision(d review.Decision, counts review.SeverityCounts) string {
	switch {
	case counts.Total() == 0 && d.ApproveAllowed:
		return EventApprove
	case !d.ApproveAllowed && d.RequestChangesAllowed:
		return EventRequestChanges
	default:
		return EventComment
	}
}

// CheckEvent returns ErrGateBlocked if event is an approval or change
// request the decision does not allow. Comments are always allowed.
func CheckEvent(event string, d review.Decision) error {
	switch event {
	case EventApprove:
		if !d.ApproveAllowed {
			return fmt.Errorf("%w: cannot approve: %s", ErrGateBlocked, d.Rationale)
		}
	case EventRequestChanges:
		if !d.RequestChangesAllowed {
			return fmt.Errorf("%w: cannot request changes: %s", ErrGateBlocked, d.Rationale)
		}
	}
	return nil
}

// PostReview posts a pull request review with inline comments.
func (c *Client) PostReview(ctx context.Context, owner, repo string, prNumber int, req ReviewRequest) error {
	path := fmt.Sprintf("/repos/%s/%s/pulls/%d/reviews", url.PathEscape(owner), url.PathEscape(repo), prNumber)
	if _, err := c.postJSON(ctx, path, req, req.Event); err != nil {
		return fmt.Errorf("posting review: %w", err)
	}
	return nil
}

// PostReviewComment posts a single inline comment outside a review.
func (c *Client) PostReviewComment(ctx context.Context, owner, repo string, prNumber int, comment ReviewComment) error {
	if comment.Side == "" {
		comment.Side = "RIGHT"
	}
	path := fmt.Sprintf("/repos/%s/%s/pulls/%d/comments", url.PathEscape(owner), url.PathEscape(repo), prNumber)
	if _, err := c.postJSON(ctx, path, comment, ""); err != nil {
		return fmt.Errorf("posting review comment: %w", err)
	}
	return nil
}

// BuildGitHubReview converts findings into a GitHub PR review request.
// diffFiles is the set of files in the PR diff. Findings for files not in the
// diff are included in the summary body only. The event is chosen from the
// decision; callers may override it after CheckEvent.
func BuildGitHubReview(findings []review.Finding, diffFiles map[string]bool, summary review.Summary, decision review.Decision) ReviewRequest {
	var bodyComments []string
	var comments []ReviewComment

	for _, f := range findings {
		if f.Path != "" && f.Line > 0 && diffFiles[f.Path] {
			comments = append(comments, ReviewComment{
				Path: f.Path,
				Line: f.Line,
				Side: "RIGHT",
				Body: formatInlineComment(f),
			})
			continue
		}
		bodyComments = append(bodyComments, formatFindingBody(f))
	}

	c := summary.Counts
	var sb strings.Builder
	sb.WriteString("## PatchGuard Review\n\n")
	sb.WriteString("| Severity | Count |\n|----------|-------|\n")
	fmt.Fprintf(&sb, "| Critical | %d |\n", c.Critical)
	fmt.Fprintf(&sb, "| High | %d |\n", c.High)
	fmt.Fprintf(&sb, "| Medium | %d |\n", c.Medium)
	fmt.Fprintf(&sb, "| Low | %d |\n\n", c.Low)
	fmt.Fprintf(&sb, "**Gate:** %s\n\n", decision.Rationale)
	if summary.EstimatedHoursSaved > 0 {
		fmt.Fprintf(&sb, "Estimated review time saved: %.1f hours\n\n", summary.EstimatedHoursSaved)
	}

	if len(bodyComments) > 0 {
		sb.WriteString("### General Findings\n\n")
		for _, bc := range bodyComments {
			sb.WriteString(bc)
			sb.WriteString("\n\n")
		}
	}

	return ReviewRequest{
		Body:     sb.String(),
		Event:    EventForDecision(decision, c),
		Comments: comments,
	}
}

func formatInlineComment(f review.Finding) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "**%s** (%s, %s, `%s`)\n\n", f.Title, f.Severity, f.Category, f.RuleID)
	sb.WriteString(f.Description)
	if f.Suggestion != "" {
		fmt.Fprintf(&sb, "\n\n**Suggestion:** %s", f.Suggestion)
	}
	return sb.String()
}

func formatFindingBody(f review.Finding) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "- **%s** (%s, %s)", f.Title, f.Severity, f.Category)
	if f.Path != "" {
		fmt.Fprintf(&sb, " in `%s:%d`", f.Path, f.Line)
	}
	fmt.Fprintf(&sb, ": %s", f.Description)
	if f.Suggestion != "" {
		fmt.Fprintf(&sb, " *Suggestion: %s*", f.Suggestion)
	}
	return sb.String()
}
