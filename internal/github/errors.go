package github

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
)

var (
	// ErrAuth means the token is missing, invalid, or lacks permission.
	ErrAuth = errors.New("github: authentication failed")
	// ErrNotFound means the repository or pull request does not exist or is
	// not visible to the token.
	ErrNotFound = errors.New("github: not found")
	// ErrSelfReview means GitHub refused an approve or request-changes
	// review, typically because the token belongs to the PR author.
	ErrSelfReview = errors.New("github: cannot approve or request changes on this pull request")
	// ErrReviewRejected means GitHub refused a review payload as invalid.
	ErrReviewRejected = errors.New("github: review rejected")
	// ErrRateLimited means the API rate limit is exhausted.
	ErrRateLimited = errors.New("github: rate limited")
	// ErrGateBlocked means the requested review event is not permitted by
	// the findings.
	ErrGateBlocked = errors.New("review event not permitted by findings")
)

// APIError is a non-2xx response from the GitHub API. It unwraps to one of
// the sentinel errors when the status maps to one.
type APIError struct {
	StatusCode int
	Message    string
	kind       error
}

func (e *APIError) Error() string {
	return fmt.Sprintf("GitHub API error (status %d): %s", e.StatusCode, e.Message)
}

func (e *APIError) Unwrap() error { return e.kind }

// newAPIError classifies a failed response. event is the review event for
// review submissions and empty otherwise.
func newAPIError(resp *http.Response, body []byte, event string) *APIError {
	e := &APIError{StatusCode: resp.StatusCode, Message: apiMessage(body)}
	switch {
	case resp.StatusCode == http.StatusTooManyRequests:
		e.kind = ErrRateLimited
	case resp.StatusCode == http.StatusForbidden && resp.Header.Get("X-RateLimit-Remaining") == "0":
		e.kind = ErrRateLimited
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		e.kind = ErrAuth
	case resp.StatusCode == http.StatusNotFound:
		e.kind = ErrNotFound
	case resp.StatusCode == http.StatusUnprocessableEntity:
		if event == EventApprove || event == EventRequestChanges {
			e.kind = ErrSelfReview
		} else {
			e.kind = ErrReviewRejected
		}
	}
	return e
}

// apiMessage extracts the "message" field GitHub puts in error bodies,
// falling back to the raw body.
func apiMessage(body []byte) string {
	var payload struct {
		Message string `json:"message"`
	}
	if err := json.Unmarshal(body, &payload); err == nil && payload.Message != "" {
		return payload.Message
	}
	return strings.TrimSpace(string(body))
}

// IsTransient reports whether err is worth retrying: rate limits, server
// errors and network failures. Context cancellation is never transient.
func IsTransient(err error) bool {
	if err == nil || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	if errors.Is(err, ErrRateLimited) {
		return true
	}
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.StatusCode >= 500
	}
	var urlErr *url.Error
	return errors.As(err, &urlErr)
}
