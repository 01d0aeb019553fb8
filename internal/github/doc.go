// Package github is a small GitHub REST API client for pull request review.
//
// It lists repositories and open pull requests, fetches changed files with
// their patches, and posts reviews built from findings. The token comes from
// GITHUB_TOKEN (or GH_TOKEN). GET requests retry transient failures with
// exponential backoff; review submissions are sent once.
//
// Failures unwrap to sentinel errors (ErrAuth, ErrNotFound, ErrSelfReview,
// ErrReviewRejected, ErrRateLimited) so callers can pick exit codes and
// messages. CheckEvent enforces the review gate before anything is posted.
package github
