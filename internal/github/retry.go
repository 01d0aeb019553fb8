package github

import (
	"context"
	"time"
)

// retryWithBackoff runs fn until it succeeds, fails permanently, or
// maxRetries retries are spent. The delay doubles from base each attempt.
func (c *Client) retryWithBackoff(ctx context.Context, fn func() error) error {
	var lastErr error
	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		lastErr = fn()
		if lastErr == nil {
			return nil
		}
		if !IsTransient(lastErr) {
			return lastErr
		}

		if attempt < c.maxRetries {
			backoff := time.Duration(1<<uint(attempt)) * c.retryBase
			c.logger.Warn("retrying GitHub request", "attempt", attempt+1, "backoff", backoff, "error", lastErr)
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(backoff):
			}
		}
	}
	return lastErr
}
