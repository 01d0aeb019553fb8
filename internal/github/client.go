package github

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"strings"
	"time"
)

const (
	defaultAPIURL     = "https://api.github.com"
	defaultMaxRetries = 3
	mediaJSON         = "application/vnd.github.v3+json"
	mediaDiff         = "application/vnd.github.v3.diff"
)

// Client provides access to the GitHub REST API.
type Client struct {
	token      string
	apiURL     string
	httpCli    *http.Client
	logger     *slog.Logger
	maxRetries int
	retryBase  time.Duration
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the default HTTP client.
func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) { c.httpCli = h }
}

// WithLogger sets the logger used for request tracing.
func WithLogger(l *slog.Logger) Option {
	return func(c *Client) {
		if l != nil {
			c.logger = l
		}
	}
}

// WithToken sets the token instead of reading it from the environment.
func WithToken(token string) Option {
	return func(c *Client) { c.token = token }
}

// WithRetries sets how many times a failed GET is retried and the first
// backoff delay.
func WithRetries(n int, base time.Duration) Option {
	return func(c *Client) {
		c.maxRetries = n
		c.retryBase = base
	}
}

// NewClient creates a new GitHub client. The token comes from GITHUB_TOKEN
// (or GH_TOKEN) unless WithToken is given. An empty apiURL means
// api.github.com.
func NewClient(apiURL string, opts ...Option) (*Client, error) {
	if apiURL == "" {
		apiURL = defaultAPIURL
	}
	c := &Client{
		token:      os.Getenv("GITHUB_TOKEN"),
		apiURL:     strings.TrimRight(apiURL, "/"),
		httpCli:    &http.Client{Timeout: 60 * time.Second},
		logger:     slog.New(slog.NewTextHandler(io.Discard, nil)),
		maxRetries: defaultMaxRetries,
		retryBase:  time.Second,
	}
	if c.token == "" {
		c.token = os.Getenv("GH_TOKEN")
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.token == "" {
		return nil, fmt.Errorf("%w: GITHUB_TOKEN environment variable is not set", ErrAuth)
	}
	return c, nil
}

// get performs a GET with retries and returns the body of a 200 response.
func (c *Client) get(ctx context.Context, path, accept string) ([]byte, error) {
	var body []byte
	err := c.retryWithBackoff(ctx, func() error {
		b, err := c.do(ctx, http.MethodGet, path, accept, nil, "")
		body = b
		return err
	})
	return body, err
}

// getJSON performs a GET and decodes the JSON response into v.
func (c *Client) getJSON(ctx context.Context, path string, v any) error {
	body, err := c.get(ctx, path, mediaJSON)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(body, v); err != nil {
		return fmt.Errorf("parsing response: %w", err)
	}
	return nil
}

// postJSON sends payload once; POSTs are never retried.
func (c *Client) postJSON(ctx context.Context, path string, payload any, event string) ([]byte, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshaling request: %w", err)
	}
	return c.do(ctx, http.MethodPost, path, mediaJSON, data, event)
}

func (c *Client) do(ctx context.Context, method, path, accept string, payload []byte, event string) ([]byte, error) {
	var reqBody io.Reader
	if payload != nil {
		reqBody = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.apiURL+path, reqBody)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.token)
	req.Header.Set("Accept", accept)
	req.Header.Set("X-GitHub-Api-Version", "2022-11-28")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpCli.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading response: %w", err)
	}
	c.logger.Debug("github request", "method", method, "path", path, "status", resp.StatusCode)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, newAPIError(resp, body, event)
	}
	return body, nil
}
