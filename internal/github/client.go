// Package github is a minimal client for the GitHub REST endpoints ghclip needs:
// repository contents, the authenticated user, app installations and repositories.
package github

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/MrSnakeDoc/ghclip/internal/domain"
	"github.com/MrSnakeDoc/ghclip/internal/logger"
	"github.com/MrSnakeDoc/ghclip/internal/utils"
	"github.com/MrSnakeDoc/ghclip/internal/version"
)

const (
	// DefaultBaseURL is the public GitHub REST API.
	DefaultBaseURL = "https://api.github.com"

	apiVersion     = "2022-11-28"
	mediaType      = "application/vnd.github+json"
	maxErrorBody   = 64 << 10
	defaultTimeout = 30 * time.Second
)

// Client talks to the GitHub REST API. Every call takes the full
// Authorization header value so one client serves all auth methods.
type Client struct {
	baseURL string
	http    *http.Client
	log     logger.Logger
}

// NewClient creates a client for baseURL (DefaultBaseURL when empty).
// A nil httpClient gets a plain client with a 30s timeout.
func NewClient(baseURL string, httpClient *http.Client, log logger.Logger) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if httpClient == nil {
		httpClient = &http.Client{Timeout: defaultTimeout}
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    httpClient,
		log:     log,
	}
}

// BaseURL returns the API root the client was built with.
func (c *Client) BaseURL() string { return c.baseURL }

// errorBody is the error document GitHub returns with non-2xx answers.
type errorBody struct {
	Message          string `json:"message"`
	DocumentationURL string `json:"documentation_url"`
}

// do sends one request. in is JSON-encoded when non-nil and a 2xx body is
// decoded into out when non-nil. Non-2xx answers are classified by classify.
func (c *Client) do(ctx context.Context, method, path, auth string, in, out any) error {
	var body io.Reader
	if in != nil {
		payload, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("failed to encode request: %w", err)
		}
		body = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", mediaType)
	req.Header.Set("X-GitHub-Api-Version", apiVersion)
	req.Header.Set("User-Agent", "ghclip/"+version.Version)
	if auth != "" {
		req.Header.Set("Authorization", auth)
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		return &domain.NetworkError{Op: method + " " + path, Err: err}
	}
	defer utils.DrainClose(resp.Body)

	c.log.Debug("github api call",
		logger.String("method", method),
		logger.String("path", path),
		logger.Int("status", resp.StatusCode),
		logger.Duration("duration", time.Since(start)))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return classify(resp)
	}

	if out == nil || resp.StatusCode == http.StatusNoContent {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode %s %s response: %w", method, path, err)
	}
	return nil
}

// classify maps a non-2xx response onto the error taxonomy.
//
//   - 401 and 403 are AuthError, except primary or secondary rate limiting which is an APIError
//   - 409, and 422 mentioning the sha, are ConflictError
//   - everything else is APIError carrying GitHub's message
func classify(resp *http.Response) error {
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))

	var eb errorBody
	msg := strings.TrimSpace(string(raw))
	if json.Unmarshal(raw, &eb) == nil && eb.Message != "" {
		msg = eb.Message
	}
	if msg == "" {
		msg = http.StatusText(resp.StatusCode)
	}

	apiErr := &domain.APIError{Status: resp.StatusCode, Message: msg}

	switch {
	case isRateLimited(resp, msg):
		return apiErr
	case resp.StatusCode == http.StatusUnauthorized, resp.StatusCode == http.StatusForbidden:
		return &domain.AuthError{Reason: msg, Err: apiErr}
	case resp.StatusCode == http.StatusConflict:
		return &domain.ConflictError{Message: msg}
	case resp.StatusCode == http.StatusUnprocessableEntity && strings.Contains(strings.ToLower(msg), "sha"):
		return &domain.ConflictError{Message: msg}
	default:
		return apiErr
	}
}

// isRateLimited spots primary limits (remaining 0) and secondary limits,
// which answer 403 with Retry-After while quota remains.
func isRateLimited(resp *http.Response, msg string) bool {
	if resp.StatusCode == http.StatusTooManyRequests {
		return true
	}
	if resp.StatusCode != http.StatusForbidden {
		return false
	}
	return resp.Header.Get("X-RateLimit-Remaining") == "0" ||
		resp.Header.Get("Retry-After") != "" ||
		strings.Contains(strings.ToLower(msg), "rate limit")
}

// Ping checks that the API answers. /rate_limit needs no credentials and
// does not count against the rate limit.
func (c *Client) Ping(ctx context.Context) error {
	return c.do(ctx, http.MethodGet, "/rate_limit", "", nil, nil)
}

// IsNotFound reports whether err is a 404 from the API.
func IsNotFound(err error) bool {
	var apiErr *domain.APIError
	return errors.As(err, &apiErr) && apiErr.Status == http.StatusNotFound
}
