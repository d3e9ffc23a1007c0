// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/tutorchat/tui/internal/auth"
)

// Configuration constants for the gateway.
const (
	// DefaultTimeout is the per-request timeout for data endpoints.
	DefaultTimeout = 30 * time.Second

	// DefaultRequestsPerSec caps the outgoing request rate.
	DefaultRequestsPerSec = 10

	// maxErrorBodySize caps how much of an error response body is kept.
	maxErrorBodySize = 64 * 1024
)

// sharedClient is the pooled HTTP client for all gateway requests.
var sharedClient = &http.Client{
	Transport: &http.Transport{
		MaxIdleConns:        100,
		MaxIdleConnsPerHost: 10,
		IdleConnTimeout:     90 * time.Second,
		TLSHandshakeTimeout: 10 * time.Second,
	},
	Timeout: DefaultTimeout,
}

// =============================================================================
// GATEWAY CLIENT
// =============================================================================

// Client is the authenticated request gateway. All backend data traffic
// (chats, messages, profiles) flows through it; the auth and AI backends
// have their own clients because their credential rules differ.
type Client struct {
	httpClient *http.Client
	session    *auth.Manager
	baseURL    string
	limiter    *rate.Limiter
}

// Option configures a gateway Client.
type Option func(*Client)

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(c *http.Client) Option {
	return func(g *Client) { g.httpClient = c }
}

// WithRateLimit sets the outgoing requests-per-second cap.
func WithRateLimit(rps float64) Option {
	return func(g *Client) { g.limiter = rate.NewLimiter(rate.Limit(rps), int(rps)+1) }
}

// WithTimeout sets the per-request timeout, sharing the pooled transport.
func WithTimeout(d time.Duration) Option {
	return func(g *Client) {
		if d <= 0 {
			return
		}
		g.httpClient = &http.Client{
			Transport: sharedClient.Transport,
			Timeout:   d,
		}
	}
}

// NewClient creates a gateway for the data backend at baseURL
// (e.g. "http://localhost:8080/api/v1"), authenticating via session.
func NewClient(session *auth.Manager, baseURL string, opts ...Option) *Client {
	c := &Client{
		httpClient: sharedClient,
		session:    session,
		baseURL:    strings.TrimSuffix(baseURL, "/"),
		limiter:    rate.NewLimiter(rate.Limit(DefaultRequestsPerSec), DefaultRequestsPerSec+1),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// =============================================================================
// REQUEST EXECUTION
// =============================================================================

// Do executes an authenticated request against path. A JSON body is marshaled
// when body is non-nil. On a 401 the access token is refreshed and the
// request retried exactly once; a second 401 or a failed refresh terminates
// the session and surfaces the error. All other statuses pass through
// unchanged for the caller to interpret.
func (c *Client) Do(ctx context.Context, method, path string, body any) (*http.Response, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	var payload []byte
	if body != nil {
		var err error
		payload, err = json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal request: %w", err)
		}
	}

	resp, err := c.send(ctx, method, path, payload)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusUnauthorized {
		return resp, nil
	}

	// One recovery attempt: the token may have expired between the validity
	// check and the backend's own check.
	io.Copy(io.Discard, io.LimitReader(resp.Body, maxErrorBodySize))
	resp.Body.Close()

	if _, err := c.session.Refresh(ctx); err != nil {
		log.Printf("refresh after 401 failed: %v", err)
		return nil, fmt.Errorf("request to %s: %w", path, auth.ErrNotAuthenticated)
	}

	resp, err = c.send(ctx, method, path, payload)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode == http.StatusUnauthorized {
		// A fresh token was still rejected; the session is not salvageable.
		io.Copy(io.Discard, io.LimitReader(resp.Body, maxErrorBodySize))
		resp.Body.Close()
		c.session.Logout(ctx)
		return nil, fmt.Errorf("request to %s: %w", path, auth.ErrNotAuthenticated)
	}
	return resp, nil
}

// send issues one attempt with a freshly validated access token. Gateway
// headers are set after any caller-provided ones so they cannot be overridden.
func (c *Client) send(ctx context.Context, method, path string, payload []byte) (*http.Response, error) {
	token, err := c.session.ValidAccessToken(ctx)
	if err != nil {
		return nil, err
	}

	var reader io.Reader
	if payload != nil {
		reader = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Accept", "application/json")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request to %s failed: %w", path, err)
	}
	return resp, nil
}

// =============================================================================
// JSON HELPERS
// =============================================================================

// GetJSON performs a GET and decodes a 2xx JSON response into out.
func (c *Client) GetJSON(ctx context.Context, path string, out any) error {
	return c.doJSON(ctx, http.MethodGet, path, nil, out)
}

// PostJSON performs a POST with a JSON body and decodes the response into
// out when out is non-nil.
func (c *Client) PostJSON(ctx context.Context, path string, body, out any) error {
	return c.doJSON(ctx, http.MethodPost, path, body, out)
}

// PutJSON performs a PUT with a JSON body and decodes the response into out
// when out is non-nil.
func (c *Client) PutJSON(ctx context.Context, path string, body, out any) error {
	return c.doJSON(ctx, http.MethodPut, path, body, out)
}

// Delete performs a DELETE and discards any response body.
func (c *Client) Delete(ctx context.Context, path string) error {
	return c.doJSON(ctx, http.MethodDelete, path, nil, nil)
}

func (c *Client) doJSON(ctx context.Context, method, path string, body, out any) error {
	resp, err := c.Do(ctx, method, path, body)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return newStatusError(resp)
	}

	if out == nil {
		io.Copy(io.Discard, io.LimitReader(resp.Body, maxErrorBodySize))
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response from %s: %w", path, err)
	}
	return nil
}
