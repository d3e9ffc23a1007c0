// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// Configuration constants for the completion backend client.
const (
	// DefaultTimeout is the timeout for non-streaming requests.
	DefaultTimeout = 120 * time.Second

	// readBufferSize is the transport read granularity while streaming.
	readBufferSize = 4 * 1024

	// maxErrorBodySize caps how much of an error response body is read.
	maxErrorBodySize = 64 * 1024
)

// sharedClient is the pooled HTTP client for non-streaming requests.
var sharedClient = &http.Client{
	Transport: &http.Transport{
		MaxIdleConns:        100,
		MaxIdleConnsPerHost: 10,
		IdleConnTimeout:     90 * time.Second,
		TLSHandshakeTimeout: 10 * time.Second,
	},
	Timeout: DefaultTimeout,
}

// sharedStreamingClient has no overall timeout: a long answer may stream for
// minutes. Cancellation comes from the request context.
var sharedStreamingClient = &http.Client{
	Transport: &http.Transport{
		MaxIdleConns:        100,
		MaxIdleConnsPerHost: 10,
		IdleConnTimeout:     90 * time.Second,
		TLSHandshakeTimeout: 10 * time.Second,
	},
}

// =============================================================================
// REQUEST / RESPONSE TYPES
// =============================================================================

// HistoryMessage is one prior turn sent as conversation context.
type HistoryMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Request is a tutoring question with optional subject and history.
type Request struct {
	Message             string           `json:"message"`
	Subject             string           `json:"subject,omitempty"`
	ConversationHistory []HistoryMessage `json:"conversationHistory,omitempty"`
	Stream              bool             `json:"stream"`
}

// Response is the non-streaming answer.
type Response struct {
	Message        string `json:"message"`
	ConversationID string `json:"conversationId,omitempty"`
	Timestamp      string `json:"timestamp"`
}

// StreamHandler receives the outcome of a streaming request. OnDelta is
// called zero or more times with text fragments in order; afterwards exactly
// one of OnComplete or OnError is called, and nothing else.
type StreamHandler struct {
	OnDelta    func(delta string)
	OnComplete func()
	OnError    func(err error)
}

// =============================================================================
// CLIENT
// =============================================================================

// Client talks to the completion backend. The backend does its own
// per-conversation accounting, so requests carry no credentials.
type Client struct {
	httpClient      *http.Client
	streamingClient *http.Client
	baseURL         string
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClients sets custom plain and streaming HTTP clients.
func WithHTTPClients(plain, streaming *http.Client) Option {
	return func(c *Client) {
		c.httpClient = plain
		c.streamingClient = streaming
	}
}

// WithTimeout sets the timeout for non-streaming requests, sharing the
// pooled transport. Streaming requests stay unbounded; cancellation comes
// from the request context.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d <= 0 {
			return
		}
		c.httpClient = &http.Client{
			Transport: sharedClient.Transport,
			Timeout:   d,
		}
	}
}

// NewClient creates a completion client for the backend at baseURL
// (e.g. "http://localhost:8000").
func NewClient(baseURL string, opts ...Option) *Client {
	c := &Client{
		httpClient:      sharedClient,
		streamingClient: sharedStreamingClient,
		baseURL:         strings.TrimSuffix(baseURL, "/"),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Send performs a one-shot, non-streaming completion request.
func (c *Client) Send(ctx context.Context, req Request) (*Response, error) {
	req.Stream = false
	resp, err := c.post(ctx, c.httpClient, "/api/chat", req, "application/json")
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, statusError(resp)
	}

	var out Response
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("failed to decode completion response: %w", err)
	}
	return &out, nil
}

// Stream performs a streaming completion request, delivering the answer
// incrementally through handler. It blocks until the stream finishes or
// fails; handler callbacks run on the calling goroutine.
func (c *Client) Stream(ctx context.Context, req Request, handler StreamHandler) {
	req.Stream = true
	resp, err := c.post(ctx, c.streamingClient, "/api/chat/stream", req, "text/event-stream")
	if err != nil {
		handler.OnError(err)
		return
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		handler.OnError(statusError(resp))
		return
	}

	var decoder EventDecoder
	buf := make([]byte, readBufferSize)
	for {
		if err := ctx.Err(); err != nil {
			handler.OnError(err)
			return
		}

		n, err := resp.Body.Read(buf)
		if n > 0 {
			for _, ev := range decoder.Feed(buf[:n]) {
				if ev.Done {
					// Frames after [DONE] carry nothing; drain and finish.
					handler.OnComplete()
					return
				}
				handler.OnDelta(ev.Delta)
			}
		}
		if err == io.EOF {
			decoder.Finish()
			handler.OnComplete()
			return
		}
		if err != nil {
			handler.OnError(fmt.Errorf("stream read failed: %w", err))
			return
		}
	}
}

func (c *Client) post(ctx context.Context, client *http.Client, path string, body Request, accept string) (*http.Response, error) {
	payload, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", accept)

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("completion request failed: %w", err)
	}
	return resp, nil
}

func statusError(resp *http.Response) error {
	io.Copy(io.Discard, io.LimitReader(resp.Body, maxErrorBodySize))
	return fmt.Errorf("completion backend returned status %d", resp.StatusCode)
}
