// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package ai

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

// collectHandler accumulates stream callbacks and enforces that exactly one
// terminal callback fires.
type collectHandler struct {
	t         *testing.T
	deltas    []string
	completed int
	failed    int
	err       error
}

func (h *collectHandler) handler() StreamHandler {
	return StreamHandler{
		OnDelta: func(delta string) {
			if h.completed+h.failed > 0 {
				h.t.Error("delta after terminal callback")
			}
			h.deltas = append(h.deltas, delta)
		},
		OnComplete: func() { h.completed++ },
		OnError: func(err error) {
			h.failed++
			h.err = err
		},
	}
}

func (h *collectHandler) requireCompleted() {
	h.t.Helper()
	require.Equal(h.t, 1, h.completed, "expected exactly one OnComplete")
	require.Zero(h.t, h.failed, "unexpected OnError: %v", h.err)
}

func TestStreamDeliversDeltas(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/api/chat/stream", r.URL.Path)

		var req Request
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		require.True(t, req.Stream)
		require.Equal(t, "what is a derivative?", req.Message)
		require.Equal(t, "math", req.Subject)
		require.Len(t, req.ConversationHistory, 2)

		w.Header().Set("Content-Type", "text/event-stream")
		flusher := w.(http.Flusher)
		for _, frame := range []string{
			"data: {\"content\":\"The \"}\n\n",
			"data: {\"content\":\"derivative\"}\n\n",
			"data: [DONE]\n\n",
		} {
			w.Write([]byte(frame))
			flusher.Flush()
		}
	}))
	defer srv.Close()

	h := &collectHandler{t: t}
	c := NewClient(srv.URL)
	c.Stream(context.Background(), Request{
		Message: "what is a derivative?",
		Subject: "math",
		ConversationHistory: []HistoryMessage{
			{Role: "user", Content: "hi"},
			{Role: "assistant", Content: "hello"},
		},
	}, h.handler())

	h.requireCompleted()
	require.Equal(t, []string{"The ", "derivative"}, h.deltas)
}

func TestStreamCompletesOnEOFWithoutDone(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("data: {\"content\":\"partial answer\"}\n"))
	}))
	defer srv.Close()

	h := &collectHandler{t: t}
	NewClient(srv.URL).Stream(context.Background(), Request{Message: "q"}, h.handler())

	h.requireCompleted()
	require.Equal(t, []string{"partial answer"}, h.deltas)
}

func TestStreamErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	h := &collectHandler{t: t}
	NewClient(srv.URL).Stream(context.Background(), Request{Message: "q"}, h.handler())

	require.Equal(t, 1, h.failed)
	require.Zero(t, h.completed)
	require.ErrorContains(t, h.err, "503")
}

func TestStreamNetworkError(t *testing.T) {
	h := &collectHandler{t: t}
	NewClient("http://127.0.0.1:1").Stream(context.Background(), Request{Message: "q"}, h.handler())

	require.Equal(t, 1, h.failed)
	require.Zero(t, h.completed)
}

func TestStreamContextCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	h := &collectHandler{t: t}
	NewClient("http://127.0.0.1:1").Stream(ctx, Request{Message: "q"}, h.handler())

	require.Equal(t, 1, h.failed)
	require.Zero(t, h.completed)
}

func TestSendNonStreaming(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/api/chat", r.URL.Path)

		var req Request
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		require.False(t, req.Stream)

		json.NewEncoder(w).Encode(Response{Message: "42", Timestamp: "2025-06-01T12:00:00Z"})
	}))
	defer srv.Close()

	resp, err := NewClient(srv.URL).Send(context.Background(), Request{Message: "meaning of life?", Stream: true})
	require.NoError(t, err)
	require.Equal(t, "42", resp.Message)
}

func TestSendErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	_, err := NewClient(srv.URL).Send(context.Background(), Request{Message: "q"})
	require.ErrorContains(t, err, "500")
}

func TestWithTimeoutLeavesStreamingUnbounded(t *testing.T) {
	c := NewClient("http://localhost", WithTimeout(45*time.Second))
	require.Equal(t, 45*time.Second, c.httpClient.Timeout)
	require.Zero(t, c.streamingClient.Timeout)
}
