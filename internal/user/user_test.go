// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package user

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/tutorchat/tui/internal/api"
	"github.com/tutorchat/tui/internal/auth"
	"github.com/tutorchat/tui/internal/tokenstore"
)

func newTestService(t *testing.T, handler http.HandlerFunc) *Service {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	store := tokenstore.NewMemoryStore()
	now := time.Now()
	require.NoError(t, store.SetAll(map[string]string{
		tokenstore.KeyAccessToken:   "access-1",
		tokenstore.KeyAccessExpiry:  strconv.FormatInt(now.Add(time.Hour).UnixMilli(), 10),
		tokenstore.KeyRefreshToken:  "refresh-1",
		tokenstore.KeyRefreshExpiry: strconv.FormatInt(now.Add(24*time.Hour).UnixMilli(), 10),
		tokenstore.KeyUsername:      "alice",
	}))
	session := auth.NewManager(store, "http://127.0.0.1:1")
	return NewService(api.NewClient(session, srv.URL))
}

func TestCurrent(t *testing.T) {
	svc := newTestService(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodGet, r.Method)
		require.Equal(t, "/users/me", r.URL.Path)
		require.Equal(t, "Bearer access-1", r.Header.Get("Authorization"))
		json.NewEncoder(w).Encode(Profile{Username: "alice", Email: "alice@example.com"})
	})

	p, err := svc.Current(context.Background())
	require.NoError(t, err)
	require.Equal(t, "alice", p.Username)
}

func TestUpdateSendsOnlySetFields(t *testing.T) {
	svc := newTestService(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPut, r.Method)
		require.Equal(t, "/users/me", r.URL.Path)

		var body map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		require.Equal(t, "Alice B", body["displayName"])
		require.NotContains(t, body, "email")

		json.NewEncoder(w).Encode(Profile{Username: "alice", DisplayName: "Alice B"})
	})

	name := "Alice B"
	p, err := svc.Update(context.Background(), ProfileUpdate{DisplayName: &name})
	require.NoError(t, err)
	require.Equal(t, "Alice B", p.DisplayName)
}
