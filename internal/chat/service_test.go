// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

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
	"github.com/tutorchat/tui/internal/model"
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

func TestRecent(t *testing.T) {
	svc := newTestService(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/chats/recent", r.URL.Path)
		require.Equal(t, "25", r.URL.Query().Get("limit"))
		json.NewEncoder(w).Encode([]Chat{
			{ID: 2, Subject: "math", Title: "Derivatives"},
			{ID: 1, Subject: "math", Title: "Limits"},
		})
	})

	chats, err := svc.Recent(context.Background(), 25)
	require.NoError(t, err)
	require.Len(t, chats, 2)
	require.Equal(t, int64(2), chats[0].ID)
}

func TestRecentDefaultLimit(t *testing.T) {
	svc := newTestService(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "100", r.URL.Query().Get("limit"))
		json.NewEncoder(w).Encode([]Chat{})
	})

	_, err := svc.Recent(context.Background(), 0)
	require.NoError(t, err)
}

func TestCreate(t *testing.T) {
	svc := newTestService(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/chats", r.URL.Path)

		var body map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		require.Equal(t, "New Chat", body["title"])
		require.Equal(t, "physics", body["subject"])

		json.NewEncoder(w).Encode(Chat{ID: 7, Subject: "physics"})
	})

	chat, err := svc.Create(context.Background(), "New Chat", "physics")
	require.NoError(t, err)
	require.Equal(t, int64(7), chat.ID)
}

func TestMessagesAndAddMessage(t *testing.T) {
	svc := newTestService(t, func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.Method == http.MethodGet && r.URL.Path == "/chats/7/messages":
			json.NewEncoder(w).Encode([]StoredMessage{
				{ID: 1, Role: "user", Content: "hi"},
				{ID: 2, Role: "assistant", Content: "hello"},
			})
		case r.Method == http.MethodPost && r.URL.Path == "/chats/7/messages":
			var body map[string]string
			require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
			require.Equal(t, "user", body["role"])
			require.Equal(t, "what is a limit?", body["content"])
			w.WriteHeader(http.StatusCreated)
		default:
			t.Errorf("unexpected %s %s", r.Method, r.URL.Path)
		}
	})

	msgs, err := svc.Messages(context.Background(), 7)
	require.NoError(t, err)
	require.Len(t, msgs, 2)
	require.Equal(t, model.RoleAssistant, msgs[1].ToModel().Role)

	require.NoError(t, svc.AddMessage(context.Background(), 7, model.RoleUser, "what is a limit?"))
}

func TestRenameDeleteDeleteAll(t *testing.T) {
	var gotRename, gotDelete, gotDeleteAll bool
	svc := newTestService(t, func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.Method == http.MethodPut && r.URL.Path == "/chats/7/title":
			var body map[string]string
			require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
			require.Equal(t, "New title", body["newTitle"])
			gotRename = true
		case r.Method == http.MethodDelete && r.URL.Path == "/chats/7":
			gotDelete = true
			w.WriteHeader(http.StatusNoContent)
		case r.Method == http.MethodDelete && r.URL.Path == "/chats/all":
			gotDeleteAll = true
			w.WriteHeader(http.StatusNoContent)
		default:
			t.Errorf("unexpected %s %s", r.Method, r.URL.Path)
		}
	})

	ctx := context.Background()
	require.NoError(t, svc.Rename(ctx, 7, "New title"))
	require.NoError(t, svc.Delete(ctx, 7))
	require.NoError(t, svc.DeleteAll(ctx))
	require.True(t, gotRename)
	require.True(t, gotDelete)
	require.True(t, gotDeleteAll)
}

func TestDeleteNotFound(t *testing.T) {
	svc := newTestService(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusNotFound)
		json.NewEncoder(w).Encode(map[string]string{"message": "chat not found"})
	})

	err := svc.Delete(context.Background(), 99)
	var se *api.StatusError
	require.ErrorAs(t, err, &se)
	require.True(t, se.IsNotFound())
}
