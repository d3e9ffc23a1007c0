// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"context"
	"errors"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/require"

	"github.com/tutorchat/tui/internal/ai"
	storedchat "github.com/tutorchat/tui/internal/chat"
	"github.com/tutorchat/tui/internal/model"
	"github.com/tutorchat/tui/internal/session"
	"github.com/tutorchat/tui/internal/ui/styles"
)

type nopStreamer struct{}

func (nopStreamer) Stream(ctx context.Context, req ai.Request, handler ai.StreamHandler) {
	handler.OnComplete()
}

func newTestModel() *Model {
	conv := session.NewConversation()
	m := New(styles.NewTheme(""), conv, nopStreamer{}, nil, nil, Options{
		Subject:      "math",
		HistoryLimit: 20,
		RecentLimit:  50,
	})
	m.Update(tea.WindowSizeMsg{Width: 80, Height: 24})
	return m
}

func TestResizeSetsViewport(t *testing.T) {
	m := newTestModel()
	require.Equal(t, 80, m.viewport.Width)
	require.Equal(t, 18, m.viewport.Height)
}

func TestSendFinishedClearsLoading(t *testing.T) {
	m := newTestModel()
	m.loading = true

	m.Update(SendFinishedMsg{})
	require.False(t, m.loading)
	require.Empty(t, m.lastError)

	m.loading = true
	m.Update(SendFinishedMsg{Err: errors.New("stream cut")})
	require.False(t, m.loading)
	require.Equal(t, "stream cut", m.lastError)
}

func TestChatOpenedSwitchesConversation(t *testing.T) {
	m := newTestModel()
	m.listVisible = true

	m.Update(ChatOpenedMsg{
		ChatID: 9,
		Messages: []*model.Message{
			model.NewUserMessage("old question"),
		},
	})

	require.False(t, m.listVisible)
	require.Equal(t, int64(9), m.conv.ChatID())
	require.Equal(t, 1, m.conv.Len())
}

func TestChatDeletedResetsOpenConversation(t *testing.T) {
	m := newTestModel()
	m.conv.SwitchTo(9, []*model.Message{model.NewUserMessage("q")})

	m.Update(ChatDeletedMsg{ChatID: 9})
	require.Equal(t, int64(0), m.conv.ChatID())
	require.Zero(t, m.conv.Len())
}

func TestListNavigation(t *testing.T) {
	m := newTestModel()
	m.Update(ChatsLoadedMsg{Chats: []storedchat.Chat{{ID: 1}, {ID: 2}, {ID: 3}}})
	require.True(t, m.listVisible)

	m.Update(tea.KeyMsg{Type: tea.KeyDown})
	m.Update(tea.KeyMsg{Type: tea.KeyDown})
	require.Equal(t, 2, m.listCursor)

	// Cursor clamps at the last entry.
	m.Update(tea.KeyMsg{Type: tea.KeyDown})
	require.Equal(t, 2, m.listCursor)

	m.Update(tea.KeyMsg{Type: tea.KeyEsc})
	require.False(t, m.listVisible)
}

func TestSessionExpiredResetsState(t *testing.T) {
	m := newTestModel()
	m.authenticated = true
	m.username = "alice"
	m.conv.Append(model.NewUserMessage("q"))

	m.Update(SessionExpiredMsg{})
	require.False(t, m.authenticated)
	require.Zero(t, m.conv.Len())
	require.Contains(t, m.lastError, "Session expired")
}

func TestCompactModeReclaimsHeaderRow(t *testing.T) {
	conv := session.NewConversation()
	m := New(styles.NewTheme("dark"), conv, nopStreamer{}, nil, nil, Options{
		Subject: "math",
		Compact: true,
	})
	m.Update(tea.WindowSizeMsg{Width: 80, Height: 24})

	require.Equal(t, 19, m.viewport.Height)
	require.NotContains(t, m.View(), "tutorchat")
}
