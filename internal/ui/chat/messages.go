// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"github.com/tutorchat/tui/internal/chat"
	"github.com/tutorchat/tui/internal/model"
)

// =============================================================================
// STREAMING MESSAGES
// =============================================================================

// ConversationUpdatedMsg signals that the conversation changed: a message
// was appended or a delta folded into the trailing one. The view re-renders
// from the conversation snapshot.
type ConversationUpdatedMsg struct{}

// SendFinishedMsg signals that the whole send pipeline finished.
type SendFinishedMsg struct {
	Err error
}

// =============================================================================
// CHAT LIST MESSAGES
// =============================================================================

// ChatsLoadedMsg delivers the recent-chats listing.
type ChatsLoadedMsg struct {
	Chats []chat.Chat
	Err   error
}

// ChatOpenedMsg delivers a stored chat's history after the user picked it.
type ChatOpenedMsg struct {
	ChatID   int64
	Messages []*model.Message
	Err      error
}

// ChatDeletedMsg signals that a stored chat was removed.
type ChatDeletedMsg struct {
	ChatID int64
	Err    error
}

// =============================================================================
// SESSION MESSAGES
// =============================================================================

// AuthStateMsg reports an authentication state change.
type AuthStateMsg struct {
	Authenticated bool
	Username      string
}

// SessionExpiredMsg signals that the refresh token expired and the user was
// signed out in the background.
type SessionExpiredMsg struct{}

// ConfigReloadedMsg delivers live configuration changes picked up by the
// file watcher.
type ConfigReloadedMsg struct {
	Subject string
}
