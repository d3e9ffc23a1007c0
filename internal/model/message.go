// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package model

import (
	"time"

	"github.com/google/uuid"

	"github.com/tutorchat/tui/internal/util"
)

// =============================================================================
// ROLE TYPE
// =============================================================================

// Role represents the sender of a message.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// String returns the string representation of the role.
func (r Role) String() string {
	return string(r)
}

// DisplayName returns a human-readable name for the role.
func (r Role) DisplayName() string {
	switch r {
	case RoleUser:
		return "You"
	case RoleAssistant:
		return "Assistant"
	default:
		return string(r)
	}
}

// =============================================================================
// MESSAGE TYPE
// =============================================================================

// Message represents a single message in a conversation transcript.
type Message struct {
	// Identity
	ID        string    `json:"id"`
	Role      Role      `json:"role"`
	Timestamp time.Time `json:"timestamp"`

	// Content
	Content string `json:"content"`

	// Streaming is true while deltas are still being appended.
	// Not persisted; only the trailing assistant message may carry it.
	Streaming bool `json:"-"`
}

// NewUserMessage creates a new user message.
func NewUserMessage(content string) *Message {
	return &Message{
		ID:        uuid.NewString(),
		Role:      RoleUser,
		Content:   content,
		Timestamp: time.Now(),
	}
}

// NewAssistantMessage creates an empty assistant message that acts as the
// placeholder a completion stream folds its deltas into.
func NewAssistantMessage() *Message {
	return &Message{
		ID:        uuid.NewString(),
		Role:      RoleAssistant,
		Timestamp: time.Now(),
		Streaming: true,
	}
}

// AppendDelta appends a streamed content fragment. Deltas can split words and
// even UTF-8 sequences between frames, so they are concatenated exactly as
// received.
func (m *Message) AppendDelta(delta string) {
	m.Content += delta
}

// Finalize marks the end of streaming for this message.
func (m *Message) Finalize() {
	m.Streaming = false
}

// IsEmpty returns true if the message has no content yet.
func (m *Message) IsEmpty() bool {
	return m.Content == ""
}

// Preview returns the first maxRunes characters of the content with newlines
// collapsed, for sidebar and title display.
func (m *Message) Preview(maxRunes int) string {
	return util.TruncateRunes(util.OneLine(m.Content), maxRunes)
}
