// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package session

import (
	"sync"

	"github.com/tutorchat/tui/internal/ai"
	"github.com/tutorchat/tui/internal/model"
)

// DefaultHistoryLimit is how many trailing messages are sent to the
// completion backend as conversation context.
const DefaultHistoryLimit = 20

// NoChat marks a conversation not yet bound to a stored chat. A chat is
// created lazily on the first authenticated send.
const NoChat int64 = 0

// Conversation is the chat identifier plus its ordered message list. The two
// are owned together and only ever replaced together.
//
// Safe for concurrent use; reads return copies.
type Conversation struct {
	mu       sync.Mutex
	chatID   int64
	messages []*model.Message
}

// NewConversation creates an empty conversation bound to no stored chat.
func NewConversation() *Conversation {
	return &Conversation{chatID: NoChat}
}

// ChatID returns the bound stored chat, or NoChat.
func (c *Conversation) ChatID() int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.chatID
}

// Messages returns a snapshot of the message list.
func (c *Conversation) Messages() []*model.Message {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]*model.Message, len(c.messages))
	copy(out, c.messages)
	return out
}

// Len returns the number of messages.
func (c *Conversation) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.messages)
}

// SwitchTo atomically replaces both the chat binding and the message list.
// Used when the user opens a stored chat.
func (c *Conversation) SwitchTo(chatID int64, messages []*model.Message) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.chatID = chatID
	c.messages = append([]*model.Message(nil), messages...)
}

// Reset clears the conversation back to an unbound empty state. Used for
// "new chat" and on logout.
func (c *Conversation) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.chatID = NoChat
	c.messages = nil
}

// bind attaches the conversation to a stored chat without touching the
// message list. Only the lazy-create path uses it.
func (c *Conversation) bind(chatID int64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.chatID = chatID
}

// Append adds a message to the end of the list.
func (c *Conversation) Append(msg *model.Message) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.messages = append(c.messages, msg)
}

// AppendDelta folds a stream fragment into the trailing message. It is a
// logged no-op when the trailing message is not a streaming assistant
// placeholder, which can only happen after a mid-stream switch.
func (c *Conversation) AppendDelta(delta string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	last := c.trailingPlaceholder()
	if last == nil {
		return
	}
	last.AppendDelta(delta)
}

// FinalizeTrailing marks the trailing assistant placeholder as complete and
// returns its content.
func (c *Conversation) FinalizeTrailing() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	last := c.trailingPlaceholder()
	if last == nil {
		return ""
	}
	last.Finalize()
	return last.Content
}

// FailTrailing finalizes the trailing assistant placeholder after a stream
// failure. An empty placeholder gets notice as its content; partial content
// is preserved untouched.
func (c *Conversation) FailTrailing(notice string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	last := c.trailingPlaceholder()
	if last == nil {
		return
	}
	if last.IsEmpty() {
		last.Content = notice
	}
	last.Finalize()
}

// trailingPlaceholder returns the last message when it is an in-progress
// assistant message, nil otherwise. Callers hold c.mu.
func (c *Conversation) trailingPlaceholder() *model.Message {
	if len(c.messages) == 0 {
		return nil
	}
	last := c.messages[len(c.messages)-1]
	if last.Role != model.RoleAssistant || !last.Streaming {
		return nil
	}
	return last
}

// History returns the trailing limit messages formatted for the completion
// backend, oldest first. A limit of zero uses DefaultHistoryLimit.
func (c *Conversation) History(limit int) []ai.HistoryMessage {
	if limit <= 0 {
		limit = DefaultHistoryLimit
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	start := len(c.messages) - limit
	if start < 0 {
		start = 0
	}
	history := make([]ai.HistoryMessage, 0, len(c.messages)-start)
	for _, msg := range c.messages[start:] {
		history = append(history, ai.HistoryMessage{
			Role:    string(msg.Role),
			Content: msg.Content,
		})
	}
	return history
}
