// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"context"
	"fmt"
	"time"

	"github.com/tutorchat/tui/internal/api"
	"github.com/tutorchat/tui/internal/model"
)

// DefaultRecentLimit is how many chats a recent-chats listing asks for.
const DefaultRecentLimit = 100

// Chat is one stored conversation.
type Chat struct {
	ID        int64     `json:"id"`
	Subject   string    `json:"subject"`
	Title     string    `json:"title"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// StoredMessage is one persisted chat message as the backend returns it.
type StoredMessage struct {
	ID        int64     `json:"id"`
	Role      string    `json:"role"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"createdAt"`
}

// ToModel converts a persisted message to the in-memory representation.
func (sm *StoredMessage) ToModel() model.Message {
	msg := model.Message{
		Role:      model.Role(sm.Role),
		Content:   sm.Content,
		Timestamp: sm.CreatedAt,
	}
	return msg
}

// Service provides chat persistence operations over the gateway.
type Service struct {
	client *api.Client
}

// NewService creates a chat service using the authenticated gateway.
func NewService(client *api.Client) *Service {
	return &Service{client: client}
}

// Recent returns the user's most recently updated chats, newest first.
// A limit of zero uses DefaultRecentLimit.
func (s *Service) Recent(ctx context.Context, limit int) ([]Chat, error) {
	if limit <= 0 {
		limit = DefaultRecentLimit
	}
	var chats []Chat
	if err := s.client.GetJSON(ctx, fmt.Sprintf("/chats/recent?limit=%d", limit), &chats); err != nil {
		return nil, fmt.Errorf("failed to list recent chats: %w", err)
	}
	return chats, nil
}

// Create creates a new chat and returns it.
func (s *Service) Create(ctx context.Context, title, subject string) (*Chat, error) {
	var chat Chat
	body := map[string]string{"title": title, "subject": subject}
	if err := s.client.PostJSON(ctx, "/chats", body, &chat); err != nil {
		return nil, fmt.Errorf("failed to create chat: %w", err)
	}
	return &chat, nil
}

// Messages returns every message of a chat in chronological order.
func (s *Service) Messages(ctx context.Context, chatID int64) ([]StoredMessage, error) {
	var messages []StoredMessage
	if err := s.client.GetJSON(ctx, fmt.Sprintf("/chats/%d/messages", chatID), &messages); err != nil {
		return nil, fmt.Errorf("failed to fetch messages for chat %d: %w", chatID, err)
	}
	return messages, nil
}

// AddMessage persists one message to a chat.
func (s *Service) AddMessage(ctx context.Context, chatID int64, role model.Role, content string) error {
	body := map[string]string{
		"role":    string(role),
		"content": content,
	}
	if err := s.client.PostJSON(ctx, fmt.Sprintf("/chats/%d/messages", chatID), body, nil); err != nil {
		return fmt.Errorf("failed to save message to chat %d: %w", chatID, err)
	}
	return nil
}

// Rename sets a chat's title.
func (s *Service) Rename(ctx context.Context, chatID int64, title string) error {
	body := map[string]string{"newTitle": title}
	if err := s.client.PutJSON(ctx, fmt.Sprintf("/chats/%d/title", chatID), body, nil); err != nil {
		return fmt.Errorf("failed to rename chat %d: %w", chatID, err)
	}
	return nil
}

// Delete removes one chat and its messages.
func (s *Service) Delete(ctx context.Context, chatID int64) error {
	if err := s.client.Delete(ctx, fmt.Sprintf("/chats/%d", chatID)); err != nil {
		return fmt.Errorf("failed to delete chat %d: %w", chatID, err)
	}
	return nil
}

// DeleteAll removes every chat belonging to the current user.
func (s *Service) DeleteAll(ctx context.Context) error {
	if err := s.client.Delete(ctx, "/chats/all"); err != nil {
		return fmt.Errorf("failed to delete all chats: %w", err)
	}
	return nil
}
