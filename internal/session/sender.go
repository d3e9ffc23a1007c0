// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package session

import (
	"context"
	"errors"
	"log"
	"sync/atomic"

	"github.com/tutorchat/tui/internal/ai"
	"github.com/tutorchat/tui/internal/chat"
	"github.com/tutorchat/tui/internal/model"
)

// FailureNotice replaces an assistant placeholder that received no content
// before its stream failed. Partial answers are kept instead.
const FailureNotice = "Sorry, there was an error processing your request."

// DefaultChatTitle names a lazily created chat until the user renames it.
const DefaultChatTitle = "New Chat"

// ErrSendInFlight is returned when a send starts while another is running.
var ErrSendInFlight = errors.New("a message is already being sent")

// Streamer is the completion backend surface the sender needs.
type Streamer interface {
	Stream(ctx context.Context, req ai.Request, handler ai.StreamHandler)
}

// ChatStore is the persistence surface the sender needs. Nil-able via the
// store field: an unauthenticated session sends without persistence.
type ChatStore interface {
	Create(ctx context.Context, title, subject string) (*chat.Chat, error)
	AddMessage(ctx context.Context, chatID int64, role model.Role, content string) error
}

// Events let the UI react to sender progress. All fields are optional.
type Events struct {
	// OnUpdate fires after every state change: messages appended, deltas
	// folded, loading flag flipped.
	OnUpdate func()

	// OnDelta fires for every stream fragment, after it has been folded
	// into the conversation. Plain-terminal surfaces echo it directly.
	OnDelta func(delta string)

	// OnChatCreated fires when a chat was lazily created for this
	// conversation, so chat listings can refresh.
	OnChatCreated func(created *chat.Chat)
}

// Sender runs the send pipeline against one Conversation.
type Sender struct {
	conv     *Conversation
	streamer Streamer
	store    ChatStore
	events   Events

	historyLimit int
	inFlight     atomic.Bool
}

// NewSender creates a sender. store may be nil for unauthenticated use.
// historyLimit of zero uses DefaultHistoryLimit.
func NewSender(conv *Conversation, streamer Streamer, store ChatStore, historyLimit int, events Events) *Sender {
	if historyLimit <= 0 {
		historyLimit = DefaultHistoryLimit
	}
	return &Sender{
		conv:         conv,
		streamer:     streamer,
		store:        store,
		events:       events,
		historyLimit: historyLimit,
	}
}

// Loading reports whether a send is in flight.
func (s *Sender) Loading() bool {
	return s.inFlight.Load()
}

// Send runs the full pipeline for one prompt: optimistic user message, lazy
// chat creation, persistence, streaming into an assistant placeholder, and
// final persistence of the answer. It blocks until the stream finishes.
//
// The user message is never rolled back; whatever the user typed stays
// visible even when every later step fails. Persistence failures are logged
// and do not interrupt the stream.
func (s *Sender) Send(ctx context.Context, prompt, subject string, authenticated bool) error {
	if !s.inFlight.CompareAndSwap(false, true) {
		return ErrSendInFlight
	}
	defer func() {
		s.inFlight.Store(false)
		s.notify()
	}()

	// Context sent to the model excludes the prompt itself; the prompt
	// travels in its own field.
	history := s.conv.History(s.historyLimit)

	s.conv.Append(model.NewUserMessage(prompt))
	s.notify()

	chatID := s.conv.ChatID()
	if authenticated && s.store != nil {
		if chatID == NoChat {
			created, err := s.store.Create(ctx, DefaultChatTitle, subject)
			if err != nil {
				log.Printf("failed to create chat: %v", err)
			} else {
				chatID = created.ID
				s.conv.bind(chatID)
				if s.events.OnChatCreated != nil {
					s.events.OnChatCreated(created)
				}
			}
		}
		if chatID != NoChat {
			if err := s.store.AddMessage(ctx, chatID, model.RoleUser, prompt); err != nil {
				log.Printf("failed to save user message: %v", err)
			}
		}
	}

	s.conv.Append(model.NewAssistantMessage())
	s.notify()

	var streamErr error
	s.streamer.Stream(ctx, ai.Request{
		Message:             prompt,
		Subject:             subject,
		ConversationHistory: history,
	}, ai.StreamHandler{
		OnDelta: func(delta string) {
			s.conv.AppendDelta(delta)
			if s.events.OnDelta != nil {
				s.events.OnDelta(delta)
			}
			s.notify()
		},
		OnComplete: func() {
			answer := s.conv.FinalizeTrailing()
			if authenticated && s.store != nil && chatID != NoChat {
				if err := s.store.AddMessage(ctx, chatID, model.RoleAssistant, answer); err != nil {
					log.Printf("failed to save assistant message: %v", err)
				}
			}
		},
		OnError: func(err error) {
			streamErr = err
			log.Printf("streaming failed: %v", err)
			s.conv.FailTrailing(FailureNotice)
		},
	})

	return streamErr
}

func (s *Sender) notify() {
	if s.events.OnUpdate != nil {
		s.events.OnUpdate()
	}
}
