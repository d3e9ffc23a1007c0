// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"context"
	"sync"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/tutorchat/tui/internal/auth"
	"github.com/tutorchat/tui/internal/chat"
	"github.com/tutorchat/tui/internal/session"
	"github.com/tutorchat/tui/internal/ui/styles"
)

// maxInputLength caps a single prompt.
const maxInputLength = 4000

// Options carries the configurable behavior of the conversation view.
type Options struct {
	// Subject is sent with every prompt.
	Subject string
	// HistoryLimit caps how many prior messages accompany a prompt.
	HistoryLimit int
	// RecentLimit caps the chat list fetch.
	RecentLimit int
	// Compact drops the header row and tightens message spacing.
	Compact bool
}

// Model is the Bubble Tea model for the conversation view.
type Model struct {
	theme  *styles.Theme
	width  int
	height int

	conv        *session.Conversation
	sender      *session.Sender
	chats       *chat.Service
	auth        *auth.Manager
	subject     string
	recentLimit int
	compact     bool

	viewport viewport.Model
	input    textinput.Model
	spinner  spinner.Model
	keyMap   KeyMap

	loading       bool
	authenticated bool
	username      string
	lastError     string

	// Chat list overlay
	listVisible bool
	listChats   []chat.Chat
	listCursor  int

	// program delivers messages from network goroutines into the event
	// loop. Set once before the program starts.
	programMu sync.Mutex
	program   *tea.Program
}

// New creates the conversation view. chats may be nil in unauthenticated
// mode; the chat list and persistence are disabled then.
func New(theme *styles.Theme, conv *session.Conversation, streamer session.Streamer, chats *chat.Service, authMgr *auth.Manager, opts Options) *Model {
	input := textinput.New()
	input.Placeholder = "Ask your tutor anything..."
	input.CharLimit = maxInputLength
	input.Focus()

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = theme.Spinner

	m := &Model{
		theme:       theme,
		conv:        conv,
		chats:       chats,
		auth:        authMgr,
		subject:     opts.Subject,
		recentLimit: opts.RecentLimit,
		compact:     opts.Compact,
		input:       input,
		spinner:     sp,
		keyMap:      DefaultKeyMap(),
	}
	if authMgr != nil {
		m.authenticated = authMgr.IsAuthenticated()
		m.username = authMgr.Username()
	}

	var store session.ChatStore
	if chats != nil {
		store = chats
	}
	m.sender = session.NewSender(conv, streamer, store, opts.HistoryLimit, session.Events{
		OnUpdate: func() { m.send(ConversationUpdatedMsg{}) },
	})
	return m
}

// SetProgram wires the running Bubble Tea program so background goroutines
// can deliver messages into the event loop.
func (m *Model) SetProgram(p *tea.Program) {
	m.programMu.Lock()
	defer m.programMu.Unlock()
	m.program = p
}

// send pushes a message into the event loop. Dropped silently before the
// program starts, which only happens in tests.
func (m *Model) send(msg tea.Msg) {
	m.programMu.Lock()
	p := m.program
	m.programMu.Unlock()
	if p != nil {
		p.Send(msg)
	}
}

// Init implements tea.Model.
func (m *Model) Init() tea.Cmd {
	return tea.Batch(textinput.Blink, m.spinner.Tick)
}

// submit launches the send pipeline for the current input.
func (m *Model) submit(prompt string) {
	m.loading = true
	m.lastError = ""
	authenticated := m.authenticated
	go func() {
		err := m.sender.Send(context.Background(), prompt, m.subject, authenticated)
		m.send(SendFinishedMsg{Err: err})
	}()
}

// loadChats fetches the recent chat listing in the background.
func (m *Model) loadChats() {
	go func() {
		chats, err := m.chats.Recent(context.Background(), m.recentLimit)
		m.send(ChatsLoadedMsg{Chats: chats, Err: err})
	}()
}

// openChat fetches a stored chat's messages and switches to it.
func (m *Model) openChat(chatID int64) {
	go func() {
		stored, err := m.chats.Messages(context.Background(), chatID)
		msg := ChatOpenedMsg{ChatID: chatID, Err: err}
		for _, sm := range stored {
			mm := sm.ToModel()
			msg.Messages = append(msg.Messages, &mm)
		}
		m.send(msg)
	}()
}

// deleteChat removes the currently open stored chat.
func (m *Model) deleteChat(chatID int64) {
	go func() {
		err := m.chats.Delete(context.Background(), chatID)
		m.send(ChatDeletedMsg{ChatID: chatID, Err: err})
	}()
}
