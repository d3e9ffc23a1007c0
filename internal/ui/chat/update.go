// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
)

// Update implements tea.Model.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		return m.handleResize(msg)

	case tea.KeyMsg:
		return m.handleKey(msg)

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case ConversationUpdatedMsg:
		m.refreshViewport()
		return m, nil

	case SendFinishedMsg:
		m.loading = false
		if msg.Err != nil {
			m.lastError = msg.Err.Error()
		}
		m.refreshViewport()
		return m, nil

	case ChatsLoadedMsg:
		if msg.Err != nil {
			m.lastError = msg.Err.Error()
			return m, nil
		}
		m.listChats = msg.Chats
		m.listCursor = 0
		m.listVisible = true
		return m, nil

	case ChatOpenedMsg:
		if msg.Err != nil {
			m.lastError = msg.Err.Error()
			return m, nil
		}
		m.conv.SwitchTo(msg.ChatID, msg.Messages)
		m.listVisible = false
		m.refreshViewport()
		return m, nil

	case ChatDeletedMsg:
		if msg.Err != nil {
			m.lastError = msg.Err.Error()
			return m, nil
		}
		if m.conv.ChatID() == msg.ChatID {
			m.conv.Reset()
		}
		m.refreshViewport()
		return m, nil

	case AuthStateMsg:
		m.authenticated = msg.Authenticated
		m.username = msg.Username
		if !msg.Authenticated {
			m.conv.Reset()
			m.refreshViewport()
		}
		return m, nil

	case ConfigReloadedMsg:
		if msg.Subject != "" {
			m.subject = msg.Subject
		}
		return m, nil

	case SessionExpiredMsg:
		m.authenticated = false
		m.username = ""
		m.lastError = "Session expired. Please sign in again."
		m.conv.Reset()
		m.refreshViewport()
		return m, nil
	}

	return m, nil
}

func (m *Model) handleResize(msg tea.WindowSizeMsg) (tea.Model, tea.Cmd) {
	m.width = msg.Width
	m.height = msg.Height
	m.theme.SetSize(msg.Width, msg.Height)

	// Header, status bar, and the bordered input consume fixed rows; compact
	// mode reclaims the header row.
	fixedRows := 6
	if m.compact {
		fixedRows = 5
	}
	viewportHeight := msg.Height - fixedRows
	if viewportHeight < 3 {
		viewportHeight = 3
	}
	if m.viewport.Width == 0 {
		m.viewport = newViewport(msg.Width, viewportHeight)
	} else {
		m.viewport.Width = msg.Width
		m.viewport.Height = viewportHeight
	}
	m.input.Width = msg.Width - 8
	m.refreshViewport()
	return m, nil
}

func (m *Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if key.Matches(msg, m.keyMap.Quit) {
		return m, tea.Quit
	}

	if m.listVisible {
		return m.handleListKey(msg)
	}

	switch {
	case key.Matches(msg, m.keyMap.Submit):
		prompt := strings.TrimSpace(m.input.Value())
		if prompt == "" || m.loading {
			return m, nil
		}
		m.input.Reset()
		m.submit(prompt)
		return m, nil

	case key.Matches(msg, m.keyMap.NewChat):
		if !m.loading {
			m.conv.Reset()
			m.lastError = ""
			m.refreshViewport()
		}
		return m, nil

	case key.Matches(msg, m.keyMap.ChatList):
		if m.chats != nil && m.authenticated {
			m.loadChats()
		}
		return m, nil

	case key.Matches(msg, m.keyMap.Delete):
		if m.chats != nil && m.authenticated && m.conv.ChatID() != 0 && !m.loading {
			m.deleteChat(m.conv.ChatID())
		}
		return m, nil

	case key.Matches(msg, m.keyMap.Up):
		m.viewport.LineUp(1)
		return m, nil
	case key.Matches(msg, m.keyMap.Down):
		m.viewport.LineDown(1)
		return m, nil
	case key.Matches(msg, m.keyMap.PageUp):
		m.viewport.HalfViewUp()
		return m, nil
	case key.Matches(msg, m.keyMap.PageDown):
		m.viewport.HalfViewDown()
		return m, nil
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m *Model) handleListKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keyMap.Cancel):
		m.listVisible = false
	case key.Matches(msg, m.keyMap.Up):
		if m.listCursor > 0 {
			m.listCursor--
		}
	case key.Matches(msg, m.keyMap.Down):
		if m.listCursor < len(m.listChats)-1 {
			m.listCursor++
		}
	case key.Matches(msg, m.keyMap.Submit):
		if m.listCursor < len(m.listChats) {
			m.openChat(m.listChats[m.listCursor].ID)
		}
	}
	return m, nil
}
