// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/viewport"
	"github.com/charmbracelet/lipgloss"

	"github.com/tutorchat/tui/internal/model"
	"github.com/tutorchat/tui/internal/util"
)

// newViewport creates the transcript viewport.
func newViewport(width, height int) viewport.Model {
	vp := viewport.New(width, height)
	return vp
}

// View implements tea.Model.
func (m *Model) View() string {
	if m.width == 0 {
		return "loading..."
	}
	if m.listVisible {
		return m.viewChatList()
	}

	var b strings.Builder
	if !m.compact {
		b.WriteString(m.viewHeader())
		b.WriteString("\n")
	}
	b.WriteString(m.viewport.View())
	b.WriteString("\n")
	b.WriteString(m.viewInput())
	b.WriteString("\n")
	b.WriteString(m.viewStatusBar())
	return b.String()
}

func (m *Model) viewHeader() string {
	brand := m.theme.HeaderBrand.Render("tutorchat")
	info := m.theme.HeaderInfo.Render("subject: " + m.subject)
	gap := m.width - lipgloss.Width(brand) - lipgloss.Width(info) - 2
	if gap < 1 {
		gap = 1
	}
	return m.theme.Header.Width(m.width).Render(brand + strings.Repeat(" ", gap) + info)
}

func (m *Model) viewInput() string {
	prompt := m.theme.InputPrompt.Render("> ")
	return m.theme.InputBox.Width(m.width - 2).Render(prompt + m.input.View())
}

func (m *Model) viewStatusBar() string {
	var left string
	if m.authenticated {
		left = m.theme.SignedIn.Render("● " + m.username)
	} else {
		left = m.theme.SignedOut.Render("○ signed out")
	}
	if m.loading {
		left += "  " + m.spinner.View() + m.theme.ThinkingText.Render(" thinking")
	}
	if m.lastError != "" {
		left += "  " + m.theme.ErrorText.Render(util.TruncateWidth(m.lastError, m.width/2))
	}

	right := m.theme.ShortcutKey.Render("C-n") + m.theme.ShortcutDesc.Render(" new  ") +
		m.theme.ShortcutKey.Render("C-l") + m.theme.ShortcutDesc.Render(" chats  ") +
		m.theme.ShortcutKey.Render("C-c") + m.theme.ShortcutDesc.Render(" quit")

	gap := m.width - lipgloss.Width(left) - lipgloss.Width(right) - 2
	if gap < 1 {
		gap = 1
	}
	return m.theme.StatusBar.Width(m.width).Render(left + strings.Repeat(" ", gap) + right)
}

func (m *Model) viewChatList() string {
	var b strings.Builder
	b.WriteString(m.theme.ListTitle.Render("Your chats"))
	b.WriteString("\n\n")
	if len(m.listChats) == 0 {
		b.WriteString(m.theme.ListItem.Render("No saved chats yet."))
	}
	for i, c := range m.listChats {
		title := c.Title
		if title == "" {
			title = fmt.Sprintf("chat %d", c.ID)
		}
		line := fmt.Sprintf("%s  (%s)", util.TruncateWidth(title, m.width-20), c.Subject)
		if i == m.listCursor {
			b.WriteString(m.theme.ListSelected.Render("> " + line))
		} else {
			b.WriteString(m.theme.ListItem.Render("  " + line))
		}
		b.WriteString("\n")
	}
	b.WriteString("\n")
	b.WriteString(m.theme.ShortcutDesc.Render("Enter open · Esc close"))
	return b.String()
}

// refreshViewport re-renders the transcript and keeps it pinned to the
// bottom so streamed deltas stay in view.
func (m *Model) refreshViewport() {
	if m.viewport.Width == 0 {
		return
	}
	m.viewport.SetContent(m.renderTranscript())
	m.viewport.GotoBottom()
}

func (m *Model) renderTranscript() string {
	msgs := m.conv.Messages()
	if len(msgs) == 0 {
		return m.theme.ThinkingText.Render("Ask a question to start the conversation.")
	}

	width := m.viewport.Width - 2
	sep := "\n\n"
	if m.compact {
		sep = "\n"
	}
	var b strings.Builder
	for i, msg := range msgs {
		if i > 0 {
			b.WriteString(sep)
		}
		b.WriteString(m.renderMessage(msg, width))
	}
	return b.String()
}

func (m *Model) renderMessage(msg *model.Message, width int) string {
	var label string
	switch msg.Role {
	case model.RoleUser:
		label = m.theme.UserLabel.Render(msg.Role.DisplayName())
	default:
		label = m.theme.AssistantLabel.Render(msg.Role.DisplayName())
	}

	body := msg.Content
	if msg.Streaming {
		body += m.theme.StreamCursor.Render("▍")
	}
	rendered := m.theme.MessageBody.Width(width).Render(body)
	return label + "\n" + rendered
}
