// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package styles

import (
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
)

// Theme holds all the styled components for the application. It detects the
// terminal's color capability once at startup.
type Theme struct {
	IsDark       bool
	HasTrueColor bool
	ColorProfile termenv.Profile

	Width  int
	Height int

	// Header
	Header      lipgloss.Style
	HeaderBrand lipgloss.Style
	HeaderInfo  lipgloss.Style

	// Message bubbles
	UserLabel      lipgloss.Style
	AssistantLabel lipgloss.Style
	MessageBody    lipgloss.Style
	StreamCursor   lipgloss.Style
	ErrorText      lipgloss.Style

	// Input area
	InputBox    lipgloss.Style
	InputPrompt lipgloss.Style

	// Status bar
	StatusBar    lipgloss.Style
	SignedIn     lipgloss.Style
	SignedOut    lipgloss.Style
	ShortcutKey  lipgloss.Style
	ShortcutDesc lipgloss.Style

	// Chat list
	ListTitle    lipgloss.Style
	ListItem     lipgloss.Style
	ListSelected lipgloss.Style

	Spinner      lipgloss.Style
	ThinkingText lipgloss.Style
}

// NewTheme creates a theme tuned to the current terminal. name forces the
// "dark" or "light" variant of the adaptive palette; anything else falls back
// to background detection.
func NewTheme(name string) *Theme {
	colorProfile := termenv.ColorProfile()

	var isDark bool
	switch name {
	case "dark":
		isDark = true
	case "light":
		isDark = false
	default:
		isDark = termenv.HasDarkBackground()
	}
	lipgloss.SetHasDarkBackground(isDark)

	t := &Theme{
		IsDark:       isDark,
		HasTrueColor: colorProfile == termenv.TrueColor,
		ColorProfile: colorProfile,
	}
	t.initStyles()
	return t
}

func (t *Theme) initStyles() {
	t.Header = lipgloss.NewStyle().
		Background(SurfaceDim).
		Padding(0, 1)
	t.HeaderBrand = lipgloss.NewStyle().
		Foreground(Cyan).
		Bold(true)
	t.HeaderInfo = lipgloss.NewStyle().
		Foreground(TextMuted)

	t.UserLabel = lipgloss.NewStyle().
		Foreground(Cyan).
		Bold(true)
	t.AssistantLabel = lipgloss.NewStyle().
		Foreground(Indigo).
		Bold(true)
	t.MessageBody = lipgloss.NewStyle().
		Foreground(Text)
	t.StreamCursor = lipgloss.NewStyle().
		Foreground(Indigo).
		Blink(true)
	t.ErrorText = lipgloss.NewStyle().
		Foreground(Rose)

	t.InputBox = lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(Border).
		Padding(0, 1)
	t.InputPrompt = lipgloss.NewStyle().
		Foreground(Cyan).
		Bold(true)

	t.StatusBar = lipgloss.NewStyle().
		Background(SurfaceDim).
		Foreground(TextMuted).
		Padding(0, 1)
	t.SignedIn = lipgloss.NewStyle().
		Foreground(Emerald).
		Bold(true)
	t.SignedOut = lipgloss.NewStyle().
		Foreground(Amber)
	t.ShortcutKey = lipgloss.NewStyle().
		Foreground(Cyan)
	t.ShortcutDesc = lipgloss.NewStyle().
		Foreground(TextMuted)

	t.ListTitle = lipgloss.NewStyle().
		Foreground(Text).
		Bold(true)
	t.ListItem = lipgloss.NewStyle().
		Foreground(TextMuted)
	t.ListSelected = lipgloss.NewStyle().
		Foreground(Cyan).
		Bold(true)

	t.Spinner = lipgloss.NewStyle().
		Foreground(Indigo)
	t.ThinkingText = lipgloss.NewStyle().
		Foreground(TextMuted).
		Italic(true)
}

// SetSize records the terminal dimensions for layout decisions.
func (t *Theme) SetSize(width, height int) {
	t.Width = width
	t.Height = height
}
