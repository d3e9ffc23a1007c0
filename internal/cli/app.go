// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"fmt"
	"os"

	"github.com/charmbracelet/lipgloss"

	"github.com/tutorchat/tui/internal/ai"
	"github.com/tutorchat/tui/internal/api"
	"github.com/tutorchat/tui/internal/auth"
	"github.com/tutorchat/tui/internal/chat"
	"github.com/tutorchat/tui/internal/config"
	"github.com/tutorchat/tui/internal/tokenstore"
	"github.com/tutorchat/tui/internal/ui/styles"
	"github.com/tutorchat/tui/internal/user"
)

// =============================================================================
// STYLES
// =============================================================================

var (
	promptStyle = lipgloss.NewStyle().
			Foreground(styles.Cyan).
			Bold(true)

	welcomeStyle = lipgloss.NewStyle().
			Foreground(styles.Indigo).
			Bold(true)

	infoStyle = lipgloss.NewStyle().
			Foreground(styles.TextMuted)

	successStyle = lipgloss.NewStyle().
			Foreground(styles.Emerald)

	errorStyle = lipgloss.NewStyle().
			Foreground(styles.Rose)
)

// =============================================================================
// APP WIRING
// =============================================================================

// App bundles the wired services every CLI handler needs.
type App struct {
	Config  *config.Config
	Store   tokenstore.Store
	Session *auth.Manager
	Gateway *api.Client
	Chats   *chat.Service
	Users   *user.Service
	AI      *ai.Client
}

// NewApp loads configuration and wires the full service stack. The token
// store is opened in the configured storage directory; Close must be called
// before exit.
func NewApp() (*App, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	dataDir, err := cfg.DataDir()
	if err != nil {
		return nil, err
	}
	store, err := tokenstore.Open(dataDir)
	if err != nil {
		return nil, fmt.Errorf("failed to open token store: %w", err)
	}

	session := auth.NewManager(store, cfg.API.AuthBaseURL,
		auth.WithRefreshWindow(cfg.Session.RefreshWindow()))
	gateway := api.NewClient(session, cfg.API.BaseURL,
		api.WithRateLimit(cfg.API.RequestsPerSec),
		api.WithTimeout(cfg.API.RequestTimeout()))

	return &App{
		Config:  cfg,
		Store:   store,
		Session: session,
		Gateway: gateway,
		Chats:   chat.NewService(gateway),
		Users:   user.NewService(gateway),
		AI:      ai.NewClient(cfg.API.AIBaseURL, ai.WithTimeout(cfg.API.RequestTimeout())),
	}, nil
}

// Close releases the token store.
func (a *App) Close() {
	if err := a.Store.Close(); err != nil {
		fmt.Fprintf(os.Stderr, "warning: failed to close token store: %v\n", err)
	}
}

// Fail prints an error and exits non-zero.
func Fail(format string, args ...any) {
	fmt.Fprintln(os.Stderr, errorStyle.Render(fmt.Sprintf(format, args...)))
	os.Exit(1)
}
