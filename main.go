// tutorchat - a terminal client for the tutoring chat service.
//
// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later
package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/tutorchat/tui/internal/cli"
	"github.com/tutorchat/tui/internal/config"
	"github.com/tutorchat/tui/internal/session"
	uichat "github.com/tutorchat/tui/internal/ui/chat"
	"github.com/tutorchat/tui/internal/ui/styles"
)

// Version information (set at build time)
var (
	Version   = "0.1.0"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

func init() {
	cli.Version = Version
	cli.GitCommit = GitCommit
	cli.BuildDate = BuildDate
}

func main() {
	cmd, args := cli.Parse()

	switch cmd {
	case cli.CmdTUI:
		runTUI()
	case cli.CmdHelp:
		cli.PrintUsage()
	case cli.CmdVersion:
		cli.PrintVersion()
	default:
		runCommand(cmd, args)
	}
}

// runCommand wires the service stack and dispatches one CLI command.
func runCommand(cmd cli.Command, args []string) {
	app, err := cli.NewApp()
	if err != nil {
		cli.Fail("%v", err)
	}
	defer app.Close()

	switch cmd {
	case cli.CmdAsk:
		err = app.HandleAsk(args)
	case cli.CmdChat:
		err = app.HandleChat(args)
	case cli.CmdLogin:
		err = app.HandleLogin(args)
	case cli.CmdSignup:
		err = app.HandleSignup(args)
	case cli.CmdLogout:
		err = app.HandleLogout(args)
	case cli.CmdStatus:
		err = app.HandleStatus(args)
	case cli.CmdChats:
		err = app.HandleChats(args)
	case cli.CmdConfig:
		err = app.HandleConfig(args)
	}
	if err != nil {
		cli.Fail("%v", err)
	}
}

// runTUI starts the full-screen interface.
func runTUI() {
	app, err := cli.NewApp()
	if err != nil {
		cli.Fail("%v", err)
	}
	defer app.Close()

	// TUI owns the terminal; route logs to a file instead of stderr.
	if dataDir, err := app.Config.DataDir(); err == nil {
		if f, err := os.OpenFile(filepath.Join(dataDir, "tutorchat.log"), os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0600); err == nil {
			log.SetOutput(f)
			defer f.Close()
		}
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	authenticated := app.Session.Bootstrap(ctx)
	if authenticated {
		app.Session.StartMaintenance(ctx,
			app.Config.Session.AutoRefreshInterval(),
			app.Config.Session.ExpiryCheckInterval())
	}

	theme := styles.NewTheme(app.Config.UI.Theme)
	conv := session.NewConversation()
	m := uichat.New(theme, conv, app.AI, app.Chats, app.Session, uichat.Options{
		Subject:      app.Config.Chat.DefaultSubject,
		HistoryLimit: app.Config.Chat.HistoryLimit,
		RecentLimit:  app.Config.Chat.RecentChatsLimit,
		Compact:      app.Config.UI.CompactMode,
	})

	p := tea.NewProgram(m, tea.WithAltScreen())
	m.SetProgram(p)

	app.Session.SetStateListener(func(authenticated bool, username string) {
		p.Send(uichat.AuthStateMsg{Authenticated: authenticated, Username: username})
	})
	app.Session.SetSessionExpiredListener(func() {
		p.Send(uichat.SessionExpiredMsg{})
	})

	// Live-reload config edits while the TUI runs.
	if path, err := config.ConfigPathTOML(); err == nil {
		watcher, werr := config.NewWatcher(path, func(cfg *config.Config) {
			p.Send(uichat.ConfigReloadedMsg{Subject: cfg.Chat.DefaultSubject})
		})
		if werr == nil {
			defer watcher.Close()
		} else {
			log.Printf("config watcher unavailable: %v", werr)
		}
	}

	if _, err := p.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
