// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/tutorchat/tui/internal/config"
)

// HandleConfig shows or edits the configuration file.
func (a *App) HandleConfig(args []string) error {
	parser := NewArgParser(args)

	switch parser.Subcommand() {
	case "", "show":
		return a.showConfig()

	case "path":
		path, err := config.ConfigPathTOML()
		if err != nil {
			return err
		}
		fmt.Println(path)
		return nil

	case "set":
		key := parser.Positional(1)
		value := parser.Positional(2)
		if key == "" || value == "" {
			return errors.New("usage: tutorchat config set <key> <value>")
		}
		return a.setConfig(key, value)

	default:
		return fmt.Errorf("unknown config subcommand: %s", parser.Subcommand())
	}
}

func (a *App) showConfig() error {
	cfg := a.Config
	fmt.Println(welcomeStyle.Render("tutorchat configuration"))
	fmt.Println()
	fmt.Printf("  api.auth_base_url        %s\n", cfg.API.AuthBaseURL)
	fmt.Printf("  api.base_url             %s\n", cfg.API.BaseURL)
	fmt.Printf("  api.ai_base_url          %s\n", cfg.API.AIBaseURL)
	fmt.Printf("  api.requests_per_sec     %g\n", cfg.API.RequestsPerSec)
	fmt.Printf("  session.refresh_window   %s\n", cfg.Session.RefreshWindow())
	fmt.Printf("  chat.history_limit       %d\n", cfg.Chat.HistoryLimit)
	fmt.Printf("  chat.default_subject     %s\n", cfg.Chat.DefaultSubject)
	fmt.Printf("  ui.theme                 %s\n", cfg.UI.Theme)
	return nil
}

// setConfig applies one key=value edit and saves atomically.
func (a *App) setConfig(key, value string) error {
	cfg := a.Config

	switch key {
	case "api.auth_base_url":
		cfg.API.AuthBaseURL = value
	case "api.base_url":
		cfg.API.BaseURL = value
	case "api.ai_base_url":
		cfg.API.AIBaseURL = value
	case "chat.default_subject":
		cfg.Chat.DefaultSubject = value
	case "chat.history_limit":
		n, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("invalid integer for %s: %q", key, value)
		}
		cfg.Chat.HistoryLimit = n
	case "ui.theme":
		cfg.UI.Theme = value
	default:
		return fmt.Errorf("unknown config key: %s", key)
	}

	if err := cfg.Validate(); err != nil {
		return err
	}
	if err := config.Save(cfg); err != nil {
		return err
	}
	fmt.Println(successStyle.Render(fmt.Sprintf("Set %s = %s", key, value)))
	return nil
}
