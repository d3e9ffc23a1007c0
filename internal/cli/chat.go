// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/peterh/liner"

	"github.com/tutorchat/tui/internal/config"
	"github.com/tutorchat/tui/internal/session"
)

// =============================================================================
// INPUT HISTORY
// =============================================================================

// replInput provides input history and line editing for the interactive
// chat. Arrow keys navigate history; history persists across runs.
type replInput struct {
	line        *liner.State
	historyFile string
}

func newReplInput() *replInput {
	line := liner.NewLiner()
	line.SetCtrlCAborts(true)

	configDir, err := config.ConfigDir()
	if err != nil {
		configDir = os.TempDir()
	}
	r := &replInput{
		line:        line,
		historyFile: filepath.Join(configDir, "chat_history"),
	}
	if f, err := os.Open(r.historyFile); err == nil {
		r.line.ReadHistory(f)
		f.Close()
	}
	return r
}

func (r *replInput) read(prompt string) (string, error) {
	input, err := r.line.Prompt(prompt)
	if err != nil {
		return "", err
	}
	if strings.TrimSpace(input) != "" {
		r.line.AppendHistory(input)
	}
	return input, nil
}

// close saves history with owner-only permissions and releases the terminal.
func (r *replInput) close() {
	if f, err := os.OpenFile(r.historyFile, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600); err == nil {
		r.line.WriteHistory(f)
		f.Close()
	}
	r.line.Close()
}

// =============================================================================
// INTERACTIVE CHAT
// =============================================================================

// HandleChat runs the plain interactive chat loop. Authenticated sessions
// persist the conversation through the chat backend; anonymous sessions just
// stream.
func (a *App) HandleChat(args []string) error {
	parser := NewArgParser(args)
	subject := parser.Flag("subject", "s")
	if subject == "" {
		subject = a.Config.Chat.DefaultSubject
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	authenticated := a.Session.Bootstrap(ctx)
	if authenticated {
		a.Session.StartMaintenance(ctx,
			a.Config.Session.AutoRefreshInterval(),
			a.Config.Session.ExpiryCheckInterval())
	}

	fmt.Println(welcomeStyle.Render("tutorchat"))
	if authenticated {
		fmt.Println(infoStyle.Render(fmt.Sprintf("Signed in as %s · subject: %s", a.Session.Username(), subject)))
	} else {
		fmt.Println(infoStyle.Render("Anonymous session (run `tutorchat login` to save chats) · subject: " + subject))
	}
	fmt.Println(infoStyle.Render("Type /help for commands, /quit to exit."))
	fmt.Println()

	conv := session.NewConversation()
	var store session.ChatStore
	if authenticated {
		store = a.Chats
	}
	sender := session.NewSender(conv, a.AI, store, a.Config.Chat.HistoryLimit, session.Events{
		OnDelta: func(delta string) { fmt.Print(delta) },
	})

	input := newReplInput()
	defer input.close()

	for {
		prompt, err := input.read(promptStyle.Render("you> "))
		if err != nil {
			if errors.Is(err, liner.ErrPromptAborted) {
				fmt.Println()
				return nil
			}
			return err
		}

		prompt = strings.TrimSpace(prompt)
		if prompt == "" {
			continue
		}
		if strings.HasPrefix(prompt, "/") {
			if quit := a.handleChatCommand(ctx, conv, prompt); quit {
				return nil
			}
			continue
		}

		fmt.Print(promptStyle.Render("tutor> "))
		if err := sender.Send(ctx, prompt, subject, authenticated); err != nil {
			fmt.Println(errorStyle.Render("error: " + err.Error()))
		}
		fmt.Println()
		fmt.Println()
	}
}

// handleChatCommand runs a /command. Returns true when the loop should end.
func (a *App) handleChatCommand(ctx context.Context, conv *session.Conversation, command string) bool {
	switch strings.Fields(command)[0] {
	case "/quit", "/exit", "/q":
		return true
	case "/new":
		conv.Reset()
		fmt.Println(infoStyle.Render("Started a new conversation."))
	case "/chats":
		if err := a.printChatList(ctx); err != nil {
			fmt.Println(errorStyle.Render(err.Error()))
		}
	case "/open":
		fields := strings.Fields(command)
		if len(fields) < 2 {
			fmt.Println(infoStyle.Render("usage: /open <chat-id>"))
			break
		}
		if err := a.openStoredChat(ctx, conv, fields[1]); err != nil {
			fmt.Println(errorStyle.Render(err.Error()))
		}
	case "/help":
		fmt.Println(infoStyle.Render("/new      start a new conversation"))
		fmt.Println(infoStyle.Render("/chats    list saved chats"))
		fmt.Println(infoStyle.Render("/open N   open saved chat N"))
		fmt.Println(infoStyle.Render("/quit     exit"))
	default:
		fmt.Println(infoStyle.Render("Unknown command. Type /help."))
	}
	return false
}
