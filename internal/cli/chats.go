// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/tutorchat/tui/internal/model"
	"github.com/tutorchat/tui/internal/session"
	"github.com/tutorchat/tui/internal/util"
)

// HandleChats manages saved chats: list (default), delete, delete-all.
func (a *App) HandleChats(args []string) error {
	if !a.Session.IsAuthenticated() {
		return errors.New("not signed in; run `tutorchat login` first")
	}

	parser := NewArgParser(args)
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	switch parser.Subcommand() {
	case "", "list":
		return a.listChats(ctx, parser.IntFlag(0, "limit"))

	case "delete":
		id, err := strconv.ParseInt(parser.Positional(1), 10, 64)
		if err != nil {
			return errors.New("usage: tutorchat chats delete <id>")
		}
		if err := a.Chats.Delete(ctx, id); err != nil {
			return err
		}
		fmt.Println(successStyle.Render(fmt.Sprintf("Deleted chat %d.", id)))
		return nil

	case "delete-all":
		if !parser.BoolFlag("confirm") {
			return errors.New("this deletes every saved chat; re-run with --confirm")
		}
		if err := a.Chats.DeleteAll(ctx); err != nil {
			return err
		}
		fmt.Println(successStyle.Render("Deleted all chats."))
		return nil

	default:
		return fmt.Errorf("unknown chats subcommand: %s", parser.Subcommand())
	}
}

func (a *App) listChats(ctx context.Context, limit int) error {
	if limit <= 0 {
		limit = a.Config.Chat.RecentChatsLimit
	}
	chats, err := a.Chats.Recent(ctx, limit)
	if err != nil {
		return err
	}
	if len(chats) == 0 {
		fmt.Println(infoStyle.Render("No saved chats."))
		return nil
	}
	for _, c := range chats {
		title := c.Title
		if title == "" {
			title = "(untitled)"
		}
		fmt.Printf("  %6d  %-40s  %s\n", c.ID, util.TruncateWidth(title, 40), c.Subject)
	}
	return nil
}

// printChatList is the /chats REPL command.
func (a *App) printChatList(ctx context.Context) error {
	if !a.Session.IsAuthenticated() {
		return errors.New("not signed in")
	}
	return a.listChats(ctx, 0)
}

// openStoredChat is the /open REPL command: loads a stored chat's messages
// and switches the conversation to it.
func (a *App) openStoredChat(ctx context.Context, conv *session.Conversation, idArg string) error {
	if !a.Session.IsAuthenticated() {
		return errors.New("not signed in")
	}
	id, err := strconv.ParseInt(idArg, 10, 64)
	if err != nil {
		return errors.New("usage: /open <chat-id>")
	}

	stored, err := a.Chats.Messages(ctx, id)
	if err != nil {
		return err
	}
	msgs := make([]*model.Message, 0, len(stored))
	for _, sm := range stored {
		mm := sm.ToModel()
		msgs = append(msgs, &mm)
	}
	conv.SwitchTo(id, msgs)

	fmt.Println(infoStyle.Render(fmt.Sprintf("Opened chat %d (%d messages).", id, len(msgs))))
	for _, m := range msgs {
		fmt.Printf("%s %s\n", promptStyle.Render(m.Role.DisplayName()+":"), m.Preview(120))
	}
	return nil
}
