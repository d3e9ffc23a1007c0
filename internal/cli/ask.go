// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/charmbracelet/glamour"

	"github.com/tutorchat/tui/internal/ai"
)

// markdownRenderer is the global glamour renderer for markdown output.
var markdownRenderer *glamour.TermRenderer

func init() {
	var err error
	markdownRenderer, err = glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(80),
	)
	if err != nil {
		// Fall back to plain text when the renderer cannot initialize.
		markdownRenderer = nil
	}
}

// renderMarkdown renders markdown content for terminal display. Returns the
// original content when rendering fails.
func renderMarkdown(content string) string {
	if markdownRenderer == nil {
		return content
	}
	rendered, err := markdownRenderer.Render(content)
	if err != nil {
		return content
	}
	return rendered
}

// HandleAsk sends one question and streams the answer to stdout. The raw
// deltas are printed as they arrive; with markdown enabled the final answer
// is re-rendered once the stream completes.
func (a *App) HandleAsk(args []string) error {
	parser := NewArgParser(args)
	question := parser.Query()
	if question == "" {
		return errors.New("usage: tutorchat ask \"your question\"")
	}

	subject := parser.Flag("subject", "s")
	if subject == "" {
		subject = a.Config.Chat.DefaultSubject
	}
	plain := parser.BoolFlag("plain")

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	var answer strings.Builder
	var streamErr error
	done := make(chan struct{})

	go func() {
		defer close(done)
		a.AI.Stream(ctx, ai.Request{Message: question, Subject: subject}, ai.StreamHandler{
			OnDelta: func(delta string) {
				answer.WriteString(delta)
				fmt.Print(delta)
			},
			OnComplete: func() {},
			OnError:    func(err error) { streamErr = err },
		})
	}()
	<-done

	if streamErr != nil {
		return fmt.Errorf("streaming failed: %w", streamErr)
	}

	if !plain && answer.Len() > 0 {
		// Replace the raw echo with the rendered version.
		fmt.Print("\n\n" + renderMarkdown(answer.String()))
	} else {
		fmt.Println()
	}
	return nil
}
