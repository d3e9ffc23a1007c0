// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package model

import "testing"

func TestNewUserMessage(t *testing.T) {
	msg := NewUserMessage("hello")

	if msg.Role != RoleUser {
		t.Errorf("role = %q, want %q", msg.Role, RoleUser)
	}
	if msg.Content != "hello" {
		t.Errorf("content = %q, want %q", msg.Content, "hello")
	}
	if msg.ID == "" {
		t.Error("expected generated ID")
	}
	if msg.Streaming {
		t.Error("user messages must not be marked streaming")
	}
}

func TestNewAssistantMessage(t *testing.T) {
	msg := NewAssistantMessage()

	if msg.Role != RoleAssistant {
		t.Errorf("role = %q, want %q", msg.Role, RoleAssistant)
	}
	if !msg.IsEmpty() {
		t.Error("placeholder must start empty")
	}
	if !msg.Streaming {
		t.Error("placeholder must be marked streaming")
	}
}

func TestAppendDelta_PreservesOrderAndSplits(t *testing.T) {
	msg := NewAssistantMessage()

	// Partial-word and partial-rune splits are expected from the stream.
	msg.AppendDelta("Hel")
	msg.AppendDelta("lo, ")
	msg.AppendDelta("wörld")

	if msg.Content != "Hello, wörld" {
		t.Errorf("content = %q, want %q", msg.Content, "Hello, wörld")
	}

	msg.Finalize()
	if msg.Streaming {
		t.Error("Finalize must clear the streaming flag")
	}
}

func TestPreview(t *testing.T) {
	msg := NewUserMessage("a rather long question about something")
	if got := msg.Preview(10); got != "a rathe..." {
		t.Errorf("Preview = %q, want %q", got, "a rathe...")
	}

	short := NewUserMessage("hi")
	if got := short.Preview(10); got != "hi" {
		t.Errorf("Preview = %q, want %q", got, "hi")
	}

	multiline := NewUserMessage("first\r\nsecond")
	if got := multiline.Preview(20); got != "first second" {
		t.Errorf("Preview = %q, want %q", got, "first second")
	}
}

func TestRoleDisplayName(t *testing.T) {
	if RoleUser.DisplayName() != "You" {
		t.Errorf("RoleUser.DisplayName() = %q", RoleUser.DisplayName())
	}
	if RoleAssistant.DisplayName() != "Assistant" {
		t.Errorf("RoleAssistant.DisplayName() = %q", RoleAssistant.DisplayName())
	}
}
