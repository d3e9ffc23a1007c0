// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package session owns the active conversation: which stored chat it belongs
// to, the ordered message list, and the send pipeline that streams an answer
// into the trailing assistant message.
//
// The chat identifier and the message list always change together. Switching
// to another chat replaces both in one step, which rules out the class of
// bug where a message list from one chat is shown under another chat's
// identifier.
package session
