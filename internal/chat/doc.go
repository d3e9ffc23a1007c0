// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package chat talks to the chat persistence backend: listing and creating
// chats, fetching and appending their messages, renaming and deleting them.
// All requests go through the authenticated gateway.
package chat
