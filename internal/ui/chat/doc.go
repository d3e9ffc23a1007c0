// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package chat provides the conversation view for the tutorchat TUI: a
// scrollable transcript, an input line, and a status bar. Answers stream in
// asynchronously; the send pipeline pushes updates into the Bubble Tea
// program as messages, so the view never blocks on the network.
package chat
