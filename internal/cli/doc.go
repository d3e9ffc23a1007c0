// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package cli implements the plain (non-TUI) command surface of tutorchat:
// argument parsing, account commands (login, signup, logout, status), a
// one-shot ask command, an interactive REPL, and config management.
package cli
