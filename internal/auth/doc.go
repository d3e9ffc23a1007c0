// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package auth owns the session lifecycle against the auth backend:
// login, signup, token refresh, and logout.
//
// The manager keeps a long-lived session valid without user-visible
// interruption. Access tokens are refreshed transparently before they expire,
// concurrent refresh requests are collapsed into a single network call, and a
// failed refresh terminates the local session rather than leaving it in a
// half-valid state. All token persistence goes through the token store; no
// other package writes credentials.
package auth
