// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package tokenstore provides durable key/value persistence for the session
// token pair, its expiry timestamps, and the signed-in username.
//
// The SQLite-backed store is the terminal analog of browser localStorage: the
// five well-known keys survive process restarts, and logout clears all of
// them in a single transaction so a partially-cleared session can never be
// observed. Values are encrypted at rest with AES-256-GCM using a key derived
// from a machine-local keyfile.
//
// All writes go through the session manager; no other component mutates the
// store directly.
package tokenstore
