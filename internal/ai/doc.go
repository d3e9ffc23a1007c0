// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package ai is the client for the tutoring completion backend. It supports
// streamed answers over Server-Sent Events, delivered incrementally through
// callbacks, and a non-streaming fallback for plain one-shot requests.
package ai
