// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package model contains the data structures for conversation messages.
//
// A Message is one entry in the ordered conversation transcript. The list is
// append-only except for the trailing assistant message, whose content grows
// in place while a completion stream is active.
package model
