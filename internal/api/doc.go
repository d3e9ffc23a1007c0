// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package api provides the authenticated HTTP gateway used by every backend
// data service. It attaches bearer credentials, rate-limits outgoing
// requests, and transparently recovers from a single expired-token rejection
// per request by refreshing and retrying exactly once.
package api
