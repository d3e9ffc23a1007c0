// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package auth

import (
	"errors"
	"fmt"
)

// Error variables for the session lifecycle.
var (
	// ErrNotAuthenticated indicates no valid access credential is available.
	// Callers must treat the user as signed out.
	ErrNotAuthenticated = errors.New("not authenticated")

	// ErrNoRefreshToken indicates a refresh was requested with no stored
	// refresh token.
	ErrNoRefreshToken = errors.New("no refresh token available")

	// ErrRefreshFailed indicates the backend rejected the refresh token.
	// The local session has already been terminated when this is returned.
	ErrRefreshFailed = errors.New("token refresh failed")

	// ErrBackendUnreachable indicates the backend answered with a non-JSON
	// body, which happens when a proxy or the server itself is down.
	ErrBackendUnreachable = errors.New("server returned a non-JSON response; check that the backend is running")

	// ErrNetwork indicates the request never produced a response.
	ErrNetwork = errors.New("network error")
)

// CredentialError is a user-correctable rejection of login or signup
// credentials, carrying the backend's message and optional per-field errors.
type CredentialError struct {
	Message     string
	FieldErrors map[string]string
}

// Error implements the error interface.
func (e *CredentialError) Error() string {
	if len(e.FieldErrors) > 0 {
		return fmt.Sprintf("%s (%d field errors)", e.Message, len(e.FieldErrors))
	}
	return e.Message
}
