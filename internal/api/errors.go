// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package api

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
)

// StatusError is a non-2xx response from a data endpoint, carrying the
// status code and the backend's message when one was provided.
type StatusError struct {
	StatusCode int
	Message    string
}

// Error implements the error interface.
func (e *StatusError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("backend returned status %d: %s", e.StatusCode, e.Message)
	}
	return fmt.Sprintf("backend returned status %d", e.StatusCode)
}

// IsNotFound reports whether the backend answered 404.
func (e *StatusError) IsNotFound() bool {
	return e.StatusCode == http.StatusNotFound
}

// newStatusError builds a StatusError from resp, extracting the backend's
// message field when the body is JSON.
func newStatusError(resp *http.Response) *StatusError {
	se := &StatusError{StatusCode: resp.StatusCode}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxErrorBodySize))
	if err != nil {
		return se
	}
	var payload struct {
		Message string `json:"message"`
	}
	if json.Unmarshal(body, &payload) == nil {
		se.Message = payload.Message
	}
	return se
}
