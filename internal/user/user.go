// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package user fetches and updates the signed-in user's profile through the
// authenticated gateway.
package user

import (
	"context"
	"fmt"

	"github.com/tutorchat/tui/internal/api"
)

// Profile is the signed-in user's account data.
type Profile struct {
	Username       string `json:"username"`
	Email          string `json:"email"`
	DisplayName    string `json:"displayName"`
	DefaultSubject string `json:"defaultSubject"`
}

// ProfileUpdate carries the mutable profile fields; nil fields are left
// unchanged by the backend.
type ProfileUpdate struct {
	Email          *string `json:"email,omitempty"`
	DisplayName    *string `json:"displayName,omitempty"`
	DefaultSubject *string `json:"defaultSubject,omitempty"`
}

// Service provides profile operations over the gateway.
type Service struct {
	client *api.Client
}

// NewService creates a profile service using the authenticated gateway.
func NewService(client *api.Client) *Service {
	return &Service{client: client}
}

// Current returns the signed-in user's profile.
func (s *Service) Current(ctx context.Context) (*Profile, error) {
	var p Profile
	if err := s.client.GetJSON(ctx, "/users/me", &p); err != nil {
		return nil, fmt.Errorf("failed to fetch profile: %w", err)
	}
	return &p, nil
}

// Update applies a partial profile update and returns the updated profile.
func (s *Service) Update(ctx context.Context, update ProfileUpdate) (*Profile, error) {
	var p Profile
	if err := s.client.PutJSON(ctx, "/users/me", update, &p); err != nil {
		return nil, fmt.Errorf("failed to update profile: %w", err)
	}
	return &p, nil
}
