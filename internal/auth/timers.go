// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package auth

import (
	"context"
	"log"
	"time"

	"github.com/tutorchat/tui/internal/tokenstore"
)

// Default background maintenance intervals.
const (
	// DefaultRefreshInterval is how often the access token is refreshed
	// proactively while a session is active.
	DefaultRefreshInterval = 5 * time.Minute

	// DefaultExpiryCheckInterval is how often the refresh token's own
	// expiry is checked.
	DefaultExpiryCheckInterval = 60 * time.Minute
)

// StartMaintenance launches the two background loops that keep a session
// alive: a proactive access-token refresh and a refresh-token expiry watch.
// Both stop when ctx is cancelled. Intervals of zero use the defaults.
func (m *Manager) StartMaintenance(ctx context.Context, refreshInterval, expiryCheckInterval time.Duration) {
	if refreshInterval <= 0 {
		refreshInterval = DefaultRefreshInterval
	}
	if expiryCheckInterval <= 0 {
		expiryCheckInterval = DefaultExpiryCheckInterval
	}

	go m.refreshLoop(ctx, refreshInterval)
	go m.expiryCheckLoop(ctx, expiryCheckInterval)
}

// refreshLoop checks the access token on a fixed cadence and refreshes it
// only once it enters the expiring-soon window, so that the common path
// through ValidAccessToken never needs a blocking refresh. A failed refresh
// has already terminated the session; the loop keeps running and becomes a
// no-op until a new login.
func (m *Manager) refreshLoop(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if !m.IsAuthenticated() {
				continue
			}
			if !m.IsAccessTokenExpired() && !m.WillAccessExpireSoon() {
				continue
			}
			if _, err := m.Refresh(ctx); err != nil {
				log.Printf("background refresh failed: %v", err)
			}
		}
	}
}

// expiryCheckLoop watches for the refresh token itself expiring, which no
// refresh can recover from. When it does, the session is terminated and the
// session-expired listener is notified so the UI can prompt for a new login.
func (m *Manager) expiryCheckLoop(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			_, hasRefresh, _ := m.store.Get(tokenstore.KeyRefreshToken)
			if !hasRefresh || !m.IsRefreshTokenExpired() {
				continue
			}

			log.Printf("refresh token expired, terminating session")
			m.Logout(ctx)

			m.mu.Lock()
			onExpired := m.onSessionExpired
			m.mu.Unlock()
			if onExpired != nil {
				onExpired()
			}
		}
	}
}
