// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package auth

import (
	"context"
	"net/http"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestRefreshLoopSkipsFreshToken(t *testing.T) {
	var refreshCalls atomic.Int64
	m, _ := newTestManager(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/login":
			tokenResponse(t, w, "access-1", "refresh-1")
		case "/refresh":
			refreshCalls.Add(1)
			tokenResponse(t, w, "access-2", "refresh-2")
		}
	})

	_, err := m.Login(context.Background(), "alice", "s3cret")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	m.StartMaintenance(ctx, 20*time.Millisecond, time.Hour)

	// The access token has 900s of lifetime, nowhere near the refresh
	// window; several ticks must pass without touching the backend.
	time.Sleep(200 * time.Millisecond)
	require.Zero(t, refreshCalls.Load())

	token, err := m.ValidAccessToken(context.Background())
	require.NoError(t, err)
	require.Equal(t, "access-1", token)
}

func TestRefreshLoopRefreshesExpiringToken(t *testing.T) {
	now := time.Now()
	clock := &fakeClock{t: now}

	var refreshCalls atomic.Int64
	m, _ := newTestManager(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/login":
			tokenResponse(t, w, "access-1", "refresh-1")
		case "/refresh":
			refreshCalls.Add(1)
			tokenResponse(t, w, "access-2", "refresh-2")
		}
	}, WithClock(clock.Now))

	_, err := m.Login(context.Background(), "alice", "s3cret")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	m.StartMaintenance(ctx, 20*time.Millisecond, time.Hour)

	// Step inside the 5 minute window; the next tick should refresh.
	clock.Advance(11 * time.Minute)

	require.Eventually(t, func() bool {
		return refreshCalls.Load() >= 1
	}, 2*time.Second, 5*time.Millisecond)

	token, err := m.ValidAccessToken(context.Background())
	require.NoError(t, err)
	require.Equal(t, "access-2", token)
}

func TestExpiryCheckLoopTerminatesSession(t *testing.T) {
	now := time.Now()
	clock := &fakeClock{t: now}

	m, _ := newTestManager(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/login":
			tokenResponse(t, w, "access-1", "refresh-1")
		case "/logout":
			w.WriteHeader(http.StatusNoContent)
		}
	}, WithClock(clock.Now))

	var expired atomic.Bool
	m.SetSessionExpiredListener(func() {
		expired.Store(true)
	})

	_, err := m.Login(context.Background(), "alice", "s3cret")
	require.NoError(t, err)

	// Refresh token lifetime is 86400s; jump past it.
	clock.Advance(48 * time.Hour)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	m.StartMaintenance(ctx, time.Hour, 20*time.Millisecond)

	require.Eventually(t, func() bool {
		return expired.Load()
	}, 2*time.Second, 5*time.Millisecond)
	require.False(t, m.IsAuthenticated())
}
