// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package auth

import (
	"strconv"
	"time"

	"github.com/tutorchat/tui/internal/tokenstore"
)

// =============================================================================
// TOKEN PAIR
// =============================================================================

// TokenPair holds the credentials of an authenticated session. It is created
// on login/signup/refresh, overwritten wholesale on every refresh, and
// deleted entirely on logout.
type TokenPair struct {
	AccessToken      string
	AccessExpiresAt  time.Time
	RefreshToken     string
	RefreshExpiresAt time.Time
	Username         string
}

// tokenPairResponse is the auth backend's success response. Expiry fields are
// lifetimes in seconds relative to the response time.
type tokenPairResponse struct {
	AccessToken           string `json:"accessToken"`
	AccessTokenExpiresIn  int64  `json:"accessTokenExpiresIn"`
	RefreshToken          string `json:"refreshToken"`
	RefreshTokenExpiresIn int64  `json:"refreshTokenExpiresIn"`
	Username              string `json:"username"`
}

// errorResponse is the auth backend's failure response body.
type errorResponse struct {
	Message     string            `json:"message"`
	FieldErrors map[string]string `json:"fieldErrors,omitempty"`
}

// toPair converts relative lifetimes to absolute expiry instants.
func (r *tokenPairResponse) toPair(now time.Time) *TokenPair {
	return &TokenPair{
		AccessToken:      r.AccessToken,
		AccessExpiresAt:  now.Add(time.Duration(r.AccessTokenExpiresIn) * time.Second),
		RefreshToken:     r.RefreshToken,
		RefreshExpiresAt: now.Add(time.Duration(r.RefreshTokenExpiresIn) * time.Second),
		Username:         r.Username,
	}
}

// storeValues maps the pair onto the token store's keys. Expiries are stored
// as unix milliseconds.
func (p *TokenPair) storeValues() map[string]string {
	return map[string]string{
		tokenstore.KeyAccessToken:   p.AccessToken,
		tokenstore.KeyAccessExpiry:  strconv.FormatInt(p.AccessExpiresAt.UnixMilli(), 10),
		tokenstore.KeyRefreshToken:  p.RefreshToken,
		tokenstore.KeyRefreshExpiry: strconv.FormatInt(p.RefreshExpiresAt.UnixMilli(), 10),
		tokenstore.KeyUsername:      p.Username,
	}
}

// =============================================================================
// EXPIRY ARITHMETIC
// =============================================================================

// IsAccessTokenExpired reports whether the stored access token has expired.
// A missing or unparseable expiry counts as expired, and the boundary instant
// itself counts as expired.
func (m *Manager) IsAccessTokenExpired() bool {
	return m.expiredWithin(tokenstore.KeyAccessExpiry, 0)
}

// WillAccessExpireSoon reports whether the access token expires inside the
// refresh window (default 5 minutes).
func (m *Manager) WillAccessExpireSoon() bool {
	return m.expiredWithin(tokenstore.KeyAccessExpiry, m.refreshWindow)
}

// IsRefreshTokenExpired reports whether the stored refresh token has expired.
func (m *Manager) IsRefreshTokenExpired() bool {
	return m.expiredWithin(tokenstore.KeyRefreshExpiry, 0)
}

// expiredWithin reports whether the expiry stored under key falls within
// window of the current time. Absent expiry data is treated as expired.
func (m *Manager) expiredWithin(key string, window time.Duration) bool {
	value, ok, err := m.store.Get(key)
	if err != nil || !ok {
		return true
	}
	ms, err := strconv.ParseInt(value, 10, 64)
	if err != nil {
		return true
	}
	expiry := time.UnixMilli(ms)
	return !m.now().Before(expiry.Add(-window))
}
