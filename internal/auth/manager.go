// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package auth

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"mime"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/tutorchat/tui/internal/tokenstore"
)

// Configuration constants for the auth backend client.
const (
	// DefaultTimeout is the timeout for auth backend requests.
	DefaultTimeout = 30 * time.Second

	// DefaultRefreshWindow is how long before access-token expiry a refresh
	// is triggered proactively.
	DefaultRefreshWindow = 5 * time.Minute

	// maxErrorBodySize caps how much of an error response body is read.
	maxErrorBodySize = 64 * 1024
)

// sharedClient is the pooled HTTP client for all auth backend requests.
var sharedClient = &http.Client{
	Transport: &http.Transport{
		MaxIdleConns:        100,
		MaxIdleConnsPerHost: 10,
		IdleConnTimeout:     90 * time.Second,
		TLSHandshakeTimeout: 10 * time.Second,
	},
	Timeout: DefaultTimeout,
}

// =============================================================================
// SESSION MANAGER
// =============================================================================

// Manager owns the session lifecycle. It is safe for concurrent use.
type Manager struct {
	store   tokenstore.Store
	client  *http.Client
	baseURL string

	refreshWindow time.Duration
	now           func() time.Time

	mu            sync.Mutex
	inflight      *refreshCall
	authenticated bool
	username      string

	onState          func(authenticated bool, username string)
	onSessionExpired func()
}

// refreshCall is the at-most-one in-flight refresh. Concurrent callers wait
// on done and observe the same outcome instead of issuing a second request.
type refreshCall struct {
	done chan struct{}
	pair *TokenPair
	err  error
}

// Option configures a Manager.
type Option func(*Manager)

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(c *http.Client) Option {
	return func(m *Manager) { m.client = c }
}

// WithRefreshWindow sets the expiring-soon window.
func WithRefreshWindow(d time.Duration) Option {
	return func(m *Manager) { m.refreshWindow = d }
}

// WithClock sets the time source, for tests.
func WithClock(now func() time.Time) Option {
	return func(m *Manager) { m.now = now }
}

// NewManager creates a session manager backed by store, talking to the auth
// backend at baseURL (e.g. "http://localhost:8080/api/v1/auth").
func NewManager(store tokenstore.Store, baseURL string, opts ...Option) *Manager {
	m := &Manager{
		store:         store,
		client:        sharedClient,
		baseURL:       strings.TrimSuffix(baseURL, "/"),
		refreshWindow: DefaultRefreshWindow,
		now:           time.Now,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// SetStateListener registers a callback invoked after every authentication
// state change. Used by the UI to re-render session-derived state.
func (m *Manager) SetStateListener(fn func(authenticated bool, username string)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.onState = fn
}

// SetSessionExpiredListener registers a callback invoked when the refresh
// token expires and the session is force-terminated.
func (m *Manager) SetSessionExpiredListener(fn func()) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.onSessionExpired = fn
}

// =============================================================================
// STATE
// =============================================================================

// IsAuthenticated reports whether a usable session exists: both tokens are
// present and the refresh token has not expired.
func (m *Manager) IsAuthenticated() bool {
	_, hasAccess, _ := m.store.Get(tokenstore.KeyAccessToken)
	_, hasRefresh, _ := m.store.Get(tokenstore.KeyRefreshToken)
	if !hasAccess || !hasRefresh {
		return false
	}
	return !m.IsRefreshTokenExpired()
}

// Username returns the stored username, or "" when signed out.
func (m *Manager) Username() string {
	v, _, _ := m.store.Get(tokenstore.KeyUsername)
	return v
}

// Bootstrap reconciles persisted state on startup: an expired refresh token
// terminates the session, an expired or expiring access token triggers an
// immediate refresh. Returns the resulting authenticated state.
func (m *Manager) Bootstrap(ctx context.Context) bool {
	_, hasRefresh, _ := m.store.Get(tokenstore.KeyRefreshToken)
	if !hasRefresh {
		m.setState(false, "")
		return false
	}

	if m.IsRefreshTokenExpired() {
		log.Printf("refresh token expired on startup, logging out")
		m.Logout(ctx)
		return false
	}

	if m.IsAccessTokenExpired() || m.WillAccessExpireSoon() {
		if _, err := m.Refresh(ctx); err != nil {
			log.Printf("startup refresh failed: %v", err)
			m.Logout(ctx)
			return false
		}
	}

	m.setState(true, m.Username())
	return true
}

// setState updates derived session state and notifies the listener.
func (m *Manager) setState(authenticated bool, username string) {
	m.mu.Lock()
	changed := m.authenticated != authenticated || m.username != username
	m.authenticated = authenticated
	m.username = username
	onState := m.onState
	m.mu.Unlock()

	if changed && onState != nil {
		onState(authenticated, username)
	}
}

// =============================================================================
// LOGIN / SIGNUP
// =============================================================================

// Login authenticates with username and password. On success the token pair
// is persisted before Login returns.
func (m *Manager) Login(ctx context.Context, username, password string) (*TokenPair, error) {
	return m.authenticate(ctx, "/login", map[string]string{
		"username": username,
		"password": password,
	})
}

// SignUp registers a new account and signs it in.
func (m *Manager) SignUp(ctx context.Context, username, email, password string) (*TokenPair, error) {
	return m.authenticate(ctx, "/signup", map[string]string{
		"username": username,
		"email":    email,
		"password": password,
	})
}

func (m *Manager) authenticate(ctx context.Context, path string, body map[string]string) (*TokenPair, error) {
	resp, err := m.postJSON(ctx, path, body)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNetwork, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, decodeAuthError(resp)
	}

	var tokens tokenPairResponse
	if err := json.NewDecoder(resp.Body).Decode(&tokens); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBackendUnreachable, err)
	}

	pair := tokens.toPair(m.now())
	if err := m.saveSession(pair); err != nil {
		return nil, err
	}
	return pair, nil
}

// saveSession persists the pair and flips derived state. Persisting happens
// before control returns to the caller so a reload observes the new session.
func (m *Manager) saveSession(pair *TokenPair) error {
	if err := m.store.SetAll(pair.storeValues()); err != nil {
		return fmt.Errorf("failed to persist session: %w", err)
	}
	m.setState(true, pair.Username)
	return nil
}

// =============================================================================
// REFRESH
// =============================================================================

// Refresh obtains a new token pair using the stored refresh token. Concurrent
// calls share one network request and observe the same outcome. On backend
// rejection the local session is terminated and ErrRefreshFailed returned;
// this error is fatal to the session and is not retried.
func (m *Manager) Refresh(ctx context.Context) (*TokenPair, error) {
	m.mu.Lock()
	if call := m.inflight; call != nil {
		m.mu.Unlock()
		select {
		case <-call.done:
			return call.pair, call.err
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	call := &refreshCall{done: make(chan struct{})}
	m.inflight = call
	m.mu.Unlock()

	call.pair, call.err = m.doRefresh(ctx)

	m.mu.Lock()
	m.inflight = nil
	m.mu.Unlock()
	close(call.done)

	return call.pair, call.err
}

func (m *Manager) doRefresh(ctx context.Context) (*TokenPair, error) {
	refreshToken, ok, err := m.store.Get(tokenstore.KeyRefreshToken)
	if err != nil || !ok || refreshToken == "" {
		return nil, ErrNoRefreshToken
	}

	resp, err := m.postJSON(ctx, "/refresh", map[string]string{"refreshToken": refreshToken})
	if err != nil {
		m.terminateSession()
		return nil, fmt.Errorf("%w: %v", ErrRefreshFailed, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		io.Copy(io.Discard, io.LimitReader(resp.Body, maxErrorBodySize))
		m.terminateSession()
		return nil, fmt.Errorf("%w: backend returned status %d", ErrRefreshFailed, resp.StatusCode)
	}

	var tokens tokenPairResponse
	if err := json.NewDecoder(resp.Body).Decode(&tokens); err != nil {
		m.terminateSession()
		return nil, fmt.Errorf("%w: %v", ErrRefreshFailed, err)
	}

	pair := tokens.toPair(m.now())
	if err := m.saveSession(pair); err != nil {
		return nil, err
	}
	return pair, nil
}

// terminateSession clears local credentials after a fatal refresh failure.
func (m *Manager) terminateSession() {
	if err := m.store.Clear(); err != nil {
		log.Printf("failed to clear token store: %v", err)
	}
	m.setState(false, "")
}

// =============================================================================
// VALID ACCESS TOKEN
// =============================================================================

// ValidAccessToken returns an access token that is not expired and not about
// to expire, refreshing transparently when needed. When no valid token can be
// obtained it returns ErrNotAuthenticated; the session has already been
// terminated in that case.
func (m *Manager) ValidAccessToken(ctx context.Context) (string, error) {
	if m.IsAccessTokenExpired() || m.WillAccessExpireSoon() {
		if _, err := m.Refresh(ctx); err != nil {
			log.Printf("transparent refresh failed: %v", err)
			return "", ErrNotAuthenticated
		}
	}

	token, ok, err := m.store.Get(tokenstore.KeyAccessToken)
	if err != nil || !ok || token == "" {
		return "", ErrNotAuthenticated
	}
	return token, nil
}

// =============================================================================
// LOGOUT
// =============================================================================

// Logout invalidates the refresh token on the backend (best effort; failures
// are logged and never block the local logout) and then unconditionally
// clears the token store and derived state. Safe to call repeatedly and
// concurrently.
func (m *Manager) Logout(ctx context.Context) {
	refreshToken, ok, _ := m.store.Get(tokenstore.KeyRefreshToken)
	if ok && refreshToken != "" {
		resp, err := m.postJSON(ctx, "/logout", map[string]string{"refreshToken": refreshToken})
		if err != nil {
			log.Printf("backend logout failed: %v", err)
		} else {
			io.Copy(io.Discard, io.LimitReader(resp.Body, maxErrorBodySize))
			resp.Body.Close()
		}
	}

	if err := m.store.Clear(); err != nil {
		log.Printf("failed to clear token store: %v", err)
	}
	m.setState(false, "")
}

// =============================================================================
// HTTP HELPERS
// =============================================================================

func (m *Manager) postJSON(ctx context.Context, path string, body any) (*http.Response, error) {
	payload, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, m.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	return m.client.Do(req)
}

// decodeAuthError converts a non-2xx auth backend response into an error:
// a JSON body yields a user-correctable CredentialError, anything else is an
// unreachable-backend condition rather than something to parse.
func decodeAuthError(resp *http.Response) error {
	body, err := io.ReadAll(io.LimitReader(resp.Body, maxErrorBodySize))
	if err != nil {
		return fmt.Errorf("%w: status %d", ErrBackendUnreachable, resp.StatusCode)
	}

	mediaType, _, _ := mime.ParseMediaType(resp.Header.Get("Content-Type"))
	if mediaType == "application/json" {
		var er errorResponse
		if json.Unmarshal(body, &er) == nil && er.Message != "" {
			return &CredentialError{Message: er.Message, FieldErrors: er.FieldErrors}
		}
	}

	log.Printf("auth backend returned non-JSON error (status %d)", resp.StatusCode)
	return fmt.Errorf("%w: status %d", ErrBackendUnreachable, resp.StatusCode)
}
