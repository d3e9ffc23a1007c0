// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package config

import (
	"encoding/json"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/tutorchat/tui/internal/util"
)

// =============================================================================
// CONFIG STRUCTURES
// =============================================================================

// Config represents the complete tutorchat configuration.
type Config struct {
	// Version of the config schema.
	Version string `toml:"version" json:"version"`

	// API holds backend endpoint configuration.
	API APIConfig `toml:"api" json:"api"`

	// Session holds token lifecycle configuration.
	Session SessionConfig `toml:"session" json:"session"`

	// Chat holds conversation behavior configuration.
	Chat ChatConfig `toml:"chat" json:"chat"`

	// Storage holds local persistence configuration.
	Storage StorageConfig `toml:"storage" json:"storage"`

	// UI holds terminal interface configuration.
	UI UIConfig `toml:"ui" json:"ui"`
}

// APIConfig contains backend endpoint configuration.
type APIConfig struct {
	// AuthBaseURL is the base URL of the auth backend (login/signup/refresh/logout).
	AuthBaseURL string `toml:"auth_base_url" json:"auth_base_url"`
	// BaseURL is the base URL of the chat storage and user backend.
	BaseURL string `toml:"base_url" json:"base_url"`
	// AIBaseURL is the base URL of the streaming completion backend.
	AIBaseURL string `toml:"ai_base_url" json:"ai_base_url"`
	// RequestTimeoutSecs is the timeout for non-streaming requests.
	RequestTimeoutSecs int `toml:"request_timeout_secs" json:"request_timeout_secs"`
	// RequestsPerSec throttles outbound gateway requests (0 = unlimited).
	RequestsPerSec float64 `toml:"requests_per_sec" json:"requests_per_sec"`
}

// RequestTimeout returns the non-streaming request timeout as a duration.
func (a APIConfig) RequestTimeout() time.Duration {
	return time.Duration(a.RequestTimeoutSecs) * time.Second
}

// SessionConfig contains token lifecycle configuration.
type SessionConfig struct {
	// RefreshWindowSecs is how long before access-token expiry a refresh is
	// triggered proactively.
	RefreshWindowSecs int `toml:"refresh_window_secs" json:"refresh_window_secs"`
	// AutoRefreshIntervalSecs is how often the background refresh check runs.
	AutoRefreshIntervalSecs int `toml:"auto_refresh_interval_secs" json:"auto_refresh_interval_secs"`
	// ExpiryCheckIntervalSecs is how often the refresh-token expiry check runs.
	ExpiryCheckIntervalSecs int `toml:"expiry_check_interval_secs" json:"expiry_check_interval_secs"`
}

// RefreshWindow returns the refresh window as a duration.
func (s SessionConfig) RefreshWindow() time.Duration {
	return time.Duration(s.RefreshWindowSecs) * time.Second
}

// AutoRefreshInterval returns the background refresh cadence as a duration.
func (s SessionConfig) AutoRefreshInterval() time.Duration {
	return time.Duration(s.AutoRefreshIntervalSecs) * time.Second
}

// ExpiryCheckInterval returns the expiry watch cadence as a duration.
func (s SessionConfig) ExpiryCheckInterval() time.Duration {
	return time.Duration(s.ExpiryCheckIntervalSecs) * time.Second
}

// ChatConfig contains conversation behavior configuration.
type ChatConfig struct {
	// HistoryLimit is the number of trailing messages sent to the completion
	// backend as conversation history.
	HistoryLimit int `toml:"history_limit" json:"history_limit"`
	// RecentChatsLimit is how many chats to fetch for the sidebar.
	RecentChatsLimit int `toml:"recent_chats_limit" json:"recent_chats_limit"`
	// DefaultSubject is the subject sent with prompts when none is chosen.
	DefaultSubject string `toml:"default_subject" json:"default_subject"`
}

// StorageConfig contains local persistence configuration.
type StorageConfig struct {
	// Dir is the data directory (session database, keyfile).
	// Empty means ~/.tutorchat.
	Dir string `toml:"dir" json:"dir"`
}

// UIConfig contains terminal interface configuration.
type UIConfig struct {
	// Theme is the color theme: "dark" or "light".
	Theme string `toml:"theme" json:"theme"`
	// CompactMode reduces message spacing.
	CompactMode bool `toml:"compact_mode" json:"compact_mode"`
}

// =============================================================================
// DEFAULTS
// =============================================================================

// Default returns the built-in default configuration.
func Default() *Config {
	return &Config{
		Version: "1",
		API: APIConfig{
			AuthBaseURL:        "http://localhost:8080/api/v1/auth",
			BaseURL:            "http://localhost:8080/api/v1",
			AIBaseURL:          "http://localhost:8000",
			RequestTimeoutSecs: 30,
			RequestsPerSec:     10,
		},
		Session: SessionConfig{
			RefreshWindowSecs:       5 * 60,
			AutoRefreshIntervalSecs: 5 * 60,
			ExpiryCheckIntervalSecs: 60 * 60,
		},
		Chat: ChatConfig{
			HistoryLimit:     20,
			RecentChatsLimit: 100,
			DefaultSubject:   "general",
		},
		Storage: StorageConfig{},
		UI: UIConfig{
			Theme:       "dark",
			CompactMode: false,
		},
	}
}

// =============================================================================
// CONFIG PATH HELPERS
// =============================================================================

// ConfigDir returns the tutorchat configuration directory path.
func ConfigDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("could not determine home directory: %w", err)
	}
	return filepath.Join(home, ".tutorchat"), nil
}

// ConfigPathTOML returns the path to the TOML config file.
func ConfigPathTOML() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.toml"), nil
}

// ConfigPathJSON returns the path to the JSON config file.
func ConfigPathJSON() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.json"), nil
}

// DataDir returns the directory for local persistence (session database,
// keyfile), honoring Storage.Dir when set.
func (c *Config) DataDir() (string, error) {
	if c.Storage.Dir != "" {
		return c.Storage.Dir, nil
	}
	return ConfigDir()
}

// =============================================================================
// LOAD
// =============================================================================

// Load loads configuration from the config file(s). Tries TOML first, then
// JSON, and falls back to defaults. Environment overrides are applied last.
func Load() (*Config, error) {
	tomlPath, err := ConfigPathTOML()
	if err == nil {
		if _, statErr := os.Stat(tomlPath); statErr == nil {
			return LoadFromPath(tomlPath)
		}
	}

	jsonPath, err := ConfigPathJSON()
	if err == nil {
		if _, statErr := os.Stat(jsonPath); statErr == nil {
			return LoadFromPath(jsonPath)
		}
	}

	cfg := Default()
	cfg.ApplyEnvOverrides()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// LoadFromPath loads configuration from a specific file. The format is chosen
// by file extension (.toml or .json).
func LoadFromPath(path string) (*Config, error) {
	cfg := Default()

	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml":
		if _, err := toml.DecodeFile(path, cfg); err != nil {
			return nil, fmt.Errorf("failed to load TOML config: %w", err)
		}
	case ".json":
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
		if err := json.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to load JSON config: %w", err)
		}
	default:
		return nil, fmt.Errorf("unsupported config format: %s", path)
	}

	cfg.ApplyEnvOverrides()
	cfg.fillDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// fillDefaults replaces zero values with defaults for fields a hand-edited
// config file commonly omits.
func (c *Config) fillDefaults() {
	def := Default()
	if c.API.AuthBaseURL == "" {
		c.API.AuthBaseURL = def.API.AuthBaseURL
	}
	if c.API.BaseURL == "" {
		c.API.BaseURL = def.API.BaseURL
	}
	if c.API.AIBaseURL == "" {
		c.API.AIBaseURL = def.API.AIBaseURL
	}
	if c.API.RequestTimeoutSecs == 0 {
		c.API.RequestTimeoutSecs = def.API.RequestTimeoutSecs
	}
	if c.Session.RefreshWindowSecs == 0 {
		c.Session.RefreshWindowSecs = def.Session.RefreshWindowSecs
	}
	if c.Session.AutoRefreshIntervalSecs == 0 {
		c.Session.AutoRefreshIntervalSecs = def.Session.AutoRefreshIntervalSecs
	}
	if c.Session.ExpiryCheckIntervalSecs == 0 {
		c.Session.ExpiryCheckIntervalSecs = def.Session.ExpiryCheckIntervalSecs
	}
	if c.Chat.HistoryLimit == 0 {
		c.Chat.HistoryLimit = def.Chat.HistoryLimit
	}
	if c.Chat.RecentChatsLimit == 0 {
		c.Chat.RecentChatsLimit = def.Chat.RecentChatsLimit
	}
	if c.UI.Theme == "" {
		c.UI.Theme = def.UI.Theme
	}
}

// =============================================================================
// ENVIRONMENT OVERRIDES
// =============================================================================

// ApplyEnvOverrides applies TUTORCHAT_* environment variables on top of the
// loaded configuration.
func (c *Config) ApplyEnvOverrides() {
	if v := os.Getenv("TUTORCHAT_AUTH_URL"); v != "" {
		c.API.AuthBaseURL = v
	}
	if v := os.Getenv("TUTORCHAT_API_URL"); v != "" {
		c.API.BaseURL = v
	}
	if v := os.Getenv("TUTORCHAT_AI_URL"); v != "" {
		c.API.AIBaseURL = v
	}
	if v := os.Getenv("TUTORCHAT_DATA_DIR"); v != "" {
		c.Storage.Dir = v
	}
	if v := os.Getenv("TUTORCHAT_THEME"); v != "" {
		c.UI.Theme = v
	}
	if v := os.Getenv("TUTORCHAT_HISTORY_LIMIT"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			c.Chat.HistoryLimit = n
		}
	}
}

// =============================================================================
// VALIDATION
// =============================================================================

// ValidationError describes a single invalid config field.
type ValidationError struct {
	Field   string
	Message string
}

// Error implements the error interface.
func (e ValidationError) Error() string {
	return fmt.Sprintf("config field %s: %s", e.Field, e.Message)
}

// Validate checks the configuration for invalid values.
func (c *Config) Validate() error {
	for _, ep := range []struct {
		field string
		value string
	}{
		{"api.auth_base_url", c.API.AuthBaseURL},
		{"api.base_url", c.API.BaseURL},
		{"api.ai_base_url", c.API.AIBaseURL},
	} {
		u, err := url.Parse(ep.value)
		if err != nil || u.Scheme == "" || u.Host == "" {
			return ValidationError{Field: ep.field, Message: fmt.Sprintf("invalid URL %q", ep.value)}
		}
		if u.Scheme != "http" && u.Scheme != "https" {
			return ValidationError{Field: ep.field, Message: fmt.Sprintf("unsupported scheme %q", u.Scheme)}
		}
	}

	if c.API.RequestTimeoutSecs < 0 {
		return ValidationError{Field: "api.request_timeout_secs", Message: "must not be negative"}
	}
	if c.API.RequestsPerSec < 0 {
		return ValidationError{Field: "api.requests_per_sec", Message: "must not be negative"}
	}
	if c.Session.RefreshWindowSecs < 0 {
		return ValidationError{Field: "session.refresh_window_secs", Message: "must not be negative"}
	}
	if c.Chat.HistoryLimit < 1 {
		return ValidationError{Field: "chat.history_limit", Message: "must be at least 1"}
	}
	if c.UI.Theme != "dark" && c.UI.Theme != "light" {
		return ValidationError{Field: "ui.theme", Message: fmt.Sprintf("unknown theme %q", c.UI.Theme)}
	}

	return nil
}

// =============================================================================
// SAVE
// =============================================================================

// Save writes the configuration to the default TOML path atomically.
func Save(cfg *Config) error {
	path, err := ConfigPathTOML()
	if err != nil {
		return err
	}
	return SaveTOML(cfg, path)
}

// SaveTOML writes the configuration to a TOML file atomically with owner-only
// permissions.
func SaveTOML(cfg *Config, path string) error {
	var sb strings.Builder
	if err := toml.NewEncoder(&sb).Encode(cfg); err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	return util.AtomicWriteFile(path, []byte(sb.String()), 0600)
}
