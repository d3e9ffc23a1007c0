// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package config provides configuration loading and management for tutorchat.
//
// Supports TOML (preferred) and JSON configuration formats with sensible
// defaults, environment variable overrides, and validation.
//
// Configuration file locations (in order of precedence):
//   - ~/.tutorchat/config.toml
//   - ~/.tutorchat/config.json
//   - Built-in defaults
package config
