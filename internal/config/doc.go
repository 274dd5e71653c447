// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package config manages the olla configuration file.
//
// The config lives at ~/.olla/config.yaml with 0600 permissions and is
// written atomically. Loading applies, in order: file values, defaults for
// anything unset, environment overrides (OLLA_MODEL, OLLA_TEMPERATURE,
// OLLA_API_URL, OLLA_THEME, OLLA_NO_COLOR, NO_COLOR), then validation.
// A legacy config.toml from old releases is migrated to YAML on first load.
//
// Keys are addressed in dot notation ("model.temperature") with underscore
// shortcuts for the common ones ("temperature", "api_url").
package config
