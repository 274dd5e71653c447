// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package render formats model output for the terminal: markdown through
// glamour, raw code through chroma, both driven by the configured theme
// (dark, light, minimal) and the color setting. It also extracts fenced
// code blocks from responses for the --output-file flag.
package render
