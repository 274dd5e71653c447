// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package prompt holds the canned prompt templates for each command. A
// template turns command options plus user code into the system/user message
// pair sent to the model. Option value lists (detail levels, review focuses,
// document formats) live here so the CLI validates against one source.
package prompt
