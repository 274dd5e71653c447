// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package plan turns a classified task request into a short sequence of
// canned steps (generate, read_file, write_file, analyze) and executes them
// in order. Step outputs flow to later steps through ${name} placeholders.
// The planning is deliberately thin; the reasoning happens in the model.
package plan
