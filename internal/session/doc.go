// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package session persists chat sessions as one JSON file per session under
// ~/.olla/sessions/ with 0600 permissions and atomic writes. Sessions are
// resolved by exact id, exact name, or unambiguous id prefix, and the store
// prunes the oldest sessions beyond the configured cap.
package session
