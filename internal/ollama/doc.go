// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package ollama is an HTTP client for a locally-running Ollama server.
//
// It covers the endpoints olla needs: GET /api/tags (list models),
// POST /api/show (model info), POST /api/chat (chat, streaming and not),
// and POST /api/pull (model download with progress).
//
// Streaming responses arrive as newline-delimited JSON. StreamReader parses
// them chunk by chunk, skipping malformed lines, and the final done=true
// chunk carries token counts and durations. Non-streaming calls are bounded
// by the configured timeout; streams are bounded by the caller's context
// because generations may legitimately run for minutes.
//
// Failures are wrapped in ClientError and match the sentinel errors
// ErrNotRunning, ErrModelNotFound, and ErrTimeout via errors.Is.
package ollama
