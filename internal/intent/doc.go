// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package intent classifies free-text requests into command categories for
// the task command. Classification is pattern and keyword matching only; the
// actual reasoning is delegated to the model. Results carry a confidence
// score and any parameters (file path, language, focus) found in the text.
package intent
