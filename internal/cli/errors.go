// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"errors"
	"fmt"
	"os"

	"github.com/jeranaias/olla-cli/internal/config"
	"github.com/jeranaias/olla-cli/internal/ollama"
	"github.com/jeranaias/olla-cli/internal/session"
)

// Exit codes. Scripts depend on these values; do not renumber.
const (
	ExitSuccess         = 0
	ExitGeneralError    = 1
	ExitUsageError      = 2
	ExitConfigError     = 3
	ExitConnectionError = 4
	ExitModelNotFound   = 5
)

// UsageError is a bad flag, bad subcommand, or invalid option value.
type UsageError struct {
	Message string
}

func (e *UsageError) Error() string {
	return e.Message
}

// Usagef builds a UsageError.
func Usagef(format string, args ...any) error {
	return &UsageError{Message: fmt.Sprintf(format, args...)}
}

// ConfigError wraps a configuration failure that is not a field-level
// validation error (unreadable file, save failure).
type ConfigError struct {
	Message string
	Cause   error
}

func (e *ConfigError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

func (e *ConfigError) Unwrap() error {
	return e.Cause
}

// GetExitCode maps any error onto the documented exit codes.
func GetExitCode(err error) int {
	if err == nil {
		return ExitSuccess
	}

	var usage *UsageError
	if errors.As(err, &usage) {
		return ExitUsageError
	}

	var cfgErr *ConfigError
	var valErr *config.ValidationError
	var valErrs config.ValidateErrors
	if errors.As(err, &cfgErr) || errors.As(err, &valErr) || errors.As(err, &valErrs) {
		return ExitConfigError
	}

	if ollama.IsModelNotFound(err) {
		return ExitModelNotFound
	}
	if ollama.IsNotRunning(err) || ollama.IsTimeout(err) {
		return ExitConnectionError
	}

	// Ambiguous or missing session references are argument problems.
	if errors.Is(err, session.ErrAmbiguous) || errors.Is(err, session.ErrNotFound) {
		return ExitUsageError
	}

	return ExitGeneralError
}

// DisplayError prints an error to stderr with an actionable hint when one
// exists for the failure class.
func DisplayError(err error) {
	if err == nil {
		return
	}
	theme := activeTheme()
	fmt.Fprintf(os.Stderr, "%s %v\n", theme.Error.Render("Error:"), err)

	switch {
	case ollama.IsNotRunning(err):
		fmt.Fprintln(os.Stderr, "Ollama is not running. Start it with: ollama serve")
	case ollama.IsModelNotFound(err):
		fmt.Fprintln(os.Stderr, "Install it with: olla models pull <name>")
	case errors.Is(err, session.ErrAmbiguous):
		fmt.Fprintln(os.Stderr, "Use a longer id prefix, or: olla chat (then /sessions)")
	}
}
