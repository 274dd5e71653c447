// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/jeranaias/olla-cli/internal/config"
	"github.com/jeranaias/olla-cli/internal/ollama"
	"github.com/jeranaias/olla-cli/internal/session"
)

func TestGetExitCode(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"nil", nil, ExitSuccess},
		{"plain error", errors.New("boom"), ExitGeneralError},
		{"usage error", Usagef("bad flag"), ExitUsageError},
		{"wrapped usage error", fmt.Errorf("outer: %w", Usagef("bad")), ExitUsageError},
		{"config error", &ConfigError{Message: "unreadable"}, ExitConfigError},
		{"validation error", &config.ValidationError{Field: "model.temperature", Message: "out of range"}, ExitConfigError},
		{"validation errors", config.ValidateErrors{{Field: "output.theme", Message: "unknown"}}, ExitConfigError},
		{"server down", fmt.Errorf("connect: %w", ollama.ErrNotRunning), ExitConnectionError},
		{"timeout", fmt.Errorf("chat: %w", ollama.ErrTimeout), ExitConnectionError},
		{"model missing", fmt.Errorf("model: %w", ollama.ErrModelNotFound), ExitModelNotFound},
		{"session not found", fmt.Errorf("resolve: %w", session.ErrNotFound), ExitUsageError},
		{"session ambiguous", fmt.Errorf("resolve: %w", session.ErrAmbiguous), ExitUsageError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, GetExitCode(tt.err))
		})
	}
}

func TestUsageErrorMessage(t *testing.T) {
	err := Usagef("invalid focus %q", "speed")
	assert.EqualError(t, err, `invalid focus "speed"`)
}

func TestConfigErrorWrapsCause(t *testing.T) {
	cause := errors.New("permission denied")
	err := &ConfigError{Message: "loading configuration", Cause: cause}
	assert.ErrorIs(t, err, cause)
	assert.Contains(t, err.Error(), "permission denied")
}
