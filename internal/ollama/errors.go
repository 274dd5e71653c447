// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package ollama

import (
	"errors"
	"fmt"
)

// ErrorType categorizes client failures for exit-code mapping.
type ErrorType int

const (
	ErrorTypeConnection ErrorType = iota
	ErrorTypeTimeout
	ErrorTypeModelNotFound
	ErrorTypeServer
	ErrorTypeInvalidResponse
)

// Sentinel errors usable with errors.Is.
var (
	// ErrNotRunning means the Ollama server is unreachable.
	ErrNotRunning = errors.New("ollama server is not running")

	// ErrModelNotFound means the requested model is not installed.
	ErrModelNotFound = errors.New("model not found")

	// ErrTimeout means a request exceeded the configured timeout.
	ErrTimeout = errors.New("request timed out")
)

// ClientError wraps a failure with its category and underlying cause.
type ClientError struct {
	Type    ErrorType
	Message string
	Cause   error
}

func (e *ClientError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

func (e *ClientError) Unwrap() error {
	return e.Cause
}

// Is lets errors.Is match sentinel errors through the wrapper.
func (e *ClientError) Is(target error) bool {
	switch target {
	case ErrNotRunning:
		return e.Type == ErrorTypeConnection
	case ErrModelNotFound:
		return e.Type == ErrorTypeModelNotFound
	case ErrTimeout:
		return e.Type == ErrorTypeTimeout
	}
	return false
}

// IsNotRunning reports whether err means the server is unreachable.
func IsNotRunning(err error) bool {
	return errors.Is(err, ErrNotRunning)
}

// IsModelNotFound reports whether err means a missing model.
func IsModelNotFound(err error) bool {
	return errors.Is(err, ErrModelNotFound)
}

// IsTimeout reports whether err means a timeout.
func IsTimeout(err error) bool {
	return errors.Is(err, ErrTimeout)
}

func connectionError(cause error) error {
	return &ClientError{
		Type:    ErrorTypeConnection,
		Message: "cannot reach ollama server",
		Cause:   cause,
	}
}

func modelNotFoundError(model string) error {
	return &ClientError{
		Type:    ErrorTypeModelNotFound,
		Message: fmt.Sprintf("model %q is not installed", model),
	}
}
