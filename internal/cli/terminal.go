// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// terminal.go - Terminal detection and output setup for the olla CLI.
//
// TTY detection drives three decisions: whether interactive prompts are
// possible, whether output is colored, and how wide rendered markdown
// should be. Piped output gets plain text so olla composes with other
// tools. NO_COLOR and FORCE_COLOR are honored per https://no-color.org/.

package cli

import (
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
	"golang.org/x/term"

	"github.com/jeranaias/olla-cli/internal/config"
	"github.com/jeranaias/olla-cli/internal/render"
)

// =============================================================================
// TTY DETECTION
// =============================================================================

// IsTTY returns true if stdin is a terminal.
func IsTTY() bool {
	return term.IsTerminal(int(os.Stdin.Fd()))
}

// IsStdoutTTY returns true if stdout is a terminal.
func IsStdoutTTY() bool {
	return term.IsTerminal(int(os.Stdout.Fd()))
}

const (
	// DefaultTerminalWidth is the fallback when detection fails.
	DefaultTerminalWidth = 80

	// MinTerminalWidth is the narrowest width used for wrapping.
	MinTerminalWidth = 40
)

// GetTerminalWidth returns the current terminal width, clamped to
// MinTerminalWidth, or DefaultTerminalWidth when stdout is not a terminal.
func GetTerminalWidth() int {
	width, _, err := term.GetSize(int(os.Stdout.Fd()))
	if err != nil || width <= 0 {
		return DefaultTerminalWidth
	}
	if width < MinTerminalWidth {
		return MinTerminalWidth
	}
	return width
}

// =============================================================================
// COLOR OUTPUT CONTROL
// =============================================================================

var (
	colorMu      sync.RWMutex
	colorForced  bool
	colorForcedV bool
)

// ColorsEnabled reports whether colored output should be produced.
// Precedence: test/--no-color override, NO_COLOR, FORCE_COLOR, config,
// then TTY detection.
func ColorsEnabled() bool {
	colorMu.RLock()
	if colorForced {
		v := colorForcedV
		colorMu.RUnlock()
		return v
	}
	colorMu.RUnlock()

	if os.Getenv("NO_COLOR") != "" {
		return false
	}
	if os.Getenv("FORCE_COLOR") != "" {
		return true
	}
	if !config.Global().Output.Color {
		return false
	}
	return IsStdoutTTY()
}

// ForceColorsEnabled overrides color detection. Used by --no-color and
// by tests.
func ForceColorsEnabled(enabled bool) {
	colorMu.Lock()
	colorForced = true
	colorForcedV = enabled
	colorMu.Unlock()
}

// GetColorProfile returns the termenv profile matching the color decision.
func GetColorProfile() termenv.Profile {
	if !ColorsEnabled() {
		return termenv.Ascii
	}
	return termenv.ColorProfile()
}

// SetupTerminal applies the parsed global flags to process-wide output
// state. Call once before dispatching a command.
func SetupTerminal(args *Args) {
	if args.NoColor {
		ForceColorsEnabled(false)
	}
	lipgloss.SetColorProfile(GetColorProfile())
}

// activeThemeName resolves the theme, preferring the --theme flag over
// config. The flag is stashed here by SetupTheme.
var (
	themeMu       sync.RWMutex
	themeOverride string
)

// SetupTheme records the --theme flag for later resolution.
func SetupTheme(name string) {
	themeMu.Lock()
	themeOverride = name
	themeMu.Unlock()
}

// activeTheme returns the render theme for the current invocation.
// When colors are disabled the minimal theme is used regardless of
// configuration so styled output degrades to plain text.
func activeTheme() render.Theme {
	if !ColorsEnabled() {
		return render.NewTheme("minimal")
	}
	themeMu.RLock()
	name := themeOverride
	themeMu.RUnlock()
	if name == "" {
		name = config.Global().Output.Theme
	}
	return render.NewTheme(name)
}

// newRenderer builds a markdown renderer sized to the terminal.
func newRenderer() *render.Renderer {
	return render.New(activeTheme(), ColorsEnabled(), GetTerminalWidth())
}

// RequiresTTY returns an error when stdin is not a terminal. Used by
// commands that need interactive input.
func RequiresTTY(operation string) error {
	if !IsTTY() {
		return fmt.Errorf("stdin is not a terminal; cannot %s interactively", operation)
	}
	return nil
}

// =============================================================================
// OUTPUT STREAMS
// =============================================================================

// stdout and stderr are indirected so tests can capture command output.
var (
	stdoutW io.Writer = os.Stdout
	stderrW io.Writer = os.Stderr
)

func stdout() io.Writer { return stdoutW }
func stderr() io.Writer { return stderrW }

// SetOutputStreams redirects command output. Tests only.
func SetOutputStreams(out, err io.Writer) {
	if out != nil {
		stdoutW = out
	}
	if err != nil {
		stderrW = err
	}
}
