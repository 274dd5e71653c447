// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"strings"
)

// ArgParser splits a command's raw arguments into flags, boolean flags, and
// positionals. Flags accept "--flag value", "--flag=value", and "-f value".
// boolFlagNames tells the parser which flags never consume a value.
type ArgParser struct {
	flags      map[string]string
	boolFlags  map[string]bool
	positional []string
}

// boolFlagNames are flags that never take a value, across all commands.
var boolFlagNames = map[string]bool{
	"verbose":                 true,
	"no-color":                true,
	"stdin":                   true,
	"stream":                  true,
	"no-stream":               true,
	"no-syntax-highlighting":  true,
	"coverage":                true,
	"dry-run":                 true,
	"yes":                     true,
	"json":                    true,
	"help":                    true,
	"version":                 true,
}

// shortFlagNames expand single-dash short flags to their long names.
var shortFlagNames = map[string]string{
	"m": "model",
	"t": "temperature",
	"c": "context-length",
	"v": "verbose",
	"o": "output-file",
	"y": "yes",
	"h": "help",
}

// NewArgParser parses raw arguments.
func NewArgParser(args []string) *ArgParser {
	p := &ArgParser{
		flags:     make(map[string]string),
		boolFlags: make(map[string]bool),
	}

	for i := 0; i < len(args); i++ {
		arg := args[i]

		var name string
		switch {
		case strings.HasPrefix(arg, "--"):
			name = strings.TrimPrefix(arg, "--")
		case strings.HasPrefix(arg, "-") && len(arg) > 1:
			name = strings.TrimPrefix(arg, "-")
			if long, ok := shortFlagNames[name]; ok {
				name = long
			}
		default:
			p.positional = append(p.positional, arg)
			continue
		}

		// --flag=value form.
		if eq := strings.Index(name, "="); eq >= 0 {
			p.flags[name[:eq]] = name[eq+1:]
			continue
		}

		if boolFlagNames[name] {
			p.boolFlags[name] = true
			continue
		}

		// --flag value form; a flag at the end or followed by another flag
		// is treated as boolean so "--error" without a message still parses.
		if i+1 < len(args) && !strings.HasPrefix(args[i+1], "-") {
			p.flags[name] = args[i+1]
			i++
		} else {
			p.boolFlags[name] = true
		}
	}
	return p
}

// Flag returns a flag value and whether it was present.
func (p *ArgParser) Flag(name string) (string, bool) {
	v, ok := p.flags[name]
	return v, ok
}

// FlagOrDefault returns a flag value or def when absent.
func (p *ArgParser) FlagOrDefault(name, def string) string {
	if v, ok := p.flags[name]; ok {
		return v
	}
	return def
}

// BoolFlag reports whether a boolean flag was set.
func (p *ArgParser) BoolFlag(name string) bool {
	if p.boolFlags[name] {
		return true
	}
	// --flag=true also counts.
	if v, ok := p.flags[name]; ok {
		return parseBoolValue(v)
	}
	return false
}

// Positional returns the positional argument at index, or "".
func (p *ArgParser) Positional(index int) string {
	if index < len(p.positional) {
		return p.positional[index]
	}
	return ""
}

// Positionals returns all positional arguments.
func (p *ArgParser) Positionals() []string {
	return p.positional
}

// JoinPositionals returns positional arguments joined by spaces, for
// commands that take free text.
func (p *ArgParser) JoinPositionals(from int) string {
	if from >= len(p.positional) {
		return ""
	}
	return strings.Join(p.positional[from:], " ")
}

func parseBoolValue(s string) bool {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "true", "1", "yes", "y", "on":
		return true
	}
	return false
}
