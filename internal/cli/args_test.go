// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"testing"
)

func TestArgParserFlagForms(t *testing.T) {
	p := NewArgParser([]string{"explain", "--model", "llama3.2", "--focus=security", "-t", "0.3", "--verbose", "main.py"})

	if got, _ := p.Flag("model"); got != "llama3.2" {
		t.Errorf("model = %q, want llama3.2", got)
	}
	if got, _ := p.Flag("focus"); got != "security" {
		t.Errorf("focus = %q, want security", got)
	}
	if got, _ := p.Flag("temperature"); got != "0.3" {
		t.Errorf("temperature = %q, want 0.3 (short flag)", got)
	}
	if !p.BoolFlag("verbose") {
		t.Error("verbose should be set")
	}
	if got := p.Positional(0); got != "explain" {
		t.Errorf("positional 0 = %q, want explain", got)
	}
	if got := p.Positional(1); got != "main.py" {
		t.Errorf("positional 1 = %q, want main.py", got)
	}
}

func TestArgParserBoolFlagDoesNotEatPositional(t *testing.T) {
	// --verbose is a bool flag, so "main.py" must stay positional.
	p := NewArgParser([]string{"review", "--verbose", "main.py"})
	if got := p.Positional(1); got != "main.py" {
		t.Errorf("positional 1 = %q, want main.py", got)
	}
}

func TestArgParserFlagAtEnd(t *testing.T) {
	// A value flag with nothing after it degrades to a bool.
	p := NewArgParser([]string{"chat", "--new-session"})
	if !p.BoolFlag("new-session") {
		t.Error("trailing --new-session should read as bool")
	}
	if v, _ := p.Flag("new-session"); v != "" {
		t.Errorf("new-session value = %q, want empty", v)
	}
}

func TestArgParserJoinPositionals(t *testing.T) {
	p := NewArgParser([]string{"generate", "a", "fizzbuzz", "function", "--language", "python"})
	if got := p.JoinPositionals(1); got != "a fizzbuzz function" {
		t.Errorf("JoinPositionals = %q", got)
	}
}

func TestParseGlobalFlags(t *testing.T) {
	args, err := Parse([]string{"explain", "code", "--model", "mistral", "--temperature", "0.5", "--theme", "light", "--no-color"})
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if args.Command != CommandExplain {
		t.Errorf("command = %v, want explain", args.Command)
	}
	if args.Model != "mistral" {
		t.Errorf("model = %q", args.Model)
	}
	if !args.TemperatureSet || args.Temperature != 0.5 {
		t.Errorf("temperature = %v set=%v", args.Temperature, args.TemperatureSet)
	}
	if args.Theme != "light" {
		t.Errorf("theme = %q", args.Theme)
	}
	if !args.NoColor {
		t.Error("no-color should be set")
	}
}

func TestParseRejectsBadValues(t *testing.T) {
	cases := [][]string{
		{"explain", "code", "--temperature", "1.5"},
		{"explain", "code", "--temperature", "abc"},
		{"explain", "code", "--context-length", "0"},
		{"explain", "code", "--context-length", "many"},
		{"explain", "code", "--theme", "solarized"},
		{"frobnicate"},
	}
	for _, argv := range cases {
		if _, err := Parse(argv); err == nil {
			t.Errorf("Parse(%v) should fail", argv)
		} else if GetExitCode(err) != ExitUsageError {
			t.Errorf("Parse(%v) error should map to exit %d", argv, ExitUsageError)
		}
	}
}

func TestParseNoArgsShowsHelp(t *testing.T) {
	args, err := Parse(nil)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if args.Command != CommandHelp {
		t.Errorf("command = %v, want help", args.Command)
	}
}

func TestParseVersionFlag(t *testing.T) {
	args, err := Parse([]string{"--version"})
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if args.Command != CommandVersion {
		t.Errorf("command = %v, want version", args.Command)
	}
}
