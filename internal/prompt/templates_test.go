// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package prompt

import (
	"strings"
	"testing"
)

func TestExplain_DetailLevels(t *testing.T) {
	brief := Explain("x = 1", "", "brief")
	if len(brief) != 2 {
		t.Fatalf("got %d messages, want 2", len(brief))
	}
	if brief[0].Role != "system" || brief[1].Role != "user" {
		t.Error("messages should be system then user")
	}
	if !strings.Contains(brief[0].Content, "short") {
		t.Error("brief level should ask for a short explanation")
	}

	full := Explain("x = 1", "", "comprehensive")
	if !strings.Contains(full[0].Content, "thorough") {
		t.Error("comprehensive level should ask for a thorough explanation")
	}

	ranged := Explain("x = 1", "10-20", "normal")
	if !strings.Contains(ranged[1].Content, "lines 10-20") {
		t.Error("line range should appear in the user message")
	}
}

func TestReview_Focus(t *testing.T) {
	for focus, keyword := range map[string]string{
		"security":    "injection",
		"performance": "complexity",
		"style":       "naming",
		"bugs":        "off-by-one",
	} {
		msgs := Review("code", focus)
		if !strings.Contains(msgs[0].Content, keyword) {
			t.Errorf("focus %q system prompt should mention %q", focus, keyword)
		}
	}
}

func TestGenerate_Defaults(t *testing.T) {
	msgs := Generate("a queue", "", "", "")
	if !strings.Contains(msgs[0].Content, "python") {
		t.Error("language should default to python")
	}
	if !strings.Contains(msgs[1].Content, "a queue") {
		t.Error("description should appear in the user message")
	}

	msgs = Generate("users endpoint", "go", "chi", "api_endpoint")
	sys := msgs[0].Content
	if !strings.Contains(sys, "go code") || !strings.Contains(sys, "chi framework") || !strings.Contains(sys, "endpoint") {
		t.Errorf("system prompt missing options: %q", sys)
	}
}

func TestDebug_Context(t *testing.T) {
	msgs := Debug("code", "IndexError: out of range", "Traceback...")
	user := msgs[1].Content
	if !strings.Contains(user, "IndexError") {
		t.Error("error message should appear in the user message")
	}
	if !strings.Contains(user, "Traceback") {
		t.Error("stack trace should appear in the user message")
	}
	if strings.Index(user, "IndexError") > strings.Index(user, "Code to debug") {
		t.Error("context should precede the code")
	}
}

func TestTest_FrameworkDefault(t *testing.T) {
	msgs := Test("code", "", false)
	if !strings.Contains(msgs[0].Content, "pytest") {
		t.Error("framework should default to pytest")
	}
	msgs = Test("code", "go test", true)
	if !strings.Contains(msgs[0].Content, "go test") || !strings.Contains(msgs[0].Content, "branch coverage") {
		t.Errorf("system prompt missing options: %q", msgs[0].Content)
	}
}

func TestValidOption(t *testing.T) {
	if !ValidOption("", DetailLevels) {
		t.Error("empty value is always valid")
	}
	if !ValidOption("brief", DetailLevels) {
		t.Error("brief is a valid detail level")
	}
	if ValidOption("verbose", DetailLevels) {
		t.Error("verbose is not a valid detail level")
	}
}

func TestCodeBlock_TrailingNewline(t *testing.T) {
	msgs := Review("line1\nline2\n", "all")
	if strings.Contains(msgs[1].Content, "line2\n\n```") {
		t.Error("trailing newline should be trimmed inside the code fence")
	}
	if !strings.Contains(msgs[1].Content, "```\nline1\nline2\n```") {
		t.Errorf("code fence malformed: %q", msgs[1].Content)
	}
}
