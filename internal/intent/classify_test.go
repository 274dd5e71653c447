// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package intent

import "testing"

func TestClassify_Types(t *testing.T) {
	tests := []struct {
		input string
		want  Type
	}{
		{"explain what this function does", TypeExplain},
		{"explain main.py", TypeExplain},
		{"review this code for security issues", TypeReview},
		{"check this file for bugs", TypeReview},
		{"refactor the parser to be cleaner", TypeRefactor},
		{"simplify this method", TypeRefactor},
		{"debug this error in my script", TypeDebug},
		{"my program is not working", TypeDebug},
		{"document this module", TypeDocument},
		{"generate a readme for the project", TypeDocument},
		{"write tests for the config loader", TypeTest},
		{"generate a function that sorts a list", TypeGenerate},
		{"models list", TypeModelMgmt},
		{"pull the latest model", TypeModelMgmt},
		{"config set temperature 0.5", TypeConfigMgmt},
		{"show my settings", TypeConfigMgmt},
		{"create a fibonacci function and save it to fib.py", TypeComplexTask},
		{"make a file called server.go with an http handler", TypeComplexTask},
		{"how are you today", TypeChat},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got := Classify(tt.input)
			if got.Type != tt.want {
				t.Errorf("Classify(%q).Type = %s, want %s (confidence %.2f)",
					tt.input, got.Type, tt.want, got.Confidence)
			}
		})
	}
}

func TestClassify_ComplexTaskBeatsGenerate(t *testing.T) {
	// Requests that both generate code and name a destination file must plan
	// a file write, not just print code.
	r := Classify("generate a sort function and write it to sort.py")
	if r.Type != TypeComplexTask {
		t.Errorf("got %s, want %s", r.Type, TypeComplexTask)
	}
	if r.Params.FilePath != "sort.py" {
		t.Errorf("FilePath = %q, want sort.py", r.Params.FilePath)
	}
}

func TestClassify_ParamExtraction(t *testing.T) {
	r := Classify("review utils.py for security problems")
	if r.Params.FilePath != "utils.py" {
		t.Errorf("FilePath = %q, want utils.py", r.Params.FilePath)
	}
	if r.Params.Focus != "security" {
		t.Errorf("Focus = %q, want security", r.Params.Focus)
	}

	r = Classify("generate a python class for a linked list")
	if r.Params.Language != "python" {
		t.Errorf("Language = %q, want python", r.Params.Language)
	}
	if r.Params.Template != "class" {
		t.Errorf("Template = %q, want class", r.Params.Template)
	}
}

func TestClassify_Confidence(t *testing.T) {
	r := Classify("explain this code")
	if !r.Confident(0.7) {
		t.Errorf("leading-verb match should be confident, got %.2f", r.Confidence)
	}

	r = Classify("hmm interesting weather")
	if r.Confident(0.7) {
		t.Errorf("chat fallback should not be confident, got %.2f", r.Confidence)
	}
	if r.Type != TypeChat {
		t.Errorf("fallback type = %s, want chat", r.Type)
	}
}

func TestClassify_EmptyInput(t *testing.T) {
	r := Classify("   ")
	if r.Type != TypeChat {
		t.Errorf("empty input type = %s, want chat", r.Type)
	}
}
