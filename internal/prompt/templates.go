// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package prompt

import (
	"fmt"
	"strings"

	"github.com/jeranaias/olla-cli/internal/ollama"
)

// Valid option values per command. The CLI layer rejects anything else
// before a request is built.
var (
	DetailLevels    = []string{"brief", "normal", "comprehensive"}
	ReviewFocuses   = []string{"security", "performance", "style", "bugs", "all"}
	RefactorTypes   = []string{"simplify", "optimize", "modernize", "general"}
	GenTemplates    = []string{"function", "class", "api_endpoint"}
	DocumentFormats = []string{"docstring", "markdown", "rst", "google", "numpy"}
	DocumentTypes   = []string{"api", "readme", "inline"}
)

// ValidOption reports whether value is in the allowed set (empty allowed).
func ValidOption(value string, allowed []string) bool {
	if value == "" {
		return true
	}
	for _, a := range allowed {
		if value == a {
			return true
		}
	}
	return false
}

// codeBlock wraps raw code for inclusion in a user message.
func codeBlock(code string) string {
	return "```\n" + strings.TrimRight(code, "\n") + "\n```"
}

// build assembles the two-message prompt every code command uses.
func build(system, user string) []ollama.Message {
	return []ollama.Message{
		ollama.NewSystemMessage(system),
		ollama.NewUserMessage(user),
	}
}

// =============================================================================
// CODE COMMAND TEMPLATES
// =============================================================================

// Explain builds the prompt for the explain command.
func Explain(code, lineRange, detailLevel string) []ollama.Message {
	system := "Explain what this code does, how it works, and its purpose. Be clear and accurate."
	switch detailLevel {
	case "brief":
		system += " Keep the explanation short: a few sentences covering only the essentials."
	case "comprehensive":
		system += " Be thorough: walk through the control flow, data structures, edge cases, and any non-obvious behavior."
	}

	user := "Code to explain:\n\n" + codeBlock(code)
	if lineRange != "" {
		user = fmt.Sprintf("Focus on lines %s.\n\n%s", lineRange, user)
	}
	return build(system, user)
}

// Review builds the prompt for the review command.
func Review(code, focus string) []ollama.Message {
	system := "Review this code for best practices, potential issues, and improvements. Be specific and reference the code you are commenting on."
	switch focus {
	case "security":
		system += " Focus on security: injection, unsafe input handling, secrets, unsafe deserialization, privilege issues."
	case "performance":
		system += " Focus on performance: algorithmic complexity, needless allocations, I/O in loops, caching opportunities."
	case "style":
		system += " Focus on style: naming, structure, idiomatic usage, readability."
	case "bugs":
		system += " Focus on correctness: logic errors, off-by-one mistakes, unhandled edge cases, error handling gaps."
	}
	return build(system, "Code to review:\n\n"+codeBlock(code))
}

// Refactor builds the prompt for the refactor command.
func Refactor(code, refactorType string) []ollama.Message {
	system := "Suggest refactoring improvements for this code while preserving its behavior. Show the refactored code and explain each change briefly."
	switch refactorType {
	case "simplify":
		system += " Prioritize simplification: remove duplication, flatten nesting, shorten convoluted logic."
	case "optimize":
		system += " Prioritize performance: better algorithms and data structures, fewer allocations."
	case "modernize":
		system += " Prioritize modern language idioms and current standard-library usage."
	}
	return build(system, "Code to refactor:\n\n"+codeBlock(code))
}

// Debug builds the prompt for the debug command. errMsg and stackTrace are
// optional context.
func Debug(code, errMsg, stackTrace string) []ollama.Message {
	system := "Analyze this code for bugs. Identify the most likely cause of the problem and propose a concrete fix."

	var b strings.Builder
	if errMsg != "" {
		fmt.Fprintf(&b, "Error encountered: %s\n\n", errMsg)
	}
	if stackTrace != "" {
		fmt.Fprintf(&b, "Stack trace:\n```\n%s\n```\n\n", strings.TrimRight(stackTrace, "\n"))
	}
	b.WriteString("Code to debug:\n\n")
	b.WriteString(codeBlock(code))
	return build(system, b.String())
}

// Generate builds the prompt for the generate command.
func Generate(description, language, framework, template string) []ollama.Message {
	if language == "" {
		language = "python"
	}
	system := fmt.Sprintf("Generate high-quality %s code for the user's description. Follow the language's conventions and include brief comments where they help.", language)
	if framework != "" {
		system += fmt.Sprintf(" Use the %s framework.", framework)
	}
	switch template {
	case "function":
		system += " Produce a single well-named function."
	case "class":
		system += " Produce a class with a clear public interface."
	case "api_endpoint":
		system += " Produce an API endpoint handler including request validation."
	}
	return build(system, fmt.Sprintf("Generate %s code for: %s", language, description))
}

// Test builds the prompt for the test command.
func Test(code, framework string, coverage bool) []ollama.Message {
	if framework == "" {
		framework = "pytest"
	}
	system := fmt.Sprintf("Generate %s test cases for this code. Cover normal operation, edge cases, and failure modes.", framework)
	if coverage {
		system += " Aim for full branch coverage and note any code that cannot be reached by tests."
	}
	return build(system, "Code to test:\n\n"+codeBlock(code))
}

// Document builds the prompt for the document command.
func Document(code, format, docType string) []ollama.Message {
	system := "Generate documentation for this code."
	switch format {
	case "docstring":
		system += " Produce inline docstrings for each public function and class."
	case "markdown":
		system += " Produce Markdown documentation."
	case "rst":
		system += " Produce reStructuredText documentation."
	case "google":
		system += " Produce Google-style docstrings."
	case "numpy":
		system += " Produce NumPy-style docstrings."
	}
	switch docType {
	case "api":
		system += " Document the public API surface: signatures, parameters, return values, errors."
	case "readme":
		system += " Write it as a README: purpose, installation, usage examples."
	case "inline":
		system += " Add inline comments explaining non-obvious sections."
	}
	return build(system, "Code to document:\n\n"+codeBlock(code))
}

// Chat builds the system prompt for interactive chat mode.
func Chat() ollama.Message {
	return ollama.NewSystemMessage(
		"You are olla, a concise programming assistant running against a local model. " +
			"Answer directly. Use fenced code blocks for code.")
}

// TaskAnalyze builds the prompt the task command uses for free-form analysis
// steps that feed later plan steps.
func TaskAnalyze(request string) []ollama.Message {
	return build(
		"You are executing one step of a multi-step task. Respond with only the requested artifact, no preamble.",
		request)
}
