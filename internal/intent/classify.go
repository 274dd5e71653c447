// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package intent

import (
	"regexp"
	"strings"
)

// Type is the category a free-text request is classified into.
type Type string

const (
	TypeExplain     Type = "explain"
	TypeReview      Type = "review"
	TypeGenerate    Type = "generate"
	TypeRefactor    Type = "refactor"
	TypeDebug       Type = "debug"
	TypeDocument    Type = "document"
	TypeTest        Type = "test"
	TypeModelMgmt   Type = "model_management"
	TypeConfigMgmt  Type = "config_management"
	TypeComplexTask Type = "complex_task"
	TypeChat        Type = "chat"
)

// Result is a classified request with extracted parameters.
type Result struct {
	Type       Type
	Confidence float64
	Params     Params
}

// Params are hints pulled out of the request text.
type Params struct {
	FilePath string
	Language string
	Focus    string // review focus: security, performance, style, bugs
	Template string // generate template: function, class, api_endpoint
}

// Confident reports whether the classification cleared the given threshold.
func (r Result) Confident(threshold float64) bool {
	return r.Confidence >= threshold
}

// pattern pairs a compiled regex with the confidence boost it grants.
type pattern struct {
	re    *regexp.Regexp
	boost float64
}

// Ordering matters: complex-task patterns are checked before generate so
// "create a function and save it to utils.py" plans a file write instead of
// printing code.
var classifierOrder = []Type{
	TypeComplexTask,
	TypeExplain,
	TypeReview,
	TypeRefactor,
	TypeDebug,
	TypeDocument,
	TypeTest,
	TypeGenerate,
	TypeModelMgmt,
	TypeConfigMgmt,
}

var patterns = map[Type][]pattern{
	TypeComplexTask: {
		{regexp.MustCompile(`\b(create|generate|write|build|make)\b.*\b(and\s+)?(save|write)\b.*\b(to|into|in)\b`), 0.4},
		{regexp.MustCompile(`\b(create|generate|build|make)\b.*\.(py|js|ts|go|rs|java|c|cpp|rb|php|md|json|yaml|yml|html|css)\b`), 0.4},
		{regexp.MustCompile(`\bfile\s+(called|named)\b`), 0.4},
		{regexp.MustCompile(`\b(step by step|multi-step|workflow|pipeline)\b`), 0.2},
	},
	TypeExplain: {
		{regexp.MustCompile(`^explain\b`), 0.5},
		{regexp.MustCompile(`\b(explain|describe|understand|what does|how does)\b.*\b(code|function|class|method|file)\b`), 0.3},
	},
	TypeReview: {
		{regexp.MustCompile(`^review\b`), 0.5},
		{regexp.MustCompile(`\b(review|audit|inspect|check)\b.*\b(code|file)\b`), 0.3},
		{regexp.MustCompile(`\b(find|look for|check for)\b.*\b(bugs?|issues?|problems?|vulnerabilit)`), 0.2},
	},
	TypeRefactor: {
		{regexp.MustCompile(`^refactor\b`), 0.5},
		{regexp.MustCompile(`\b(refactor|restructure|clean up|simplify|modernize)\b`), 0.3},
		{regexp.MustCompile(`\bmake\b.*\b(code\s+)?(better|cleaner|faster)\b`), 0.2},
	},
	TypeDebug: {
		{regexp.MustCompile(`^debug\b`), 0.5},
		{regexp.MustCompile(`\b(debug|fix|diagnose)\b.*\b(error|bug|crash|issue|problem)\b`), 0.3},
		{regexp.MustCompile(`\b(not working|broken|failing|crashes)\b`), 0.2},
	},
	TypeDocument: {
		{regexp.MustCompile(`^document\b`), 0.5},
		{regexp.MustCompile(`\b(document|docstring|documentation)\b`), 0.3},
		{regexp.MustCompile(`\b(write|generate|add)\b.*\b(readme|docs)\b`), 0.3},
	},
	TypeTest: {
		{regexp.MustCompile(`^test\b`), 0.4},
		{regexp.MustCompile(`\b(write|generate|create|add)\b.*\btests?\b`), 0.3},
		{regexp.MustCompile(`\b(unit|integration)\s+tests?\b`), 0.3},
	},
	TypeGenerate: {
		{regexp.MustCompile(`^(generate|create|write|build|implement)\b`), 0.3},
		{regexp.MustCompile(`\b(generate|create|write|implement)\b.*\b(code|function|class|script|program|snippet)\b`), 0.3},
	},
	TypeModelMgmt: {
		{regexp.MustCompile(`^models?\b`), 0.5},
		{regexp.MustCompile(`\bmodels?\b.*\b(list|info|pull|download|show)\b`), 0.3},
		{regexp.MustCompile(`\b(list|pull|download|switch)\b.*\bmodels?\b`), 0.3},
	},
	TypeConfigMgmt: {
		{regexp.MustCompile(`^config\b`), 0.5},
		{regexp.MustCompile(`\b(config|configuration|settings?)\b.*\b(set|get|show|change|reset)\b`), 0.3},
		{regexp.MustCompile(`\b(set|change|show|reset)\b.*\b(config|configuration|settings?)\b`), 0.3},
	},
}

// keyword fallbacks for input that matches no pattern.
var fallbackKeywords = map[Type][]string{
	TypeExplain:    {"explain", "describe", "understand"},
	TypeGenerate:   {"create", "generate", "make", "build"},
	TypeDebug:      {"error", "bug", "broken"},
	TypeConfigMgmt: {"config", "settings"},
}

// Classify categorizes a free-text request. Unmatched input falls back to
// general chat with low confidence so the caller can route it to the model
// as-is.
func Classify(input string) Result {
	text := strings.ToLower(strings.TrimSpace(input))
	if text == "" {
		return Result{Type: TypeChat, Confidence: 0.1}
	}

	for _, typ := range classifierOrder {
		for _, p := range patterns[typ] {
			if p.re.MatchString(text) {
				conf := baseConfidence(text, typ) + p.boost
				if conf > 1.0 {
					conf = 1.0
				}
				return Result{
					Type:       typ,
					Confidence: conf,
					Params:     extractParams(text, typ),
				}
			}
		}
	}

	// Keyword fallback.
	best := TypeChat
	bestScore := 0
	for typ, words := range fallbackKeywords {
		score := 0
		for _, w := range words {
			if strings.Contains(text, w) {
				score++
			}
		}
		if score > bestScore {
			bestScore = score
			best = typ
		}
	}
	conf := 0.1
	if bestScore > 0 {
		conf = 0.2 * float64(bestScore)
		if conf > 0.6 {
			conf = 0.6
		}
	}
	return Result{Type: best, Confidence: conf, Params: extractParams(text, best)}
}

// baseConfidence starts at 0.5 and grows with corroborating vocabulary.
func baseConfidence(text string, typ Type) float64 {
	conf := 0.5
	codeWords := []string{"code", "function", "class", "method", "variable", "algorithm"}
	for _, w := range codeWords {
		if strings.Contains(text, w) {
			conf += 0.05
		}
	}
	return conf
}

var (
	filePathRe = regexp.MustCompile(`(\S+\.\w{1,5})(?:\s|$)`)
	langRes    = []struct {
		re   *regexp.Regexp
		lang string
	}{
		{regexp.MustCompile(`\bpython\b`), "python"},
		{regexp.MustCompile(`\b(javascript|js)\b`), "javascript"},
		{regexp.MustCompile(`\btypescript\b`), "typescript"},
		{regexp.MustCompile(`\bgolang\b|\bgo\s+(code|function|program)\b`), "go"},
		{regexp.MustCompile(`\brust\b`), "rust"},
		{regexp.MustCompile(`\bjava\b`), "java"},
		{regexp.MustCompile(`\b(c\+\+|cpp)\b`), "cpp"},
	}
)

// extractParams pulls file paths, languages, and command-specific hints out
// of the request text.
func extractParams(text string, typ Type) Params {
	var p Params

	if m := filePathRe.FindStringSubmatch(text); m != nil {
		p.FilePath = m[1]
	}
	for _, lr := range langRes {
		if lr.re.MatchString(text) {
			p.Language = lr.lang
			break
		}
	}

	switch typ {
	case TypeReview:
		for _, focus := range []string{"security", "performance", "style", "bugs"} {
			if strings.Contains(text, strings.TrimSuffix(focus, "s")) || strings.Contains(text, focus) {
				p.Focus = focus
				break
			}
		}
	case TypeGenerate, TypeComplexTask:
		switch {
		case strings.Contains(text, "endpoint") || strings.Contains(text, "api"):
			p.Template = "api_endpoint"
		case strings.Contains(text, "class"):
			p.Template = "class"
		case strings.Contains(text, "function"):
			p.Template = "function"
		}
	}
	return p
}
