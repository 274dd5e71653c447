// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package render

import (
	"strings"

	"github.com/alecthomas/chroma/v2"
	"github.com/alecthomas/chroma/v2/formatters"
	"github.com/alecthomas/chroma/v2/lexers"
	chromaStyles "github.com/alecthomas/chroma/v2/styles"
	"github.com/charmbracelet/glamour"
)

// Renderer turns model output into terminal text according to the active
// theme and color settings.
type Renderer struct {
	theme    Theme
	color    bool
	width    int
	markdown *glamour.TermRenderer
}

// New creates a renderer. width bounds word wrap; zero means 80. When color
// is false, markdown renders through glamour's notty style and code
// highlighting is disabled entirely.
func New(theme Theme, color bool, width int) *Renderer {
	if width <= 0 {
		width = 80
	}
	style := theme.GlamourStyle
	if !color {
		style = "notty"
	}
	md, err := glamour.NewTermRenderer(
		glamour.WithStandardStyle(style),
		glamour.WithWordWrap(width),
	)
	if err != nil {
		md = nil // fall back to raw text
	}
	return &Renderer{theme: theme, color: color, width: width, markdown: md}
}

// Theme returns the active theme.
func (r *Renderer) Theme() Theme {
	return r.theme
}

// Markdown renders markdown text for the terminal. On renderer failure the
// raw text comes back unchanged, never an error, because display is best
// effort once the model has answered.
func (r *Renderer) Markdown(text string) string {
	if r.markdown == nil {
		return text
	}
	out, err := r.markdown.Render(text)
	if err != nil {
		return text
	}
	return out
}

// Code syntax-highlights raw code. Language may be empty, in which case
// chroma analyses the content. Highlighting is skipped when color is off or
// the theme has no chroma style.
func (r *Renderer) Code(code, language string) string {
	if !r.color || r.theme.ChromaStyle == "" {
		return code
	}

	lexer := lexers.Get(language)
	if lexer == nil {
		lexer = lexers.Analyse(code)
	}
	if lexer == nil {
		lexer = lexers.Fallback
	}
	lexer = chroma.Coalesce(lexer)

	style := chromaStyles.Get(r.theme.ChromaStyle)
	if style == nil {
		style = chromaStyles.Fallback
	}
	formatter := formatters.Get("terminal256")
	if formatter == nil {
		formatter = formatters.Fallback
	}

	iterator, err := lexer.Tokenise(nil, code)
	if err != nil {
		return code
	}
	var buf strings.Builder
	if err := formatter.Format(&buf, style, iterator); err != nil {
		return code
	}
	return buf.String()
}

// =============================================================================
// CODE EXTRACTION
// =============================================================================

// ExtractCodeBlocks returns the contents of all fenced code blocks in text,
// used by --output-file to save just the code from a response. When the
// response has no fences the whole text is returned as a single block.
func ExtractCodeBlocks(text string) []string {
	var blocks []string
	var current []string
	inBlock := false

	for _, line := range strings.Split(text, "\n") {
		if strings.HasPrefix(strings.TrimSpace(line), "```") {
			if inBlock {
				blocks = append(blocks, strings.Join(current, "\n"))
				current = nil
			}
			inBlock = !inBlock
			continue
		}
		if inBlock {
			current = append(current, line)
		}
	}
	// Unterminated fence: keep what we saw.
	if inBlock && len(current) > 0 {
		blocks = append(blocks, strings.Join(current, "\n"))
	}

	if len(blocks) == 0 && strings.TrimSpace(text) != "" {
		blocks = append(blocks, strings.TrimRight(text, "\n"))
	}
	return blocks
}

// FirstCodeBlock returns the first fenced block, or the whole text when no
// fences are present.
func FirstCodeBlock(text string) string {
	blocks := ExtractCodeBlocks(text)
	if len(blocks) == 0 {
		return ""
	}
	return blocks[0]
}
