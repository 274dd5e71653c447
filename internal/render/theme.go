// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package render

import (
	"github.com/charmbracelet/lipgloss"
)

// Theme maps a named color scheme onto the styles the CLI prints with.
type Theme struct {
	Name string

	// Glamour style name for markdown rendering.
	GlamourStyle string

	// Chroma style name for raw code highlighting.
	ChromaStyle string

	Title     lipgloss.Style
	Section   lipgloss.Style
	Label     lipgloss.Style
	Value     lipgloss.Style
	Success   lipgloss.Style
	Error     lipgloss.Style
	Warning   lipgloss.Style
	Dim       lipgloss.Style
	Highlight lipgloss.Style
}

// NewTheme builds a theme by name. Unknown names fall back to dark.
func NewTheme(name string) Theme {
	switch name {
	case "light":
		return Theme{
			Name:         "light",
			GlamourStyle: "light",
			ChromaStyle:  "github",
			Title:        lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("25")),
			Section:      lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("0")),
			Label:        lipgloss.NewStyle().Foreground(lipgloss.Color("240")),
			Value:        lipgloss.NewStyle().Foreground(lipgloss.Color("235")),
			Success:      lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("28")),
			Error:        lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("124")),
			Warning:      lipgloss.NewStyle().Foreground(lipgloss.Color("130")),
			Dim:          lipgloss.NewStyle().Foreground(lipgloss.Color("245")),
			Highlight:    lipgloss.NewStyle().Foreground(lipgloss.Color("28")),
		}
	case "minimal":
		// Minimal keeps structure (bold headers) but no color.
		plain := lipgloss.NewStyle()
		return Theme{
			Name:         "minimal",
			GlamourStyle: "notty",
			ChromaStyle:  "",
			Title:        lipgloss.NewStyle().Bold(true),
			Section:      lipgloss.NewStyle().Bold(true),
			Label:        plain,
			Value:        plain,
			Success:      plain,
			Error:        plain,
			Warning:      plain,
			Dim:          plain,
			Highlight:    plain,
		}
	default:
		return Theme{
			Name:         "dark",
			GlamourStyle: "dark",
			ChromaStyle:  "monokai",
			Title:        lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("39")),
			Section:      lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("255")),
			Label:        lipgloss.NewStyle().Foreground(lipgloss.Color("245")),
			Value:        lipgloss.NewStyle().Foreground(lipgloss.Color("252")),
			Success:      lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("42")),
			Error:        lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("196")),
			Warning:      lipgloss.NewStyle().Foreground(lipgloss.Color("214")),
			Dim:          lipgloss.NewStyle().Foreground(lipgloss.Color("242")),
			Highlight:    lipgloss.NewStyle().Foreground(lipgloss.Color("82")),
		}
	}
}
