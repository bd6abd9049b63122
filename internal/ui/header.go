package ui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// HeaderWidth is the width of the divider under headers and reports.
const HeaderWidth = 50

// Divider returns a full width rule.
func Divider() string {
	return lipgloss.NewStyle().Foreground(ColorMuted).Render(strings.Repeat("━", HeaderWidth))
}

// RenderHeader renders "sysmon <version>" with an optional subtitle and a
// divider.
func RenderHeader(version, subtitle string) string {
	var b strings.Builder
	b.WriteString(lipgloss.NewStyle().Foreground(ColorTitle).Bold(true).Render("sysmon"))
	if version != "" {
		b.WriteString(" ")
		b.WriteString(lipgloss.NewStyle().Foreground(ColorAccent).Render(version))
	}
	b.WriteString("\n")
	if subtitle != "" {
		b.WriteString(lipgloss.NewStyle().Foreground(ColorMuted).Render(subtitle))
		b.WriteString("\n")
	}
	b.WriteString(Divider())
	b.WriteString("\n")
	return b.String()
}
