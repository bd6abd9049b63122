package ui

import (
	"strings"

	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/lipgloss"
)

// Column is a table column. A zero Width sizes the column to its widest
// cell.
type Column struct {
	Title string
	Width int
}

// RenderTable renders a static table for command output.
func RenderTable(columns []Column, rows [][]string) string {
	if len(rows) == 0 {
		return ""
	}

	cols := make([]table.Column, len(columns))
	for i, c := range columns {
		width := c.Width
		if width == 0 {
			width = lipgloss.Width(c.Title)
			for _, row := range rows {
				if i < len(row) && lipgloss.Width(row[i]) > width {
					width = lipgloss.Width(row[i])
				}
			}
		}
		cols[i] = table.Column{Title: c.Title, Width: width}
	}
	tableRows := make([]table.Row, len(rows))
	for i, row := range rows {
		tableRows[i] = table.Row(row)
	}

	t := table.New(
		table.WithColumns(cols),
		table.WithRows(tableRows),
		table.WithFocused(false),
		table.WithHeight(len(rows)+1),
	)
	s := table.DefaultStyles()
	s.Header = s.Header.
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(ColorMuted).
		BorderBottom(true).
		Bold(true).
		Foreground(ColorPrimary)
	s.Cell = s.Cell.Foreground(ColorPrimary)
	// Unfocused tables still mark row 0 as selected.
	s.Selected = lipgloss.NewStyle()
	t.SetStyles(s)
	return t.View()
}

// ReportRow is one line of a status report.
type ReportRow struct {
	Status     string // "pass", "warn" or "fail"
	Message    string
	Suggestion string
}

// ReportSection groups rows under a heading.
type ReportSection struct {
	Title string
	Rows  []ReportRow
}

// RenderReport renders sections of status rows, with suggestions under the
// rows that did not pass. Empty sections are skipped.
func RenderReport(sections []ReportSection) string {
	heading := lipgloss.NewStyle().Bold(true).Foreground(ColorPrimary)
	muted := lipgloss.NewStyle().Foreground(ColorMuted)

	var b strings.Builder
	for _, sec := range sections {
		if len(sec.Rows) == 0 {
			continue
		}
		b.WriteString(heading.Render(sec.Title))
		b.WriteString("\n")
		for _, row := range sec.Rows {
			b.WriteString("  ")
			b.WriteString(StatusIcon(row.Status))
			b.WriteString(" ")
			b.WriteString(row.Message)
			b.WriteString("\n")
			if row.Suggestion != "" && row.Status != "pass" {
				for _, line := range strings.Split(row.Suggestion, "\n") {
					b.WriteString("    ")
					b.WriteString(muted.Render(strings.TrimSpace(line)))
					b.WriteString("\n")
				}
			}
		}
		b.WriteString("\n")
	}
	return b.String()
}

// StatusIcon returns the colored symbol for a status name.
func StatusIcon(status string) string {
	switch status {
	case "pass":
		return lipgloss.NewStyle().Foreground(ColorSuccess).Render(SymbolPass)
	case "warn":
		return lipgloss.NewStyle().Foreground(ColorWarning).Render(SymbolWarn)
	case "fail":
		return lipgloss.NewStyle().Foreground(ColorError).Render(SymbolFail)
	default:
		return lipgloss.NewStyle().Foreground(ColorMuted).Render(SymbolPending)
	}
}
