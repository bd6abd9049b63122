package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/rileyhilliard/sysmon/internal/term"
	"github.com/rileyhilliard/sysmon/internal/theme"
)

// PreviewWidth is the number of cells in a gradient bar.
const PreviewWidth = 40

// RenderPreview shows every base color of t as a swatch and every gradient
// as a bar, using the theme's own escapes so the color mode applies.
func RenderPreview(t *theme.Theme) string {
	var b strings.Builder
	header := lipgloss.NewStyle().Bold(true).Foreground(ColorPrimary)
	muted := lipgloss.NewStyle().Foreground(ColorMuted)

	b.WriteString(header.Render(fmt.Sprintf("Theme %s (%s)", t.Name, t.Mode)))
	b.WriteString("\n\n")

	for _, key := range theme.Keys() {
		if isGradientStop(key) {
			continue
		}
		hex := t.Color(key).Hex()
		if hex == "" {
			hex = "terminal default"
		}
		fmt.Fprintf(&b, "  %s %-12s %s\n", swatch(t, key), key, muted.Render(hex))
	}

	b.WriteString("\n")
	for _, name := range theme.GradientNames {
		fmt.Fprintf(&b, "  %-11s %s\n", name, GradientBar(t.Gradient(name), PreviewWidth))
	}
	return b.String()
}

func swatch(t *theme.Theme, key string) string {
	if key == "main_bg" || key == "selected_bg" {
		return t.Bg(key) + "    " + term.Reset
	}
	return t.Fg(key) + "████" + term.Reset
}

// GradientBar samples width cells evenly from a 101 step gradient.
func GradientBar(gradient []string, width int) string {
	if len(gradient) == 0 || width <= 0 {
		return ""
	}
	var b strings.Builder
	for i := 0; i < width; i++ {
		idx := 0
		if width > 1 {
			idx = i * (len(gradient) - 1) / (width - 1)
		}
		b.WriteString(gradient[idx])
		b.WriteString("█")
	}
	b.WriteString(term.Reset)
	return b.String()
}

func isGradientStop(key string) bool {
	return strings.HasSuffix(key, "_start") || strings.HasSuffix(key, "_mid") || strings.HasSuffix(key, "_end")
}
