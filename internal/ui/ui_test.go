package ui

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/rileyhilliard/sysmon/internal/theme"
)

func TestRenderHeader(t *testing.T) {
	out := RenderHeader("v1.2.0", "diagnostics")
	assert.Contains(t, out, "sysmon")
	assert.Contains(t, out, "v1.2.0")
	assert.Contains(t, out, "diagnostics")
	assert.Contains(t, out, strings.Repeat("━", HeaderWidth))
}

func TestRenderTable(t *testing.T) {
	assert.Empty(t, RenderTable([]Column{{Title: "KEY"}}, nil))

	out := RenderTable(
		[]Column{{Title: "KEY"}, {Title: "VALUE"}},
		[][]string{{"update_ms", "2500"}, {"color_theme", "Default"}},
	)
	assert.Contains(t, out, "KEY")
	assert.Contains(t, out, "update_ms")
	assert.Contains(t, out, "2500")
	assert.Contains(t, out, "color_theme")
}

func TestRenderReport(t *testing.T) {
	out := RenderReport([]ReportSection{
		{Title: "CONFIG", Rows: []ReportRow{
			{Status: "pass", Message: "Settings valid", Suggestion: "hidden"},
			{Status: "warn", Message: "No config file", Suggestion: "Run 'sysmon config init'"},
		}},
		{Title: "REMOTE"},
	})

	assert.Contains(t, out, "CONFIG")
	assert.Contains(t, out, "Settings valid")
	assert.Contains(t, out, "Run 'sysmon config init'")
	assert.NotContains(t, out, "hidden")
	assert.NotContains(t, out, "REMOTE")
}

func TestGradientBar(t *testing.T) {
	grad := make([]string, 101)
	for i := range grad {
		grad[i] = "<" + string(rune('a'+i%26)) + ">"
	}

	bar := GradientBar(grad, 3)
	assert.True(t, strings.HasPrefix(bar, grad[0]+"█"))
	assert.Contains(t, bar, grad[50]+"█")
	assert.Contains(t, bar, grad[100]+"█")
	assert.Equal(t, 3, strings.Count(bar, "█"))

	assert.Empty(t, GradientBar(nil, 10))
}

func TestRenderPreview(t *testing.T) {
	out := RenderPreview(theme.Default(theme.Options{}))
	assert.Contains(t, out, "Theme Default (truecolor)")
	assert.Contains(t, out, "main_fg")
	assert.Contains(t, out, "#cccccc")
	assert.Contains(t, out, "download")
	assert.NotContains(t, out, "cpu_start")
}

func TestSpinner(t *testing.T) {
	var buf bytes.Buffer
	s := NewSpinner(&buf, "Connecting to box")
	s.Start()
	s.Start()
	assert.True(t, s.Running())
	time.Sleep(2 * spinnerInterval)
	s.Success()

	assert.False(t, s.Running())
	out := buf.String()
	assert.Contains(t, out, "Connecting to box...")
	assert.Contains(t, out, SymbolPass+" Connecting to box")

	buf.Reset()
	s = NewSpinner(&buf, "Connecting")
	s.Start()
	s.Fail()
	assert.Contains(t, buf.String(), SymbolFail)
}
