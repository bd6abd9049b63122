package app

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/rileyhilliard/sysmon/internal/input"
	"github.com/rileyhilliard/sysmon/internal/term"
	"github.com/rileyhilliard/sysmon/internal/theme"
)

// helpBinding is one row of the help overlay.
type helpBinding struct {
	Key  string
	Desc string
}

var helpBindings = []helpBinding{
	{Key: "Esc / m", Desc: "Show the main menu"},
	{Key: "o / F2", Desc: "Show the options menu"},
	{Key: "h / F1", Desc: "Show this help"},
	{Key: "q / Ctrl+C", Desc: "Quit"},
	{Key: "Ctrl+Z", Desc: "Suspend to the shell"},
	{Key: "+ / -", Desc: "Change the update interval"},
	{Key: "1 - 4", Desc: "Toggle the cpu, mem, net and proc boxes"},
	{Key: "up / down", Desc: "Select a process"},
	{Key: "PgUp / PgDn", Desc: "Scroll the process list a page"},
	{Key: "Home / End", Desc: "Jump to the first or last process"},
	{Key: "left / right", Desc: "Change the process sort key"},
	{Key: "r", Desc: "Reverse the sort order"},
	{Key: "e", Desc: "Toggle the process tree"},
	{Key: "space", Desc: "Collapse or expand the selected tree node"},
	{Key: "c", Desc: "Toggle per-core process cpu usage"},
	{Key: "f / Delete", Desc: "Filter the process list / clear the filter"},
	{Key: "Enter", Desc: "Show details for the selected process"},
	{Key: "t / k / i", Desc: "Send TERM, KILL or INT to the process"},
	{Key: "g / s / d", Desc: "Toggle mem graphs, swap and disks"},
	{Key: "b / n", Desc: "Previous or next network interface"},
	{Key: "a / y", Desc: "Toggle net auto scaling and scale sync"},
	{Key: "z", Desc: "Zero the network totals"},
}

type helpMenu struct {
	top int
}

func lipColor(t *theme.Theme, key string) lipgloss.Color {
	return lipgloss.Color(t.Color(key).Hex())
}

// visible is how many bindings fit between the box border and the footer.
func (m *helpMenu) visible(u *UI) int {
	l := u.engine.Layout()
	n := l.Lines - 10
	if n > len(helpBindings) {
		n = len(helpBindings)
	}
	if n < 1 {
		n = 1
	}
	return n
}

func (m *helpMenu) view(u *UI) string {
	t := u.env.Theme()
	box := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipColor(t, "div_line")).
		Padding(0, 2)
	title := lipgloss.NewStyle().Foreground(lipColor(t, "title")).Bold(true).MarginBottom(1)
	key := lipgloss.NewStyle().Foreground(lipColor(t, "hi_fg")).Bold(true).Width(16)
	desc := lipgloss.NewStyle().Foreground(lipColor(t, "main_fg"))
	footer := lipgloss.NewStyle().Foreground(lipColor(t, "inactive_fg")).MarginTop(1)

	n := m.visible(u)
	end := m.top + n
	if end > len(helpBindings) {
		end = len(helpBindings)
	}
	lines := []string{title.Render("Keyboard Shortcuts")}
	for _, b := range helpBindings[m.top:end] {
		lines = append(lines, key.Render(b.Key)+desc.Render(b.Desc))
	}
	hint := "Press any key to close"
	if n < len(helpBindings) {
		hint = "up / down to scroll, any other key to close"
	}
	lines = append(lines, footer.Render(hint))
	return box.Render(strings.Join(lines, "\n"))
}

func (m *helpMenu) render(u *UI) string {
	l := u.engine.Layout()
	view := m.view(u)
	w, h := lipgloss.Width(view), lipgloss.Height(view)
	x := (l.Cols-w)/2 + 1
	y := (l.Lines-h)/2 + 1
	if x < 1 {
		x = 1
	}
	if y < 1 {
		y = 1
	}

	var b strings.Builder
	for i, line := range strings.Split(view, "\n") {
		b.WriteString(term.MoveTo(y+i, x) + line)
	}
	b.WriteString(u.env.Theme().Reset())
	return b.String()
}

func (m *helpMenu) handle(u *UI, ev input.Event) bool {
	last := len(helpBindings) - m.visible(u)
	switch ev.Key {
	case input.KeyUp, input.KeyMouseScrollUp:
		if m.top > 0 {
			m.top--
		}
		return false
	case input.KeyDown, input.KeyMouseScrollDown:
		if m.top < last {
			m.top++
		}
		return false
	case input.KeyMouseClick:
		return false
	}
	return true
}
