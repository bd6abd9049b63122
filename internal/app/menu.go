package app

import (
	"fmt"
	"strings"

	"github.com/rileyhilliard/sysmon/internal/collector"
	"github.com/rileyhilliard/sysmon/internal/draw"
	"github.com/rileyhilliard/sysmon/internal/errors"
	"github.com/rileyhilliard/sysmon/internal/input"
	"github.com/rileyhilliard/sysmon/internal/metrics"
	"github.com/rileyhilliard/sysmon/internal/term"
	"github.com/rileyhilliard/sysmon/internal/theme"
)

// menu is a modal overlay. The panels keep collecting behind it when
// background_update is on, but only their saved copies change.
type menu interface {
	// render draws the menu for the current terminal size.
	render(u *UI) string
	// handle processes one key and reports whether the menu closed. A menu
	// opens another by setting u.next before closing.
	handle(u *UI, ev input.Event) bool
}

// runMenu shows u.next, and whatever it chains to, until the last one
// closes, then repaints the panels.
func (u *UI) runMenu() {
	u.env.SetMenuActive(true)
	for u.next != nil && !u.quitting {
		m := u.next
		u.next = nil
		u.menuLoop(m)
	}
	u.next = nil
	u.draw.Forget(draw.MenuBackground, draw.Menu)
	u.env.SetMenuActive(false)
	if !u.quitting {
		u.redraw()
	}
}

func (u *UI) menuLoop(m menu) {
	u.showMenu(m)
	for !u.quitting {
		if u.pollFatal() {
			return
		}
		u.handleSignals()
		if u.env.TakeRelayout() {
			u.relayout(true)
			u.showMenu(m)
		}

		if left := u.timer.Left(u.interval()); left > 0 && u.reader.Wait(left) {
			closed := false
			for !closed && !u.quitting {
				ev, ok := u.reader.Next()
				if !ok {
					break
				}
				if ev.Key == keyWake {
					continue
				}
				closed = m.handle(u, ev)
			}
			if closed {
				return
			}
			u.showMenu(m)
			continue
		}

		u.timer.Stamp()
		if u.cfg.BackgroundUpdate {
			u.sched.Collect(collector.CollectRequest{})
			u.sched.Wait()
			u.showMenu(m)
		}
	}
}

// showMenu paints the dimmed panels and the menu on top.
func (u *UI) showMenu(m menu) {
	t := u.env.Theme()
	backdrop := t.Reset() + term.Clear + term.Dark + t.Esc("inactive_fg") + term.Uncolor(u.draw.Snapshot()) + term.Reset
	if err := u.draw.Buffer(draw.MenuBackground, backdrop, draw.Opts{Z: draw.ZMenuBg, NoSave: true}); err != nil {
		u.log.Warn("Drawing menu failed: %v", err)
		return
	}
	if err := u.draw.Buffer(draw.Menu, m.render(u), draw.Opts{Z: draw.ZMenu, NoSave: true}); err != nil {
		u.log.Warn("Drawing menu failed: %v", err)
		return
	}
	if err := u.draw.Flush(false, draw.MenuBackground, draw.Menu); err != nil {
		u.log.Warn("Drawing menu failed: %v", err)
	}
}

// menuFrame centers a width x height box on the screen and returns its
// frame with the theme colors applied.
func (u *UI) menuFrame(title string, width, height int) draw.Frame {
	l := u.engine.Layout()
	t := u.env.Theme()
	if width > l.Cols {
		width = l.Cols
	}
	if height > l.Lines {
		height = l.Lines
	}
	return draw.Frame{
		X:          (l.Cols-width)/2 + 1,
		Y:          (l.Lines-height)/2 + 1,
		Width:      width,
		Height:     height,
		Title:      title,
		Fill:       true,
		LineColor:  t.Esc("div_line"),
		TitleColor: t.Esc("title"),
		Reset:      t.Reset(),
	}
}

// highlight renders s as a selected row of the given width.
func highlight(t *theme.Theme, s string, width int, selected bool) string {
	s = term.Fit(s, width)
	if selected {
		return t.Esc("selected_bg") + t.Esc("selected_fg") + term.Bold + s + term.Unbold + t.Reset()
	}
	return t.Esc("main_fg") + s
}

type mainMenu struct {
	selected int
}

var mainMenuItems = []string{"Options", "Help", "Quit"}

func (m *mainMenu) render(u *UI) string {
	t := u.env.Theme()
	const width = 30
	frame := u.menuFrame("menu", width, len(mainMenuItems)*2+3)
	var b strings.Builder
	b.WriteString(draw.Box(frame))
	for i, item := range mainMenuItems {
		row := highlight(t, centerText(item, width-4), width-4, i == m.selected)
		b.WriteString(term.MoveTo(frame.Y+2+i*2, frame.X+2) + row)
	}
	b.WriteString(t.Reset())
	return b.String()
}

func (m *mainMenu) handle(u *UI, ev input.Event) bool {
	n := len(mainMenuItems)
	switch ev.Key {
	case input.KeyUp, input.KeyMouseScrollUp, input.KeyShiftTab:
		m.selected = (m.selected - 1 + n) % n
	case input.KeyDown, input.KeyMouseScrollDown, input.KeyTab:
		m.selected = (m.selected + 1) % n
	case input.KeyEnter, input.KeySpace:
		return m.choose(u, mainMenuItems[m.selected])
	case "o", "O", "f2":
		return m.choose(u, "Options")
	case "h", "H", "f1":
		return m.choose(u, "Help")
	case "q", input.KeyCtrlC:
		u.quitting = true
		return true
	case input.KeyEscape, "m", "M":
		return true
	}
	return false
}

func (m *mainMenu) choose(u *UI, item string) bool {
	switch item {
	case "Options":
		u.next = newOptionsMenu(u)
	case "Help":
		u.next = &helpMenu{}
	case "Quit":
		u.quitting = true
	}
	return true
}

// signalMenu asks before sending sig to pid.
type signalMenu struct {
	pid  int32
	name string
	sig  metrics.Signal
	err  error
}

func (m *signalMenu) render(u *UI) string {
	t := u.env.Theme()
	const width = 44
	frame := u.menuFrame(strings.ToLower(m.sig.String()), width, 7)
	var b strings.Builder
	b.WriteString(draw.Box(frame))

	lines := []string{
		fmt.Sprintf("Send SIG%s to %d", m.sig, m.pid),
		fmt.Sprintf("(%s)", m.name),
		"",
		"[Y]es   [N]o",
	}
	if m.err != nil {
		lines = []string{
			fmt.Sprintf("SIG%s to %d failed", m.sig, m.pid),
			term.Truncate(errors.Oneline(m.err), width-4),
			"",
			"Press any key",
		}
	}
	for i, line := range lines {
		color := t.Esc("main_fg")
		if i == len(lines)-1 {
			color = t.Esc("hi_fg") + term.Bold
		}
		b.WriteString(term.MoveTo(frame.Y+1+i, frame.X+2) + color + centerText(line, width-4) + term.Unbold)
	}
	b.WriteString(t.Reset())
	return b.String()
}

func (m *signalMenu) handle(u *UI, ev input.Event) bool {
	if m.err != nil {
		return true
	}
	switch ev.Key {
	case "y", "Y", input.KeyEnter:
		if err := u.provider.SendSignal(u.ctx, m.pid, m.sig); err != nil {
			u.log.Warn("SIG%s to %d failed: %v", m.sig, m.pid, err)
			m.err = err
			return false
		}
		u.log.Info("Sent SIG%s to %d (%s)", m.sig, m.pid, m.name)
		u.collectProc(true)
		return true
	case "n", "N", "q", input.KeyEscape:
		return true
	}
	return false
}

// centerText pads s to width, centered. Longer strings are cut.
func centerText(s string, width int) string {
	n := term.Width(s)
	if n >= width {
		return term.Truncate(s, width)
	}
	left := (width - n) / 2
	return strings.Repeat(" ", left) + s + strings.Repeat(" ", width-n-left)
}
