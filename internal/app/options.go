package app

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/rileyhilliard/sysmon/internal/config"
	"github.com/rileyhilliard/sysmon/internal/draw"
	"github.com/rileyhilliard/sysmon/internal/input"
	"github.com/rileyhilliard/sysmon/internal/logger"
	"github.com/rileyhilliard/sysmon/internal/term"
	"github.com/rileyhilliard/sysmon/internal/theme"
)

// effect is what must happen after an option changed.
type effect int

const (
	effectNone effect = iota
	effectRedraw
	effectTheme
	effectLayout
	effectProc
	effectInterval
	effectLog
)

// option is one editable config value in the options menu.
type option struct {
	key    string
	desc   string
	effect effect
	value  func(c *config.Config) string
	// change steps the value; dir is -1 or +1.
	change func(u *UI, dir int)
}

func boolOpt(key, desc string, e effect, field func(c *config.Config) *bool) option {
	return option{
		key:    key,
		desc:   desc,
		effect: e,
		value:  func(c *config.Config) string { return strconv.FormatBool(*field(c)) },
		change: func(u *UI, _ int) {
			p := field(u.cfg)
			*p = !*p
		},
	}
}

func intOpt(key, desc string, e effect, step, lo, hi int, field func(c *config.Config) *int) option {
	return option{
		key:    key,
		desc:   desc,
		effect: e,
		value:  func(c *config.Config) string { return strconv.Itoa(*field(c)) },
		change: func(u *UI, dir int) {
			p := field(u.cfg)
			*p = clampInt(*p+dir*step, lo, hi)
		},
	}
}

// choiceOpt cycles through choices, wrapping at both ends. label may
// rename a choice for display.
func choiceOpt(key, desc string, e effect, choices func(u *UI) []string, field func(c *config.Config) *string, label func(string) string) option {
	if label == nil {
		label = func(s string) string { return s }
	}
	return option{
		key:    key,
		desc:   desc,
		effect: e,
		value:  func(c *config.Config) string { return label(*field(c)) },
		change: func(u *UI, dir int) {
			list := choices(u)
			if len(list) == 0 {
				return
			}
			p := field(u.cfg)
			i := indexOf(list, *p)
			if i < 0 {
				i = 0
			} else {
				i = (i + dir + len(list)) % len(list)
			}
			*p = list[i]
		},
	}
}

func fixed(list ...string) func(*UI) []string {
	return func(*UI) []string { return list }
}

var clockFormats = []string{"15:04:05", "15:04", "Mon 15:04", "2006-01-02 15:04", ""}

var logLevels = []string{"ERROR", "WARNING", "INFO", "DEBUG"}

func clockLabel(s string) string {
	if s == "" {
		return "off"
	}
	return s
}

func buildOptions() []option {
	return []option{
		choiceOpt("color_theme", "Theme to use, from the themes and user_themes directories.", effectTheme,
			func(u *UI) []string { return theme.List(u.themeDir) },
			func(c *config.Config) *string { return &c.ColorTheme }, nil),
		choiceOpt("color_mode", "Output colors: truecolor, 256 color or greyscale.", effectTheme,
			fixed(config.ColorModes...),
			func(c *config.Config) *string { return &c.ColorMode }, nil),
		boolOpt("theme_background", "Draw the theme's main background color.", effectTheme,
			func(c *config.Config) *bool { return &c.ThemeBackground }),
		choiceOpt("draw_clock", "Clock shown on the top of the cpu box.", effectRedraw,
			fixed(clockFormats...),
			func(c *config.Config) *string { return &c.DrawClock }, clockLabel),
		intOpt("update_ms", "Milliseconds between updates.", effectInterval, 100, minUpdateMS, 86400000,
			func(c *config.Config) *int { return &c.UpdateMS }),
		intOpt("proc_update_mult", "Update the process list every n-th update.", effectNone, 1, 1, 100,
			func(c *config.Config) *int { return &c.ProcUpdateMult }),
		boolOpt("background_update", "Keep updating the panels behind menus.", effectNone,
			func(c *config.Config) *bool { return &c.BackgroundUpdate }),
		choiceOpt("proc_sorting", "Process sort key.", effectProc,
			fixed(config.SortKeys...),
			func(c *config.Config) *string { return &c.ProcSorting }, nil),
		boolOpt("proc_reversed", "Reverse the sort order.", effectProc,
			func(c *config.Config) *bool { return &c.ProcReversed }),
		boolOpt("proc_tree", "Show processes as a tree.", effectProc,
			func(c *config.Config) *bool { return &c.ProcTree }),
		intOpt("tree_depth", "Tree depth that starts out expanded.", effectProc, 1, 1, 20,
			func(c *config.Config) *int { return &c.TreeDepth }),
		boolOpt("proc_colors", "Color the values in the process list.", effectProc,
			func(c *config.Config) *bool { return &c.ProcColors }),
		boolOpt("proc_gradient", "Fade process rows toward the background.", effectProc,
			func(c *config.Config) *bool { return &c.ProcGradient }),
		boolOpt("proc_per_core", "Process cpu usage relative to one core.", effectProc,
			func(c *config.Config) *bool { return &c.ProcPerCore }),
		boolOpt("proc_mem_bytes", "Show process memory in bytes instead of percent.", effectProc,
			func(c *config.Config) *bool { return &c.ProcMemBytes }),
		boolOpt("proc_filter_ignore_case", "Match the process filter case insensitively.", effectProc,
			func(c *config.Config) *bool { return &c.ProcFilterIgnoreCase }),
		boolOpt("check_temp", "Show cpu temperatures when sensors exist.", effectLayout,
			func(c *config.Config) *bool { return &c.CheckTemp }),
		boolOpt("mem_graphs", "Graphs instead of meters in the mem box.", effectLayout,
			func(c *config.Config) *bool { return &c.MemGraphs }),
		boolOpt("show_swap", "Show swap in the mem box.", effectLayout,
			func(c *config.Config) *bool { return &c.ShowSwap }),
		boolOpt("swap_disk", "Show swap as a disk instead.", effectLayout,
			func(c *config.Config) *bool { return &c.SwapDisk }),
		boolOpt("show_disks", "Show disks next to memory.", effectLayout,
			func(c *config.Config) *bool { return &c.ShowDisks }),
		boolOpt("net_auto", "Scale the net graphs to recent traffic.", effectRedraw,
			func(c *config.Config) *bool { return &c.NetAuto }),
		boolOpt("net_sync", "Use the same scale for download and upload.", effectRedraw,
			func(c *config.Config) *bool { return &c.NetSync }),
		choiceOpt("log_level", "Lowest level written to the log file.", effectLog,
			fixed(logLevels...),
			func(c *config.Config) *string { return &c.LogLevel }, nil),
	}
}

type optionsMenu struct {
	opts     []option
	selected int
	top      int
}

func newOptionsMenu(_ *UI) *optionsMenu {
	return &optionsMenu{opts: buildOptions()}
}

const optionsWidth = 60

// rows is how many options fit on screen.
func (m *optionsMenu) rows(u *UI) int {
	l := u.engine.Layout()
	n := l.Lines - 8
	if n > len(m.opts) {
		n = len(m.opts)
	}
	if n < 1 {
		n = 1
	}
	return n
}

func (m *optionsMenu) scroll(u *UI) {
	rows := m.rows(u)
	if m.selected < m.top {
		m.top = m.selected
	}
	if m.selected >= m.top+rows {
		m.top = m.selected - rows + 1
	}
}

func (m *optionsMenu) render(u *UI) string {
	t := u.env.Theme()
	rows := m.rows(u)
	m.scroll(u)
	frame := u.menuFrame("options", optionsWidth, rows+5)
	inner := frame.Width - 4

	var b strings.Builder
	b.WriteString(draw.Box(frame))
	for i := 0; i < rows && m.top+i < len(m.opts); i++ {
		idx := m.top + i
		o := m.opts[idx]
		val := o.value(u.cfg)
		if idx == m.selected {
			val = "< " + val + " >"
		}
		line := fmt.Sprintf("%-26s%s", o.key, val)
		b.WriteString(term.MoveTo(frame.Y+1+i, frame.X+2) + highlight(t, line, inner, idx == m.selected))
	}
	desc := term.MoveTo(frame.Y+frame.Height-3, frame.X+2) + t.Esc("div_line") + strings.Repeat(draw.HLine, inner)
	desc += term.MoveTo(frame.Y+frame.Height-2, frame.X+2) + t.Esc("inactive_fg") + term.Fit(m.opts[m.selected].desc, inner)
	b.WriteString(desc + t.Reset())
	return b.String()
}

func (m *optionsMenu) handle(u *UI, ev input.Event) bool {
	n := len(m.opts)
	switch ev.Key {
	case input.KeyUp, input.KeyMouseScrollUp:
		m.selected = (m.selected - 1 + n) % n
	case input.KeyDown, input.KeyMouseScrollDown, input.KeyTab:
		m.selected = (m.selected + 1) % n
	case input.KeyPageUp:
		m.selected = clampInt(m.selected-m.rows(u), 0, n-1)
	case input.KeyPageDown:
		m.selected = clampInt(m.selected+m.rows(u), 0, n-1)
	case input.KeyHome:
		m.selected = 0
	case input.KeyEnd:
		m.selected = n - 1
	case input.KeyLeft:
		u.changeOption(m.opts[m.selected], -1)
	case input.KeyRight, input.KeyEnter, input.KeySpace:
		u.changeOption(m.opts[m.selected], 1)
	case input.KeyEscape, "o", "O", "q", "f2":
		return true
	}
	return false
}

// changeOption steps o and applies what the new value affects.
func (u *UI) changeOption(o option, dir int) {
	before := o.value(u.cfg)
	if o.effect == effectInterval {
		ms := u.cfg.UpdateMS
		o.change(u, dir)
		next := u.cfg.UpdateMS
		u.cfg.UpdateMS = ms
		u.changeInterval(next)
		return
	}
	o.change(u, dir)
	if o.value(u.cfg) == before {
		return
	}
	u.applyConfig()

	switch o.effect {
	case effectTheme:
		u.reloadTheme()
		u.redraw()
	case effectRedraw:
		u.redraw()
	case effectLayout:
		u.relayout(true)
	case effectProc:
		u.collectProc(true)
	case effectLog:
		if l, ok := u.log.(*logger.Leveled); ok {
			l.SetLevel(logger.ParseLevel(u.cfg.LogLevel))
		}
	}
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func indexOf(list []string, s string) int {
	for i, v := range list {
		if v == s {
			return i
		}
	}
	return -1
}
