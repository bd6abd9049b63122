package collector

import (
	"fmt"
	"path"
	"strconv"
	"strings"

	"github.com/rileyhilliard/sysmon/internal/config"
	"github.com/rileyhilliard/sysmon/internal/draw"
	"github.com/rileyhilliard/sysmon/internal/graph"
	"github.com/rileyhilliard/sysmon/internal/layout"
	"github.com/rileyhilliard/sysmon/internal/term"
	"github.com/rileyhilliard/sysmon/internal/theme"
)

// enterGlyph marks the info button.
const enterGlyph = "↲"

// procColumns are the widths of the flexible process list columns.
type procColumns struct {
	prog, arg, tree int
	threads, user   bool
}

func columnsFor(w int, scrolling, tree bool) procColumns {
	c := procColumns{threads: true, user: true}
	sb := 0
	if scrolling {
		sb = 1
	}
	if w > 67 {
		c.arg = w - 53 - sb
		c.prog = 15
	} else {
		c.prog = w - 38 - sb
		if c.prog < 15 {
			c.threads = false
			c.prog += 5
		}
		if c.prog < 12 {
			c.user = false
			c.prog += 9
		}
	}
	if tree {
		c.tree = c.arg + c.prog + 6
		c.arg = 0
	}
	return c
}

func (p *Proc) Draw() {
	l := p.env.Layout.Layout()
	if !l.Visible(layout.Proc) {
		return
	}
	cfg := p.env.Config()

	p.mu.Lock()
	defer p.mu.Unlock()

	t := p.env.Theme()
	b := l.Box(layout.Proc)
	curY, curH := b.Y, b.Height
	if p.detailed {
		curY += detailRows
		curH -= detailRows
	}
	x, y, w, h := b.X+1, curY+1, b.Width-2, curH-2
	selMax := p.selectMax(&l)
	p.clampSelection(selMax)
	num := len(p.rows)
	scrolling := num > selMax
	cols := columnsFor(w, scrolling, cfg.ProcTree)

	var out strings.Builder
	if p.detailed {
		out.WriteString(p.drawDetail(t, b))
	}
	out.WriteString(p.drawButtons(t, b, x, y, w, h, curY, selMax, cfg))
	out.WriteString(p.drawLabels(t, x, y, cols, scrolling, cfg))

	advance := p.fresh && !p.moved
	cy := 1
	count := 0
	p.selectedPID = 0
	for n, r := range p.rows {
		if n+1 < p.start {
			continue
		}
		count++
		selected := count == p.selected
		if selected {
			p.selectedPID = r.PID
		}
		out.WriteString(p.drawRow(t, r, x, y+cy, w, cy, selMax, selected, scrolling, cols, advance, cfg))
		cy++
		if cy == h {
			break
		}
	}
	for ; cy < h; cy++ {
		out.WriteString(term.MoveTo(y+cy, x) + strings.Repeat(" ", w))
	}

	if scrolling {
		p.env.setHit("mouse_scroll_up", x+w-2, y, 3, 1)
		p.env.setHit("mouse_scroll_down", x+w-2, y+h-1, 3, 1)
		pos := 0
		if span := num - (selMax - 2); span > 0 {
			pos = round(float64(p.start*(selMax-2)) / float64(span))
		}
		switch {
		case pos < 0 || p.start == 1:
			pos = 0
		case pos > h-3 || p.start >= num-selMax:
			pos = h - 3
		}
		out.WriteString(term.MoveTo(y, x+w-1) + term.Bold + t.Esc("main_fg") + draw.UpArrow)
		out.WriteString(term.MoveTo(y+h-1, x+w-1) + draw.DownArrow + term.Unbold)
		out.WriteString(term.MoveTo(y+1+pos, x+w-1) + "█")
	} else {
		p.env.removeHit("mouse_scroll_up", "mouse_scroll_down")
	}

	loc := strconv.Itoa(p.start+p.selected-1) + "/" + strconv.Itoa(num)
	box := t.Esc("proc_box")
	out.WriteString(term.MoveTo(y+h, x+w-3-runeLen(loc)) + box + draw.TitleLeft + t.Esc("title"))
	out.WriteString(term.Bold + loc + term.Unbold + box + draw.TitleRight + t.Esc("main_fg"))

	p.fresh = false
	p.moved = false
	p.redraw = false
	p.env.buffer(draw.Proc, out.String())
}

func onOff(on bool) string {
	if on {
		return term.Bold
	}
	return ""
}

// drawButtons renders the controls on the list's top edge and on the bottom
// border. Must be called with mu held.
func (p *Proc) drawButtons(t *theme.Theme, b *layout.Box, x, y, w, h, curY, selMax int, cfg config.Config) string {
	var s strings.Builder
	box := t.Esc("proc_box")
	sorting := cfg.ProcSorting
	sLen := runeLen(sorting)
	sortPos := x + w - sLen - 7

	if p.detailed {
		s.WriteString(term.MoveTo(curY, b.X) + box + draw.TitleRight + strings.Repeat(draw.HLine, b.Width-2) + draw.TitleLeft)
	}
	s.WriteString(term.MoveTo(curY, x+8) + box + strings.Repeat(draw.HLine, maxInt(w-9, 0)))
	s.WriteString(term.MoveTo(curY, sortPos) + draw.TitleLeft + term.Bold + t.Esc("hi_fg") + "<")
	s.WriteString(" " + t.Esc("title") + sorting + " " + t.Esc("hi_fg") + ">" + term.Unbold + box + draw.TitleRight)
	p.env.setHit("left", sortPos, curY, 3, 1)
	p.env.setHit("right", sortPos+sLen+3, curY, 3, 1)

	if w > 29+sLen {
		s.WriteString(term.MoveTo(curY, sortPos-6) + draw.TitleLeft + onOff(cfg.ProcTree))
		s.WriteString(t.Esc("title") + "tre" + t.Esc("hi_fg") + "e" + term.Unbold + box + draw.TitleRight)
		p.env.setHit("e", sortPos-5, curY, 4, 1)
	} else {
		p.env.removeHit("e")
	}
	if w > 37+sLen {
		s.WriteString(term.MoveTo(curY, sortPos-15) + draw.TitleLeft + onOff(cfg.ProcReversed))
		s.WriteString(t.Esc("hi_fg") + "r" + t.Esc("title") + "everse" + term.Unbold + box + draw.TitleRight)
		p.env.setHit("r", sortPos-14, curY, 7, 1)
	} else {
		p.env.removeHit("r")
	}
	if w > 47+sLen {
		s.WriteString(term.MoveTo(curY, sortPos-25) + draw.TitleLeft + onOff(cfg.ProcPerCore))
		s.WriteString(t.Esc("title") + "per-" + t.Esc("hi_fg") + "c" + t.Esc("title") + "ore" + term.Unbold + box + draw.TitleRight)
		p.env.setHit("c", sortPos-24, curY, 8, 1)
	} else {
		p.env.removeHit("c")
	}

	tailLen := 10
	if w >= 83 {
		tailLen = w - 74
	}
	tail := cutEnd(p.filter, tailLen)
	key := "f"
	if p.filtering && !cfg.ProcFilterIgnoreCase {
		key = "F"
	}
	s.WriteString(term.MoveTo(curY, x+8) + draw.TitleLeft + onOff(p.filtering || p.filter != ""))
	s.WriteString(t.Esc("hi_fg") + key + t.Esc("title"))
	switch {
	case p.filter == "" && !p.filtering:
		s.WriteString("ilter")
		p.env.setHit("f", x+9, curY, 6, 1)
	case p.filtering:
		s.WriteString(" " + tail + term.Blink + "█" + term.Unblink)
		p.env.setHit("f", x+9, curY, 2+runeLen(tail), 1)
	default:
		s.WriteString(" " + tail + t.Esc("hi_fg") + " del")
		p.env.setHit("f", x+9, curY, 2+runeLen(tail), 1)
	}
	if p.filter != "" && !p.filtering {
		p.env.setHit("delete", x+12+runeLen(tail), curY, 3, 1)
	} else {
		p.env.removeHit("delete")
	}
	s.WriteString(term.Unbold + box + draw.TitleRight)

	main, hi, title := t.Esc("main_fg"), t.Esc("hi_fg"), t.Esc("title")
	if p.selected == 0 {
		main, hi, title = t.Esc("inactive_fg"), t.Esc("inactive_fg"), t.Esc("inactive_fg")
	}
	down := t.Esc("main_fg")
	if p.selected == selMax {
		down = t.Esc("inactive_fg")
	}
	loc := strconv.Itoa(p.start+p.selected-1) + "/" + strconv.Itoa(len(p.rows))
	bottom := y + h
	s.WriteString(term.MoveTo(bottom, x+1) + box + strings.Repeat(draw.HLine, maxInt(w-4, 0)))
	s.WriteString(term.MoveTo(bottom, x+1) + draw.TitleLeft + main + draw.UpArrow + " " + term.Bold)
	s.WriteString(t.Esc("main_fg") + "select" + " " + term.Unbold + down + draw.DownArrow + box + draw.TitleRight)
	s.WriteString(draw.TitleLeft + title + term.Bold + "info " + term.Unbold + main + enterGlyph + box + draw.TitleRight)
	p.env.setHit("enter", x+14, bottom, 6, 1)

	free := w - runeLen(loc)
	buttons := []struct {
		min  int
		key  string
		rest string
		x, w int
	}{
		{34, "T", "erminate", x + 22, 9},
		{40, "K", "ill", x + 33, 4},
		{51, "I", "nterrupt", x + 39, 9},
	}
	for _, btn := range buttons {
		if free <= btn.min {
			p.env.removeHit(btn.key)
			continue
		}
		s.WriteString(draw.TitleLeft + term.Bold + hi + btn.key + title + btn.rest + term.Unbold + box + draw.TitleRight)
		p.env.setHit(btn.key, btn.x, bottom, btn.w, 1)
	}
	if cfg.ProcTree && free > 65 {
		s.WriteString(draw.TitleLeft + title + term.Bold + hi + "spc " + title + "collapse" + term.Unbold + box + draw.TitleRight)
		p.env.setHit("space", x+50, bottom, 12, 1)
	} else {
		p.env.removeHit("space")
	}
	return s.String()
}

// drawLabels renders the column header with the sort column underlined.
func (p *Proc) drawLabels(t *theme.Theme, x, y int, c procColumns, scrolling bool, cfg config.Config) string {
	selected := cfg.ProcSorting
	switch {
	case selected == "memory":
		selected = "mem"
	case selected == "threads" && !cfg.ProcTree && c.arg == 0:
		selected = "tr"
	}

	var s strings.Builder
	s.WriteString(t.Esc("title") + term.Bold + term.MoveTo(y, x))
	if cfg.ProcTree {
		s.WriteString(padRight(" Tree:", c.tree-2))
		if c.threads {
			s.WriteString(padRight("Threads: ", 9))
		} else {
			s.WriteString("    ")
		}
		if c.user {
			s.WriteString(padRight("User:", 9))
		}
		s.WriteString("Mem%" + padLeft("Cpu%", 11) + term.Unbold + t.Esc("main_fg") + " ")
		if selected == "pid" || selected == "program" || selected == "arguments" {
			selected = "tree"
		}
	} else {
		prog := "Prg:"
		if c.prog > 8 {
			prog = "Program:"
		}
		s.WriteString(padLeft("Pid:", 7) + " " + padRight(prog, c.prog))
		if c.arg > 0 {
			s.WriteString(padRight("Arguments:", c.arg-4))
		}
		if c.threads {
			if c.arg > 0 {
				s.WriteString(padRight("Threads:", 9))
			} else {
				s.WriteString(center("Tr:", 5))
			}
		}
		if c.user {
			s.WriteString(padRight("User:", 9))
		}
		s.WriteString("Mem%" + padLeft("Cpu%", 11))
		if selected == "program" && c.prog <= 8 {
			selected = "prg"
		}
	}
	if scrolling {
		s.WriteString(" ")
	}

	label := s.String()
	if cfg.ProcMemBytes {
		label = strings.Replace(label, "Mem%", "MemB", 1)
	}
	word := capitalize(strings.SplitN(selected, " ", 2)[0])
	label = strings.Replace(label, word, term.Underline+word+term.Ununderline, 1)
	return label + term.Unbold + t.Esc("main_fg")
}

// drawRow renders one process line. Must be called with mu held.
func (p *Proc) drawRow(t *theme.Theme, r Row, x, line, w, cy, selMax int, selected, scrolling bool, c procColumns, advance bool, cfg config.Config) string {
	indent, name, cmd := r.Indent, r.Name, r.Cmd
	pid := itoa32(r.PID)
	arg := c.arg
	var offset int
	if cfg.ProcTree {
		arg = 0
		offset = c.tree - runeLen(indent+pid)
		if offset < 1 {
			offset = 0
		}
		indent = cut(indent, c.tree-len(pid))
		if offset-runeLen(name) > 12 {
			short := path.Base(strings.SplitN(cmd, " ", 2)[0])
			if !strings.HasPrefix(short, name) {
				offset = runeLen(name)
				arg = c.tree - runeLen(indent+pid+" "+name+" ") + 2
				cmd = "(" + cut(short, arg-4) + ")"
			}
		}
	} else {
		offset = c.prog - 1
	}

	if r.CPU > 1.0 || p.pidGraphs[r.PID] != nil {
		switch {
		case p.pidGraphs[r.PID] == nil:
			p.pidGraphs[r.PID] = graph.New(5, 1, nil, []int{0}, graph.Opts{})
			p.pidCounter[r.PID] = 0
		case r.CPU < 1.0:
			p.pidCounter[r.PID]++
			if p.pidCounter[r.PID] > 10 {
				delete(p.pidCounter, r.PID)
				delete(p.pidGraphs, r.PID)
			}
		default:
			p.pidCounter[r.PID] = 0
		}
	}

	end := term.Unbold
	if cfg.ProcColors {
		end = t.Esc("main_fg") + term.Unbold
	}
	calc := cy
	switch {
	case p.selected > cy:
		calc = p.selected - cy
	case p.selected > 0 && p.selected <= cy:
		calc = cy - p.selected
	}
	dist := clamp(calc*100/maxInt(selMax, 1), 0, 100)

	cColor, mColor, tColor := term.Bold, term.Bold, term.Bold
	gColor := ""
	if cfg.ProcColors && !selected {
		var vals [3]string
		for i, v := range []int{int(r.CPU), int(r.Mem), r.Threads / 3} {
			v = clamp(v, 0, 100)
			if cfg.ProcGradient {
				val := clamp(v+100-dist, 0, 200)
				if val < 100 {
					vals[i] = t.Gradient(theme.GradProcColor)[val]
				} else {
					vals[i] = t.Gradient(theme.GradProcess)[val-100]
				}
			} else {
				vals[i] = t.Gradient(theme.GradProcess)[v]
			}
		}
		cColor, mColor, tColor = vals[0], vals[1], vals[2]
	}
	if cfg.ProcGradient && !selected {
		gColor = t.Gradient(theme.GradProc)[dist]
	}

	var s strings.Builder
	if selected {
		cColor, mColor, tColor, gColor, end = "", "", "", "", ""
		s.WriteString(t.Esc("selected_bg") + t.Esc("selected_fg") + term.Bold)
	}

	pidWidth := 7
	if cfg.ProcTree {
		pidWidth = 1
	}
	s.WriteString(term.MoveTo(line, x) + gColor + indent + padLeft(pid, pidWidth) + " ")
	s.WriteString(cColor + term.Fit(name, offset) + " " + end)
	if arg > 0 {
		s.WriteString(gColor + padRight(cut(cmd, arg-1), arg))
	}
	if c.threads {
		if r.Threads < 1000 {
			s.WriteString(tColor + padLeft(strconv.Itoa(r.Threads), 4) + " " + end)
		} else {
			s.WriteString(tColor + "999> " + end)
		}
	}
	if c.user {
		if runeLen(r.User) < 10 {
			s.WriteString(gColor + term.Fit(r.User, 9))
		} else {
			s.WriteString(gColor + padRight(cut(r.User, 8), 8) + "+")
		}
	}

	var mem string
	switch {
	case cfg.ProcMemBytes:
		mem = padLeft(cut(graph.Humanize(r.MemBytes, graph.HumanizeOpts{Short: true}), 4), 4)
	case r.Mem < 100:
		mem = fmt.Sprintf("%4.1f", r.Mem)
	default:
		mem = fmt.Sprintf("%4.0f ", r.Mem)
	}
	s.WriteString(mColor + mem + end)

	s.WriteString(" " + t.Esc("inactive_fg") + "⡀⡀⡀⡀⡀" + t.Esc("main_fg") + gColor + cColor)
	if r.CPU < 100 {
		s.WriteString(fmt.Sprintf(" %4.1f ", r.CPU))
	} else {
		s.WriteString(fmt.Sprintf("%5.0f ", r.CPU))
	}
	s.WriteString(end)
	if scrolling {
		s.WriteString(" ")
	}

	if g := p.pidGraphs[r.PID]; g != nil {
		col := x + w - 11
		if scrolling {
			col = x + w - 12
		}
		color := t.Esc("proc_misc")
		if cfg.ProcColors {
			color = cColor
		}
		s.WriteString(term.MoveTo(line, col) + color)
		if advance {
			s.WriteString(g.Add(round(r.CPU)))
		} else {
			s.WriteString(g.String())
		}
		s.WriteString(t.Esc("main_fg"))
	}

	if selected {
		s.WriteString(term.Unbold + t.Reset() + term.MoveTo(line, x+w-1))
		if scrolling {
			s.WriteString(" ")
		}
	}
	return s.String()
}

// drawDetail renders the detail view above the list. Must be called with
// mu held.
func (p *Proc) drawDetail(t *theme.Theme, b *layout.Box) string {
	var s strings.Builder
	d := p.detail
	box := t.Esc("proc_box")
	x, w := b.X+1, b.Width-2
	dy := b.Y + 1
	gw := w / 3
	dx, dw := x+gw+1, w-gw-1
	rows := detailRows - 1

	title := cut(d.Name, maxInt(w-20, 4))
	s.WriteString(term.MoveTo(b.Y, b.X+8) + box + draw.TitleLeft + term.Bold + t.Esc("title") + itoa32(d.PID))
	s.WriteString(term.Unbold + box + draw.TitleRight + draw.TitleLeft + term.Bold + t.Esc("title") + title)
	s.WriteString(term.Unbold + box + draw.TitleRight)

	for i := 0; i < rows; i++ {
		s.WriteString(term.MoveTo(dy+i, x) + strings.Repeat(" ", w))
	}
	cpuGraph := graph.New(gw, rows, t.Gradient(theme.GradCPU), p.detailCPU.Values(), graph.Opts{Reset: t.Esc("main_fg")})
	s.WriteString(term.MoveTo(dy, x) + cpuGraph.String())
	s.WriteString(term.MoveTo(dy+rows-1, x) + t.Esc("title") + term.Bold + "CPU " + term.Unbold)
	s.WriteString(t.Esc("main_fg") + fmt.Sprintf("%.1f%%", d.CPU))
	for i := 0; i < rows; i++ {
		s.WriteString(term.MoveTo(dy+i, x+gw) + t.Esc("div_line") + draw.VLine)
	}

	col := dw / 3
	field := func(row, n int, label, value string) {
		s.WriteString(term.MoveTo(dy+row, dx+n*col) + t.Esc("title") + term.Bold + center(label, col) + term.Unbold)
		s.WriteString(term.MoveTo(dy+row+1, dx+n*col) + t.Esc("main_fg") + center(cut(value, col-1), col))
	}
	status := d.Status
	if d.Killed {
		status = "dead"
	}
	field(0, 0, "Status:", status)
	field(0, 1, "Elapsed:", d.Elapsed)
	field(0, 2, "Parent:", d.Parent)
	field(2, 0, "User:", d.User)
	field(2, 1, "Threads:", strconv.Itoa(d.Threads))
	field(2, 2, "Memory:", d.Mem)

	meter := graph.NewMeter(maxInt(dw-16, 1), t.Gradient(theme.GradUsed), t.Esc("meter_bg"), t.Esc("main_fg"), false)
	s.WriteString(term.MoveTo(dy+4, dx) + t.Esc("title") + term.Bold + "Mem " + term.Unbold)
	s.WriteString(meter.Render(round(d.MemPercent)) + t.Esc("main_fg") + padLeft(fmt.Sprintf("%.1f%%", d.MemPercent), 7))

	cmd := []rune(d.Cmdline)
	for i := 0; i < 2 && len(cmd) > 0; i++ {
		n := minInt(len(cmd), dw)
		s.WriteString(term.MoveTo(dy+5+i, dx) + t.Esc("graph_text") + string(cmd[:n]))
		cmd = cmd[n:]
	}
	s.WriteString(t.Esc("main_fg"))
	return s.String()
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}
