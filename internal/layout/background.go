package layout

import (
	"fmt"
	"strings"

	"github.com/rileyhilliard/sysmon/internal/draw"
	"github.com/rileyhilliard/sysmon/internal/term"
	"github.com/rileyhilliard/sysmon/internal/theme"
)

// BackgroundInfo is what the frames need besides geometry.
type BackgroundInfo struct {
	Theme    *theme.Theme
	CPUName  string
	UpdateMs int
}

// Hit is a clickable region registered by a frame.
type Hit struct {
	Key  string
	X, Y int
	W, H int
}

// Background is the rendered static frame of one or more panels.
type Background struct {
	Out  string
	Hits []Hit
}

func (b *Background) add(o Background) {
	b.Out += o.Out
	b.Hits = append(b.Hits, o.Hits...)
}

// DrawBackground renders the frames of every visible panel in l.
func (e *Engine) DrawBackground(l *Layout, info BackgroundInfo) Background {
	var out Background
	for _, p := range e.panels {
		if l.Visible(p.ID()) {
			out.add(p.DrawBackground(l, info))
		}
	}
	return out
}

func panelBox(b *Box, t *theme.Theme) draw.Frame {
	return draw.Frame{
		X:          b.X,
		Y:          b.Y,
		Width:      b.Width,
		Height:     b.Height,
		Title:      b.Name,
		Num:        b.ID.Num(),
		LineColor:  t.Esc(theme.BoxColor(b.Name)),
		TitleColor: t.Esc("title"),
		NumColor:   t.Esc("hi_fg"),
		Reset:      t.Reset(),
	}
}

func titleHit(b *Box) Hit {
	return Hit{Key: fmt.Sprint(b.ID.Num()), X: b.X + 2, Y: b.Y, W: len(b.Name) + 3, H: 1}
}

// UpdateLabel renders the "+ Nms -" control on the CPU frame. It is drawn
// again on its own whenever the interval changes.
func UpdateLabel(l *Layout, t *theme.Theme, ms int) Background {
	b := l.Box(CPU)
	label := fmt.Sprintf("%dms", ms)
	xpos := b.X + b.Width - len(label) - 15
	var s strings.Builder
	s.WriteString(term.MoveTo(b.Y, xpos) + t.Esc("cpu_box") + strings.Repeat(draw.HLine, 7))
	s.WriteString(draw.TitleLeft + term.Bold + t.Esc("hi_fg") + "+ ")
	s.WriteString(t.Esc("title") + label + t.Esc("hi_fg") + " -" + term.Unbold)
	s.WriteString(t.Esc("cpu_box") + draw.TitleRight + t.Reset())
	return Background{
		Out: s.String(),
		Hits: []Hit{
			{Key: "+", X: xpos + 7, Y: b.Y, W: 3, H: 1},
			{Key: "-", X: b.X + b.Width - 4, Y: b.Y, W: 2, H: 1},
		},
	}
}

func (cpuPanel) DrawBackground(l *Layout, info BackgroundInfo) Background {
	t := info.Theme
	b := l.Box(CPU)
	g := l.CPU
	var s strings.Builder
	s.WriteString(draw.Box(panelBox(b, t)))
	s.WriteString(term.MoveTo(b.Y, b.X+10) + t.Esc("cpu_box") + draw.TitleLeft + term.Bold)
	s.WriteString(t.Esc("hi_fg") + "M" + t.Esc("title") + "enu" + term.Unbold + t.Esc("cpu_box") + draw.TitleRight)

	name := info.CPUName
	if limit := g.BoxWidth - 14; limit > 0 {
		name = term.Truncate(name, limit)
	} else {
		name = ""
	}
	s.WriteString(draw.Box(draw.Frame{
		X:          g.BoxX,
		Y:          g.BoxY,
		Width:      g.BoxWidth,
		Height:     g.BoxHeight,
		Title:      name,
		LineColor:  t.Esc("div_line"),
		TitleColor: t.Esc("title"),
		Reset:      t.Reset(),
	}))

	out := Background{
		Hits: []Hit{
			titleHit(b),
			{Key: "m", X: b.X + 10, Y: b.Y, W: 6, H: 1},
		},
	}
	label := UpdateLabel(l, t, info.UpdateMs)
	s.WriteString(label.Out)
	out.Hits = append(out.Hits, label.Hits...)
	out.Out = s.String()
	return out
}

func (memPanel) DrawBackground(l *Layout, info BackgroundInfo) Background {
	t := info.Theme
	b := l.Box(Mem)
	g := l.Mem
	var s strings.Builder
	s.WriteString(draw.Box(panelBox(b, t)))
	if g.DisksWidth > 0 {
		line := t.Esc("mem_box")
		s.WriteString(term.MoveTo(b.Y, g.Divider+2) + line + draw.TitleLeft + term.Bold)
		s.WriteString(t.Esc("hi_fg") + "d" + t.Esc("title") + "isks" + term.Unbold + line + draw.TitleRight)
		s.WriteString(term.MoveTo(b.Y, g.Divider) + draw.DivUp)
		s.WriteString(term.MoveTo(b.Y+b.Height-1, g.Divider) + draw.DivDown)
		s.WriteString(t.Esc("div_line"))
		for i := 1; i < b.Height-1; i++ {
			s.WriteString(term.MoveTo(b.Y+i, g.Divider) + draw.VLine)
		}
		s.WriteString(t.Reset())
	}
	return Background{Out: s.String(), Hits: []Hit{titleHit(b)}}
}

func (netPanel) DrawBackground(l *Layout, info BackgroundInfo) Background {
	t := info.Theme
	b := l.Box(Net)
	g := l.Net
	var s strings.Builder
	s.WriteString(draw.Box(panelBox(b, t)))
	s.WriteString(draw.Box(draw.Frame{
		X:          g.BoxX,
		Y:          g.BoxY,
		Width:      g.BoxWidth,
		Height:     g.BoxHeight,
		Title:      "Download",
		Title2:     "Upload",
		LineColor:  t.Esc("div_line"),
		TitleColor: t.Esc("title"),
		Reset:      t.Reset(),
	}))
	return Background{Out: s.String(), Hits: []Hit{titleHit(b)}}
}

func (procPanel) DrawBackground(l *Layout, info BackgroundInfo) Background {
	b := l.Box(Proc)
	return Background{Out: draw.Box(panelBox(b, info.Theme)), Hits: []Hit{titleHit(b)}}
}
