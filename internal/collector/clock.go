package collector

import (
	"strings"
	"sync"
	"time"

	"github.com/rileyhilliard/sysmon/internal/draw"
	"github.com/rileyhilliard/sysmon/internal/layout"
	"github.com/rileyhilliard/sysmon/internal/term"
)

// clockZ puts the clock above the panels and below menus.
const clockZ = 5

// Clock renders the time on the top edge of the CPU panel. It is not a
// Collector: the scheduler ticks it from its idle poll.
type Clock struct {
	env *Env

	mu   sync.Mutex
	last string
	// width of the last drawn string, used to erase it when it shrinks
	width int
}

// NewClock creates the clock overlay.
func NewClock(env *Env) *Clock {
	return &Clock{env: env}
}

// Update draws now when the formatted time changed or force is set. With
// flush the buffer is written immediately; otherwise it waits for the next
// compositor flush. Reports whether anything was drawn.
func (c *Clock) Update(now time.Time, force, flush bool) bool {
	cfg := c.env.Config()
	l := c.env.Layout.Layout()
	if cfg.DrawClock == "" || !l.Visible(layout.CPU) {
		return false
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	s := now.Format(cfg.DrawClock)
	if s == c.last && !force {
		return false
	}
	b := l.Box(layout.CPU)
	// Keep the clock clear of the corner glyphs.
	s = cut(s, b.Width-12)
	n := runeLen(s)
	t := c.env.Theme()
	box := t.Esc("cpu_box")
	center := b.X + b.Width/2

	var out strings.Builder
	if c.width > n && !b.Resized {
		out.WriteString(term.MoveTo(b.Y, center-c.width/2-1) + box + strings.Repeat(draw.HLine, c.width+2))
	}
	out.WriteString(term.MoveTo(b.Y, center-n/2-1) + box + draw.TitleLeft + term.Bold)
	out.WriteString(t.Esc("title") + s + term.Unbold + box + draw.TitleRight + t.Esc("main_fg"))

	c.last = s
	c.width = n
	menu := c.env.MenuActive()
	err := c.env.Draw.Buffer(draw.Clock, out.String(), draw.Opts{
		Z:        clockZ,
		Once:     !force,
		OnlySave: menu,
		FlushNow: flush && !menu,
	})
	if err != nil {
		c.env.Log.Warn("Drawing clock failed: %v", err)
	}
	return true
}

// Reset forgets the last drawn value so the next Update redraws.
func (c *Clock) Reset() {
	c.mu.Lock()
	c.last = ""
	c.width = 0
	c.mu.Unlock()
}
