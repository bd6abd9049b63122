package layout

import (
	"fmt"
	"time"

	"github.com/rileyhilliard/sysmon/internal/draw"
	"github.com/rileyhilliard/sysmon/internal/term"
)

// ResizeState is where the resize loop currently is.
type ResizeState int

const (
	Stable ResizeState = iota
	Resizing
	BelowMinimum
)

func (s ResizeState) String() string {
	switch s {
	case Resizing:
		return "resizing"
	case BelowMinimum:
		return "below_minimum"
	default:
		return "stable"
	}
}

const resizeDebounce = 300 * time.Millisecond

// Interrupt is raised while a resize is in progress so collectors skip work.
type Interrupt interface {
	Set()
	Clear()
}

// ResizeDeps are the side effects the resizer needs.
type ResizeDeps struct {
	// Size reports the current terminal size.
	Size func() (cols, lines int, err error)
	// Wait sleeps up to d, returning early when the window changes.
	Wait func(d time.Duration)
	// Write paints directly to the terminal.
	Write func(s string) error
	// Quit drains pending input and reports whether the user pressed q.
	Quit func() bool
	// Interrupt is set for the duration of a resize.
	Interrupt Interrupt
}

// ResizeResult reports the outcome of Refresh.
type ResizeResult struct {
	Changed bool
	Quit    bool
	Layout  Layout
}

// Resizer tracks the last known size and recalculates when it changes.
type Resizer struct {
	engine  *Engine
	deps    ResizeDeps
	state   ResizeState
	cols    int
	lines   int
	visible []PanelID
	colors  ResizeColors
}

// ResizeColors are escape strings for the resize banners.
type ResizeColors struct {
	Text    string
	Good    string
	Bad     string
	Reset   string
	Default string
}

// NewResizer returns a resizer with no known size, so the first Refresh
// always calculates.
func NewResizer(engine *Engine, deps ResizeDeps, visible []PanelID) *Resizer {
	return &Resizer{engine: engine, deps: deps, visible: visible, cols: -1, lines: -1}
}

// SetColors sets the banner colors.
func (r *Resizer) SetColors(c ResizeColors) { r.colors = c }

// SetVisible changes the panel set; the next Refresh recalculates.
func (r *Resizer) SetVisible(visible []PanelID) {
	r.visible = append([]PanelID(nil), visible...)
	r.cols, r.lines = -1, -1
}

// State returns the current resize state.
func (r *Resizer) State() ResizeState { return r.state }

// Size returns the last size the layout was calculated for.
func (r *Resizer) Size() (cols, lines int) { return r.cols, r.lines }

// Refresh checks the terminal size and, when it changed, waits for it to
// settle, shows a warning while it is too small and recalculates the layout.
// With force the layout is recalculated even if the size is unchanged.
func (r *Resizer) Refresh(force bool) (ResizeResult, error) {
	cols, lines, err := r.deps.Size()
	if err != nil {
		return ResizeResult{}, err
	}
	minW, minH := MinSize(r.visible)
	if !force && cols == r.cols && lines == r.lines && cols >= minW && lines >= minH {
		return ResizeResult{Layout: r.engine.Layout()}, nil
	}

	r.interrupt(true)
	defer r.interrupt(false)

	for cols != r.cols || lines != r.lines || cols < minW || lines < minH {
		r.state = Resizing
		r.cols, r.lines = cols, lines
		if err := r.write(r.resizingBanner(cols, lines)); err != nil {
			return ResizeResult{}, err
		}
		for cols < minW || lines < minH {
			r.state = BelowMinimum
			if err := r.write(r.warningBanner(cols, lines, minW, minH)); err != nil {
				return ResizeResult{}, err
			}
			r.wait(resizeDebounce)
			if r.deps.Quit != nil && r.deps.Quit() {
				return ResizeResult{Quit: true}, nil
			}
			if cols, lines, err = r.deps.Size(); err != nil {
				return ResizeResult{}, err
			}
			r.cols, r.lines = cols, lines
		}
		r.wait(resizeDebounce)
		if cols, lines, err = r.deps.Size(); err != nil {
			return ResizeResult{}, err
		}
	}

	l, err := r.engine.CalcSizes(cols, lines, r.visible)
	if err != nil {
		return ResizeResult{}, err
	}
	r.state = Stable
	return ResizeResult{Changed: true, Layout: l}, nil
}

func (r *Resizer) interrupt(on bool) {
	if r.deps.Interrupt == nil {
		return
	}
	if on {
		r.deps.Interrupt.Set()
	} else {
		r.deps.Interrupt.Clear()
	}
}

func (r *Resizer) wait(d time.Duration) {
	if r.deps.Wait != nil {
		r.deps.Wait(d)
	}
}

func (r *Resizer) write(s string) error {
	if r.deps.Write == nil {
		return nil
	}
	return r.deps.Write(s)
}

func (r *Resizer) banner(cols, lines int, title, color string, text []string) string {
	w, h := 30, len(text)+2
	if w > cols {
		w = cols
	}
	x := cols/2 - w/2 + 1
	y := lines/2 - h/2 + 1
	if x < 1 {
		x = 1
	}
	if y < 1 {
		y = 1
	}
	c := r.colors
	return term.Clear + draw.Banner(draw.Frame{
		X:          x,
		Y:          y,
		Width:      w,
		Height:     h,
		Title:      title,
		Fill:       true,
		LineColor:  color,
		TitleColor: c.Text,
		Reset:      c.Default,
	}, text)
}

func (r *Resizer) resizingBanner(cols, lines int) string {
	c := r.colors
	return r.banner(cols, lines, "resizing", c.Good, []string{
		fmt.Sprintf("%sWidth : %s%d%s   Height: %s%d", c.Text, c.Good, cols, c.Text, c.Good, lines) + c.Reset,
	})
}

func (r *Resizer) warningBanner(cols, lines, minW, minH int) string {
	c := r.colors
	wc, hc := c.Good, c.Good
	if cols < minW {
		wc = c.Bad
	}
	if lines < minH {
		hc = c.Bad
	}
	return r.banner(cols, lines, "warning", c.Bad, []string{
		fmt.Sprintf("%sWidth: %s%d%s   Height: %s%d", c.Text, wc, cols, c.Text, hc, lines) + c.Reset,
		fmt.Sprintf("%sCurrent config need: %dx%d", c.Text, minW, minH) + c.Reset,
	})
}
