package layout

import (
	"fmt"
	"math"
	"sync"

	"github.com/rileyhilliard/sysmon/internal/errors"
)

// Minimum panel sizes.
const (
	minCPUWidth   = 60
	minCPUHeight  = 8
	minMemWidth   = 36
	minMemHeight  = 10
	minNetWidth   = 36
	minNetHeight  = 6
	minProcWidth  = 44
	minProcHeight = 16
)

// Options carry the inputs that change panel internals.
type Options struct {
	Threads   int
	Sensors   bool
	ShowDisks bool
	MemGraphs bool
	ShowSwap  bool
	SwapDisk  bool
}

// Panel computes and frames one box.
type Panel interface {
	ID() PanelID
	CalcSize(c *calc)
	DrawBackground(l *Layout, bg BackgroundInfo) Background
}

// Engine recalculates geometry. It is safe for concurrent use.
type Engine struct {
	mu     sync.RWMutex
	opts   Options
	panels []Panel
	layout Layout
}

// NewEngine returns an engine with the four standard panels registered.
func NewEngine(opts Options) *Engine {
	if opts.Threads < 1 {
		opts.Threads = 1
	}
	return &Engine{
		opts:   opts,
		panels: []Panel{cpuPanel{}, memPanel{}, netPanel{}, procPanel{}},
	}
}

// SetOptions replaces the panel options; the next CalcSizes uses them.
func (e *Engine) SetOptions(opts Options) {
	if opts.Threads < 1 {
		opts.Threads = 1
	}
	e.mu.Lock()
	e.opts = opts
	e.mu.Unlock()
}

// Options returns the current panel options.
func (e *Engine) Options() Options {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.opts
}

// Layout returns a copy of the last calculated layout.
func (e *Engine) Layout() Layout {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.layout
}

// MinSize returns the smallest terminal that fits the visible panels.
func MinSize(visible []PanelID) (cols, lines int) {
	var show [numPanels]bool
	for _, id := range visible {
		if id >= 0 && id < numPanels {
			show[id] = true
		}
	}
	left := 0
	if show[Mem] {
		left = minMemWidth
	}
	if show[Net] && minNetWidth > left {
		left = minNetWidth
	}
	right := 0
	if show[Proc] {
		right = minProcWidth
	}
	cols = left + right
	if show[CPU] && minCPUWidth > cols {
		cols = minCPUWidth
	}

	leftH := 0
	if show[Mem] {
		leftH += minMemHeight
	}
	if show[Net] {
		leftH += minNetHeight
	}
	lines = leftH
	if show[Proc] && minProcHeight > lines {
		lines = minProcHeight
	}
	if show[CPU] {
		lines += minCPUHeight
	}
	return cols, lines
}

// MinSize returns the minimum for the panels shown by the last calculation.
func (e *Engine) MinSize() (cols, lines int) {
	l := e.Layout()
	return MinSize(l.VisibleIDs())
}

// CalcSizes computes every box for a cols x lines terminal. It refuses
// sizes below MinSize rather than producing partial geometry.
func (e *Engine) CalcSizes(cols, lines int, visible []PanelID) (Layout, error) {
	minW, minH := MinSize(visible)
	if len(visible) == 0 {
		return Layout{}, errors.New(errors.ErrConfig, "No panels are enabled",
			"Enable at least one of cpu, mem, net, proc in shown_boxes")
	}
	if cols < minW || lines < minH {
		return Layout{}, errors.New(errors.ErrTerminal,
			fmt.Sprintf("Terminal %dx%d is smaller than the required %dx%d", cols, lines, minW, minH),
			"Enlarge the window or hide some panels")
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	c := &calc{cols: cols, lines: lines, opts: e.opts}
	for _, id := range visible {
		if id >= 0 && id < numPanels {
			c.show[id] = true
		}
	}
	c.layout.Cols, c.layout.Lines = cols, lines
	for _, id := range AllPanels {
		c.layout.Boxes[id] = Box{ID: id, Name: id.String(), Visible: c.show[id], Resized: true}
	}
	for _, p := range e.panels {
		p.CalcSize(c)
	}
	e.layout = c.layout
	return c.layout, nil
}

// ClearResized marks a panel as having rebuilt its widgets.
func (e *Engine) ClearResized(id PanelID) {
	e.mu.Lock()
	e.layout.Boxes[id].Resized = false
	e.mu.Unlock()
}

// calc carries intermediate state across panels in calculation order.
type calc struct {
	cols, lines int
	opts        Options
	show        [numPanels]bool
	layout      Layout
	cpuH        int
	memH        int
}

func (c *calc) onlyCPU() bool {
	return c.show[CPU] && !c.show[Mem] && !c.show[Net] && !c.show[Proc]
}

// pyRound rounds half to even.
func pyRound(f float64) int {
	return int(math.RoundToEven(f))
}

func ceilDiv(a, b int) int {
	return int(math.Ceil(float64(a) / float64(b)))
}

func percentOf(total, p int) int {
	return pyRound(float64(total) * float64(p) / 100)
}

type cpuPanel struct{}

func (cpuPanel) ID() PanelID { return CPU }

func (cpuPanel) CalcSize(c *calc) {
	b := c.layout.Box(CPU)
	b.MinW, b.MinH = minCPUWidth, minCPUHeight
	b.WidthP, b.HeightP = 100, 32
	if !c.show[CPU] {
		c.cpuH = 0
		b.Width = c.cols
		return
	}
	if c.onlyCPU() {
		b.HeightP = 100
	}
	b.X, b.Y = 1, 1
	b.Width = percentOf(c.cols, b.WidthP)
	b.Height = percentOf(c.lines, b.HeightP)
	if b.Height < minCPUHeight {
		b.Height = minCPUHeight
	}
	if b.Height > c.lines {
		b.Height = c.lines
	}
	c.cpuH = b.Height

	threads := c.opts.Threads
	large, mid, small := 21, 15, 8
	if c.opts.Sensors {
		large, mid, small = 33, 21, 14
	}
	limit := b.Width - b.Width/3

	g := &c.layout.CPU
	g.BoxColumns = ceilDiv(threads+1, b.Height-5)
	switch {
	case g.BoxColumns*large < limit:
		g.ColumnSize = 2
		g.BoxWidth = large*g.BoxColumns - (g.BoxColumns - 1)
	case g.BoxColumns*mid < limit:
		g.ColumnSize = 1
		g.BoxWidth = mid*g.BoxColumns - (g.BoxColumns - 1)
	case g.BoxColumns*small < limit:
		g.ColumnSize = 0
	default:
		g.BoxColumns = limit / small
		if g.BoxColumns < 1 {
			g.BoxColumns = 1
		}
		g.ColumnSize = 0
	}
	if g.ColumnSize == 0 {
		g.BoxWidth = small*g.BoxColumns + 1
	}
	g.BoxHeight = ceilDiv(threads, g.BoxColumns) + 4
	if g.BoxHeight > b.Height-2 {
		g.BoxHeight = b.Height - 2
	}
	g.BoxX = (b.Width - 1) - g.BoxWidth
	g.BoxY = b.Y + ceilDiv(b.Height-2, 2) - ceilDiv(g.BoxHeight, 2) + 1
	g.GraphWidth = b.Width - g.BoxWidth - 3
	if g.GraphWidth < 1 {
		g.GraphWidth = 1
	}
	g.GraphHeight = b.Height - 2
}

type memPanel struct{}

func (memPanel) ID() PanelID { return Mem }

func (memPanel) CalcSize(c *calc) {
	b := c.layout.Box(Mem)
	b.MinW, b.MinH = minMemWidth, minMemHeight
	b.WidthP, b.HeightP = 45, 40
	if !c.show[Mem] {
		c.memH = 0
		b.Width = c.cols
		return
	}
	if !c.show[Proc] {
		b.WidthP = 100
	}
	switch {
	case !c.show[CPU] && c.show[Net]:
		b.HeightP = 60
	case !c.show[CPU]:
		b.HeightP = 98
	case !c.show[Net]:
		b.HeightP = 98 - 32
	}
	b.X = 1
	b.Width = percentOf(c.cols, b.WidthP)
	b.Height = percentOf(c.lines, b.HeightP) + 1
	if !c.show[Net] {
		b.Height = c.lines - c.cpuH
	}
	if b.Height+c.cpuH > c.lines {
		b.Height = c.lines - c.cpuH
	}
	c.memH = b.Height
	b.Y = c.cpuH + 1

	g := &c.layout.Mem
	o := c.opts
	if o.ShowDisks {
		g.MemWidth = ceilDiv(b.Width-3, 2)
		g.DisksWidth = b.Width - g.MemWidth - 3
		if g.MemWidth+g.DisksWidth < b.Width-2 {
			g.MemWidth++
		}
		g.Divider = b.X + g.MemWidth
	} else {
		g.MemWidth = b.Width - 1
	}

	swapSection := o.ShowSwap && !o.SwapDisk
	itemHeight := 4
	extra := 2
	if swapSection {
		itemHeight = 6
		extra = 3
	}
	switch {
	case b.Height-extra > 2*itemHeight:
		g.MemSize = 3
	case g.MemWidth > 25:
		g.MemSize = 2
	default:
		g.MemSize = 1
	}

	g.MemMeter = b.Width - 20
	if g.MemSize > 2 {
		g.MemMeter = b.Width - 9
	}
	if o.ShowDisks {
		g.MemMeter -= g.DisksWidth
	}
	if g.MemSize == 1 {
		g.MemMeter += 6
	}
	if g.MemMeter < 1 {
		g.MemMeter = 0
	}

	if o.MemGraphs {
		rows := 1
		if g.MemSize == 3 {
			rows = 2
		}
		head := 1
		if swapSection {
			head = 2
		}
		g.GraphHeight = pyRound(float64((b.Height-head)-rows*itemHeight) / float64(itemHeight))
		if g.GraphHeight < 1 {
			g.GraphHeight = 1
		}
		if g.GraphHeight > 1 {
			g.MemMeter += 6
		}
	} else {
		g.GraphHeight = 0
	}

	if o.ShowDisks {
		g.DiskMeter = b.Width - g.MemWidth - 23
		if g.DisksWidth < 25 {
			g.DiskMeter += 10
		}
		if g.DiskMeter < 1 {
			g.DiskMeter = 0
		}
	}
}

type netPanel struct{}

func (netPanel) ID() PanelID { return Net }

func (netPanel) CalcSize(c *calc) {
	b := c.layout.Box(Net)
	b.MinW, b.MinH = minNetWidth, minNetHeight
	b.WidthP, b.HeightP = 45, 0
	if !c.show[Net] {
		b.Width = c.cols
		return
	}
	if !c.show[Proc] {
		b.WidthP = 100
	}
	b.X = 1
	b.Width = percentOf(c.cols, b.WidthP)
	b.Height = c.lines - c.cpuH - c.memH
	b.Y = c.lines - b.Height + 1

	g := &c.layout.Net
	g.BoxWidth = 19
	if b.Width > 45 {
		g.BoxWidth = 27
	}
	g.BoxHeight = b.Height - 2
	if b.Height > 10 {
		g.BoxHeight = 9
	}
	g.BoxX = b.Width - g.BoxWidth - 1
	g.BoxY = b.Y + (b.Height-2)/2 - g.BoxHeight/2 + 1
	g.GraphWidth = b.Width - g.BoxWidth - 3
	if g.GraphWidth < 1 {
		g.GraphWidth = 1
	}
	g.GraphHeight = pyRound(float64(b.Height-2) / 2)
	g.GraphHeight2 = b.Height - 2 - g.GraphHeight
}

type procPanel struct{}

func (procPanel) ID() PanelID { return Proc }

func (procPanel) CalcSize(c *calc) {
	b := c.layout.Box(Proc)
	b.MinW, b.MinH = minProcWidth, minProcHeight
	b.WidthP, b.HeightP = 55, 68
	if !c.show[Proc] {
		b.Width = c.cols
		return
	}
	if !c.show[Net] && !c.show[Mem] {
		b.WidthP = 100
	}
	if !c.show[CPU] {
		b.HeightP = 100
	}
	b.Width = percentOf(c.cols, b.WidthP)
	if c.show[Mem] {
		b.Width = c.cols - c.layout.Boxes[Mem].Width
	} else if c.show[Net] {
		b.Width = c.cols - c.layout.Boxes[Net].Width
	}
	b.Height = percentOf(c.lines, b.HeightP)
	if b.Height+c.cpuH != c.lines {
		b.Height = c.lines - c.cpuH
	}
	b.X = c.cols - b.Width + 1
	b.Y = c.cpuH + 1
	c.layout.Proc.SelectMax = b.Height - 3
}
