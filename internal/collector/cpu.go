package collector

import (
	"context"
	"fmt"
	"math"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/rileyhilliard/sysmon/internal/draw"
	"github.com/rileyhilliard/sysmon/internal/errors"
	"github.com/rileyhilliard/sysmon/internal/graph"
	"github.com/rileyhilliard/sysmon/internal/layout"
	"github.com/rileyhilliard/sysmon/internal/logger"
	"github.com/rileyhilliard/sysmon/internal/term"
	"github.com/rileyhilliard/sysmon/internal/theme"
)

// tempSamples is how many temperature readings each mini graph keeps.
const tempSamples = 5

// CPU collects total and per-core usage, frequency, load, uptime and
// temperatures.
type CPU struct {
	env  *Env
	once *logger.Once

	mu       sync.Mutex
	threads  int
	usage    []*graph.TimeSeries // [0] is the total
	temps    []*graph.TimeSeries
	sensors  bool
	tempHigh int
	tempCrit int
	freq     int
	load     [3]float64
	uptime   string
	fresh    bool
	redraw   bool

	up, down  *graph.Graph
	meter     *graph.Meter
	cores     []*graph.Graph
	tempGraph []*graph.Graph
}

// NewCPU creates the CPU collector. Temperatures are sampled while
// check_temp is on and the provider keeps returning readings.
func NewCPU(env *Env) *CPU {
	threads := env.Provider.Threads()
	if threads < 1 {
		threads = 1
	}
	c := &CPU{
		env:      env,
		once:     logger.NewOnce(env.Log),
		threads:  threads,
		sensors:  env.Config().CheckTemp,
		tempHigh: 80,
		tempCrit: 95,
		redraw:   true,
	}
	c.usage = make([]*graph.TimeSeries, threads+1)
	c.temps = make([]*graph.TimeSeries, threads+1)
	for i := range c.usage {
		c.usage[i] = graph.NewTimeSeries(c.historyCap())
		c.temps[i] = graph.NewTimeSeries(tempSamples)
	}
	return c
}

func (c *CPU) Name() string { return NameCPU }
func (c *CPU) Buffer() draw.BufferID { return draw.CPU }

// Sensors reports whether temperatures are being shown.
func (c *CPU) Sensors() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.sensors
}

// MarkRedraw rebuilds the graphs on the next draw.
func (c *CPU) MarkRedraw() {
	c.mu.Lock()
	c.redraw = true
	c.mu.Unlock()
}

// Usage returns the total usage history, oldest first.
func (c *CPU) Usage() []int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.usage[0].Values()
}

func (c *CPU) historyCap() int {
	l := c.env.Layout.Layout()
	if l.Cols > 0 {
		return l.Cols * 2
	}
	return 400
}

func (c *CPU) Collect(ctx context.Context) error {
	s, err := c.env.Provider.SampleCPU(ctx)
	if err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	limit := c.historyCap()
	for _, ts := range c.usage {
		if ts.Cap() != limit {
			ts.Resize(limit)
		}
	}
	c.usage[0].Push(clamp(round(s.Total), 0, 100))
	for i := 1; i <= c.threads; i++ {
		v := 0
		if i-1 < len(s.PerCore) {
			v = clamp(round(s.PerCore[i-1]), 0, 100)
		}
		c.usage[i].Push(v)
	}
	c.freq = round(s.FreqMHz)
	for i, l := range s.LoadAvg {
		c.load[i] = math.Round(l*100) / 100
	}
	c.uptime = formatUptime(s.Uptime)
	c.fresh = true

	cfg := c.env.Config()
	if cfg.CheckTemp && c.sensors {
		c.collectTemps(ctx)
	}
	return nil
}

// collectTemps must be called with mu held.
func (c *CPU) collectTemps(ctx context.Context) {
	t, err := c.env.Provider.SampleTemperatures(ctx, c.threads)
	if err != nil {
		if ctx.Err() != nil {
			return
		}
		if errors.IsCode(err, errors.ErrMetricUnavailable) {
			c.once.Warnf("cpu-temp", "CPU temperature not available, hiding sensors: %v", err)
			c.sensors = false
			c.redraw = true
			c.env.RequestRelayout()
			return
		}
		c.env.Log.Debug("Temperature sample failed: %v", err)
		return
	}
	if t.High > 0 {
		c.tempHigh = round(t.High)
	}
	if t.Critical > 0 {
		c.tempCrit = round(t.Critical)
	}
	c.temps[0].Push(round(t.Package))
	for i := 1; i <= c.threads; i++ {
		v := t.Package
		if len(t.Cores) > 0 {
			v = t.Cores[(i-1)%len(t.Cores)]
		}
		c.temps[i].Push(round(v))
	}
}

func (c *CPU) Draw() {
	l := c.env.Layout.Layout()
	if !l.Visible(layout.CPU) {
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	t := c.env.Theme()
	b := l.Box(layout.CPU)
	g := l.CPU
	x, y, w, h := b.X+1, b.Y+1, b.Width-2, b.Height-2
	bx, by, bw, bh := g.BoxX+1, g.BoxY+1, g.BoxWidth-2, g.BoxHeight-2
	hh := int(math.Ceil(float64(h) / 2))
	sensors := c.sensors && c.temps[0].Len() > 0
	rebuilt := b.Resized || c.redraw || c.up == nil

	if rebuilt {
		c.build(t, g, w, bw, h, hh, sensors)
		c.env.Layout.ClearResized(layout.CPU)
		c.redraw = false
	}

	advance := func(gr *graph.Graph, v int) string {
		if rebuilt || !c.fresh {
			return gr.String()
		}
		return gr.Add(v)
	}

	var out strings.Builder
	total := c.usage[0].Last()
	cpuGrad := t.Gradient(theme.GradCPU)
	tempGrad := t.Gradient(theme.GradTemp)

	if c.freq > 0 {
		out.WriteString(term.MoveTo(by-1, bx+bw-9) + t.Esc("div_line") + draw.TitleLeft)
		out.WriteString(term.Bold + t.Esc("title") + formatFreq(c.freq) + term.Unbold)
		out.WriteString(t.Esc("div_line") + draw.TitleRight)
	}
	out.WriteString(term.MoveTo(y, x) + advance(c.up, total))
	out.WriteString(term.MoveTo(y+hh, x) + advance(c.down, total))
	out.WriteString(t.Esc("main_fg") + term.MoveTo(by, bx) + term.Bold + "CPU " + term.Unbold)
	out.WriteString(c.meter.Render(total))
	out.WriteString(cpuGrad[total] + padLeft(strconv.Itoa(total), 4) + t.Esc("main_fg") + "%")
	if sensors {
		temp := c.temps[0].Last()
		out.WriteString(t.Esc("inactive_fg") + " ⡀⡀⡀⡀⡀" + term.Left(5))
		out.WriteString(tempGrad[c.tempPercent(temp)] + advance(c.tempGraph[0], temp))
		out.WriteString(padLeft(strconv.Itoa(temp), 4) + t.Esc("main_fg") + "°C")
	}

	cx, cy, cc := 0, 1, 0
	ccw := (bw + 1) / maxInt(g.BoxColumns, 1)
	labelWidth := 2
	if g.ColumnSize > 0 {
		labelWidth = 3
	}
	valueWidth := 3
	if g.ColumnSize >= 2 {
		valueWidth = 4
	}
	for n := 1; n <= c.threads; n++ {
		v := c.usage[n].Last()
		out.WriteString(t.Esc("main_fg") + term.MoveTo(by+cy, bx+cx))
		if c.threads < 100 {
			out.WriteString(term.Bold + "C" + term.Unbold)
		}
		out.WriteString(padRight(strconv.Itoa(n), labelWidth))
		if g.ColumnSize > 0 && n-1 < len(c.cores) {
			cells := 5 * g.ColumnSize
			out.WriteString(t.Esc("inactive_fg") + strings.Repeat("⡀", cells) + term.Left(cells))
			out.WriteString(cpuGrad[v] + advance(c.cores[n-1], v))
		} else {
			out.WriteString(cpuGrad[v])
		}
		out.WriteString(padLeft(strconv.Itoa(v), valueWidth) + t.Esc("main_fg") + "%")
		if sensors {
			temp := c.temps[n].Last()
			if g.ColumnSize > 1 && n < len(c.tempGraph) {
				out.WriteString(t.Esc("inactive_fg") + " ⡀⡀⡀⡀⡀" + term.Left(5))
				out.WriteString(tempGrad[c.tempPercent(temp)] + advance(c.tempGraph[n], temp))
			} else {
				out.WriteString(tempGrad[c.tempPercent(temp)])
			}
			out.WriteString(padLeft(strconv.Itoa(temp), 4) + t.Esc("main_fg") + "°C")
		}
		out.WriteString(t.Esc("div_line") + draw.VLine)
		cy++
		if cy == bh {
			cc++
			cy = 1
			cx = ccw * cc
			if cc == g.BoxColumns {
				break
			}
		}
	}
	if cy < bh-1 {
		cy = bh - 1
	}

	out.WriteString(term.MoveTo(by+cy, bx+cx) + t.Esc("main_fg") + c.loadLabel(g.ColumnSize, sensors))
	out.WriteString(t.Esc("div_line") + draw.VLine)
	out.WriteString(term.MoveTo(y+h-1, x+1) + t.Esc("graph_text") + "up " + c.uptime)
	out.WriteString(t.Esc("main_fg"))

	c.fresh = false
	c.env.buffer(draw.CPU, out.String())
}

// build must be called with mu held.
func (c *CPU) build(t *theme.Theme, g layout.CPUGeometry, w, bw, h, hh int, sensors bool) {
	reset := t.Esc("main_fg")
	gw := w - bw - 3
	data := c.usage[0].Values()
	c.up = graph.New(gw, hh, t.Gradient(theme.GradCPU), data, graph.Opts{Reset: reset})
	c.down = graph.New(gw, h-hh, t.Gradient(theme.GradCPU), data, graph.Opts{Invert: true, Reset: reset})

	mw := bw - 9
	if sensors {
		mw = bw - 21
	}
	c.meter = graph.NewMeter(mw, t.Gradient(theme.GradCPU), t.Esc("meter_bg"), reset, false)

	c.cores = nil
	if g.ColumnSize > 0 {
		c.cores = make([]*graph.Graph, c.threads)
		for n := range c.cores {
			c.cores[n] = graph.New(5*g.ColumnSize, 1, nil, c.usage[n+1].Values(), graph.Opts{})
		}
	}

	c.tempGraph = nil
	if sensors {
		count := 1
		if g.ColumnSize > 1 {
			count = c.threads + 1
		}
		c.tempGraph = make([]*graph.Graph, count)
		for n := range c.tempGraph {
			c.tempGraph[n] = graph.New(5, 1, nil, c.temps[n].Values(), graph.Opts{MaxValue: c.tempCrit, Offset: -23})
		}
	}
}

func (c *CPU) tempPercent(temp int) int {
	if c.tempCrit <= 0 || temp >= c.tempCrit {
		return 100
	}
	if temp < 0 {
		return 0
	}
	return temp * 100 / c.tempCrit
}

func (c *CPU) loadLabel(columnSize int, sensors bool) string {
	switch {
	case columnSize == 2 && sensors:
		return "Load AVG:  " + fitCenter(joinFloats(c.load[:], "   ", 2), 19)
	case columnSize == 2 || (columnSize == 1 && sensors):
		return "LAV: " + fitCenter(joinFloats(c.load[:], " ", 2), 14)
	case columnSize == 1 || (columnSize == 0 && sensors):
		return "L " + fitCenter(joinFloats(c.load[:], " ", 1), 11)
	default:
		return fitCenter(joinFloats(c.load[:2], " ", 1), 7)
	}
}

func fitCenter(s string, width int) string {
	return center(cut(s, width), width)
}

func joinFloats(vals []float64, sep string, digits int) string {
	parts := make([]string, len(vals))
	scale := math.Pow(10, float64(digits))
	for i, v := range vals {
		parts[i] = pyFloat(math.Round(v*scale) / scale)
	}
	return strings.Join(parts, sep)
}

// pyFloat formats f with the shortest representation, keeping one decimal
// for whole numbers.
func pyFloat(f float64) string {
	s := strconv.FormatFloat(f, 'f', -1, 64)
	if !strings.Contains(s, ".") {
		s += ".0"
	}
	return s
}

func formatFreq(mhz int) string {
	if mhz < 1000 {
		return fmt.Sprintf("%d Mhz", mhz)
	}
	return fmt.Sprintf("%.1f GHz", float64(mhz)/1000)
}

// formatUptime renders d as "H:MM" or "N days, H:MM".
func formatUptime(d time.Duration) string {
	secs := int64(math.Round(d.Seconds()))
	days := secs / 86400
	secs %= 86400
	clock := fmt.Sprintf("%d:%02d", secs/3600, secs%3600/60)
	switch days {
	case 0:
		return clock
	case 1:
		return "1 day, " + clock
	default:
		return fmt.Sprintf("%d days, %s", days, clock)
	}
}
