package collector

import (
	"context"
	"path"
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

var (
	memNames  = []string{"used", "available", "cached", "free"}
	swapNames = []string{"used", "free"}
)

// excludedFstypes are never listed as disks.
var excludedFstypes = map[string]bool{"squashfs": true}

// swapKey identifies the swap pseudo-disk.
const swapKey = "__swap"

// Disk is one row of the disks column.
type Disk struct {
	Key         string
	Name        string
	UsedPercent int
	FreePercent int
	Total       string
	Used        string
	Free        string
	IO          string
}

// Mem collects memory, swap and disk usage.
type Mem struct {
	env  *Env
	once *logger.Once

	mu          sync.Mutex
	total       string
	percent     map[string]int
	strings     map[string]string
	history     map[string]*graph.TimeSeries
	swapOn      bool
	swapTotal   string
	swapPercent map[string]int
	swapStrings map[string]string
	swapHistory map[string]*graph.TimeSeries
	disks       []Disk
	diskNames   []string
	diskIO      map[string]*graph.TimeSeries
	diskAt      time.Time
	fresh       bool
	redraw      bool

	memGauges  map[string]gauge
	swapGauges map[string]gauge
	diskUsed   map[string]*graph.Meter
	diskFree   map[string]*graph.Meter
}

// gauge is either a meter or a history graph.
type gauge struct {
	meter *graph.Meter
	graph *graph.Graph
}

func (g gauge) render(v int, advance bool) string {
	switch {
	case g.graph != nil && advance:
		return g.graph.Add(v)
	case g.graph != nil:
		return g.graph.String()
	case g.meter != nil:
		return g.meter.Render(v)
	}
	return ""
}

// NewMem creates the memory collector.
func NewMem(env *Env) *Mem {
	return &Mem{
		env:         env,
		once:        logger.NewOnce(env.Log),
		percent:     make(map[string]int),
		strings:     make(map[string]string),
		history:     make(map[string]*graph.TimeSeries),
		swapPercent: make(map[string]int),
		swapStrings: make(map[string]string),
		swapHistory: make(map[string]*graph.TimeSeries),
		diskIO:      make(map[string]*graph.TimeSeries),
		redraw:      true,
	}
}

func (m *Mem) Name() string { return NameMem }

func (m *Mem) Buffer() draw.BufferID { return draw.Mem }

// MarkRedraw rebuilds meters on the next draw.
func (m *Mem) MarkRedraw() {
	m.mu.Lock()
	m.redraw = true
	m.mu.Unlock()
}

// Disks returns the current disk rows.
func (m *Mem) Disks() []Disk {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]Disk(nil), m.disks...)
}

// Percent returns the last percentage for a memory item name.
func (m *Mem) Percent(name string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.percent[name]
}

func (m *Mem) Collect(ctx context.Context) error {
	cfg := m.env.Config()
	l := m.env.Layout.Layout()
	width := l.Box(layout.Mem).Width
	if width < 1 {
		width = 1
	}

	sample, err := m.env.Provider.SampleMemory(ctx)
	if err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	m.total = graph.Humanize(sample.Total, graph.HumanizeOpts{})
	values := map[string]uint64{
		"used":      sample.Used,
		"available": sample.Available,
		"cached":    sample.Cached,
		"free":      sample.Free,
	}
	for _, name := range memNames {
		v := values[name]
		m.strings[name] = graph.Humanize(v, graph.HumanizeOpts{})
		m.percent[name] = percentOf(v, sample.Total)
		pushHistory(m.history, name, m.percent[name], width)
	}
	m.fresh = true

	if cfg.ShowSwap || cfg.SwapDisk {
		m.collectSwap(ctx, width)
	} else {
		m.swapOn = false
	}
	if ctx.Err() != nil {
		return ctx.Err()
	}

	if !cfg.ShowDisks {
		return nil
	}
	return m.collectDisks(ctx, cfg.DisksFilter, cfg.SwapDisk, l.Mem.DisksWidth)
}

func percentOf(v, total uint64) int {
	if total == 0 {
		return 0
	}
	return clamp(round(float64(v)*100/float64(total)), 0, 100)
}

func pushHistory(h map[string]*graph.TimeSeries, name string, v, width int) {
	ts, ok := h[name]
	if !ok {
		ts = graph.NewTimeSeries(width)
		h[name] = ts
	} else if ts.Cap() != width {
		ts.Resize(width)
	}
	ts.Push(v)
}

// collectSwap must be called with mu held.
func (m *Mem) collectSwap(ctx context.Context, width int) {
	s, err := m.env.Provider.SampleSwap(ctx)
	if err != nil {
		if errors.IsCode(err, errors.ErrMetricUnavailable) {
			m.once.Warnf("swap", "Swap not available: %v", err)
		}
		if m.swapOn {
			m.redraw = true
		}
		m.swapOn = false
		return
	}
	if s.Total == 0 {
		if m.swapOn {
			m.redraw = true
		}
		m.swapOn = false
		return
	}
	if !m.swapOn {
		m.redraw = true
	}
	m.swapOn = true
	used := s.Total - s.Free
	m.swapTotal = graph.Humanize(s.Total, graph.HumanizeOpts{})
	for name, v := range map[string]uint64{"used": used, "free": s.Free} {
		m.swapStrings[name] = graph.Humanize(v, graph.HumanizeOpts{})
		m.swapPercent[name] = percentOf(v, s.Total)
		pushHistory(m.swapHistory, name, m.swapPercent[name], width)
	}
}

// diskFilter matches disk names by suffix. An "exclude=" prefix inverts it.
type diskFilter struct {
	exclude  bool
	suffixes []string
}

func parseDiskFilter(s string) diskFilter {
	s = strings.TrimSpace(s)
	var f diskFilter
	if s == "" {
		return f
	}
	if strings.HasPrefix(s, "exclude=") {
		f.exclude = true
		s = strings.TrimSpace(strings.TrimPrefix(s, "exclude="))
	}
	for _, v := range strings.Split(s, ",") {
		if v = strings.TrimSpace(v); v != "" {
			f.suffixes = append(f.suffixes, v)
		}
	}
	return f
}

func (f diskFilter) keep(name string) bool {
	if len(f.suffixes) == 0 {
		return true
	}
	matched := false
	for _, s := range f.suffixes {
		if strings.HasSuffix(name, s) {
			matched = true
			break
		}
	}
	return matched != f.exclude
}

// diskName is "root" for "/" and the last path element otherwise.
func diskName(mountpoint string) string {
	if mountpoint == "/" {
		return "root"
	}
	return path.Base(mountpoint)
}

// collectDisks must be called with mu held.
func (m *Mem) collectDisks(ctx context.Context, filter string, swapDisk bool, disksWidth int) error {
	samples, err := m.env.Provider.SampleDisks(ctx)
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return errors.WrapWithCode(err, errors.ErrCollector, "Couldn't read disk usage", "")
	}

	now := time.Now()
	elapsed := now.Sub(m.diskAt).Seconds()
	if m.diskAt.IsZero() || elapsed <= 0 {
		elapsed = 1
	}
	m.diskAt = now

	f := parseDiskFilter(filter)
	var names []string
	seen := make(map[string]bool)
	live := make(map[string]bool)
	disks := make([]Disk, 0, len(samples)+1)
	for _, s := range samples {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		name := diskName(s.Mountpoint)
		for seen[name] {
			name += "_"
		}
		seen[name] = true
		names = append(names, name)

		if excludedFstypes[s.Fstype] || !f.keep(name) || s.Mountpoint == "/private/var/vm" {
			continue
		}
		used := 0
		if s.Used+s.Free > 0 {
			used = clamp(round(float64(s.Used)*100/float64(s.Used+s.Free)), 0, 100)
		}
		d := Disk{
			Key:         s.Device,
			Name:        name,
			UsedPercent: used,
			FreePercent: 100 - used,
			Total:       graph.Humanize(s.Total, graph.HumanizeOpts{}),
			Used:        graph.Humanize(s.Used, graph.HumanizeOpts{}),
			Free:        graph.Humanize(s.Free, graph.HumanizeOpts{}),
		}
		if s.IOAvailable {
			read, write := uint64(float64(s.ReadBytes)/elapsed), uint64(float64(s.WriteBytes)/elapsed)
			d.IO = ioString(read, write, disksWidth)
			pushHistory(m.diskIO, d.Key, int(read+write), maxInt(disksWidth*2, 1))
			live[d.Key] = true
		}
		disks = append(disks, d)
	}
	for key := range m.diskIO {
		if !live[key] {
			delete(m.diskIO, key)
		}
	}

	if swapDisk && m.swapOn {
		sd := Disk{
			Key:         swapKey,
			Name:        "swap",
			UsedPercent: m.swapPercent["used"],
			FreePercent: m.swapPercent["free"],
			Total:       m.swapTotal,
			Used:        m.swapStrings["used"],
			Free:        m.swapStrings["free"],
		}
		if len(disks) >= 2 {
			disks = append(disks[:1], append([]Disk{sd}, disks[1:]...)...)
		} else {
			disks = append(disks, sd)
		}
	}

	if !equalStrings(names, m.diskNames) {
		m.redraw = true
		m.diskNames = names
	}
	m.disks = disks
	return nil
}

func ioString(read, write uint64, disksWidth int) string {
	short := graph.HumanizeOpts{Short: true}
	if disksWidth > 30 {
		var s string
		if read > 0 {
			s += "▲" + graph.Humanize(read, short) + " "
		}
		if write > 0 {
			s += "▼" + graph.Humanize(write, short)
		}
		return s
	}
	if read+write > 0 {
		return "▼▲" + graph.Humanize(read+write, short)
	}
	return ""
}

func equalStrings(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

func (m *Mem) Draw() {
	l := m.env.Layout.Layout()
	if !l.Visible(layout.Mem) {
		return
	}
	cfg := m.env.Config()

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.total == "" {
		return
	}

	t := m.env.Theme()
	b := l.Box(layout.Mem)
	g := l.Mem
	x, y, w, h := b.X+1, b.Y+1, b.Width-2, b.Height-2
	rebuilt := b.Resized || m.redraw || m.memGauges == nil
	if rebuilt {
		m.build(t, g, cfg.MemGraphs, cfg.SwapDisk, cfg.ShowDisks, h)
		m.env.Layout.ClearResized(layout.Mem)
		m.redraw = false
	}
	advance := !rebuilt && m.fresh

	var out strings.Builder
	out.WriteString(m.modeButtons(t, x, y, w, cfg.MemGraphs, cfg.ShowDisks, cfg.SwapDisk))

	var gli, gbg, gmv string
	if g.GraphHeight > 0 {
		gli = term.Left(2) + t.Esc("mem_box") + draw.TitleRight + t.Esc("div_line") +
			strings.Repeat(draw.HLine, g.MemWidth-1)
		if !cfg.ShowDisks {
			gli += t.Esc("mem_box")
		}
		gli += draw.TitleLeft + term.Left(g.MemWidth-1) + t.Esc("title")
	}
	if g.GraphHeight >= 2 {
		gbg = term.Left(1)
		gmv = term.Left(g.MemWidth-2) + term.Up(g.GraphHeight-1)
	}

	cx, cy := 1, 1
	out.WriteString(term.MoveTo(y, x+1) + t.Esc("title") + term.Bold + "Total:")
	out.WriteString(padLeft(m.total, g.MemWidth-9) + term.Unbold + t.Esc("main_fg"))
	item := func(name, value string, pct int, gg gauge) {
		if g.MemSize > 2 {
			label := capitalize(name)
			if g.MemWidth <= 21 {
				label = term.Fit(cut(label, 5)+":", 6)
			} else {
				label += ":"
			}
			out.WriteString(term.MoveTo(y+cy, x+cx) + gli + label)
			out.WriteString(term.MoveTo(y+cy, x+cx+g.MemWidth-3-runeLen(value)) + value)
			out.WriteString(term.MoveTo(y+cy+1, x+cx) + gbg + gg.render(pct, advance) + gmv)
			out.WriteString(padLeft(strconv.Itoa(pct)+"%", 4))
			if g.GraphHeight == 0 {
				cy += 2
			} else {
				cy += g.GraphHeight + 1
			}
			return
		}
		labelWidth, valueWidth := 5, 9
		if g.MemSize <= 1 {
			labelWidth, valueWidth = 1, 7
			value = dropEnd(value, 2)
		}
		out.WriteString(term.MoveTo(y+cy, x+cx) + term.Fit(capitalize(name), labelWidth) + " ")
		out.WriteString(gbg + gg.render(pct, advance) + padLeft(value, valueWidth))
		if g.GraphHeight == 0 {
			cy++
		} else {
			cy += g.GraphHeight
		}
	}
	for _, name := range memNames {
		item(name, m.strings[name], m.percent[name], m.memGauges[name])
	}

	if m.swapOn && cfg.ShowSwap && !cfg.SwapDisk && len(m.swapStrings) > 0 {
		if h-cy > 5 {
			if g.GraphHeight > 0 {
				out.WriteString(term.MoveTo(y+cy, x+cx) + gli)
			}
			cy++
		}
		out.WriteString(term.MoveTo(y+cy, x+cx) + t.Esc("title") + term.Bold + "Swap:")
		out.WriteString(padLeft(m.swapTotal, g.MemWidth-8) + term.Unbold + t.Esc("main_fg"))
		cy++
		for _, name := range swapNames {
			item(name, m.swapStrings[name], m.swapPercent[name], m.swapGauges[name])
		}
	}
	if g.GraphHeight > 0 && cy != h {
		out.WriteString(term.MoveTo(y+cy, x+cx) + gli)
	}

	if cfg.ShowDisks {
		out.WriteString(m.drawDisks(t, g, y, h))
	}

	m.fresh = false
	m.env.buffer(draw.Mem, out.String()+t.Esc("main_fg"))
}

// build must be called with mu held.
func (m *Mem) build(t *theme.Theme, g layout.MemGeometry, graphs, swapDisk, showDisks bool, h int) {
	reset := t.Esc("main_fg")
	inactive := t.Esc("meter_bg")
	m.memGauges = make(map[string]gauge)
	m.swapGauges = make(map[string]gauge)
	m.diskUsed = make(map[string]*graph.Meter)
	m.diskFree = make(map[string]*graph.Meter)

	if g.MemMeter > 0 {
		for _, name := range memNames {
			if graphs {
				m.memGauges[name] = gauge{graph: graph.New(g.MemMeter, g.GraphHeight, t.Gradient(name), m.history[name].Values(), graph.Opts{Reset: reset})}
			} else {
				m.memGauges[name] = gauge{meter: graph.NewMeter(g.MemMeter, t.Gradient(name), inactive, reset, false)}
			}
		}
		if m.swapOn && !swapDisk {
			for _, name := range swapNames {
				if graphs {
					m.swapGauges[name] = gauge{graph: graph.New(g.MemMeter, g.GraphHeight, t.Gradient(name), m.swapHistory[name].Values(), graph.Opts{Reset: reset})}
				} else {
					m.swapGauges[name] = gauge{meter: graph.NewMeter(g.MemMeter, t.Gradient(name), inactive, reset, false)}
				}
			}
		}
	}

	if showDisks && g.DiskMeter > 0 {
		for n, d := range m.disks {
			if n*2 > h {
				break
			}
			m.diskUsed[d.Key] = graph.NewMeter(g.DiskMeter, t.Gradient(theme.GradUsed), inactive, reset, false)
			if len(m.disks)*3 <= h+1 {
				m.diskFree[d.Key] = graph.NewMeter(g.DiskMeter, t.Gradient(theme.GradFree), inactive, reset, false)
			}
		}
	}
}

func (m *Mem) modeButtons(t *theme.Theme, x, y, w int, graphs, showDisks, swapDisk bool) string {
	var s strings.Builder
	box := t.Esc("mem_box")
	s.WriteString(term.MoveTo(y-1, x+w-25) + box + draw.TitleLeft)
	if graphs {
		s.WriteString(term.Bold)
	}
	s.WriteString(t.Esc("hi_fg") + "g" + t.Esc("title") + "raph" + term.Unbold + box + draw.TitleRight)
	m.env.setHit("g", x+w-24, y-1, 5, 1)
	if showDisks {
		s.WriteString(term.MoveTo(y-1, x+w-9) + draw.TitleLeft)
		if swapDisk {
			s.WriteString(term.Bold)
		}
		s.WriteString(t.Esc("hi_fg") + "s" + t.Esc("title") + "wap" + term.Unbold + box + draw.TitleRight)
		m.env.setHit("s", x+w-8, y-1, 4, 1)
	} else {
		m.env.removeHit("s")
	}
	return s.String()
}

// drawDisks must be called with mu held.
func (m *Mem) drawDisks(t *theme.Theme, g layout.MemGeometry, y, h int) string {
	var out strings.Builder
	col := g.Divider + 2
	big := g.DisksWidth >= 25
	gli := term.Left(2) + t.Esc("div_line") + draw.TitleRight + strings.Repeat(draw.HLine, g.DisksWidth) +
		t.Esc("mem_box") + draw.TitleLeft + term.Left(g.DisksWidth-1)
	trim := func(s string) string {
		if big {
			return s
		}
		return dropEnd(s, 2)
	}
	valueWidth := 7
	if big {
		valueWidth = 9
	}

	cy := 0
	for _, d := range m.disks {
		if cy > h-2 {
			break
		}
		out.WriteString(term.MoveTo(y+cy, col) + gli + t.Esc("title") + term.Bold)
		out.WriteString(padRight(cut(d.Name, 12), g.DisksWidth-2))
		out.WriteString(term.MoveTo(y+cy, col+g.DisksWidth-11) + padLeft(trim(d.Total), 9))
		out.WriteString(term.MoveTo(y+cy, col+g.DisksWidth/2-runeLen(d.IO)/2-2) + term.Unbold + t.Esc("main_fg") + d.IO)
		out.WriteString(term.MoveTo(y+cy+1, col))
		if big {
			out.WriteString("Used:" + padLeft(strconv.Itoa(d.UsedPercent)+"%", 4) + " ")
		} else {
			out.WriteString("U ")
		}
		if mt := m.meterFor(m.diskUsed, d.Key, t, theme.GradUsed, g.DiskMeter); mt != nil {
			out.WriteString(mt.Render(d.UsedPercent))
		}
		out.WriteString(padLeft(trim(d.Used), valueWidth))
		cy += 2

		if len(m.disks)*3 <= h+1 {
			if cy > h-1 {
				break
			}
			out.WriteString(term.MoveTo(y+cy, col))
			if big {
				out.WriteString("Free:" + padLeft(strconv.Itoa(d.FreePercent)+"%", 4) + " ")
			} else {
				out.WriteString("F ")
			}
			if mt := m.meterFor(m.diskFree, d.Key, t, theme.GradFree, g.DiskMeter); mt != nil {
				out.WriteString(mt.Render(d.FreePercent))
			}
			out.WriteString(padLeft(trim(d.Free), valueWidth))
			cy++
			if len(m.disks)*4 <= h+1 {
				if ioRow := m.ioGraph(d.Key, g.DiskMeter, t.Gradient(theme.GradFree), t.Esc("main_fg")); ioRow != "" && cy < h {
					out.WriteString(term.MoveTo(y+cy, col))
					if big {
						out.WriteString(padRight("IO:", 10))
					} else {
						out.WriteString("I ")
					}
					out.WriteString(ioRow)
				}
				cy++
			}
		}
	}
	return out.String()
}

// ioGraph renders the read plus write history of a disk on one row, scaled
// to its recent peak. Idle stretches keep a baseline so the row never looks
// empty. It returns "" for disks without IO counters.
func (m *Mem) ioGraph(key string, width int, grad []string, reset string) string {
	hist, ok := m.diskIO[key]
	if !ok || width <= 0 {
		return ""
	}
	peak := maxInt(hist.Max(width*2), 1)
	return graph.New(width, 1, grad, hist.Values(), graph.Opts{MaxValue: peak, NoZero: true, Reset: reset}).String()
}

// meterFor returns the cached meter for key, creating one for disks that
// appeared since the last rebuild.
func (m *Mem) meterFor(meters map[string]*graph.Meter, key string, t *theme.Theme, grad string, width int) *graph.Meter {
	if width <= 0 {
		return nil
	}
	if mt, ok := meters[key]; ok {
		return mt
	}
	mt := graph.NewMeter(width, t.Gradient(grad), t.Esc("meter_bg"), t.Esc("main_fg"), false)
	meters[key] = mt
	return mt
}
