package collector

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/rileyhilliard/sysmon/internal/draw"
	"github.com/rileyhilliard/sysmon/internal/errors"
	"github.com/rileyhilliard/sysmon/internal/graph"
	"github.com/rileyhilliard/sysmon/internal/layout"
	"github.com/rileyhilliard/sysmon/internal/logger"
	"github.com/rileyhilliard/sysmon/internal/term"
)

// Direction indexes the download and upload halves of the net panel.
type Direction int

const (
	Download Direction = iota
	Upload
)

var directions = []Direction{Download, Upload}

func (d Direction) String() string {
	if d == Upload {
		return "upload"
	}
	return "download"
}

func (d Direction) symbol() string {
	if d == Upload {
		return "▲"
	}
	return "▼"
}

// Auto-scale thresholds: the ceiling moves after this many consecutive
// samples above it, or below a tenth of it.
const (
	scaleSamples = 5
	minAutoScale = 10 << 10
)

// netStat is one direction of one interface.
type netStat struct {
	total  uint64
	last   uint64
	offset uint64
	top    int
	speed  *graph.TimeSeries
	// graphTop is the auto-scaled ceiling in bytes per second.
	graphTop int
	raise    int
	lower    int
	redraw   bool

	strTotal string
	strByte  string
	strBit   string
	strTop   string
	strScale string
}

// Net collects interface throughput for the selected interface.
type Net struct {
	env  *Env
	once *logger.Once

	mu        sync.Mutex
	nics      []string
	nicIndex  int
	nic       string
	stats     map[string]*[2]netStat
	minScale  [2]int
	timestamp time.Time
	reset     bool
	syncTop   int
	syncStr   string
	fresh     bool
	redraw    bool

	graphs [2]*graph.Graph
}

// NewNet creates the network collector.
func NewNet(env *Env) *Net {
	return &Net{
		env:      env,
		once:     logger.NewOnce(env.Log),
		stats:    make(map[string]*[2]netStat),
		minScale: [2]int{-1, -1},
		redraw:   true,
	}
}

func (n *Net) Name() string { return NameNet }

func (n *Net) Buffer() draw.BufferID { return draw.Net }

// MarkRedraw rebuilds graphs and buttons on the next draw.
func (n *Net) MarkRedraw() {
	n.mu.Lock()
	n.redraw = true
	n.mu.Unlock()
}

// Interface returns the selected interface name.
func (n *Net) Interface() string {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.nic
}

// Switch selects the next (delta 1) or previous (delta -1) interface. The
// list is refreshed on the next Collect.
func (n *Net) Switch(delta int) {
	n.mu.Lock()
	defer n.mu.Unlock()
	if len(n.nics) == 0 {
		return
	}
	n.nicIndex = (n.nicIndex + delta + len(n.nics)) % len(n.nics)
	n.nic = n.nics[n.nicIndex]
	delete(n.stats, n.nic)
	n.timestamp = time.Time{}
	n.redraw = true
}

// ToggleReset zeroes the displayed totals, or restores them when they are
// already zeroed.
func (n *Net) ToggleReset() {
	n.mu.Lock()
	n.reset = !n.reset
	n.redraw = true
	n.mu.Unlock()
}

// Totals returns the displayed total for each direction.
func (n *Net) Totals() (down, up string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	st, ok := n.stats[n.nic]
	if !ok {
		return "", ""
	}
	return st[Download].strTotal, st[Upload].strTotal
}

// Scale returns the current graph ceiling in bytes per second.
func (n *Net) Scale(d Direction) int {
	n.mu.Lock()
	defer n.mu.Unlock()
	st, ok := n.stats[n.nic]
	if !ok {
		return 0
	}
	return st[d].graphTop
}

// refreshNics lists up interfaces, busiest first. Must be called with mu held.
func (n *Net) refreshNics(ctx context.Context, preferred string) error {
	ifaces, err := n.env.Provider.ListInterfaces(ctx)
	if err != nil {
		return err
	}
	type ranked struct {
		name  string
		bytes uint64
	}
	var up []ranked
	for _, i := range ifaces {
		if !i.Up {
			continue
		}
		s, err := n.env.Provider.SampleNetwork(ctx, i.Name)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			continue
		}
		up = append(up, ranked{name: i.Name, bytes: s.BytesRecv + s.BytesSent})
	}
	sort.SliceStable(up, func(a, b int) bool { return up[a].bytes > up[b].bytes })

	n.nics = n.nics[:0]
	for _, r := range up {
		n.nics = append(n.nics, r.name)
	}
	if len(n.nics) == 0 {
		n.nics = []string{""}
	}
	n.nicIndex = 0
	for i, name := range n.nics {
		if name == preferred {
			n.nicIndex = i
		}
	}
	n.nic = n.nics[n.nicIndex]
	return nil
}

func (n *Net) Collect(ctx context.Context) error {
	cfg := n.env.Config()
	l := n.env.Layout.Layout()
	width := l.Box(layout.Net).Width * 2
	if width < 2 {
		width = 2
	}

	n.mu.Lock()
	defer n.mu.Unlock()

	if n.nic == "" {
		if err := n.refreshNics(ctx, cfg.NetIface); err != nil {
			return err
		}
		if n.nic == "" {
			n.once.Warnf("no-nic", "No active network interface found")
			return nil
		}
	}

	sample, err := n.env.Provider.SampleNetwork(ctx, n.nic)
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if errors.IsCode(err, errors.ErrMetricUnavailable) {
			n.env.Log.Info("Interface %s went away, picking another", n.nic)
			n.nic = ""
			n.redraw = true
			return nil
		}
		return err
	}

	now := time.Now()
	elapsed := now.Sub(n.timestamp).Seconds()
	if n.timestamp.IsZero() || elapsed <= 0 {
		elapsed = 1
	}

	st, ok := n.stats[n.nic]
	if !ok {
		st = &[2]netStat{}
		for i := range st {
			st[i].speed = graph.NewTimeSeries(width)
			st[i].redraw = true
		}
		n.stats[n.nic] = st
	}

	counters := [2]uint64{sample.BytesRecv, sample.BytesSent}
	for _, d := range directions {
		s := &st[d]
		if s.speed.Cap() != width {
			s.speed.Resize(width)
		}
		s.total = counters[d]
		if s.last == 0 || s.last > s.total {
			s.last = s.total
		}
		speed := int(float64(s.total-s.last) / elapsed)
		s.speed.Push(speed)
		s.last = s.total

		if n.minScale[d] == -1 {
			n.minScale[d] = n.configScale(d, cfg.NetDownload, cfg.NetUpload)
			s.graphTop = n.minScale[d]
			s.lower = 7
			if !cfg.NetAuto {
				s.redraw = true
			}
			s.strScale = graph.Humanize(uint64(s.graphTop), graph.HumanizeOpts{Short: true})
		}
		if s.graphTop == 0 {
			s.graphTop = n.minScale[d]
			s.strScale = graph.Humanize(uint64(s.graphTop), graph.HumanizeOpts{Short: true})
		}

		if s.offset > s.total {
			n.reset = true
		}
		if n.reset {
			if s.offset == 0 {
				s.offset = s.total
			} else {
				s.offset = 0
			}
			if d == Upload {
				n.reset = false
				n.redraw = true
			}
		}

		s.strTotal = graph.Humanize(s.total-s.offset, graph.HumanizeOpts{})
		s.strByte = graph.Humanize(uint64(speed), graph.HumanizeOpts{PerSecond: true})
		s.strBit = graph.Humanize(uint64(speed), graph.HumanizeOpts{Bit: true, PerSecond: true})
		if speed > s.top || s.top == 0 {
			s.top = speed
			s.strTop = graph.Humanize(uint64(s.top), graph.HumanizeOpts{Bit: true, PerSecond: true})
		}

		if cfg.NetAuto {
			s.autoScale(speed)
		}
	}
	n.timestamp = now

	if cfg.NetSync {
		top := maxInt(st[Download].graphTop, st[Upload].graphTop)
		if top != n.syncTop {
			n.syncTop = top
			n.syncStr = graph.Humanize(uint64(top), graph.HumanizeOpts{Short: true})
			n.redraw = true
		}
	}
	n.fresh = true
	return nil
}

// configScale parses net_download or net_upload, falling back to 10M.
func (n *Net) configScale(d Direction, download, upload string) int {
	v := download
	if d == Upload {
		v = upload
	}
	b, err := graph.UnitsToBytes(v)
	if err != nil || b <= 0 {
		n.once.Warnf("net-scale-"+d.String(), "Invalid net_%s value %q, using 10M", d, v)
		b = 10 << 20
	}
	return int(b)
}

func (s *netStat) autoScale(speed int) {
	switch {
	case speed > s.graphTop:
		s.raise++
		if s.lower > 0 {
			s.lower--
		}
	case speed < s.graphTop/10:
		s.lower++
		if s.raise > 0 {
			s.raise--
		}
	}
	if s.raise < scaleSamples && s.lower < scaleSamples {
		return
	}
	recent := s.speed.Max(scaleSamples)
	if s.raise >= scaleSamples {
		s.graphTop = round(float64(recent) / 0.8)
	} else {
		s.graphTop = maxInt(minAutoScale, recent*3)
	}
	s.raise, s.lower = 0, 0
	s.redraw = true
	s.strScale = graph.Humanize(uint64(s.graphTop), graph.HumanizeOpts{Short: true})
}

func (n *Net) Draw() {
	l := n.env.Layout.Layout()
	if !l.Visible(layout.Net) {
		return
	}
	cfg := n.env.Config()

	n.mu.Lock()
	defer n.mu.Unlock()

	t := n.env.Theme()
	b := l.Box(layout.Net)
	g := l.Net
	x, y, w, h := b.X+1, b.Y+1, b.Width-2, b.Height-2
	bx, by, bw, bh := g.BoxX+1, g.BoxY+1, g.BoxWidth-2, g.BoxHeight-2

	var out strings.Builder
	st, ok := n.stats[n.nic]
	resized := b.Resized
	if resized || n.redraw || !ok {
		out.WriteString(n.buttons(x, y, w, cfg.NetAuto, cfg.NetSync, ok && st[Download].offset > 0))
		n.env.Layout.ClearResized(layout.Net)
	}
	if !ok {
		n.redraw = false
		n.env.buffer(draw.Net, out.String())
		return
	}

	heights := [2]int{g.GraphHeight, g.GraphHeight2}
	cy := 0
	for _, d := range directions {
		s := &st[d]
		rebuilt := n.redraw || s.redraw || resized || n.graphs[d] == nil
		if rebuilt {
			opts := n.graphOpts(d, cfg.NetSync)
			opts.Reset = t.Esc("main_fg")
			n.graphs[d] = graph.New(w-bw-3, heights[d], t.Gradient(d.String()), s.speed.Values(), opts)
		}
		row := y
		if d == Upload {
			row = y + heights[Download]
		}
		if rebuilt || !n.fresh {
			out.WriteString(term.MoveTo(row, x) + n.graphs[d].String())
		} else {
			out.WriteString(term.MoveTo(row, x) + n.graphs[d].Add(s.speed.Last()))
		}

		out.WriteString(term.MoveTo(by+cy, bx) + t.Esc("main_fg") + d.symbol() + " " + term.Fit(s.strByte, 10))
		if bw >= 20 {
			out.WriteString(term.MoveTo(by+cy, bx+bw-12) + padLeft(cut("("+s.strBit+")", 12), 12))
		}
		if bh != 3 {
			cy++
		} else {
			cy += 2
		}
		if bh >= 6 {
			out.WriteString(term.MoveTo(by+cy, bx) + d.symbol() + " Top:")
			out.WriteString(term.MoveTo(by+cy, bx+bw-12) + padLeft(cut("("+s.strTop+")", 12), 12))
			cy++
		}
		if bh >= 4 {
			out.WriteString(term.MoveTo(by+cy, bx) + d.symbol() + " Total:")
			out.WriteString(term.MoveTo(by+cy, bx+bw-10) + padLeft(cut(s.strTotal, 10), 10))
			if bh > 2 && bh%2 == 1 {
				cy += 2
			} else {
				cy++
			}
		}
		s.redraw = false
	}

	down, up := st[Download].strScale, st[Upload].strScale
	if cfg.NetSync {
		down, up = n.syncStr, n.syncStr
	}
	out.WriteString(term.MoveTo(y, x) + t.Esc("graph_text") + down)
	out.WriteString(term.MoveTo(y+h-1, x) + up + t.Esc("main_fg"))

	n.redraw = false
	n.fresh = false
	n.env.buffer(draw.Net, out.String())
}

// graphOpts scales the graph shape to the current ceiling. Colors always use
// the configured net_download or net_upload ceiling.
func (n *Net) graphOpts(d Direction, sync bool) graph.Opts {
	s := n.stats[n.nic][d]
	opts := graph.Opts{Invert: d == Upload, MaxValue: s.graphTop, ColorMaxValue: n.minScale[d]}
	if sync {
		opts.MaxValue = n.syncTop
	}
	return opts
}

// buttons renders the zero, interface, auto and sync controls on the top edge.
func (n *Net) buttons(x, y, w int, auto, synced, zeroed bool) string {
	t := n.env.Theme()
	box := t.Esc("net_box")
	nic := cut(n.nic, 10)
	nl := runeLen(nic)
	bold := func(on bool) string {
		if on {
			return term.Bold
		}
		return ""
	}

	var s strings.Builder
	s.WriteString(term.MoveTo(y-1, x+w-25) + box + strings.Repeat(draw.HLine, 10-nl) + draw.TitleLeft)
	s.WriteString(bold(zeroed) + t.Esc("hi_fg") + "z" + t.Esc("title") + "ero" + term.Unbold + box + draw.TitleRight)
	s.WriteString(draw.TitleLeft + term.Bold + t.Esc("hi_fg") + "<b " + t.Esc("title") + nic)
	s.WriteString(t.Esc("hi_fg") + " n>" + term.Unbold + box + draw.TitleRight)
	n.env.setHit("z", x+w-nl-14, y-1, 4, 1)
	n.env.setHit("b", x+w-nl-9, y-1, 4, 1)
	n.env.setHit("n", x+w-5, y-1, 4, 1)

	if w-nl-20 > 6 {
		s.WriteString(term.MoveTo(y-1, x+w-21-nl) + box + draw.TitleLeft + bold(auto))
		s.WriteString(t.Esc("hi_fg") + "a" + t.Esc("title") + "uto" + term.Unbold + box + draw.TitleRight)
		n.env.setHit("a", x+w-20-nl, y-1, 4, 1)
	} else {
		n.env.removeHit("a")
	}
	if w-nl-20 > 13 {
		s.WriteString(term.MoveTo(y-1, x+w-27-nl) + box + draw.TitleLeft + bold(synced))
		s.WriteString(t.Esc("title") + "s" + t.Esc("hi_fg") + "y" + t.Esc("title") + "nc" + term.Unbold + box + draw.TitleRight)
		n.env.setHit("y", x+w-26-nl, y-1, 4, 1)
	} else {
		n.env.removeHit("y")
	}
	s.WriteString(t.Esc("main_fg"))
	return s.String()
}
