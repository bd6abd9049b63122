package collector

import (
	"context"
	"math"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/rileyhilliard/sysmon/internal/draw"
	"github.com/rileyhilliard/sysmon/internal/graph"
	"github.com/rileyhilliard/sysmon/internal/layout"
	"github.com/rileyhilliard/sysmon/internal/logger"
	"github.com/rileyhilliard/sysmon/internal/metrics"
)

// detailRows is how many rows the detail view takes from the process list.
const detailRows = 8

// Row is one displayed process line.
type Row struct {
	PID      int32
	Indent   string
	Name     string
	Cmd      string
	Threads  int
	User     string
	Mem      float64
	MemBytes uint64
	CPU      float64
	Depth    int
}

// Detail is the expanded view of one process.
type Detail struct {
	PID        int32
	Name       string
	Parent     string
	User       string
	Status     string
	Threads    int
	Elapsed    string
	MemPercent float64
	Mem        string
	CPU        float64
	Cmdline    string
	Killed     bool
}

// Proc collects, sorts, filters and renders the process list.
type Proc struct {
	env  *Env
	once *logger.Once
	now  func() time.Time

	mu          sync.Mutex
	rows        []Row
	collapsed   map[int32]bool
	treeCounter int

	selected    int
	start       int
	selectedPID int32
	lastSel     int
	filter      string
	filtering   bool

	detailed    bool
	detailedPID int32
	detail      Detail
	detailCPU   *graph.TimeSeries

	pidGraphs  map[int32]*graph.Graph
	pidCounter map[int32]int
	fresh      bool
	moved      bool
	redraw     bool
}

// NewProc creates the process collector.
func NewProc(env *Env) *Proc {
	return &Proc{
		env:        env,
		once:       logger.NewOnce(env.Log),
		now:        time.Now,
		collapsed:  make(map[int32]bool),
		start:      1,
		pidGraphs:  make(map[int32]*graph.Graph),
		pidCounter: make(map[int32]int),
		detailCPU:  graph.NewTimeSeries(200),
		redraw:     true,
	}
}

func (p *Proc) Name() string { return NameProc }

func (p *Proc) Buffer() draw.BufferID { return draw.Proc }

// MarkRedraw redraws the buttons and labels on the next draw.
func (p *Proc) MarkRedraw() {
	p.mu.Lock()
	p.redraw = true
	p.mu.Unlock()
}

// Rows returns the rows of the last collection in display order.
func (p *Proc) Rows() []Row {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]Row(nil), p.rows...)
}

// sortValue is the key used for proc_sorting. Numeric keys compare
// by f, text keys by s.
type sortValue struct {
	f float64
	s string
}

func sortKey(key string, pr *metrics.ProcessInfo, now time.Time) sortValue {
	switch key {
	case "pid":
		return sortValue{f: float64(pr.PID)}
	case "program":
		return sortValue{s: pr.Name}
	case "arguments":
		return sortValue{s: pr.Cmdline}
	case "threads":
		return sortValue{f: float64(pr.NumThreads)}
	case "user":
		return sortValue{s: pr.Username}
	case "memory":
		return sortValue{f: pr.MemPercent}
	case "cpu responsive":
		return sortValue{f: pr.CPUPercent}
	default:
		elapsed := now.Sub(pr.CreateTime).Seconds()
		if pr.CreateTime.IsZero() || elapsed < 1 {
			elapsed = 1
		}
		return sortValue{f: pr.CPUTime / elapsed}
	}
}

func isTextKey(key string) bool {
	return key == "program" || key == "arguments" || key == "user"
}

// sortProcesses orders procs by key, descending unless reversed.
func sortProcesses(procs []metrics.ProcessInfo, key string, reversed bool, now time.Time) {
	vals := make(map[int32]sortValue, len(procs))
	for i := range procs {
		vals[procs[i].PID] = sortKey(key, &procs[i], now)
	}
	text := isTextKey(key)
	sort.SliceStable(procs, func(i, j int) bool {
		a, b := vals[procs[i].PID], vals[procs[j].PID]
		var less bool
		if text {
			less = a.s < b.s
		} else {
			less = a.f < b.f
		}
		if reversed {
			return less
		}
		if text {
			return a.s > b.s
		}
		return a.f > b.f
	})
}

// matcher tests a process against a comma separated filter.
type matcher struct {
	terms      []string
	ignoreCase bool
}

func newMatcher(filter string, ignoreCase bool) matcher {
	m := matcher{ignoreCase: ignoreCase}
	for _, t := range strings.Split(filter, ",") {
		if t = strings.TrimSpace(t); t == "" {
			continue
		}
		if ignoreCase {
			t = strings.ToLower(t)
		}
		m.terms = append(m.terms, t)
	}
	return m
}

func (m matcher) active() bool { return len(m.terms) > 0 }

func (m matcher) match(values ...string) bool {
	for _, v := range values {
		if m.ignoreCase {
			v = strings.ToLower(v)
		}
		for _, t := range m.terms {
			if strings.Contains(v, t) {
				return true
			}
		}
	}
	return false
}

func (m matcher) matchProcess(pr *metrics.ProcessInfo) bool {
	return m.match(pr.Name, pr.Cmdline, itoa32(pr.PID), pr.Username)
}

func cleanCmd(cmd, name string) string {
	if cmd == "" {
		cmd = "[" + name + "]"
	}
	return strings.NewReplacer("\n", "", "\t", "", "\\", "").Replace(cmd)
}

func (p *Proc) Collect(ctx context.Context) error {
	procs, err := p.env.Provider.ListProcesses(ctx)
	if err != nil {
		return err
	}
	cfg := p.env.Config()
	threads := maxInt(p.env.Provider.Threads(), 1)
	now := p.now()

	sortProcesses(procs, cfg.ProcSorting, cfg.ProcReversed, now)

	p.mu.Lock()
	filter := p.filter
	detailedPID := p.detailedPID
	detailed := p.detailed
	p.mu.Unlock()

	m := newMatcher(filter, cfg.ProcFilterIgnoreCase)
	cpuOf := func(pr *metrics.ProcessInfo) float64 {
		if cfg.ProcPerCore {
			return pr.CPUPercent
		}
		return math.Round(pr.CPUPercent/float64(threads)*100) / 100
	}

	var rows []Row
	var collapsedDefaults map[int32]bool
	if cfg.ProcTree {
		p.mu.Lock()
		collapsed := make(map[int32]bool, len(p.collapsed))
		for pid, v := range p.collapsed {
			collapsed[pid] = v
		}
		p.mu.Unlock()
		tb := treeBuilder{
			procs:     procs,
			match:     m,
			cpuOf:     cpuOf,
			collapsed: collapsed,
			maxDepth:  cfg.TreeDepth,
			ctx:       ctx,
		}
		rows = tb.build()
		collapsedDefaults = tb.decided
	} else {
		rows = make([]Row, 0, len(procs))
		for i := range procs {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			pr := &procs[i]
			if pr.Name == "idle" {
				continue
			}
			if m.active() && !m.matchProcess(pr) {
				continue
			}
			name := pr.Name
			if name == "" {
				name = "??"
			}
			rows = append(rows, Row{
				PID:      pr.PID,
				Name:     name,
				Cmd:      cleanCmd(pr.Cmdline, pr.Name),
				Threads:  int(pr.NumThreads),
				User:     pr.Username,
				Mem:      pr.MemPercent,
				MemBytes: pr.MemRSS,
				CPU:      cpuOf(pr),
			})
		}
	}
	if ctx.Err() != nil {
		return ctx.Err()
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	p.rows = rows
	for pid, v := range collapsedDefaults {
		if _, ok := p.collapsed[pid]; !ok {
			p.collapsed[pid] = v
		}
	}
	if detailed {
		p.collectDetail(procs, detailedPID, cpuOf, now)
	}
	p.treeCounter++
	if p.treeCounter >= 100 {
		p.treeCounter = 0
		p.pruneCollapsed(procs)
	}
	p.fresh = true
	return nil
}

// pruneCollapsed drops collapse state and mini graphs of exited processes.
// Must be called with mu held.
func (p *Proc) pruneCollapsed(procs []metrics.ProcessInfo) {
	alive := make(map[int32]bool, len(procs))
	for i := range procs {
		alive[procs[i].PID] = true
	}
	for pid := range p.collapsed {
		if !alive[pid] {
			delete(p.collapsed, pid)
		}
	}
	for pid := range p.pidCounter {
		if !alive[pid] {
			delete(p.pidCounter, pid)
			delete(p.pidGraphs, pid)
		}
	}
}

// collectDetail must be called with mu held.
func (p *Proc) collectDetail(procs []metrics.ProcessInfo, pid int32, cpuOf func(*metrics.ProcessInfo) float64, now time.Time) {
	var found, parent *metrics.ProcessInfo
	for i := range procs {
		if procs[i].PID == pid {
			found = &procs[i]
			break
		}
	}
	if found == nil {
		if !p.detail.Killed {
			p.detail.Killed = true
			p.detail.Status = "dead"
			p.redraw = true
		}
		return
	}
	for i := range procs {
		if procs[i].PID == found.PPID {
			parent = &procs[i]
			break
		}
	}

	d := Detail{
		PID:        found.PID,
		Name:       found.Name,
		User:       found.Username,
		Status:     statusName(found.Status),
		Threads:    int(found.NumThreads),
		MemPercent: found.MemPercent,
		Mem:        graph.Humanize(found.MemRSS, graph.HumanizeOpts{Short: true}),
		CPU:        cpuOf(found),
		Cmdline:    cleanCmd(found.Cmdline, found.Name),
	}
	if parent != nil {
		d.Parent = parent.Name
	}
	if !found.CreateTime.IsZero() {
		d.Elapsed = formatElapsed(now.Sub(found.CreateTime))
	}
	if p.detail.Name != d.Name || p.detail.PID != d.PID {
		p.detailCPU.Reset()
	}
	p.detail = d
	p.detailCPU.Push(clamp(round(d.CPU), 0, 100))
}

var statusNames = map[string]string{
	"R": "running",
	"S": "sleeping",
	"D": "disk sleep",
	"Z": "zombie",
	"T": "stopped",
	"t": "tracing stop",
	"I": "idle",
	"U": "waiting",
	"X": "dead",
}

func statusName(code string) string {
	if code == "" {
		return "?"
	}
	if s, ok := statusNames[code[:1]]; ok {
		return s
	}
	return strings.ToLower(code)
}

// formatElapsed renders d as "HH:MM:SS", prefixed with days when longer.
func formatElapsed(d time.Duration) string {
	secs := int64(d.Seconds())
	if secs < 0 {
		secs = 0
	}
	days := secs / 86400
	secs %= 86400
	clock := padZero(secs/3600) + ":" + padZero(secs%3600/60) + ":" + padZero(secs%60)
	if days > 0 {
		return itoa64(days) + "d " + clock
	}
	return clock
}

// selectMax is the number of process rows that fit. Must be called with mu
// held.
func (p *Proc) selectMax(l *layout.Layout) int {
	n := l.Proc.SelectMax
	if p.detailed {
		n -= detailRows
	}
	return maxInt(n, 1)
}

// Select moves the selection for a navigation key and reports whether
// anything moved. Keys: up, down, page_up, page_down, home, end,
// mouse_scroll_up, mouse_scroll_down, mouse_unselect.
func (p *Proc) Select(key string) bool {
	l := p.env.Layout.Layout()
	p.mu.Lock()
	defer p.mu.Unlock()

	old := [2]int{p.start, p.selected}
	selMax := p.selectMax(&l)
	num := len(p.rows)
	last := num - selMax + 1

	switch key {
	case "up":
		switch {
		case p.selected == 1 && p.start > 1:
			p.start--
		case p.selected == 1:
			p.selected = 0
		case p.selected > 1:
			p.selected--
		}
	case "down":
		switch {
		case p.selected == selMax && p.start < last:
			p.start++
		case p.selected < selMax:
			p.selected++
		}
	case "mouse_scroll_up":
		if p.start > 1 {
			p.start -= 5
		}
	case "mouse_scroll_down":
		if p.start < last {
			p.start += 5
		}
	case "page_up":
		if p.start > 1 {
			p.start -= selMax
		}
	case "page_down":
		if p.start < last {
			p.start += selMax
		}
	case "home":
		if p.start > 1 {
			p.start = 1
		} else if p.selected > 0 {
			p.selected = 0
		}
	case "end":
		if p.start < last {
			p.start = last
		} else if p.selected < selMax {
			p.selected = selMax
		}
	case "mouse_unselect":
		p.selected = 0
	}
	p.clampSelection(selMax)
	if old != [2]int{p.start, p.selected} {
		p.moved = true
		return true
	}
	return false
}

// Click selects the row at terminal line y, or scrolls when the click lands
// on the scrollbar column x.
func (p *Proc) Click(x, y int) bool {
	l := p.env.Layout.Layout()
	b := l.Box(layout.Proc)
	p.mu.Lock()
	defer p.mu.Unlock()

	old := [2]int{p.start, p.selected}
	selMax := p.selectMax(&l)
	top := b.Y
	if p.detailed {
		top += detailRows
	}
	num := len(p.rows)
	switch {
	case x > b.X+b.Width-4 && y > top+1 && y < b.Y+b.Height-2 && num > selMax:
		span := b.Y + b.Height - 2 - (top + 1)
		if span > 0 {
			p.start = round(float64(num) * float64(y-top-1) / float64(span))
		}
	case y > top+1 && y < b.Y+b.Height-1:
		row := y - top - 1
		if row == p.selected {
			p.selected = 0
		} else {
			p.selected = row
		}
	}
	p.clampSelection(selMax)
	if old != [2]int{p.start, p.selected} {
		p.moved = true
		return true
	}
	return false
}

// clampSelection must be called with mu held.
func (p *Proc) clampSelection(selMax int) {
	num := len(p.rows)
	switch {
	case p.start > num-selMax+1 && num > selMax:
		p.start = num - selMax + 1
	case p.start > num:
		p.start = num
	}
	if p.start < 1 {
		p.start = 1
	}
	switch {
	case p.selected > num && num < selMax:
		p.selected = num
	case p.selected > selMax:
		p.selected = selMax
	}
	if p.selected < 0 {
		p.selected = 0
	}
}

// Target is the pid signals and collapse act on: the selected row, else the
// process in the detail view. Zero when neither exists.
func (p *Proc) Target() int32 {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.selected > 0 && p.selectedPID > 0 {
		return p.selectedPID
	}
	if p.detailed && !p.detail.Killed {
		return p.detailedPID
	}
	return 0
}

// Selected returns the selected row number, zero when nothing is selected.
func (p *Proc) Selected() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.selected
}

// ToggleCollapse flips the collapsed state of the selected tree node.
func (p *Proc) ToggleCollapse() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.selected == 0 || p.selectedPID == 0 {
		return false
	}
	p.collapsed[p.selectedPID] = !p.collapsed[p.selectedPID]
	return true
}

// ToggleDetail opens the detail view for the selected process, or closes
// it when it is already open.
func (p *Proc) ToggleDetail() bool {
	l := p.env.Layout.Layout()
	p.mu.Lock()
	defer p.mu.Unlock()
	switch {
	case p.selected > 0 && p.selectedPID > 0 && (!p.detailed || p.detailedPID != p.selectedPID):
		p.detailed = true
		p.lastSel = p.selected
		p.selected = 0
		p.detailedPID = p.selectedPID
		p.detail = Detail{PID: p.selectedPID}
		p.detailCPU.Reset()
	case p.detailed:
		p.detailed = false
		p.detailedPID = 0
		p.selected = p.lastSel
		p.lastSel = 0
	default:
		return false
	}
	p.clampSelection(p.selectMax(&l))
	p.redraw = true
	return true
}

// Detailed returns the detail view state.
func (p *Proc) Detailed() (Detail, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.detail, p.detailed
}

// Filter returns the current filter text.
func (p *Proc) Filter() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.filter
}

// SetFilter replaces the filter text and resets the scroll position.
func (p *Proc) SetFilter(s string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if s != p.filter {
		p.start = 1
		p.selected = 0
	}
	p.filter = s
	p.redraw = true
}

// SetFiltering shows or hides the filter cursor.
func (p *Proc) SetFiltering(on bool) {
	p.mu.Lock()
	p.filtering = on
	p.redraw = true
	p.mu.Unlock()
}

// Filtering reports whether filter text is being edited.
func (p *Proc) Filtering() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.filtering
}
