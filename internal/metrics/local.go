package metrics

import (
	"context"
	"fmt"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/shirou/gopsutil/v4/cpu"
	"github.com/shirou/gopsutil/v4/disk"
	"github.com/shirou/gopsutil/v4/host"
	"github.com/shirou/gopsutil/v4/load"
	"github.com/shirou/gopsutil/v4/mem"
	"github.com/shirou/gopsutil/v4/net"
	"github.com/shirou/gopsutil/v4/process"
	"github.com/shirou/gopsutil/v4/sensors"
	"golang.org/x/sys/unix"

	"github.com/rileyhilliard/sysmon/internal/errors"
)

// Default temperature limits when sensors report none.
const (
	defaultTempHigh     = 80
	defaultTempCritical = 95
)

// Local reads metrics from the machine it runs on.
type Local struct {
	mu      sync.Mutex
	procs   map[int32]*process.Process
	prevIO  map[string]disk.IOCountersStat
	cpuName string
	threads int
}

// NewLocal probes the CPU and returns a provider. customName, when set,
// replaces the detected model name.
func NewLocal(ctx context.Context, customName string) (*Local, error) {
	threads, err := cpu.CountsWithContext(ctx, true)
	if err != nil || threads < 1 {
		return nil, errors.WrapWithCode(err, errors.ErrMetrics,
			"Couldn't read CPU information",
			"sysmon needs access to /proc (Linux) or sysctl (macOS)")
	}
	l := &Local{
		procs:   make(map[int32]*process.Process),
		prevIO:  make(map[string]disk.IOCountersStat),
		threads: threads,
	}
	if customName != "" {
		l.cpuName = customName
	} else if info, err := cpu.InfoWithContext(ctx); err == nil && len(info) > 0 {
		l.cpuName = CleanCPUName(info[0].ModelName)
	}
	return l, nil
}

func (l *Local) CPUName() string { return l.cpuName }

func (l *Local) Threads() int { return l.threads }

func (l *Local) Close() error { return nil }

func (l *Local) SampleCPU(ctx context.Context) (CPUSample, error) {
	var s CPUSample
	total, err := cpu.PercentWithContext(ctx, 0, false)
	if err != nil || len(total) == 0 {
		return s, errors.WrapWithCode(err, errors.ErrMetrics, "Couldn't read CPU usage", "")
	}
	s.Total = total[0]
	if s.PerCore, err = cpu.PercentWithContext(ctx, 0, true); err != nil {
		s.PerCore = nil
	}
	if info, err := cpu.InfoWithContext(ctx); err == nil && len(info) > 0 {
		var sum float64
		for _, i := range info {
			sum += i.Mhz
		}
		s.FreqMHz = sum / float64(len(info))
	}
	if avg, err := load.AvgWithContext(ctx); err == nil {
		s.LoadAvg = [3]float64{avg.Load1, avg.Load5, avg.Load15}
	}
	if up, err := host.UptimeWithContext(ctx); err == nil {
		s.Uptime = time.Duration(up) * time.Second
	}
	return s, nil
}

var coreSensor = regexp.MustCompile(`core_?(\d+)`)

// SampleTemperatures maps sensor readings onto cores. Intel coretemp exposes
// a reading per physical core; threads beyond the core count reuse them in
// order. Other platforms fall back to a single aggregate reading.
func (l *Local) SampleTemperatures(ctx context.Context, cores int) (Temperatures, error) {
	stats, err := sensors.TemperaturesWithContext(ctx)
	if len(stats) == 0 {
		if err == nil {
			err = fmt.Errorf("no sensors found")
		}
		return Temperatures{}, errors.Unavailable("CPU temperature", err)
	}
	return mapTemperatures(stats, cores), nil
}

func mapTemperatures(stats []sensors.TemperatureStat, threads int) Temperatures {
	t := Temperatures{High: defaultTempHigh, Critical: defaultTempCritical}
	var pkg *sensors.TemperatureStat
	type coreTemp struct {
		id   int
		temp float64
	}
	var cores []coreTemp
	var hottest float64
	for i := range stats {
		st := &stats[i]
		key := strings.ToLower(st.SensorKey)
		if st.Temperature > hottest {
			hottest = st.Temperature
		}
		switch {
		case pkg == nil && (strings.Contains(key, "package") || strings.Contains(key, "tctl") ||
			strings.Contains(key, "tdie") || strings.Contains(key, "cpu_thermal")):
			pkg = st
		case strings.Contains(key, "coretemp") || strings.HasPrefix(key, "core"):
			if m := coreSensor.FindStringSubmatch(key); m != nil {
				id, _ := strconv.Atoi(m[1])
				cores = append(cores, coreTemp{id: id, temp: st.Temperature})
			}
		}
	}
	sort.Slice(cores, func(i, j int) bool { return cores[i].id < cores[j].id })

	switch {
	case pkg != nil:
		t.Package = pkg.Temperature
		if pkg.High > 0 {
			t.High = pkg.High
		}
		if pkg.Critical > 0 {
			t.Critical = pkg.Critical
		}
	case len(cores) > 0:
		for _, c := range cores {
			if c.temp > t.Package {
				t.Package = c.temp
			}
		}
	default:
		t.Package = hottest
	}
	if len(cores) > 0 && threads > 0 {
		t.Cores = make([]float64, threads)
		for i := range t.Cores {
			t.Cores[i] = cores[i%len(cores)].temp
		}
	}
	return t
}

func (l *Local) SampleMemory(ctx context.Context) (MemorySample, error) {
	vm, err := mem.VirtualMemoryWithContext(ctx)
	if err != nil {
		return MemorySample{}, errors.WrapWithCode(err, errors.ErrMetrics, "Couldn't read memory usage", "")
	}
	return MemorySample{
		Total:     vm.Total,
		Available: vm.Available,
		Free:      vm.Free,
		Cached:    vm.Cached,
		Used:      vm.Total - vm.Available,
	}, nil
}

func (l *Local) SampleSwap(ctx context.Context) (SwapSample, error) {
	sw, err := mem.SwapMemoryWithContext(ctx)
	if err != nil {
		return SwapSample{}, errors.Unavailable("swap", err)
	}
	return SwapSample{Total: sw.Total, Used: sw.Used, Free: sw.Free}, nil
}

// SampleDisks lists mounted filesystems. A partition that fails its usage
// query is skipped for this sample.
func (l *Local) SampleDisks(ctx context.Context) ([]DiskSample, error) {
	parts, err := disk.PartitionsWithContext(ctx, false)
	if err != nil {
		return nil, errors.Unavailable("disk list", err)
	}
	counters, ioErr := disk.IOCountersWithContext(ctx)

	l.mu.Lock()
	defer l.mu.Unlock()

	out := make([]DiskSample, 0, len(parts))
	seen := make(map[string]bool, len(parts))
	for _, p := range parts {
		if ctx.Err() != nil {
			return out, ctx.Err()
		}
		usage, err := disk.UsageWithContext(ctx, p.Mountpoint)
		if err != nil || usage.Total == 0 {
			continue
		}
		d := DiskSample{
			Mountpoint: p.Mountpoint,
			Device:     p.Device,
			Fstype:     p.Fstype,
			Total:      usage.Total,
			Used:       usage.Used,
			Free:       usage.Free,
		}
		dev := filepath.Base(p.Device)
		if c, ok := counters[dev]; ok && ioErr == nil {
			d.IOAvailable = true
			if prev, ok := l.prevIO[dev]; ok {
				d.ReadBytes = delta(c.ReadBytes, prev.ReadBytes)
				d.WriteBytes = delta(c.WriteBytes, prev.WriteBytes)
			}
			if !seen[dev] {
				l.prevIO[dev] = c
				seen[dev] = true
			}
		}
		out = append(out, d)
	}
	return out, nil
}

func delta(now, prev uint64) uint64 {
	if now < prev {
		return 0
	}
	return now - prev
}

func (l *Local) SampleNetwork(ctx context.Context, iface string) (NetSample, error) {
	counters, err := net.IOCountersWithContext(ctx, true)
	if err != nil {
		return NetSample{}, errors.Unavailable("network counters", err)
	}
	for _, c := range counters {
		if c.Name == iface {
			return NetSample{BytesRecv: c.BytesRecv, BytesSent: c.BytesSent}, nil
		}
	}
	return NetSample{}, errors.Unavailable(fmt.Sprintf("interface %s", iface), nil)
}

func (l *Local) ListInterfaces(ctx context.Context) ([]Interface, error) {
	list, err := net.InterfacesWithContext(ctx)
	if err != nil {
		return nil, errors.Unavailable("network interfaces", err)
	}
	out := make([]Interface, 0, len(list))
	for _, i := range list {
		up := false
		for _, f := range i.Flags {
			if f == "up" {
				up = true
				break
			}
		}
		out = append(out, Interface{Name: i.Name, Up: up})
	}
	return out, nil
}

// ListProcesses returns the process table. Handles are kept between calls
// so CPUPercent is measured over the interval since the previous listing.
// The listing stops early when ctx is cancelled.
func (l *Local) ListProcesses(ctx context.Context) ([]ProcessInfo, error) {
	pids, err := process.PidsWithContext(ctx)
	if err != nil {
		return nil, errors.Unavailable("process list", err)
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	alive := make(map[int32]bool, len(pids))
	out := make([]ProcessInfo, 0, len(pids))
	for _, pid := range pids {
		if ctx.Err() != nil {
			return out, ctx.Err()
		}
		p, ok := l.procs[pid]
		if !ok {
			if p, err = process.NewProcessWithContext(ctx, pid); err != nil {
				continue
			}
			l.procs[pid] = p
		}
		info, ok := readProcess(ctx, p)
		if !ok {
			delete(l.procs, pid)
			continue
		}
		alive[pid] = true
		out = append(out, info)
	}
	for pid := range l.procs {
		if !alive[pid] {
			delete(l.procs, pid)
		}
	}
	return out, nil
}

// readProcess fills what it can; only a failed name lookup drops the row,
// since that means the process has exited.
func readProcess(ctx context.Context, p *process.Process) (ProcessInfo, bool) {
	name, err := p.NameWithContext(ctx)
	if err != nil {
		return ProcessInfo{}, false
	}
	info := ProcessInfo{PID: p.Pid, Name: name}
	info.PPID, _ = p.PpidWithContext(ctx)
	info.Cmdline, _ = p.CmdlineWithContext(ctx)
	info.Username, _ = p.UsernameWithContext(ctx)
	info.NumThreads, _ = p.NumThreadsWithContext(ctx)
	if status, err := p.StatusWithContext(ctx); err == nil && len(status) > 0 {
		info.Status = status[0]
	}
	if pct, err := p.MemoryPercentWithContext(ctx); err == nil {
		info.MemPercent = float64(pct)
	}
	if m, err := p.MemoryInfoWithContext(ctx); err == nil {
		info.MemRSS = m.RSS
	}
	info.CPUPercent, _ = p.PercentWithContext(ctx, 0)
	if t, err := p.TimesWithContext(ctx); err == nil {
		info.CPUTime = t.User + t.System
	}
	if ms, err := p.CreateTimeWithContext(ctx); err == nil {
		info.CreateTime = time.UnixMilli(ms)
	}
	return info, true
}

func (l *Local) SendSignal(_ context.Context, pid int32, sig Signal) error {
	return signalError(pid, sig, unix.Kill(int(pid), unixSignal(sig)))
}

func unixSignal(sig Signal) unix.Signal {
	switch sig {
	case SignalKill:
		return unix.SIGKILL
	case SignalInt:
		return unix.SIGINT
	default:
		return unix.SIGTERM
	}
}

// signalError classifies a failed kill into the kinds the UI reports.
func signalError(pid int32, sig Signal, err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, unix.ESRCH):
		return errors.WrapWithCode(err, errors.ErrProcessNotFound,
			fmt.Sprintf("Process %d no longer exists", pid), "")
	case errors.Is(err, unix.EPERM):
		return errors.WrapWithCode(err, errors.ErrPermissionDenied,
			fmt.Sprintf("Not allowed to send %s to process %d", sig, pid),
			"Run sysmon as the process owner or root")
	default:
		return errors.WrapWithCode(err, errors.ErrMetrics,
			fmt.Sprintf("Couldn't send %s to process %d", sig, pid), "")
	}
}
