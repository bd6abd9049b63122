package metrics

import (
	"context"
	"fmt"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/rileyhilliard/sysmon/internal/errors"
	"github.com/rileyhilliard/sysmon/internal/logger"
)

var (
	_ Provider = (*Local)(nil)
	_ Provider = (*Remote)(nil)
)

// RemoteOptions configures a Remote provider.
type RemoteOptions struct {
	// Timeout bounds the SSH dial.
	Timeout time.Duration
	// MaxAge is how long one batched fetch serves Sample calls. The boxes
	// sample one after another each tick, so this should stay below the
	// update interval.
	MaxAge     time.Duration
	CustomName string
	Dial       DialFunc
	Logger     logger.Logger
}

// Remote reads metrics from a host over SSH. Each refresh runs one batched
// command and every Sample call is served from the parsed result.
type Remote struct {
	host string
	pool *Pool
	opts RemoteOptions
	log  logger.Logger

	cpuName string
	threads int

	mu        sync.Mutex
	snap      *snapshot
	fetchedAt time.Time
	prevCPU   map[string]jiffies
	prevDisk  map[string][2]uint64
	prevProc  map[int32]procTime
}

type procTime struct {
	cpu float64
	at  time.Time
}

// snapshot is one parsed fetch.
type snapshot struct {
	platform Platform
	model    string
	cpu      CPUSample
	temp     float64
	hasTemp  bool
	mem      MemorySample
	memErr   error
	swap     SwapSample
	disks    []DiskSample
	net      map[string]NetSample
	ifaces   []Interface
	procs    []ProcessInfo
}

// NewRemote connects to host and takes a first sample so the CPU name and
// thread count are known up front.
func NewRemote(ctx context.Context, host string, opts RemoteOptions) (*Remote, error) {
	if opts.MaxAge == 0 {
		opts.MaxAge = 500 * time.Millisecond
	}
	log := opts.Logger
	if log == nil {
		log = logger.Default()
	}
	r := &Remote{
		host:     host,
		pool:     NewPool(opts.Timeout, opts.Dial),
		opts:     opts,
		log:      log,
		prevCPU:  make(map[string]jiffies),
		prevDisk: make(map[string][2]uint64),
		prevProc: make(map[int32]procTime),
	}
	snap, err := r.fetch(ctx)
	if err != nil {
		r.pool.Close()
		return nil, err
	}
	r.threads = len(snap.cpu.PerCore)
	if r.threads < 1 {
		r.threads = 1
	}
	r.cpuName = opts.CustomName
	if r.cpuName == "" {
		r.cpuName = CleanCPUName(snap.model)
	}
	log.Info("Connected to %s (%s, %d threads)", host, snap.platform, r.threads)
	return r, nil
}

// Host returns the host this provider reads from.
func (r *Remote) Host() string { return r.host }

func (r *Remote) CPUName() string { return r.cpuName }

func (r *Remote) Threads() int { return r.threads }

func (r *Remote) Close() error {
	r.pool.Close()
	return nil
}

// fetch returns the cached snapshot while it is fresh, otherwise runs the
// batched command again.
func (r *Remote) fetch(ctx context.Context) (*snapshot, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.snap != nil && time.Since(r.fetchedAt) < r.opts.MaxAge {
		return r.snap, nil
	}

	client, platform, err := r.pool.GetWithPlatform(ctx, r.host)
	if err != nil {
		return nil, errors.WrapWithCode(err, errors.ErrSSH,
			fmt.Sprintf("Couldn't connect to %s", r.host),
			"Check the host is reachable: ssh "+r.host)
	}
	out, err := client.Run(ctx, BuildMetricsCommand(platform))
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		r.pool.CloseOne(r.host)
		return nil, errors.WrapWithCode(err, errors.ErrSSH,
			fmt.Sprintf("Couldn't collect metrics from %s", r.host),
			"The connection will be retried on the next update")
	}

	now := time.Now()
	var snap *snapshot
	if platform == PlatformDarwin {
		snap, err = r.parseDarwin(string(out), now)
	} else {
		snap, err = r.parseLinux(string(out), now)
	}
	if err != nil {
		return nil, errors.WrapWithCode(err, errors.ErrMetrics,
			fmt.Sprintf("Couldn't parse metrics from %s", r.host), "")
	}
	snap.platform = platform
	r.snap = snap
	r.fetchedAt = now
	return snap, nil
}

// parseLinux is called with r.mu held.
func (r *Remote) parseLinux(out string, now time.Time) (*snapshot, error) {
	sec := splitSections(out, linuxSections)
	snap := &snapshot{}

	agg, cores, err := parseProcStat(sec[linuxStat])
	if err != nil {
		return nil, err
	}
	snap.cpu.Total = busyPercent(agg, r.prevCPU["cpu"])
	r.prevCPU["cpu"] = agg
	snap.cpu.PerCore = make([]float64, len(cores))
	for i, c := range cores {
		key := "cpu" + strconv.Itoa(i)
		snap.cpu.PerCore[i] = busyPercent(c, r.prevCPU[key])
		r.prevCPU[key] = c
	}
	snap.cpu.LoadAvg = parseLoadavg(sec[linuxLoadavg])
	snap.cpu.Uptime = parseProcUptime(sec[linuxUptime])
	snap.model, snap.cpu.FreqMHz = parseCPUInfo(sec[linuxCPUInfo])
	snap.temp, snap.hasTemp = parseThermal(sec[linuxThermal])

	snap.mem, snap.swap, snap.memErr = parseMeminfo(sec[linuxMeminfo])

	io := parseDiskstats(sec[linuxDiskstats])
	snap.disks = parseDf(sec[linuxDf], true)
	seen := make(map[string]bool)
	for i := range snap.disks {
		d := &snap.disks[i]
		dev := filepath.Base(d.Device)
		c, ok := io[dev]
		if !ok {
			continue
		}
		d.IOAvailable = true
		if prev, ok := r.prevDisk[dev]; ok {
			d.ReadBytes = delta(c[0], prev[0])
			d.WriteBytes = delta(c[1], prev[1])
		}
		if !seen[dev] {
			r.prevDisk[dev] = c
			seen[dev] = true
		}
	}

	var names []string
	snap.net, names = parseNetDev(sec[linuxNetDev])
	state := parseOperstate(sec[linuxOperstate])
	for _, name := range names {
		up, known := state[name]
		snap.ifaces = append(snap.ifaces, Interface{Name: name, Up: up || !known})
	}

	snap.procs = r.procDeltas(parsePs(sec[linuxPs], linuxPsLayout, now), now)
	return snap, nil
}

// parseDarwin is called with r.mu held.
func (r *Remote) parseDarwin(out string, now time.Time) (*snapshot, error) {
	sec := splitSections(out, darwinSections)
	snap := &snapshot{}
	sysctl := parseSysctl(sec[darwinSysctl])

	ncpu, _ := strconv.Atoi(sysctl["hw.ncpu"])
	if ncpu < 1 {
		ncpu = 1
	}
	snap.cpu.Total, snap.cpu.LoadAvg = parseTop(sec[darwinTop])
	// top does not break usage down per core.
	snap.cpu.PerCore = make([]float64, ncpu)
	for i := range snap.cpu.PerCore {
		snap.cpu.PerCore[i] = snap.cpu.Total
	}
	if hz, err := strconv.ParseFloat(sysctl["hw.cpufrequency"], 64); err == nil {
		snap.cpu.FreqMHz = hz / 1e6
	}
	snap.cpu.Uptime = parseBoottime(sysctl["kern.boottime"], now)
	snap.model = sysctl["machdep.cpu.brand_string"]

	memsize, _ := strconv.ParseUint(sysctl["hw.memsize"], 10, 64)
	snap.mem, snap.memErr = parseVMStat(sec[darwinVMStat], memsize)
	snap.swap = parseSwapUsage(sysctl["vm.swapusage"])

	snap.disks = parseDf(sec[darwinDf], false)

	var names []string
	snap.net, names = parseNetstat(sec[darwinNetstat])
	up := parseIfconfigUp(sec[darwinIfconfig])
	for _, name := range names {
		snap.ifaces = append(snap.ifaces, Interface{Name: name, Up: up[name]})
	}

	snap.procs = r.procDeltas(parsePs(sec[darwinPs], darwinPsLayout, now), now)
	return snap, nil
}

// procDeltas replaces ps's lifetime average pcpu with usage over the
// interval since the previous fetch, when there was one.
func (r *Remote) procDeltas(procs []ProcessInfo, now time.Time) []ProcessInfo {
	next := make(map[int32]procTime, len(procs))
	for i := range procs {
		p := &procs[i]
		if prev, ok := r.prevProc[p.PID]; ok {
			if elapsed := now.Sub(prev.at).Seconds(); elapsed > 0 && p.CPUTime >= prev.cpu {
				p.CPUPercent = (p.CPUTime - prev.cpu) / elapsed * 100
			}
		}
		next[p.PID] = procTime{cpu: p.CPUTime, at: now}
	}
	r.prevProc = next
	return procs
}

func (r *Remote) SampleCPU(ctx context.Context) (CPUSample, error) {
	snap, err := r.fetch(ctx)
	if err != nil {
		return CPUSample{}, err
	}
	s := snap.cpu
	s.PerCore = append([]float64(nil), snap.cpu.PerCore...)
	return s, nil
}

// SampleTemperatures reports the hottest thermal zone as the package
// temperature. Remote hosts expose no per-core mapping.
func (r *Remote) SampleTemperatures(ctx context.Context, _ int) (Temperatures, error) {
	snap, err := r.fetch(ctx)
	if err != nil {
		return Temperatures{}, err
	}
	if !snap.hasTemp {
		return Temperatures{}, errors.Unavailable("CPU temperature", nil)
	}
	return Temperatures{Package: snap.temp, High: defaultTempHigh, Critical: defaultTempCritical}, nil
}

func (r *Remote) SampleMemory(ctx context.Context) (MemorySample, error) {
	snap, err := r.fetch(ctx)
	if err != nil {
		return MemorySample{}, err
	}
	if snap.memErr != nil {
		return MemorySample{}, errors.Unavailable("memory", snap.memErr)
	}
	return snap.mem, nil
}

func (r *Remote) SampleSwap(ctx context.Context) (SwapSample, error) {
	snap, err := r.fetch(ctx)
	if err != nil {
		return SwapSample{}, err
	}
	if snap.memErr != nil && snap.platform != PlatformDarwin {
		return SwapSample{}, errors.Unavailable("swap", snap.memErr)
	}
	return snap.swap, nil
}

func (r *Remote) SampleDisks(ctx context.Context) ([]DiskSample, error) {
	snap, err := r.fetch(ctx)
	if err != nil {
		return nil, err
	}
	return append([]DiskSample(nil), snap.disks...), nil
}

func (r *Remote) SampleNetwork(ctx context.Context, iface string) (NetSample, error) {
	snap, err := r.fetch(ctx)
	if err != nil {
		return NetSample{}, err
	}
	s, ok := snap.net[iface]
	if !ok {
		return NetSample{}, errors.Unavailable(fmt.Sprintf("interface %s", iface), nil)
	}
	return s, nil
}

func (r *Remote) ListInterfaces(ctx context.Context) ([]Interface, error) {
	snap, err := r.fetch(ctx)
	if err != nil {
		return nil, err
	}
	return append([]Interface(nil), snap.ifaces...), nil
}

func (r *Remote) ListProcesses(ctx context.Context) ([]ProcessInfo, error) {
	snap, err := r.fetch(ctx)
	if err != nil {
		return nil, err
	}
	return append([]ProcessInfo(nil), snap.procs...), nil
}

// SendSignal runs kill on the host.
func (r *Remote) SendSignal(_ context.Context, pid int32, sig Signal) error {
	client, err := r.pool.Get(r.host)
	if err != nil {
		return errors.WrapWithCode(err, errors.ErrSSH,
			fmt.Sprintf("Couldn't connect to %s", r.host), "")
	}
	_, stderr, code, err := client.Exec(fmt.Sprintf("kill -%s %d", sig, pid))
	if err != nil {
		return errors.WrapWithCode(err, errors.ErrSSH,
			fmt.Sprintf("Couldn't send %s to process %d", sig, pid), "")
	}
	if code == 0 {
		return nil
	}
	msg := strings.TrimSpace(string(stderr))
	lower := strings.ToLower(msg)
	cause := fmt.Errorf("kill exited %d: %s", code, msg)
	switch {
	case strings.Contains(lower, "no such process"):
		return errors.WrapWithCode(cause, errors.ErrProcessNotFound,
			fmt.Sprintf("Process %d no longer exists", pid), "")
	case strings.Contains(lower, "not permitted"):
		return errors.WrapWithCode(cause, errors.ErrPermissionDenied,
			fmt.Sprintf("Not allowed to send %s to process %d", sig, pid),
			"Connect as the process owner or root")
	default:
		return errors.WrapWithCode(cause, errors.ErrMetrics,
			fmt.Sprintf("Couldn't send %s to process %d", sig, pid), "")
	}
}
