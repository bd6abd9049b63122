package metrics

import (
	"context"
	"time"
)

// CPUSample is one reading of processor state.
type CPUSample struct {
	// Total is the aggregate busy percent across all cores.
	Total   float64
	PerCore []float64
	FreqMHz float64
	LoadAvg [3]float64
	Uptime  time.Duration
}

// Temperatures holds sensor readings in degrees Celsius. Cores is empty when
// only an aggregate reading is available.
type Temperatures struct {
	Package  float64
	Cores    []float64
	High     float64
	Critical float64
}

// MemorySample is a snapshot of physical memory in bytes.
type MemorySample struct {
	Total     uint64
	Available uint64
	Free      uint64
	Cached    uint64
	Used      uint64
}

// SwapSample is a snapshot of swap space in bytes.
type SwapSample struct {
	Total uint64
	Used  uint64
	Free  uint64
}

// DiskSample describes one mounted filesystem. ReadBytes and WriteBytes are
// the IO since the previous sample of the same device; zero on the first.
type DiskSample struct {
	Mountpoint string
	Device     string
	Fstype     string
	Total      uint64
	Used       uint64
	Free       uint64
	ReadBytes  uint64
	WriteBytes uint64
	// IOAvailable is false when the platform gives no per-device counters.
	IOAvailable bool
}

// NetSample holds cumulative interface counters.
type NetSample struct {
	BytesRecv uint64
	BytesSent uint64
}

// Interface is a network interface and its link state.
type Interface struct {
	Name string
	Up   bool
}

// ProcessInfo is one row of the process table.
type ProcessInfo struct {
	PID        int32
	PPID       int32
	Name       string
	Cmdline    string
	Username   string
	Status     string
	NumThreads int32
	MemPercent float64
	MemRSS     uint64
	// CPUPercent is the instantaneous percent of one core, so it can exceed
	// 100 on multi-core systems.
	CPUPercent float64
	// CPUTime is user plus system time in seconds.
	CPUTime    float64
	CreateTime time.Time
}

// Signal is a process signal the UI can send.
type Signal int

const (
	SignalTerm Signal = iota
	SignalKill
	SignalInt
)

func (s Signal) String() string {
	switch s {
	case SignalKill:
		return "KILL"
	case SignalInt:
		return "INT"
	default:
		return "TERM"
	}
}

// Provider is the source of every metric the monitor shows. Implementations
// must be safe for use from the collection goroutine while CPUName is read
// from the main goroutine.
type Provider interface {
	SampleCPU(ctx context.Context) (CPUSample, error)
	SampleTemperatures(ctx context.Context, cores int) (Temperatures, error)
	SampleMemory(ctx context.Context) (MemorySample, error)
	SampleSwap(ctx context.Context) (SwapSample, error)
	SampleDisks(ctx context.Context) ([]DiskSample, error)
	SampleNetwork(ctx context.Context, iface string) (NetSample, error)
	ListInterfaces(ctx context.Context) ([]Interface, error)
	ListProcesses(ctx context.Context) ([]ProcessInfo, error)
	SendSignal(ctx context.Context, pid int32, sig Signal) error
	// CPUName is the cleaned processor model name.
	CPUName() string
	// Threads is the number of logical cores.
	Threads() int
	Close() error
}
