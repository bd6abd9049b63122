// Package testing provides an in-memory metrics.Provider for collector and
// app tests.
package testing

import (
	"context"
	"sync"

	"github.com/rileyhilliard/sysmon/internal/errors"
	"github.com/rileyhilliard/sysmon/internal/metrics"
)

// SentSignal records one SendSignal call.
type SentSignal struct {
	PID    int32
	Signal metrics.Signal
}

// Fake serves whatever samples were last set on it. A nil error field means
// the matching call succeeds.
type Fake struct {
	mu sync.Mutex

	Name       string
	NumThreads int

	CPU        metrics.CPUSample
	Temps      metrics.Temperatures
	Memory     metrics.MemorySample
	Swap       metrics.SwapSample
	Disks      []metrics.DiskSample
	Net        map[string]metrics.NetSample
	Interfaces []metrics.Interface
	Processes  []metrics.ProcessInfo

	CPUErr     error
	TempErr    error
	MemErr     error
	SwapErr    error
	DiskErr    error
	NetErr     error
	ProcErr    error
	SignalErr  error
	TempCalls  int
	Signals    []SentSignal
	closed     bool
	netSamples int
}

var _ metrics.Provider = (*Fake)(nil)

// NewFake returns a four thread provider with one interface, eth0.
func NewFake() *Fake {
	return &Fake{
		Name:       "Fake CPU",
		NumThreads: 4,
		CPU:        metrics.CPUSample{PerCore: make([]float64, 4)},
		Temps:      metrics.Temperatures{High: 80, Critical: 95},
		Net:        map[string]metrics.NetSample{"eth0": {}},
		Interfaces: []metrics.Interface{{Name: "eth0", Up: true}},
	}
}

// Update runs fn with the fake locked so tests can change samples while a
// collector reads concurrently.
func (f *Fake) Update(fn func(f *Fake)) {
	f.mu.Lock()
	defer f.mu.Unlock()
	fn(f)
}

// SentSignals returns a copy of the recorded signals.
func (f *Fake) SentSignals() []SentSignal {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]SentSignal(nil), f.Signals...)
}

// Closed reports whether Close was called.
func (f *Fake) Closed() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.closed
}

func (f *Fake) CPUName() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.Name
}

func (f *Fake) Threads() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.NumThreads
}

func (f *Fake) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed = true
	return nil
}

func (f *Fake) SampleCPU(ctx context.Context) (metrics.CPUSample, error) {
	if err := ctx.Err(); err != nil {
		return metrics.CPUSample{}, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	s := f.CPU
	s.PerCore = append([]float64(nil), f.CPU.PerCore...)
	return s, f.CPUErr
}

func (f *Fake) SampleTemperatures(_ context.Context, _ int) (metrics.Temperatures, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.TempCalls++
	t := f.Temps
	t.Cores = append([]float64(nil), f.Temps.Cores...)
	return t, f.TempErr
}

func (f *Fake) SampleMemory(_ context.Context) (metrics.MemorySample, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.Memory, f.MemErr
}

func (f *Fake) SampleSwap(_ context.Context) (metrics.SwapSample, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.Swap, f.SwapErr
}

func (f *Fake) SampleDisks(_ context.Context) ([]metrics.DiskSample, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]metrics.DiskSample(nil), f.Disks...), f.DiskErr
}

func (f *Fake) SampleNetwork(_ context.Context, iface string) (metrics.NetSample, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.netSamples++
	if f.NetErr != nil {
		return metrics.NetSample{}, f.NetErr
	}
	s, ok := f.Net[iface]
	if !ok {
		return metrics.NetSample{}, errors.Unavailable("interface "+iface, nil)
	}
	return s, nil
}

// NetSamples returns how many times SampleNetwork was called.
func (f *Fake) NetSamples() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.netSamples
}

func (f *Fake) ListInterfaces(_ context.Context) ([]metrics.Interface, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]metrics.Interface(nil), f.Interfaces...), f.NetErr
}

func (f *Fake) ListProcesses(_ context.Context) ([]metrics.ProcessInfo, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]metrics.ProcessInfo(nil), f.Processes...), f.ProcErr
}

func (f *Fake) SendSignal(_ context.Context, pid int32, sig metrics.Signal) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Signals = append(f.Signals, SentSignal{PID: pid, Signal: sig})
	return f.SignalErr
}
