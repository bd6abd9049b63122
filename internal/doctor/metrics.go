package doctor

import (
	"context"
	"fmt"
	"time"

	"github.com/rileyhilliard/sysmon/internal/errors"
	"github.com/rileyhilliard/sysmon/internal/metrics"
	"github.com/rileyhilliard/sysmon/internal/util"
)

const sampleTimeout = 5 * time.Second

// MetricsCheck takes one sample of a metric family from the provider.
type MetricsCheck struct {
	Provider metrics.Provider
	// Kind is one of cpu, sensors, memory, disks, network, processes.
	Kind string
}

func (c *MetricsCheck) Name() string     { return "metrics_" + c.Kind }
func (c *MetricsCheck) Category() string { return CategoryMetrics }

func (c *MetricsCheck) Run() CheckResult {
	ctx, cancel := context.WithTimeout(context.Background(), sampleTimeout)
	defer cancel()
	p := c.Provider

	switch c.Kind {
	case "cpu":
		s, err := p.SampleCPU(ctx)
		if err != nil {
			return fail(c.Name(), "CPU usage: "+errors.Oneline(err), "")
		}
		return pass(c.Name(), fmt.Sprintf("CPU: %s, %d threads, %d cores sampled", p.CPUName(), p.Threads(), len(s.PerCore)))
	case "sensors":
		t, err := p.SampleTemperatures(ctx, p.Threads())
		if err != nil {
			return warn(c.Name(), "No CPU temperature sensors", "Set check_temp: false to hide the temperature columns")
		}
		return pass(c.Name(), fmt.Sprintf("Temperature sensors: %.0f°C package, %d cores", t.Package, len(t.Cores)))
	case "memory":
		m, err := p.SampleMemory(ctx)
		if err != nil {
			return fail(c.Name(), "Memory: "+errors.Oneline(err), "")
		}
		return pass(c.Name(), fmt.Sprintf("Memory: %d MiB total", m.Total>>20))
	case "disks":
		d, err := p.SampleDisks(ctx)
		if err != nil {
			return warn(c.Name(), "Disks: "+errors.Oneline(err), "Set show_disks: false to hide the disks list")
		}
		return pass(c.Name(), fmt.Sprintf("%d %s mounted", len(d), util.Pluralize(len(d), "disk", "disks")))
	case "network":
		nics, err := p.ListInterfaces(ctx)
		if err != nil {
			return warn(c.Name(), "Network: "+errors.Oneline(err), "")
		}
		up := 0
		for _, n := range nics {
			if n.Up {
				up++
			}
		}
		if up == 0 {
			return warn(c.Name(), "No network interface is up", "")
		}
		return pass(c.Name(), fmt.Sprintf("%d network %s up", up, util.Pluralize(up, "interface", "interfaces")))
	case "processes":
		procs, err := p.ListProcesses(ctx)
		if err != nil {
			return fail(c.Name(), "Processes: "+errors.Oneline(err), "")
		}
		return pass(c.Name(), fmt.Sprintf("%d processes readable", len(procs)))
	}
	return fail(c.Name(), "Unknown metric "+c.Kind, "")
}

// MetricKinds are the families NewMetricsChecks samples.
var MetricKinds = []string{"cpu", "sensors", "memory", "disks", "network", "processes"}

// NewMetricsChecks creates one check per metric family. The provider stays
// owned by the caller.
func NewMetricsChecks(p metrics.Provider, checkTemp bool) []Check {
	var checks []Check
	for _, kind := range MetricKinds {
		if kind == "sensors" && !checkTemp {
			continue
		}
		checks = append(checks, &MetricsCheck{Provider: p, Kind: kind})
	}
	return checks
}

// ProviderCheck reports a provider that could not be created, so the
// metric checks that needed it are skipped.
type ProviderCheck struct {
	Err error
}

func (c *ProviderCheck) Name() string     { return "metrics_provider" }
func (c *ProviderCheck) Category() string { return CategoryMetrics }

func (c *ProviderCheck) Run() CheckResult {
	if c.Err == nil {
		return pass(c.Name(), "Metrics provider ready")
	}
	suggestion := ""
	var sErr *errors.Error
	if errors.As(c.Err, &sErr) {
		suggestion = sErr.Suggestion
	}
	return fail(c.Name(), errors.Oneline(c.Err), suggestion)
}
