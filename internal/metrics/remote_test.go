package metrics

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	sserrors "github.com/rileyhilliard/sysmon/internal/errors"
	"github.com/rileyhilliard/sysmon/internal/logger"
	"github.com/rileyhilliard/sysmon/pkg/sshutil"
	sshtest "github.com/rileyhilliard/sysmon/pkg/sshutil/testing"
)

func linuxOutput(procStat, diskstats string) string {
	sections := [linuxSections]string{
		linuxStat:      procStat,
		linuxLoadavg:   "0.52 0.58 0.59 1/467 12345",
		linuxUptime:    "3600.00 7200.00",
		linuxCPUInfo:   "model name\t: Intel(R) Core(TM) i7-8700K CPU @ 3.70GHz\ncpu MHz\t\t: 3700.000",
		linuxMeminfo:   sampleMeminfo,
		linuxDf:        sampleDfTyped,
		linuxDiskstats: diskstats,
		linuxNetDev:    sampleNetDev,
		linuxOperstate: "eth0 up\nlo unknown",
		linuxThermal:   "45000\n52000",
		linuxPs:        sampleLinuxPs,
	}
	return strings.Join(sections[:], "\n"+OutputSeparator+"\n") + "\n"
}

func darwinOutput() string {
	sections := [darwinSections]string{
		darwinTop:      sampleTop,
		darwinSysctl:   sampleSysctl,
		darwinVMStat:   sampleVMStat,
		darwinDf:       "Filesystem 1024-blocks Used Available Capacity Mounted on\n/dev/disk3s1s1 482797652 10000000 300000000 4% /",
		darwinNetstat:  sampleNetstat,
		darwinIfconfig: "lo0 en0",
		darwinPs:       "    1     0  1234   0.0  0.1 10-02:03:04   1:23.45 Ss   root  /sbin/launchd",
	}
	return strings.Join(sections[:], "\n"+OutputSeparator+"\n") + "\n"
}

// remoteHost scripts every connection dialed to one host.
type remoteHost struct {
	uname   string
	output  string
	clients []*sshtest.MockClient
}

func (h *remoteHost) dial(host string, _ time.Duration) (sshutil.Runner, error) {
	platform := ParsePlatform(h.uname)
	c := sshtest.NewMockClient(host).
		On("uname -s", sshtest.Response{Stdout: []byte(h.uname + "\n")}).
		On(BuildMetricsCommand(platform), sshtest.Response{Stdout: []byte(h.output)})
	h.clients = append(h.clients, c)
	return c, nil
}

func (h *remoteHost) last() *sshtest.MockClient {
	return h.clients[len(h.clients)-1]
}

func newTestRemote(t *testing.T, h *remoteHost) *Remote {
	t.Helper()
	r, err := NewRemote(context.Background(), "box", RemoteOptions{
		MaxAge: time.Hour,
		Dial:   h.dial,
		Logger: logger.Noop(),
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = r.Close() })
	return r
}

func TestRemote_Linux(t *testing.T) {
	h := &remoteHost{uname: "Linux", output: linuxOutput(sampleProcStat, sampleDiskstats)}
	r := newTestRemote(t, h)
	ctx := context.Background()

	assert.Equal(t, "i7-8700K", r.CPUName())
	assert.Equal(t, 2, r.Threads())
	assert.Equal(t, "box", r.Host())

	cpu, err := r.SampleCPU(ctx)
	require.NoError(t, err)
	assert.InDelta(t, 20, cpu.Total, 0.001)
	assert.Len(t, cpu.PerCore, 2)
	assert.Equal(t, time.Hour, cpu.Uptime)
	assert.InDelta(t, 3700, cpu.FreqMHz, 0.001)

	temps, err := r.SampleTemperatures(ctx, 2)
	require.NoError(t, err)
	assert.InDelta(t, 52, temps.Package, 0.001)
	assert.Empty(t, temps.Cores)

	mem, err := r.SampleMemory(ctx)
	require.NoError(t, err)
	assert.Equal(t, uint64(16384000*1024), mem.Total)

	swap, err := r.SampleSwap(ctx)
	require.NoError(t, err)
	assert.Equal(t, uint64(1024000*1024), swap.Used)

	disks, err := r.SampleDisks(ctx)
	require.NoError(t, err)
	require.Len(t, disks, 2)
	assert.True(t, disks[0].IOAvailable)
	assert.Zero(t, disks[0].ReadBytes)
	assert.False(t, disks[1].IOAvailable)

	eth, err := r.SampleNetwork(ctx, "eth0")
	require.NoError(t, err)
	assert.Equal(t, uint64(5000), eth.BytesRecv)

	_, err = r.SampleNetwork(ctx, "wlan0")
	assert.True(t, sserrors.IsCode(err, sserrors.ErrMetricUnavailable))

	ifaces, err := r.ListInterfaces(ctx)
	require.NoError(t, err)
	assert.Equal(t, []Interface{{Name: "lo", Up: true}, {Name: "eth0", Up: true}}, ifaces)

	procs, err := r.ListProcesses(ctx)
	require.NoError(t, err)
	assert.Len(t, procs, 3)

	// Everything above came from one batched fetch.
	assert.Equal(t, []string{"uname -s", BuildMetricsCommand(PlatformLinux)}, h.last().Calls())
}

func TestRemote_DeltasBetweenFetches(t *testing.T) {
	h := &remoteHost{uname: "Linux", output: linuxOutput(sampleProcStat, sampleDiskstats)}
	r := newTestRemote(t, h)

	h.last().On(BuildMetricsCommand(PlatformLinux), sshtest.Response{Stdout: []byte(linuxOutput(
		"cpu  400 0 100 1100 0 0 0 0 0 0\ncpu0 250 0 50 500 0 0 0 0 0 0\ncpu1 150 0 50 600 0 0 0 0 0 0",
		"   8       1 sda1 1500 0 3000 100 800 0 6000 200 0 300 300",
	))})
	r.mu.Lock()
	r.fetchedAt = time.Time{}
	r.mu.Unlock()

	ctx := context.Background()
	cpu, err := r.SampleCPU(ctx)
	require.NoError(t, err)
	assert.InDelta(t, 50, cpu.Total, 0.001)
	assert.InDelta(t, 66.667, cpu.PerCore[0], 0.01)
	assert.InDelta(t, 33.333, cpu.PerCore[1], 0.01)

	disks, err := r.SampleDisks(ctx)
	require.NoError(t, err)
	assert.Equal(t, uint64(1000*512), disks[0].ReadBytes)
	assert.Equal(t, uint64(2000*512), disks[0].WriteBytes)
}

func TestRemote_ProcDeltas(t *testing.T) {
	start := time.Unix(1700000000, 0)
	r := &Remote{prevProc: map[int32]procTime{}}

	first := r.procDeltas([]ProcessInfo{{PID: 5, CPUTime: 10, CPUPercent: 3}}, start)
	assert.InDelta(t, 3, first[0].CPUPercent, 0.001)

	second := r.procDeltas([]ProcessInfo{{PID: 5, CPUTime: 11, CPUPercent: 3}, {PID: 6, CPUTime: 1, CPUPercent: 7}}, start.Add(2*time.Second))
	assert.InDelta(t, 50, second[0].CPUPercent, 0.001)
	assert.InDelta(t, 7, second[1].CPUPercent, 0.001)
	assert.Len(t, r.prevProc, 2)
}

func TestRemote_Darwin(t *testing.T) {
	h := &remoteHost{uname: "Darwin", output: darwinOutput()}
	r := newTestRemote(t, h)
	ctx := context.Background()

	assert.Equal(t, "Apple M1", r.CPUName())
	assert.Equal(t, 8, r.Threads())

	cpu, err := r.SampleCPU(ctx)
	require.NoError(t, err)
	require.Len(t, cpu.PerCore, 8)
	for _, c := range cpu.PerCore {
		assert.InDelta(t, cpu.Total, c, 0.001)
	}
	assert.InDelta(t, 3200, cpu.FreqMHz, 0.001)

	_, err = r.SampleTemperatures(ctx, 8)
	assert.True(t, sserrors.IsCode(err, sserrors.ErrMetricUnavailable))

	mem, err := r.SampleMemory(ctx)
	require.NoError(t, err)
	assert.Equal(t, uint64(17179869184), mem.Total)

	ifaces, err := r.ListInterfaces(ctx)
	require.NoError(t, err)
	assert.Equal(t, []Interface{{Name: "lo0", Up: true}, {Name: "en0", Up: true}}, ifaces)
}

func TestRemote_CustomName(t *testing.T) {
	h := &remoteHost{uname: "Linux", output: linuxOutput(sampleProcStat, sampleDiskstats)}
	r, err := NewRemote(context.Background(), "box", RemoteOptions{
		CustomName: "Build Box",
		Dial:       h.dial,
		Logger:     logger.Noop(),
	})
	require.NoError(t, err)
	defer r.Close()
	assert.Equal(t, "Build Box", r.CPUName())
}

func TestRemote_DialFailure(t *testing.T) {
	_, err := NewRemote(context.Background(), "nowhere", RemoteOptions{
		Dial: func(string, time.Duration) (sshutil.Runner, error) {
			return nil, errors.New("connection refused")
		},
		Logger: logger.Noop(),
	})
	require.Error(t, err)
	assert.True(t, sserrors.IsCode(err, sserrors.ErrSSH))
}

func TestRemote_FetchFailureDropsConnection(t *testing.T) {
	h := &remoteHost{uname: "Linux", output: linuxOutput(sampleProcStat, sampleDiskstats)}
	r := newTestRemote(t, h)
	broken := h.last()
	broken.On(BuildMetricsCommand(PlatformLinux), sshtest.Response{Err: errors.New("session reset")})
	r.mu.Lock()
	r.fetchedAt = time.Time{}
	r.mu.Unlock()

	_, err := r.SampleCPU(context.Background())
	require.Error(t, err)
	assert.True(t, sserrors.IsCode(err, sserrors.ErrSSH))
	assert.True(t, broken.Closed())
	assert.Equal(t, 0, r.pool.Size())

	// The next sample redials.
	_, err = r.SampleCPU(context.Background())
	require.NoError(t, err)
	assert.Len(t, h.clients, 2)
}

func TestRemote_SendSignal(t *testing.T) {
	h := &remoteHost{uname: "Linux", output: linuxOutput(sampleProcStat, sampleDiskstats)}
	r := newTestRemote(t, h)
	h.last().
		On("kill -TERM 500", sshtest.Response{}).
		On("kill -KILL 9999", sshtest.Response{ExitCode: 1, Stderr: []byte("bash: kill: (9999) - No such process")}).
		On("kill -INT 1", sshtest.Response{ExitCode: 1, Stderr: []byte("bash: kill: (1) - Operation not permitted")}).
		On("kill -TERM 2", sshtest.Response{ExitCode: 2, Stderr: []byte("weird")})

	ctx := context.Background()
	assert.NoError(t, r.SendSignal(ctx, 500, SignalTerm))
	assert.True(t, sserrors.IsCode(r.SendSignal(ctx, 9999, SignalKill), sserrors.ErrProcessNotFound))
	assert.True(t, sserrors.IsCode(r.SendSignal(ctx, 1, SignalInt), sserrors.ErrPermissionDenied))
	assert.True(t, sserrors.IsCode(r.SendSignal(ctx, 2, SignalTerm), sserrors.ErrMetrics))
}
