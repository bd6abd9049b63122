package metrics

import (
	"context"
	"testing"

	"github.com/shirou/gopsutil/v4/sensors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sys/unix"

	"github.com/rileyhilliard/sysmon/internal/errors"
)

func TestMapTemperatures_Coretemp(t *testing.T) {
	stats := []sensors.TemperatureStat{
		{SensorKey: "coretemp_package_id_0", Temperature: 55, High: 84, Critical: 100},
		{SensorKey: "coretemp_core_1", Temperature: 50},
		{SensorKey: "coretemp_core_0", Temperature: 48},
		{SensorKey: "acpitz", Temperature: 27.8},
	}
	got := mapTemperatures(stats, 4)

	assert.Equal(t, 55.0, got.Package)
	assert.Equal(t, 84.0, got.High)
	assert.Equal(t, 100.0, got.Critical)
	assert.Equal(t, []float64{48, 50, 48, 50}, got.Cores)
}

func TestMapTemperatures_AggregateFallback(t *testing.T) {
	stats := []sensors.TemperatureStat{
		{SensorKey: "acpitz", Temperature: 41},
		{SensorKey: "nvme_composite", Temperature: 38},
	}
	got := mapTemperatures(stats, 8)

	assert.Equal(t, 41.0, got.Package)
	assert.Empty(t, got.Cores)
	assert.Equal(t, float64(defaultTempHigh), got.High)
	assert.Equal(t, float64(defaultTempCritical), got.Critical)
}

func TestMapTemperatures_K10temp(t *testing.T) {
	got := mapTemperatures([]sensors.TemperatureStat{{SensorKey: "k10temp_tctl", Temperature: 61.5}}, 16)
	assert.Equal(t, 61.5, got.Package)
	assert.Empty(t, got.Cores)
}

func TestSignalError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		code string
	}{
		{"gone", unix.ESRCH, errors.ErrProcessNotFound},
		{"denied", unix.EPERM, errors.ErrPermissionDenied},
		{"other", unix.EINVAL, errors.ErrMetrics},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := signalError(42, SignalTerm, tt.err)
			require.Error(t, err)
			assert.True(t, errors.IsCode(err, tt.code))
		})
	}
	assert.NoError(t, signalError(42, SignalKill, nil))
}

func TestSignalString(t *testing.T) {
	assert.Equal(t, "TERM", SignalTerm.String())
	assert.Equal(t, "KILL", SignalKill.String())
	assert.Equal(t, "INT", SignalInt.String())
	assert.Equal(t, unix.SIGKILL, unixSignal(SignalKill))
}

func TestLocal_Smoke(t *testing.T) {
	ctx := context.Background()
	l, err := NewLocal(ctx, "Custom")
	require.NoError(t, err)
	defer l.Close()

	assert.Equal(t, "Custom", l.CPUName())
	assert.GreaterOrEqual(t, l.Threads(), 1)

	m, err := l.SampleMemory(ctx)
	require.NoError(t, err)
	assert.Greater(t, m.Total, uint64(0))
	assert.Equal(t, m.Total-m.Available, m.Used)

	procs, err := l.ListProcesses(ctx)
	require.NoError(t, err)
	assert.NotEmpty(t, procs)
}

func TestLocal_SendSignalToMissingProcess(t *testing.T) {
	l, err := NewLocal(context.Background(), "")
	require.NoError(t, err)

	// PIDs this large are above pid_max on Linux and macOS.
	err = l.SendSignal(context.Background(), 1<<30, SignalTerm)
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.ErrProcessNotFound))
}
