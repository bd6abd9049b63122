package collector

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rileyhilliard/sysmon/internal/config"
	"github.com/rileyhilliard/sysmon/internal/draw"
	"github.com/rileyhilliard/sysmon/internal/errors"
	"github.com/rileyhilliard/sysmon/internal/layout"
	mtesting "github.com/rileyhilliard/sysmon/internal/metrics/testing"
)

func TestCPU_CollectClampsAndRounds(t *testing.T) {
	te := newTestEnv(t, func(c *config.Config) { c.CheckTemp = false })
	te.fake.Update(func(f *mtesting.Fake) {
		f.CPU.Total = 42.4
		f.CPU.PerCore = []float64{10.6, 250, -5}
		f.CPU.FreqMHz = 3400.2
		f.CPU.LoadAvg = [3]float64{1.234, 0.5, 0.25}
		f.CPU.Uptime = 26 * time.Hour
	})
	c := NewCPU(te.Env)
	require.NoError(t, c.Collect(context.Background()))

	assert.Equal(t, []int{42}, c.Usage())
	assert.Equal(t, 11, c.usage[1].Last())
	assert.Equal(t, 100, c.usage[2].Last())
	assert.Equal(t, 0, c.usage[3].Last())
	assert.Equal(t, 0, c.usage[4].Last(), "missing cores read as idle")
	assert.Equal(t, 3400, c.freq)
	assert.Equal(t, [3]float64{1.23, 0.5, 0.25}, c.load)
	assert.Equal(t, "1 day, 2:00", c.uptime)
}

func TestCPU_HistoryBoundedByWidth(t *testing.T) {
	te := newTestEnv(t, func(c *config.Config) { c.CheckTemp = false })
	c := NewCPU(te.Env)
	for i := 0; i < 300; i++ {
		require.NoError(t, c.Collect(context.Background()))
	}
	assert.Len(t, c.Usage(), 240)
}

func TestCPU_TemperaturesMapToCores(t *testing.T) {
	te := newTestEnv(t, nil)
	te.fake.Update(func(f *mtesting.Fake) {
		f.Temps.Package = 55
		f.Temps.Cores = []float64{40, 60}
		f.Temps.Critical = 100
	})
	c := NewCPU(te.Env)
	require.NoError(t, c.Collect(context.Background()))

	assert.True(t, c.Sensors())
	assert.Equal(t, 55, c.temps[0].Last())
	assert.Equal(t, []int{40, 60, 40, 60}, []int{
		c.temps[1].Last(), c.temps[2].Last(), c.temps[3].Last(), c.temps[4].Last(),
	})
	assert.Equal(t, 100, c.tempCrit)
}

func TestCPU_SensorsDisabledWhenUnavailable(t *testing.T) {
	te := newTestEnv(t, nil)
	te.fake.Update(func(f *mtesting.Fake) {
		f.TempErr = errors.Unavailable("cpu temperature", nil)
	})
	c := NewCPU(te.Env)
	require.NoError(t, c.Collect(context.Background()))

	assert.False(t, c.Sensors())
	assert.True(t, te.TakeRelayout())
	assert.False(t, te.TakeRelayout(), "relayout request is consumed")

	require.NoError(t, c.Collect(context.Background()))
	te.fake.Update(func(f *mtesting.Fake) {
		assert.Equal(t, 1, f.TempCalls, "sensors are not polled again")
	})
	assert.Equal(t, 1, te.log.Count("CPU temperature not available"))
}

func TestCPU_CollectError(t *testing.T) {
	te := newTestEnv(t, func(c *config.Config) { c.CheckTemp = false })
	te.fake.Update(func(f *mtesting.Fake) {
		f.CPUErr = errors.New(errors.ErrMetrics, "cpu times unreadable", "")
	})
	c := NewCPU(te.Env)
	assert.Error(t, c.Collect(context.Background()))
	assert.Empty(t, c.Usage())
}

func TestCPU_Draw(t *testing.T) {
	te := newTestEnv(t, nil)
	te.fake.Update(func(f *mtesting.Fake) {
		f.CPU.Total = 30
		f.CPU.PerCore = []float64{10, 20, 30, 40}
		f.CPU.FreqMHz = 2100
		f.CPU.Uptime = 90 * time.Minute
		f.Temps.Package = 50
	})
	c := NewCPU(te.Env)
	require.NoError(t, c.Collect(context.Background()))
	c.Draw()

	out := te.Draw.Content(draw.CPU)
	assert.Contains(t, out, "up 1:30")
	assert.Contains(t, out, "2.1 GHz")
	assert.Contains(t, out, "°C")
	l := te.Layout.Layout()
	assert.False(t, l.Box(layout.CPU).Resized, "draw clears the resized flag")
}

func TestCPU_DrawWhileMenuOnlySaves(t *testing.T) {
	te := newTestEnv(t, func(c *config.Config) { c.CheckTemp = false })
	c := NewCPU(te.Env)
	require.NoError(t, c.Collect(context.Background()))

	te.SetMenuActive(true)
	c.Draw()
	assert.False(t, te.Draw.Has(draw.CPU))
}
