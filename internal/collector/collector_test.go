package collector

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rileyhilliard/sysmon/internal/config"
	"github.com/rileyhilliard/sysmon/internal/draw"
	"github.com/rileyhilliard/sysmon/internal/input"
	"github.com/rileyhilliard/sysmon/internal/layout"
	"github.com/rileyhilliard/sysmon/internal/logger"
	mtesting "github.com/rileyhilliard/sysmon/internal/metrics/testing"
	"github.com/rileyhilliard/sysmon/internal/theme"
)

type testEnv struct {
	*Env
	fake *mtesting.Fake
	out  *bytes.Buffer
	log  *logger.BufferLogger
}

// newTestEnv lays out all four panels on a 120x40 terminal over a fake
// provider. mutate may adjust the default config first.
func newTestEnv(t *testing.T, mutate func(*config.Config)) *testEnv {
	t.Helper()
	cfg := config.DefaultConfig()
	if mutate != nil {
		mutate(cfg)
	}
	fake := mtesting.NewFake()
	out := &bytes.Buffer{}
	eng := layout.NewEngine(layout.Options{
		Threads:   fake.Threads(),
		Sensors:   cfg.CheckTemp,
		ShowDisks: cfg.ShowDisks,
		MemGraphs: cfg.MemGraphs,
		ShowSwap:  cfg.ShowSwap,
		SwapDisk:  cfg.SwapDisk,
	})
	_, err := eng.CalcSizes(120, 40, layout.AllPanels)
	require.NoError(t, err)

	log := logger.NewBufferLogger()
	env := NewEnv(fake, draw.New(out, nil), eng, cfg, theme.Default(theme.Options{}), log)
	env.Hits = input.NewHitMap()
	return &testEnv{Env: env, fake: fake, out: out, log: log}
}

func TestTextHelpers(t *testing.T) {
	assert.Equal(t, "ab  ", padRight("ab", 4))
	assert.Equal(t, "abcdef", padRight("abcdef", 4))
	assert.Equal(t, "  ab", padLeft("ab", 4))
	assert.Equal(t, " ab  ", center("ab", 5))
	assert.Equal(t, "▲▼", cut("▲▼▲", 2))
	assert.Equal(t, "", cut("abc", 0))
	assert.Equal(t, "bc", cutEnd("abc", 2))
	assert.Equal(t, "a", dropEnd("abc", 2))
	assert.Equal(t, "", dropEnd("abc", 5))
	assert.Equal(t, 3, runeLen("▲▼▲"))
}

func TestNumberHelpers(t *testing.T) {
	assert.Equal(t, 2, round(2.5))
	assert.Equal(t, 4, round(3.5))
	assert.Equal(t, 0, clamp(-3, 0, 100))
	assert.Equal(t, 100, clamp(250, 0, 100))
	assert.Equal(t, "07", padZero(7))
	assert.Equal(t, "12", padZero(12))
}

func TestFormatUptime(t *testing.T) {
	tests := []struct {
		in   time.Duration
		want string
	}{
		{0, "0:00"},
		{5*time.Hour + 7*time.Minute, "5:07"},
		{25*time.Hour + 30*time.Minute, "1 day, 1:30"},
		{72*time.Hour + 59*time.Minute, "3 days, 0:59"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, formatUptime(tt.in), tt.in.String())
	}
}

func TestFormatFreq(t *testing.T) {
	assert.Equal(t, "800 Mhz", formatFreq(800))
	assert.Equal(t, "3.4 GHz", formatFreq(3400))
}

func TestFormatElapsed(t *testing.T) {
	assert.Equal(t, "00:00:09", formatElapsed(9*time.Second))
	assert.Equal(t, "01:02:03", formatElapsed(time.Hour+2*time.Minute+3*time.Second))
	assert.Equal(t, "2d 00:00:01", formatElapsed(48*time.Hour+time.Second))
	assert.Equal(t, "00:00:00", formatElapsed(-time.Second))
}
