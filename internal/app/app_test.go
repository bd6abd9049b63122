package app

import (
	"bytes"
	"context"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sys/unix"

	"github.com/rileyhilliard/sysmon/internal/config"
	"github.com/rileyhilliard/sysmon/internal/errors"
	"github.com/rileyhilliard/sysmon/internal/input"
	"github.com/rileyhilliard/sysmon/internal/layout"
	"github.com/rileyhilliard/sysmon/internal/logger"
	"github.com/rileyhilliard/sysmon/internal/metrics"
	mtesting "github.com/rileyhilliard/sysmon/internal/metrics/testing"
)

// fakeTerminal is a 120x40 screen backed by a buffer.
type fakeTerminal struct {
	mu       sync.Mutex
	out      bytes.Buffer
	cols     int
	lines    int
	entered  int
	left     int
	enterErr error
	src      *fakeSource
}

func newFakeTerminal() *fakeTerminal {
	return &fakeTerminal{cols: 120, lines: 40, src: &fakeSource{}}
}

func (f *fakeTerminal) Write(p []byte) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.out.Write(p)
}

func (f *fakeTerminal) String() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.out.String()
}

func (f *fakeTerminal) Size() (int, int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.cols, f.lines, nil
}

func (f *fakeTerminal) Enter() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.enterErr != nil {
		return f.enterErr
	}
	f.entered++
	return nil
}

func (f *fakeTerminal) Leave() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.left++
	return nil
}

func (f *fakeTerminal) Source() input.Source { return f.src }

// fakeSource never has input; err makes Poll fail.
type fakeSource struct {
	err error
}

func (s *fakeSource) Poll(timeout time.Duration) (bool, error) {
	if s.err != nil {
		return false, s.err
	}
	if timeout > 5*time.Millisecond {
		timeout = 5 * time.Millisecond
	}
	time.Sleep(timeout)
	return false, nil
}

func (s *fakeSource) Read(p []byte) (int, error) { return 0, nil }

type testUI struct {
	*UI
	fake *mtesting.Fake
	tty  *fakeTerminal
	log  *logger.BufferLogger
}

func newOptions(t *testing.T, fake *mtesting.Fake, tty *fakeTerminal, log logger.Logger) Options {
	cfg := config.DefaultConfig()
	cfg.UpdateMS = 60000
	dir := t.TempDir()
	return Options{
		Config:     cfg,
		ConfigPath: filepath.Join(dir, "sysmon.yaml"),
		ThemeDir:   dir,
		LogPath:    filepath.Join(dir, "error.log"),
		Provider:   fake,
		Logger:     log,
		Terminal:   tty,
	}
}

// newTestUI returns a UI with a running scheduler and a computed layout,
// without entering the terminal.
func newTestUI(t *testing.T) *testUI {
	t.Helper()
	fake := mtesting.NewFake()
	fake.Processes = []metrics.ProcessInfo{
		{PID: 42, PPID: 1, Name: "worker", Cmdline: "worker --run", Username: "root", NumThreads: 2, CPUPercent: 5},
	}
	tty := newFakeTerminal()
	log := logger.NewBufferLogger()
	u, err := New(newOptions(t, fake, tty, log))
	require.NoError(t, err)

	u.sched.Start(context.Background())
	t.Cleanup(func() { u.sched.Stop() })
	u.relayout(true)
	u.sched.Wait()
	u.timer.Stamp()
	return &testUI{UI: u, fake: fake, tty: tty, log: log}
}

// press queues keys and runs them through the dispatcher.
func (u *testUI) press(keys ...string) {
	for _, k := range keys {
		u.reader.Push(input.Event{Key: k})
	}
	u.processKeys()
	u.sched.Wait()
}

func TestNew_RequiresProviderAndTerminal(t *testing.T) {
	_, err := New(Options{})
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.ErrConfig))
}

func TestKeys_UpdateInterval(t *testing.T) {
	u := newTestUI(t)

	u.press("+")
	assert.Equal(t, 60100, u.cfg.UpdateMS)
	u.press("-", "-")
	assert.Equal(t, 59900, u.cfg.UpdateMS)

	u.cfg.UpdateMS = 150
	u.press("-")
	assert.Equal(t, minUpdateMS, u.cfg.UpdateMS)
	u.press("-")
	assert.Equal(t, minUpdateMS, u.cfg.UpdateMS)
	assert.True(t, u.dirty)
	assert.Equal(t, minUpdateMS, u.env.Config().UpdateMS)
}

func TestKeys_SortCycling(t *testing.T) {
	u := newTestUI(t)
	require.Equal(t, "cpu lazy", u.cfg.ProcSorting)

	u.press("right")
	assert.Equal(t, "cpu responsive", u.cfg.ProcSorting)
	u.press("right")
	assert.Equal(t, "pid", u.cfg.ProcSorting)
	u.press("left")
	assert.Equal(t, "cpu responsive", u.cfg.ProcSorting)
}

func TestKeys_Toggles(t *testing.T) {
	tests := []struct {
		key string
		get func(c *config.Config) bool
	}{
		{"r", func(c *config.Config) bool { return c.ProcReversed }},
		{"e", func(c *config.Config) bool { return c.ProcTree }},
		{"c", func(c *config.Config) bool { return c.ProcPerCore }},
		{"g", func(c *config.Config) bool { return c.MemGraphs }},
		{"s", func(c *config.Config) bool { return c.ShowSwap }},
		{"d", func(c *config.Config) bool { return c.ShowDisks }},
		{"a", func(c *config.Config) bool { return c.NetAuto }},
		{"y", func(c *config.Config) bool { return c.NetSync }},
	}
	for _, tt := range tests {
		t.Run(tt.key, func(t *testing.T) {
			u := newTestUI(t)
			before := tt.get(u.cfg)
			u.press(tt.key)
			assert.Equal(t, !before, tt.get(u.cfg))
			got := u.env.Config()
			assert.Equal(t, !before, tt.get(&got), "published to collectors")
		})
	}
}

func TestKeys_BoxToggle(t *testing.T) {
	u := newTestUI(t)

	u.press("2")
	assert.Equal(t, []string{"cpu", "net", "proc"}, u.cfg.ShownBoxes)
	l := u.engine.Layout()
	assert.False(t, l.Visible(layout.Mem))

	u.press("1", "3")
	assert.Equal(t, []string{"proc"}, u.cfg.ShownBoxes)
	u.press("4")
	assert.Equal(t, []string{"proc"}, u.cfg.ShownBoxes, "the last box stays")

	u.press("2")
	assert.Equal(t, []string{"mem", "proc"}, u.cfg.ShownBoxes)
}

func TestKeys_Filter(t *testing.T) {
	u := newTestUI(t)

	u.press("f")
	require.True(t, u.proc.Filtering())

	u.press("w", "o", "x", "backspace", "space", "q")
	assert.Equal(t, "wo q", u.proc.Filter())
	assert.False(t, u.quitting, "q is text while filtering")

	u.press("enter")
	assert.False(t, u.proc.Filtering())
	assert.Equal(t, "wo q", u.proc.Filter())

	u.press("delete")
	assert.Empty(t, u.proc.Filter())
}

func TestKeys_Quit(t *testing.T) {
	for _, key := range []string{"q", "ctrl_c"} {
		u := newTestUI(t)
		u.press(key)
		assert.True(t, u.quitting, key)
	}
}

func TestSignals_HangUpQuits(t *testing.T) {
	u := newTestUI(t)
	stop := u.watchSignals()
	defer stop()

	require.NoError(t, unix.Kill(unix.Getpid(), unix.SIGHUP))
	require.Eventually(t, u.signals.quit.Load, time.Second, 5*time.Millisecond)
	u.handleSignals()
	assert.True(t, u.quitting)
	assert.Equal(t, 1, u.log.Count("Caught termination signal"))
}

func TestSignalMenu_SendsSignal(t *testing.T) {
	u := newTestUI(t)
	u.collectProc(false)
	u.sched.Wait()

	u.press("down")
	require.Equal(t, int32(42), u.proc.Target())

	u.press("t", "y")
	assert.Equal(t, []mtesting.SentSignal{{PID: 42, Signal: metrics.SignalTerm}}, u.fake.SentSignals())
	assert.False(t, u.env.MenuActive())
}

func TestSignalMenu_Cancel(t *testing.T) {
	u := newTestUI(t)
	u.collectProc(false)
	u.sched.Wait()

	u.press("down", "k", "n")
	assert.Empty(t, u.fake.SentSignals())
}

func TestSignalMenu_Failure(t *testing.T) {
	u := newTestUI(t)
	u.fake.Update(func(f *mtesting.Fake) {
		f.SignalErr = errors.New(errors.ErrCollector, "operation not permitted", "")
	})
	u.collectProc(false)
	u.sched.Wait()

	m := &signalMenu{pid: 42, name: "worker", sig: metrics.SignalKill}
	assert.False(t, m.handle(u.UI, input.Event{Key: "y"}), "stays open to show the error")
	assert.Contains(t, m.render(u.UI), "failed")
	assert.True(t, m.handle(u.UI, input.Event{Key: "x"}))
	assert.Equal(t, 1, u.log.Count("SIGKILL to 42 failed"))
}

func TestSignalKeys_NeedTarget(t *testing.T) {
	u := newTestUI(t)
	u.press("t")
	assert.Nil(t, u.next)
	assert.Empty(t, u.fake.SentSignals())
}

func TestMainMenu(t *testing.T) {
	t.Run("quit item", func(t *testing.T) {
		u := newTestUI(t)
		u.press("m", "down", "down", "enter")
		assert.True(t, u.quitting)
	})
	t.Run("escape closes", func(t *testing.T) {
		u := newTestUI(t)
		u.press("escape", "escape")
		assert.False(t, u.quitting)
		assert.False(t, u.env.MenuActive())
	})
	t.Run("wraps", func(t *testing.T) {
		m := &mainMenu{}
		u := newTestUI(t)
		m.handle(u.UI, input.Event{Key: "up"})
		assert.Equal(t, 2, m.selected)
		m.handle(u.UI, input.Event{Key: "down"})
		assert.Equal(t, 0, m.selected)
	})
	t.Run("opens options", func(t *testing.T) {
		u := newTestUI(t)
		m := &mainMenu{}
		assert.True(t, m.handle(u.UI, input.Event{Key: "enter"}))
		assert.IsType(t, &optionsMenu{}, u.next)
	})
}

func findOption(t *testing.T, key string) option {
	t.Helper()
	for _, o := range buildOptions() {
		if o.key == key {
			return o
		}
	}
	t.Fatalf("no option %s", key)
	return option{}
}

func TestOptions_Change(t *testing.T) {
	tests := []struct {
		key  string
		dir  int
		want string
	}{
		{"proc_tree", 1, "true"},
		{"update_ms", 1, "60100"},
		{"color_mode", 1, "256"},
		{"color_mode", -1, "greyscale"},
		{"draw_clock", 1, "15:04"},
		{"draw_clock", -1, "off"},
		{"log_level", -1, "ERROR"},
		{"tree_depth", -1, "2"},
		{"proc_sorting", 1, "cpu responsive"},
		{"proc_update_mult", -1, "1"},
	}
	for _, tt := range tests {
		t.Run(tt.key, func(t *testing.T) {
			u := newTestUI(t)
			o := findOption(t, tt.key)
			u.changeOption(o, tt.dir)
			assert.Equal(t, tt.want, o.value(u.cfg))
			assert.True(t, u.dirty)
		})
	}
}

func TestOptions_Clamp(t *testing.T) {
	u := newTestUI(t)
	u.cfg.ProcUpdateMult = 1
	u.changeOption(findOption(t, "proc_update_mult"), -1)
	assert.Equal(t, 1, u.cfg.ProcUpdateMult)
	assert.False(t, u.dirty, "unchanged values are not saved")
}

func TestOptions_ThemeList(t *testing.T) {
	u := newTestUI(t)
	o := findOption(t, "color_theme")
	u.changeOption(o, 1)
	assert.Equal(t, "Default", u.cfg.ColorTheme, "only the built in theme exists")
}

func TestOptionsMenu_Navigation(t *testing.T) {
	u := newTestUI(t)
	m := newOptionsMenu(u.UI)

	m.handle(u.UI, input.Event{Key: "up"})
	assert.Equal(t, len(m.opts)-1, m.selected)
	m.handle(u.UI, input.Event{Key: "home"})
	assert.Equal(t, 0, m.selected)
	assert.Contains(t, m.render(u.UI), "color_theme")
	assert.True(t, m.handle(u.UI, input.Event{Key: "escape"}))
}

func TestHelpMenu(t *testing.T) {
	u := newTestUI(t)
	m := &helpMenu{}
	out := m.render(u.UI)
	assert.Contains(t, out, "Keyboard Shortcuts")
	assert.Contains(t, out, "Toggle the process tree")

	assert.False(t, m.handle(u.UI, input.Event{Key: "up"}))
	assert.True(t, m.handle(u.UI, input.Event{Key: "x"}))
}

func TestTimer(t *testing.T) {
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	tm := &timer{now: func() time.Time { return now }}
	tm.Stamp()

	assert.Equal(t, 2*time.Second, tm.Left(2*time.Second))
	now = now.Add(1500 * time.Millisecond)
	assert.Equal(t, 500*time.Millisecond, tm.Left(2*time.Second))
	now = now.Add(time.Second)
	assert.Zero(t, tm.Left(2*time.Second))
}

func TestRun_QuitSavesSettings(t *testing.T) {
	fake := mtesting.NewFake()
	tty := newFakeTerminal()
	opts := newOptions(t, fake, tty, logger.NewBufferLogger())
	u, err := New(opts)
	require.NoError(t, err)

	u.reader.Push(input.Event{Key: "r"})
	u.reader.Push(input.Event{Key: "q"})
	require.NoError(t, u.Run(context.Background()))

	assert.Equal(t, 1, tty.entered)
	assert.Equal(t, 1, tty.left)
	assert.Contains(t, tty.String(), "proc")

	saved, err := config.Load(opts.ConfigPath)
	require.NoError(t, err)
	assert.True(t, saved.ProcReversed)
}

func TestRun_ContextCancel(t *testing.T) {
	tty := newFakeTerminal()
	u, err := New(newOptions(t, mtesting.NewFake(), tty, logger.Noop()))
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	require.NoError(t, u.Run(ctx))
	assert.Equal(t, 1, tty.left)
}

func TestRun_InputFailure(t *testing.T) {
	tty := newFakeTerminal()
	tty.src.err = errors.New(errors.ErrInput, "read failed", "")
	opts := newOptions(t, mtesting.NewFake(), tty, logger.NewBufferLogger())
	u, err := New(opts)
	require.NoError(t, err)

	err = u.Run(context.Background())
	var exit *ExitError
	require.True(t, errors.As(err, &exit))
	assert.Equal(t, opts.LogPath, exit.LogPath)
	assert.Contains(t, exit.Error(), "errorcode (1)")
	assert.Equal(t, 1, tty.left, "terminal restored")
}

func TestRun_EnterFailure(t *testing.T) {
	tty := newFakeTerminal()
	tty.enterErr = errors.New(errors.ErrTerminal, "not a terminal", "")
	u, err := New(newOptions(t, mtesting.NewFake(), tty, logger.Noop()))
	require.NoError(t, err)

	err = u.Run(context.Background())
	assert.True(t, errors.IsCode(err, errors.ErrTerminal))
	assert.Zero(t, tty.left)
}
