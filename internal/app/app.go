// Package app runs the interactive monitor. It owns the terminal and wires
// the input reader, compositor, layout engine and collectors together, then
// dispatches keys until the user quits.
package app

import (
	"context"
	"fmt"
	"time"

	"github.com/rileyhilliard/sysmon/internal/collector"
	"github.com/rileyhilliard/sysmon/internal/config"
	"github.com/rileyhilliard/sysmon/internal/draw"
	"github.com/rileyhilliard/sysmon/internal/errors"
	"github.com/rileyhilliard/sysmon/internal/input"
	"github.com/rileyhilliard/sysmon/internal/layout"
	"github.com/rileyhilliard/sysmon/internal/logger"
	"github.com/rileyhilliard/sysmon/internal/metrics"
	"github.com/rileyhilliard/sysmon/internal/theme"
)

// keyWake is queued by the signal watcher to end an input wait early. It
// never reaches a key handler.
const keyWake = "\x00wake"

// Options configures a UI.
type Options struct {
	Config *config.Config
	// ConfigPath receives the settings changed at runtime on a clean exit.
	// Empty disables saving.
	ConfigPath string
	// ThemeDir holds the themes and user_themes directories.
	ThemeDir string
	// LogPath is named in the exit line when Run fails.
	LogPath  string
	Provider metrics.Provider
	Logger   logger.Logger
	Terminal Terminal
}

// ExitError is returned by Run when the monitor had to stop on an error.
// The details are in the log; Error is the line shown to the user.
type ExitError struct {
	Err     error
	LogPath string
}

func (e *ExitError) Error() string {
	return fmt.Sprintf("sysmon exited with errorcode (1). See %s for more information.", e.LogPath)
}

func (e *ExitError) Unwrap() error { return e.Err }

// UI is the running monitor. Everything except the collectors and the input
// reader belongs to the goroutine calling Run.
type UI struct {
	cfg        *config.Config
	configPath string
	themeDir   string
	logPath    string
	log        logger.Logger
	term       Terminal
	provider   metrics.Provider
	ctx        context.Context

	draw      *draw.Compositor
	reader    *input.Reader
	hits      *input.HitMap
	engine    *layout.Engine
	resizer   *layout.Resizer
	env       *collector.Env
	interrupt *collector.Interrupt
	clock     *collector.Clock
	sched     *collector.Scheduler

	cpu  *collector.CPU
	mem  *collector.Mem
	net  *collector.Net
	proc *collector.Proc

	timer    *timer
	signals  signalState
	winch    chan struct{}
	stopSelf func() error

	// next is the menu to open when the current one closes.
	next     menu
	dirty    bool
	quitting bool
	err      error
}

// New builds a stopped UI. Nothing touches the terminal until Run.
func New(opts Options) (*UI, error) {
	if opts.Provider == nil || opts.Terminal == nil {
		return nil, errors.New(errors.ErrConfig, "The monitor needs a metrics provider and a terminal", "")
	}
	cfg := opts.Config
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	log := opts.Logger
	if log == nil {
		log = logger.Default()
	}

	u := &UI{
		cfg:        cfg,
		configPath: opts.ConfigPath,
		themeDir:   opts.ThemeDir,
		logPath:    opts.LogPath,
		log:        log,
		term:       opts.Terminal,
		provider:   opts.Provider,
		ctx:        context.Background(),
		timer:      newTimer(),
		winch:      make(chan struct{}, 1),
		stopSelf:   stopSelf,
	}

	th, err := theme.LoadOrDefault(u.themeDir, cfg.ColorTheme, themeOptions(cfg))
	if err != nil {
		log.Warn("Theme %s not loaded, using the default: %s", cfg.ColorTheme, errors.Oneline(err))
	}

	gate := draw.NewGate()
	u.draw = draw.New(opts.Terminal, gate)
	u.engine = layout.NewEngine(u.layoutOptions(cfg.CheckTemp))
	u.env = collector.NewEnv(opts.Provider, u.draw, u.engine, cfg, th, log)
	u.hits = input.NewHitMap()
	u.env.Hits = u.hits
	u.reader = input.NewReader(opts.Terminal.Source(), gate, log)
	u.reader.SetHitMap(u.hits)

	u.interrupt = collector.NewInterrupt()
	u.clock = collector.NewClock(u.env)
	u.cpu = collector.NewCPU(u.env)
	u.mem = collector.NewMem(u.env)
	u.net = collector.NewNet(u.env)
	u.proc = collector.NewProc(u.env)
	u.sched = u.newScheduler()

	u.resizer = layout.NewResizer(u.engine, layout.ResizeDeps{
		Size:      opts.Terminal.Size,
		Wait:      u.resizeWait,
		Write:     func(s string) error { return u.draw.WriteNow(s) },
		Quit:      u.resizeQuit,
		Interrupt: u.interrupt,
	}, layout.ParsePanels(cfg.ShownBoxes))
	u.resizer.SetColors(resizeColors(th))
	return u, nil
}

func (u *UI) newScheduler() *collector.Scheduler {
	return collector.NewScheduler(u.env, u.interrupt, u.clock, u.collectors()...)
}

func (u *UI) collectors() []collector.Collector {
	return []collector.Collector{u.cpu, u.mem, u.net, u.proc}
}

// Run takes over the terminal until the user quits, ctx is cancelled or a
// background goroutine fails. The terminal is restored on every path.
func (u *UI) Run(ctx context.Context) (err error) {
	if err := u.term.Enter(); err != nil {
		return err
	}
	defer func() {
		if lerr := u.term.Leave(); lerr != nil && err == nil {
			err = lerr
		}
	}()

	u.ctx = ctx
	stopSignals := u.watchSignals()
	defer stopSignals()

	u.reader.Start()
	u.sched.Start(ctx)
	defer func() {
		u.sched.Stop()
		if serr := u.reader.Stop(); serr != nil {
			u.log.Warn("%s", errors.Oneline(serr))
		}
	}()

	start := time.Now()
	u.log.Info("Starting sysmon on %s", u.provider.CPUName())
	u.relayout(true)
	if !u.quitting {
		u.timer.Stamp()
		u.sched.Collect(collector.CollectRequest{DrawNow: true})
	}
	for !u.quitting {
		u.step()
	}

	if u.err != nil {
		u.log.Error("Exiting with errorcode (1). Runtime %s\n%v", time.Since(start).Round(time.Second), u.err)
		return &ExitError{Err: u.err, LogPath: u.logPath}
	}
	u.saveConfig()
	u.log.Info("Exiting. Runtime %s", time.Since(start).Round(time.Second))
	return nil
}

// step runs one pass of the main loop: check for failures, signals and
// resizes, then wait for a key until the next update is due.
func (u *UI) step() {
	if u.pollFatal() {
		return
	}
	u.handleSignals()
	if u.quitting {
		return
	}
	if u.env.TakeRelayout() {
		u.relayout(true)
	}

	if left := u.timer.Left(u.interval()); left > 0 && u.reader.Wait(left) {
		u.processKeys()
		return
	}
	u.timer.Stamp()
	u.sched.Collect(collector.CollectRequest{DrawNow: true})
}

// pollFatal reports whether the UI must stop, recording why.
func (u *UI) pollFatal() bool {
	select {
	case <-u.ctx.Done():
		u.quitting = true
	case err := <-u.reader.Fatal():
		u.fail(err)
	case err := <-u.sched.Fatal():
		u.fail(err)
	default:
	}
	return u.quitting
}

// fail stops the UI. The first error wins.
func (u *UI) fail(err error) {
	if u.err == nil {
		u.err = err
	}
	u.quitting = true
}

func (u *UI) interval() time.Duration {
	return time.Duration(u.cfg.UpdateMS) * time.Millisecond
}

// applyConfig publishes the edited config to the collectors.
func (u *UI) applyConfig() {
	u.env.SetConfig(u.cfg)
	u.dirty = true
}

func (u *UI) saveConfig() {
	if !u.dirty || u.configPath == "" {
		return
	}
	if err := config.SetValues(u.configPath, config.PersistedValues(u.cfg)); err != nil {
		u.log.Warn("Saving settings to %s failed: %v", u.configPath, err)
	}
}

func themeOptions(cfg *config.Config) theme.Options {
	return theme.Options{
		Mode:         theme.ParseMode(cfg.ColorMode),
		NoBackground: !cfg.ThemeBackground,
	}
}

func (u *UI) reloadTheme() {
	t, err := theme.LoadOrDefault(u.themeDir, u.cfg.ColorTheme, themeOptions(u.cfg))
	if err != nil {
		u.log.Warn("Theme %s not loaded, using the default: %s", u.cfg.ColorTheme, errors.Oneline(err))
	}
	u.env.SetTheme(t)
	u.resizer.SetColors(resizeColors(t))
}
