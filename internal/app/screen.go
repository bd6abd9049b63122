package app

import (
	"time"

	"github.com/rileyhilliard/sysmon/internal/collector"
	"github.com/rileyhilliard/sysmon/internal/draw"
	"github.com/rileyhilliard/sysmon/internal/errors"
	"github.com/rileyhilliard/sysmon/internal/input"
	"github.com/rileyhilliard/sysmon/internal/layout"
	"github.com/rileyhilliard/sysmon/internal/term"
	"github.com/rileyhilliard/sysmon/internal/theme"
)

func (u *UI) layoutOptions(sensors bool) layout.Options {
	return layout.Options{
		Threads:   u.provider.Threads(),
		Sensors:   sensors,
		ShowDisks: u.cfg.ShowDisks,
		MemGraphs: u.cfg.MemGraphs,
		ShowSwap:  u.cfg.ShowSwap,
		SwapDisk:  u.cfg.SwapDisk,
	}
}

// relayout checks the terminal size and redraws everything when the layout
// changed. force recalculates even when the size did not.
func (u *UI) relayout(force bool) {
	u.engine.SetOptions(u.layoutOptions(u.cfg.CheckTemp && u.cpu.Sensors()))
	res, err := u.resizer.Refresh(force)
	if err != nil {
		u.fail(errors.WrapWithCode(err, errors.ErrTerminal, "Couldn't read the terminal size", ""))
		return
	}
	if res.Quit {
		u.quitting = true
		return
	}
	if res.Changed {
		u.redraw()
	}
}

// redraw repaints the frames and every panel from the last samples. While a
// menu is open only the saved copies are refreshed.
func (u *UI) redraw() {
	menu := u.env.MenuActive()
	u.drawBackground(!menu)
	u.clock.Reset()
	u.sched.Collect(collector.CollectRequest{
		Collectors: u.collectors(),
		Interrupt:  true,
		OnlyDraw:   true,
		Redraw:     true,
	})
	u.sched.Wait()
	if menu {
		return
	}
	if err := u.draw.Flush(false); err != nil {
		u.log.Warn("Writing panels failed: %v", err)
	}
}

// drawBackground renders the static frames and registers their click
// regions. With live false the frames are only saved, to be shown when the
// covering menu closes.
func (u *UI) drawBackground(live bool) {
	l := u.engine.Layout()
	t := u.env.Theme()
	bg := u.engine.DrawBackground(&l, layout.BackgroundInfo{
		Theme:    t,
		CPUName:  u.provider.CPUName(),
		UpdateMs: u.cfg.UpdateMS,
	})
	u.hits.Reset()
	u.setHits(bg.Hits)
	err := u.draw.Buffer(draw.Background, t.Reset()+term.Clear+bg.Out, draw.Opts{
		Z:        draw.ZBackground,
		Once:     true,
		OnlySave: !live,
	})
	if err != nil {
		u.log.Warn("Drawing frames failed: %v", err)
	}
}

func (u *UI) setHits(hits []layout.Hit) {
	for _, h := range hits {
		u.hits.Set(h.Key, input.Rect{X: h.X, Y: h.Y, W: h.W, H: h.H})
	}
}

// changeInterval sets update_ms and repaints the "+ Nms -" label.
func (u *UI) changeInterval(ms int) {
	if ms < minUpdateMS {
		ms = minUpdateMS
	}
	if ms == u.cfg.UpdateMS {
		return
	}
	u.cfg.UpdateMS = ms
	u.applyConfig()

	l := u.engine.Layout()
	if !l.Visible(layout.CPU) {
		return
	}
	label := layout.UpdateLabel(&l, u.env.Theme(), ms)
	u.setHits(label.Hits)
	u.drawBackground(false)
	if u.env.MenuActive() {
		return
	}
	if err := u.draw.WriteNow(label.Out); err != nil {
		u.log.Warn("Drawing update label failed: %v", err)
	}
}

// collectProc refreshes the process list. With interrupt the running cycle
// is abandoned first so the change shows without waiting for it.
func (u *UI) collectProc(interrupt bool) {
	u.sched.Collect(collector.CollectRequest{
		Collectors: []collector.Collector{u.proc},
		DrawNow:    true,
		Interrupt:  interrupt,
		Redraw:     true,
	})
}

// drawProc repaints the process list without sampling.
func (u *UI) drawProc() {
	u.sched.Collect(collector.CollectRequest{
		Collectors: []collector.Collector{u.proc},
		DrawNow:    true,
		OnlyDraw:   true,
	})
}

func (u *UI) collectNet(redraw bool) {
	u.sched.Collect(collector.CollectRequest{
		Collectors: []collector.Collector{u.net},
		DrawNow:    true,
		Interrupt:  true,
		Redraw:     redraw,
	})
}

func (u *UI) collectMem() {
	u.sched.Collect(collector.CollectRequest{
		Collectors: []collector.Collector{u.mem},
		DrawNow:    true,
		Interrupt:  true,
		Redraw:     true,
	})
}

func resizeColors(t *theme.Theme) layout.ResizeColors {
	return layout.ResizeColors{
		Text:    t.Fg("main_fg"),
		Good:    theme.RGB(80, 220, 80).WithMode(t.Mode).Fg(),
		Bad:     theme.RGB(230, 60, 60).WithMode(t.Mode).Fg(),
		Reset:   term.Reset,
		Default: t.Reset(),
	}
}

// resizeWait sleeps between resize checks, waking early on SIGWINCH.
func (u *UI) resizeWait(d time.Duration) {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-u.winch:
	case <-t.C:
	}
}

// resizeQuit drains input while the window is too small and reports whether
// the user asked to quit.
func (u *UI) resizeQuit() bool {
	if u.signals.quit.Load() {
		return true
	}
	for {
		ev, ok := u.reader.Next()
		if !ok {
			return false
		}
		if ev.Key == "q" || ev.Key == input.KeyCtrlC {
			return true
		}
	}
}
