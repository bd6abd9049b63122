// Package collector samples a metrics provider on a background goroutine and
// renders each panel's dynamic content into the compositor.
package collector

import (
	"sync"
	"sync/atomic"

	"github.com/rileyhilliard/sysmon/internal/config"
	"github.com/rileyhilliard/sysmon/internal/draw"
	"github.com/rileyhilliard/sysmon/internal/input"
	"github.com/rileyhilliard/sysmon/internal/layout"
	"github.com/rileyhilliard/sysmon/internal/logger"
	"github.com/rileyhilliard/sysmon/internal/metrics"
	"github.com/rileyhilliard/sysmon/internal/theme"
)

// Env is the state every collector shares with the UI goroutine. The
// config and theme are held as snapshots so the UI can replace them while a
// cycle is running.
type Env struct {
	Provider metrics.Provider
	Draw     *draw.Compositor
	Layout   *layout.Engine
	// Hits receives clickable regions drawn by the panels. May be nil.
	Hits *input.HitMap
	Log  logger.Logger

	mu         sync.RWMutex
	cfg        config.Config
	theme      *theme.Theme
	menuActive atomic.Bool
	relayout   atomic.Bool
}

// NewEnv returns an Env holding a copy of cfg.
func NewEnv(p metrics.Provider, c *draw.Compositor, e *layout.Engine, cfg *config.Config, t *theme.Theme, log logger.Logger) *Env {
	if log == nil {
		log = logger.Noop()
	}
	env := &Env{
		Provider: p,
		Draw:     c,
		Layout:   e,
		Log:      log,
		theme:    t,
	}
	env.SetConfig(cfg)
	return env
}

// Config returns the current config snapshot.
func (e *Env) Config() config.Config {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.cfg
}

// SetConfig stores a copy of cfg.
func (e *Env) SetConfig(cfg *config.Config) {
	c := *cfg
	c.ShownBoxes = append([]string(nil), cfg.ShownBoxes...)
	e.mu.Lock()
	e.cfg = c
	e.mu.Unlock()
}

// Theme returns the active theme.
func (e *Env) Theme() *theme.Theme {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.theme
}

// SetTheme replaces the active theme.
func (e *Env) SetTheme(t *theme.Theme) {
	e.mu.Lock()
	e.theme = t
	e.mu.Unlock()
}

// MenuActive reports whether a menu covers the screen. Panels then only
// update the saved frame.
func (e *Env) MenuActive() bool { return e.menuActive.Load() }

// SetMenuActive marks a menu as open or closed.
func (e *Env) SetMenuActive(v bool) { e.menuActive.Store(v) }

// RequestRelayout asks the UI to recalculate the layout, for example after
// temperature sensors disappear.
func (e *Env) RequestRelayout() { e.relayout.Store(true) }

// TakeRelayout reports and clears a pending relayout request.
func (e *Env) TakeRelayout() bool { return e.relayout.Swap(false) }

func (e *Env) buffer(id draw.BufferID, content string) {
	if err := e.Draw.Buffer(id, content, draw.Opts{OnlySave: e.MenuActive()}); err != nil {
		e.Log.Warn("Buffering %s failed: %v", id, err)
	}
}

func (e *Env) setHit(key string, x, y, w, h int) {
	if e.Hits == nil {
		return
	}
	e.Hits.Set(key, input.Rect{X: x, Y: y, W: w, H: h})
}

func (e *Env) removeHit(keys ...string) {
	if e.Hits == nil {
		return
	}
	for _, k := range keys {
		e.Hits.Remove(k)
	}
}
