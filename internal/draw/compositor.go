// Package draw stages rendered panel strings in a fixed set of z-ordered
// buffers and writes them to the terminal in one call.
package draw

import (
	"io"
	"sort"
	"strings"
	"sync"

	"github.com/rileyhilliard/sysmon/internal/errors"
	"github.com/rileyhilliard/sysmon/internal/term"
)

// BufferID names a staging buffer.
type BufferID int

const (
	Background BufferID = iota
	CPU
	Mem
	Net
	Proc
	Clock
	Message
	Warning
	MenuBackground
	Menu
	numBuffers
)

var bufferNames = [numBuffers]string{
	"background", "cpu", "mem", "net", "proc", "clock", "message", "warning", "menu_bg", "menu",
}

func (b BufferID) String() string {
	if b < 0 || b >= numBuffers {
		return "unknown"
	}
	return bufferNames[b]
}

// Standard z levels. Higher z is written first, so lower z lands on top.
const (
	ZBackground = 1000
	ZDefault    = 100
	ZMenuBg     = 10
	ZMenu       = 1
)

// Opts controls how Buffer stores content.
type Opts struct {
	// Append adds to the existing content instead of replacing it.
	Append bool
	// Z orders the flush. Zero keeps the buffer's current z, or ZDefault
	// for a new buffer.
	Z int
	// Once drops the live content after it has been flushed.
	Once bool
	// NoSave keeps the content out of the saved frame.
	NoSave bool
	// OnlySave updates the saved frame without staging anything to write.
	// Used while a menu covers the screen.
	OnlySave bool
	// FlushNow writes this buffer immediately.
	FlushNow bool
}

type entry struct {
	live     string
	hasLive  bool
	saved    string
	hasSaved bool
	z        int
	once     bool
	noSave   bool
	known    bool
}

// Compositor holds the buffers and performs gated writes. Each buffer has
// live content, written by the next Flush, and a saved copy of what was
// last flushed, used to repaint the screen behind menus.
type Compositor struct {
	mu      sync.Mutex
	entries [numBuffers]entry
	out     io.Writer
	gate    *Gate
	last    string
}

// New creates a compositor writing to out. A nil gate gets a private one.
func New(out io.Writer, gate *Gate) *Compositor {
	if gate == nil {
		gate = NewGate()
	}
	return &Compositor{out: out, gate: gate}
}

// Gate returns the handshake shared with the input reader.
func (c *Compositor) Gate() *Gate { return c.gate }

// Buffer stores content under id.
func (c *Compositor) Buffer(id BufferID, content string, o Opts) error {
	if id < 0 || id >= numBuffers {
		return errors.New(errors.ErrTerminal, "unknown draw buffer", "")
	}
	c.mu.Lock()
	e := &c.entries[id]
	if o.Z != 0 {
		e.z = o.Z
	} else if !e.known {
		e.z = ZDefault
	}
	e.known = true
	e.once = o.Once
	e.noSave = o.NoSave

	if o.OnlySave {
		if !o.Append {
			e.saved = ""
		}
		e.saved += content
		e.hasSaved = true
		c.mu.Unlock()
		return nil
	}
	if !o.Append {
		e.live = ""
	}
	e.live += content
	e.hasLive = true
	c.mu.Unlock()

	if o.FlushNow {
		return c.Flush(false, id)
	}
	return nil
}

// Flush writes the given buffers, or all when ids is empty, ordered by
// descending z with ties in id order. Flushed content becomes the saved
// copy unless NoSave was set. Once buffers, and with clear every flushed
// buffer, lose their live content afterwards.
func (c *Compositor) Flush(clear bool, ids ...BufferID) error {
	c.mu.Lock()
	var b strings.Builder
	for _, id := range c.order(ids, func(e *entry) bool { return e.hasLive }) {
		e := &c.entries[id]
		b.WriteString(e.live)
		if !e.noSave {
			e.saved = e.live
			e.hasSaved = true
		}
		if clear || e.once {
			e.live = ""
			e.hasLive = false
		}
	}
	out := b.String()
	if len(ids) == 0 {
		c.last = out
	}
	c.mu.Unlock()

	if out == "" {
		return nil
	}
	return c.write(out)
}

// order returns the ids passing keep, sorted by descending z then id.
func (c *Compositor) order(ids []BufferID, keep func(*entry) bool) []BufferID {
	var want [numBuffers]bool
	if len(ids) == 0 {
		for i := range want {
			want[i] = true
		}
	}
	for _, id := range ids {
		if id >= 0 && id < numBuffers {
			want[id] = true
		}
	}
	var out []BufferID
	for id := BufferID(0); id < numBuffers; id++ {
		if want[id] && keep(&c.entries[id]) {
			out = append(out, id)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return c.entries[out[i]].z > c.entries[out[j]].z
	})
	return out
}

// WriteNow writes content immediately, bypassing the buffers.
func (c *Compositor) WriteNow(content ...string) error {
	return c.write(strings.Join(content, ""))
}

// write performs one gated write. A write that would block waits for input
// idle again and is retried once with the unwritten remainder.
func (c *Compositor) write(s string) error {
	c.gate.BeginDraw()
	n, err := io.WriteString(c.out, s)
	c.gate.EndDraw()
	if err == nil || !term.IsWouldBlock(err) {
		return err
	}

	c.gate.BeginDraw()
	defer c.gate.EndDraw()
	_, err = io.WriteString(c.out, s[n:])
	return err
}

// Clear drops the live content of the given buffers.
func (c *Compositor) Clear(ids ...BufferID) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, id := range ids {
		if id >= 0 && id < numBuffers {
			c.entries[id].live = ""
			c.entries[id].hasLive = false
		}
	}
}

// Forget drops both live and saved content of the given buffers.
func (c *Compositor) Forget(ids ...BufferID) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, id := range ids {
		if id >= 0 && id < numBuffers {
			c.entries[id] = entry{}
		}
	}
}

// ClearAll drops every buffer and the saved frame.
func (c *Compositor) ClearAll() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = [numBuffers]entry{}
	c.last = ""
}

// Has reports whether id has live content waiting to be flushed.
func (c *Compositor) Has(id BufferID) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return id >= 0 && id < numBuffers && c.entries[id].hasLive
}

// Content returns the live content for id.
func (c *Compositor) Content(id BufferID) string {
	c.mu.Lock()
	defer c.mu.Unlock()
	if id < 0 || id >= numBuffers {
		return ""
	}
	return c.entries[id].live
}

// Snapshot concatenates the saved copies in flush order. Menus dim it and
// draw it as their backdrop.
func (c *Compositor) Snapshot() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	var b strings.Builder
	for _, id := range c.order(nil, func(e *entry) bool { return e.hasSaved }) {
		b.WriteString(c.entries[id].saved)
	}
	return b.String()
}

// Last returns the output of the most recent full flush.
func (c *Compositor) Last() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.last
}
