// Package input reads raw terminal bytes on a background goroutine and
// decodes them into key and mouse events.
package input

import (
	"fmt"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/rileyhilliard/sysmon/internal/draw"
	"github.com/rileyhilliard/sysmon/internal/errors"
	"github.com/rileyhilliard/sysmon/internal/logger"
)

const (
	// QueueSize is the number of buffered events; the oldest is dropped on overflow.
	QueueSize = 10

	pollInterval = 100 * time.Millisecond
	escapeWindow = 10 * time.Millisecond
	escapeRead   = 20
	mouseMax     = 1000
	stopTimeout  = time.Second
)

// Reader owns the input goroutine and its event queue.
type Reader struct {
	src  Source
	gate *draw.Gate
	log  logger.Logger
	hits *HitMap

	mu     sync.Mutex
	queue  []Event
	mouseX int
	mouseY int
	moved  bool

	notify  chan struct{}
	fatal   chan error
	stop    chan struct{}
	done    chan struct{}
	running bool

	pollInterval time.Duration
	escapeWindow time.Duration
}

// NewReader creates a stopped reader. gate is shared with the compositor.
func NewReader(src Source, gate *draw.Gate, log logger.Logger) *Reader {
	if gate == nil {
		gate = draw.NewGate()
	}
	if log == nil {
		log = logger.Noop()
	}
	return &Reader{
		src:          src,
		gate:         gate,
		log:          log,
		notify:       make(chan struct{}, 1),
		fatal:        make(chan error, 1),
		pollInterval: pollInterval,
		escapeWindow: escapeWindow,
	}
}

// SetHitMap installs the click translation map.
func (r *Reader) SetHitMap(h *HitMap) {
	r.mu.Lock()
	r.hits = h
	r.mu.Unlock()
}

// Start launches the read goroutine. Calling Start twice is a no-op.
func (r *Reader) Start() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.running {
		return
	}
	r.running = true
	r.stop = make(chan struct{})
	r.done = make(chan struct{})
	go r.loop(r.stop, r.done)
}

// Stop asks the goroutine to exit and waits up to one second for it.
func (r *Reader) Stop() error {
	r.mu.Lock()
	if !r.running {
		r.mu.Unlock()
		return nil
	}
	r.running = false
	close(r.stop)
	done := r.done
	r.mu.Unlock()

	select {
	case <-done:
		return nil
	case <-time.After(stopTimeout):
		return errors.New(errors.ErrInput, "input reader did not stop", "")
	}
}

// Fatal delivers the error that ended the reader, if any.
func (r *Reader) Fatal() <-chan error {
	return r.fatal
}

// Wait blocks until an event is queued or timeout passes.
func (r *Reader) Wait(timeout time.Duration) bool {
	if r.Has() {
		return true
	}
	if timeout <= 0 {
		return false
	}
	timer := time.NewTimer(timeout)
	defer timer.Stop()
	for {
		select {
		case <-r.notify:
			if r.Has() {
				return true
			}
		case <-timer.C:
			return r.Has()
		}
	}
}

// Has reports whether events are queued.
func (r *Reader) Has() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.queue) > 0
}

// Next pops the oldest event.
func (r *Reader) Next() (Event, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.queue) == 0 {
		return Event{}, false
	}
	ev := r.queue[0]
	r.queue = r.queue[1:]
	return ev, true
}

// Clear drops all queued events.
func (r *Reader) Clear() {
	r.mu.Lock()
	r.queue = nil
	r.mu.Unlock()
}

// MousePos returns the last reported pointer position.
func (r *Reader) MousePos() (x, y int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.mouseX, r.mouseY
}

// TakeMoved reports and resets the pointer-moved flag.
func (r *Reader) TakeMoved() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	m := r.moved
	r.moved = false
	return m
}

// Push queues an event as if it had been typed.
func (r *Reader) Push(ev Event) {
	r.mu.Lock()
	if len(r.queue) >= QueueSize {
		r.queue = r.queue[1:]
	}
	r.queue = append(r.queue, ev)
	r.mu.Unlock()

	select {
	case r.notify <- struct{}{}:
	default:
	}
}

func (r *Reader) loop(stop <-chan struct{}, done chan<- struct{}) {
	defer close(done)
	defer func() {
		if p := recover(); p != nil {
			r.fail(fmt.Errorf("panic: %v", p))
		}
	}()

	buf := make([]byte, 4)
	for {
		select {
		case <-stop:
			return
		default:
		}

		ready, err := r.src.Poll(r.pollInterval)
		if err != nil {
			r.fail(err)
			return
		}
		if !ready {
			continue
		}
		n, err := r.src.Read(buf[:1])
		if err != nil {
			r.fail(err)
			return
		}
		if n == 0 {
			continue
		}

		var raw string
		switch {
		case buf[0] == 0x1b:
			raw, err = r.readEscape()
		case buf[0] >= 0xc0:
			raw, err = r.readRune(buf[0])
		default:
			raw = string(buf[:1])
		}
		if err != nil {
			r.fail(err)
			return
		}
		for _, seq := range split(raw) {
			r.handle(seq)
		}
	}
}

// readEscape collects the bytes following ESC while holding the input side
// of the gate, so no frame is written mid-sequence.
func (r *Reader) readEscape() (string, error) {
	r.gate.BeginInput()
	defer r.gate.EndInput()

	var b strings.Builder
	b.WriteByte(0x1b)

	ready, err := r.src.Poll(r.escapeWindow)
	if err != nil || !ready {
		return b.String(), err
	}
	chunk := make([]byte, escapeRead)
	n, err := r.src.Read(chunk)
	if err != nil {
		return "", err
	}
	b.Write(chunk[:n])

	if strings.HasPrefix(b.String()[1:], mousePrefix) {
		for !strings.ContainsAny(b.String(), "mM") && b.Len() < mouseMax {
			ready, err := r.src.Poll(r.escapeWindow)
			if err != nil {
				return "", err
			}
			if !ready {
				break
			}
			n, err := r.src.Read(chunk)
			if err != nil {
				return "", err
			}
			if n == 0 {
				break
			}
			b.Write(chunk[:n])
		}
	}
	return b.String(), nil
}

// readRune reads the continuation bytes of a multi-byte UTF-8 character.
func (r *Reader) readRune(lead byte) (string, error) {
	want := 2
	switch {
	case lead >= 0xf0:
		want = 4
	case lead >= 0xe0:
		want = 3
	}
	buf := []byte{lead}
	one := make([]byte, 1)
	for len(buf) < want {
		ready, err := r.src.Poll(r.escapeWindow)
		if err != nil {
			return "", err
		}
		if !ready {
			break
		}
		n, err := r.src.Read(one)
		if err != nil {
			return "", err
		}
		if n == 0 {
			break
		}
		buf = append(buf, one[0])
	}
	if !utf8.Valid(buf) {
		return "", nil
	}
	return string(buf), nil
}

func (r *Reader) handle(seq string) {
	d := decode(seq)
	if !d.ok {
		if seq != "" {
			r.log.Debug("input: ignored sequence %q", seq)
		}
		return
	}
	ev := d.event
	if ev.Key == KeyMouseClick || ev.Key == KeyMouseRelease || d.move ||
		ev.Key == KeyMouseScrollUp || ev.Key == KeyMouseScrollDown {
		r.mu.Lock()
		r.mouseX, r.mouseY = ev.X, ev.Y
		if d.move {
			r.moved = true
		}
		hits := r.hits
		r.mu.Unlock()
		if d.move {
			return
		}
		if ev.Key == KeyMouseClick && hits != nil {
			if k, ok := hits.Lookup(ev.X, ev.Y); ok {
				ev.Key = k
			}
		}
	}
	r.Push(ev)
}

func (r *Reader) fail(err error) {
	r.log.Error("input reader stopped: %v", err)
	wrapped := errors.WrapWithCode(err, errors.ErrInput, "Input reader failed", "")
	select {
	case r.fatal <- wrapped:
	default:
	}
}
