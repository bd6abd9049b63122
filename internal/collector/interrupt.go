package collector

import (
	"context"
	"sync"
)

// Interrupt is a flag the UI raises to abandon the running cycle. Collectors
// see it through the context returned by Bind and check it between
// processes.
type Interrupt struct {
	mu   sync.Mutex
	set  bool
	done chan struct{}
}

// NewInterrupt returns a cleared flag.
func NewInterrupt() *Interrupt {
	return &Interrupt{done: make(chan struct{})}
}

// Set raises the flag and cancels every bound context.
func (i *Interrupt) Set() {
	i.mu.Lock()
	defer i.mu.Unlock()
	if i.set {
		return
	}
	i.set = true
	close(i.done)
}

// Clear lowers the flag. Contexts bound before Clear stay cancelled.
func (i *Interrupt) Clear() {
	i.mu.Lock()
	defer i.mu.Unlock()
	if !i.set {
		return
	}
	i.set = false
	i.done = make(chan struct{})
}

// IsSet reports whether the flag is raised.
func (i *Interrupt) IsSet() bool {
	i.mu.Lock()
	defer i.mu.Unlock()
	return i.set
}

// Bind returns a child of parent that is cancelled when the flag is raised.
func (i *Interrupt) Bind(parent context.Context) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(parent)
	i.mu.Lock()
	done := i.done
	i.mu.Unlock()

	go func() {
		select {
		case <-done:
			cancel()
		case <-ctx.Done():
		}
	}()
	return ctx, cancel
}
