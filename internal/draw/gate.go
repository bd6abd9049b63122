package draw

import "sync"

// Gate serializes terminal writes against the input reader. A draw waits
// until input is idle and no other draw is running; input marks itself busy
// and then waits for the running draw to finish, so new draws cannot start
// while an escape sequence read is in flight.
type Gate struct {
	mu        sync.Mutex
	cond      *sync.Cond
	inputBusy bool
	drawing   bool
}

// NewGate returns an idle gate.
func NewGate() *Gate {
	g := &Gate{}
	g.cond = sync.NewCond(&g.mu)
	return g
}

// BeginDraw blocks until input is idle and no draw is in progress.
func (g *Gate) BeginDraw() {
	g.mu.Lock()
	for g.inputBusy || g.drawing {
		g.cond.Wait()
	}
	g.drawing = true
	g.mu.Unlock()
}

// EndDraw releases the draw side.
func (g *Gate) EndDraw() {
	g.mu.Lock()
	g.drawing = false
	g.mu.Unlock()
	g.cond.Broadcast()
}

// BeginInput marks input busy and waits for any running draw to finish.
func (g *Gate) BeginInput() {
	g.mu.Lock()
	g.inputBusy = true
	for g.drawing {
		g.cond.Wait()
	}
	g.mu.Unlock()
}

// EndInput marks input idle.
func (g *Gate) EndInput() {
	g.mu.Lock()
	g.inputBusy = false
	g.mu.Unlock()
	g.cond.Broadcast()
}

// State reports the current flags.
func (g *Gate) State() (inputBusy, drawing bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.inputBusy, g.drawing
}
