package collector

import (
	"context"
	"fmt"
	"runtime/debug"
	"sync"
	"time"

	"github.com/rileyhilliard/sysmon/internal/draw"
	"github.com/rileyhilliard/sysmon/internal/errors"
	"github.com/rileyhilliard/sysmon/internal/logger"
)

const (
	// pollInterval bounds how long the runner waits for work before it
	// ticks the clock and checks for a stop request.
	pollInterval = 100 * time.Millisecond
	stopTimeout  = 2 * time.Second
)

// CollectRequest asks the scheduler for one cycle.
type CollectRequest struct {
	// Collectors to run in order. Empty runs every registered collector,
	// skipping the process collector on throttled cycles.
	Collectors []Collector
	// DrawNow flushes the compositor when the cycle completes.
	DrawNow bool
	// Interrupt abandons the running cycle before queuing this one.
	Interrupt bool
	// OnlyDraw redraws from the last samples without collecting.
	OnlyDraw bool
	// Redraw rebuilds cached titles and graphs.
	Redraw bool
}

type job struct {
	req   CollectRequest
	queue []Collector
}

// Scheduler runs collection cycles on one background goroutine. A cycle is
// either idle or running; Collect waits for idle before queuing.
type Scheduler struct {
	env        *Env
	collectors []Collector
	clock      *Clock
	interrupt  *Interrupt
	once       *logger.Once
	now        func() time.Time

	mu          sync.Mutex
	cond        *sync.Cond
	busy        bool
	stopped     bool
	pending     *job
	procCounter int
	cycles      int

	run   chan struct{}
	stop  chan struct{}
	done  chan struct{}
	fatal chan error
}

// NewScheduler creates a scheduler over collectors, run in the given order.
// clock may be nil.
func NewScheduler(env *Env, interrupt *Interrupt, clock *Clock, collectors ...Collector) *Scheduler {
	if interrupt == nil {
		interrupt = NewInterrupt()
	}
	s := &Scheduler{
		env:         env,
		collectors:  collectors,
		clock:       clock,
		interrupt:   interrupt,
		once:        logger.NewOnce(env.Log),
		now:         time.Now,
		procCounter: 1,
		run:         make(chan struct{}, 1),
		stop:        make(chan struct{}),
		done:        make(chan struct{}),
		fatal:       make(chan error, 1),
	}
	s.cond = sync.NewCond(&s.mu)
	return s
}

// Interrupt returns the flag shared with the layout engine.
func (s *Scheduler) Interrupt() *Interrupt { return s.interrupt }

// Fatal delivers an error when the runner dies. The UI must shut down.
func (s *Scheduler) Fatal() <-chan error { return s.fatal }

// Cycles returns how many cycles have completed, interrupted ones included.
func (s *Scheduler) Cycles() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cycles
}

// Start launches the runner. ctx cancellation stops it like Stop.
func (s *Scheduler) Start(ctx context.Context) {
	go s.loop(ctx)
}

// Stop interrupts the running cycle and waits for the runner to exit.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	if s.stopped {
		s.mu.Unlock()
		return
	}
	s.stopped = true
	close(s.stop)
	s.cond.Broadcast()
	s.mu.Unlock()

	s.interrupt.Set()
	select {
	case <-s.done:
	case <-time.After(stopTimeout):
		s.env.Log.Warn("Collector did not stop within %s", stopTimeout)
	}
}

// Collect queues one cycle. It blocks until any running cycle finished,
// raising the interrupt first when req.Interrupt is set.
func (s *Scheduler) Collect(req CollectRequest) {
	if req.Interrupt {
		s.interrupt.Set()
	}

	s.mu.Lock()
	for s.busy && !s.stopped {
		s.cond.Wait()
	}
	if s.stopped {
		s.mu.Unlock()
		return
	}
	s.interrupt.Clear()

	queue := req.Collectors
	if len(queue) == 0 {
		queue = s.fullQueue()
	}
	s.pending = &job{req: req, queue: queue}
	s.busy = true
	s.mu.Unlock()

	if req.Redraw {
		for _, c := range queue {
			if r, ok := c.(Redrawer); ok {
				r.MarkRedraw()
			}
		}
	}
	select {
	case s.run <- struct{}{}:
	default:
	}
}

// fullQueue returns every collector, leaving the process collector out
// except on every proc_update_mult-th cycle. Must be called with mu held.
func (s *Scheduler) fullQueue() []Collector {
	mult := s.env.Config().ProcUpdateMult
	skipProc := false
	if mult > 1 {
		skipProc = s.procCounter > 1
		if s.procCounter >= mult {
			s.procCounter = 0
		}
		s.procCounter++
	}
	queue := make([]Collector, 0, len(s.collectors))
	for _, c := range s.collectors {
		if skipProc && c.Name() == NameProc {
			continue
		}
		queue = append(queue, c)
	}
	return queue
}

// Wait blocks until the scheduler is idle.
func (s *Scheduler) Wait() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for s.busy && !s.stopped {
		s.cond.Wait()
	}
}

// Idle reports whether no cycle is queued or running.
func (s *Scheduler) Idle() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return !s.busy
}

func (s *Scheduler) loop(ctx context.Context) {
	defer close(s.done)
	ticker := time.NewTicker(pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-s.stop:
			return
		case <-ctx.Done():
			s.halt()
			return
		case <-ticker.C:
			if s.clock != nil && s.Idle() {
				s.safeClock()
			}
		case <-s.run:
			s.mu.Lock()
			j := s.pending
			s.pending = nil
			s.mu.Unlock()
			if j == nil {
				continue
			}
			if err := s.cycle(ctx, j); err != nil {
				s.env.Log.Error("%v", err)
				select {
				case s.fatal <- err:
				default:
				}
				s.halt()
				return
			}
			s.idle()
		}
	}
}

func (s *Scheduler) idle() {
	s.mu.Lock()
	s.busy = false
	s.cycles++
	s.cond.Broadcast()
	s.mu.Unlock()
}

// halt releases waiters for good once the runner exits on its own.
func (s *Scheduler) halt() {
	s.mu.Lock()
	s.busy = false
	s.stopped = true
	s.cond.Broadcast()
	s.mu.Unlock()
}

func (s *Scheduler) safeClock() {
	defer func() {
		if r := recover(); r != nil {
			s.env.Log.Error("Clock panicked: %v\n%s", r, debug.Stack())
		}
	}()
	s.clock.Update(s.now(), false, true)
}

// cycle runs one job. A collector panic is converted to an error so the UI
// can restore the terminal before exiting.
func (s *Scheduler) cycle(parent context.Context, j *job) (err error) {
	var current string
	defer func() {
		if r := recover(); r != nil {
			err = errors.New(errors.ErrCollector,
				fmt.Sprintf("Collector %s crashed: %v\n%s", current, r, debug.Stack()),
				"Report this with the log attached")
		}
	}()

	ctx, cancel := s.interrupt.Bind(parent)
	defer cancel()

	var drawn []draw.BufferID
	for _, c := range j.queue {
		current = c.Name()
		if !j.req.OnlyDraw {
			if err := c.Collect(ctx); err != nil && ctx.Err() == nil {
				s.once.Warnf(c.Name(), "Collecting %s: %v", c.Name(), errors.Oneline(err))
			}
		}
		if s.interrupt.IsSet() {
			return nil
		}
		c.Draw()
		drawn = append(drawn, c.Buffer())
	}

	current = "clock"
	if s.clock != nil && s.clock.Update(s.now(), j.req.Redraw, false) {
		drawn = append(drawn, draw.Clock)
	}

	if !j.req.DrawNow || s.env.MenuActive() || s.interrupt.IsSet() {
		return nil
	}
	var flushErr error
	if len(j.req.Collectors) > 0 {
		flushErr = s.env.Draw.Flush(false, drawn...)
	} else {
		flushErr = s.env.Draw.Flush(false)
	}
	if flushErr != nil {
		s.env.Log.Warn("Writing panels failed: %v", flushErr)
	}
	return nil
}
