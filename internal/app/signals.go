package app

import (
	"os"
	"os/signal"
	"sync/atomic"
	"syscall"

	"golang.org/x/sys/unix"

	"github.com/rileyhilliard/sysmon/internal/collector"
	"github.com/rileyhilliard/sysmon/internal/input"
)

// signalState carries flags from the signal goroutine to the main loop.
type signalState struct {
	resized atomic.Bool
	suspend atomic.Bool
	resumed atomic.Bool
	quit    atomic.Bool
}

func stopSelf() error {
	return unix.Kill(unix.Getpid(), unix.SIGSTOP)
}

// watchSignals records window, job control and termination signals until
// the returned func is called. SIGHUP counts as termination.
func (u *UI) watchSignals() func() {
	ch := make(chan os.Signal, 4)
	signal.Notify(ch, syscall.SIGWINCH, syscall.SIGTSTP, syscall.SIGCONT,
		syscall.SIGINT, syscall.SIGTERM, syscall.SIGHUP)
	done := make(chan struct{})
	stopped := make(chan struct{})

	go func() {
		defer close(stopped)
		for {
			select {
			case <-done:
				return
			case sig := <-ch:
				switch sig {
				case syscall.SIGWINCH:
					u.signals.resized.Store(true)
					select {
					case u.winch <- struct{}{}:
					default:
					}
				case syscall.SIGTSTP:
					u.signals.suspend.Store(true)
				case syscall.SIGCONT:
					u.signals.resumed.Store(true)
				default:
					u.signals.quit.Store(true)
				}
				u.reader.Push(input.Event{Key: keyWake})
			}
		}
	}()

	return func() {
		signal.Stop(ch)
		close(done)
		<-stopped
	}
}

// handleSignals acts on the flags raised since the last call.
func (u *UI) handleSignals() {
	if u.signals.quit.Swap(false) {
		u.log.Info("Caught termination signal")
		u.quitting = true
		return
	}
	if u.signals.suspend.Swap(false) {
		u.suspendNow()
		return
	}
	if u.signals.resumed.Swap(false) {
		u.relayout(true)
		return
	}
	if u.signals.resized.Swap(false) {
		u.relayout(false)
	}
}

// suspendNow gives the terminal back, stops the process and takes the
// terminal again once the shell resumes it.
func (u *UI) suspendNow() {
	u.log.Debug("Suspending")
	u.sched.Stop()
	if err := u.reader.Stop(); err != nil {
		u.log.Warn("Stopping input: %v", err)
	}
	if err := u.term.Leave(); err != nil {
		u.fail(err)
		return
	}

	if err := u.stopSelf(); err != nil {
		u.log.Warn("Suspend failed: %v", err)
	}

	if err := u.term.Enter(); err != nil {
		u.fail(err)
		return
	}
	u.reader.Start()
	u.sched = u.newScheduler()
	u.sched.Start(u.ctx)
	u.signals.resumed.Store(false)
	u.log.Debug("Resumed")
	u.relayout(true)
	u.timer.Stamp()
	u.sched.Collect(collector.CollectRequest{DrawNow: true})
}
