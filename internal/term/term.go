// Package term wraps the terminal modes and escape sequences the monitor
// needs: raw and non-blocking guards, size queries, cursor movement, screen
// and mouse modes.
package term

import (
	"sync"

	"golang.org/x/sys/unix"
	xterm "golang.org/x/term"

	"github.com/rileyhilliard/sysmon/internal/errors"
)

// IsTerminal reports whether fd refers to a terminal.
func IsTerminal(fd int) bool {
	return xterm.IsTerminal(fd)
}

// Size returns the terminal dimensions for fd.
func Size(fd int) (cols, lines int, err error) {
	cols, lines, err = xterm.GetSize(fd)
	if err != nil {
		return 0, 0, errors.WrapWithCode(err, errors.ErrTerminal,
			"Couldn't read the terminal size",
			"Run sysmon in an interactive terminal, not through a pipe or redirect")
	}
	return cols, lines, nil
}

// RawGuard holds the terminal state saved by MakeRaw.
type RawGuard struct {
	fd    int
	state *xterm.State
	once  sync.Once
}

// MakeRaw switches fd to raw mode. Callers defer Restore.
func MakeRaw(fd int) (*RawGuard, error) {
	state, err := xterm.MakeRaw(fd)
	if err != nil {
		return nil, errors.WrapWithCode(err, errors.ErrTerminal,
			"Couldn't switch the terminal to raw mode",
			"Make sure stdin is a terminal")
	}
	return &RawGuard{fd: fd, state: state}, nil
}

// Restore puts the terminal back into the saved mode. Safe to call more than once.
func (g *RawGuard) Restore() error {
	if g == nil {
		return nil
	}
	var err error
	g.once.Do(func() {
		err = xterm.Restore(g.fd, g.state)
	})
	return err
}

// NonblockGuard restores blocking reads on fd.
type NonblockGuard struct {
	fd   int
	once sync.Once
}

// SetNonblocking places fd in non-blocking mode. Callers defer Restore.
func SetNonblocking(fd int) (*NonblockGuard, error) {
	if err := unix.SetNonblock(fd, true); err != nil {
		return nil, errors.WrapWithCode(err, errors.ErrTerminal,
			"Couldn't enable non-blocking terminal reads", "")
	}
	return &NonblockGuard{fd: fd}, nil
}

// Restore switches fd back to blocking mode. Safe to call more than once.
func (g *NonblockGuard) Restore() error {
	if g == nil {
		return nil
	}
	var err error
	g.once.Do(func() {
		err = unix.SetNonblock(g.fd, false)
	})
	return err
}

// IsWouldBlock reports whether err is EAGAIN or EWOULDBLOCK.
func IsWouldBlock(err error) bool {
	return errors.Is(err, unix.EAGAIN) || errors.Is(err, unix.EWOULDBLOCK)
}
