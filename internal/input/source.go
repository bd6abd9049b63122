package input

import (
	"io"
	"time"

	"golang.org/x/sys/unix"

	"github.com/rileyhilliard/sysmon/internal/term"
)

// Source is where the reader gets bytes from.
type Source interface {
	// Poll waits up to timeout for input and reports whether any is ready.
	Poll(timeout time.Duration) (bool, error)
	// Read reads available bytes. It returns 0, nil when nothing is ready.
	// Poll and Read return io.EOF once the other end hangs up.
	Read(p []byte) (int, error)
}

// TTY reads a terminal file descriptor.
type TTY struct {
	fd int
}

// NewTTY wraps fd, normally stdin in raw mode.
func NewTTY(fd int) *TTY {
	return &TTY{fd: fd}
}

// Poll implements Source.
func (t *TTY) Poll(timeout time.Duration) (bool, error) {
	fds := []unix.PollFd{{Fd: int32(t.fd), Events: unix.POLLIN}}
	n, err := unix.Poll(fds, int(timeout/time.Millisecond))
	if err == unix.EINTR {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if n == 0 {
		return false, nil
	}
	revents := fds[0].Revents
	if revents&unix.POLLIN != 0 {
		return true, nil
	}
	if revents&(unix.POLLHUP|unix.POLLERR|unix.POLLNVAL) != 0 {
		return false, io.EOF
	}
	return false, nil
}

// Read implements Source. The descriptor is non-blocking only for the
// duration of the read. A zero-byte read means the terminal was closed.
func (t *TTY) Read(p []byte) (int, error) {
	guard, err := term.SetNonblocking(t.fd)
	if err != nil {
		return 0, err
	}
	defer guard.Restore()

	n, err := unix.Read(t.fd, p)
	if err != nil {
		if term.IsWouldBlock(err) || err == unix.EINTR {
			return 0, nil
		}
		return 0, err
	}
	if n == 0 && len(p) > 0 {
		return 0, io.EOF
	}
	return n, nil
}
