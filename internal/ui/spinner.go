package ui

import (
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/lipgloss"
)

const spinnerInterval = 80 * time.Millisecond

// Spinner animates a one line status while a blocking step runs, such as
// connecting to a remote host before the monitor starts.
type Spinner struct {
	mu      sync.Mutex
	out     io.Writer
	label   string
	frame   int
	start   time.Time
	width   int
	running bool
	stop    chan struct{}
	done    chan struct{}
}

// NewSpinner creates a stopped spinner writing to out.
func NewSpinner(out io.Writer, label string) *Spinner {
	return &Spinner{out: out, label: label}
}

// Start draws the first frame and begins animating. Calling it twice is a
// no-op.
func (s *Spinner) Start() {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return
	}
	s.running = true
	s.start = time.Now()
	s.stop = make(chan struct{})
	s.done = make(chan struct{})
	s.draw()
	s.mu.Unlock()

	go s.animate()
}

func (s *Spinner) animate() {
	ticker := time.NewTicker(spinnerInterval)
	defer ticker.Stop()
	defer close(s.done)
	for {
		select {
		case <-s.stop:
			return
		case <-ticker.C:
			s.mu.Lock()
			s.frame = (s.frame + 1) % len(spinnerFrames)
			s.draw()
			s.mu.Unlock()
		}
	}
}

// draw must be called with mu held.
func (s *Spinner) draw() {
	line := lipgloss.NewStyle().Foreground(ColorAccent).Render(spinnerFrames[s.frame]) + " " + s.label + "..."
	s.clear()
	fmt.Fprint(s.out, line)
	s.width = lipgloss.Width(line)
}

func (s *Spinner) clear() {
	if s.width > 0 {
		fmt.Fprint(s.out, "\r"+strings.Repeat(" ", s.width)+"\r")
	}
}

func (s *Spinner) halt() time.Duration {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return 0
	}
	s.running = false
	close(s.stop)
	s.mu.Unlock()
	<-s.done
	return time.Since(s.start)
}

// Success stops the spinner and leaves a check mark with the elapsed time.
func (s *Spinner) Success() {
	s.finish(SymbolPass, ColorSuccess)
}

// Fail stops the spinner and leaves a cross.
func (s *Spinner) Fail() {
	s.finish(SymbolFail, ColorError)
}

func (s *Spinner) finish(symbol string, color lipgloss.Color) {
	elapsed := s.halt()
	s.mu.Lock()
	defer s.mu.Unlock()
	s.clear()
	s.width = 0
	fmt.Fprintf(s.out, "%s %s %s\n",
		lipgloss.NewStyle().Foreground(color).Render(symbol),
		s.label,
		lipgloss.NewStyle().Foreground(ColorMuted).Render(formatDuration(elapsed)))
}

// Running reports whether the spinner is animating.
func (s *Spinner) Running() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running
}

func formatDuration(d time.Duration) string {
	secs := d.Seconds()
	if secs < 0.1 {
		return fmt.Sprintf("%.2fs", secs)
	}
	return fmt.Sprintf("%.1fs", secs)
}
