package doctor

import (
	"fmt"
	"os"

	"github.com/muesli/termenv"

	"github.com/rileyhilliard/sysmon/internal/layout"
	"github.com/rileyhilliard/sysmon/internal/term"
)

// TerminalCheck verifies stdin and stdout are a terminal.
type TerminalCheck struct {
	In, Out int // file descriptors
}

func (c *TerminalCheck) Name() string     { return "terminal" }
func (c *TerminalCheck) Category() string { return CategoryTerminal }

func (c *TerminalCheck) Run() CheckResult {
	if !term.IsTerminal(c.In) || !term.IsTerminal(c.Out) {
		return fail(c.Name(), "Not running in an interactive terminal",
			"Run sysmon directly in a terminal, not through a pipe or redirect")
	}
	return pass(c.Name(), "Interactive terminal")
}

// TerminalSizeCheck compares the window to the smallest size the layout
// can draw all panels in.
type TerminalSizeCheck struct {
	Fd      int
	Visible []layout.PanelID
	// Size defaults to term.Size on Fd.
	Size func() (cols, lines int, err error)
}

func (c *TerminalSizeCheck) Name() string     { return "terminal_size" }
func (c *TerminalSizeCheck) Category() string { return CategoryTerminal }

func (c *TerminalSizeCheck) Run() CheckResult {
	size := c.Size
	if size == nil {
		size = func() (int, int, error) { return term.Size(c.Fd) }
	}
	cols, lines, err := size()
	if err != nil {
		return warn(c.Name(), "Terminal size unknown", "Run sysmon in a terminal window")
	}
	minW, minH := layout.MinSize(c.Visible)
	if cols < minW || lines < minH {
		return warn(c.Name(), fmt.Sprintf("Terminal is %dx%d, panels need %dx%d", cols, lines, minW, minH),
			"Enlarge the window or hide panels with --boxes")
	}
	return pass(c.Name(), fmt.Sprintf("Terminal size %dx%d", cols, lines))
}

// ColorCheck reports the color support the environment advertises, since
// the truecolor default looks wrong on terminals without it.
type ColorCheck struct {
	Mode string // configured color_mode
	// Profile defaults to termenv's detection from the environment.
	Profile func() termenv.Profile
}

func (c *ColorCheck) Name() string     { return "color_support" }
func (c *ColorCheck) Category() string { return CategoryTerminal }

func (c *ColorCheck) Run() CheckResult {
	detect := c.Profile
	if detect == nil {
		detect = func() termenv.Profile { return termenv.NewOutput(os.Stdout).EnvColorProfile() }
	}
	profile := detect()
	switch {
	case c.Mode == "truecolor" && profile != termenv.TrueColor:
		return warn(c.Name(), fmt.Sprintf("color_mode is truecolor but the terminal reports %s", profileName(profile)),
			"Set color_mode: 256 if colors look wrong")
	case c.Mode == "256" && profile == termenv.Ascii:
		return warn(c.Name(), "The terminal reports no color support", "Set color_mode: greyscale")
	}
	return pass(c.Name(), fmt.Sprintf("Colors: %s (color_mode %s)", profileName(profile), c.Mode))
}

func profileName(p termenv.Profile) string {
	switch p {
	case termenv.TrueColor:
		return "truecolor"
	case termenv.ANSI256:
		return "256 colors"
	case termenv.ANSI:
		return "16 colors"
	default:
		return "no colors"
	}
}

// NewTerminalChecks creates the terminal checks for stdin and stdout.
func NewTerminalChecks(visible []layout.PanelID, colorMode string) []Check {
	in, out := int(os.Stdin.Fd()), int(os.Stdout.Fd())
	return []Check{
		&TerminalCheck{In: in, Out: out},
		&TerminalSizeCheck{Fd: out, Visible: visible},
		&ColorCheck{Mode: colorMode},
	}
}
