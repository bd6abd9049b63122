package term

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/charmbracelet/x/ansi"
)

// Screen, cursor and mouse mode sequences.
const (
	AltScreen    = "\033[?1049h"
	NormalScreen = "\033[?1049l"
	HideCursor   = "\033[?25l"
	ShowCursor   = "\033[?25h"
	Clear        = "\033[2J\033[0;0f"
	ClearLine    = "\033[2K"
	SaveCursor   = "\0337"
	RestCursor   = "\0338"

	MouseOn        = "\033[?1002h\033[?1015h\033[?1006h"
	MouseOff       = "\033[?1002l"
	MouseDirectOn  = "\033[?1003h"
	MouseDirectOff = "\033[?1003l"
)

// Text effects.
const (
	Bold        = "\033[1m"
	Unbold      = "\033[22m"
	Dark        = "\033[2m"
	Undark      = "\033[22m"
	Italic      = "\033[3m"
	Unitalic    = "\033[23m"
	Underline   = "\033[4m"
	Ununderline = "\033[24m"
	Blink       = "\033[5m"
	Unblink     = "\033[25m"
	Strike      = "\033[9m"
	Unstrike    = "\033[29m"
	Reset       = "\033[0m"
	DefaultFg   = "\033[39m"
	DefaultBg   = "\033[49m"
)

// MoveTo positions the cursor at line, col (1-based).
func MoveTo(line, col int) string {
	return fmt.Sprintf("\033[%d;%df", line, col)
}

// Right moves the cursor n columns right.
func Right(n int) string { return fmt.Sprintf("\033[%dC", n) }

// Left moves the cursor n columns left.
func Left(n int) string { return fmt.Sprintf("\033[%dD", n) }

// Up moves the cursor n lines up.
func Up(n int) string { return fmt.Sprintf("\033[%dA", n) }

// Down moves the cursor n lines down.
func Down(n int) string { return fmt.Sprintf("\033[%dB", n) }

// Title sets the terminal window title. An empty title clears it.
func Title(s string) string {
	if s == "" {
		return "\033]0;\a"
	}
	return "\033]0;" + s + " sysmon\a"
}

var colorSeq = regexp.MustCompile(`\033\[\d+;\d?;?\d*;?\d*;?\d*m`)

// Uncolor strips 24-bit and 256-color SGR sequences from s.
func Uncolor(s string) string {
	return colorSeq.ReplaceAllString(s, "")
}

// StripEscapes removes every escape sequence from s.
func StripEscapes(s string) string {
	return ansi.Strip(s)
}

// Width is the number of cells s occupies once escapes are removed.
func Width(s string) int {
	return ansi.StringWidth(s)
}

// Fit truncates s to width cells or pads it with spaces.
func Fit(s string, width int) string {
	if width <= 0 {
		return ""
	}
	s = ansi.Truncate(s, width, "")
	if w := ansi.StringWidth(s); w < width {
		s += strings.Repeat(" ", width-w)
	}
	return s
}

// Truncate cuts s to at most width cells.
func Truncate(s string, width int) string {
	if width <= 0 {
		return ""
	}
	return ansi.Truncate(s, width, "")
}
