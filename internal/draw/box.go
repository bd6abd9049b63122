package draw

import (
	"strings"

	"github.com/rileyhilliard/sysmon/internal/term"
)

// Frame glyphs.
const (
	HLine      = "─"
	VLine      = "│"
	LeftUp     = "┌"
	RightUp    = "┐"
	LeftDown   = "└"
	RightDown  = "┘"
	TitleLeft  = "┤"
	TitleRight = "├"
	DivUp      = "┬"
	DivDown    = "┴"
	Enabled    = "▣"
	Disabled   = "▢"
	UpArrow    = "↑"
	DownArrow  = "↓"
)

var superscript = []string{"⁰", "¹", "²", "³", "⁴", "⁵", "⁶", "⁷", "⁸", "⁹"}

// Superscript returns n as superscript digits.
func Superscript(n int) string {
	if n < 0 {
		return ""
	}
	if n < 10 {
		return superscript[n]
	}
	return Superscript(n/10) + superscript[n%10]
}

// Frame describes a framed rectangle. Colors are escape strings.
type Frame struct {
	X, Y          int
	Width, Height int
	Title         string
	Title2        string
	Num           int
	Fill          bool
	LineColor     string
	TitleColor    string
	NumColor      string
	Reset         string
}

// Box renders a frame and leaves the cursor at the first inner cell.
func Box(s Frame) string {
	if s.Width < 2 || s.Height < 2 {
		return ""
	}
	var b strings.Builder
	b.WriteString(s.Reset)
	b.WriteString(s.LineColor)

	bottom := s.Y + s.Height - 1
	right := s.X + s.Width - 1
	for col := s.X; col < right; col++ {
		b.WriteString(term.MoveTo(s.Y, col) + HLine)
		b.WriteString(term.MoveTo(bottom, col) + HLine)
	}
	for line := s.Y; line < bottom; line++ {
		b.WriteString(term.MoveTo(line, s.X) + VLine)
		if s.Fill {
			b.WriteString(strings.Repeat(" ", s.Width-2))
		} else if s.Width > 2 {
			b.WriteString(term.Right(s.Width - 2))
		}
		b.WriteString(VLine)
	}
	b.WriteString(term.MoveTo(s.Y, s.X) + LeftUp)
	b.WriteString(term.MoveTo(s.Y, right) + RightUp)
	b.WriteString(term.MoveTo(bottom, s.X) + LeftDown)
	b.WriteString(term.MoveTo(bottom, right) + RightDown)

	if s.Title != "" {
		b.WriteString(term.MoveTo(s.Y, s.X+2) + TitleLeft + term.Bold)
		if s.Num > 0 {
			b.WriteString(s.NumColor + Superscript(s.Num))
		}
		b.WriteString(s.TitleColor + s.Title + term.Unbold + s.LineColor + TitleRight)
	}
	if s.Title2 != "" {
		b.WriteString(term.MoveTo(bottom, s.X+2) + TitleLeft + s.TitleColor + term.Bold)
		b.WriteString(s.Title2 + term.Unbold + s.LineColor + TitleRight)
	}
	b.WriteString(s.Reset)
	b.WriteString(term.MoveTo(s.Y+1, s.X+1))
	return b.String()
}

// Banner centers text inside a filled box, one line per entry.
func Banner(s Frame, lines []string) string {
	var b strings.Builder
	b.WriteString(Box(s))
	for i, line := range lines {
		if i >= s.Height-2 {
			break
		}
		inner := s.Width - 2
		text := term.Truncate(line, inner)
		pad := (inner - term.Width(text)) / 2
		if pad < 0 {
			pad = 0
		}
		b.WriteString(term.MoveTo(s.Y+1+i, s.X+1+pad) + text)
	}
	return b.String()
}
