package collector

import (
	"context"
	"math"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/rileyhilliard/sysmon/internal/draw"
)

// Collector gathers one panel's data and renders it.
type Collector interface {
	Name() string
	// Buffer is the compositor buffer Draw writes to.
	Buffer() draw.BufferID
	// Collect samples the provider. It returns early with ctx.Err() when
	// the cycle is interrupted; other failures degrade the panel and are
	// returned for logging.
	Collect(ctx context.Context) error
	// Draw renders the most recent sample. It may run without a preceding
	// Collect, in which case graphs are redrawn without advancing.
	Draw()
}

// Redrawer is implemented by collectors whose static parts (titles, mode
// buttons) are cached between draws.
type Redrawer interface {
	MarkRedraw()
}

// Names of the collectors, as used in logs.
const (
	NameCPU  = "cpu"
	NameMem  = "mem"
	NameNet  = "net"
	NameProc = "proc"
)

func runeLen(s string) int { return utf8.RuneCountInString(s) }

// padRight left-aligns s in width cells.
func padRight(s string, width int) string {
	if n := runeLen(s); n < width {
		return s + strings.Repeat(" ", width-n)
	}
	return s
}

// padLeft right-aligns s in width cells.
func padLeft(s string, width int) string {
	if n := runeLen(s); n < width {
		return strings.Repeat(" ", width-n) + s
	}
	return s
}

// center centers s in width cells, extra space going right.
func center(s string, width int) string {
	n := runeLen(s)
	if n >= width {
		return s
	}
	left := (width - n) / 2
	return strings.Repeat(" ", left) + s + strings.Repeat(" ", width-n-left)
}

// cut returns at most n runes of s.
func cut(s string, n int) string {
	if n <= 0 {
		return ""
	}
	if runeLen(s) <= n {
		return s
	}
	return string([]rune(s)[:n])
}

// cutEnd returns the last n runes of s.
func cutEnd(s string, n int) string {
	if n <= 0 {
		return ""
	}
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[len(r)-n:])
}

// dropEnd removes the last n runes of s.
func dropEnd(s string, n int) string {
	r := []rune(s)
	if n >= len(r) {
		return ""
	}
	return string(r[:len(r)-n])
}

func round(f float64) int {
	return int(math.RoundToEven(f))
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}

func itoa32(v int32) string { return strconv.FormatInt(int64(v), 10) }

func itoa64(v int64) string { return strconv.FormatInt(v, 10) }

func padZero(v int64) string {
	if v < 10 {
		return "0" + itoa64(v)
	}
	return itoa64(v)
}
