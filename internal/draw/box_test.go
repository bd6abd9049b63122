package draw

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/rileyhilliard/sysmon/internal/term"
)

func TestSuperscript(t *testing.T) {
	assert.Equal(t, "¹", Superscript(1))
	assert.Equal(t, "⁴", Superscript(4))
	assert.Equal(t, "¹²", Superscript(12))
	assert.Equal(t, "", Superscript(-1))
}

func TestBox(t *testing.T) {
	out := Box(Frame{X: 1, Y: 1, Width: 10, Height: 4, Title: "cpu", Num: 1})
	plain := term.StripEscapes(out)

	assert.Equal(t, 1, strings.Count(plain, LeftUp))
	assert.Equal(t, 1, strings.Count(plain, RightDown))
	assert.Contains(t, out, term.MoveTo(1, 10)+RightUp)
	assert.Contains(t, out, term.MoveTo(4, 1)+LeftDown)
	assert.Contains(t, plain, TitleLeft+"¹cpu"+TitleRight)
	assert.True(t, strings.HasSuffix(out, term.MoveTo(2, 2)))
	assert.Contains(t, out, term.Right(8))
}

func TestBox_FillAndTitle2(t *testing.T) {
	out := Box(Frame{X: 3, Y: 2, Width: 6, Height: 3, Title2: "x", Fill: true})
	assert.Contains(t, out, term.MoveTo(2, 3)+VLine+"    "+VLine)
	assert.Contains(t, out, term.MoveTo(4, 5)+TitleLeft)
}

func TestBox_TooSmall(t *testing.T) {
	assert.Empty(t, Box(Frame{Width: 1, Height: 5}))
}

func TestBanner(t *testing.T) {
	out := Banner(Frame{X: 1, Y: 1, Width: 12, Height: 4}, []string{"ab", "abcd", "dropped"})
	assert.Contains(t, out, term.MoveTo(2, 6)+"ab")
	assert.Contains(t, out, term.MoveTo(3, 5)+"abcd")
	assert.NotContains(t, out, "dropped")
}
