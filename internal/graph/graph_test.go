package graph

import (
	"fmt"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testGradient() []string {
	g := make([]string, 101)
	for i := range g {
		g[i] = fmt.Sprintf("<%d>", i)
	}
	return g
}

func seq(n int) []int {
	out := make([]int, n)
	for i := range out {
		out[i] = i
	}
	return out
}

func TestGraph_MultiRow(t *testing.T) {
	g := New(20, 10, nil, seq(20), Opts{})

	out := g.String()
	assert.Equal(t, 281, utf8.RuneCountInString(out))
	assert.True(t, strings.HasSuffix(out, "⣀⣤⣴⣾⣿⣿⣿⣿⣿"))
	assert.Equal(t, 9, strings.Count(out, "\033[1B\033[20D"))

	rows := g.Rows()
	require.Len(t, rows, 10)
	for _, r := range rows {
		assert.Equal(t, 20, utf8.RuneCountInString(r))
	}
	assert.Equal(t, "           ⣀⣤⣴⣾⣿⣿⣿⣿⣿", rows[9])
	assert.Equal(t, strings.Repeat(" ", 16)+"⣀⣤⣴⣾", rows[8])
}

func TestGraph_AddShiftsHalfCell(t *testing.T) {
	g := New(20, 10, nil, seq(20), Opts{})

	out := g.Add(5)
	assert.True(t, strings.HasSuffix(out, "⣧"))

	rows := g.Rows()
	assert.Equal(t, "          ⢀⣠⣤⣶⣿⣿⣿⣿⣿⣧", rows[9])
	for _, r := range rows {
		assert.Equal(t, 20, utf8.RuneCountInString(r))
	}
}

func TestGraph_SmallGraphFillsToFull(t *testing.T) {
	g := New(10, 1, nil, []int{0}, Opts{})
	var out string
	for v := 0; v <= 100; v += 10 {
		out = g.Add(v)
	}

	assert.Equal(t, strings.Repeat(cursorRight1, 5)+"⣀⣤⣴⣾⣿", out)
	r, _ := utf8.DecodeLastRuneInString(out)
	assert.Equal(t, '⣿', r)
}

func TestGraph_SmallGraphZeroIsCursorMove(t *testing.T) {
	g := New(4, 1, nil, []int{0}, Opts{})
	assert.Equal(t, strings.Repeat(cursorRight1, 4), g.String())

	assert.Equal(t, strings.Repeat(cursorRight1, 4), g.Add(0))
	assert.NotEqual(t, strings.Repeat(cursorRight1, 4), g.Add(100))
}

func TestGraph_Levels(t *testing.T) {
	g := New(4, 2, nil, []int{0, 50, 100, 100}, Opts{})
	assert.Equal(t, []string{"   ⣿", "  ⢸⣿"}, g.Rows())
}

func TestGraph_NoZero(t *testing.T) {
	g := New(3, 1, nil, []int{0, 0, 0}, Opts{NoZero: true})
	assert.Equal(t, cursorRight1+"⣀⣀", g.String())

	plain := New(3, 1, nil, []int{0, 0, 0}, Opts{})
	assert.Equal(t, strings.Repeat(cursorRight1, 3), plain.String())
}

func TestGraph_Truncates(t *testing.T) {
	g := New(5, 3, nil, seq(50), Opts{})
	for _, r := range g.Rows() {
		assert.Equal(t, 5, utf8.RuneCountInString(r))
	}
}

func TestGraph_Colors(t *testing.T) {
	grad := testGradient()

	tests := []struct {
		name   string
		opts   Opts
		prefix string
		second string
	}{
		{"default", Opts{}, "<100>", "<50>"},
		{"inverted", Opts{Invert: true}, "<50>", "<100>"},
		{"color ceiling", Opts{MaxValue: 50, ColorMaxValue: 100}, "<50>", "<25>"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.opts.Reset = "<reset>"
			g := New(2, 2, grad, []int{10, 20}, tt.opts)
			out := g.String()
			assert.True(t, strings.HasPrefix(out, tt.prefix), out)
			assert.Contains(t, out, "\033[2D"+tt.second)
			assert.True(t, strings.HasSuffix(out, "<reset>"))
		})
	}
}

func TestGraph_SmallColorFollowsLastValue(t *testing.T) {
	g := New(4, 1, testGradient(), []int{0, 42}, Opts{Reset: "<reset>"})
	assert.True(t, strings.HasPrefix(g.String(), "<42>"))

	out := g.Add(90)
	assert.True(t, strings.HasPrefix(out, "<90>"))
	assert.True(t, strings.HasSuffix(out, "<reset>"))
}

func TestGraph_Scale(t *testing.T) {
	tests := []struct {
		name  string
		opts  Opts
		value int
		want  int
	}{
		{"no max", Opts{}, 42, 42},
		{"half", Opts{MaxValue: 200}, 100, 50},
		{"over max", Opts{MaxValue: 200}, 500, 100},
		{"offset", Opts{MaxValue: 100, Offset: -23}, 23, 0},
		{"below offset", Opts{MaxValue: 100, Offset: -23}, 10, 0},
		{"offset mid", Opts{MaxValue: 100, Offset: -23}, 61, 49},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := &Graph{opts: tt.opts}
			assert.Equal(t, tt.want, g.scale(tt.value))
		})
	}
}

func TestGlyph(t *testing.T) {
	assert.Equal(t, " ", Glyph(0, 0))
	assert.Equal(t, "⣿", Glyph(4, 4))
	assert.Equal(t, "⣿", Glyph(9, 9))
	assert.Equal(t, "⡀", Glyph(1, 0))
}
