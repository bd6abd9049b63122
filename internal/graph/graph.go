package graph

import (
	"math"
	"strings"
	"unicode/utf8"

	"github.com/rileyhilliard/sysmon/internal/term"
)

// Opts controls scaling and appearance of a Graph.
type Opts struct {
	// Invert draws from the top edge downward.
	Invert bool
	// MaxValue rescales every value to a 0-100 percentage of MaxValue.
	// Zero means values are already percentages.
	MaxValue int
	// Offset is added to values and MaxValue before rescaling.
	Offset int
	// ColorMaxValue ties row colors to a different ceiling than MaxValue,
	// so auto-rescaling graphs keep colors on a fixed scale.
	ColorMaxValue int
	// NoZero forces the bottom row to show at least one dot.
	NoZero bool
	// Reset is appended after colored output, normally the main fg.
	Reset string
}

// Graph renders a time series into braille glyphs over width x height cells.
type Graph struct {
	width   int
	height  int
	opts    Opts
	colors  []string
	symbols *[5][5]string
	rows    [2][]string
	current bool
	last    int
	out     string
}

// New creates a graph seeded with data. gradient is a 101-entry color table
// indexed by percentage; nil disables colors.
func New(width, height int, gradient []string, data []int, opts Opts) *Graph {
	if width < 1 {
		width = 1
	}
	if height < 1 {
		height = 1
	}
	g := &Graph{
		width:   width,
		height:  height,
		opts:    opts,
		current: true,
	}

	if len(data) == 0 {
		data = []int{0}
	}
	values := make([]int, len(data))
	for i, v := range data {
		values[i] = g.scale(v)
	}

	colorMax := opts.ColorMaxValue
	if colorMax == 0 {
		colorMax = opts.MaxValue
	}
	colorScale := 100
	if colorMax > 0 && opts.MaxValue > 0 {
		colorScale = int(100.0 * float64(opts.MaxValue) / float64(colorMax))
	}

	if len(gradient) > 0 {
		if height > 1 {
			g.colors = make([]string, 0, height)
			for i := 1; i <= height; i++ {
				c := pick(gradient, min(100, i*colorScale/height))
				g.colors = append([]string{c}, g.colors...)
			}
			if opts.Invert {
				for i, j := 0, len(g.colors)-1; i < j; i, j = i+1, j-1 {
					g.colors[i], g.colors[j] = g.colors[j], g.colors[i]
				}
			}
		} else {
			g.colors = gradient
		}
	}

	switch {
	case height == 1 && opts.Invert:
		g.symbols = &graphDownSmall
	case height == 1:
		g.symbols = &graphUpSmall
	case opts.Invert:
		g.symbols = &graphDown
	default:
		g.symbols = &graphUp
	}

	valueWidth := (len(values) + 1) / 2
	filler := ""
	if valueWidth > width {
		values = values[len(values)-width*2:]
	} else if valueWidth < width {
		filler = strings.Repeat(g.symbols[0][0], width-valueWidth)
	}
	if len(values)%2 == 1 {
		values = append([]int{0}, values...)
	}
	for b := range g.rows {
		g.rows[b] = make([]string, height)
		for h := range g.rows[b] {
			g.rows[b][h] = filler
		}
	}

	g.create(values, true)
	return g
}

// Width returns the graph width in cells.
func (g *Graph) Width() int { return g.width }

// Height returns the graph height in rows.
func (g *Graph) Height() int { return g.height }

// String returns the last rendered output.
func (g *Graph) String() string { return g.out }

// Add shifts in one value and returns the new rendering.
func (g *Graph) Add(value int) string {
	g.current = !g.current
	rows := g.rows[b2i(g.current)]
	if g.height == 1 {
		if strings.HasPrefix(rows[0], g.symbols[0][0]) {
			rows[0] = rows[0][len(g.symbols[0][0]):]
		} else {
			rows[0] = dropFirstRune(rows[0])
		}
	} else {
		for n := range rows {
			rows[n] = dropFirstRune(rows[n])
		}
	}
	g.create([]int{g.scale(value)}, false)
	return g.out
}

// Rows returns the glyph rows top to bottom without colors or cursor moves.
func (g *Graph) Rows() []string {
	rows := g.rows[b2i(g.current)]
	out := make([]string, g.height)
	for h := range out {
		if g.opts.Invert {
			out[h] = rows[g.height-1-h]
		} else {
			out[h] = rows[h]
		}
	}
	return out
}

func (g *Graph) scale(v int) int {
	if g.opts.MaxValue <= 0 {
		return v
	}
	if v >= g.opts.MaxValue {
		return 100
	}
	den := g.opts.MaxValue + g.opts.Offset
	if den <= 0 {
		return 100
	}
	return clampPercent(floorDiv((v+g.opts.Offset)*100, den))
}

func (g *Graph) create(data []int, isNew bool) {
	for h := 0; h < g.height; h++ {
		hHigh, hLow := 100, 0
		if g.height > 1 {
			hHigh = roundInt(100 * float64(g.height-h) / float64(g.height))
			hLow = roundInt(100 * float64(g.height-(h+1)) / float64(g.height))
		}
		for v := range data {
			if isNew {
				g.current = v%2 == 1
				if v == 0 {
					g.last = 0
				}
			}
			var level [2]int
			for side, val := range [2]int{g.last, data[v]} {
				switch {
				case val >= hHigh:
					level[side] = 4
				case val <= hLow:
					level[side] = 0
				case g.height == 1:
					level[side] = roundInt(float64(val)*4/100 + 0.5)
				default:
					level[side] = roundInt(float64(val-hLow)*4/float64(hHigh-hLow) + 0.1)
				}
				if g.opts.NoZero && h == g.height-1 && level[side] < 1 && !(isNew && v == 0 && side == 0) {
					level[side] = 1
				}
			}
			if isNew {
				g.last = data[v]
			}
			idx := b2i(g.current)
			g.rows[idx][h] += g.symbols[level[0]][level[1]]
		}
	}
	if len(data) > 0 {
		g.last = data[len(data)-1]
	}
	g.render()
}

func (g *Graph) render() {
	var b strings.Builder
	rows := g.rows[b2i(g.current)]
	if g.height == 1 {
		if len(g.colors) > 0 {
			b.WriteString(pick(g.colors, clampPercent(g.last)))
		}
		b.WriteString(rows[0])
	} else {
		for h := 0; h < g.height; h++ {
			if h > 0 {
				b.WriteString(term.Down(1))
				b.WriteString(term.Left(g.width))
			}
			if len(g.colors) > 0 {
				b.WriteString(g.colors[h])
			}
			if g.opts.Invert {
				b.WriteString(rows[g.height-1-h])
			} else {
				b.WriteString(rows[h])
			}
		}
	}
	if len(g.colors) > 0 {
		b.WriteString(g.opts.Reset)
	}
	g.out = b.String()
}

func dropFirstRune(s string) string {
	if s == "" {
		return s
	}
	_, size := utf8.DecodeRuneInString(s)
	return s[size:]
}

func b2i(b bool) int {
	if b {
		return 1
	}
	return 0
}

// roundInt rounds half to even.
func roundInt(f float64) int {
	return int(math.RoundToEven(f))
}

func floorDiv(a, b int) int {
	q := a / b
	if (a%b != 0) && ((a < 0) != (b < 0)) {
		q--
	}
	return q
}

func clampPercent(v int) int {
	if v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return v
}

func pick(colors []string, i int) string {
	if len(colors) == 0 {
		return ""
	}
	if i < 0 {
		i = 0
	}
	if i >= len(colors) {
		i = len(colors) - 1
	}
	return colors[i]
}
