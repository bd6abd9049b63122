package graph

import "strings"

// Meter renders a horizontal percentage bar of width cells.
type Meter struct {
	width    int
	gradient []string
	inactive string
	reset    string
	invert   bool
	cache    [101]string
	cached   [101]bool
}

// NewMeter creates a meter. gradient is a 101-entry color table; inactive
// colors the unfilled tail and reset is written after the bar.
func NewMeter(width int, gradient []string, inactive, reset string, invert bool) *Meter {
	if width < 0 {
		width = 0
	}
	return &Meter{
		width:    width,
		gradient: gradient,
		inactive: inactive,
		reset:    reset,
		invert:   invert,
	}
}

// Width returns the meter width in cells.
func (m *Meter) Width() int { return m.width }

// Render returns the meter filled to value percent. Values are clamped to 0-100.
func (m *Meter) Render(value int) string {
	value = clampPercent(value)
	if m.cached[value] {
		return m.cache[value]
	}
	out := m.create(value)
	m.cache[value] = out
	m.cached[value] = true
	return out
}

func (m *Meter) create(value int) string {
	var b strings.Builder
	for i := 1; i <= m.width; i++ {
		step := float64(i) * 100 / float64(m.width)
		if value >= roundInt(step) {
			if m.invert {
				b.WriteString(pick(m.gradient, roundInt(100-step)))
			} else {
				b.WriteString(pick(m.gradient, roundInt(step)))
			}
			b.WriteString(MeterGlyph)
			continue
		}
		b.WriteString(m.inactive)
		b.WriteString(strings.Repeat(MeterGlyph, m.width+1-i))
		b.WriteString(m.reset)
		return b.String()
	}
	b.WriteString(m.reset)
	return b.String()
}
