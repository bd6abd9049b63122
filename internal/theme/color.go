package theme

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/muesli/termenv"
)

// Mode selects how colors are written to the terminal.
type Mode int

const (
	TrueColor Mode = iota
	ANSI256
	Greyscale
)

// ParseMode maps a config color_mode value to a Mode. Unknown values mean TrueColor.
func ParseMode(s string) Mode {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "256":
		return ANSI256
	case "greyscale", "grayscale":
		return Greyscale
	default:
		return TrueColor
	}
}

func (m Mode) String() string {
	switch m {
	case ANSI256:
		return "256"
	case Greyscale:
		return "greyscale"
	default:
		return "truecolor"
	}
}

// Color is an RGB value. The zero Color with Default set renders as the
// terminal's default color.
type Color struct {
	R, G, B uint8
	Default bool
	mode    Mode
}

// Parse reads "#rrggbb", "#gg" (grey), "r g b" decimal, or "" (default color).
func Parse(s string) (Color, error) {
	s = strings.TrimSpace(s)
	if s == "" || strings.EqualFold(s, "default") {
		return Color{Default: true}, nil
	}
	if strings.HasPrefix(s, "#") {
		h := s[1:]
		switch len(h) {
		case 2:
			v, err := strconv.ParseUint(h, 16, 8)
			if err != nil {
				return Color{}, fmt.Errorf("invalid grey color %q", s)
			}
			return Color{R: uint8(v), G: uint8(v), B: uint8(v)}, nil
		case 6:
			v, err := strconv.ParseUint(h, 16, 32)
			if err != nil {
				return Color{}, fmt.Errorf("invalid hex color %q", s)
			}
			return Color{R: uint8(v >> 16), G: uint8(v >> 8), B: uint8(v)}, nil
		default:
			return Color{}, fmt.Errorf("invalid hex color %q", s)
		}
	}
	parts := strings.Fields(s)
	if len(parts) != 3 {
		return Color{}, fmt.Errorf("invalid color %q", s)
	}
	var rgb [3]uint8
	for i, p := range parts {
		v, err := strconv.ParseUint(p, 10, 8)
		if err != nil {
			return Color{}, fmt.Errorf("invalid color %q", s)
		}
		rgb[i] = uint8(v)
	}
	return RGB(rgb[0], rgb[1], rgb[2]), nil
}

// MustParse is Parse for built-in constants.
func MustParse(s string) Color {
	c, err := Parse(s)
	if err != nil {
		panic(err)
	}
	return c
}

// RGB builds a Color from components.
func RGB(r, g, b uint8) Color {
	return Color{R: r, G: g, B: b}
}

// WithMode returns a copy of c that renders in mode m.
func (c Color) WithMode(m Mode) Color {
	c.mode = m
	return c
}

// Hex returns "#rrggbb", or "" for the default color.
func (c Color) Hex() string {
	if c.Default {
		return ""
	}
	return fmt.Sprintf("#%02x%02x%02x", c.R, c.G, c.B)
}

// Fg returns the foreground escape sequence.
func (c Color) Fg() string {
	if c.Default {
		return ""
	}
	return c.escape(false)
}

// Bg returns the background escape sequence. The default color resets the background.
func (c Color) Bg() string {
	if c.Default {
		return "\033[49m"
	}
	return c.escape(true)
}

func (c Color) escape(bg bool) string {
	switch c.mode {
	case ANSI256:
		return "\033[" + termenv.ANSI256.Color(c.Hex()).Sequence(bg) + "m"
	case Greyscale:
		return fmt.Sprintf("\033[%d;5;%dm", layer(bg), greyIndex(c))
	default:
		return fmt.Sprintf("\033[%d;2;%d;%d;%dm", layer(bg), c.R, c.G, c.B)
	}
}

func layer(bg bool) int {
	if bg {
		return 48
	}
	return 38
}

// greyIndex maps luminance onto the 24-step ramp at 232-255.
func greyIndex(c Color) int {
	lum := (int(c.R) + int(c.G) + int(c.B)) / 3
	return 232 + (lum*23+127)/255
}

// Mix moves step/steps of the way from a to b, flooring each channel.
func Mix(a, b Color, step, steps int) Color {
	ch := func(x, y uint8) uint8 {
		d := (int(y) - int(x)) * step
		q := d / steps
		if d%steps != 0 && d < 0 {
			q--
		}
		return uint8(int(x) + q)
	}
	return Color{R: ch(a.R, b.R), G: ch(a.G, b.G), B: ch(a.B, b.B), mode: a.mode}
}
