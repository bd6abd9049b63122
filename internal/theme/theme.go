// Package theme holds named colors and 101-step gradients used to paint the
// monitor, plus loaders for theme files.
package theme

import (
	"sort"
	"strings"
)

// DefaultName is the built-in theme.
const DefaultName = "Default"

// Gradient names.
const (
	GradTemp      = "temp"
	GradCPU       = "cpu"
	GradFree      = "free"
	GradCached    = "cached"
	GradAvailable = "available"
	GradUsed      = "used"
	GradDownload  = "download"
	GradUpload    = "upload"
	GradProc      = "proc"
	GradProcColor = "proc_color"
	GradProcess   = "process"
)

// GradientNames lists every gradient a theme provides.
var GradientNames = []string{
	GradTemp, GradCPU, GradFree, GradCached, GradAvailable, GradUsed,
	GradDownload, GradUpload, GradProc, GradProcColor, GradProcess,
}

// defaultColors is the built-in palette. Theme files override any subset.
var defaultColors = map[string]string{
	"main_bg":         "",
	"main_fg":         "#cc",
	"title":           "#ee",
	"hi_fg":           "#90",
	"selected_bg":     "#7e2626",
	"selected_fg":     "#ee",
	"inactive_fg":     "#40",
	"graph_text":      "#60",
	"meter_bg":        "#40",
	"proc_misc":       "#0de756",
	"cpu_box":         "#3d7b46",
	"mem_box":         "#8a882e",
	"net_box":         "#423ba5",
	"proc_box":        "#923535",
	"div_line":        "#30",
	"temp_start":      "#4897d4",
	"temp_mid":        "#5474e8",
	"temp_end":        "#ff40b6",
	"cpu_start":       "#50f095",
	"cpu_mid":         "#f2e266",
	"cpu_end":         "#fa1e1e",
	"free_start":      "#223014",
	"free_mid":        "#b5e685",
	"free_end":        "#dcff85",
	"cached_start":    "#0b1a29",
	"cached_mid":      "#74e6fc",
	"cached_end":      "#26c5ff",
	"available_start": "#292107",
	"available_mid":   "#ffd77a",
	"available_end":   "#ffb814",
	"used_start":      "#3b1f1c",
	"used_mid":        "#d9626d",
	"used_end":        "#ff4769",
	"download_start":  "#231a63",
	"download_mid":    "#4f43a3",
	"download_end":    "#b0a9de",
	"upload_start":    "#510554",
	"upload_mid":      "#7d4180",
	"upload_end":      "#dcafde",
	"process_start":   "#80d0a3",
	"process_mid":     "#dcd179",
	"process_end":     "#d45454",
}

// bgKeys render as backgrounds.
var bgKeys = map[string]bool{"main_bg": true, "selected_bg": true}

// Keys returns every color key a theme may set, sorted.
func Keys() []string {
	keys := make([]string, 0, len(defaultColors))
	for k := range defaultColors {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Theme is a resolved palette with precomputed escape strings.
type Theme struct {
	Name      string
	Mode      Mode
	colors    map[string]Color
	esc       map[string]string
	gradients map[string][]string
}

// Options tweak how a theme is built.
type Options struct {
	Mode Mode
	// NoBackground drops main_bg so the terminal background shows through.
	NoBackground bool
}

// Default returns the built-in theme.
func Default(opts Options) *Theme {
	t, _ := Build(DefaultName, nil, opts)
	return t
}

// Build resolves overrides on top of the built-in palette. Keys that fail to
// parse keep their default and are returned as invalid.
func Build(name string, overrides map[string]string, opts Options) (*Theme, []string) {
	t := &Theme{
		Name:      name,
		Mode:      opts.Mode,
		colors:    make(map[string]Color, len(defaultColors)),
		esc:       make(map[string]string, len(defaultColors)),
		gradients: make(map[string][]string, len(GradientNames)),
	}

	var invalid []string
	for key, def := range defaultColors {
		c := MustParse(def)
		if v, ok := overrides[key]; ok {
			parsed, err := Parse(v)
			if err != nil {
				invalid = append(invalid, key)
			} else {
				c = parsed
			}
		}
		t.colors[key] = c.WithMode(opts.Mode)
	}
	if opts.NoBackground {
		t.colors["main_bg"] = Color{Default: true}
	}

	for key, c := range t.colors {
		if bgKeys[key] {
			t.esc[key] = c.Bg()
		} else {
			t.esc[key] = c.Fg()
		}
	}

	t.colors["proc_start"] = t.colors["main_fg"]
	t.colors["proc_end"] = t.colors["inactive_fg"]
	t.colors["proc_color_start"] = t.colors["inactive_fg"]
	t.colors["proc_color_end"] = t.colors["process_start"]

	for _, g := range GradientNames {
		t.gradients[g] = t.buildGradient(g)
	}
	sort.Strings(invalid)
	return t, invalid
}

func (t *Theme) buildGradient(name string) []string {
	start, ok := t.colors[name+"_start"]
	if !ok || start.Default {
		start = t.colors["main_fg"]
	}
	mid, hasMid := t.colors[name+"_mid"]
	hasMid = hasMid && !mid.Default
	end, hasEnd := t.colors[name+"_end"]
	hasEnd = hasEnd && !end.Default

	out := make([]string, 0, 101)
	switch {
	case hasEnd && hasMid:
		for i := 0; i < 50; i++ {
			out = append(out, Mix(start, mid, i, 50).Fg())
		}
		for i := 0; i < 50; i++ {
			out = append(out, Mix(mid, end, i, 50).Fg())
		}
		out = append(out, end.Fg())
	case hasEnd:
		for i := 0; i < 100; i++ {
			out = append(out, Mix(start, end, i, 100).Fg())
		}
		out = append(out, end.Fg())
	default:
		c := start.Fg()
		for i := 0; i <= 100; i++ {
			out = append(out, c)
		}
	}
	return out
}

// Color returns the parsed color for key.
func (t *Theme) Color(key string) Color {
	return t.colors[key]
}

// Esc returns the escape sequence for key: a background for main_bg and
// selected_bg, a foreground otherwise.
func (t *Theme) Esc(key string) string {
	return t.esc[key]
}

// Fg returns the foreground escape for key regardless of its kind.
func (t *Theme) Fg(key string) string {
	return t.colors[key].Fg()
}

// Bg returns the background escape for key regardless of its kind.
func (t *Theme) Bg(key string) string {
	return t.colors[key].Bg()
}

// Gradient returns the 101-entry gradient for name, or nil.
func (t *Theme) Gradient(name string) []string {
	return t.gradients[name]
}

// Reset returns the sequence that restores the theme's main colors.
func (t *Theme) Reset() string {
	return t.esc["main_fg"] + t.esc["main_bg"]
}

// BoxColor returns the frame color key for a panel name.
func BoxColor(panel string) string {
	return strings.ToLower(panel) + "_box"
}
