package theme

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rileyhilliard/sysmon/internal/errors"
)

func TestParse(t *testing.T) {
	tests := []struct {
		in      string
		want    Color
		wantErr bool
	}{
		{"#00ff00", RGB(0, 255, 0), false},
		{"#cc", RGB(204, 204, 204), false},
		{"255 0 10", RGB(255, 0, 10), false},
		{"", Color{Default: true}, false},
		{"#12345", Color{}, true},
		{"#zz", Color{}, true},
		{"1 2", Color{}, true},
		{"300 0 0", Color{}, true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := Parse(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestColorEscapes(t *testing.T) {
	assert.Equal(t, "\x1b[38;2;0;255;0m", MustParse("#00ff00").Fg())
	assert.Equal(t, "\x1b[48;2;204;0;204m", MustParse("#cc00cc").Bg())
	assert.Equal(t, "", Color{Default: true}.Fg())
	assert.Equal(t, "\x1b[49m", Color{Default: true}.Bg())
}

func TestColorModes(t *testing.T) {
	red := MustParse("#ff0000")
	assert.Equal(t, "\x1b[38;5;196m", red.WithMode(ANSI256).Fg())
	assert.Equal(t, "\x1b[48;5;196m", red.WithMode(ANSI256).Bg())

	assert.Equal(t, "\x1b[38;5;255m", MustParse("#ffffff").WithMode(Greyscale).Fg())
	assert.Equal(t, "\x1b[38;5;232m", MustParse("#000000").WithMode(Greyscale).Fg())
}

func TestParseMode(t *testing.T) {
	assert.Equal(t, TrueColor, ParseMode("truecolor"))
	assert.Equal(t, ANSI256, ParseMode("256"))
	assert.Equal(t, Greyscale, ParseMode("Greyscale"))
	assert.Equal(t, TrueColor, ParseMode("bogus"))
	assert.Equal(t, "256", ANSI256.String())
}

func TestMix(t *testing.T) {
	a, b := RGB(0, 100, 200), RGB(100, 0, 200)
	assert.Equal(t, a, Mix(a, b, 0, 50))
	assert.Equal(t, RGB(50, 50, 200), Mix(a, b, 25, 50))
	// floor division for falling channels: 100 + floor(-100*1/3) = 66
	assert.Equal(t, uint8(66), Mix(a, b, 1, 3).G)
}

func TestDefaultTheme(t *testing.T) {
	th := Default(Options{})

	assert.Equal(t, "\x1b[38;2;204;204;204m", th.Esc("main_fg"))
	assert.Equal(t, "\x1b[49m", th.Esc("main_bg"))
	assert.Equal(t, "\x1b[48;2;126;38;38m", th.Esc("selected_bg"))
	assert.Equal(t, th.Esc("main_fg")+th.Esc("main_bg"), th.Reset())

	for _, name := range GradientNames {
		assert.Len(t, th.Gradient(name), 101, name)
	}
	cpu := th.Gradient(GradCPU)
	assert.Equal(t, MustParse("#50f095").Fg(), cpu[0])
	assert.Equal(t, MustParse("#f2e266").Fg(), cpu[50])
	assert.Equal(t, MustParse("#fa1e1e").Fg(), cpu[100])

	proc := th.Gradient(GradProc)
	assert.Equal(t, th.Fg("main_fg"), proc[0])
	assert.Equal(t, th.Fg("inactive_fg"), proc[100])
}

func TestBuild_Overrides(t *testing.T) {
	th, invalid := Build("custom", map[string]string{
		"main_fg":  "#ff0000",
		"cpu_mid":  "",
		"hi_fg":    "nope",
		"temp_end": "",
		"temp_mid": "",
	}, Options{NoBackground: true})

	assert.Equal(t, []string{"hi_fg"}, invalid)
	assert.Equal(t, "\x1b[38;2;255;0;0m", th.Esc("main_fg"))
	assert.Equal(t, MustParse("#90").Fg(), th.Esc("hi_fg"))

	cpu := th.Gradient(GradCPU)
	assert.Equal(t, MustParse("#fa1e1e").Fg(), cpu[100])

	temp := th.Gradient(GradTemp)
	for _, c := range temp {
		assert.Equal(t, MustParse("#4897d4").Fg(), c)
	}
}

func TestParseThemeFile(t *testing.T) {
	data := []byte(`#Bashtop theme
theme[main_bg]="#00"
theme[main_fg]='#cc'
theme[title]=#ee
theme[unknown_key]="#ff"

theme[cpu_start]="10 20 30"
`)
	got := ParseThemeFile(data)
	assert.Equal(t, map[string]string{
		"main_bg":   "#00",
		"main_fg":   "#cc",
		"title":     "#ee",
		"cpu_start": "10 20 30",
	}, got)
}

func TestParseTOML(t *testing.T) {
	got, err := ParseTOML([]byte(`
name = "ocean"
[theme]
main_fg = "#aabbcc"
CPU_BOX = "#112233"
bogus = "#000000"
`))
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"main_fg": "#aabbcc", "cpu_box": "#112233"}, got)

	_, err = ParseTOML([]byte("[theme\n"))
	assert.True(t, errors.IsCode(err, errors.ErrTheme))
}

func TestListAndLoad(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, SystemDir), 0o755))
	require.NoError(t, os.MkdirAll(filepath.Join(dir, UserDir), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, SystemDir, "nord.theme"),
		[]byte(`theme[main_fg]="#d8dee9"`), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, SystemDir, "README.md"), []byte("x"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, UserDir, "mine.toml"),
		[]byte("[theme]\nmain_fg = \"#010203\"\n"), 0o644))

	assert.Equal(t, []string{"Default", "nord", "+mine"}, List(dir))

	nord, err := Load(dir, "nord", Options{})
	require.NoError(t, err)
	assert.Equal(t, "\x1b[38;2;216;222;233m", nord.Esc("main_fg"))
	assert.Equal(t, MustParse("#ee").Fg(), nord.Esc("title"))

	mine, err := Load(dir, "+mine", Options{})
	require.NoError(t, err)
	assert.Equal(t, "\x1b[38;2;1;2;3m", mine.Esc("main_fg"))

	def, err := Load(dir, "", Options{})
	require.NoError(t, err)
	assert.Equal(t, DefaultName, def.Name)

	_, err = Load(dir, "missing", Options{})
	assert.True(t, errors.IsCode(err, errors.ErrTheme))

	fallback, err := LoadOrDefault(dir, "missing", Options{})
	assert.Error(t, err)
	assert.Equal(t, DefaultName, fallback.Name)
}
