package theme

import (
	"bufio"
	"bytes"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"

	"github.com/BurntSushi/toml"

	"github.com/rileyhilliard/sysmon/internal/errors"
	"github.com/rileyhilliard/sysmon/internal/logger"
)

// Theme directories under the config dir. Names from UserDir carry a "+" prefix.
const (
	SystemDir  = "themes"
	UserDir    = "user_themes"
	userPrefix = "+"
)

var themeLine = regexp.MustCompile(`^theme\[([a-z_]+)\]\s*=\s*(?:"([^"]*)"|'([^']*)'|(\S*))`)

// ParseThemeFile reads the line format `theme[key]="value"`. Lines starting
// with # and unknown keys are skipped.
func ParseThemeFile(data []byte) map[string]string {
	out := make(map[string]string)
	sc := bufio.NewScanner(bytes.NewReader(data))
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		m := themeLine.FindStringSubmatch(line)
		if m == nil {
			continue
		}
		if _, known := defaultColors[m[1]]; !known {
			continue
		}
		out[m[1]] = strings.TrimSpace(m[2] + m[3] + m[4])
	}
	return out
}

type tomlTheme struct {
	Name  string            `toml:"name"`
	Theme map[string]string `toml:"theme"`
}

// ParseTOML reads a TOML theme with a [theme] table of color keys.
func ParseTOML(data []byte) (map[string]string, error) {
	var tt tomlTheme
	if err := toml.Unmarshal(data, &tt); err != nil {
		return nil, errors.WrapWithCode(err, errors.ErrTheme,
			"Couldn't parse TOML theme", "Check the [theme] table syntax")
	}
	out := make(map[string]string, len(tt.Theme))
	for k, v := range tt.Theme {
		k = strings.ToLower(k)
		if _, known := defaultColors[k]; known {
			out[k] = v
		}
	}
	return out, nil
}

// List returns the available theme names: Default, system themes, then
// user themes prefixed with "+".
func List(configDir string) []string {
	names := []string{DefaultName}
	names = append(names, scan(filepath.Join(configDir, SystemDir), "")...)
	names = append(names, scan(filepath.Join(configDir, UserDir), userPrefix)...)
	return names
}

func scan(dir, prefix string) []string {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil
	}
	seen := make(map[string]bool)
	var out []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		ext := filepath.Ext(e.Name())
		if ext != ".theme" && ext != ".toml" {
			continue
		}
		name := prefix + strings.TrimSuffix(e.Name(), ext)
		if !seen[name] {
			seen[name] = true
			out = append(out, name)
		}
	}
	sort.Strings(out)
	return out
}

// Path locates the file for a theme name, preferring .theme over .toml.
func Path(configDir, name string) (string, bool) {
	dir := SystemDir
	if strings.HasPrefix(name, userPrefix) {
		dir = UserDir
		name = strings.TrimPrefix(name, userPrefix)
	}
	for _, ext := range []string{".theme", ".toml"} {
		p := filepath.Join(configDir, dir, name+ext)
		if _, err := os.Stat(p); err == nil {
			return p, true
		}
	}
	return "", false
}

// Load builds the named theme. Missing keys fall back to the defaults;
// invalid values are logged and replaced by defaults.
func Load(configDir, name string, opts Options) (*Theme, error) {
	if name == "" || strings.EqualFold(name, DefaultName) {
		return Default(opts), nil
	}
	path, ok := Path(configDir, name)
	if !ok {
		return nil, errors.New(errors.ErrTheme,
			"Theme "+name+" not found",
			"Run 'sysmon themes list' to see installed themes")
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.WrapWithCode(err, errors.ErrTheme,
			"Couldn't read theme "+name, "")
	}

	var overrides map[string]string
	if filepath.Ext(path) == ".toml" {
		overrides, err = ParseTOML(data)
		if err != nil {
			return nil, err
		}
	} else {
		overrides = ParseThemeFile(data)
	}

	t, invalid := Build(name, overrides, opts)
	for _, key := range invalid {
		logger.Default().Warn("theme %s: invalid color for %s, using default", name, key)
	}
	return t, nil
}

// LoadOrDefault is Load that falls back to the built-in theme on any error.
func LoadOrDefault(configDir, name string, opts Options) (*Theme, error) {
	t, err := Load(configDir, name, opts)
	if err != nil {
		return Default(opts), err
	}
	return t, nil
}
