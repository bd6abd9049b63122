package doctor

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rileyhilliard/sysmon/internal/theme"
)

func TestThemeCheck(t *testing.T) {
	dir := t.TempDir()
	themes := filepath.Join(dir, theme.SystemDir)
	require.NoError(t, os.MkdirAll(themes, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(themes, "night.theme"),
		[]byte(`theme[main_fg]="#cc"`+"\n"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(themes, "broken.toml"),
		[]byte("main_fg = \n"), 0o644))

	tests := []struct {
		name string
		want CheckStatus
	}{
		{"", StatusPass},
		{theme.DefaultName, StatusPass},
		{"night", StatusPass},
		{"missing", StatusFail},
		{"broken", StatusFail},
	}
	for _, tt := range tests {
		t.Run("theme "+tt.name, func(t *testing.T) {
			r := (&ThemeCheck{Dir: dir, Theme: tt.name}).Run()
			assert.Equal(t, tt.want, r.Status, r.Message)
		})
	}
}
