package cli

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rileyhilliard/sysmon/internal/config"
)

func TestConfigLocation(t *testing.T) {
	path := useConfig(t)

	got, exists, err := configLocation()
	require.NoError(t, err)
	assert.Equal(t, path, got)
	assert.False(t, exists)

	writeFile(t, path, "update_ms: 1000\n")
	got, exists, err = configLocation()
	require.NoError(t, err)
	assert.Equal(t, path, got)
	assert.True(t, exists)
}

func TestConfigLocation_Default(t *testing.T) {
	useConfig(t)
	cfgFile = ""

	got, exists, err := configLocation()
	require.NoError(t, err)
	assert.Equal(t, config.DefaultPath(), got)
	assert.False(t, exists)
}

func TestShowConfig(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.ShownBoxes = []string{"cpu", "proc"}

	var buf bytes.Buffer
	require.NoError(t, showConfig(&buf, cfg, "/tmp/sysmon.yaml"))
	out := buf.String()

	assert.Contains(t, out, "Config file: /tmp/sysmon.yaml")
	assert.Contains(t, out, "update_ms")
	assert.Contains(t, out, "2500")
	assert.Contains(t, out, "cpu, proc")
	assert.Contains(t, out, "cpu lazy")
}

func TestFormatValue(t *testing.T) {
	assert.Equal(t, "(none)", formatValue([]interface{}{}))
	assert.Equal(t, "cpu, mem", formatValue([]interface{}{"cpu", "mem"}))
	assert.Equal(t, `""`, formatValue(""))
	assert.Equal(t, "true", formatValue(true))
	assert.Equal(t, "100", formatValue(100))
}

func TestWriteConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sysmon", "sysmon.yaml")
	cfg := config.DefaultConfig()
	cfg.ProcSorting = "memory"

	require.NoError(t, writeConfig(path, cfg))
	assert.DirExists(t, filepath.Join(filepath.Dir(path), "themes"))
	assert.DirExists(t, filepath.Join(filepath.Dir(path), "user_themes"))

	loaded, err := config.Load(path)
	require.NoError(t, err)
	assert.Equal(t, "memory", loaded.ProcSorting)

	cfg.UpdateMS = 1
	assert.Error(t, writeConfig(path, cfg))
}

func TestSetConfigValue(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sysmon.yaml")
	original := "# mine\nupdate_ms: 2000\n"
	writeFile(t, path, original)

	t.Run("valid value is written", func(t *testing.T) {
		require.NoError(t, setConfigValue(path, "proc_sorting", "memory"))
		cfg, err := config.Load(path)
		require.NoError(t, err)
		assert.Equal(t, "memory", cfg.ProcSorting)
		assert.Equal(t, 2000, cfg.UpdateMS)

		data, err := os.ReadFile(path)
		require.NoError(t, err)
		assert.Contains(t, string(data), "# mine")
	})

	t.Run("invalid value is rolled back", func(t *testing.T) {
		before, err := os.ReadFile(path)
		require.NoError(t, err)

		assert.Error(t, setConfigValue(path, "update_ms", "10"))

		after, err := os.ReadFile(path)
		require.NoError(t, err)
		assert.Equal(t, string(before), string(after))
	})

	t.Run("unknown key", func(t *testing.T) {
		assert.Error(t, setConfigValue(path, "gpu_box", "true"))
	})

	t.Run("new file removed when invalid", func(t *testing.T) {
		fresh := filepath.Join(t.TempDir(), "sysmon.yaml")
		assert.Error(t, setConfigValue(fresh, "proc_sorting", "random"))
		assert.NoFileExists(t, fresh)
	})
}

func TestValidateInterval(t *testing.T) {
	assert.NoError(t, validateInterval("2500"))
	assert.NoError(t, validateInterval(" 100 "))
	assert.Error(t, validateInterval("99"))
	assert.Error(t, validateInterval("2s"))
}

func TestOrderBoxes(t *testing.T) {
	assert.Equal(t, []string{"cpu", "net", "proc"}, orderBoxes([]string{"proc", "cpu", "net"}))
	assert.Nil(t, orderBoxes(nil))
}
