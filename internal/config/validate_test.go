package config

import (
	"testing"

	"github.com/rileyhilliard/sysmon/internal/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidate(t *testing.T) {
	tests := []struct {
		name        string
		mutate      func(*Config)
		errContains string
	}{
		{"defaults", func(c *Config) {}, ""},
		{"update_ms too low", func(c *Config) { c.UpdateMS = 99 }, "update_ms is 99"},
		{"update_ms minimum", func(c *Config) { c.UpdateMS = 100 }, ""},
		{"proc mult zero", func(c *Config) { c.ProcUpdateMult = 0 }, "proc_update_mult"},
		{"negative depth", func(c *Config) { c.TreeDepth = -1 }, "tree_depth"},
		{"unknown sort", func(c *Config) { c.ProcSorting = "size" }, "Unknown proc_sorting 'size'"},
		{"responsive sort", func(c *Config) { c.ProcSorting = "cpu responsive" }, ""},
		{"bad color mode", func(c *Config) { c.ColorMode = "16" }, "color_mode"},
		{"greyscale", func(c *Config) { c.ColorMode = "greyscale" }, ""},
		{"bad log level", func(c *Config) { c.LogLevel = "TRACE" }, "log_level"},
		{"unknown box", func(c *Config) { c.ShownBoxes = []string{"cpu", "gpu"} }, "Unknown box 'gpu'"},
		{"no boxes is allowed", func(c *Config) { c.ShownBoxes = nil }, ""},
		{"bad net units", func(c *Config) { c.NetDownload = "fast" }, "net_download"},
		{"bit units", func(c *Config) { c.NetUpload = "100Mbit" }, ""},
		{"future version", func(c *Config) { c.Version = CurrentConfigVersion + 1 }, "from the future"},
		{"remote host path", func(c *Config) { c.RemoteHost = "box/etc" }, "remote_host"},
		{"remote host alias", func(c *Config) { c.RemoteHost = "user@box" }, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)

			err := Validate(cfg)
			if tt.errContains == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.True(t, errors.IsCode(err, errors.ErrConfig))
			assert.Contains(t, err.Error(), tt.errContains)
		})
	}
}

func TestValidate_Nil(t *testing.T) {
	assert.Error(t, Validate(nil))
}
