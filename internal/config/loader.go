package config

import (
	"os"
	"path/filepath"

	"github.com/rileyhilliard/sysmon/internal/errors"
	"github.com/spf13/viper"
)

const (
	// ConfigFileName is the config file name inside the config directory.
	ConfigFileName = "sysmon.yaml"
	// ConfigDirName is the directory under $XDG_CONFIG_HOME (or ~/.config).
	ConfigDirName = "sysmon"
	// ConfigEnv overrides the config file location.
	ConfigEnv = "SYSMON_CONFIG"
	// ErrorLogName is the log file written next to the config file.
	ErrorLogName = "error.log"
)

// Load reads config from the specified path.
func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")
	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		if os.IsNotExist(err) {
			return nil, errors.WrapWithCode(err, errors.ErrConfig,
				"Config file not found",
				"Run 'sysmon config init' to create a config file, or specify one with --config")
		}
		return nil, errors.WrapWithCode(err, errors.ErrConfig,
			"Failed to read config file",
			"Check the file exists and is valid YAML")
	}

	return parseConfig(v, path)
}

// Dir returns the sysmon config directory. It does not create it.
func Dir() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, ConfigDirName)
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(os.TempDir(), ConfigDirName)
	}
	return filepath.Join(home, ".config", ConfigDirName)
}

// DefaultPath is where the config file lives when nothing overrides it.
func DefaultPath() string {
	return filepath.Join(Dir(), ConfigFileName)
}

// LogPath returns the error log path for the given config file.
func LogPath(configPath string) string {
	if configPath == "" {
		return filepath.Join(Dir(), ErrorLogName)
	}
	return filepath.Join(filepath.Dir(configPath), ErrorLogName)
}

// Find locates the config file using the search order:
// 1. Explicit path (from --config flag)
// 2. $SYSMON_CONFIG
// 3. $XDG_CONFIG_HOME/sysmon/sysmon.yaml or ~/.config/sysmon/sysmon.yaml
//
// Returns the path to the config file, or empty string if not found.
func Find(explicit string) (string, error) {
	if explicit == "" {
		explicit = os.Getenv(ConfigEnv)
	}
	if explicit != "" {
		explicit = ExpandTilde(explicit)
		if _, err := os.Stat(explicit); err != nil {
			if os.IsNotExist(err) {
				return "", errors.WrapWithCode(err, errors.ErrConfig,
					"Specified config file not found: "+explicit,
					"Check the path is correct")
			}
			return "", errors.WrapWithCode(err, errors.ErrConfig,
				"Cannot access config file: "+explicit,
				"Check file permissions")
		}
		return explicit, nil
	}

	path := DefaultPath()
	if _, err := os.Stat(path); err == nil {
		return path, nil
	}
	return "", nil
}

// LoadOrDefault loads config from the found path, or returns defaults if not found.
// The returned path is where the config will be saved on exit.
func LoadOrDefault(explicit string) (*Config, string, error) {
	path, err := Find(explicit)
	if err != nil {
		return nil, "", err
	}

	if path == "" {
		return DefaultConfig(), DefaultPath(), nil
	}

	cfg, err := Load(path)
	if err != nil {
		return nil, "", err
	}
	return cfg, path, nil
}

// EnsureDir creates the config directory and its themes subdirectories.
func EnsureDir(dir string) error {
	for _, d := range []string{dir, filepath.Join(dir, "themes"), filepath.Join(dir, "user_themes")} {
		if err := os.MkdirAll(d, 0o755); err != nil {
			return errors.WrapWithCode(err, errors.ErrConfig,
				"Cannot create config directory "+d,
				"Check permissions on "+filepath.Dir(d))
		}
	}
	return nil
}

// parseConfig converts viper config to our Config struct with defaults merged in.
func parseConfig(v *viper.Viper, path string) (*Config, error) {
	// Defaults come from viper so a short shown_boxes list in the file is
	// not merged element-wise into the default slice.
	cfg := &Config{}

	if err := v.Unmarshal(cfg); err != nil {
		return nil, errors.WrapWithCode(err, errors.ErrConfig,
			"Invalid config format",
			"Check the YAML syntax in "+path)
	}

	cfg.normalize()
	return cfg, nil
}

// setDefaults registers every DefaultConfig value with viper.
func setDefaults(v *viper.Viper) {
	d := DefaultConfig()
	v.SetDefault("version", d.Version)
	v.SetDefault("color_theme", d.ColorTheme)
	v.SetDefault("color_mode", d.ColorMode)
	v.SetDefault("theme_background", d.ThemeBackground)
	v.SetDefault("draw_clock", d.DrawClock)
	v.SetDefault("shown_boxes", d.ShownBoxes)
	v.SetDefault("update_ms", d.UpdateMS)
	v.SetDefault("proc_update_mult", d.ProcUpdateMult)
	v.SetDefault("background_update", d.BackgroundUpdate)
	v.SetDefault("proc_sorting", d.ProcSorting)
	v.SetDefault("proc_reversed", d.ProcReversed)
	v.SetDefault("proc_tree", d.ProcTree)
	v.SetDefault("tree_depth", d.TreeDepth)
	v.SetDefault("proc_colors", d.ProcColors)
	v.SetDefault("proc_gradient", d.ProcGradient)
	v.SetDefault("proc_per_core", d.ProcPerCore)
	v.SetDefault("proc_mem_bytes", d.ProcMemBytes)
	v.SetDefault("proc_filter_ignore_case", d.ProcFilterIgnoreCase)
	v.SetDefault("check_temp", d.CheckTemp)
	v.SetDefault("custom_cpu_name", d.CustomCPUName)
	v.SetDefault("mem_graphs", d.MemGraphs)
	v.SetDefault("show_swap", d.ShowSwap)
	v.SetDefault("swap_disk", d.SwapDisk)
	v.SetDefault("show_disks", d.ShowDisks)
	v.SetDefault("disks_filter", d.DisksFilter)
	v.SetDefault("net_download", d.NetDownload)
	v.SetDefault("net_upload", d.NetUpload)
	v.SetDefault("net_auto", d.NetAuto)
	v.SetDefault("net_sync", d.NetSync)
	v.SetDefault("net_iface", d.NetIface)
	v.SetDefault("log_level", d.LogLevel)
	v.SetDefault("remote_host", d.RemoteHost)
}
