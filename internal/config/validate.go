package config

import (
	"fmt"
	"strings"

	"github.com/rileyhilliard/sysmon/internal/errors"
	"github.com/rileyhilliard/sysmon/internal/graph"
	"github.com/rileyhilliard/sysmon/internal/logger"
)

// MinUpdateMS is the fastest allowed collection period.
const MinUpdateMS = 100

// Validate checks the config for errors and returns structured error messages.
func Validate(cfg *Config) error {
	if cfg == nil {
		return errors.New(errors.ErrConfig,
			"Config is nil",
			"This is unexpected - try reloading the configuration.")
	}

	if cfg.Version > CurrentConfigVersion {
		return errors.New(errors.ErrConfig,
			fmt.Sprintf("This config is from the future (version %d, but sysmon only knows up to %d)", cfg.Version, CurrentConfigVersion),
			"Upgrade sysmon or remove the version key.")
	}

	if cfg.UpdateMS < MinUpdateMS {
		return errors.New(errors.ErrConfig,
			fmt.Sprintf("update_ms is %d, the minimum is %d", cfg.UpdateMS, MinUpdateMS),
			"Set update_ms to 100 or more in sysmon.yaml.")
	}

	if cfg.ProcUpdateMult < 1 {
		return errors.New(errors.ErrConfig,
			fmt.Sprintf("proc_update_mult must be at least 1, got %d", cfg.ProcUpdateMult),
			"Use 1 to update processes every cycle.")
	}

	if cfg.TreeDepth < 0 {
		return errors.New(errors.ErrConfig,
			fmt.Sprintf("tree_depth can't be negative (got %d)", cfg.TreeDepth),
			"Use 0 to collapse everything below the root processes.")
	}

	if !contains(SortKeys, cfg.ProcSorting) {
		return errors.New(errors.ErrConfig,
			fmt.Sprintf("Unknown proc_sorting '%s'", cfg.ProcSorting),
			"Valid options: "+strings.Join(SortKeys, ", "))
	}

	if !contains(ColorModes, cfg.ColorMode) {
		return errors.New(errors.ErrConfig,
			fmt.Sprintf("Unknown color_mode '%s'", cfg.ColorMode),
			"Valid options: "+strings.Join(ColorModes, ", "))
	}

	if !contains(logger.Levels, cfg.LogLevel) {
		return errors.New(errors.ErrConfig,
			fmt.Sprintf("Unknown log_level '%s'", cfg.LogLevel),
			"Valid options: "+strings.Join(logger.Levels, ", "))
	}

	for _, b := range cfg.ShownBoxes {
		if !contains(AllBoxes, b) {
			return errors.New(errors.ErrConfig,
				fmt.Sprintf("Unknown box '%s' in shown_boxes", b),
				"Valid boxes: "+strings.Join(AllBoxes, ", "))
		}
	}

	for key, val := range map[string]string{"net_download": cfg.NetDownload, "net_upload": cfg.NetUpload} {
		if _, err := graph.UnitsToBytes(val); err != nil {
			return errors.WrapWithCode(err, errors.ErrConfig,
				fmt.Sprintf("Can't parse %s value '%s'", key, val),
				"Use a number with an optional unit, like 10M, 100Mbit or 1.5G.")
		}
	}

	if cfg.RemoteHost != "" && strings.ContainsAny(cfg.RemoteHost, " \t/") {
		return errors.New(errors.ErrConfig,
			fmt.Sprintf("remote_host '%s' doesn't look like an SSH host", cfg.RemoteHost),
			"Use an ssh_config alias, hostname, or user@hostname.")
	}

	return nil
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
