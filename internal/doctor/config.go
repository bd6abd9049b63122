package doctor

import (
	"fmt"

	"github.com/rileyhilliard/sysmon/internal/config"
	"github.com/rileyhilliard/sysmon/internal/errors"
)

// ConfigFileCheck reports which config file is used. A missing file is
// fine; the defaults apply.
type ConfigFileCheck struct {
	ConfigPath string // explicit path, or empty to search
}

func (c *ConfigFileCheck) Name() string     { return "config_file" }
func (c *ConfigFileCheck) Category() string { return CategoryConfig }

func (c *ConfigFileCheck) Run() CheckResult {
	path, err := config.Find(c.ConfigPath)
	if err != nil {
		return fail(c.Name(), errors.Oneline(err), "Check the --config flag and SYSMON_CONFIG")
	}
	if path == "" {
		return warn(c.Name(), "No config file, using defaults",
			fmt.Sprintf("Run 'sysmon config init' to create %s", config.DefaultPath()))
	}
	return pass(c.Name(), fmt.Sprintf("Config file: %s", path))
}

// ConfigValuesCheck loads and validates the config file.
type ConfigValuesCheck struct {
	ConfigPath string
}

func (c *ConfigValuesCheck) Name() string     { return "config_values" }
func (c *ConfigValuesCheck) Category() string { return CategoryConfig }

func (c *ConfigValuesCheck) Run() CheckResult {
	path, err := config.Find(c.ConfigPath)
	if err != nil || path == "" {
		return pass(c.Name(), "Default settings are valid")
	}

	cfg, err := config.Load(path)
	if err != nil {
		return fail(c.Name(), fmt.Sprintf("Config doesn't load: %s", errors.Oneline(err)),
			"Check the YAML syntax in your config file")
	}
	if err := config.Validate(cfg); err != nil {
		return fail(c.Name(), errors.Oneline(err), fmt.Sprintf("Fix the value in %s or run 'sysmon config set'", path))
	}
	return pass(c.Name(), "Settings valid")
}

// NewConfigChecks creates the config checks.
func NewConfigChecks(configPath string) []Check {
	return []Check{
		&ConfigFileCheck{ConfigPath: configPath},
		&ConfigValuesCheck{ConfigPath: configPath},
	}
}
