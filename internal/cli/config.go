package cli

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/charmbracelet/huh"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/rileyhilliard/sysmon/internal/config"
	"github.com/rileyhilliard/sysmon/internal/errors"
	"github.com/rileyhilliard/sysmon/internal/theme"
	"github.com/rileyhilliard/sysmon/internal/ui"
	"github.com/rileyhilliard/sysmon/internal/util"
)

var (
	initForce    bool
	initDefaults bool
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage the config file",
	Long: `Show, create and edit the sysmon config file.

The file is looked up in this order: --config, $SYSMON_CONFIG, then
$XDG_CONFIG_HOME/sysmon/sysmon.yaml (or ~/.config/sysmon/sysmon.yaml).`,
}

var configPathCmd = &cobra.Command{
	Use:   "path",
	Short: "Print the config file location",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		path, exists, err := configLocation()
		if err != nil {
			return err
		}
		if !exists {
			fmt.Fprintf(cmd.OutOrStdout(), "%s (not created yet)\n", path)
			return nil
		}
		fmt.Fprintln(cmd.OutOrStdout(), path)
		return nil
	},
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the effective settings",
	Long: `Print every setting with the value sysmon would use, including
defaults for keys the file leaves out.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, path, err := config.LoadOrDefault(Config())
		if err != nil {
			return err
		}
		return showConfig(cmd.OutOrStdout(), cfg, path)
	},
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Create a config file",
	Long: `Create a config file with a short form for the common settings.

Examples:
  sysmon config init
  sysmon config init --defaults
  sysmon config init --force`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		path, exists, err := configLocation()
		if err != nil {
			return err
		}
		if exists && !initForce {
			return errors.New(errors.ErrConfig,
				"Config file already exists: "+path,
				"Use --force to overwrite it, or 'sysmon config set' to change one key")
		}

		cfg := config.DefaultConfig()
		if !initDefaults {
			if err := runInitForm(cfg, filepath.Dir(path)); err != nil {
				return err
			}
		}
		if err := writeConfig(path, cfg); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s Wrote %s\n", ui.StatusIcon("pass"), path)
		return nil
	},
}

var configSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Change one setting",
	Long: `Change one key in the config file, keeping the rest of the file and
its comments. Lists take comma separated values.

Examples:
  sysmon config set update_ms 1000
  sysmon config set shown_boxes cpu,proc
  sysmon config set color_theme +mine`,
	Args: cobra.ExactArgs(2),
	ValidArgsFunction: func(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
		if len(args) == 0 {
			return config.Keys(), cobra.ShellCompDirectiveNoFileComp
		}
		return nil, cobra.ShellCompDirectiveNoFileComp
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		path, _, err := configLocation()
		if err != nil {
			return err
		}
		if err := setConfigValue(path, args[0], args[1]); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s %s = %s\n", ui.StatusIcon("pass"), args[0], args[1])
		return nil
	},
}

func init() {
	configInitCmd.Flags().BoolVarP(&initForce, "force", "f", false, "overwrite an existing config file")
	configInitCmd.Flags().BoolVar(&initDefaults, "defaults", false, "write the defaults without asking")

	configCmd.AddCommand(configPathCmd, configShowCmd, configInitCmd, configSetCmd)
	rootCmd.AddCommand(configCmd)
}

// configLocation is the file sysmon reads, or the path to create. An
// explicit path that doesn't exist yet is where init writes.
func configLocation() (path string, exists bool, err error) {
	found, err := config.Find(Config())
	if err != nil {
		explicit := Config()
		if explicit == "" {
			explicit = os.Getenv(config.ConfigEnv)
		}
		explicit = config.ExpandTilde(explicit)
		if _, statErr := os.Stat(explicit); explicit != "" && os.IsNotExist(statErr) {
			return explicit, false, nil
		}
		return "", false, err
	}
	if found == "" {
		return config.DefaultPath(), false, nil
	}
	return found, true, nil
}

// configRows flattens cfg to sorted key/value rows.
func configRows(cfg *config.Config) ([][]string, error) {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return nil, err
	}
	var values map[string]interface{}
	if err := yaml.Unmarshal(data, &values); err != nil {
		return nil, err
	}

	rows := make([][]string, 0, len(values))
	for _, key := range config.Keys() {
		rows = append(rows, []string{key, formatValue(values[key])})
	}
	return rows, nil
}

func formatValue(v interface{}) string {
	switch val := v.(type) {
	case []interface{}:
		items := make([]string, len(val))
		for i, item := range val {
			items[i] = fmt.Sprint(item)
		}
		return util.JoinOrNone(items)
	case string:
		if val == "" {
			return `""`
		}
		return val
	case nil:
		return ""
	default:
		return fmt.Sprint(val)
	}
}

func showConfig(w io.Writer, cfg *config.Config, path string) error {
	rows, err := configRows(cfg)
	if err != nil {
		return errors.WrapWithCode(err, errors.ErrConfig, "Couldn't render the config", "")
	}
	fmt.Fprintf(w, "Config file: %s\n\n", path)
	fmt.Fprintln(w, ui.RenderTable([]ui.Column{{Title: "KEY"}, {Title: "VALUE"}}, rows))
	return nil
}

// writeConfig validates cfg and saves it, creating the theme directories
// next to it.
func writeConfig(path string, cfg *config.Config) error {
	if err := config.Validate(cfg); err != nil {
		return err
	}
	if err := config.EnsureDir(filepath.Dir(path)); err != nil {
		return err
	}
	if err := config.Save(path, cfg); err != nil {
		return errors.WrapWithCode(err, errors.ErrConfig, "Couldn't write "+path, "")
	}
	return nil
}

// setConfigValue edits one key and rolls the file back if the result no
// longer validates.
func setConfigValue(path, key, value string) error {
	old, readErr := os.ReadFile(path)
	if err := config.SetValue(path, key, value); err != nil {
		return errors.WrapWithCode(err, errors.ErrConfig,
			fmt.Sprintf("Couldn't set %s", key),
			"Run 'sysmon config show' to see the keys and their current values")
	}

	cfg, err := config.Load(path)
	if err == nil {
		err = config.Validate(cfg)
	}
	if err != nil {
		if readErr == nil {
			_ = os.WriteFile(path, old, 0o644)
		} else {
			_ = os.Remove(path)
		}
		return err
	}
	return nil
}

// runInitForm asks for the common settings and fills cfg.
func runInitForm(cfg *config.Config, dir string) error {
	interval := strconv.Itoa(cfg.UpdateMS)
	boxes := append([]string(nil), cfg.ShownBoxes...)

	themeOptions := make([]huh.Option[string], 0)
	for _, name := range theme.List(dir) {
		themeOptions = append(themeOptions, huh.NewOption(name, name))
	}
	sortOptions := make([]huh.Option[string], len(config.SortKeys))
	for i, k := range config.SortKeys {
		sortOptions[i] = huh.NewOption(k, k)
	}

	form := huh.NewForm(
		huh.NewGroup(
			huh.NewSelect[string]().
				Title("Color theme").
				Description("Add more to the themes directory next to the config file").
				Options(themeOptions...).
				Value(&cfg.ColorTheme),
			huh.NewInput().
				Title("Update interval (ms)").
				Description("How often the panels refresh").
				Value(&interval).
				Validate(validateInterval),
		),
		huh.NewGroup(
			huh.NewSelect[string]().
				Title("Sort processes by").
				Options(sortOptions...).
				Value(&cfg.ProcSorting),
			huh.NewMultiSelect[string]().
				Title("Panels").
				Options(
					huh.NewOption("CPU", config.BoxCPU),
					huh.NewOption("Memory and disks", config.BoxMem),
					huh.NewOption("Network", config.BoxNet),
					huh.NewOption("Processes", config.BoxProc),
				).
				Value(&boxes).
				Validate(func(v []string) error {
					if len(v) == 0 {
						return fmt.Errorf("pick at least one panel")
					}
					return nil
				}),
		),
	)

	if err := form.Run(); err != nil {
		return errors.WrapWithCode(err, errors.ErrInput,
			"Failed to get user input",
			"Run 'sysmon config init --defaults' to skip the form")
	}

	cfg.UpdateMS, _ = strconv.Atoi(strings.TrimSpace(interval))
	cfg.ShownBoxes = orderBoxes(boxes)
	return nil
}

func validateInterval(s string) error {
	ms, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return fmt.Errorf("enter a whole number of milliseconds")
	}
	if ms < config.MinUpdateMS {
		return fmt.Errorf("the minimum is %d", config.MinUpdateMS)
	}
	return nil
}

// orderBoxes puts the chosen boxes in layout order.
func orderBoxes(chosen []string) []string {
	picked := make(map[string]bool, len(chosen))
	for _, b := range chosen {
		picked[b] = true
	}
	var out []string
	for _, b := range config.AllBoxes {
		if picked[b] {
			out = append(out, b)
		}
	}
	return out
}
