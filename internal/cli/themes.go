package cli

import (
	"fmt"
	"io"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/rileyhilliard/sysmon/internal/config"
	"github.com/rileyhilliard/sysmon/internal/theme"
	"github.com/rileyhilliard/sysmon/internal/ui"
)

var previewColorMode string

var themesCmd = &cobra.Command{
	Use:   "themes",
	Short: "List, preview and pick color themes",
	Long: `Themes are theme[key]="value" .theme files or .toml files in the themes and
user_themes directories next to the config file. User themes are named with
a leading "+".`,
}

var themesListCmd = &cobra.Command{
	Use:   "list",
	Short: "List installed themes",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, dir, err := themeContext()
		if err != nil {
			return err
		}
		listThemes(cmd.OutOrStdout(), dir, cfg.ColorTheme)
		return nil
	},
}

var themesPreviewCmd = &cobra.Command{
	Use:   "preview [name]",
	Short: "Show a theme's colors and gradients",
	Long: `Show a theme's colors and gradients, by default the configured one.

Examples:
  sysmon themes preview
  sysmon themes preview nord --color-mode 256`,
	Args:              cobra.MaximumNArgs(1),
	ValidArgsFunction: completeThemes,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, dir, err := themeContext()
		if err != nil {
			return err
		}
		name := cfg.ColorTheme
		if len(args) == 1 {
			name = args[0]
		}
		mode := cfg.ColorMode
		if previewColorMode != "" {
			mode = previewColorMode
		}
		t, err := theme.Load(dir, name, theme.Options{Mode: theme.ParseMode(mode)})
		if err != nil {
			return err
		}
		fmt.Fprint(cmd.OutOrStdout(), ui.RenderPreview(t))
		return nil
	},
}

var themesPickCmd = &cobra.Command{
	Use:   "pick",
	Short: "Choose the theme interactively",
	Long:  `Choose a theme from a list and save it as color_theme in the config file.`,
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, dir, err := themeContext()
		if err != nil {
			return err
		}
		choice, err := ui.Pick("Pick a theme", themeChoices(dir), cfg.ColorTheme)
		if err != nil {
			return err
		}
		if choice == nil {
			fmt.Fprintln(cmd.OutOrStdout(), "Cancelled.")
			return nil
		}
		path, _, err := configLocation()
		if err != nil {
			return err
		}
		if err := setConfigValue(path, "color_theme", choice.Value); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s color_theme = %s\n", ui.StatusIcon("pass"), choice.Value)
		return nil
	},
}

func init() {
	themesPreviewCmd.Flags().StringVar(&previewColorMode, "color-mode", "", "truecolor, 256 or greyscale")
	themesCmd.AddCommand(themesListCmd, themesPreviewCmd, themesPickCmd)
	rootCmd.AddCommand(themesCmd)
}

// themeContext loads the config and returns it with the theme directory.
func themeContext() (*config.Config, string, error) {
	cfg, path, err := config.LoadOrDefault(Config())
	if err != nil {
		return nil, "", err
	}
	return cfg, filepath.Dir(path), nil
}

// themeSource describes where a theme comes from, relative to dir.
func themeSource(dir, name string) string {
	if name == theme.DefaultName {
		return "built in"
	}
	path, ok := theme.Path(dir, name)
	if !ok {
		return "missing"
	}
	if rel, err := filepath.Rel(dir, path); err == nil {
		return rel
	}
	return path
}

func themeChoices(dir string) []ui.Choice {
	names := theme.List(dir)
	choices := make([]ui.Choice, len(names))
	for i, name := range names {
		choices[i] = ui.Choice{Value: name, Detail: themeSource(dir, name)}
	}
	return choices
}

func listThemes(w io.Writer, dir, current string) {
	var rows [][]string
	for _, name := range theme.List(dir) {
		marker := ""
		if name == current {
			marker = ui.SymbolDot
		}
		rows = append(rows, []string{marker, name, themeSource(dir, name)})
	}
	fmt.Fprintln(w, ui.RenderTable([]ui.Column{{Title: " ", Width: 1}, {Title: "THEME"}, {Title: "SOURCE"}}, rows))
}

// completeThemes offers the installed theme names.
func completeThemes(_ *cobra.Command, args []string, _ string) ([]string, cobra.ShellCompDirective) {
	if len(args) > 0 {
		return nil, cobra.ShellCompDirectiveNoFileComp
	}
	_, dir, err := themeContext()
	if err != nil {
		return nil, cobra.ShellCompDirectiveNoFileComp
	}
	return theme.List(dir), cobra.ShellCompDirectiveNoFileComp
}
