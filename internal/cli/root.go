package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/rileyhilliard/sysmon/internal/term"
	"github.com/rileyhilliard/sysmon/internal/ui"
	"github.com/rileyhilliard/sysmon/pkg/sshutil"
)

// Global flags
var (
	cfgFile   string
	debugFlag bool
)

// Monitor flags, applied on top of the config file for one run.
var monFlags monitorFlags

var rootCmd = &cobra.Command{
	Use:   "sysmon",
	Short: "Terminal resource monitor",
	Long: `sysmon shows CPU, memory, disk, network and process usage in the terminal.

Settings come from ~/.config/sysmon/sysmon.yaml (or $SYSMON_CONFIG) and
the flags below override them for one run. Press ESC or m in the monitor
for the menu, h for help.

Examples:
  sysmon
  sysmon --interval 1s --boxes cpu,proc
  sysmon --host gpu-box
  sysmon --theme +mine --color-mode 256`,
	Args:          cobra.NoArgs,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		if os.Getenv("NO_COLOR") != "" || !term.IsTerminal(int(os.Stdout.Fd())) {
			ui.DisableColors()
		}
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		return monitorCommand(cmd, monFlags)
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default ~/.config/sysmon/sysmon.yaml)")
	rootCmd.PersistentFlags().BoolVar(&debugFlag, "debug", false, "log at DEBUG level for this run")

	f := rootCmd.Flags()
	f.StringVar(&monFlags.Host, "host", "", "monitor an SSH host instead of this machine")
	f.StringVar(&monFlags.Interval, "interval", "", "update interval (e.g. 500ms, 2s)")
	f.StringVar(&monFlags.Theme, "theme", "", "color theme name")
	f.StringVar(&monFlags.ColorMode, "color-mode", "", "truecolor, 256 or greyscale")
	f.StringVar(&monFlags.Boxes, "boxes", "", "panels to show (e.g. cpu,mem,net,proc)")

	_ = rootCmd.RegisterFlagCompletionFunc("host", completeHosts)
	_ = rootCmd.RegisterFlagCompletionFunc("color-mode", cobra.FixedCompletions(
		[]string{"truecolor", "256", "greyscale"}, cobra.ShellCompDirectiveNoFileComp))
	_ = rootCmd.RegisterFlagCompletionFunc("theme", completeThemes)
}

// completeHosts offers the aliases from ~/.ssh/config.
func completeHosts(_ *cobra.Command, _ []string, _ string) ([]string, cobra.ShellCompDirective) {
	hosts, err := sshutil.ListHosts()
	if err != nil {
		return nil, cobra.ShellCompDirectiveNoFileComp
	}
	out := make([]string, 0, len(hosts))
	for _, h := range hosts {
		out = append(out, h.Alias+"\t"+h.Description())
	}
	return out, cobra.ShellCompDirectiveNoFileComp
}

// Config returns the --config flag value.
func Config() string {
	return cfgFile
}

// Execute runs the command tree and exits 1 on error.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
