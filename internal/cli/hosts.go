package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/rileyhilliard/sysmon/internal/config"
	"github.com/rileyhilliard/sysmon/internal/ui"
	"github.com/rileyhilliard/sysmon/pkg/sshutil"
)

// localChoice clears remote_host.
const localChoice = "(this machine)"

var hostsCmd = &cobra.Command{
	Use:   "hosts",
	Short: "List the SSH hosts sysmon can monitor",
	Long: `List the host aliases from ~/.ssh/config. Any of them works with --host,
or can be saved as remote_host with 'sysmon hosts pick'.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		hosts, err := sshutil.ListHosts()
		if err != nil {
			return err
		}
		cfg, _, err := config.LoadOrDefault(Config())
		if err != nil {
			return err
		}
		listHosts(cmd.OutOrStdout(), hosts, cfg.RemoteHost)
		return nil
	},
}

var hostsPickCmd = &cobra.Command{
	Use:   "pick",
	Short: "Choose the host to monitor by default",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		hosts, err := sshutil.ListHosts()
		if err != nil {
			return err
		}
		cfg, _, err := config.LoadOrDefault(Config())
		if err != nil {
			return err
		}
		current := cfg.RemoteHost
		if current == "" {
			current = localChoice
		}
		choice, err := ui.Pick("Monitor which host?", hostChoices(hosts), current)
		if err != nil {
			return err
		}
		if choice == nil {
			fmt.Fprintln(cmd.OutOrStdout(), "Cancelled.")
			return nil
		}

		value := choice.Value
		if value == localChoice {
			value = ""
		}
		path, _, err := configLocation()
		if err != nil {
			return err
		}
		if err := setConfigValue(path, "remote_host", value); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s remote_host = %q\n", ui.StatusIcon("pass"), value)
		return nil
	},
}

func init() {
	hostsCmd.AddCommand(hostsPickCmd)
	rootCmd.AddCommand(hostsCmd)
}

func hostChoices(hosts []sshutil.HostEntry) []ui.Choice {
	choices := []ui.Choice{{Value: localChoice, Detail: "local metrics"}}
	for _, h := range hosts {
		choices = append(choices, ui.Choice{Value: h.Alias, Detail: h.Description()})
	}
	return choices
}

func listHosts(w io.Writer, hosts []sshutil.HostEntry, current string) {
	if len(hosts) == 0 {
		fmt.Fprintln(w, "No hosts in ~/.ssh/config. Any user@host works with --host.")
		return
	}
	rows := make([][]string, 0, len(hosts))
	for _, h := range hosts {
		marker := ""
		if h.Alias == current {
			marker = ui.SymbolDot
		}
		rows = append(rows, []string{marker, h.Alias, h.Description()})
	}
	fmt.Fprintln(w, ui.RenderTable([]ui.Column{{Title: " ", Width: 1}, {Title: "HOST"}, {Title: "TARGET"}}, rows))
}
