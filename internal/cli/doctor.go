package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"path/filepath"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/rileyhilliard/sysmon/internal/config"
	"github.com/rileyhilliard/sysmon/internal/doctor"
	"github.com/rileyhilliard/sysmon/internal/errors"
	"github.com/rileyhilliard/sysmon/internal/layout"
	"github.com/rileyhilliard/sysmon/internal/logger"
	"github.com/rileyhilliard/sysmon/internal/theme"
	"github.com/rileyhilliard/sysmon/internal/ui"
)

var (
	doctorJSON bool
	doctorHost string
)

var doctorCmd = &cobra.Command{
	Use:   "doctor",
	Short: "Check the terminal, config, theme and metrics sources",
	Long: `Run diagnostic checks and print what's wrong and how to fix it.

The monitor itself needs an interactive terminal; doctor does not, so it can
run over a pipe or in CI.

Examples:
  sysmon doctor
  sysmon doctor --json
  sysmon doctor --host gpu-box`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return doctorCommand(cmd.Context(), cmd.OutOrStdout())
	},
}

func init() {
	doctorCmd.Flags().BoolVar(&doctorJSON, "json", false, "output in JSON format")
	doctorCmd.Flags().StringVar(&doctorHost, "host", "", "check an SSH host instead of remote_host")
	_ = doctorCmd.RegisterFlagCompletionFunc("host", completeHosts)
	rootCmd.AddCommand(doctorCmd)
}

// DoctorOutput is the JSON form of a doctor run.
type DoctorOutput struct {
	Categories []CategoryOutput `json:"categories"`
	Summary    SummaryOutput    `json:"summary"`
}

// CategoryOutput holds the results of one category.
type CategoryOutput struct {
	Name    string               `json:"name"`
	Results []doctor.CheckResult `json:"results"`
}

// SummaryOutput counts results by status.
type SummaryOutput struct {
	Pass     int  `json:"pass"`
	Warn     int  `json:"warn"`
	Fail     int  `json:"fail"`
	AllClear bool `json:"all_clear"`
}

// errChecksFailed makes the process exit 1 after the report is printed.
var errChecksFailed = errors.New(errors.ErrConfig, "Some checks failed", "See the report above")

func doctorCommand(ctx context.Context, w io.Writer) error {
	if ctx == nil {
		ctx = context.Background()
	}

	cfgPath, _ := config.Find(Config())
	cfg, _, err := config.LoadOrDefault(Config())
	if err != nil {
		// The config checks report why; everything else runs on defaults.
		cfg = config.DefaultConfig()
	}
	if doctorHost != "" {
		cfg.RemoteHost = doctorHost
	}
	dir := config.Dir()
	if cfgPath != "" {
		dir = filepath.Dir(cfgPath)
	}

	checks, closeProvider := collectChecks(ctx, cfg, cfgPath, dir)
	results := doctor.RunAll(checks)
	closeProvider()

	if doctorJSON {
		if err := writeDoctorJSON(w, checks, results); err != nil {
			return err
		}
	} else {
		writeDoctorText(w, checks, results)
	}
	if doctor.HasFailures(results) {
		return errChecksFailed
	}
	return nil
}

// collectChecks builds the check list. The returned func closes the metrics
// provider the checks sample from.
func collectChecks(ctx context.Context, cfg *config.Config, cfgPath, dir string) ([]doctor.Check, func()) {
	var checks []doctor.Check
	checks = append(checks, doctor.NewTerminalChecks(layout.ParsePanels(cfg.ShownBoxes), cfg.ColorMode)...)
	checks = append(checks, doctor.NewConfigChecks(cfgPath)...)
	checks = append(checks, &doctor.ThemeCheck{
		Dir:   dir,
		Theme: cfg.ColorTheme,
		Opts:  theme.Options{Mode: theme.ParseMode(cfg.ColorMode)},
	})

	if cfg.RemoteHost != "" {
		checks = append(checks, doctor.NewRemoteChecks(cfg.RemoteHost)...)
	}
	provider, err := newProvider(ctx, cfg, logger.Noop())
	if err != nil {
		return append(checks, &doctor.ProviderCheck{Err: err}), func() {}
	}
	return append(checks, doctor.NewMetricsChecks(provider, cfg.CheckTemp)...), func() { _ = provider.Close() }
}

func groupResults(checks []doctor.Check, results []doctor.CheckResult) []CategoryOutput {
	grouped := doctor.GroupByCategory(checks)
	var out []CategoryOutput
	for _, cat := range doctor.Categories {
		indices := grouped[cat]
		if len(indices) == 0 {
			continue
		}
		co := CategoryOutput{Name: cat}
		for _, i := range indices {
			co.Results = append(co.Results, results[i])
		}
		out = append(out, co)
	}
	return out
}

func writeDoctorJSON(w io.Writer, checks []doctor.Check, results []doctor.CheckResult) error {
	counts := doctor.CountByStatus(results)
	output := DoctorOutput{
		Categories: groupResults(checks, results),
		Summary: SummaryOutput{
			Pass:     counts[doctor.StatusPass],
			Warn:     counts[doctor.StatusWarn],
			Fail:     counts[doctor.StatusFail],
			AllClear: !doctor.HasIssues(results),
		},
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(output)
}

func writeDoctorText(w io.Writer, checks []doctor.Check, results []doctor.CheckResult) {
	var sections []ui.ReportSection
	for _, cat := range groupResults(checks, results) {
		sec := ui.ReportSection{Title: cat.Name}
		for _, r := range cat.Results {
			sec.Rows = append(sec.Rows, ui.ReportRow{
				Status:     r.Status.String(),
				Message:    r.Message,
				Suggestion: r.Suggestion,
			})
		}
		sections = append(sections, sec)
	}

	fmt.Fprintln(w)
	fmt.Fprint(w, ui.RenderHeader(formatVersion(version), "Diagnostic report"))
	fmt.Fprintln(w)
	fmt.Fprint(w, ui.RenderReport(sections))
	fmt.Fprintln(w, ui.Divider())

	status := "pass"
	color := ui.ColorSuccess
	if doctor.HasIssues(results) {
		status, color = "warn", ui.ColorWarning
		if doctor.HasFailures(results) {
			status, color = "fail", ui.ColorError
		}
	}
	fmt.Fprintf(w, "%s %s\n", ui.StatusIcon(status), lipgloss.NewStyle().Foreground(color).Render(doctor.Summary(results)))
}
