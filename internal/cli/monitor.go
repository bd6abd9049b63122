package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/rileyhilliard/sysmon/internal/app"
	"github.com/rileyhilliard/sysmon/internal/config"
	"github.com/rileyhilliard/sysmon/internal/errors"
	"github.com/rileyhilliard/sysmon/internal/logger"
	"github.com/rileyhilliard/sysmon/internal/metrics"
	"github.com/rileyhilliard/sysmon/internal/term"
	"github.com/rileyhilliard/sysmon/internal/ui"
)

// debugEnv forces DEBUG logging, like --debug.
const debugEnv = "SYSMON_DEBUG"

const remoteTimeout = 10 * time.Second

// monitorFlags are the root command overrides. Empty means "use the config".
type monitorFlags struct {
	Host      string
	Interval  string
	Theme     string
	ColorMode string
	Boxes     string
}

// parseInterval accepts a duration ("500ms", "2s") or a bare number of
// milliseconds.
func parseInterval(s string) (int, error) {
	s = strings.TrimSpace(s)
	if ms, err := strconv.Atoi(s); err == nil {
		return ms, nil
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return 0, errors.WrapWithCode(err, errors.ErrConfig,
			fmt.Sprintf("'%s' doesn't look like an interval", s),
			"Try something like 500ms, 2s or 2500.")
	}
	return int(d.Milliseconds()), nil
}

// applyFlags copies the set overrides onto cfg and validates the result.
func applyFlags(cfg *config.Config, f monitorFlags) error {
	if f.Host != "" {
		cfg.RemoteHost = f.Host
	}
	if f.Interval != "" {
		ms, err := parseInterval(f.Interval)
		if err != nil {
			return err
		}
		cfg.UpdateMS = ms
	}
	if f.Theme != "" {
		cfg.ColorTheme = f.Theme
	}
	if f.ColorMode != "" {
		cfg.ColorMode = strings.ToLower(f.ColorMode)
	}
	if f.Boxes != "" {
		cfg.ShownBoxes = strings.FieldsFunc(strings.ToLower(f.Boxes), func(r rune) bool {
			return r == ',' || r == ' '
		})
	}
	return config.Validate(cfg)
}

// loadConfig loads the config file (or defaults) and applies the flags. The
// returned path is where runtime changes are saved.
func loadConfig(f monitorFlags) (*config.Config, string, error) {
	cfg, path, err := config.LoadOrDefault(Config())
	if err != nil {
		return nil, "", err
	}
	if err := applyFlags(cfg, f); err != nil {
		return nil, "", err
	}
	return cfg, path, nil
}

// logLevel is the configured level unless debugging was asked for.
func logLevel(cfg *config.Config) logger.Level {
	if debugFlag || os.Getenv(debugEnv) != "" {
		return logger.LevelDebug
	}
	return logger.ParseLevel(cfg.LogLevel)
}

// newProvider opens the remote provider when a host is set, otherwise the
// local one.
func newProvider(ctx context.Context, cfg *config.Config, log logger.Logger) (metrics.Provider, error) {
	if cfg.RemoteHost == "" {
		return metrics.NewLocal(ctx, cfg.CustomCPUName)
	}

	maxAge := time.Duration(cfg.UpdateMS) * time.Millisecond / 2
	if maxAge > 500*time.Millisecond {
		maxAge = 500 * time.Millisecond
	}
	var spin *ui.Spinner
	if term.IsTerminal(int(os.Stderr.Fd())) {
		spin = ui.NewSpinner(os.Stderr, "Connecting to "+cfg.RemoteHost)
		spin.Start()
	}
	p, err := metrics.NewRemote(ctx, cfg.RemoteHost, metrics.RemoteOptions{
		Timeout:    remoteTimeout,
		MaxAge:     maxAge,
		CustomName: cfg.CustomCPUName,
		Logger:     log,
	})
	if spin != nil {
		if err != nil {
			spin.Fail()
		} else {
			spin.Success()
		}
	}
	return p, err
}

func monitorCommand(cmd *cobra.Command, f monitorFlags) error {
	if !term.IsTerminal(int(os.Stdin.Fd())) || !term.IsTerminal(int(os.Stdout.Fd())) {
		return errors.New(errors.ErrTerminal,
			"sysmon needs an interactive terminal",
			"Run it directly in a terminal, not through a pipe or redirect. 'sysmon doctor' works anywhere.")
	}

	cfg, path, err := loadConfig(f)
	if err != nil {
		return err
	}

	dir := filepath.Dir(path)
	if err := config.EnsureDir(dir); err != nil {
		return err
	}
	logPath := config.LogPath(path)
	log, err := logger.NewFileLogger(logPath, logLevel(cfg))
	if err != nil {
		return errors.WrapWithCode(err, errors.ErrConfig,
			"Couldn't open the log file "+logPath, "Check permissions on "+dir)
	}
	defer log.Close() //nolint:errcheck
	logger.SetDefault(log)
	log.Info("sysmon %s starting, config %s", formatVersion(version), path)

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	provider, err := newProvider(ctx, cfg, log)
	if err != nil {
		log.Error("metrics provider: %v", errors.Oneline(err))
		return err
	}
	defer provider.Close() //nolint:errcheck

	u, err := app.New(app.Options{
		Config:     cfg,
		ConfigPath: path,
		ThemeDir:   dir,
		LogPath:    logPath,
		Provider:   provider,
		Logger:     log,
		Terminal:   app.NewTTY(os.Stdin, os.Stdout, "sysmon"),
	})
	if err != nil {
		return err
	}
	if err := u.Run(ctx); err != nil {
		log.Error("%v", errors.Oneline(err))
		return err
	}
	log.Info("sysmon exited cleanly")
	return nil
}
