// Package cli is the duml command line.
package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"duml/internal/core/app"
	"duml/internal/core/config"
	"duml/internal/output"
	"duml/internal/shared/observability"
	"duml/internal/ui/browser"

	"github.com/spf13/cobra"
)

const defaultConfigName = config.DefaultFile

// Run executes the command line and returns the process exit code.
func Run(args []string) int {
	cmd := newRootCmd(func(cmd *cobra.Command, opts cliOptions) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()
		return run(ctx, opts, cmd.OutOrStdout())
	})
	cmd.SetArgs(args)
	if err := cmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "duml:", err)
		return 1
	}
	return 0
}

func run(ctx context.Context, opts cliOptions, stdout io.Writer) error {
	if opts.version {
		fmt.Fprintf(stdout, "duml v%s\n", versionString)
		return nil
	}

	cleanupLogs := configureLogging(opts.ui, opts.verbose)
	defer cleanupLogs()

	cwd, err := os.Getwd()
	if err != nil {
		return fmt.Errorf("detect working directory: %w", err)
	}

	cfg, baseDir, err := loadConfig(opts.configPath, cwd)
	if err != nil {
		return err
	}
	config.ApplyEnvOverrides(cfg)

	format, err := applyOptions(&opts, cfg, cwd)
	if err != nil {
		return err
	}
	if problems := config.Validate(cfg); len(problems) > 0 {
		return errors.Join(problems...)
	}

	appOpts := app.Options{BaseDir: baseDir}
	if opts.printFiles {
		appOpts.PrintFiles = stdout
	}
	if format != "" {
		appOpts.Targets = []app.Target{formatTarget(cfg, format, opts.out, cwd, stdout)}
	}
	a, err := app.New(cfg, appOpts)
	if err != nil {
		return err
	}
	defer func() {
		if err := a.Close(context.Background()); err != nil {
			slog.Warn("failed to close app", "error", err)
		}
	}()

	stopObservability, err := startObservability(ctx, cfg, a)
	if err != nil {
		return err
	}
	defer stopObservability()

	res, err := a.Build(ctx, a.Paths.ScanPaths)
	if err != nil {
		return err
	}

	written, err := a.GenerateOutputs(ctx)
	for _, p := range written {
		slog.Info("wrote output", "path", p)
	}
	if err != nil {
		if format != "" {
			return err
		}
		slog.Error("failed to generate outputs", "error", err)
	}
	if !opts.ui && (format == "" || opts.out != "") {
		printSummary(stdout, res)
	}

	switch {
	case opts.ui:
		return runUI(ctx, a, opts.watch)
	case opts.watch:
		return a.Watch(ctx, a.Paths.ScanPaths)
	}
	return nil
}

// loadConfig returns the config and the directory its relative paths are
// anchored to.
func loadConfig(path, cwd string) (*config.Config, string, error) {
	cfg, err := config.LoadOrDefault(path)
	if err != nil {
		return nil, "", err
	}
	switch {
	case strings.TrimSpace(path) != "":
		abs, err := filepath.Abs(path)
		if err != nil {
			return nil, "", err
		}
		return cfg, filepath.Dir(abs), nil
	default:
		return cfg, cwd, nil
	}
}

// applyOptions folds flags and positional paths into cfg. Command line
// paths are taken relative to the working directory.
func applyOptions(opts *cliOptions, cfg *config.Config, cwd string) (output.Format, error) {
	if opts.out != "" && opts.format == "" {
		return "", errors.New("--out requires --format")
	}
	if opts.ui && opts.format != "" && opts.out == "" {
		return "", errors.New("--format without --out cannot be combined with --ui")
	}

	var format output.Format
	if opts.format != "" {
		f, err := output.ParseFormat(opts.format)
		if err != nil {
			return "", err
		}
		format = f
	}

	var paths []string
	for _, p := range append(append([]string(nil), opts.files...), opts.args...) {
		if p = strings.TrimSpace(p); p != "" {
			paths = append(paths, config.ResolveRelative(cwd, p))
		}
	}
	if len(paths) > 0 {
		cfg.ScanPaths = paths
	}
	if len(cfg.ScanPaths) == 0 {
		return "", errors.New("no input: pass paths, --files or set scan_paths in the config")
	}

	if opts.draw != "" {
		cfg.Draw.Options = opts.draw
	}
	if opts.db != "" {
		cfg.DB.Enabled = true
		cfg.DB.Path = config.ResolveRelative(cwd, opts.db)
	}
	return format, nil
}

// formatTarget replaces the configured outputs with the one format asked for
// on the command line, written to out or to stdout.
func formatTarget(cfg *config.Config, format output.Format, out, cwd string, stdout io.Writer) app.Target {
	cfg.Output = config.Output{Dir: cfg.Output.Dir, MarkdownMarker: cfg.Output.MarkdownMarker}
	if out == "" {
		return app.Target{Format: format, Writer: stdout}
	}
	return app.Target{Format: format, Path: config.ResolveRelative(cwd, out)}
}

func printSummary(w io.Writer, res *app.BuildResult) {
	stats := res.Tree.Stats()
	fmt.Fprintf(w, "Scanned %d files: %d modules, %d classes, %d enums, %d unions (%s)\n",
		len(res.Files), stats.Modules, stats.Classes, stats.Enums, stats.Unions, res.Duration.Round(time.Millisecond))
	for _, f := range res.Missing {
		fmt.Fprintf(w, "missing: %s\n", f)
	}
	for _, f := range res.Failed {
		fmt.Fprintf(w, "skipped: %s: %v\n", f.File, f.Err)
	}
	if len(res.Diagnostics) > 0 {
		fmt.Fprintf(w, "%d diagnostics (see log)\n", len(res.Diagnostics))
	}
	for _, c := range res.Cycles {
		fmt.Fprintf(w, "import cycle: %s -> %s\n", strings.Join(c, " -> "), c[0])
	}
}

func startObservability(ctx context.Context, cfg *config.Config, a *app.App) (func(), error) {
	if !cfg.Observability.Enabled {
		return func() {}, nil
	}

	var stops []func(context.Context) error
	if cfg.Observability.OTLPEndpoint != "" {
		shutdown, err := observability.InitTracing(ctx, cfg.Observability.ServiceName, cfg.Observability.OTLPEndpoint)
		if err != nil {
			return nil, err
		}
		stops = append(stops, shutdown)
	}

	server := observability.NewServer(cfg.Observability.Address, a.Health)
	if err := server.Start(); err != nil {
		for _, stop := range stops {
			_ = stop(context.Background())
		}
		return nil, fmt.Errorf("start observability server: %w", err)
	}
	stops = append(stops, server.Stop)

	return func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		for i := len(stops) - 1; i >= 0; i-- {
			if err := stops[i](shutdownCtx); err != nil {
				slog.Warn("observability shutdown failed", "error", err)
			}
		}
	}, nil
}

func runUI(ctx context.Context, a *app.App, watch bool) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	if watch {
		go func() {
			if err := a.Watch(ctx, a.Paths.ScanPaths); err != nil {
				slog.Error("watch failed", "error", err)
			}
		}()
	}
	return browser.Run(a)
}

func configureLogging(uiMode, verbose bool) func() {
	logLevel := slog.LevelInfo
	if verbose {
		logLevel = slog.LevelDebug
	}

	logOut := os.Stderr
	var closeFn func() = func() {}
	if uiMode {
		logPath := resolveLogPath()
		if err := os.MkdirAll(filepath.Dir(logPath), 0o700); err != nil {
			fmt.Fprintf(os.Stderr, "warning: failed to create log dir for %s: %v\n", logPath, err)
		} else {
			if fi, err := os.Lstat(logPath); err == nil && (fi.Mode()&os.ModeSymlink) != 0 {
				fmt.Fprintf(os.Stderr, "warning: refusing to write logs to symlink path %s\n", logPath)
			} else {
				f, err := os.OpenFile(logPath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o600)
				if err == nil {
					logOut = f
					closeFn = func() { _ = f.Close() }
				} else {
					fmt.Fprintf(os.Stderr, "warning: failed to open log file %s: %v\n", logPath, err)
				}
			}
		}
	}

	logger := slog.New(slog.NewTextHandler(logOut, &slog.HandlerOptions{Level: logLevel}))
	slog.SetDefault(logger)
	return closeFn
}

func resolveLogPath() string {
	if xdg := os.Getenv("XDG_STATE_HOME"); xdg != "" {
		return filepath.Join(xdg, "duml", "duml.log")
	}

	home, err := os.UserHomeDir()
	if err == nil && home != "" {
		return filepath.Join(home, ".local", "state", "duml", "duml.log")
	}

	return "duml.log"
}
