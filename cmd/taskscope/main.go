package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/user"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	tea "charm.land/bubbletea/v2"
	"github.com/charmbracelet/fang"
	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/hylla/taskscope/internal/app"
	"github.com/hylla/taskscope/internal/config"
	"github.com/hylla/taskscope/internal/fixture"
	"github.com/hylla/taskscope/internal/platform"
	"github.com/hylla/taskscope/internal/projection"
	"github.com/hylla/taskscope/internal/tui"
)

// version stores a package-level helper value.
var version = "dev"

// program represents program data used by this package.
type program interface {
	Run() (tea.Model, error)
}

// programFactory stores a package-level helper value.
var programFactory = func(m tea.Model) program {
	return tea.NewProgram(m)
}

// clock is the wall clock for the service and fixture date resolution.
var clock = time.Now

// main handles main.
func main() {
	root := newRootCommand(os.Stdout, os.Stderr)
	if err := fang.Execute(context.Background(), root, fang.WithVersion(version)); err != nil {
		os.Exit(1)
	}
}

// rootOptions holds the persistent flags shared by every command.
type rootOptions struct {
	configPath  string
	fixturePath string
	appName     string
	devMode     bool
}

// newRootCommand builds the command tree. The bare command starts the TUI.
func newRootCommand(stdout, stderr io.Writer) *cobra.Command {
	if stdout == nil {
		stdout = io.Discard
	}
	if stderr == nil {
		stderr = io.Discard
	}
	opts := &rootOptions{appName: "taskscope", devMode: version == "dev"}
	if envDev, ok := parseBoolEnv("TASKSCOPE_DEV_MODE"); ok {
		opts.devMode = envDev
	}
	if envApp := strings.TrimSpace(os.Getenv("TASKSCOPE_APP_NAME")); envApp != "" {
		opts.appName = envApp
	}

	root := &cobra.Command{
		Use:           "taskscope",
		Short:         "Browse one task collection as a table, list, board, calendar and gantt chart",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runTUI(cmd.Context(), opts, stderr)
		},
	}
	root.SetOut(stdout)
	root.SetErr(stderr)

	flags := root.PersistentFlags()
	flags.StringVar(&opts.configPath, "config", "", "path to config TOML")
	flags.StringVar(&opts.fixturePath, "fixture", "", "path to a YAML task fixture (embedded seed when empty)")
	flags.StringVar(&opts.appName, "app", opts.appName, "application name for config/data path resolution")
	flags.BoolVar(&opts.devMode, "dev", opts.devMode, "use dev mode paths (<app>-dev)")

	root.AddCommand(
		newPathsCommand(opts),
		newRenderCommand(opts, stderr),
		newExportICSCommand(opts, stderr),
	)
	return root
}

// newPathsCommand prints the resolved per-user locations.
func newPathsCommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "paths",
		Short: "Print resolved config and data paths",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			paths, err := platform.DefaultPathsWithOptions(platform.Options{AppName: opts.appName, DevMode: opts.devMode})
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			_, _ = fmt.Fprintf(out, "app: %s\n", opts.appName)
			_, _ = fmt.Fprintf(out, "dev_mode: %t\n", opts.devMode)
			_, _ = fmt.Fprintf(out, "config: %s\n", paths.ConfigPath)
			_, _ = fmt.Fprintf(out, "data_dir: %s\n", paths.DataDir)
			_, _ = fmt.Fprintf(out, "fixture: %s\n", paths.FixturePath)
			_, _ = fmt.Fprintf(out, "export: %s\n", paths.ExportPath)
			return nil
		},
	}
}

// newExportICSCommand writes the due dates of the collection as an iCalendar document.
func newExportICSCommand(opts *rootOptions, stderr io.Writer) *cobra.Command {
	var outPath string
	cmd := &cobra.Command{
		Use:   "export-ics",
		Short: "Export task due dates as an iCalendar file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			s, err := openSession(opts, stderr, "export-ics", true)
			if err != nil {
				return err
			}
			defer s.close(stderr)

			s.logger.Info("command flow start", "command", "export-ics", "out", outPath)
			encoded := projection.ExportICS(s.svc.Tasks(), s.svc.Now())
			if err := writeOutput(cmd.OutOrStdout(), outPath, encoded); err != nil {
				s.logger.Error("command flow failed", "command", "export-ics", "err", err)
				return fmt.Errorf("run export-ics command: %w", err)
			}
			s.logger.Info("command flow complete", "command", "export-ics")
			return nil
		},
	}
	cmd.Flags().StringVar(&outPath, "out", "-", "output file path ('-' for stdout)")
	return cmd
}

// runTUI starts the interactive program.
func runTUI(ctx context.Context, opts *rootOptions, stderr io.Writer) error {
	s, err := openSession(opts, stderr, "tui", false)
	if err != nil {
		return err
	}
	defer s.close(stderr)

	cfg := s.cfg
	m := tui.NewModel(
		s.svc,
		tui.WithKeyBindings(keyBindings(cfg.Keys)),
		tui.WithPageSize(cfg.Table.PageSize),
		tui.WithGantt(ganttConfig(cfg.Gantt), cfg.Gantt.CellWidth),
		tui.WithMaxPerCell(cfg.Calendar.MaxPerCell),
		tui.WithActor(currentActor()),
	)
	s.logger.Info("starting tui program loop")
	if _, err := programFactory(m).Run(); err != nil {
		s.logger.Error("tui program terminated with error", "err", err)
		return fmt.Errorf("run tui program: %w", err)
	}
	if ctx.Err() != nil {
		return ctx.Err()
	}
	s.logger.Info("command flow complete", "command", "tui")
	return nil
}

// session is the state every data command needs: resolved config, logger and a loaded service.
type session struct {
	cfg    config.Config
	logger *runtimeLogger
	svc    *app.Service
}

// openSession resolves paths and config, loads the fixture and builds the service. The console
// log sink stays muted for the TUI so logs do not paint over the screen.
func openSession(opts *rootOptions, stderr io.Writer, command string, console bool) (*session, error) {
	paths, err := platform.DefaultPathsWithOptions(platform.Options{AppName: opts.appName, DevMode: opts.devMode})
	if err != nil {
		return nil, err
	}

	configPath := strings.TrimSpace(opts.configPath)
	if configPath == "" {
		if envPath := strings.TrimSpace(os.Getenv("TASKSCOPE_CONFIG")); envPath != "" {
			configPath = envPath
		} else {
			configPath = paths.ConfigPath
		}
	}
	fixturePath, fixtureOverridden := resolveFixturePath(opts.fixturePath, paths.FixturePath)

	cfg, err := config.Load(configPath, config.Default(fixturePath))
	if err != nil {
		return nil, fmt.Errorf("load config %q: %w", configPath, err)
	}
	if fixtureOverridden {
		cfg.Fixture.Path = fixturePath
	}

	logger, err := newRuntimeLogger(stderr, opts.appName, opts.devMode, cfg.Logging, clock)
	if err != nil {
		return nil, fmt.Errorf("configure runtime logger: %w", err)
	}
	logger.SetConsoleEnabled(console)
	s := &session{cfg: cfg, logger: logger}

	logger.Info("startup configuration resolved", "app", opts.appName, "dev_mode", opts.devMode, "command", command)
	logger.Debug("runtime paths resolved", "config_path", configPath, "data_dir", paths.DataDir)
	logger.Info("configuration loaded", "config_path", configPath, "fixture", cfg.Fixture.Path, "log_level", cfg.Logging.Level)
	if devPath := logger.DevLogPath(); devPath != "" {
		logger.Info("dev file logging enabled", "path", devPath)
	}

	saveDelay, _ := cfg.SaveDelay()
	suggestionDelay, _ := cfg.SuggestionDelay()
	fx, err := fixture.Load(cfg.Fixture.Path, uuid.NewString, clock())
	if err != nil {
		logger.Error("fixture load failed", "fixture", cfg.Fixture.Path, "err", err)
		s.close(stderr)
		return nil, fmt.Errorf("load fixture: %w", err)
	}
	s.svc = app.NewService(fx.Tasks, fx.Fields, uuid.NewString, clock, app.ServiceConfig{
		SaveDelay:       saveDelay,
		SuggestionDelay: suggestionDelay,
		Logger:          logger.serviceLogger(),
	})
	logger.Info("task collection ready", "tasks", len(fx.Tasks), "custom_fields", len(fx.Fields))
	return s, nil
}

// close flushes the dev-file sink.
func (s *session) close(stderr io.Writer) {
	if closeErr := s.logger.Close(); closeErr != nil && s.logger.shouldLogToSink(s.logger.consoleSink) {
		_, _ = fmt.Fprintf(stderr, "warning: close runtime log sink: %v\n", closeErr)
	}
}

// resolveFixturePath picks flag > TASKSCOPE_FIXTURE > an existing per-user fixture > embedded
// seed (""). The bool reports whether the choice must override the config file.
func resolveFixturePath(flagPath, userPath string) (string, bool) {
	if p := strings.TrimSpace(flagPath); p != "" {
		return p, true
	}
	if p := strings.TrimSpace(os.Getenv("TASKSCOPE_FIXTURE")); p != "" {
		return p, true
	}
	if userPath != "" {
		if info, err := os.Stat(userPath); err == nil && !info.IsDir() {
			return userPath, false
		}
	}
	return "", false
}

// keyBindings maps the [keys] config section onto the TUI bindings.
func keyBindings(k config.KeyConfig) tui.KeyBindings {
	return tui.KeyBindings{
		NextView:   k.NextView,
		Select:     k.Select,
		SelectAll:  k.SelectAll,
		Drag:       k.Drag,
		BulkAction: k.BulkAction,
		Save:       k.Save,
	}
}

// ganttConfig maps the [gantt] config section onto the chart layout.
func ganttConfig(c config.GanttConfig) projection.GanttConfig {
	out := projection.DefaultGanttConfig()
	if g, ok := projection.ParseGranularity(c.Granularity); ok {
		out.Granularity = g
	}
	if c.DayWidth > 0 {
		out.DayWidth = c.DayWidth
	}
	if c.WeekWidth > 0 {
		out.WeekWidth = c.WeekWidth
	}
	if c.MonthWidth > 0 {
		out.MonthWidth = c.MonthWidth
	}
	if c.MinBarWidth > 0 {
		out.MinBarWidth = c.MinBarWidth
	}
	if c.PaddingDays >= 0 {
		out.PaddingDays = c.PaddingDays
	}
	return out
}

// currentActor names the local user for mutation logs.
func currentActor() string {
	if u, err := user.Current(); err == nil && strings.TrimSpace(u.Username) != "" {
		return u.Username
	}
	return "local"
}

// writeOutput writes content to stdout for "-" or to a file, creating parent dirs.
func writeOutput(stdout io.Writer, outPath, content string) error {
	if outPath == "" || outPath == "-" {
		if _, err := io.WriteString(stdout, content); err != nil {
			return fmt.Errorf("write to stdout: %w", err)
		}
		return nil
	}
	if err := os.MkdirAll(filepath.Dir(outPath), 0o755); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}
	if err := os.WriteFile(outPath, []byte(content), 0o644); err != nil {
		return fmt.Errorf("write output file: %w", err)
	}
	return nil
}

// parseBoolEnv parses a boolean environment variable, reporting whether it was set and valid.
func parseBoolEnv(name string) (bool, bool) {
	raw := strings.TrimSpace(os.Getenv(name))
	if raw == "" {
		return false, false
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		return false, false
	}
	return v, true
}
