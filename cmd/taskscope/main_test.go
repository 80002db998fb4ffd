package main

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	tea "charm.land/bubbletea/v2"

	"github.com/hylla/taskscope/internal/config"
	"github.com/hylla/taskscope/internal/projection"
	"github.com/hylla/taskscope/internal/tui"
)

// testNow pins the CLI clock so relative fixture dates and overdue marks are stable.
var testNow = time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)

// TestMain sets deterministic environment defaults for CLI tests.
func TestMain(m *testing.M) {
	_ = os.Setenv("TASKSCOPE_DEV_MODE", "false")
	_ = os.Unsetenv("TASKSCOPE_CONFIG")
	_ = os.Unsetenv("TASKSCOPE_FIXTURE")
	clock = func() time.Time { return testNow }
	os.Exit(m.Run())
}

// fakeProgram represents fake program data used by this package.
type fakeProgram struct {
	runErr error
}

// Run runs the requested command flow.
func (f fakeProgram) Run() (tea.Model, error) {
	return nil, f.runErr
}

// scriptedProgram feeds messages to the model instead of reading a terminal.
type scriptedProgram struct {
	model tea.Model
	runFn func(tea.Model) (tea.Model, error)
}

// Run runs scripted model interactions and returns the final state.
func (p scriptedProgram) Run() (tea.Model, error) {
	if p.runFn == nil {
		return p.model, nil
	}
	return p.runFn(p.model)
}

const testFixture = `
custom_fields:
  - id: cf-sprint
    name: sprint
    label: Sprint
    type: number
tasks:
  - id: t-root
    title: Launch site
    status: in-progress
    priority: high
    assignee: {id: u-ada, name: Ada}
    start_date: 2026-03-02
    due_date: 2026-03-20
    subtasks: [t-child]
    tags: [web]
    custom_fields:
      sprint: 4
  - id: t-child
    title: Write copy
    parent_id: t-root
    status: todo
    priority: low
    due_date: 2026-03-05
  - id: t-blocked
    title: Rotate keys
    status: blocked
    priority: urgent
    due_date: 2026-04-02
`

// isolate points every per-user path at a temp dir and returns a fixture path inside it.
func isolate(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("HOME", dir)
	t.Setenv("XDG_CONFIG_HOME", filepath.Join(dir, "config"))
	t.Setenv("XDG_DATA_HOME", filepath.Join(dir, "data"))
	path := filepath.Join(dir, "tasks.yaml")
	if err := os.WriteFile(path, []byte(testFixture), 0o644); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}
	return path
}

// execute runs the command tree with args and returns captured output.
func execute(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	root := newRootCommand(&stdout, &stderr)
	root.SetArgs(args)
	err := root.ExecuteContext(context.Background())
	return stdout.String(), stderr.String(), err
}

// withProgram swaps the program factory for the test.
func withProgram(t *testing.T, factory func(tea.Model) program) {
	t.Helper()
	orig := programFactory
	programFactory = factory
	t.Cleanup(func() { programFactory = orig })
}

// TestRunStartsProgram verifies the bare command launches the TUI with the loaded collection.
func TestRunStartsProgram(t *testing.T) {
	fixturePath := isolate(t)
	var started tea.Model
	withProgram(t, func(m tea.Model) program {
		started = m
		return fakeProgram{}
	})

	if _, _, err := execute(t, "--fixture", fixturePath); err != nil {
		t.Fatalf("execute() error = %v", err)
	}
	if started == nil {
		t.Fatal("expected program to be started")
	}
	if _, ok := started.(tui.Model); !ok {
		t.Fatalf("expected tui.Model, got %T", started)
	}
}

// TestRunTUIScriptedSession verifies the model is wired to a live service.
func TestRunTUIScriptedSession(t *testing.T) {
	fixturePath := isolate(t)
	var final tea.Model
	withProgram(t, func(m tea.Model) program {
		return scriptedProgram{model: m, runFn: func(model tea.Model) (tea.Model, error) {
			model, _ = model.Update(tea.WindowSizeMsg{Width: 120, Height: 40})
			model, _ = model.Update(tea.KeyPressMsg{Code: 'A', Text: "A"})
			final = model
			return model, nil
		}}
	})

	if _, _, err := execute(t, "--fixture", fixturePath); err != nil {
		t.Fatalf("execute() error = %v", err)
	}
	if final == nil {
		t.Fatal("expected scripted run")
	}
	if v := final.(tui.Model).View(); v.Content == nil {
		t.Fatal("expected rendered view content")
	}
}

// TestRunProgramError verifies program failures are wrapped.
func TestRunProgramError(t *testing.T) {
	fixturePath := isolate(t)
	withProgram(t, func(tea.Model) program { return fakeProgram{runErr: errors.New("boom")} })

	_, _, err := execute(t, "--fixture", fixturePath)
	if err == nil || !strings.Contains(err.Error(), "run tui program") {
		t.Fatalf("expected wrapped program error, got %v", err)
	}
}

// TestRunUnknownCommand verifies stray arguments are rejected.
func TestRunUnknownCommand(t *testing.T) {
	isolate(t)
	if _, _, err := execute(t, "bogus"); err == nil {
		t.Fatal("expected unknown command error")
	}
}

// TestRunPathsCommand verifies resolved paths are printed.
func TestRunPathsCommand(t *testing.T) {
	isolate(t)
	out, _, err := execute(t, "paths", "--app", "scope-test")
	if err != nil {
		t.Fatalf("execute() error = %v", err)
	}
	for _, want := range []string{"app: scope-test", "dev_mode: false", "config: ", "fixture: ", "export: "} {
		if !strings.Contains(out, want) {
			t.Fatalf("expected %q in paths output, got %q", want, out)
		}
	}
	if !strings.Contains(out, filepath.Join("scope-test", "config.toml")) {
		t.Fatalf("expected app-scoped config path, got %q", out)
	}
}

// TestRenderTable verifies filtering, sorting and paging of the table view.
func TestRenderTable(t *testing.T) {
	fixturePath := isolate(t)
	out, _, err := execute(t, "render", "table", "--fixture", fixturePath, "--sort", "-title")
	if err != nil {
		t.Fatalf("execute() error = %v", err)
	}
	write, rotate, launch := strings.Index(out, "Write copy"), strings.Index(out, "Rotate keys"), strings.Index(out, "Launch site")
	if write < 0 || rotate < 0 || launch < 0 {
		t.Fatalf("expected every title, got %q", out)
	}
	if !(write < rotate && rotate < launch) {
		t.Fatalf("expected descending title order, got %q", out)
	}
	if !strings.Contains(out, "2026-03-05!") {
		t.Fatalf("expected overdue mark on the child, got %q", out)
	}

	out, _, err = execute(t, "render", "table", "--fixture", fixturePath, "--status", "blocked,done")
	if err != nil {
		t.Fatalf("execute() error = %v", err)
	}
	if !strings.Contains(out, "Rotate keys") || strings.Contains(out, "Launch site") {
		t.Fatalf("expected status filter, got %q", out)
	}
}

// TestRenderViews verifies every projection prints.
func TestRenderViews(t *testing.T) {
	fixturePath := isolate(t)
	cases := []struct {
		args []string
		want []string
	}{
		{args: []string{"list"}, want: []string{"Launch site", "Rotate keys"}},
		{args: []string{"list", "--expand"}, want: []string{"Write copy"}},
		{args: []string{"kanban"}, want: []string{"In Progress", "Blocked", "Launch site"}},
		{args: []string{"calendar", "--month", "2026-04"}, want: []string{"April 2026", "Rotate keys"}},
		{args: []string{"gantt", "--granularity", "week"}, want: []string{"Launch site", "Write copy"}},
		{args: []string{"list", "--query", "rotate"}, want: []string{"Rotate keys"}},
	}
	for _, tc := range cases {
		args := append([]string{"render"}, tc.args...)
		args = append(args, "--fixture", fixturePath)
		out, _, err := execute(t, args...)
		if err != nil {
			t.Fatalf("render %v error = %v", tc.args, err)
		}
		for _, want := range tc.want {
			if !strings.Contains(out, want) {
				t.Fatalf("render %v: expected %q in %q", tc.args, want, out)
			}
		}
	}
}

// TestRenderRejectsBadInput verifies argument and flag validation.
func TestRenderRejectsBadInput(t *testing.T) {
	fixturePath := isolate(t)
	cases := [][]string{
		{"render", "timeline"},
		{"render"},
		{"render", "table", "--status", "someday"},
		{"render", "table", "--priority", "meh"},
		{"render", "table", "--sort", "tags"},
		{"render", "calendar", "--month", "March"},
		{"render", "gantt", "--granularity", "year"},
	}
	for _, args := range cases {
		args = append(args, "--fixture", fixturePath)
		if _, _, err := execute(t, args...); err == nil {
			t.Fatalf("expected error for %v", args)
		}
	}
}

// TestExportICSWritesFile verifies the ICS export writes one event per dated task.
func TestExportICSWritesFile(t *testing.T) {
	fixturePath := isolate(t)
	outPath := filepath.Join(t.TempDir(), "nested", "tasks.ics")
	if _, _, err := execute(t, "export-ics", "--fixture", fixturePath, "--out", outPath); err != nil {
		t.Fatalf("execute() error = %v", err)
	}
	content, err := os.ReadFile(outPath)
	if err != nil {
		t.Fatalf("ReadFile() error = %v", err)
	}
	text := string(content)
	if !strings.HasPrefix(text, "BEGIN:VCALENDAR") {
		t.Fatalf("unexpected ics header %q", text)
	}
	if got := strings.Count(text, "BEGIN:VEVENT"); got != 3 {
		t.Fatalf("expected 3 events, got %d", got)
	}
	if !strings.Contains(text, "SUMMARY:Launch site") {
		t.Fatalf("expected summary line, got %q", text)
	}

	stdout, _, err := execute(t, "export-ics", "--fixture", fixturePath)
	if err != nil {
		t.Fatalf("execute() error = %v", err)
	}
	if !strings.Contains(stdout, "END:VCALENDAR") {
		t.Fatalf("expected ics on stdout, got %q", stdout)
	}
}

// TestFixtureAndConfigEnvOverrides verifies TASKSCOPE_FIXTURE and TASKSCOPE_CONFIG.
func TestFixtureAndConfigEnvOverrides(t *testing.T) {
	fixturePath := isolate(t)
	configPath := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(configPath, []byte("[table]\npage_size = 1\n"), 0o644); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}
	t.Setenv("TASKSCOPE_FIXTURE", fixturePath)
	t.Setenv("TASKSCOPE_CONFIG", configPath)

	out, _, err := execute(t, "render", "table", "--sort", "title")
	if err != nil {
		t.Fatalf("execute() error = %v", err)
	}
	if !strings.Contains(out, "Launch site") || strings.Contains(out, "Write copy") {
		t.Fatalf("expected one-row first page from env config, got %q", out)
	}
}

// TestRenderUsesEmbeddedSeed verifies the seed loads when no fixture is configured.
func TestRenderUsesEmbeddedSeed(t *testing.T) {
	isolate(t)
	out, _, err := execute(t, "render", "kanban")
	if err != nil {
		t.Fatalf("execute() error = %v", err)
	}
	if !strings.Contains(out, "Launch marketing site") {
		t.Fatalf("expected seed tasks, got %q", out)
	}
}

// TestRunRejectsInvalidLoggingLevelFromConfig verifies config validation stops startup.
func TestRunRejectsInvalidLoggingLevelFromConfig(t *testing.T) {
	fixturePath := isolate(t)
	configPath := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(configPath, []byte("[logging]\nlevel = \"loud\"\n"), 0o644); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}
	_, _, err := execute(t, "render", "list", "--config", configPath, "--fixture", fixturePath)
	if err == nil || !strings.Contains(err.Error(), "load config") {
		t.Fatalf("expected config error, got %v", err)
	}
}

// TestRunMissingFixtureFails verifies a bad fixture path is reported.
func TestRunMissingFixtureFails(t *testing.T) {
	isolate(t)
	_, _, err := execute(t, "render", "list", "--fixture", filepath.Join(t.TempDir(), "missing.yaml"))
	if err == nil || !strings.Contains(err.Error(), "load fixture") {
		t.Fatalf("expected fixture error, got %v", err)
	}
}

// TestRunDevModeCreatesWorkspaceLogFile verifies dev mode writes the runtime log file.
func TestRunDevModeCreatesWorkspaceLogFile(t *testing.T) {
	fixturePath := isolate(t)
	logDir := filepath.Join(t.TempDir(), "logs")
	configPath := filepath.Join(t.TempDir(), "config.toml")
	content := "[logging]\nlevel = \"debug\"\n[logging.dev_file]\nenabled = true\ndir = \"" + filepath.ToSlash(logDir) + "\"\n"
	if err := os.WriteFile(configPath, []byte(content), 0o644); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}
	withProgram(t, func(tea.Model) program { return fakeProgram{} })

	_, stderr, err := execute(t, "--dev", "--config", configPath, "--fixture", fixturePath)
	if err != nil {
		t.Fatalf("execute() error = %v", err)
	}
	if stderr != "" {
		t.Fatalf("expected muted console during tui, got %q", stderr)
	}
	logPath := filepath.Join(logDir, "taskscope-"+testNow.Format("20060102")+".log")
	data, err := os.ReadFile(logPath)
	if err != nil {
		t.Fatalf("ReadFile(%s) error = %v", logPath, err)
	}
	if !strings.Contains(string(data), "task collection ready") {
		t.Fatalf("expected startup events in dev log, got %q", data)
	}
}

// TestRuntimeLoggerCanMuteConsoleSink verifies the console toggle.
func TestRuntimeLoggerCanMuteConsoleSink(t *testing.T) {
	var console bytes.Buffer
	cfg := config.Default("").Logging

	logger, err := newRuntimeLogger(&console, "taskscope", false, cfg, func() time.Time { return testNow })
	if err != nil {
		t.Fatalf("newRuntimeLogger() error = %v", err)
	}
	logger.Info("before")
	logger.SetConsoleEnabled(false)
	logger.Info("during")
	if logger.serviceLogger() != nil {
		t.Fatal("expected no service sink while the console is muted")
	}
	logger.SetConsoleEnabled(true)
	logger.Info("after")

	out := console.String()
	if !strings.Contains(out, "before") || strings.Contains(out, "during") || !strings.Contains(out, "after") {
		t.Fatalf("unexpected console output %q", out)
	}
}

// TestWorkspaceRootFromUsesNearestMarker verifies marker discovery.
func TestWorkspaceRootFromUsesNearestMarker(t *testing.T) {
	root := t.TempDir()
	if err := os.WriteFile(filepath.Join(root, "go.mod"), []byte("module x\n"), 0o644); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}
	nested := filepath.Join(root, "a", "b")
	if err := os.MkdirAll(nested, 0o755); err != nil {
		t.Fatalf("MkdirAll() error = %v", err)
	}
	if got := workspaceRootFrom(nested); got != root {
		t.Fatalf("expected %q, got %q", root, got)
	}
}

// TestSanitizeLogFileStem verifies file-name normalization.
func TestSanitizeLogFileStem(t *testing.T) {
	cases := map[string]string{
		"":              "taskscope",
		" / ":           "taskscope",
		"task scope":    "task-scope",
		"team/ops:prod": "team-ops-prod",
	}
	for in, want := range cases {
		if got := sanitizeLogFileStem(in); got != want {
			t.Fatalf("sanitizeLogFileStem(%q) = %q, want %q", in, got, want)
		}
	}
}

// TestParseBoolEnv verifies env boolean parsing.
func TestParseBoolEnv(t *testing.T) {
	t.Setenv("TASKSCOPE_BOOL_TEST", "true")
	got, ok := parseBoolEnv("TASKSCOPE_BOOL_TEST")
	if !ok || !got {
		t.Fatalf("expected true bool env parse, got value=%t ok=%t", got, ok)
	}
	t.Setenv("TASKSCOPE_BOOL_TEST", "not-bool")
	if _, ok := parseBoolEnv("TASKSCOPE_BOOL_TEST"); ok {
		t.Fatal("expected invalid bool env to return ok=false")
	}
}

// TestConfigMapping verifies config sections map onto the TUI and chart settings.
func TestConfigMapping(t *testing.T) {
	cfg := config.Default("")
	cfg.Gantt.Granularity = "Week"
	cfg.Gantt.DayWidth = 12
	cfg.Gantt.PaddingDays = 2
	g := ganttConfig(cfg.Gantt)
	if g.Granularity != projection.GranularityWeek || g.DayWidth != 12 || g.PaddingDays != 2 {
		t.Fatalf("unexpected gantt config %#v", g)
	}

	cfg.Keys.Drag = "d"
	kb := keyBindings(cfg.Keys)
	if kb.Drag != "d" || kb.Select != "space" || kb.Save != "ctrl+s" {
		t.Fatalf("unexpected key bindings %#v", kb)
	}
}
