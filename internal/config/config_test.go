package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestDefaultConfig(t *testing.T) {
	cfg := Default("/tmp/tasks.yaml")
	if cfg.Fixture.Path != "/tmp/tasks.yaml" {
		t.Fatalf("unexpected fixture path %q", cfg.Fixture.Path)
	}
	if cfg.Table.PageSize != 10 {
		t.Fatalf("unexpected page size %d", cfg.Table.PageSize)
	}
	if cfg.Gantt.Granularity != "day" || cfg.Gantt.PaddingDays != 7 {
		t.Fatalf("unexpected gantt defaults %#v", cfg.Gantt)
	}
	if cfg.Calendar.MaxPerCell != 3 {
		t.Fatalf("unexpected max per cell %d", cfg.Calendar.MaxPerCell)
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Validate() error = %v", err)
	}
	if d, _ := cfg.SaveDelay(); d != 800*time.Millisecond {
		t.Fatalf("unexpected save delay %v", d)
	}
}

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	defaults := Default("/tmp/tasks.yaml")
	cfg, err := Load(filepath.Join(t.TempDir(), "missing.toml"), defaults)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Fixture.Path != defaults.Fixture.Path {
		t.Fatalf("expected default fixture path, got %q", cfg.Fixture.Path)
	}
}

func TestLoadFileOverridesDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	content := `
[fixture]
path = "/custom/tasks.yaml"

[table]
page_size = 25

[gantt]
granularity = "week"
padding_days = 3

[app]
save_delay = "0s"
suggestion_delay = "250ms"

[keys]
drag = "g"
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}

	cfg, err := Load(path, Default("/tmp/default.yaml"))
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Fixture.Path != "/custom/tasks.yaml" {
		t.Fatalf("unexpected fixture path %q", cfg.Fixture.Path)
	}
	if cfg.Table.PageSize != 25 {
		t.Fatalf("unexpected page size %d", cfg.Table.PageSize)
	}
	if cfg.Gantt.Granularity != "week" || cfg.Gantt.PaddingDays != 3 {
		t.Fatalf("unexpected gantt config %#v", cfg.Gantt)
	}
	if cfg.Gantt.DayWidth != 40 {
		t.Fatalf("expected untouched keys to keep defaults, got day_width %v", cfg.Gantt.DayWidth)
	}
	if d, _ := cfg.SuggestionDelay(); d != 250*time.Millisecond {
		t.Fatalf("unexpected suggestion delay %v", d)
	}
	if cfg.Keys.Drag != "g" {
		t.Fatalf("unexpected drag key %q", cfg.Keys.Drag)
	}
}

func TestLoadRejectsInvalidValues(t *testing.T) {
	cases := map[string]string{
		"granularity": "[gantt]\ngranularity = \"fortnight\"\n",
		"page size":   "[table]\npage_size = 0\n",
		"delay":       "[app]\nsave_delay = \"soon\"\n",
		"negative":    "[app]\nsuggestion_delay = \"-1s\"\n",
		"bar width":   "[gantt]\nmin_bar_width = 0\n",
		"per cell":    "[calendar]\nmax_per_cell = 0\n",
		"log level":   "[logging]\nlevel = \"loud\"\n",
		"key clash":   "[keys]\ndrag = \"b\"\n",
	}
	for name, content := range cases {
		t.Run(name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "config.toml")
			if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
				t.Fatalf("WriteFile() error = %v", err)
			}
			if _, err := Load(path, Default("/tmp/default.yaml")); err == nil {
				t.Fatalf("expected error for %s", strings.TrimSpace(content))
			}
		})
	}
}

func TestEnsureConfigDir(t *testing.T) {
	target := filepath.Join(t.TempDir(), "a", "b", "config.toml")
	if err := EnsureConfigDir(target); err != nil {
		t.Fatalf("EnsureConfigDir() error = %v", err)
	}
	if _, err := os.Stat(filepath.Dir(target)); err != nil {
		t.Fatalf("expected dir to exist, stat error %v", err)
	}
}
