package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	toml "github.com/pelletier/go-toml/v2"
)

type Config struct {
	Fixture  FixtureConfig  `toml:"fixture"`
	Table    TableConfig    `toml:"table"`
	Gantt    GanttConfig    `toml:"gantt"`
	Calendar CalendarConfig `toml:"calendar"`
	App      AppConfig      `toml:"app"`
	Logging  LoggingConfig  `toml:"logging"`
	Keys     KeyConfig      `toml:"keys"`
}

// FixtureConfig points at the YAML task fixture. An empty path uses the embedded seed.
type FixtureConfig struct {
	Path string `toml:"path"`
}

type TableConfig struct {
	PageSize int `toml:"page_size"`
}

type GanttConfig struct {
	Granularity string  `toml:"granularity"` // day | week | month
	DayWidth    float64 `toml:"day_width"`
	WeekWidth   float64 `toml:"week_width"`
	MonthWidth  float64 `toml:"month_width"`
	MinBarWidth float64 `toml:"min_bar_width"`
	PaddingDays int     `toml:"padding_days"`
	// CellWidth is how many pixels one terminal column stands for when the chart is drawn as text.
	CellWidth float64 `toml:"cell_width"`
}

type CalendarConfig struct {
	MaxPerCell int `toml:"max_per_cell"`
}

// AppConfig durations use time.ParseDuration syntax, e.g. "800ms".
type AppConfig struct {
	SaveDelay       string `toml:"save_delay"`
	SuggestionDelay string `toml:"suggestion_delay"`
}

type LoggingConfig struct {
	Level   string        `toml:"level"`
	DevFile DevFileConfig `toml:"dev_file"`
}

type DevFileConfig struct {
	Enabled bool   `toml:"enabled"`
	Dir     string `toml:"dir"`
}

type KeyConfig struct {
	NextView   string `toml:"next_view"`
	Select     string `toml:"select"`
	SelectAll  string `toml:"select_all"`
	Drag       string `toml:"drag"`
	BulkAction string `toml:"bulk_action"`
	Save       string `toml:"save"`
}

func Default(fixturePath string) Config {
	return Config{
		Fixture: FixtureConfig{
			Path: fixturePath,
		},
		Table: TableConfig{
			PageSize: 10,
		},
		Gantt: GanttConfig{
			Granularity: "day",
			DayWidth:    40,
			WeekWidth:   80,
			MonthWidth:  120,
			MinBarWidth: 20,
			PaddingDays: 7,
			CellWidth:   20,
		},
		Calendar: CalendarConfig{
			MaxPerCell: 3,
		},
		App: AppConfig{
			SaveDelay:       "800ms",
			SuggestionDelay: "1200ms",
		},
		Logging: LoggingConfig{
			Level: "info",
			DevFile: DevFileConfig{
				Enabled: false,
				Dir:     ".taskscope/log",
			},
		},
		Keys: KeyConfig{
			NextView:   "tab",
			Select:     "space",
			SelectAll:  "A",
			Drag:       "m",
			BulkAction: "b",
			Save:       "ctrl+s",
		},
	}
}

func Load(path string, defaults Config) (Config, error) {
	cfg := defaults
	if strings.TrimSpace(path) == "" {
		return cfg, nil
	}

	content, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return cfg, nil
		}
		return Config{}, fmt.Errorf("read config: %w", err)
	}
	if len(content) == 0 {
		return cfg, nil
	}

	if err := toml.Unmarshal(content, &cfg); err != nil {
		return Config{}, fmt.Errorf("decode toml: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

func (c Config) Validate() error {
	if c.Table.PageSize < 1 {
		return fmt.Errorf("table.page_size must be >= 1, got %d", c.Table.PageSize)
	}

	switch strings.TrimSpace(strings.ToLower(c.Gantt.Granularity)) {
	case "day", "week", "month":
	default:
		return fmt.Errorf("invalid gantt.granularity: %q", c.Gantt.Granularity)
	}
	for name, width := range map[string]float64{
		"gantt.day_width":     c.Gantt.DayWidth,
		"gantt.week_width":    c.Gantt.WeekWidth,
		"gantt.month_width":   c.Gantt.MonthWidth,
		"gantt.min_bar_width": c.Gantt.MinBarWidth,
		"gantt.cell_width":    c.Gantt.CellWidth,
	} {
		if width <= 0 {
			return fmt.Errorf("%s must be > 0", name)
		}
	}
	if c.Gantt.PaddingDays < 0 {
		return errors.New("gantt.padding_days must be >= 0")
	}

	if c.Calendar.MaxPerCell < 1 {
		return errors.New("calendar.max_per_cell must be >= 1")
	}

	if _, err := c.SaveDelay(); err != nil {
		return err
	}
	if _, err := c.SuggestionDelay(); err != nil {
		return err
	}

	switch strings.TrimSpace(strings.ToLower(c.Logging.Level)) {
	case "", "debug", "info", "warn", "error", "fatal":
	default:
		return fmt.Errorf("invalid logging.level: %q", c.Logging.Level)
	}

	seenKeys := map[string]string{}
	for name, binding := range map[string]string{
		"keys.next_view":   c.Keys.NextView,
		"keys.select":      c.Keys.Select,
		"keys.select_all":  c.Keys.SelectAll,
		"keys.drag":        c.Keys.Drag,
		"keys.bulk_action": c.Keys.BulkAction,
		"keys.save":        c.Keys.Save,
	} {
		binding = strings.TrimSpace(binding)
		if binding == "" {
			return fmt.Errorf("%s is required", name)
		}
		if other, ok := seenKeys[binding]; ok {
			return fmt.Errorf("%s duplicates %s: %q", name, other, binding)
		}
		seenKeys[binding] = name
	}

	return nil
}

// SaveDelay parses app.save_delay; empty means no delay.
func (c Config) SaveDelay() (time.Duration, error) {
	return parseDelay("app.save_delay", c.App.SaveDelay)
}

// SuggestionDelay parses app.suggestion_delay; empty means no delay.
func (c Config) SuggestionDelay() (time.Duration, error) {
	return parseDelay("app.suggestion_delay", c.App.SuggestionDelay)
}

func parseDelay(name, raw string) (time.Duration, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0, nil
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", name, err)
	}
	if d < 0 {
		return 0, fmt.Errorf("%s must be >= 0", name)
	}
	return d, nil
}

func EnsureConfigDir(path string) error {
	dir := filepath.Dir(path)
	if dir == "." || dir == "" {
		return nil
	}
	return os.MkdirAll(dir, 0o755)
}
