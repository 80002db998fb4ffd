package projection

import (
	"math"
	"strings"
	"time"

	"github.com/hylla/taskscope/internal/domain"
	"github.com/hylla/taskscope/internal/hierarchy"
)

// Granularity is the gantt header period.
type Granularity string

// Granularity values.
const (
	GranularityDay   Granularity = "day"
	GranularityWeek  Granularity = "week"
	GranularityMonth Granularity = "month"
)

// ParseGranularity accepts day, week or month in any case.
func ParseGranularity(raw string) (Granularity, bool) {
	switch g := Granularity(strings.ToLower(strings.TrimSpace(raw))); g {
	case GranularityDay, GranularityWeek, GranularityMonth:
		return g, true
	default:
		return "", false
	}
}

// DaysPerUnit is the nominal length of one period.
func (g Granularity) DaysPerUnit() float64 {
	switch g {
	case GranularityWeek:
		return 7
	case GranularityMonth:
		return 30
	default:
		return 1
	}
}

// GanttConfig holds the layout constants.
type GanttConfig struct {
	Granularity      Granularity
	DayWidth         float64
	WeekWidth        float64
	MonthWidth       float64
	MinBarWidth      float64
	PaddingDays      int
	EmptyRangeMonths int
	IndentWidth      int
}

// DefaultGanttConfig returns the stock layout.
func DefaultGanttConfig() GanttConfig {
	return GanttConfig{
		Granularity:      GranularityDay,
		DayWidth:         40,
		WeekWidth:        80,
		MonthWidth:       120,
		MinBarWidth:      20,
		PaddingDays:      7,
		EmptyRangeMonths: 3,
		IndentWidth:      16,
	}
}

// UnitWidth returns the pixel width of one period at the active granularity.
func (c GanttConfig) UnitWidth() float64 {
	var w float64
	switch c.Granularity {
	case GranularityWeek:
		w = c.WeekWidth
	case GranularityMonth:
		w = c.MonthWidth
	default:
		w = c.DayWidth
	}
	if w <= 0 {
		w = 1
	}
	return w
}

// PixelsPerDay scales days into pixels.
func (c GanttConfig) PixelsPerDay() float64 {
	return c.UnitWidth() / c.Granularity.DaysPerUnit()
}

// Period is one header cell of the time axis.
type Period struct {
	Start time.Time
	Label string
	Left  float64
	Width float64
}

// Bar is one task row of the chart.
type Bar struct {
	TaskID          string
	Title           string
	Level           int
	Indent          int
	Status          domain.Status
	Priority        domain.Priority
	Start           time.Time
	End             time.Time
	DurationDays    float64
	Left            float64
	Width           float64
	DependencyCount int
	Overdue         bool
	// Progress is actual over estimated hours, capped at 1; zero without an estimate.
	Progress float64
}

// Gantt is the positioned chart.
type Gantt struct {
	Config     GanttConfig
	RangeStart time.Time
	RangeEnd   time.Time
	TotalDays  float64
	Width      float64
	Periods    []Period
	Bars       []Bar
	// TodayFraction is today's position over the range; TodayVisible is false when it falls outside.
	TodayFraction float64
	TodayLeft     float64
	TodayVisible  bool
}

// BuildGantt positions tasks on a shared time axis in hierarchy order.
func BuildGantt(tasks []domain.Task, cfg GanttConfig, now time.Time) Gantt {
	if _, ok := ParseGranularity(string(cfg.Granularity)); !ok {
		cfg.Granularity = GranularityDay
	}
	start, end := ganttRange(tasks, cfg, now)
	totalDays := math.Max(daysBetween(start, end), 1)
	ppd := cfg.PixelsPerDay()

	g := Gantt{
		Config:     cfg,
		RangeStart: start,
		RangeEnd:   end,
		TotalDays:  totalDays,
		Width:      totalDays * ppd,
	}
	axisEnd := end
	if !axisEnd.After(start) {
		axisEnd = start.AddDate(0, 0, 1)
	}
	g.Periods = buildPeriods(start, axisEnd, cfg)

	for _, node := range hierarchy.Build(tasks).Flatten() {
		task := node.Task
		taskStart := domain.TruncateDay(task.StartOrCreated())
		taskEnd := domain.TruncateDay(task.EndOrStart())
		duration := daysBetween(taskStart, taskEnd)
		bar := Bar{
			TaskID:          task.ID,
			Title:           task.Title,
			Level:           node.Level,
			Indent:          hierarchy.Indent(node.Level, cfg.IndentWidth),
			Status:          task.Status,
			Priority:        task.Priority,
			Start:           taskStart,
			End:             taskEnd,
			DurationDays:    duration,
			Left:            math.Max(daysBetween(start, taskStart)*ppd, 0),
			Width:           math.Max(duration*ppd, cfg.MinBarWidth),
			DependencyCount: len(task.Dependencies),
			Overdue:         task.IsOverdue(now),
		}
		if task.EstimatedHours > 0 {
			bar.Progress = math.Min(task.ActualHours/task.EstimatedHours, 1)
		}
		g.Bars = append(g.Bars, bar)
	}

	g.TodayFraction = daysBetween(start, now) / totalDays
	g.TodayVisible = g.TodayFraction >= 0 && g.TodayFraction <= 1
	g.TodayLeft = g.TodayFraction * g.Width
	return g
}

// Bar returns the bar for a task.
func (g Gantt) Bar(taskID string) (Bar, bool) {
	for _, bar := range g.Bars {
		if bar.TaskID == taskID {
			return bar, true
		}
	}
	return Bar{}, false
}

// PointerFraction converts a pointer x coordinate into a fraction of the chart width, clamped
// to [0, 1]. Pointer front ends feed it to a Drag[float64]; the TUI moves bars by day instead.
func PointerFraction(x, chartLeft, chartWidth float64) float64 {
	if chartWidth <= 0 {
		return 0
	}
	return clampFraction((x - chartLeft) / chartWidth)
}

// FractionOf returns where a date sits over the range.
func (g Gantt) FractionOf(t time.Time) float64 {
	return daysBetween(g.RangeStart, t) / math.Max(g.TotalDays, 1)
}

// StartAt returns the start date a pointer at fraction maps to.
func (g Gantt) StartAt(fraction float64) time.Time {
	offset := math.Floor(clampFraction(fraction) * math.Max(g.TotalDays, 1))
	return g.RangeStart.AddDate(0, 0, int(offset))
}

// DragTo moves a bar so it starts where the pointer is, keeping its duration, and returns the
// combined schedule patch. Dependencies are not consulted.
func (g Gantt) DragTo(taskID string, fraction float64) (domain.TaskPatch, bool) {
	bar, ok := g.Bar(taskID)
	if !ok {
		return domain.TaskPatch{}, false
	}
	start := g.StartAt(fraction)
	end := start.Add(bar.End.Sub(bar.Start))
	return domain.SchedulePatch(start, end), true
}

// CommitDrag turns a finished bar drag into a schedule patch. Drops that did not move produce
// nothing.
func (g Gantt) CommitDrag(drop DropResult[float64]) (domain.TaskPatch, bool) {
	if !drop.Moved() {
		return domain.TaskPatch{}, false
	}
	bar, ok := g.Bar(drop.TaskID)
	if !ok || g.StartAt(drop.Target).Equal(bar.Start) {
		return domain.TaskPatch{}, false
	}
	return g.DragTo(drop.TaskID, drop.Target)
}

func ganttRange(tasks []domain.Task, cfg GanttConfig, now time.Time) (time.Time, time.Time) {
	if len(tasks) == 0 {
		today := domain.TruncateDay(now)
		months := cfg.EmptyRangeMonths
		if months <= 0 {
			months = 3
		}
		return today, today.AddDate(0, months, 0)
	}
	var start, end time.Time
	for i, task := range tasks {
		s := domain.TruncateDay(task.StartOrCreated())
		e := domain.TruncateDay(task.EndOrStart())
		if s.After(e) {
			e = s
		}
		if i == 0 || s.Before(start) {
			start = s
		}
		if i == 0 || e.After(end) {
			end = e
		}
	}
	pad := max(cfg.PaddingDays, 0)
	return start.AddDate(0, 0, -pad), end.AddDate(0, 0, pad)
}

// buildPeriods lays the header out on the bar scale: each period is clipped to [start, end] and
// sized by the days it covers.
func buildPeriods(start, end time.Time, cfg GanttConfig) []Period {
	ppd := cfg.PixelsPerDay()
	next := func(p time.Time) time.Time { return p.AddDate(0, 0, 1) }
	first, layout := start, "2"
	switch cfg.Granularity {
	case GranularityMonth:
		first, layout = MonthStart(start), "Jan 2006"
		next = func(p time.Time) time.Time { return p.AddDate(0, 1, 0) }
	case GranularityWeek:
		layout = "Jan 2"
		next = func(p time.Time) time.Time { return p.AddDate(0, 0, 7) }
	}

	var out []Period
	for p := first; p.Before(end) || len(out) == 0; p = next(p) {
		from := p
		if from.Before(start) {
			from = start
		}
		to := next(p)
		if to.After(end) {
			to = end
		}
		out = append(out, Period{
			Start: p,
			Label: p.Format(layout),
			Left:  daysBetween(start, from) * ppd,
			Width: math.Max(daysBetween(from, to), 0) * ppd,
		})
	}
	return out
}

func daysBetween(a, b time.Time) float64 {
	return b.Sub(a).Hours() / 24
}

func clampFraction(f float64) float64 {
	switch {
	case math.IsNaN(f) || f < 0:
		return 0
	case f > 1:
		return 1
	default:
		return f
	}
}
