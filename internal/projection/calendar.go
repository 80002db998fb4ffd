package projection

import (
	"time"

	"github.com/hylla/taskscope/internal/domain"
)

// DefaultMaxPerCell is how many entries a calendar cell lists before its overflow count.
const DefaultMaxPerCell = 3

// CalendarEntry is one task shown inside a day cell.
type CalendarEntry struct {
	ID             string
	Title          string
	Priority       domain.Priority
	Assignee       string
	EstimatedHours float64
	Overdue        bool
}

// Cell is one day of the month grid. Cells outside the displayed month carry no entries.
type Cell struct {
	Date     time.Time
	InMonth  bool
	IsToday  bool
	Entries  []CalendarEntry
	Overflow int
}

// Month is a 6x7 grid starting on Sunday.
type Month struct {
	First time.Time
	Weeks [][]Cell
}

// BuildMonth buckets tasks by date-truncated due date into the month containing month.
// Tasks without a due date, or due in another month, are absent from the grid.
func BuildMonth(tasks []domain.Task, month, now time.Time, maxPerCell int) Month {
	if maxPerCell < 1 {
		maxPerCell = DefaultMaxPerCell
	}
	first := MonthStart(month)
	byDay := map[string][]domain.Task{}
	for _, task := range tasks {
		if task.DueDate == nil {
			continue
		}
		day := domain.TruncateDay(*task.DueDate)
		if day.Year() != first.Year() || day.Month() != first.Month() {
			continue
		}
		key := day.Format(time.DateOnly)
		byDay[key] = append(byDay[key], task)
	}

	start := first.AddDate(0, 0, -int(first.Weekday()))
	weeks := make([][]Cell, 6)
	for w := range weeks {
		weeks[w] = make([]Cell, 7)
		for d := range weeks[w] {
			date := start.AddDate(0, 0, w*7+d)
			cell := Cell{
				Date:    date,
				InMonth: date.Month() == first.Month(),
				IsToday: domain.SameDay(date, now),
			}
			if cell.InMonth {
				due := byDay[date.Format(time.DateOnly)]
				shown := min(len(due), maxPerCell)
				cell.Entries = make([]CalendarEntry, 0, shown)
				for _, task := range due[:shown] {
					cell.Entries = append(cell.Entries, CalendarEntry{
						ID:             task.ID,
						Title:          task.Title,
						Priority:       task.Priority,
						Assignee:       task.AssigneeName,
						EstimatedHours: task.EstimatedHours,
						Overdue:        task.IsOverdue(now),
					})
				}
				cell.Overflow = len(due) - shown
			}
			weeks[w][d] = cell
		}
	}
	return Month{First: first, Weeks: weeks}
}

// MonthStart returns midnight UTC on the first day of t's month.
func MonthStart(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC)
}

// ShiftMonth moves the displayed month by delta months.
func ShiftMonth(month time.Time, delta int) time.Time {
	return MonthStart(month).AddDate(0, delta, 0)
}

// Cell returns the grid cell for date, if the grid shows it.
func (m Month) Cell(date time.Time) (Cell, bool) {
	day := domain.TruncateDay(date)
	for _, week := range m.Weeks {
		for _, cell := range week {
			if cell.Date.Equal(day) {
				return cell, true
			}
		}
	}
	return Cell{}, false
}
