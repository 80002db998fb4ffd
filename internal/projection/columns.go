package projection

import (
	"cmp"
	"fmt"
	"strings"
	"time"

	"github.com/hylla/taskscope/internal/domain"
	"github.com/hylla/taskscope/internal/table"
)

// Task table column keys.
const (
	ColumnTitle    = "title"
	ColumnStatus   = "status"
	ColumnPriority = "priority"
	ColumnAssignee = "assignee"
	ColumnProject  = "project"
	ColumnDue      = "due"
	ColumnEstimate = "estimate"
	ColumnPoints   = "points"
	ColumnTags     = "tags"
	ColumnUpdated  = "updated"
)

// TaskColumns describes the flat task table. Priority sorts by rank rather than by name.
func TaskColumns(now time.Time) []table.Column[domain.Task] {
	return []table.Column[domain.Task]{
		{
			Key: ColumnTitle, Title: "Title", Sortable: true, Width: 32,
			Value: func(t domain.Task) any { return t.Title },
		},
		{
			Key: ColumnStatus, Title: "Status", Sortable: true, Width: 14,
			Value: func(t domain.Task) any { return string(t.Status) },
			Render: func(_ any, t domain.Task, _ int) string {
				return StatusIcon(t.Status) + " " + t.Status.Label()
			},
		},
		{
			Key: ColumnPriority, Title: "Priority", Sortable: true, Width: 9,
			Value: func(t domain.Task) any { return string(t.Priority) },
			Compare: func(a, b domain.Task) int {
				return cmp.Compare(a.Priority.Rank(), b.Priority.Rank())
			},
		},
		{
			Key: ColumnAssignee, Title: "Assignee", Sortable: true, Width: 12,
			Value: func(t domain.Task) any { return t.AssigneeName },
		},
		{
			Key: ColumnProject, Title: "Project", Sortable: true, Width: 12,
			Value: func(t domain.Task) any { return t.ProjectName },
		},
		{
			Key: ColumnDue, Title: "Due", Sortable: true, Width: 11,
			Value: func(t domain.Task) any { return t.DueDate },
			Render: func(v any, t domain.Task, _ int) string {
				out := table.FormatValue(v)
				if t.IsOverdue(now) {
					out += "!"
				}
				return out
			},
		},
		{
			Key: ColumnEstimate, Title: "Est", Sortable: true, Width: 6,
			Value: func(t domain.Task) any { return t.EstimatedHours },
			Render: func(_ any, t domain.Task, _ int) string {
				if t.EstimatedHours == 0 {
					return ""
				}
				return fmt.Sprintf("%gh", t.EstimatedHours)
			},
		},
		{
			Key: ColumnPoints, Title: "Pts", Sortable: true, Width: 4,
			Value: func(t domain.Task) any { return t.StoryPoints },
		},
		{
			Key: ColumnTags, Title: "Tags", Width: 18,
			Value: func(t domain.Task) any { return strings.Join(t.Tags, ",") },
			Render: func(_ any, t domain.Task, _ int) string {
				return FormatTags(t.Tags)
			},
		},
		{
			Key: ColumnUpdated, Title: "Updated", Sortable: true, Width: 11,
			Value: func(t domain.Task) any { return t.UpdatedAt },
		},
	}
}

// NewTaskTable builds the task table with the standard columns.
func NewTaskTable(tasks []domain.Task, pageSize int, now time.Time) *table.Table[domain.Task] {
	t := table.New(TaskColumns(now), pageSize)
	t.EmptyState = "No tasks match the current filter."
	t.SetRows(tasks)
	return t
}

// FormatTags renders tag badges with the shared overflow cap, e.g. "#ops #web +1".
func FormatTags(tags []string) string {
	shown, overflow := badgeTags(tags)
	parts := make([]string, 0, len(shown)+1)
	for _, tag := range shown {
		parts = append(parts, "#"+tag)
	}
	if overflow > 0 {
		parts = append(parts, fmt.Sprintf("+%d", overflow))
	}
	return strings.Join(parts, " ")
}
