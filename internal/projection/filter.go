// Package projection derives the list, kanban, calendar and gantt layouts from a task snapshot.
// Projections never mutate their input; edits come back out as domain.TaskPatch values.
package projection

import (
	"slices"
	"strings"

	"github.com/hylla/taskscope/internal/domain"
)

// Filter narrows a task collection. Empty members match everything.
type Filter struct {
	Query       string
	Statuses    []domain.Status
	Priorities  []domain.Priority
	AssigneeIDs []string
}

// IsZero reports whether the filter matches every task.
func (f Filter) IsZero() bool {
	return strings.TrimSpace(f.Query) == "" && len(f.Statuses) == 0 && len(f.Priorities) == 0 && len(f.AssigneeIDs) == 0
}

// Apply returns the matching tasks in input order.
func (f Filter) Apply(tasks []domain.Task) []domain.Task {
	out := make([]domain.Task, 0, len(tasks))
	for _, task := range tasks {
		if f.Match(task) {
			out = append(out, task)
		}
	}
	return out
}

// Match reports whether one task passes the filter. The query is matched case-insensitively
// against title, description, tags and assignee name.
func (f Filter) Match(task domain.Task) bool {
	if len(f.Statuses) > 0 && !slices.Contains(f.Statuses, task.Status) {
		return false
	}
	if len(f.Priorities) > 0 && !slices.Contains(f.Priorities, task.Priority) {
		return false
	}
	if len(f.AssigneeIDs) > 0 && !slices.Contains(f.AssigneeIDs, task.AssigneeID) {
		return false
	}
	query := strings.ToLower(strings.TrimSpace(f.Query))
	if query == "" {
		return true
	}
	if strings.Contains(strings.ToLower(task.Title), query) ||
		strings.Contains(strings.ToLower(task.Description), query) ||
		strings.Contains(strings.ToLower(task.AssigneeName), query) {
		return true
	}
	for _, tag := range task.Tags {
		if strings.Contains(strings.ToLower(tag), query) {
			return true
		}
	}
	return false
}
