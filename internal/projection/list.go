package projection

import (
	"slices"
	"time"

	"github.com/hylla/taskscope/internal/domain"
	"github.com/hylla/taskscope/internal/hierarchy"
	"github.com/hylla/taskscope/internal/table"
)

// maxBadgeTags caps the tags shown on a row or card before an overflow count.
const maxBadgeTags = 2

// FieldValue is a custom field resolved against its schema entry.
type FieldValue struct {
	Name  string
	Label string
	Value string
}

// ListRow is one visible line of the nested list.
type ListRow struct {
	ID          string
	Level       int
	HasChildren bool
	Expanded    bool
	Selected    bool

	StatusIcon string
	Status     domain.Status
	Title      string
	Priority   domain.Priority

	Tags        []string
	TagOverflow int

	Assignee string
	Due      *time.Time
	Overdue  bool

	EstimatedHours float64
	StoryPoints    int

	Dependencies int
	Comments     int
	Attachments  int

	CustomFields []FieldValue
	// Approval is empty when approval is not required.
	Approval domain.ApprovalStatus
}

// ListView is the nested list plus its header checkbox state.
type ListView struct {
	Rows      []ListRow
	SelectAll bool
}

// BuildList lays tasks out in nested mode, revealing children only for expanded ids.
func BuildList(tasks []domain.Task, schema []domain.CustomField, expanded map[string]bool, selected []string, now time.Time) ListView {
	tree := hierarchy.Build(tasks)
	nodes := tree.Visible(expanded)
	picked := make(map[string]bool, len(selected))
	for _, id := range selected {
		picked[id] = true
	}
	rows := make([]ListRow, 0, len(nodes))
	for _, node := range nodes {
		task := node.Task
		tags, overflow := badgeTags(task.Tags)
		row := ListRow{
			ID:             task.ID,
			Level:          node.Level,
			HasChildren:    node.HasChildren,
			Expanded:       node.Expanded,
			Selected:       picked[task.ID],
			StatusIcon:     StatusIcon(task.Status),
			Status:         task.Status,
			Title:          task.Title,
			Priority:       task.Priority,
			Tags:           tags,
			TagOverflow:    overflow,
			Assignee:       task.AssigneeName,
			Due:            task.DueDate,
			Overdue:        task.IsOverdue(now),
			EstimatedHours: task.EstimatedHours,
			StoryPoints:    task.StoryPoints,
			Dependencies:   len(task.Dependencies),
			Comments:       len(task.Comments),
			Attachments:    len(task.Attachments),
			CustomFields:   ResolveCustomFields(task, schema),
		}
		if task.ApprovalStatus != domain.ApprovalNotRequired {
			row.Approval = task.ApprovalStatus
		}
		rows = append(rows, row)
	}
	return ListView{
		Rows:      rows,
		SelectAll: table.SelectAllState(knownSelection(tasks, picked), taskIDs(tasks)),
	}
}

// ResolveCustomFields returns the task's stored values that have a schema entry in scope, in
// schema order. Values without a schema entry are omitted.
func ResolveCustomFields(task domain.Task, schema []domain.CustomField) []FieldValue {
	if len(task.CustomFields) == 0 {
		return nil
	}
	var out []FieldValue
	for _, field := range schema {
		if !field.AppliesTo(task.ProjectID) {
			continue
		}
		value, ok := task.CustomFields[field.Name]
		if !ok {
			continue
		}
		out = append(out, FieldValue{Name: field.Name, Label: field.Label, Value: value.String()})
	}
	return out
}

// StatusIcon maps a status to its list glyph.
func StatusIcon(status domain.Status) string {
	switch status {
	case domain.StatusTodo:
		return "○"
	case domain.StatusInProgress:
		return "◐"
	case domain.StatusCompleted:
		return "●"
	case domain.StatusBlocked:
		return "⊘"
	case domain.StatusCancelled:
		return "✕"
	default:
		return "?"
	}
}

// ToggleSelection flips one id and returns the new full selection.
func ToggleSelection(selected []string, id string) []string {
	if i := slices.Index(selected, id); i >= 0 {
		return slices.Delete(slices.Clone(selected), i, i+1)
	}
	return append(slices.Clone(selected), id)
}

// ToggleSelectAll selects every task, or clears the selection when all are already selected.
func ToggleSelectAll(selected []string, tasks []domain.Task) []string {
	all := taskIDs(tasks)
	picked := make(map[string]bool, len(selected))
	for _, id := range selected {
		picked[id] = true
	}
	if table.SelectAllState(knownSelection(tasks, picked), all) {
		return []string{}
	}
	return all
}

func badgeTags(tags []string) ([]string, int) {
	if len(tags) <= maxBadgeTags {
		return slices.Clone(tags), 0
	}
	return slices.Clone(tags[:maxBadgeTags]), len(tags) - maxBadgeTags
}

func taskIDs(tasks []domain.Task) []string {
	out := make([]string, 0, len(tasks))
	for _, task := range tasks {
		out = append(out, task.ID)
	}
	return out
}

// knownSelection keeps only selected ids that name a task in the collection.
func knownSelection(tasks []domain.Task, picked map[string]bool) []string {
	out := make([]string, 0, len(picked))
	for _, task := range tasks {
		if picked[task.ID] {
			out = append(out, task.ID)
		}
	}
	return out
}
