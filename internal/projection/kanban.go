package projection

import (
	"slices"
	"time"

	"github.com/hylla/taskscope/internal/domain"
)

// KanbanStatuses is the fixed board column order.
var KanbanStatuses = []domain.Status{
	domain.StatusTodo,
	domain.StatusInProgress,
	domain.StatusCompleted,
	domain.StatusBlocked,
}

// Card is the reduced-density task badge shown on the board.
type Card struct {
	ID             string
	Title          string
	Priority       domain.Priority
	Tags           []string
	TagOverflow    int
	Assignee       string
	Due            *time.Time
	Overdue        bool
	EstimatedHours float64
	Comments       int
	Attachments    int
}

// KanbanColumn holds the cards of one status in filter order.
type KanbanColumn struct {
	Status domain.Status
	Title  string
	Cards  []Card
}

// Kanban is the board. Hidden counts tasks whose status has no column.
type Kanban struct {
	Columns []KanbanColumn
	Hidden  int
}

// BuildKanban places every task in the column matching its status.
func BuildKanban(tasks []domain.Task, now time.Time) Kanban {
	board := Kanban{Columns: make([]KanbanColumn, len(KanbanStatuses))}
	index := make(map[domain.Status]int, len(KanbanStatuses))
	for i, status := range KanbanStatuses {
		board.Columns[i] = KanbanColumn{Status: status, Title: status.Label(), Cards: []Card{}}
		index[status] = i
	}
	for _, task := range tasks {
		i, ok := index[task.Status]
		if !ok {
			board.Hidden++
			continue
		}
		tags, overflow := badgeTags(task.Tags)
		board.Columns[i].Cards = append(board.Columns[i].Cards, Card{
			ID:             task.ID,
			Title:          task.Title,
			Priority:       task.Priority,
			Tags:           tags,
			TagOverflow:    overflow,
			Assignee:       task.AssigneeName,
			Due:            task.DueDate,
			Overdue:        task.IsOverdue(now),
			EstimatedHours: task.EstimatedHours,
			Comments:       len(task.Comments),
			Attachments:    len(task.Attachments),
		})
	}
	return board
}

// Locate returns the column and card index of a task.
func (k Kanban) Locate(taskID string) (int, int, bool) {
	for c, col := range k.Columns {
		for r, card := range col.Cards {
			if card.ID == taskID {
				return c, r, true
			}
		}
	}
	return -1, -1, false
}

// DropStatusChange turns a finished board drag into a status patch. Drops onto the origin column
// or onto something that is not a board column produce nothing.
func DropStatusChange(drop DropResult[domain.Status]) (domain.TaskPatch, bool) {
	if !drop.Moved() || !slices.Contains(KanbanStatuses, drop.Target) {
		return domain.TaskPatch{}, false
	}
	return domain.StatusPatch(drop.Target), true
}
