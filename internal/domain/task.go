package domain

import (
	"strings"
	"time"
)

// Task is the unit of work projected by every view.
type Task struct {
	ID          string
	Title       string
	Description string

	Status     Status
	Priority   Priority
	Complexity Complexity

	AssigneeID   string
	AssigneeName string
	ProjectID    string
	ProjectName  string

	CreatedAt time.Time
	UpdatedAt time.Time
	StartDate *time.Time
	DueDate   *time.Time

	EstimatedHours float64
	ActualHours    float64
	StoryPoints    int

	// ParentID is the authoritative hierarchy edge; Subtasks is a denormalized cache that may drift.
	ParentID     string
	Subtasks     []string
	Dependencies []string
	BlockedBy    []string

	Tags         []string
	CustomFields map[string]CustomFieldValue

	ApprovalStatus   ApprovalStatus
	ApprovalWorkflow []ApprovalStage

	Attachments  []Attachment
	Comments     []Comment
	TimeTracking TimeTracking
}

// TaskInput holds write-time values for NewTask.
type TaskInput struct {
	ID               string
	Title            string
	Description      string
	Status           Status
	Priority         Priority
	Complexity       Complexity
	AssigneeID       string
	AssigneeName     string
	ProjectID        string
	ProjectName      string
	StartDate        *time.Time
	DueDate          *time.Time
	EstimatedHours   float64
	ActualHours      float64
	StoryPoints      int
	ParentID         string
	Subtasks         []string
	Dependencies     []string
	BlockedBy        []string
	Tags             []string
	CustomFields     map[string]CustomFieldValue
	ApprovalStatus   ApprovalStatus
	ApprovalWorkflow []ApprovalStage
	Attachments      []Attachment
	Comments         []Comment
	TimeTracking     TimeTracking
}

// NewTask validates input, applies defaults and stamps both timestamps with now.
func NewTask(in TaskInput, now time.Time) (Task, error) {
	in.ID = strings.TrimSpace(in.ID)
	in.Title = strings.TrimSpace(in.Title)
	if in.ID == "" {
		return Task{}, ErrInvalidID
	}
	if in.Title == "" {
		return Task{}, ErrInvalidTitle
	}

	if in.Status == "" {
		in.Status = StatusTodo
	}
	if in.Priority == "" {
		in.Priority = PriorityMedium
	}
	if in.Complexity == "" {
		in.Complexity = ComplexityMedium
	}
	if in.ApprovalStatus == "" {
		in.ApprovalStatus = ApprovalNotRequired
	}
	if !in.Status.IsValid() {
		return Task{}, ErrInvalidStatus
	}
	if !in.Priority.IsValid() {
		return Task{}, ErrInvalidPriority
	}
	if !in.Complexity.IsValid() {
		return Task{}, ErrInvalidComplexity
	}
	if !in.ApprovalStatus.IsValid() {
		return Task{}, ErrInvalidApprovalStatus
	}
	if in.EstimatedHours < 0 || in.ActualHours < 0 || in.StoryPoints < 0 {
		return Task{}, ErrInvalidEffort
	}

	ts := now.UTC()
	return Task{
		ID:               in.ID,
		Title:            in.Title,
		Description:      strings.TrimSpace(in.Description),
		Status:           in.Status,
		Priority:         in.Priority,
		Complexity:       in.Complexity,
		AssigneeID:       strings.TrimSpace(in.AssigneeID),
		AssigneeName:     strings.TrimSpace(in.AssigneeName),
		ProjectID:        strings.TrimSpace(in.ProjectID),
		ProjectName:      strings.TrimSpace(in.ProjectName),
		CreatedAt:        ts,
		UpdatedAt:        ts,
		StartDate:        normalizeDate(in.StartDate),
		DueDate:          normalizeDate(in.DueDate),
		EstimatedHours:   in.EstimatedHours,
		ActualHours:      in.ActualHours,
		StoryPoints:      in.StoryPoints,
		ParentID:         strings.TrimSpace(in.ParentID),
		Subtasks:         normalizeStringList(in.Subtasks),
		Dependencies:     normalizeStringList(in.Dependencies),
		BlockedBy:        normalizeStringList(in.BlockedBy),
		Tags:             NormalizeTags(in.Tags),
		CustomFields:     cloneCustomFields(in.CustomFields),
		ApprovalStatus:   in.ApprovalStatus,
		ApprovalWorkflow: cloneApprovalStages(in.ApprovalWorkflow),
		Attachments:      append([]Attachment(nil), in.Attachments...),
		Comments:         append([]Comment(nil), in.Comments...),
		TimeTracking: TimeTracking{
			Total:    in.TimeTracking.Total,
			Sessions: append([]TimeSession(nil), in.TimeTracking.Sessions...),
		},
	}, nil
}

// IsOverdue reports whether the due date has passed while the task is not completed.
func (t Task) IsOverdue(now time.Time) bool {
	if t.DueDate == nil || t.Status == StatusCompleted {
		return false
	}
	return t.DueDate.Before(now)
}

// StartOrCreated returns the start date, falling back to the creation time.
func (t Task) StartOrCreated() time.Time {
	if t.StartDate != nil {
		return *t.StartDate
	}
	return t.CreatedAt
}

// EndOrStart returns the due date, falling back to StartOrCreated.
func (t Task) EndOrStart() time.Time {
	if t.DueDate != nil {
		return *t.DueDate
	}
	return t.StartOrCreated()
}

// Clone returns a deep copy.
func (t Task) Clone() Task {
	out := t
	out.StartDate = copyTime(t.StartDate)
	out.DueDate = copyTime(t.DueDate)
	out.Subtasks = append([]string(nil), t.Subtasks...)
	out.Dependencies = append([]string(nil), t.Dependencies...)
	out.BlockedBy = append([]string(nil), t.BlockedBy...)
	out.Tags = append([]string(nil), t.Tags...)
	out.CustomFields = cloneCustomFields(t.CustomFields)
	out.ApprovalWorkflow = cloneApprovalStages(t.ApprovalWorkflow)
	out.Attachments = append([]Attachment(nil), t.Attachments...)
	out.Comments = append([]Comment(nil), t.Comments...)
	out.TimeTracking.Sessions = append([]TimeSession(nil), t.TimeTracking.Sessions...)
	return out
}

// Duplicate derives a fresh todo copy under a new id. Collaboration history and the
// subtask cache are not carried over; the parent link is.
func (t Task) Duplicate(newID, titleSuffix string, now time.Time) (Task, error) {
	newID = strings.TrimSpace(newID)
	if newID == "" {
		return Task{}, ErrInvalidID
	}
	out := t.Clone()
	out.ID = newID
	out.Title = strings.TrimSpace(t.Title + titleSuffix)
	out.Status = StatusTodo
	out.ActualHours = 0
	out.Subtasks = nil
	out.Attachments = nil
	out.Comments = nil
	out.TimeTracking = TimeTracking{}
	if out.ApprovalStatus != ApprovalNotRequired {
		out.ApprovalStatus = ApprovalPending
	}
	for i := range out.ApprovalWorkflow {
		out.ApprovalWorkflow[i].Status = ApprovalPending
		out.ApprovalWorkflow[i].DecidedAt = nil
	}
	ts := now.UTC()
	out.CreatedAt = ts
	out.UpdatedAt = ts
	return out, nil
}

// touch stamps UpdatedAt, keeping it strictly increasing even when the clock stalls.
func (t *Task) touch(now time.Time) {
	ts := now.UTC()
	if !ts.After(t.UpdatedAt) {
		ts = t.UpdatedAt.Add(time.Nanosecond)
	}
	t.UpdatedAt = ts
}

// TruncateDay drops the time-of-day in UTC.
func TruncateDay(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// SameDay reports whether a and b fall on the same UTC calendar day.
func SameDay(a, b time.Time) bool {
	return TruncateDay(a).Equal(TruncateDay(b))
}

func normalizeDate(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	ts := t.UTC().Truncate(time.Second)
	return &ts
}

func copyTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	ts := *t
	return &ts
}
