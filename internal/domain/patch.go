package domain

import (
	"strings"
	"time"
)

// TaskPatch is a partial update; nil fields are left untouched.
type TaskPatch struct {
	Title          *string
	Description    *string
	Status         *Status
	Priority       *Priority
	Complexity     *Complexity
	AssigneeID     *string
	AssigneeName   *string
	ProjectID      *string
	ProjectName    *string
	StartDate      *time.Time
	DueDate        *time.Time
	ClearStartDate bool
	ClearDueDate   bool
	EstimatedHours *float64
	ActualHours    *float64
	StoryPoints    *int
	ParentID       *string
	Tags           []string
	SetTags        bool
	ApprovalStatus *ApprovalStatus
	CustomFields   map[string]CustomFieldValue
}

// IsEmpty reports whether the patch changes nothing.
func (p TaskPatch) IsEmpty() bool {
	return p.Title == nil && p.Description == nil && p.Status == nil && p.Priority == nil &&
		p.Complexity == nil && p.AssigneeID == nil && p.AssigneeName == nil && p.ProjectID == nil &&
		p.ProjectName == nil && p.StartDate == nil && p.DueDate == nil && !p.ClearStartDate &&
		!p.ClearDueDate && p.EstimatedHours == nil && p.ActualHours == nil && p.StoryPoints == nil &&
		p.ParentID == nil && !p.SetTags && p.ApprovalStatus == nil && len(p.CustomFields) == 0
}

// Apply validates the patch against t and applies it atomically: on error t is unchanged.
func (t *Task) Apply(p TaskPatch, now time.Time) error {
	next := t.Clone()
	if p.Title != nil {
		title := strings.TrimSpace(*p.Title)
		if title == "" {
			return ErrInvalidTitle
		}
		next.Title = title
	}
	if p.Description != nil {
		next.Description = strings.TrimSpace(*p.Description)
	}
	if p.Status != nil {
		if !p.Status.IsValid() {
			return ErrInvalidStatus
		}
		next.Status = *p.Status
	}
	if p.Priority != nil {
		if !p.Priority.IsValid() {
			return ErrInvalidPriority
		}
		next.Priority = *p.Priority
	}
	if p.Complexity != nil {
		if !p.Complexity.IsValid() {
			return ErrInvalidComplexity
		}
		next.Complexity = *p.Complexity
	}
	if p.ApprovalStatus != nil {
		if !p.ApprovalStatus.IsValid() {
			return ErrInvalidApprovalStatus
		}
		next.ApprovalStatus = *p.ApprovalStatus
	}
	if p.AssigneeID != nil {
		next.AssigneeID = strings.TrimSpace(*p.AssigneeID)
	}
	if p.AssigneeName != nil {
		next.AssigneeName = strings.TrimSpace(*p.AssigneeName)
	}
	if p.ProjectID != nil {
		next.ProjectID = strings.TrimSpace(*p.ProjectID)
	}
	if p.ProjectName != nil {
		next.ProjectName = strings.TrimSpace(*p.ProjectName)
	}
	switch {
	case p.ClearStartDate:
		next.StartDate = nil
	case p.StartDate != nil:
		next.StartDate = normalizeDate(p.StartDate)
	}
	switch {
	case p.ClearDueDate:
		next.DueDate = nil
	case p.DueDate != nil:
		next.DueDate = normalizeDate(p.DueDate)
	}
	if p.EstimatedHours != nil {
		if *p.EstimatedHours < 0 {
			return ErrInvalidEffort
		}
		next.EstimatedHours = *p.EstimatedHours
	}
	if p.ActualHours != nil {
		if *p.ActualHours < 0 {
			return ErrInvalidEffort
		}
		next.ActualHours = *p.ActualHours
	}
	if p.StoryPoints != nil {
		if *p.StoryPoints < 0 {
			return ErrInvalidEffort
		}
		next.StoryPoints = *p.StoryPoints
	}
	if p.ParentID != nil {
		parentID := strings.TrimSpace(*p.ParentID)
		if parentID == next.ID {
			return ErrInvalidParentID
		}
		next.ParentID = parentID
	}
	if p.SetTags {
		next.Tags = NormalizeTags(p.Tags)
	}
	if len(p.CustomFields) > 0 {
		if next.CustomFields == nil {
			next.CustomFields = map[string]CustomFieldValue{}
		}
		for name, value := range p.CustomFields {
			name = strings.TrimSpace(name)
			if name == "" {
				return ErrInvalidFieldName
			}
			next.CustomFields[name] = value
		}
	}
	next.touch(now)
	*t = next
	return nil
}

// StatusPatch builds a patch that only changes the status.
func StatusPatch(status Status) TaskPatch {
	return TaskPatch{Status: &status}
}

// SchedulePatch builds a patch that moves both dates.
func SchedulePatch(start, due time.Time) TaskPatch {
	return TaskPatch{StartDate: &start, DueDate: &due}
}

// TagsPatch builds a patch that replaces the tag list.
func TagsPatch(tags []string) TaskPatch {
	return TaskPatch{Tags: tags, SetTags: true}
}
