package domain

import (
	"slices"
	"strings"
)

// Status identifies where a task sits in its lifecycle.
type Status string

// Status values.
const (
	StatusTodo       Status = "todo"
	StatusInProgress Status = "in-progress"
	StatusCompleted  Status = "completed"
	StatusBlocked    Status = "blocked"
	StatusCancelled  Status = "cancelled"
)

// Statuses lists every status in display order.
var Statuses = []Status{StatusTodo, StatusInProgress, StatusCompleted, StatusBlocked, StatusCancelled}

// Priority ranks task urgency.
type Priority string

// Priority values.
const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
	PriorityUrgent Priority = "urgent"
)

// Priorities lists every priority from lowest to highest.
var Priorities = []Priority{PriorityLow, PriorityMedium, PriorityHigh, PriorityUrgent}

// Complexity is a coarse effort estimate.
type Complexity string

// Complexity values.
const (
	ComplexityLow    Complexity = "low"
	ComplexityMedium Complexity = "medium"
	ComplexityHigh   Complexity = "high"
)

var validComplexities = []Complexity{ComplexityLow, ComplexityMedium, ComplexityHigh}

// ApprovalStatus tracks sign-off on a task. It is independent of any ApprovalStage status.
type ApprovalStatus string

// ApprovalStatus values.
const (
	ApprovalNotRequired ApprovalStatus = "not-required"
	ApprovalPending     ApprovalStatus = "pending"
	ApprovalApproved    ApprovalStatus = "approved"
	ApprovalRejected    ApprovalStatus = "rejected"
)

var validApprovalStatuses = []ApprovalStatus{ApprovalNotRequired, ApprovalPending, ApprovalApproved, ApprovalRejected}

// IsValid reports whether s is a known status.
func (s Status) IsValid() bool {
	return slices.Contains(Statuses, s)
}

// Label returns a human readable status name.
func (s Status) Label() string {
	switch s {
	case StatusTodo:
		return "To Do"
	case StatusInProgress:
		return "In Progress"
	case StatusCompleted:
		return "Completed"
	case StatusBlocked:
		return "Blocked"
	case StatusCancelled:
		return "Cancelled"
	default:
		return string(s)
	}
}

// IsValid reports whether p is a known priority.
func (p Priority) IsValid() bool {
	return slices.Contains(Priorities, p)
}

// Rank orders priorities from low (0) to urgent (3); unknown values rank -1.
func (p Priority) Rank() int {
	return slices.Index(Priorities, p)
}

// IsValid reports whether c is a known complexity.
func (c Complexity) IsValid() bool {
	return slices.Contains(validComplexities, c)
}

// IsValid reports whether a is a known approval status.
func (a ApprovalStatus) IsValid() bool {
	return slices.Contains(validApprovalStatuses, a)
}

// NormalizeStatus canonicalizes status aliases such as "done" or "in_progress".
func NormalizeStatus(raw string) Status {
	switch normalizeToken(raw) {
	case "todo", "to-do":
		return StatusTodo
	case "in-progress", "progress", "doing":
		return StatusInProgress
	case "completed", "complete", "done":
		return StatusCompleted
	case "blocked":
		return StatusBlocked
	case "cancelled", "canceled":
		return StatusCancelled
	default:
		return Status(normalizeToken(raw))
	}
}

// NormalizePriority canonicalizes a priority token.
func NormalizePriority(raw string) Priority {
	switch token := normalizeToken(raw); token {
	case "critical":
		return PriorityUrgent
	default:
		return Priority(token)
	}
}

// NormalizeApprovalStatus canonicalizes an approval token.
func NormalizeApprovalStatus(raw string) ApprovalStatus {
	switch token := normalizeToken(raw); token {
	case "none", "not-needed":
		return ApprovalNotRequired
	default:
		return ApprovalStatus(token)
	}
}

// normalizeToken lowercases, trims and maps separators to dashes.
func normalizeToken(raw string) string {
	token := strings.ToLower(strings.TrimSpace(raw))
	return strings.NewReplacer("_", "-", " ", "-").Replace(token)
}
