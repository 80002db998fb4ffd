package domain

import "time"

// ApprovalStage is one named step of an approval workflow.
type ApprovalStage struct {
	Name         string
	ApproverID   string
	ApproverName string
	Status       ApprovalStatus
	DecidedAt    *time.Time
}

// Attachment references a file attached to a task.
type Attachment struct {
	ID         string
	Name       string
	URL        string
	SizeBytes  int64
	UploadedAt time.Time
}

// Comment is a discussion entry on a task.
type Comment struct {
	ID         string
	AuthorID   string
	AuthorName string
	Body       string
	CreatedAt  time.Time
}

// TimeSession is one tracked work interval.
type TimeSession struct {
	Start time.Time
	End   time.Time
}

// TimeTracking accumulates logged work.
type TimeTracking struct {
	Total    time.Duration
	Sessions []TimeSession
}

// Duration returns the session length, or zero for open or inverted sessions.
func (s TimeSession) Duration() time.Duration {
	if s.End.Before(s.Start) {
		return 0
	}
	return s.End.Sub(s.Start)
}

func cloneApprovalStages(in []ApprovalStage) []ApprovalStage {
	if in == nil {
		return nil
	}
	out := make([]ApprovalStage, len(in))
	for i, stage := range in {
		if stage.DecidedAt != nil {
			ts := *stage.DecidedAt
			stage.DecidedAt = &ts
		}
		out[i] = stage
	}
	return out
}
