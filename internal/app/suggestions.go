package app

import (
	"context"
	"slices"
	"time"

	"github.com/hylla/taskscope/internal/domain"
)

// Suggestion is a canned task template offered by the suggestions panel.
type Suggestion struct {
	ID     string
	Title  string
	Reason string
	Input  domain.TaskInput
}

// CannedSuggestions returns a fixed list after Delay. Nothing is computed from the task set.
type CannedSuggestions struct {
	Delay time.Duration
}

// Suggestions implements SuggestionSource.
func (c CannedSuggestions) Suggestions(ctx context.Context) ([]Suggestion, error) {
	if err := sleepContext(ctx, c.Delay); err != nil {
		return nil, err
	}
	return slices.Clone(cannedSuggestions), nil
}

var cannedSuggestions = []Suggestion{
	{
		ID:     "review-overdue",
		Title:  "Review overdue tasks",
		Reason: "Several tasks have slipped past their due date.",
		Input: domain.TaskInput{
			Title:          "Review overdue tasks",
			Priority:       domain.PriorityHigh,
			Complexity:     domain.ComplexityLow,
			EstimatedHours: 1,
			Tags:           []string{"planning"},
		},
	},
	{
		ID:     "write-tests",
		Title:  "Add tests for recent changes",
		Reason: "Recently completed work has no follow-up test task.",
		Input: domain.TaskInput{
			Title:          "Add tests for recent changes",
			Priority:       domain.PriorityMedium,
			Complexity:     domain.ComplexityMedium,
			EstimatedHours: 4,
			StoryPoints:    3,
			Tags:           []string{"testing", "quality"},
		},
	},
	{
		ID:     "retro",
		Title:  "Schedule sprint retrospective",
		Reason: "The current sprint is ending soon.",
		Input: domain.TaskInput{
			Title:          "Schedule sprint retrospective",
			Priority:       domain.PriorityLow,
			Complexity:     domain.ComplexityLow,
			EstimatedHours: 0.5,
			Tags:           []string{"meeting"},
		},
	},
	{
		ID:     "unblock",
		Title:  "Triage blocked work",
		Reason: "Blocked tasks are holding up their dependents.",
		Input: domain.TaskInput{
			Title:          "Triage blocked work",
			Priority:       domain.PriorityUrgent,
			Complexity:     domain.ComplexityMedium,
			EstimatedHours: 2,
			Tags:           []string{"triage"},
		},
	},
}
