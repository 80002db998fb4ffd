package app

import (
	"context"
	"time"

	"github.com/hylla/taskscope/internal/domain"
)

// Saver receives the committed collection when the user saves.
type Saver interface {
	Save(context.Context, []domain.Task) error
}

// SuggestionSource supplies task templates for the suggestions panel.
type SuggestionSource interface {
	Suggestions(context.Context) ([]Suggestion, error)
}

// DelaySaver stands in for a remote store: it waits Delay and always succeeds unless ctx ends first.
type DelaySaver struct {
	Delay time.Duration
}

// Save implements Saver.
func (d DelaySaver) Save(ctx context.Context, _ []domain.Task) error {
	return sleepContext(ctx, d.Delay)
}

// sleepContext waits for d or until ctx is done.
func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
