package tui

import (
	"time"

	"github.com/hylla/taskscope/internal/app"
	"github.com/hylla/taskscope/internal/projection"
)

type Option func(*Model)

// WithKeyBindings overrides the configurable keys.
func WithKeyBindings(kb KeyBindings) Option {
	return func(m *Model) {
		m.keys = newKeyMap(kb)
	}
}

func WithPageSize(size int) Option {
	return func(m *Model) {
		if size > 0 {
			m.pageSize = size
		}
	}
}

// WithGantt sets the chart scale. cellWidth is how many pixels one terminal column stands for.
func WithGantt(cfg projection.GanttConfig, cellWidth float64) Option {
	return func(m *Model) {
		m.ganttCfg = cfg
		if cellWidth > 0 {
			m.cellWidth = cellWidth
		}
	}
}

func WithMaxPerCell(n int) Option {
	return func(m *Model) {
		if n > 0 {
			m.maxPerCell = n
		}
	}
}

// WithClipboard replaces the system clipboard writer.
func WithClipboard(write func(string) error) Option {
	return func(m *Model) {
		if write != nil {
			m.copy = write
		}
	}
}

// WithSaveTimeout bounds how long a save may run before it is cancelled.
func WithSaveTimeout(d time.Duration) Option {
	return func(m *Model) {
		if d > 0 {
			m.saveTimeout = d
		}
	}
}

// WithActor attributes every mutation issued from the UI to id.
func WithActor(id string) Option {
	return func(m *Model) {
		m.actor = app.MutationActor{ActorID: id, ActorType: app.ActorTypeUser}
	}
}
