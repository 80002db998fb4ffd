package app

import (
	"context"
	"fmt"
	"io"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"

	"github.com/hylla/taskscope/internal/domain"
	"github.com/hylla/taskscope/internal/projection"
	"github.com/hylla/taskscope/internal/table"
)

// IDGenerator returns unique identifiers for new entities.
type IDGenerator func() string

// Clock returns the current time.
type Clock func() time.Time

// ServiceConfig holds configuration for service.
type ServiceConfig struct {
	SaveDelay       time.Duration
	SuggestionDelay time.Duration
	Saver           Saver
	Suggestions     SuggestionSource
	Logger          *log.Logger
}

// Service owns the task collection and the selection. Every mutation is applied in full under
// the lock before it returns, so readers never observe a partial update.
type Service struct {
	mu       sync.Mutex
	tasks    []domain.Task
	fields   []domain.CustomField
	selected []string
	dirty    bool

	idGen       IDGenerator
	clock       Clock
	saver       Saver
	suggestions SuggestionSource
	logger      *log.Logger
}

// NewService builds a service over an explicit task collection and custom-field schema. Tasks
// with a repeated id after the first are dropped.
func NewService(tasks []domain.Task, fields []domain.CustomField, idGen IDGenerator, clock Clock, cfg ServiceConfig) *Service {
	if idGen == nil {
		idGen = uuid.NewString
	}
	if clock == nil {
		clock = time.Now
	}
	if cfg.Saver == nil {
		cfg.Saver = DelaySaver{Delay: cfg.SaveDelay}
	}
	if cfg.Suggestions == nil {
		cfg.Suggestions = CannedSuggestions{Delay: cfg.SuggestionDelay}
	}
	if cfg.Logger == nil {
		cfg.Logger = log.New(io.Discard)
	}

	owned := make([]domain.Task, 0, len(tasks))
	seen := make(map[string]struct{}, len(tasks))
	for _, task := range tasks {
		if _, ok := seen[task.ID]; ok {
			cfg.Logger.Warn("dropping duplicate task id", "task_id", task.ID)
			continue
		}
		seen[task.ID] = struct{}{}
		owned = append(owned, task.Clone())
	}

	return &Service{
		tasks:       owned,
		fields:      slices.Clone(fields),
		idGen:       idGen,
		clock:       clock,
		saver:       cfg.Saver,
		suggestions: cfg.Suggestions,
		logger:      cfg.Logger,
	}
}

// Tasks returns a deep copy of the collection in order.
func (s *Service) Tasks() []domain.Task {
	s.mu.Lock()
	defer s.mu.Unlock()
	return cloneTasks(s.tasks)
}

// Task returns one task by id.
func (s *Service) Task(id string) (domain.Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.indexOf(id)
	if i < 0 {
		return domain.Task{}, fmt.Errorf("task %q: %w", id, ErrNotFound)
	}
	return s.tasks[i].Clone(), nil
}

// CustomFields returns the custom-field schema.
func (s *Service) CustomFields() []domain.CustomField {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.fields)
}

// Filtered returns the tasks matching f in collection order.
func (s *Service) Filtered(f projection.Filter) []domain.Task {
	return f.Apply(s.Tasks())
}

// Selected returns the current selection.
func (s *Service) Selected() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.selected)
}

// SelectAll reports the header checkbox state against the whole collection.
func (s *Service) SelectAll() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return table.SelectAllState(s.selected, s.idsLocked())
}

// Dirty reports whether there are mutations since the last successful save.
func (s *Service) Dirty() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.dirty
}

// Now returns the service clock reading.
func (s *Service) Now() time.Time {
	return s.clock()
}

// SelectTasks replaces the selection. Unknown and repeated ids are dropped so the selection
// stays a subset of the known ids.
func (s *Service) SelectTasks(ids []string) []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	next := make([]string, 0, len(ids))
	for _, id := range ids {
		id = strings.TrimSpace(id)
		if s.indexOf(id) < 0 || slices.Contains(next, id) {
			continue
		}
		next = append(next, id)
	}
	s.selected = next
	return slices.Clone(next)
}

// CreateTask adds a task at the end of the collection. An empty id is generated. When the parent
// exists its subtask cache gains the new id.
func (s *Service) CreateTask(ctx context.Context, in domain.TaskInput) (domain.Task, error) {
	if err := ctx.Err(); err != nil {
		return domain.Task{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if strings.TrimSpace(in.ID) == "" {
		in.ID = s.idGen()
	}
	if s.indexOf(strings.TrimSpace(in.ID)) >= 0 {
		return domain.Task{}, fmt.Errorf("create task %q: %w", in.ID, ErrDuplicateID)
	}
	now := s.clock()
	task, err := domain.NewTask(in, now)
	if err != nil {
		return domain.Task{}, fmt.Errorf("create task: %w", err)
	}
	linkSubtask(s.tasks, task)
	s.tasks = append(s.tasks, task)
	s.dirty = true
	s.logger.Debug("task created", "task_id", task.ID, "parent_id", task.ParentID, "actor", actorLogValue(ctx))
	return task.Clone(), nil
}

// UpdateTask applies a partial update to one task and stamps UpdatedAt.
func (s *Service) UpdateTask(ctx context.Context, id string, patch domain.TaskPatch) (domain.Task, error) {
	if err := ctx.Err(); err != nil {
		return domain.Task{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.indexOf(id)
	if i < 0 {
		return domain.Task{}, fmt.Errorf("update task %q: %w", id, ErrNotFound)
	}
	task := s.tasks[i].Clone()
	if err := task.Apply(patch, s.clock()); err != nil {
		return domain.Task{}, fmt.Errorf("update task %q: %w", id, err)
	}
	s.tasks[i] = task
	s.dirty = true
	s.logger.Debug("task updated", "task_id", id, "actor", actorLogValue(ctx))
	return task.Clone(), nil
}

// DeleteTask removes one task and drops it from the selection. Children and references held by
// other tasks are left as they are.
func (s *Service) DeleteTask(ctx context.Context, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.indexOf(id)
	if i < 0 {
		return fmt.Errorf("delete task %q: %w", id, ErrNotFound)
	}
	s.tasks = slices.Delete(s.tasks, i, i+1)
	s.selected = slices.DeleteFunc(s.selected, func(sel string) bool { return sel == id })
	s.dirty = true
	s.logger.Debug("task deleted", "task_id", id, "actor", actorLogValue(ctx))
	return nil
}

// ExecuteNamed parses the string form of a bulk operation and executes it.
func (s *Service) ExecuteNamed(ctx context.Context, name string, ids []string, data map[string]string) (BulkResult, error) {
	op, err := ParseOperation(name, data)
	if err != nil {
		return BulkResult{}, err
	}
	return s.Execute(ctx, op, ids)
}

// Execute applies op to exactly the tasks named by ids. The whole operation commits or none of
// it does. The selection is cleared afterwards.
func (s *Service) Execute(ctx context.Context, op BulkOperation, ids []string) (BulkResult, error) {
	if op == nil {
		return BulkResult{}, ErrUnknownOperation
	}
	if err := ctx.Err(); err != nil {
		return BulkResult{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	result := BulkResult{Operation: op.Name()}
	targets := make(map[string]bool, len(ids))
	for _, id := range ids {
		id = strings.TrimSpace(id)
		if id == "" || targets[id] {
			continue
		}
		if s.indexOf(id) < 0 {
			result.Missing = append(result.Missing, id)
			continue
		}
		targets[id] = true
	}

	now := s.clock()
	next := make([]domain.Task, 0, len(s.tasks))
	switch op := op.(type) {
	case DeleteOp:
		for _, task := range s.tasks {
			if targets[task.ID] {
				result.Deleted = append(result.Deleted, task.ID)
				continue
			}
			next = append(next, task)
		}
	case CloneOp:
		taken := make(map[string]bool, len(s.tasks))
		for _, task := range s.tasks {
			taken[task.ID] = true
		}
		for _, task := range s.tasks {
			next = append(next, task)
			if !targets[task.ID] {
				continue
			}
			newID := s.idGen()
			if taken[newID] || strings.TrimSpace(newID) == "" {
				return BulkResult{}, fmt.Errorf("clone task %q: %w", task.ID, ErrDuplicateID)
			}
			taken[newID] = true
			dup, err := task.Duplicate(newID, op.TitleSuffix, now)
			if err != nil {
				return BulkResult{}, fmt.Errorf("clone task %q: %w", task.ID, err)
			}
			next = append(next, dup)
			result.Created = append(result.Created, dup.ID)
		}
		for _, id := range result.Created {
			for _, task := range next {
				if task.ID == id {
					linkSubtask(next, task)
					break
				}
			}
		}
	default:
		for _, task := range s.tasks {
			if !targets[task.ID] {
				next = append(next, task)
				continue
			}
			patch, ok := bulkPatch(op, task)
			if !ok {
				return BulkResult{}, fmt.Errorf("%w: %q", ErrUnknownOperation, op.Name())
			}
			updated := task.Clone()
			if err := updated.Apply(patch, now); err != nil {
				return BulkResult{}, fmt.Errorf("%s task %q: %w", op.Name(), task.ID, err)
			}
			next = append(next, updated)
			result.Updated = append(result.Updated, task.ID)
		}
	}

	s.tasks = next
	s.selected = nil
	if len(result.Updated)+len(result.Created)+len(result.Deleted) > 0 {
		s.dirty = true
	}
	s.logger.Info("bulk operation applied",
		"operation", op.Name(),
		"updated", len(result.Updated),
		"created", len(result.Created),
		"deleted", len(result.Deleted),
		"missing", len(result.Missing),
		"actor", actorLogValue(ctx),
	)
	return result, nil
}

// Save hands the collection to the saver and blocks until it finishes or ctx ends. The dirty
// flag is only cleared when nothing changed while saving.
func (s *Service) Save(ctx context.Context) error {
	s.mu.Lock()
	snapshot := cloneTasks(s.tasks)
	s.dirty = false
	s.mu.Unlock()

	if err := s.saver.Save(ctx, snapshot); err != nil {
		s.mu.Lock()
		s.dirty = true
		s.mu.Unlock()
		return fmt.Errorf("save tasks: %w", err)
	}
	s.logger.Info("tasks saved", "count", len(snapshot), "actor", actorLogValue(ctx))
	return nil
}

// Suggestions fetches the canned task suggestions.
func (s *Service) Suggestions(ctx context.Context) ([]Suggestion, error) {
	out, err := s.suggestions.Suggestions(ctx)
	if err != nil {
		return nil, fmt.Errorf("load suggestions: %w", err)
	}
	return out, nil
}

// AcceptSuggestion creates a task from a suggestion template.
func (s *Service) AcceptSuggestion(ctx context.Context, suggestion Suggestion) (domain.Task, error) {
	in := suggestion.Input
	if strings.TrimSpace(in.Title) == "" {
		in.Title = suggestion.Title
	}
	in.ID = ""
	return s.CreateTask(ctx, in)
}

func (s *Service) indexOf(id string) int {
	if id == "" {
		return -1
	}
	return slices.IndexFunc(s.tasks, func(task domain.Task) bool { return task.ID == id })
}

func (s *Service) idsLocked() []string {
	out := make([]string, len(s.tasks))
	for i, task := range s.tasks {
		out[i] = task.ID
	}
	return out
}

func cloneTasks(tasks []domain.Task) []domain.Task {
	out := make([]domain.Task, len(tasks))
	for i, task := range tasks {
		out[i] = task.Clone()
	}
	return out
}

// linkSubtask records child in its parent's Subtasks list when the parent is in tasks.
func linkSubtask(tasks []domain.Task, child domain.Task) {
	parentID := strings.TrimSpace(child.ParentID)
	if parentID == "" || parentID == child.ID {
		return
	}
	for i, parent := range tasks {
		if parent.ID != parentID {
			continue
		}
		if !slices.Contains(parent.Subtasks, child.ID) {
			parent.Subtasks = append(slices.Clone(parent.Subtasks), child.ID)
			tasks[i] = parent
		}
		return
	}
}
