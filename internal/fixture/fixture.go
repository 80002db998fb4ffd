// Package fixture decodes the YAML task collection and custom-field schema injected at startup.
package fixture

import (
	"bytes"
	_ "embed"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"

	"github.com/hylla/taskscope/internal/domain"
)

//go:embed seed.yaml
var seedYAML []byte

// ErrInvalidDate reports a date field that could not be parsed.
var ErrInvalidDate = errors.New("invalid date")

// Fixture is the decoded inbound data.
type Fixture struct {
	Tasks  []domain.Task
	Fields []domain.CustomField
}

// Document is the on-disk YAML shape.
type Document struct {
	CustomFields []FieldRecord `yaml:"custom_fields"`
	Tasks        []TaskRecord  `yaml:"tasks"`
}

// FieldRecord is one custom-field schema entry.
type FieldRecord struct {
	ID        string   `yaml:"id"`
	ProjectID string   `yaml:"project_id"`
	Name      string   `yaml:"name"`
	Label     string   `yaml:"label"`
	Type      string   `yaml:"type"`
	Options   []string `yaml:"options"`
	Required  bool     `yaml:"required"`
}

// Ref is an id plus display name pair.
type Ref struct {
	ID   string `yaml:"id"`
	Name string `yaml:"name"`
}

// TaskRecord is one task. Dates accept YYYY-MM-DD, RFC 3339, or "today", "today+N", "today-N".
type TaskRecord struct {
	ID               string          `yaml:"id"`
	Title            string          `yaml:"title"`
	Description      string          `yaml:"description"`
	Status           string          `yaml:"status"`
	Priority         string          `yaml:"priority"`
	Complexity       string          `yaml:"complexity"`
	Assignee         Ref             `yaml:"assignee"`
	Project          Ref             `yaml:"project"`
	CreatedAt        string          `yaml:"created_at"`
	StartDate        string          `yaml:"start_date"`
	DueDate          string          `yaml:"due_date"`
	EstimatedHours   float64         `yaml:"estimated_hours"`
	ActualHours      float64         `yaml:"actual_hours"`
	StoryPoints      int             `yaml:"story_points"`
	ParentID         string          `yaml:"parent_id"`
	Subtasks         []string        `yaml:"subtasks"`
	Dependencies     []string        `yaml:"dependencies"`
	BlockedBy        []string        `yaml:"blocked_by"`
	Tags             []string        `yaml:"tags"`
	CustomFields     map[string]any  `yaml:"custom_fields"`
	ApprovalStatus   string          `yaml:"approval_status"`
	ApprovalWorkflow []StageRecord   `yaml:"approval_workflow"`
	Attachments      []AttachRecord  `yaml:"attachments"`
	Comments         []CommentRecord `yaml:"comments"`
	TimeTracking     TrackingRecord  `yaml:"time_tracking"`
}

// StageRecord is one approval stage.
type StageRecord struct {
	Name      string `yaml:"name"`
	Approver  Ref    `yaml:"approver"`
	Status    string `yaml:"status"`
	DecidedAt string `yaml:"decided_at"`
}

// AttachRecord is one attachment.
type AttachRecord struct {
	ID         string `yaml:"id"`
	Name       string `yaml:"name"`
	URL        string `yaml:"url"`
	SizeBytes  int64  `yaml:"size_bytes"`
	UploadedAt string `yaml:"uploaded_at"`
}

// CommentRecord is one comment.
type CommentRecord struct {
	ID        string `yaml:"id"`
	Author    Ref    `yaml:"author"`
	Body      string `yaml:"body"`
	CreatedAt string `yaml:"created_at"`
}

// TrackingRecord is logged time; Total uses time.ParseDuration syntax.
type TrackingRecord struct {
	Total    string          `yaml:"total"`
	Sessions []SessionRecord `yaml:"sessions"`
}

// SessionRecord is one tracked interval.
type SessionRecord struct {
	Start string `yaml:"start"`
	End   string `yaml:"end"`
}

// Default decodes the embedded seed fixture.
func Default(idGen func() string, now time.Time) (Fixture, error) {
	return Decode(bytes.NewReader(seedYAML), idGen, now)
}

// Load decodes the fixture at path, or the embedded seed when path is empty.
func Load(path string, idGen func() string, now time.Time) (Fixture, error) {
	if strings.TrimSpace(path) == "" {
		return Default(idGen, now)
	}
	f, err := os.Open(path)
	if err != nil {
		return Fixture{}, fmt.Errorf("open fixture: %w", err)
	}
	defer func() { _ = f.Close() }()
	return Decode(f, idGen, now)
}

// Decode reads one YAML document. Missing task ids are generated with idGen (uuid when nil).
// Relative dates resolve against now.
func Decode(r io.Reader, idGen func() string, now time.Time) (Fixture, error) {
	if idGen == nil {
		idGen = uuid.NewString
	}
	var doc Document
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&doc); err != nil && !errors.Is(err, io.EOF) {
		return Fixture{}, fmt.Errorf("decode fixture: %w", err)
	}

	out := Fixture{
		Fields: make([]domain.CustomField, 0, len(doc.CustomFields)),
		Tasks:  make([]domain.Task, 0, len(doc.Tasks)),
	}
	schema := map[string]domain.CustomFieldType{}
	for i, rec := range doc.CustomFields {
		id := rec.ID
		if strings.TrimSpace(id) == "" {
			id = idGen()
		}
		field, err := domain.NewCustomField(id, rec.ProjectID, rec.Name, rec.Label, domain.CustomFieldType(rec.Type), rec.Options, rec.Required)
		if err != nil {
			return Fixture{}, fmt.Errorf("custom_fields[%d]: %w", i, err)
		}
		out.Fields = append(out.Fields, field)
		schema[field.Name] = field.Type
	}
	for i, rec := range doc.Tasks {
		task, err := rec.toTask(idGen, schema, now)
		if err != nil {
			return Fixture{}, fmt.Errorf("tasks[%d]: %w", i, err)
		}
		out.Tasks = append(out.Tasks, task)
	}
	return out, nil
}

func (rec TaskRecord) toTask(idGen func() string, schema map[string]domain.CustomFieldType, now time.Time) (domain.Task, error) {
	id := strings.TrimSpace(rec.ID)
	if id == "" {
		id = idGen()
	}
	in := domain.TaskInput{
		ID:             id,
		Title:          rec.Title,
		Description:    rec.Description,
		Status:         domain.NormalizeStatus(rec.Status),
		Priority:       domain.NormalizePriority(rec.Priority),
		Complexity:     domain.Complexity(strings.ToLower(strings.TrimSpace(rec.Complexity))),
		AssigneeID:     rec.Assignee.ID,
		AssigneeName:   rec.Assignee.Name,
		ProjectID:      rec.Project.ID,
		ProjectName:    rec.Project.Name,
		EstimatedHours: rec.EstimatedHours,
		ActualHours:    rec.ActualHours,
		StoryPoints:    rec.StoryPoints,
		ParentID:       rec.ParentID,
		Subtasks:       rec.Subtasks,
		Dependencies:   rec.Dependencies,
		BlockedBy:      rec.BlockedBy,
		Tags:           rec.Tags,
		ApprovalStatus: domain.NormalizeApprovalStatus(rec.ApprovalStatus),
	}
	var err error
	if in.StartDate, err = parseOptionalDate("start_date", rec.StartDate, now); err != nil {
		return domain.Task{}, err
	}
	if in.DueDate, err = parseOptionalDate("due_date", rec.DueDate, now); err != nil {
		return domain.Task{}, err
	}
	createdAt := now
	if created, err := parseOptionalDate("created_at", rec.CreatedAt, now); err != nil {
		return domain.Task{}, err
	} else if created != nil {
		createdAt = *created
	}

	if len(rec.CustomFields) > 0 {
		in.CustomFields = make(map[string]domain.CustomFieldValue, len(rec.CustomFields))
		for name, raw := range rec.CustomFields {
			in.CustomFields[name] = customValue(schema[name], raw, now)
		}
	}
	for _, stage := range rec.ApprovalWorkflow {
		decided, err := parseOptionalDate("decided_at", stage.DecidedAt, now)
		if err != nil {
			return domain.Task{}, err
		}
		in.ApprovalWorkflow = append(in.ApprovalWorkflow, domain.ApprovalStage{
			Name:         strings.TrimSpace(stage.Name),
			ApproverID:   strings.TrimSpace(stage.Approver.ID),
			ApproverName: strings.TrimSpace(stage.Approver.Name),
			Status:       domain.NormalizeApprovalStatus(stage.Status),
			DecidedAt:    decided,
		})
	}
	for _, a := range rec.Attachments {
		uploaded, err := parseOptionalDate("uploaded_at", a.UploadedAt, now)
		if err != nil {
			return domain.Task{}, err
		}
		in.Attachments = append(in.Attachments, domain.Attachment{
			ID: a.ID, Name: a.Name, URL: a.URL, SizeBytes: a.SizeBytes, UploadedAt: valueOr(uploaded, createdAt),
		})
	}
	for _, c := range rec.Comments {
		created, err := parseOptionalDate("created_at", c.CreatedAt, now)
		if err != nil {
			return domain.Task{}, err
		}
		in.Comments = append(in.Comments, domain.Comment{
			ID: c.ID, AuthorID: c.Author.ID, AuthorName: c.Author.Name, Body: c.Body, CreatedAt: valueOr(created, createdAt),
		})
	}
	if in.TimeTracking, err = rec.TimeTracking.toTracking(now); err != nil {
		return domain.Task{}, err
	}

	task, err := domain.NewTask(in, createdAt)
	if err != nil {
		return domain.Task{}, fmt.Errorf("task %q: %w", id, err)
	}
	return task, nil
}

func (rec TrackingRecord) toTracking(now time.Time) (domain.TimeTracking, error) {
	var out domain.TimeTracking
	for _, s := range rec.Sessions {
		start, err := parseOptionalDate("sessions.start", s.Start, now)
		if err != nil {
			return out, err
		}
		end, err := parseOptionalDate("sessions.end", s.End, now)
		if err != nil {
			return out, err
		}
		session := domain.TimeSession{Start: valueOr(start, time.Time{}), End: valueOr(end, time.Time{})}
		out.Sessions = append(out.Sessions, session)
		out.Total += session.Duration()
	}
	if total := strings.TrimSpace(rec.Total); total != "" {
		d, err := time.ParseDuration(total)
		if err != nil {
			return out, fmt.Errorf("time_tracking.total: %w", err)
		}
		out.Total = d
	}
	return out, nil
}

// customValue converts a decoded YAML scalar using the schema type when one is known, otherwise
// by the scalar's own kind.
func customValue(fieldType domain.CustomFieldType, raw any, now time.Time) domain.CustomFieldValue {
	if fieldType != "" {
		switch v := raw.(type) {
		case time.Time:
			return domain.DateValue(v)
		default:
			text := fmt.Sprint(v)
			if fieldType.ValueKind() == domain.KindDate {
				if ts, err := parseOptionalDate("custom_fields", text, now); err == nil && ts != nil {
					return domain.DateValue(*ts)
				}
			}
			return domain.ParseCustomFieldValue(fieldType, text)
		}
	}
	switch v := raw.(type) {
	case bool:
		return domain.BoolValue(v)
	case int:
		return domain.NumberValue(float64(v))
	case int64:
		return domain.NumberValue(float64(v))
	case uint64:
		return domain.NumberValue(float64(v))
	case float64:
		return domain.NumberValue(v)
	case time.Time:
		return domain.DateValue(v)
	case nil:
		return domain.TextValue("")
	default:
		return domain.TextValue(fmt.Sprint(v))
	}
}

// parseOptionalDate returns nil for blank input.
func parseOptionalDate(field, raw string, now time.Time) (*time.Time, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}
	if rest, ok := strings.CutPrefix(strings.ToLower(raw), "today"); ok {
		offset := 0
		if rest != "" {
			n, err := strconv.Atoi(strings.TrimPrefix(rest, "+"))
			if err != nil {
				return nil, fmt.Errorf("%s %q: %w", field, raw, ErrInvalidDate)
			}
			offset = n
		}
		ts := domain.TruncateDay(now).AddDate(0, 0, offset)
		return &ts, nil
	}
	for _, layout := range []string{time.DateOnly, time.RFC3339, "2006-01-02 15:04"} {
		if ts, err := time.Parse(layout, raw); err == nil {
			ts = ts.UTC()
			return &ts, nil
		}
	}
	return nil, fmt.Errorf("%s %q: %w", field, raw, ErrInvalidDate)
}

func valueOr(t *time.Time, fallback time.Time) time.Time {
	if t == nil {
		return fallback
	}
	return *t
}
