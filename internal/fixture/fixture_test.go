package fixture

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hylla/taskscope/internal/domain"
	"github.com/hylla/taskscope/internal/hierarchy"
)

var now = time.Date(2026, 3, 10, 9, 30, 0, 0, time.UTC)

func sequence(prefix string) func() string {
	n := 0
	return func() string {
		n++
		return prefix + "-" + string(rune('0'+n))
	}
}

func TestDefaultSeedDecodes(t *testing.T) {
	fx, err := Default(sequence("gen"), now)
	require.NoError(t, err)
	require.NotEmpty(t, fx.Tasks)
	require.Len(t, fx.Fields, 4)

	byID := map[string]domain.Task{}
	for _, task := range fx.Tasks {
		byID[task.ID] = task
	}
	launch, ok := byID["t-launch"]
	require.True(t, ok)
	assert.Equal(t, domain.StatusInProgress, launch.Status)
	require.NotNil(t, launch.StartDate)
	assert.Equal(t, time.Date(2026, 2, 24, 0, 0, 0, 0, time.UTC), *launch.StartDate)
	assert.Equal(t, domain.NumberValue(12), launch.CustomFields["sprint"])
	assert.Equal(t, domain.BoolValue(true), launch.CustomFields["customer_facing"])
	assert.Equal(t, 22*time.Hour, launch.TimeTracking.Total)
	require.Len(t, launch.ApprovalWorkflow, 2)
	assert.NotNil(t, launch.ApprovalWorkflow[0].DecidedAt)
	assert.Nil(t, launch.ApprovalWorkflow[1].DecidedAt)

	auth := byID["t-auth"]
	assert.Equal(t, domain.DateValue(time.Date(2026, 4, 9, 0, 0, 0, 0, time.UTC)), auth.CustomFields["review_date"])

	backlog := byID["t-backlog"]
	assert.Equal(t, domain.StatusTodo, backlog.Status)
	assert.Nil(t, backlog.DueDate)

	tree := hierarchy.Build(fx.Tasks)
	assert.Equal(t, len(fx.Tasks), tree.Count())
}

func TestDecodeGeneratesMissingIDs(t *testing.T) {
	doc := `
tasks:
  - title: First
  - title: Second
    id: keep-me
`
	fx, err := Decode(strings.NewReader(doc), sequence("gen"), now)
	require.NoError(t, err)
	require.Len(t, fx.Tasks, 2)
	assert.Equal(t, "gen-1", fx.Tasks[0].ID)
	assert.Equal(t, "keep-me", fx.Tasks[1].ID)
	assert.Equal(t, now, fx.Tasks[0].CreatedAt)
}

func TestDecodeDefaultsToUUID(t *testing.T) {
	fx, err := Decode(strings.NewReader("tasks:\n  - title: Lonely\n"), nil, now)
	require.NoError(t, err)
	require.Len(t, fx.Tasks, 1)
	assert.Len(t, fx.Tasks[0].ID, 36)
}

func TestDecodeDates(t *testing.T) {
	doc := `
tasks:
  - id: a
    title: Absolute
    start_date: 2026-01-05
    due_date: "2026-01-09T15:00:00Z"
  - id: b
    title: Relative
    start_date: today-2
    due_date: TODAY
`
	fx, err := Decode(strings.NewReader(doc), nil, now)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2026, 1, 5, 0, 0, 0, 0, time.UTC), *fx.Tasks[0].StartDate)
	assert.Equal(t, time.Date(2026, 1, 9, 0, 0, 0, 0, time.UTC), domain.TruncateDay(*fx.Tasks[0].DueDate))
	assert.Equal(t, time.Date(2026, 3, 8, 0, 0, 0, 0, time.UTC), *fx.Tasks[1].StartDate)
	assert.Equal(t, time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC), *fx.Tasks[1].DueDate)
}

func TestDecodeCustomFieldsWithoutSchema(t *testing.T) {
	doc := `
tasks:
  - id: a
    title: Loose
    custom_fields:
      flag: true
      score: 3
      ratio: 0.5
      note: hello
`
	fx, err := Decode(strings.NewReader(doc), nil, now)
	require.NoError(t, err)
	fields := fx.Tasks[0].CustomFields
	assert.Equal(t, domain.BoolValue(true), fields["flag"])
	assert.Equal(t, domain.NumberValue(3), fields["score"])
	assert.Equal(t, domain.NumberValue(0.5), fields["ratio"])
	assert.Equal(t, domain.TextValue("hello"), fields["note"])
}

func TestDecodeErrors(t *testing.T) {
	cases := map[string]string{
		"bad date":     "tasks:\n  - id: a\n    title: x\n    due_date: someday\n",
		"bad offset":   "tasks:\n  - id: a\n    title: x\n    due_date: today+soon\n",
		"bad status":   "tasks:\n  - id: a\n    title: x\n    status: paused\n",
		"no title":     "tasks:\n  - id: a\n",
		"unknown key":  "tasks:\n  - id: a\n    title: x\n    colour: red\n",
		"bad duration": "tasks:\n  - id: a\n    title: x\n    time_tracking:\n      total: forever\n",
		"bad field":    "custom_fields:\n  - id: f\n    name: x\n    type: colour\n",
	}
	for name, doc := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := Decode(strings.NewReader(doc), nil, now)
			require.Error(t, err)
		})
	}

	_, err := Decode(strings.NewReader("tasks:\n  - id: a\n    title: x\n    due_date: someday\n"), nil, now)
	require.ErrorIs(t, err, ErrInvalidDate)
	assert.Contains(t, err.Error(), "tasks[0]")
}

func TestDecodeEmptyDocument(t *testing.T) {
	fx, err := Decode(strings.NewReader(""), nil, now)
	require.NoError(t, err)
	assert.Empty(t, fx.Tasks)
	assert.Empty(t, fx.Fields)
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tasks.yaml")
	require.NoError(t, os.WriteFile(path, []byte("tasks:\n  - id: only\n    title: Only task\n"), 0o644))

	fx, err := Load(path, nil, now)
	require.NoError(t, err)
	require.Len(t, fx.Tasks, 1)
	assert.Equal(t, "only", fx.Tasks[0].ID)

	seeded, err := Load("  ", nil, now)
	require.NoError(t, err)
	assert.Greater(t, len(seeded.Tasks), 1)

	_, err = Load(filepath.Join(t.TempDir(), "missing.yaml"), nil, now)
	require.Error(t, err)
}
