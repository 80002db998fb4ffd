package tui

import (
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	tea "charm.land/bubbletea/v2"
	"github.com/hylla/taskscope/internal/app"
	"github.com/hylla/taskscope/internal/domain"
	"github.com/hylla/taskscope/internal/projection"
)

var testNow = time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)

func day(d int) *time.Time {
	t := time.Date(2026, 3, d, 0, 0, 0, 0, time.UTC)
	return &t
}

// newTestService seeds a root with one child, a loose todo and a cancelled task.
func newTestService(t *testing.T) *app.Service {
	t.Helper()
	created := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	inputs := []domain.TaskInput{
		{ID: "a", Title: "Alpha", Status: domain.StatusTodo, Priority: domain.PriorityHigh, AssigneeName: "Ada", StartDate: day(2), DueDate: day(5), Subtasks: []string{"b"}, Description: "Ship **alpha**."},
		{ID: "b", Title: "Beta", Status: domain.StatusInProgress, Priority: domain.PriorityLow, ParentID: "a", StartDate: day(4), DueDate: day(12)},
		{ID: "c", Title: "Gamma", Status: domain.StatusTodo, Priority: domain.PriorityMedium, DueDate: day(10), Tags: []string{"ops"}},
		{ID: "d", Title: "Delta", Status: domain.StatusCancelled, Priority: domain.PriorityLow},
	}
	tasks := make([]domain.Task, 0, len(inputs))
	for _, in := range inputs {
		task, err := domain.NewTask(in, created)
		if err != nil {
			t.Fatalf("NewTask(%s) error = %v", in.ID, err)
		}
		tasks = append(tasks, task)
	}
	n := 0
	idGen := func() string {
		n++
		return fmt.Sprintf("gen-%d", n)
	}
	clock := func() time.Time { return testNow }
	return app.NewService(tasks, nil, idGen, clock, app.ServiceConfig{})
}

func newReadyModel(t *testing.T, svc *app.Service, opts ...Option) Model {
	t.Helper()
	m := NewModel(svc, opts...)
	return applyMsg(t, m, tea.WindowSizeMsg{Width: 140, Height: 45})
}

// press sends one key without running the returned command.
func press(t *testing.T, m Model, msg tea.KeyPressMsg) (Model, tea.Cmd) {
	t.Helper()
	updated, cmd := m.Update(msg)
	out, ok := updated.(Model)
	if !ok {
		t.Fatalf("expected Model, got %T", updated)
	}
	return out, cmd
}

func pressAll(t *testing.T, m Model, msgs ...tea.KeyPressMsg) Model {
	t.Helper()
	for _, msg := range msgs {
		m, _ = press(t, m, msg)
	}
	return m
}

func applyMsg(t *testing.T, m Model, msg tea.Msg) Model {
	t.Helper()
	updated, _ := m.Update(msg)
	out, ok := updated.(Model)
	if !ok {
		t.Fatalf("expected Model, got %T", updated)
	}
	return out
}

func keyRune(r rune) tea.KeyPressMsg {
	return tea.KeyPressMsg{Code: r, Text: string(r)}
}

var (
	keyEnter = tea.KeyPressMsg{Code: tea.KeyEnter}
	keyEsc   = tea.KeyPressMsg{Code: tea.KeyEscape}
	keyTab   = tea.KeyPressMsg{Code: tea.KeyTab}
	keySpace = tea.KeyPressMsg{Code: tea.KeySpace, Text: " "}
)

func typeText(t *testing.T, m Model, text string) Model {
	t.Helper()
	for _, r := range text {
		m, _ = press(t, m, keyRune(r))
	}
	return m
}

func mustTask(t *testing.T, svc *app.Service, id string) domain.Task {
	t.Helper()
	task, err := svc.Task(id)
	if err != nil {
		t.Fatalf("Task(%s) error = %v", id, err)
	}
	return task
}

// TestModelViewCycle verifies tab order and reverse navigation.
func TestModelViewCycle(t *testing.T) {
	m := newReadyModel(t, newTestService(t))
	want := []viewKind{viewList, viewKanban, viewCalendar, viewGantt, viewTable}
	for _, v := range want {
		m, _ = press(t, m, keyTab)
		if m.view != v {
			t.Fatalf("expected view %s, got %s", v, m.view)
		}
	}
	m, _ = press(t, m, tea.KeyPressMsg{Code: tea.KeyTab, Mod: tea.ModShift})
	if m.view != viewGantt {
		t.Fatalf("expected shift+tab to wrap to gantt, got %s", m.view)
	}
}

// TestModelSelection verifies single and select-all toggles go through the service.
func TestModelSelection(t *testing.T) {
	svc := newTestService(t)
	m := newReadyModel(t, svc)

	m, _ = press(t, m, keySpace)
	if got := svc.Selected(); len(got) != 1 || got[0] != "a" {
		t.Fatalf("expected a selected, got %#v", got)
	}
	m, _ = press(t, m, keyRune('A'))
	if !svc.SelectAll() || len(svc.Selected()) != 4 {
		t.Fatalf("expected every task selected, got %#v", svc.Selected())
	}
	m, _ = press(t, m, keyRune('A'))
	if len(svc.Selected()) != 0 {
		t.Fatalf("expected selection cleared, got %#v", svc.Selected())
	}
	m, _ = press(t, m, keySpace)
	_, _ = press(t, m, keyEsc)
	if len(svc.Selected()) != 0 {
		t.Fatalf("expected esc to clear selection, got %#v", svc.Selected())
	}
}

// TestModelKanbanDragChangesStatus verifies a cross-column drop issues one status update.
func TestModelKanbanDragChangesStatus(t *testing.T) {
	svc := newTestService(t)
	m := newReadyModel(t, svc)
	m.view = viewKanban

	m = pressAll(t, m, keyRune('m'), keyRune('l'))
	if !m.kanbanDrag.Active() {
		t.Fatal("expected drag in flight")
	}
	if got := mustTask(t, svc, "a").Status; got != domain.StatusTodo {
		t.Fatalf("expected no update before drop, got %q", got)
	}
	m, _ = press(t, m, keyEnter)
	if got := mustTask(t, svc, "a").Status; got != domain.StatusInProgress {
		t.Fatalf("expected in-progress after drop, got %q", got)
	}
	if m.kanbanCol != 1 {
		t.Fatalf("expected focus to follow the card, got column %d", m.kanbanCol)
	}
	if !strings.Contains(m.status, "moved") {
		t.Fatalf("unexpected status %q", m.status)
	}
}

// TestModelKanbanSameColumnDropIsNoop verifies dropping on the origin column changes nothing.
func TestModelKanbanSameColumnDropIsNoop(t *testing.T) {
	svc := newTestService(t)
	m := newReadyModel(t, svc)
	m.view = viewKanban
	before := mustTask(t, svc, "a").UpdatedAt

	m = pressAll(t, m, keyRune('m'), keyRune('l'), keyRune('h'), keyEnter)
	if m.status != "no change" {
		t.Fatalf("unexpected status %q", m.status)
	}
	if after := mustTask(t, svc, "a"); after.Status != domain.StatusTodo || !after.UpdatedAt.Equal(before) {
		t.Fatalf("expected untouched task, got %#v", after)
	}
	if svc.Dirty() {
		t.Fatal("expected clean collection")
	}
}

// TestModelGanttDragReschedules verifies keyboard drag moves the bar and keeps its duration.
func TestModelGanttDragReschedules(t *testing.T) {
	svc := newTestService(t)
	m := newReadyModel(t, svc)
	m.view = viewGantt

	m = pressAll(t, m, keyRune('m'), keyRune('l'), keyRune('l'))
	if !strings.Contains(m.status, "2026-03-04") {
		t.Fatalf("expected live preview status, got %q", m.status)
	}
	if got := mustTask(t, svc, "a").StartDate; !got.Equal(*day(2)) {
		t.Fatalf("expected preview only before drop, got %v", got)
	}
	_, _ = press(t, m, keyEnter)
	task := mustTask(t, svc, "a")
	if !task.StartDate.Equal(*day(4)) || !task.DueDate.Equal(*day(7)) {
		t.Fatalf("expected Mar 4 -> Mar 7, got %v -> %v", task.StartDate, task.DueDate)
	}
}

// TestModelGanttDragCancel verifies esc abandons the gesture.
func TestModelGanttDragCancel(t *testing.T) {
	svc := newTestService(t)
	m := newReadyModel(t, svc)
	m.view = viewGantt

	m = pressAll(t, m, keyRune('m'), keyRune('l'), keyEsc)
	if m.dragging() {
		t.Fatal("expected drag cancelled")
	}
	_, _ = press(t, m, keyEnter)
	if got := mustTask(t, svc, "a").StartDate; !got.Equal(*day(2)) {
		t.Fatalf("expected unchanged start, got %v", got)
	}
}

// TestModelBulkPriority verifies the bulk menu choice path.
func TestModelBulkPriority(t *testing.T) {
	svc := newTestService(t)
	m := newReadyModel(t, svc)

	m, _ = press(t, m, keyRune('b'))
	if m.mode != modeNone || m.status != "select tasks first" {
		t.Fatalf("expected bulk to need a selection, got mode %d status %q", m.mode, m.status)
	}
	m = pressAll(t, m, keyRune('A'), keyRune('b'))
	if m.mode != modeBulkMenu {
		t.Fatalf("expected bulk menu, got %d", m.mode)
	}
	m = pressAll(t, m, keyRune('j'), keyRune('j'), keyEnter)
	if m.mode != modeBulkChoice || m.bulkOp != app.OpUpdatePriority {
		t.Fatalf("expected priority choices, got mode %d op %q", m.mode, m.bulkOp)
	}
	m = pressAll(t, m, keyRune('j'), keyRune('j'), keyRune('j'), keyEnter)
	if m.mode != modeNone {
		t.Fatalf("expected menu closed, got %d", m.mode)
	}
	for _, task := range svc.Tasks() {
		if task.Priority != domain.PriorityUrgent {
			t.Fatalf("expected urgent priority on %s, got %q", task.ID, task.Priority)
		}
	}
	if len(svc.Selected()) != 0 {
		t.Fatalf("expected selection cleared after bulk, got %#v", svc.Selected())
	}
	if !strings.Contains(m.status, "4 updated") {
		t.Fatalf("unexpected status %q", m.status)
	}
}

// TestModelBulkAddTags verifies the text payload path.
func TestModelBulkAddTags(t *testing.T) {
	svc := newTestService(t)
	m := newReadyModel(t, svc)

	m = pressAll(t, m, keySpace, keyRune('b'), keyRune('j'), keyRune('j'), keyRune('j'), keyEnter)
	if m.mode != modeBulkInput || m.bulkOp != app.OpAddTags {
		t.Fatalf("expected tag input, got mode %d op %q", m.mode, m.bulkOp)
	}
	m = typeText(t, m, "urgent-fix")
	_, _ = press(t, m, keyEnter)
	tags := mustTask(t, svc, "a").Tags
	if len(tags) != 1 || tags[0] != "urgent-fix" {
		t.Fatalf("unexpected tags %#v", tags)
	}
	if got := mustTask(t, svc, "c").Tags; len(got) != 1 || got[0] != "ops" {
		t.Fatalf("expected unselected task untouched, got %#v", got)
	}
}

// TestModelBulkClone verifies operations without a payload run straight from the menu.
func TestModelBulkClone(t *testing.T) {
	svc := newTestService(t)
	m := newReadyModel(t, svc)

	m = pressAll(t, m, keySpace, keyRune('b'))
	for range 6 {
		m, _ = press(t, m, keyRune('j'))
	}
	m, _ = press(t, m, keyEnter)
	if len(svc.Tasks()) != 5 {
		t.Fatalf("expected clone appended, got %d tasks", len(svc.Tasks()))
	}
	clone := mustTask(t, svc, "gen-1")
	if clone.Title != "Alpha"+app.DefaultCloneSuffix {
		t.Fatalf("unexpected clone title %q", clone.Title)
	}
	if !strings.Contains(m.status, "1 created") {
		t.Fatalf("unexpected status %q", m.status)
	}
}

// TestBulkInputData verifies "id, name" parsing for assignee and project payloads.
func TestBulkInputData(t *testing.T) {
	got := bulkInputData(app.OpUpdateAssignee, "u-1, Ada Park")
	if got["assignee_id"] != "u-1" || got["assignee_name"] != "Ada Park" {
		t.Fatalf("unexpected assignee payload %#v", got)
	}
	got = bulkInputData(app.OpUpdateProject, "web")
	if got["project_id"] != "web" || got["project_name"] != "web" {
		t.Fatalf("unexpected project payload %#v", got)
	}
	got = bulkInputData(app.OpRemoveTags, "a, b")
	if got["tags"] != "a, b" {
		t.Fatalf("unexpected tags payload %#v", got)
	}
}

// TestModelSaveBusyState verifies the simulated save round trip.
func TestModelSaveBusyState(t *testing.T) {
	svc := newTestService(t)
	m := newReadyModel(t, svc)
	m = pressAll(t, m, keyRune('A'), keyRune('b'), keyRune('j'), keyRune('j'), keyEnter, keyEnter)
	if !svc.Dirty() {
		t.Fatal("expected dirty collection after bulk update")
	}

	ctrlS := tea.KeyPressMsg{Code: 's', Mod: tea.ModCtrl}
	m, cmd := press(t, m, ctrlS)
	if !m.saving || cmd == nil {
		t.Fatalf("expected save in flight, saving=%v cmd=%v", m.saving, cmd != nil)
	}
	m, again := press(t, m, ctrlS)
	if again != nil || m.status != "save in progress" {
		t.Fatalf("expected second save to be refused, status %q", m.status)
	}
	m = applyMsg(t, m, cmd())
	if m.saving || m.status != "saved" {
		t.Fatalf("expected save finished, saving=%v status=%q", m.saving, m.status)
	}
	if svc.Dirty() {
		t.Fatal("expected clean collection after save")
	}

	m = applyMsg(t, m, savedMsg{err: errors.New("disk full")})
	if !strings.Contains(m.status, "disk full") {
		t.Fatalf("unexpected failure status %q", m.status)
	}
}

// TestModelSearch verifies the query filter and esc reset.
func TestModelSearch(t *testing.T) {
	m := newReadyModel(t, newTestService(t))
	m, _ = press(t, m, keyRune('/'))
	if m.mode != modeSearch {
		t.Fatalf("expected search mode, got %d", m.mode)
	}
	m = typeText(t, m, "gam")
	m, _ = press(t, m, keyEnter)
	if len(m.tasks) != 1 || m.tasks[0].ID != "c" {
		t.Fatalf("expected only Gamma, got %d tasks", len(m.tasks))
	}
	if m.table.Len() != 1 {
		t.Fatalf("expected table rows refreshed, got %d", m.table.Len())
	}
	m, _ = press(t, m, keyEsc)
	if len(m.tasks) != 4 || !m.filter.IsZero() {
		t.Fatalf("expected filter cleared, got %d tasks", len(m.tasks))
	}
}

// TestModelSuggestions verifies the async fetch and accept path.
func TestModelSuggestions(t *testing.T) {
	svc := newTestService(t)
	m := newReadyModel(t, svc)
	m, cmd := press(t, m, keyRune('g'))
	if m.mode != modeSuggestions || !m.suggestionsLoading || cmd == nil {
		t.Fatalf("expected loading suggestions, mode %d", m.mode)
	}
	m, _ = press(t, m, keyEnter)
	if len(svc.Tasks()) != 4 {
		t.Fatal("expected enter ignored while loading")
	}
	m = applyMsg(t, m, cmd())
	if m.suggestionsLoading || len(m.suggestions) == 0 {
		t.Fatalf("expected suggestions loaded, got %d", len(m.suggestions))
	}
	title := m.suggestions[0].Title
	m, _ = press(t, m, keyEnter)
	if m.mode != modeNone || len(svc.Tasks()) != 5 {
		t.Fatalf("expected task created, mode %d tasks %d", m.mode, len(svc.Tasks()))
	}
	if created := mustTask(t, svc, "gen-1"); created.Title != title {
		t.Fatalf("unexpected created title %q", created.Title)
	}
}

// TestModelCopyID verifies the focused id goes to the clipboard writer.
func TestModelCopyID(t *testing.T) {
	var copied []string
	m := newReadyModel(t, newTestService(t), WithClipboard(func(s string) error {
		copied = append(copied, s)
		return nil
	}))
	m, _ = press(t, m, keyRune('y'))
	if len(copied) != 1 || copied[0] != "a" || m.status != "copied a" {
		t.Fatalf("unexpected copy %#v status %q", copied, m.status)
	}

	failing := newReadyModel(t, newTestService(t), WithClipboard(func(string) error { return errors.New("no display") }))
	failing, _ = press(t, failing, keyRune('y'))
	if !strings.Contains(failing.status, "no display") {
		t.Fatalf("unexpected status %q", failing.status)
	}
}

// TestModelListExpand verifies children appear only while expanded.
func TestModelListExpand(t *testing.T) {
	m := newReadyModel(t, newTestService(t))
	m.view = viewList
	if got := len(m.listView().Rows); got != 3 {
		t.Fatalf("expected 3 collapsed rows, got %d", got)
	}
	m, _ = press(t, m, keyRune('l'))
	if got := len(m.listView().Rows); got != 4 {
		t.Fatalf("expected child revealed, got %d rows", got)
	}
	m, _ = press(t, m, keyRune('e'))
	if got := len(m.listView().Rows); got != 3 {
		t.Fatalf("expected child hidden again, got %d rows", got)
	}
}

// TestModelTableSort verifies column focus and the sort toggle cycle.
func TestModelTableSort(t *testing.T) {
	m := newReadyModel(t, newTestService(t))
	m, _ = press(t, m, keyRune('s'))
	if first, _, _ := m.table.RowAt(0); first.ID != "a" {
		t.Fatalf("expected Alpha first ascending, got %s", first.ID)
	}
	m, _ = press(t, m, keyRune('s'))
	if first, _, _ := m.table.RowAt(0); first.ID != "c" {
		t.Fatalf("expected Gamma first descending, got %s", first.ID)
	}
	m, _ = press(t, m, keyRune('s'))
	if m.table.Sort().Active() || m.status != "sort cleared" {
		t.Fatalf("expected sort cleared, status %q", m.status)
	}

	for range 8 {
		m, _ = press(t, m, keyRune('l'))
	}
	m, _ = press(t, m, keyRune('s'))
	if !strings.Contains(m.status, "not sortable") {
		t.Fatalf("expected tags column to refuse sort, got %q", m.status)
	}
}

// TestModelCalendarNavigation verifies day focus and month shifting.
func TestModelCalendarNavigation(t *testing.T) {
	m := newReadyModel(t, newTestService(t))
	m.view = viewCalendar
	if id, ok := m.focusedTaskID(); !ok || id != "c" {
		t.Fatalf("expected Gamma focused on today, got %q", id)
	}
	m, _ = press(t, m, keyRune(']'))
	if !m.month.Equal(time.Date(2026, 4, 1, 0, 0, 0, 0, time.UTC)) {
		t.Fatalf("unexpected month %v", m.month)
	}
	m = pressAll(t, m, keyRune('['), keyRune('['))
	if m.month.Month() != time.February {
		t.Fatalf("unexpected month %v", m.month)
	}
	m, _ = press(t, m, keyRune('h'))
	if m.month.Month() != time.January || m.calDay.Day() != 31 {
		t.Fatalf("expected stepping back a day to cross months, got %v", m.calDay)
	}
}

// TestRenderCalendarShowsOnlyDisplayedMonth verifies tasks due elsewhere leave no trace on the grid.
func TestRenderCalendarShowsOnlyDisplayedMonth(t *testing.T) {
	svc := newTestService(t)
	feb := time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC)
	out := RenderCalendar(projection.BuildMonth(svc.Tasks(), feb, testNow, 3), time.Time{})
	if !strings.Contains(out, "February 2026") {
		t.Fatalf("expected month title, got %q", out)
	}
	for _, unwanted := range []string{"Alpha", "Beta", "Gamma", "due in"} {
		if strings.Contains(out, unwanted) {
			t.Fatalf("expected no %q in a month without due tasks, got %q", unwanted, out)
		}
	}
}

// TestModelTaskInfo verifies the detail pane opens for the focused task.
func TestModelTaskInfo(t *testing.T) {
	m := newReadyModel(t, newTestService(t))
	m, _ = press(t, m, keyRune('i'))
	if m.mode != modeTaskInfo || m.infoTaskID != "a" {
		t.Fatalf("expected info for a, mode %d id %q", m.mode, m.infoTaskID)
	}
	info := m.renderTaskInfo(60)
	if !strings.Contains(info, "Alpha") || !strings.Contains(info, "Ada") {
		t.Fatalf("unexpected info pane %q", info)
	}
	if strings.Contains(info, "within:") {
		t.Fatalf("expected no parent chain for a root task, got %q", info)
	}
	m, _ = press(t, m, keyEsc)
	if m.mode != modeNone {
		t.Fatalf("expected info closed, got %d", m.mode)
	}

	m.infoTaskID = "b"
	if info := m.renderTaskInfo(60); !strings.Contains(info, "within: Alpha") {
		t.Fatalf("expected parent chain for b, got %q", info)
	}
}

// TestModelViewRendersEveryProjection verifies each body renders and the view is produced.
func TestModelViewRendersEveryProjection(t *testing.T) {
	m := newReadyModel(t, newTestService(t))
	wants := map[viewKind]string{
		viewTable:    "Title",
		viewList:     "Alpha",
		viewKanban:   "In Progress",
		viewCalendar: "March 2026",
		viewGantt:    "Alpha",
	}
	for v, want := range wants {
		m.view = v
		if body := m.renderBody(); !strings.Contains(body, want) {
			t.Fatalf("%s view missing %q:\n%s", v, want, body)
		}
		if got := m.View(); got.Content == nil {
			t.Fatalf("%s view produced no content", v)
		}
	}
}

// TestModelQuit verifies q returns the quit command.
func TestModelQuit(t *testing.T) {
	m := newReadyModel(t, newTestService(t))
	_, cmd := press(t, m, keyRune('q'))
	if cmd == nil {
		t.Fatal("expected quit cmd")
	}
}
