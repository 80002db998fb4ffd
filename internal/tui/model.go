package tui

import (
	"context"
	"fmt"
	"math"
	"slices"
	"strings"
	"time"

	"charm.land/bubbles/v2/help"
	"charm.land/bubbles/v2/key"
	"charm.land/bubbles/v2/textinput"
	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"
	"github.com/atotto/clipboard"

	"github.com/hylla/taskscope/internal/app"
	"github.com/hylla/taskscope/internal/domain"
	"github.com/hylla/taskscope/internal/hierarchy"
	"github.com/hylla/taskscope/internal/projection"
	"github.com/hylla/taskscope/internal/table"
)

// Service is the controller surface the front end drives. It owns the task collection and the
// selection; the model only keeps the last snapshot it rendered.
type Service interface {
	CustomFields() []domain.CustomField
	Filtered(projection.Filter) []domain.Task
	Tasks() []domain.Task
	Task(id string) (domain.Task, error)
	Selected() []string
	SelectAll() bool
	SelectTasks(ids []string) []string
	Dirty() bool
	Now() time.Time
	UpdateTask(ctx context.Context, id string, patch domain.TaskPatch) (domain.Task, error)
	ExecuteNamed(ctx context.Context, name string, ids []string, data map[string]string) (app.BulkResult, error)
	Save(ctx context.Context) error
	Suggestions(ctx context.Context) ([]app.Suggestion, error)
	AcceptSuggestion(ctx context.Context, suggestion app.Suggestion) (domain.Task, error)
}

// viewKind identifies one of the projections.
type viewKind int

// viewTable and related constants list the views in tab order.
const (
	viewTable viewKind = iota
	viewList
	viewKanban
	viewCalendar
	viewGantt
	viewCount
)

// String returns the tab label.
func (v viewKind) String() string {
	switch v {
	case viewList:
		return "list"
	case viewKanban:
		return "kanban"
	case viewCalendar:
		return "calendar"
	case viewGantt:
		return "gantt"
	default:
		return "table"
	}
}

// inputMode represents a selectable mode.
type inputMode int

// modeNone and related constants define package defaults.
const (
	modeNone inputMode = iota
	modeSearch
	modeBulkMenu
	modeBulkChoice
	modeBulkInput
	modeSuggestions
	modeTaskInfo
)

// Model is the bubbletea model for every view.
type Model struct {
	svc Service

	ready  bool
	width  int
	height int
	err    error
	status string

	help help.Model
	keys keyMap
	mode inputMode
	view viewKind

	pageSize    int
	ganttCfg    projection.GanttConfig
	cellWidth   float64
	maxPerCell  int
	saveTimeout time.Duration
	copy        func(string) error
	md          *markdownRenderer
	actor       app.MutationActor

	filter      projection.Filter
	searchInput textinput.Model

	now   time.Time
	tasks []domain.Task

	table    *table.Table[domain.Task]
	tableRow int
	sortCol  int

	expanded map[string]bool
	listRow  int

	kanbanCol  int
	kanbanCard int
	kanbanDrag *projection.Drag[domain.Status]

	month  time.Time
	calDay time.Time

	ganttRow  int
	ganttDrag *projection.Drag[float64]

	bulkIndex       int
	bulkOp          app.OperationName
	bulkChoices     []string
	bulkChoiceIndex int
	bulkInput       textinput.Model

	saving             bool
	suggestionsLoading bool
	suggestions        []app.Suggestion
	suggestionIndex    int
	infoTaskID         string
}

// savedMsg reports the end of a save.
type savedMsg struct {
	err error
}

// suggestionsLoadedMsg carries the canned suggestions.
type suggestionsLoadedMsg struct {
	items []app.Suggestion
	err   error
}

// NewModel constructs the model and takes the first snapshot from svc.
func NewModel(svc Service, opts ...Option) Model {
	h := help.New()
	h.ShowAll = false
	searchInput := textinput.New()
	searchInput.Prompt = "/ "
	searchInput.Placeholder = "title, description, assignee, tags"
	searchInput.CharLimit = 120
	bulkInput := textinput.New()
	bulkInput.CharLimit = 200
	m := Model{
		svc:         svc,
		status:      "ready",
		help:        h,
		keys:        newKeyMap(DefaultKeyBindings()),
		pageSize:    10,
		ganttCfg:    projection.DefaultGanttConfig(),
		cellWidth:   20,
		maxPerCell:  projection.DefaultMaxPerCell,
		saveTimeout: 30 * time.Second,
		copy:        clipboard.WriteAll,
		md:          &markdownRenderer{},
		searchInput: searchInput,
		bulkInput:   bulkInput,
		expanded:    map[string]bool{},
		kanbanDrag:  &projection.Drag[domain.Status]{},
		ganttDrag:   &projection.Drag[float64]{},
	}
	for _, opt := range opts {
		if opt != nil {
			opt(&m)
		}
	}
	m.now = svc.Now()
	m.month = projection.MonthStart(m.now)
	m.calDay = domain.TruncateDay(m.now)
	m.table = projection.NewTaskTable(nil, m.pageSize, m.now)
	m.refresh()
	return m
}

// Init handles init.
func (m Model) Init() tea.Cmd {
	return nil
}

// Update updates state for the requested operation.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.ready = true
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case savedMsg:
		m.saving = false
		if msg.err != nil {
			m.status = "save failed: " + msg.err.Error()
			return m, nil
		}
		m.status = "saved"
		return m, nil

	case suggestionsLoadedMsg:
		m.suggestionsLoading = false
		if msg.err != nil {
			m.status = "suggestions unavailable: " + msg.err.Error()
			if m.mode == modeSuggestions {
				m.mode = modeNone
			}
			return m, nil
		}
		m.suggestions = msg.items
		m.suggestionIndex = 0
		if m.mode == modeSuggestions {
			m.status = fmt.Sprintf("%d suggestions", len(m.suggestions))
		}
		return m, nil

	case tea.KeyPressMsg:
		if m.mode != modeNone {
			return m.handleInputModeKey(msg)
		}
		return m.handleNormalModeKey(msg)

	default:
		return m, nil
	}
}

// refresh re-reads the filtered snapshot and clamps every cursor to it.
func (m *Model) refresh() {
	m.now = m.svc.Now()
	m.tasks = m.svc.Filtered(m.filter)
	m.table.SetRows(m.tasks)
	m.tableRow = clamp(m.tableRow, 0, len(m.table.PageRows())-1)
	m.listRow = clamp(m.listRow, 0, len(m.listView().Rows)-1)
	board := m.board()
	m.kanbanCol = clamp(m.kanbanCol, 0, len(board.Columns)-1)
	if len(board.Columns) > 0 {
		m.kanbanCard = clamp(m.kanbanCard, 0, len(board.Columns[m.kanbanCol].Cards)-1)
	}
	m.ganttRow = clamp(m.ganttRow, 0, len(m.gantt().Bars)-1)
}

func (m Model) listView() projection.ListView {
	return projection.BuildList(m.tasks, m.svc.CustomFields(), m.expanded, m.svc.Selected(), m.now)
}

func (m Model) board() projection.Kanban {
	return projection.BuildKanban(m.tasks, m.now)
}

func (m Model) monthView() projection.Month {
	return projection.BuildMonth(m.tasks, m.month, m.now, m.maxPerCell)
}

func (m Model) gantt() projection.Gantt {
	return projection.BuildGantt(m.tasks, m.ganttCfg, m.now)
}

// focusedTaskID returns the task under the cursor of the active view.
func (m Model) focusedTaskID() (string, bool) {
	switch m.view {
	case viewList:
		rows := m.listView().Rows
		if m.listRow < len(rows) {
			return rows[m.listRow].ID, true
		}
	case viewKanban:
		board := m.board()
		if m.kanbanCol < len(board.Columns) && m.kanbanCard < len(board.Columns[m.kanbanCol].Cards) {
			return board.Columns[m.kanbanCol].Cards[m.kanbanCard].ID, true
		}
	case viewCalendar:
		if cell, ok := m.monthView().Cell(m.calDay); ok && len(cell.Entries) > 0 {
			return cell.Entries[0].ID, true
		}
	case viewGantt:
		bars := m.gantt().Bars
		if m.ganttRow < len(bars) {
			return bars[m.ganttRow].TaskID, true
		}
	default:
		if task, _, ok := m.table.RowAt(m.tableRow); ok {
			return task.ID, true
		}
	}
	return "", false
}

// handleNormalModeKey handles keys outside of overlays.
func (m Model) handleNormalModeKey(msg tea.KeyPressMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.quit):
		return m, tea.Quit
	case key.Matches(msg, m.keys.toggleHelp):
		m.help.ShowAll = !m.help.ShowAll
		return m, nil
	case msg.String() == "esc":
		return m.handleEscape()
	case key.Matches(msg, m.keys.save):
		return m.startSave()
	case key.Matches(msg, m.keys.drag):
		return m.toggleDrag()
	case key.Matches(msg, m.keys.drop) && m.dragging():
		return m.commitDrag()
	}

	if m.dragging() {
		return m.handleDragKey(msg)
	}

	switch {
	case key.Matches(msg, m.keys.nextView):
		m.view = (m.view + 1) % viewCount
		m.status = m.view.String()
		return m, nil
	case key.Matches(msg, m.keys.prevView):
		m.view = (m.view + viewCount - 1) % viewCount
		m.status = m.view.String()
		return m, nil
	case key.Matches(msg, m.keys.search):
		m.mode = modeSearch
		m.searchInput.SetValue(m.filter.Query)
		return m, m.searchInput.Focus()
	case key.Matches(msg, m.keys.suggestions):
		m.mode = modeSuggestions
		m.suggestionsLoading = true
		m.status = "fetching suggestions..."
		return m, m.loadSuggestions()
	case key.Matches(msg, m.keys.bulkAction):
		if len(m.svc.Selected()) == 0 {
			m.status = "select tasks first"
			return m, nil
		}
		m.mode = modeBulkMenu
		m.bulkIndex = 0
		return m, nil
	case key.Matches(msg, m.keys.taskInfo), msg.String() == "enter":
		id, ok := m.focusedTaskID()
		if !ok {
			m.status = "no task focused"
			return m, nil
		}
		m.infoTaskID = id
		m.mode = modeTaskInfo
		return m, nil
	case key.Matches(msg, m.keys.copyID):
		return m.copyFocusedID()
	case key.Matches(msg, m.keys.selectTask):
		id, ok := m.focusedTaskID()
		if !ok {
			m.status = "no task focused"
			return m, nil
		}
		picked := m.svc.SelectTasks(projection.ToggleSelection(m.svc.Selected(), id))
		m.status = fmt.Sprintf("%d selected", len(picked))
		return m, nil
	case key.Matches(msg, m.keys.selectAll):
		picked := m.svc.SelectTasks(projection.ToggleSelectAll(m.svc.Selected(), m.tasks))
		m.status = fmt.Sprintf("%d selected", len(picked))
		return m, nil
	}

	switch m.view {
	case viewList:
		return m.handleListKey(msg)
	case viewKanban:
		return m.handleKanbanKey(msg)
	case viewCalendar:
		return m.handleCalendarKey(msg)
	case viewGantt:
		return m.handleGanttKey(msg)
	default:
		return m.handleTableKey(msg)
	}
}

func (m Model) handleEscape() (tea.Model, tea.Cmd) {
	switch {
	case m.help.ShowAll:
		m.help.ShowAll = false
	case m.kanbanDrag.Cancel(), m.ganttDrag.Cancel():
		m.status = "drag cancelled"
	case !m.filter.IsZero():
		m.filter = projection.Filter{}
		m.refresh()
		m.status = "filter cleared"
	case len(m.svc.Selected()) > 0:
		m.svc.SelectTasks(nil)
		m.status = "selection cleared"
	}
	return m, nil
}

func (m Model) handleTableKey(msg tea.KeyPressMsg) (tea.Model, tea.Cmd) {
	cols := m.table.Columns()
	switch {
	case key.Matches(msg, m.keys.moveDown):
		m.tableRow = clamp(m.tableRow+1, 0, len(m.table.PageRows())-1)
	case key.Matches(msg, m.keys.moveUp):
		m.tableRow = clamp(m.tableRow-1, 0, len(m.table.PageRows())-1)
	case key.Matches(msg, m.keys.moveRight):
		m.sortCol = clamp(m.sortCol+1, 0, len(cols)-1)
	case key.Matches(msg, m.keys.moveLeft):
		m.sortCol = clamp(m.sortCol-1, 0, len(cols)-1)
	case key.Matches(msg, m.keys.nextPage):
		m.table.NextPage()
		m.tableRow = clamp(m.tableRow, 0, len(m.table.PageRows())-1)
	case key.Matches(msg, m.keys.prevPage):
		m.table.PrevPage()
		m.tableRow = clamp(m.tableRow, 0, len(m.table.PageRows())-1)
	case key.Matches(msg, m.keys.sortColumn):
		if m.sortCol >= len(cols) {
			return m, nil
		}
		col := cols[m.sortCol]
		if !m.table.ToggleSort(col.Key) {
			m.status = col.Title + " is not sortable"
			return m, nil
		}
		m.tableRow = clamp(m.tableRow, 0, len(m.table.PageRows())-1)
		if s := m.table.Sort(); s.Active() {
			m.status = fmt.Sprintf("sorted by %s %s", col.Title, s.Direction)
		} else {
			m.status = "sort cleared"
		}
	}
	return m, nil
}

func (m Model) handleListKey(msg tea.KeyPressMsg) (tea.Model, tea.Cmd) {
	rows := m.listView().Rows
	switch {
	case key.Matches(msg, m.keys.moveDown):
		m.listRow = clamp(m.listRow+1, 0, len(rows)-1)
	case key.Matches(msg, m.keys.moveUp):
		m.listRow = clamp(m.listRow-1, 0, len(rows)-1)
	case key.Matches(msg, m.keys.expand), key.Matches(msg, m.keys.moveRight), key.Matches(msg, m.keys.moveLeft):
		if m.listRow >= len(rows) || !rows[m.listRow].HasChildren {
			return m, nil
		}
		id := rows[m.listRow].ID
		open := !m.expanded[id]
		if key.Matches(msg, m.keys.moveRight) {
			open = true
		} else if key.Matches(msg, m.keys.moveLeft) {
			open = false
		}
		if open {
			m.expanded[id] = true
		} else {
			delete(m.expanded, id)
		}
	}
	return m, nil
}

func (m Model) handleKanbanKey(msg tea.KeyPressMsg) (tea.Model, tea.Cmd) {
	board := m.board()
	if len(board.Columns) == 0 {
		return m, nil
	}
	switch {
	case key.Matches(msg, m.keys.moveRight):
		m.kanbanCol = clamp(m.kanbanCol+1, 0, len(board.Columns)-1)
		m.kanbanCard = clamp(m.kanbanCard, 0, len(board.Columns[m.kanbanCol].Cards)-1)
	case key.Matches(msg, m.keys.moveLeft):
		m.kanbanCol = clamp(m.kanbanCol-1, 0, len(board.Columns)-1)
		m.kanbanCard = clamp(m.kanbanCard, 0, len(board.Columns[m.kanbanCol].Cards)-1)
	case key.Matches(msg, m.keys.moveDown):
		m.kanbanCard = clamp(m.kanbanCard+1, 0, len(board.Columns[m.kanbanCol].Cards)-1)
	case key.Matches(msg, m.keys.moveUp):
		m.kanbanCard = clamp(m.kanbanCard-1, 0, len(board.Columns[m.kanbanCol].Cards)-1)
	}
	return m, nil
}

func (m Model) handleCalendarKey(msg tea.KeyPressMsg) (tea.Model, tea.Cmd) {
	days := 0
	switch {
	case key.Matches(msg, m.keys.moveRight):
		days = 1
	case key.Matches(msg, m.keys.moveLeft):
		days = -1
	case key.Matches(msg, m.keys.moveDown):
		days = 7
	case key.Matches(msg, m.keys.moveUp):
		days = -7
	case key.Matches(msg, m.keys.nextMonth):
		m.month = projection.ShiftMonth(m.month, 1)
		m.calDay = m.month
		return m, nil
	case key.Matches(msg, m.keys.prevMonth):
		m.month = projection.ShiftMonth(m.month, -1)
		m.calDay = m.month
		return m, nil
	default:
		return m, nil
	}
	m.calDay = m.calDay.AddDate(0, 0, days)
	m.month = projection.MonthStart(m.calDay)
	return m, nil
}

func (m Model) handleGanttKey(msg tea.KeyPressMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.moveDown):
		m.ganttRow = clamp(m.ganttRow+1, 0, len(m.gantt().Bars)-1)
	case key.Matches(msg, m.keys.moveUp):
		m.ganttRow = clamp(m.ganttRow-1, 0, len(m.gantt().Bars)-1)
	case key.Matches(msg, m.keys.granularity):
		switch m.ganttCfg.Granularity {
		case projection.GranularityDay:
			m.ganttCfg.Granularity = projection.GranularityWeek
		case projection.GranularityWeek:
			m.ganttCfg.Granularity = projection.GranularityMonth
		default:
			m.ganttCfg.Granularity = projection.GranularityDay
		}
		m.status = "granularity: " + string(m.ganttCfg.Granularity)
	}
	return m, nil
}

func (m Model) dragging() bool {
	return m.kanbanDrag.Active() || m.ganttDrag.Active()
}

// toggleDrag picks up the focused card or bar, or drops the one in flight.
func (m Model) toggleDrag() (tea.Model, tea.Cmd) {
	if m.dragging() {
		return m.commitDrag()
	}
	id, ok := m.focusedTaskID()
	if !ok {
		m.status = "no task focused"
		return m, nil
	}
	switch m.view {
	case viewKanban:
		status := projection.KanbanStatuses[m.kanbanCol]
		m.kanbanDrag.Begin(id, status)
		m.status = "dragging: ←/→ choose column, enter drop, esc cancel"
	case viewGantt:
		g := m.gantt()
		bar, ok := g.Bar(id)
		if !ok {
			return m, nil
		}
		m.ganttDrag.Begin(id, dayFraction(g, bar.Start, 0))
		m.status = "dragging: ←/→ one day, shift+←/→ one " + string(g.Config.Granularity) + ", enter drop, esc cancel"
	default:
		m.status = "drag works in kanban and gantt"
	}
	return m, nil
}

// dayFraction returns the fraction at the middle of the day offset days after t, so flooring it
// back to a day is exact.
func dayFraction(g projection.Gantt, t time.Time, offset float64) float64 {
	days := math.Round(g.FractionOf(t)*g.TotalDays) + offset
	days = math.Min(math.Max(days, 0), g.TotalDays-1)
	return (days + 0.5) / g.TotalDays
}

func (m Model) handleDragKey(msg tea.KeyPressMsg) (tea.Model, tea.Cmd) {
	if m.kanbanDrag.Active() {
		idx := slices.Index(projection.KanbanStatuses, m.kanbanDrag.Target())
		switch {
		case key.Matches(msg, m.keys.moveRight):
			idx++
		case key.Matches(msg, m.keys.moveLeft):
			idx--
		default:
			return m, nil
		}
		idx = clamp(idx, 0, len(projection.KanbanStatuses)-1)
		m.kanbanDrag.Move(projection.KanbanStatuses[idx])
		m.kanbanCol = idx
		return m, nil
	}

	g := m.gantt()
	step := 0.0
	switch msg.String() {
	case "l", "right":
		step = 1
	case "h", "left":
		step = -1
	case "L", "shift+l", "shift+right":
		step = g.Config.Granularity.DaysPerUnit()
	case "H", "shift+h", "shift+left":
		step = -g.Config.Granularity.DaysPerUnit()
	default:
		return m, nil
	}
	current := g.StartAt(m.ganttDrag.Target())
	m.ganttDrag.Move(dayFraction(g, current, step))
	m.status = "move to " + g.StartAt(m.ganttDrag.Target()).Format(time.DateOnly)
	return m, nil
}

// commitDrag ends the gesture and issues the resulting update, if any.
func (m Model) commitDrag() (tea.Model, tea.Cmd) {
	var (
		patch domain.TaskPatch
		ok    bool
		id    string
	)
	if m.kanbanDrag.Active() {
		drop, _ := m.kanbanDrag.Drop()
		id = drop.TaskID
		patch, ok = projection.DropStatusChange(drop)
	} else {
		drop, _ := m.ganttDrag.Drop()
		id = drop.TaskID
		patch, ok = m.gantt().CommitDrag(drop)
	}
	if !ok {
		m.status = "no change"
		return m, nil
	}
	task, err := m.svc.UpdateTask(m.mutationContext(), id, patch)
	if err != nil {
		m.status = "update failed: " + err.Error()
		return m, nil
	}
	m.refresh()
	if m.view == viewKanban {
		if col, card, found := m.board().Locate(id); found {
			m.kanbanCol, m.kanbanCard = col, card
		}
		m.status = fmt.Sprintf("%q moved to %s", truncate(task.Title, 28), task.Status.Label())
		return m, nil
	}
	m.status = fmt.Sprintf("%q rescheduled to %s", truncate(task.Title, 28), formatDay(task.StartDate))
	return m, nil
}

func (m Model) copyFocusedID() (tea.Model, tea.Cmd) {
	id, ok := m.focusedTaskID()
	if m.mode == modeTaskInfo {
		id, ok = m.infoTaskID, m.infoTaskID != ""
	}
	if !ok {
		m.status = "no task focused"
		return m, nil
	}
	if err := m.copy(id); err != nil {
		m.status = "copy failed: " + err.Error()
		return m, nil
	}
	m.status = "copied " + id
	return m, nil
}

func (m Model) startSave() (tea.Model, tea.Cmd) {
	if m.saving {
		m.status = "save in progress"
		return m, nil
	}
	m.saving = true
	m.status = "saving..."
	svc, timeout, base := m.svc, m.saveTimeout, m.mutationContext()
	return m, func() tea.Msg {
		ctx, cancel := context.WithTimeout(base, timeout)
		defer cancel()
		return savedMsg{err: svc.Save(ctx)}
	}
}

// mutationContext tags service calls with the acting user when one is configured.
func (m Model) mutationContext() context.Context {
	ctx := context.Background()
	if m.actor.ActorID == "" {
		return ctx
	}
	return app.WithMutationActor(ctx, m.actor)
}

func (m Model) loadSuggestions() tea.Cmd {
	svc := m.svc
	return func() tea.Msg {
		items, err := svc.Suggestions(context.Background())
		return suggestionsLoadedMsg{items: items, err: err}
	}
}

// handleInputModeKey handles keys while an overlay is open.
func (m Model) handleInputModeKey(msg tea.KeyPressMsg) (tea.Model, tea.Cmd) {
	if msg.String() == "ctrl+c" {
		return m, tea.Quit
	}
	switch m.mode {
	case modeSearch:
		switch msg.String() {
		case "esc":
			m.mode = modeNone
			m.searchInput.Blur()
			return m, nil
		case "enter":
			m.mode = modeNone
			m.searchInput.Blur()
			m.filter.Query = strings.TrimSpace(m.searchInput.Value())
			m.refresh()
			m.status = fmt.Sprintf("%d tasks match", len(m.tasks))
			return m, nil
		}
		var cmd tea.Cmd
		m.searchInput, cmd = m.searchInput.Update(msg)
		return m, cmd

	case modeBulkMenu:
		switch {
		case msg.String() == "esc":
			m.mode = modeNone
		case key.Matches(msg, m.keys.moveDown):
			m.bulkIndex = clamp(m.bulkIndex+1, 0, len(app.OperationNames)-1)
		case key.Matches(msg, m.keys.moveUp):
			m.bulkIndex = clamp(m.bulkIndex-1, 0, len(app.OperationNames)-1)
		case msg.String() == "enter":
			return m.chooseBulkOperation(app.OperationNames[m.bulkIndex])
		}
		return m, nil

	case modeBulkChoice:
		switch {
		case msg.String() == "esc":
			m.mode = modeBulkMenu
		case key.Matches(msg, m.keys.moveDown):
			m.bulkChoiceIndex = clamp(m.bulkChoiceIndex+1, 0, len(m.bulkChoices)-1)
		case key.Matches(msg, m.keys.moveUp):
			m.bulkChoiceIndex = clamp(m.bulkChoiceIndex-1, 0, len(m.bulkChoices)-1)
		case msg.String() == "enter":
			value := m.bulkChoices[m.bulkChoiceIndex]
			field := "status"
			if m.bulkOp == app.OpUpdatePriority {
				field = "priority"
			}
			return m.runBulk(m.bulkOp, map[string]string{field: value})
		}
		return m, nil

	case modeBulkInput:
		switch msg.String() {
		case "esc":
			m.bulkInput.Blur()
			m.mode = modeBulkMenu
			return m, nil
		case "enter":
			m.bulkInput.Blur()
			return m.runBulk(m.bulkOp, bulkInputData(m.bulkOp, m.bulkInput.Value()))
		}
		var cmd tea.Cmd
		m.bulkInput, cmd = m.bulkInput.Update(msg)
		return m, cmd

	case modeSuggestions:
		switch {
		case msg.String() == "esc":
			m.mode = modeNone
		case m.suggestionsLoading:
		case key.Matches(msg, m.keys.moveDown):
			m.suggestionIndex = clamp(m.suggestionIndex+1, 0, len(m.suggestions)-1)
		case key.Matches(msg, m.keys.moveUp):
			m.suggestionIndex = clamp(m.suggestionIndex-1, 0, len(m.suggestions)-1)
		case msg.String() == "enter" && len(m.suggestions) > 0:
			task, err := m.svc.AcceptSuggestion(m.mutationContext(), m.suggestions[m.suggestionIndex])
			m.mode = modeNone
			if err != nil {
				m.status = "create failed: " + err.Error()
				return m, nil
			}
			m.refresh()
			m.status = fmt.Sprintf("created %q", truncate(task.Title, 40))
		}
		return m, nil

	case modeTaskInfo:
		switch {
		case msg.String() == "esc", key.Matches(msg, m.keys.taskInfo), msg.String() == "enter":
			m.mode = modeNone
		case key.Matches(msg, m.keys.copyID):
			return m.copyFocusedID()
		}
		return m, nil
	}
	return m, nil
}

// chooseBulkOperation opens the payload step for op, or runs it when it needs none.
func (m Model) chooseBulkOperation(op app.OperationName) (tea.Model, tea.Cmd) {
	m.bulkOp = op
	switch op {
	case app.OpUpdateStatus:
		m.bulkChoices = m.bulkChoices[:0]
		for _, s := range domain.Statuses {
			m.bulkChoices = append(m.bulkChoices, string(s))
		}
		m.bulkChoiceIndex = 0
		m.mode = modeBulkChoice
		return m, nil
	case app.OpUpdatePriority:
		m.bulkChoices = m.bulkChoices[:0]
		for _, p := range domain.Priorities {
			m.bulkChoices = append(m.bulkChoices, string(p))
		}
		m.bulkChoiceIndex = 0
		m.mode = modeBulkChoice
		return m, nil
	case app.OpUpdateAssignee, app.OpUpdateProject, app.OpAddTags, app.OpRemoveTags:
		m.bulkInput.Prompt = bulkInputPrompt(op)
		m.bulkInput.Placeholder = bulkInputPlaceholder(op)
		m.bulkInput.SetValue("")
		m.mode = modeBulkInput
		return m, m.bulkInput.Focus()
	default:
		return m.runBulk(op, nil)
	}
}

func bulkInputPrompt(op app.OperationName) string {
	switch op {
	case app.OpUpdateAssignee:
		return "assignee: "
	case app.OpUpdateProject:
		return "project: "
	default:
		return "tags: "
	}
}

func bulkInputPlaceholder(op app.OperationName) string {
	switch op {
	case app.OpUpdateAssignee:
		return "id, display name (empty unassigns)"
	case app.OpUpdateProject:
		return "id, display name"
	default:
		return "comma separated"
	}
}

// bulkInputData maps the overlay text to the operation payload. "id, name" pairs fall back to
// the id as the name when only one part is given.
func bulkInputData(op app.OperationName, raw string) map[string]string {
	switch op {
	case app.OpAddTags, app.OpRemoveTags:
		return map[string]string{"tags": raw}
	}
	id, name, found := strings.Cut(raw, ",")
	id, name = strings.TrimSpace(id), strings.TrimSpace(name)
	if !found || name == "" {
		name = id
	}
	if op == app.OpUpdateProject {
		return map[string]string{"project_id": id, "project_name": name}
	}
	return map[string]string{"assignee_id": id, "assignee_name": name}
}

// runBulk applies op to the current selection.
func (m Model) runBulk(op app.OperationName, data map[string]string) (tea.Model, tea.Cmd) {
	m.mode = modeNone
	res, err := m.svc.ExecuteNamed(m.mutationContext(), string(op), m.svc.Selected(), data)
	if err != nil {
		m.status = "bulk " + string(op) + " failed: " + err.Error()
		return m, nil
	}
	m.refresh()
	switch {
	case len(res.Created) > 0:
		m.status = fmt.Sprintf("%s: %d created", op, len(res.Created))
	case len(res.Deleted) > 0:
		m.status = fmt.Sprintf("%s: %d deleted", op, len(res.Deleted))
	default:
		m.status = fmt.Sprintf("%s: %d updated", op, len(res.Updated))
	}
	return m, nil
}

// View handles view.
func (m Model) View() tea.View {
	if m.err != nil {
		v := tea.NewView("error: " + m.err.Error() + "\n\npress q to quit\n")
		v.AltScreen = true
		return v
	}
	if !m.ready {
		v := tea.NewView("loading...")
		v.AltScreen = true
		return v
	}

	header := m.renderHeader()
	body := m.renderBody()

	helpBubble := m.help
	helpBubble.SetWidth(max(0, m.width-2))
	statusLine := mutedStyle.Render(m.status)
	footer := lipgloss.NewStyle().
		Foreground(mutedColor).
		BorderTop(true).
		BorderForeground(dimColor).
		Padding(0, 1).
		Width(max(0, m.width)).
		Render(statusLine + "\n" + helpBubble.View(m.keys))

	contentHeight := max(0, m.height-lipgloss.Height(header)-lipgloss.Height(footer))
	content := header + "\n" + fitLines(body, contentHeight) + "\n" + footer
	if overlay := m.renderOverlay(); overlay != "" {
		content = overlayOnContent(content, overlay, max(1, m.width), max(1, m.height))
	}
	v := tea.NewView(content)
	v.AltScreen = true
	return v
}

func (m Model) renderHeader() string {
	tabs := make([]string, 0, viewCount)
	for v := viewTable; v < viewCount; v++ {
		label := " " + v.String() + " "
		if v == m.view {
			label = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("0")).Background(accentColor).Render(label)
		} else {
			label = mutedStyle.Render(label)
		}
		tabs = append(tabs, label)
	}
	header := titleStyle.Render("taskscope") + "  " + strings.Join(tabs, " ")
	if m.filter.Query != "" {
		header += mutedStyle.Render("  search: " + m.filter.Query)
	}
	if n := len(m.svc.Selected()); n > 0 {
		header += mutedStyle.Render(fmt.Sprintf("  selected: %d", n))
	}
	switch {
	case m.saving:
		header += dragStyle.Render("  saving...")
	case m.svc.Dirty():
		header += overdueStyle.Render("  ● unsaved")
	}
	return header
}

func (m Model) renderBody() string {
	switch m.view {
	case viewList:
		return RenderList(m.listView(), m.listRow)
	case viewKanban:
		cursor := KanbanCursor{Column: m.kanbanCol, Card: m.kanbanCard, DragTaskID: m.kanbanDrag.TaskID()}
		if cursor.DragTaskID != "" {
			cursor.DropColumn = slices.Index(projection.KanbanStatuses, m.kanbanDrag.Target())
		}
		return RenderKanban(m.board(), cursor, m.width)
	case viewCalendar:
		return RenderCalendar(m.monthView(), m.calDay)
	case viewGantt:
		g := m.gantt()
		cursor := GanttCursor{Row: m.ganttRow, DragTaskID: m.ganttDrag.TaskID()}
		if cursor.DragTaskID != "" {
			cursor.PreviewStart = g.StartAt(m.ganttDrag.Target())
		}
		return RenderGantt(g, m.cellWidth, cursor)
	default:
		return m.renderTable()
	}
}

// renderTable marks the cursor row, selected rows and the focused column on the table view.
func (m Model) renderTable() string {
	vs := m.table.View()
	if vs.Mode != table.ModeRows {
		return table.RenderText(vs)
	}
	if m.sortCol < len(vs.Headers) {
		vs.Headers[m.sortCol].Title = "[" + vs.Headers[m.sortCol].Title + "]"
	}
	selected := map[string]bool{}
	for _, id := range m.svc.Selected() {
		selected[id] = true
	}
	for i := range vs.Rows {
		if len(vs.Rows[i].Cells) == 0 {
			continue
		}
		prefix := "  "
		if task, _, ok := m.table.RowAt(i); ok && selected[task.ID] {
			prefix = "* "
		}
		if i == m.tableRow {
			prefix = "> "
		}
		vs.Rows[i].Cells[0] = prefix + vs.Rows[i].Cells[0]
	}
	return table.RenderText(vs)
}

func (m Model) renderOverlay() string {
	box := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(accentColor).
		Padding(1, 2).
		Width(min(72, max(30, m.width-8)))
	switch m.mode {
	case modeSearch:
		return box.Render(titleStyle.Render("Search") + "\n\n" + m.searchInput.View())
	case modeBulkMenu:
		lines := []string{titleStyle.Render(fmt.Sprintf("Bulk action · %d selected", len(m.svc.Selected()))), ""}
		for i, op := range app.OperationNames {
			lines = append(lines, menuLine(string(op), i == m.bulkIndex))
		}
		return box.Render(strings.Join(lines, "\n"))
	case modeBulkChoice:
		lines := []string{titleStyle.Render(string(m.bulkOp)), ""}
		for i, choice := range m.bulkChoices {
			lines = append(lines, menuLine(choice, i == m.bulkChoiceIndex))
		}
		return box.Render(strings.Join(lines, "\n"))
	case modeBulkInput:
		return box.Render(titleStyle.Render(string(m.bulkOp)) + "\n\n" + m.bulkInput.View())
	case modeSuggestions:
		lines := []string{titleStyle.Render("Suggestions"), ""}
		if m.suggestionsLoading {
			lines = append(lines, mutedStyle.Render("thinking..."))
		}
		for i, s := range m.suggestions {
			lines = append(lines, menuLine(s.Title, i == m.suggestionIndex))
			if s.Reason != "" {
				lines = append(lines, mutedStyle.Render("    "+s.Reason))
			}
		}
		return box.Render(strings.Join(lines, "\n"))
	case modeTaskInfo:
		return box.Render(m.renderTaskInfo(min(72, max(30, m.width-8)) - 6))
	}
	return ""
}

func menuLine(label string, focused bool) string {
	if focused {
		return cursorStyle.Render("> " + label)
	}
	return "  " + label
}

// renderTaskInfo renders the detail pane for infoTaskID.
func (m Model) renderTaskInfo(width int) string {
	task, err := m.svc.Task(m.infoTaskID)
	if err != nil {
		return "task not found"
	}
	lines := []string{
		titleStyle.Render(task.Title),
		mutedStyle.Render(task.ID),
		"",
		fmt.Sprintf("%s %s · priority %s · complexity %s", projection.StatusIcon(task.Status), task.Status.Label(), task.Priority, task.Complexity),
	}
	if parents := hierarchy.Build(m.svc.Tasks()).Ancestors(task.ID); len(parents) > 0 {
		titles := make([]string, 0, len(parents))
		for _, id := range parents {
			if parent, err := m.svc.Task(id); err == nil {
				titles = append(titles, parent.Title)
			}
		}
		lines = append(lines, "within: "+strings.Join(titles, " ‹ "))
	}
	if task.AssigneeName != "" {
		lines = append(lines, "assignee: "+task.AssigneeName)
	}
	if task.ProjectName != "" {
		lines = append(lines, "project: "+task.ProjectName)
	}
	if task.StartDate != nil || task.DueDate != nil {
		lines = append(lines, fmt.Sprintf("schedule: %s → %s", formatDay(task.StartDate), formatDay(task.DueDate)))
	}
	if task.EstimatedHours > 0 || task.ActualHours > 0 {
		lines = append(lines, fmt.Sprintf("hours: %g / %g est · %d pts", task.ActualHours, task.EstimatedHours, task.StoryPoints))
	}
	if task.TimeTracking.Total > 0 {
		lines = append(lines, "tracked: "+task.TimeTracking.Total.String())
	}
	if len(task.Tags) > 0 {
		lines = append(lines, "tags: "+tagBadges(task.Tags, 0))
	}
	if len(task.Dependencies) > 0 {
		lines = append(lines, "depends on: "+strings.Join(task.Dependencies, ", "))
	}
	for _, field := range projection.ResolveCustomFields(task, m.svc.CustomFields()) {
		lines = append(lines, field.Label+": "+field.Value)
	}
	if task.ApprovalStatus != domain.ApprovalNotRequired {
		lines = append(lines, "approval: "+string(task.ApprovalStatus))
		for _, stage := range task.ApprovalWorkflow {
			lines = append(lines, mutedStyle.Render(fmt.Sprintf("  %s · %s · %s", stage.Name, stage.ApproverName, stage.Status)))
		}
	}
	if n := len(task.Attachments); n > 0 {
		lines = append(lines, fmt.Sprintf("attachments: %d", n))
	}
	if desc := m.md.render(task.Description, width); desc != "" {
		lines = append(lines, "", desc)
	}
	for _, c := range task.Comments {
		lines = append(lines, "", mutedStyle.Render(c.AuthorName+" · "+c.CreatedAt.Format(time.DateOnly)), c.Body)
	}
	return strings.Join(lines, "\n")
}

// clamp clamps the requested operation.
func clamp(v, minV, maxV int) int {
	if maxV < minV {
		return minV
	}
	if v < minV {
		return minV
	}
	if v > maxV {
		return maxV
	}
	return v
}

// fitLines fits lines.
func fitLines(content string, maxLines int) string {
	if maxLines <= 0 {
		return ""
	}
	lines := strings.Split(content, "\n")
	switch {
	case len(lines) > maxLines:
		if maxLines == 1 {
			lines = []string{"…"}
		} else {
			lines = append(lines[:maxLines-1], "…")
		}
	case len(lines) < maxLines:
		padding := make([]string, maxLines-len(lines))
		lines = append(lines, padding...)
	}
	return strings.Join(lines, "\n")
}

// overlayOnContent centers overlay above base.
func overlayOnContent(base, overlay string, width, height int) string {
	base = fitLines(base, height)
	canvas := lipgloss.NewCanvas(width, height)
	centered := lipgloss.Place(width, height, lipgloss.Center, lipgloss.Center, overlay)
	canvas.Compose(lipgloss.NewLayer(base).X(0).Y(0).Z(0))
	canvas.Compose(lipgloss.NewLayer(centered).X(0).Y(0).Z(10))
	return canvas.Render()
}

// truncate truncates the requested operation.
func truncate(s string, max int) string {
	if max <= 0 {
		return ""
	}
	rs := []rune(s)
	if len(rs) <= max {
		return s
	}
	if max <= 1 {
		return string(rs[:max])
	}
	return string(rs[:max-1]) + "…"
}
