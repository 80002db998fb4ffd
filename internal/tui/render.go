package tui

import (
	"fmt"
	"image/color"
	"math"
	"strings"
	"time"

	"charm.land/lipgloss/v2"
	"github.com/hylla/taskscope/internal/domain"
	"github.com/hylla/taskscope/internal/projection"
)

var (
	accentColor = lipgloss.Color("62")
	mutedColor  = lipgloss.Color("241")
	dimColor    = lipgloss.Color("239")

	titleStyle    = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("252"))
	mutedStyle    = lipgloss.NewStyle().Foreground(mutedColor)
	cursorStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("212")).Bold(true)
	selectedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("252")).Background(lipgloss.Color("237"))
	overdueStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("203"))
	todayStyle    = lipgloss.NewStyle().Foreground(accentColor).Bold(true).Underline(true)
	dragStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("214")).Bold(true)
)

// priorityColor maps a priority to its dot color.
func priorityColor(p domain.Priority) color.Color {
	switch p {
	case domain.PriorityUrgent:
		return lipgloss.Color("196")
	case domain.PriorityHigh:
		return lipgloss.Color("208")
	case domain.PriorityMedium:
		return lipgloss.Color("220")
	default:
		return lipgloss.Color("244")
	}
}

func priorityDot(p domain.Priority) string {
	return lipgloss.NewStyle().Foreground(priorityColor(p)).Render("●")
}

func formatDay(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.UTC().Format("Jan 2")
}

func formatHours(h float64) string {
	if h <= 0 {
		return ""
	}
	return fmt.Sprintf("%gh", h)
}

// RenderList draws the nested list. cursor is the highlighted row index, -1 for none.
func RenderList(view projection.ListView, cursor int) string {
	if len(view.Rows) == 0 {
		return mutedStyle.Render("No tasks match the current filter.")
	}
	var b strings.Builder
	b.WriteString(titleStyle.Render(checkbox(view.SelectAll) + " Task"))
	b.WriteString("\n")
	for i, row := range view.Rows {
		expander := " "
		if row.HasChildren {
			expander = "▸"
			if row.Expanded {
				expander = "▾"
			}
		}
		parts := []string{
			checkbox(row.Selected),
			strings.Repeat("  ", row.Level) + expander,
			row.StatusIcon,
			priorityDot(row.Priority),
			truncate(row.Title, 40),
		}
		if tags := tagBadges(row.Tags, row.TagOverflow); tags != "" {
			parts = append(parts, mutedStyle.Render(tags))
		}
		if row.Assignee != "" {
			parts = append(parts, "@"+row.Assignee)
		}
		if due := formatDay(row.Due); due != "" {
			if row.Overdue {
				due = overdueStyle.Render(due + "!")
			}
			parts = append(parts, due)
		}
		if est := formatHours(row.EstimatedHours); est != "" {
			parts = append(parts, est)
		}
		if row.StoryPoints > 0 {
			parts = append(parts, fmt.Sprintf("%dsp", row.StoryPoints))
		}
		if meta := listMeta(row); meta != "" {
			parts = append(parts, mutedStyle.Render(meta))
		}
		for _, field := range row.CustomFields {
			parts = append(parts, mutedStyle.Render(field.Label+"="+field.Value))
		}
		if row.Approval != "" {
			parts = append(parts, mutedStyle.Render("approval:"+string(row.Approval)))
		}
		line := strings.Join(parts, " ")
		switch {
		case i == cursor:
			line = cursorStyle.Render("> ") + line
		case row.Selected:
			line = "  " + selectedStyle.Render(line)
		default:
			line = "  " + line
		}
		b.WriteString(line)
		b.WriteString("\n")
	}
	return strings.TrimRight(b.String(), "\n")
}

// tagBadges renders already-capped tags plus their overflow count.
func tagBadges(tags []string, overflow int) string {
	parts := make([]string, 0, len(tags)+1)
	for _, tag := range tags {
		parts = append(parts, "#"+tag)
	}
	if overflow > 0 {
		parts = append(parts, fmt.Sprintf("+%d", overflow))
	}
	return strings.Join(parts, " ")
}

func checkbox(on bool) string {
	if on {
		return "[x]"
	}
	return "[ ]"
}

func listMeta(row projection.ListRow) string {
	var parts []string
	if row.Dependencies > 0 {
		parts = append(parts, fmt.Sprintf("deps:%d", row.Dependencies))
	}
	if row.Comments > 0 {
		parts = append(parts, fmt.Sprintf("comments:%d", row.Comments))
	}
	if row.Attachments > 0 {
		parts = append(parts, fmt.Sprintf("files:%d", row.Attachments))
	}
	return strings.Join(parts, " ")
}

// KanbanCursor marks the focused card and an in-flight drag on the board.
type KanbanCursor struct {
	Column int
	Card   int
	// DragTaskID is the card being dragged; DropColumn is where it would land.
	DragTaskID string
	DropColumn int
}

// RenderKanban draws the board columns side by side.
func RenderKanban(board projection.Kanban, cursor KanbanCursor, width int) string {
	if len(board.Columns) == 0 {
		return ""
	}
	colWidth := 28
	if width > 0 {
		colWidth = max(18, width/len(board.Columns)-3)
	}
	base := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(dimColor).
		Padding(0, 1).
		Width(colWidth)
	views := make([]string, 0, len(board.Columns))
	for ci, column := range board.Columns {
		style := base
		if ci == cursor.Column {
			style = style.BorderForeground(accentColor)
		}
		if cursor.DragTaskID != "" && ci == cursor.DropColumn {
			style = style.BorderForeground(lipgloss.Color("214"))
		}
		lines := []string{
			lipgloss.NewStyle().Bold(true).Foreground(accentColor).Render(fmt.Sprintf("%s (%d)", column.Title, len(column.Cards))),
		}
		if len(column.Cards) == 0 {
			lines = append(lines, mutedStyle.Render("no tasks"))
		}
		for ri, card := range column.Cards {
			title := priorityDot(card.Priority) + " " + truncate(card.Title, colWidth-4)
			switch {
			case card.ID == cursor.DragTaskID:
				title = dragStyle.Render("⇄ " + truncate(card.Title, colWidth-4))
			case ci == cursor.Column && ri == cursor.Card:
				title = cursorStyle.Render(title)
			}
			lines = append(lines, title)
			if sub := cardMeta(card); sub != "" {
				lines = append(lines, mutedStyle.Render("  "+truncate(sub, colWidth-4)))
			}
		}
		views = append(views, style.Render(strings.Join(lines, "\n")))
	}
	out := lipgloss.JoinHorizontal(lipgloss.Top, views...)
	if board.Hidden > 0 {
		out += "\n" + mutedStyle.Render(fmt.Sprintf("%d cancelled tasks hidden", board.Hidden))
	}
	return out
}

func cardMeta(card projection.Card) string {
	var parts []string
	if card.Assignee != "" {
		parts = append(parts, "@"+card.Assignee)
	}
	if due := formatDay(card.Due); due != "" {
		if card.Overdue {
			due += "!"
		}
		parts = append(parts, due)
	}
	if est := formatHours(card.EstimatedHours); est != "" {
		parts = append(parts, est)
	}
	if tags := tagBadges(card.Tags, card.TagOverflow); tags != "" {
		parts = append(parts, tags)
	}
	return strings.Join(parts, " ")
}

const calendarCellWidth = 16

// RenderCalendar draws the 6x7 month grid. cursor highlights one day; the zero time highlights none.
func RenderCalendar(month projection.Month, cursor time.Time) string {
	var b strings.Builder
	b.WriteString(titleStyle.Render(month.First.Format("January 2006")))
	b.WriteString("\n")
	names := make([]string, 0, 7)
	for d := time.Sunday; d <= time.Saturday; d++ {
		names = append(names, padRight(d.String()[:3], calendarCellWidth))
	}
	b.WriteString(mutedStyle.Render(strings.Join(names, " ")))
	b.WriteString("\n")

	cellHeight := 1
	for _, week := range month.Weeks {
		for _, cell := range week {
			cellHeight = max(cellHeight, 1+len(cell.Entries)+min(cell.Overflow, 1))
		}
	}
	for _, week := range month.Weeks {
		blocks := make([]string, 0, len(week))
		for _, cell := range week {
			blocks = append(blocks, renderCalendarCell(cell, cellHeight, !cursor.IsZero() && domain.SameDay(cell.Date, cursor)))
		}
		b.WriteString(lipgloss.JoinHorizontal(lipgloss.Top, blocks...))
		b.WriteString("\n")
	}
	return strings.TrimRight(b.String(), "\n")
}

func renderCalendarCell(cell projection.Cell, height int, focused bool) string {
	day := fmt.Sprintf("%2d", cell.Date.Day())
	switch {
	case !cell.InMonth:
		day = lipgloss.NewStyle().Foreground(dimColor).Render(day)
	case cell.IsToday:
		day = todayStyle.Render(day)
	}
	if focused {
		day = cursorStyle.Render("[") + day + cursorStyle.Render("]")
	}
	lines := []string{day}
	for _, entry := range cell.Entries {
		text := truncate(entry.Title, calendarCellWidth-3)
		if entry.Overdue {
			text = overdueStyle.Render(text)
		}
		lines = append(lines, priorityDot(entry.Priority)+" "+text)
	}
	if cell.Overflow > 0 {
		lines = append(lines, mutedStyle.Render(fmt.Sprintf("+%d more", cell.Overflow)))
	}
	for len(lines) < height {
		lines = append(lines, "")
	}
	return lipgloss.NewStyle().Width(calendarCellWidth + 1).Render(strings.Join(lines, "\n"))
}

// GanttCursor marks the focused row and an in-flight bar drag.
type GanttCursor struct {
	Row int
	// DragTaskID is the bar being dragged; PreviewStart is where it would start on release.
	DragTaskID   string
	PreviewStart time.Time
}

const ganttLabelWidth = 30

// RenderGantt draws bars on a character grid where one cell stands for cellWidth pixels.
func RenderGantt(g projection.Gantt, cellWidth float64, cursor GanttCursor) string {
	if cellWidth <= 0 {
		cellWidth = 20
	}
	cols := max(1, int(math.Ceil(g.Width/cellWidth)))
	toCol := func(px float64) int {
		return clamp(int(math.Floor(px/cellWidth)), 0, cols-1)
	}

	var b strings.Builder
	header := []rune(strings.Repeat(" ", cols))
	for _, p := range g.Periods {
		at := toCol(p.Left)
		for i, r := range []rune(p.Label) {
			if at+i < cols && (i == 0 || header[at+i] == ' ') {
				header[at+i] = r
			}
		}
	}
	b.WriteString(padRight(titleStyle.Render(string(g.Config.Granularity)), ganttLabelWidth))
	b.WriteString(mutedStyle.Render(string(header)))
	b.WriteString("\n")

	todayCol := -1
	if g.TodayVisible {
		todayCol = toCol(g.TodayLeft)
	}
	if len(g.Bars) == 0 {
		b.WriteString(mutedStyle.Render("No tasks to schedule."))
		return b.String()
	}
	for i, bar := range g.Bars {
		left, width := bar.Left, bar.Width
		dragging := bar.TaskID == cursor.DragTaskID && !cursor.PreviewStart.IsZero()
		if dragging {
			left = math.Max(g.FractionOf(cursor.PreviewStart)*g.Width, 0)
		}
		start := toCol(left)
		span := max(1, int(math.Round(width/cellWidth)))
		filled := int(math.Round(float64(span) * bar.Progress))

		row := []rune(strings.Repeat(" ", cols))
		if todayCol >= 0 {
			row[todayCol] = '│'
		}
		for c := 0; c < span && start+c < cols; c++ {
			if c < filled {
				row[start+c] = '█'
			} else {
				row[start+c] = '▒'
			}
		}
		chart := lipgloss.NewStyle().Foreground(priorityColor(bar.Priority)).Render(string(row))
		if dragging {
			chart = dragStyle.Render(string(row))
		}

		label := strings.Repeat("  ", bar.Level) + projection.StatusIcon(bar.Status) + " " + bar.Title
		if bar.DependencyCount > 0 {
			label += fmt.Sprintf(" ⛓%d", bar.DependencyCount)
		}
		label = truncate(label, ganttLabelWidth-3)
		if bar.Overdue {
			label = overdueStyle.Render(label)
		}
		if i == cursor.Row {
			label = cursorStyle.Render("> ") + label
		} else {
			label = "  " + label
		}
		b.WriteString(padRight(label, ganttLabelWidth))
		b.WriteString(chart)
		b.WriteString("\n")
	}
	b.WriteString(mutedStyle.Render(fmt.Sprintf("%s → %s · %.0f days",
		g.RangeStart.Format(time.DateOnly), g.RangeEnd.Format(time.DateOnly), g.TotalDays)))
	if dragID := cursor.DragTaskID; dragID != "" && !cursor.PreviewStart.IsZero() {
		b.WriteString(dragStyle.Render("  move to " + cursor.PreviewStart.Format(time.DateOnly)))
	}
	return b.String()
}

// padRight pads s with spaces to width display cells.
func padRight(s string, width int) string {
	if gap := width - lipgloss.Width(s); gap > 0 {
		return s + strings.Repeat(" ", gap)
	}
	return s
}
