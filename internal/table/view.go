package table

import (
	"strconv"
	"strings"

	"charm.land/lipgloss/v2"
)

// Mode selects which part of a ViewState is meaningful.
type Mode int

// Mode values.
const (
	ModeRows Mode = iota
	ModeLoading
	ModeEmpty
)

// Header is one rendered column header.
type Header struct {
	Key       string
	Title     string
	Width     int
	Sortable  bool
	Direction Direction
}

// Row is one rendered row with its absolute index in the sorted sequence.
type Row struct {
	Index int
	Cells []string
}

// ViewState is the render-ready projection of a table.
type ViewState struct {
	Mode       Mode
	EmptyText  string
	Headers    []Header
	Rows       []Row
	Page       int
	TotalPages int
	TotalRows  int
	Strip      []int
}

// View projects the current page. Loading wins over everything; the empty state only applies
// when the raw input has no rows and EmptyState is set.
func (t *Table[T]) View() ViewState {
	if t.Loading {
		return ViewState{Mode: ModeLoading}
	}
	if len(t.rows) == 0 && t.EmptyState != "" {
		return ViewState{Mode: ModeEmpty, EmptyText: t.EmptyState}
	}
	headers := make([]Header, 0, len(t.columns))
	for _, col := range t.columns {
		h := Header{Key: col.Key, Title: col.Title, Width: col.Width, Sortable: col.Sortable}
		if t.sort.Key == col.Key {
			h.Direction = t.sort.Direction
		}
		headers = append(headers, h)
	}
	sorted := t.Sorted()
	start, end := t.bounds(len(sorted))
	rows := make([]Row, 0, end-start)
	for i := start; i < end; i++ {
		cells := make([]string, 0, len(t.columns))
		for _, col := range t.columns {
			cells = append(cells, col.render(sorted[i], i))
		}
		rows = append(rows, Row{Index: i, Cells: cells})
	}
	return ViewState{
		Mode:       ModeRows,
		Headers:    headers,
		Rows:       rows,
		Page:       t.page,
		TotalPages: t.TotalPages(),
		TotalRows:  len(t.rows),
		Strip:      t.PageStrip(),
	}
}

var (
	headerStyle = lipgloss.NewStyle().Bold(true)
	mutedStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	pageStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("62")).Bold(true)
)

// RenderText lays a view out as fixed-width columns. Columns without a width size to content.
func RenderText(v ViewState) string {
	switch v.Mode {
	case ModeLoading:
		return mutedStyle.Render("Loading...")
	case ModeEmpty:
		return mutedStyle.Render(v.EmptyText)
	}
	widths := make([]int, len(v.Headers))
	for i, h := range v.Headers {
		widths[i] = h.Width
		if widths[i] > 0 {
			continue
		}
		widths[i] = lipgloss.Width(headerTitle(h))
		for _, row := range v.Rows {
			if i < len(row.Cells) {
				widths[i] = max(widths[i], lipgloss.Width(row.Cells[i]))
			}
		}
	}

	var b strings.Builder
	header := make([]string, len(v.Headers))
	for i, h := range v.Headers {
		header[i] = pad(headerTitle(h), widths[i])
	}
	b.WriteString(headerStyle.Render(strings.Join(header, "  ")))
	b.WriteString("\n")
	for _, row := range v.Rows {
		cells := make([]string, len(v.Headers))
		for i := range v.Headers {
			cell := ""
			if i < len(row.Cells) {
				cell = row.Cells[i]
			}
			cells[i] = pad(cell, widths[i])
		}
		b.WriteString(strings.TrimRight(strings.Join(cells, "  "), " "))
		b.WriteString("\n")
	}
	b.WriteString(renderStrip(v))
	return b.String()
}

func headerTitle(h Header) string {
	switch h.Direction {
	case Ascending:
		return h.Title + " ↑"
	case Descending:
		return h.Title + " ↓"
	default:
		return h.Title
	}
}

func renderStrip(v ViewState) string {
	parts := make([]string, 0, len(v.Strip))
	for _, p := range v.Strip {
		label := strconv.Itoa(p)
		if p == v.Page {
			parts = append(parts, pageStyle.Render("["+label+"]"))
			continue
		}
		parts = append(parts, mutedStyle.Render(label))
	}
	summary := mutedStyle.Render("page " + strconv.Itoa(v.Page) + "/" + strconv.Itoa(v.TotalPages) + " · " + strconv.Itoa(v.TotalRows) + " rows")
	return strings.Join(parts, " ") + "  " + summary
}

// pad truncates or right-pads s to width display cells.
func pad(s string, width int) string {
	if width <= 0 {
		return s
	}
	if lipgloss.Width(s) > width {
		runes := []rune(s)
		for len(runes) > 0 && lipgloss.Width(string(runes))+1 > width {
			runes = runes[:len(runes)-1]
		}
		return string(runes) + "…"
	}
	return s + strings.Repeat(" ", width-lipgloss.Width(s))
}
