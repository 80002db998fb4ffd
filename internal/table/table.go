// Package table implements a generic sortable, paginated table projection.
package table

import (
	"slices"
)

// Direction is the active sort direction of a column.
type Direction int

// Direction values, in click-cycle order.
const (
	Unsorted Direction = iota
	Ascending
	Descending
)

// String returns a short label.
func (d Direction) String() string {
	switch d {
	case Ascending:
		return "asc"
	case Descending:
		return "desc"
	default:
		return "none"
	}
}

// SortState holds the single active sort key.
type SortState struct {
	Key       string
	Direction Direction
}

// Active reports whether a sort is applied.
func (s SortState) Active() bool {
	return s.Key != "" && s.Direction != Unsorted
}

// Column describes one table column over rows of type T.
type Column[T any] struct {
	Key      string
	Title    string
	Sortable bool
	Width    int
	// Value selects the field shown and compared for this column.
	Value func(row T) any
	// Compare overrides CompareValues when set.
	Compare func(a, b T) int
	// Render formats a cell; index is the row's position in the sorted sequence.
	Render func(value any, row T, index int) string
}

func (c Column[T]) value(row T) any {
	if c.Value == nil {
		return nil
	}
	return c.Value(row)
}

func (c Column[T]) compare(a, b T) int {
	if c.Compare != nil {
		return c.Compare(a, b)
	}
	return CompareValues(c.value(a), c.value(b))
}

func (c Column[T]) render(row T, index int) string {
	value := c.value(row)
	if c.Render != nil {
		return c.Render(value, row, index)
	}
	return FormatValue(value)
}

// Table projects rows through a stable sort and a 1-indexed page window. It never mutates the
// slice passed to SetRows.
type Table[T any] struct {
	columns  []Column[T]
	rows     []T
	pageSize int
	page     int
	sort     SortState

	// Loading short-circuits View to a loading placeholder.
	Loading bool
	// EmptyState replaces the whole view when the input has no rows.
	EmptyState string
}

// New builds a table; pageSize values below 1 fall back to 10.
func New[T any](columns []Column[T], pageSize int) *Table[T] {
	if pageSize < 1 {
		pageSize = 10
	}
	return &Table[T]{
		columns:  slices.Clone(columns),
		pageSize: pageSize,
		page:     1,
	}
}

// Columns returns the column descriptors.
func (t *Table[T]) Columns() []Column[T] {
	return slices.Clone(t.columns)
}

// SetRows replaces the input sequence and clamps the current page.
func (t *Table[T]) SetRows(rows []T) {
	t.rows = slices.Clone(rows)
	t.clampPage()
}

// Len returns the number of input rows.
func (t *Table[T]) Len() int {
	return len(t.rows)
}

// PageSize returns rows per page.
func (t *Table[T]) PageSize() int {
	return t.pageSize
}

// Page returns the current 1-indexed page.
func (t *Table[T]) Page() int {
	return t.page
}

// Sort returns the active sort state.
func (t *Table[T]) Sort() SortState {
	return t.sort
}

// TotalPages returns ceil(rows/pageSize), never less than 1 so navigation stays defined.
func (t *Table[T]) TotalPages() int {
	if len(t.rows) == 0 {
		return 1
	}
	return (len(t.rows) + t.pageSize - 1) / t.pageSize
}

// SetPage moves to page n, clamped to [1, TotalPages].
func (t *Table[T]) SetPage(n int) {
	t.page = n
	t.clampPage()
}

// NextPage advances one page when possible.
func (t *Table[T]) NextPage() {
	t.SetPage(t.page + 1)
}

// PrevPage goes back one page when possible.
func (t *Table[T]) PrevPage() {
	t.SetPage(t.page - 1)
}

// ToggleSort cycles the sort for key: a new key starts ascending, the same key goes
// ascending -> descending -> unsorted. Unknown or non-sortable keys are ignored and report false.
// The page index is preserved and clamped.
func (t *Table[T]) ToggleSort(key string) bool {
	col, ok := t.column(key)
	if !ok || !col.Sortable {
		return false
	}
	switch {
	case t.sort.Key != key || t.sort.Direction == Unsorted:
		t.sort = SortState{Key: key, Direction: Ascending}
	case t.sort.Direction == Ascending:
		t.sort.Direction = Descending
	default:
		t.sort = SortState{}
	}
	t.clampPage()
	return true
}

// SetSort applies a sort state directly, ignoring unknown or non-sortable keys.
func (t *Table[T]) SetSort(state SortState) bool {
	if state.Direction == Unsorted || state.Key == "" {
		t.sort = SortState{}
		return true
	}
	col, ok := t.column(state.Key)
	if !ok || !col.Sortable {
		return false
	}
	t.sort = state
	t.clampPage()
	return true
}

// Sorted returns the whole input in display order.
func (t *Table[T]) Sorted() []T {
	out := slices.Clone(t.rows)
	if !t.sort.Active() {
		return out
	}
	col, ok := t.column(t.sort.Key)
	if !ok {
		return out
	}
	slices.SortStableFunc(out, func(a, b T) int {
		cmp := col.compare(a, b)
		if t.sort.Direction == Descending {
			return -cmp
		}
		return cmp
	})
	return out
}

// PageRows returns at most PageSize rows of the current page.
func (t *Table[T]) PageRows() []T {
	sorted := t.Sorted()
	start, end := t.bounds(len(sorted))
	return sorted[start:end]
}

// RowAt resolves a position on the current page to its row and absolute sorted index.
func (t *Table[T]) RowAt(pageIndex int) (T, int, bool) {
	var zero T
	sorted := t.Sorted()
	start, end := t.bounds(len(sorted))
	abs := start + pageIndex
	if pageIndex < 0 || abs >= end {
		return zero, -1, false
	}
	return sorted[abs], abs, true
}

// PageStrip returns up to 5 page numbers centred on the current page and shifted to stay
// within [1, TotalPages].
func (t *Table[T]) PageStrip() []int {
	return pageStrip(t.page, t.TotalPages(), 5)
}

func pageStrip(current, total, size int) []int {
	if total < 1 {
		return nil
	}
	if size > total {
		size = total
	}
	start := current - size/2
	start = max(start, 1)
	if start+size-1 > total {
		start = total - size + 1
	}
	out := make([]int, 0, size)
	for p := start; p < start+size; p++ {
		out = append(out, p)
	}
	return out
}

func (t *Table[T]) bounds(n int) (int, int) {
	start := (t.page - 1) * t.pageSize
	if start > n {
		start = n
	}
	return start, min(start+t.pageSize, n)
}

func (t *Table[T]) clampPage() {
	t.page = min(max(t.page, 1), t.TotalPages())
}

func (t *Table[T]) column(key string) (Column[T], bool) {
	for _, col := range t.columns {
		if col.Key == key {
			return col, true
		}
	}
	return Column[T]{}, false
}

// SelectAllState reports the header checkbox state: every known id is selected and there is at
// least one.
func SelectAllState(selected, all []string) bool {
	return len(all) > 0 && len(selected) == len(all)
}
