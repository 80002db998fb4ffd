package tui

import (
	"strings"

	"charm.land/bubbles/v2/key"
)

// KeyBindings holds the user-configurable keys.
type KeyBindings struct {
	NextView   string
	Select     string
	SelectAll  string
	Drag       string
	BulkAction string
	Save       string
}

// DefaultKeyBindings returns the stock bindings.
func DefaultKeyBindings() KeyBindings {
	return KeyBindings{
		NextView:   "tab",
		Select:     "space",
		SelectAll:  "A",
		Drag:       "m",
		BulkAction: "b",
		Save:       "ctrl+s",
	}
}

// keyMap represents key map data used by this package.
type keyMap struct {
	quit        key.Binding
	toggleHelp  key.Binding
	nextView    key.Binding
	prevView    key.Binding
	moveLeft    key.Binding
	moveRight   key.Binding
	moveUp      key.Binding
	moveDown    key.Binding
	nextPage    key.Binding
	prevPage    key.Binding
	sortColumn  key.Binding
	expand      key.Binding
	selectTask  key.Binding
	selectAll   key.Binding
	drag        key.Binding
	drop        key.Binding
	bulkAction  key.Binding
	save        key.Binding
	search      key.Binding
	suggestions key.Binding
	taskInfo    key.Binding
	copyID      key.Binding
	prevMonth   key.Binding
	nextMonth   key.Binding
	granularity key.Binding
}

// newKeyMap constructs key map from configurable bindings; blank entries keep the defaults.
func newKeyMap(kb KeyBindings) keyMap {
	def := DefaultKeyBindings()
	k := keyMap{
		quit:        key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
		toggleHelp:  key.NewBinding(key.WithKeys("?"), key.WithHelp("?", "toggle help")),
		prevView:    key.NewBinding(key.WithKeys("shift+tab"), key.WithHelp("shift+tab", "previous view")),
		moveLeft:    key.NewBinding(key.WithKeys("h", "left"), key.WithHelp("h/←", "left")),
		moveRight:   key.NewBinding(key.WithKeys("l", "right"), key.WithHelp("l/→", "right")),
		moveUp:      key.NewBinding(key.WithKeys("k", "up"), key.WithHelp("k/↑", "up")),
		moveDown:    key.NewBinding(key.WithKeys("j", "down"), key.WithHelp("j/↓", "down")),
		nextPage:    key.NewBinding(key.WithKeys("n", "pgdown"), key.WithHelp("n", "next page")),
		prevPage:    key.NewBinding(key.WithKeys("p", "pgup"), key.WithHelp("p", "previous page")),
		sortColumn:  key.NewBinding(key.WithKeys("s"), key.WithHelp("s", "sort column")),
		expand:      key.NewBinding(key.WithKeys("e"), key.WithHelp("e", "expand/collapse")),
		drop:        key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "drop")),
		search:      key.NewBinding(key.WithKeys("/"), key.WithHelp("/", "search")),
		suggestions: key.NewBinding(key.WithKeys("g"), key.WithHelp("g", "suggestions")),
		taskInfo:    key.NewBinding(key.WithKeys("i"), key.WithHelp("i", "task info")),
		copyID:      key.NewBinding(key.WithKeys("y"), key.WithHelp("y", "copy id")),
		prevMonth:   key.NewBinding(key.WithKeys("["), key.WithHelp("[", "previous month")),
		nextMonth:   key.NewBinding(key.WithKeys("]"), key.WithHelp("]", "next month")),
		granularity: key.NewBinding(key.WithKeys("z"), key.WithHelp("z", "zoom")),
	}
	configureBinding(&k.nextView, kb.NextView, def.NextView, "next view")
	configureBinding(&k.selectTask, kb.Select, def.Select, "select")
	configureBinding(&k.selectAll, kb.SelectAll, def.SelectAll, "select all")
	configureBinding(&k.drag, kb.Drag, def.Drag, "drag")
	configureBinding(&k.bulkAction, kb.BulkAction, def.BulkAction, "bulk action")
	configureBinding(&k.save, kb.Save, def.Save, "save")
	return k
}

// configureBinding replaces a binding's keys and help with a configured value.
func configureBinding(b *key.Binding, raw, fallback, desc string) {
	keys, help := parseBindingKeys(raw, fallback)
	*b = key.NewBinding(key.WithKeys(keys...), key.WithHelp(help, desc))
}

// parseBindingKeys expands one configured key into the matcher strings bubbletea reports for it.
// "space" also matches a literal space and an uppercase letter also matches its shift form.
func parseBindingKeys(raw, fallback string) ([]string, string) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		raw = strings.TrimSpace(fallback)
	}
	switch {
	case strings.EqualFold(raw, "space"):
		return []string{" ", "space"}, "space"
	case len([]rune(raw)) == 1:
		r := []rune(raw)[0]
		if r >= 'A' && r <= 'Z' {
			return []string{raw, "shift+" + strings.ToLower(raw)}, raw
		}
		return []string{raw}, raw
	default:
		return []string{strings.ToLower(raw)}, raw
	}
}

// ShortHelp handles short help.
func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.nextView, k.selectTask, k.drag, k.bulkAction, k.search, k.save, k.toggleHelp, k.quit}
}

// FullHelp handles full help.
func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.nextView, k.prevView, k.search, k.suggestions, k.taskInfo, k.copyID, k.save, k.toggleHelp, k.quit},
		{k.moveLeft, k.moveRight, k.moveUp, k.moveDown, k.nextPage, k.prevPage, k.prevMonth, k.nextMonth},
		{k.sortColumn, k.expand, k.selectTask, k.selectAll, k.drag, k.drop, k.bulkAction, k.granularity},
	}
}
