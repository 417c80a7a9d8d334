package tui

import "github.com/charmbracelet/bubbles/key"

// KeyMap defines all key bindings for the invoice console.
type KeyMap struct {
	// Table navigation.
	Up       key.Binding
	Down     key.Binding
	PrevPage key.Binding
	NextPage key.Binding

	// Dialogs.
	Create key.Binding
	Edit   key.Binding
	View   key.Binding
	Attach key.Binding

	// Derivation controls.
	SortColumn    key.Binding // Cycle the sort column, ascending.
	SortDirection key.Binding // Flip the direction of the current column.
	StatusFilter  key.Binding // Cycle the status filter.
	DateFilter    key.Binding
	Search        key.Binding
	ClearFilters  key.Binding

	Refresh      key.Binding
	RetryUploads key.Binding

	// Form dialog.
	NextField  key.Binding
	PrevField  key.Binding
	Submit     key.Binding
	FormAttach key.Binding
	Dismiss    key.Binding

	Quit key.Binding
}

// DefaultKeyMap is the built-in key binding set.
var DefaultKeyMap = KeyMap{
	Up: key.NewBinding(
		key.WithKeys("k", "up"),
		key.WithHelp("k/↑", "up"),
	),
	Down: key.NewBinding(
		key.WithKeys("j", "down"),
		key.WithHelp("j/↓", "down"),
	),
	PrevPage: key.NewBinding(
		key.WithKeys("left", "h"),
		key.WithHelp("←", "prev page"),
	),
	NextPage: key.NewBinding(
		key.WithKeys("right", "l"),
		key.WithHelp("→", "next page"),
	),
	Create: key.NewBinding(
		key.WithKeys("n"),
		key.WithHelp("n", "new"),
	),
	Edit: key.NewBinding(
		key.WithKeys("e"),
		key.WithHelp("e", "edit"),
	),
	View: key.NewBinding(
		key.WithKeys("v", "enter"),
		key.WithHelp("v", "view"),
	),
	Attach: key.NewBinding(
		key.WithKeys("a"),
		key.WithHelp("a", "attach"),
	),
	FormAttach: key.NewBinding(
		key.WithKeys("ctrl+a"),
		key.WithHelp("C-a", "attach"),
	),
	SortColumn: key.NewBinding(
		key.WithKeys("s"),
		key.WithHelp("s", "sort"),
	),
	SortDirection: key.NewBinding(
		key.WithKeys("S"),
		key.WithHelp("S", "reverse"),
	),
	StatusFilter: key.NewBinding(
		key.WithKeys("f"),
		key.WithHelp("f", "status"),
	),
	DateFilter: key.NewBinding(
		key.WithKeys("d"),
		key.WithHelp("d", "dates"),
	),
	Search: key.NewBinding(
		key.WithKeys("/"),
		key.WithHelp("/", "customer"),
	),
	ClearFilters: key.NewBinding(
		key.WithKeys("c"),
		key.WithHelp("c", "clear filters"),
	),
	Refresh: key.NewBinding(
		key.WithKeys("r"),
		key.WithHelp("r", "refresh"),
	),
	RetryUploads: key.NewBinding(
		key.WithKeys("u"),
		key.WithHelp("u", "retry uploads"),
	),
	NextField: key.NewBinding(
		key.WithKeys("tab", "down"),
		key.WithHelp("Tab", "next field"),
	),
	PrevField: key.NewBinding(
		key.WithKeys("shift+tab", "up"),
		key.WithHelp("S-Tab", "prev field"),
	),
	Submit: key.NewBinding(
		key.WithKeys("ctrl+s"),
		key.WithHelp("C-s", "save"),
	),
	Dismiss: key.NewBinding(
		key.WithKeys("esc"),
		key.WithHelp("Esc", "close"),
	),
	Quit: key.NewBinding(
		key.WithKeys("q", "ctrl+c"),
		key.WithHelp("q", "quit"),
	),
}

// ShortHelp implements help.KeyMap for the table screen.
func (keys KeyMap) ShortHelp() []key.Binding {
	return []key.Binding{
		keys.Create, keys.Edit, keys.View, keys.SortColumn, keys.SortDirection,
		keys.StatusFilter, keys.DateFilter, keys.Search, keys.PrevPage, keys.NextPage,
		keys.Refresh, keys.Quit,
	}
}

// FullHelp implements help.KeyMap.
func (keys KeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{keys.Up, keys.Down, keys.PrevPage, keys.NextPage},
		{keys.Create, keys.Edit, keys.View, keys.Attach},
		{keys.SortColumn, keys.SortDirection, keys.StatusFilter, keys.DateFilter, keys.Search, keys.ClearFilters},
		{keys.Refresh, keys.RetryUploads, keys.Quit},
	}
}

// formHelp lists the bindings shown under the create and edit dialogs.
func (keys KeyMap) formHelp() []key.Binding {
	return []key.Binding{keys.NextField, keys.PrevField, keys.Submit, keys.FormAttach, keys.Dismiss}
}

// detailHelp lists the bindings shown under the view dialog.
func (keys KeyMap) detailHelp() []key.Binding {
	return []key.Binding{keys.Edit, keys.Attach, keys.Dismiss}
}
