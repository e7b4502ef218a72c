package tui

import "github.com/charmbracelet/bubbles/key"

type keyMap struct {
	Left       key.Binding
	Right      key.Binding
	Activate   key.Binding
	Column     key.Binding
	Up         key.Binding
	Down       key.Binding
	Query      key.Binding
	ClearQuery key.Binding
	Category   key.Binding
	Detail     key.Binding
	Open       key.Binding
	Reload     key.Binding
	Help       key.Binding
	Quit       key.Binding
}

func defaultKeyMap() keyMap {
	return keyMap{
		Left:       key.NewBinding(key.WithKeys("left", "h"), key.WithHelp("←/h", "prev column")),
		Right:      key.NewBinding(key.WithKeys("right", "l"), key.WithHelp("→/l", "next column")),
		Activate:   key.NewBinding(key.WithKeys("enter", "s"), key.WithHelp("enter/s", "sort column")),
		Column:     key.NewBinding(key.WithKeys("1", "2", "3", "4", "5"), key.WithHelp("1-5", "sort by column")),
		Up:         key.NewBinding(key.WithKeys("up", "k"), key.WithHelp("↑/k", "up")),
		Down:       key.NewBinding(key.WithKeys("down", "j"), key.WithHelp("↓/j", "down")),
		Query:      key.NewBinding(key.WithKeys("/"), key.WithHelp("/", "search")),
		ClearQuery: key.NewBinding(key.WithKeys("ctrl+u"), key.WithHelp("ctrl+u", "clear search")),
		Category:   key.NewBinding(key.WithKeys("c"), key.WithHelp("c", "category")),
		Detail:     key.NewBinding(key.WithKeys("d"), key.WithHelp("d", "explanation")),
		Open:       key.NewBinding(key.WithKeys("o"), key.WithHelp("o", "import file")),
		Reload:     key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "reload")),
		Help:       key.NewBinding(key.WithKeys("?"), key.WithHelp("?", "help")),
		Quit:       key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
	}
}

func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Activate, k.Query, k.Category, k.Detail, k.Help, k.Quit}
}

func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Left, k.Right, k.Activate, k.Column},
		{k.Up, k.Down, k.Detail},
		{k.Query, k.ClearQuery, k.Category},
		{k.Open, k.Reload, k.Help, k.Quit},
	}
}
