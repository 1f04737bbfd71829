package ui

import "github.com/charmbracelet/bubbles/key"

// keyMap defines the [key.Binding] mapping for the TUI.
type keyMap struct {
	up       key.Binding
	down     key.Binding
	tab      key.Binding
	check    key.Binding
	checkAll key.Binding
	remove   key.Binding
	filter   key.Binding
	read     key.Binding
	readAll  key.Binding
	reload   key.Binding
	back     key.Binding
	quit     key.Binding
}

func newKeyMap() keyMap {
	return keyMap{
		up:       key.NewBinding(key.WithKeys("up", "k"), key.WithHelp("↑/k", "up")),
		down:     key.NewBinding(key.WithKeys("down", "j"), key.WithHelp("↓/j", "down")),
		tab:      key.NewBinding(key.WithKeys("tab"), key.WithHelp("tab", "links/alerts")),
		check:    key.NewBinding(key.WithKeys("enter", "c"), key.WithHelp("enter", "check")),
		checkAll: key.NewBinding(key.WithKeys("C"), key.WithHelp("C", "check all")),
		remove:   key.NewBinding(key.WithKeys("x", "delete"), key.WithHelp("x", "delete")),
		filter:   key.NewBinding(key.WithKeys("s"), key.WithHelp("s", "status filter")),
		read:     key.NewBinding(key.WithKeys("enter", "r"), key.WithHelp("enter", "mark read")),
		readAll:  key.NewBinding(key.WithKeys("R"), key.WithHelp("R", "mark all read")),
		reload:   key.NewBinding(key.WithKeys("g"), key.WithHelp("g", "reload")),
		back:     key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "back")),
		quit:     key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
	}
}

func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.tab, k.quit}
}

func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.up, k.down, k.tab},
		{k.check, k.checkAll, k.remove, k.filter},
		{k.read, k.readAll, k.reload, k.quit},
	}
}
