package tui

import "github.com/charmbracelet/bubbles/key"

// keyMap defines key bindings for the monitor screen
type keyMap struct {
	Up      key.Binding
	Down    key.Binding
	Scan    key.Binding
	Monitor key.Binding
	Details key.Binding
	Toggle  key.Binding
	Move    key.Binding
	Save    key.Binding
	Quit    key.Binding
}

// ShortHelp returns keybindings to be shown in the mini help view
func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Scan, k.Monitor, k.Details, k.Move, k.Save, k.Quit}
}

// FullHelp returns keybindings for the expanded help view
func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Up, k.Down, k.Details, k.Toggle},
		{k.Scan, k.Monitor, k.Move, k.Save, k.Quit},
	}
}

// promptKeyMap is active while the group name input has focus
type promptKeyMap struct {
	Confirm key.Binding
	Cancel  key.Binding
}

func (k promptKeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Confirm, k.Cancel}
}

func (k promptKeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{{k.Confirm, k.Cancel}}
}

// detailsKeyMap is active while the details panel is open
type detailsKeyMap struct {
	Close key.Binding
	Quit  key.Binding
}

func (k detailsKeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Close, k.Quit}
}

func (k detailsKeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{{k.Close, k.Quit}}
}

func newKeyMap() keyMap {
	return keyMap{
		Up: key.NewBinding(
			key.WithKeys("up", "k"),
			key.WithHelp("↑/k", "move up"),
		),
		Down: key.NewBinding(
			key.WithKeys("down", "j"),
			key.WithHelp("↓/j", "move down"),
		),
		Scan: key.NewBinding(
			key.WithKeys("s"),
			key.WithHelp("s", "scan"),
		),
		Monitor: key.NewBinding(
			key.WithKeys("m"),
			key.WithHelp("m", "monitor"),
		),
		Details: key.NewBinding(
			key.WithKeys("enter"),
			key.WithHelp("enter", "details"),
		),
		Toggle: key.NewBinding(
			key.WithKeys(" "),
			key.WithHelp("space", "expand/collapse"),
		),
		Move: key.NewBinding(
			key.WithKeys("g"),
			key.WithHelp("g", "move to group"),
		),
		Save: key.NewBinding(
			key.WithKeys("w"),
			key.WithHelp("w", "save site"),
		),
		Quit: key.NewBinding(
			key.WithKeys("q", "ctrl+c"),
			key.WithHelp("q", "quit"),
		),
	}
}

func newPromptKeyMap() promptKeyMap {
	return promptKeyMap{
		Confirm: key.NewBinding(
			key.WithKeys("enter"),
			key.WithHelp("enter", "move"),
		),
		Cancel: key.NewBinding(
			key.WithKeys("esc"),
			key.WithHelp("esc", "cancel"),
		),
	}
}

func newDetailsKeyMap() detailsKeyMap {
	return detailsKeyMap{
		Close: key.NewBinding(
			key.WithKeys("esc", "enter"),
			key.WithHelp("esc", "close"),
		),
		Quit: key.NewBinding(
			key.WithKeys("q", "ctrl+c"),
			key.WithHelp("q", "quit"),
		),
	}
}
