package ui

import "github.com/charmbracelet/bubbles/key"

// keyMap defines the [key.Binding] mapping for the TUI.
type keyMap struct {
	submit  key.Binding
	login   key.Binding
	connect key.Binding
	full    key.Binding
	preview key.Binding
	up      key.Binding
	down    key.Binding
	quit    key.Binding
}

func newKeyMap() keyMap {
	return keyMap{
		submit:  key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "scan")),
		login:   key.NewBinding(key.WithKeys("ctrl+l"), key.WithHelp("ctrl+l", "login")),
		connect: key.NewBinding(key.WithKeys("ctrl+d"), key.WithHelp("ctrl+d", "device")),
		full:    key.NewBinding(key.WithKeys("ctrl+p"), key.WithHelp("ctrl+p", "play")),
		preview: key.NewBinding(key.WithKeys("ctrl+e"), key.WithHelp("ctrl+e", "preview")),
		up:      key.NewBinding(key.WithKeys("up"), key.WithHelp("↑", "history")),
		down:    key.NewBinding(key.WithKeys("down"), key.WithHelp("↓", "history")),
		quit:    key.NewBinding(key.WithKeys("esc", "ctrl+c"), key.WithHelp("esc", "quit")),
	}
}

func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.submit, k.full, k.preview, k.quit}
}

func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.submit, k.up, k.down},
		{k.login, k.connect},
		{k.full, k.preview, k.quit},
	}
}
