package ui

import (
	"github.com/charmbracelet/bubbles/key"

	"github.com/HamStudy/kubescroll/internal/components/vlist"
)

// KeyMap defines the application key bindings
type KeyMap struct {
	List   vlist.KeyMap
	Expand key.Binding
	Wrap   key.Binding
	Theme  key.Binding
	Help   key.Binding
	Quit   key.Binding
}

// DefaultKeyMap returns the default key bindings
func DefaultKeyMap() KeyMap {
	return KeyMap{
		List: vlist.DefaultKeyMap(),
		Expand: key.NewBinding(
			key.WithKeys("enter"),
			key.WithHelp("enter", "details"),
		),
		Wrap: key.NewBinding(
			key.WithKeys("w"),
			key.WithHelp("w", "wrap"),
		),
		Theme: key.NewBinding(
			key.WithKeys("t"),
			key.WithHelp("t", "theme"),
		),
		Help: key.NewBinding(
			key.WithKeys("?"),
			key.WithHelp("?", "help"),
		),
		Quit: key.NewBinding(
			key.WithKeys("q", "ctrl+c"),
			key.WithHelp("q", "quit"),
		),
	}
}

// ShortHelp implements help.KeyMap
func (k KeyMap) ShortHelp() []key.Binding {
	return append(k.List.ShortHelp(), k.Expand, k.Help, k.Quit)
}

// FullHelp implements help.KeyMap
func (k KeyMap) FullHelp() [][]key.Binding {
	return append(k.List.FullHelp(), []key.Binding{k.Expand, k.Wrap, k.Theme, k.Help, k.Quit})
}
