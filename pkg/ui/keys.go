// Package ui provides the Bubble Tea TUI for the token sale client.
package ui

import "github.com/charmbracelet/bubbles/key"

// KeyMap defines all keybindings for the TUI.
type KeyMap struct {
	Quit        key.Binding
	NextAction  key.Binding
	PrevAction  key.Binding
	Submit      key.Binding
	Confirm     key.Binding
	Cancel      key.Binding
	ScrollUp    key.Binding
	ScrollDown  key.Binding
	ClearErrors key.Binding
	ClearFeed   key.Binding
}

// DefaultKeyMap returns the default keybindings.
func DefaultKeyMap() KeyMap {
	return KeyMap{
		Quit: key.NewBinding(
			key.WithKeys("q", "ctrl+c"),
			key.WithHelp("q", "quit"),
		),
		NextAction: key.NewBinding(
			key.WithKeys("tab"),
			key.WithHelp("tab", "next action"),
		),
		PrevAction: key.NewBinding(
			key.WithKeys("shift+tab"),
			key.WithHelp("shift+tab", "prev action"),
		),
		Submit: key.NewBinding(
			key.WithKeys("enter"),
			key.WithHelp("enter", "submit"),
		),
		Confirm: key.NewBinding(
			key.WithKeys("y"),
			key.WithHelp("y", "confirm"),
		),
		Cancel: key.NewBinding(
			key.WithKeys("n", "esc"),
			key.WithHelp("n", "cancel"),
		),
		ScrollUp: key.NewBinding(
			key.WithKeys("up"),
			key.WithHelp("↑", "newer"),
		),
		ScrollDown: key.NewBinding(
			key.WithKeys("down"),
			key.WithHelp("↓", "older"),
		),
		ClearErrors: key.NewBinding(
			key.WithKeys("e"),
			key.WithHelp("e", "clear errors"),
		),
		ClearFeed: key.NewBinding(
			key.WithKeys("c"),
			key.WithHelp("c", "clear activity"),
		),
	}
}

// ShortHelp returns keybindings to be shown in the mini help view.
func (k KeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Quit, k.NextAction, k.Submit, k.ScrollUp, k.ScrollDown, k.ClearErrors}
}

// FullHelp returns keybindings for the expanded help view.
func (k KeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Quit, k.NextAction, k.PrevAction},
		{k.Submit, k.Confirm, k.Cancel},
		{k.ScrollUp, k.ScrollDown, k.ClearErrors, k.ClearFeed},
	}
}
