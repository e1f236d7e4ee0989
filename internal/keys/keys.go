// Package keys contains keybinding definitions.
package keys

import "github.com/charmbracelet/bubbles/key"

// KeyMap defines the keybindings for the demo board.
type KeyMap struct {
	// Navigation
	Up    key.Binding
	Down  key.Binding
	Left  key.Binding
	Right key.Binding

	// Dragging
	Grab   key.Binding
	Drop   key.Binding
	Cancel key.Binding

	// Columns
	ToggleDisabled key.Binding
	CapacityUp     key.Binding
	CapacityDown   key.Binding
	Save           key.Binding

	// General
	Refresh key.Binding
	Help    key.Binding
	Quit    key.Binding
}

// DefaultKeyMap returns the default keybindings.
func DefaultKeyMap() KeyMap {
	return KeyMap{
		Up: key.NewBinding(
			key.WithKeys("k", "up"),
			key.WithHelp("k/↑", "move up"),
		),
		Down: key.NewBinding(
			key.WithKeys("j", "down"),
			key.WithHelp("j/↓", "move down"),
		),
		Left: key.NewBinding(
			key.WithKeys("h", "left"),
			key.WithHelp("h/←", "move left"),
		),
		Right: key.NewBinding(
			key.WithKeys("l", "right"),
			key.WithHelp("l/→", "move right"),
		),

		Grab: key.NewBinding(
			key.WithKeys(" "),
			key.WithHelp("space", "pick up card"),
		),
		Drop: key.NewBinding(
			key.WithKeys("enter"),
			key.WithHelp("enter", "drop card"),
		),
		Cancel: key.NewBinding(
			key.WithKeys("esc"),
			key.WithHelp("esc", "cancel drag"),
		),

		ToggleDisabled: key.NewBinding(
			key.WithKeys("d"),
			key.WithHelp("d", "toggle drops"),
		),
		CapacityUp: key.NewBinding(
			key.WithKeys("+", "="),
			key.WithHelp("+", "raise capacity"),
		),
		CapacityDown: key.NewBinding(
			key.WithKeys("-"),
			key.WithHelp("-", "lower capacity"),
		),
		Save: key.NewBinding(
			key.WithKeys("ctrl+s"),
			key.WithHelp("ctrl+s", "save columns"),
		),

		Refresh: key.NewBinding(
			key.WithKeys("r"),
			key.WithHelp("r", "re-measure"),
		),
		Help: key.NewBinding(
			key.WithKeys("?"),
			key.WithHelp("?", "toggle help"),
		),
		Quit: key.NewBinding(
			key.WithKeys("q", "ctrl+c"),
			key.WithHelp("q", "quit"),
		),
	}
}

// ShortHelp returns keybindings for the short help view.
func (k KeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Grab, k.Drop, k.Cancel, k.Help, k.Quit}
}

// FullHelp returns keybindings for the full help view.
func (k KeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Up, k.Down, k.Left, k.Right},                          // Navigation
		{k.Grab, k.Drop, k.Cancel},                               // Dragging
		{k.ToggleDisabled, k.CapacityUp, k.CapacityDown, k.Save}, // Columns
		{k.Refresh, k.Help, k.Quit},                              // General
	}
}
