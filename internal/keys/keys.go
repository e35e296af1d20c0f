package keys

import (
	"github.com/charmbracelet/bubbles/key"

	"github.com/nhle/todolist/internal/model"
)

// KeyMap defines the keybindings shared by the three shells.
type KeyMap struct {
	// Navigation
	Down key.Binding
	Up   key.Binding

	// Actions on the list
	Add    key.Binding
	Toggle key.Binding
	Edit   key.Binding
	Delete key.Binding

	// Input handling
	Submit key.Binding
	Cancel key.Binding

	// Help / Quit
	Help key.Binding
	Quit key.Binding
}

// DefaultKeyMap returns the default set of keybindings.
func DefaultKeyMap() *KeyMap {
	return &KeyMap{
		Down: key.NewBinding(
			key.WithKeys("j", "down"),
			key.WithHelp("j/↓", "down"),
		),
		Up: key.NewBinding(
			key.WithKeys("k", "up"),
			key.WithHelp("k/↑", "up"),
		),
		Add: key.NewBinding(
			key.WithKeys("n", "a"),
			key.WithHelp("n", "new todo"),
		),
		Toggle: key.NewBinding(
			key.WithKeys(" ", "x"),
			key.WithHelp("space/x", "toggle done"),
		),
		Edit: key.NewBinding(
			key.WithKeys("e"),
			key.WithHelp("e", "edit"),
		),
		Delete: key.NewBinding(
			key.WithKeys("d"),
			key.WithHelp("d", "delete"),
		),
		Submit: key.NewBinding(
			key.WithKeys("enter"),
			key.WithHelp("enter", "save"),
		),
		Cancel: key.NewBinding(
			key.WithKeys("esc"),
			key.WithHelp("esc", "cancel"),
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

// ForCapabilities disables the bindings for gestures a shell does not offer,
// so they neither match nor show up in help.
func (k *KeyMap) ForCapabilities(caps model.Capabilities) *KeyMap {
	c := *k
	c.Add.SetEnabled(caps.Create)
	c.Edit.SetEnabled(caps.EditText)
	c.Toggle.SetEnabled(caps.Toggle)
	c.Delete.SetEnabled(caps.Delete)
	return &c
}

// ShortHelp returns the most essential keybindings for the compact help view.
func (k *KeyMap) ShortHelp() []key.Binding {
	return []key.Binding{
		k.Up, k.Down, k.Add, k.Toggle, k.Edit, k.Delete,
		k.Help, k.Quit,
	}
}

// FullHelp returns all keybindings grouped by category for the expanded
// help view.
func (k *KeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Up, k.Down},
		{k.Add, k.Toggle, k.Edit, k.Delete},
		{k.Submit, k.Cancel},
		{k.Help, k.Quit},
	}
}
