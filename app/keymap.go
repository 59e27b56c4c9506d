package app

import "github.com/charmbracelet/bubbles/key"

// KeyMap defines the viewer keybindings.
type KeyMap struct {
	Quit          key.Binding
	Reload        key.Binding
	ToggleLoading key.Binding
	Top           key.Binding
	Bottom        key.Binding
}

// DefaultKeyMap returns the default keybindings. Scrolling keys belong to
// the viewport.
func DefaultKeyMap() KeyMap {
	return KeyMap{
		Quit: key.NewBinding(
			key.WithKeys("q", "ctrl+c"),
			key.WithHelp("q", "quit"),
		),
		Reload: key.NewBinding(
			key.WithKeys("r"),
			key.WithHelp("r", "reload"),
		),
		ToggleLoading: key.NewBinding(
			key.WithKeys("l"),
			key.WithHelp("l", "toggle typing"),
		),
		Top: key.NewBinding(
			key.WithKeys("g", "home"),
			key.WithHelp("g", "top"),
		),
		Bottom: key.NewBinding(
			key.WithKeys("G", "end"),
			key.WithHelp("G", "bottom"),
		),
	}
}

// Help returns the short help line entries.
func (k KeyMap) Help() []key.Binding {
	return []key.Binding{k.Quit, k.Reload, k.ToggleLoading, k.Top, k.Bottom}
}
