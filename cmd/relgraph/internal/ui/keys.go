package ui

import "github.com/charmbracelet/bubbles/key"

// KeyMap defines all keyboard shortcuts
type KeyMap struct {
	ZoomIn     key.Binding
	ZoomOut    key.Binding
	Reset      key.Binding
	Fit        key.Binding
	Labels     key.Binding
	Categories key.Binding
	Next       key.Binding
	Prev       key.Binding
	Pan        key.Binding
	Help       key.Binding
	Quit       key.Binding
}

var DefaultKeyMap = KeyMap{
	ZoomIn: key.NewBinding(
		key.WithKeys("+", "="),
		key.WithHelp("+", "zoom in"),
	),
	ZoomOut: key.NewBinding(
		key.WithKeys("-", "_"),
		key.WithHelp("-", "zoom out"),
	),
	Reset: key.NewBinding(
		key.WithKeys("0", "r"),
		key.WithHelp("0/r", "reset view"),
	),
	Fit: key.NewBinding(
		key.WithKeys("f"),
		key.WithHelp("f", "fit graph"),
	),
	Labels: key.NewBinding(
		key.WithKeys("l"),
		key.WithHelp("l", "labels"),
	),
	Categories: key.NewBinding(
		key.WithKeys("c"),
		key.WithHelp("c", "categories"),
	),
	Next: key.NewBinding(
		key.WithKeys("tab", "n"),
		key.WithHelp("tab/n", "focus next"),
	),
	Prev: key.NewBinding(
		key.WithKeys("shift+tab", "p"),
		key.WithHelp("shift+tab/p", "focus previous"),
	),
	Pan: key.NewBinding(
		key.WithKeys("up", "down", "left", "right"),
		key.WithHelp("←↑↓→/drag", "pan"),
	),
	Help: key.NewBinding(
		key.WithKeys("?"),
		key.WithHelp("?", "help"),
	),
	Quit: key.NewBinding(
		key.WithKeys("ctrl+c", "q", "esc"),
		key.WithHelp("q", "quit"),
	),
}

// ShortHelp implements help.KeyMap.
func (k KeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.ZoomIn, k.ZoomOut, k.Next, k.Help, k.Quit}
}

// FullHelp implements help.KeyMap.
func (k KeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.ZoomIn, k.ZoomOut, k.Reset, k.Fit},
		{k.Labels, k.Categories, k.Next, k.Prev},
		{k.Pan, k.Help, k.Quit},
	}
}
