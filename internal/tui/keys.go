package tui

import "github.com/charmbracelet/bubbles/key"

// keyMap holds the widget's bindings. Submission and newline are decided by
// chat.ShouldSubmit on the reduced key event; these bindings only drive the
// remaining shortcuts and the status bar.
type keyMap struct {
	Send     key.Binding
	Newline  key.Binding
	Copy     key.Binding
	PageUp   key.Binding
	PageDown key.Binding
	Quit     key.Binding
}

var keys = keyMap{
	Send: key.NewBinding(
		key.WithKeys("enter"),
		key.WithHelp("Enter", "Send"),
	),
	Newline: key.NewBinding(
		key.WithKeys("alt+enter", "ctrl+j", "shift+enter"),
		key.WithHelp("Alt+Enter", "Newline"),
	),
	Copy: key.NewBinding(
		key.WithKeys("ctrl+y"),
		key.WithHelp("Ctrl+Y", "Copy reply"),
	),
	PageUp: key.NewBinding(
		key.WithKeys("pgup"),
		key.WithHelp("PgUp/PgDn", "Scroll"),
	),
	PageDown: key.NewBinding(
		key.WithKeys("pgdown"),
		key.WithHelp("PgDn", "Scroll down"),
	),
	Quit: key.NewBinding(
		key.WithKeys("ctrl+c", "esc"),
		key.WithHelp("Esc", "Quit"),
	),
}

// statusBindings are the bindings listed in the status bar
func (k keyMap) statusBindings() []key.Binding {
	return []key.Binding{k.Send, k.Newline, k.Copy, k.PageUp, k.Quit}
}
