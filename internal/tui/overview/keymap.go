package overview

import (
	"github.com/charmbracelet/bubbles/key"
	"github.com/mattsolo1/grove-core/tui/keymap"
)

// KeyMap defines the keybindings for the overview TUI. Movement, back, help
// and quit come from the shared base map.
type KeyMap struct {
	keymap.Base
	PageUp     key.Binding
	PageDown   key.Binding
	GoToTop    key.Binding
	GoToBottom key.Binding
	Toggle     key.Binding
	Open       key.Binding
	Close      key.Binding
	FoldPrefix key.Binding // z key for fold commands
	Search     key.Binding
	Shrink     key.Binding
	Grow       key.Binding
	Refresh    key.Binding
}

func (k KeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Search, k.Toggle, k.Refresh, k.Help, k.Quit}
}

func (k KeyMap) FullHelp() [][]key.Binding {
	baseHelp := k.Base.FullHelp()
	return append(baseHelp, []key.Binding{
		k.PageUp,
		k.PageDown,
		k.GoToTop,
		k.GoToBottom,
	}, []key.Binding{
		k.Toggle,
		k.Open,
		k.Close,
		k.FoldPrefix,
	}, []key.Binding{
		k.Search,
		k.Shrink,
		k.Grow,
		k.Refresh,
	})
}

var keys = KeyMap{
	Base: keymap.NewBase(),
	PageUp: key.NewBinding(
		key.WithKeys("ctrl+u", "pgup"),
		key.WithHelp("ctrl+u", "page up"),
	),
	PageDown: key.NewBinding(
		key.WithKeys("ctrl+d", "pgdown"),
		key.WithHelp("ctrl+d", "page down"),
	),
	GoToTop: key.NewBinding(
		key.WithKeys("g"),
		key.WithHelp("gg", "go to top"),
	),
	GoToBottom: key.NewBinding(
		key.WithKeys("G"),
		key.WithHelp("G", "go to bottom"),
	),
	Toggle: key.NewBinding(
		key.WithKeys("enter", " "),
		key.WithHelp("enter/space", "toggle"),
	),
	Open: key.NewBinding(
		key.WithKeys("l", "right"),
		key.WithHelp("l", "expand"),
	),
	Close: key.NewBinding(
		key.WithKeys("h", "left"),
		key.WithHelp("h", "collapse / parent"),
	),
	FoldPrefix: key.NewBinding(
		key.WithKeys("z"),
		key.WithHelp("z", "fold commands (za/zo/zc/zM/zR)"),
	),
	Search: key.NewBinding(
		key.WithKeys("/"),
		key.WithHelp("/", "search"),
	),
	Shrink: key.NewBinding(
		key.WithKeys("<"),
		key.WithHelp("<", "narrow sidebar"),
	),
	Grow: key.NewBinding(
		key.WithKeys(">"),
		key.WithHelp(">", "widen sidebar"),
	),
	Refresh: key.NewBinding(
		key.WithKeys("r"),
		key.WithHelp("r", "refresh"),
	),
}
