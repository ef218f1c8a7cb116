package input

import "github.com/charmbracelet/bubbles/key"

// pageRows is how many rows page up and page down move.
const pageRows = 7

// KeyMap holds the bindings that do not depend on the selected container.
// Context actions live in gui.Actions.
type KeyMap struct {
	Quit      key.Binding
	Dismiss   key.Binding
	Help      key.Binding
	CloseHelp key.Binding
	Mouse     key.Binding
	Yes       key.Binding
	No        key.Binding
	Up        key.Binding
	Down      key.Binding
	Home      key.Binding
	End       key.Binding
	PageUp    key.Binding
	PageDown  key.Binding
	ResetSort key.Binding
	Sort      key.Binding
	Back      key.Binding
}

// Keys is the default key map.
var Keys = KeyMap{
	Quit:      key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
	Dismiss:   key.NewBinding(key.WithKeys("c", "esc"), key.WithHelp("c", "clear error")),
	Help:      key.NewBinding(key.WithKeys("h", "?"), key.WithHelp("h", "help")),
	CloseHelp: key.NewBinding(key.WithKeys("h", "?", "esc"), key.WithHelp("h", "close help")),
	Mouse:     key.NewBinding(key.WithKeys("M"), key.WithHelp("M", "toggle mouse capture")),
	Yes:       key.NewBinding(key.WithKeys("y", "Y"), key.WithHelp("y", "confirm delete")),
	No:        key.NewBinding(key.WithKeys("n", "N"), key.WithHelp("n", "cancel delete")),
	Up:        key.NewBinding(key.WithKeys("up", "k"), key.WithHelp("↑/k", "up")),
	Down:      key.NewBinding(key.WithKeys("down", "j"), key.WithHelp("↓/j", "down")),
	Home:      key.NewBinding(key.WithKeys("home", "g"), key.WithHelp("g", "first")),
	End:       key.NewBinding(key.WithKeys("end", "G"), key.WithHelp("G", "last")),
	PageUp:    key.NewBinding(key.WithKeys("pgup"), key.WithHelp("pgup", "page up")),
	PageDown:  key.NewBinding(key.WithKeys("pgdown"), key.WithHelp("pgdn", "page down")),
	ResetSort: key.NewBinding(key.WithKeys("0"), key.WithHelp("0", "reset sort")),
	Sort:      key.NewBinding(key.WithKeys("1", "2", "3", "4", "5", "6", "7", "8", "9"), key.WithHelp("1-9", "sort by column")),
	Back:      key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "back")),
}

// ShortHelp returns the bindings shown in the footer.
func (k KeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Help, k.Quit}
}

// FullHelp returns all bindings grouped for the help overlay.
func (k KeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Up, k.Down, k.Home, k.End, k.PageUp, k.PageDown},
		{k.Sort, k.ResetSort, k.Back, k.Mouse},
		{k.Help, k.Quit},
	}
}
