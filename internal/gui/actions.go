package gui

import (
	"fmt"

	"github.com/charmbracelet/bubbles/key"

	"github.com/thobiasn/skiff/internal/state"
)

// ActionKind says what a context action does when triggered.
type ActionKind uint8

const (
	ActionNav   ActionKind = iota // push Panel
	ActionBack                    // pop the nav stack
	ActionRun                     // send Control to the runtime
	ActionShell                   // open a shell in the container
)

// Action is one context-sensitive key offered for the current panel.
type Action struct {
	Binding key.Binding
	Kind    ActionKind
	Panel   NavPanel
	Control state.Control
}

var (
	keyLogs    = key.NewBinding(key.WithKeys("enter", "l"), key.WithHelp("l", "logs"))
	keyMetrics = key.NewBinding(key.WithKeys("m"), key.WithHelp("m", "metrics"))
	keyInfo    = key.NewBinding(key.WithKeys("i"), key.WithHelp("i", "info"))
	keyBack    = key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "back"))
	keyShell   = key.NewBinding(key.WithKeys("e"), key.WithHelp("e", "exec"))
)

var controlKeys = map[state.Control]key.Binding{
	state.ControlStart:   key.NewBinding(key.WithKeys("s"), key.WithHelp("s", "start")),
	state.ControlStop:    key.NewBinding(key.WithKeys("S"), key.WithHelp("S", "stop")),
	state.ControlPause:   key.NewBinding(key.WithKeys("p"), key.WithHelp("p", "pause")),
	state.ControlUnpause: key.NewBinding(key.WithKeys("u"), key.WithHelp("u", "unpause")),
	state.ControlRestart: key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "restart")),
	state.ControlDelete:  key.NewBinding(key.WithKeys("d"), key.WithHelp("d", "delete")),
}

// ControlBinding returns the key bound to c.
func ControlBinding(c state.Control) key.Binding {
	return controlKeys[c]
}

// Actions builds the action table for a panel and the selected container's
// state. Runtime commands and the shell are never offered for the
// dashboard's own container, and nothing container specific is offered when
// no container is selected.
func Actions(panel NavPanel, st state.State, selected, isSelf bool) []Action {
	if panel != PanelContainers {
		return []Action{{Binding: keyBack, Kind: ActionBack}}
	}
	if !selected {
		return nil
	}
	out := []Action{
		{Binding: keyLogs, Kind: ActionNav, Panel: PanelLogs},
		{Binding: keyMetrics, Kind: ActionNav, Panel: PanelMetrics},
		{Binding: keyInfo, Kind: ActionNav, Panel: PanelInfo},
	}
	if isSelf {
		return out
	}
	for _, c := range state.ControlsFor(st) {
		out = append(out, Action{Binding: controlKeys[c], Kind: ActionRun, Control: c})
	}
	if st == state.StateRunning {
		out = append(out, Action{Binding: keyShell, Kind: ActionShell})
	}
	return out
}

// Match returns the first action whose binding matches k.
func Match[K fmt.Stringer](actions []Action, k K) (Action, bool) {
	for _, a := range actions {
		if key.Matches(k, a.Binding) {
			return a, true
		}
	}
	return Action{}, false
}
