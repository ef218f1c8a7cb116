package gui

// NavPanel is a screen the user can navigate to.
type NavPanel uint8

const (
	PanelContainers NavPanel = iota
	PanelLogs
	PanelMetrics
	PanelInfo
)

// Title returns the panel heading.
func (p NavPanel) Title() string {
	switch p {
	case PanelContainers:
		return "Containers"
	case PanelLogs:
		return "Logs"
	case PanelMetrics:
		return "Metrics"
	case PanelInfo:
		return "Info"
	default:
		return ""
	}
}

// NavStack is the LIFO of visited panels. The root panel is always
// PanelContainers and is never popped.
type NavStack struct {
	stack []NavPanel
}

// Push makes p the current panel.
func (n *NavStack) Push(p NavPanel) {
	n.init()
	n.stack = append(n.stack, p)
}

// Pop returns to the previous panel. Popping the root is a no-op.
func (n *NavStack) Pop() {
	n.init()
	if len(n.stack) > 1 {
		n.stack = n.stack[:len(n.stack)-1]
	}
}

// Reset pops back to the root panel.
func (n *NavStack) Reset() {
	n.init()
	n.stack = n.stack[:1]
}

// Current returns the top panel.
func (n *NavStack) Current() NavPanel {
	n.init()
	return n.stack[len(n.stack)-1]
}

// Stack returns a copy of the panels, root first.
func (n *NavStack) Stack() []NavPanel {
	n.init()
	out := make([]NavPanel, len(n.stack))
	copy(out, n.stack)
	return out
}

func (n *NavStack) init() {
	if len(n.stack) == 0 {
		n.stack = []NavPanel{PanelContainers}
	}
}
