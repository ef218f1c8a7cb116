// Package input turns terminal events into state changes and runtime
// requests.
package input

import (
	"context"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/thobiasn/skiff/internal/bus"
	"github.com/thobiasn/skiff/internal/engine"
	"github.com/thobiasn/skiff/internal/gui"
	"github.com/thobiasn/skiff/internal/state"
)

// infoBoxDelay is how long a transient notice stays on screen.
const infoBoxDelay = 4 * time.Second

// Terminal is the part of the terminal the dispatcher drives directly.
type Terminal interface {
	SetMouseCapture(on bool) error
	OpenShell(id state.ContainerID)
}

// Dispatcher consumes raw key and mouse events. Each event takes exactly one
// branch, in order: quit, error banner, help overlay, delete confirmation,
// normal mode.
type Dispatcher struct {
	app     *state.AppState
	gui     *gui.State
	in      *bus.Queue[tea.Msg]
	out     *bus.Queue[engine.Message]
	running *atomic.Bool
	term    Terminal
	keys    KeyMap

	actions    []gui.Action
	actionsFor actionsKey
	cached     bool

	infoGen   atomic.Uint64
	infoTimer *time.Timer
	infoDelay time.Duration
}

// actionsKey identifies the inputs the action table was built from.
type actionsKey struct {
	panel    gui.NavPanel
	id       state.ContainerID
	state    state.State
	selected bool
	self     bool
}

// New creates a dispatcher reading events from in and sending runtime
// requests to out.
func New(app *state.AppState, g *gui.State, in *bus.Queue[tea.Msg], out *bus.Queue[engine.Message], running *atomic.Bool, term Terminal) *Dispatcher {
	return &Dispatcher{
		app:       app,
		gui:       g,
		in:        in,
		out:       out,
		running:   running,
		term:      term,
		keys:      Keys,
		infoDelay: infoBoxDelay,
	}
}

// Run handles events until ctx is cancelled or the run flag is cleared.
func (d *Dispatcher) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case msg := <-d.in.C():
			d.Handle(msg)
			if !d.running.Load() {
				return
			}
		}
	}
}

// Handle processes one event.
func (d *Dispatcher) Handle(msg tea.Msg) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		d.handleKey(msg)
	case tea.MouseMsg:
		d.handleMouse(msg)
	}
}

func (d *Dispatcher) handleKey(msg tea.KeyMsg) {
	if key.Matches(msg, d.keys.Quit) {
		d.quit()
		return
	}

	switch {
	case d.gui.StatusContains(gui.StatusDockerConnect):
	case d.gui.StatusContains(gui.StatusError):
		if key.Matches(msg, d.keys.Dismiss) {
			d.app.ClearError()
			d.gui.StatusDel(gui.StatusError)
		}
	case d.gui.StatusContains(gui.StatusHelp):
		switch {
		case key.Matches(msg, d.keys.CloseHelp):
			d.gui.StatusDel(gui.StatusHelp)
		case key.Matches(msg, d.keys.Mouse):
			d.toggleMouse()
		}
	case d.gui.StatusContains(gui.StatusDeleteConfirm):
		switch {
		case key.Matches(msg, d.keys.Yes):
			d.confirmDelete()
		case key.Matches(msg, d.keys.No):
			d.gui.ClearDeleteContainer()
		}
	default:
		d.normalKey(msg)
	}
}

func (d *Dispatcher) normalKey(msg tea.KeyMsg) {
	switch {
	case key.Matches(msg, d.keys.Up):
		d.scroll(previous, 1)
	case key.Matches(msg, d.keys.Down):
		d.scroll(next, 1)
	case key.Matches(msg, d.keys.PageUp):
		d.scroll(previous, pageRows)
	case key.Matches(msg, d.keys.PageDown):
		d.scroll(next, pageRows)
	case key.Matches(msg, d.keys.Home):
		d.scroll(start, 1)
	case key.Matches(msg, d.keys.End):
		d.scroll(end, 1)
	case key.Matches(msg, d.keys.ResetSort):
		d.app.Update(func(r *state.Registry) { r.ResetSort() })
	case key.Matches(msg, d.keys.Sort):
		d.sort(state.Headers[msg.String()[0]-'1'])
	case key.Matches(msg, d.keys.Help):
		d.gui.StatusPush(gui.StatusHelp)
	case key.Matches(msg, d.keys.Mouse):
		d.toggleMouse()
	default:
		if a, ok := gui.Match(d.contextActions(), msg); ok {
			d.runAction(a)
			return
		}
		if key.Matches(msg, d.keys.Back) {
			d.gui.PopNav()
		}
	}
}

func (d *Dispatcher) handleMouse(msg tea.MouseMsg) {
	leftClick := msg.Action == tea.MouseActionPress && msg.Button == tea.MouseButtonLeft

	switch {
	case d.gui.StatusContains(gui.StatusError, gui.StatusHelp, gui.StatusDockerConnect):
		return
	case d.gui.StatusContains(gui.StatusDeleteConfirm):
		if !leftClick {
			return
		}
		if b, ok := d.gui.ButtonAt(msg.X, msg.Y); ok {
			if b == gui.ButtonYes {
				d.confirmDelete()
			} else {
				d.gui.ClearDeleteContainer()
			}
		}
		return
	}

	switch {
	case msg.Button == tea.MouseButtonWheelUp:
		d.scroll(previous, 1)
	case msg.Button == tea.MouseButtonWheelDown:
		d.scroll(next, 1)
	case leftClick:
		if h, ok := d.gui.HeaderAt(msg.X, msg.Y); ok {
			d.sort(h)
			return
		}
		if p, ok := d.gui.PanelAt(msg.X, msg.Y); ok {
			d.navigate(p)
		}
	}
}

type movement uint8

const (
	next movement = iota
	previous
	start
	end
)

// scroll moves the cursor of whatever the current panel lists.
func (d *Dispatcher) scroll(m movement, n int) {
	panel := d.gui.CurrentPanel()
	d.app.Update(func(r *state.Registry) {
		var fns [4]func()
		switch panel {
		case gui.PanelLogs:
			fns = [4]func(){r.LogNext, r.LogPrevious, r.LogStart, r.LogEnd}
		case gui.PanelInfo:
			fns = [4]func(){r.InfoNext, r.InfoPrevious, r.InfoStart, r.InfoEnd}
		default:
			fns = [4]func(){r.ContainersNext, r.ContainersPrevious, r.ContainersStart, r.ContainersEnd}
		}
		for range n {
			fns[m]()
		}
	})
}

func (d *Dispatcher) sort(h state.Header) {
	d.app.Update(func(r *state.Registry) { r.SetSort(h) })
}

// contextActions returns the action table for the current panel and
// selection, rebuilding it only when either changed.
func (d *Dispatcher) contextActions() []gui.Action {
	k := actionsKey{panel: d.gui.CurrentPanel()}
	d.app.View(func(r *state.Registry) {
		if c := r.Selected(); c != nil {
			k.id, k.state, k.selected, k.self = c.ID, c.State, true, c.IsSelf
		}
	})
	if !d.cached || k != d.actionsFor {
		d.actions = gui.Actions(k.panel, k.state, k.selected, k.self)
		d.actionsFor, d.cached = k, true
	}
	return d.actions
}

func (d *Dispatcher) runAction(a gui.Action) {
	id := d.actionsFor.id
	switch a.Kind {
	case gui.ActionNav:
		d.gui.PushNav(a.Panel)
		if a.Panel == gui.PanelInfo {
			d.send(engine.Message{Kind: engine.Info, ID: id})
		}
	case gui.ActionBack:
		d.gui.PopNav()
	case gui.ActionRun:
		if a.Control == state.ControlDelete {
			d.gui.SetDeleteContainer(id)
			return
		}
		d.send(engine.Command(a.Control, id))
	case gui.ActionShell:
		d.term.OpenShell(id)
	}
}

// navigate handles a click on a navigation target.
func (d *Dispatcher) navigate(p gui.NavPanel) {
	if p == gui.PanelContainers {
		d.gui.ResetNav()
		return
	}
	if p == d.gui.CurrentPanel() {
		return
	}
	id, ok := d.app.SelectedID()
	if !ok {
		return
	}
	d.gui.ResetNav()
	d.gui.PushNav(p)
	if p == gui.PanelInfo {
		d.send(engine.Message{Kind: engine.Info, ID: id})
	}
}

func (d *Dispatcher) confirmDelete() {
	if id, ok := d.gui.DeleteContainer(); ok {
		d.send(engine.Message{Kind: engine.Delete, ID: id})
	}
}

func (d *Dispatcher) send(msg engine.Message) {
	if !d.out.Send(msg) {
		slog.Warn("orchestrator queue full, dropping message", "kind", msg.Kind)
	}
}

// quit asks the orchestrator to drain and stop. When it is not running or
// cannot be reached, the run flag is cleared directly.
func (d *Dispatcher) quit() {
	if d.gui.StatusContains(gui.StatusError, gui.StatusInit, gui.StatusDockerConnect) ||
		!d.out.Send(engine.Message{Kind: engine.Quit}) {
		d.running.Store(false)
	}
}

// toggleMouse flips mouse capture and shows a notice for a few seconds. On
// failure the capture state is left as it was.
func (d *Dispatcher) toggleMouse() {
	on := !d.gui.MouseCapture()
	if err := d.term.SetMouseCapture(on); err != nil {
		slog.Warn("mouse capture toggle failed", "enable", on, "error", err)
		d.showInfo(state.AppError{Kind: state.ErrMouseCapture, Enable: on}.Error())
		return
	}
	d.gui.SetMouseCapture(on)
	if on {
		d.showInfo("✓ mouse capture enabled")
	} else {
		d.showInfo("✖ mouse capture disabled")
	}
}

// showInfo displays text in the info box, replacing any pending notice and
// its timer.
func (d *Dispatcher) showInfo(text string) {
	gen := d.infoGen.Add(1)
	if d.infoTimer != nil {
		d.infoTimer.Stop()
	}
	d.gui.SetInfoBox(text)
	d.infoTimer = time.AfterFunc(d.infoDelay, func() {
		if d.infoGen.Load() == gen {
			d.gui.ClearInfoBox()
		}
	})
}
