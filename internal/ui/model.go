// Package ui is the terminal front end: a bubbletea program that draws the
// shared state every frame, forwards raw input to the dispatcher and asks the
// orchestrator for a refresh every poll interval.
package ui

import (
	"log/slog"
	"os/exec"
	"sync/atomic"
	"time"

	"github.com/charmbracelet/bubbles/help"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/thobiasn/skiff/internal/bus"
	"github.com/thobiasn/skiff/internal/engine"
	"github.com/thobiasn/skiff/internal/gui"
	"github.com/thobiasn/skiff/internal/state"
)

const (
	frameInterval = 100 * time.Millisecond
	// connectTimeout is how long the connection error stays up before exit.
	connectTimeout = 5 * time.Second
)

type frameMsg time.Time

type mouseMsg struct{ on bool }

type shellMsg struct{ id state.ContainerID }

type shellDoneMsg struct {
	id  state.ContainerID
	err error
}

func frameTick() tea.Cmd {
	return tea.Tick(frameInterval, func(t time.Time) tea.Msg {
		return frameMsg(t)
	})
}

// Options configures a Model.
type Options struct {
	Interval time.Duration
	Theme    Theme
	// Shell builds the command run for an interactive shell in a container.
	Shell func(state.ContainerID) *exec.Cmd
}

// Model is the root bubbletea model.
type Model struct {
	app     *state.AppState
	gui     *gui.State
	events  *bus.Queue[tea.Msg]
	engine  *bus.Queue[engine.Message]
	running *atomic.Bool

	interval time.Duration
	shell    func(state.ContainerID) *exec.Cmd
	theme    Theme
	help     help.Model

	width    int
	height   int
	lastPoll time.Time
	closeAt  time.Time
}

// New creates the model. Key and mouse events go to events, refresh
// requests to eng.
func New(app *state.AppState, g *gui.State, events *bus.Queue[tea.Msg], eng *bus.Queue[engine.Message], running *atomic.Bool, opts Options) Model {
	h := help.New()
	h.ShortSeparator = "  "
	return Model{
		app:      app,
		gui:      g,
		events:   events,
		engine:   eng,
		running:  running,
		interval: opts.Interval,
		shell:    opts.Shell,
		theme:    opts.Theme,
		help:     h,
	}
}

func (m Model) Init() tea.Cmd {
	return frameTick()
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.help.Width = msg.Width
		return m, nil

	case tea.KeyMsg, tea.MouseMsg:
		if !m.events.Send(msg) {
			slog.Warn("input queue full, dropping event")
		}
		return m, nil

	case frameMsg:
		return m.frame(time.Time(msg))

	case mouseMsg:
		if msg.on {
			return m, tea.EnableMouseCellMotion
		}
		return m, tea.DisableMouse

	case shellMsg:
		if m.shell == nil {
			return m, nil
		}
		id := msg.id
		return m, tea.ExecProcess(m.shell(id), func(err error) tea.Msg {
			return shellDoneMsg{id: id, err: err}
		})

	case shellDoneMsg:
		if msg.err != nil {
			slog.Warn("shell exited with error", "container", msg.id, "error", msg.err)
			m.app.SetError(state.CommandError("exec into"))
			m.gui.StatusPush(gui.StatusError)
		}
		return m, nil
	}
	return m, nil
}

// frame handles one animation tick: exit once the run flag is cleared, run
// the connection error countdown, and request a refresh when the poll
// interval has elapsed.
func (m Model) frame(now time.Time) (tea.Model, tea.Cmd) {
	if !m.running.Load() {
		return m, tea.Quit
	}

	if m.gui.StatusContains(gui.StatusDockerConnect) {
		if m.closeAt.IsZero() {
			m.closeAt = now.Add(connectTimeout)
		}
		if !now.Before(m.closeAt) {
			m.running.Store(false)
			return m, tea.Quit
		}
		return m, frameTick()
	}

	if now.Sub(m.lastPoll) >= m.interval {
		m.lastPoll = now
		if !m.engine.Send(engine.Message{Kind: engine.Update}) {
			slog.Debug("orchestrator queue full, skipping update")
		}
	}
	return m, frameTick()
}
