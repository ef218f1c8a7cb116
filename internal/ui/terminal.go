package ui

import (
	"errors"
	"sync"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/thobiasn/skiff/internal/state"
)

var errNoProgram = errors.New("terminal program not running")

// Terminal forwards dispatcher requests that need the terminal to the
// running program.
type Terminal struct {
	mu   sync.Mutex
	prog *tea.Program
}

// Attach sets the program requests are sent to. Must be called after
// tea.NewProgram and before p.Run().
func (t *Terminal) Attach(p *tea.Program) {
	t.mu.Lock()
	t.prog = p
	t.mu.Unlock()
}

func (t *Terminal) program() *tea.Program {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.prog
}

// SetMouseCapture turns terminal mouse reporting on or off.
func (t *Terminal) SetMouseCapture(on bool) error {
	p := t.program()
	if p == nil {
		return errNoProgram
	}
	p.Send(mouseMsg{on: on})
	return nil
}

// OpenShell suspends the dashboard and runs a shell in the container.
func (t *Terminal) OpenShell(id state.ContainerID) {
	if p := t.program(); p != nil {
		p.Send(shellMsg{id: id})
	}
}
