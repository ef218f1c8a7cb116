// Package gui holds the presentation state shared between the input
// dispatcher, the orchestrator and the render loop.
package gui

import (
	"sync"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/google/uuid"

	"github.com/thobiasn/skiff/internal/state"
)

// Status is a modal flag. Several can be set at once.
type Status uint8

const (
	StatusInit Status = iota
	StatusHelp
	StatusDockerConnect
	StatusDeleteConfirm
	StatusError
)

// DeleteButton is a button of the delete confirmation dialog.
type DeleteButton uint8

const (
	ButtonYes DeleteButton = iota
	ButtonNo
)

// Rect is a screen region in cells.
type Rect struct {
	X, Y, W, H int
}

// Contains reports whether the cell (x, y) lies inside r.
func (r Rect) Contains(x, y int) bool {
	return x >= r.X && x < r.X+r.W && y >= r.Y && y < r.Y+r.H
}

var loadingFrames = spinner.MiniDot.Frames

// State is the shared presentation state. It is safe for concurrent use and
// never holds its lock across I/O.
type State struct {
	mu sync.Mutex

	status   map[Status]struct{}
	deleteID state.ContainerID
	deleting bool
	loading  map[uuid.UUID]struct{}
	frame    int
	infoBox  string
	nav      NavStack
	headers  map[state.Header]Rect
	panels   map[NavPanel]Rect
	buttons  map[DeleteButton]Rect
	mouseOn  bool
}

// NewState returns a State in the Init status with mouse capture on.
func NewState() *State {
	return &State{
		status:  map[Status]struct{}{StatusInit: {}},
		loading: make(map[uuid.UUID]struct{}),
		headers: make(map[state.Header]Rect),
		panels:  make(map[NavPanel]Rect),
		buttons: make(map[DeleteButton]Rect),
		mouseOn: true,
	}
}

// StatusContains reports whether any of the given statuses is set.
func (s *State) StatusContains(status ...Status) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, st := range status {
		if _, ok := s.status[st]; ok {
			return true
		}
	}
	return false
}

func (s *State) StatusPush(st Status) {
	s.mu.Lock()
	s.status[st] = struct{}{}
	s.mu.Unlock()
}

func (s *State) StatusDel(st Status) {
	s.mu.Lock()
	delete(s.status, st)
	s.mu.Unlock()
}

// SetDeleteContainer opens the delete confirmation for id.
func (s *State) SetDeleteContainer(id state.ContainerID) {
	s.mu.Lock()
	s.deleteID, s.deleting = id, true
	s.status[StatusDeleteConfirm] = struct{}{}
	s.mu.Unlock()
}

// ClearDeleteContainer closes the delete confirmation.
func (s *State) ClearDeleteContainer() {
	s.mu.Lock()
	s.deleteID, s.deleting = "", false
	delete(s.status, StatusDeleteConfirm)
	clear(s.buttons)
	s.mu.Unlock()
}

// DeleteContainer returns the container awaiting delete confirmation.
func (s *State) DeleteContainer() (state.ContainerID, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.deleteID, s.deleting
}

// StartLoading registers an in-flight operation and advances the loading
// animation. The returned token must be passed to StopLoading.
func (s *State) StartLoading() uuid.UUID {
	id := uuid.New()
	s.mu.Lock()
	s.loading[id] = struct{}{}
	s.frame = (s.frame + 1) % len(loadingFrames)
	s.mu.Unlock()
	return id
}

func (s *State) StopLoading(id uuid.UUID) {
	s.mu.Lock()
	delete(s.loading, id)
	s.mu.Unlock()
}

// LoadingIcon returns the current spinner frame, or a blank of the same
// width when nothing is loading.
func (s *State) LoadingIcon() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.loading) == 0 {
		return " "
	}
	return loadingFrames[s.frame]
}

func (s *State) SetInfoBox(text string) {
	s.mu.Lock()
	s.infoBox = text
	s.mu.Unlock()
}

func (s *State) ClearInfoBox() {
	s.SetInfoBox("")
}

// InfoBox returns the transient notice, if any.
func (s *State) InfoBox() (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.infoBox, s.infoBox != ""
}

// MouseCapture reports whether mouse capture is believed to be on.
func (s *State) MouseCapture() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.mouseOn
}

func (s *State) SetMouseCapture(on bool) {
	s.mu.Lock()
	s.mouseOn = on
	s.mu.Unlock()
}

// Nav returns a copy of the navigation stack, root first.
func (s *State) Nav() []NavPanel {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.nav.Stack()
}

// CurrentPanel returns the panel on top of the navigation stack.
func (s *State) CurrentPanel() NavPanel {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.nav.Current()
}

func (s *State) PushNav(p NavPanel) {
	s.mu.Lock()
	s.nav.Push(p)
	s.mu.Unlock()
}

func (s *State) PopNav() {
	s.mu.Lock()
	s.nav.Pop()
	s.mu.Unlock()
}

func (s *State) ResetNav() {
	s.mu.Lock()
	s.nav.Reset()
	s.mu.Unlock()
}

// SetHeaderRegion records where the header h was drawn.
func (s *State) SetHeaderRegion(h state.Header, r Rect) {
	s.mu.Lock()
	s.headers[h] = r
	s.mu.Unlock()
}

// SetPanelRegion records where the navigation target p was drawn.
func (s *State) SetPanelRegion(p NavPanel, r Rect) {
	s.mu.Lock()
	s.panels[p] = r
	s.mu.Unlock()
}

// SetButtonRegion records where the delete dialog button b was drawn.
func (s *State) SetButtonRegion(b DeleteButton, r Rect) {
	s.mu.Lock()
	s.buttons[b] = r
	s.mu.Unlock()
}

// ClearRegions forgets every clickable region, e.g. before a resize redraw.
func (s *State) ClearRegions() {
	s.mu.Lock()
	clear(s.headers)
	clear(s.panels)
	clear(s.buttons)
	s.mu.Unlock()
}

// HeaderAt returns the header drawn at (x, y).
func (s *State) HeaderAt(x, y int) (state.Header, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return regionAt(s.headers, x, y)
}

// PanelAt returns the navigation target drawn at (x, y).
func (s *State) PanelAt(x, y int) (NavPanel, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return regionAt(s.panels, x, y)
}

// ButtonAt returns the delete dialog button drawn at (x, y).
func (s *State) ButtonAt(x, y int) (DeleteButton, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return regionAt(s.buttons, x, y)
}

func regionAt[K comparable](m map[K]Rect, x, y int) (K, bool) {
	for k, r := range m {
		if r.Contains(x, y) {
			return k, true
		}
	}
	var zero K
	return zero, false
}
