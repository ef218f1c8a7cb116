package state

import "sync"

// AppState is the shared root of container data: the registry plus the last
// error. It is safe for concurrent use. Every method takes the lock for the
// duration of one registry access and never across I/O.
type AppState struct {
	mu  sync.Mutex
	reg *Registry
	err *AppError
}

// NewAppState creates the shared state around a fresh registry.
func NewAppState(display LogDisplay) *AppState {
	return &AppState{reg: NewRegistry(display)}
}

// Update runs fn with exclusive access to the registry.
func (a *AppState) Update(fn func(*Registry)) {
	a.mu.Lock()
	defer a.mu.Unlock()
	fn(a.reg)
}

// View runs fn with the registry held. fn must not retain registry pointers
// after it returns.
func (a *AppState) View(fn func(*Registry)) {
	a.mu.Lock()
	defer a.mu.Unlock()
	fn(a.reg)
}

func (a *AppState) Reconcile(snapshot []RawContainer) {
	a.Update(func(r *Registry) { r.Reconcile(snapshot) })
}

func (a *AppState) UpdateStats(id ContainerID, cpu *float64, mem *uint64, memLimit, rx, tx uint64) {
	a.Update(func(r *Registry) { r.UpdateStats(id, cpu, mem, memLimit, rx, tx) })
}

func (a *AppState) UpdateLogs(id ContainerID, lines []string) {
	a.Update(func(r *Registry) { r.UpdateLogs(id, lines) })
}

func (a *AppState) UpdateInfo(id ContainerID, text string) {
	a.Update(func(r *Registry) { r.UpdateInfo(id, text) })
}

// SelectedID returns the id of the selected container.
func (a *AppState) SelectedID() (id ContainerID, ok bool) {
	a.View(func(r *Registry) { id, ok = r.SelectedID() })
	return id, ok
}

// SetError records err as the current error, replacing any previous one.
func (a *AppState) SetError(err AppError) {
	a.mu.Lock()
	a.err = &err
	a.mu.Unlock()
}

// Error returns the current error.
func (a *AppState) Error() (AppError, bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.err == nil {
		return AppError{}, false
	}
	return *a.err, true
}

// ClearError removes the current error.
func (a *AppState) ClearError() {
	a.mu.Lock()
	a.err = nil
	a.mu.Unlock()
}
