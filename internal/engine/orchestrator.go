// Package engine runs the orchestrator: the single consumer of runtime
// requests that keeps the shared state in sync with the container runtime.
package engine

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/thobiasn/skiff/internal/bus"
	"github.com/thobiasn/skiff/internal/gui"
	"github.com/thobiasn/skiff/internal/runtime"
	"github.com/thobiasn/skiff/internal/state"
)

// defaultGrace bounds how long Quit waits for in-flight runtime calls.
const defaultGrace = 2 * time.Second

// Orchestrator owns the runtime client. It consumes one message at a time;
// runtime calls run on their own goroutines and write their results back
// into the shared state when they complete.
type Orchestrator struct {
	client  runtime.Client
	app     *state.AppState
	gui     *gui.State
	queue   *bus.Queue[Message]
	running *atomic.Bool
	grace   time.Duration

	wg       sync.WaitGroup
	updating atomic.Bool

	mu       sync.Mutex
	fetching map[state.ContainerID]struct{}
}

// New creates an orchestrator consuming queue. running is cleared once Quit
// has been handled.
func New(client runtime.Client, app *state.AppState, g *gui.State, queue *bus.Queue[Message], running *atomic.Bool) *Orchestrator {
	return &Orchestrator{
		client:   client,
		app:      app,
		gui:      g,
		queue:    queue,
		running:  running,
		grace:    defaultGrace,
		fetching: make(map[state.ContainerID]struct{}),
	}
}

// Run consumes messages until Quit is received or ctx is cancelled.
func (o *Orchestrator) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			o.drain()
			return
		case msg := <-o.queue.C():
			if msg.Kind == Quit {
				o.drain()
				o.running.Store(false)
				return
			}
			o.handle(ctx, msg)
		}
	}
}

func (o *Orchestrator) handle(ctx context.Context, msg Message) {
	switch msg.Kind {
	case Update:
		o.update(ctx)
	case Info:
		o.spawn(func() { o.inspect(ctx, msg.ID) })
	case Start, Stop, Pause, Unpause, Restart, Delete:
		o.spawn(func() { o.command(ctx, msg) })
	default:
		slog.Debug("ignoring message", "kind", msg.Kind)
	}
}

// drain waits for in-flight work, giving up after the grace period.
func (o *Orchestrator) drain() {
	done := make(chan struct{})
	go func() {
		o.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(o.grace):
		slog.Warn("quitting with runtime calls still in flight")
	}
}

func (o *Orchestrator) spawn(fn func()) {
	o.wg.Add(1)
	go func() {
		defer o.wg.Done()
		fn()
	}()
}

// fetchTarget is a container whose stats or logs should be refreshed.
type fetchTarget struct {
	id      state.ContainerID
	running bool
	since   time.Time
}

// update lists containers, reconciles the registry and starts one fetch per
// running container. Containers that never had their logs read get a single
// log fetch regardless of state. An update is skipped while the previous
// listing is still in progress, and a container is skipped while its
// previous fetch is still running.
func (o *Orchestrator) update(ctx context.Context) {
	if !o.updating.CompareAndSwap(false, true) {
		return
	}
	o.spawn(func() {
		token := o.gui.StartLoading()
		defer o.gui.StopLoading(token)

		snapshot, err := o.client.List(ctx)
		if err != nil {
			o.updating.Store(false)
			slog.Warn("failed to list containers", "error", err)
			return
		}
		o.app.Reconcile(snapshot)
		o.dropStaleDelete()

		var items sync.WaitGroup
		for _, t := range o.targets() {
			if !o.claim(t.id) {
				continue
			}
			items.Add(1)
			o.spawn(func() {
				defer items.Done()
				defer o.release(t.id)
				o.fetch(ctx, t)
			})
		}
		o.updating.Store(false)

		items.Wait()
		o.gui.StatusDel(gui.StatusInit)
	})
}

func (o *Orchestrator) targets() []fetchTarget {
	var out []fetchTarget
	o.app.View(func(r *state.Registry) {
		for _, c := range r.Items() {
			running := c.State == state.StateRunning
			if !running && c.LastUpdated != 0 {
				continue
			}
			t := fetchTarget{id: c.ID, running: running}
			if c.LastUpdated != 0 {
				t.since = time.Unix(int64(c.LastUpdated), 0)
			}
			out = append(out, t)
		}
	})
	return out
}

func (o *Orchestrator) fetch(ctx context.Context, t fetchTarget) {
	if t.running {
		s, err := o.client.Stats(ctx, t.id)
		if err != nil {
			slog.Debug("failed to get container stats", "container", t.id.Short(), "error", err)
		} else {
			o.app.UpdateStats(t.id, s.CPU, s.Mem, s.MemLimit, s.Rx, s.Tx)
		}
	}

	lines, err := o.client.Logs(ctx, t.id, t.since)
	if err != nil {
		slog.Debug("failed to read container logs", "container", t.id.Short(), "error", err)
		return
	}
	o.app.UpdateLogs(t.id, lines)
}

func (o *Orchestrator) claim(id state.ContainerID) bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	if _, busy := o.fetching[id]; busy {
		return false
	}
	o.fetching[id] = struct{}{}
	return true
}

func (o *Orchestrator) release(id state.ContainerID) {
	o.mu.Lock()
	delete(o.fetching, id)
	o.mu.Unlock()
}

// dropStaleDelete closes the delete confirmation if its container is gone.
func (o *Orchestrator) dropStaleDelete() {
	id, ok := o.gui.DeleteContainer()
	if !ok {
		return
	}
	var exists bool
	o.app.View(func(r *state.Registry) { exists = r.Get(id) != nil })
	if !exists {
		o.gui.ClearDeleteContainer()
	}
}

func (o *Orchestrator) isSelf(id state.ContainerID) bool {
	var self bool
	o.app.View(func(r *state.Registry) {
		if c := r.Get(id); c != nil {
			self = c.IsSelf
		}
	})
	return self
}

func (o *Orchestrator) command(ctx context.Context, msg Message) {
	if msg.Kind == Delete {
		defer o.gui.ClearDeleteContainer()
	}
	if o.isSelf(msg.ID) {
		slog.Warn("refusing to control own container", "action", msg.Kind)
		return
	}

	token := o.gui.StartLoading()
	err := o.run(ctx, msg)
	o.gui.StopLoading(token)

	if err != nil {
		slog.Warn("container command failed", "action", msg.Kind, "container", msg.ID.Short(), "error", err)
		o.fail(state.CommandError(msg.Kind.String()))
		return
	}
	slog.Info("container command", "action", msg.Kind, "container", msg.ID.Short())
	o.update(ctx)
}

func (o *Orchestrator) run(ctx context.Context, msg Message) error {
	switch msg.Kind {
	case Start:
		return o.client.Start(ctx, msg.ID)
	case Stop:
		return o.client.Stop(ctx, msg.ID)
	case Pause:
		return o.client.Pause(ctx, msg.ID)
	case Unpause:
		return o.client.Unpause(ctx, msg.ID)
	case Restart:
		return o.client.Restart(ctx, msg.ID)
	case Delete:
		return o.client.Delete(ctx, msg.ID)
	}
	return nil
}

func (o *Orchestrator) inspect(ctx context.Context, id state.ContainerID) {
	token := o.gui.StartLoading()
	defer o.gui.StopLoading(token)

	text, err := o.client.Inspect(ctx, id)
	if err != nil {
		slog.Warn("container inspect failed", "container", id.Short(), "error", err)
		o.fail(state.CommandError(Info.String()))
		return
	}
	o.app.UpdateInfo(id, text)
}

// fail records err and raises the error banner.
func (o *Orchestrator) fail(err state.AppError) {
	o.app.SetError(err)
	o.gui.StatusPush(gui.StatusError)
}
