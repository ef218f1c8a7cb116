package engine

import (
	"context"
	"errors"
	"slices"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/thobiasn/skiff/internal/bus"
	"github.com/thobiasn/skiff/internal/gui"
	"github.com/thobiasn/skiff/internal/runtime"
	"github.com/thobiasn/skiff/internal/state"
)

type fakeClient struct {
	mu         sync.Mutex
	containers []state.RawContainer
	calls      []string
	logSince   map[state.ContainerID][]time.Time
	failCmd    error
	failList   error
	block      chan struct{} // if set, Stats waits on it
}

var _ runtime.Client = (*fakeClient)(nil)

func (f *fakeClient) record(call string) {
	f.mu.Lock()
	f.calls = append(f.calls, call)
	f.mu.Unlock()
}

func (f *fakeClient) called(call string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return slices.Contains(f.calls, call)
}

func (f *fakeClient) count(call string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, c := range f.calls {
		if c == call {
			n++
		}
	}
	return n
}

func (f *fakeClient) Ping(context.Context) error { return nil }

func (f *fakeClient) List(context.Context) ([]state.RawContainer, error) {
	f.record("list")
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failList != nil {
		return nil, f.failList
	}
	return slices.Clone(f.containers), nil
}

func (f *fakeClient) Stats(_ context.Context, id state.ContainerID) (runtime.Stats, error) {
	f.record("stats " + string(id))
	if f.block != nil {
		<-f.block
	}
	cpu, mem := 12.5, uint64(2_000_000)
	return runtime.Stats{CPU: &cpu, Mem: &mem, MemLimit: 4_000_000_000, Rx: 10, Tx: 20}, nil
}

func (f *fakeClient) Logs(_ context.Context, id state.ContainerID, since time.Time) ([]string, error) {
	f.record("logs " + string(id))
	f.mu.Lock()
	if f.logSince == nil {
		f.logSince = make(map[state.ContainerID][]time.Time)
	}
	f.logSince[id] = append(f.logSince[id], since)
	f.mu.Unlock()
	return []string{"2024-01-01T00:00:01Z hello from " + string(id)}, nil
}

func (f *fakeClient) Inspect(_ context.Context, id state.ContainerID) (string, error) {
	f.record("inspect " + string(id))
	if f.failCmd != nil {
		return "", f.failCmd
	}
	return "{\n  \"Id\": \"" + string(id) + "\"\n}", nil
}

func (f *fakeClient) cmd(name string, id state.ContainerID) error {
	f.record(name + " " + string(id))
	return f.failCmd
}

func (f *fakeClient) Start(_ context.Context, id state.ContainerID) error { return f.cmd("start", id) }
func (f *fakeClient) Stop(_ context.Context, id state.ContainerID) error { return f.cmd("stop", id) }
func (f *fakeClient) Pause(_ context.Context, id state.ContainerID) error { return f.cmd("pause", id) }
func (f *fakeClient) Unpause(_ context.Context, id state.ContainerID) error { return f.cmd("unpause", id) }
func (f *fakeClient) Restart(_ context.Context, id state.ContainerID) error { return f.cmd("restart", id) }
func (f *fakeClient) Delete(_ context.Context, id state.ContainerID) error { return f.cmd("delete", id) }

type harness struct {
	client  *fakeClient
	app     *state.AppState
	gui     *gui.State
	queue   *bus.Queue[Message]
	running *atomic.Bool
	orch    *Orchestrator
}

func newHarness(containers ...state.RawContainer) *harness {
	h := &harness{
		client:  &fakeClient{containers: containers},
		app:     state.NewAppState(state.LogDisplay{Timestamp: true}),
		gui:     gui.NewState(),
		queue:   bus.New[Message](bus.DefaultSize),
		running: &atomic.Bool{},
	}
	h.running.Store(true)
	h.orch = New(h.client, h.app, h.gui, h.queue, h.running)
	return h
}

// seed reconciles the fake's containers into the registry up front, so
// commands do not race the first update.
func (h *harness) seed() {
	h.app.Reconcile(h.client.containers)
}

// run sends msgs followed by Quit and waits for the orchestrator to stop.
func (h *harness) run(t *testing.T, msgs ...Message) {
	t.Helper()
	for _, m := range msgs {
		if !h.queue.Send(m) {
			t.Fatalf("queue full sending %v", m.Kind)
		}
	}
	h.queue.Send(Message{Kind: Quit})

	done := make(chan struct{})
	go func() {
		h.orch.Run(context.Background())
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("orchestrator did not stop")
	}
}

func container(id, st string, created int64) state.RawContainer {
	return state.RawContainer{ID: id, Names: []string{"/" + id}, Image: "img", State: st, Created: created}
}

func TestUpdateReconcilesAndFetches(t *testing.T) {
	h := newHarness(container("web", "running", 100), container("old", "exited", 50))
	h.run(t, Message{Kind: Update})

	if h.running.Load() {
		t.Fatal("running flag should be cleared after quit")
	}
	if h.gui.StatusContains(gui.StatusInit) {
		t.Fatal("init status should be cleared after the first update")
	}
	if got := h.gui.LoadingIcon(); got != " " {
		t.Fatalf("loading icon = %q, want idle", got)
	}
	if !h.client.called("stats web") {
		t.Fatal("running container stats not fetched")
	}
	if h.client.called("stats old") {
		t.Fatal("stats fetched for exited container")
	}
	if !h.client.called("logs old") {
		t.Fatal("exited container should get one initial log fetch")
	}

	h.app.View(func(r *state.Registry) {
		if r.Len() != 2 {
			t.Fatalf("len = %d, want 2", r.Len())
		}
		web := r.Get("web")
		if web.CPU.Len() != 1 || web.Logs.Len() != 1 {
			t.Fatalf("web cpu=%d logs=%d", web.CPU.Len(), web.Logs.Len())
		}
		if id, _ := r.SelectedID(); id != "old" {
			t.Fatalf("selected = %q, want oldest container", id)
		}
	})
}

func TestUpdateSkipsLogRefetchForStopped(t *testing.T) {
	h := newHarness(container("old", "exited", 50), container("web", "running", 100))
	h.run(t, Message{Kind: Update})

	h2 := &harness{client: h.client, app: h.app, gui: h.gui, queue: bus.New[Message](4), running: &atomic.Bool{}}
	h2.orch = New(h2.client, h2.app, h2.gui, h2.queue, h2.running)
	h2.run(t, Message{Kind: Update})

	if n := h.client.count("logs old"); n != 1 {
		t.Fatalf("stopped container log fetches = %d, want 1", n)
	}
	if n := h.client.count("logs web"); n != 2 {
		t.Fatalf("running container log fetches = %d, want 2", n)
	}
	h.client.mu.Lock()
	since := h.client.logSince["web"]
	h.client.mu.Unlock()
	if !since[0].IsZero() || since[1].IsZero() {
		t.Fatalf("log since = %v, want zero then last update", since)
	}
}

func TestUpdateListFailure(t *testing.T) {
	h := newHarness()
	h.client.failList = errors.New("daemon gone")
	h.run(t, Message{Kind: Update})

	if h.gui.StatusContains(gui.StatusError) {
		t.Fatal("list failure should not raise the error banner")
	}
	if !h.gui.StatusContains(gui.StatusInit) {
		t.Fatal("init should remain until an update succeeds")
	}
}

func TestCommandSuccess(t *testing.T) {
	h := newHarness(container("web", "running", 1))
	h.run(t, Message{Kind: Update}, Message{Kind: Stop, ID: "web"})

	if !h.client.called("stop web") {
		t.Fatalf("stop not issued: %v", h.client.calls)
	}
	if _, ok := h.app.Error(); ok {
		t.Fatal("successful command should not set an error")
	}
	if h.gui.StatusContains(gui.StatusError) {
		t.Fatal("successful command should not raise the error banner")
	}
}

func TestCommandFailure(t *testing.T) {
	tests := []struct {
		kind Kind
		want string
	}{
		{Start, "Docker error: unable to start container"},
		{Stop, "Docker error: unable to stop container"},
		{Pause, "Docker error: unable to pause container"},
		{Unpause, "Docker error: unable to unpause container"},
		{Restart, "Docker error: unable to restart container"},
		{Delete, "Docker error: unable to delete container"},
	}
	for _, tt := range tests {
		t.Run(tt.kind.String(), func(t *testing.T) {
			h := newHarness(container("web", "running", 1))
			h.client.failCmd = errors.New("boom")
			h.run(t, Message{Kind: Update}, Message{Kind: tt.kind, ID: "web"})

			err, ok := h.app.Error()
			if !ok || err.Error() != tt.want {
				t.Fatalf("error = %v %v, want %q", err, ok, tt.want)
			}
			if !h.gui.StatusContains(gui.StatusError) {
				t.Fatal("error banner not raised")
			}
		})
	}
}

func TestDeleteClearsPending(t *testing.T) {
	h := newHarness(container("web", "exited", 1))
	h.gui.SetDeleteContainer("web")
	h.run(t, Message{Kind: Update}, Message{Kind: Delete, ID: "web"})

	if !h.client.called("delete web") {
		t.Fatal("delete not issued")
	}
	if _, ok := h.gui.DeleteContainer(); ok {
		t.Fatal("pending delete not cleared")
	}
}

func TestStaleDeleteDropped(t *testing.T) {
	h := newHarness(container("web", "running", 1))
	h.gui.SetDeleteContainer("gone")
	h.run(t, Message{Kind: Update})

	if h.gui.StatusContains(gui.StatusDeleteConfirm) {
		t.Fatal("delete dialog should close when its container disappears")
	}
}

func TestSelfContainerRefused(t *testing.T) {
	self := container("me", "running", 1)
	self.Command = "/app/skiff"
	h := newHarness(self)
	h.app.Update(func(r *state.Registry) { r.SetSelfMatcher(runtime.SelfMatcher(true)) })
	h.seed()
	h.run(t, Message{Kind: Stop, ID: "me"})

	if h.client.called("stop me") {
		t.Fatal("command sent to own container")
	}
}

func TestInfo(t *testing.T) {
	h := newHarness(container("web", "running", 1))
	h.seed()
	h.run(t, Message{Kind: Info, ID: "web"})

	h.app.View(func(r *state.Registry) {
		info := r.Get("web").Info.Items
		if len(info) != 3 || info[1] != `  "Id": "web"` {
			t.Fatalf("info = %q", info)
		}
	})
}

func TestInfoFailure(t *testing.T) {
	h := newHarness(container("web", "running", 1))
	h.client.failCmd = errors.New("boom")
	h.seed()
	h.run(t, Message{Kind: Info, ID: "web"})

	if err, ok := h.app.Error(); !ok || err.Action != "inspect" {
		t.Fatalf("error = %+v %v, want inspect failure", err, ok)
	}
}

func TestQuitGivesUpOnHungFetch(t *testing.T) {
	h := newHarness(container("web", "running", 1))
	h.client.block = make(chan struct{})
	defer close(h.client.block)
	h.orch.grace = 50 * time.Millisecond

	start := time.Now()
	h.run(t, Message{Kind: Update})

	if h.running.Load() {
		t.Fatal("running flag should be cleared")
	}
	if time.Since(start) > 2*time.Second {
		t.Fatal("quit waited too long for a hung fetch")
	}
}

func TestContextCancelStops(t *testing.T) {
	h := newHarness()
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		h.orch.Run(ctx)
		close(done)
	}()
	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("orchestrator ignored cancellation")
	}
}

func TestCommandMessage(t *testing.T) {
	tests := map[state.Control]Kind{
		state.ControlStart:   Start,
		state.ControlStop:    Stop,
		state.ControlPause:   Pause,
		state.ControlUnpause: Unpause,
		state.ControlRestart: Restart,
		state.ControlDelete:  Delete,
	}
	for c, want := range tests {
		if got := Command(c, "x"); got.Kind != want || got.ID != "x" {
			t.Errorf("Command(%v) = %+v, want %v", c, got, want)
		}
	}
}
