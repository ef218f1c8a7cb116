package state

import (
	"reflect"
	"strings"
	"testing"
	"time"
	"unicode/utf8"
)

func raw(id string, created int64) RawContainer {
	return RawContainer{
		ID:      id,
		Names:   []string{"/" + id},
		Image:   "img-" + id,
		State:   "running",
		Status:  "Up 1 minute",
		Created: created,
	}
}

func registryIDs(r *Registry) []ContainerID {
	return ids(r.Items())
}

func selectedID(t *testing.T, r *Registry) ContainerID {
	t.Helper()
	id, ok := r.SelectedID()
	if !ok {
		t.Fatal("expected a selection")
	}
	return id
}

func TestReconcileInitialOrderByCreated(t *testing.T) {
	r := NewRegistry(LogDisplay{})
	r.Reconcile([]RawContainer{raw("b", 20), raw("c", 30), raw("a", 10)})

	want := []ContainerID{"a", "b", "c"}
	if got := registryIDs(r); !reflect.DeepEqual(got, want) {
		t.Fatalf("order = %v, want %v", got, want)
	}
	if got := selectedID(t, r); got != "a" {
		t.Fatalf("selected = %q, want a", got)
	}
	if item := r.Get("a"); item.Name != "a" {
		t.Fatalf("name = %q, want leading slash stripped", item.Name)
	}
}

func TestReconcileIdempotent(t *testing.T) {
	r := NewRegistry(LogDisplay{})
	snap := []RawContainer{raw("a", 1), raw("b", 2)}
	r.Reconcile(snap)
	first := append([]*ContainerItem(nil), r.Items()...)

	r.Reconcile(snap)

	if !reflect.DeepEqual(first, r.Items()) {
		t.Fatal("second reconcile with the same snapshot changed the list")
	}
}

func TestReconcilePreservesHistory(t *testing.T) {
	r := NewRegistry(LogDisplay{})
	r.Reconcile([]RawContainer{raw("a", 1)})
	cpu, mem := 5.0, uint64(100)
	r.UpdateStats("a", &cpu, &mem, 1000, 1, 2)

	next := raw("a", 1)
	next.State = "paused"
	next.Status = "Up 2 minutes (Paused)"
	r.Reconcile([]RawContainer{next})

	item := r.Get("a")
	if item.CPU.Len() != 1 || item.Mem.Len() != 1 {
		t.Fatalf("history lost: cpu=%d mem=%d", item.CPU.Len(), item.Mem.Len())
	}
	if item.State != StatePaused || item.Status != "Up 2 minutes (Paused)" {
		t.Fatalf("state not patched: %v %q", item.State, item.Status)
	}
	want := []Control{ControlUnpause, ControlStop, ControlDelete}
	if !reflect.DeepEqual(item.Controls.Items, want) {
		t.Fatalf("controls = %v, want %v", item.Controls.Items, want)
	}
}

func TestReconcileAppendsNewItems(t *testing.T) {
	r := NewRegistry(LogDisplay{})
	r.Reconcile([]RawContainer{raw("b", 20)})
	r.Reconcile([]RawContainer{raw("a", 10), raw("b", 20)})

	want := []ContainerID{"b", "a"}
	if got := registryIDs(r); !reflect.DeepEqual(got, want) {
		t.Fatalf("order = %v, want %v", got, want)
	}
}

func TestReconcileSkipsEmptyID(t *testing.T) {
	r := NewRegistry(LogDisplay{})
	r.Reconcile([]RawContainer{raw("a", 1), {ID: ""}, raw("a", 1)})

	if r.Len() != 1 {
		t.Fatalf("len = %d, want 1", r.Len())
	}
}

func TestReconcileRemoval(t *testing.T) {
	tests := []struct {
		name     string
		selected ContainerID
		keep     []string
		wantIDs  []ContainerID
		wantSel  ContainerID
	}{
		{"selected first removed", "a", []string{"b", "c"}, []ContainerID{"b", "c"}, "b"},
		{"selected middle removed", "b", []string{"a", "c"}, []ContainerID{"a", "c"}, "a"},
		{"selected last removed", "c", []string{"a", "b"}, []ContainerID{"a", "b"}, "b"},
		{"earlier row removed", "c", []string{"b", "c"}, []ContainerID{"b", "c"}, "c"},
		{"later row removed", "a", []string{"a", "b"}, []ContainerID{"a", "b"}, "a"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := NewRegistry(LogDisplay{})
			r.Reconcile([]RawContainer{raw("a", 1), raw("b", 2), raw("c", 3)})
			r.SelectID(tt.selected)

			var snap []RawContainer
			for i, id := range tt.keep {
				snap = append(snap, raw(id, int64(i)))
			}
			r.Reconcile(snap)

			if got := registryIDs(r); !reflect.DeepEqual(got, tt.wantIDs) {
				t.Fatalf("ids = %v, want %v", got, tt.wantIDs)
			}
			if got := selectedID(t, r); got != tt.wantSel {
				t.Fatalf("selected = %q, want %q", got, tt.wantSel)
			}
		})
	}
}

func TestReconcileEmptySnapshot(t *testing.T) {
	r := NewRegistry(LogDisplay{})
	r.Reconcile([]RawContainer{raw("a", 1)})
	r.Reconcile(nil)

	if r.Len() != 0 {
		t.Fatalf("len = %d, want 0", r.Len())
	}
	if _, ok := r.SelectedID(); ok {
		t.Fatal("selection should be cleared")
	}
	if r.ContainerTitle() != "" {
		t.Fatalf("title = %q, want empty", r.ContainerTitle())
	}
}

func TestSortKeepsSelection(t *testing.T) {
	r := NewRegistry(LogDisplay{})
	r.Reconcile([]RawContainer{raw("a", 1), raw("b", 2), raw("c", 3)})
	r.SelectID("b")

	r.SetSort(HeaderName)
	r.SetSort(HeaderName)

	if s, ok := r.Sorted(); !ok || s != (Sort{HeaderName, Desc}) {
		t.Fatalf("sort = %+v %v, want name desc", s, ok)
	}
	want := []ContainerID{"c", "b", "a"}
	if got := registryIDs(r); !reflect.DeepEqual(got, want) {
		t.Fatalf("order = %v, want %v", got, want)
	}
	if got := selectedID(t, r); got != "b" {
		t.Fatalf("selected = %q, want b", got)
	}

	r.ResetSort()
	want = []ContainerID{"a", "b", "c"}
	if got := registryIDs(r); !reflect.DeepEqual(got, want) {
		t.Fatalf("after reset = %v, want %v", got, want)
	}
	if got := selectedID(t, r); got != "b" {
		t.Fatalf("selected after reset = %q, want b", got)
	}
}

func TestActiveSortAppliedOnUpdate(t *testing.T) {
	r := NewRegistry(LogDisplay{})
	r.Reconcile([]RawContainer{raw("a", 1), raw("b", 2)})
	r.SetSort(HeaderCPU)
	r.SetSort(HeaderCPU)

	hi := 90.0
	r.UpdateStats("a", &hi, nil, 0, 0, 0)
	lo := 10.0
	r.UpdateStats("b", &lo, nil, 0, 0, 0)

	if got := registryIDs(r); got[0] != "a" {
		t.Fatalf("cpu desc order = %v, want a first", got)
	}

	hi2 := 95.0
	r.UpdateStats("b", &hi2, nil, 0, 0, 0)
	if got := registryIDs(r); got[0] != "b" {
		t.Fatalf("cpu desc order after update = %v, want b first", got)
	}
}

func TestUpdateStats(t *testing.T) {
	r := NewRegistry(LogDisplay{})
	r.Reconcile([]RawContainer{raw("c1", 1)})

	cpu, mem := 12.5, uint64(2_000_000)
	r.UpdateStats("c1", &cpu, &mem, 4_000_000_000, 300, 400)
	r.UpdateStats("c1", nil, nil, 4_000_000_000, 350, 450)
	r.UpdateStats("missing", &cpu, &mem, 1, 1, 1)

	item := r.Get("c1")
	if item.CPU.Len() != 1 || item.Mem.Len() != 1 {
		t.Fatalf("missing readings should not push: cpu=%d mem=%d", item.CPU.Len(), item.Mem.Len())
	}
	if item.Rx != 350 || item.Tx != 450 {
		t.Fatalf("rx/tx = %d/%d, want 350/450", item.Rx, item.Tx)
	}

	cd, ok := r.ChartData()
	if !ok {
		t.Fatal("expected chart data")
	}
	if want := []Point{{0, 12.5}}; !reflect.DeepEqual(cd.CPU, want) {
		t.Fatalf("cpu points = %v, want %v", cd.CPU, want)
	}
	if cd.MaxCPU.String() != "12.50%" {
		t.Fatalf("max cpu = %q, want 12.50%%", cd.MaxCPU.String())
	}
	if got := cd.MaxMem.String(); got != "2.00 MB" {
		t.Fatalf("max mem = %q, want 2.00 MB", got)
	}
	if got := item.MemLimit.String(); got != "4.00 GB" {
		t.Fatalf("mem limit = %q, want 4.00 GB", got)
	}
	if cd.State != StateRunning {
		t.Fatalf("state = %v, want running", cd.State)
	}
}

func TestUpdateStatsWindowBound(t *testing.T) {
	r := NewRegistry(LogDisplay{})
	r.Reconcile([]RawContainer{raw("a", 1)})
	for i := 0; i < 100; i++ {
		v := float64(i)
		r.UpdateStats("a", &v, nil, 0, 0, 0)
	}

	data := r.Get("a").CPU.Data()
	if len(data) != 60 || data[0] != 40 || data[59] != 99 {
		t.Fatalf("window = len %d [%v..%v], want 60 samples 40..99", len(data), data[0], data[len(data)-1])
	}
	if cd, _ := r.ChartData(); cd.MaxCPU != 99 || len(cd.CPU) != 60 {
		t.Fatalf("chart = %d points max %v, want 60 points max 99", len(cd.CPU), cd.MaxCPU)
	}
}

func TestUpdateLogs(t *testing.T) {
	r := NewRegistry(LogDisplay{Timestamp: true})
	r.now = func() time.Time { return time.Unix(1700000000, 0) }
	r.Reconcile([]RawContainer{raw("a", 1)})

	r.UpdateLogs("a", []string{
		"2024-01-01T00:00:01Z one",
		"2024-01-01T00:00:02Z two",
		"",
	})
	r.UpdateLogs("a", []string{
		"2024-01-01T00:00:02Z two",
		"2024-01-01T00:00:03Z three",
	})

	item := r.Get("a")
	want := []string{
		"2024-01-01T00:00:01Z one",
		"2024-01-01T00:00:02Z two",
		"2024-01-01T00:00:03Z three",
	}
	if got := item.Logs.Lines(); !reflect.DeepEqual(got, want) {
		t.Fatalf("lines = %v, want %v", got, want)
	}
	if sel, _ := item.Logs.Selected(); sel != 2 {
		t.Fatalf("log cursor = %d, want to follow the tail at 2", sel)
	}
	if item.LastUpdated != 1700000000 {
		t.Fatalf("last updated = %d", item.LastUpdated)
	}
	if got := r.LogTitle(); got != "3/3 - a" {
		t.Fatalf("log title = %q", got)
	}

	r.LogStart()
	r.UpdateLogs("a", []string{"2024-01-01T00:00:04Z four"})
	if sel, _ := item.Logs.Selected(); sel != 0 {
		t.Fatalf("log cursor = %d, want to stay at 0 once scrolled", sel)
	}
}

func TestLogTitleWithoutLogs(t *testing.T) {
	r := NewRegistry(LogDisplay{})
	if got := r.LogTitle(); got != "" {
		t.Fatalf("empty registry title = %q", got)
	}
	r.Reconcile([]RawContainer{raw("web", 1)})
	if got := r.LogTitle(); got != "- web " {
		t.Fatalf("title = %q, want %q", got, "- web ")
	}
}

func TestLogTitleTruncatesByRune(t *testing.T) {
	r := NewRegistry(LogDisplay{})
	c := raw("a", 1)
	c.Names = []string{"/" + strings.Repeat("a", 31) + "é-suffix"}
	r.Reconcile([]RawContainer{c})

	got := r.LogTitle()
	if !utf8.ValidString(got) {
		t.Fatalf("title %q is not valid UTF-8", got)
	}
	if want := "- " + strings.Repeat("a", 31) + "é "; got != want {
		t.Fatalf("title = %q, want %q", got, want)
	}
}

func TestUpdateInfo(t *testing.T) {
	r := NewRegistry(LogDisplay{})
	r.Reconcile([]RawContainer{raw("a", 1)})
	r.UpdateInfo("a", "{\n  \"Id\": \"a\"\n}\n")

	item := r.Get("a")
	want := []string{"{", `  "Id": "a"`, "}"}
	if !reflect.DeepEqual(item.Info.Items, want) {
		t.Fatalf("info = %q, want %q", item.Info.Items, want)
	}
	if sel, ok := item.Info.Selected(); !ok || sel != 0 {
		t.Fatalf("info cursor = %d %v, want 0", sel, ok)
	}
}

func TestSelfMatcher(t *testing.T) {
	r := NewRegistry(LogDisplay{})
	r.SetSelfMatcher(func(c RawContainer) bool { return c.ID == "me" })
	r.Reconcile([]RawContainer{raw("me", 1), raw("other", 2)})

	if !r.Get("me").IsSelf || r.Get("other").IsSelf {
		t.Fatal("self matcher not applied")
	}
}

func TestColumnsGrow(t *testing.T) {
	r := NewRegistry(LogDisplay{})
	long := raw("a", 1)
	long.Image = "registry.example.com/team/service:latest"
	r.Reconcile([]RawContainer{long})

	cols := r.Columns()
	if cols.Image != len(long.Image) {
		t.Fatalf("image width = %d, want %d", cols.Image, len(long.Image))
	}
	if cols.Name != 4 {
		t.Fatalf("name width = %d, want minimum 4", cols.Name)
	}
	if got := cols.Width(HeaderMemory); got != cols.Mem+3+cols.MemLimit {
		t.Fatalf("memory width = %d", got)
	}
}
