package state

import (
	"cmp"
	"slices"
	"strings"
	"time"
	"unicode/utf8"
)

// Registry owns the containers shown by the dashboard. It reconciles runtime
// snapshots into a stable list, keeps per-container history, and tracks the
// selection and sort order. A Registry is not safe for concurrent use; see
// AppState.
type Registry struct {
	containers List[*ContainerItem]
	sort       Sort
	sorted     bool
	display    LogDisplay
	isSelf     func(RawContainer) bool
	now        func() time.Time
}

// NewRegistry creates an empty registry rendering logs with the given mode.
func NewRegistry(display LogDisplay) *Registry {
	return &Registry{
		display: display,
		isSelf:  func(RawContainer) bool { return false },
		now:     time.Now,
	}
}

// SetSelfMatcher sets the predicate that flags the dashboard's own container.
func (r *Registry) SetSelfMatcher(fn func(RawContainer) bool) {
	if fn != nil {
		r.isSelf = fn
	}
}

// Reconcile merges a runtime snapshot into the registry. Containers missing
// from the snapshot are removed, new ones are appended with empty history and
// known ones are patched in place. The first non-empty snapshot fixes the
// baseline order by creation time; afterwards order only changes through the
// active sort.
func (r *Registry) Reconcile(snapshot []RawContainer) {
	if len(r.containers.Items) == 0 {
		snapshot = slices.Clone(snapshot)
		slices.SortStableFunc(snapshot, func(a, b RawContainer) int {
			return cmp.Compare(a.Created, b.Created)
		})
	}

	incoming := make(map[ContainerID]struct{}, len(snapshot))
	for _, raw := range snapshot {
		if raw.ID != "" {
			incoming[ContainerID(raw.ID)] = struct{}{}
		}
	}
	r.removeMissing(incoming)

	for _, raw := range snapshot {
		if raw.ID == "" {
			continue
		}
		if item := r.find(ContainerID(raw.ID)); item != nil {
			mergeItem(item, raw)
			continue
		}
		r.containers.Items = append(r.containers.Items, newContainerItem(raw, r.isSelf(raw)))
	}

	if _, ok := r.containers.Selected(); !ok && len(r.containers.Items) > 0 {
		r.containers.Start()
	}
	if r.sorted {
		r.resort()
	}
}

// removeMissing drops items not in keep. A removed selection moves to the
// preceding surviving item; any other selection follows its item.
func (r *Registry) removeMissing(keep map[ContainerID]struct{}) {
	selIdx, hasSel := r.containers.Selected()

	kept := make([]*ContainerItem, 0, len(r.containers.Items))
	newSel, before := -1, 0
	for i, item := range r.containers.Items {
		if _, ok := keep[item.ID]; !ok {
			continue
		}
		if hasSel && i == selIdx {
			newSel = len(kept)
		}
		if i < selIdx {
			before++
		}
		kept = append(kept, item)
	}
	r.containers.Items = kept

	switch {
	case !hasSel:
	case newSel >= 0:
		r.containers.Select(newSel)
	default:
		r.containers.Select(before - 1)
	}
}

// UpdateStats records a stats sample for a container. Missing cpu or mem
// readings leave their history untouched; counters are always overwritten.
func (r *Registry) UpdateStats(id ContainerID, cpu *float64, mem *uint64, memLimit, rx, tx uint64) {
	item := r.find(id)
	if item == nil {
		return
	}
	if cpu != nil {
		item.CPU.Push(CPUStats(*cpu))
	}
	if mem != nil {
		item.Mem.Push(ByteStats(*mem))
	}
	item.MemLimit = ByteStats(memLimit)
	item.Rx = ByteStats(rx)
	item.Tx = ByteStats(tx)

	if r.sorted {
		r.resort()
	}
}

// UpdateLogs renders and stores raw log lines for a container. If the log
// cursor was unset or at the last line, it follows the newest line.
func (r *Registry) UpdateLogs(id ContainerID, lines []string) {
	item := r.find(id)
	if item == nil {
		return
	}
	item.LastUpdated = uint64(r.now().Unix())

	prevLen := item.Logs.Len()
	for _, line := range lines {
		if line == "" {
			continue
		}
		text, tz := r.display.render(line)
		item.Logs.Insert(text, tz)
	}

	if sel, ok := item.Logs.Selected(); !ok || sel+1 == prevLen {
		item.Logs.End()
	}
}

// UpdateInfo replaces the inspect text of a container.
func (r *Registry) UpdateInfo(id ContainerID, text string) {
	item := r.find(id)
	if item == nil {
		return
	}
	item.Info = List[string]{Items: strings.Split(strings.TrimRight(text, "\n"), "\n")}
	item.Info.Start()
}

// SetSort cycles the sort for header h and reorders the list.
func (r *Registry) SetSort(h Header) {
	r.sort, r.sorted = cycleSort(r.sort, r.sorted, h)
	r.resort()
}

// ResetSort clears any column sort, restoring creation order.
func (r *Registry) ResetSort() {
	r.sort, r.sorted = Sort{}, false
	r.resort()
}

// Sorted returns the active sort, if any.
func (r *Registry) Sorted() (Sort, bool) {
	return r.sort, r.sorted
}

// resort applies the current sort and keeps the selected container selected.
func (r *Registry) resort() {
	id, ok := r.SelectedID()
	applySort(r.containers.Items, r.sort, r.sorted)
	if ok {
		if i := r.index(id); i >= 0 {
			r.containers.Select(i)
			return
		}
	}
	if len(r.containers.Items) > 0 {
		r.containers.Start()
	} else {
		r.containers.Unselect()
	}
}

func (r *Registry) find(id ContainerID) *ContainerItem {
	if i := r.index(id); i >= 0 {
		return r.containers.Items[i]
	}
	return nil
}

func (r *Registry) index(id ContainerID) int {
	return slices.IndexFunc(r.containers.Items, func(c *ContainerItem) bool { return c.ID == id })
}

// Get returns the item with the given id, or nil.
func (r *Registry) Get(id ContainerID) *ContainerItem {
	return r.find(id)
}

// Items returns the containers in display order. The slice must only be read
// while the registry is held.
func (r *Registry) Items() []*ContainerItem {
	return r.containers.Items
}

// Len returns the number of containers.
func (r *Registry) Len() int {
	return len(r.containers.Items)
}

// SelectedIndex returns the selected row.
func (r *Registry) SelectedIndex() (int, bool) {
	return r.containers.Selected()
}

// Selected returns the selected container, or nil.
func (r *Registry) Selected() *ContainerItem {
	item, _ := r.containers.Current()
	return item
}

// SelectedID returns the id of the selected container.
func (r *Registry) SelectedID() (ContainerID, bool) {
	if item := r.Selected(); item != nil {
		return item.ID, true
	}
	return "", false
}

// SelectID selects the container with the given id if present.
func (r *Registry) SelectID(id ContainerID) bool {
	if i := r.index(id); i >= 0 {
		r.containers.Select(i)
		return true
	}
	return false
}

func (r *Registry) ContainersNext() { r.containers.Next() }
func (r *Registry) ContainersPrevious() { r.containers.Previous() }
func (r *Registry) ContainersStart() { r.containers.Start() }
func (r *Registry) ContainersEnd() { r.containers.End() }

// LogNext and friends move the log cursor of the selected container.
func (r *Registry) LogNext() { r.withSelected(func(c *ContainerItem) { c.Logs.Next() }) }
func (r *Registry) LogPrevious() { r.withSelected(func(c *ContainerItem) { c.Logs.Previous() }) }
func (r *Registry) LogStart() { r.withSelected(func(c *ContainerItem) { c.Logs.Start() }) }
func (r *Registry) LogEnd() { r.withSelected(func(c *ContainerItem) { c.Logs.End() }) }

func (r *Registry) InfoNext() { r.withSelected(func(c *ContainerItem) { c.Info.Next() }) }
func (r *Registry) InfoPrevious() { r.withSelected(func(c *ContainerItem) { c.Info.Previous() }) }
func (r *Registry) InfoStart() { r.withSelected(func(c *ContainerItem) { c.Info.Start() }) }
func (r *Registry) InfoEnd() { r.withSelected(func(c *ContainerItem) { c.Info.End() }) }

func (r *Registry) withSelected(fn func(*ContainerItem)) {
	if item := r.Selected(); item != nil {
		fn(item)
	}
}

// ContainerTitle returns the container list position, e.g. "2/5".
func (r *Registry) ContainerTitle() string {
	return r.containers.Title()
}

// LogTitle returns "i/n - name" for the selected container's logs, "- name "
// when it has none, or "" when nothing is selected.
func (r *Registry) LogTitle() string {
	item := r.Selected()
	if item == nil {
		return ""
	}
	name := item.Name
	if rs := []rune(name); len(rs) > 32 {
		name = string(rs[:32])
	}
	if t := item.Logs.Title(); t != "" {
		return t + " - " + name
	}
	return "- " + name + " "
}

// Columns holds the display width of each container list column.
type Columns struct {
	State    int
	Status   int
	CPU      int
	Mem      int
	MemLimit int
	ID       int
	Name     int
	Image    int
	Rx       int
	Tx       int
}

// Width returns the width of the column for h. Memory spans usage and limit.
func (c Columns) Width(h Header) int {
	switch h {
	case HeaderState:
		return c.State
	case HeaderStatus:
		return c.Status
	case HeaderCPU:
		return c.CPU
	case HeaderMemory:
		return c.Mem + 3 + c.MemLimit
	case HeaderID:
		return c.ID
	case HeaderName:
		return c.Name
	case HeaderImage:
		return c.Image
	case HeaderRx:
		return c.Rx
	case HeaderTx:
		return c.Tx
	default:
		return 0
	}
}

func defaultColumns() Columns {
	return Columns{
		State: 11, Status: 16, CPU: 7, Mem: 7, MemLimit: 7,
		ID: 8, Name: 4, Image: 5, Rx: 7, Tx: 7,
	}
}

// Columns sizes each column to its widest current value.
func (r *Registry) Columns() Columns {
	cols := defaultColumns()
	count := utf8.RuneCountInString
	for _, c := range r.containers.Items {
		cols.CPU = max(cols.CPU, count(lastCPU(c).String()))
		cols.Mem = max(cols.Mem, count(lastMem(c).String()))
		cols.MemLimit = max(cols.MemLimit, count(c.MemLimit.String()))
		cols.Image = max(cols.Image, count(c.Image))
		cols.Name = max(cols.Name, count(c.Name))
		cols.Rx = max(cols.Rx, count(c.Rx.String()))
		cols.Tx = max(cols.Tx, count(c.Tx.String()))
		cols.State = max(cols.State, count(c.State.String()))
		cols.Status = max(cols.Status, count(c.Status))
	}
	return cols
}

// ChartData is the chart series of one container.
type ChartData struct {
	CPU    []Point
	MaxCPU CPUStats
	Mem    []Point
	MaxMem ByteStats
	State  State
}

// ChartData returns the chart series of the selected container.
func (r *Registry) ChartData() (ChartData, bool) {
	item := r.Selected()
	if item == nil {
		return ChartData{}, false
	}
	cd := ChartData{
		CPU:    item.CPU.Points(),
		MaxCPU: item.CPU.Max(),
		Mem:    item.Mem.Points(),
		MaxMem: item.Mem.Max(),
		State:  item.State,
	}
	return cd, true
}
