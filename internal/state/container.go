package state

import "strings"

// ContainerID uniquely identifies a container within the registry.
type ContainerID string

// Short returns the first 8 characters of the id for display.
func (id ContainerID) Short() string {
	if len(id) > 8 {
		return string(id[:8])
	}
	return string(id)
}

// State is the lifecycle state reported by the runtime.
type State uint8

const (
	StateDead State = iota
	StateExited
	StatePaused
	StateRemoving
	StateRestarting
	StateRunning
	StateUnknown
)

// ParseState maps a runtime state string to a State.
func ParseState(s string) State {
	switch strings.TrimSpace(s) {
	case "dead":
		return StateDead
	case "exited":
		return StateExited
	case "paused":
		return StatePaused
	case "removing":
		return StateRemoving
	case "restarting":
		return StateRestarting
	case "running":
		return StateRunning
	default:
		return StateUnknown
	}
}

// Order is the display precedence used when sorting by state, healthiest first.
func (s State) Order() uint8 {
	switch s {
	case StateRunning:
		return 0
	case StatePaused:
		return 1
	case StateRestarting:
		return 2
	case StateRemoving:
		return 3
	case StateExited:
		return 4
	case StateDead:
		return 5
	default:
		return 6
	}
}

// Name returns the runtime's name for the state.
func (s State) Name() string {
	switch s {
	case StateDead:
		return "dead"
	case StateExited:
		return "exited"
	case StatePaused:
		return "paused"
	case StateRemoving:
		return "removing"
	case StateRestarting:
		return "restarting"
	case StateRunning:
		return "running"
	default:
		return "unknown"
	}
}

func (s State) String() string {
	switch s {
	case StateDead:
		return "✖ dead"
	case StateExited:
		return "✖ exited"
	case StatePaused:
		return "॥ paused"
	case StateRemoving:
		return "removing"
	case StateRestarting:
		return "↻ restarting"
	case StateRunning:
		return "✓ running"
	default:
		return "? unknown"
	}
}

// Control is a runtime command that can be issued against a container.
type Control uint8

const (
	ControlPause Control = iota
	ControlRestart
	ControlStart
	ControlStop
	ControlUnpause
	ControlDelete
)

func (c Control) String() string {
	switch c {
	case ControlPause:
		return "pause"
	case ControlRestart:
		return "restart"
	case ControlStart:
		return "start"
	case ControlStop:
		return "stop"
	case ControlUnpause:
		return "unpause"
	case ControlDelete:
		return "delete"
	default:
		return ""
	}
}

// ControlsFor returns the commands offered for a container in the given state.
func ControlsFor(s State) []Control {
	switch s {
	case StateDead, StateExited:
		return []Control{ControlStart, ControlRestart, ControlDelete}
	case StatePaused:
		return []Control{ControlUnpause, ControlStop, ControlDelete}
	case StateRestarting:
		return []Control{ControlStop, ControlDelete}
	case StateRunning:
		return []Control{ControlPause, ControlRestart, ControlStop, ControlDelete}
	default:
		return []Control{ControlDelete}
	}
}

// RawContainer is one entry of a runtime snapshot.
type RawContainer struct {
	ID      string
	Names   []string
	Image   string
	State   string
	Status  string
	Created int64
	Command string
}

// ContainerItem is the registry's record of one container. Items are mutated
// in place across reconciliations so their history survives.
type ContainerItem struct {
	ID          ContainerID
	Name        string
	Image       string
	Status      string
	State       State
	Created     uint64
	LastUpdated uint64

	CPU      *StatsWindow[CPUStats]
	Mem      *StatsWindow[ByteStats]
	MemLimit ByteStats
	Rx       ByteStats
	Tx       ByteStats

	Logs     *LogStore
	Info     List[string]
	Controls List[Control]
	IsSelf   bool
}

func newContainerItem(raw RawContainer, isSelf bool) *ContainerItem {
	st := ParseState(raw.State)
	item := &ContainerItem{
		ID:      ContainerID(raw.ID),
		Name:    containerName(raw.Names),
		Image:   raw.Image,
		Status:  strings.TrimSpace(raw.Status),
		State:   st,
		Created: createdTime(raw.Created),
		CPU:     NewStatsWindow[CPUStats](),
		Mem:     NewStatsWindow[ByteStats](),
		Logs:    NewLogStore(),
		IsSelf:  isSelf,
	}
	item.Controls = List[Control]{Items: ControlsFor(st)}
	item.Controls.Start()
	return item
}

// mergeItem patches identity fields from a fresh snapshot entry into an
// existing item. Only changed fields are written, and the stats, log and info
// history is never touched. It reports whether anything changed.
func mergeItem(item *ContainerItem, raw RawContainer) bool {
	changed := false
	if name := containerName(raw.Names); item.Name != name {
		item.Name = name
		changed = true
	}
	if status := strings.TrimSpace(raw.Status); item.Status != status {
		item.Status = status
		changed = true
	}
	if st := ParseState(raw.State); item.State != st {
		item.State = st
		item.Controls = List[Control]{Items: ControlsFor(st)}
		item.Controls.Start()
		changed = true
	}
	if item.Image != raw.Image {
		item.Image = raw.Image
		changed = true
	}
	return changed
}

// containerName extracts a clean name from the runtime's name list.
func containerName(names []string) string {
	if len(names) == 0 {
		return ""
	}
	// Docker prefixes names with "/", strip it.
	return strings.TrimPrefix(names[0], "/")
}

func createdTime(epoch int64) uint64 {
	if epoch < 0 {
		return 0
	}
	return uint64(epoch)
}
