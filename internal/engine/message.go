package engine

import "github.com/thobiasn/skiff/internal/state"

// Kind is the type of an orchestrator message.
type Kind uint8

const (
	Update Kind = iota
	Start
	Stop
	Pause
	Unpause
	Restart
	Delete
	Info
	Quit
)

func (k Kind) String() string {
	switch k {
	case Update:
		return "update"
	case Start:
		return "start"
	case Stop:
		return "stop"
	case Pause:
		return "pause"
	case Unpause:
		return "unpause"
	case Restart:
		return "restart"
	case Delete:
		return "delete"
	case Info:
		return "inspect"
	case Quit:
		return "quit"
	default:
		return "unknown"
	}
}

// Message is a request to the orchestrator. ID is unused by Update and Quit.
type Message struct {
	Kind Kind
	ID   state.ContainerID
}

// Command returns the message that runs control c against id.
func Command(c state.Control, id state.ContainerID) Message {
	var k Kind
	switch c {
	case state.ControlStart:
		k = Start
	case state.ControlStop:
		k = Stop
	case state.ControlPause:
		k = Pause
	case state.ControlUnpause:
		k = Unpause
	case state.ControlRestart:
		k = Restart
	case state.ControlDelete:
		k = Delete
	}
	return Message{Kind: k, ID: id}
}
