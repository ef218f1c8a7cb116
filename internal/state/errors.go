package state

import "fmt"

// ErrorKind classifies an application error shown to the user.
type ErrorKind uint8

const (
	ErrDocker ErrorKind = iota
	ErrDockerConnect
	ErrDockerInterval
	ErrInputPoll
	ErrMouseCapture
	ErrTerminal
)

// AppError is the single error the dashboard displays. Runtime command
// failures carry the action that failed; mouse capture failures carry whether
// capture was being enabled.
type AppError struct {
	Kind   ErrorKind
	Action string
	Enable bool
}

// CommandError returns the error for a failed runtime command.
func CommandError(action string) AppError {
	return AppError{Kind: ErrDocker, Action: action}
}

func (e AppError) Error() string {
	switch e.Kind {
	case ErrDocker:
		if e.Action != "" {
			return fmt.Sprintf("Docker error: unable to %s container", e.Action)
		}
		return "Docker error"
	case ErrDockerConnect:
		return "Unable to access docker daemon"
	case ErrDockerInterval:
		return "Docker update interval needs to be greater than 0"
	case ErrInputPoll:
		return "Unable to poll user input"
	case ErrMouseCapture:
		if e.Enable {
			return "Unable to enable mouse capture"
		}
		return "Unable to disable mouse capture"
	case ErrTerminal:
		return "Unable to draw to terminal"
	default:
		return "unknown error"
	}
}
