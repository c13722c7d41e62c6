package lifecycle

import "time"

// Kind identifies a lifecycle notification from the host shell.
type Kind int

const (
	// CloseRequested - the main window is being closed
	CloseRequested Kind = iota + 1
	// ExitRequested - the OS or user asked the process to exit
	ExitRequested
	// Exit - the shell's event loop has returned
	Exit
)

// String returns the string representation of a Kind
func (k Kind) String() string {
	switch k {
	case CloseRequested:
		return "close_requested"
	case ExitRequested:
		return "exit_requested"
	case Exit:
		return "exit"
	default:
		return "unknown"
	}
}

// Terminal reports whether the event ends the application run.
func (k Kind) Terminal() bool {
	switch k {
	case CloseRequested, ExitRequested, Exit:
		return true
	default:
		return false
	}
}

// Event is a single lifecycle notification.
type Event struct {
	Kind   Kind
	Source string
	At     time.Time
}

// NewEvent stamps an event with the current time.
func NewEvent(kind Kind, source string) Event {
	return Event{Kind: kind, Source: source, At: time.Now()}
}
