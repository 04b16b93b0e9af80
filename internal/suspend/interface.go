package suspend

// State represents a watcher's position in the suspend lifecycle
type State int32

const (
	StateActive State = iota
	StateWaitingForSuspend
	StateSuspended
	StateDisabled
)

func (s State) String() string {
	switch s {
	case StateActive:
		return "active"
	case StateWaitingForSuspend:
		return "waiting_for_suspend"
	case StateSuspended:
		return "suspended"
	case StateDisabled:
		return "disabled"
	default:
		return "unknown"
	}
}

// Source delivers operating-system sleep transitions. One Stream call is one
// connection attempt: it forwards each transition (true entering sleep,
// false waking) to publish until the stream fails or ends. A clean stream
// end returns nil.
type Source interface {
	Stream(publish func(entering bool)) error
}
