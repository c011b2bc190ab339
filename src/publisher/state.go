package publisher

// State is the connection lifecycle of a Publisher.
type State int

const (
	StateDisconnected State = iota
	StateConnecting
	StateConnected
	StateSending
	StateDisconnecting
	StateTerminated
)

func (s State) String() string {
	switch s {
	case StateDisconnected:
		return "disconnected"
	case StateConnecting:
		return "connecting"
	case StateConnected:
		return "connected"
	case StateSending:
		return "sending"
	case StateDisconnecting:
		return "disconnecting"
	case StateTerminated:
		return "terminated"
	default:
		return "unknown"
	}
}
