package client

// Status is the connection state of a Manager. It is owned exclusively
// by the manager; transitions happen only inside its run loop, fed by
// transport callbacks, the connect watchdog and the liveness probe.
type Status int

const (
	StatusDisconnected Status = iota
	StatusConnecting
	StatusConnected
	StatusError
)

func (s Status) String() string {
	switch s {
	case StatusDisconnected:
		return "disconnected"
	case StatusConnecting:
		return "connecting"
	case StatusConnected:
		return "connected"
	case StatusError:
		return "error"
	default:
		return "unknown"
	}
}
