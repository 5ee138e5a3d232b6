package netgate

import "errors"

// Connectivity errors.
var (
	// ErrInvalidProbeAddress is returned when the probe address is not in
	// "host:port" form.
	ErrInvalidProbeAddress = errors.New("invalid probe address: expected host:port")

	// ErrWaitTimeout is returned by WaitUntilReachable when a maximum wait is
	// configured and the network stays unreachable for longer than that.
	ErrWaitTimeout = errors.New("network still unreachable after maximum wait")
)

// ProbeStatus is the outcome of a single connectivity probe.
type ProbeStatus int

const (
	// StatusReachable means the probe host accepted a TCP connection.
	StatusReachable ProbeStatus = iota

	// StatusUnresolvable means the probe host name could not be resolved.
	// This is the usual symptom of a dropped uplink.
	StatusUnresolvable

	// StatusCannotConnect means the connection was refused or the route
	// is down.
	StatusCannotConnect

	// StatusTimeout means the connection attempt did not finish within the
	// probe timeout.
	StatusTimeout
)

// String returns a human-readable description of the status.
func (s ProbeStatus) String() string {
	switch s {
	case StatusReachable:
		return "reachable"
	case StatusUnresolvable:
		return "dns lookup failed"
	case StatusCannotConnect:
		return "cannot connect"
	case StatusTimeout:
		return "timeout"
	default:
		return "unknown"
	}
}
