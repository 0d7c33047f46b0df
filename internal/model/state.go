package model

import (
	"encoding/json"
	"fmt"
	"strings"
)

// PortState represents the reachability outcome of probing a single port.
//
// Timeout and Closed both roll up to "not reachable" in the default report
// view; they are kept distinct because a refused connection (RST) and a
// silently dropped SYN say different things about the network path.
type PortState int

const (
	// StateOpen means the TCP handshake completed within the connect timeout.
	StateOpen PortState = iota

	// StateClosed means the peer actively refused the connection.
	StateClosed

	// StateTimeout means no answer arrived within the connect timeout.
	// The port is closed or filtered.
	StateTimeout

	// StateError means the probe failed for any other reason, for example
	// a DNS failure or an unreachable network.
	StateError
)

// String returns the lower-case name of the state.
func (s PortState) String() string {
	switch s {
	case StateOpen:
		return "open"
	case StateClosed:
		return "closed"
	case StateTimeout:
		return "timeout"
	case StateError:
		return "error"
	default:
		return "unknown"
	}
}

// Reachable reports whether the port accepted a connection.
func (s PortState) Reachable() bool {
	return s == StateOpen
}

// ParsePortState converts a state name back into a PortState.
// Matching is case-insensitive.
func ParsePortState(s string) (PortState, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "open":
		return StateOpen, nil
	case "closed":
		return StateClosed, nil
	case "timeout":
		return StateTimeout, nil
	case "error":
		return StateError, nil
	default:
		return 0, fmt.Errorf("unknown port state %q", s)
	}
}

// MarshalJSON encodes the state as its name so reports stay readable.
func (s PortState) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.String())
}

// UnmarshalJSON decodes a state name produced by MarshalJSON.
func (s *PortState) UnmarshalJSON(data []byte) error {
	var name string
	if err := json.Unmarshal(data, &name); err != nil {
		return err
	}
	parsed, err := ParsePortState(name)
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}
