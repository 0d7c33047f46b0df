package model

import "time"

// PortResult is everything learned about one probed port.
//
// A PortResult is created by the scan coordinator once the connect, banner
// and classification passes for its target are complete, and is not modified
// afterwards. Banner, Service and Extra are only ever set when State is
// StateOpen.
type PortResult struct {
	// Target is the probed (host, port) pair.
	Target ScanTarget `json:"target"`

	// State is the reachability outcome.
	State PortState `json:"state"`

	// Banner is the text the service sent (or was induced to send) right
	// after the connection was established. Empty means none.
	Banner string `json:"banner,omitempty"`

	// Service is the classified identity. Every open port has one; it is
	// ServiceUnknown when no banner was captured.
	Service *ServiceIdentity `json:"service,omitempty"`

	// Extra holds capability lines returned by the optional follow-up probe
	// (FTP HELP, SMTP EHLO).
	Extra []string `json:"extra,omitempty"`

	// Assessment is the risk rating of an open port. It is nil unless the
	// scan ran with assessment enabled.
	Assessment *Assessment `json:"assessment,omitempty"`

	// WellKnown is the conventional service name registered for the port
	// number (e.g. "smtp" for 25). It is informational and never replaces
	// the banner-based classification.
	WellKnown string `json:"well_known,omitempty"`

	// Error carries a diagnostic message: the failure cause for StateError,
	// the refusal or timeout detail in verbose runs, or a banner read error
	// on an open port.
	Error string `json:"error,omitempty"`

	// Elapsed is the wall-clock time spent on this target.
	Elapsed time.Duration `json:"elapsed"`
}

// Port is a shorthand for r.Target.Port.
func (r PortResult) Port() uint16 {
	return r.Target.Port
}

// HasBanner reports whether a banner was captured.
func (r PortResult) HasBanner() bool {
	return r.Banner != ""
}

// IsOpen reports whether the port accepted a connection.
func (r PortResult) IsOpen() bool {
	return r.State == StateOpen
}
