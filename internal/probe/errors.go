package probe

import "errors"

// Per-target connect errors. They are recorded in the outcome and never
// abort a scan.
var (
	// ErrConnectTimeout is returned when the handshake did not complete
	// within the connect timeout. The port is closed or filtered.
	ErrConnectTimeout = errors.New("connect timeout")

	// ErrConnectRefused is returned when the peer actively refused the
	// connection (TCP RST).
	ErrConnectRefused = errors.New("connection refused")

	// ErrConnectError is returned for every other failure, such as DNS
	// resolution errors or an unreachable network.
	ErrConnectError = errors.New("connect error")

	// ErrNoAddress is returned when a host name resolved to no addresses.
	ErrNoAddress = errors.New("host resolved to no addresses")

	// ErrLookupTimeout is returned when name resolution did not finish
	// within the probe's share of the lookup timeout.
	ErrLookupTimeout = errors.New("host lookup timed out")
)
