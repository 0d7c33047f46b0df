package protocol

import "errors"

// Per-target read errors. They are recorded in the port result and never
// abort a scan.
var (
	// ErrReadTimeout is returned when no data arrived before the read
	// deadline.
	ErrReadTimeout = errors.New("read timeout")

	// ErrReadError is returned for any other read or write failure.
	ErrReadError = errors.New("read error")
)
