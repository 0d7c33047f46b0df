package verify

import "errors"

var (
	// ErrNmapUnavailable is returned when the nmap binary cannot be found
	// or started.
	ErrNmapUnavailable = errors.New("nmap is not available")

	// ErrNmapFailed is returned when nmap ran but the scan failed.
	ErrNmapFailed = errors.New("nmap scan failed")
)
