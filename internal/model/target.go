package model

import (
	"net"
	"strconv"
)

// ScanTarget is a single (host, port) pair to probe.
// Values are immutable once constructed; pass them by value.
type ScanTarget struct {
	// Host is the host name or IP literal as given by the user.
	Host string `json:"host"`

	// Port is the TCP port number, 1..65535.
	Port uint16 `json:"port"`
}

// NewScanTarget creates a ScanTarget.
// No validation happens here; the target package is responsible for that.
func NewScanTarget(host string, port uint16) ScanTarget {
	return ScanTarget{Host: host, Port: port}
}

// Address returns the target in "host:port" form, bracketing IPv6 literals.
func (t ScanTarget) Address() string {
	return net.JoinHostPort(t.Host, strconv.Itoa(int(t.Port)))
}

// String implements fmt.Stringer.
func (t ScanTarget) String() string {
	return t.Address()
}
