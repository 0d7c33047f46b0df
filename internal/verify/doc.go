// Package verify cross-checks a scan report against nmap.
//
// Compare is pure and works on port lists. Runner drives the nmap binary
// through github.com/Ullaakut/nmap/v3 and returns the open TCP ports it saw.
package verify
