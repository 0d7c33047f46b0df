// Package main provides the entry point for the bannerscan CLI.
//
// bannerscan probes a range of TCP ports on one host, reads the banner
// each open service sends, and classifies HTTP, FTP and SMTP servers.
//
// Usage:
//
//	bannerscan scan --host <host> --ports <start>-<end>
//
// See --help for all available options.
package main

import "os"

// main is the entry point for bannerscan.
func main() {
	os.Exit(Execute())
}
