// Package target turns a host string and a port expression into the ordered
// set of (host, port) probe targets.
//
// Resolution is pure and synchronous: no DNS lookups or other network I/O
// happen here. Host names are resolved later by the connector.
package target
