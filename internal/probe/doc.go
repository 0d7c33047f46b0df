// Package probe implements the connector: a bounded-time TCP connect to a
// single (host, port) that reports whether the port is open, closed, timed
// out, or failed for another reason.
//
// On an open outcome the live connection is handed to the caller, who then
// owns it. On every other outcome the connector guarantees no socket is left
// open.
//
// Host names are resolved once per host and cached, so scanning a large
// port range against one name costs a single DNS lookup. When a SOCKS5 proxy
// is configured, resolution is left to the proxy.
package probe
