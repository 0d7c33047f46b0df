// Package pipeline drives a port scan.
//
// Each port is carried through a short pipeline of steps: connect, read the
// banner, classify. Steps record per-port failures in the PortResult instead
// of returning them, so a refused, silent or unreachable port never affects
// any other port.
//
// Coordinator fans the per-port pipelines out over a bounded number of
// goroutines using errgroup.SetLimit, collects the results into a
// pre-indexed slice and returns them sorted by port as a ScanReport.
// Cancelling the context stops dispatch, releases every in-flight socket and
// yields a partial report holding only the ports that completed.
package pipeline
