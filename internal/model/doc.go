// Package model defines the core data structures used throughout bannerscan.
//
// This package contains the following main types:
//   - ScanTarget: A single (host, port) pair to probe
//   - PortState: The reachability outcome of a probe
//   - ServiceIdentity: The classifier's best guess at the listening service
//   - PortResult: Everything learned about one probed port
//   - Severity, Finding, Assessment: The optional risk rating of an open port
//   - ScanReport: The ordered, terminal artifact of a scan run
//
// The models live in their own package because the resolver, the connector,
// the coordinator and the report writers all share them.
//
// All types serialize to JSON for report output.
package model
