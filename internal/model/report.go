package model

import (
	"slices"
	"time"

	"github.com/google/uuid"
)

// ScanReport is the terminal artifact of a scan run: one PortResult per
// probed port, ordered by ascending port number.
//
// The coordinator builds the report and hands it over; renderers only read it.
type ScanReport struct {
	// ID uniquely identifies this scan run.
	ID string `json:"id"`

	// Host is the scanned host as given by the user.
	Host string `json:"host"`

	// StartPort and EndPort are the inclusive bounds of the scanned range.
	StartPort uint16 `json:"start_port"`
	EndPort   uint16 `json:"end_port"`

	// StartedAt is when probing began.
	StartedAt time.Time `json:"started_at"`

	// Elapsed is the wall-clock duration of the whole scan.
	Elapsed time.Duration `json:"elapsed"`

	// Partial is true when the scan was cancelled before every target
	// completed. Results then only cover the completed targets.
	Partial bool `json:"partial"`

	// Results holds one entry per completed target, sorted by port.
	Results []PortResult `json:"results"`
}

// NewScanReport creates an empty report for the given host and range.
func NewScanReport(host string, startPort, endPort uint16) *ScanReport {
	return &ScanReport{
		ID:        uuid.NewString(),
		Host:      host,
		StartPort: startPort,
		EndPort:   endPort,
		StartedAt: time.Now(),
		Results:   make([]PortResult, 0),
	}
}

// SetResults stores results sorted by ascending port.
// The input slice is copied, so callers may keep using it.
func (r *ScanReport) SetResults(results []PortResult) {
	sorted := slices.Clone(results)
	slices.SortStableFunc(sorted, func(a, b PortResult) int {
		return int(a.Target.Port) - int(b.Target.Port)
	})
	r.Results = sorted
}

// Len returns the number of results.
func (r *ScanReport) Len() int {
	return len(r.Results)
}

// Expected returns how many results a complete scan of the range produces.
func (r *ScanReport) Expected() int {
	if r.EndPort < r.StartPort {
		return 0
	}
	return int(r.EndPort) - int(r.StartPort) + 1
}

// OpenPorts returns the open results in port order.
func (r *ScanReport) OpenPorts() []PortResult {
	open := make([]PortResult, 0)
	for _, res := range r.Results {
		if res.IsOpen() {
			open = append(open, res)
		}
	}
	return open
}

// OpenPortNumbers returns the open port numbers in ascending order.
func (r *ScanReport) OpenPortNumbers() []uint16 {
	ports := make([]uint16, 0)
	for _, res := range r.Results {
		if res.IsOpen() {
			ports = append(ports, res.Target.Port)
		}
	}
	return ports
}

// CountByState tallies results per state. Every state is present in the
// returned map, with zero when no result has it.
func (r *ScanReport) CountByState() map[PortState]int {
	counts := map[PortState]int{
		StateOpen:    0,
		StateClosed:  0,
		StateTimeout: 0,
		StateError:   0,
	}
	for _, res := range r.Results {
		counts[res.State]++
	}
	return counts
}

// Result looks up the result for a port.
func (r *ScanReport) Result(port uint16) (PortResult, bool) {
	i, found := slices.BinarySearchFunc(r.Results, port, func(res PortResult, p uint16) int {
		return int(res.Target.Port) - int(p)
	})
	if !found {
		return PortResult{}, false
	}
	return r.Results[i], true
}

// Assessed returns the results that carry an assessment, in port order.
func (r *ScanReport) Assessed() []PortResult {
	assessed := make([]PortResult, 0)
	for _, res := range r.Results {
		if res.Assessment != nil {
			assessed = append(assessed, res)
		}
	}
	return assessed
}

// CountByRisk tallies assessed ports per risk level. Every severity is
// present in the returned map.
func (r *ScanReport) CountByRisk() map[Severity]int {
	counts := make(map[Severity]int, len(Severities))
	for _, s := range Severities {
		counts[s] = 0
	}
	for _, res := range r.Results {
		if res.Assessment != nil {
			counts[res.Assessment.Risk]++
		}
	}
	return counts
}

// Recommendations returns the distinct recommendations of all assessed
// ports, in order of first appearance.
func (r *ScanReport) Recommendations() []string {
	seen := make(map[string]struct{})
	recs := make([]string, 0)
	for _, res := range r.Results {
		if res.Assessment == nil {
			continue
		}
		for _, rec := range res.Assessment.Recommendations {
			if _, dup := seen[rec]; dup {
				continue
			}
			seen[rec] = struct{}{}
			recs = append(recs, rec)
		}
	}
	return recs
}
