package model

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Severity is the risk level of an assessment finding. The risk of a whole
// port is the highest severity among its findings.
type Severity int

const (
	// SeverityLow indicates minor issues with limited impact.
	// Examples: an SSH service, a web server that did not answer.
	SeverityLow Severity = iota

	// SeverityMedium indicates issues that warrant attention.
	// Examples: missing HTTP security headers, an SMTP relay candidate.
	SeverityMedium

	// SeverityHigh indicates serious exposure.
	// Examples: plaintext FTP, RDP reachable from the scanning host.
	SeverityHigh

	// SeverityCritical indicates exposure that should be removed at once.
	// Example: Telnet.
	SeverityCritical
)

// Severities lists every severity from lowest to highest.
var Severities = []Severity{SeverityLow, SeverityMedium, SeverityHigh, SeverityCritical}

// String returns the upper-case name of the severity.
func (s Severity) String() string {
	switch s {
	case SeverityLow:
		return "LOW"
	case SeverityMedium:
		return "MEDIUM"
	case SeverityHigh:
		return "HIGH"
	case SeverityCritical:
		return "CRITICAL"
	default:
		return "UNKNOWN"
	}
}

// ParseSeverity converts a severity name back into a Severity.
// Matching is case-insensitive.
func ParseSeverity(s string) (Severity, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "LOW":
		return SeverityLow, nil
	case "MEDIUM":
		return SeverityMedium, nil
	case "HIGH":
		return SeverityHigh, nil
	case "CRITICAL":
		return SeverityCritical, nil
	default:
		return 0, fmt.Errorf("unknown severity %q", s)
	}
}

// MarshalJSON encodes the severity as its name.
func (s Severity) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.String())
}

// UnmarshalJSON decodes a severity name produced by MarshalJSON.
func (s *Severity) UnmarshalJSON(data []byte) error {
	var name string
	if err := json.Unmarshal(data, &name); err != nil {
		return err
	}
	parsed, err := ParseSeverity(name)
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}

// FindingInfo contains the fixed metadata of a finding type.
type FindingInfo struct {
	Title           string
	Description     string
	Severity        Severity
	Remediation     string
	Recommendations []string
}

// Finding is one issue raised by the assessment of an open port.
type Finding struct {
	// Type identifies the rule that raised the finding, e.g. "ftp_plaintext".
	Type string `json:"type"`

	// Title is a short human-readable name.
	Title string `json:"title"`

	// Description explains the issue.
	Description string `json:"description"`

	// Severity is the risk level.
	Severity Severity `json:"severity"`

	// Remediation says how to fix it.
	Remediation string `json:"remediation"`

	// Value is the evidence, such as a header value. Empty when the
	// finding is about something missing.
	Value string `json:"value,omitempty"`
}

// MaxSeverity returns the highest severity among findings, SeverityLow when
// there are none.
func MaxSeverity(findings []Finding) Severity {
	highest := SeverityLow
	for _, f := range findings {
		if f.Severity > highest {
			highest = f.Severity
		}
	}
	return highest
}
