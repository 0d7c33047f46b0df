package model

// Assessment is the risk rating of one open port.
type Assessment struct {
	// Service is the label the rules were chosen by, e.g. "HTTP" or
	// "TELNET". It may come from the banner or from the port's
	// conventional service name.
	Service string `json:"service"`

	// Risk is the highest severity among Findings.
	Risk Severity `json:"risk"`

	// Findings lists the issues raised, in rule order.
	Findings []Finding `json:"findings"`

	// Recommendations are the distinct follow-up actions for this port.
	Recommendations []string `json:"recommendations,omitempty"`

	// SecurityHeaders holds the security-relevant HTTP headers that were
	// present in the response, keyed by canonical header name.
	SecurityHeaders map[string]string `json:"security_headers,omitempty"`
}

// HasFindings reports whether any issue was raised.
func (a *Assessment) HasFindings() bool {
	return a != nil && len(a.Findings) > 0
}
