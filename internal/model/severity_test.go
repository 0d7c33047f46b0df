package model

import (
	"encoding/json"
	"slices"
	"testing"
)

// TestSeverityString tests severity names and their round trip.
func TestSeverityString(t *testing.T) {
	t.Parallel()

	tests := []struct {
		severity Severity
		expected string
	}{
		{SeverityLow, "LOW"},
		{SeverityMedium, "MEDIUM"},
		{SeverityHigh, "HIGH"},
		{SeverityCritical, "CRITICAL"},
		{Severity(99), "UNKNOWN"},
	}

	for _, tt := range tests {
		t.Run(tt.expected, func(t *testing.T) {
			t.Parallel()
			if got := tt.severity.String(); got != tt.expected {
				t.Errorf("expected %q, got %q", tt.expected, got)
			}
		})
	}

	t.Run("parse is case-insensitive", func(t *testing.T) {
		t.Parallel()
		got, err := ParseSeverity(" high ")
		if err != nil || got != SeverityHigh {
			t.Errorf("expected HIGH, got %v (%v)", got, err)
		}
		if _, err := ParseSeverity("severe"); err == nil {
			t.Error("expected error for unknown name")
		}
	})

	t.Run("encodes as name in JSON", func(t *testing.T) {
		t.Parallel()
		data, err := json.Marshal(Finding{Type: "telnet_plaintext", Severity: SeverityCritical})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		var decoded Finding
		if err := json.Unmarshal(data, &decoded); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if decoded.Severity != SeverityCritical {
			t.Errorf("expected CRITICAL, got %s in %s", decoded.Severity, data)
		}
	})
}

// TestMaxSeverity tests the per-port risk rollup.
func TestMaxSeverity(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		in       []Severity
		expected Severity
	}{
		{name: "no findings is low", in: nil, expected: SeverityLow},
		{name: "single medium", in: []Severity{SeverityMedium}, expected: SeverityMedium},
		{name: "high beats medium", in: []Severity{SeverityMedium, SeverityHigh, SeverityLow}, expected: SeverityHigh},
		{name: "critical wins regardless of order", in: []Severity{SeverityCritical, SeverityHigh}, expected: SeverityCritical},
		{name: "all low", in: []Severity{SeverityLow, SeverityLow}, expected: SeverityLow},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			findings := make([]Finding, len(tt.in))
			for i, s := range tt.in {
				findings[i] = Finding{Severity: s}
			}
			if got := MaxSeverity(findings); got != tt.expected {
				t.Errorf("expected %s, got %s", tt.expected, got)
			}
		})
	}
}

// TestScanReportAssessments tests the assessment helpers of ScanReport.
func TestScanReportAssessments(t *testing.T) {
	t.Parallel()

	report := NewScanReport("127.0.0.1", 21, 25)
	report.SetResults([]PortResult{
		{
			Target: NewScanTarget("127.0.0.1", 25),
			State:  StateOpen,
			Assessment: &Assessment{
				Service:         "SMTP",
				Risk:            SeverityMedium,
				Recommendations: []string{"Restrict relaying", "Shared advice"},
			},
		},
		{Target: NewScanTarget("127.0.0.1", 22), State: StateClosed},
		{
			Target: NewScanTarget("127.0.0.1", 21),
			State:  StateOpen,
			Assessment: &Assessment{
				Service:         "FTP",
				Risk:            SeverityHigh,
				Recommendations: []string{"Use SFTP", "Shared advice"},
			},
		},
	})

	t.Run("assessed ports in port order", func(t *testing.T) {
		t.Parallel()
		assessed := report.Assessed()
		if len(assessed) != 2 || assessed[0].Port() != 21 || assessed[1].Port() != 25 {
			t.Errorf("unexpected assessed ports %+v", assessed)
		}
	})

	t.Run("counts by risk", func(t *testing.T) {
		t.Parallel()
		counts := report.CountByRisk()
		if len(counts) != len(Severities) {
			t.Errorf("expected every severity present, got %v", counts)
		}
		if counts[SeverityHigh] != 1 || counts[SeverityMedium] != 1 || counts[SeverityCritical] != 0 {
			t.Errorf("unexpected counts %v", counts)
		}
	})

	t.Run("recommendations are distinct", func(t *testing.T) {
		t.Parallel()
		want := []string{"Use SFTP", "Shared advice", "Restrict relaying"}
		if got := report.Recommendations(); !slices.Equal(got, want) {
			t.Errorf("expected %v, got %v", want, got)
		}
	})

	t.Run("nil assessment has no findings", func(t *testing.T) {
		t.Parallel()
		var a *Assessment
		if a.HasFindings() {
			t.Error("expected nil assessment to have no findings")
		}
	})
}
