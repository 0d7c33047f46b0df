package report

import (
	"fmt"
	"io"
	"slices"
	"strings"

	"github.com/nao1215/bannerscan/internal/model"
)

// SimpleWriter outputs human-readable text reports for terminal display:
// a header, the Render listing, and a per-state summary. Reports with
// assessed ports also get an assessment section.
type SimpleWriter struct {
	baseWriter

	// verbose lists every port and the follow-up capability replies.
	verbose bool

	// color colors port states.
	color bool
}

// SimpleWriterOption configures a SimpleWriter.
type SimpleWriterOption func(*SimpleWriter)

// WithVerboseOutput lists closed, timed out and failed ports as well.
func WithVerboseOutput(verbose bool) SimpleWriterOption {
	return func(w *SimpleWriter) {
		w.verbose = verbose
	}
}

// WithColorOutput enables ANSI colors for port states and risk levels.
func WithColorOutput(enabled bool) SimpleWriterOption {
	return func(w *SimpleWriter) {
		w.color = enabled
	}
}

// NewSimpleWriter creates a SimpleWriter that outputs to the given writer.
func NewSimpleWriter(output io.Writer, opts ...SimpleWriterOption) *SimpleWriter {
	w := &SimpleWriter{
		baseWriter: newBaseWriter(output),
	}

	for _, opt := range opts {
		opt(w)
	}

	return w
}

// Write outputs the report in human-readable format.
func (w *SimpleWriter) Write(report *model.ScanReport) (int, error) {
	var sb strings.Builder

	w.writeHeader(&sb, report)
	w.writePorts(&sb, report)
	if w.verbose {
		w.writeCapabilities(&sb, report)
	}
	if len(report.Assessed()) > 0 {
		w.writeAssessment(&sb, report)
	}
	w.writeSummary(&sb, report)
	w.writeFooter(&sb)

	return io.WriteString(w.output, sb.String())
}

// writeSection writes a section title between rules.
func writeSection(sb *strings.Builder, title string) {
	sb.WriteString(strings.Repeat("-", 70))
	sb.WriteString("\n")
	sb.WriteString(title)
	sb.WriteString("\n")
	sb.WriteString(strings.Repeat("-", 70))
	sb.WriteString("\n\n")
}

// writeHeader writes the report header with scan information.
func (w *SimpleWriter) writeHeader(sb *strings.Builder, report *model.ScanReport) {
	sb.WriteString("\n")
	sb.WriteString(strings.Repeat("=", 70))
	sb.WriteString("\n")
	sb.WriteString("                         BANNERSCAN REPORT\n")
	sb.WriteString(strings.Repeat("=", 70))
	sb.WriteString("\n\n")

	sb.WriteString(fmt.Sprintf("Host:       %s\n", report.Host))
	sb.WriteString(fmt.Sprintf("Ports:      %d-%d\n", report.StartPort, report.EndPort))
	sb.WriteString(fmt.Sprintf("Scan ID:    %s\n", report.ID))
	sb.WriteString(fmt.Sprintf("Started:    %s\n", report.StartedAt.Format("2006-01-02 15:04:05 MST")))
	sb.WriteString(fmt.Sprintf("Elapsed:    %.2fs\n", report.Elapsed.Seconds()))

	if report.Partial {
		sb.WriteString(fmt.Sprintf("Status:     INTERRUPTED (partial results, %d of %d ports)\n",
			report.Len(), report.Expected()))
	} else {
		sb.WriteString("Status:     Complete\n")
	}

	sb.WriteString("\n")
}

// writePorts writes the port listing.
func (w *SimpleWriter) writePorts(sb *strings.Builder, report *model.ScanReport) {
	writeSection(sb, "PORTS")

	lines := Render(report, WithVerbose(w.verbose), WithColor(w.color))
	if lines == "" {
		if w.verbose {
			sb.WriteString("  No ports scanned\n\n")
		} else {
			sb.WriteString("  No open ports found\n\n")
		}
		return
	}
	sb.WriteString(lines)
	sb.WriteString("\n")
}

// writeCapabilities writes the follow-up replies of open ports.
func (w *SimpleWriter) writeCapabilities(sb *strings.Builder, report *model.ScanReport) {
	var open []model.PortResult
	for _, res := range report.OpenPorts() {
		if len(res.Extra) > 0 {
			open = append(open, res)
		}
	}
	if len(open) == 0 {
		return
	}

	writeSection(sb, "CAPABILITIES")
	for _, res := range open {
		sb.WriteString(fmt.Sprintf("[%d/tcp]\n", res.Port()))
		for _, line := range res.Extra {
			sb.WriteString(fmt.Sprintf("  %s\n", line))
		}
	}
	sb.WriteString("\n")
}

// writeAssessment writes the risk counts, the findings of each assessed
// port and the recommendations gathered from all of them.
func (w *SimpleWriter) writeAssessment(sb *strings.Builder, report *model.ScanReport) {
	writeSection(sb, "ASSESSMENT")

	counts := report.CountByRisk()
	levels := make([]string, 0, len(model.Severities))
	for _, s := range slices.Backward(model.Severities) {
		levels = append(levels, fmt.Sprintf("%s: %d", w.risk(s), counts[s]))
	}
	sb.WriteString("  " + strings.Join(levels, "  ") + "\n\n")

	for _, res := range report.Assessed() {
		a := res.Assessment
		sb.WriteString(fmt.Sprintf("[%d/tcp] %s  risk %s\n", res.Port(), a.Service, w.risk(a.Risk)))
		if !a.HasFindings() {
			sb.WriteString("  No issues found\n")
		}
		for _, f := range a.Findings {
			sb.WriteString(fmt.Sprintf("  [%s] %s\n", w.risk(f.Severity), f.Title))
			if f.Value != "" {
				sb.WriteString(fmt.Sprintf("      Evidence: %s\n", truncate(f.Value, maxBannerWidth)))
			}
			sb.WriteString(fmt.Sprintf("      Fix: %s\n", f.Remediation))
		}
		sb.WriteString("\n")
	}

	if recs := report.Recommendations(); len(recs) > 0 {
		sb.WriteString("Recommendations:\n")
		for _, rec := range recs {
			sb.WriteString(fmt.Sprintf("  - %s\n", rec))
		}
		sb.WriteString("\n")
	}
}

// risk returns the severity name, colored when color is enabled.
func (w *SimpleWriter) risk(s model.Severity) string {
	if !w.color {
		return s.String()
	}
	return riskColor(s).Sprint(s.String())
}

// writeSummary writes the per-state counts.
func (w *SimpleWriter) writeSummary(sb *strings.Builder, report *model.ScanReport) {
	writeSection(sb, "SUMMARY")

	counts := report.CountByState()
	sb.WriteString(fmt.Sprintf("  OPEN:     %d\n", counts[model.StateOpen]))
	sb.WriteString(fmt.Sprintf("  CLOSED:   %d\n", counts[model.StateClosed]))
	sb.WriteString(fmt.Sprintf("  TIMEOUT:  %d\n", counts[model.StateTimeout]))
	sb.WriteString(fmt.Sprintf("  ERROR:    %d\n", counts[model.StateError]))
	sb.WriteString("\n")
	sb.WriteString(fmt.Sprintf("  TOTAL:    %d ports\n", report.Len()))
	sb.WriteString("\n")
}

// writeFooter writes the report footer.
func (w *SimpleWriter) writeFooter(sb *strings.Builder) {
	sb.WriteString(strings.Repeat("=", 70))
	sb.WriteString("\n")
	sb.WriteString("Report generated by bannerscan\n")
	sb.WriteString("https://github.com/nao1215/bannerscan\n")
	sb.WriteString(strings.Repeat("=", 70))
	sb.WriteString("\n")
}
