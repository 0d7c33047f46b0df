package report

import (
	"encoding/json"
	"io"

	"github.com/nao1215/bannerscan/internal/model"
)

// JSONWriter outputs reports in JSON format.
// This format is designed for tool integration and programmatic processing.
type JSONWriter struct {
	baseWriter

	// indent enables pretty-printed JSON output.
	// When false, output is compact (no extra whitespace).
	indent bool

	// indentPrefix is the prefix for each line in indented output.
	indentPrefix string

	// indentString is the indentation string (typically "  " or "\t").
	indentString string

	// version is stamped into the output wrapper.
	version string
}

// JSONWriterOption configures a JSONWriter.
type JSONWriterOption func(*JSONWriter)

// WithIndent enables pretty-printed JSON output.
// The prefix is prepended to each line, and indent is used for each level.
func WithIndent(prefix, indent string) JSONWriterOption {
	return func(w *JSONWriter) {
		w.indent = true
		w.indentPrefix = prefix
		w.indentString = indent
	}
}

// WithPrettyPrint enables pretty-printed JSON with default indentation.
// This is a convenience wrapper for WithIndent("", "  ").
func WithPrettyPrint() JSONWriterOption {
	return WithIndent("", "  ")
}

// WithVersion records the bannerscan version in the output.
func WithVersion(version string) JSONWriterOption {
	return func(w *JSONWriter) {
		w.version = version
	}
}

// NewJSONWriter creates a JSONWriter that outputs to the given writer.
func NewJSONWriter(output io.Writer, opts ...JSONWriterOption) *JSONWriter {
	w := &JSONWriter{
		baseWriter: newBaseWriter(output),
	}

	for _, opt := range opts {
		opt(w)
	}

	return w
}

// Write outputs the report wrapped with version and summary.
func (w *JSONWriter) Write(report *model.ScanReport) (int, error) {
	return w.writeJSON(NewJSONReport(report, w.version))
}

// writeJSON marshals the given value to JSON and writes it to the output.
func (w *JSONWriter) writeJSON(v any) (int, error) {
	var data []byte
	var err error

	if w.indent {
		data, err = json.MarshalIndent(v, w.indentPrefix, w.indentString)
	} else {
		data, err = json.Marshal(v)
	}

	if err != nil {
		return 0, err
	}

	// Add trailing newline for better terminal output
	data = append(data, '\n')

	return w.output.Write(data)
}

// JSONReport wraps a scan report with output metadata.
type JSONReport struct {
	// Version is the bannerscan version that generated this report.
	Version string `json:"version,omitempty"`

	// Summary gives counts for quick access.
	Summary Summary `json:"summary"`

	// Report is the full scan report.
	Report *model.ScanReport `json:"report"`
}

// Summary condenses a report to counts and open port numbers.
type Summary struct {
	Open      int      `json:"open"`
	Closed    int      `json:"closed"`
	Timeout   int      `json:"timeout"`
	Error     int      `json:"error"`
	OpenPorts []uint16 `json:"open_ports"`
	Partial   bool     `json:"partial"`

	// Risk counts assessed ports per risk level, keyed by level name.
	// Absent when the scan ran without assessment.
	Risk map[string]int `json:"risk,omitempty"`
}

// NewSummary summarizes report.
func NewSummary(report *model.ScanReport) Summary {
	counts := report.CountByState()
	summary := Summary{
		Open:      counts[model.StateOpen],
		Closed:    counts[model.StateClosed],
		Timeout:   counts[model.StateTimeout],
		Error:     counts[model.StateError],
		OpenPorts: report.OpenPortNumbers(),
		Partial:   report.Partial,
	}
	if len(report.Assessed()) > 0 {
		summary.Risk = make(map[string]int, len(model.Severities))
		for s, n := range report.CountByRisk() {
			summary.Risk[s.String()] = n
		}
	}
	return summary
}

// NewJSONReport creates a JSONReport wrapper with version information.
func NewJSONReport(report *model.ScanReport, version string) *JSONReport {
	return &JSONReport{
		Version: version,
		Summary: NewSummary(report),
		Report:  report,
	}
}
