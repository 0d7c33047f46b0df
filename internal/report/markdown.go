package report

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/nao1215/bannerscan/internal/model"
	"github.com/nao1215/markdown"
	"github.com/nao1215/markdown/mermaid/piechart"
)

// MarkdownWriter outputs reports in Markdown format.
// This format is designed for documentation and sharing.
type MarkdownWriter struct {
	baseWriter

	// verbose adds a table of ports that were not open.
	verbose bool
}

// MarkdownWriterOption configures a MarkdownWriter.
type MarkdownWriterOption func(*MarkdownWriter)

// WithMarkdownVerbose adds the closed, timed out and failed ports.
func WithMarkdownVerbose(verbose bool) MarkdownWriterOption {
	return func(w *MarkdownWriter) {
		w.verbose = verbose
	}
}

// NewMarkdownWriter creates a MarkdownWriter that outputs to the given writer.
func NewMarkdownWriter(output io.Writer, opts ...MarkdownWriterOption) *MarkdownWriter {
	w := &MarkdownWriter{
		baseWriter: newBaseWriter(output),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Write outputs the report in Markdown format.
func (w *MarkdownWriter) Write(report *model.ScanReport) (int, error) {
	md := markdown.NewMarkdown(w.output)

	w.writeHeader(md, report)
	w.writeSummary(md, report)
	w.writeOpenPorts(md, report)
	if len(report.Assessed()) > 0 {
		w.writeAssessment(md, report)
	}
	if w.verbose {
		w.writeOtherPorts(md, report)
	}
	w.writeBanners(md, report)
	w.writeFooter(md)

	return len(md.String()), md.Build()
}

// writeHeader writes the report header with scan information.
func (w *MarkdownWriter) writeHeader(md *markdown.Markdown, report *model.ScanReport) {
	md.H1("bannerscan Report")
	md.PlainText("")

	md.Table(markdown.TableSet{
		Header: []string{"Property", "Value"},
		Rows: [][]string{
			{"Host", "`" + report.Host + "`"},
			{"Ports", fmt.Sprintf("%d-%d", report.StartPort, report.EndPort)},
			{"Scan ID", "`" + report.ID + "`"},
			{"Started", report.StartedAt.Format("2006-01-02 15:04:05 MST")},
			{"Elapsed", fmt.Sprintf("%.2fs", report.Elapsed.Seconds())},
			{"Status", w.getStatusText(report)},
		},
	})
	md.PlainText("")
}

// getStatusText returns the status text based on report state.
func (w *MarkdownWriter) getStatusText(report *model.ScanReport) string {
	if report.Partial {
		return fmt.Sprintf("⚠️ Interrupted (%d of %d ports)", report.Len(), report.Expected())
	}
	return "✅ Complete"
}

// writeSummary writes the per-state table and chart.
func (w *MarkdownWriter) writeSummary(md *markdown.Markdown, report *model.ScanReport) {
	md.H2("Port States")
	md.PlainText("")

	counts := report.CountByState()
	md.Table(markdown.TableSet{
		Header: []string{"State", "Count"},
		Rows: [][]string{
			{"🟢 Open", strconv.Itoa(counts[model.StateOpen])},
			{"⚪ Closed", strconv.Itoa(counts[model.StateClosed])},
			{"🟡 Timeout", strconv.Itoa(counts[model.StateTimeout])},
			{"🔴 Error", strconv.Itoa(counts[model.StateError])},
			{"**Total**", "**" + strconv.Itoa(report.Len()) + "**"},
		},
	})
	md.PlainText("")

	if report.Len() > 0 {
		w.writePieChart(md, counts)
	}

	w.writeAlert(md, report, counts)
}

// writePieChart writes a mermaid pie chart for the state distribution.
func (w *MarkdownWriter) writePieChart(md *markdown.Markdown, counts map[model.PortState]int) {
	chart := piechart.NewPieChart(
		io.Discard,
		piechart.WithTitle("Port State Distribution"),
		piechart.WithShowData(true),
	)

	for _, state := range []model.PortState{
		model.StateOpen, model.StateClosed, model.StateTimeout, model.StateError,
	} {
		if counts[state] > 0 {
			chart.LabelAndIntValue(state.String(), uint64(counts[state]))
		}
	}

	md.PlainText("")
	md.CodeBlocks(markdown.SyntaxHighlightMermaid, chart.String())
	md.PlainText("")
}

// writeAlert writes an alert summarizing the outcome.
func (w *MarkdownWriter) writeAlert(md *markdown.Markdown, report *model.ScanReport, counts map[model.PortState]int) {
	switch {
	case report.Partial:
		md.Warningf("The scan was interrupted. Only %d of %d ports were completed.",
			report.Len(), report.Expected())
	case counts[model.StateError] > 0:
		md.Importantf("%d port(s) could not be probed.", counts[model.StateError])
	case counts[model.StateOpen] > 0:
		md.Note(fmt.Sprintf("%d open port(s) found.", counts[model.StateOpen]))
	default:
		md.Tip("No open ports found.")
	}
	md.PlainText("")
}

// writeOpenPorts writes a table of the open ports.
func (w *MarkdownWriter) writeOpenPorts(md *markdown.Markdown, report *model.ScanReport) {
	md.H2("Open Ports")
	md.PlainText("")

	open := report.OpenPorts()
	if len(open) == 0 {
		md.PlainText("No open ports found.")
		md.PlainText("")
		return
	}

	rows := make([][]string, len(open))
	for i, res := range open {
		service := model.UnknownService()
		if res.Service != nil {
			service = *res.Service
		}
		rows[i] = []string{
			strconv.Itoa(int(res.Port())),
			service.Kind.String(),
			orDash(service.Product),
			orDash(service.Version),
			orDash(escapeCell(truncate(service.Detail, 50))),
			orDash(res.WellKnown),
		}
	}

	md.Table(markdown.TableSet{
		Header: []string{"Port", "Service", "Product", "Version", "Detail", "Well-known"},
		Rows:   rows,
	})
	md.PlainText("")
}

// writeAssessment writes the risk table of assessed ports and the
// recommendations gathered from all of them.
func (w *MarkdownWriter) writeAssessment(md *markdown.Markdown, report *model.ScanReport) {
	md.H2("Security Assessment")
	md.PlainText("")

	assessed := report.Assessed()
	rows := make([][]string, len(assessed))
	for i, res := range assessed {
		a := res.Assessment
		findings := make([]string, len(a.Findings))
		for j, f := range a.Findings {
			findings[j] = escapeCell(f.Title)
		}
		recs := make([]string, len(a.Recommendations))
		for j, rec := range a.Recommendations {
			recs[j] = escapeCell(rec)
		}
		rows[i] = []string{
			strconv.Itoa(int(res.Port())),
			a.Service,
			riskBadge(a.Risk),
			orDash(strings.Join(findings, "<br>")),
			orDash(strings.Join(recs, "<br>")),
		}
	}
	md.Table(markdown.TableSet{
		Header: []string{"Port", "Service", "Risk", "Findings", "Recommendations"},
		Rows:   rows,
	})
	md.PlainText("")

	counts := report.CountByRisk()
	if n := counts[model.SeverityCritical] + counts[model.SeverityHigh]; n > 0 {
		md.Cautionf("%d port(s) rated HIGH or CRITICAL.", n)
		md.PlainText("")
	}

	if recs := report.Recommendations(); len(recs) > 0 {
		md.H2("General Recommendations")
		md.PlainText("")
		md.BulletList(recs...)
		md.PlainText("")
	}
}

// riskBadge prefixes a severity with a colored marker.
func riskBadge(s model.Severity) string {
	switch s {
	case model.SeverityCritical:
		return "🟣 CRITICAL"
	case model.SeverityHigh:
		return "🔴 HIGH"
	case model.SeverityMedium:
		return "🟠 MEDIUM"
	default:
		return "🟢 LOW"
	}
}

// writeOtherPorts writes a table of the ports that were not open.
func (w *MarkdownWriter) writeOtherPorts(md *markdown.Markdown, report *model.ScanReport) {
	var rows [][]string
	for _, res := range report.Results {
		if res.IsOpen() {
			continue
		}
		rows = append(rows, []string{
			strconv.Itoa(int(res.Port())),
			res.State.String(),
			orDash(escapeCell(truncate(res.Error, 60))),
		})
	}
	if len(rows) == 0 {
		return
	}

	md.H2("Other Ports")
	md.PlainText("")
	md.Table(markdown.TableSet{
		Header: []string{"Port", "State", "Reason"},
		Rows:   rows,
	})
	md.PlainText("")
}

// writeBanners writes each captured banner in a collapsible block.
func (w *MarkdownWriter) writeBanners(md *markdown.Markdown, report *model.ScanReport) {
	var open []model.PortResult
	for _, res := range report.OpenPorts() {
		if res.HasBanner() {
			open = append(open, res)
		}
	}
	if len(open) == 0 {
		return
	}

	md.H2("Banners")
	md.PlainText("")
	for _, res := range open {
		text := res.Banner
		if len(res.Extra) > 0 {
			text += "\n\n" + strings.Join(res.Extra, "\n")
		}
		md.Details(fmt.Sprintf("%d/tcp", res.Port()), "\n```\n"+text+"\n```\n")
	}
	md.PlainText("")
}

// writeFooter writes the report footer.
func (w *MarkdownWriter) writeFooter(md *markdown.Markdown) {
	md.HorizontalRule()
	md.PlainText("")
	md.PlainTextf("*Report generated by [bannerscan](https://github.com/nao1215/bannerscan)*")
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

// escapeCell keeps table cells on one row.
func escapeCell(s string) string {
	return strings.ReplaceAll(s, "|", `\|`)
}
