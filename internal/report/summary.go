package report

import (
	"fmt"
	"io"
	"slices"
	"strconv"
	"strings"

	"github.com/nao1215/bannerscan/internal/model"
)

// SummaryWriter outputs a few lines of counts. It is what the terminal
// shows when the full report goes to a file.
type SummaryWriter struct {
	baseWriter
}

// NewSummaryWriter creates a SummaryWriter that outputs to the given writer.
func NewSummaryWriter(output io.Writer) *SummaryWriter {
	return &SummaryWriter{baseWriter: newBaseWriter(output)}
}

// Write outputs the summary, e.g.
//
//	127.0.0.1 ports 1-1024: complete, 2 open, 1022 closed, 0 timeout, 0 error
//	Open ports: 21, 25
//	Risk: CRITICAL 0, HIGH 1, MEDIUM 1, LOW 0
func (w *SummaryWriter) Write(report *model.ScanReport) (int, error) {
	var sb strings.Builder

	status := "complete"
	if report.Partial {
		status = fmt.Sprintf("interrupted after %d of %d ports", report.Len(), report.Expected())
	}
	counts := report.CountByState()
	sb.WriteString(fmt.Sprintf("%s ports %d-%d: %s, %d open, %d closed, %d timeout, %d error\n",
		report.Host, report.StartPort, report.EndPort, status,
		counts[model.StateOpen], counts[model.StateClosed],
		counts[model.StateTimeout], counts[model.StateError]))

	if open := report.OpenPortNumbers(); len(open) > 0 {
		ports := make([]string, len(open))
		for i, p := range open {
			ports[i] = strconv.Itoa(int(p))
		}
		sb.WriteString("Open ports: " + strings.Join(ports, ", ") + "\n")
	}

	if len(report.Assessed()) > 0 {
		risk := report.CountByRisk()
		levels := make([]string, 0, len(model.Severities))
		for _, s := range slices.Backward(model.Severities) {
			levels = append(levels, fmt.Sprintf("%s %d", s, risk[s]))
		}
		sb.WriteString("Risk: " + strings.Join(levels, ", ") + "\n")
	}

	return io.WriteString(w.output, sb.String())
}
