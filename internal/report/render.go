package report

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/fatih/color"
	"github.com/nao1215/bannerscan/internal/model"
)

// maxBannerWidth bounds the banner excerpt shown on a port line.
const maxBannerWidth = 60

// renderOptions controls Render.
type renderOptions struct {
	verbose bool
	color   bool
}

// RenderOption configures Render.
type RenderOption func(*renderOptions)

// WithVerbose includes closed, timed out and failed ports.
func WithVerbose(verbose bool) RenderOption {
	return func(o *renderOptions) {
		o.verbose = verbose
	}
}

// WithColor colors the state column with ANSI escapes.
func WithColor(enabled bool) RenderOption {
	return func(o *renderOptions) {
		o.color = enabled
	}
}

// Render formats report as one line per port result, in ascending port
// order. Only open ports are listed unless WithVerbose(true) is given.
// Render has no side effects.
func Render(report *model.ScanReport, opts ...RenderOption) string {
	o := renderOptions{}
	for _, opt := range opts {
		opt(&o)
	}
	if report == nil {
		return ""
	}

	var sb strings.Builder
	for _, res := range report.Results {
		if !res.IsOpen() && !o.verbose {
			continue
		}
		sb.WriteString(formatLine(res, o))
		sb.WriteString("\n")
	}
	return sb.String()
}

// formatLine renders a single result, e.g.
//
//	   21/tcp  open     ftp (Test FTP Server (vsFTPd 3.0.3) ready.)
//	   22/tcp  open     unknown "SSH-2.0-OpenSSH_9.6" (ssh)
//	   23/tcp  closed   (telnet)
func formatLine(res model.PortResult, o renderOptions) string {
	state := fmt.Sprintf("%-7s", res.State.String())
	if o.color {
		state = stateColor(res.State).Sprint(state)
	}

	parts := []string{fmt.Sprintf("%5d/tcp", res.Port()), state}

	if res.IsOpen() {
		service := model.UnknownService()
		if res.Service != nil {
			service = *res.Service
		}
		parts = append(parts, service.String())
		if !service.IsKnown() && res.HasBanner() {
			parts = append(parts, fmt.Sprintf("%q", truncate(firstLine(res.Banner), maxBannerWidth)))
		}
	}

	if res.WellKnown != "" && (res.Service == nil || !res.Service.IsKnown()) {
		parts = append(parts, "("+res.WellKnown+")")
	}
	if res.Error != "" && o.verbose {
		parts = append(parts, "- "+res.Error)
	}

	return strings.Join(parts, "  ")
}

// stateColor returns the color used for a state. Color is forced on because
// the caller already decided to colorize.
func stateColor(state model.PortState) *color.Color {
	var c *color.Color
	switch state {
	case model.StateOpen:
		c = color.New(color.FgGreen, color.Bold)
	case model.StateClosed:
		c = color.New(color.FgHiBlack)
	case model.StateTimeout:
		c = color.New(color.FgYellow)
	default:
		c = color.New(color.FgRed)
	}
	c.EnableColor()
	return c
}

// riskColor returns the color used for a severity.
func riskColor(s model.Severity) *color.Color {
	var c *color.Color
	switch s {
	case model.SeverityCritical:
		c = color.New(color.FgHiRed, color.Bold)
	case model.SeverityHigh:
		c = color.New(color.FgRed)
	case model.SeverityMedium:
		c = color.New(color.FgYellow)
	default:
		c = color.New(color.FgCyan)
	}
	c.EnableColor()
	return c
}

func firstLine(s string) string {
	if i := strings.IndexAny(s, "\r\n"); i >= 0 {
		return s[:i]
	}
	return s
}

// truncate shortens s to at most maxLen runes, marking the cut with "...".
func truncate(s string, maxLen int) string {
	if utf8.RuneCountInString(s) <= maxLen {
		return s
	}
	runes := []rune(s)
	if maxLen <= 3 {
		return string(runes[:maxLen])
	}
	return string(runes[:maxLen-3]) + "..."
}
