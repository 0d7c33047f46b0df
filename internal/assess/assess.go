package assess

import (
	"log/slog"
	"strings"

	"github.com/nao1215/bannerscan/internal/model"
)

// Service labels the checks are selected by.
const (
	ServiceHTTP    = "HTTP"
	ServiceFTP     = "FTP"
	ServiceSMTP    = "SMTP"
	ServiceSSH     = "SSH"
	ServiceTelnet  = "TELNET"
	ServiceRDP     = "RDP"
	ServiceUnknown = "UNKNOWN"
)

// wellKnownLabels maps conventional port names to service labels.
var wellKnownLabels = map[string]string{
	"http":          ServiceHTTP,
	"http-alt":      ServiceHTTP,
	"http-proxy":    ServiceHTTP,
	"www":           ServiceHTTP,
	"ftp":           ServiceFTP,
	"smtp":          ServiceSMTP,
	"submission":    ServiceSMTP,
	"ssh":           ServiceSSH,
	"telnet":        ServiceTelnet,
	"ms-wbt-server": ServiceRDP,
}

// Check raises findings for the services it applies to.
type Check interface {
	// Name returns the check's name for logging purposes.
	Name() string

	// Applies reports whether the check covers a service label.
	Applies(service string) bool

	// Run returns the findings for an open port.
	Run(res model.PortResult) []model.Finding
}

// Assessor rates the risk of open ports from what the scan captured.
// It sends nothing on the network. An Assessor is safe for concurrent use.
type Assessor struct {
	checks []Check
	logger *slog.Logger
}

// Option configures an Assessor.
type Option func(*Assessor)

// WithChecks replaces the built-in checks.
func WithChecks(checks ...Check) Option {
	return func(a *Assessor) {
		a.checks = checks
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(a *Assessor) {
		a.logger = logger
	}
}

// NewAssessor creates an Assessor with the built-in checks.
func NewAssessor(opts ...Option) *Assessor {
	a := &Assessor{checks: defaultChecks()}
	for _, opt := range opts {
		opt(a)
	}
	if a.logger == nil {
		a.logger = slog.Default()
	}
	return a
}

// Assess rates an open port. It returns nil for ports that are not open.
//
// Every check that applies to the port's service label runs; a port no check
// covers gets a single unassessed-service finding. The risk is the highest
// finding severity.
func (a *Assessor) Assess(res model.PortResult) *model.Assessment {
	if !res.IsOpen() {
		return nil
	}

	service := ServiceLabel(res)
	findings := make([]model.Finding, 0)
	covered := false
	for _, check := range a.checks {
		if !check.Applies(service) {
			continue
		}
		covered = true
		findings = append(findings, check.Run(res)...)
	}
	if !covered {
		findings = append(findings, newServiceFinding(service, res.Port()))
	}

	assessment := &model.Assessment{
		Service:         service,
		Risk:            model.MaxSeverity(findings),
		Findings:        findings,
		Recommendations: recommendations(findings),
		SecurityHeaders: presentSecurityHeaders(res),
	}

	a.logger.Debug("port assessed",
		"port", res.Port(),
		"service", service,
		"risk", assessment.Risk.String(),
		"findings", len(findings),
	)
	return assessment
}

// ServiceLabel names the service the checks are selected by. The banner
// classification wins; SSH and Telnet are recognized from the banner text;
// otherwise the port's conventional name decides.
func ServiceLabel(res model.PortResult) string {
	if res.Service != nil {
		switch res.Service.Kind {
		case model.ServiceHTTP:
			return ServiceHTTP
		case model.ServiceFTP:
			return ServiceFTP
		case model.ServiceSMTP:
			return ServiceSMTP
		}
	}

	banner := strings.TrimSpace(res.Banner)
	switch {
	case strings.HasPrefix(banner, "SSH-"):
		return ServiceSSH
	case strings.Contains(strings.ToLower(banner), "telnet"):
		return ServiceTelnet
	}

	name := strings.ToLower(res.WellKnown)
	if label, ok := wellKnownLabels[name]; ok {
		return label
	}
	if name != "" {
		return strings.ToUpper(name)
	}
	return ServiceUnknown
}

// recommendations collects the distinct recommendations of findings, in
// finding order.
func recommendations(findings []model.Finding) []string {
	seen := make(map[string]struct{})
	var recs []string
	for _, f := range findings {
		for _, rec := range GetFindingInfo(f.Type).Recommendations {
			if _, dup := seen[rec]; dup {
				continue
			}
			seen[rec] = struct{}{}
			recs = append(recs, rec)
		}
	}
	return recs
}

// evidence returns the first line of the banner, if any.
func evidence(res model.PortResult) string {
	line, _, _ := strings.Cut(res.Banner, "\n")
	return strings.TrimSpace(line)
}
