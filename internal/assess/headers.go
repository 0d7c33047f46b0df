package assess

import (
	"net/http"
	"strings"

	"github.com/nao1215/bannerscan/internal/model"
	"github.com/nao1215/bannerscan/internal/protocol"
)

// securityHeaders are the response headers whose absence is a finding, in
// report order.
var securityHeaders = []struct {
	name        string
	findingType string
}{
	{"X-Frame-Options", FindingMissingXFrameOptions},
	{"X-Content-Type-Options", FindingMissingXContentTypeOptions},
	{"X-XSS-Protection", FindingMissingXXSSProtection},
	{"Strict-Transport-Security", FindingMissingHSTS},
	{"Content-Security-Policy", FindingMissingCSP},
}

// HeaderCheck inspects the response head captured from a web service.
//
// It checks for:
//   - missing security headers
//   - unsafe Content-Security-Policy directives
//   - cookies without HttpOnly
//   - software version disclosure in Server and X-Powered-By
//   - a root page served with 200 OK
type HeaderCheck struct{}

// NewHeaderCheck creates a new HeaderCheck.
func NewHeaderCheck() *HeaderCheck {
	return &HeaderCheck{}
}

// Name returns the check name.
func (c *HeaderCheck) Name() string {
	return "headers"
}

// Applies reports whether the check covers service.
func (c *HeaderCheck) Applies(service string) bool {
	return service == ServiceHTTP
}

// Run examines the captured response head of res.
func (c *HeaderCheck) Run(res model.PortResult) []model.Finding {
	if res.Service == nil || res.Service.Kind != model.ServiceHTTP {
		// Registered as HTTP, but nothing HTTP-shaped came back.
		return []model.Finding{newFinding(FindingNoHTTPResponse, "")}
	}

	headers := protocol.ResponseHeaders(res.Banner)

	findings := make([]model.Finding, 0)
	findings = append(findings, c.checkMissing(headers)...)
	findings = append(findings, c.checkCSP(headers)...)
	findings = append(findings, c.checkCookies(headers)...)
	findings = append(findings, c.checkDisclosure(headers)...)

	if protocol.StatusCode(res.Banner) == http.StatusOK {
		findings = append(findings, newFinding(FindingDefaultPage, "HEAD / returned 200"))
	}
	return findings
}

// presentSecurityHeaders returns the security headers found in the response
// head of res, keyed by canonical name. It returns nil when there are none.
func presentSecurityHeaders(res model.PortResult) map[string]string {
	if res.Service == nil || res.Service.Kind != model.ServiceHTTP {
		return nil
	}
	headers := protocol.ResponseHeaders(res.Banner)

	present := make(map[string]string)
	for _, h := range securityHeaders {
		if v := headers.Get(h.name); v != "" {
			present[h.name] = v
		}
	}
	if len(present) == 0 {
		return nil
	}
	return present
}

// checkMissing raises one finding per absent security header.
// A report-only CSP counts as present.
func (c *HeaderCheck) checkMissing(headers http.Header) []model.Finding {
	findings := make([]model.Finding, 0)
	for _, h := range securityHeaders {
		if headers.Get(h.name) != "" {
			continue
		}
		if h.name == "Content-Security-Policy" && headers.Get("Content-Security-Policy-Report-Only") != "" {
			continue
		}
		findings = append(findings, newFinding(h.findingType, ""))
	}
	return findings
}

// checkCSP detects weakening directives in an enforced policy.
func (c *HeaderCheck) checkCSP(headers http.Header) []model.Finding {
	findings := make([]model.Finding, 0)

	csp := headers.Get("Content-Security-Policy")
	if csp == "" {
		return findings
	}
	if strings.Contains(csp, "'unsafe-inline'") {
		findings = append(findings, newFinding(FindingCSPUnsafeInline, csp))
	}
	if strings.Contains(csp, "'unsafe-eval'") {
		findings = append(findings, newFinding(FindingCSPUnsafeEval, csp))
	}
	return findings
}

// checkCookies raises a finding for each cookie set without HttpOnly.
func (c *HeaderCheck) checkCookies(headers http.Header) []model.Finding {
	findings := make([]model.Finding, 0)
	for _, cookie := range headers.Values("Set-Cookie") {
		if !strings.Contains(strings.ToLower(cookie), "httponly") {
			findings = append(findings, newFinding(FindingCookieNoHTTPOnly, redactCookie(cookie)))
		}
	}
	return findings
}

// checkDisclosure detects version details in Server and X-Powered-By.
func (c *HeaderCheck) checkDisclosure(headers http.Header) []model.Finding {
	findings := make([]model.Finding, 0)
	if server := headers.Get("Server"); strings.ContainsAny(server, "0123456789") {
		findings = append(findings, newFinding(FindingServerVersion, server))
	}
	if powered := headers.Get("X-Powered-By"); powered != "" {
		findings = append(findings, newFinding(FindingXPoweredBy, powered))
	}
	return findings
}

// redactCookie keeps the cookie name and attributes but hides its value.
func redactCookie(cookie string) string {
	name, rest, ok := strings.Cut(cookie, "=")
	if !ok {
		return cookie
	}
	if _, attrs, hasAttrs := strings.Cut(rest, ";"); hasAttrs {
		return name + "=<redacted>;" + attrs
	}
	return name + "=<redacted>"
}
