package assess

import (
	"fmt"

	"github.com/nao1215/bannerscan/internal/model"
)

// Finding types raised by the built-in checks.
const (
	FindingMissingXFrameOptions       = "http_missing_x_frame_options"
	FindingMissingXContentTypeOptions = "http_missing_x_content_type_options"
	FindingMissingXXSSProtection      = "http_missing_x_xss_protection"
	FindingMissingHSTS                = "http_missing_hsts"
	FindingMissingCSP                 = "http_missing_csp"
	FindingCSPUnsafeInline            = "http_csp_unsafe_inline"
	FindingCSPUnsafeEval              = "http_csp_unsafe_eval"
	FindingCookieNoHTTPOnly           = "http_cookie_no_httponly"
	FindingServerVersion              = "http_server_version"
	FindingXPoweredBy                 = "http_x_powered_by"
	FindingDefaultPage                = "http_default_page"
	FindingNoHTTPResponse             = "http_no_response"
	FindingFTPPlaintext               = "ftp_plaintext"
	FindingSMTPRelay                  = "smtp_relay"
	FindingSSHService                 = "ssh_service"
	FindingTelnetPlaintext            = "telnet_plaintext"
	FindingRDPExposed                 = "rdp_exposed"
	FindingUnassessedService          = "unassessed_service"
)

// findingCatalog maps finding types to their metadata, so every check rates
// the same issue the same way.
var findingCatalog = map[string]model.FindingInfo{
	// CRITICAL
	FindingTelnetPlaintext: {
		Title:           "Telnet Service Detected",
		Description:     "Telnet transmits data, including credentials, in plain text, making it vulnerable to sniffing.",
		Severity:        model.SeverityCritical,
		Remediation:     "Disable Telnet and use SSH instead.",
		Recommendations: []string{"Replace Telnet with SSH for secure remote access"},
	},

	// HIGH
	FindingFTPPlaintext: {
		Title:           "Plaintext FTP Service",
		Description:     "FTP transmits credentials and data in plain text, making it vulnerable to sniffing.",
		Severity:        model.SeverityHigh,
		Remediation:     "Use SFTP or FTPS instead of plain FTP.",
		Recommendations: []string{"Replace FTP with SFTP for secure file transfer"},
	},
	FindingRDPExposed: {
		Title:       "RDP Service Detected",
		Description: "Remote Desktop is reachable and is a common target of brute force attacks.",
		Severity:    model.SeverityHigh,
		Remediation: "Enable Network Level Authentication and enforce strong passwords.",
		Recommendations: []string{
			"Enable NLA and use strong authentication for RDP",
			"Consider using a VPN for RDP access",
		},
	},

	// MEDIUM
	FindingMissingXFrameOptions: {
		Title:           "Missing X-Frame-Options Header",
		Description:     "Without X-Frame-Options the pages can be framed by other sites, enabling clickjacking.",
		Severity:        model.SeverityMedium,
		Remediation:     "Add X-Frame-Options: DENY or SAMEORIGIN.",
		Recommendations: []string{"Add X-Frame-Options: DENY"},
	},
	FindingMissingXContentTypeOptions: {
		Title:           "Missing X-Content-Type-Options Header",
		Description:     "Without X-Content-Type-Options browsers may MIME-sniff responses into executable content.",
		Severity:        model.SeverityMedium,
		Remediation:     "Add X-Content-Type-Options: nosniff.",
		Recommendations: []string{"Add X-Content-Type-Options: nosniff"},
	},
	FindingMissingXXSSProtection: {
		Title:           "Missing X-XSS-Protection Header",
		Description:     "No X-XSS-Protection header was sent, leaving legacy browser XSS filtering at its default.",
		Severity:        model.SeverityMedium,
		Remediation:     "Add X-XSS-Protection: 1; mode=block, or rely on a strict Content-Security-Policy.",
		Recommendations: []string{"Add X-XSS-Protection: 1; mode=block"},
	},
	FindingMissingHSTS: {
		Title:           "Missing Strict-Transport-Security Header",
		Description:     "Without HSTS, clients may be downgraded to unencrypted HTTP.",
		Severity:        model.SeverityMedium,
		Remediation:     "Serve the site over HTTPS and add a Strict-Transport-Security header.",
		Recommendations: []string{"Add Strict-Transport-Security header"},
	},
	FindingMissingCSP: {
		Title:           "Missing Content Security Policy",
		Description:     "No Content-Security-Policy header was found. CSP limits the damage of XSS and unauthorized resource loading.",
		Severity:        model.SeverityMedium,
		Remediation:     "Add a Content-Security-Policy header that allows only the required sources.",
		Recommendations: []string{"Add Content-Security-Policy header"},
	},
	FindingCSPUnsafeInline: {
		Title:       "CSP Allows Unsafe Inline Scripts",
		Description: "The Content-Security-Policy allows 'unsafe-inline' scripts, which weakens XSS protection.",
		Severity:    model.SeverityMedium,
		Remediation: "Remove 'unsafe-inline' and use nonces or hashes for inline scripts.",
	},
	FindingCSPUnsafeEval: {
		Title:       "CSP Allows Unsafe Eval",
		Description: "The Content-Security-Policy allows 'unsafe-eval', which can be exploited for code injection.",
		Severity:    model.SeverityMedium,
		Remediation: "Remove 'unsafe-eval' from the policy.",
	},
	FindingCookieNoHTTPOnly: {
		Title:       "Cookie Missing HttpOnly Flag",
		Description: "A cookie is set without the HttpOnly flag, making it readable by scripts and exposed to XSS.",
		Severity:    model.SeverityMedium,
		Remediation: "Set the HttpOnly attribute on every session cookie.",
	},
	FindingServerVersion: {
		Title:           "Server Version Disclosure",
		Description:     "The Server header discloses the software version, which helps attackers pick exploits.",
		Severity:        model.SeverityMedium,
		Remediation:     "Configure the server to hide version information in headers.",
		Recommendations: []string{"Hide software versions in service banners"},
	},
	FindingXPoweredBy: {
		Title:       "X-Powered-By Header Present",
		Description: "The X-Powered-By header reveals the technology stack.",
		Severity:    model.SeverityMedium,
		Remediation: "Remove or suppress the X-Powered-By header.",
	},
	FindingDefaultPage: {
		Title:       "Default Page Accessible",
		Description: "The root page answers 200 OK without authentication and may reveal system information.",
		Severity:    model.SeverityMedium,
		Remediation: "Remove or secure default pages.",
	},
	FindingSMTPRelay: {
		Title:           "SMTP Service Detected",
		Description:     "The SMTP service may be usable as an open relay.",
		Severity:        model.SeverityMedium,
		Remediation:     "Configure SMTP to prevent open relay.",
		Recommendations: []string{"Configure SMTP authentication and relay restrictions"},
	},
	FindingUnassessedService: {
		Title:           "Unassessed Service",
		Description:     "A service is listening that no specific check covers.",
		Severity:        model.SeverityMedium,
		Remediation:     "Identify the service and assess whether it needs to be reachable.",
		Recommendations: []string{"Document and assess all running services"},
	},

	// LOW
	FindingSSHService: {
		Title:       "SSH Service Detected",
		Description: "An SSH service is running. Check it for weak configuration.",
		Severity:    model.SeverityLow,
		Remediation: "Ensure SSH is configured with strong authentication.",
		Recommendations: []string{
			"Disable root login and use key-based authentication",
			"Change default SSH port to reduce automated attacks",
		},
	},
	FindingNoHTTPResponse: {
		Title:       "Web Service Did Not Respond",
		Description: "The port is registered for HTTP but no response head was captured.",
		Severity:    model.SeverityLow,
		Remediation: "Check the service configuration.",
	},
}

// GetFindingInfo returns the metadata of a finding type.
// Unknown types are rated medium and point at manual review.
func GetFindingInfo(findingType string) model.FindingInfo {
	if info, ok := findingCatalog[findingType]; ok {
		return info
	}
	return model.FindingInfo{
		Title:       findingType,
		Description: "Unknown finding type. Review manually.",
		Severity:    model.SeverityMedium,
		Remediation: "Investigate the finding and assess the risk.",
	}
}

// newFinding builds a finding of the given type with value as evidence.
func newFinding(findingType, value string) model.Finding {
	info := GetFindingInfo(findingType)
	return model.Finding{
		Type:        findingType,
		Title:       info.Title,
		Description: info.Description,
		Severity:    info.Severity,
		Remediation: info.Remediation,
		Value:       value,
	}
}

// newServiceFinding builds a finding whose title names the service, for
// services no specific check covers.
func newServiceFinding(service string, port uint16) model.Finding {
	f := newFinding(FindingUnassessedService, service)
	f.Title = service + " Service Detected"
	f.Description = fmt.Sprintf("%s service running on port %d. No specific check covers it.", service, port)
	return f
}
