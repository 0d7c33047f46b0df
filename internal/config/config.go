package config

import (
	"fmt"
	"net"
	"net/url"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/adrg/xdg"
	"github.com/nao1215/bannerscan/internal/pipeline"
	"github.com/nao1215/bannerscan/internal/probe"
	"github.com/nao1215/bannerscan/internal/protocol"
)

// Default configuration values.
const (
	// DefaultConnectTimeout keeps a full 1-65535 sweep of a filtered host
	// within a few minutes at the default concurrency.
	DefaultConnectTimeout = probe.DefaultConnectTimeout

	// DefaultReadTimeout is long enough for slow SMTP greetings, which are
	// often delayed on purpose.
	DefaultReadTimeout = protocol.DefaultReadTimeout

	// DefaultConcurrency bounds sockets and file descriptors in use.
	DefaultConcurrency = pipeline.DefaultConcurrency

	// MaxConcurrency is the largest accepted concurrency.
	MaxConcurrency = 10000

	// DefaultHeloName is announced in the SMTP EHLO follow-up.
	DefaultHeloName = protocol.DefaultHeloName

	// AppName is the application name used for XDG directory paths.
	AppName = "bannerscan"
)

// Config holds all configuration options for a scan.
// It is populated from defaults, then the configuration file, then flags.
type Config struct {
	// Host is the target host name or IP address.
	Host string

	// Ports is the port expression, "start-end" or a single port.
	Ports string

	// ConnectTimeout bounds each TCP connect.
	ConnectTimeout time.Duration

	// ReadTimeout bounds each banner read.
	ReadTimeout time.Duration

	// Concurrency is the maximum number of ports probed at once.
	Concurrency int

	// Verbose includes closed, timed out and failed ports in the report and
	// enables debug logging.
	Verbose bool

	// Proxy is an optional SOCKS5 proxy, "host:port" or
	// "socks5://[user:pass@]host:port".
	Proxy string

	// FollowUp sends HELP to FTP and EHLO to SMTP services after the
	// greeting and records the reply.
	FollowUp bool

	// HeloName is the name announced in EHLO.
	HeloName string

	// HTTPPorts receive a HEAD request immediately.
	HTTPPorts []uint16

	// JSONReport selects JSON output. Mutually exclusive with MarkdownReport.
	JSONReport bool

	// MarkdownReport selects Markdown output. Mutually exclusive with
	// JSONReport.
	MarkdownReport bool

	// ReportFile writes the report to this path instead of stdout.
	ReportFile string

	// Color enables colored text output.
	Color bool

	// Verify cross-checks open ports with nmap after the scan.
	Verify bool

	// Assess rates the risk of every open port from its banner and adds
	// the findings to the report.
	Assess bool

	// ConfigFilePath is the explicit configuration file, if any.
	ConfigFilePath string
}

// NewConfig creates a new Config with default values.
func NewConfig() *Config {
	return &Config{
		ConnectTimeout: DefaultConnectTimeout,
		ReadTimeout:    DefaultReadTimeout,
		Concurrency:    DefaultConcurrency,
		HeloName:       DefaultHeloName,
		HTTPPorts:      slices.Clone(protocol.DefaultHTTPPorts),
	}
}

// XDGConfigDir returns the XDG config directory for bannerscan.
// On Linux: ~/.config/bannerscan
func XDGConfigDir() string {
	return filepath.Join(xdg.ConfigHome, AppName)
}

// Validate checks if the configuration is valid and returns the first
// problem found. Port range syntax is checked later, by the scan itself.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.Host) == "" {
		return ErrNoHost
	}
	if strings.TrimSpace(c.Ports) == "" {
		return ErrNoPorts
	}
	if c.ConnectTimeout <= 0 {
		return ErrInvalidTimeout
	}
	if c.ReadTimeout <= 0 {
		return ErrInvalidReadTimeout
	}
	if c.Concurrency <= 0 || c.Concurrency > MaxConcurrency {
		return ErrInvalidConcurrency
	}
	if c.JSONReport && c.MarkdownReport {
		return ErrConflictingReportFormats
	}
	if slices.Contains(c.HTTPPorts, 0) {
		return ErrInvalidHTTPPort
	}
	if c.Proxy != "" {
		if _, err := ParseProxy(c.Proxy); err != nil {
			return err
		}
	}
	return nil
}

// ApplyHostConfig overlays the non-zero fields of hc onto c.
func (c *Config) ApplyHostConfig(hc HostConfig) {
	if hc.Ports != "" {
		c.Ports = hc.Ports
	}
	if hc.ConnectTimeout > 0 {
		c.ConnectTimeout = hc.ConnectTimeout
	}
	if hc.ReadTimeout > 0 {
		c.ReadTimeout = hc.ReadTimeout
	}
	if hc.Concurrency > 0 {
		c.Concurrency = hc.Concurrency
	}
	if len(hc.HTTPPorts) > 0 {
		c.HTTPPorts = slices.Clone(hc.HTTPPorts)
	}
	if hc.Proxy != "" {
		c.Proxy = hc.Proxy
	}
	if hc.FollowUp != nil {
		c.FollowUp = *hc.FollowUp
	}
	if hc.HeloName != "" {
		c.HeloName = hc.HeloName
	}
	if hc.Assess != nil {
		c.Assess = *hc.Assess
	}
}

// ProxySettings is a parsed proxy specification.
type ProxySettings struct {
	// Address is "host:port".
	Address string

	// Username and Password are optional SOCKS5 credentials.
	Username string
	Password string
}

// HasAuth reports whether credentials were given.
func (p ProxySettings) HasAuth() bool {
	return p.Username != "" || p.Password != ""
}

// ParseProxy parses "host:port" or "socks5://[user:pass@]host:port".
func ParseProxy(s string) (ProxySettings, error) {
	s = strings.TrimSpace(s)
	if !strings.Contains(s, "://") {
		if _, port, err := net.SplitHostPort(s); err != nil || port == "" {
			return ProxySettings{}, fmt.Errorf("%w: %q", ErrInvalidProxy, s)
		}
		return ProxySettings{Address: s}, nil
	}

	u, err := url.Parse(s)
	if err != nil || (u.Scheme != "socks5" && u.Scheme != "socks5h") || u.Port() == "" || u.Hostname() == "" {
		// The raw string may hold a password, so it is not echoed.
		return ProxySettings{}, ErrInvalidProxy
	}

	settings := ProxySettings{Address: u.Host}
	if u.User != nil {
		settings.Username = u.User.Username()
		settings.Password, _ = u.User.Password()
	}
	return settings, nil
}
