package config

import (
	"slices"
	"strings"
	"time"
)

// HostConfig holds settings that may differ per target host.
// Zero values mean "not set".
type HostConfig struct {
	// Ports is the default port expression when --ports is not given.
	Ports string `yaml:"ports,omitempty"`

	// ConnectTimeout bounds each TCP connect, e.g. "500ms".
	ConnectTimeout time.Duration `yaml:"connect_timeout,omitempty"`

	// ReadTimeout bounds each banner read, e.g. "2s".
	ReadTimeout time.Duration `yaml:"read_timeout,omitempty"`

	// Concurrency is the maximum number of ports probed at once.
	Concurrency int `yaml:"concurrency,omitempty"`

	// HTTPPorts replaces the set of ports probed as HTTP immediately.
	HTTPPorts []uint16 `yaml:"http_ports,omitempty"`

	// Proxy is a SOCKS5 proxy for this host.
	Proxy string `yaml:"proxy,omitempty"`

	// FollowUp enables the HELP/EHLO capability query.
	FollowUp *bool `yaml:"follow_up,omitempty"`

	// HeloName is announced in EHLO.
	HeloName string `yaml:"helo_name,omitempty"`

	// Assess enables the risk assessment of open ports.
	Assess *bool `yaml:"assess,omitempty"`
}

// File represents the structure of the .bannerscan configuration file.
type File struct {
	// Defaults apply to every host.
	Defaults HostConfig `yaml:"defaults,omitempty"`

	// Hosts maps a host, as given to --host, to its overrides.
	Hosts map[string]HostConfig `yaml:"hosts,omitempty"`
}

// HostConfig returns the settings for host: the defaults overlaid with the
// host's own entry. Host names match case-insensitively.
func (f *File) HostConfig(host string) HostConfig {
	result := f.Defaults
	result.HTTPPorts = slices.Clone(result.HTTPPorts)

	override, ok := f.lookup(host)
	if !ok {
		return result
	}

	if override.Ports != "" {
		result.Ports = override.Ports
	}
	if override.ConnectTimeout > 0 {
		result.ConnectTimeout = override.ConnectTimeout
	}
	if override.ReadTimeout > 0 {
		result.ReadTimeout = override.ReadTimeout
	}
	if override.Concurrency > 0 {
		result.Concurrency = override.Concurrency
	}
	if len(override.HTTPPorts) > 0 {
		result.HTTPPorts = slices.Clone(override.HTTPPorts)
	}
	if override.Proxy != "" {
		result.Proxy = override.Proxy
	}
	if override.FollowUp != nil {
		result.FollowUp = override.FollowUp
	}
	if override.HeloName != "" {
		result.HeloName = override.HeloName
	}
	if override.Assess != nil {
		result.Assess = override.Assess
	}
	return result
}

func (f *File) lookup(host string) (HostConfig, bool) {
	host = strings.TrimSpace(host)
	if hc, ok := f.Hosts[host]; ok {
		return hc, true
	}
	for name, hc := range f.Hosts {
		if strings.EqualFold(name, host) {
			return hc, true
		}
	}
	return HostConfig{}, false
}
