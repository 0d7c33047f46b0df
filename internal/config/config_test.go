package config

import (
	"errors"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"testing"
	"time"
)

// TestNewConfig verifies the documented defaults.
func TestNewConfig(t *testing.T) {
	t.Parallel()

	cfg := NewConfig()

	t.Run("default ConnectTimeout is 200ms", func(t *testing.T) {
		t.Parallel()
		if cfg.ConnectTimeout != 200*time.Millisecond {
			t.Errorf("expected ConnectTimeout to be 200ms, got %v", cfg.ConnectTimeout)
		}
	})

	t.Run("default ReadTimeout is 1s", func(t *testing.T) {
		t.Parallel()
		if cfg.ReadTimeout != time.Second {
			t.Errorf("expected ReadTimeout to be 1s, got %v", cfg.ReadTimeout)
		}
	})

	t.Run("default Concurrency is 100", func(t *testing.T) {
		t.Parallel()
		if cfg.Concurrency != 100 {
			t.Errorf("expected Concurrency to be 100, got %d", cfg.Concurrency)
		}
	})

	t.Run("default HTTPPorts include 80 and 8080", func(t *testing.T) {
		t.Parallel()
		if !slices.Contains(cfg.HTTPPorts, 80) || !slices.Contains(cfg.HTTPPorts, 8080) {
			t.Errorf("expected HTTPPorts to include 80 and 8080, got %v", cfg.HTTPPorts)
		}
	})

	t.Run("follow-up and proxy are off", func(t *testing.T) {
		t.Parallel()
		if cfg.FollowUp || cfg.Proxy != "" {
			t.Error("expected follow-up and proxy to be off by default")
		}
	})
}

// TestConfigValidate tests configuration validation.
func TestConfigValidate(t *testing.T) {
	t.Parallel()

	valid := func() *Config {
		cfg := NewConfig()
		cfg.Host = "scanme.example.test"
		cfg.Ports = "1-1024"
		return cfg
	}

	tests := []struct {
		name    string
		modify  func(*Config)
		wantErr error
	}{
		{name: "valid config", modify: func(*Config) {}, wantErr: nil},
		{name: "missing host", modify: func(c *Config) { c.Host = " " }, wantErr: ErrNoHost},
		{name: "missing ports", modify: func(c *Config) { c.Ports = "" }, wantErr: ErrNoPorts},
		{name: "zero timeout", modify: func(c *Config) { c.ConnectTimeout = 0 }, wantErr: ErrInvalidTimeout},
		{name: "negative read timeout", modify: func(c *Config) { c.ReadTimeout = -time.Second }, wantErr: ErrInvalidReadTimeout},
		{name: "zero concurrency", modify: func(c *Config) { c.Concurrency = 0 }, wantErr: ErrInvalidConcurrency},
		{name: "huge concurrency", modify: func(c *Config) { c.Concurrency = MaxConcurrency + 1 }, wantErr: ErrInvalidConcurrency},
		{name: "both report formats", modify: func(c *Config) { c.JSONReport, c.MarkdownReport = true, true }, wantErr: ErrConflictingReportFormats},
		{name: "http port zero", modify: func(c *Config) { c.HTTPPorts = []uint16{80, 0} }, wantErr: ErrInvalidHTTPPort},
		{name: "bad proxy", modify: func(c *Config) { c.Proxy = "nohostport" }, wantErr: ErrInvalidProxy},
		{name: "good proxy", modify: func(c *Config) { c.Proxy = "127.0.0.1:9050" }, wantErr: nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			cfg := valid()
			tt.modify(cfg)

			err := cfg.Validate()
			if tt.wantErr == nil {
				if err != nil {
					t.Errorf("unexpected error: %v", err)
				}
				return
			}
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("expected %v, got %v", tt.wantErr, err)
			}
		})
	}
}

// TestParseProxy tests proxy specification parsing.
func TestParseProxy(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		in       string
		want     ProxySettings
		wantErr  bool
		wantAuth bool
	}{
		{name: "host and port", in: "127.0.0.1:9050", want: ProxySettings{Address: "127.0.0.1:9050"}},
		{name: "socks5 URL", in: "socks5://proxy.example.test:1080", want: ProxySettings{Address: "proxy.example.test:1080"}},
		{
			name:     "socks5 URL with credentials",
			in:       "socks5://alice:hunter2@[::1]:1080",
			want:     ProxySettings{Address: "[::1]:1080", Username: "alice", Password: "hunter2"},
			wantAuth: true,
		},
		{name: "missing port", in: "proxy.example.test", wantErr: true},
		{name: "wrong scheme", in: "http://proxy.example.test:8080", wantErr: true},
		{name: "URL without port", in: "socks5://proxy.example.test", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got, err := ParseProxy(tt.in)
			if tt.wantErr {
				if !errors.Is(err, ErrInvalidProxy) {
					t.Errorf("expected ErrInvalidProxy, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Errorf("expected %+v, got %+v", tt.want, got)
			}
			if got.HasAuth() != tt.wantAuth {
				t.Errorf("expected HasAuth %v", tt.wantAuth)
			}
		})
	}

	t.Run("error does not echo credentials", func(t *testing.T) {
		t.Parallel()

		_, err := ParseProxy("ftp://alice:hunter2@h:1")
		if err == nil || strings.Contains(err.Error(), "hunter2") {
			t.Errorf("expected error without password, got %v", err)
		}
	})
}

// TestFileHostConfig tests merging of defaults and host overrides.
func TestFileHostConfig(t *testing.T) {
	t.Parallel()

	enabled := true
	f := &File{
		Defaults: HostConfig{
			ConnectTimeout: 300 * time.Millisecond,
			Concurrency:    50,
			HTTPPorts:      []uint16{80},
		},
		Hosts: map[string]HostConfig{
			"Mail.Example.Test": {
				ReadTimeout: 5 * time.Second,
				FollowUp:    &enabled,
				HTTPPorts:   []uint16{8080, 8443},
			},
		},
	}

	t.Run("unknown host gets defaults", func(t *testing.T) {
		t.Parallel()

		hc := f.HostConfig("other.example.test")
		if hc.ConnectTimeout != 300*time.Millisecond || hc.Concurrency != 50 {
			t.Errorf("expected defaults, got %+v", hc)
		}
		if hc.FollowUp != nil {
			t.Error("expected follow-up unset")
		}
	})

	t.Run("host entry overrides defaults", func(t *testing.T) {
		t.Parallel()

		hc := f.HostConfig("mail.example.test")
		if hc.ReadTimeout != 5*time.Second {
			t.Errorf("expected read timeout 5s, got %v", hc.ReadTimeout)
		}
		if hc.ConnectTimeout != 300*time.Millisecond {
			t.Errorf("expected default connect timeout kept, got %v", hc.ConnectTimeout)
		}
		if hc.FollowUp == nil || !*hc.FollowUp {
			t.Error("expected follow-up enabled")
		}
		if !slices.Equal(hc.HTTPPorts, []uint16{8080, 8443}) {
			t.Errorf("expected host HTTP ports, got %v", hc.HTTPPorts)
		}
	})

	t.Run("merging does not alias defaults", func(t *testing.T) {
		t.Parallel()

		hc := f.HostConfig("other.example.test")
		hc.HTTPPorts[0] = 1
		if f.Defaults.HTTPPorts[0] != 80 {
			t.Error("defaults were modified through the merged config")
		}
	})
}

// TestConfigApplyHostConfig tests overlaying file settings onto a Config.
func TestConfigApplyHostConfig(t *testing.T) {
	t.Parallel()

	disabled := false
	cfg := NewConfig()
	cfg.FollowUp = true
	cfg.ApplyHostConfig(HostConfig{
		Ports:       "20-25",
		Concurrency: 10,
		Proxy:       "127.0.0.1:9050",
		FollowUp:    &disabled,
		HeloName:    "probe.example.test",
	})

	if cfg.Ports != "20-25" || cfg.Concurrency != 10 || cfg.Proxy != "127.0.0.1:9050" {
		t.Errorf("overrides not applied: %+v", cfg)
	}
	if cfg.FollowUp {
		t.Error("expected explicit false to disable follow-up")
	}
	if cfg.HeloName != "probe.example.test" {
		t.Errorf("expected helo name override, got %q", cfg.HeloName)
	}
	if cfg.ConnectTimeout != DefaultConnectTimeout {
		t.Errorf("unset fields must keep defaults, got %v", cfg.ConnectTimeout)
	}
}

// TestLoadConfigFile tests YAML loading.
func TestLoadConfigFile(t *testing.T) {
	t.Parallel()

	write := func(t *testing.T, content string) string {
		t.Helper()
		path := filepath.Join(t.TempDir(), DefaultConfigFile)
		if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
			t.Fatalf("failed to write test config: %v", err)
		}
		return path
	}

	t.Run("loads defaults and hosts", func(t *testing.T) {
		t.Parallel()

		path := write(t, `
defaults:
  connect_timeout: 500ms
  read_timeout: 2s
  concurrency: 20
  http_ports: [80, 8080]
hosts:
  mail.example.test:
    ports: "25"
    follow_up: true
    helo_name: probe.example.test
`)
		cf, err := LoadConfigFile(path)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if cf.Defaults.ConnectTimeout != 500*time.Millisecond {
			t.Errorf("expected 500ms, got %v", cf.Defaults.ConnectTimeout)
		}
		if cf.Defaults.ReadTimeout != 2*time.Second {
			t.Errorf("expected 2s, got %v", cf.Defaults.ReadTimeout)
		}
		if !slices.Equal(cf.Defaults.HTTPPorts, []uint16{80, 8080}) {
			t.Errorf("unexpected http ports %v", cf.Defaults.HTTPPorts)
		}
		hc := cf.HostConfig("mail.example.test")
		if hc.Ports != "25" || hc.FollowUp == nil || !*hc.FollowUp || hc.Concurrency != 20 {
			t.Errorf("unexpected host config %+v", hc)
		}
	})

	t.Run("assess enables the risk assessment", func(t *testing.T) {
		t.Parallel()

		cf, err := LoadConfigFile(write(t, `
defaults:
  assess: true
hosts:
  lab.example.test:
    assess: false
`))
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		cfg := NewConfig()
		cfg.ApplyHostConfig(cf.HostConfig("www.example.test"))
		if !cfg.Assess {
			t.Error("expected assessment enabled from defaults")
		}

		cfg = NewConfig()
		cfg.Assess = true
		cfg.ApplyHostConfig(cf.HostConfig("lab.example.test"))
		if cfg.Assess {
			t.Error("expected host entry to disable assessment")
		}
	})

	t.Run("empty file is valid", func(t *testing.T) {
		t.Parallel()

		cf, err := LoadConfigFile(write(t, ""))
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if cf.Hosts == nil {
			t.Error("expected Hosts to be initialized")
		}
	})

	t.Run("unknown key is rejected", func(t *testing.T) {
		t.Parallel()

		if _, err := LoadConfigFile(write(t, "defaults:\n  conncurrency: 5\n")); err == nil {
			t.Error("expected error for unknown key")
		}
	})

	t.Run("invalid duration is rejected", func(t *testing.T) {
		t.Parallel()

		if _, err := LoadConfigFile(write(t, "defaults:\n  read_timeout: soon\n")); err == nil {
			t.Error("expected error for invalid duration")
		}
	})

	t.Run("missing file returns ErrConfigNotFound", func(t *testing.T) {
		t.Parallel()

		_, err := LoadConfigFile(filepath.Join(t.TempDir(), "missing.yaml"))
		if !errors.Is(err, ErrConfigNotFound) {
			t.Errorf("expected ErrConfigNotFound, got %v", err)
		}
	})
}

// TestFindConfigFile tests config file lookup.
func TestFindConfigFile(t *testing.T) {
	t.Parallel()

	t.Run("returns explicit path if exists", func(t *testing.T) {
		t.Parallel()

		configPath := filepath.Join(t.TempDir(), "custom.yaml")
		if err := os.WriteFile(configPath, []byte("defaults: {}"), 0o600); err != nil {
			t.Fatalf("failed to write test config: %v", err)
		}

		if result := FindConfigFile(configPath); result != configPath {
			t.Errorf("expected %q, got %q", configPath, result)
		}
	})

	t.Run("returns empty for non-existent explicit path", func(t *testing.T) {
		t.Parallel()

		if result := FindConfigFile("/nonexistent/path/config.yaml"); result != "" {
			t.Errorf("expected empty string, got %q", result)
		}
	})
}

// TestXDGConfigDir tests the XDG config directory.
func TestXDGConfigDir(t *testing.T) {
	t.Parallel()

	if filepath.Base(XDGConfigDir()) != AppName {
		t.Errorf("expected directory named %q, got %q", AppName, XDGConfigDir())
	}
}
