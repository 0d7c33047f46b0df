package config

import "errors"

// Configuration validation errors returned by Config.Validate.
var (
	// ErrNoHost is returned when no target host is given.
	ErrNoHost = errors.New("no target host specified: use --host")

	// ErrNoPorts is returned when no port range is given.
	ErrNoPorts = errors.New("no port range specified: use --ports START-END")

	// ErrInvalidTimeout is returned when the connect timeout is not positive.
	ErrInvalidTimeout = errors.New("invalid timeout: must be positive")

	// ErrInvalidReadTimeout is returned when the read timeout is not positive.
	ErrInvalidReadTimeout = errors.New("invalid read timeout: must be positive")

	// ErrInvalidConcurrency is returned when the concurrency is outside
	// 1..MaxConcurrency.
	ErrInvalidConcurrency = errors.New("invalid concurrency: must be between 1 and 10000")

	// ErrConflictingReportFormats is returned when both --json and --markdown
	// are specified.
	ErrConflictingReportFormats = errors.New("conflicting report formats: --json and --markdown cannot be used together")

	// ErrInvalidProxy is returned when the proxy address cannot be parsed.
	ErrInvalidProxy = errors.New("invalid proxy: expected host:port or socks5://[user:pass@]host:port")

	// ErrInvalidHTTPPort is returned when an HTTP port is zero.
	ErrInvalidHTTPPort = errors.New("invalid http port: must be between 1 and 65535")
)
