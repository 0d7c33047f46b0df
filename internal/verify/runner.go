package verify

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/Ullaakut/nmap/v3"
)

// Runner runs nmap against a port range.
type Runner struct {
	binaryPath string
	logger     *slog.Logger
}

// RunnerOption configures a Runner.
type RunnerOption func(*Runner)

// WithBinaryPath sets the nmap binary. By default it is looked up in PATH.
func WithBinaryPath(path string) RunnerOption {
	return func(r *Runner) {
		r.binaryPath = path
	}
}

// WithRunnerLogger sets the logger.
func WithRunnerLogger(logger *slog.Logger) RunnerOption {
	return func(r *Runner) {
		r.logger = logger
	}
}

// NewRunner creates a Runner.
func NewRunner(opts ...RunnerOption) *Runner {
	r := &Runner{}
	for _, opt := range opts {
		opt(r)
	}
	if r.logger == nil {
		r.logger = slog.Default()
	}
	return r
}

// OpenPorts runs a TCP connect scan of host over start-end and returns the
// ports nmap reported open, sorted. The scan stops when ctx is done.
func (r *Runner) OpenPorts(ctx context.Context, host string, start, end uint16) ([]uint16, error) {
	opts := []nmap.Option{
		nmap.WithTargets(host),
		nmap.WithPorts(fmt.Sprintf("%d-%d", start, end)),
		nmap.WithConnectScan(),
		nmap.WithSkipHostDiscovery(),
	}
	if r.binaryPath != "" {
		opts = append(opts, nmap.WithBinaryPath(r.binaryPath))
	}

	scanner, err := nmap.NewScanner(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrNmapUnavailable, err)
	}

	r.logger.Debug("running nmap", "host", host, "start", start, "end", end)

	result, warnings, err := scanner.Run()
	if warnings != nil && len(*warnings) > 0 {
		r.logger.Warn("nmap finished with warnings", "warnings", strings.Join(*warnings, "; "))
	}
	if err != nil {
		if errors.Is(err, nmap.ErrNmapNotInstalled) {
			return nil, fmt.Errorf("%w: %w", ErrNmapUnavailable, err)
		}
		return nil, fmt.Errorf("%w: %w", ErrNmapFailed, err)
	}

	return openTCPPorts(result), nil
}

// openTCPPorts collects the open TCP ports of every host in run.
func openTCPPorts(run *nmap.Run) []uint16 {
	ports := make([]uint16, 0)
	if run == nil {
		return ports
	}
	for _, host := range run.Hosts {
		for _, port := range host.Ports {
			if port.Protocol != "tcp" || port.Status() != nmap.Open {
				continue
			}
			ports = append(ports, port.ID)
		}
	}
	return normalize(ports)
}
