package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/nao1215/bannerscan/internal/model"
	"github.com/nao1215/bannerscan/internal/probe"
	"github.com/nao1215/bannerscan/internal/protocol"
	"github.com/nao1215/bannerscan/internal/target"
	"golang.org/x/sync/errgroup"
)

// DefaultConcurrency is the default number of ports probed at once.
const DefaultConcurrency = 100

// Coordinator scans port ranges with a bounded number of concurrent probes.
// A Coordinator may run several scans at once; each gets its own limit.
type Coordinator struct {
	// concurrency is the maximum number of ports in flight.
	concurrency int

	connectTimeout time.Duration
	readTimeout    time.Duration

	connector Connector
	reader    BannerReader

	// assessor, if set, rates every open port.
	assessor Assessor

	logger *slog.Logger

	// progress, if set, is called once per completed port. Calls are
	// serialized.
	progress   func(model.PortResult)
	progressMu sync.Mutex
}

// Option configures a Coordinator.
type Option func(*Coordinator)

// WithConcurrency sets the maximum number of ports probed at once.
// Default is DefaultConcurrency. Non-positive values are ignored.
func WithConcurrency(n int) Option {
	return func(c *Coordinator) {
		if n > 0 {
			c.concurrency = n
		}
	}
}

// WithConnectTimeout sets the per-port connect timeout.
func WithConnectTimeout(d time.Duration) Option {
	return func(c *Coordinator) {
		if d > 0 {
			c.connectTimeout = d
		}
	}
}

// WithReadTimeout sets the per-port banner read timeout.
func WithReadTimeout(d time.Duration) Option {
	return func(c *Coordinator) {
		if d > 0 {
			c.readTimeout = d
		}
	}
}

// WithLogger sets the logger. It is also handed to the default connector
// and reader.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Coordinator) {
		c.logger = logger
	}
}

// WithConnector replaces the default direct connector.
func WithConnector(connector Connector) Option {
	return func(c *Coordinator) {
		c.connector = connector
	}
}

// WithReader replaces the default banner reader.
func WithReader(reader BannerReader) Option {
	return func(c *Coordinator) {
		c.reader = reader
	}
}

// WithAssessor adds the assessment step, run after classification.
// Without it no port is assessed.
func WithAssessor(assessor Assessor) Option {
	return func(c *Coordinator) {
		c.assessor = assessor
	}
}

// WithProgress registers a callback invoked with each completed PortResult,
// in completion order.
func WithProgress(fn func(model.PortResult)) Option {
	return func(c *Coordinator) {
		c.progress = fn
	}
}

// NewCoordinator creates a Coordinator.
func NewCoordinator(opts ...Option) *Coordinator {
	c := &Coordinator{
		concurrency:    DefaultConcurrency,
		connectTimeout: probe.DefaultConnectTimeout,
		readTimeout:    protocol.DefaultReadTimeout,
	}

	for _, opt := range opts {
		opt(c)
	}

	if c.logger == nil {
		c.logger = slog.Default()
	}
	if c.connector == nil {
		c.connector = probe.NewConnector(probe.WithConnectorLogger(c.logger))
	}
	if c.reader == nil {
		c.reader = protocol.NewReader(protocol.WithReaderLogger(c.logger))
	}

	return c
}

// Concurrency returns the configured concurrency limit.
func (c *Coordinator) Concurrency() int {
	return c.concurrency
}

// Scan probes every port of portExpr ("start-end" or a single port) on host.
//
// Invalid input fails with *target.InvalidHostError or
// *target.InvalidRangeError before any network activity. Otherwise the
// report holds one result per port, sorted by port. If ctx is cancelled the
// returned report is partial, holding only completed ports, and the error
// wraps the context error.
func (c *Coordinator) Scan(ctx context.Context, host, portExpr string) (*model.ScanReport, error) {
	targets, err := target.Resolve(host, portExpr)
	if err != nil {
		return nil, err
	}
	return c.run(ctx, targets)
}

// ScanRange is Scan for numeric bounds.
func (c *Coordinator) ScanRange(ctx context.Context, host string, start, end int) (*model.ScanReport, error) {
	targets, err := target.ResolveRange(host, start, end)
	if err != nil {
		return nil, err
	}
	return c.run(ctx, targets)
}

// run scans resolved targets. targets is non-empty and ordered by port.
func (c *Coordinator) run(ctx context.Context, targets []model.ScanTarget) (*model.ScanReport, error) {
	first, last := targets[0], targets[len(targets)-1]
	report := model.NewScanReport(strings.TrimSpace(first.Host), first.Port, last.Port)

	c.logger.Info("starting scan",
		"host", report.Host,
		"ports", fmt.Sprintf("%d-%d", first.Port, last.Port),
		"concurrency", c.concurrency,
	)

	pipeline := New(WithPipelineLogger(c.logger))
	pipeline.AddSteps(
		NewConnectStep(c.connector, c.connectTimeout),
		NewBannerStep(c.reader, c.readTimeout),
		NewClassifyStep(),
	)
	if c.assessor != nil {
		pipeline.AddStep(NewAssessStep(c.assessor))
	}

	// Each worker writes only its own index.
	results := make([]model.PortResult, len(targets))
	completed := make([]bool, len(targets))

	// A plain Group: one port failing must not cancel the others.
	var g errgroup.Group
	g.SetLimit(c.concurrency)

	for i, t := range targets {
		if ctx.Err() != nil {
			break
		}
		g.Go(func() error {
			if ctx.Err() != nil {
				return nil
			}

			start := time.Now()
			scan := NewPortScan(t)
			if err := pipeline.Execute(ctx, scan); err != nil || ctx.Err() != nil {
				// Interrupted mid-port: the outcome reflects the
				// cancellation, not the port, so it is dropped.
				return nil
			}
			scan.Result.Elapsed = time.Since(start)

			results[i] = scan.Result
			completed[i] = true
			c.notify(scan.Result)
			return nil
		})
	}
	_ = g.Wait() //nolint:errcheck // workers never return errors

	done := make([]model.PortResult, 0, len(results))
	for i, ok := range completed {
		if ok {
			done = append(done, results[i])
		}
	}
	report.SetResults(done)
	report.Elapsed = time.Since(report.StartedAt)

	if len(done) < len(targets) {
		report.Partial = true
		c.logger.Warn("scan interrupted",
			"host", report.Host,
			"completed", len(done),
			"total", len(targets),
		)
		return report, fmt.Errorf("scan interrupted after %d of %d ports: %w", len(done), len(targets), context.Cause(ctx))
	}

	c.logger.Info("scan complete",
		"host", report.Host,
		"open", len(report.OpenPorts()),
		"elapsed", report.Elapsed,
	)
	return report, nil
}

// notify passes r to the progress callback.
func (c *Coordinator) notify(r model.PortResult) {
	if c.progress == nil {
		return
	}
	c.progressMu.Lock()
	defer c.progressMu.Unlock()
	c.progress(r)
}
