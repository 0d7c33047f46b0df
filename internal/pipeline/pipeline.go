package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"net"

	"github.com/nao1215/bannerscan/internal/model"
)

// Step is one stage in scanning a single port.
type Step interface {
	// Do advances the scan. Per-port failures are recorded in scan.Result
	// and return nil; a returned error ends the pipeline for this port.
	Do(ctx context.Context, scan *PortScan) error

	// Name returns the step's name for logging purposes.
	Name() string
}

// PortScan carries one target through the pipeline.
type PortScan struct {
	// Result accumulates what the steps learn.
	Result model.PortResult

	// conn is the live connection between the connect and banner steps.
	// Whichever step takes it over must set it back to nil.
	conn net.Conn
}

// NewPortScan creates a PortScan for t.
func NewPortScan(t model.ScanTarget) *PortScan {
	return &PortScan{Result: model.PortResult{Target: t}}
}

// release closes a connection that no step took over.
func (s *PortScan) release() {
	if s.conn != nil {
		_ = s.conn.Close()
		s.conn = nil
	}
}

// Pipeline runs steps in order for one port at a time.
// A Pipeline holds no per-scan state, so one instance may execute many
// PortScans concurrently.
type Pipeline struct {
	// steps contains the ordered list of steps to execute.
	steps []Step

	logger *slog.Logger
}

// PipelineOption configures a Pipeline.
type PipelineOption func(*Pipeline)

// WithPipelineLogger sets the logger.
func WithPipelineLogger(logger *slog.Logger) PipelineOption {
	return func(p *Pipeline) {
		p.logger = logger
	}
}

// New creates an empty Pipeline. Add steps with AddStep.
func New(opts ...PipelineOption) *Pipeline {
	p := &Pipeline{
		steps: make([]Step, 0),
	}

	for _, opt := range opts {
		opt(p)
	}

	if p.logger == nil {
		p.logger = slog.Default()
	}

	return p
}

// AddStep appends a step to the pipeline.
// Steps are executed in the order they are added.
func (p *Pipeline) AddStep(step Step) {
	p.steps = append(p.steps, step)
}

// AddSteps appends multiple steps to the pipeline.
func (p *Pipeline) AddSteps(steps ...Step) {
	p.steps = append(p.steps, steps...)
}

// Execute runs every step on scan. Cancellation is checked before each step.
// Any connection still held by scan when Execute returns is closed.
func (p *Pipeline) Execute(ctx context.Context, scan *PortScan) error {
	defer scan.release()

	for _, step := range p.steps {
		if err := ctx.Err(); err != nil {
			p.logger.Debug("pipeline cancelled",
				"step", step.Name(),
				"target", scan.Result.Target.String(),
			)
			return err
		}

		if err := step.Do(ctx, scan); err != nil {
			return fmt.Errorf("%s: %w", step.Name(), err)
		}
	}

	return nil
}

// StepCount returns the number of steps in the pipeline.
func (p *Pipeline) StepCount() int {
	return len(p.steps)
}

// StepNames returns the names of all steps in execution order.
func (p *Pipeline) StepNames() []string {
	names := make([]string, len(p.steps))
	for i, step := range p.steps {
		names[i] = step.Name()
	}
	return names
}
