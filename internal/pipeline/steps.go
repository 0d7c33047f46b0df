package pipeline

import (
	"context"
	"net"
	"time"

	"github.com/nao1215/bannerscan/internal/model"
	"github.com/nao1215/bannerscan/internal/probe"
	"github.com/nao1215/bannerscan/internal/protocol"
)

// Connector opens connections. *probe.Connector implements it.
type Connector interface {
	Probe(ctx context.Context, target model.ScanTarget, connectTimeout time.Duration) probe.Outcome
}

// BannerReader captures banners and closes the connection.
// *protocol.Reader implements it.
type BannerReader interface {
	ReadBanner(ctx context.Context, conn net.Conn, port uint16, readTimeout time.Duration) (protocol.Banner, error)
}

// Assessor rates the risk of an open port. *assess.Assessor implements it.
type Assessor interface {
	Assess(res model.PortResult) *model.Assessment
}

// ConnectStep attempts the TCP connection.
type ConnectStep struct {
	connector Connector
	timeout   time.Duration
}

// NewConnectStep creates a ConnectStep.
func NewConnectStep(connector Connector, timeout time.Duration) *ConnectStep {
	return &ConnectStep{connector: connector, timeout: timeout}
}

// Name returns the step name.
func (s *ConnectStep) Name() string {
	return "connect"
}

// Do records the connect outcome and keeps an open connection for the next
// step.
func (s *ConnectStep) Do(ctx context.Context, scan *PortScan) error {
	out := s.connector.Probe(ctx, scan.Result.Target, s.timeout)

	scan.Result.State = out.State
	if out.Err != nil {
		scan.Result.Error = out.Err.Error()
	}
	if out.State == model.StateOpen {
		scan.conn = out.Conn
	} else if out.Conn != nil {
		_ = out.Conn.Close()
	}
	return nil
}

// BannerStep reads the banner from an open connection.
type BannerStep struct {
	reader  BannerReader
	timeout time.Duration
}

// NewBannerStep creates a BannerStep.
func NewBannerStep(reader BannerReader, timeout time.Duration) *BannerStep {
	return &BannerStep{reader: reader, timeout: timeout}
}

// Name returns the step name.
func (s *BannerStep) Name() string {
	return "banner"
}

// Do hands the connection to the reader, which closes it. Ports that are not
// open are skipped. A read failure is recorded, not returned.
func (s *BannerStep) Do(ctx context.Context, scan *PortScan) error {
	if scan.conn == nil {
		return nil
	}
	conn := scan.conn
	scan.conn = nil

	banner, err := s.reader.ReadBanner(ctx, conn, scan.Result.Port(), s.timeout)
	scan.Result.Banner = banner.Text
	scan.Result.Extra = banner.Extra
	if err != nil {
		scan.Result.Error = err.Error()
	}
	return nil
}

// ClassifyStep identifies the service behind an open port.
type ClassifyStep struct{}

// NewClassifyStep creates a ClassifyStep.
func NewClassifyStep() *ClassifyStep {
	return &ClassifyStep{}
}

// Name returns the step name.
func (s *ClassifyStep) Name() string {
	return "classify"
}

// Do sets the well-known service name for every port and the service
// identity for open ports. An open port without a banner is unknown.
func (s *ClassifyStep) Do(_ context.Context, scan *PortScan) error {
	scan.Result.WellKnown = protocol.WellKnownService(scan.Result.Port())
	if scan.Result.State != model.StateOpen {
		return nil
	}

	id := model.UnknownService()
	if scan.Result.HasBanner() {
		id = protocol.Classify(scan.Result.Banner)
	}
	scan.Result.Service = &id
	return nil
}

// AssessStep rates the risk of an open port from what the earlier steps
// captured. It must run after ClassifyStep.
type AssessStep struct {
	assessor Assessor
}

// NewAssessStep creates an AssessStep.
func NewAssessStep(assessor Assessor) *AssessStep {
	return &AssessStep{assessor: assessor}
}

// Name returns the step name.
func (s *AssessStep) Name() string {
	return "assess"
}

// Do records the assessment of an open port. Other ports are skipped.
func (s *AssessStep) Do(_ context.Context, scan *PortScan) error {
	if scan.Result.State != model.StateOpen {
		return nil
	}
	scan.Result.Assessment = s.assessor.Assess(scan.Result)
	return nil
}
