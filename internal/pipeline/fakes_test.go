package pipeline

import (
	"context"
	"io"
	"log/slog"
	"net"
	"sync/atomic"
	"time"

	"github.com/nao1215/bannerscan/internal/model"
	"github.com/nao1215/bannerscan/internal/probe"
	"github.com/nao1215/bannerscan/internal/protocol"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// fakeConnector reports ports in open as open and every other port as
// closed, and tracks how many probes run at once.
type fakeConnector struct {
	open map[uint16]bool

	// delay, if set, is slept before answering.
	delay func(port uint16) time.Duration

	// block, if set, makes matching ports wait for cancellation.
	block func(port uint16) bool

	calls       atomic.Int32
	inFlight    atomic.Int32
	maxInFlight atomic.Int32
}

func (f *fakeConnector) Probe(ctx context.Context, t model.ScanTarget, _ time.Duration) probe.Outcome {
	f.calls.Add(1)
	n := f.inFlight.Add(1)
	defer f.inFlight.Add(-1)
	for {
		m := f.maxInFlight.Load()
		if n <= m || f.maxInFlight.CompareAndSwap(m, n) {
			break
		}
	}

	if f.block != nil && f.block(t.Port) {
		<-ctx.Done()
		return probe.Outcome{State: model.StateError, Err: ctx.Err()}
	}
	if f.delay != nil {
		time.Sleep(f.delay(t.Port))
	}
	if f.open[t.Port] {
		client, server := net.Pipe()
		_ = server.Close()
		return probe.Outcome{State: model.StateOpen, Conn: client}
	}
	return probe.Outcome{State: model.StateClosed, Err: probe.ErrConnectRefused}
}

// fakeReader returns canned banners and counts the connections it closed.
type fakeReader struct {
	banners map[uint16]string
	err     error
	closed  atomic.Int32
}

func (f *fakeReader) ReadBanner(_ context.Context, conn net.Conn, port uint16, _ time.Duration) (protocol.Banner, error) {
	_ = conn.Close()
	f.closed.Add(1)
	return protocol.Banner{Text: f.banners[port]}, f.err
}

// fakeAssessor rates every port it sees as medium risk and records the
// ports it was asked about.
type fakeAssessor struct {
	calls atomic.Int32
}

func (f *fakeAssessor) Assess(res model.PortResult) *model.Assessment {
	f.calls.Add(1)
	return &model.Assessment{
		Service:  res.WellKnown,
		Risk:     model.SeverityMedium,
		Findings: []model.Finding{{Type: "fake", Severity: model.SeverityMedium, Value: res.Banner}},
	}
}
