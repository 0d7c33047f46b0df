package probe

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
	"github.com/nao1215/bannerscan/internal/model"
	"golang.org/x/net/proxy"
	"golang.org/x/sync/singleflight"
)

// DefaultConnectTimeout is the connect timeout used when none is given.
const DefaultConnectTimeout = 200 * time.Millisecond

// Defaults for the host resolution cache.
const (
	defaultLookupTimeout = 3 * time.Second
	defaultCacheSize     = 256
	defaultCacheTTL      = 5 * time.Minute

	// lookupWaitFactor caps how long one connect attempt waits for name
	// resolution, as a multiple of its connect timeout.
	lookupWaitFactor = 5
)

// Outcome is the result of a single connect attempt.
type Outcome struct {
	// State is the reachability outcome.
	State model.PortState

	// Conn is the established connection when State is StateOpen, nil
	// otherwise. Ownership passes to the caller.
	Conn net.Conn

	// Err describes why the port is not open. It wraps one of
	// ErrConnectTimeout, ErrConnectRefused or ErrConnectError.
	Err error

	// Elapsed is the time spent resolving and connecting.
	Elapsed time.Duration
}

// HostResolver looks up the addresses of a host name.
// *net.Resolver satisfies this interface.
type HostResolver interface {
	LookupHost(ctx context.Context, host string) ([]string, error)
}

// lookupResult is a cached resolution, including failures.
type lookupResult struct {
	addrs []string
	err   error
}

// Connector performs bounded-time TCP connects.
// A Connector is safe for concurrent use by multiple goroutines.
type Connector struct {
	// dialer opens the TCP connection, directly or through a proxy.
	dialer proxy.ContextDialer

	// viaProxy disables local name resolution.
	viaProxy bool

	// resolver resolves host names when dialing directly.
	resolver HostResolver

	// lookupTimeout bounds a single DNS lookup.
	lookupTimeout time.Duration

	// cache holds recent lookups, negative results included.
	cache *expirable.LRU[string, lookupResult]

	// lookups collapses concurrent lookups for the same host.
	lookups singleflight.Group

	logger *slog.Logger

	cacheSize int
	cacheTTL  time.Duration
}

// ConnectorOption configures a Connector.
type ConnectorOption func(*Connector)

// WithDialer sets the dialer used to open connections.
func WithDialer(d proxy.ContextDialer) ConnectorOption {
	return func(c *Connector) {
		if d != nil {
			c.dialer = d
		}
	}
}

// WithResolver sets the resolver used for host names.
func WithResolver(r HostResolver) ConnectorOption {
	return func(c *Connector) {
		if r != nil {
			c.resolver = r
		}
	}
}

// WithLookupTimeout bounds each DNS lookup.
func WithLookupTimeout(d time.Duration) ConnectorOption {
	return func(c *Connector) {
		if d > 0 {
			c.lookupTimeout = d
		}
	}
}

// WithCache sets the size and TTL of the resolution cache.
func WithCache(size int, ttl time.Duration) ConnectorOption {
	return func(c *Connector) {
		if size > 0 {
			c.cacheSize = size
		}
		if ttl > 0 {
			c.cacheTTL = ttl
		}
	}
}

// WithConnectorLogger sets the logger.
func WithConnectorLogger(logger *slog.Logger) ConnectorOption {
	return func(c *Connector) {
		c.logger = logger
	}
}

// NewConnector creates a Connector that dials directly.
func NewConnector(opts ...ConnectorOption) *Connector {
	c := &Connector{
		dialer:        &net.Dialer{},
		resolver:      net.DefaultResolver,
		lookupTimeout: defaultLookupTimeout,
		cacheSize:     defaultCacheSize,
		cacheTTL:      defaultCacheTTL,
	}

	for _, opt := range opts {
		opt(c)
	}

	if c.logger == nil {
		c.logger = slog.Default()
	}
	c.cache = expirable.NewLRU[string, lookupResult](c.cacheSize, nil, c.cacheTTL)

	return c
}

// NewSOCKS5Connector creates a Connector that dials through the SOCKS5
// proxy at proxyAddress ("host:port"). auth may be nil.
// Name resolution is delegated to the proxy.
func NewSOCKS5Connector(proxyAddress string, auth *proxy.Auth, opts ...ConnectorOption) (*Connector, error) {
	if _, _, err := net.SplitHostPort(proxyAddress); err != nil {
		return nil, fmt.Errorf("invalid proxy address %q: %w", proxyAddress, err)
	}

	d, err := proxy.SOCKS5("tcp", proxyAddress, auth, &net.Dialer{})
	if err != nil {
		return nil, fmt.Errorf("failed to create SOCKS5 dialer: %w", err)
	}
	cd, ok := d.(proxy.ContextDialer)
	if !ok {
		return nil, errors.New("SOCKS5 dialer does not support contexts")
	}

	c := NewConnector(append(opts, WithDialer(cd))...)
	c.viaProxy = true
	return c, nil
}

// Probe attempts a TCP connection to target within connectTimeout.
// A non-positive timeout selects DefaultConnectTimeout.
//
// Probe never returns an open socket unless State is StateOpen.
func (c *Connector) Probe(ctx context.Context, target model.ScanTarget, connectTimeout time.Duration) Outcome {
	if connectTimeout <= 0 {
		connectTimeout = DefaultConnectTimeout
	}
	start := time.Now()

	address, err := c.address(ctx, target, c.lookupWait(connectTimeout))
	if err != nil {
		return Outcome{
			State:   model.StateError,
			Err:     fmt.Errorf("%w: %w", ErrConnectError, err),
			Elapsed: time.Since(start),
		}
	}

	dialCtx, cancel := context.WithTimeout(ctx, connectTimeout)
	defer cancel()

	conn, err := c.dialer.DialContext(dialCtx, "tcp", address)
	elapsed := time.Since(start)
	if err == nil {
		// A dialer that returns a connection after the parent context is
		// gone would leak it into a cancelled scan.
		if ctx.Err() != nil {
			_ = conn.Close()
			return Outcome{
				State:   model.StateError,
				Err:     fmt.Errorf("%w: %w", ErrConnectError, ctx.Err()),
				Elapsed: elapsed,
			}
		}
		c.logger.Debug("port open", "target", target.String(), "elapsed", elapsed)
		return Outcome{State: model.StateOpen, Conn: conn, Elapsed: elapsed}
	}
	if conn != nil {
		_ = conn.Close()
	}

	state, wrapped := classifyDialError(ctx, err)
	c.logger.Debug("port not open",
		"target", target.String(),
		"state", state.String(),
		"error", wrapped,
	)
	return Outcome{State: state, Err: wrapped, Elapsed: elapsed}
}

// classifyDialError maps a dial error onto a port state.
// Cancellation of the parent context is reported as an error, not a
// timeout, so that an interrupted scan does not mislabel ports.
func classifyDialError(parent context.Context, err error) (model.PortState, error) {
	if parent.Err() != nil {
		return model.StateError, fmt.Errorf("%w: %w", ErrConnectError, parent.Err())
	}

	if errors.Is(err, syscall.ECONNREFUSED) || strings.Contains(strings.ToLower(err.Error()), "refused") {
		return model.StateClosed, fmt.Errorf("%w: %w", ErrConnectRefused, err)
	}

	var netErr net.Error
	if errors.Is(err, context.DeadlineExceeded) || (errors.As(err, &netErr) && netErr.Timeout()) {
		return model.StateTimeout, fmt.Errorf("%w: %w", ErrConnectTimeout, err)
	}

	return model.StateError, fmt.Errorf("%w: %w", ErrConnectError, err)
}

// lookupWait is how long one connect attempt with the given timeout waits
// for name resolution: lookupWaitFactor connect timeouts, never more than
// the lookup timeout.
func (c *Connector) lookupWait(connectTimeout time.Duration) time.Duration {
	return min(c.lookupTimeout, lookupWaitFactor*connectTimeout)
}

// address returns the "ip:port" (or "host:port" through a proxy) to dial.
func (c *Connector) address(ctx context.Context, target model.ScanTarget, wait time.Duration) (string, error) {
	port := strconv.Itoa(int(target.Port))
	if c.viaProxy || net.ParseIP(target.Host) != nil {
		return net.JoinHostPort(target.Host, port), nil
	}

	addrs, err := c.lookup(ctx, target.Host, wait)
	if err != nil {
		return "", err
	}
	return net.JoinHostPort(addrs[0], port), nil
}

// lookup resolves host through the cache. Concurrent callers for the same
// host share one lookup; the lookup itself is detached from any single
// caller's cancellation so one cancelled worker cannot fail it for others.
// A caller gives up after wait with ErrLookupTimeout while the shared lookup
// runs on to fill the cache.
func (c *Connector) lookup(ctx context.Context, host string, wait time.Duration) ([]string, error) {
	if cached, ok := c.cache.Get(host); ok {
		return cached.addrs, cached.err
	}

	ch := c.lookups.DoChan(host, func() (any, error) {
		lookupCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), c.lookupTimeout)
		defer cancel()

		addrs, err := c.resolver.LookupHost(lookupCtx, host)
		if err == nil && len(addrs) == 0 {
			err = ErrNoAddress
		}
		res := lookupResult{addrs: addrs, err: err}
		c.cache.Add(host, res)
		if err != nil {
			c.logger.Warn("host lookup failed", "host", host, "error", err)
		} else {
			c.logger.Debug("host resolved", "host", host, "addrs", addrs)
		}
		return res, nil
	})

	timer := time.NewTimer(wait)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-timer.C:
		return nil, fmt.Errorf("%w: %s after %s", ErrLookupTimeout, host, wait)
	case r := <-ch:
		res, _ := r.Val.(lookupResult) //nolint:errcheck // DoChan always yields lookupResult
		return res.addrs, res.err
	}
}

// CachedHosts returns the number of hosts currently in the resolution cache.
func (c *Connector) CachedHosts() int {
	return c.cache.Len()
}
