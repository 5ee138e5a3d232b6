package netgate

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"time"

	"golang.org/x/net/proxy"
)

// Defaults used when no option overrides them.
const (
	// DefaultProbeTimeout bounds a single probe.
	DefaultProbeTimeout = 2 * time.Second

	// DefaultPollInterval is the pause between probes while waiting.
	DefaultPollInterval = 30 * time.Second
)

// Checker is the contract consumed by Call and Run.
type Checker interface {
	// IsReachable performs one probe and never fails; any error counts as
	// unreachable.
	IsReachable(ctx context.Context) bool

	// WaitUntilReachable blocks until a probe succeeds. It returns an error
	// only when ctx is done or a configured maximum wait elapses.
	WaitUntilReachable(ctx context.Context) error
}

// ContextDialer opens network connections. *net.Dialer satisfies it, as do
// the SOCKS5 dialers returned by golang.org/x/net/proxy.
type ContextDialer interface {
	DialContext(ctx context.Context, network, address string) (net.Conn, error)
}

// Gate probes a fixed host to decide whether the network is reachable.
type Gate struct {
	// address is the probe target in "host:port" form.
	address string

	probeTimeout time.Duration
	pollInterval time.Duration

	// maxWait caps WaitUntilReachable. Zero waits forever.
	maxWait time.Duration

	dialer ContextDialer
	logger *slog.Logger
}

// Option configures a Gate.
type Option func(*Gate)

// WithProbeTimeout sets the timeout of a single probe.
func WithProbeTimeout(d time.Duration) Option {
	return func(g *Gate) {
		if d > 0 {
			g.probeTimeout = d
		}
	}
}

// WithPollInterval sets the pause between probes while waiting.
func WithPollInterval(d time.Duration) Option {
	return func(g *Gate) {
		if d > 0 {
			g.pollInterval = d
		}
	}
}

// WithMaxWait caps how long WaitUntilReachable blocks. Zero or a negative
// value means no cap.
func WithMaxWait(d time.Duration) Option {
	return func(g *Gate) {
		if d < 0 {
			d = 0
		}
		g.maxWait = d
	}
}

// WithDialer replaces the dialer used for probes.
func WithDialer(d ContextDialer) Option {
	return func(g *Gate) {
		if d != nil {
			g.dialer = d
		}
	}
}

// WithLogger sets the logger used to report outages.
func WithLogger(logger *slog.Logger) Option {
	return func(g *Gate) {
		g.logger = logger
	}
}

// New creates a Gate probing address. The address is validated but not
// dialed.
func New(address string, opts ...Option) (*Gate, error) {
	host, port, err := net.SplitHostPort(address)
	if err != nil || host == "" || port == "" {
		return nil, fmt.Errorf("%w: %q", ErrInvalidProbeAddress, address)
	}

	g := &Gate{
		address:      address,
		probeTimeout: DefaultProbeTimeout,
		pollInterval: DefaultPollInterval,
		dialer:       &net.Dialer{},
	}
	for _, opt := range opts {
		opt(g)
	}
	if g.logger == nil {
		g.logger = slog.Default()
	}
	return g, nil
}

// NewSOCKS5Dialer returns a dialer that routes probes through the SOCKS5
// proxy at proxyAddress, for hosts whose only way out is a proxy.
func NewSOCKS5Dialer(proxyAddress string) (ContextDialer, error) {
	d, err := proxy.SOCKS5("tcp", proxyAddress, nil, proxy.Direct)
	if err != nil {
		return nil, fmt.Errorf("failed to create SOCKS5 dialer: %w", err)
	}
	cd, ok := d.(proxy.ContextDialer)
	if !ok {
		return nil, errors.New("SOCKS5 dialer does not support contexts")
	}
	return cd, nil
}

// Address returns the probe address.
func (g *Gate) Address() string {
	return g.address
}

// Probe performs one bounded connection attempt and classifies the result.
func (g *Gate) Probe(ctx context.Context) ProbeStatus {
	ctx, cancel := context.WithTimeout(ctx, g.probeTimeout)
	defer cancel()

	conn, err := g.dialer.DialContext(ctx, "tcp", g.address)
	if err != nil {
		return classify(ctx, err)
	}
	_ = conn.Close() //nolint:errcheck // probe connection carries no data
	return StatusReachable
}

// classify maps a dial error to a ProbeStatus.
func classify(ctx context.Context, err error) ProbeStatus {
	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) && !dnsErr.IsTimeout {
		return StatusUnresolvable
	}
	if errors.Is(ctx.Err(), context.DeadlineExceeded) || errors.Is(err, context.DeadlineExceeded) {
		return StatusTimeout
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return StatusTimeout
	}
	return StatusCannotConnect
}

// IsReachable reports whether a single probe succeeds.
func (g *Gate) IsReachable(ctx context.Context) bool {
	return g.Probe(ctx) == StatusReachable
}

// WaitUntilReachable probes immediately and then every poll interval until a
// probe succeeds.
func (g *Gate) WaitUntilReachable(ctx context.Context) error {
	var deadline <-chan time.Time
	if g.maxWait > 0 {
		t := time.NewTimer(g.maxWait)
		defer t.Stop()
		deadline = t.C
	}

	for attempt := 1; ; attempt++ {
		status := g.Probe(ctx)
		if status == StatusReachable {
			if attempt > 1 {
				g.logger.Info("network reachable again", "probe", g.address, "attempts", attempt)
			}
			return nil
		}

		g.logger.Warn("network unreachable, waiting for reconnection",
			"probe", g.address,
			"status", status.String(),
			"attempt", attempt,
			"retry_in", g.pollInterval,
		)

		timer := time.NewTimer(g.pollInterval)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-deadline:
			timer.Stop()
			return fmt.Errorf("%w (%s, last probe: %s)", ErrWaitTimeout, g.maxWait, status)
		case <-timer.C:
		}
	}
}

// Always is a Checker that reports the network as always reachable. It is
// used when connectivity checks are disabled.
type Always struct{}

// IsReachable returns true.
func (Always) IsReachable(context.Context) bool { return true }

// WaitUntilReachable returns immediately.
func (Always) WaitUntilReachable(context.Context) error { return nil }
