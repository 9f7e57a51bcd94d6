package discovery

import (
	"context"
	"errors"
	"fmt"
	"net"
	"time"

	"go.uber.org/zap"

	"github.com/muurk/easyip/internal/logging"
	"github.com/muurk/easyip/internal/protocol"
)

const (
	// DefaultTimeout is how long a session listens when Options.Timeout is
	// unset.
	DefaultTimeout = 3 * time.Second

	// DefaultBroadcastAddress is the limited broadcast address.
	DefaultBroadcastAddress = "255.255.255.255"
)

// State is a discovery session's lifecycle stage.
type State int

const (
	StateIdle State = iota
	StateSocketBound
	StateBroadcasting
	StateListening
	StateComplete
	StateFailed
)

// String returns the state name
func (s State) String() string {
	switch s {
	case StateIdle:
		return "Idle"
	case StateSocketBound:
		return "SocketBound"
	case StateBroadcasting:
		return "Broadcasting"
	case StateListening:
		return "Listening"
	case StateComplete:
		return "Complete"
	case StateFailed:
		return "Failed"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// Options controls one discovery run.
type Options struct {
	// Timeout bounds the whole run, measured from its start.
	Timeout time.Duration

	// BindAddress is the local IPv4 address to bind; empty means all
	// interfaces.
	BindAddress string

	// BroadcastAddress is where the search is sent; empty means
	// 255.255.255.255.
	BroadcastAddress string
}

func (o Options) withDefaults() Options {
	if o.Timeout <= 0 {
		o.Timeout = DefaultTimeout
	}
	if o.BindAddress == "" {
		o.BindAddress = AllInterfaces.IP
	}
	if o.BroadcastAddress == "" {
		o.BroadcastAddress = DefaultBroadcastAddress
	}
	return o
}

// Stats counts what a run received.
type Stats struct {
	Responses     int           // Datagrams read
	ParseFailures int           // Datagrams rejected by the parser
	Duplicates    int           // Valid responses for a MAC already seen
	LocalPort     int           // Port the socket was bound to
	Elapsed       time.Duration // Wall-clock duration
}

// Session runs discovery and configuration exchanges. A Session holds no
// socket between calls and is safe for concurrent use.
type Session struct {
	dialer   Dialer
	logger   *zap.Logger
	parser   *protocol.Parser
	observer func(State)
	source   func(bindAddress string) (net.HardwareAddr, net.IP)
	now      func() time.Time
}

// Option configures a Session.
type Option func(*Session)

// WithDialer replaces the UDP transport.
func WithDialer(d Dialer) Option {
	return func(s *Session) { s.dialer = d }
}

// WithLogger sets the logger. Nil means silent.
func WithLogger(logger *zap.Logger) Option {
	return func(s *Session) { s.logger = logging.OrNop(logger) }
}

// WithObserver registers a callback invoked on every state change.
func WithObserver(fn func(State)) Option {
	return func(s *Session) { s.observer = fn }
}

// WithSource fixes the MAC and IP embedded in search requests.
func WithSource(mac net.HardwareAddr, ip net.IP) Option {
	return func(s *Session) {
		s.source = func(string) (net.HardwareAddr, net.IP) { return mac, ip }
	}
}

// NewSession creates a session using real UDP sockets unless overridden.
func NewSession(opts ...Option) *Session {
	s := &Session{
		dialer: UDPDialer{},
		logger: zap.NewNop(),
		source: LocalSource,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.parser = protocol.NewParser(s.logger)
	return s
}

func (s *Session) setState(st State) {
	s.logger.Debug("Session state", zap.Stringer("state", st))
	if s.observer != nil {
		s.observer(st)
	}
}

// Discover broadcasts one search request and collects responses until the
// timeout elapses or a receive times out. Devices are returned in the order
// first seen, one per MAC.
func (s *Session) Discover(ctx context.Context, opts Options) ([]protocol.DeviceRecord, error) {
	devices, _, err := s.DiscoverWithStats(ctx, opts)
	return devices, err
}

// DiscoverWithStats is Discover plus receive counters.
func (s *Session) DiscoverWithStats(ctx context.Context, opts Options) ([]protocol.DeviceRecord, Stats, error) {
	opts = opts.withDefaults()
	var stats Stats

	s.setState(StateIdle)
	if err := ctx.Err(); err != nil {
		s.setState(StateFailed)
		return nil, stats, err
	}

	start := s.now()
	deadline := start.Add(opts.Timeout)
	if d, ok := ctx.Deadline(); ok && d.Before(deadline) {
		deadline = d
	}

	s.logger.Info("Starting device discovery",
		zap.Duration("timeout", opts.Timeout),
		zap.String("bind", opts.BindAddress),
		zap.String("broadcast", opts.BroadcastAddress),
	)

	conn, err := s.open(ctx, opts.BindAddress)
	if err != nil {
		s.setState(StateFailed)
		return nil, stats, err
	}
	defer func() {
		if cerr := conn.Close(); cerr != nil {
			s.logger.Debug("Close failed", zap.Error(cerr))
		}
	}()
	if udp, ok := conn.LocalAddr().(*net.UDPAddr); ok {
		stats.LocalPort = udp.Port
	}
	s.setState(StateSocketBound)

	mac, ip := s.source(opts.BindAddress)
	packet, err := protocol.BuildSearchRequest(mac, ip)
	if err != nil {
		s.logger.Warn("Source identity unusable, using fallback", zap.Error(err))
		packet, err = protocol.BuildSearchRequest(FallbackSourceMAC, FallbackSourceIP)
		if err != nil {
			s.setState(StateFailed)
			return nil, stats, err
		}
	}

	s.setState(StateBroadcasting)
	dest := &net.UDPAddr{IP: net.ParseIP(opts.BroadcastAddress), Port: protocol.DestinationPort}
	if dest.IP == nil {
		s.setState(StateFailed)
		return nil, stats, &Error{Type: ErrTypeSend, Op: OpSend, Message: "invalid broadcast address " + opts.BroadcastAddress}
	}
	logging.RawBytes(s.logger, "Sending search request", packet, zap.Stringer("to", dest))
	if _, err := conn.WriteTo(packet, dest); err != nil {
		s.setState(StateFailed)
		return nil, stats, newSendError(dest.String(), err)
	}

	s.setState(StateListening)
	devices := make([]protocol.DeviceRecord, 0)
	seen := make(map[string]struct{})
	buf := make([]byte, protocol.BufferSize)

	for ctx.Err() == nil && s.now().Before(deadline) {
		if err := conn.SetReadDeadline(deadline); err != nil {
			s.logger.Warn("Failed to set read deadline", zap.Error(err))
			break
		}

		n, addr, err := conn.ReadFrom(buf)
		if err != nil {
			if isTimeout(err) {
				s.logger.Debug("Receive timed out")
				break
			}
			if errors.Is(err, net.ErrClosed) {
				break
			}
			s.logger.Warn("Receive failed", zap.Error(err))
			continue
		}

		stats.Responses++
		from := addrIP(addr)
		payload := buf[:n]
		logging.RawBytes(s.logger, "Received datagram", payload, zap.String("from", from))

		rec, err := s.parser.Parse(payload, from)
		if err != nil {
			stats.ParseFailures++
			s.logger.Debug("Ignoring datagram", zap.String("from", from), zap.Error(err))
			continue
		}
		if _, dup := seen[rec.MACAddress]; dup {
			stats.Duplicates++
			s.logger.Debug("Duplicate response", zap.String("mac", rec.MACAddress))
			continue
		}
		seen[rec.MACAddress] = struct{}{}
		devices = append(devices, rec)

		s.logger.Info("Found device",
			zap.Stringer("type", rec.DeviceType),
			zap.String("model", rec.ModelName),
			zap.String("mac", rec.MACAddress),
			zap.String("ip", rec.IPAddress),
		)
	}

	stats.Elapsed = s.now().Sub(start)
	s.setState(StateComplete)
	s.logger.Info("Discovery complete",
		zap.Int("devices", len(devices)),
		zap.Int("responses", stats.Responses),
		zap.Int("parse_failures", stats.ParseFailures),
		zap.Duration("elapsed", stats.Elapsed),
	)
	return devices, stats, nil
}

// open binds to the source port, falling back to an ephemeral port when it
// is taken.
func (s *Session) open(ctx context.Context, bindAddress string) (PacketConn, error) {
	addr := hostPort(bindAddress, protocol.SourcePort)
	conn, err := s.dialer.ListenPacket(ctx, addr)
	if err != nil && IsAddrInUse(err) {
		s.logger.Warn("Source port in use, binding to an ephemeral port",
			zap.Int("port", protocol.SourcePort),
			zap.Error(err),
		)
		addr = hostPort(bindAddress, 0)
		conn, err = s.dialer.ListenPacket(ctx, addr)
	}
	if err != nil {
		return nil, newSocketError(addr, err)
	}
	s.logger.Debug("Socket bound", zap.Stringer("local", conn.LocalAddr()))
	return conn, nil
}

func addrIP(addr net.Addr) string {
	if udp, ok := addr.(*net.UDPAddr); ok {
		return udp.IP.String()
	}
	if addr == nil {
		return ""
	}
	host, _, err := net.SplitHostPort(addr.String())
	if err != nil {
		return addr.String()
	}
	return host
}

// Discover runs one discovery with a default session.
func Discover(ctx context.Context, opts Options, logger *zap.Logger) ([]protocol.DeviceRecord, error) {
	return NewSession(WithLogger(logger)).Discover(ctx, opts)
}
