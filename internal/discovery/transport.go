package discovery

import (
	"context"
	"errors"
	"net"
	"strconv"
	"time"
)

// PacketConn is the subset of net.PacketConn a session uses.
type PacketConn interface {
	ReadFrom(p []byte) (n int, addr net.Addr, err error)
	WriteTo(p []byte, addr net.Addr) (n int, err error)
	SetReadDeadline(t time.Time) error
	LocalAddr() net.Addr
	Close() error
}

// Dialer opens broadcast-capable UDP sockets.
type Dialer interface {
	ListenPacket(ctx context.Context, address string) (PacketConn, error)
}

// UDPDialer opens real sockets with SO_BROADCAST and SO_REUSEADDR set.
type UDPDialer struct{}

// ListenPacket binds a UDP socket to address ("ip:port").
func (UDPDialer) ListenPacket(ctx context.Context, address string) (PacketConn, error) {
	lc := net.ListenConfig{Control: setBroadcastOptions}
	pc, err := lc.ListenPacket(ctx, "udp4", address)
	if err != nil {
		return nil, err
	}
	return pc, nil
}

// IsAddrInUse reports whether err is a bind failure because the port is
// taken.
func IsAddrInUse(err error) bool {
	return err != nil && errors.Is(err, errAddrInUse)
}

// isTimeout reports whether err is a read deadline expiry.
func isTimeout(err error) bool {
	var ne net.Error
	return errors.As(err, &ne) && ne.Timeout()
}

func hostPort(host string, port int) string {
	if host == "" {
		host = "0.0.0.0"
	}
	return net.JoinHostPort(host, strconv.Itoa(port))
}
