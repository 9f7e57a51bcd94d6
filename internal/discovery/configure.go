package discovery

import (
	"context"
	"encoding/binary"
	"net"
	"time"

	"go.uber.org/zap"

	"github.com/muurk/easyip/internal/logging"
	"github.com/muurk/easyip/internal/protocol"
)

// ConfigureRequest holds the new network settings for one device.
type ConfigureRequest struct {
	MAC     string
	IP      string
	Subnet  string
	Gateway string
	Port    uint16

	// BindAddress and BroadcastAddress behave as in Options.
	BindAddress      string
	BroadcastAddress string
}

// Configure broadcasts a configuration request for req.MAC and waits for one
// acknowledgement. It reports true only when a datagram of response type
// 0x0022 arrives within timeout. Invalid addresses fail before any socket
// is opened. There is no retry.
func (s *Session) Configure(ctx context.Context, req ConfigureRequest, timeout time.Duration) (bool, error) {
	packet, err := protocol.BuildConfigureRequest(req.MAC, req.IP, req.Subnet, req.Gateway, req.Port)
	if err != nil {
		return false, err
	}

	opts := Options{Timeout: timeout, BindAddress: req.BindAddress, BroadcastAddress: req.BroadcastAddress}.withDefaults()
	deadline := s.now().Add(opts.Timeout)
	if d, ok := ctx.Deadline(); ok && d.Before(deadline) {
		deadline = d
	}

	s.logger.Info("Configuring device",
		zap.String("mac", req.MAC),
		zap.String("ip", req.IP),
		zap.String("subnet", req.Subnet),
		zap.String("gateway", req.Gateway),
		zap.Uint16("port", req.Port),
	)

	conn, err := s.open(ctx, opts.BindAddress)
	if err != nil {
		return false, err
	}
	defer func() {
		if cerr := conn.Close(); cerr != nil {
			s.logger.Debug("Close failed", zap.Error(cerr))
		}
	}()

	dest := &net.UDPAddr{IP: net.ParseIP(opts.BroadcastAddress), Port: protocol.DestinationPort}
	if dest.IP == nil {
		return false, &Error{Type: ErrTypeSend, Op: OpSend, Message: "invalid broadcast address " + opts.BroadcastAddress}
	}
	logging.RawBytes(s.logger, "Sending configure request", packet, zap.Stringer("to", dest))
	if _, err := conn.WriteTo(packet, dest); err != nil {
		return false, newSendError(dest.String(), err)
	}

	if err := conn.SetReadDeadline(deadline); err != nil {
		s.logger.Warn("Failed to set read deadline", zap.Error(err))
		return false, nil
	}

	buf := make([]byte, protocol.BufferSize)
	n, addr, err := conn.ReadFrom(buf)
	if err != nil {
		if isTimeout(err) {
			s.logger.Warn("No configuration response (timeout)", zap.String("mac", req.MAC))
		} else {
			s.logger.Warn("Receive failed", zap.Error(err))
		}
		return false, nil
	}

	resp := buf[:n]
	logging.RawBytes(s.logger, "Received configure response", resp, zap.String("from", addrIP(addr)))
	if IsConfigureAck(resp) {
		s.logger.Info("Configuration acknowledged", zap.String("mac", req.MAC), zap.String("from", addrIP(addr)))
		return true, nil
	}

	s.logger.Warn("Unexpected configuration response", zap.String("from", addrIP(addr)), zap.Int("length", n))
	return false, nil
}

// IsConfigureAck reports whether resp is a configuration acknowledgement.
func IsConfigureAck(resp []byte) bool {
	return len(resp) >= 4 && binary.BigEndian.Uint16(resp[2:4]) == protocol.MsgConfigResponse
}

// Configure runs one configuration exchange with a default session.
func Configure(ctx context.Context, req ConfigureRequest, timeout time.Duration, logger *zap.Logger) (bool, error) {
	return NewSession(WithLogger(logger)).Configure(ctx, req, timeout)
}
