package discovery

import (
	"context"
	"net"
	"os"

	"go.uber.org/zap"

	"github.com/muurk/easyip/internal/protocol"
)

// CheckResult is the outcome of one diagnostic step.
type CheckResult struct {
	OK     bool   `json:"ok"`
	Detail string `json:"detail"`
}

// Report summarises the host's ability to run discovery.
type Report struct {
	Hostname   string          `json:"hostname"`
	LocalIPs   []string        `json:"local_ips"`
	Interfaces []InterfaceInfo `json:"interfaces"`
	Bind       CheckResult     `json:"bind"`
	SourcePort CheckResult     `json:"source_port"`
	Broadcast  CheckResult     `json:"broadcast"`
}

// Healthy reports whether every check passed. The source-port check is
// advisory since discovery falls back to an ephemeral port.
func (r Report) Healthy() bool {
	return r.Bind.OK && r.Broadcast.OK
}

// Diagnose checks that a broadcast UDP socket can be bound and that a probe
// can be sent to the device port. Devices do not answer the probe.
func (s *Session) Diagnose(ctx context.Context) Report {
	var r Report

	host, err := os.Hostname()
	if err != nil {
		s.logger.Warn("Could not read hostname", zap.Error(err))
		host = "unknown"
	}
	r.Hostname = host

	r.Interfaces = Interfaces()
	for _, iface := range r.Interfaces[1:] {
		r.LocalIPs = append(r.LocalIPs, iface.IP)
	}

	conn, err := s.dialer.ListenPacket(ctx, hostPort("", 0))
	if err != nil {
		r.Bind = CheckResult{Detail: err.Error()}
		r.Broadcast = CheckResult{Detail: "skipped: no socket"}
		return r
	}
	defer conn.Close()
	r.Bind = CheckResult{OK: true, Detail: "bound to " + conn.LocalAddr().String()}

	src, err := s.dialer.ListenPacket(ctx, hostPort("", protocol.SourcePort))
	switch {
	case err == nil:
		r.SourcePort = CheckResult{OK: true, Detail: "port 10669 available"}
		src.Close()
	case IsAddrInUse(err):
		r.SourcePort = CheckResult{Detail: "port 10669 in use, discovery will use an ephemeral port"}
	default:
		r.SourcePort = CheckResult{Detail: err.Error()}
	}

	dest := &net.UDPAddr{IP: net.IPv4bcast, Port: protocol.DestinationPort}
	if _, err := conn.WriteTo(protocol.DiagProbe, dest); err != nil {
		r.Broadcast = CheckResult{Detail: err.Error()}
	} else {
		r.Broadcast = CheckResult{OK: true, Detail: "probe sent to " + dest.String()}
	}

	s.logger.Debug("Diagnostics complete",
		zap.Bool("bind", r.Bind.OK),
		zap.Bool("source_port", r.SourcePort.OK),
		zap.Bool("broadcast", r.Broadcast.OK),
	)
	return r
}
