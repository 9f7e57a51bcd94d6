package discovery

import (
	"context"
	"errors"
	"net"
	"os"
	"testing"
)

func TestDiagnose(t *testing.T) {
	conn := &fakeConn{local: &net.UDPAddr{IP: net.IPv4zero, Port: 40000}}
	src := &fakeConn{}
	dialer := &fakeDialer{conns: []*fakeConn{conn, src}}

	r := NewSession(WithDialer(dialer)).Diagnose(context.Background())

	if !r.Healthy() {
		t.Errorf("report not healthy: %+v", r)
	}
	if !r.SourcePort.OK {
		t.Errorf("source port check = %+v", r.SourcePort)
	}
	if len(conn.writes) != 1 || string(conn.writes[0]) != string([]byte{0x01, 0x00, 0x00, 0x11, 0x00, 0x04, 0x00, 0x00, 0x00, 0x00}) {
		t.Errorf("probe writes = %x", conn.writes)
	}
	if got := conn.dests[0].String(); got != "255.255.255.255:10670" {
		t.Errorf("probe destination = %s", got)
	}
	if conn.closes != 1 || src.closes != 1 {
		t.Errorf("closes = %d/%d, want 1/1", conn.closes, src.closes)
	}
	if r.Hostname == "" {
		t.Error("hostname empty")
	}
}

func TestDiagnoseSourcePortBusy(t *testing.T) {
	inUse := &net.OpError{Op: "listen", Net: "udp4", Err: os.NewSyscallError("bind", errAddrInUse)}
	dialer := &fakeDialer{errs: []error{nil, inUse}}

	r := NewSession(WithDialer(dialer)).Diagnose(context.Background())
	if r.SourcePort.OK {
		t.Error("source port reported available")
	}
	if !r.Healthy() {
		t.Error("a busy source port should not fail the report")
	}
}

func TestDiagnoseBindFailure(t *testing.T) {
	dialer := &fakeDialer{errs: []error{errors.New("no sockets")}}

	r := NewSession(WithDialer(dialer)).Diagnose(context.Background())
	if r.Bind.OK || r.Broadcast.OK || r.Healthy() {
		t.Errorf("report = %+v, want bind and broadcast failures", r)
	}
}

func TestDiagnoseSendFailure(t *testing.T) {
	conn := &fakeConn{writeErr: errors.New("network is unreachable")}
	dialer := &fakeDialer{conns: []*fakeConn{conn}}

	r := NewSession(WithDialer(dialer)).Diagnose(context.Background())
	if r.Broadcast.OK {
		t.Error("broadcast reported OK")
	}
}
