package discovery

import (
	"context"
	"errors"
	"net"
	"os"
	"reflect"
	"testing"
	"time"

	"github.com/muurk/easyip/internal/protocol"
	"github.com/muurk/easyip/internal/protocol/protocoltest"
)

var (
	testSourceMAC = net.HardwareAddr{0x00, 0x11, 0x22, 0x33, 0x44, 0x55}
	testSourceIP  = net.IPv4(192, 168, 1, 10).To4()
)

func newTestSession(d Dialer, opts ...Option) *Session {
	opts = append([]Option{WithDialer(d), WithSource(testSourceMAC, testSourceIP)}, opts...)
	return NewSession(opts...)
}

func TestDiscoverDeduplicatesInArrivalOrder(t *testing.T) {
	conn := &fakeConn{reads: []fakeRead{
		{data: protocoltest.Camera("a0:29:19:00:00:03", "192.168.1.30", "WV-S1136", "C3"), from: "192.168.1.30"},
		{data: protocoltest.Recorder("a0:29:19:00:00:01", "192.168.1.10", "NX400", "R1"), from: "192.168.1.10"},
		{data: protocoltest.Camera("a0:29:19:00:00:03", "192.168.1.99", "WV-S1136", "C3-dup"), from: "192.168.1.99"},
		{data: protocoltest.Camera("a0:29:19:00:00:02", "192.168.1.20", "WV-S2136", "C2"), from: "192.168.1.20"},
	}}
	dialer := &fakeDialer{conns: []*fakeConn{conn}}

	devices, stats, err := newTestSession(dialer).DiscoverWithStats(context.Background(), Options{Timeout: 2 * time.Second})
	if err != nil {
		t.Fatalf("Discover() error = %v", err)
	}

	gotMACs := make([]string, len(devices))
	for i, d := range devices {
		gotMACs[i] = d.MACAddress
	}
	wantMACs := []string{"a0:29:19:00:00:03", "a0:29:19:00:00:01", "a0:29:19:00:00:02"}
	if !reflect.DeepEqual(gotMACs, wantMACs) {
		t.Errorf("MACs = %v, want %v", gotMACs, wantMACs)
	}
	if devices[0].IPAddress != "192.168.1.30" {
		t.Errorf("first response should win, got ip %s", devices[0].IPAddress)
	}
	if devices[1].DeviceType != protocol.DeviceRecorder {
		t.Errorf("second device type = %v, want recorder", devices[1].DeviceType)
	}
	if stats.Responses != 4 || stats.Duplicates != 1 {
		t.Errorf("stats = %+v", stats)
	}
	if conn.closes != 1 {
		t.Errorf("Close called %d times, want 1", conn.closes)
	}
}

func TestDiscoverSendsOneSearchRequest(t *testing.T) {
	conn := &fakeConn{}
	dialer := &fakeDialer{conns: []*fakeConn{conn}}

	_, err := newTestSession(dialer).Discover(context.Background(), Options{Timeout: time.Second})
	if err != nil {
		t.Fatalf("Discover() error = %v", err)
	}

	if len(conn.writes) != 1 {
		t.Fatalf("writes = %d, want 1", len(conn.writes))
	}
	pkt := conn.writes[0]
	if len(pkt) != protocol.SearchRequestSize {
		t.Errorf("packet length = %d, want %d", len(pkt), protocol.SearchRequestSize)
	}
	if !reflect.DeepEqual(net.HardwareAddr(pkt[12:18]), testSourceMAC) {
		t.Errorf("source mac = % x", pkt[12:18])
	}
	if got := conn.dests[0].String(); got != "255.255.255.255:10670" {
		t.Errorf("destination = %s", got)
	}
	if dialer.addrs[0] != "0.0.0.0:10669" {
		t.Errorf("bind address = %s", dialer.addrs[0])
	}
}

func TestDiscoverSkipsBadDatagramsAndReadErrors(t *testing.T) {
	conn := &fakeConn{reads: []fakeRead{
		{data: []byte{0x00, 0x01, 0x00}, from: "10.0.0.1"},
		{err: errors.New("connection refused")},
		{data: append([]byte{0xde, 0xad}, make([]byte, 40)...), from: "10.0.0.2"},
		{data: protocoltest.Camera("a0:29:19:00:00:04", "10.0.0.4", "WV-X1571", "C4"), from: "10.0.0.4"},
	}}
	dialer := &fakeDialer{conns: []*fakeConn{conn}}

	devices, stats, err := newTestSession(dialer).DiscoverWithStats(context.Background(), Options{Timeout: time.Second})
	if err != nil {
		t.Fatalf("Discover() error = %v", err)
	}
	if len(devices) != 1 || devices[0].MACAddress != "a0:29:19:00:00:04" {
		t.Errorf("devices = %+v", devices)
	}
	if stats.ParseFailures != 2 {
		t.Errorf("parse failures = %d, want 2", stats.ParseFailures)
	}
}

func TestDiscoverIPDefaultsToSource(t *testing.T) {
	conn := &fakeConn{reads: []fakeRead{
		{data: protocoltest.Response("a0:29:19:00:00:05"), from: "172.16.0.5"},
	}}
	dialer := &fakeDialer{conns: []*fakeConn{conn}}

	devices, err := newTestSession(dialer).Discover(context.Background(), Options{Timeout: time.Second})
	if err != nil {
		t.Fatalf("Discover() error = %v", err)
	}
	if len(devices) != 1 || devices[0].IPAddress != "172.16.0.5" {
		t.Errorf("devices = %+v", devices)
	}
}

func TestDiscoverClosesSocketOnPanic(t *testing.T) {
	conn := &fakeConn{reads: []fakeRead{
		{data: protocoltest.Camera("a0:29:19:00:00:06", "10.0.0.6", "WV-S1136", "C6"), from: "10.0.0.6"},
		{panic: true},
	}}
	dialer := &fakeDialer{conns: []*fakeConn{conn}}

	func() {
		defer func() {
			if r := recover(); r == nil {
				t.Error("expected panic to propagate")
			}
		}()
		_, _ = newTestSession(dialer).Discover(context.Background(), Options{Timeout: time.Second})
	}()

	if conn.closes != 1 {
		t.Errorf("Close called %d times, want 1", conn.closes)
	}
}

func TestDiscoverBindFallback(t *testing.T) {
	inUse := &net.OpError{Op: "listen", Net: "udp4", Err: os.NewSyscallError("bind", errAddrInUse)}
	conn := &fakeConn{local: &net.UDPAddr{IP: net.IPv4zero, Port: 54321}}
	dialer := &fakeDialer{errs: []error{inUse}, conns: []*fakeConn{conn}}

	_, stats, err := newTestSession(dialer).DiscoverWithStats(context.Background(), Options{Timeout: time.Second, BindAddress: "192.168.1.10"})
	if err != nil {
		t.Fatalf("Discover() error = %v", err)
	}

	want := []string{"192.168.1.10:10669", "192.168.1.10:0"}
	if !reflect.DeepEqual(dialer.addrs, want) {
		t.Errorf("bind attempts = %v, want %v", dialer.addrs, want)
	}
	if stats.LocalPort != 54321 {
		t.Errorf("local port = %d", stats.LocalPort)
	}
}

func TestDiscoverSocketFailure(t *testing.T) {
	dialer := &fakeDialer{errs: []error{errors.New("no network")}}
	var states []State

	devices, err := newTestSession(dialer, WithObserver(func(s State) { states = append(states, s) })).
		Discover(context.Background(), Options{Timeout: time.Second})

	if !IsSocketError(err) {
		t.Fatalf("error = %v, want socket error", err)
	}
	if devices != nil {
		t.Errorf("devices = %v, want nil", devices)
	}
	if dialer.calls() != 1 {
		t.Errorf("bind attempts = %d, want 1 (no fallback for other errors)", dialer.calls())
	}
	if want := []State{StateIdle, StateFailed}; !reflect.DeepEqual(states, want) {
		t.Errorf("states = %v, want %v", states, want)
	}
}

func TestDiscoverSendPermissionDenied(t *testing.T) {
	conn := &fakeConn{writeErr: os.ErrPermission}
	dialer := &fakeDialer{conns: []*fakeConn{conn}}

	_, err := newTestSession(dialer).Discover(context.Background(), Options{Timeout: time.Second})
	if !IsSendError(err) || !IsPermissionError(err) {
		t.Fatalf("error = %v, want send permission error", err)
	}
	if IsSocketError(err) {
		t.Errorf("send permission error reported as socket error: %v", err)
	}
}

func TestDiscoverSendFailure(t *testing.T) {
	conn := &fakeConn{writeErr: errors.New("network unreachable")}
	dialer := &fakeDialer{conns: []*fakeConn{conn}}

	_, err := newTestSession(dialer).Discover(context.Background(), Options{Timeout: time.Second})
	if !IsSendError(err) {
		t.Fatalf("error = %v, want send error", err)
	}
	if conn.closes != 1 {
		t.Errorf("Close called %d times, want 1", conn.closes)
	}
}

func TestDiscoverStateTransitions(t *testing.T) {
	dialer := &fakeDialer{}
	var states []State

	_, err := newTestSession(dialer, WithObserver(func(s State) { states = append(states, s) })).
		Discover(context.Background(), Options{Timeout: time.Second})
	if err != nil {
		t.Fatalf("Discover() error = %v", err)
	}

	want := []State{StateIdle, StateSocketBound, StateBroadcasting, StateListening, StateComplete}
	if !reflect.DeepEqual(states, want) {
		t.Errorf("states = %v, want %v", states, want)
	}
}

func TestDiscoverCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	dialer := &fakeDialer{}

	_, err := newTestSession(dialer).Discover(ctx, Options{})
	if !errors.Is(err, context.Canceled) {
		t.Errorf("error = %v, want context.Canceled", err)
	}
	if dialer.calls() != 0 {
		t.Error("socket opened for a cancelled context")
	}
}

func TestDiscoverReadDeadlineBoundedByContext(t *testing.T) {
	conn := &fakeConn{}
	dialer := &fakeDialer{conns: []*fakeConn{conn}}
	ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
	defer cancel()

	start := time.Now()
	if _, err := newTestSession(dialer).Discover(ctx, Options{Timeout: time.Hour}); err != nil {
		t.Fatalf("Discover() error = %v", err)
	}
	if conn.deadline.Sub(start) > time.Minute {
		t.Errorf("read deadline %v ignores context deadline", conn.deadline)
	}
}

func TestStateString(t *testing.T) {
	if StateListening.String() != "Listening" {
		t.Errorf("String() = %q", StateListening.String())
	}
	if State(42).String() != "State(42)" {
		t.Errorf("String() = %q", State(42).String())
	}
}
