package discovery

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/muurk/easyip/internal/protocol"
	"github.com/muurk/easyip/internal/protocol/protocoltest"
)

var testConfigureRequest = ConfigureRequest{
	MAC:     "a0:29:19:3e:ab:91",
	IP:      "192.168.1.50",
	Subnet:  "255.255.255.0",
	Gateway: "192.168.1.1",
	Port:    80,
}

func TestConfigure(t *testing.T) {
	tests := []struct {
		name  string
		reads []fakeRead
		want  bool
	}{
		{
			name:  "acknowledged",
			reads: []fakeRead{{data: protocoltest.Ack(), from: "192.168.1.50"}},
			want:  true,
		},
		{
			name:  "timeout",
			reads: nil,
			want:  false,
		},
		{
			name:  "search response instead of ack",
			reads: []fakeRead{{data: protocoltest.Camera("a0:29:19:3e:ab:91", "192.168.1.50", "WV-S1136", "C1"), from: "192.168.1.50"}},
			want:  false,
		},
		{
			name:  "too short",
			reads: []fakeRead{{data: []byte{0x00, 0x01, 0x00}, from: "192.168.1.50"}},
			want:  false,
		},
		{
			name:  "receive error",
			reads: []fakeRead{{err: errors.New("connection reset")}},
			want:  false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			conn := &fakeConn{reads: tt.reads}
			dialer := &fakeDialer{conns: []*fakeConn{conn}}

			ok, err := newTestSession(dialer).Configure(context.Background(), testConfigureRequest, 500*time.Millisecond)
			if err != nil {
				t.Fatalf("Configure() error = %v", err)
			}
			if ok != tt.want {
				t.Errorf("Configure() = %v, want %v", ok, tt.want)
			}
			if len(conn.writes) != 1 || len(conn.writes[0]) != protocol.ConfigureRequestSize {
				t.Errorf("expected one %d-byte packet, got %d writes", protocol.ConfigureRequestSize, len(conn.writes))
			}
			if conn.closes != 1 {
				t.Errorf("Close called %d times, want 1", conn.closes)
			}
		})
	}
}

func TestConfigureOnlyReadsOnce(t *testing.T) {
	conn := &fakeConn{reads: []fakeRead{
		{data: []byte{0x00, 0x01, 0x00, 0x12, 0, 0}, from: "10.0.0.1"},
		{data: protocoltest.Ack(), from: "10.0.0.2"},
	}}
	dialer := &fakeDialer{conns: []*fakeConn{conn}}

	ok, err := newTestSession(dialer).Configure(context.Background(), testConfigureRequest, time.Second)
	if err != nil {
		t.Fatalf("Configure() error = %v", err)
	}
	if ok {
		t.Error("Configure() = true, want false on first non-ack response")
	}
	if len(conn.reads) != 1 {
		t.Errorf("remaining scripted reads = %d, want 1", len(conn.reads))
	}
}

func TestConfigureInvalidAddressOpensNoSocket(t *testing.T) {
	dialer := &fakeDialer{}
	req := testConfigureRequest
	req.IP = "192.168.1.300"

	ok, err := newTestSession(dialer).Configure(context.Background(), req, time.Second)
	if ok {
		t.Error("Configure() = true for invalid input")
	}
	if !errors.Is(err, protocol.ErrInvalidAddress) {
		t.Errorf("error = %v, want ErrInvalidAddress", err)
	}
	if dialer.calls() != 0 {
		t.Errorf("socket opened %d times before validation", dialer.calls())
	}
}

func TestConfigureSocketFailure(t *testing.T) {
	dialer := &fakeDialer{errs: []error{errors.New("permission denied")}}

	ok, err := newTestSession(dialer).Configure(context.Background(), testConfigureRequest, time.Second)
	if ok || !IsSocketError(err) {
		t.Errorf("Configure() = %v, %v; want false and a socket error", ok, err)
	}
}

func TestIsConfigureAck(t *testing.T) {
	tests := []struct {
		name string
		resp []byte
		want bool
	}{
		{"ack", []byte{0x00, 0x01, 0x00, 0x22}, true},
		{"ack with payload", []byte{0x00, 0x01, 0x00, 0x22, 0xff, 0xff}, true},
		{"other type", []byte{0x00, 0x01, 0x00, 0x21}, false},
		{"short", []byte{0x00, 0x01, 0x00}, false},
		{"empty", nil, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsConfigureAck(tt.resp); got != tt.want {
				t.Errorf("IsConfigureAck() = %v, want %v", got, tt.want)
			}
		})
	}
}
