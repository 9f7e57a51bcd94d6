package logging

import (
	"strings"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestNewSilentByDefault(t *testing.T) {
	t.Setenv(LogLevelEnvVar, "")

	logger, err := New("")
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	if logger.Core().Enabled(zapcore.ErrorLevel) {
		t.Error("expected a no-op logger")
	}
}

func TestNewFromEnv(t *testing.T) {
	t.Setenv(LogLevelEnvVar, "warn")

	logger, err := New("")
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	if !logger.Core().Enabled(zapcore.WarnLevel) {
		t.Error("warn should be enabled")
	}
	if logger.Core().Enabled(zapcore.InfoLevel) {
		t.Error("info should be disabled")
	}
}

func TestNewFlagOverridesEnv(t *testing.T) {
	t.Setenv(LogLevelEnvVar, "error")

	logger, err := New("debug")
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	if !logger.Core().Enabled(zapcore.DebugLevel) {
		t.Error("debug should be enabled")
	}
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in      string
		want    zapcore.Level
		wantErr bool
	}{
		{"debug", zapcore.DebugLevel, false},
		{"INFO", zapcore.InfoLevel, false},
		{"warning", zapcore.WarnLevel, false},
		{" error ", zapcore.ErrorLevel, false},
		{"verbose", zapcore.InfoLevel, true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseLevel(tt.in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseLevel() error = %v, wantErr %v", err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("ParseLevel() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestHexAndASCII(t *testing.T) {
	data := []byte{0x00, 0x01, 'A', 'b', 0x7f}
	if got := Hex(data); got != "000141627f" {
		t.Errorf("Hex() = %q", got)
	}
	if got := ASCII(data); got != "..Ab." {
		t.Errorf("ASCII() = %q", got)
	}
	if Hex(nil) != "" || ASCII(nil) != "" {
		t.Error("empty input should give empty dumps")
	}

	long := make([]byte, 300)
	if got := Hex(long); !strings.HasSuffix(got, "...") || len(got) != 2*maxDumpBytes+3 {
		t.Errorf("Hex() of long input has length %d", len(got))
	}
	if got := ASCII(long); len(got) != maxDumpBytes {
		t.Errorf("ASCII() of long input has length %d", len(got))
	}
}

func TestRawBytes(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	logger := zap.New(core)

	RawBytes(logger, "Received datagram", []byte{0x00, 0x01}, zap.String("from", "10.0.0.1"))

	entries := logs.All()
	if len(entries) != 1 {
		t.Fatalf("got %d entries, want 1", len(entries))
	}
	fields := entries[0].ContextMap()
	if fields["hex"] != "0001" {
		t.Errorf("hex = %v", fields["hex"])
	}
	if fields["from"] != "10.0.0.1" {
		t.Errorf("from = %v", fields["from"])
	}
	if fields["length"] != int64(2) {
		t.Errorf("length = %v (%T)", fields["length"], fields["length"])
	}
}

func TestRawBytesSkippedAboveDebug(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	RawBytes(zap.New(core), "Received datagram", []byte{1, 2, 3})
	RawBytes(nil, "Received datagram", []byte{1, 2, 3})

	if logs.Len() != 0 {
		t.Errorf("got %d entries, want 0", logs.Len())
	}
}
