package render

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/muurk/easyip/internal/protocol"
	"github.com/muurk/easyip/internal/tracker"
)

func TestHistoryTable(t *testing.T) {
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	devices := []tracker.History{
		{
			MACAddress:       "a0:29:19:00:00:01",
			DeviceType:       protocol.DeviceCamera,
			CurrentIP:        "192.168.1.50",
			DeviceName:       "Front Door",
			LastSeen:         now,
			SeenInLastScan:   true,
			TotalDiscoveries: 3,
			IPHistory:        []tracker.IPChange{{IP: "192.168.1.50", Timestamp: now}},
		},
		{
			MACAddress: "a0:29:19:00:00:02",
			CurrentIP:  "192.168.1.60",
			LastSeen:   now.Add(-48 * time.Hour),
		},
	}

	var buf bytes.Buffer
	if err := History(&buf, devices, now, tracker.DefaultMissingAfter); err != nil {
		t.Fatal(err)
	}
	out := buf.String()
	for _, want := range []string{"MAC Address", "Front Door", "Active", "MISSING", "Tracked devices: 2"} {
		if !strings.Contains(out, want) {
			t.Errorf("missing %q in:\n%s", want, out)
		}
	}
}

func TestHistoryEmpty(t *testing.T) {
	var buf bytes.Buffer
	if err := History(&buf, nil, time.Now(), time.Hour); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(buf.String(), "No devices tracked") {
		t.Errorf("got %q", buf.String())
	}
}

func TestDeviceHistory(t *testing.T) {
	first := time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)
	moved := first.Add(2 * time.Hour)
	h := tracker.History{
		MACAddress:     "a0:29:19:00:00:01",
		DeviceType:     protocol.DeviceRecorder,
		CurrentIP:      "10.0.0.9",
		FirstSeen:      first,
		LastSeen:       moved,
		SeenInLastScan: true,
		IPHistory: []tracker.IPChange{
			{IP: "10.0.0.5", Timestamp: first},
			{IP: "10.0.0.9", PreviousIP: "10.0.0.5", Timestamp: moved},
		},
	}

	var buf bytes.Buffer
	if err := DeviceHistory(&buf, h, moved, time.Hour); err != nil {
		t.Fatal(err)
	}
	out := buf.String()
	for _, want := range []string{"Recorder a0:29:19:00:00:01", "IP Changed", "10.0.0.5 (first seen)", "10.0.0.5 -> 10.0.0.9", "Device Name:     -"} {
		if !strings.Contains(out, want) {
			t.Errorf("missing %q in:\n%s", want, out)
		}
	}
}

func TestStats(t *testing.T) {
	var buf bytes.Buffer
	if err := Stats(&buf, tracker.Stats{Total: 4, Cameras: 3, Recorders: 1, Active: 2, Missing: 1, Offline: 1}); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(buf.String(), "Tracked devices: 4") || !strings.Contains(buf.String(), "Missing:    1") {
		t.Errorf("got:\n%s", buf.String())
	}
}
