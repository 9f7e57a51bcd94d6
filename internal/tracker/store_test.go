package tracker

import (
	"bytes"
	"encoding/json"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/muurk/easyip/internal/protocol"
)

var t0 = time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "tracker.db"), nil)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func camera(mac, ip, name string) protocol.DeviceRecord {
	return protocol.DeviceRecord{
		DeviceType:      protocol.DeviceCamera,
		MACAddress:      mac,
		IPAddress:       ip,
		SubnetMask:      "255.255.255.0",
		Gateway:         "192.168.1.1",
		HTTPPort:        80,
		DeviceName:      name,
		ModelName:       "WV-S2136",
		FirmwareVersion: "2.10",
		SerialNumber:    "SN-" + name,
		NetworkMode:     protocol.NetworkStatic,
	}
}

func TestUpdateNewDevices(t *testing.T) {
	s := newTestStore(t)

	res, err := s.Update([]protocol.DeviceRecord{
		camera("a0:29:19:00:00:01", "192.168.1.10", "Lobby"),
		camera("a0:29:19:00:00:02", "192.168.1.11", "Dock"),
		{IPAddress: "192.168.1.99"},
	}, t0)
	if err != nil {
		t.Fatal(err)
	}
	if len(res.New) != 2 || len(res.Updated) != 0 || res.Seen != 2 {
		t.Fatalf("result = %d new, %d updated, %d seen", len(res.New), len(res.Updated), res.Seen)
	}

	h, err := s.Get("a0:29:19:00:00:01")
	if err != nil {
		t.Fatal(err)
	}
	if !h.FirstSeen.Equal(t0) || !h.LastSeen.Equal(t0) {
		t.Errorf("first/last = %v/%v, want %v", h.FirstSeen, h.LastSeen, t0)
	}
	if h.TotalDiscoveries != 1 || !h.SeenInLastScan {
		t.Errorf("discoveries = %d seen = %v", h.TotalDiscoveries, h.SeenInLastScan)
	}
	if len(h.IPHistory) != 1 || h.IPHistory[0].IP != "192.168.1.10" || h.IPHistory[0].PreviousIP != "" {
		t.Errorf("ip history = %+v", h.IPHistory)
	}
	if h.CurrentNetworkMode != "Static" {
		t.Errorf("network mode = %q", h.CurrentNetworkMode)
	}
}

func TestUpdateDuplicateMACInBatch(t *testing.T) {
	s := newTestStore(t)

	res, err := s.Update([]protocol.DeviceRecord{
		camera("a0:29:19:00:00:01", "192.168.1.10", "Lobby"),
		camera("A0-29-19-00-00-01", "192.168.1.20", "Lobby"),
	}, t0)
	if err != nil {
		t.Fatal(err)
	}
	if len(res.New) != 1 || len(res.Updated) != 0 || len(res.IPChanged) != 0 || res.Seen != 1 {
		t.Fatalf("result = %d new, %d updated, %d ip changed, %d seen",
			len(res.New), len(res.Updated), len(res.IPChanged), res.Seen)
	}

	h, err := s.Get("a0:29:19:00:00:01")
	if err != nil {
		t.Fatal(err)
	}
	if h.TotalDiscoveries != 1 || h.CurrentIP != "192.168.1.10" || len(h.IPHistory) != 1 {
		t.Errorf("history = %+v", h)
	}
}

func TestUpdateIPChange(t *testing.T) {
	s := newTestStore(t)
	mac := "a0:29:19:00:00:01"

	if _, err := s.Update([]protocol.DeviceRecord{camera(mac, "192.168.1.10", "Lobby")}, t0); err != nil {
		t.Fatal(err)
	}
	later := t0.Add(time.Hour)
	res, err := s.Update([]protocol.DeviceRecord{camera(mac, "192.168.1.20", "Lobby")}, later)
	if err != nil {
		t.Fatal(err)
	}

	if len(res.New) != 0 || len(res.Updated) != 1 || len(res.IPChanged) != 1 {
		t.Fatalf("result = %+v", res)
	}
	c := res.IPChanged[0].Changes
	if c.OldIP != "192.168.1.10" || c.NewIP != "192.168.1.20" {
		t.Errorf("changes = %+v", c)
	}

	h, _ := s.Get(mac)
	if h.CurrentIP != "192.168.1.20" || h.TotalDiscoveries != 2 {
		t.Errorf("ip = %s discoveries = %d", h.CurrentIP, h.TotalDiscoveries)
	}
	if len(h.IPHistory) != 2 || h.IPHistory[1].PreviousIP != "192.168.1.10" || !h.IPHistory[1].Timestamp.Equal(later) {
		t.Errorf("ip history = %+v", h.IPHistory)
	}
	if got := Status(h, later, DefaultMissingAfter); got != StatusIPChanged {
		t.Errorf("Status() = %q, want %q", got, StatusIPChanged)
	}
}

func TestUpdateKeepsNonEmptyNameAndFirmware(t *testing.T) {
	s := newTestStore(t)
	mac := "a0:29:19:00:00:01"
	s.Update([]protocol.DeviceRecord{camera(mac, "192.168.1.10", "Lobby")}, t0)

	blank := camera(mac, "192.168.1.10", "")
	blank.FirmwareVersion = ""
	res, err := s.Update([]protocol.DeviceRecord{blank}, t0.Add(time.Minute))
	if err != nil {
		t.Fatal(err)
	}
	if c := res.Updated[0].Changes; c.NameChanged || c.FirmwareChanged || c.IPChanged {
		t.Errorf("changes = %+v, want none", c)
	}
	h, _ := s.Get(mac)
	if h.DeviceName != "Lobby" || h.FirmwareVersion != "2.10" {
		t.Errorf("name = %q firmware = %q", h.DeviceName, h.FirmwareVersion)
	}

	renamed := camera(mac, "192.168.1.10", "Front Door")
	renamed.FirmwareVersion = "2.20"
	res, _ = s.Update([]protocol.DeviceRecord{renamed}, t0.Add(2*time.Minute))
	if c := res.Updated[0].Changes; !c.NameChanged || !c.FirmwareChanged {
		t.Errorf("changes = %+v, want name and firmware", c)
	}
}

func TestStatus(t *testing.T) {
	seen := History{SeenInLastScan: true, LastSeen: t0, IPHistory: []IPChange{{IP: "10.0.0.1"}}}
	moved := seen
	moved.IPHistory = []IPChange{{IP: "10.0.0.1"}, {IP: "10.0.0.2", PreviousIP: "10.0.0.1"}}
	unseen := History{LastSeen: t0}

	tests := []struct {
		name string
		h    History
		now  time.Time
		want string
	}{
		{"seen", seen, t0, StatusActive},
		{"seen after move", moved, t0, StatusIPChanged},
		{"unseen recently", unseen, t0.Add(time.Hour), StatusOffline},
		{"unseen at window edge", unseen, t0.Add(DefaultMissingAfter), StatusOffline},
		{"unseen past window", unseen, t0.Add(DefaultMissingAfter + time.Second), StatusMissing},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Status(tt.h, tt.now, DefaultMissingAfter); got != tt.want {
				t.Errorf("Status() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestMissingAndStats(t *testing.T) {
	s := newTestStore(t)
	s.Update([]protocol.DeviceRecord{
		camera("a0:29:19:00:00:01", "192.168.1.10", "Lobby"),
		camera("a0:29:19:00:00:02", "192.168.1.11", "Dock"),
	}, t0)

	rec := camera("a0:29:19:00:00:03", "192.168.1.12", "NVR")
	rec.DeviceType = protocol.DeviceRecorder
	later := t0.Add(48 * time.Hour)
	s.Update([]protocol.DeviceRecord{camera("a0:29:19:00:00:01", "192.168.1.10", "Lobby"), rec}, later)

	missing, err := s.Missing(later, DefaultMissingAfter)
	if err != nil {
		t.Fatal(err)
	}
	if len(missing) != 1 || missing[0].MACAddress != "a0:29:19:00:00:02" {
		t.Errorf("Missing() = %+v", missing)
	}

	st, err := s.Stats(later, DefaultMissingAfter)
	if err != nil {
		t.Fatal(err)
	}
	want := Stats{Total: 3, Cameras: 2, Recorders: 1, Active: 2, Missing: 1}
	if st != want {
		t.Errorf("Stats() = %+v, want %+v", st, want)
	}
}

func TestList(t *testing.T) {
	s := newTestStore(t)
	s.Update([]protocol.DeviceRecord{camera("a0:29:19:00:00:02", "192.168.1.100", "bravo")}, t0)
	s.Update([]protocol.DeviceRecord{camera("a0:29:19:00:00:03", "not-an-ip", "Charlie")}, t0.Add(time.Minute))
	s.Update([]protocol.DeviceRecord{camera("a0:29:19:00:00:01", "192.168.1.9", "Alpha")}, t0.Add(2*time.Minute))

	tests := []struct {
		sortBy string
		want   []string
	}{
		{SortLastSeen, []string{"Alpha", "Charlie", "bravo"}},
		{SortFirstSeen, []string{"Alpha", "Charlie", "bravo"}},
		{SortIP, []string{"Alpha", "bravo", "Charlie"}},
		{SortMAC, []string{"Alpha", "bravo", "Charlie"}},
		{SortName, []string{"Alpha", "bravo", "Charlie"}},
		{"bogus", []string{"Alpha", "Charlie", "bravo"}},
	}
	for _, tt := range tests {
		t.Run(tt.sortBy, func(t *testing.T) {
			got, err := s.List(tt.sortBy)
			if err != nil {
				t.Fatal(err)
			}
			var names []string
			for _, h := range got {
				names = append(names, h.DeviceName)
			}
			if len(names) != len(tt.want) {
				t.Fatalf("List() = %v, want %v", names, tt.want)
			}
			for i := range names {
				if names[i] != tt.want[i] {
					t.Errorf("List() = %v, want %v", names, tt.want)
					break
				}
			}
		})
	}
}

func TestGetCaseInsensitive(t *testing.T) {
	s := newTestStore(t)
	s.Update([]protocol.DeviceRecord{camera("a0:29:19:3e:ab:91", "192.168.1.10", "Lobby")}, t0)

	for _, mac := range []string{"A0:29:19:3E:AB:91", "a0-29-19-3e-ab-91"} {
		if _, err := s.Get(mac); err != nil {
			t.Errorf("Get(%q) error = %v", mac, err)
		}
	}
	if _, err := s.Get("00:00:00:00:00:00"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Get(unknown) error = %v, want ErrNotFound", err)
	}
}

func TestPersistsAcrossReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tracker.db")
	s, err := Open(path, nil)
	if err != nil {
		t.Fatal(err)
	}
	s.Update([]protocol.DeviceRecord{camera("a0:29:19:00:00:01", "192.168.1.10", "Lobby")}, t0)
	s.Close()

	s, err = Open(path, nil)
	if err != nil {
		t.Fatal(err)
	}
	defer s.Close()
	h, err := s.Get("a0:29:19:00:00:01")
	if err != nil {
		t.Fatal(err)
	}
	if h.DeviceName != "Lobby" || !h.FirstSeen.Equal(t0) {
		t.Errorf("reopened history = %+v", h)
	}
}

func TestExport(t *testing.T) {
	s := newTestStore(t)
	s.Update([]protocol.DeviceRecord{camera("a0:29:19:00:00:01", "192.168.1.10", "Lobby")}, t0)

	var buf bytes.Buffer
	if err := s.Export(&buf); err != nil {
		t.Fatal(err)
	}
	var got map[string]History
	if err := json.Unmarshal(buf.Bytes(), &got); err != nil {
		t.Fatalf("export is not JSON: %v", err)
	}
	if got["a0:29:19:00:00:01"].CurrentIP != "192.168.1.10" {
		t.Errorf("export = %s", buf.String())
	}
}
