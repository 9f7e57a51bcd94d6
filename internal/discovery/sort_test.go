package discovery

import (
	"reflect"
	"testing"

	"github.com/muurk/easyip/internal/protocol"
)

func rec(mac, ip, serial string, typ protocol.DeviceType) protocol.DeviceRecord {
	return protocol.DeviceRecord{MACAddress: mac, IPAddress: ip, SerialNumber: serial, DeviceType: typ}
}

func macs(devices []protocol.DeviceRecord) []string {
	out := make([]string, len(devices))
	for i, d := range devices {
		out[i] = d.MACAddress
	}
	return out
}

func TestSort(t *testing.T) {
	devices := []protocol.DeviceRecord{
		rec("aa:00:00:00:00:03", "192.168.1.100", "S2", protocol.DeviceRecorder),
		rec("aa:00:00:00:00:01", "not-an-ip", "S3", protocol.DeviceCamera),
		rec("AA-00-00-00-00-02", "192.168.1.20", "S1", protocol.DeviceCamera),
		rec("aa:00:00:00:00:04", "192.168.1.9", "S0", protocol.DeviceRecorder),
	}

	tests := []struct {
		key  SortKey
		want []string
	}{
		{SortByIP, []string{"aa:00:00:00:00:04", "AA-00-00-00-00-02", "aa:00:00:00:00:03", "aa:00:00:00:00:01"}},
		{SortByMAC, []string{"aa:00:00:00:00:01", "AA-00-00-00-00-02", "aa:00:00:00:00:03", "aa:00:00:00:00:04"}},
		{SortBySerial, []string{"aa:00:00:00:00:04", "AA-00-00-00-00-02", "aa:00:00:00:00:03", "aa:00:00:00:00:01"}},
		{SortByType, []string{"AA-00-00-00-00-02", "aa:00:00:00:00:01", "aa:00:00:00:00:04", "aa:00:00:00:00:03"}},
		{SortKey("bogus"), []string{"aa:00:00:00:00:04", "AA-00-00-00-00-02", "aa:00:00:00:00:03", "aa:00:00:00:00:01"}},
	}

	for _, tt := range tests {
		t.Run(string(tt.key), func(t *testing.T) {
			got := macs(Sort(devices, tt.key))
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("Sort(%s) = %v, want %v", tt.key, got, tt.want)
			}
		})
	}

	if devices[0].MACAddress != "aa:00:00:00:00:03" {
		t.Error("Sort modified its input")
	}
}

func TestSortIsStable(t *testing.T) {
	devices := []protocol.DeviceRecord{
		rec("01", "10.0.0.1", "", protocol.DeviceCamera),
		rec("02", "10.0.0.1", "", protocol.DeviceCamera),
		rec("03", "bad", "", protocol.DeviceCamera),
		rec("04", "also bad", "", protocol.DeviceCamera),
	}
	got := macs(Sort(devices, SortByIP))
	want := []string{"01", "02", "03", "04"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Sort() = %v, want %v", got, want)
	}
}

func TestIPSortKey(t *testing.T) {
	tests := []struct {
		ip   string
		want [4]int
	}{
		{"10.0.0.1", [4]int{10, 0, 0, 1}},
		{"192.168.1.256", [4]int{255, 255, 255, 255}},
		{"1.2.3", [4]int{255, 255, 255, 255}},
		{"", [4]int{255, 255, 255, 255}},
		{"a.b.c.d", [4]int{255, 255, 255, 255}},
	}
	for _, tt := range tests {
		if got := ipSortKey(tt.ip); got != tt.want {
			t.Errorf("ipSortKey(%q) = %v, want %v", tt.ip, got, tt.want)
		}
	}
}

func TestParseSortKey(t *testing.T) {
	for _, s := range []string{"ip", "MAC", " serial ", "type"} {
		if _, err := ParseSortKey(s); err != nil {
			t.Errorf("ParseSortKey(%q) error = %v", s, err)
		}
	}
	key, err := ParseSortKey("name")
	if err == nil {
		t.Error("ParseSortKey(name) expected error")
	}
	if key != SortByIP {
		t.Errorf("ParseSortKey(name) = %q, want fallback ip", key)
	}
}

func TestDetectConflicts(t *testing.T) {
	devices := []protocol.DeviceRecord{
		rec("aa:00:00:00:00:01", "192.168.1.50", "CAM1", protocol.DeviceCamera),
		rec("aa:00:00:00:00:02", "192.168.1.50", "Unknown", protocol.DeviceCamera),
		rec("aa:00:00:00:00:03", "192.168.1.51", "CAM3", protocol.DeviceCamera),
		rec("aa:00:00:00:00:04", "192.168.1.2", "", protocol.DeviceRecorder),
		rec("aa:00:00:00:00:05", "192.168.1.2", "REC5", protocol.DeviceRecorder),
		rec("aa:00:00:00:00:06", "192.168.1.2", "REC6", protocol.DeviceRecorder),
	}

	got := DetectConflicts(devices)
	want := map[string][]string{
		"192.168.1.50": {"CAM1", "aa:00:00:00:00:02"},
		"192.168.1.2":  {"aa:00:00:00:00:04", "REC5", "REC6"},
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("DetectConflicts() = %v, want %v", got, want)
	}

	if ips := ConflictIPs(got); !reflect.DeepEqual(ips, []string{"192.168.1.2", "192.168.1.50"}) {
		t.Errorf("ConflictIPs() = %v", ips)
	}
}

func TestDetectConflictsNone(t *testing.T) {
	devices := []protocol.DeviceRecord{
		rec("aa:00:00:00:00:01", "10.0.0.1", "A", protocol.DeviceCamera),
		rec("aa:00:00:00:00:02", "10.0.0.2", "B", protocol.DeviceCamera),
	}
	if got := DetectConflicts(devices); len(got) != 0 {
		t.Errorf("DetectConflicts() = %v, want empty", got)
	}
	if got := DetectConflicts(nil); len(got) != 0 {
		t.Errorf("DetectConflicts(nil) = %v, want empty", got)
	}
}
