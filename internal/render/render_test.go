package render

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"reflect"
	"strings"
	"testing"

	"github.com/muurk/easyip/internal/protocol"
)

func sampleDevices() []protocol.DeviceRecord {
	code := byte(0x01)
	return []protocol.DeviceRecord{
		{
			DeviceType:        protocol.DeviceCamera,
			MACAddress:        "a0:29:19:00:00:01",
			ModelName:         "WV-S1136",
			IPAddress:         "192.168.1.50",
			SubnetMask:        "255.255.255.0",
			Gateway:           "192.168.1.1",
			HTTPPort:          80,
			FirmwareVersion:   "2.60",
			DeviceName:        "Front Door",
			SerialNumber:      "CAM1",
			NetworkMode:       protocol.NetworkStatic,
			RawDeviceTypeCode: &code,
		},
		{
			DeviceType:      protocol.DeviceRecorder,
			MACAddress:      "a0:29:19:00:00:02",
			ModelName:       "NX400",
			IPAddress:       "192.168.1.60",
			SubnetMask:      "255.255.255.0",
			Gateway:         "192.168.1.1",
			HTTPPort:        8080,
			FirmwareVersion: "Unknown",
			DeviceName:      "Recorder, main",
			SerialNumber:    "REC1",
			NetworkMode:     protocol.NetworkDHCP,
		},
	}
}

func TestTable(t *testing.T) {
	var buf bytes.Buffer
	if err := Table(&buf, sampleDevices(), true); err != nil {
		t.Fatalf("Table() error = %v", err)
	}
	out := buf.String()

	for _, want := range []string{"MAC Address", "a0:29:19:00:00:01", "NX400", "8080", "Total devices discovered: 2", "Cameras: 1", "Recorders: 1"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
	if strings.Contains(out, ConflictMarker) {
		t.Errorf("unexpected conflict marker:\n%s", out)
	}
}

func TestTableConflicts(t *testing.T) {
	devices := sampleDevices()
	devices[1].IPAddress = devices[0].IPAddress

	var buf bytes.Buffer
	if err := Table(&buf, devices, true); err != nil {
		t.Fatalf("Table() error = %v", err)
	}
	out := buf.String()

	if got := strings.Count(out, ConflictMarker); got != 2 {
		t.Errorf("conflict markers = %d, want 2:\n%s", got, out)
	}
	for _, want := range []string{"IP ADDRESS CONFLICTS DETECTED", "IP 192.168.1.50 is assigned to 2 devices", "- CAM1", "- REC1"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}

	buf.Reset()
	if err := Table(&buf, devices, false); err != nil {
		t.Fatalf("Table() error = %v", err)
	}
	if strings.Contains(buf.String(), "CONFLICT") {
		t.Error("warnings shown with showWarnings=false")
	}
}

func TestTableEmpty(t *testing.T) {
	var buf bytes.Buffer
	if err := Table(&buf, nil, true); err != nil {
		t.Fatalf("Table() error = %v", err)
	}
	if strings.TrimSpace(buf.String()) != "No devices discovered." {
		t.Errorf("output = %q", buf.String())
	}
}

func TestCSV(t *testing.T) {
	var buf bytes.Buffer
	if err := CSV(&buf, sampleDevices()); err != nil {
		t.Fatalf("CSV() error = %v", err)
	}

	records, err := csv.NewReader(&buf).ReadAll()
	if err != nil {
		t.Fatalf("output is not valid CSV: %v", err)
	}
	if len(records) != 3 {
		t.Fatalf("rows = %d, want 3", len(records))
	}
	if !reflect.DeepEqual(records[0], CSVHeaders) {
		t.Errorf("headers = %v", records[0])
	}
	want := []string{"recorder", "Recorder, main", "NX400", "REC1", "a0:29:19:00:00:02", "192.168.1.60", "255.255.255.0", "192.168.1.1", "8080", "DHCP", "Unknown"}
	if !reflect.DeepEqual(records[2], want) {
		t.Errorf("row = %v, want %v", records[2], want)
	}
}

func TestJSON(t *testing.T) {
	var buf bytes.Buffer
	if err := JSON(&buf, sampleDevices()); err != nil {
		t.Fatalf("JSON() error = %v", err)
	}

	var raw map[string]any
	if err := json.Unmarshal(buf.Bytes(), &raw); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if raw["count"] != float64(2) || raw["cameras"] != float64(1) || raw["recorders"] != float64(1) {
		t.Errorf("counts = %v %v %v", raw["count"], raw["cameras"], raw["recorders"])
	}
	first := raw["devices"].([]any)[0].(map[string]any)
	for key, want := range map[string]any{
		"device_type":      "camera",
		"mac_address":      "a0:29:19:00:00:01",
		"http_port":        float64(80),
		"network_mode":     "Static",
		"device_type_code": float64(1),
	} {
		if first[key] != want {
			t.Errorf("%s = %v, want %v", key, first[key], want)
		}
	}
	second := raw["devices"].([]any)[1].(map[string]any)
	if v, ok := second["device_type_code"]; !ok || v != nil {
		t.Errorf("device_type_code = %v (present %v), want null", v, ok)
	}
}

func TestJSONEmptyListIsArray(t *testing.T) {
	var buf bytes.Buffer
	if err := JSON(&buf, nil); err != nil {
		t.Fatalf("JSON() error = %v", err)
	}
	if !strings.Contains(buf.String(), `"devices": []`) {
		t.Errorf("output = %s", buf.String())
	}
}

func TestParseDiscoveryJSON(t *testing.T) {
	devices := sampleDevices()

	var buf bytes.Buffer
	if err := JSON(&buf, devices); err != nil {
		t.Fatalf("JSON() error = %v", err)
	}
	got, err := ParseDiscoveryJSON(&buf)
	if err != nil {
		t.Fatalf("ParseDiscoveryJSON() error = %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("devices = %d, want 2", len(got))
	}
	if got[0].NetworkMode != protocol.NetworkStatic || got[1].DeviceType != protocol.DeviceRecorder {
		t.Errorf("decoded = %+v", got)
	}
	if got[0].RawDeviceTypeCode == nil || *got[0].RawDeviceTypeCode != 1 {
		t.Errorf("device type code = %v", got[0].RawDeviceTypeCode)
	}

	arr, err := json.Marshal(devices)
	if err != nil {
		t.Fatal(err)
	}
	got, err = ParseDiscoveryJSON(bytes.NewReader(arr))
	if err != nil || len(got) != 2 {
		t.Errorf("bare array: %v, %d devices", err, len(got))
	}

	if _, err := ParseDiscoveryJSON(strings.NewReader("not json")); err == nil {
		t.Error("expected error for invalid input")
	}
}

func TestText(t *testing.T) {
	var buf bytes.Buffer
	if err := Text(&buf, sampleDevices()); err != nil {
		t.Fatalf("Text() error = %v", err)
	}
	out := buf.String()
	for _, want := range []string{"Discovered 2 device(s):", "[1] Camera: Front Door", "[2] Recorder: Recorder, main", "  Network Mode: DHCP"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}

func TestDevicesDispatch(t *testing.T) {
	var buf bytes.Buffer
	if err := Devices(&buf, FormatCSV, sampleDevices()); err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(buf.String(), "Device Type,") {
		t.Errorf("csv output = %q", buf.String())
	}
}
