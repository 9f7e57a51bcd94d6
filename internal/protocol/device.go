package protocol

import (
	"encoding/json"
	"fmt"
	"strings"
)

// DeviceType is the inferred device class.
type DeviceType int

const (
	DeviceCamera DeviceType = iota
	DeviceRecorder
)

// String returns "camera" or "recorder".
func (t DeviceType) String() string {
	if t == DeviceRecorder {
		return "recorder"
	}
	return "camera"
}

// Label returns the capitalised form used in human-readable output.
func (t DeviceType) Label() string {
	if t == DeviceRecorder {
		return "Recorder"
	}
	return "Camera"
}

// MarshalJSON encodes the type as its string form.
func (t DeviceType) MarshalJSON() ([]byte, error) {
	return json.Marshal(t.String())
}

// UnmarshalJSON accepts "camera" or "recorder".
func (t *DeviceType) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	parsed, err := ParseDeviceType(s)
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}

// ParseDeviceType parses "camera" or "recorder" (case-insensitive).
func ParseDeviceType(s string) (DeviceType, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "camera":
		return DeviceCamera, nil
	case "recorder":
		return DeviceRecorder, nil
	default:
		return DeviceCamera, fmt.Errorf("unknown device type %q", s)
	}
}

// NetworkMode is the device's IP assignment method.
type NetworkMode struct {
	Value byte
	Known bool // false when neither the TLV nor the fallback offset was present
}

// Network modes reported by devices.
var (
	NetworkDHCP         = NetworkMode{Value: 0, Known: true}
	NetworkStatic       = NetworkMode{Value: 2, Known: true}
	NetworkAutoIP       = NetworkMode{Value: 4, Known: true}
	NetworkAutoAdvanced = NetworkMode{Value: 5, Known: true}
)

// String returns the display name, "Unknown (n)" for unrecognised values
// and "Unknown" when no value was present.
func (m NetworkMode) String() string {
	if !m.Known {
		return "Unknown"
	}
	if name, ok := networkModeNames[m.Value]; ok {
		return name
	}
	return fmt.Sprintf("Unknown (%d)", m.Value)
}

// DeviceRecord is one device decoded from a search response.
// Records are values; callers own what they receive.
type DeviceRecord struct {
	DeviceType        DeviceType
	MACAddress        string
	ModelName         string
	IPAddress         string
	SubnetMask        string
	Gateway           string
	HTTPPort          uint16
	FirmwareVersion   string
	DeviceName        string
	SerialNumber      string
	NetworkMode       NetworkMode
	RawDeviceTypeCode *byte
	ResponseType      uint16
}

// deviceRecordJSON is the wire shape used by the JSON output and the
// tracker input.
type deviceRecordJSON struct {
	DeviceType      DeviceType `json:"device_type"`
	MACAddress      string     `json:"mac_address"`
	ModelName       string     `json:"model_name"`
	IPAddress       string     `json:"ip_address"`
	SubnetMask      string     `json:"subnet_mask"`
	Gateway         string     `json:"gateway"`
	HTTPPort        uint16     `json:"http_port"`
	FirmwareVersion string     `json:"firmware_version"`
	DeviceName      string     `json:"device_name"`
	SerialNumber    string     `json:"serial_number"`
	NetworkMode     string     `json:"network_mode"`
	DeviceTypeCode  *byte      `json:"device_type_code"`
}

// MarshalJSON renders the record with snake_case keys and the network mode
// as its display name.
func (d DeviceRecord) MarshalJSON() ([]byte, error) {
	return json.Marshal(deviceRecordJSON{
		DeviceType:      d.DeviceType,
		MACAddress:      d.MACAddress,
		ModelName:       d.ModelName,
		IPAddress:       d.IPAddress,
		SubnetMask:      d.SubnetMask,
		Gateway:         d.Gateway,
		HTTPPort:        d.HTTPPort,
		FirmwareVersion: d.FirmwareVersion,
		DeviceName:      d.DeviceName,
		SerialNumber:    d.SerialNumber,
		NetworkMode:     d.NetworkMode.String(),
		DeviceTypeCode:  d.RawDeviceTypeCode,
	})
}

// UnmarshalJSON reads the shape written by MarshalJSON.
func (d *DeviceRecord) UnmarshalJSON(data []byte) error {
	var raw deviceRecordJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*d = DeviceRecord{
		DeviceType:        raw.DeviceType,
		MACAddress:        raw.MACAddress,
		ModelName:         raw.ModelName,
		IPAddress:         raw.IPAddress,
		SubnetMask:        raw.SubnetMask,
		Gateway:           raw.Gateway,
		HTTPPort:          raw.HTTPPort,
		FirmwareVersion:   raw.FirmwareVersion,
		DeviceName:        raw.DeviceName,
		SerialNumber:      raw.SerialNumber,
		NetworkMode:       ParseNetworkMode(raw.NetworkMode),
		RawDeviceTypeCode: raw.DeviceTypeCode,
	}
	return nil
}

// ParseNetworkMode maps a display name back to a mode.
func ParseNetworkMode(s string) NetworkMode {
	for v, name := range networkModeNames {
		if name == s {
			return NetworkMode{Value: v, Known: true}
		}
	}
	var v int
	if _, err := fmt.Sscanf(s, "Unknown (%d)", &v); err == nil && v >= 0 && v <= 255 {
		return NetworkMode{Value: byte(v), Known: true}
	}
	return NetworkMode{}
}

// String returns a multi-line human-readable description.
func (d DeviceRecord) String() string {
	return fmt.Sprintf("%s: %s\n"+
		"  Model: %s\n"+
		"  Serial: %s\n"+
		"  MAC: %s\n"+
		"  IP: %s\n"+
		"  Subnet: %s\n"+
		"  Gateway: %s\n"+
		"  HTTP Port: %d\n"+
		"  Network Mode: %s\n"+
		"  Firmware: %s",
		d.DeviceType.Label(), d.DeviceName,
		d.ModelName,
		d.SerialNumber,
		d.MACAddress,
		d.IPAddress,
		d.SubnetMask,
		d.Gateway,
		d.HTTPPort,
		d.NetworkMode,
		d.FirmwareVersion,
	)
}

// Identifier returns the serial number, or the MAC when no serial was
// reported.
func (d DeviceRecord) Identifier() string {
	if d.SerialNumber == "" || d.SerialNumber == DefaultSerial {
		return d.MACAddress
	}
	return d.SerialNumber
}
