package tracker

import (
	"time"

	"github.com/muurk/easyip/internal/protocol"
)

// Status labels reported for a tracked device.
const (
	StatusActive    = "Active"
	StatusIPChanged = "IP Changed"
	StatusOffline   = "Offline"
	StatusMissing   = "MISSING"
)

// DefaultMissingAfter is how long an unseen device stays Offline before it
// is reported as MISSING.
const DefaultMissingAfter = 24 * time.Hour

// IPChange is one entry in a device's address history. PreviousIP is empty
// for the entry recorded on first sighting.
type IPChange struct {
	IP         string    `json:"ip"`
	PreviousIP string    `json:"previous_ip,omitempty"`
	Timestamp  time.Time `json:"timestamp"`
}

// History is the persisted record of one device, keyed by MAC.
type History struct {
	MACAddress         string              `json:"mac_address"`
	DeviceType         protocol.DeviceType `json:"device_type"`
	SerialNumber       string              `json:"serial_number"`
	ModelName          string              `json:"model_name"`
	DeviceName         string              `json:"device_name"`
	FirmwareVersion    string              `json:"firmware_version"`
	CurrentIP          string              `json:"current_ip"`
	CurrentSubnet      string              `json:"current_subnet"`
	CurrentGateway     string              `json:"current_gateway"`
	CurrentPort        uint16              `json:"current_port"`
	CurrentNetworkMode string              `json:"current_network_mode"`
	FirstSeen          time.Time           `json:"first_seen"`
	LastSeen           time.Time           `json:"last_seen"`
	IPHistory          []IPChange          `json:"ip_history"`
	TotalDiscoveries   int                 `json:"total_discoveries"`
	SeenInLastScan     bool                `json:"seen_in_last_discovery"`
}

// Changes describes what an update changed on an existing device.
type Changes struct {
	IPChanged       bool   `json:"ip_changed"`
	NameChanged     bool   `json:"name_changed"`
	FirmwareChanged bool   `json:"firmware_changed"`
	OldIP           string `json:"old_ip,omitempty"`
	NewIP           string `json:"new_ip,omitempty"`
}

// Updated is a device that was already known before the scan.
type Updated struct {
	Device  History `json:"device"`
	Changes Changes `json:"changes"`
}

// UpdateResult summarises one Update call.
type UpdateResult struct {
	New       []History `json:"new"`
	Updated   []Updated `json:"updated"`
	IPChanged []Updated `json:"ip_changed"`
	Seen      int       `json:"seen"`
}

// newHistory starts tracking a device first seen at now.
func newHistory(rec protocol.DeviceRecord, now time.Time) History {
	return History{
		MACAddress:         rec.MACAddress,
		DeviceType:         rec.DeviceType,
		SerialNumber:       rec.SerialNumber,
		ModelName:          rec.ModelName,
		DeviceName:         rec.DeviceName,
		FirmwareVersion:    rec.FirmwareVersion,
		CurrentIP:          rec.IPAddress,
		CurrentSubnet:      rec.SubnetMask,
		CurrentGateway:     rec.Gateway,
		CurrentPort:        rec.HTTPPort,
		CurrentNetworkMode: rec.NetworkMode.String(),
		FirstSeen:          now,
		LastSeen:           now,
		IPHistory:          []IPChange{{IP: rec.IPAddress, Timestamp: now}},
		TotalDiscoveries:   1,
		SeenInLastScan:     true,
	}
}

// apply folds a fresh sighting into h. Name and firmware only change when
// the new value is non-empty.
func (h *History) apply(rec protocol.DeviceRecord, now time.Time) Changes {
	var c Changes

	if rec.IPAddress != h.CurrentIP {
		c.IPChanged = true
		c.OldIP = h.CurrentIP
		c.NewIP = rec.IPAddress
		h.IPHistory = append(h.IPHistory, IPChange{
			IP:         rec.IPAddress,
			PreviousIP: h.CurrentIP,
			Timestamp:  now,
		})
		h.CurrentIP = rec.IPAddress
	}
	if rec.DeviceName != "" && rec.DeviceName != h.DeviceName {
		c.NameChanged = true
		h.DeviceName = rec.DeviceName
	}
	if rec.FirmwareVersion != "" && rec.FirmwareVersion != h.FirmwareVersion {
		c.FirmwareChanged = true
		h.FirmwareVersion = rec.FirmwareVersion
	}

	h.DeviceType = rec.DeviceType
	h.CurrentSubnet = rec.SubnetMask
	h.CurrentGateway = rec.Gateway
	h.CurrentPort = rec.HTTPPort
	h.CurrentNetworkMode = rec.NetworkMode.String()
	if rec.ModelName != "" {
		h.ModelName = rec.ModelName
	}
	if rec.SerialNumber != "" {
		h.SerialNumber = rec.SerialNumber
	}

	h.LastSeen = now
	h.TotalDiscoveries++
	h.SeenInLastScan = true
	return c
}

// Status classifies h at time now.
func Status(h History, now time.Time, missingAfter time.Duration) string {
	if h.SeenInLastScan {
		if n := len(h.IPHistory); n > 1 && h.IPHistory[n-1].PreviousIP != "" {
			return StatusIPChanged
		}
		return StatusActive
	}
	if now.Sub(h.LastSeen) > missingAfter {
		return StatusMissing
	}
	return StatusOffline
}
