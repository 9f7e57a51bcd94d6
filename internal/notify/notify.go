// Package notify publishes tracker events to external consumers.
package notify

import (
	"time"

	"github.com/muurk/easyip/internal/discovery"
	"github.com/muurk/easyip/internal/tracker"
)

// Event kinds.
const (
	KindDeviceNew    = "device_new"
	KindIPChanged    = "ip_changed"
	KindIPConflict   = "ip_conflict"
	KindScanComplete = "scan_complete"
)

// Event is one notification. Fields that do not apply to a kind are left
// empty.
type Event struct {
	Kind        string    `json:"event"`
	Timestamp   time.Time `json:"timestamp"`
	MACAddress  string    `json:"mac_address,omitempty"`
	IPAddress   string    `json:"ip_address,omitempty"`
	OldIP       string    `json:"old_ip,omitempty"`
	DeviceName  string    `json:"device_name,omitempty"`
	ModelName   string    `json:"model_name,omitempty"`
	DeviceType  string    `json:"device_type,omitempty"`
	Identifiers []string  `json:"identifiers,omitempty"`
	Devices     int       `json:"devices,omitempty"`
	NewDevices  int       `json:"new_devices,omitempty"`
	Conflicts   int       `json:"conflicts,omitempty"`
}

// Publisher delivers events.
type Publisher interface {
	Publish(Event) error
	Close() error
}

// Nop discards every event.
type Nop struct{}

func (Nop) Publish(Event) error { return nil }
func (Nop) Close() error        { return nil }

// EventsFromUpdate turns a tracker update and the scan's IP conflicts into
// events: one per new device, one per address change, one per conflicting
// IP in address order, then a closing scan_complete.
func EventsFromUpdate(result tracker.UpdateResult, conflicts map[string][]string, now time.Time) []Event {
	var events []Event

	for _, h := range result.New {
		events = append(events, Event{
			Kind:       KindDeviceNew,
			Timestamp:  now,
			MACAddress: h.MACAddress,
			IPAddress:  h.CurrentIP,
			DeviceName: h.DeviceName,
			ModelName:  h.ModelName,
			DeviceType: h.DeviceType.String(),
		})
	}
	for _, u := range result.IPChanged {
		events = append(events, Event{
			Kind:       KindIPChanged,
			Timestamp:  now,
			MACAddress: u.Device.MACAddress,
			IPAddress:  u.Changes.NewIP,
			OldIP:      u.Changes.OldIP,
			DeviceName: u.Device.DeviceName,
			ModelName:  u.Device.ModelName,
			DeviceType: u.Device.DeviceType.String(),
		})
	}
	for _, ip := range discovery.ConflictIPs(conflicts) {
		events = append(events, Event{
			Kind:        KindIPConflict,
			Timestamp:   now,
			IPAddress:   ip,
			Identifiers: conflicts[ip],
		})
	}

	return append(events, Event{
		Kind:       KindScanComplete,
		Timestamp:  now,
		Devices:    result.Seen,
		NewDevices: len(result.New),
		Conflicts:  len(conflicts),
	})
}

// PublishAll sends events in order and stops at the first failure.
func PublishAll(p Publisher, events []Event) error {
	for _, e := range events {
		if err := p.Publish(e); err != nil {
			return err
		}
	}
	return nil
}
