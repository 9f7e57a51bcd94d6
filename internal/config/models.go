package config

import (
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/muurk/easyip/internal/notify"
)

// UngroupedName is the group that collects devices with no other home.
const UngroupedName = "Ungrouped"

// Site is the whole user configuration file: preferences plus the
// operator's grouping of devices.
type Site struct {
	Version     int               `yaml:"version"`
	Name        string            `yaml:"name"`
	Preferences *Preferences      `yaml:"preferences"`
	Columns     *Columns          `yaml:"columns,omitempty"`
	Groups      []*Group          `yaml:"groups,omitempty"`
	Nicknames   map[string]string `yaml:"nicknames,omitempty"` // Keyed by lower-case MAC

	path string
}

// Group is a named, ordered list of device MACs.
type Group struct {
	Name     string   `yaml:"name"`
	Devices  []string `yaml:"devices"`
	Expanded bool     `yaml:"expanded"`
}

// Preferences holds application-wide settings. Durations are in seconds.
type Preferences struct {
	DiscoverTimeout  int               `yaml:"discover_timeout"`
	Interface        string            `yaml:"interface,omitempty"` // Interface name or IPv4; empty binds all
	BroadcastAddress string            `yaml:"broadcast_address"`
	SortBy           string            `yaml:"sort_by"`
	MissingHours     int               `yaml:"missing_hours"`
	MonitorInterval  int               `yaml:"monitor_interval"`
	AutoScanInterval int               `yaml:"auto_scan_interval"`
	DatabasePath     string            `yaml:"database_path,omitempty"` // Empty uses the config directory
	Listen           string            `yaml:"listen"`
	MQTT             notify.MQTTConfig `yaml:"mqtt,omitempty"`
}

// Columns selects the optional columns shown by the terminal UI.
type Columns struct {
	Serial   bool `yaml:"serial"`
	Firmware bool `yaml:"firmware"`
	Port     bool `yaml:"port"`
}

// DefaultPreferences returns the built-in settings.
func DefaultPreferences() *Preferences {
	return &Preferences{
		DiscoverTimeout:  3,
		BroadcastAddress: "255.255.255.255",
		SortBy:           "ip",
		MissingHours:     24,
		MonitorInterval:  60,
		AutoScanInterval: 300,
		Listen:           ":5000",
	}
}

// fillDefaults replaces zero values left by an older or hand-edited file.
func (p *Preferences) fillDefaults() {
	d := DefaultPreferences()
	if p.DiscoverTimeout <= 0 {
		p.DiscoverTimeout = d.DiscoverTimeout
	}
	if p.BroadcastAddress == "" {
		p.BroadcastAddress = d.BroadcastAddress
	}
	if p.SortBy == "" {
		p.SortBy = d.SortBy
	}
	if p.MissingHours <= 0 {
		p.MissingHours = d.MissingHours
	}
	if p.MonitorInterval <= 0 {
		p.MonitorInterval = d.MonitorInterval
	}
	if p.AutoScanInterval <= 0 {
		p.AutoScanInterval = d.AutoScanInterval
	}
	if p.Listen == "" {
		p.Listen = d.Listen
	}
}

func (p *Preferences) DiscoverTimeoutDuration() time.Duration {
	return time.Duration(p.DiscoverTimeout) * time.Second
}

func (p *Preferences) MissingAfter() time.Duration {
	return time.Duration(p.MissingHours) * time.Hour
}

func (p *Preferences) MonitorIntervalDuration() time.Duration {
	return time.Duration(p.MonitorInterval) * time.Second
}

func (p *Preferences) AutoScanIntervalDuration() time.Duration {
	return time.Duration(p.AutoScanInterval) * time.Second
}

// NewSite creates a Site with default values.
func NewSite() *Site {
	return &Site{
		Version:     1,
		Name:        "Untitled Site",
		Preferences: DefaultPreferences(),
		Columns:     &Columns{},
		Nicknames:   make(map[string]string),
	}
}

func normalizeMAC(mac string) string {
	return strings.ToLower(strings.ReplaceAll(strings.TrimSpace(mac), "-", ":"))
}

// Group returns the named group, or nil.
func (s *Site) Group(name string) *Group {
	for _, g := range s.Groups {
		if g.Name == name {
			return g
		}
	}
	return nil
}

// GroupNames returns group names in display order.
func (s *Site) GroupNames() []string {
	names := make([]string, 0, len(s.Groups))
	for _, g := range s.Groups {
		names = append(names, g.Name)
	}
	return names
}

// AddGroup appends an empty group.
func (s *Site) AddGroup(name string) (*Group, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, fmt.Errorf("group name is empty")
	}
	if s.Group(name) != nil {
		return nil, fmt.Errorf("group %q already exists", name)
	}
	g := &Group{Name: name, Expanded: true}
	s.Groups = append(s.Groups, g)
	return g, nil
}

// ensureGroup returns the named group, creating it when missing.
func (s *Site) ensureGroup(name string) *Group {
	if g := s.Group(name); g != nil {
		return g
	}
	g := &Group{Name: name, Expanded: true}
	s.Groups = append(s.Groups, g)
	return g
}

// RemoveGroup deletes a group. Its devices move to the Ungrouped group.
// The Ungrouped group itself can only be removed while empty.
func (s *Site) RemoveGroup(name string) error {
	idx := slices.IndexFunc(s.Groups, func(g *Group) bool { return g.Name == name })
	if idx < 0 {
		return fmt.Errorf("group %q not found", name)
	}
	removed := s.Groups[idx]
	if name == UngroupedName && len(removed.Devices) > 0 {
		return fmt.Errorf("group %q still holds %d devices", name, len(removed.Devices))
	}
	s.Groups = slices.Delete(s.Groups, idx, idx+1)
	if len(removed.Devices) > 0 {
		u := s.ensureGroup(UngroupedName)
		u.Devices = append(u.Devices, removed.Devices...)
	}
	return nil
}

// GroupOf returns the name of the group holding mac.
func (s *Site) GroupOf(mac string) (string, bool) {
	mac = normalizeMAC(mac)
	for _, g := range s.Groups {
		if slices.Contains(g.Devices, mac) {
			return g.Name, true
		}
	}
	return "", false
}

// MoveDevice places mac at the end of group, removing it from any other
// group. The target group must exist.
func (s *Site) MoveDevice(mac, group string) error {
	target := s.Group(group)
	if target == nil {
		return fmt.Errorf("group %q not found", group)
	}
	mac = normalizeMAC(mac)
	for _, g := range s.Groups {
		g.Devices = slices.DeleteFunc(g.Devices, func(m string) bool { return m == mac })
	}
	target.Devices = append(target.Devices, mac)
	return nil
}

// AssignNew adds every MAC not yet in any group to group, creating it if
// needed, and returns the MACs that were added.
func (s *Site) AssignNew(macs []string, group string) []string {
	var added []string
	for _, mac := range macs {
		mac = normalizeMAC(mac)
		if mac == "" {
			continue
		}
		if _, ok := s.GroupOf(mac); ok {
			continue
		}
		g := s.ensureGroup(group)
		g.Devices = append(g.Devices, mac)
		added = append(added, mac)
	}
	return added
}

// SetNickname sets or clears the nickname for mac.
func (s *Site) SetNickname(mac, nickname string) {
	if s.Nicknames == nil {
		s.Nicknames = make(map[string]string)
	}
	mac = normalizeMAC(mac)
	if nickname = strings.TrimSpace(nickname); nickname == "" {
		delete(s.Nicknames, mac)
		return
	}
	s.Nicknames[mac] = nickname
}

// Nickname returns the nickname for mac, if any.
func (s *Site) Nickname(mac string) string {
	return s.Nicknames[normalizeMAC(mac)]
}
