package discovery

import (
	"cmp"
	"fmt"
	"slices"
	"strconv"
	"strings"

	"github.com/muurk/easyip/internal/protocol"
)

// SortKey selects the ordering applied by Sort.
type SortKey string

const (
	SortByIP     SortKey = "ip"
	SortByMAC    SortKey = "mac"
	SortBySerial SortKey = "serial"
	SortByType   SortKey = "type"
)

// SortKeys lists the accepted keys in help-text order.
var SortKeys = []SortKey{SortByIP, SortByMAC, SortBySerial, SortByType}

// ParseSortKey validates a user-supplied sort key.
func ParseSortKey(s string) (SortKey, error) {
	key := SortKey(strings.ToLower(strings.TrimSpace(s)))
	if slices.Contains(SortKeys, key) {
		return key, nil
	}
	return SortByIP, fmt.Errorf("invalid sort key %q (want ip, mac, serial or type)", s)
}

// Sort returns a sorted copy of devices. Unknown keys sort by IP. The sort
// is stable.
func Sort(devices []protocol.DeviceRecord, key SortKey) []protocol.DeviceRecord {
	out := slices.Clone(devices)

	var less func(a, b protocol.DeviceRecord) int
	switch key {
	case SortByMAC:
		less = func(a, b protocol.DeviceRecord) int {
			return strings.Compare(macSortKey(a.MACAddress), macSortKey(b.MACAddress))
		}
	case SortBySerial:
		less = func(a, b protocol.DeviceRecord) int {
			return strings.Compare(a.SerialNumber, b.SerialNumber)
		}
	case SortByType:
		less = func(a, b protocol.DeviceRecord) int {
			if c := cmp.Compare(a.DeviceType, b.DeviceType); c != 0 {
				return c
			}
			return compareIP(a.IPAddress, b.IPAddress)
		}
	default:
		less = func(a, b protocol.DeviceRecord) int {
			return compareIP(a.IPAddress, b.IPAddress)
		}
	}

	slices.SortStableFunc(out, less)
	return out
}

// ipSortKey returns the four octets of a dotted quad. Anything that does not
// parse sorts last.
func ipSortKey(ip string) [4]int {
	parts := strings.Split(ip, ".")
	if len(parts) != 4 {
		return [4]int{255, 255, 255, 255}
	}
	var key [4]int
	for i, p := range parts {
		v, err := strconv.Atoi(p)
		if err != nil || v < 0 || v > 255 {
			return [4]int{255, 255, 255, 255}
		}
		key[i] = v
	}
	return key
}

func compareIP(a, b string) int {
	ka, kb := ipSortKey(a), ipSortKey(b)
	for i := range ka {
		if c := cmp.Compare(ka[i], kb[i]); c != 0 {
			return c
		}
	}
	return 0
}

func macSortKey(mac string) string {
	return strings.NewReplacer(":", "", "-", "").Replace(strings.ToUpper(mac))
}

// DetectConflicts groups devices by IP and returns the addresses claimed by
// more than one device, each mapped to the identifiers of its claimants.
func DetectConflicts(devices []protocol.DeviceRecord) map[string][]string {
	byIP := make(map[string][]string)
	for _, d := range devices {
		byIP[d.IPAddress] = append(byIP[d.IPAddress], d.Identifier())
	}

	conflicts := make(map[string][]string)
	for ip, ids := range byIP {
		if len(ids) > 1 {
			conflicts[ip] = ids
		}
	}
	return conflicts
}

// ConflictIPs returns the conflicting addresses in IP order.
func ConflictIPs(conflicts map[string][]string) []string {
	ips := make([]string, 0, len(conflicts))
	for ip := range conflicts {
		ips = append(ips, ip)
	}
	slices.SortFunc(ips, func(a, b string) int {
		if c := compareIP(a, b); c != 0 {
			return c
		}
		return strings.Compare(a, b)
	})
	return ips
}
