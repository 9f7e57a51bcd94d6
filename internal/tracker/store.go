package tracker

import (
	"cmp"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/netip"
	"slices"
	"strings"
	"time"

	bolt "go.etcd.io/bbolt"
	"go.uber.org/zap"

	"github.com/muurk/easyip/internal/logging"
	"github.com/muurk/easyip/internal/protocol"
)

// ErrNotFound is returned when a device is not in the store.
var ErrNotFound = errors.New("not found")

var bucketDevices = []byte("devices")

// Sort orders accepted by List.
const (
	SortLastSeen  = "last_seen"
	SortFirstSeen = "first_seen"
	SortIP        = "ip"
	SortMAC       = "mac"
	SortName      = "name"
)

// SortOrders lists the accepted List orders.
var SortOrders = []string{SortLastSeen, SortFirstSeen, SortIP, SortMAC, SortName}

// Store persists device history in a bbolt database.
type Store struct {
	db     *bolt.DB
	logger *zap.Logger
}

// Open opens or creates the database at path.
func Open(path string, logger *zap.Logger) (*Store, error) {
	db, err := bolt.Open(path, 0600, &bolt.Options{Timeout: 5 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("open tracker db: %w", err)
	}
	err = db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(bucketDevices)
		return err
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("create buckets: %w", err)
	}
	return &Store{db: db, logger: logging.OrNop(logger)}, nil
}

// Close releases the database file.
func (s *Store) Close() error {
	return s.db.Close()
}

// macKey normalises a MAC to the stored key form.
func macKey(mac string) []byte {
	return []byte(strings.ToLower(strings.ReplaceAll(mac, "-", ":")))
}

// Update records the outcome of one scan. Every stored device is first
// marked unseen; each record is then inserted or merged. Records without a
// MAC are skipped, as are repeats of a MAC already seen in records (the
// first wins). The whole scan commits in a single transaction.
func (s *Store) Update(records []protocol.DeviceRecord, now time.Time) (UpdateResult, error) {
	var result UpdateResult

	err := s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucketDevices)

		existing := make(map[string]History, b.Stats().KeyN)
		err := b.ForEach(func(k, v []byte) error {
			var h History
			if err := json.Unmarshal(v, &h); err != nil {
				return fmt.Errorf("decode %s: %w", k, err)
			}
			h.SeenInLastScan = false
			existing[string(k)] = h
			return nil
		})
		if err != nil {
			return err
		}

		handled := make(map[string]bool, len(records))
		for _, rec := range records {
			if rec.MACAddress == "" {
				continue
			}
			key := string(macKey(rec.MACAddress))
			if handled[key] {
				continue
			}
			handled[key] = true
			result.Seen++

			h, ok := existing[key]
			if !ok {
				h = newHistory(rec, now)
				existing[key] = h
				result.New = append(result.New, h)
				continue
			}
			changes := h.apply(rec, now)
			existing[key] = h
			u := Updated{Device: h, Changes: changes}
			result.Updated = append(result.Updated, u)
			if changes.IPChanged {
				result.IPChanged = append(result.IPChanged, u)
			}
		}

		for key, h := range existing {
			data, err := json.Marshal(h)
			if err != nil {
				return err
			}
			if err := b.Put([]byte(key), data); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return UpdateResult{}, fmt.Errorf("update tracker: %w", err)
	}

	s.logger.Debug("Tracker updated",
		zap.Int("seen", result.Seen),
		zap.Int("new", len(result.New)),
		zap.Int("updated", len(result.Updated)),
		zap.Int("ip_changed", len(result.IPChanged)))
	return result, nil
}

// Get returns the history for mac. Case and separator style are ignored.
func (s *Store) Get(mac string) (History, error) {
	var h History
	err := s.db.View(func(tx *bolt.Tx) error {
		data := tx.Bucket(bucketDevices).Get(macKey(mac))
		if data == nil {
			return fmt.Errorf("device %s: %w", mac, ErrNotFound)
		}
		return json.Unmarshal(data, &h)
	})
	return h, err
}

// all returns every stored device in key order.
func (s *Store) all() ([]History, error) {
	var out []History
	err := s.db.View(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucketDevices)
		out = make([]History, 0, b.Stats().KeyN)
		return b.ForEach(func(k, v []byte) error {
			var h History
			if err := json.Unmarshal(v, &h); err != nil {
				return fmt.Errorf("decode %s: %w", k, err)
			}
			out = append(out, h)
			return nil
		})
	})
	return out, err
}

// List returns all devices ordered by sortBy. Timestamps sort newest first;
// an unknown order falls back to last_seen.
func (s *Store) List(sortBy string) ([]History, error) {
	devices, err := s.all()
	if err != nil {
		return nil, err
	}
	SortHistory(devices, sortBy)
	return devices, nil
}

// SortHistory orders devices in place.
func SortHistory(devices []History, sortBy string) {
	switch sortBy {
	case SortFirstSeen:
		slices.SortStableFunc(devices, func(a, b History) int { return b.FirstSeen.Compare(a.FirstSeen) })
	case SortIP:
		slices.SortStableFunc(devices, func(a, b History) int { return ipKey(a.CurrentIP).Compare(ipKey(b.CurrentIP)) })
	case SortMAC:
		slices.SortStableFunc(devices, func(a, b History) int { return cmp.Compare(a.MACAddress, b.MACAddress) })
	case SortName:
		slices.SortStableFunc(devices, func(a, b History) int {
			return cmp.Compare(strings.ToLower(a.DeviceName), strings.ToLower(b.DeviceName))
		})
	default:
		slices.SortStableFunc(devices, func(a, b History) int { return b.LastSeen.Compare(a.LastSeen) })
	}
}

// ipKey sorts unparseable addresses after every valid one.
func ipKey(ip string) netip.Addr {
	addr, err := netip.ParseAddr(ip)
	if err != nil || !addr.Is4() {
		return netip.AddrFrom4([4]byte{255, 255, 255, 255})
	}
	return addr
}

// Missing returns devices absent from the last scan and unseen for longer
// than missingAfter.
func (s *Store) Missing(now time.Time, missingAfter time.Duration) ([]History, error) {
	devices, err := s.all()
	if err != nil {
		return nil, err
	}
	var out []History
	for _, h := range devices {
		if Status(h, now, missingAfter) == StatusMissing {
			out = append(out, h)
		}
	}
	return out, nil
}

// Stats counts devices per status and class.
type Stats struct {
	Total     int `json:"total"`
	Cameras   int `json:"cameras"`
	Recorders int `json:"recorders"`
	Active    int `json:"active"`
	IPChanged int `json:"ip_changed"`
	Offline   int `json:"offline"`
	Missing   int `json:"missing"`
}

// Stats summarises the store at time now.
func (s *Store) Stats(now time.Time, missingAfter time.Duration) (Stats, error) {
	devices, err := s.all()
	if err != nil {
		return Stats{}, err
	}
	return Summarise(devices, now, missingAfter), nil
}

// Summarise counts devices per status and class.
func Summarise(devices []History, now time.Time, missingAfter time.Duration) Stats {
	st := Stats{Total: len(devices)}
	for _, h := range devices {
		if h.DeviceType == protocol.DeviceRecorder {
			st.Recorders++
		} else {
			st.Cameras++
		}
		switch Status(h, now, missingAfter) {
		case StatusActive:
			st.Active++
		case StatusIPChanged:
			st.IPChanged++
		case StatusOffline:
			st.Offline++
		case StatusMissing:
			st.Missing++
		}
	}
	return st
}

// Export writes the whole store as an indented JSON object keyed by MAC.
func (s *Store) Export(w io.Writer) error {
	devices, err := s.all()
	if err != nil {
		return err
	}
	byMAC := make(map[string]History, len(devices))
	for _, h := range devices {
		byMAC[h.MACAddress] = h
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(byMAC)
}
