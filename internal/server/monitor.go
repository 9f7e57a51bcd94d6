package server

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/muurk/easyip/internal/discovery"
	"github.com/muurk/easyip/internal/logging"
	"github.com/muurk/easyip/internal/notify"
	"github.com/muurk/easyip/internal/protocol"
	"github.com/muurk/easyip/internal/tracker"
)

// DefaultAutoScanInterval is the period between automatic scans.
const DefaultAutoScanInterval = 300 * time.Second

// ErrScanInProgress is returned when a scan is requested while one runs.
var ErrScanInProgress = errors.New("scan already in progress")

// Scanner performs one discovery pass.
type Scanner interface {
	Discover(ctx context.Context) ([]protocol.DeviceRecord, error)
}

// ScannerFunc adapts a function to Scanner.
type ScannerFunc func(ctx context.Context) ([]protocol.DeviceRecord, error)

func (f ScannerFunc) Discover(ctx context.Context) ([]protocol.DeviceRecord, error) {
	return f(ctx)
}

// ScanReport describes a finished scan.
type ScanReport struct {
	ID        string              `json:"id"`
	StartedAt time.Time           `json:"started_at"`
	Duration  time.Duration       `json:"duration"`
	Devices   int                 `json:"devices"`
	New       int                 `json:"new"`
	IPChanged int                 `json:"ip_changed"`
	Conflicts map[string][]string `json:"conflicts"`
	Error     string              `json:"error,omitempty"`
}

// Message is a websocket frame sent to dashboard clients.
type Message struct {
	Type   string      `json:"type"`
	ScanID string      `json:"scan_id,omitempty"`
	Report *ScanReport `json:"report,omitempty"`
}

// Monitor runs scans, folds them into the tracker, publishes events and
// tells dashboard clients. At most one scan runs at a time.
type Monitor struct {
	scanner   Scanner
	store     *tracker.Store
	publisher notify.Publisher
	broadcast func(Message)
	logger    *zap.Logger
	now       func() time.Time

	mu          sync.Mutex
	running     bool
	autoScan    bool
	interval    time.Duration
	lastReport  *ScanReport
	lastDevices []protocol.DeviceRecord
	wg          sync.WaitGroup
}

// NewMonitor creates a monitor. publisher and broadcast may be nil.
func NewMonitor(scanner Scanner, store *tracker.Store, publisher notify.Publisher, broadcast func(Message), logger *zap.Logger) *Monitor {
	if publisher == nil {
		publisher = notify.Nop{}
	}
	if broadcast == nil {
		broadcast = func(Message) {}
	}
	return &Monitor{
		scanner:   scanner,
		store:     store,
		publisher: publisher,
		broadcast: broadcast,
		logger:    logging.OrNop(logger),
		now:       time.Now,
		interval:  DefaultAutoScanInterval,
	}
}

// begin claims the scan slot.
func (m *Monitor) begin() (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.running {
		return "", ErrScanInProgress
	}
	m.running = true
	return uuid.New().String(), nil
}

// Scan runs a scan and waits for it.
func (m *Monitor) Scan(ctx context.Context) (ScanReport, error) {
	id, err := m.begin()
	if err != nil {
		return ScanReport{}, err
	}
	return m.run(ctx, id)
}

// StartScan launches a scan in the background and returns its ID.
func (m *Monitor) StartScan(ctx context.Context) (string, error) {
	id, err := m.begin()
	if err != nil {
		return "", err
	}
	m.wg.Add(1)
	go func() {
		defer m.wg.Done()
		m.run(context.WithoutCancel(ctx), id)
	}()
	return id, nil
}

// Wait blocks until background scans have finished.
func (m *Monitor) Wait() {
	m.wg.Wait()
}

func (m *Monitor) run(ctx context.Context, id string) (ScanReport, error) {
	start := m.now()
	report := ScanReport{ID: id, StartedAt: start}
	logger := m.logger.With(zap.String("scan_id", id))

	defer func() {
		m.mu.Lock()
		m.running = false
		m.lastReport = &report
		m.mu.Unlock()
		m.broadcast(Message{Type: "scan_complete", ScanID: id, Report: &report})
	}()

	m.broadcast(Message{Type: "scan_started", ScanID: id})
	logger.Info("Scan started")

	devices, err := m.scanner.Discover(ctx)
	if err != nil {
		report.Error = err.Error()
		report.Duration = m.now().Sub(start)
		logger.Error("Scan failed", zap.Error(err))
		return report, err
	}

	result, err := m.store.Update(devices, m.now())
	if err != nil {
		report.Error = err.Error()
		report.Duration = m.now().Sub(start)
		logger.Error("Tracker update failed", zap.Error(err))
		return report, err
	}

	conflicts := discovery.DetectConflicts(devices)
	report.Devices = len(devices)
	report.New = len(result.New)
	report.IPChanged = len(result.IPChanged)
	report.Conflicts = conflicts
	report.Duration = m.now().Sub(start)

	m.mu.Lock()
	m.lastDevices = devices
	m.mu.Unlock()

	if err := notify.PublishAll(m.publisher, notify.EventsFromUpdate(result, conflicts, start)); err != nil {
		logger.Warn("Event publish failed", zap.Error(err))
	}

	logger.Info("Scan complete",
		zap.Int("devices", report.Devices),
		zap.Int("new", report.New),
		zap.Int("ip_changed", report.IPChanged),
		zap.Int("conflicts", len(conflicts)),
		zap.Duration("duration", report.Duration),
	)
	return report, nil
}

// Running reports whether a scan is in progress.
func (m *Monitor) Running() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.running
}

// LastReport returns the most recent scan report, or nil.
func (m *Monitor) LastReport() *ScanReport {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.lastReport
}

// Conflicts returns the IP conflicts seen in the most recent successful scan.
func (m *Monitor) Conflicts() map[string][]string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return discovery.DetectConflicts(m.lastDevices)
}

// SetAutoScan enables or disables periodic scanning.
func (m *Monitor) SetAutoScan(enabled bool) {
	m.mu.Lock()
	m.autoScan = enabled
	m.mu.Unlock()
	m.logger.Info("Auto-scan toggled", zap.Bool("enabled", enabled))
}

// AutoScan reports whether periodic scanning is enabled.
func (m *Monitor) AutoScan() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.autoScan
}

// SetInterval changes the auto-scan period. Takes effect on the next Run.
func (m *Monitor) SetInterval(d time.Duration) {
	if d <= 0 {
		d = DefaultAutoScanInterval
	}
	m.mu.Lock()
	m.interval = d
	m.mu.Unlock()
}

// Interval returns the auto-scan period.
func (m *Monitor) Interval() time.Duration {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.interval
}

// Run triggers a scan every interval while auto-scan is enabled, until ctx
// is cancelled. Ticks that land on a running scan are skipped.
func (m *Monitor) Run(ctx context.Context) {
	ticker := time.NewTicker(m.Interval())
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if !m.AutoScan() {
				continue
			}
			if _, err := m.StartScan(ctx); err != nil {
				m.logger.Debug("Skipping auto-scan", zap.Error(err))
			}
		}
	}
}
