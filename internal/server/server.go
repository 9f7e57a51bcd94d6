package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/muurk/easyip/internal/logging"
	"github.com/muurk/easyip/internal/notify"
	"github.com/muurk/easyip/internal/tracker"
)

const shutdownTimeout = 10 * time.Second

// Config holds the dashboard configuration.
type Config struct {
	Listen           string
	MissingAfter     time.Duration
	AutoScan         bool
	AutoScanInterval time.Duration
	Advertise        bool // Register the dashboard over mDNS
}

// Server is the web dashboard: a JSON API over the tracker, a websocket
// feed of scan progress, and a single status page.
type Server struct {
	cfg     Config
	store   *tracker.Store
	monitor *Monitor
	hub     *Hub
	mux     *http.ServeMux
	logger  *zap.Logger
	now     func() time.Time

	mu       sync.Mutex
	listener net.Listener
}

// New creates a dashboard over store, scanning with scanner.
func New(cfg Config, store *tracker.Store, scanner Scanner, publisher notify.Publisher, logger *zap.Logger) *Server {
	if cfg.MissingAfter <= 0 {
		cfg.MissingAfter = tracker.DefaultMissingAfter
	}
	logger = logging.OrNop(logger)

	s := &Server{
		cfg:    cfg,
		store:  store,
		hub:    NewHub(logger),
		mux:    http.NewServeMux(),
		logger: logger,
		now:    time.Now,
	}
	s.monitor = NewMonitor(scanner, store, publisher, s.hub.Broadcast, logger)
	s.monitor.SetInterval(cfg.AutoScanInterval)
	s.monitor.SetAutoScan(cfg.AutoScan)
	s.routes()
	return s
}

// Monitor returns the server's scan monitor.
func (s *Server) Monitor() *Monitor {
	return s.monitor
}

// Addr returns the bound address once Run is listening.
func (s *Server) Addr() net.Addr {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listener == nil {
		return nil
	}
	return s.listener.Addr()
}

// Run serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.cfg.Listen)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", s.cfg.Listen, err)
	}
	s.mu.Lock()
	s.listener = ln
	s.mu.Unlock()

	httpServer := &http.Server{
		Handler:           s,
		ReadHeaderTimeout: 10 * time.Second,
	}

	s.logger.Info("Dashboard listening",
		zap.Stringer("addr", ln.Addr()),
		zap.Bool("auto_scan", s.monitor.AutoScan()),
		zap.Duration("auto_scan_interval", s.monitor.Interval()),
	)

	var adv *Advertiser
	if s.cfg.Advertise {
		port := ln.Addr().(*net.TCPAddr).Port
		adv, err = Advertise(port)
		if err != nil {
			s.logger.Warn("mDNS advertisement failed", zap.Error(err))
		} else {
			s.logger.Info("Advertising dashboard over mDNS", zap.String("service", ServiceType), zap.Int("port", port))
		}
	}

	monitorCtx, stopMonitor := context.WithCancel(ctx)
	defer stopMonitor()
	go s.monitor.Run(monitorCtx)

	errChan := make(chan error, 1)
	go func() {
		errChan <- httpServer.Serve(ln)
	}()

	select {
	case <-ctx.Done():
		s.logger.Info("Shutting down dashboard...")
	case err := <-errChan:
		if !errors.Is(err, http.ErrServerClosed) {
			adv.Shutdown()
			return fmt.Errorf("dashboard server: %w", err)
		}
	}

	stopMonitor()
	adv.Shutdown()
	s.hub.Close()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		s.logger.Warn("Shutdown timeout, forcing close", zap.Error(err))
	}
	s.monitor.Wait()
	s.logger.Info("Dashboard stopped")
	return nil
}
