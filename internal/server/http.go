package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/muurk/easyip/internal/discovery"
	"github.com/muurk/easyip/internal/logging"
	"github.com/muurk/easyip/internal/tracker"
)

// deviceView is a tracked device plus its status at request time.
type deviceView struct {
	tracker.History
	Status string `json:"status"`
}

type statsView struct {
	tracker.Stats
	LastScan         *ScanReport `json:"last_scan,omitempty"`
	ScanRunning      bool        `json:"scan_running"`
	AutoScan         bool        `json:"auto_scan"`
	AutoScanInterval int         `json:"auto_scan_interval"`
	Clients          int         `json:"clients"`
}

type conflictView struct {
	IP      string   `json:"ip"`
	Devices []string `json:"devices"`
}

func (s *Server) routes() {
	s.mux.HandleFunc("GET /{$}", s.handleIndex)
	s.mux.HandleFunc("GET /api/devices", s.handleDevices)
	s.mux.HandleFunc("GET /api/devices/{mac}", s.handleDevice)
	s.mux.HandleFunc("GET /api/stats", s.handleStats)
	s.mux.HandleFunc("GET /api/conflicts", s.handleConflicts)
	s.mux.HandleFunc("GET /api/export", s.handleExport)
	s.mux.HandleFunc("POST /api/scan", s.handleScan)
	s.mux.HandleFunc("POST /api/auto-scan", s.handleAutoScan)
	s.mux.Handle("GET /ws", s.hub)
}

// statusRecorder captures the response code for request logging.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

// ServeHTTP logs each request and dispatches it.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path == "/ws" {
		// The upgrader needs the raw writer to hijack the connection.
		logging.HTTPRequest(s.logger, r.RemoteAddr, r.Method, r.URL.Path, http.StatusSwitchingProtocols)
		s.mux.ServeHTTP(w, r)
		return
	}
	rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
	s.mux.ServeHTTP(rec, r)
	logging.HTTPRequest(s.logger, r.RemoteAddr, r.Method, r.URL.Path, rec.status)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

func (s *Server) handleDevices(w http.ResponseWriter, r *http.Request) {
	sortBy := r.URL.Query().Get("sort")
	devices, err := s.store.List(sortBy)
	if err != nil {
		s.logger.Error("List devices failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	now := s.now()
	views := make([]deviceView, 0, len(devices))
	for _, h := range devices {
		views = append(views, deviceView{History: h, Status: tracker.Status(h, now, s.cfg.MissingAfter)})
	}
	writeJSON(w, http.StatusOK, views)
}

func (s *Server) handleDevice(w http.ResponseWriter, r *http.Request) {
	h, err := s.store.Get(r.PathValue("mac"))
	if errors.Is(err, tracker.ErrNotFound) {
		writeError(w, http.StatusNotFound, "device not found")
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, deviceView{History: h, Status: tracker.Status(h, s.now(), s.cfg.MissingAfter)})
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	st, err := s.store.Stats(s.now(), s.cfg.MissingAfter)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, statsView{
		Stats:            st,
		LastScan:         s.monitor.LastReport(),
		ScanRunning:      s.monitor.Running(),
		AutoScan:         s.monitor.AutoScan(),
		AutoScanInterval: int(s.monitor.Interval() / time.Second),
		Clients:          s.hub.Clients(),
	})
}

func (s *Server) handleConflicts(w http.ResponseWriter, r *http.Request) {
	conflicts := s.monitor.Conflicts()
	views := make([]conflictView, 0, len(conflicts))
	for _, ip := range discovery.ConflictIPs(conflicts) {
		views = append(views, conflictView{IP: ip, Devices: conflicts[ip]})
	}
	writeJSON(w, http.StatusOK, views)
}

func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Content-Disposition", `attachment; filename="easyip_export_`+s.now().Format("20060102_150405")+`.json"`)
	if err := s.store.Export(w); err != nil {
		s.logger.Error("Export failed", zap.Error(err))
	}
}

func (s *Server) handleScan(w http.ResponseWriter, r *http.Request) {
	id, err := s.monitor.StartScan(r.Context())
	if errors.Is(err, ErrScanInProgress) {
		writeError(w, http.StatusConflict, err.Error())
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusAccepted, map[string]string{"status": "started", "scan_id": id})
}

func (s *Server) handleAutoScan(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Enabled *bool `json:"enabled"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil || body.Enabled == nil {
		writeError(w, http.StatusBadRequest, `expected {"enabled": true|false}`)
		return
	}
	s.monitor.SetAutoScan(*body.Enabled)
	writeJSON(w, http.StatusOK, map[string]any{
		"auto_scan": *body.Enabled,
		"interval":  int(s.monitor.Interval() / time.Second),
	})
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Write([]byte(indexHTML))
}
