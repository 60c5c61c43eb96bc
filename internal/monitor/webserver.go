// Package monitor serves the live state of a scan over HTTP: a status page,
// JSON snapshots and cycle history, a rendered picture of the scan and a
// coverage chart.
package monitor

import (
	"bytes"
	"context"
	"database/sql"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"html/template"
	"net/http"
	"strconv"
	"time"

	"github.com/banshee-data/forest.scan/internal/db"
	"github.com/banshee-data/forest.scan/internal/monitoring"
	"github.com/banshee-data/forest.scan/internal/report"
	"github.com/banshee-data/forest.scan/internal/scan"
	"github.com/banshee-data/forest.scan/internal/timeutil"
	"github.com/banshee-data/forest.scan/internal/version"
)

//go:embed status.html
var StatusHTML embed.FS

// WebServer handles the HTTP interface for watching a running scan.
type WebServer struct {
	address   string
	store     *scan.SnapshotStore
	sessions  *db.SessionStore
	clock     timeutil.Clock
	startedAt time.Time
	server    *http.Server
}

// WebServerConfig contains configuration options for the web server
type WebServerConfig struct {
	Address string
	Store   *scan.SnapshotStore
	// Sessions enables the stored-session routes. May be nil.
	Sessions *db.SessionStore
	Clock    timeutil.Clock
}

// NewWebServer creates a new web server with the provided configuration
func NewWebServer(config WebServerConfig) *WebServer {
	clock := config.Clock
	if clock == nil {
		clock = timeutil.RealClock{}
	}
	store := config.Store
	if store == nil {
		store = scan.NewSnapshotStore()
	}
	ws := &WebServer{
		address:   config.Address,
		store:     store,
		sessions:  config.Sessions,
		clock:     clock,
		startedAt: clock.Now(),
	}

	ws.server = &http.Server{
		Addr:              ws.address,
		Handler:           ws.setupRoutes(),
		ReadHeaderTimeout: 5 * time.Second,
	}
	return ws
}

func (ws *WebServer) writeJSONError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": msg})
}

func (ws *WebServer) writeJSON(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		monitoring.Logf("[monitor] encode response: %v", err)
	}
}

// Start serves until ctx is cancelled, then shuts the server down. It
// returns an error only if the listener fails.
func (ws *WebServer) Start(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		monitoring.Logf("Starting HTTP server on %s", ws.address)
		if err := ws.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("http server on %s: %w", ws.address, err)
	case <-ctx.Done():
	}
	monitoring.Logf("shutting down HTTP server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 1*time.Second)
	defer cancel()

	if err := ws.server.Shutdown(shutdownCtx); err != nil {
		monitoring.Logf("HTTP server shutdown error: %v", err)
		// Force close the server if graceful shutdown fails
		if err := ws.server.Close(); err != nil {
			monitoring.Logf("HTTP server force close error: %v", err)
		}
	}

	monitoring.Logf("HTTP server routine stopped")
	return nil
}

// Close shuts down the web server
func (ws *WebServer) Close() error {
	if ws.server != nil {
		return ws.server.Close()
	}
	return nil
}

func (ws *WebServer) setupRoutes() *http.ServeMux {
	mux := http.NewServeMux()

	mux.HandleFunc("/health", ws.handleHealth)
	mux.HandleFunc("/", ws.handleStatus)
	mux.HandleFunc("GET /api/snapshot", ws.handleSnapshot)
	mux.HandleFunc("GET /api/cycles", ws.handleCycles)
	mux.HandleFunc("GET /api/coverage", ws.handleCoverage)
	mux.HandleFunc("GET /api/sessions/{id}", ws.handleSession)
	mux.HandleFunc("GET /api/sessions/{id}/cycles", ws.handleSessionCycles)
	mux.HandleFunc("GET /api/sessions/{id}/coverage", ws.handleSessionCoverage)
	mux.HandleFunc("GET /debug/coverage", ws.handleCoverageChart)
	mux.HandleFunc("GET /debug/scan.png", ws.handleScanPNG)

	return mux
}

func (ws *WebServer) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	fmt.Fprintf(w, `{"status": "ok", "service": "forest-scan", "version": %q, "timestamp": "%s"}`,
		version.Version, ws.clock.Now().UTC().Format(time.RFC3339))
}

func (ws *WebServer) handleStatus(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}

	tmpl, err := template.ParseFS(StatusHTML, "status.html")
	if err != nil {
		http.Error(w, "Error loading template: "+err.Error(), http.StatusInternalServerError)
		return
	}

	snap, ok := ws.store.Latest()
	data := struct {
		HasSnapshot bool
		Snapshot    scan.Snapshot
		Cycles      report.CycleStats
		Uptime      string
	}{
		HasSnapshot: ok,
		Snapshot:    snap,
		Cycles:      report.SummarizeCycles(ws.store.Cycles()),
		Uptime:      ws.clock.Since(ws.startedAt).Round(time.Second).String(),
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		http.Error(w, "Error executing template: "+err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = w.Write(buf.Bytes())
}

func (ws *WebServer) handleSnapshot(w http.ResponseWriter, r *http.Request) {
	snap, ok := ws.store.Latest()
	if !ok {
		ws.writeJSONError(w, http.StatusServiceUnavailable, "no snapshot published yet")
		return
	}
	ws.writeJSON(w, snap)
}

func (ws *WebServer) handleCycles(w http.ResponseWriter, r *http.Request) {
	cycles := ws.store.Cycles()
	ws.writeJSON(w, struct {
		Cycles  []scan.CycleSummary `json:"cycles"`
		Summary report.CycleStats   `json:"summary"`
	}{cycles, report.SummarizeCycles(cycles)})
}

// handleCoverage returns the in-memory coverage series.
// Query params:
//
//	cycle (optional) - restrict to one cycle
func (ws *WebServer) handleCoverage(w http.ResponseWriter, r *http.Request) {
	cycle, err := cycleParam(r)
	if err != nil {
		ws.writeJSONError(w, http.StatusBadRequest, err.Error())
		return
	}
	samples := filterCycle(ws.store.Samples(), cycle)
	ws.writeJSON(w, coverageResponse{Samples: samples, Summary: report.Summarize(samples)})
}

type coverageResponse struct {
	Samples []scan.CoverageSample `json:"samples"`
	Summary report.CoverageStats  `json:"summary"`
}

func (ws *WebServer) handleSession(w http.ResponseWriter, r *http.Request) {
	if ws.sessions == nil {
		ws.writeJSONError(w, http.StatusNotImplemented, "no database configured")
		return
	}
	rec, err := ws.sessions.GetSession(r.PathValue("id"))
	if errors.Is(err, sql.ErrNoRows) {
		ws.writeJSONError(w, http.StatusNotFound, "session not found")
		return
	}
	if err != nil {
		ws.writeJSONError(w, http.StatusInternalServerError, fmt.Sprintf("get session: %v", err))
		return
	}
	ws.writeJSON(w, rec)
}

func (ws *WebServer) handleSessionCycles(w http.ResponseWriter, r *http.Request) {
	if ws.sessions == nil {
		ws.writeJSONError(w, http.StatusNotImplemented, "no database configured")
		return
	}
	cycles, err := ws.sessions.ListCycles(r.PathValue("id"))
	if err != nil {
		ws.writeJSONError(w, http.StatusInternalServerError, fmt.Sprintf("list cycles: %v", err))
		return
	}
	if cycles == nil {
		cycles = []db.CycleRecord{}
	}
	ws.writeJSON(w, cycles)
}

func (ws *WebServer) handleSessionCoverage(w http.ResponseWriter, r *http.Request) {
	if ws.sessions == nil {
		ws.writeJSONError(w, http.StatusNotImplemented, "no database configured")
		return
	}
	cycle, err := cycleParam(r)
	if err != nil {
		ws.writeJSONError(w, http.StatusBadRequest, err.Error())
		return
	}
	samples, err := ws.sessions.CoverageSamples(r.PathValue("id"), cycle)
	if err != nil {
		ws.writeJSONError(w, http.StatusInternalServerError, fmt.Sprintf("coverage samples: %v", err))
		return
	}
	ws.writeJSON(w, coverageResponse{Samples: samples, Summary: report.Summarize(samples)})
}

func (ws *WebServer) handleCoverageChart(w http.ResponseWriter, r *http.Request) {
	cycle, err := cycleParam(r)
	if err != nil {
		ws.writeJSONError(w, http.StatusBadRequest, err.Error())
		return
	}
	title := "Coverage"
	if snap, ok := ws.store.Latest(); ok {
		title = fmt.Sprintf("Coverage (%s)", snap.Strategy)
	}

	var buf bytes.Buffer
	if err := report.CoverageChart(&buf, title, filterCycle(ws.store.Samples(), cycle)); err != nil {
		ws.writeJSONError(w, http.StatusInternalServerError, fmt.Sprintf("render error: %v", err))
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = w.Write(buf.Bytes())
}

func (ws *WebServer) handleScanPNG(w http.ResponseWriter, r *http.Request) {
	snap, ok := ws.store.Latest()
	if !ok {
		ws.writeJSONError(w, http.StatusServiceUnavailable, "no snapshot published yet")
		return
	}
	p, err := report.PlotScan(snap)
	if err != nil {
		ws.writeJSONError(w, http.StatusInternalServerError, fmt.Sprintf("plot error: %v", err))
		return
	}

	var buf bytes.Buffer
	if err := report.WritePNG(p, &buf); err != nil {
		ws.writeJSONError(w, http.StatusInternalServerError, fmt.Sprintf("render error: %v", err))
		return
	}
	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Cache-Control", "no-store")
	_, _ = w.Write(buf.Bytes())
}

func cycleParam(r *http.Request) (int, error) {
	s := r.URL.Query().Get("cycle")
	if s == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil || n < 1 {
		return 0, fmt.Errorf("invalid 'cycle' parameter %q", s)
	}
	return n, nil
}

func filterCycle(samples []scan.CoverageSample, cycle int) []scan.CoverageSample {
	if cycle == 0 {
		return samples
	}
	out := make([]scan.CoverageSample, 0, len(samples))
	for _, s := range samples {
		if s.Cycle == cycle {
			out = append(out, s)
		}
	}
	return out
}
