// Package api serves the viewer over HTTP: JSON endpoints for loading,
// querying and steering the layer view, collaborator renders, and a
// server-sent event stream of pipeline progress.
package api

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/banshee-data/spiview/internal/monitoring"
	"github.com/banshee-data/spiview/internal/pipeline"
	"github.com/banshee-data/spiview/internal/timeutil"
	"github.com/banshee-data/spiview/internal/viewer"
)

// ANSI escape codes for the request log.
const (
	colorCyan      = "\033[36m"
	colorReset     = "\033[0m"
	colorYellow    = "\033[33m"
	colorBoldGreen = "\033[1;32m"
	colorBoldRed   = "\033[1;31m"
)

// DefaultKeepalive is the interval between SSE keepalive comments.
const DefaultKeepalive = 15 * time.Second

// RunLister reads the ingest history.
type RunLister interface {
	Runs(ctx context.Context, limit int) ([]pipeline.Run, error)
}

// Server holds the handlers' dependencies.
type Server struct {
	viewer    *viewer.Viewer
	history   RunLister
	clock     timeutil.Clock
	keepalive time.Duration
	roots     []string
}

// NewServer returns a server for v. history may be nil, which disables
// /api/runs.
func NewServer(v *viewer.Viewer, history RunLister) *Server {
	return &Server{
		viewer:    v,
		history:   history,
		clock:     timeutil.RealClock{},
		keepalive: DefaultKeepalive,
	}
}

// SetRoots confines /api/load to files under roots. No roots means any
// readable path is accepted.
func (s *Server) SetRoots(roots []string) {
	s.roots = append([]string(nil), roots...)
}

// SetClock replaces the clock driving SSE keepalives.
func (s *Server) SetClock(c timeutil.Clock, keepalive time.Duration) {
	s.clock = c
	if keepalive > 0 {
		s.keepalive = keepalive
	}
}

type loggingResponseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (lrw *loggingResponseWriter) WriteHeader(code int) {
	lrw.statusCode = code
	lrw.ResponseWriter.WriteHeader(code)
}

func (lrw *loggingResponseWriter) Flush() {
	if flusher, ok := lrw.ResponseWriter.(http.Flusher); ok {
		flusher.Flush()
	}
}

func statusCodeColor(statusCode int) string {
	switch {
	case statusCode >= 200 && statusCode < 300:
		return colorBoldGreen + strconv.Itoa(statusCode) + colorReset
	case statusCode >= 300 && statusCode < 400:
		return colorYellow + strconv.Itoa(statusCode) + colorReset
	case statusCode >= 400:
		return colorBoldRed + strconv.Itoa(statusCode) + colorReset
	default:
		return strconv.Itoa(statusCode)
	}
}

// LoggingMiddleware logs method, path, query, status, and duration.
func LoggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		lrw := &loggingResponseWriter{w, http.StatusOK}
		next.ServeHTTP(lrw, r)
		monitoring.Logf(
			"[http] [%s] %s %s%s%s %vms",
			statusCodeColor(lrw.statusCode), r.Method,
			colorCyan, r.RequestURI, colorReset,
			float64(time.Since(start).Nanoseconds())/1e6,
		)
	})
}

// ServeMux registers every route on a new mux.
func (s *Server) ServeMux() *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/load", s.handleLoad)
	mux.HandleFunc("/api/status", s.handleStatus)
	mux.HandleFunc("/api/structure", s.handleStructure)
	mux.HandleFunc("/api/layers", s.handleLayers)
	mux.HandleFunc("/api/layers/visibility", s.handleVisibility)
	mux.HandleFunc("/api/layers/highlight", s.handleHighlight)
	mux.HandleFunc("/api/mode", s.handleMode)
	mux.HandleFunc("/api/filter", s.handleFilter)
	mux.HandleFunc("/api/settings", s.handleSettings)
	mux.HandleFunc("/api/runs", s.handleRuns)
	mux.HandleFunc("/render.html", s.handleRenderHTML)
	mux.HandleFunc("/render.png", s.handleRenderPNG)
	mux.HandleFunc("/events", s.handleEvents)
	return mux
}
