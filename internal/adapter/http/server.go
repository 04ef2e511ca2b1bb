package http

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/couchcryptid/aor-intel-dashboard/internal/domain"
	"github.com/couchcryptid/aor-intel-dashboard/internal/pipeline"
	"github.com/couchcryptid/aor-intel-dashboard/internal/view"
	sharedobs "github.com/couchcryptid/storm-data-shared/observability"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// ReportService fetches normalized datasets for a selected AOR.
type ReportService interface {
	Fetch(ctx context.Context, aor string) (pipeline.Result, error)
	Registry() *domain.Registry
}

// Server exposes the dashboard API alongside health, readiness, and metrics
// endpoints.
type Server struct {
	httpServer *http.Server
	svc        ReportService
	logger     *slog.Logger
}

// NewServer creates an HTTP server with the AOR API routes plus /healthz,
// /readyz, and /metrics.
func NewServer(addr string, svc ReportService, ready sharedobs.ReadinessChecker, logger *slog.Logger) *Server {
	mux := http.NewServeMux()

	s := &Server{
		httpServer: &http.Server{
			Addr:         addr,
			Handler:      mux,
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 30 * time.Second,
			IdleTimeout:  60 * time.Second,
		},
		svc:    svc,
		logger: logger,
	}

	mux.HandleFunc("GET /healthz", sharedobs.LivenessHandler())
	mux.HandleFunc("GET /readyz", sharedobs.ReadinessHandler(ready))
	mux.Handle("GET /metrics", promhttp.Handler())

	mux.HandleFunc("GET /api/v1/aors", s.handleListAORs)
	mux.HandleFunc("GET /api/v1/aors/{aor}/reports", s.handleReports)
	mux.HandleFunc("GET /api/v1/aors/{aor}/dashboard", s.handleDashboard)
	mux.HandleFunc("GET /api/v1/aors/{aor}/map", s.handleMap)

	return s
}

// Start begins listening. Returns http.ErrServerClosed on graceful shutdown.
func (s *Server) Start() error {
	s.logger.Info("http server starting", "addr", s.httpServer.Addr)
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully drains connections within the given context deadline.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

// ServeHTTP delegates to the underlying handler, useful for testing.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.httpServer.Handler.ServeHTTP(w, r)
}

type aorListResponse struct {
	AORs []domain.AORConfig `json:"aors"`
}

type reportsResponse struct {
	AOR     string         `json:"aor"`
	Outcome domain.Outcome `json:"outcome"`
	domain.Dataset
}

func (s *Server) handleListAORs(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, aorListResponse{AORs: s.svc.Registry().All()})
}

func (s *Server) handleReports(w http.ResponseWriter, r *http.Request) {
	res, ok := s.fetch(w, r)
	if !ok {
		return
	}
	ds := res.Dataset
	if ds.Reports == nil {
		ds.Reports = []domain.Report{}
	}
	writeJSON(w, http.StatusOK, reportsResponse{AOR: res.AOR.Name, Outcome: ds.Outcome(), Dataset: ds})
}

func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	res, ok := s.fetch(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, view.Build(res.AOR, res.Dataset))
}

func (s *Server) handleMap(w http.ResponseWriter, r *http.Request) {
	res, ok := s.fetch(w, r)
	if !ok {
		return
	}
	fc := view.FeatureCollection(res.AOR, res.Dataset)
	data, err := fc.MarshalJSON()
	if err != nil {
		s.logger.Error("encode feature collection", "aor", res.AOR.Name, "error", err)
		writeError(w, http.StatusInternalServerError, "encode feature collection")
		return
	}
	w.Header().Set("Content-Type", "application/geo+json")
	w.WriteHeader(http.StatusOK)
	w.Write(data) //nolint:errcheck // client may have gone away
}

// fetch runs the pipeline for the AOR path value and writes the error response
// itself when the fetch fails.
func (s *Server) fetch(w http.ResponseWriter, r *http.Request) (pipeline.Result, bool) {
	aor := r.PathValue("aor")
	res, err := s.svc.Fetch(r.Context(), aor)
	switch {
	case err == nil:
		return res, true
	case errors.Is(err, domain.ErrUnknownAOR):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, pipeline.ErrStoreUnavailable):
		writeError(w, http.StatusServiceUnavailable, err.Error())
	default:
		s.logger.Error("fetch reports", "aor", aor, "error", err)
		writeError(w, http.StatusInternalServerError, err.Error())
	}
	return pipeline.Result{}, false
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// writeJSON encodes v before the header goes out; an unencodable value is
// answered with a 500.
func writeJSON(w http.ResponseWriter, status int, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		status = http.StatusInternalServerError
		data, _ = json.Marshal(map[string]string{"error": "encode response: " + err.Error()})
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	w.Write(append(data, '\n')) //nolint:errcheck // client may have gone away
}
