// Package http exposes the dashboard pipeline over a JSON API, plus the
// health, readiness, and metrics endpoints.
package http

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"math"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/evmonitor/irve-dashboard/internal/domain"
)

// Provider is the pipeline surface the API serves.
type Provider interface {
	Snapshot(ctx context.Context, sel domain.FilterSelection) (domain.Table, domain.Aggregates, error)
	Departments(ctx context.Context) ([]string, error)
	Operators(ctx context.Context, limit int) ([]domain.OperatorCount, error)
	Refresh() uint64
	FetchedAt() time.Time
	CheckReadiness(ctx context.Context) error
}

// Server exposes the dashboard API.
type Server struct {
	httpServer *http.Server
	provider   Provider
	logger     *slog.Logger
}

// NewServer creates an HTTP server with the API and observability routes.
func NewServer(addr string, provider Provider, logger *slog.Logger) *Server {
	mux := http.NewServeMux()

	s := &Server{
		httpServer: &http.Server{
			Addr:         addr,
			Handler:      mux,
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 60 * time.Second,
			IdleTimeout:  60 * time.Second,
		},
		provider: provider,
		logger:   logger,
	}

	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.HandleFunc("GET /readyz", s.handleReady)
	mux.Handle("GET /metrics", promhttp.Handler())

	mux.HandleFunc("GET /api/v1/stations", s.handleStations)
	mux.HandleFunc("GET /api/v1/departments", s.handleDepartments)
	mux.HandleFunc("GET /api/v1/operators", s.handleOperators)
	mux.HandleFunc("POST /api/v1/refresh", s.handleRefresh)

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

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
}

func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	if err := s.provider.CheckReadiness(ctx); err != nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{
			"status": "not ready",
			"error":  err.Error(),
		})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
}

type stationsResponse struct {
	Stations   domain.Table      `json:"stations"`
	Aggregates domain.Aggregates `json:"aggregates"`
	FetchedAt  time.Time         `json:"fetched_at"`
}

func (s *Server) handleStations(w http.ResponseWriter, r *http.Request) {
	sel, err := parseSelection(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	table, agg, err := s.provider.Snapshot(r.Context(), sel)
	if err != nil {
		s.writePipelineError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, stationsResponse{
		Stations:   table,
		Aggregates: agg,
		FetchedAt:  s.provider.FetchedAt(),
	})
}

func (s *Server) handleDepartments(w http.ResponseWriter, r *http.Request) {
	deps, err := s.provider.Departments(r.Context())
	if err != nil {
		s.writePipelineError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string][]string{"departments": deps})
}

func (s *Server) handleOperators(w http.ResponseWriter, r *http.Request) {
	limit := 10
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			writeError(w, http.StatusBadRequest, errors.New("limit must be a positive integer"))
			return
		}
		limit = n
	}

	ops, err := s.provider.Operators(r.Context(), limit)
	if err != nil {
		s.writePipelineError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string][]domain.OperatorCount{"operators": ops})
}

func (s *Server) handleRefresh(w http.ResponseWriter, _ *http.Request) {
	token := s.provider.Refresh()
	writeJSON(w, http.StatusAccepted, map[string]uint64{"token": token})
}

// parseSelection reads the filter controls from the query string:
// departments as a comma-separated list, power_min / power_max as numbers.
// Absent power bounds leave the range open.
func parseSelection(r *http.Request) (domain.FilterSelection, error) {
	q := r.URL.Query()

	sel := domain.FilterSelection{PowerMin: 0, PowerMax: math.Inf(1)}

	if raw := q.Get("departments"); raw != "" {
		for _, d := range strings.Split(raw, ",") {
			if d = strings.TrimSpace(d); d != "" {
				sel.Departments = append(sel.Departments, d)
			}
		}
	}

	if raw := q.Get("power_min"); raw != "" {
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return domain.FilterSelection{}, errors.New("power_min must be a number")
		}
		sel.PowerMin = v
	}
	if raw := q.Get("power_max"); raw != "" {
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return domain.FilterSelection{}, errors.New("power_max must be a number")
		}
		sel.PowerMax = v
	}
	if sel.PowerMin > sel.PowerMax {
		return domain.FilterSelection{}, errors.New("power_min must not exceed power_max")
	}

	return sel, nil
}

// writePipelineError maps the pipeline's failure taxonomy onto HTTP statuses:
// data unavailable -> 503, broken upstream schema -> 502.
func (s *Server) writePipelineError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, domain.ErrDataUnavailable):
		status = http.StatusServiceUnavailable
	case errors.Is(err, domain.ErrSchema):
		status = http.StatusBadGateway
	}
	s.logger.Error("pipeline request failed", "status", status, "error", err)
	writeError(w, status, err)
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, map[string]string{"error": err.Error()})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v) //nolint:errcheck // best-effort response body
}
