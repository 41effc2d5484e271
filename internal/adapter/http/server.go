// Package http serves the dashboard API: aggregate views over the prepared
// fire dataset plus the operational endpoints (health, readiness, metrics).
package http

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/firescope/wildfire-analytics/internal/domain"
	"github.com/firescope/wildfire-analytics/internal/store"
)

const defaultCauseLimit = 15

// ReadinessCheck reports whether one service component is ready.
type ReadinessCheck func() bool

// Refresher triggers a full dataset reload.
type Refresher interface {
	Refresh(ctx context.Context) error
}

// Server hosts the dashboard API over the analysis store.
type Server struct {
	store      *store.Store
	refresher  Refresher
	readiness  []ReadinessCheck
	sampleSize int
	sampleSeed int64
	logger     *slog.Logger

	httpServer *http.Server
}

// Config carries the server's dependencies and tunables. Refresher may be
// nil when the service runs on stream ingest alone.
type Config struct {
	Addr       string
	Store      *store.Store
	Refresher  Refresher
	Readiness  []ReadinessCheck
	SampleSize int
	SampleSeed int64
	Logger     *slog.Logger
}

// NewServer builds the API server and its route table.
func NewServer(cfg Config) *Server {
	s := &Server{
		store:      cfg.Store,
		refresher:  cfg.Refresher,
		readiness:  cfg.Readiness,
		sampleSize: cfg.SampleSize,
		sampleSeed: cfg.SampleSeed,
		logger:     cfg.Logger,
	}
	s.httpServer = &http.Server{
		Addr:         cfg.Addr,
		Handler:      s.routes(),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
	}
	return s
}

func (s *Server) routes() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", s.handleHealthz)
	mux.HandleFunc("GET /readyz", s.handleReadyz)
	mux.Handle("GET /metrics", promhttp.Handler())

	mux.HandleFunc("GET /api/v1/summary", s.handleSummary)
	mux.HandleFunc("GET /api/v1/trends/yearly", s.handleYearlyTrends)
	mux.HandleFunc("GET /api/v1/causes", s.handleCauses)
	mux.HandleFunc("GET /api/v1/causes/categories", s.handleCauseCategories)
	mux.HandleFunc("GET /api/v1/causes/size-matrix", s.handleCauseSizeMatrix)
	mux.HandleFunc("GET /api/v1/states", s.handleStates)
	mux.HandleFunc("GET /api/v1/map/sample", s.handleMapSample)
	mux.HandleFunc("POST /api/v1/refresh", s.handleRefresh)
	return mux
}

// Handler exposes the route table, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.httpServer.Handler
}

// Start serves until the listener fails or Shutdown is called.
func (s *Server) Start() error {
	s.logger.Info("http server listening", "addr", s.httpServer.Addr)
	return s.httpServer.ListenAndServe()
}

// Shutdown drains in-flight requests within the context deadline.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

func (s *Server) handleHealthz(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func (s *Server) handleReadyz(w http.ResponseWriter, _ *http.Request) {
	for _, check := range s.readiness {
		if !check() {
			http.Error(w, "not ready", http.StatusServiceUnavailable)
			return
		}
	}
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ready"))
}

func (s *Server) handleSummary(w http.ResponseWriter, r *http.Request) {
	summary, err := s.store.Summary(r.Context())
	if err != nil {
		s.serverError(w, "summary query failed", err)
		return
	}
	s.writeJSON(w, http.StatusOK, summary)
}

func (s *Server) handleYearlyTrends(w http.ResponseWriter, r *http.Request) {
	trends, err := s.store.YearlyTrends(r.Context())
	if err != nil {
		s.serverError(w, "yearly trends query failed", err)
		return
	}
	s.writeJSON(w, http.StatusOK, trends)
}

func (s *Server) handleCauses(w http.ResponseWriter, r *http.Request) {
	limit, err := queryInt(r, "limit", defaultCauseLimit)
	if err != nil {
		s.badRequest(w, err)
		return
	}
	stats, err := s.store.CauseStats(r.Context(), limit)
	if err != nil {
		s.serverError(w, "cause stats query failed", err)
		return
	}
	s.writeJSON(w, http.StatusOK, stats)
}

func (s *Server) handleCauseCategories(w http.ResponseWriter, r *http.Request) {
	counts, err := s.store.CategoryCounts(r.Context())
	if err != nil {
		s.serverError(w, "category counts query failed", err)
		return
	}
	s.writeJSON(w, http.StatusOK, counts)
}

func (s *Server) handleCauseSizeMatrix(w http.ResponseWriter, r *http.Request) {
	limit, err := queryInt(r, "limit", defaultCauseLimit)
	if err != nil {
		s.badRequest(w, err)
		return
	}
	matrix, err := s.store.CauseSizeMatrix(r.Context(), limit)
	if err != nil {
		s.serverError(w, "cause size matrix query failed", err)
		return
	}
	s.writeJSON(w, http.StatusOK, matrix)
}

func (s *Server) handleStates(w http.ResponseWriter, r *http.Request) {
	limit, err := queryInt(r, "limit", 50)
	if err != nil {
		s.badRequest(w, err)
		return
	}
	counts, err := s.store.StateCounts(r.Context(), limit)
	if err != nil {
		s.serverError(w, "state counts query failed", err)
		return
	}
	s.writeJSON(w, http.StatusOK, counts)
}

func (s *Server) handleMapSample(w http.ResponseWriter, r *http.Request) {
	size, err := queryInt(r, "size", s.sampleSize)
	if err != nil {
		s.badRequest(w, err)
		return
	}
	year, err := queryInt(r, "year", 0)
	if err != nil {
		s.badRequest(w, err)
		return
	}
	sizeCategory := r.URL.Query().Get("size_category")
	if sizeCategory != "" && !validSizeCategory(sizeCategory) {
		s.badRequest(w, fmt.Errorf("unknown size_category %q", sizeCategory))
		return
	}

	points, err := s.store.MapPoints(r.Context(), store.MapFilter{
		Year:         year,
		SizeCategory: sizeCategory,
		SampleSize:   size,
		Seed:         s.sampleSeed,
	})
	if err != nil {
		s.serverError(w, "map points query failed", err)
		return
	}
	s.writeJSON(w, http.StatusOK, points)
}

func (s *Server) handleRefresh(w http.ResponseWriter, r *http.Request) {
	if s.refresher == nil {
		s.writeError(w, http.StatusServiceUnavailable, "no dataset source configured")
		return
	}
	if err := s.refresher.Refresh(r.Context()); err != nil {
		s.serverError(w, "refresh failed", err)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "refreshed"})
}

func validSizeCategory(label string) bool {
	for _, l := range domain.SizeCategories() {
		if l == label {
			return true
		}
	}
	return false
}

func queryInt(r *http.Request, key string, fallback int) (int, error) {
	v := r.URL.Query().Get(key)
	if v == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q", key, v)
	}
	return n, nil
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Error("encode response failed", "error", err)
	}
}

func (s *Server) writeError(w http.ResponseWriter, status int, msg string) {
	s.writeJSON(w, status, map[string]string{"error": msg})
}

func (s *Server) badRequest(w http.ResponseWriter, err error) {
	s.writeError(w, http.StatusBadRequest, err.Error())
}

func (s *Server) serverError(w http.ResponseWriter, msg string, err error) {
	s.logger.Error(msg, "error", err)
	s.writeError(w, http.StatusInternalServerError, msg)
}
