// internal/api/server.go
package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/futusense/futusense/internal/api/middleware"
	"github.com/futusense/futusense/internal/api/response"
	"github.com/futusense/futusense/internal/core"
	"github.com/futusense/futusense/internal/metrics"
	"github.com/futusense/futusense/internal/storage/record"
)

// Server is the read-only HTTP surface over the record store.
type Server struct {
	httpServer *http.Server
	store      record.Store
	symbols    []core.SymbolRef
	logger     *zap.Logger
}

// Config holds server configuration
type Config struct {
	Host        string
	Port        int
	APIKey      string
	MetricsPath string
}

// NewServer creates the HTTP server. The metrics registry is optional;
// when present its handler and middleware are mounted.
func NewServer(cfg Config, store record.Store, symbols []core.SymbolRef, reg *metrics.Registry, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Server{
		store:   store,
		symbols: symbols,
		logger:  logger,
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/health", s.handleHealth)
	mux.HandleFunc("GET /api/symbols", s.handleSymbols)
	mux.HandleFunc("GET /api/latest", s.handleLatest)
	mux.HandleFunc("GET /api/symbols/{id}/days/{date}", s.handleDay)
	mux.HandleFunc("GET /api/symbols/{id}/records", s.handleRecords)

	var handler http.Handler = mux
	handler = middleware.APIKeyAuth(cfg.APIKey)(handler)
	if reg != nil {
		handler = metrics.HTTPMiddleware(reg)(handler)
	}

	// /metrics sits outside auth so scrapers need no key.
	root := http.NewServeMux()
	root.Handle("/", handler)
	if reg != nil {
		path := cfg.MetricsPath
		if path == "" {
			path = "/metrics"
		}
		root.Handle(path, promhttp.HandlerFor(reg.Registry, promhttp.HandlerOpts{}))
	}

	s.httpServer = &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Handler:      root,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
	return s
}

// Start starts the HTTP server
func (s *Server) Start() error {
	s.logger.Info("starting HTTP server", zap.String("addr", s.httpServer.Addr))
	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("server error: %w", err)
	}
	return nil
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("shutting down HTTP server")
	return s.httpServer.Shutdown(ctx)
}

// Handler exposes the root handler for tests.
func (s *Server) Handler() http.Handler {
	return s.httpServer.Handler
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"status":"ok"}`))
}

func (s *Server) handleSymbols(w http.ResponseWriter, r *http.Request) {
	response.JSON(w, http.StatusOK, s.symbols)
}

// handleLatest returns the newest record per symbol. Symbols without
// any record are omitted rather than erroring, so a fresh deployment
// still answers.
func (s *Server) handleLatest(w http.ResponseWriter, r *http.Request) {
	out := make(map[string]core.FusionRecord, len(s.symbols))
	for _, sym := range s.symbols {
		rec, err := s.store.Latest(r.Context(), sym.ID)
		if err != nil {
			if !errors.Is(err, core.ErrRecordNotFound) {
				s.logger.Warn("latest lookup failed",
					zap.String("symbol", sym.ID),
					zap.Error(err))
			}
			continue
		}
		out[sym.ID] = *rec
	}
	response.JSON(w, http.StatusOK, out)
}

func (s *Server) handleDay(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	date := r.PathValue("date")

	rec, err := s.store.Get(r.Context(), id, date)
	if err != nil {
		if errors.Is(err, core.ErrRecordNotFound) {
			response.Error(w, http.StatusNotFound, err)
			return
		}
		response.Error(w, http.StatusInternalServerError, err)
		return
	}
	response.JSON(w, http.StatusOK, rec)
}

func (s *Server) handleRecords(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := record.ListFilter{
		Symbol: r.PathValue("id"),
		Band:   core.Band(q.Get("band")),
		From:   q.Get("from"),
		To:     q.Get("to"),
		Limit:  50,
	}
	recs, err := s.store.List(r.Context(), filter)
	if err != nil {
		response.Error(w, http.StatusInternalServerError, err)
		return
	}
	response.JSON(w, http.StatusOK, recs)
}
