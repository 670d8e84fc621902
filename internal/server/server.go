// Package server implements the HTTP server that exposes the legal corpus
// Q&A API: ask a question, ingest documents, inspect and delete corpus
// entries. The server is started by the `batas serve` CLI command.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/lexph/batasrag-go/internal/logging"
	"github.com/lexph/batasrag-go/internal/rag"
)

// New constructs a Server from the provided dependencies and config.
// The Prometheus registry is injected so tests stay hermetic; pass
// prometheus.NewRegistry() or a shared process registry.
func New(ask asker, ing ingestor, store corpus, reg *prometheus.Registry, cfg *Config) (*Server, error) {
	if ask == nil {
		return nil, fmt.Errorf("server: asker must not be nil")
	}
	if store == nil {
		return nil, fmt.Errorf("server: store must not be nil")
	}
	if reg == nil {
		reg = prometheus.NewRegistry()
	}
	if cfg == nil {
		cfg = &Config{}
	}
	if cfg.Host == "" {
		cfg.Host = "127.0.0.1"
	}
	if cfg.Port == 0 {
		cfg.Port = 8080
	}
	if cfg.ReadTimeout == 0 {
		cfg.ReadTimeout = 30 * time.Second
	}
	if cfg.WriteTimeout == 0 {
		// Ingesting a batch embeds every chunk; give it room.
		cfg.WriteTimeout = 5 * time.Minute
	}
	if cfg.ShutdownTimeout == 0 {
		cfg.ShutdownTimeout = 10 * time.Second
	}
	if cfg.RateLimit == 0 {
		cfg.RateLimit = defaultRateLimit
	}
	if cfg.RateBurst == 0 {
		cfg.RateBurst = defaultRateBurst
	}
	log := cfg.Logger
	if log == nil {
		log = logging.New()
	}

	s := &Server{
		asker:    ask,
		ingestor: ing,
		store:    store,
		cfg:      cfg,
		log:      log,
		pingers:  cfg.Pingers,
		metrics:  newServerMetrics(reg),
	}

	rl, stopRL := newRateLimiter(cfg.RateLimit, cfg.RateBurst, log)
	s.stopRL = stopRL

	if cfg.APIKey == "" {
		log.Warn("server: BATAS_API_KEY not set — API authentication is disabled")
	}

	protected := func(name string, h http.HandlerFunc) http.Handler {
		return authMiddleware(cfg.APIKey, rl.middleware(s.instrument(name, h)))
	}

	mux := http.NewServeMux()
	mux.Handle("POST /api/ask", protected("ask", s.handleAsk))
	mux.Handle("POST /api/ingest", protected("ingest", s.handleIngest))
	mux.Handle("DELETE /api/documents/{id}", protected("delete_document", s.handleDeleteDocument))
	mux.Handle("GET /api/stats", protected("stats", s.handleStats))
	mux.Handle("GET /api/health", s.instrument("health", s.handleHealth))
	mux.Handle("GET /api/ready", s.instrument("ready", s.handleReady))
	mux.Handle("GET /metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))

	s.httpServer = &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Handler:      requestLogger(log, mux),
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	}

	return s, nil
}

// Start begins listening and serving HTTP requests. It blocks until the
// context is cancelled, then performs a graceful shutdown.
func (s *Server) Start(ctx context.Context) error {
	errCh := make(chan error, 1)

	go func() {
		s.log.Info("server listening", "addr", "http://"+s.httpServer.Addr)
		if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		s.stopRL()
		return fmt.Errorf("server: listen error: %w", err)
	case <-ctx.Done():
		s.stopRL()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), s.cfg.ShutdownTimeout)
		defer cancel()
		if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("server: graceful shutdown failed: %w", err)
		}
		return nil
	}
}

// handleAsk handles POST /api/ask. Question-level failures come back as a
// structured body with success=false rather than a bare HTTP error, so
// clients always have something renderable.
func (s *Server) handleAsk(w http.ResponseWriter, r *http.Request) {
	var req askRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if strings.TrimSpace(req.Question) == "" {
		http.Error(w, "question is required", http.StatusBadRequest)
		return
	}

	start := time.Now()
	result := s.asker.Ask(r.Context(), req.Question)

	outcome := "ok"
	switch {
	case !result.Success:
		outcome = "error"
	case result.Degraded:
		outcome = "degraded"
	}
	s.metrics.askRequestsTotal.WithLabelValues(outcome).Inc()
	s.metrics.askDurationSeconds.WithLabelValues(outcome).Observe(time.Since(start).Seconds())

	status := http.StatusOK
	if !result.Success {
		status = http.StatusBadGateway
	}
	writeJSON(w, status, result, s.log)
}

// handleIngest handles POST /api/ingest. The response is the per-document
// batch report; a batch with failures returns 207 so callers notice without
// parsing the body.
func (s *Server) handleIngest(w http.ResponseWriter, r *http.Request) {
	if s.ingestor == nil {
		http.Error(w, "ingestion is not configured", http.StatusServiceUnavailable)
		return
	}

	var req ingestRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if len(req.Documents) == 0 {
		http.Error(w, "documents are required", http.StatusBadRequest)
		return
	}

	docs := make([]rag.Document, len(req.Documents))
	for i, d := range req.Documents {
		docs[i] = rag.Document{ID: d.ID, Text: d.Text, Metadata: d.Metadata}
	}

	report := s.ingestor.Ingest(r.Context(), docs)
	s.metrics.ingestDocumentsTotal.WithLabelValues("ok").Add(float64(report.SuccessCount))
	s.metrics.ingestDocumentsTotal.WithLabelValues("error").Add(float64(report.FailureCount))

	status := http.StatusOK
	if !report.Success {
		status = http.StatusMultiStatus
	}
	writeJSON(w, status, report, s.log)
}

// handleDeleteDocument handles DELETE /api/documents/{id}.
func (s *Server) handleDeleteDocument(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if id == "" {
		http.Error(w, "document id is required", http.StatusBadRequest)
		return
	}

	err := s.store.DeleteDocument(r.Context(), id)
	if errors.Is(err, rag.ErrNotFound) {
		http.Error(w, "document not found", http.StatusNotFound)
		return
	}
	if err != nil {
		logging.FromContext(r.Context()).Error("delete document failed",
			"document_id", id, "error", err)
		http.Error(w, "delete failed", http.StatusInternalServerError)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// handleStats handles GET /api/stats.
func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	stats, err := s.store.Stats(r.Context())
	if err != nil {
		logging.FromContext(r.Context()).Error("stats failed", "error", err)
		http.Error(w, "stats unavailable", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, stats, s.log)
}

// handleHealth handles GET /api/health for liveness checks.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"}, s.log)
}

// writeJSON encodes v as the response body with the given status.
func writeJSON(w http.ResponseWriter, status int, v any, log *slog.Logger) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Error("response encode error", slog.Any("error", err))
	}
}
