// Package api exposes the analysis job API. Submissions are acknowledged
// immediately and processed by a background worker pool; results are read
// back by id or slug.
package api

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/copylens/analyzer"
	"github.com/copylens/analyzer/db"
	"github.com/copylens/analyzer/metrics"
	"github.com/copylens/analyzer/models"
	"github.com/copylens/analyzer/ollama"
	"github.com/copylens/analyzer/slug"
	"github.com/copylens/analyzer/storage"
)

// Server represents the API server
type Server struct {
	db          *db.DB
	analyzer    *analyzer.Analyzer
	rewriter    *ollama.Client // nil when rewrite is disabled
	store       storage.Store
	addr        string
	server      *http.Server
	mux         *http.ServeMux
	corsEnabled bool
	logger      *slog.Logger

	queue   chan task
	workers int
	wg      sync.WaitGroup
}

// Config contains server configuration
type Config struct {
	Addr           string
	DBConfig       db.Config
	AnalyzerConfig analyzer.Config
	StorageConfig  storage.Config
	Store          storage.Store // overrides StorageConfig when set (e.g. S3)
	OllamaBaseURL  string
	OllamaModel    string
	EnableRewrite  bool
	Workers        int
	QueueSize      int
	CORSEnabled    bool
}

// DefaultConfig returns default server configuration
func DefaultConfig() Config {
	return Config{
		Addr:           ":8080",
		AnalyzerConfig: analyzer.DefaultConfig(),
		StorageConfig:  storage.DefaultConfig(),
		Workers:        4,
		QueueSize:      64,
		CORSEnabled:    true,
	}
}

// NewServer creates a new API server
func NewServer(config Config) (*Server, error) {
	database, err := db.New(config.DBConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	store := config.Store
	if store == nil {
		store, err = storage.New(config.StorageConfig)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize storage: %w", err)
		}
	}

	var rewriter *ollama.Client
	if config.EnableRewrite {
		rewriter = ollama.NewClient(config.OllamaBaseURL, config.OllamaModel)
	}

	workers := config.Workers
	if workers < 1 {
		workers = 1
	}
	queueSize := config.QueueSize
	if queueSize < 1 {
		queueSize = 64
	}

	s := &Server{
		db:          database,
		analyzer:    analyzer.New(config.AnalyzerConfig),
		rewriter:    rewriter,
		store:       store,
		addr:        config.Addr,
		mux:         http.NewServeMux(),
		corsEnabled: config.CORSEnabled,
		logger:      slog.Default(),
		queue:       make(chan task, queueSize),
		workers:     workers,
	}

	// Register routes
	s.registerRoutes()

	// Create HTTP server
	s.server = &http.Server{
		Addr:         config.Addr,
		Handler:      otelhttp.NewHandler(s.middleware(s.mux), "copylens-api"),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	return s, nil
}

// registerRoutes sets up all API routes
func (s *Server) registerRoutes() {
	s.mux.HandleFunc("/health", s.handleHealth)
	s.mux.Handle("/metrics", metrics.Handler())
	s.mux.Handle("/api/analyses", metrics.InstrumentHandler("/api/analyses", http.HandlerFunc(s.handleAnalyses)))
	s.mux.Handle("/api/analyses/", metrics.InstrumentHandler("/api/analyses/{id}", http.HandlerFunc(s.handleAnalysis)))
}

// Start starts the worker pool and the API server
func (s *Server) Start() error {
	s.startWorkers()
	s.logger.Info("starting API server", "addr", s.addr, "workers", s.workers)
	return s.server.ListenAndServe()
}

// Shutdown drains the queue, stops the workers and closes the server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("shutting down API server")

	// Stop accepting new requests first so nothing lands in the queue
	// while it drains.
	if err := s.server.Shutdown(ctx); err != nil {
		return err
	}

	close(s.queue)
	s.wg.Wait()

	return s.db.Close()
}

// middleware applies CORS and request logging to all routes
func (s *Server) middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.corsEnabled {
			w.Header().Set("Access-Control-Allow-Origin", "*")
			w.Header().Set("Access-Control-Allow-Methods", "GET, POST, DELETE, OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type")

			if r.Method == http.MethodOptions {
				w.WriteHeader(http.StatusOK)
				return
			}
		}

		// Logging (skip health and metrics scrapes to reduce noise)
		quiet := r.URL.Path == "/health" || r.URL.Path == "/metrics"

		start := time.Now()
		next.ServeHTTP(w, r)

		if !quiet {
			s.logger.Info("request completed",
				"method", r.Method,
				"path", r.URL.Path,
				"duration", time.Since(start),
			)
		}
	})
}

// handleHealth returns server health status
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		respondError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	count, err := s.db.Count()
	if err != nil {
		respondError(w, http.StatusInternalServerError, "failed to get count")
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"status":          "healthy",
		"analyses":        count,
		"model_available": s.analyzer.ModelAvailable(),
		"time":            time.Now(),
	})
}

// handleAnalyses routes the collection endpoint: POST submits, GET lists.
func (s *Server) handleAnalyses(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodPost:
		s.handleSubmit(w, r)
	case http.MethodGet:
		s.handleList(w, r)
	default:
		respondError(w, http.StatusMethodNotAllowed, "method not allowed")
	}
}

// handleSubmit validates the request, persists a pending record and queues
// the job. The response is a 202 acknowledgement, not the analysis itself.
func (s *Server) handleSubmit(w http.ResponseWriter, r *http.Request) {
	var req models.AnalyzeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if req.URL == "" {
		respondError(w, http.StatusBadRequest, "url is required")
		return
	}

	// Return the latest completed analysis for this URL unless the caller
	// forces a fresh run.
	if !req.Force {
		existing, err := s.db.GetByURL(req.URL)
		if err != nil {
			respondError(w, http.StatusInternalServerError, "database error")
			return
		}
		if existing != nil {
			existing.Cached = true
			respondJSON(w, http.StatusOK, existing)
			return
		}
	}

	jobSlug, err := s.uniqueSlug(slug.FromURL(req.URL))
	if err != nil {
		respondError(w, http.StatusInternalServerError, "database error")
		return
	}

	now := time.Now().UTC()
	record := &models.Analysis{
		ID:        uuid.New().String(),
		URL:       req.URL,
		Slug:      jobSlug,
		Status:    models.StatusAnalyzing,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := s.db.Save(record); err != nil {
		respondError(w, http.StatusInternalServerError, "failed to save analysis")
		return
	}

	select {
	case s.queue <- task{id: record.ID, url: record.URL}:
		metrics.QueueDepth.Set(float64(len(s.queue)))
	default:
		// Queue full: drop the record so the client can retry cleanly.
		if err := s.db.DeleteByID(record.ID); err != nil {
			s.logger.Error("failed to remove unqueued analysis", "id", record.ID, "error", err)
		}
		respondError(w, http.StatusServiceUnavailable, "analysis queue is full, retry later")
		return
	}

	respondJSON(w, http.StatusAccepted, models.AnalyzeResponse{
		ID:     record.ID,
		Slug:   record.Slug,
		Status: record.Status,
	})
}

// uniqueSlug appends a counter until the slug is free.
func (s *Server) uniqueSlug(base string) (string, error) {
	for counter := 0; ; counter++ {
		candidate := slug.MakeUnique(base, counter)
		exists, err := s.db.SlugExists(candidate)
		if err != nil {
			return "", err
		}
		if !exists {
			return candidate, nil
		}
	}
}

// handleAnalysis routes item endpoints: /api/analyses/{id} and
// /api/analyses/slug/{slug}.
func (s *Server) handleAnalysis(w http.ResponseWriter, r *http.Request) {
	path := strings.TrimPrefix(r.URL.Path, "/api/analyses/")
	if path == "" {
		respondError(w, http.StatusBadRequest, "id is required")
		return
	}

	if rest, ok := strings.CutPrefix(path, "slug/"); ok {
		if r.Method != http.MethodGet {
			respondError(w, http.StatusMethodNotAllowed, "method not allowed")
			return
		}
		s.handleGetBySlug(w, r, rest)
		return
	}

	switch r.Method {
	case http.MethodGet:
		s.handleGetByID(w, r, path)
	case http.MethodDelete:
		s.handleDeleteByID(w, r, path)
	default:
		respondError(w, http.StatusMethodNotAllowed, "method not allowed")
	}
}

// handleGetByID retrieves an analysis by ID
func (s *Server) handleGetByID(w http.ResponseWriter, r *http.Request, id string) {
	record, err := s.db.GetByID(id)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "database error")
		return
	}

	if record == nil {
		respondError(w, http.StatusNotFound, "analysis not found")
		return
	}

	respondJSON(w, http.StatusOK, record)
}

// handleGetBySlug retrieves an analysis by its slug
func (s *Server) handleGetBySlug(w http.ResponseWriter, r *http.Request, slugValue string) {
	record, err := s.db.GetBySlug(slugValue)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "database error")
		return
	}

	if record == nil {
		respondError(w, http.StatusNotFound, "analysis not found")
		return
	}

	respondJSON(w, http.StatusOK, record)
}

// handleDeleteByID deletes an analysis and its stored snapshot
func (s *Server) handleDeleteByID(w http.ResponseWriter, r *http.Request, id string) {
	record, err := s.db.GetByID(id)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "database error")
		return
	}
	if record == nil {
		respondError(w, http.StatusNotFound, "analysis not found")
		return
	}

	if err := s.db.DeleteByID(id); err != nil {
		respondError(w, http.StatusInternalServerError, "failed to delete analysis")
		return
	}

	if record.SnapshotPath != "" {
		if err := s.store.Delete(record.SnapshotPath); err != nil {
			s.logger.Warn("failed to delete snapshot", "path", record.SnapshotPath, "error", err)
		}
	}

	respondJSON(w, http.StatusOK, map[string]string{
		"message": "analysis deleted successfully",
	})
}

// handleList lists analyses with pagination
func (s *Server) handleList(w http.ResponseWriter, r *http.Request) {
	// Parse pagination parameters
	limit := 20
	offset := 0

	if limitStr := r.URL.Query().Get("limit"); limitStr != "" {
		fmt.Sscanf(limitStr, "%d", &limit)
	}
	if offsetStr := r.URL.Query().Get("offset"); offsetStr != "" {
		fmt.Sscanf(offsetStr, "%d", &offset)
	}

	// Enforce reasonable limits
	if limit < 1 {
		limit = 20
	}
	if limit > 100 {
		limit = 100
	}
	if offset < 0 {
		offset = 0
	}

	records, err := s.db.List(limit, offset)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "database error")
		return
	}

	count, _ := s.db.Count()

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"data":   records,
		"total":  count,
		"limit":  limit,
		"offset": offset,
	})
}

// respondJSON sends a JSON response
func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

// respondError sends an error response
func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{
		"error": message,
	})
}
