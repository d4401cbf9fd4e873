package internal

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Server exposes the memory service as a small JSON API for the
// extension shell. The original design fronted the model servers with
// CORS proxies; here the API itself carries the CORS policy for the
// extension origin.
type Server struct {
	svc    *MemoryService
	logger *zap.Logger
	cfg    ServerConfig
}

func NewServer(svc *MemoryService, logger *zap.Logger, cfg ServerConfig) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Server{
		svc:    svc,
		logger: logger,
		cfg:    cfg,
	}
}

// Router builds the chi handler tree.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()

	r.Use(s.requestLogger)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: s.allowedOrigins(),
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Content-Type"},
		MaxAge:         300,
	}))

	r.Get("/v1/healthz", s.handleHealth)
	r.Route("/v1", func(r chi.Router) {
		r.Post("/memories", s.handleStore)
		r.Get("/memories/{id}", s.handleGet)
		r.Post("/search", s.handleSearch)
		r.Get("/analytics", s.handleAnalytics)
		r.Get("/state", s.handleExport)
		r.Put("/state", s.handleImport)
	})

	return r
}

// ListenAndServe runs the server until ctx is cancelled.
func (s *Server) ListenAndServe(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.cfg.Addr,
		Handler:           s.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	s.logger.Info("listening", zap.String("addr", s.cfg.Addr))

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}

func (s *Server) allowedOrigins() []string {
	if len(s.cfg.AllowedOrigins) == 0 {
		return []string{"*"}
	}
	return s.cfg.AllowedOrigins
}

func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		requestID := uuid.NewString()
		w.Header().Set("X-Request-Id", requestID)

		next.ServeHTTP(w, r)

		s.logger.Info("request",
			zap.String("request_id", requestID),
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Duration("duration", time.Since(start)),
		)
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleStore(w http.ResponseWriter, r *http.Request) {
	var raw RawCapture
	if err := json.NewDecoder(r.Body).Decode(&raw); err != nil {
		writeError(w, http.StatusBadRequest, "invalid capture payload")
		return
	}

	out, err := s.svc.StoreMemory(r.Context(), raw)
	if err != nil {
		if errors.Is(err, ErrDisabled) {
			writeError(w, http.StatusServiceUnavailable, "capture analysis is disabled")
			return
		}
		s.logger.Error("store memory", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "store failed")
		return
	}

	writeJSON(w, http.StatusCreated, out)
}

func (s *Server) handleGet(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	rec, err := s.svc.Get(id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			writeError(w, http.StatusNotFound, "memory not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "lookup failed")
		return
	}

	writeJSON(w, http.StatusOK, rec)
}

type searchRequest struct {
	Query                string     `json:"query"`
	Threshold            float32    `json:"threshold,omitempty"`
	Limit                int        `json:"limit,omitempty"`
	Domain               string     `json:"domain,omitempty"`
	Category             string     `json:"category,omitempty"`
	From                 *time.Time `json:"from,omitempty"`
	To                   *time.Time `json:"to,omitempty"`
	IncludeRelationships bool       `json:"include_relationships,omitempty"`
}

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	var req searchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid search payload")
		return
	}

	opts := SearchOptions{
		Threshold:            req.Threshold,
		Limit:                req.Limit,
		Domain:               req.Domain,
		Category:             req.Category,
		IncludeRelationships: req.IncludeRelationships,
	}
	if req.From != nil {
		opts.From = *req.From
	}
	if req.To != nil {
		opts.To = *req.To
	}

	result := s.svc.SearchMemories(r.Context(), req.Query, opts)
	writeJSON(w, http.StatusOK, result)
}

func (s *Server) handleAnalytics(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.svc.Analytics())
}

func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	blob, err := s.svc.ExportState()
	if err != nil {
		s.logger.Error("export state", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "export failed")
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(blob)
}

func (s *Server) handleImport(w http.ResponseWriter, r *http.Request) {
	blob, err := readBody(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "unreadable state payload")
		return
	}

	if err := s.svc.ImportState(blob); err != nil {
		writeError(w, http.StatusBadRequest, "invalid state payload")
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"status": "imported"})
}

func readBody(r *http.Request) ([]byte, error) {
	defer r.Body.Close()
	return io.ReadAll(r.Body)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
