// Package api serves the extraction engine and store over HTTP.
//
// Routes live under /v1. All payloads are JSON; errors come back as
// {"error": "..."} with a matching status code.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/quillback/logbook/internal/extract"
	"github.com/quillback/logbook/internal/refine"
	"github.com/quillback/logbook/internal/store"
)

// maxBodyBytes caps request bodies. Annotation JSON for a full page runs
// well under a megabyte; this leaves room for dense multi-page scans.
const maxBodyBytes = 10 << 20

// Config wires the server's collaborators. Store and Refiner are
// optional: without a store the extract endpoint still works but nothing
// persists, and the history endpoints answer 503.
type Config struct {
	Engine  *extract.Engine
	Store   store.Store
	Refiner *refine.Refiner
	Logger  *slog.Logger
}

// Server is the HTTP front end.
type Server struct {
	engine  *extract.Engine
	store   store.Store
	refiner *refine.Refiner
	logger  *slog.Logger
}

// NewServer builds a server from cfg, filling in defaults for missing
// pieces.
func NewServer(cfg Config) *Server {
	if cfg.Engine == nil {
		cfg.Engine = extract.NewEngine(extract.DefaultOptions())
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	return &Server{
		engine:  cfg.Engine,
		store:   cfg.Store,
		refiner: cfg.Refiner,
		logger:  cfg.Logger,
	}
}

// Router assembles the route tree.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(s.logRequests)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", s.handleHealth)

	r.Route("/v1", func(r chi.Router) {
		r.Post("/extractions", s.handleExtract)
		r.Get("/extractions", s.requireStore(s.handleList))
		r.Get("/extractions/{id}", s.requireStore(s.handleGet))
		r.Delete("/extractions/{id}", s.requireStore(s.handleDelete))
		r.Get("/search", s.requireStore(s.handleSearch))
		r.Get("/stats", s.requireStore(s.handleStats))
	})

	return r
}

// ListenAndServe runs the server until ctx is canceled, then shuts down
// gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	httpServer := &http.Server{
		Addr:              addr,
		Handler:           s.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("http server listening", "addr", addr)
		errCh <- httpServer.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case <-ctx.Done():
		s.logger.Info("shutting down http server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return httpServer.Shutdown(shutdownCtx)
	}
}

// logRequests emits one structured log line per request.
func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		s.logger.Info("request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"bytes", ww.BytesWritten(),
			"duration", time.Since(start).Round(time.Microsecond),
			"request_id", middleware.GetReqID(r.Context()))
	})
}

// requireStore answers 503 for history endpoints when the server runs
// store-less.
func (s *Server) requireStore(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if s.store == nil {
			writeError(w, http.StatusServiceUnavailable, "no store configured")
			return
		}
		next(w, r)
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
