// Package api serves a read-only HTTP inspection surface over an open
// project: layer contents, diagnostics, load tables and diagram exports.
// It is verification tooling for scripts and dashboards, not the drawing
// UI; nothing it serves mutates the project. POST /refresh only reloads
// what another process saved.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	apperrors "github.com/jzagalv/ssaa-designer/pkg/errors"
	"github.com/jzagalv/ssaa-designer/pkg/pipeline"
)

// Server exposes one runner's project over HTTP.
type Server struct {
	runner *pipeline.Runner
	logger *log.Logger
	router chi.Router
}

// New creates a server over the given runner. If logger is nil, the default
// logger is used.
func New(runner *pipeline.Runner, logger *log.Logger) *Server {
	if logger == nil {
		logger = log.Default()
	}
	s := &Server{runner: runner, logger: logger}

	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(s.logRequests)

	r.Get("/healthz", s.handleHealth)
	r.Post("/refresh", s.handleRefresh)
	r.Route("/layers", func(r chi.Router) {
		r.Get("/", s.handleLayers)
		r.Route("/{key}", func(r chi.Router) {
			r.Get("/", s.handleLayer)
			r.Get("/issues", s.handleIssues)
			r.Get("/loadtable", s.handleLoadTable)
			r.Get("/dot", s.handleDOT)
			r.Get("/svg", s.handleSVG)
		})
	})

	s.router = r
	return s
}

// Handler returns the server's HTTP handler, for tests and embedding.
func (s *Server) Handler() http.Handler { return s.router }

// Serve runs the server on addr until ctx is cancelled, then shuts down
// gracefully.
func (s *Server) Serve(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:           addr,
		Handler:        s.router,
		ReadTimeout:    30 * time.Second,
		WriteTimeout:   30 * time.Second,
		IdleTimeout:    120 * time.Second,
		MaxHeaderBytes: 1 << 20,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("inspection API listening", "addr", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		s.logger.Info("shutting down inspection API")
		return srv.Shutdown(shutdownCtx)
	}
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		s.logger.Debug("request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"duration", time.Since(start))
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeError maps structured error codes onto HTTP status codes and emits a
// JSON error body.
func writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch apperrors.GetCode(err) {
	case apperrors.ErrCodeInvalidInput, apperrors.ErrCodeInvalidLayerKey,
		apperrors.ErrCodeInvalidFeederKey, apperrors.ErrCodeInvalidNodeKind,
		apperrors.ErrCodeInvalidFormat:
		status = http.StatusBadRequest
	case apperrors.ErrCodeNotFound, apperrors.ErrCodeLayerNotFound,
		apperrors.ErrCodeNodeNotFound, apperrors.ErrCodeProjectNotFound:
		status = http.StatusNotFound
	}
	writeJSON(w, status, map[string]string{
		"error": apperrors.UserMessage(err),
		"code":  string(apperrors.GetCode(err)),
	})
}
