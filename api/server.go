// Package api provides the HTTP REST API for Lumi.
//
// This package exposes Lumi's functionality via HTTP endpoints, enabling
// programmatic access from external tools and automation pipelines.
//
// Endpoints:
//
//	GET    /health                liveness probe
//	GET    /ready                 readiness probe
//	POST   /api/generate          generate a study artifact
//	POST   /api/chat              follow-up chat on the active explanation
//	POST   /api/quiz/result       grade and persist a quiz practice run
//	GET    /api/history           search history (keyset pagination)
//	GET    /api/history/{id}      fetch one record
//	DELETE /api/history/{id}      delete one record
//	POST   /api/history/delete    delete a batch of records
//	DELETE /api/history           clear all history
//	GET    /api/notes             list notes
//	POST   /api/notes             create a note
//	PATCH  /api/notes/{id}        merge-update a note
//	DELETE /api/notes/{id}        delete a note
//
// File structure:
//   - server.go: HTTP server setup and lifecycle
//   - middleware.go: HTTP middleware (logging, recovery)
//   - health.go: Health check endpoints (/health, /ready)
//   - generate.go: Generation and chat endpoints
//   - history.go: History search and deletion endpoints
//   - notes.go: Note CRUD endpoints
//   - response.go: JSON response helpers
package api

import (
	"context"
	"net/http"
	"time"

	"github.com/lumi-ai/lumi/internal/generate"
	"github.com/lumi-ai/lumi/internal/log"
	"github.com/lumi-ai/lumi/internal/notes"
	"github.com/lumi-ai/lumi/internal/store"
)

const (
	// DefaultAddr is the default address for the HTTP server. Bound to
	// loopback: the API carries no transport auth and is meant for local
	// tooling.
	DefaultAddr = "127.0.0.1:3400"

	// ShutdownTimeout is the maximum time to wait for graceful shutdown.
	ShutdownTimeout = 10 * time.Second

	// ReadHeaderTimeout is the timeout for reading request headers.
	// This prevents Slowloris attacks (CWE-400).
	ReadHeaderTimeout = 10 * time.Second

	// ReadTimeout is the maximum duration for reading the entire request.
	ReadTimeout = 30 * time.Second

	// WriteTimeout is the maximum duration for writing the response.
	// Generation calls can take a while on slow models.
	WriteTimeout = 120 * time.Second

	// IdleTimeout is the maximum time to wait for the next request on keep-alive connections.
	IdleTimeout = 120 * time.Second
)

// Server is the HTTP server for Lumi's REST API.
type Server struct {
	mux    *http.ServeMux
	logger log.Logger

	health   *HealthHandler
	generate *GenerateHandler
	history  *HistoryHandler
	notes    *NoteHandler
}

// NewServer creates a new HTTP server with all routes registered.
// ready may be nil when the store backend has no health probe (memory).
func NewServer(sess *generate.Session, st store.Store, noteSvc *notes.Service, ownerID string, ready func(context.Context) error, logger log.Logger) *Server {
	mux := http.NewServeMux()

	s := &Server{
		mux:      mux,
		logger:   logger,
		health:   NewHealthHandler(ready, logger),
		generate: NewGenerateHandler(sess, logger),
		history:  NewHistoryHandler(st, ownerID, logger),
		notes:    NewNoteHandler(noteSvc, logger),
	}

	s.health.RegisterRoutes(mux)
	s.generate.RegisterRoutes(mux)
	s.history.RegisterRoutes(mux)
	s.notes.RegisterRoutes(mux)

	return s
}

// Handler returns the HTTP handler with middleware applied.
// Middleware order: recovery → logging → handler
func (s *Server) Handler() http.Handler {
	return chain(s.mux, recoveryMiddleware(s.logger), loggingMiddleware(s.logger))
}

// Run starts the HTTP server and blocks until the context is cancelled.
// It handles graceful shutdown when the context is done.
func (s *Server) Run(ctx context.Context, addr string) error {
	if addr == "" {
		addr = DefaultAddr
	}

	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: ReadHeaderTimeout,
		ReadTimeout:       ReadTimeout,
		WriteTimeout:      WriteTimeout,
		IdleTimeout:       IdleTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("starting HTTP server", "addr", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		s.logger.Info("shutting down HTTP server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), ShutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	case err := <-errCh:
		if err == http.ErrServerClosed {
			return nil
		}
		return err
	}
}
