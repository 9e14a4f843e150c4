// Package web exposes the HTTP control surface: trigger a run, read its
// status and change the timer period.
package web

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/sirupsen/logrus"

	"tablesync/internal/status"
)

// Syncer starts a run without waiting for it.
type Syncer interface {
	Trigger() (string, error)
}

// StatusSource reports the state of the latest run.
type StatusSource interface {
	Current() status.Status
}

// IntervalSetter changes the timer period.
type IntervalSetter interface {
	SetInterval(d time.Duration) error
}

// Server is the HTTP server for the synchronization service.
type Server struct {
	syncer    Syncer
	status    StatusSource
	scheduler IntervalSetter
	router    *chi.Mux
	server    *http.Server
}

// NewServer creates a Server with its routes registered.
func NewServer(syncer Syncer, statusSource StatusSource, scheduler IntervalSetter) *Server {
	s := &Server{
		syncer:    syncer,
		status:    statusSource,
		scheduler: scheduler,
		router:    chi.NewRouter(),
	}
	s.setupMiddleware()
	s.setupRoutes()
	return s
}

func (s *Server) setupMiddleware() {
	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.RealIP)
	s.router.Use(requestLogger)
	s.router.Use(middleware.Recoverer)
	s.router.Use(middleware.Timeout(30 * time.Second))
}

func (s *Server) setupRoutes() {
	s.router.Get("/", s.handleIndex)
	s.router.Post("/sync", s.handleSync)
	s.router.Get("/status", s.handleStatus)
	s.router.Post("/set_interval", s.handleSetInterval)
	s.router.Get("/healthz", s.handleHealth)
}

// Start listens on addr until Shutdown is called.
func (s *Server) Start(addr string) error {
	s.server = &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	logrus.WithField("addr", addr).Info("starting http server")
	return s.server.ListenAndServe()
}

// Shutdown gracefully stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.server == nil {
		return nil
	}
	return s.server.Shutdown(ctx)
}

// Router returns the underlying chi router for testing.
func (s *Server) Router() *chi.Mux {
	return s.router
}
