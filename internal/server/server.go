// Package server exposes the client store over HTTP with chi.
package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/koustreak/clientbook/internal/clients"
	"github.com/koustreak/clientbook/internal/logger"
)

// Clients is the record API the handlers call. *clients.Store implements it.
type Clients interface {
	AddClient(ctx context.Context, name, surname, email string, phones []string) (int64, error)
	AddPhone(ctx context.Context, clientID int64, number string) (int64, error)
	GetClient(ctx context.Context, clientID int64) (*clients.Client, error)
	GetPhones(ctx context.Context, clientID int64) ([]string, error)
	UpdateClient(ctx context.Context, clientID int64, upd clients.ClientUpdate) error
	DeletePhone(ctx context.Context, clientID int64, number string) error
	DeleteClient(ctx context.Context, clientID int64) error
	FindClient(ctx context.Context, c clients.Criteria) (int64, error)
	ListClients(ctx context.Context) ([]clients.ClientRecord, error)
}

// Pinger reports backend health for /healthz.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Config holds listener settings.
type Config struct {
	Addr            string
	RequestTimeout  time.Duration
	ShutdownTimeout time.Duration
}

// Server represents the HTTP API server
type Server struct {
	cfg    Config
	store  Clients
	health Pinger
	log    *logger.Logger
	router *chi.Mux
}

// New builds the router. health may be nil, in which case /healthz always
// reports ok.
func New(cfg Config, store Clients, health Pinger, log *logger.Logger) *Server {
	if log == nil {
		log = logger.Global()
	}
	if cfg.RequestTimeout <= 0 {
		cfg.RequestTimeout = 30 * time.Second
	}
	if cfg.ShutdownTimeout <= 0 {
		cfg.ShutdownTimeout = 10 * time.Second
	}

	s := &Server{
		cfg:    cfg,
		store:  store,
		health: health,
		log:    log,
		router: chi.NewRouter(),
	}
	s.setupRoutes()
	return s
}

// Handler returns the root http.Handler.
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) setupRoutes() {
	r := s.router

	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(requestLogger(s.log))
	r.Use(chimiddleware.Recoverer)
	r.Use(chimiddleware.Timeout(s.cfg.RequestTimeout))

	r.Get("/healthz", s.healthz)

	r.Route("/clients", func(r chi.Router) {
		r.Get("/", s.listClients)
		r.Post("/", s.createClient)
		r.Get("/search", s.findClient)

		r.Route("/{id}", func(r chi.Router) {
			r.Get("/", s.getClient)
			r.Patch("/", s.updateClient)
			r.Delete("/", s.deleteClient)

			r.Get("/phones", s.listPhones)
			r.Post("/phones", s.addPhone)
			r.Delete("/phones/{number}", s.deletePhone)
		})
	})
}

// Start serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Start(ctx context.Context) error {
	server := &http.Server{
		Addr:              s.cfg.Addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       15 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	errChan := make(chan error, 1)
	go func() {
		s.log.InfoWith("starting HTTP server", map[string]interface{}{"addr": s.cfg.Addr})
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errChan <- err
		}
	}()

	select {
	case <-ctx.Done():
		s.log.Info("shutting down HTTP server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), s.cfg.ShutdownTimeout)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	case err := <-errChan:
		return err
	}
}
