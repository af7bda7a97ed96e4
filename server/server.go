package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/rs/cors"

	"github.com/spektr-org/iaqdash/config"
	"github.com/spektr-org/iaqdash/schema"
)

// Server exposes loading and rendering to the browser UI over HTTP.
// Requests share no mutable state: each one loads and renders its own data.
type Server struct {
	cfg     config.Config
	profile schema.Profile
	log     *slog.Logger
	Router  *mux.Router
}

// New creates a Server with all routes registered.
func New(cfg config.Config, profile schema.Profile, log *slog.Logger) *Server {
	s := &Server{
		cfg:     cfg,
		profile: profile,
		log:     log,
		Router:  mux.NewRouter(),
	}
	s.setup()
	return s
}

// setup configures all routes
func (s *Server) setup() {
	r := s.Router
	r.Use(s.requestIDMiddleware)
	r.Use(s.loggingMiddleware)

	r.HandleFunc("/health", s.healthHandler).Methods(http.MethodGet)

	api := r.PathPrefix("/api/v1").Subrouter()
	api.HandleFunc("/datasets/inspect", s.inspectHandler).Methods(http.MethodPost)
	api.HandleFunc("/dashboard", s.renderHandler).Methods(http.MethodPost)
	api.HandleFunc("/dashboard", s.fixedDashboardHandler).Methods(http.MethodGet)
	api.HandleFunc("/charts", s.chartsHandler).Methods(http.MethodGet)
}

// Handler returns the router wrapped with CORS handling.
func (s *Server) Handler() http.Handler {
	c := cors.New(cors.Options{
		AllowedOrigins: s.cfg.CORSOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Content-Type", requestIDHeader},
		ExposedHeaders: []string{requestIDHeader},
		MaxAge:         3600,
	})
	return c.Handler(s.Router)
}

// ListenAndServe serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.cfg.Addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       60 * time.Second,
		WriteTimeout:      60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.log.Info("server listening", "addr", s.cfg.Addr, "data", s.cfg.DataPath)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("failed to start server: %w", err)
	case <-ctx.Done():
	}

	s.log.Info("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}
	return nil
}
