package server

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type Server struct {
	httpServer *http.Server
	handler    *Handler
	logger     *slog.Logger
}

func NewServer(port string, handler *Handler, logger *slog.Logger) *Server {
	httpServer := &http.Server{
		Addr:         ":" + port,
		Handler:      NewRouter(handler, logger),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return &Server{
		httpServer: httpServer,
		handler:    handler,
		logger:     logger,
	}
}

func NewRouter(handler *Handler, logger *slog.Logger) http.Handler {
	r := chi.NewRouter()

	r.Use(RecoveryMiddleware(logger))
	r.Use(RequestIDMiddleware)
	r.Use(TracingMiddleware(handler.serviceName))
	r.Use(LoggingMiddleware(logger))
	r.Use(CORSMiddleware)

	promRegistry := newPrometheusRegistry(handler.registry)

	r.Get("/health", handler.HealthCheck)
	r.Get("/metrics", promhttp.HandlerFor(promRegistry, promhttp.HandlerOpts{}).ServeHTTP)

	r.Route("/api/slots", func(r chi.Router) {
		r.Get("/status", handler.Status)
		r.Post("/allocate", handler.Allocate)
		r.Post("/release", handler.Release)
		r.Get("/classes/{class}/availability", handler.Availability)
		r.Get("/classes/{class}/suggestion", handler.Suggest)
	})

	return r
}

func (s *Server) Start() error {
	s.logger.Info("starting HTTP server", slog.String("addr", s.httpServer.Addr))
	return s.httpServer.ListenAndServe()
}

func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("shutting down HTTP server")
	return s.httpServer.Shutdown(ctx)
}

func (s *Server) GetAddress() string {
	return fmt.Sprintf("http://localhost%s", s.httpServer.Addr)
}
