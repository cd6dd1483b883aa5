// Package server exposes the carrier admin API and the carrier-service
// rate-quote callback over HTTP.
package server

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/uptrace/opentelemetry-go-extra/otelzap"
	"go.uber.org/zap"

	"github.com/delivro/rateshop/internal/telemetry"
	"github.com/delivro/rateshop/pkg/carrier"
	"github.com/delivro/rateshop/pkg/rating"
)

// Server is the HTTP server for the rateshop service.
type Server struct {
	port     int
	registry *carrier.Registry
	engine   *rating.Engine
	logger   *otelzap.Logger
	metrics  *telemetry.Metrics
}

// Config holds server configuration.
type Config struct {
	Port int
}

// New creates a new server instance.
func New(cfg Config, registry *carrier.Registry, engine *rating.Engine, logger *otelzap.Logger) *Server {
	return &Server{
		port:     cfg.Port,
		registry: registry,
		engine:   engine,
		logger:   logger,
		metrics:  telemetry.NewMetrics(),
	}
}

// Handler builds the route tree. It is exported so tests can drive the
// server through httptest without binding a port.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(s.instrument)

	r.Get("/health", s.handleHealth)
	r.Handle("/metrics", s.metrics.Handler())

	r.Route("/api/carriers", func(r chi.Router) {
		r.Get("/", s.handleListCarriers)
		r.Post("/", s.handleCreateCarrier)
		r.Put("/{name}", s.handleUpdateCarrier)
		r.Delete("/{name}", s.handleDeleteCarrier)
	})

	// Shopify-style carrier service callback; unauthenticated by contract.
	r.Post("/carrier-service", s.handleRates)

	return r
}

// Run starts the HTTP server and blocks until context is cancelled.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", s.port),
		Handler:      s.Handler(),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("Starting server", zap.Int("port", s.port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		s.logger.Info("Shutting down server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	case err := <-errCh:
		return err
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("ok"))
}

// instrument records per-request metrics keyed by the matched chi route.
func (s *Server) instrument(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

		next.ServeHTTP(ww, r)

		operation := chi.RouteContext(r.Context()).RoutePattern()
		if operation == "" {
			operation = "unmatched"
		}
		s.metrics.RecordRequest(operation, strconv.Itoa(ww.Status()), time.Since(start).Seconds())
	})
}
