// Package server is the HTTP transport over the report engine. It owns
// routing, the shared-secret guard, rate limiting and request/response
// shaping; all report semantics live in internal/report.
package server

import (
	"context"
	"errors"
	"net/http"

	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"github.com/agrisense/cropscan/internal/config"
	"github.com/agrisense/cropscan/internal/report"
)

// Server serves the report API.
type Server struct {
	cfg     config.ServerConfig
	reports *report.Service
	log     *zap.Logger
	limiter *rate.Limiter
}

// New creates a server around the given report service.
func New(cfg config.ServerConfig, reports *report.Service, logger *zap.Logger) *Server {
	return &Server{
		cfg:     cfg,
		reports: reports,
		log:     logger.Named("server"),
		limiter: rate.NewLimiter(rate.Limit(cfg.RateLimit), cfg.RateBurst),
	}
}

// Handler builds the full middleware and routing stack. Exposed for tests.
func (s *Server) Handler() http.Handler {
	r := mux.NewRouter()
	r.HandleFunc("/health", s.handleHealth).Methods(http.MethodGet)

	api := r.PathPrefix(s.cfg.APIPrefix).Subrouter()
	api.Use(s.requireAPIKey, s.rateLimit)
	api.HandleFunc("/reports", s.handleAllReports).Methods(http.MethodGet)
	api.HandleFunc("/reports/by-user/{user_id}", s.handleReportsByUser).Methods(http.MethodGet)
	api.HandleFunc("/reports/by-device/{device_id}", s.handleReportsByDevice).Methods(http.MethodGet)
	api.HandleFunc("/reports/by-date-range", s.handleReportsByDateRange).Methods(http.MethodGet)
	api.HandleFunc("/reports/by-user-and-device", s.handleReportsByUserAndDevice).Methods(http.MethodGet)

	var h http.Handler = r
	h = s.accessLog(h)
	h = s.requestID(h)
	h = handlers.RecoveryHandler(handlers.PrintRecoveryStack(false))(h)
	return h
}

// Run serves until the context is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:         s.cfg.ListenAddr,
		Handler:      s.Handler(),
		ReadTimeout:  s.cfg.ReadTimeout,
		WriteTimeout: s.cfg.WriteTimeout,
	}

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		s.log.Info("HTTP server listening", zap.String("addr", s.cfg.ListenAddr))
		if err := srv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		s.log.Info("Shutting down HTTP server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), s.cfg.ShutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})
	return g.Wait()
}
