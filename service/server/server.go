package server

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/brojonat/solwallet-tax/service/metrics"
	"github.com/brojonat/solwallet-tax/service/nats"
	"github.com/brojonat/solwallet-tax/service/tax"
)

// Server is the HTTP front end for the PNL and tax estimate service.
type Server struct {
	addr      string
	resolver  PNLResolver
	rates     *tax.Table
	publisher nats.Publisher
	metrics   *metrics.Metrics
	logger    *slog.Logger
	server    *http.Server
}

// New creates a new HTTP server with the given dependencies.
// The rates table defaults to the embedded one when nil.
// The publisher is optional - if nil, estimate events are not published.
// The metrics is optional - if nil, the metrics endpoint isn't available.
func New(addr string, resolver PNLResolver, rates *tax.Table, publisher nats.Publisher, m *metrics.Metrics, logger *slog.Logger) *Server {
	if rates == nil {
		rates = tax.DefaultTable()
	}
	return &Server{
		addr:      addr,
		resolver:  resolver,
		rates:     rates,
		publisher: publisher,
		metrics:   m,
		logger:    logger,
	}
}

// Handler builds the routed handler with all middleware applied.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	route := func(pattern, name string, h http.Handler) {
		mux.Handle(pattern, metrics.HTTPMetricsMiddleware(s.metrics, name)(h))
	}

	route("POST /api/calculate-tax", "/api/calculate-tax", handleCalculateTax(s.resolver, s.rates, s.publisher, s.metrics, s.logger))
	route("GET /api/v1/pnl/{address}", "/api/v1/pnl", handleWalletPNL(s.resolver, s.logger))
	route("GET /api/v1/states", "/api/v1/states", handleListStates(s.rates))

	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})

	if s.metrics != nil {
		mux.Handle("GET /metrics", promhttp.Handler())
	}

	return corsMiddleware(recoverMiddleware(mux, s.logger))
}

// Start starts the HTTP server and blocks until it stops.
func (s *Server) Start() error {
	ln, err := net.Listen("tcp", s.addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", s.addr, err)
	}
	return s.Serve(ln)
}

// Serve accepts connections on ln until Shutdown is called.
func (s *Server) Serve(ln net.Listener) error {
	s.server = &http.Server{
		Handler:      s.Handler(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second, // paginated upstream fetches can be slow
		IdleTimeout:  60 * time.Second,
	}

	if s.metrics != nil {
		s.logger.Info("Prometheus metrics endpoint enabled")
	}
	if s.publisher == nil {
		s.logger.Warn("NATS publisher not configured, estimate events disabled")
	}

	s.logger.Info("starting HTTP server", "addr", ln.Addr().String())
	if err := s.server.Serve(ln); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("server failed: %w", err)
	}

	return nil
}

// Shutdown gracefully shuts down the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("shutting down HTTP server")

	if s.server != nil {
		if err := s.server.Shutdown(ctx); err != nil {
			return err
		}
	}
	if s.publisher != nil {
		return s.publisher.Close()
	}
	return nil
}

// corsMiddleware adds CORS headers to all responses and handles OPTIONS preflight requests.
func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
		w.Header().Set("Access-Control-Max-Age", "3600")

		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusNoContent)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// recoverMiddleware turns a handler panic into a SERVER_ERROR response.
func recoverMiddleware(next http.Handler, logger *slog.Logger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				if rec == http.ErrAbortHandler {
					panic(rec)
				}
				logger.ErrorContext(r.Context(), "handler panic",
					"path", r.URL.Path,
					"panic", fmt.Sprint(rec),
				)
				writeError(w, codeServerError, msgServerError, http.StatusInternalServerError)
			}
		}()
		next.ServeHTTP(w, r)
	})
}
