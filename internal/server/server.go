// Package server exposes the price estimator over HTTP.
package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/yash/flightprice/internal/features"
	"github.com/yash/flightprice/internal/history"
	"github.com/yash/flightprice/internal/memory"
	"github.com/yash/flightprice/internal/pricing"
)

// Version is reported by /health.
const Version = "1.0.0"

// DurationSuggester answers typical-duration lookups. *history.Store
// satisfies it.
type DurationSuggester interface {
	SuggestDuration(ctx context.Context, src, dst features.City, stops int) (history.Suggestion, error)
}

// Options configures a Server. Estimator is required.
type Options struct {
	Estimator       *pricing.Estimator
	History         DurationSuggester // nil always suggests the default duration
	Monitor         *memory.Monitor   // nil disables shedding and memory stats
	Logger          *zap.Logger
	IncludeVector   bool
	ShutdownTimeout time.Duration
}

// Server holds the HTTP handlers and their dependencies.
type Server struct {
	est             *pricing.Estimator
	history         DurationSuggester
	monitor         *memory.Monitor
	log             *zap.Logger
	includeVector   bool
	shutdownTimeout time.Duration
	catalogue       features.Catalogue

	handler   http.Handler
	startTime time.Time
	ready     atomic.Bool
}

// New builds a server. It starts not ready; call SetReady once the
// dependencies have finished loading.
func New(opts Options) (*Server, error) {
	if opts.Estimator == nil {
		return nil, errors.New("server: estimator is required")
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	if opts.ShutdownTimeout <= 0 {
		opts.ShutdownTimeout = 10 * time.Second
	}

	s := &Server{
		est:             opts.Estimator,
		history:         opts.History,
		monitor:         opts.Monitor,
		log:             opts.Logger.Named("http"),
		includeVector:   opts.IncludeVector,
		shutdownTimeout: opts.ShutdownTimeout,
		catalogue:       features.NewCatalogue(),
		startTime:       time.Now(),
	}
	s.handler = s.routes()
	return s, nil
}

// SetReady flips the /ready and /health status.
func (s *Server) SetReady(ready bool) {
	s.ready.Store(ready)
}

// Handler returns the root handler with middleware applied.
func (s *Server) Handler() http.Handler {
	return s.handler
}

func (s *Server) routes() http.Handler {
	mux := http.NewServeMux()

	// Health endpoints
	mux.HandleFunc("GET /health", s.handleHealth)
	mux.HandleFunc("GET /ready", s.handleReady)
	mux.HandleFunc("GET /live", s.handleLive)

	// Metrics endpoint
	mux.HandleFunc("GET /metrics", s.handleMetrics)

	// API endpoints
	mux.HandleFunc("POST /api/v1/quote", s.handleQuote)
	mux.HandleFunc("GET /api/v1/duration", s.handleDuration)
	mux.HandleFunc("GET /api/v1/schema", s.handleSchema)
	mux.HandleFunc("GET /api/v1/catalogue", s.handleCatalogue)

	return s.requestIDMiddleware(s.metricsMiddleware(mux))
}

// ---------------------------------------------------------------------------
// Lifecycle
// ---------------------------------------------------------------------------

// ListenAndServe listens on addr and serves until ctx is cancelled.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("listen %s: %w", addr, err)
	}
	return s.Serve(ctx, ln)
}

// Serve accepts connections on ln until ctx is cancelled, then shuts down
// gracefully. It returns nil after a clean shutdown.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	srv := &http.Server{
		Handler:      s.handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.log.Info("listening", zap.String("addr", ln.Addr().String()))
		errCh <- srv.Serve(ln)
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("http server: %w", err)
	case <-ctx.Done():
	}

	s.ready.Store(false)
	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("http shutdown: %w", err)
	}
	<-errCh
	s.log.Info("stopped")
	return nil
}
