// package server contains middleware & handlers for the token endpoints
package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/scanplay/internal/metrics"
	"github.com/desertthunder/scanplay/internal/services"
	"github.com/desertthunder/scanplay/internal/session"
	"github.com/desertthunder/scanplay/internal/shared"
	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"golang.org/x/time/rate"
)

const shutdownTimeout = 10 * time.Second

// Middleware wraps an http.Handler and returns a new http.Handler with additional behavior.
type Middleware func(http.Handler) http.Handler

// Handler groups endpoints under a common path prefix.
type Handler interface {
	Pattern() string     // Pattern returns the prefix the handler is mounted under
	Routes(r chi.Router) // Routes registers endpoints relative to Pattern
}

// Router defines the interface for HTTP routing and middleware management.
type Router interface {
	Use(middleware ...Middleware)                     // Use adds middleware to the router's middleware stack
	Handle(method, path string, handler http.Handler) // Handle registers a handler for the specified method and path
	Handler(handler Handler)                          // Handler mounts a [Handler] under its pattern
	ServeHTTP(w http.ResponseWriter, r *http.Request) // ServeHTTP implements http.Handler for the entire router
}

// Options holds the dependencies of [New].
type Options struct {
	Config *shared.Config
	Tokens services.TokenService
	Logger *log.Logger
	// Registry receives the server's metrics; a fresh registry is created when nil.
	Registry *prometheus.Registry
}

// Server is the HTTP front of the credential exchanger.
type Server struct {
	config  *shared.Config
	logger  *log.Logger
	limiter *RateLimiter
	handler http.Handler
}

// New assembles the router: operational endpoints at the root, token endpoints under /api.
func New(opts Options) (*Server, error) {
	if opts.Config == nil {
		return nil, fmt.Errorf("%w: server config", shared.ErrMissingConfig)
	}
	if opts.Tokens == nil {
		return nil, fmt.Errorf("%w: token service", shared.ErrMissingArgument)
	}
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(nil)
	}
	if opts.Registry == nil {
		opts.Registry = prometheus.NewRegistry()
	}

	cfg := opts.Config
	collector := metrics.NewCollector(opts.Registry)
	limiter := NewRateLimiter(RateLimiterConfig{
		Rate:            rate.Limit(float64(cfg.Server.RateLimit) / 60.0),
		Burst:           cfg.Server.RateBurst,
		CleanupInterval: 5 * time.Minute,
	}, opts.Logger)

	router := NewChiRouter()
	router.Use(
		RequestIDMiddleware(),
		RecoveryMiddleware(opts.Logger),
		LoggingMiddleware(opts.Logger, collector),
		SecurityHeadersMiddleware(),
	)

	router.Handle(http.MethodGet, "/", http.HandlerFunc(landing))
	router.Handle(http.MethodGet, "/healthz", http.HandlerFunc(healthz))
	router.Handle(http.MethodGet, "/metrics", metrics.Handler(opts.Registry))

	auth := NewAuthHandler(AuthHandlerConfig{
		Tokens:  opts.Tokens,
		Store:   session.NewStore(cfg.IsProduction()),
		BaseURL: cfg.Server.BaseURL,
		Metrics: collector,
		Logger:  shared.WithLogger(opts.Logger, "component", "auth"),
		Limit:   limiter.Middleware(),
	})
	router.Handler(auth)

	return &Server{config: cfg, logger: opts.Logger, limiter: limiter, handler: router}, nil
}

// Handler returns the assembled router.
func (s *Server) Handler() http.Handler {
	return s.handler
}

// Run serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	defer s.limiter.Stop()

	srv := &http.Server{
		Addr:              s.config.Addr(),
		Handler:           s.handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("server listening", "addr", srv.Addr, "redirect_uri", s.config.RedirectURI())
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	s.logger.Info("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

func healthz(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = w.Write([]byte("ok"))
}
