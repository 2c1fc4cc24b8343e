// Package server exposes the resolver over HTTP and WebSocket.
package server

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/scrypster/coref/internal/config"
	"github.com/scrypster/coref/internal/engine"
	"github.com/scrypster/coref/pkg/types"
)

// Resolver is the resolution engine served by the API.
type Resolver interface {
	Resolve(ctx context.Context, doc *types.Document) (*types.Result, error)
	DebugResolve(ctx context.Context, doc *types.Document) (*types.Result, *engine.DebugResolveResult, error)
	Sieves() []string
}

// HealthReporter contributes a component status to /healthz.
type HealthReporter interface {
	State() string
}

// Options configures a Server. Only Config is required.
type Options struct {
	Config config.ServerConfig
	Logger *slog.Logger

	// Requests records per-request metrics.
	Requests RequestObserver

	// Gatherer serves /metrics when set.
	Gatherer prometheus.Gatherer

	// Gazetteer reports the gazetteer circuit state on /healthz.
	Gazetteer HealthReporter
}

// Server is the HTTP surface of the resolver.
type Server struct {
	resolver Resolver
	opts     Options
	logger   *slog.Logger
	hub      *WebSocketHub
}

// New builds a server around resolver.
func New(resolver Resolver, opts Options) *Server {
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	s := &Server{resolver: resolver, opts: opts, logger: opts.Logger}
	s.hub = NewWebSocketHub(s.handleMessage, originPatterns(opts.Config), opts.Logger)
	s.hub.SetReadLimit(maxBodyBytes(opts.Config))
	return s
}

// Hub returns the WebSocket hub so other components can broadcast events.
func (s *Server) Hub() *WebSocketHub { return s.hub }

func originPatterns(cfg config.ServerConfig) []string {
	return []string{
		fmt.Sprintf("localhost:%d", cfg.Port),
		fmt.Sprintf("127.0.0.1:%d", cfg.Port),
		fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
	}
}

// Handler returns the fully wrapped HTTP handler. The hub loop must be
// running (see Start) for WebSocket clients to be served.
func (s *Server) Handler() http.Handler {
	apiMux := http.NewServeMux()
	apiMux.HandleFunc("/api/resolve", s.handleResolve)
	apiMux.HandleFunc("/api/sieves", s.handleSieves)

	mux := http.NewServeMux()
	mux.Handle("/api/", RequireAuth(apiMux, s.opts.Config.APIToken))
	mux.HandleFunc("/healthz", s.handleHealth)
	if s.opts.Gatherer != nil {
		mux.Handle("/metrics", promhttp.HandlerFor(s.opts.Gatherer, promhttp.HandlerOpts{}))
	}
	mux.Handle("/ws", RequireWebSocketAuth(s.hub, s.opts.Config.APIToken))

	// Rate limiting, then security headers, outermost metrics.
	handler := RateLimitMiddleware(mux, NewRateLimiter(s.opts.Config.RateLimit, s.opts.Config.RateBurst))
	handler = securityHeadersMiddleware(handler)
	return metricsMiddleware(handler, s.opts.Requests)
}

// Start listens on the configured address and serves until ctx is done.
// It returns the actual address being listened on (useful with port 0).
func (s *Server) Start(ctx context.Context) (string, error) {
	addr := fmt.Sprintf("%s:%d", s.opts.Config.Host, s.opts.Config.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      s.Handler(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return "", fmt.Errorf("server: failed to listen on %s: %w", addr, err)
	}

	go s.hub.Run()

	go func() {
		if err := srv.Serve(listener); err != nil && err != http.ErrServerClosed {
			s.logger.Error("server error", "error", err)
		}
	}()

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			s.logger.Error("server shutdown error", "error", err)
		}
		s.hub.Stop()
	}()

	actual := listener.Addr().String()
	s.logger.Info("server listening", "addr", actual)
	return actual, nil
}
