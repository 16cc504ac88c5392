package server

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/cooptacular/gravity/pkg/manifest"
	gmw "github.com/cooptacular/gravity/pkg/middleware"
)

const (
	DefaultShutdownTimeout   = 10 * time.Second
	DefaultReadHeaderTimeout = 10 * time.Second
)

// Request is what a page or island handler receives about the matched route.
type Request struct {
	Route    *manifest.RouteData
	Info     *manifest.RouteInfo
	Params   map[string]string
	Manifest *manifest.Manifest
}

// PageHandler renders a matched route.
type PageHandler func(w http.ResponseWriter, r *http.Request, req *Request)

// PageMap maps a route component, e.g. "src/pages/search.json.ts", to the
// handler that renders it.
type PageMap map[string]PageHandler

// Server dispatches requests against a manifest. It is safe for concurrent
// use once built.
type Server struct {
	manifest *manifest.Manifest

	pages   PageMap
	islands map[string]PageHandler

	clientDir  string
	middleware []func(http.Handler) http.Handler
	mounts     []mount
	proxies    *proxyMatcher

	shutdownTimeout   time.Duration
	readHeaderTimeout time.Duration

	logger *slog.Logger
}

type mount struct {
	pattern string
	handler http.Handler
}

// Option configures a Server.
type Option func(*Server)

// WithPages registers handlers by component.
func WithPages(pages PageMap) Option {
	return func(s *Server) {
		for component, h := range pages {
			s.pages[component] = h
		}
	}
}

// WithPage registers a single handler for component.
func WithPage(component string, h PageHandler) Option {
	return func(s *Server) {
		s.pages[component] = h
	}
}

// WithIsland registers a handler for a server island by its name or by the
// component the manifest's server island name map gives for it.
func WithIsland(name string, h PageHandler) Option {
	return func(s *Server) {
		s.islands[name] = h
	}
}

// WithClientDir sets the directory prerendered pages and assets are read from.
func WithClientDir(dir string) Option {
	return func(s *Server) {
		s.clientDir = dir
	}
}

// WithMiddleware appends request middleware. It runs inside request ID,
// access logging and panic recovery, and outside the manifest middleware.
func WithMiddleware(mw ...func(http.Handler) http.Handler) Option {
	return func(s *Server) {
		s.middleware = append(s.middleware, mw...)
	}
}

// WithHandler mounts h at pattern ahead of the manifest routes, e.g. a
// metrics endpoint.
func WithHandler(pattern string, h http.Handler) Option {
	return func(s *Server) {
		s.mounts = append(s.mounts, mount{pattern: pattern, handler: h})
	}
}

// WithTrustedProxies lists proxy IPs and CIDRs whose forwarding headers are
// believed when logging the client address.
func WithTrustedProxies(entries ...string) Option {
	return func(s *Server) {
		s.proxies = newProxyMatcher(entries, s.logger)
	}
}

// WithShutdownTimeout bounds graceful shutdown in ListenAndServe.
func WithShutdownTimeout(d time.Duration) Option {
	return func(s *Server) {
		s.shutdownTimeout = d
	}
}

// WithLogger sets the logger. Apply it before WithTrustedProxies to get
// warnings about bad proxy entries on the same logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Server) {
		s.logger = l.With("component", "server")
	}
}

// New creates a dispatcher for m.
func New(m *manifest.Manifest, opts ...Option) *Server {
	s := &Server{
		manifest:          m,
		pages:             make(PageMap),
		islands:           make(map[string]PageHandler),
		shutdownTimeout:   DefaultShutdownTimeout,
		readHeaderTimeout: DefaultReadHeaderTimeout,
		logger:            slog.Default().With("component", "server"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Manifest returns the manifest the server dispatches against.
func (s *Server) Manifest() *manifest.Manifest {
	return s.manifest
}

// Handler builds the full middleware chain and router.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(gmw.RouteLabels)
	r.Use(chimw.RequestID)
	r.Use(s.accessLog)
	r.Use(chimw.Recoverer)
	r.Use(s.middleware...)

	for _, m := range s.mounts {
		r.Handle(m.pattern, m.handler)
	}

	r.Group(func(r chi.Router) {
		r.Use(s.manifest.Middleware())
		r.Handle("/*", http.HandlerFunc(s.dispatch))
	})
	return r
}

// ListenAndServe serves on addr until ctx is cancelled, then shuts down
// gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return err
	}
	return s.Serve(ctx, ln)
}

// Serve accepts connections on ln until ctx is cancelled.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	srv := &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: s.readHeaderTimeout,
		ErrorLog:          slog.NewLogLogger(s.logger.Handler(), slog.LevelWarn),
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("server starting", "address", ln.Addr().String())
		errCh <- srv.Serve(ln)
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	s.logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		s.logger.Error("shutdown error", "error", err)
		return err
	}
	s.logger.Info("server shutdown complete")
	return nil
}
