package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	"github.com/cooptacular/gravity/internal/config"
	"github.com/cooptacular/gravity/internal/errors"
	"github.com/cooptacular/gravity/internal/telemetry"
	"github.com/cooptacular/gravity/pkg/manifest"
	"github.com/cooptacular/gravity/pkg/middleware"
	"github.com/cooptacular/gravity/pkg/server"
)

func serveCmd(g *globalFlags) *cobra.Command {
	var (
		host      string
		port      int
		clientDir string
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the build's prerendered pages, assets and redirects",
		Long: `Start an HTTP server that dispatches requests through the manifest's
route table. Prerendered routes and assets are served from the client
directory, redirect routes answer with their target, and paths are
canonicalized under the manifest's trailing-slash policy.

The server shuts down gracefully on SIGINT or SIGTERM.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			cfg, logger, m, err := g.setup(ctx, cmd.ErrOrStderr())
			if err != nil {
				return err
			}

			if cmd.Flags().Changed("host") {
				cfg.Server.Host = host
			}
			if cmd.Flags().Changed("port") {
				cfg.Server.Port = port
			}
			if clientDir != "" {
				cfg.ClientDir = clientDir
			}
			if err := cfg.Validate(); err != nil {
				return err
			}

			srv, shutdown, err := newServer(ctx, cfg, logger, m, prometheus.NewRegistry())
			if err != nil {
				return err
			}
			defer shutdown()

			success(cmd.OutOrStdout(), "Serving %d routes on http://%s", len(m.Routes()), cfg.Address())
			if err := srv.ListenAndServe(ctx, cfg.Address()); err != nil {
				return errors.New("G302").Wrap(err)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&host, "host", config.DefaultHost, "Host to bind")
	cmd.Flags().IntVarP(&port, "port", "p", config.DefaultPort, "Port to listen on")
	cmd.Flags().StringVar(&clientDir, "client-dir", "", "Directory holding the client build output")

	return cmd
}

// newServer assembles the dispatcher with the configured metrics and
// tracing. The returned func flushes and stops the tracer provider.
func newServer(ctx context.Context, cfg *config.Config, logger *slog.Logger, m *manifest.Manifest, reg *prometheus.Registry) (*server.Server, func(), error) {
	opts := []server.Option{
		server.WithLogger(logger),
		server.WithClientDir(cfg.ClientPath()),
		server.WithShutdownTimeout(cfg.ShutdownTimeout()),
		server.WithTrustedProxies(cfg.Server.TrustedProxies...),
	}
	shutdown := func() {}

	if cfg.Tracing.Enabled {
		tp, err := telemetry.NewTracerProvider(ctx, telemetry.Options{
			ServiceName:    cfg.Tracing.ServiceName,
			ServiceVersion: version,
			Exporter:       cfg.Tracing.Exporter,
			Endpoint:       cfg.Tracing.Endpoint,
		})
		if err != nil {
			return nil, nil, errors.New("G103").Wrap(err).WithDetail("The tracing exporter could not be created.")
		}
		shutdown = func() {
			sctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), cfg.ShutdownTimeout())
			defer cancel()
			if err := tp.Shutdown(sctx); err != nil {
				logger.Warn("tracer shutdown", slog.String("error", err.Error()))
			}
		}
		opts = append(opts, server.WithMiddleware(middleware.OpenTelemetry(
			middleware.WithTracerProvider(tp),
			middleware.WithFilter(func(r *http.Request) bool { return r.URL.Path != cfg.Metrics.Path }),
		)))
		logger.Info("tracing enabled", slog.String("exporter", cfg.Tracing.Exporter))
	}

	if cfg.Metrics.Enabled {
		reg.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		)
		opts = append(opts,
			server.WithMiddleware(middleware.Prometheus(middleware.WithRegistry(reg))),
			server.WithHandler(cfg.Metrics.Path, promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg})),
		)
	}

	return server.New(m, opts...), shutdown, nil
}
