// Package middleware provides HTTP middleware for serving manifest routes.
//
// This package includes:
//   - Noop: the default manifest middleware, which only marks responses
//   - Prometheus: request metrics labelled by route template
//   - OpenTelemetry: a server span per request named after the matched route
//
// Route labels are filled in by the dispatcher through SetRoute once a
// request has been matched, so both Prometheus and OpenTelemetry report
// "/blog/[...slug]" rather than every distinct blog post path:
//
//	r := chi.NewRouter()
//	r.Use(middleware.OpenTelemetry(), middleware.Prometheus())
//	r.Handle("/*", dispatcher)
//
// Expose metrics on a separate listener:
//
//	http.Handle("/metrics", promhttp.Handler())
package middleware
