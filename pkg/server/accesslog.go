package server

import (
	"log/slog"
	"net/http"
	"time"

	chimw "github.com/go-chi/chi/v5/middleware"

	gmw "github.com/cooptacular/gravity/pkg/middleware"
)

// accessLog writes one record per request once the response is complete.
func (s *Server) accessLog(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := chimw.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		level := slog.LevelInfo
		switch {
		case status >= 500:
			level = slog.LevelError
		case status >= 400:
			level = slog.LevelWarn
		}

		attrs := []slog.Attr{
			slog.String("method", r.Method),
			slog.String("path", r.URL.Path),
			slog.Int("status", status),
			slog.Int("bytes", ww.BytesWritten()),
			slog.Duration("duration", time.Since(start)),
		}
		if route, kind, ok := gmw.RouteFromContext(r.Context()); ok {
			attrs = append(attrs, slog.String("route", route), slog.String("route_type", kind))
		}
		if id := chimw.GetReqID(r.Context()); id != "" {
			attrs = append(attrs, slog.String("request_id", id))
		}
		if ip := clientIP(r, s.proxies); ip.IsValid() {
			attrs = append(attrs, slog.String("client_ip", ip.String()))
		}
		s.logger.LogAttrs(r.Context(), level, "request", attrs...)
	})
}
