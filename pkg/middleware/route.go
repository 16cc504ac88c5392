package middleware

import (
	"context"
	"net/http"
)

// UnmatchedRoute labels requests no manifest route accepted.
const UnmatchedRoute = "unmatched"

type routeKey struct{}

// routeLabel is shared by reference so handlers deeper in the chain can fill
// it in after the observing middleware has already captured the request.
type routeLabel struct {
	route string
	kind  string
}

// withRouteLabel returns a request carrying a route label, reusing one that an
// outer middleware already attached.
func withRouteLabel(r *http.Request) (*http.Request, *routeLabel) {
	if l, ok := r.Context().Value(routeKey{}).(*routeLabel); ok {
		return r, l
	}
	l := &routeLabel{route: UnmatchedRoute, kind: "none"}
	return r.WithContext(context.WithValue(r.Context(), routeKey{}, l)), l
}

// SetRoute records the matched route template and type for the request.
// It is a no-op when no observing middleware is installed.
func SetRoute(ctx context.Context, route, kind string) {
	if l, ok := ctx.Value(routeKey{}).(*routeLabel); ok {
		l.route = route
		l.kind = kind
	}
}

// RouteFromContext returns the route recorded with SetRoute.
func RouteFromContext(ctx context.Context) (route, kind string, ok bool) {
	l, ok := ctx.Value(routeKey{}).(*routeLabel)
	if !ok {
		return "", "", false
	}
	return l.route, l.kind, true
}

// RouteLabels attaches an empty route label to every request so that
// handlers can record the matched route even when no metrics or tracing
// middleware is installed.
func RouteLabels(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		r, _ = withRouteLabel(r)
		next.ServeHTTP(w, r)
	})
}
