// Package server dispatches HTTP requests against a deserialized route
// manifest.
//
// Every request is canonicalized under the manifest's trailing-slash policy,
// matched against the route table in declaration order and then handled by
// the first of:
//
//   - a redirect, for redirect routes
//   - the page handler registered for the route's component
//   - the prerendered file under the client directory
//
// Anything else is answered with 404. Build assets listed in the manifest
// are served from the client directory before routing.
//
//	s := server.New(m,
//	    server.WithClientDir("dist/client"),
//	    server.WithPage("src/pages/search.ts", searchHandler),
//	    server.WithMiddleware(middleware.Prometheus()),
//	)
//	err := s.ListenAndServe(ctx, ":4321")
package server
