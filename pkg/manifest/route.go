package manifest

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/cooptacular/gravity/pkg/routing"
)

// ErrUnknownTrailingSlash is returned for a trailing-slash policy other than
// always, never or ignore.
var ErrUnknownTrailingSlash = errors.New("unknown trailing slash policy")

// RouteData is a deserialized route descriptor with its compiled matcher and
// path generator.
type RouteData struct {
	// Route is the route template, e.g. "/blog/[...slug]".
	Route string

	// Type is page, endpoint, redirect or fallback.
	Type routing.RouteType

	// Pattern matches the decoded request paths served by this route.
	// Capture groups line up with Params.
	Pattern *regexp.Regexp

	// Params are the parameter names in capture order. Spread params keep
	// their "..." prefix.
	Params []string

	// Component is the source module rendering the route.
	Component string

	// Pathname is the concrete path of a static route. Empty means absent.
	Pathname string

	// Segments describe the template structure used for path generation.
	Segments []routing.Segment

	// Prerender marks routes rendered to files at build time.
	Prerender bool

	// Redirect is the redirect target of a redirect route, nil when absent.
	Redirect *Redirect

	// RedirectRoute is the route the redirect points to, nil when absent.
	RedirectRoute *RouteData

	// FallbackRoutes are i18n fallbacks for this route.
	FallbackRoutes []*RouteData

	IsIndex bool
	Origin  string

	// TrailingSlash is the policy the generator was compiled with.
	TrailingSlash routing.TrailingSlash

	// Generate builds a concrete path for this route.
	Generate routing.Generator

	redirectRaw json.RawMessage
	distURL     json.RawMessage
}

// Redirect is a redirect target. The build writes either a bare destination
// string or an object with an explicit status.
type Redirect struct {
	Status      int    `json:"status,omitempty"`
	Destination string `json:"destination"`
}

// HasPathname reports whether the route carries a concrete pathname.
func (r *RouteData) HasPathname() bool {
	return r.Pathname != ""
}

// IsDynamic reports whether generating a path requires parameters.
func (r *RouteData) IsDynamic() bool {
	for _, seg := range r.Segments {
		if !seg.IsStatic() {
			return true
		}
	}
	return false
}

// DeserializeRoute compiles a serialized route descriptor. Nested redirect
// and fallback routes are deserialized recursively.
func DeserializeRoute(raw SerializedRouteData) (*RouteData, error) {
	pattern, err := regexp.Compile(raw.Pattern)
	if err != nil {
		return nil, fmt.Errorf("route %s: compile pattern: %w", raw.Route, err)
	}

	redirect, err := parseRedirect(raw.Redirect)
	if err != nil {
		return nil, fmt.Errorf("route %s: %w", raw.Route, err)
	}

	policy := raw.Meta.TrailingSlash
	if policy == "" {
		policy = routing.TrailingSlashIgnore
	}
	if !policy.Valid() {
		return nil, fmt.Errorf("route %s: %w %q", raw.Route, ErrUnknownTrailingSlash, policy)
	}

	route := &RouteData{
		Route:          raw.Route,
		Type:           raw.Type,
		Pattern:        pattern,
		Params:         raw.Params,
		Component:      raw.Component,
		Pathname:       raw.Pathname,
		Segments:       raw.Segments,
		Prerender:      raw.Prerender,
		Redirect:       redirect,
		FallbackRoutes: make([]*RouteData, 0, len(raw.FallbackRoutes)),
		IsIndex:        raw.IsIndex,
		Origin:         raw.Origin,
		TrailingSlash:  policy,
		Generate:       routing.CompileGenerator(raw.Segments, policy),
		redirectRaw:    raw.Redirect,
		distURL:        raw.DistURL,
	}

	if raw.RedirectRoute != nil {
		target, err := DeserializeRoute(*raw.RedirectRoute)
		if err != nil {
			return nil, fmt.Errorf("route %s: redirect route: %w", raw.Route, err)
		}
		route.RedirectRoute = target
	}

	for _, fb := range raw.FallbackRoutes {
		fallback, err := DeserializeRoute(fb)
		if err != nil {
			return nil, fmt.Errorf("route %s: fallback route: %w", raw.Route, err)
		}
		route.FallbackRoutes = append(route.FallbackRoutes, fallback)
	}

	return route, nil
}

// parseRedirect accepts null, a destination string or a {status, destination} object.
func parseRedirect(raw json.RawMessage) (*Redirect, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return nil, nil
	}
	if trimmed[0] == '"' {
		var dest string
		if err := json.Unmarshal(trimmed, &dest); err != nil {
			return nil, fmt.Errorf("redirect: %w", err)
		}
		return &Redirect{Destination: dest}, nil
	}
	var r Redirect
	if err := json.Unmarshal(trimmed, &r); err != nil {
		return nil, fmt.Errorf("redirect: %w", err)
	}
	return &r, nil
}

// Serialize converts the route back to its serialized form. Compiled fields
// are dropped; the pattern is written as its source text.
func (r *RouteData) Serialize() SerializedRouteData {
	out := SerializedRouteData{
		Route:          r.Route,
		Type:           r.Type,
		Pattern:        r.Pattern.String(),
		Params:         r.Params,
		Component:      r.Component,
		Pathname:       r.Pathname,
		Segments:       r.Segments,
		Prerender:      r.Prerender,
		Redirect:       r.redirectRaw,
		FallbackRoutes: make([]SerializedRouteData, 0, len(r.FallbackRoutes)),
		IsIndex:        r.IsIndex,
		DistURL:        r.distURL,
		Origin:         r.Origin,
		Meta:           RouteMeta{TrailingSlash: r.TrailingSlash},
	}
	if r.RedirectRoute != nil {
		target := r.RedirectRoute.Serialize()
		out.RedirectRoute = &target
	}
	for _, fb := range r.FallbackRoutes {
		out.FallbackRoutes = append(out.FallbackRoutes, fb.Serialize())
	}
	return out
}

// Match tests a decoded path against the route pattern and extracts params.
// Spread params are reported without their "..." prefix. Groups that did not
// participate in the match are omitted.
func (r *RouteData) Match(path string) (map[string]string, bool) {
	sub := r.Pattern.FindStringSubmatchIndex(path)
	if sub == nil {
		return nil, false
	}
	params := make(map[string]string, len(r.Params))
	for i, name := range r.Params {
		g := 2 * (i + 1)
		if g+1 >= len(sub) || sub[g] < 0 {
			continue
		}
		params[strings.TrimPrefix(name, routing.SpreadPrefix)] = path[sub[g]:sub[g+1]]
	}
	return params, true
}

// sampleParams returns a value for every parameter the segments reference.
func sampleParams(segments []routing.Segment) routing.Params {
	params := routing.Params{}
	for _, seg := range segments {
		for _, part := range seg {
			switch {
			case part.Spread:
				params[part.Name()] = "a/b"
			case part.Dynamic:
				params[part.Name()] = "a"
			}
		}
	}
	return params
}

// Validate checks that the pattern accepts the path generated from segments.
func (r *RouteData) Validate() error {
	if r.Type == routing.RouteTypeRedirect && len(r.Segments) == 0 {
		return nil
	}
	path, err := r.Generate(sampleParams(r.Segments))
	if err != nil {
		return fmt.Errorf("route %s: generate sample path: %w", r.Route, err)
	}
	if !r.Pattern.MatchString(path) {
		return fmt.Errorf("route %s: pattern %q does not match generated path %q", r.Route, r.Pattern.String(), path)
	}
	return nil
}
