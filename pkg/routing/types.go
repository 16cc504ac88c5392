package routing

import "strings"

// SpreadPrefix marks a spread part's content, e.g. "...slug".
const SpreadPrefix = "..."

// Part is one piece of a path segment.
type Part struct {
	// Content is the literal text, or the parameter name for dynamic parts.
	// Spread parts carry the SpreadPrefix in front of the name.
	Content string `json:"content"`

	// Dynamic marks a parameter reference.
	Dynamic bool `json:"dynamic"`

	// Spread marks a parameter capturing the rest of the path.
	Spread bool `json:"spread"`
}

// Name returns the parameter name referenced by the part.
// For literal parts it returns the empty string.
func (p Part) Name() string {
	switch {
	case p.Spread:
		if len(p.Content) < len(SpreadPrefix) {
			return ""
		}
		return p.Content[len(SpreadPrefix):]
	case p.Dynamic:
		return p.Content
	default:
		return ""
	}
}

// IsLiteral reports whether the part is plain text.
func (p Part) IsLiteral() bool {
	return !p.Dynamic && !p.Spread
}

// Segment is the ordered list of parts between two slashes.
type Segment []Part

// IsStatic reports whether every part of the segment is literal.
func (s Segment) IsStatic() bool {
	for _, p := range s {
		if !p.IsLiteral() {
			return false
		}
	}
	return true
}

// Literal parts and bracketed parameters, the way the template was written.
func (s Segment) String() string {
	var b strings.Builder
	for _, p := range s {
		if p.IsLiteral() {
			b.WriteString(p.Content)
			continue
		}
		b.WriteByte('[')
		b.WriteString(p.Content)
		b.WriteByte(']')
	}
	return b.String()
}

// Template rebuilds a route template like /blog/[...slug] from segments.
func Template(segments []Segment) string {
	if len(segments) == 0 {
		return "/"
	}
	var b strings.Builder
	for _, seg := range segments {
		b.WriteByte('/')
		b.WriteString(seg.String())
	}
	return b.String()
}

// TrailingSlash is the policy governing whether paths end with "/".
type TrailingSlash string

const (
	TrailingSlashAlways TrailingSlash = "always"
	TrailingSlashNever  TrailingSlash = "never"
	TrailingSlashIgnore TrailingSlash = "ignore"
)

// Valid reports whether the policy is one of the known values.
func (t TrailingSlash) Valid() bool {
	switch t {
	case TrailingSlashAlways, TrailingSlashNever, TrailingSlashIgnore:
		return true
	}
	return false
}

// RouteType is the kind of resource a route produces.
type RouteType string

const (
	RouteTypePage     RouteType = "page"
	RouteTypeEndpoint RouteType = "endpoint"
	RouteTypeRedirect RouteType = "redirect"
	RouteTypeFallback RouteType = "fallback"
)
