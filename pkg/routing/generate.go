package routing

import (
	"fmt"
	"strings"

	"golang.org/x/text/unicode/norm"
)

// Params maps parameter names to values. String values are sanitized before
// use; other values are formatted with fmt.Sprint.
type Params map[string]any

// Generator builds a concrete path from parameters.
type Generator func(params Params) (string, error)

var (
	paramEscaper   = strings.NewReplacer("#", "%23", "?", "%3F")
	literalEscaper = strings.NewReplacer("?", "%3F", "#", "%23", "%5B", "[", "%5D", "]")
)

// SanitizeParams returns a copy of params in which every string value is
// NFC-normalized and has '#' and '?' escaped. Other values are copied as-is.
func SanitizeParams(params Params) Params {
	out := make(Params, len(params))
	for k, v := range params {
		if s, ok := v.(string); ok {
			out[k] = paramEscaper.Replace(norm.NFC.String(s))
			continue
		}
		out[k] = v
	}
	return out
}

// BuildSegmentPart renders a single part against already sanitized params.
func BuildSegmentPart(part Part, params Params) (string, error) {
	if part.Spread {
		v, _ := lookup(params, part.Name())
		return v, nil
	}
	if part.Dynamic {
		v, ok := lookup(params, part.Content)
		if !ok {
			return "", &MissingParameterError{Name: part.Content}
		}
		return v, nil
	}
	return literalEscaper.Replace(norm.NFC.String(part.Content)), nil
}

// lookup treats nil and empty strings as absent.
func lookup(params Params, name string) (string, bool) {
	v, ok := params[name]
	if !ok || v == nil {
		return "", false
	}
	var s string
	switch t := v.(type) {
	case string:
		s = t
	case fmt.Stringer:
		s = t.String()
	default:
		s = fmt.Sprint(t)
	}
	return s, s != ""
}

// buildSegment joins the parts of one segment, prefixed with "/" unless empty.
func buildSegment(segment Segment, params Params) (string, error) {
	var b strings.Builder
	for _, part := range segment {
		s, err := BuildSegmentPart(part, params)
		if err != nil {
			return "", err
		}
		b.WriteString(s)
	}
	if b.Len() == 0 {
		return "", nil
	}
	return "/" + b.String(), nil
}

// BuildPath assembles segments into a path. A trailing slash is appended only
// for TrailingSlashAlways with at least one segment. An empty result is "/".
func BuildPath(segments []Segment, params Params, policy TrailingSlash) (string, error) {
	var b strings.Builder
	for _, seg := range segments {
		s, err := buildSegment(seg, params)
		if err != nil {
			return "", err
		}
		b.WriteString(s)
	}
	if policy == TrailingSlashAlways && len(segments) > 0 {
		b.WriteByte('/')
	}
	if b.Len() == 0 {
		return "/", nil
	}
	return b.String(), nil
}

// CompileGenerator returns a Generator for the given segments and policy.
// The segments are copied, so the generator never observes later changes to
// the caller's slices and may be shared between goroutines.
func CompileGenerator(segments []Segment, policy TrailingSlash) Generator {
	segs := cloneSegments(segments)
	return func(params Params) (string, error) {
		return BuildPath(segs, SanitizeParams(params), policy)
	}
}

func cloneSegments(segments []Segment) []Segment {
	out := make([]Segment, len(segments))
	for i, seg := range segments {
		out[i] = append(Segment(nil), seg...)
	}
	return out
}
