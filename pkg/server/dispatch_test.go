package server

import (
	"encoding/json"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cooptacular/gravity/pkg/manifest"
	"github.com/cooptacular/gravity/pkg/routing"
)

func TestStripBase(t *testing.T) {
	tests := []struct {
		path, base string
		want       string
		ok         bool
	}{
		{"/about", "/", "/about", true},
		{"/about", "", "/about", true},
		{"/docs", "/docs", "/", true},
		{"/docs/", "/docs/", "/", true},
		{"/docs/intro", "/docs", "/intro", true},
		{"/docsintro", "/docs", "", false},
		{"/about", "/docs", "", false},
	}
	for _, tt := range tests {
		got, ok := stripBase(tt.path, tt.base)
		assert.Equal(t, tt.ok, ok, "%s under %s", tt.path, tt.base)
		assert.Equal(t, tt.want, got, "%s under %s", tt.path, tt.base)
	}
}

func TestRedirectStatus(t *testing.T) {
	assert.Equal(t, http.StatusMovedPermanently, redirectStatus(http.MethodGet, 0))
	assert.Equal(t, http.StatusMovedPermanently, redirectStatus(http.MethodHead, 0))
	assert.Equal(t, http.StatusPermanentRedirect, redirectStatus(http.MethodPost, 0))
	assert.Equal(t, http.StatusFound, redirectStatus(http.MethodPost, http.StatusFound))
}

func redirectRoute(t *testing.T, redirect string, target *manifest.SerializedRouteData) *manifest.RouteData {
	t.Helper()
	rd, err := manifest.DeserializeRoute(manifest.SerializedRouteData{
		Route:         "/old/[id]/[...rest]",
		Type:          routing.RouteTypeRedirect,
		Pattern:       `^\/old\/([^/]+?)(?:\/(.*?))?\/?$`,
		Params:        []string{"id", "...rest"},
		Redirect:      json.RawMessage(redirect),
		RedirectRoute: target,
	})
	require.NoError(t, err)
	return rd
}

func TestRedirectTarget(t *testing.T) {
	params := map[string]string{"id": "42", "rest": "a/b"}

	rd := redirectRoute(t, `"/new/[id]/[...rest]"`, nil)
	assert.Equal(t, "/new/42/a/b", redirectTarget(rd, params))

	rd = redirectRoute(t, `"https://example.com/[id]"`, nil)
	assert.Equal(t, "https://example.com/[id]", redirectTarget(rd, params))

	rd = redirectRoute(t, `null`, nil)
	assert.Equal(t, "/", redirectTarget(rd, params))

	target := &manifest.SerializedRouteData{
		Route:    "/items/[id]",
		Pattern:  `^\/items\/([^/]+?)\/?$`,
		Params:   []string{"id"},
		Segments: []routing.Segment{{{Content: "items"}}, {{Content: "id", Dynamic: true}}},
		Meta:     manifest.RouteMeta{TrailingSlash: routing.TrailingSlashNever},
	}
	rd = redirectRoute(t, `{"status": 302, "destination": "/items/[id]"}`, target)
	assert.Equal(t, "/items/42", redirectTarget(rd, params))

	// Generation fails without id; the target's pathname is not set either.
	assert.Equal(t, "/", redirectTarget(rd, map[string]string{}))

	target.Pathname = "/items"
	rd = redirectRoute(t, `"/items"`, target)
	assert.Equal(t, "/items", redirectTarget(rd, map[string]string{}))
}

func TestPrerenderedFile(t *testing.T) {
	m := loadManifest(t)
	s := New(m)

	about, _ := m.Route("/about")
	assert.Equal(t, "about/index.html", s.prerenderedFile(about, "/about/"))

	index, _ := m.Route("/")
	assert.Equal(t, "index.html", s.prerenderedFile(index, "/"))

	rss, _ := m.Route("/rss.xml")
	assert.Equal(t, "rss.xml", s.prerenderedFile(rss, "/rss.xml"))
}

func TestPrerenderedFileFormat(t *testing.T) {
	m, err := manifest.Deserialize(manifest.SerializedManifest{BuildFormat: "file"})
	require.NoError(t, err)
	s := New(m)

	page := &manifest.RouteData{Type: routing.RouteTypePage}
	assert.Equal(t, "about.html", s.prerenderedFile(page, "/about"))
	assert.Equal(t, "index.html", s.prerenderedFile(page, "/"))
}
