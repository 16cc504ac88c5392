package server

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"net"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cooptacular/gravity/pkg/manifest"
	gmw "github.com/cooptacular/gravity/pkg/middleware"
)

var clientFiles = map[string]string{
	"index.html":                "<h1>home</h1>",
	"about/index.html":          "<h1>about</h1>",
	"photography/index.html":    "<h1>photography</h1>",
	"rss.xml":                   "<rss/>",
	"search.json":               `{"items":[]}`,
	"favicon.svg":               "<svg/>",
	"_astro/about.BB6_YYlB.css": "h1{}",
}

func loadManifest(t *testing.T) *manifest.Manifest {
	t.Helper()
	m, err := manifest.Load(filepath.Join("..", "manifest", "testdata", "manifest.json"))
	require.NoError(t, err)
	return m
}

// loadManifestWithPolicy loads the fixture with its site trailing-slash
// setting replaced.
func loadManifestWithPolicy(t *testing.T, policy string) *manifest.Manifest {
	t.Helper()
	data, err := os.ReadFile(filepath.Join("..", "manifest", "testdata", "manifest.json"))
	require.NoError(t, err)
	const site = `"trailingSlash": "ignore",`
	require.Equal(t, 1, bytes.Count(data, []byte(site)))
	data = bytes.Replace(data, []byte(site), []byte(`"trailingSlash": "`+policy+`",`), 1)

	m, err := manifest.Parse(data)
	require.NoError(t, err)
	require.Equal(t, policy, string(m.TrailingSlash()))
	return m
}

func writeClientDir(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	for name, body := range clientFiles {
		path := filepath.Join(dir, filepath.FromSlash(name))
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	}
	return dir
}

func newTestServer(t *testing.T, opts ...Option) (*Server, *bytes.Buffer) {
	t.Helper()
	var logs bytes.Buffer
	base := []Option{
		WithLogger(slog.New(slog.NewTextHandler(&logs, &slog.HandlerOptions{Level: slog.LevelDebug}))),
		WithClientDir(writeClientDir(t)),
	}
	return New(loadManifest(t), append(base, opts...)...), &logs
}

func do(t *testing.T, h http.Handler, method, target string) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(method, target, nil))
	return rec
}

func TestPrerenderedPages(t *testing.T) {
	s, _ := newTestServer(t)
	h := s.Handler()

	tests := []struct {
		target string
		body   string
	}{
		{"/", "<h1>home</h1>"},
		{"/about", "<h1>about</h1>"},
		{"/about/", "<h1>about</h1>"},
		{"/photography", "<h1>photography</h1>"},
		{"/rss.xml", "<rss/>"},
	}
	for _, tt := range tests {
		t.Run(tt.target, func(t *testing.T) {
			rec := do(t, h, http.MethodGet, tt.target)
			assert.Equal(t, http.StatusOK, rec.Code)
			assert.Equal(t, tt.body, rec.Body.String())
			assert.Equal(t, "true", rec.Header().Get(gmw.NoopHeader))
		})
	}
}

func TestPrerenderedFileMissing(t *testing.T) {
	s, _ := newTestServer(t)
	rec := do(t, s.Handler(), http.MethodGet, "/contact")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "NOT_FOUND\n", rec.Body.String())
}

func TestAssets(t *testing.T) {
	s, _ := newTestServer(t)
	h := s.Handler()

	rec := do(t, h, http.MethodGet, "/favicon.svg")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "<svg/>", rec.Body.String())

	rec = do(t, h, http.MethodGet, "/_astro/about.BB6_YYlB.css")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "h1{}", rec.Body.String())

	rec = do(t, h, http.MethodGet, "/_astro/unknown.css")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestNoClientDir(t *testing.T) {
	s := New(loadManifest(t), WithLogger(slog.New(slog.DiscardHandler)))
	rec := do(t, s.Handler(), http.MethodGet, "/about")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestPageHandlers(t *testing.T) {
	var got *Request
	s, _ := newTestServer(t,
		WithPage("src/pages/categories/[category].astro", func(w http.ResponseWriter, r *http.Request, req *Request) {
			got = req
			io.WriteString(w, "category "+req.Params["category"])
		}),
		WithPages(PageMap{
			"src/pages/blog/[...slug].astro": func(w http.ResponseWriter, r *http.Request, req *Request) {
				io.WriteString(w, "slug="+req.Params["slug"])
			},
			"src/pages/about.astro": func(w http.ResponseWriter, r *http.Request, req *Request) {
				io.WriteString(w, "rendered about")
			},
		}),
	)
	h := s.Handler()

	rec := do(t, h, http.MethodGet, "/categories/travel")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "category travel", rec.Body.String())
	require.NotNil(t, got)
	assert.Equal(t, "/categories/[category]", got.Route.Route)
	assert.Same(t, s.Manifest(), got.Manifest)
	assert.Same(t, got.Route, got.Info.RouteData)

	rec = do(t, h, http.MethodGet, "/categories/caf%C3%A9")
	assert.Equal(t, "category café", rec.Body.String())

	rec = do(t, h, http.MethodGet, "/blog/2024/hello")
	assert.Equal(t, "slug=2024/hello", rec.Body.String())

	// Handlers take precedence over prerendered files.
	rec = do(t, h, http.MethodGet, "/about")
	assert.Equal(t, "rendered about", rec.Body.String())
}

func TestDynamicRouteWithoutHandler(t *testing.T) {
	s, _ := newTestServer(t)
	rec := do(t, s.Handler(), http.MethodGet, "/categories/travel")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestUnmatched(t *testing.T) {
	s, _ := newTestServer(t)
	rec := do(t, s.Handler(), http.MethodGet, "/categories/a/b")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "NOT_FOUND\n", rec.Body.String())
}

func TestRedirectRoute(t *testing.T) {
	s, _ := newTestServer(t)
	h := s.Handler()

	rec := do(t, h, http.MethodGet, "/portfolio")
	assert.Equal(t, http.StatusPermanentRedirect, rec.Code)
	assert.Equal(t, "/photography", rec.Header().Get("Location"))
}

func TestCanonicalRedirect(t *testing.T) {
	s, _ := newTestServer(t)
	h := s.Handler()

	rec := do(t, h, http.MethodGet, "/blog//2024/./hello?draft=1")
	assert.Equal(t, http.StatusMovedPermanently, rec.Code)
	assert.Equal(t, "/blog/2024/hello?draft=1", rec.Header().Get("Location"))

	rec = do(t, h, http.MethodPost, "/about/../contact")
	assert.Equal(t, http.StatusPermanentRedirect, rec.Code)
	assert.Equal(t, "/contact", rec.Header().Get("Location"))

	rec = do(t, h, http.MethodGet, "/../secret")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "BAD_REQUEST\n", rec.Body.String())
}

func TestTrailingSlashPolicies(t *testing.T) {
	tests := []struct {
		policy   string
		target   string
		status   int
		location string
		body     string
	}{
		{"always", "/favicon.svg", http.StatusOK, "", "<svg/>"},
		{"always", "/_astro/about.BB6_YYlB.css", http.StatusOK, "", "h1{}"},
		{"always", "/rss.xml", http.StatusOK, "", "<rss/>"},
		{"always", "/about", http.StatusMovedPermanently, "/about/", ""},
		{"always", "/about/", http.StatusOK, "", "<h1>about</h1>"},
		{"always", "/", http.StatusOK, "", "<h1>home</h1>"},
		{"never", "/about/", http.StatusMovedPermanently, "/about", ""},
		{"never", "/about", http.StatusOK, "", "<h1>about</h1>"},
		{"never", "/favicon.svg", http.StatusOK, "", "<svg/>"},
		{"never", "/search.json", http.StatusOK, "", `{"items":[]}`},
	}

	for _, tt := range tests {
		t.Run(tt.policy+" "+tt.target, func(t *testing.T) {
			s := New(loadManifestWithPolicy(t, tt.policy),
				WithLogger(slog.New(slog.DiscardHandler)),
				WithClientDir(writeClientDir(t)),
			)
			rec := do(t, s.Handler(), http.MethodGet, tt.target)
			assert.Equal(t, tt.status, rec.Code)
			if tt.location != "" {
				assert.Equal(t, tt.location, rec.Header().Get("Location"))
			}
			if tt.body != "" {
				assert.Equal(t, tt.body, rec.Body.String())
			}
		})
	}
}

func TestServerIslands(t *testing.T) {
	s, _ := newTestServer(t)
	rec := do(t, s.Handler(), http.MethodGet, "/_server-islands/Comments")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	s, _ = newTestServer(t, WithIsland("Comments", func(w http.ResponseWriter, r *http.Request, req *Request) {
		io.WriteString(w, "island "+req.Params["name"])
	}))
	rec = do(t, s.Handler(), http.MethodGet, "/_server-islands/Comments")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "island Comments", rec.Body.String())
}

func TestServerIslandsByComponent(t *testing.T) {
	s, _ := newTestServer(t, WithIsland("/srv/galactic-gravity/src/components/Comments.astro",
		func(w http.ResponseWriter, r *http.Request, req *Request) {
			io.WriteString(w, "component island "+req.Params["name"])
		}))
	h := s.Handler()

	rec := do(t, h, http.MethodGet, "/_server-islands/Comments")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "component island Comments", rec.Body.String())

	rec = do(t, h, http.MethodGet, "/_server-islands/Guestbook")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestMountedHandler(t *testing.T) {
	s, _ := newTestServer(t, WithHandler("/healthz", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, "ok")
	})))
	rec := do(t, s.Handler(), http.MethodGet, "/healthz")
	assert.Equal(t, "ok", rec.Body.String())
	assert.Empty(t, rec.Header().Get(gmw.NoopHeader))
}

func TestRecoversPanics(t *testing.T) {
	s, logs := newTestServer(t, WithPage("src/pages/blog/[...slug].astro", func(http.ResponseWriter, *http.Request, *Request) {
		panic("boom")
	}))
	rec := do(t, s.Handler(), http.MethodGet, "/blog/x")
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Contains(t, logs.String(), "status=500")
}

func TestAccessLog(t *testing.T) {
	s, logs := newTestServer(t, WithTrustedProxies("10.0.0.0/8"))
	h := s.Handler()

	req := httptest.NewRequest(http.MethodGet, "/about", nil)
	req.RemoteAddr = "10.1.2.3:5555"
	req.Header.Set("X-Forwarded-For", "198.51.100.7, 10.0.0.9")
	h.ServeHTTP(httptest.NewRecorder(), req)

	out := logs.String()
	assert.Contains(t, out, "msg=request")
	assert.Contains(t, out, "component=server")
	assert.Contains(t, out, "route=/about")
	assert.Contains(t, out, "route_type=page")
	assert.Contains(t, out, "status=200")
	assert.Contains(t, out, "client_ip=198.51.100.7")
	assert.Contains(t, out, "request_id=")

	logs.Reset()
	do(t, h, http.MethodGet, "/nowhere")
	assert.Contains(t, logs.String(), "level=WARN")
	assert.Contains(t, logs.String(), "route=unmatched")
}

func TestPrometheusLabels(t *testing.T) {
	reg := prometheus.NewRegistry()
	s, _ := newTestServer(t, WithMiddleware(gmw.Prometheus(gmw.WithRegistry(reg))))
	h := s.Handler()

	do(t, h, http.MethodGet, "/about")
	do(t, h, http.MethodGet, "/portfolio")
	do(t, h, http.MethodGet, "/favicon.svg")

	expected := `
# HELP gravity_http_requests_total Total number of requests by route template, route type and status code
# TYPE gravity_http_requests_total counter
gravity_http_requests_total{code="200",route="/about",type="page"} 1
gravity_http_requests_total{code="200",route="/favicon.svg",type="asset"} 1
gravity_http_requests_total{code="308",route="/portfolio",type="redirect"} 1
`
	assert.NoError(t, testutil.GatherAndCompare(reg, strings.NewReader(expected), "gravity_http_requests_total"))
}

func TestServeShutdown(t *testing.T) {
	s, logs := newTestServer(t, WithShutdownTimeout(time.Second))

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Serve(ctx, ln) }()

	resp, err := http.Get("http://" + ln.Addr().String() + "/rss.xml")
	require.NoError(t, err)
	body, _ := io.ReadAll(resp.Body)
	resp.Body.Close()
	assert.Equal(t, "<rss/>", string(body))

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not shut down")
	}
	assert.Contains(t, logs.String(), "server shutdown complete")
}

func TestListenAndServeBadAddress(t *testing.T) {
	s, _ := newTestServer(t)
	err := s.ListenAndServe(context.Background(), "256.0.0.1:99999")
	assert.Error(t, err)
}
