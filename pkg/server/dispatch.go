package server

import (
	"errors"
	"io/fs"
	"net/http"
	"os"
	"path"
	"strings"

	gerrors "github.com/cooptacular/gravity/internal/errors"
	"github.com/cooptacular/gravity/pkg/manifest"
	gmw "github.com/cooptacular/gravity/pkg/middleware"
	"github.com/cooptacular/gravity/pkg/routepath"
	"github.com/cooptacular/gravity/pkg/routing"
)

// ServerIslandRoute is the internal route template server islands are
// fetched through.
const ServerIslandRoute = "/_server-islands/[name]"

// Route kinds recorded for requests that never reach a manifest route.
const (
	kindAsset    = "asset"
	kindRedirect = "canonical"
)

func (s *Server) dispatch(w http.ResponseWriter, r *http.Request) {
	policy := s.manifest.TrailingSlash()

	canon, err := routepath.Canonicalize(r.URL.EscapedPath(), policy)
	if err != nil {
		s.logger.Debug("rejected path", "path", r.URL.EscapedPath(), "error", err)
		writeStatus(w, http.StatusBadRequest)
		return
	}
	if canon.Changed {
		gmw.SetRoute(r.Context(), canon.Path, kindRedirect)
		target := canon.Path
		if r.URL.RawQuery != "" {
			target += "?" + r.URL.RawQuery
		}
		http.Redirect(w, r, target, redirectStatus(r.Method, 0))
		return
	}

	decoded, err := routepath.Decode(canon.Path)
	if err != nil {
		writeStatus(w, http.StatusBadRequest)
		return
	}

	local, ok := stripBase(decoded, s.manifest.Base())
	if !ok {
		writeStatus(w, http.StatusNotFound)
		return
	}

	if s.clientDir != "" && s.manifest.HasAsset(local) {
		gmw.SetRoute(r.Context(), local, kindAsset)
		s.serveFile(w, r, strings.TrimPrefix(local, "/"))
		return
	}

	match, ok := s.manifest.Match(local)
	if !ok {
		writeStatus(w, http.StatusNotFound)
		return
	}
	route := match.Route
	gmw.SetRoute(r.Context(), route.Route, string(route.Type))

	req := &Request{Route: route, Info: match.Info, Params: match.Params, Manifest: s.manifest}

	switch {
	case route.Type == routing.RouteTypeRedirect:
		s.redirect(w, r, req)
	case route.Route == ServerIslandRoute:
		s.serveIsland(w, r, req)
	case s.pages[route.Component] != nil:
		s.pages[route.Component](w, r, req)
	case route.Prerender && s.clientDir != "":
		s.serveFile(w, r, s.prerenderedFile(route, local))
	default:
		writeStatus(w, http.StatusNotFound)
	}
}

// stripBase removes the site base from p. ok is false when p lies outside it.
func stripBase(p, base string) (string, bool) {
	base = strings.TrimSuffix(base, "/")
	if base == "" {
		return p, true
	}
	if p == base {
		return "/", true
	}
	if rest, found := strings.CutPrefix(p, base+"/"); found {
		return "/" + rest, true
	}
	return "", false
}

func (s *Server) redirect(w http.ResponseWriter, r *http.Request, req *Request) {
	target := redirectTarget(req.Route, req.Params)
	status := 0
	if req.Route.Redirect != nil {
		status = req.Route.Redirect.Status
	}
	http.Redirect(w, r, target, redirectStatus(r.Method, status))
}

// redirectTarget prefers generating the target route; a plain destination
// has its [param] and [...param] placeholders filled in.
func redirectTarget(route *manifest.RouteData, params map[string]string) string {
	if target := route.RedirectRoute; target != nil {
		if p, err := target.Generate(toParams(params)); err == nil {
			return p
		}
		if target.HasPathname() {
			return target.Pathname
		}
		return "/"
	}
	if route.Redirect == nil {
		return "/"
	}
	dest := route.Redirect.Destination
	if isExternal(dest) {
		return dest
	}
	for name, value := range params {
		dest = strings.ReplaceAll(dest, "["+name+"]", value)
		dest = strings.ReplaceAll(dest, "["+routing.SpreadPrefix+name+"]", value)
	}
	return dest
}

func isExternal(dest string) bool {
	return strings.HasPrefix(dest, "http://") || strings.HasPrefix(dest, "https://") || strings.HasPrefix(dest, "//")
}

// redirectStatus keeps an explicit status. Otherwise GET and HEAD get 301
// and other methods 308 so the method survives.
func redirectStatus(method string, explicit int) int {
	if explicit != 0 {
		return explicit
	}
	if method == http.MethodGet || method == http.MethodHead {
		return http.StatusMovedPermanently
	}
	return http.StatusPermanentRedirect
}

func toParams(m map[string]string) routing.Params {
	p := make(routing.Params, len(m))
	for k, v := range m {
		p[k] = v
	}
	return p
}

func (s *Server) serveIsland(w http.ResponseWriter, r *http.Request, req *Request) {
	name := req.Params["name"]
	h, ok := s.islands[name]
	if !ok {
		if component, known := s.manifest.ServerIslandComponent(name); known {
			h, ok = s.islands[component]
		}
	}
	if !ok {
		writeStatus(w, http.StatusNotFound)
		return
	}
	h(w, r, req)
}

// prerenderedFile returns the client-dir relative file written for a
// prerendered request path.
func (s *Server) prerenderedFile(route *manifest.RouteData, local string) string {
	rel := strings.Trim(local, "/")
	if route.Type == routing.RouteTypeEndpoint {
		return rel
	}
	if s.manifest.BuildFormat() == "file" && rel != "" {
		return rel + ".html"
	}
	return path.Join(rel, "index.html")
}

func (s *Server) serveFile(w http.ResponseWriter, r *http.Request, rel string) {
	f, err := os.OpenInRoot(s.clientDir, rel)
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			s.logger.Warn("open client file", "file", rel, "error", err)
		}
		writeStatus(w, http.StatusNotFound)
		return
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil || info.IsDir() {
		writeStatus(w, http.StatusNotFound)
		return
	}
	http.ServeContent(w, r, info.Name(), info.ModTime(), f)
}

// writeStatus answers with the status name from the status table.
func writeStatus(w http.ResponseWriter, code int) {
	name := gerrors.StatusName(code)
	if name == "" {
		name = http.StatusText(code)
	}
	http.Error(w, name, code)
}
