// Package manifest deserializes the route manifest emitted by the site build.
//
// The build writes a single JSON document describing every route (pattern,
// segments, params, trailing-slash policy, prerender flag), the asset list,
// component metadata, inlined scripts, client directive code, an encoded
// server key and the session driver configuration:
//
//	{
//	  "routes": [{"file": "about/index.html", "routeData": {"route": "/about", ...}}],
//	  "assets": ["/favicon.svg", ...],
//	  "componentMetadata": [["src/pages/about.astro", {"propagation": "none", "containsHead": true}]],
//	  "inlinedScripts": [["...ThemeToggle.astro?...", "const n=..."]],
//	  "clientDirectives": [["idle", "(()=>{...})();"]],
//	  "key": "coUjS6tq1+tn1Q0BqOssHbgi+AJMHMc59/uyqlbn+/4=",
//	  "sessionConfig": {"driver": "netlify-blobs", "options": {...}}
//	}
//
// Deserialize compiles every route pattern, attaches a path generator, and
// rebuilds the lookup tables:
//
//	m, err := manifest.Load("dist/server/manifest.json")
//	if err != nil {
//	    return err
//	}
//
//	match, ok := m.Match("/categories/travel")
//	// match.Route.Route == "/categories/[category]"
//	// match.Params["category"] == "travel"
//
//	path, err := m.Generate("/blog/[...slug]", routing.Params{"slug": "2024/hello"})
//	// path == "/blog/2024/hello"
//
// A Manifest is immutable once built and safe for concurrent use.
package manifest
