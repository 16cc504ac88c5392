// Package routing implements reverse path generation for manifest routes.
//
// A route template such as /blog/[...slug] or /categories/[category] is
// described by an ordered list of segments. Each segment is an ordered list of
// parts, and each part is either literal text or a parameter reference:
//
//	/categories/[category]  →  [[{categories}], [{category dynamic}]]
//	/blog/[...slug]         →  [[{blog}], [{...slug dynamic spread}]]
//
// # Generators
//
// CompileGenerator turns segments and a trailing-slash policy into a pure
// function from parameters to a concrete path:
//
//	gen := routing.CompileGenerator(segments, routing.TrailingSlashIgnore)
//	path, err := gen(map[string]any{"category": "travel"})
//	// path == "/categories/travel"
//
// Parameter values are NFC-normalized and have '#' and '?' escaped so that the
// generated path cannot be mistaken for a fragment or query string.
//
// A named parameter that is missing yields a *MissingParameterError. A missing
// spread parameter renders as an empty segment instead.
package routing
