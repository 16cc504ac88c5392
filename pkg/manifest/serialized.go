package manifest

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/cooptacular/gravity/pkg/routing"
)

// SerializedManifest is the manifest document as written by the build.
type SerializedManifest struct {
	HrefRoot            string                   `json:"hrefRoot,omitempty"`
	CacheDir            string                   `json:"cacheDir,omitempty"`
	OutDir              string                   `json:"outDir,omitempty"`
	SrcDir              string                   `json:"srcDir,omitempty"`
	PublicDir           string                   `json:"publicDir,omitempty"`
	BuildClientDir      string                   `json:"buildClientDir,omitempty"`
	BuildServerDir      string                   `json:"buildServerDir,omitempty"`
	AdapterName         string                   `json:"adapterName,omitempty"`
	Routes              []SerializedRoute        `json:"routes"`
	Site                string                   `json:"site,omitempty"`
	Base                string                   `json:"base,omitempty"`
	TrailingSlash       routing.TrailingSlash    `json:"trailingSlash,omitempty"`
	CompressHTML        bool                     `json:"compressHTML"`
	ComponentMetadata   Pairs[ComponentMetadata] `json:"componentMetadata"`
	Renderers           json.RawMessage          `json:"renderers,omitempty"`
	ClientDirectives    Pairs[string]            `json:"clientDirectives"`
	EntryModules        map[string]string        `json:"entryModules,omitempty"`
	InlinedScripts      Pairs[string]            `json:"inlinedScripts"`
	Assets              []string                 `json:"assets"`
	BuildFormat         string                   `json:"buildFormat,omitempty"`
	CheckOrigin         bool                     `json:"checkOrigin"`
	ServerIslandNameMap Pairs[string]            `json:"serverIslandNameMap"`
	Key                 string                   `json:"key"`
	SessionConfig       *SessionConfig           `json:"sessionConfig,omitempty"`
}

// SerializedRoute is one entry of the route table with its build outputs.
type SerializedRoute struct {
	File      string              `json:"file"`
	Links     []string            `json:"links"`
	Scripts   json.RawMessage     `json:"scripts,omitempty"`
	Styles    json.RawMessage     `json:"styles,omitempty"`
	RouteData SerializedRouteData `json:"routeData"`
}

// SerializedRouteData is a route descriptor before its pattern is compiled.
type SerializedRouteData struct {
	Route          string                `json:"route"`
	Type           routing.RouteType     `json:"type"`
	Pattern        string                `json:"pattern"`
	Params         []string              `json:"params"`
	Component      string                `json:"component"`
	Pathname       string                `json:"pathname,omitempty"`
	Segments       []routing.Segment     `json:"segments"`
	Prerender      bool                  `json:"prerender"`
	Redirect       json.RawMessage       `json:"redirect,omitempty"`
	RedirectRoute  *SerializedRouteData  `json:"redirectRoute,omitempty"`
	FallbackRoutes []SerializedRouteData `json:"fallbackRoutes"`
	IsIndex        bool                  `json:"isIndex"`
	DistURL        json.RawMessage       `json:"distURL,omitempty"`
	Origin         string                `json:"origin,omitempty"`
	Meta           RouteMeta             `json:"_meta"`
}

// RouteMeta carries per-route build settings.
type RouteMeta struct {
	TrailingSlash routing.TrailingSlash `json:"trailingSlash"`
}

// ComponentMetadata describes how a component participates in head rendering.
type ComponentMetadata struct {
	Propagation  string `json:"propagation"`
	ContainsHead bool   `json:"containsHead"`
}

// Pair is a single [key, value] tuple.
type Pair[V any] struct {
	Key   string
	Value V
}

// Pairs is an ordered list of [key, value] tuples, the serialized form of a map.
type Pairs[V any] []Pair[V]

// MarshalJSON writes the pairs as a JSON array of two-element arrays.
func (p Pairs[V]) MarshalJSON() ([]byte, error) {
	tuples := make([][2]any, len(p))
	for i, pair := range p {
		tuples[i] = [2]any{pair.Key, pair.Value}
	}
	return json.Marshal(tuples)
}

// UnmarshalJSON reads a JSON array of two-element arrays.
func (p *Pairs[V]) UnmarshalJSON(data []byte) error {
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		*p = nil
		return nil
	}
	var tuples [][]json.RawMessage
	if err := json.Unmarshal(data, &tuples); err != nil {
		return err
	}
	out := make(Pairs[V], 0, len(tuples))
	for i, tuple := range tuples {
		if len(tuple) != 2 {
			return fmt.Errorf("pair %d: want 2 elements, got %d", i, len(tuple))
		}
		var pair Pair[V]
		if err := json.Unmarshal(tuple[0], &pair.Key); err != nil {
			return fmt.Errorf("pair %d key: %w", i, err)
		}
		if err := json.Unmarshal(tuple[1], &pair.Value); err != nil {
			return fmt.Errorf("pair %d value: %w", i, err)
		}
		out = append(out, pair)
	}
	*p = out
	return nil
}

// Map converts the pairs into a map. Later duplicates win.
func (p Pairs[V]) Map() map[string]V {
	m := make(map[string]V, len(p))
	for _, pair := range p {
		m[pair.Key] = pair.Value
	}
	return m
}
