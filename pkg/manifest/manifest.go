package manifest

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"

	"github.com/cooptacular/gravity/pkg/middleware"
	"github.com/cooptacular/gravity/pkg/routing"
)

// ErrRouteNotFound is returned when no route has the requested template.
var ErrRouteNotFound = errors.New("route not found")

// RouteInfo is a route table entry with its build outputs.
type RouteInfo struct {
	File      string
	Links     []string
	RouteData *RouteData

	scripts json.RawMessage
	styles  json.RawMessage
}

// Scripts returns the raw script descriptors emitted for the route.
func (ri RouteInfo) Scripts() json.RawMessage { return ri.scripts }

// Styles returns the raw style descriptors emitted for the route.
func (ri RouteInfo) Styles() json.RawMessage { return ri.styles }

// Match is a successful route lookup.
type Match struct {
	Info   *RouteInfo
	Route  *RouteData
	Params map[string]string
}

// Manifest is the deserialized route manifest. It is read-only after
// Deserialize returns and safe for concurrent use.
type Manifest struct {
	raw SerializedManifest

	routes            []RouteInfo
	byTemplate        map[string]*RouteInfo
	byPattern         map[string]*RouteInfo
	assets            map[string]struct{}
	componentMetadata map[string]ComponentMetadata
	inlinedScripts    map[string]string
	clientDirectives  map[string]string
	serverIslandNames map[string]string
	islandComponents  map[string]string
	key               Key

	middleware    func(http.Handler) http.Handler
	sessionDriver DriverLoader
}

// Option configures Deserialize.
type Option func(*options)

type options struct {
	keyDecoder KeyDecoder
	middleware func(http.Handler) http.Handler
	drivers    map[string]DriverLoader
	logger     *slog.Logger
}

// WithKeyDecoder replaces DecodeKey.
func WithKeyDecoder(d KeyDecoder) Option {
	return func(o *options) {
		o.keyDecoder = d
	}
}

// WithMiddleware replaces the no-op request middleware.
func WithMiddleware(mw func(http.Handler) http.Handler) Option {
	return func(o *options) {
		o.middleware = mw
	}
}

// WithSessionDriver registers a loader for the named session driver. The
// manifest keeps the loader whose name matches its session config.
func WithSessionDriver(name string, loader DriverLoader) Option {
	return func(o *options) {
		if o.drivers == nil {
			o.drivers = make(map[string]DriverLoader)
		}
		o.drivers[name] = loader
	}
}

// WithLogger sets the logger used while deserializing.
func WithLogger(l *slog.Logger) Option {
	return func(o *options) {
		o.logger = l
	}
}

// Load reads and deserializes a manifest file.
func Load(path string, opts ...Option) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return Parse(data, opts...)
}

// Parse decodes a JSON manifest document and deserializes it.
func Parse(data []byte, opts ...Option) (*Manifest, error) {
	var raw SerializedManifest
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("decode manifest: %w", err)
	}
	return Deserialize(raw, opts...)
}

// Deserialize compiles every route and rebuilds the lookup tables.
func Deserialize(raw SerializedManifest, opts ...Option) (*Manifest, error) {
	o := options{
		keyDecoder: DecodeKey,
		middleware: middleware.Noop,
		logger:     slog.Default(),
	}
	for _, opt := range opts {
		opt(&o)
	}

	if raw.TrailingSlash != "" && !raw.TrailingSlash.Valid() {
		return nil, fmt.Errorf("%w %q", ErrUnknownTrailingSlash, raw.TrailingSlash)
	}

	m := &Manifest{
		raw:               raw,
		routes:            make([]RouteInfo, 0, len(raw.Routes)),
		byTemplate:        make(map[string]*RouteInfo, len(raw.Routes)),
		byPattern:         make(map[string]*RouteInfo, len(raw.Routes)),
		assets:            make(map[string]struct{}, len(raw.Assets)),
		componentMetadata: raw.ComponentMetadata.Map(),
		inlinedScripts:    raw.InlinedScripts.Map(),
		clientDirectives:  raw.ClientDirectives.Map(),
		serverIslandNames: raw.ServerIslandNameMap.Map(),
		islandComponents:  make(map[string]string, len(raw.ServerIslandNameMap)),
		middleware:        o.middleware,
	}

	for _, sr := range raw.Routes {
		rd, err := DeserializeRoute(sr.RouteData)
		if err != nil {
			return nil, err
		}
		m.routes = append(m.routes, RouteInfo{
			File:      sr.File,
			Links:     sr.Links,
			RouteData: rd,
			scripts:   sr.Scripts,
			styles:    sr.Styles,
		})
	}
	// Index after the slice is final so the pointers stay valid.
	for i := range m.routes {
		info := &m.routes[i]
		if _, dup := m.byTemplate[info.RouteData.Route]; !dup {
			m.byTemplate[info.RouteData.Route] = info
		}
		if _, dup := m.byPattern[info.RouteData.Pattern.String()]; !dup {
			m.byPattern[info.RouteData.Pattern.String()] = info
		}
	}

	for _, p := range raw.ServerIslandNameMap {
		if _, dup := m.islandComponents[p.Value]; !dup {
			m.islandComponents[p.Value] = p.Key
		}
	}

	for _, a := range raw.Assets {
		m.assets[a] = struct{}{}
	}

	if raw.Key != "" {
		key, err := o.keyDecoder(raw.Key)
		if err != nil {
			return nil, fmt.Errorf("decode key: %w", err)
		}
		m.key = key
	}

	if raw.SessionConfig != nil {
		m.sessionDriver = o.drivers[raw.SessionConfig.Driver]
	}

	o.logger.Debug("manifest deserialized",
		slog.Int("routes", len(m.routes)),
		slog.Int("assets", len(m.assets)),
		slog.String("adapter", raw.AdapterName),
	)

	return m, nil
}

// Routes returns the route table in declaration order.
func (m *Manifest) Routes() []RouteInfo {
	return append([]RouteInfo(nil), m.routes...)
}

// Route looks up a route by its template, e.g. "/categories/[category]".
func (m *Manifest) Route(template string) (*RouteData, bool) {
	info, ok := m.byTemplate[template]
	if !ok {
		return nil, false
	}
	return info.RouteData, true
}

// RouteByPattern looks up a route by its pattern source text.
func (m *Manifest) RouteByPattern(pattern string) (*RouteData, bool) {
	info, ok := m.byPattern[pattern]
	if !ok {
		return nil, false
	}
	return info.RouteData, true
}

// Match returns the first route whose pattern accepts the decoded path.
func (m *Manifest) Match(path string) (*Match, bool) {
	for i := range m.routes {
		info := &m.routes[i]
		if params, ok := info.RouteData.Match(path); ok {
			return &Match{Info: info, Route: info.RouteData, Params: params}, true
		}
	}
	return nil, false
}

// Generate builds a path for the route with the given template.
func (m *Manifest) Generate(template string, params routing.Params) (string, error) {
	rd, ok := m.Route(template)
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrRouteNotFound, template)
	}
	return rd.Generate(params)
}

// Validate checks every route's pattern against its segments.
func (m *Manifest) Validate() error {
	var errs []error
	for _, info := range m.routes {
		if err := info.RouteData.Validate(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// SerializeRoutes returns the route table in serialized form.
func (m *Manifest) SerializeRoutes() []SerializedRoute {
	out := make([]SerializedRoute, len(m.routes))
	for i, info := range m.routes {
		out[i] = SerializedRoute{
			File:      info.File,
			Links:     info.Links,
			Scripts:   info.scripts,
			Styles:    info.styles,
			RouteData: info.RouteData.Serialize(),
		}
	}
	return out
}

// HasAsset reports whether path is a known build asset.
func (m *Manifest) HasAsset(path string) bool {
	_, ok := m.assets[path]
	return ok
}

// Assets returns the asset paths in build order.
func (m *Manifest) Assets() []string {
	return append([]string(nil), m.raw.Assets...)
}

// ComponentMetadata returns the metadata recorded for a component id.
func (m *Manifest) ComponentMetadata(id string) (ComponentMetadata, bool) {
	md, ok := m.componentMetadata[id]
	return md, ok
}

// InlinedScript returns the inlined body of a script id.
func (m *Manifest) InlinedScript(id string) (string, bool) {
	s, ok := m.inlinedScripts[id]
	return s, ok
}

// ClientDirective returns the activation code for a hydration directive.
func (m *Manifest) ClientDirective(name string) (string, bool) {
	s, ok := m.clientDirectives[name]
	return s, ok
}

// ClientDirectives returns the directive names in build order.
func (m *Manifest) ClientDirectives() []string {
	names := make([]string, len(m.raw.ClientDirectives))
	for i, p := range m.raw.ClientDirectives {
		names[i] = p.Key
	}
	return names
}

// ServerIslandName returns the island name the build gave a component.
func (m *Manifest) ServerIslandName(component string) (string, bool) {
	s, ok := m.serverIslandNames[component]
	return s, ok
}

// ServerIslandComponent returns the component behind an island name, the
// name being what appears in /_server-islands/<name> requests.
func (m *Manifest) ServerIslandComponent(name string) (string, bool) {
	s, ok := m.islandComponents[name]
	return s, ok
}

// EntryModule returns the output chunk built for an entry id.
func (m *Manifest) EntryModule(id string) (string, bool) {
	s, ok := m.raw.EntryModules[id]
	return s, ok
}

// Key returns the decoded server key, nil when the manifest has none.
func (m *Manifest) Key() Key {
	return m.key
}

// SessionConfig returns the session driver configuration, nil when absent.
func (m *Manifest) SessionConfig() *SessionConfig {
	return m.raw.SessionConfig
}

// SessionDriver returns the loader registered for the configured driver.
func (m *Manifest) SessionDriver() (DriverLoader, bool) {
	return m.sessionDriver, m.sessionDriver != nil
}

// Middleware returns the request middleware for the site.
func (m *Manifest) Middleware() func(http.Handler) http.Handler {
	return m.middleware
}

// Site returns the configured public site URL.
func (m *Manifest) Site() string { return m.raw.Site }

// Base returns the base path the site is mounted under.
func (m *Manifest) Base() string { return m.raw.Base }

// TrailingSlash returns the site-wide trailing-slash policy.
func (m *Manifest) TrailingSlash() routing.TrailingSlash {
	if m.raw.TrailingSlash == "" {
		return routing.TrailingSlashIgnore
	}
	return m.raw.TrailingSlash
}

// BuildFormat returns how pages were written: "directory" or "file".
func (m *Manifest) BuildFormat() string { return m.raw.BuildFormat }

// CheckOrigin reports whether cross-site form posts must be rejected.
func (m *Manifest) CheckOrigin() bool { return m.raw.CheckOrigin }

// CompressHTML reports whether rendered HTML is whitespace-compressed.
func (m *Manifest) CompressHTML() bool { return m.raw.CompressHTML }

// AdapterName returns the hosting adapter the build targeted.
func (m *Manifest) AdapterName() string { return m.raw.AdapterName }
