package manifest

// SessionConfig names the session storage driver configured for the site.
type SessionConfig struct {
	Driver  string         `json:"driver"`
	Options map[string]any `json:"options,omitempty"`
}

// DriverLoader lazily produces a session storage driver. The manifest only
// holds the reference; storage itself lives elsewhere.
type DriverLoader func() (any, error)
