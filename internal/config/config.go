package config

import (
	"encoding/json"
	stderrors "errors"
	"fmt"
	"net"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"

	"github.com/cooptacular/gravity/internal/errors"
)

const (
	// ConfigFileName is the name of the configuration file.
	ConfigFileName = "gravity.json"

	// EnvPrefix prefixes every environment override.
	EnvPrefix = "GRAVITY_"

	DefaultManifest    = "dist/server/manifest.json"
	DefaultClientDir   = "dist/client"
	DefaultHost        = "localhost"
	DefaultPort        = 4321
	DefaultLogLevel    = "info"
	DefaultLogFormat   = "text"
	DefaultMetricsPath = "/metrics"
	DefaultServiceName = "gravity"
	DefaultExporter    = "stdout"

	DefaultShutdownTimeout = 10 * time.Second
)

// Duration is a time.Duration written as a Go duration string ("10s") in
// JSON and environment variables.
type Duration time.Duration

// MarshalJSON implements json.Marshaler.
func (d Duration) MarshalJSON() ([]byte, error) {
	return json.Marshal(time.Duration(d).String())
}

// UnmarshalJSON accepts a duration string or a number of seconds.
func (d *Duration) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		return d.UnmarshalText([]byte(s))
	}
	var secs float64
	if err := json.Unmarshal(data, &secs); err != nil {
		return fmt.Errorf("duration must be a string like \"10s\" or a number of seconds")
	}
	*d = Duration(secs * float64(time.Second))
	return nil
}

// UnmarshalText implements encoding.TextUnmarshaler for env parsing.
func (d *Duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	*d = Duration(v)
	return nil
}

// Config is the complete gravity.json configuration.
type Config struct {
	// Manifest is a local path or an s3://bucket/key URI.
	Manifest string `json:"manifest,omitempty" env:"MANIFEST"`

	// ClientDir holds the prerendered pages and client assets.
	ClientDir string `json:"clientDir,omitempty" env:"CLIENT_DIR"`

	Server  ServerConfig  `json:"server" envPrefix:"SERVER_"`
	Log     LogConfig     `json:"log" envPrefix:"LOG_"`
	Metrics MetricsConfig `json:"metrics" envPrefix:"METRICS_"`
	Tracing TracingConfig `json:"tracing" envPrefix:"TRACING_"`
	AWS     AWSConfig     `json:"aws" envPrefix:"AWS_"`

	configPath string
}

// ServerConfig contains HTTP listener settings.
type ServerConfig struct {
	Host string `json:"host,omitempty" env:"HOST"`
	Port int    `json:"port,omitempty" env:"PORT"`

	// ShutdownTimeout bounds graceful shutdown.
	ShutdownTimeout Duration `json:"shutdownTimeout,omitempty" env:"SHUTDOWN_TIMEOUT"`

	// TrustedProxies are IPs or CIDRs whose forwarding headers are believed.
	TrustedProxies []string `json:"trustedProxies,omitempty" env:"TRUSTED_PROXIES" envSeparator:","`
}

// LogConfig selects the slog handler.
type LogConfig struct {
	// Level is debug, info, warn or error.
	Level string `json:"level,omitempty" env:"LEVEL"`

	// Format is text or json.
	Format string `json:"format,omitempty" env:"FORMAT"`
}

// MetricsConfig controls the Prometheus endpoint.
type MetricsConfig struct {
	Enabled bool   `json:"enabled" env:"ENABLED"`
	Path    string `json:"path,omitempty" env:"PATH"`
}

// TracingConfig controls OpenTelemetry request spans.
type TracingConfig struct {
	Enabled     bool   `json:"enabled" env:"ENABLED"`
	ServiceName string `json:"serviceName,omitempty" env:"SERVICE_NAME"`

	// Exporter is stdout or otlp.
	Exporter string `json:"exporter,omitempty" env:"EXPORTER"`

	// Endpoint is the OTLP/HTTP collector, e.g. http://localhost:4318.
	Endpoint string `json:"endpoint,omitempty" env:"ENDPOINT"`
}

// AWSConfig is used when the manifest lives in S3. Empty fields fall back
// to the SDK's default chain.
type AWSConfig struct {
	Region  string `json:"region,omitempty" env:"REGION"`
	Profile string `json:"profile,omitempty" env:"PROFILE"`

	// Endpoint overrides the S3 endpoint, e.g. for MinIO or LocalStack.
	Endpoint string `json:"endpoint,omitempty" env:"ENDPOINT"`
}

// New returns a Config with default values.
func New() *Config {
	return &Config{
		Manifest:  DefaultManifest,
		ClientDir: DefaultClientDir,
		Server: ServerConfig{
			Host:            DefaultHost,
			Port:            DefaultPort,
			ShutdownTimeout: Duration(DefaultShutdownTimeout),
		},
		Log: LogConfig{
			Level:  DefaultLogLevel,
			Format: DefaultLogFormat,
		},
		Metrics: MetricsConfig{
			Enabled: true,
			Path:    DefaultMetricsPath,
		},
		Tracing: TracingConfig{
			ServiceName: DefaultServiceName,
			Exporter:    DefaultExporter,
		},
	}
}

// Load reads gravity.json from dir.
func Load(dir string) (*Config, error) {
	return LoadFile(filepath.Join(dir, ConfigFileName))
}

// LoadFile reads configuration from path. Fields missing from the file keep
// their defaults.
func LoadFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.New("G101").
				WithDetail("No " + ConfigFileName + " found at " + path).
				WithSuggestion("Run 'gravity serve' without --config to use defaults and GRAVITY_* variables")
		}
		return nil, errors.New("G102").Wrap(err)
	}

	cfg := New()
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, parseError(path, data, err)
	}

	cfg.configPath = path
	cfg.applyDefaults()
	return cfg, nil
}

func parseError(path string, data []byte, err error) error {
	ge := errors.New("G102").Wrap(err)

	var syntaxErr *json.SyntaxError
	var typeErr *json.UnmarshalTypeError
	switch {
	case stderrors.As(err, &syntaxErr):
		ge.WithOffset(path, data, syntaxErr.Offset).
			WithSuggestion("Check for trailing commas and unquoted keys")
	case stderrors.As(err, &typeErr):
		ge.WithOffset(path, data, typeErr.Offset).
			WithSuggestion(fmt.Sprintf("%q must be a %s", typeErr.Field, typeErr.Type))
	default:
		ge.WithLocation(path, 1, 0)
	}
	return ge
}

// LoadEnv loads the given .env files, skipping missing ones, and then applies
// GRAVITY_* overrides. Variables already present in the process win over
// .env values.
func (c *Config) LoadEnv(files ...string) error {
	var existing []string
	for _, f := range files {
		if _, err := os.Stat(f); err == nil {
			existing = append(existing, f)
		}
	}
	if len(existing) > 0 {
		if err := godotenv.Load(existing...); err != nil {
			return errors.New("G104").Wrap(err)
		}
	}

	if err := env.ParseWithOptions(c, env.Options{Prefix: EnvPrefix}); err != nil {
		return errors.New("G104").Wrap(err)
	}
	c.applyDefaults()
	return nil
}

// Resolve builds the effective configuration. An empty path means defaults
// only; otherwise the file must exist. The .env next to the config file (or
// in the working directory) is applied before GRAVITY_* variables.
func Resolve(path string) (*Config, error) {
	cfg := New()
	dotenv := ".env"
	if path != "" {
		loaded, err := LoadFile(path)
		if err != nil {
			return nil, err
		}
		cfg = loaded
		dotenv = filepath.Join(filepath.Dir(path), ".env")
	}

	if err := cfg.LoadEnv(dotenv); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// applyDefaults restores defaults for fields explicitly set to zero values.
func (c *Config) applyDefaults() {
	if c.Manifest == "" {
		c.Manifest = DefaultManifest
	}
	if c.ClientDir == "" {
		c.ClientDir = DefaultClientDir
	}
	if c.Server.Host == "" {
		c.Server.Host = DefaultHost
	}
	if c.Server.ShutdownTimeout <= 0 {
		c.Server.ShutdownTimeout = Duration(DefaultShutdownTimeout)
	}
	c.Log.Level = strings.ToLower(c.Log.Level)
	if c.Log.Level == "" {
		c.Log.Level = DefaultLogLevel
	}
	c.Log.Format = strings.ToLower(c.Log.Format)
	if c.Log.Format == "" {
		c.Log.Format = DefaultLogFormat
	}
	if c.Metrics.Path == "" {
		c.Metrics.Path = DefaultMetricsPath
	}
	if c.Tracing.ServiceName == "" {
		c.Tracing.ServiceName = DefaultServiceName
	}
	c.Tracing.Exporter = strings.ToLower(c.Tracing.Exporter)
	if c.Tracing.Exporter == "" {
		c.Tracing.Exporter = DefaultExporter
	}
}

// Validate checks value ranges and enumerations.
func (c *Config) Validate() error {
	if c.Server.Port < 0 || c.Server.Port > 65535 {
		return errors.New("G103").
			WithDetail(fmt.Sprintf("server.port must be between 0 and 65535, got %d", c.Server.Port))
	}
	switch c.Log.Level {
	case "debug", "info", "warn", "error":
	default:
		return errors.New("G103").
			WithDetail(fmt.Sprintf("log.level must be debug, info, warn or error, got %q", c.Log.Level))
	}
	switch c.Log.Format {
	case "text", "json":
	default:
		return errors.New("G103").
			WithDetail(fmt.Sprintf("log.format must be text or json, got %q", c.Log.Format))
	}
	switch c.Tracing.Exporter {
	case "stdout", "otlp":
	default:
		return errors.New("G103").
			WithDetail(fmt.Sprintf("tracing.exporter must be stdout or otlp, got %q", c.Tracing.Exporter))
	}
	if !strings.HasPrefix(c.Metrics.Path, "/") {
		return errors.New("G103").
			WithDetail(fmt.Sprintf("metrics.path must start with /, got %q", c.Metrics.Path))
	}
	return nil
}

// Save writes the configuration back to the file it was loaded from.
func (c *Config) Save() error {
	if c.configPath == "" {
		return errors.Newf(errors.CategoryConfig, "no config path set")
	}
	return c.SaveTo(c.configPath)
}

// SaveTo writes the configuration to path.
func (c *Config) SaveTo(path string) error {
	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return errors.New("G105").Wrap(err)
	}
	data = append(data, '\n')

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return errors.New("G105").Wrap(err)
	}
	c.configPath = path
	return nil
}

// Path returns the file the config was loaded from, "" for defaults.
func (c *Config) Path() string {
	return c.configPath
}

// Dir returns the directory relative paths are resolved against.
func (c *Config) Dir() string {
	if c.configPath == "" {
		return "."
	}
	return filepath.Dir(c.configPath)
}

// Address returns host:port for the HTTP listener.
func (c *Config) Address() string {
	return net.JoinHostPort(c.Server.Host, strconv.Itoa(c.Server.Port))
}

// ShutdownTimeout returns the graceful shutdown bound.
func (c *Config) ShutdownTimeout() time.Duration {
	return time.Duration(c.Server.ShutdownTimeout)
}

// ManifestSource returns the manifest location. S3 URIs are returned as is;
// relative paths are resolved against the config directory.
func (c *Config) ManifestSource() string {
	if strings.HasPrefix(c.Manifest, "s3://") {
		return c.Manifest
	}
	return c.resolve(c.Manifest)
}

// ClientPath returns the directory prerendered files are served from.
func (c *Config) ClientPath() string {
	return c.resolve(c.ClientDir)
}

func (c *Config) resolve(path string) string {
	if filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(c.Dir(), path)
}

// Exists reports whether dir contains gravity.json.
func Exists(dir string) bool {
	_, err := os.Stat(filepath.Join(dir, ConfigFileName))
	return err == nil
}
