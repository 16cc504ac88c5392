package main

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"io"
	"log/slog"
	"regexp/syntax"

	"github.com/cooptacular/gravity/internal/config"
	"github.com/cooptacular/gravity/internal/errors"
	"github.com/cooptacular/gravity/internal/logging"
	"github.com/cooptacular/gravity/internal/source"
	"github.com/cooptacular/gravity/pkg/manifest"
)

// globalFlags are the persistent flags shared by every command.
type globalFlags struct {
	configPath string
	manifest   string
	logLevel   string
	logFormat  string
	noColor    bool
}

// loadConfig resolves gravity.json, .env and GRAVITY_* variables, then
// applies command-line overrides.
func (g *globalFlags) loadConfig() (*config.Config, error) {
	cfg, err := config.Resolve(g.configPath)
	if err != nil {
		return nil, err
	}

	if g.manifest != "" {
		cfg.Manifest = g.manifest
	}
	if g.logLevel != "" {
		cfg.Log.Level = g.logLevel
	}
	if g.logFormat != "" {
		cfg.Log.Format = g.logFormat
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// newLogger builds the command logger from the log section.
func newLogger(cfg *config.Config, w io.Writer) *slog.Logger {
	level, err := logging.ParseLevel(cfg.Log.Level)
	if err != nil {
		level = slog.LevelInfo
	}
	format, err := logging.ParseFormat(cfg.Log.Format)
	if err != nil {
		format = logging.FormatText
	}
	return logging.New(
		logging.WithOutput(w),
		logging.WithLevel(level),
		logging.WithFormat(format),
		logging.WithService(cfg.Tracing.ServiceName),
	)
}

// loadManifest fetches the configured manifest and deserializes it.
func loadManifest(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*manifest.Manifest, error) {
	src := cfg.ManifestSource()

	data, err := source.Open(ctx, src,
		source.WithRegion(cfg.AWS.Region),
		source.WithProfile(cfg.AWS.Profile),
		source.WithEndpoint(cfg.AWS.Endpoint),
	)
	if err != nil {
		ge := errors.New("G201").Wrap(err).WithDetail(fmt.Sprintf("Could not read %s.", src))
		if stderrors.Is(err, source.ErrNotFound) {
			ge.WithSuggestion("Run 'astro build' with a server adapter, or point --manifest at the build's manifest.json")
		}
		return nil, ge
	}

	m, err := manifest.Parse(data, manifest.WithLogger(logger))
	if err != nil {
		return nil, manifestError(src, data, err)
	}

	logger.Debug("manifest loaded", slog.String("source", src), slog.Int("routes", len(m.Routes())))
	return m, nil
}

// manifestError maps a Parse failure onto a coded error.
func manifestError(src string, data []byte, err error) error {
	var (
		syntaxErr  *json.SyntaxError
		typeErr    *json.UnmarshalTypeError
		patternErr *syntax.Error
	)

	switch {
	case stderrors.As(err, &syntaxErr):
		return errors.New("G202").Wrap(err).WithOffset(src, data, syntaxErr.Offset)
	case stderrors.As(err, &typeErr):
		ge := errors.New("G202").Wrap(err).WithOffset(src, data, typeErr.Offset)
		if typeErr.Field != "" {
			ge.WithSuggestion(fmt.Sprintf("%q must be a %s", typeErr.Field, typeErr.Type))
		}
		return ge
	case stderrors.As(err, &patternErr):
		return errors.New("G203").Wrap(err).WithDetail(fmt.Sprintf("Expression %q: %s.", patternErr.Expr, patternErr.Code))
	case stderrors.Is(err, manifest.ErrInvalidKey):
		return errors.New("G204").Wrap(err).WithSuggestion("The key must be standard base64 of 16, 24 or 32 bytes")
	default:
		return errors.New("G202").Wrap(err)
	}
}

// setup loads config, logger and manifest in that order.
func (g *globalFlags) setup(ctx context.Context, logOut io.Writer) (*config.Config, *slog.Logger, *manifest.Manifest, error) {
	cfg, err := g.loadConfig()
	if err != nil {
		return nil, nil, nil, err
	}
	logger := newLogger(cfg, logOut)
	m, err := loadManifest(ctx, cfg, logger)
	if err != nil {
		return nil, nil, nil, err
	}
	return cfg, logger, m, nil
}
