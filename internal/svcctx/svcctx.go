// Package svcctx provides service context for dependency injection via context.
// This package is separate from pipeline to avoid import cycles with commands.
package svcctx

import (
	"context"
	"log/slog"

	"github.com/fichegen/fichegen/internal/config"
	"github.com/fichegen/fichegen/internal/home"
	"github.com/fichegen/fichegen/internal/pdftext"
	"github.com/fichegen/fichegen/internal/providers"
)

// Services holds all core services that flow through context.
// Components extract what they need via the individual extractors.
type Services struct {
	Config   *config.Manager
	Registry *providers.Registry
	Reader   pdftext.PageReader
	Logger   *slog.Logger
	Home     *home.Dir
}

type servicesKey struct{}

// WithServices returns a new context with services attached.
func WithServices(ctx context.Context, s *Services) context.Context {
	return context.WithValue(ctx, servicesKey{}, s)
}

// ServicesFrom extracts the full Services struct from context.
// Returns nil if not present.
func ServicesFrom(ctx context.Context) *Services {
	s, _ := ctx.Value(servicesKey{}).(*Services)
	return s
}

// ConfigFrom extracts the config manager from context.
func ConfigFrom(ctx context.Context) *config.Manager {
	if s := ServicesFrom(ctx); s != nil {
		return s.Config
	}
	return nil
}

// RegistryFrom extracts the provider registry from context.
func RegistryFrom(ctx context.Context) *providers.Registry {
	if s := ServicesFrom(ctx); s != nil {
		return s.Registry
	}
	return nil
}

// ReaderFrom extracts the PDF page reader from context.
func ReaderFrom(ctx context.Context) pdftext.PageReader {
	if s := ServicesFrom(ctx); s != nil {
		return s.Reader
	}
	return nil
}

// LoggerFrom extracts the logger from context. Falls back to the default
// logger so callers never receive nil.
func LoggerFrom(ctx context.Context) *slog.Logger {
	if s := ServicesFrom(ctx); s != nil && s.Logger != nil {
		return s.Logger
	}
	return slog.Default()
}

// HomeFrom extracts the home directory from context.
func HomeFrom(ctx context.Context) *home.Dir {
	if s := ServicesFrom(ctx); s != nil {
		return s.Home
	}
	return nil
}
