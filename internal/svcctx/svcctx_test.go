package svcctx

import (
	"context"
	"log/slog"
	"os"
	"testing"

	"github.com/fichegen/fichegen/internal/config"
	"github.com/fichegen/fichegen/internal/home"
	"github.com/fichegen/fichegen/internal/pdftext"
	"github.com/fichegen/fichegen/internal/providers"
)

func TestWithServices_ExtractorsRoundTrip(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))
	svc := &Services{
		Config:   new(config.Manager),
		Registry: providers.NewRegistry(logger),
		Reader:   pdftext.NewReader(),
		Logger:   logger,
		Home:     new(home.Dir),
	}

	ctx := WithServices(context.Background(), svc)

	if got := ServicesFrom(ctx); got != svc {
		t.Fatalf("ServicesFrom returned %v, want the attached services", got)
	}
	if ConfigFrom(ctx) != svc.Config {
		t.Error("ConfigFrom did not return the attached config manager")
	}
	if RegistryFrom(ctx) != svc.Registry {
		t.Error("RegistryFrom did not return the attached registry")
	}
	if ReaderFrom(ctx) != svc.Reader {
		t.Error("ReaderFrom did not return the attached reader")
	}
	if LoggerFrom(ctx) != svc.Logger {
		t.Error("LoggerFrom did not return the attached logger")
	}
	if HomeFrom(ctx) != svc.Home {
		t.Error("HomeFrom did not return the attached home dir")
	}
}

func TestExtractors_BareContext(t *testing.T) {
	ctx := context.Background()

	if ServicesFrom(ctx) != nil {
		t.Error("expected nil services on a bare context")
	}
	if ConfigFrom(ctx) != nil {
		t.Error("expected nil config on a bare context")
	}
	if RegistryFrom(ctx) != nil {
		t.Error("expected nil registry on a bare context")
	}
	if ReaderFrom(ctx) != nil {
		t.Error("expected nil reader on a bare context")
	}
	if HomeFrom(ctx) != nil {
		t.Error("expected nil home dir on a bare context")
	}
	if LoggerFrom(ctx) == nil {
		t.Error("LoggerFrom must fall back to a usable logger")
	}
}

func TestLoggerFrom_NilLoggerFallsBack(t *testing.T) {
	ctx := WithServices(context.Background(), &Services{})
	if LoggerFrom(ctx) == nil {
		t.Error("LoggerFrom must fall back to a usable logger when none is attached")
	}
}
