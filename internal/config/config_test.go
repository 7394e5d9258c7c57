package config

import (
	"os"
	"testing"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.Defaults.Provider != "gemini" {
		t.Errorf("expected default provider gemini, got %s", cfg.Defaults.Provider)
	}
	if cfg.Defaults.TocScanPages != 5 {
		t.Errorf("expected 5 ToC scan pages, got %d", cfg.Defaults.TocScanPages)
	}
	if cfg.Defaults.FallbackSpanPages != 3 {
		t.Errorf("expected fallback span 3, got %d", cfg.Defaults.FallbackSpanPages)
	}
	if !cfg.Defaults.EnableModelFallback {
		t.Error("expected model fallback enabled by default")
	}

	p, ok := cfg.GetProvider("gemini")
	if !ok {
		t.Fatal("expected gemini provider in defaults")
	}
	if !p.Enabled {
		t.Error("expected gemini enabled by default")
	}
	if p.FallbackModel == "" {
		t.Error("expected a fallback model for gemini")
	}
}

func TestDefaultProvider(t *testing.T) {
	cfg := DefaultConfig()

	name, p, ok := cfg.DefaultProvider()
	if !ok {
		t.Fatal("expected a default provider")
	}
	if name != "gemini" {
		t.Errorf("expected gemini, got %s", name)
	}
	if p.Type != "gemini" {
		t.Errorf("expected type gemini, got %s", p.Type)
	}

	cfg.Defaults.Provider = "missing"
	if _, _, ok := cfg.DefaultProvider(); ok {
		t.Error("expected no provider for unknown name")
	}
}

func TestResolveEnvVars(t *testing.T) {
	os.Setenv("FICHEGEN_TEST_KEY", "secret123")
	defer os.Unsetenv("FICHEGEN_TEST_KEY")

	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"expands env var", "${FICHEGEN_TEST_KEY}", "secret123"},
		{"plain string untouched", "literal-key", "literal-key"},
		{"empty string", "", ""},
		{"missing var becomes empty", "${FICHEGEN_MISSING_VAR}", ""},
		{"embedded var", "prefix-${FICHEGEN_TEST_KEY}", "prefix-secret123"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ResolveEnvVars(tt.input); got != tt.want {
				t.Errorf("ResolveEnvVars(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}
