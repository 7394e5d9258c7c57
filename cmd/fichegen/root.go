package main

import (
	"context"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/fichegen/fichegen/internal/cliout"
	"github.com/fichegen/fichegen/internal/config"
	"github.com/fichegen/fichegen/internal/home"
	"github.com/fichegen/fichegen/internal/pdftext"
	"github.com/fichegen/fichegen/internal/providers"
	"github.com/fichegen/fichegen/internal/svcctx"
	"github.com/fichegen/fichegen/version"
)

var (
	cfgFile      string
	homeDir      string
	outputFormat string
)

var rootCmd = &cobra.Command{
	Use:   "fichegen",
	Short: "Lesson page resolution for French teacher-guide PDFs",
	Long: `Fichegen maps a free-text lesson topic onto the physical pages of a
teacher-guide PDF and extracts the lesson text for downstream document
generation.

The resolution pipeline includes:
  - Cached, AI-parsed table-of-contents structuring
  - Printed-vs-physical page offset detection
  - Fuzzy topic matching with a direct AI fallback
  - Optional student-textbook context extraction`,
	Version: version.GitRelease,
}

func init() {
	rootCmd.PersistentFlags().StringVar(
		&cfgFile, "config", "", "config file (default: ./config.yaml or ~/.fichegen/config.yaml)",
	)
	rootCmd.PersistentFlags().StringVar(
		&homeDir, "home", "", "fichegen home directory (default: ~/.fichegen)",
	)
	rootCmd.PersistentFlags().StringVarP(
		&outputFormat, "output", "o", "yaml", "output format: yaml or json",
	)

	// Set output format before any command runs
	rootCmd.PersistentPreRun = func(cmd *cobra.Command, args []string) {
		cliout.SetFormat(outputFormat)
	}

	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(resolveCmd)
	rootCmd.AddCommand(tocCmd)
}

// setupServices builds the shared service set for a command invocation:
// home directory, config (written with defaults on first run), provider
// registry and the PDF reader.
func setupServices() (*svcctx.Services, error) {
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))

	h, err := home.New(homeDir)
	if err != nil {
		return nil, err
	}
	if err := h.EnsureExists(); err != nil {
		return nil, err
	}
	if cfgFile == "" && !h.ConfigExists() {
		if err := config.WriteDefault(h.ConfigPath()); err != nil {
			logger.Warn("could not write default config", "path", h.ConfigPath(), "err", err)
		}
	}

	cm, err := config.NewManager(cfgFile)
	if err != nil {
		return nil, err
	}
	cm.WatchConfig()

	return &svcctx.Services{
		Config:   cm,
		Registry: providers.NewRegistry(logger),
		Reader:   pdftext.NewReader(),
		Logger:   logger,
		Home:     h,
	}, nil
}

// defaultClient builds the configured default provider's client from the
// services on the context. A missing key or disabled provider returns a nil
// client, which downgrades the pipeline to its non-AI strategies.
func defaultClient(ctx context.Context) (providers.LLMClient, config.ProviderCfg) {
	logger := svcctx.LoggerFrom(ctx)

	cfg := svcctx.ConfigFrom(ctx).Get()
	name, p, ok := cfg.DefaultProvider()
	if !ok || !p.Enabled {
		logger.Warn("no enabled default provider configured")
		return nil, p
	}

	client, err := svcctx.RegistryFrom(ctx).Client(ctx, name, providers.ClientSpec{
		Type:         p.Type,
		APIKey:       config.ResolveEnvVars(p.APIKey),
		BaseURL:      p.BaseURL,
		DefaultModel: p.Model,
	})
	if err != nil {
		logger.Warn("model client unavailable, AI strategies disabled", "provider", name, "err", err)
		return nil, p
	}
	return client, p
}

// guidesDir resolves the configured guides directory, defaulting to the
// home layout.
func guidesDir(ctx context.Context) string {
	if dir := svcctx.ConfigFrom(ctx).Get().Guides.Dir; dir != "" {
		return dir
	}
	return svcctx.HomeFrom(ctx).GuidesDir()
}

// textbookDir resolves the student-textbook directory, which may be empty.
func textbookDir(ctx context.Context) string {
	if dir := svcctx.ConfigFrom(ctx).Get().Guides.TextbookDir; dir != "" {
		return dir
	}
	return svcctx.HomeFrom(ctx).TextbooksDir()
}

// cacheRoot resolves where toc_cache lives: an explicit override, else the
// guides directory itself.
func cacheRoot(ctx context.Context) string {
	if dir := svcctx.ConfigFrom(ctx).Get().Guides.CacheRootDir; dir != "" {
		return dir
	}
	return guidesDir(ctx)
}
