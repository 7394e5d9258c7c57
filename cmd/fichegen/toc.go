package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/fichegen/fichegen/internal/cliout"
	"github.com/fichegen/fichegen/internal/guide"
	"github.com/fichegen/fichegen/internal/pdftext"
	"github.com/fichegen/fichegen/internal/svcctx"
	"github.com/fichegen/fichegen/internal/toc"
)

var tocCmd = &cobra.Command{
	Use:   "toc",
	Short: "Inspect and manage cached tables of contents",
}

var tocShowCmd = &cobra.Command{
	Use:   "show <class>",
	Short: "Print the cached ToC for a class's guide",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		svc, err := setupServices()
		if err != nil {
			return err
		}
		ctx := svcctx.WithServices(cmd.Context(), svc)

		guidePath, err := guide.FindGuide(guidesDir(ctx), args[0])
		if err != nil {
			return err
		}

		store := toc.NewStore(cacheRoot(ctx), svcctx.LoggerFrom(ctx))
		entries := store.Load(guidePath)
		if entries == nil {
			return fmt.Errorf("no cached ToC for %s (run 'fichegen toc rebuild %s')", guidePath, args[0])
		}
		return cliout.Output(entries)
	},
}

var tocRebuildCmd = &cobra.Command{
	Use:   "rebuild <class>",
	Short: "Re-parse a guide's ToC with the model and refresh the cache",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		svc, err := setupServices()
		if err != nil {
			return err
		}
		ctx = svcctx.WithServices(ctx, svc)

		guidePath, err := guide.FindGuide(guidesDir(ctx), args[0])
		if err != nil {
			return err
		}

		client, provider := defaultClient(ctx)
		if client == nil {
			return fmt.Errorf("rebuilding the ToC requires a configured model provider")
		}

		cfg := svcctx.ConfigFrom(ctx).Get()
		scan := cfg.Defaults.TocScanPages
		if scan <= 0 {
			scan = pdftext.DefaultFrontMatterPages
		}
		rawToc, err := pdftext.ExtractFrontMatter(ctx, svcctx.ReaderFrom(ctx), guidePath, scan)
		if err != nil {
			return fmt.Errorf("extracting front matter: %w", err)
		}

		parser := &toc.Parser{
			Client:         client,
			Model:          provider.Model,
			FallbackModel:  provider.FallbackModel,
			EnableFallback: cfg.Defaults.EnableModelFallback,
			Logger:         svcctx.LoggerFrom(ctx),
		}
		entries, err := parser.Parse(ctx, rawToc)
		if err != nil {
			return err
		}

		store := toc.NewStore(cacheRoot(ctx), svcctx.LoggerFrom(ctx))
		if !store.Save(guidePath, entries) {
			return fmt.Errorf("could not write ToC cache for %s", guidePath)
		}
		return cliout.Output(entries)
	},
}

var tocClearCmd = &cobra.Command{
	Use:   "clear <class>",
	Short: "Delete a guide's cached ToC",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		svc, err := setupServices()
		if err != nil {
			return err
		}
		ctx := svcctx.WithServices(cmd.Context(), svc)

		guidePath, err := guide.FindGuide(guidesDir(ctx), args[0])
		if err != nil {
			return err
		}

		store := toc.NewStore(cacheRoot(ctx), svcctx.LoggerFrom(ctx))
		if err := store.Clear(guidePath); err != nil {
			return err
		}
		fmt.Printf("Cleared ToC cache for %s\n", guidePath)
		return nil
	},
}

func init() {
	tocCmd.AddCommand(tocShowCmd)
	tocCmd.AddCommand(tocRebuildCmd)
	tocCmd.AddCommand(tocClearCmd)
}
