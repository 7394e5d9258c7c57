package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/fichegen/fichegen/internal/cliout"
	"github.com/fichegen/fichegen/internal/pipeline"
	"github.com/fichegen/fichegen/internal/svcctx"
	"github.com/fichegen/fichegen/internal/toc"
)

var (
	resolvePages       string
	resolveTextbook    bool
	resolveShowText    bool
	resolveGuidesDir   string
	resolveTextbookDir string
)

// resolveOutput is the structured result printed by the resolve command.
type resolveOutput struct {
	Class          string `json:"class" yaml:"class"`
	Topic          string `json:"topic" yaml:"topic"`
	CorrectedTopic string `json:"corrected_topic,omitempty" yaml:"corrected_topic,omitempty"`
	Guide          string `json:"guide" yaml:"guide"`
	Textbook       string `json:"textbook,omitempty" yaml:"textbook,omitempty"`
	Offset         int    `json:"offset" yaml:"offset"`
	Pages          []int  `json:"pages" yaml:"pages"`
	PagesSource    string `json:"pages_source" yaml:"pages_source"`
	Text           string `json:"text,omitempty" yaml:"text,omitempty"`
}

var resolveCmd = &cobra.Command{
	Use:   "resolve <class> <topic>",
	Short: "Resolve a lesson topic to guide pages and extract its text",
	Long: `Resolve maps a lesson topic onto the physical pages of the class's
teacher guide and extracts the lesson text.

Examples:
  fichegen resolve ce2 "Le cycle de l'eau"
  fichegen resolve cm1 "Les fractions" --pages 12-15
  fichegen resolve 6e "La Révolution française" --textbook --text`,
	Args: cobra.MinimumNArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		svc, err := setupServices()
		if err != nil {
			return err
		}
		ctx = svcctx.WithServices(ctx, svc)

		classLevel := args[0]
		topic := strings.Join(args[1:], " ")
		cfg := svcctx.ConfigFrom(ctx).Get()
		logger := svcctx.LoggerFrom(ctx)

		client, provider := defaultClient(ctx)

		gDir := resolveGuidesDir
		if gDir == "" {
			gDir = guidesDir(ctx)
		}
		tDir := resolveTextbookDir
		if tDir == "" {
			tDir = textbookDir(ctx)
		}

		runner := &pipeline.Runner{
			Reader:         svcctx.ReaderFrom(ctx),
			Cache:          toc.NewStore(cacheRoot(ctx), logger),
			Client:         client,
			Model:          provider.Model,
			FallbackModel:  provider.FallbackModel,
			EnableFallback: cfg.Defaults.EnableModelFallback,
			CorrectTopics:  cfg.Defaults.CorrectTopics,
			TocScanPages:   cfg.Defaults.TocScanPages,
			FallbackSpan:   cfg.Defaults.FallbackSpanPages,
			Logger:         logger,
			Sink: pipeline.SinkFunc(func(e pipeline.Event) {
				switch ev := e.(type) {
				case pipeline.LogEvent:
					fmt.Fprintln(os.Stderr, ev.Text)
				case pipeline.ProgressEvent:
					fmt.Fprintf(os.Stderr, "[%3d%%]\n", ev.Percent)
				}
			}),
		}

		res, err := runner.Run(ctx, pipeline.Request{
			ClassLevel:    classLevel,
			Topic:         topic,
			PagesOverride: resolvePages,
			GuidesDir:     gDir,
			TextbookDir:   tDir,
			UseTextbook:   resolveTextbook || cfg.Guides.UseTextbook,
		})
		if err != nil {
			return err
		}

		out := resolveOutput{
			Class:       classLevel,
			Topic:       res.Topic,
			Guide:       res.GuidePath,
			Textbook:    res.TextbookPath,
			Offset:      res.Offset,
			Pages:       res.Pages,
			PagesSource: res.PagesSource,
		}
		if res.CorrectedTopic != res.Topic {
			out.CorrectedTopic = res.CorrectedTopic
		}
		if resolveShowText {
			out.Text = res.CombinedText()
		}
		return cliout.Output(out)
	},
}

func init() {
	resolveCmd.Flags().StringVar(&resolvePages, "pages", "", "skip resolution, use these pages (e.g. 12-15 or 3,5,7)")
	resolveCmd.Flags().BoolVar(&resolveTextbook, "textbook", false, "also extract matching pages from the student textbook")
	resolveCmd.Flags().BoolVar(&resolveShowText, "text", false, "include the extracted lesson text in the output")
	resolveCmd.Flags().StringVar(&resolveGuidesDir, "guides-dir", "", "override the teacher-guide directory")
	resolveCmd.Flags().StringVar(&resolveTextbookDir, "textbook-dir", "", "override the student-textbook directory")
}
