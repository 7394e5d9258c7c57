// Package pipeline coordinates a full lesson-resolution run: locate the
// guide, load or build the structured ToC, detect the page offset, map the
// topic to physical pages and pull the lesson text. Each stage falls back
// to the next strategy on soft failure and the whole run is cancellable
// between stages.
package pipeline

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"sync/atomic"

	"github.com/google/uuid"

	"github.com/fichegen/fichegen/internal/guide"
	"github.com/fichegen/fichegen/internal/pdftext"
	"github.com/fichegen/fichegen/internal/prompts/correct_topic"
	"github.com/fichegen/fichegen/internal/prompts/find_pages"
	"github.com/fichegen/fichegen/internal/providers"
	"github.com/fichegen/fichegen/internal/toc"
)

// Page sources reported in Result.PagesSource.
const (
	SourceCacheStructured = "cache_structured"
	SourceDirectToc       = "direct_toc"
	SourceManualOverride  = "manual_override"
)

// Runner executes lesson-resolution runs. One Runner admits one active
// run at a time; a second concurrent Run returns a KindBusy error.
type Runner struct {
	Reader pdftext.PageReader
	Cache  *toc.Store
	Client providers.LLMClient

	Model          string
	FallbackModel  string
	EnableFallback bool
	CorrectTopics  bool

	// TocScanPages is how many front-matter pages feed the ToC parser.
	TocScanPages int
	// FallbackSpan is the assumed lesson length when the ToC has no end
	// boundary. Zero means the resolver default.
	FallbackSpan int

	Logger *slog.Logger
	Sink   Sink

	running atomic.Bool
}

// Request describes one lesson-resolution run.
type Request struct {
	ClassLevel string
	Topic      string

	// PagesOverride bypasses resolution entirely when non-empty.
	PagesOverride string

	GuidesDir   string
	TextbookDir string
	UseTextbook bool

	// PreviewSource asks the sink to show the extracted text.
	PreviewSource bool
}

// Run executes the pipeline for one request. Soft failures inside a stage
// fall through to the next strategy; errors returned here are terminal for
// the run and carry an ErrorKind. The process never crashes on a failed
// run: escaped panics are converted to a KindInternal error.
func (r *Runner) Run(ctx context.Context, req Request) (result *Result, err error) {
	if !r.running.CompareAndSwap(false, true) {
		return nil, &StageError{Kind: KindBusy, Stage: "init"}
	}
	defer r.running.Store(false)

	logger := r.logger()
	defer func() {
		if rec := recover(); rec != nil {
			logger.Error("critical worker error", "panic", rec)
			r.log("Erreur critique du processus.")
			result = nil
			err = &StageError{Kind: KindInternal, Stage: "run", Err: fmt.Errorf("panic: %v", rec)}
		}
	}()

	runID := uuid.NewString()
	logger = r.logger().With("run_id", runID, "class", req.ClassLevel, "topic", req.Topic)

	r.progress(10)
	r.log("Lancement du processus...")
	if err := r.checkpoint(ctx, "init"); err != nil {
		return nil, err
	}

	// FIND_GUIDE
	r.progress(20)
	guidePath, err := guide.FindGuide(req.GuidesDir, req.ClassLevel)
	if err != nil {
		logger.Warn("guide lookup failed", "err", err)
		r.log(fmt.Sprintf("Guide introuvable pour la classe %s.", req.ClassLevel))
		return nil, &StageError{Kind: KindGuideNotFound, Stage: "find_guide", Err: err}
	}
	r.log(fmt.Sprintf("Guide trouvé : %s", guidePath))
	if err := r.checkpoint(ctx, "find_guide"); err != nil {
		return nil, err
	}

	// LOAD_OR_BUILD_TOC
	r.progress(30)
	rawToc, entries, err := r.loadOrBuildToc(ctx, logger, guidePath)
	if err != nil {
		return nil, err
	}
	if err := r.checkpoint(ctx, "load_toc"); err != nil {
		return nil, err
	}

	topic := r.correctTopic(ctx, logger, req.Topic, entries)

	res := &Result{
		RunID:          runID,
		GuidePath:      guidePath,
		Topic:          req.Topic,
		CorrectedTopic: topic,
	}

	// RESOLVE pages: manual override, structured ToC, then direct AI.
	if override := strings.TrimSpace(req.PagesOverride); override != "" {
		r.log(fmt.Sprintf("Pages choisies manuellement : %s", override))
		pages, err := toc.ParsePageList(override)
		if err != nil {
			logger.Warn("manual pages override unparseable", "override", override, "err", err)
			return nil, &StageError{Kind: KindNoPages, Stage: "parse_override", Err: err}
		}
		res.Pages = pages
		res.PagesSource = SourceManualOverride
		r.progress(60)
	} else {
		if err := r.resolvePages(ctx, logger, guidePath, rawToc, entries, topic, res); err != nil {
			return nil, err
		}
	}

	if err := r.checkpoint(ctx, "parse_pages"); err != nil {
		return nil, err
	}

	// EXTRACT_TEXT
	r.progress(75)
	lessonText, err := pdftext.ExtractRange(ctx, r.Reader, logger, guidePath, res.Pages)
	if err != nil {
		if ctx.Err() != nil {
			r.log("Annulé pendant l'extraction.")
			return nil, &StageError{Kind: KindCancelled, Stage: "extract_text", Err: ctx.Err()}
		}
		return nil, &StageError{Kind: KindNoText, Stage: "extract_text", Err: err}
	}
	if strings.TrimSpace(lessonText) == "" {
		r.log("Aucun texte extrait pour ces pages.")
		return nil, &StageError{Kind: KindNoText, Stage: "extract_text"}
	}
	res.LessonText = lessonText
	r.log("Texte de la leçon extrait.")

	if req.UseTextbook {
		r.extractTextbook(ctx, logger, req, res)
	}
	if err := r.checkpoint(ctx, "extract_text"); err != nil {
		return nil, err
	}

	if req.PreviewSource {
		r.publish(PreviewRequestEvent{Text: res.CombinedText()})
	}

	r.progress(100)
	logger.Info("run complete",
		"pages", res.Pages, "source", res.PagesSource, "offset", res.Offset)
	return res, nil
}

// loadOrBuildToc extracts the raw front-matter text and returns it with
// the structured ToC, from cache when fresh, otherwise AI-parsed and
// persisted best-effort. A nil entry list is a soft condition (the direct
// lookup can still run); missing raw text is terminal.
func (r *Runner) loadOrBuildToc(ctx context.Context, logger *slog.Logger, guidePath string) (string, []toc.Entry, error) {
	scan := r.TocScanPages
	if scan <= 0 {
		scan = pdftext.DefaultFrontMatterPages
	}
	rawToc, err := pdftext.ExtractFrontMatter(ctx, r.Reader, guidePath, scan)
	if err != nil || strings.TrimSpace(rawToc) == "" {
		if ctx.Err() != nil {
			return "", nil, &StageError{Kind: KindCancelled, Stage: "extract_toc", Err: ctx.Err()}
		}
		logger.Warn("front matter extraction failed", "err", err)
		r.log("Impossible d'extraire le sommaire du guide.")
		return "", nil, &StageError{Kind: KindNoTocText, Stage: "extract_toc", Err: err}
	}

	entries := r.Cache.Load(guidePath)
	if entries != nil {
		r.log("Sommaire structuré chargé depuis le cache.")
		return rawToc, entries, nil
	}

	r.log("Pas de cache de sommaire, analyse par IA...")
	parser := &toc.Parser{
		Client:         r.Client,
		Model:          r.Model,
		FallbackModel:  r.FallbackModel,
		EnableFallback: r.EnableFallback,
		Logger:         logger,
	}
	entries, err = parser.Parse(ctx, rawToc)
	if err != nil {
		logger.Warn("AI ToC parse failed", "err", err)
		r.log("Analyse IA du sommaire impossible, passage en mode direct.")
		return rawToc, nil, nil
	}

	if !r.Cache.Save(guidePath, entries) {
		// Not fatal, the next run re-parses.
		r.log("Échec de l'écriture du cache de sommaire.")
	}
	return rawToc, entries, nil
}

// correctTopic runs the optional AI spelling pass over the user topic,
// constrained by the structured ToC when available. Any failure keeps the
// raw topic.
func (r *Runner) correctTopic(ctx context.Context, logger *slog.Logger, topic string, entries []toc.Entry) string {
	if !r.CorrectTopics || r.Client == nil {
		return topic
	}

	tocJSON := ""
	if len(entries) > 0 {
		if b, err := json.Marshal(entries); err == nil {
			tocJSON = string(b)
		}
	}

	result, err := providers.GenerateWithFallback(ctx, r.Client, logger, r.Model,
		correct_topic.BuildUserPrompt(topic, tocJSON), providers.GenerateOptions{
			Temperature:    0.0,
			Purpose:        "topic-correction",
			EnableFallback: r.EnableFallback,
			FallbackModel:  r.FallbackModel,
		})
	if err != nil {
		logger.Warn("topic correction failed, keeping raw topic", "err", err)
		return topic
	}

	corrected := strings.TrimSpace(result.Content)
	if corrected == "" || strings.Count(corrected, "\n") > 0 {
		return topic
	}
	if corrected != topic {
		r.log(fmt.Sprintf("Sujet corrigé : %s", corrected))
	}
	return corrected
}

// resolvePages fills res.Pages from the structured ToC when possible,
// otherwise from a direct model lookup over the raw front-matter text.
// The detected offset applies only to structured resolution; the direct
// lookup saw physical text, so its pages are taken as already physical.
func (r *Runner) resolvePages(ctx context.Context, logger *slog.Logger, guidePath, rawToc string, entries []toc.Entry, topic string, res *Result) error {
	scan := r.TocScanPages
	if scan <= 0 {
		scan = pdftext.DefaultFrontMatterPages
	}
	detector := &toc.Detector{
		Reader:         r.Reader,
		Logger:         logger,
		ScanStartPages: scan,
		Client:         r.Client,
		Model:          r.Model,
		FallbackModel:  r.FallbackModel,
		EnableFallback: r.EnableFallback,
	}
	res.Offset = detector.Detect(ctx, guidePath)
	if err := r.checkpoint(ctx, "detect_offset"); err != nil {
		return err
	}

	pagesStr := ""
	if len(entries) > 0 {
		r.log("Recherche dans le sommaire structuré...")
		resolver := &toc.Resolver{FallbackSpan: r.FallbackSpan, Logger: logger}
		if pr, ok := resolver.Resolve(entries, topic, res.Offset); ok {
			pagesStr = pr
			res.PagesSource = SourceCacheStructured
		}
	}

	if pagesStr == "" {
		r.progress(50)
		r.log("Recherche directe des pages par IA...")
		pr, err := r.directLookup(ctx, logger, topic, rawToc)
		if err != nil {
			logger.Warn("direct page lookup failed", "err", err)
			r.log(fmt.Sprintf("Pages introuvables pour « %s ».", topic))
			return &StageError{Kind: KindNoPages, Stage: "direct_lookup", Err: err}
		}
		if err := r.checkpoint(ctx, "direct_lookup"); err != nil {
			return err
		}
		pagesStr = pr
		res.PagesSource = SourceDirectToc
	}

	r.progress(60)
	pages, err := toc.ParsePageList(pagesStr)
	if err != nil {
		r.log(fmt.Sprintf("Impossible d'interpréter « %s » comme des pages.", pagesStr))
		return &StageError{Kind: KindNoPages, Stage: "parse_pages", Err: err}
	}
	res.Pages = pages
	r.log(fmt.Sprintf("Pages résolues : %v (source %s)", pages, res.PagesSource))
	return nil
}

// directLookup hands the raw front-matter text to the model and asks for
// a page or page-range string for the topic.
func (r *Runner) directLookup(ctx context.Context, logger *slog.Logger, topic, rawToc string) (string, error) {
	if r.Client == nil {
		return "", fmt.Errorf("no model client configured for direct page lookup")
	}
	result, err := providers.GenerateWithFallback(ctx, r.Client, logger, r.Model,
		find_pages.BuildUserPrompt(topic, rawToc), providers.GenerateOptions{
			Temperature:    0.0,
			Purpose:        "page-finding",
			EnableFallback: r.EnableFallback,
			FallbackModel:  r.FallbackModel,
		})
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(result.Content), nil
}

// extractTextbook pulls the same page list from the optional student
// textbook. Every failure here is soft; the guide text already suffices.
func (r *Runner) extractTextbook(ctx context.Context, logger *slog.Logger, req Request, res *Result) {
	path, ok := guide.FindTextbook(req.TextbookDir, req.ClassLevel)
	if !ok {
		r.log("Aucun manuel élève trouvé.")
		return
	}
	r.log("Extraction du contexte depuis le manuel élève...")
	text, err := pdftext.ExtractRange(ctx, r.Reader, logger, path, res.Pages)
	if err != nil || strings.TrimSpace(text) == "" {
		logger.Warn("textbook extraction failed", "path", path, "err", err)
		r.log("Contenu du manuel élève inexploitable.")
		return
	}
	res.TextbookPath = path
	res.TextbookText = text
	r.log("Contenus du guide et du manuel élève combinés.")
}

// CombinedText returns the lesson text with the textbook context appended
// when one was extracted.
func (res *Result) CombinedText() string {
	if res.TextbookText == "" {
		return res.LessonText
	}
	return res.LessonText + "\n\n=== CONTEXTE SUPPLÉMENTAIRE DU MANUEL ÉLÈVE ===\n\n" + res.TextbookText
}

// checkpoint observes cooperative cancellation between stages. In-flight
// calls are never interrupted; their results are discarded here.
func (r *Runner) checkpoint(ctx context.Context, stage string) error {
	select {
	case <-ctx.Done():
		r.log(fmt.Sprintf("Annulé (étape %s).", stage))
		return &StageError{Kind: KindCancelled, Stage: stage, Err: ctx.Err()}
	default:
		return nil
	}
}

func (r *Runner) logger() *slog.Logger {
	if r.Logger != nil {
		return r.Logger
	}
	return slog.Default()
}

func (r *Runner) publish(e Event) {
	if r.Sink != nil {
		r.Sink.Publish(e)
	}
}

func (r *Runner) log(text string) { r.publish(LogEvent{Text: text}) }

func (r *Runner) progress(pct int) { r.publish(ProgressEvent{Percent: pct}) }
