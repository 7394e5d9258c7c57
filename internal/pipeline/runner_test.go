package pipeline

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/fichegen/fichegen/internal/providers"
	"github.com/fichegen/fichegen/internal/toc"
)

// guideReader simulates a scanned guide: ToC text on page 1, printed page
// numbers in the footer shifted by a constant offset, prose everywhere.
type guideReader struct {
	total   int
	offset  int
	tocText string

	mu    sync.Mutex
	reads []int
}

func (g *guideReader) PageCount(path string) (int, error) {
	return g.total, nil
}

func (g *guideReader) ExtractPage(path string, pageNum int) (string, error) {
	g.mu.Lock()
	g.reads = append(g.reads, pageNum)
	g.mu.Unlock()

	if pageNum == 1 {
		return g.tocText, nil
	}
	return fmt.Sprintf("Contenu de la page %d du guide.", pageNum), nil
}

func (g *guideReader) ExtractHeaderFooter(path string, pageNum int, frac float64) (string, error) {
	printed := pageNum - g.offset
	if printed < 1 {
		return "", nil
	}
	return fmt.Sprintf("Sciences CE2\n%d", printed), nil
}

func (g *guideReader) bodyReads() []int {
	g.mu.Lock()
	defer g.mu.Unlock()
	var body []int
	for _, p := range g.reads {
		if p > 5 {
			body = append(body, p)
		}
	}
	return body
}

// scriptedClient returns canned responses in call order.
type scriptedClient struct {
	mu        sync.Mutex
	responses []string
	calls     int
}

func (c *scriptedClient) Name() string { return "scripted" }

func (c *scriptedClient) Chat(ctx context.Context, req *providers.ChatRequest) (*providers.ChatResult, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.calls >= len(c.responses) {
		return nil, fmt.Errorf("unexpected model call %d", c.calls)
	}
	text := c.responses[c.calls]
	c.calls++
	if text == "" {
		return nil, fmt.Errorf("scripted failure")
	}
	return &providers.ChatResult{Content: text, Success: true, ModelUsed: req.Model}, nil
}

func guidesDirWith(t *testing.T, name string) string {
	t.Helper()
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, name), []byte("%PDF-1.4"), 0o644); err != nil {
		t.Fatal(err)
	}
	return dir
}

const cycleTocText = "Sommaire\nLe cycle de l'eau ............ 42\nLes volcans ............ 48\n"

func newTestRunner(reader *guideReader, client providers.LLMClient, cacheRoot string) *Runner {
	return &Runner{
		Reader:       reader,
		Cache:        toc.NewStore(cacheRoot, nil),
		Client:       client,
		Model:        "gemini-2.5-pro",
		TocScanPages: 5,
		Sink:         NopSink,
	}
}

// Full happy path: no cache, AI parses the ToC, the footer numbers give a
// +2 offset, and the structured resolver maps the topic to physical pages.
func TestRun_StructuredResolution(t *testing.T) {
	reader := &guideReader{total: 60, offset: 2, tocText: cycleTocText}
	client := providers.NewMockClient()
	client.ResponseText = `[{"topic": "Le cycle de l'eau", "page": 42}, {"topic": "Les volcans", "page": 48}]`

	dir := guidesDirWith(t, "guide_pedagogique_ce2.pdf")
	r := newTestRunner(reader, client, t.TempDir())
	res, err := r.Run(context.Background(), Request{
		ClassLevel: "ce2",
		Topic:      "cycle de l'eau",
		GuidesDir:  dir,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if res.Offset != 2 {
		t.Errorf("expected offset 2, got %d", res.Offset)
	}
	if res.PagesSource != SourceCacheStructured {
		t.Errorf("expected source %s, got %s", SourceCacheStructured, res.PagesSource)
	}
	// The next entry starts at printed 48, so the topic covers logical
	// 42-47; the +2 offset shifts those to physical 44-49.
	want := []int{44, 45, 46, 47, 48, 49}
	if len(res.Pages) != len(want) {
		t.Fatalf("expected pages %v, got %v", want, res.Pages)
	}
	for i, p := range want {
		if res.Pages[i] != p {
			t.Fatalf("expected pages %v, got %v", want, res.Pages)
		}
	}
	if res.LessonText == "" {
		t.Error("expected extracted lesson text")
	}

	// The parse result must now be cached: a second run issues no model
	// calls at all.
	before := client.RequestCount()
	if _, err := r.Run(context.Background(), Request{
		ClassLevel: "ce2",
		Topic:      "cycle de l'eau",
		GuidesDir:  dir,
	}); err != nil {
		t.Fatalf("unexpected error on cached run: %v", err)
	}
	if client.RequestCount() != before {
		t.Errorf("expected no model calls on cached run, got %d more", client.RequestCount()-before)
	}
}

// When the AI ToC parse fails, the run falls back to the direct lookup,
// whose pages are taken as physical: the detected offset is NOT applied.
func TestRun_DirectLookupNoOffset(t *testing.T) {
	reader := &guideReader{total: 60, offset: 2, tocText: cycleTocText}
	client := &scriptedClient{responses: []string{
		"glossaire des notions", // ToC parse: not a JSON array
		"40-43",                 // direct page lookup
	}}

	r := newTestRunner(reader, client, t.TempDir())
	res, err := r.Run(context.Background(), Request{
		ClassLevel: "ce2",
		Topic:      "cycle de l'eau",
		GuidesDir:  guidesDirWith(t, "guide_pedagogique_ce2.pdf"),
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if res.PagesSource != SourceDirectToc {
		t.Errorf("expected source %s, got %s", SourceDirectToc, res.PagesSource)
	}
	if res.Offset != 2 {
		t.Errorf("expected detected offset 2, got %d", res.Offset)
	}
	want := []int{40, 41, 42, 43}
	for i, p := range want {
		if i >= len(res.Pages) || res.Pages[i] != p {
			t.Fatalf("expected unshifted pages %v, got %v", want, res.Pages)
		}
	}
}

func TestRun_PagesOverride(t *testing.T) {
	reader := &guideReader{total: 60, tocText: cycleTocText}

	r := newTestRunner(reader, nil, t.TempDir())
	res, err := r.Run(context.Background(), Request{
		ClassLevel:    "ce2",
		Topic:         "peu importe",
		PagesOverride: "12-13",
		GuidesDir:     guidesDirWith(t, "guide_pedagogique_ce2.pdf"),
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if res.PagesSource != SourceManualOverride {
		t.Errorf("expected source %s, got %s", SourceManualOverride, res.PagesSource)
	}
	if len(res.Pages) != 2 || res.Pages[0] != 12 || res.Pages[1] != 13 {
		t.Errorf("expected pages [12 13], got %v", res.Pages)
	}
	if res.Offset != 0 {
		t.Errorf("expected no offset detection with manual pages, got %d", res.Offset)
	}
}

func TestRun_TopicCorrection(t *testing.T) {
	reader := &guideReader{total: 60, offset: 2, tocText: cycleTocText}
	client := &scriptedClient{responses: []string{
		`[{"topic": "Le cycle de l'eau", "page": 42}, {"topic": "Les volcans", "page": 48}]`,
		"Le cycle de l'eau", // corrected spelling of the garbled topic
	}}

	r := newTestRunner(reader, client, t.TempDir())
	r.CorrectTopics = true
	res, err := r.Run(context.Background(), Request{
		ClassLevel: "ce2",
		Topic:      "sicle de lo",
		GuidesDir:  guidesDirWith(t, "guide_pedagogique_ce2.pdf"),
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if res.CorrectedTopic != "Le cycle de l'eau" {
		t.Errorf("expected corrected topic, got %q", res.CorrectedTopic)
	}
	if res.PagesSource != SourceCacheStructured {
		t.Errorf("expected structured resolution of the corrected topic, got %s", res.PagesSource)
	}
}

func TestRun_GuideNotFound(t *testing.T) {
	reader := &guideReader{total: 60, tocText: cycleTocText}
	r := newTestRunner(reader, nil, t.TempDir())

	_, err := r.Run(context.Background(), Request{
		ClassLevel: "cp",
		Topic:      "cycle de l'eau",
		GuidesDir:  t.TempDir(),
	})
	if err == nil {
		t.Fatal("expected error for missing guide")
	}
	if KindOf(err) != KindGuideNotFound {
		t.Errorf("expected KindGuideNotFound, got %s", KindOf(err))
	}
}

func TestRun_NoPagesAnywhere(t *testing.T) {
	reader := &guideReader{total: 60, tocText: cycleTocText}
	client := &scriptedClient{responses: []string{
		"rien", // ToC parse fails
		"",     // direct lookup fails too
	}}

	r := newTestRunner(reader, client, t.TempDir())
	_, err := r.Run(context.Background(), Request{
		ClassLevel: "ce2",
		Topic:      "la photosynthèse",
		GuidesDir:  guidesDirWith(t, "guide_pedagogique_ce2.pdf"),
	})
	if err == nil {
		t.Fatal("expected error when no strategy yields pages")
	}
	if KindOf(err) != KindNoPages {
		t.Errorf("expected KindNoPages, got %s", KindOf(err))
	}
}

// Cancelling before the text-extraction stage must stop the run without
// reading any lesson pages.
func TestRun_CancelBeforeExtract(t *testing.T) {
	reader := &guideReader{total: 60, offset: 2, tocText: cycleTocText}
	client := providers.NewMockClient()
	client.ResponseText = `[{"topic": "Le cycle de l'eau", "page": 42}]`

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	r := newTestRunner(reader, client, t.TempDir())
	r.Sink = SinkFunc(func(e Event) {
		if p, ok := e.(ProgressEvent); ok && p.Percent == 75 {
			cancel()
		}
	})

	res, err := r.Run(ctx, Request{
		ClassLevel: "ce2",
		Topic:      "cycle de l'eau",
		GuidesDir:  guidesDirWith(t, "guide_pedagogique_ce2.pdf"),
	})
	if err == nil {
		t.Fatalf("expected cancellation error, got result %+v", res)
	}
	if KindOf(err) != KindCancelled {
		t.Errorf("expected KindCancelled, got %s", KindOf(err))
	}
	for _, p := range reader.bodyReads() {
		if p >= 44 {
			t.Errorf("lesson page %d was read after cancellation", p)
		}
	}
}

func TestRun_ReentrancyGuard(t *testing.T) {
	reader := &guideReader{total: 60, tocText: cycleTocText}
	r := newTestRunner(reader, nil, t.TempDir())
	r.running.Store(true)

	_, err := r.Run(context.Background(), Request{
		ClassLevel: "ce2",
		Topic:      "cycle de l'eau",
		GuidesDir:  guidesDirWith(t, "guide_pedagogique_ce2.pdf"),
	})
	if KindOf(err) != KindBusy {
		t.Errorf("expected KindBusy while a run is active, got %v", err)
	}
}

func TestRun_TextbookContext(t *testing.T) {
	reader := &guideReader{total: 60, tocText: cycleTocText}
	dir := guidesDirWith(t, "guide_pedagogique_ce2.pdf")
	textbookDir := guidesDirWith(t, "manuel_ce2.pdf")

	r := newTestRunner(reader, nil, t.TempDir())
	res, err := r.Run(context.Background(), Request{
		ClassLevel:    "ce2",
		Topic:         "peu importe",
		PagesOverride: "12",
		GuidesDir:     dir,
		TextbookDir:   textbookDir,
		UseTextbook:   true,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.TextbookPath == "" || res.TextbookText == "" {
		t.Error("expected textbook context to be extracted")
	}
	combined := res.CombinedText()
	if combined == res.LessonText {
		t.Error("expected combined text to include the textbook section")
	}
}
