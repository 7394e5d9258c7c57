package toc

import (
	"context"
	"log/slog"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/fichegen/fichegen/internal/pdftext"
	"github.com/fichegen/fichegen/internal/prompts/detect_offset"
	"github.com/fichegen/fichegen/internal/providers"
)

const (
	// offsetScanWindow is how many pages after the front matter are
	// inspected for printed page numbers.
	offsetScanWindow = 15

	// headerFooterFrac restricts scanning to the top and bottom 12% of
	// the page geometry where page numbers live.
	headerFooterFrac = 0.12

	// maxPrintedPage rejects absurd candidates (years, ISBNs).
	maxPrintedPage = 2000

	// minOffset/maxOffset bound a plausible physical-minus-printed delta.
	minOffset = -50
	maxOffset = 200

	aiSamplePages = 5
	aiSampleChars = 800
)

var (
	explicitArabicRe = regexp.MustCompile(`(?i)\b(?:page|p\.?|pag\.)\s*([0-9]{1,4})\b`)
	explicitRomanRe  = regexp.MustCompile(`(?i)\b(?:page|p\.?|pag\.)\s*([ivxlcdm]{1,7})\b`)
	bareArabicRe     = regexp.MustCompile(`^[0-9]{1,4}$`)
	bareRomanRe      = regexp.MustCompile(`(?i)^[ivxlcdm]{1,4}$`)
)

// Detector infers the constant delta between a PDF's physical page indices
// and the page numbers printed on its pages.
type Detector struct {
	Reader pdftext.PageReader
	Logger *slog.Logger

	// ScanStartPages is the assumed front-matter length; scanning begins
	// right after it.
	ScanStartPages int

	// Client enables the AI fallback when the heuristic finds nothing.
	// Nil means the fallback is skipped.
	Client         providers.LLMClient
	Model          string
	FallbackModel  string
	EnableFallback bool
}

// Detect returns the page offset for a guide. It never fails: every error
// path degrades to an offset of 0, with the reasoning logged.
func (d *Detector) Detect(ctx context.Context, pdfPath string) int {
	logger := d.Logger
	if logger == nil {
		logger = slog.Default()
	}

	total, err := d.Reader.PageCount(pdfPath)
	if err != nil || total == 0 {
		logger.Warn("could not count pages for offset detection, assuming no offset", "path", pdfPath, "error", err)
		return 0
	}

	startPage := d.ScanStartPages + 1
	if startPage > total {
		startPage = total
	}
	endPage := startPage + offsetScanWindow - 1
	if endPage > total {
		endPage = total
	}

	deltaCounts := make(map[int]int)
	hits := 0

	for pageNum := startPage; pageNum <= endPage; pageNum++ {
		text, err := d.Reader.ExtractHeaderFooter(pdfPath, pageNum, headerFooterFrac)
		if err != nil {
			// One malformed page must not abort detection.
			continue
		}
		if strings.TrimSpace(text) == "" {
			continue
		}

		for _, printed := range printedNumberCandidates(text) {
			delta := pageNum - printed
			if delta < minOffset || delta > maxOffset {
				continue
			}
			deltaCounts[delta]++
			hits++
		}
	}

	if delta, ok := chooseDelta(deltaCounts); ok {
		logger.Info("detected page offset by heuristic", "offset", delta, "hits", hits)
		return delta
	}

	if d.Client == nil {
		logger.Info("no clear page labels found, assuming no offset")
		return 0
	}

	return d.detectWithAI(ctx, logger, pdfPath, startPage, total)
}

// printedNumberCandidates extracts plausible printed page numbers from
// header/footer text: explicit "page N" / "p. N" forms (arabic or roman)
// plus short isolated lines that are nothing but a number.
func printedNumberCandidates(text string) []int {
	var candidates []int

	add := func(n int) {
		if n > 0 && n < maxPrintedPage {
			candidates = append(candidates, n)
		}
	}

	for _, m := range explicitArabicRe.FindAllStringSubmatch(text, -1) {
		if n, err := strconv.Atoi(m[1]); err == nil {
			add(n)
		}
	}
	for _, m := range explicitRomanRe.FindAllStringSubmatch(text, -1) {
		add(romanToInt(m[1]))
	}

	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if len(line) < 1 || len(line) > 4 {
			continue
		}
		if bareArabicRe.MatchString(line) {
			if n, err := strconv.Atoi(line); err == nil {
				add(n)
			}
		} else if bareRomanRe.MatchString(line) {
			add(romanToInt(line))
		}
	}

	return candidates
}

// chooseDelta picks the most frequent delta; ties prefer the smallest
// absolute value. Returns false when there are no candidates.
func chooseDelta(counts map[int]int) (int, bool) {
	if len(counts) == 0 {
		return 0, false
	}

	deltas := make([]int, 0, len(counts))
	for d := range counts {
		deltas = append(deltas, d)
	}
	sort.Ints(deltas)

	best := deltas[0]
	bestCount := counts[best]
	for _, d := range deltas[1:] {
		c := counts[d]
		if c > bestCount || (c == bestCount && abs(d) < abs(best)) {
			best = d
			bestCount = c
		}
	}
	return best, true
}

func (d *Detector) detectWithAI(ctx context.Context, logger *slog.Logger, pdfPath string, startPage, total int) int {
	var samples []detect_offset.PageSample
	for pageNum := startPage; pageNum < startPage+aiSamplePages && pageNum <= total; pageNum++ {
		text, err := d.Reader.ExtractPage(pdfPath, pageNum)
		if err != nil {
			continue
		}
		text = strings.TrimSpace(text)
		if text == "" {
			continue
		}
		if len(text) > aiSampleChars {
			text = text[:aiSampleChars]
		}
		samples = append(samples, detect_offset.PageSample{PDFPageNumber: pageNum, Text: text})
	}

	if len(samples) == 0 {
		logger.Info("no content pages found for offset detection, assuming no offset")
		return 0
	}

	prompt := detect_offset.BuildUserPrompt(samples)
	result, err := providers.GenerateWithFallback(ctx, d.Client, logger, d.Model, prompt, providers.GenerateOptions{
		Temperature:    0.0,
		Purpose:        "offset-detection",
		EnableFallback: d.EnableFallback,
		FallbackModel:  d.FallbackModel,
	})
	if err != nil {
		logger.Warn("AI offset detection failed, assuming no offset", "error", err)
		return 0
	}

	offset, err := strconv.Atoi(strings.TrimSpace(result.Content))
	if err != nil {
		logger.Warn("AI returned non-numeric offset, assuming no offset", "response", result.Content)
		return 0
	}
	if offset < minOffset || offset > maxOffset {
		logger.Warn("AI returned unreasonable offset, assuming no offset", "offset", offset)
		return 0
	}

	logger.Info("AI detected page offset", "offset", offset)
	return offset
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}
