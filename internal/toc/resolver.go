package toc

import (
	"fmt"
	"log/slog"
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// DefaultFallbackSpan is the assumed lesson length, in pages, when the ToC
// gives no end boundary. Most primary-school lessons span about four pages.
const DefaultFallbackSpan = 3

// significantWordLen is the minimum length (in runes, after folding) for a
// word to count in fuzzy matching. Shorter French words are articles and
// prepositions.
const significantWordLen = 4

// Resolver maps a lesson topic onto a physical page range using a
// structured ToC and a detected page offset.
type Resolver struct {
	// FallbackSpan replaces the span when the ToC lacks a clear end
	// boundary. Zero means DefaultFallbackSpan.
	FallbackSpan int
	Logger       *slog.Logger
}

// Resolve finds the best ToC entry for the topic and derives a physical
// page range string ("44-47"). Returns false when no entry matches or the
// matched entry carries an unusable page number; the caller then falls back
// to the direct AI lookup.
func (r *Resolver) Resolve(entries []Entry, lessonTopic string, offset int) (string, bool) {
	logger := r.Logger
	if logger == nil {
		logger = slog.Default()
	}
	span := r.FallbackSpan
	if span <= 0 {
		span = DefaultFallbackSpan
	}

	idx, ok := matchEntry(entries, lessonTopic, logger)
	if !ok {
		logger.Info("topic not found in cached ToC", "topic", lessonTopic)
		return "", false
	}

	entry := entries[idx]
	logicalStart := entry.Page
	if logicalStart < 1 {
		logger.Warn("matched ToC entry has an invalid page number", "topic", entry.Topic, "page", entry.Page)
		return "", false
	}

	// The next entry's start bounds this lesson's end.
	logicalEnd := 0
	if idx+1 < len(entries) {
		if next := entries[idx+1].Page; next > logicalStart {
			logicalEnd = next - 1
		}
	}
	if logicalEnd == 0 {
		logicalEnd = logicalStart + span
		logger.Info("no end boundary in ToC, assuming fixed span",
			"topic", entry.Topic, "range", fmt.Sprintf("%d-%d", logicalStart, logicalEnd))
	}

	physicalStart := logicalStart + offset
	physicalEnd := logicalEnd + offset
	if physicalStart < 1 {
		logger.Warn("computed start before page 1 after offset, clamping", "start", physicalStart)
		physicalStart = 1
	}
	if physicalEnd <= physicalStart {
		// Non-monotonic printed numbers around this entry (per-chapter
		// numbering resets); fall back to the fixed span.
		physicalEnd = physicalStart + span
		logger.Warn("ToC pages non-monotonic after offset, assuming fixed span",
			"topic", entry.Topic, "range", fmt.Sprintf("%d-%d", physicalStart, physicalEnd))
	}

	logger.Info("resolved topic from cached ToC",
		"topic", lessonTopic,
		"entry", entry.Topic,
		"offset", offset,
		"pages", fmt.Sprintf("%d-%d", physicalStart, physicalEnd))

	return FormatRange(physicalStart, physicalEnd), true
}

// FormatRange renders a physical page range as "start-end", or "start"
// when the range is a single page.
func FormatRange(start, end int) string {
	if start == end {
		return fmt.Sprintf("%d", start)
	}
	return fmt.Sprintf("%d-%d", start, end)
}

// matchEntry finds the entry for a topic: first a case/diacritic-insensitive
// substring match in document order, then the fuzzy significant-word overlap.
func matchEntry(entries []Entry, lessonTopic string, logger *slog.Logger) (int, bool) {
	topic := Normalize(lessonTopic)
	if topic == "" {
		return 0, false
	}

	for i, entry := range entries {
		entryTopic := Normalize(entry.Topic)
		if entryTopic == "" {
			continue
		}
		if strings.Contains(entryTopic, topic) || strings.Contains(topic, entryTopic) {
			return i, true
		}
	}

	queryWords := significantWords(topic)
	if len(queryWords) == 0 {
		return 0, false
	}

	bestIdx := -1
	bestCount := 0
	for i, entry := range entries {
		count := 0
		for w := range significantWords(Normalize(entry.Topic)) {
			if queryWords[w] {
				count++
			}
		}
		// Strictly greater keeps the first entry on ties.
		if count > bestCount {
			bestCount = count
			bestIdx = i
		}
	}

	if bestIdx < 0 {
		return 0, false
	}

	logger.Info("fuzzy matched topic with ToC entry",
		"topic", lessonTopic, "entry", entries[bestIdx].Topic, "shared_words", bestCount)
	return bestIdx, true
}

// Normalize lowercases, strips diacritics, and collapses punctuation to
// single spaces. Both the user topic and ToC entries pass through this
// before matching, so "revolution francaise" meets "Révolution française".
func Normalize(s string) string {
	fold := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	folded, _, err := transform.String(fold, s)
	if err != nil {
		folded = s
	}
	folded = strings.ToLower(folded)

	var b strings.Builder
	b.Grow(len(folded))
	for _, r := range folded {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
		} else {
			b.WriteRune(' ')
		}
	}
	return strings.Join(strings.Fields(b.String()), " ")
}

// significantWords returns the set of words long enough to be meaningful
// for fuzzy matching.
func significantWords(normalized string) map[string]bool {
	words := make(map[string]bool)
	for _, w := range strings.Fields(normalized) {
		if utf8.RuneCountInString(w) >= significantWordLen {
			words[w] = true
		}
	}
	return words
}
