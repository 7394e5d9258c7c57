package pdftext

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
)

// DefaultFrontMatterPages is how many leading pages are assumed to hold
// the table of contents when no scan depth is configured.
const DefaultFrontMatterPages = 5

// ExtractRange pulls the text of the listed physical pages and concatenates
// them with per-page markers. Out-of-bounds pages are skipped with a warning;
// unreadable pages are skipped the same way so one bad page never loses the
// rest of the lesson. The context is checked before each page read.
func ExtractRange(ctx context.Context, reader PageReader, logger *slog.Logger, path string, pages []int) (string, error) {
	if logger == nil {
		logger = slog.Default()
	}

	total, err := reader.PageCount(path)
	if err != nil {
		return "", err
	}

	var b strings.Builder
	for _, pageNum := range pages {
		if err := ctx.Err(); err != nil {
			return "", err
		}

		if pageNum < 1 || pageNum > total {
			logger.Warn("page out of bounds, skipping", "page", pageNum, "total", total, "path", path)
			continue
		}

		text, err := reader.ExtractPage(path, pageNum)
		if err != nil {
			logger.Warn("failed to extract page, skipping", "page", pageNum, "error", err)
			continue
		}
		if text == "" {
			continue
		}

		fmt.Fprintf(&b, "\n\n--- TEXT FROM PAGE %d ---\n\n%s", pageNum, text)
	}

	return b.String(), nil
}

// ExtractFrontMatter concatenates the text of the first n pages, the region
// where primary-school guides print their table of contents.
func ExtractFrontMatter(ctx context.Context, reader PageReader, path string, n int) (string, error) {
	total, err := reader.PageCount(path)
	if err != nil {
		return "", err
	}
	if n > total {
		n = total
	}

	var b strings.Builder
	for pageNum := 1; pageNum <= n; pageNum++ {
		if err := ctx.Err(); err != nil {
			return "", err
		}

		text, err := reader.ExtractPage(path, pageNum)
		if err != nil {
			// Front matter pages are often image-only; keep going.
			continue
		}
		if text != "" {
			b.WriteString(text)
			b.WriteString("\n\n")
		}
	}

	return b.String(), nil
}
