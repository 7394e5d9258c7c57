// Package pdftext extracts embedded text from PDF pages.
//
// It uses ledongthuc/pdf for the text layer and pdfcpu for page counting.
// Scanned guides frequently contain malformed objects, so every per-page
// operation tolerates panics from the parser and reports them as errors.
package pdftext

import (
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/ledongthuc/pdf"
	"github.com/pdfcpu/pdfcpu/pkg/api"
)

// PageReader provides page-level access to a PDF's text layer.
// Page numbers are 1-based physical indices.
type PageReader interface {
	// PageCount returns the number of physical pages.
	PageCount(path string) (int, error)

	// ExtractPage returns the full text of one page.
	ExtractPage(path string, pageNum int) (string, error)

	// ExtractHeaderFooter returns text restricted to the top and bottom
	// frac (e.g. 0.12) of the page geometry, falling back to the full
	// page when both regions are empty.
	ExtractHeaderFooter(path string, pageNum int, frac float64) (string, error)
}

// Reader is the production PageReader.
type Reader struct{}

// NewReader creates a Reader.
func NewReader() *Reader {
	return &Reader{}
}

// PageCount returns the number of physical pages in the PDF.
func (r *Reader) PageCount(path string) (int, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, fmt.Errorf("failed to open PDF %s: %w", path, err)
	}
	defer f.Close()

	count, err := api.PageCount(f, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to get page count for %s: %w", path, err)
	}
	return count, nil
}

// ExtractPage returns the full text of the given page.
func (r *Reader) ExtractPage(path string, pageNum int) (text string, err error) {
	defer recoverToError(&err, path, pageNum)

	f, doc, err := pdf.Open(path)
	if err != nil {
		return "", fmt.Errorf("failed to open PDF %s: %w", path, err)
	}
	defer f.Close()

	if pageNum < 1 || pageNum > doc.NumPage() {
		return "", fmt.Errorf("page %d out of bounds (1-%d)", pageNum, doc.NumPage())
	}

	page := doc.Page(pageNum)
	if page.V.IsNull() {
		return "", fmt.Errorf("page %d is missing", pageNum)
	}

	// Rebuild line structure from positioned text; GetPlainText drops
	// newlines, which downstream heuristics depend on.
	content := page.Content()
	if len(content.Text) > 0 {
		return joinRows(content.Text), nil
	}

	plain, err := page.GetPlainText(nil)
	if err != nil {
		return "", fmt.Errorf("failed to extract text from page %d: %w", pageNum, err)
	}
	return plain, nil
}

// ExtractHeaderFooter returns text from the top and bottom frac of the page.
// When both regions are empty it falls back to the full page text.
func (r *Reader) ExtractHeaderFooter(path string, pageNum int, frac float64) (text string, err error) {
	defer recoverToError(&err, path, pageNum)

	f, doc, err := pdf.Open(path)
	if err != nil {
		return "", fmt.Errorf("failed to open PDF %s: %w", path, err)
	}
	defer f.Close()

	if pageNum < 1 || pageNum > doc.NumPage() {
		return "", fmt.Errorf("page %d out of bounds (1-%d)", pageNum, doc.NumPage())
	}

	page := doc.Page(pageNum)
	if page.V.IsNull() {
		return "", fmt.Errorf("page %d is missing", pageNum)
	}

	height := pageHeight(page)
	content := page.Content()

	// PDF user space has Y=0 at the bottom edge.
	var header, footer []pdf.Text
	for _, t := range content.Text {
		switch {
		case t.Y >= height*(1-frac):
			header = append(header, t)
		case t.Y <= height*frac:
			footer = append(footer, t)
		}
	}

	combined := strings.TrimSpace(joinRows(header) + "\n" + joinRows(footer))
	if combined != "" {
		return combined, nil
	}

	// Nothing in the margins; let the caller scan the whole page.
	return r.ExtractPage(path, pageNum)
}

// pageHeight reads the page height from the MediaBox, defaulting to US
// Letter when the box is absent or malformed.
func pageHeight(page pdf.Page) float64 {
	box := page.V.Key("MediaBox")
	if box.Kind() == pdf.Array && box.Len() == 4 {
		h := box.Index(3).Float64() - box.Index(1).Float64()
		if h > 0 {
			return h
		}
	}
	return 792
}

// joinRows orders positioned text top-to-bottom, left-to-right and joins it
// into newline-separated rows.
func joinRows(texts []pdf.Text) string {
	if len(texts) == 0 {
		return ""
	}

	sorted := make([]pdf.Text, len(texts))
	copy(sorted, texts)
	sort.SliceStable(sorted, func(i, j int) bool {
		// Same row when the baselines are within a couple of points.
		if diff := sorted[i].Y - sorted[j].Y; diff > 2 || diff < -2 {
			return sorted[i].Y > sorted[j].Y
		}
		return sorted[i].X < sorted[j].X
	})

	var b strings.Builder
	lastY := sorted[0].Y
	for i, t := range sorted {
		if i > 0 {
			if lastY-t.Y > 2 {
				b.WriteString("\n")
			}
		}
		b.WriteString(t.S)
		lastY = t.Y
	}
	return b.String()
}

func recoverToError(err *error, path string, pageNum int) {
	if r := recover(); r != nil {
		*err = fmt.Errorf("PDF parser panic on %s page %d: %v", path, pageNum, r)
	}
}
