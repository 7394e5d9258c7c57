// Package detect_offset holds the prompt for the AI fallback of the
// page-offset detector.
package detect_offset

import (
	"fmt"
	"strings"
)

// PageSample is one sampled content page shown to the model.
type PageSample struct {
	PDFPageNumber int
	Text          string
}

// BuildUserPrompt asks the model for the constant delta between physical
// page positions and printed page numbers.
func BuildUserPrompt(samples []PageSample) string {
	var pagesText strings.Builder
	for _, s := range samples {
		fmt.Fprintf(&pagesText, "\n--- PDF Page %d ---\n%s\n", s.PDFPageNumber, s.Text)
	}

	return fmt.Sprintf(`You are a page numbering expert. Detect the offset between logical page numbers and physical PDF page positions.

The offset = PDF page number (position in file) - Logical page number (printed on page).

Here are sample pages (text content may include headers/footers with page numbers):
%s

Return ONLY the integer offset. If unsure, return 0.`, pagesText.String())
}
