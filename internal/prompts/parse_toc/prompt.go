// Package parse_toc holds the prompt for structuring raw front-matter text
// into table-of-contents entries.
package parse_toc

import "fmt"

// SystemPrompt frames the extraction task.
const SystemPrompt = `You are a Table of Contents extraction specialist for French primary-school teacher guides. You will be given the raw text of a guide's front matter and must extract every lesson entry with its printed starting page.

**KEY PRINCIPLES**:

1. Topics keep their exact French wording, accents included.
2. The page is the number printed in the ToC, NOT a position in the file.
3. Preserve document order; it is used to infer where each lesson ends.
4. Skip headings without page numbers (part titles, decorative lines).
5. Dotted leaders ("Les volcans ...... 48") and column layouts are both common; extract the trailing number either way.`

// BuildUserPrompt builds the user prompt for ToC parsing.
func BuildUserPrompt(tocText string) string {
	return fmt.Sprintf(`<task>
Extract ALL lesson entries from this table of contents.

Return ONLY a JSON array, no prose, no Markdown fences:
[
  { "topic": "Le cycle de l'eau", "page": 42 },
  { "topic": "Les volcans", "page": 48 }
]
</task>

<toc_text>
%s
</toc_text>
`, tocText)
}
