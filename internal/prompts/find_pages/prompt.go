// Package find_pages holds the prompt for the direct AI page lookup used
// when structured resolution fails.
package find_pages

import "fmt"

// BuildUserPrompt asks the model for a page or page range for one lesson,
// reading the same raw front-matter text the extractor will later pull from.
func BuildUserPrompt(lessonTopic, tocText string) string {
	return fmt.Sprintf(`You are reading the table of contents of a French teacher's guide.

Find the pages covering the lesson: "%s"

The table of contents text is:
---
%s
---

Return ONLY the page number or page range for this lesson, for example "42" or "42-45". If the lesson is not listed, return the closest matching entry's pages. No explanation, no other text.`, lessonTopic, tocText)
}
