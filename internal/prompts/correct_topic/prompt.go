// Package correct_topic holds the prompt for fixing spelling and accents in
// user-supplied lesson topics before resolution.
package correct_topic

import "fmt"

// BuildUserPrompt builds the correction prompt. When tocJSON is non-empty
// the corrected topic is constrained to entries of the cached ToC.
func BuildUserPrompt(lessonTopic, tocJSON string) string {
	tocContext := ""
	if tocJSON != "" {
		tocContext = fmt.Sprintf(`
Here is the JSON table of contents from the guide. The corrected topic MUST match one of the "topic" values in this JSON.
---
%s
---
`, tocJSON)
	}

	return fmt.Sprintf(`You are an expert French language proofreader. Correct any spelling, grammar, capitalization, or punctuation errors in this lesson topic for French educational materials.

INPUT: "%s"

Fix only:
- Spelling mistakes
- Missing or incorrect accents (é, è, à, ç, etc.)
- Capitalization
- Missing or extra punctuation

Keep the meaning identical.
%s
Examples:
- "le cycle de leau" → "Le cycle de l'eau"
- "les volcans," → "Les volcans"
- "la revolution francaise" → "La Révolution française"

Return ONLY the corrected topic, nothing else.`, lessonTopic, tocContext)
}
