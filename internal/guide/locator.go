// Package guide locates teacher-guide and student-textbook PDFs on disk
// by class level, following the fixed naming convention
// guide_pedagogique_<level>.pdf.
package guide

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// aliasLevel maps a class level to an alternate spelling used by some
// installations. Only sixième is spelled two ways in the wild.
func aliasLevel(level string) (string, bool) {
	if level == "6e" {
		return "6eme", true
	}
	return "", false
}

// FindGuide returns the path of the teacher guide for a class level. The
// lookup is case-insensitive on the class level and tries the documented
// alias spellings. A missing guide is a hard failure for a resolution run.
func FindGuide(guidesDir, classLevel string) (string, error) {
	level := strings.ToLower(strings.TrimSpace(classLevel))
	if level == "" {
		return "", fmt.Errorf("empty class level")
	}

	names := []string{fmt.Sprintf("guide_pedagogique_%s.pdf", level)}
	if alias, ok := aliasLevel(level); ok {
		names = append(names, fmt.Sprintf("guide_pedagogique_%s.pdf", alias))
	}

	for _, name := range names {
		path := filepath.Join(guidesDir, name)
		if _, err := os.Stat(path); err == nil {
			return path, nil
		}
	}
	return "", fmt.Errorf("no guide for class %q in %s (tried %s)",
		classLevel, guidesDir, strings.Join(names, ", "))
}

// FindTextbook returns the path of the optional student textbook for a
// class level. Unlike the guide, a missing textbook is not an error; the
// second return reports whether one was found.
func FindTextbook(textbookDir, classLevel string) (string, bool) {
	if textbookDir == "" {
		return "", false
	}
	if _, err := os.Stat(textbookDir); err != nil {
		return "", false
	}

	level := strings.ToLower(strings.TrimSpace(classLevel))
	levels := []string{level}
	if alias, ok := aliasLevel(level); ok {
		levels = append(levels, alias)
	}

	for _, lv := range levels {
		for _, pattern := range []string{"livre_%s.pdf", "manuel_%s.pdf", "textbook_%s.pdf", "%s.pdf"} {
			path := filepath.Join(textbookDir, fmt.Sprintf(pattern, lv))
			if _, err := os.Stat(path); err == nil {
				return path, true
			}
		}
	}
	return "", false
}
