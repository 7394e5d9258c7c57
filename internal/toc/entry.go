// Package toc resolves lesson topics to physical page ranges using a
// guide's table of contents: a JSON disk cache, an AI-assisted parser, a
// printed-page-number offset detector, and a fuzzy topic resolver.
package toc

// Entry is one lesson title with its printed starting page, as listed in
// the guide's front matter. Entries are ordered by page; the order is used
// to infer where each lesson ends.
type Entry struct {
	Topic string `json:"topic"`
	Page  int    `json:"page"`
}
