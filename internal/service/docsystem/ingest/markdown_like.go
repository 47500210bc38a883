package ingest

import "regexp"

// Patterns that rarely appear in prose but are common in Markdown.
var markdownSignals = []*regexp.Regexp{
	// heading
	regexp.MustCompile(`(?m)^#{1,6}[ \t]+\S`),
	// fenced code
	regexp.MustCompile("(?m)^(```|~~~)"),
	// list item
	regexp.MustCompile(`(?m)^[ \t]*[-*+][ \t]+\S`),
	regexp.MustCompile(`(?m)^[ \t]*\d{1,9}[.)][ \t]+\S`),
	// quote
	regexp.MustCompile(`(?m)^>[ \t]?\S`),
	// table delimiter row
	regexp.MustCompile(`(?m)^\|?[ \t]*:?-{3,}:?[ \t]*(\|[ \t]*:?-{3,}:?[ \t]*)+\|?[ \t]*$`),
	// inline link or image
	regexp.MustCompile(`\[[^\]\n]+\]\([^)\s]+\)`),
	// strong and emphasis
	regexp.MustCompile(`\*\*[^*\s][^*\n]*\*\*`),
	regexp.MustCompile(`__[^_\s][^_\n]*__`),
	regexp.MustCompile(`(^|[\s(])\*[^*\s][^*\n]*\*([\s.,;:!?)]|$)`),
	regexp.MustCompile(`(^|[\s(])_[^_\s][^_\n]*_([\s.,;:!?)]|$)`),
	// code span
	regexp.MustCompile("`[^`\n]+`"),
}

// LooksLikeMarkdown reports whether pasted text carries Markdown syntax
// worth rendering. Plain prose returns false.
func LooksLikeMarkdown(text string) bool {
	for _, re := range markdownSignals {
		if re.MatchString(text) {
			return true
		}
	}
	return false
}
