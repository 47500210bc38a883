package docsystem

import (
	"sort"
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"

	"github.com/DougReeder/notes-together-sub002/internal/config"
	docsysSvc "github.com/DougReeder/notes-together-sub002/internal/domain/services/docsystem"
)

type contentAnalyzerService struct{}

// NewContentAnalyzer creates a new content analyzer service
func NewContentAnalyzer() docsysSvc.ContentAnalyzer {
	return &contentAnalyzerService{}
}

// ExtractSearchWords splits text into words and normalizes each: accents
// are stripped, apostrophes dropped and letters upper-cased, so "Café" and
// "CAFE" match.
func (s *contentAnalyzerService) ExtractSearchWords(text string) []string {
	fields := strings.FieldsFunc(text, func(r rune) bool {
		return !isWordRune(r)
	})

	words := make([]string, 0, len(fields))
	for _, f := range fields {
		if w := s.NormalizeSearchWord(f); w != "" {
			words = append(words, w)
		}
	}
	return words
}

// NormalizeSearchWord normalizes one word. Punctuation inside the word is
// removed.
func (s *contentAnalyzerService) NormalizeSearchWord(word string) string {
	// transformers and casers are stateful, so each call builds its own
	t := transform.Chain(norm.NFKD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	folded, _, err := transform.String(t, word)
	if err != nil {
		folded = word
	}

	folded = strings.Map(func(r rune) rune {
		if unicode.IsLetter(r) || unicode.IsNumber(r) {
			return r
		}
		return -1
	}, folded)
	if folded == "" {
		return ""
	}
	return cases.Upper(language.Und).String(folded)
}

// ConsolidateWords deduplicates words and drops prefixes of other words,
// since a prefix search finds them anyway.
func (s *contentAnalyzerService) ConsolidateWords(words []string) []string {
	sorted := append([]string(nil), words...)
	sort.Strings(sorted)

	out := make([]string, 0, len(sorted))
	for i, w := range sorted {
		if w == "" {
			continue
		}
		// in sorted order a prefix sorts directly before its extensions
		if i+1 < len(sorted) && strings.HasPrefix(sorted[i+1], w) {
			continue
		}
		out = append(out, w)
	}

	if len(out) > config.MaxSearchWords {
		out = out[:config.MaxSearchWords]
	}
	return out
}

// isWordRune reports whether r can be part of a word. Apostrophes join
// contractions such as "don't".
func isWordRune(r rune) bool {
	return unicode.IsLetter(r) || unicode.IsNumber(r) || unicode.Is(unicode.Mn, r) || r == '\'' || r == '’'
}
