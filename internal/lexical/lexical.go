package lexical

import (
	"strings"

	"golang.org/x/text/unicode/norm"
)

// Normalize lowercases text and squeezes whitespace so claims and headline
// titles compare consistently. Input is NFC-normalized first; feeds and typed
// claims disagree on composed forms often enough to break substring matching.
func Normalize(s string) string {
	s = norm.NFC.String(s)
	s = strings.ToLower(s)
	return strings.Join(strings.Fields(s), " ")
}

// IsCheckable reports whether the text asserts a reportable news event.
// Keywords match by substring containment, not word boundary.
func IsCheckable(text string, keywords []string) bool {
	return ContainsAny(text, keywords)
}

// ContainsAny reports whether any needle occurs verbatim in text.
func ContainsAny(text string, needles []string) bool {
	for _, n := range needles {
		if strings.Contains(text, n) {
			return true
		}
	}
	return false
}

// CoreTerms returns the distinctive tokens of a claim in first-seen order:
// whitespace-split, stopwords dropped, tokens shorter than minLen runes
// dropped, duplicates collapsed.
func CoreTerms(text string, stopwords map[string]struct{}, minLen int) []string {
	var terms []string
	seen := make(map[string]struct{})

	for _, token := range strings.Fields(text) {
		if _, skip := stopwords[token]; skip {
			continue
		}
		if len([]rune(token)) < minLen {
			continue
		}
		if _, dup := seen[token]; dup {
			continue
		}
		seen[token] = struct{}{}
		terms = append(terms, token)
	}

	return terms
}

// TermOverlap counts how many terms occur verbatim inside title.
func TermOverlap(terms []string, title string) int {
	n := 0
	for _, t := range terms {
		if strings.Contains(title, t) {
			n++
		}
	}
	return n
}

// MentionsPublicFigureDeath reports whether the text pairs a protected
// public-figure reference with the death marker.
func MentionsPublicFigureDeath(text string, figures []string, marker string) bool {
	return ContainsAny(text, figures) && strings.Contains(text, marker)
}

// Truncate keeps at most max runes of s. Model servers bound input length in
// characters, not bytes.
func Truncate(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max])
}
