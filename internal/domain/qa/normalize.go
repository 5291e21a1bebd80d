package qa

import (
	"crypto/md5"
	"encoding/hex"
	"strings"
	"unicode"
)

// stopwords are dropped from keyword extraction in both languages.
var stopwords = map[string]struct{}{
	// Kazakh
	"не": {}, "қалай": {}, "бол": {}, "деген": {}, "керек": {}, "және": {}, "үшін": {},
	// Russian
	"как": {}, "что": {}, "если": {}, "это": {}, "для": {}, "или": {}, "и": {}, "в": {}, "на": {},
}

const minKeywordLen = 3

// Normalize lowercases the text, keeps word characters and hyphens, and
// collapses whitespace runs. Idempotent: Normalize(Normalize(x)) == Normalize(x).
func Normalize(text string) string {
	lowered := strings.ToLower(strings.TrimSpace(text))
	var builder strings.Builder
	builder.Grow(len(lowered))
	lastSpace := true
	for _, r := range lowered {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r) || r == '-' || r == '_':
			builder.WriteRune(r)
			lastSpace = false
		case unicode.IsSpace(r):
			if !lastSpace {
				builder.WriteRune(' ')
				lastSpace = true
			}
		default:
			// punctuation is dropped, not turned into a separator
		}
	}
	return strings.TrimSpace(builder.String())
}

// ExtractKeywords normalizes, splits on whitespace and drops stopwords and
// short tokens. Order is preserved and duplicates are kept.
func ExtractKeywords(text string) []string {
	words := strings.Fields(Normalize(text))
	keywords := make([]string, 0, len(words))
	for _, w := range words {
		if _, stop := stopwords[w]; stop {
			continue
		}
		if len([]rune(w)) < minKeywordLen {
			continue
		}
		keywords = append(keywords, w)
	}
	return keywords
}

// Fingerprint returns the stable 128-bit content hash of normalized text,
// used together with language as the cache key.
func Fingerprint(normalized string) string {
	sum := md5.Sum([]byte(normalized))
	return hex.EncodeToString(sum[:])
}
