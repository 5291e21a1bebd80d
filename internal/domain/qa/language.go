package qa

import "strings"

// Letters that occur in Kazakh Cyrillic but not in Russian.
const kazakhLetters = "әіңғүұқөһ"

// DetectLanguage distinguishes Kazakh from Russian by alphabet. Any
// Kazakh-specific letter wins; everything else is treated as Russian.
func DetectLanguage(text string) string {
	for _, r := range strings.ToLower(text) {
		if strings.ContainsRune(kazakhLetters, r) {
			return LanguageKazakh
		}
	}
	return LanguageRussian
}

// ResolveLanguage maps the request language to a concrete code.
func ResolveLanguage(requested, text string) string {
	switch requested {
	case LanguageKazakh, LanguageRussian:
		return requested
	default:
		return DetectLanguage(text)
	}
}
