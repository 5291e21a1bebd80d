package qa

import "strings"

// Vocabulary for the lexical pre-filter. Maintenance of these lists is a
// content concern; the classifier itself stays a pure function.
var (
	greetingTerms = []string{
		"привет", "здравствуй", "добрый",
		"сәлем", "салем", "сәлеметсіз", "қайырлы",
		"hello", "hi",
	}

	offTopicTerms = []string{
		"погода", "футбол", "спорт", "музыка",
		"ауа райы", "ойын",
	}

	vagueTerms = []string{
		"помоги", "помогите", "помощь", "вопрос",
		"көмектес", "көмек", "сұрақ",
	}
)

const greetingLengthCutoff = 40

// ClassifyIntent routes trivial queries away from retrieval. Checks run in
// order; the first match wins.
func ClassifyIntent(text string) Intent {
	lower := strings.ToLower(strings.TrimSpace(text))
	if containsAny(lower, offTopicTerms) {
		return IntentOffTopic
	}
	if containsAny(lower, greetingTerms) && len([]rune(lower)) < greetingLengthCutoff {
		return IntentGreeting
	}
	if len(strings.Fields(lower)) <= 2 && containsAny(lower, vagueTerms) {
		return IntentVague
	}
	return IntentFAQ
}

func containsAny(text string, terms []string) bool {
	for _, term := range terms {
		if strings.Contains(text, term) {
			return true
		}
	}
	return false
}
