package qa

import "testing"

func TestClassifyIntent(t *testing.T) {
	cases := []struct {
		name string
		in   string
		want Intent
	}{
		{name: "russian greeting", in: "Привет!", want: IntentGreeting},
		{name: "kazakh greeting", in: "Сәлем", want: IntentGreeting},
		{name: "long text with greeting word goes to faq", in: "Добрый день, подскажите пожалуйста как открыть брокерский счет через приложение", want: IntentFAQ},
		{name: "off topic wins over greeting", in: "Привет, какая сегодня погода?", want: IntentOffTopic},
		{name: "off topic kazakh", in: "Бүгін ауа райы қандай?", want: IntentOffTopic},
		{name: "vague short plea", in: "помоги", want: IntentVague},
		{name: "vague kazakh", in: "көмектес", want: IntentVague},
		{name: "vague word in long question is faq", in: "помоги разобраться как купить облигации на бирже", want: IntentFAQ},
		{name: "regular question", in: "Как открыть счет?", want: IntentFAQ},
		{name: "empty-ish", in: "   ", want: IntentFAQ},
	}

	for _, tc := range cases {
		if got := ClassifyIntent(tc.in); got != tc.want {
			t.Fatalf("%s: expected %s got %s", tc.name, tc.want, got)
		}
	}
}

func TestDetectLanguage(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"Шот қалай ашамыз?", LanguageKazakh},
		{"Как открыть счет?", LanguageRussian},
		{"салем", LanguageRussian}, // transliterated greeting has no Kazakh-specific letters
		{"Сәлеметсіз бе", LanguageKazakh},
		{"hello", LanguageRussian},
	}
	for _, tc := range cases {
		if got := DetectLanguage(tc.in); got != tc.want {
			t.Fatalf("%q: expected %s got %s", tc.in, tc.want, got)
		}
	}
}

func TestResolveLanguage(t *testing.T) {
	if got := ResolveLanguage(LanguageKazakh, "как открыть счет"); got != LanguageKazakh {
		t.Fatalf("explicit language must win, got %s", got)
	}
	if got := ResolveLanguage(LanguageAuto, "Шотты қалай ашамыз?"); got != LanguageKazakh {
		t.Fatalf("auto should detect Kazakh, got %s", got)
	}
	if got := ResolveLanguage("", "Как открыть счет?"); got != LanguageRussian {
		t.Fatalf("unknown request language should fall back to detection, got %s", got)
	}
}
