package qa

import (
	"reflect"
	"testing"
)

func TestNormalize(t *testing.T) {
	cases := []struct {
		name string
		in   string
		out  string
	}{
		{name: "trims and lowercases", in: "  Как Открыть Счет?  ", out: "как открыть счет"},
		{name: "collapses whitespace", in: "шот\t ашу   керек", out: "шот ашу керек"},
		{name: "drops punctuation", in: "что, это?!", out: "что это"},
		{name: "keeps hyphens", in: "интернет-банкинг", out: "интернет-банкинг"},
		{name: "empty", in: "   ", out: ""},
	}

	for _, tc := range cases {
		if got := Normalize(tc.in); got != tc.out {
			t.Fatalf("%s: expected %q got %q", tc.name, tc.out, got)
		}
	}
}

func TestNormalizeIdempotent(t *testing.T) {
	inputs := []string{"Как открыть счет?", "Шот қалай ашамыз?!", "  a  b\tc  ", "облигация"}
	for _, in := range inputs {
		once := Normalize(in)
		if twice := Normalize(once); twice != once {
			t.Fatalf("normalize not idempotent for %q: %q vs %q", in, once, twice)
		}
	}
}

func TestExtractKeywords(t *testing.T) {
	got := ExtractKeywords("Как купить облигацию для счета?")
	want := []string{"купить", "облигацию", "счета"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("expected %v got %v", want, got)
	}
}

func TestExtractKeywordsKeepsOrderAndDuplicates(t *testing.T) {
	got := ExtractKeywords("валюта счет валюта")
	want := []string{"валюта", "счет", "валюта"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("expected %v got %v", want, got)
	}
}

func TestExtractKeywordsDropsShortTokens(t *testing.T) {
	got := ExtractKeywords("ип взнос")
	want := []string{"взнос"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("expected %v got %v", want, got)
	}
}

func TestFingerprintStable(t *testing.T) {
	normalized := Normalize("Как открыть счет?")
	first := Fingerprint(normalized)
	second := Fingerprint(normalized)
	if first != second {
		t.Fatalf("fingerprint not deterministic: %s vs %s", first, second)
	}
	if len(first) != 32 {
		t.Fatalf("expected 128-bit hex fingerprint, got %q", first)
	}
}

func TestFingerprintDistinguishesContent(t *testing.T) {
	a := Fingerprint(Normalize("как открыть счет"))
	b := Fingerprint(Normalize("как закрыть счет"))
	if a == b {
		t.Fatalf("distinct queries produced identical fingerprints")
	}

	// case, punctuation and whitespace variants collapse to one key
	c := Fingerprint(Normalize("Как  открыть счет?!"))
	if a != c {
		t.Fatalf("cosmetic variant changed fingerprint: %s vs %s", a, c)
	}
}
