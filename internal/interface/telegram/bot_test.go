package telegram

import (
	"strings"
	"testing"
	"unicode/utf8"
)

func TestSplitMessageShortTextUntouched(t *testing.T) {
	chunks := splitMessage("Как открыть счет?", maxMessageLen)
	if len(chunks) != 1 || chunks[0] != "Как открыть счет?" {
		t.Fatalf("short text must pass through unchanged, got %q", chunks)
	}
}

func TestSplitMessageKeepsRuneBoundaries(t *testing.T) {
	// long Cyrillic answer with no newlines: every rune is two bytes, so a
	// byte-offset cut would land mid rune
	text := strings.Repeat("об акциях и облигациях ", 500)
	chunks := splitMessage(text, maxMessageLen)
	if len(chunks) < 2 {
		t.Fatalf("expected text to be split, got %d chunk(s)", len(chunks))
	}

	var rebuilt strings.Builder
	for i, chunk := range chunks {
		if !utf8.ValidString(chunk) {
			t.Fatalf("chunk %d is not valid UTF-8", i)
		}
		if got := utf8.RuneCountInString(chunk); got > maxMessageLen {
			t.Fatalf("chunk %d has %d runes, limit is %d", i, got, maxMessageLen)
		}
		rebuilt.WriteString(chunk)
	}
	if rebuilt.String() != text {
		t.Fatalf("chunks must reassemble the original text")
	}
}

func TestSplitMessagePrefersNewlineBoundary(t *testing.T) {
	head := strings.Repeat("ж", 3500)
	tail := strings.Repeat("қ", 800)
	chunks := splitMessage(head+"\n"+tail, maxMessageLen)
	if len(chunks) != 2 {
		t.Fatalf("expected 2 chunks, got %d", len(chunks))
	}
	if chunks[0] != head {
		t.Fatalf("expected the cut at the newline, first chunk has %d runes", utf8.RuneCountInString(chunks[0]))
	}
	if chunks[1] != "\n"+tail {
		t.Fatalf("remainder must carry the rest of the text")
	}
}
