package tokens

import (
	"sync"

	"github.com/pkoukk/tiktoken-go"
)

const defaultEncoding = "cl100k_base"

var (
	once    sync.Once
	encoder *tiktoken.Tiktoken
	loadErr error
)

func load() (*tiktoken.Tiktoken, error) {
	once.Do(func() {
		encoder, loadErr = tiktoken.GetEncoding(defaultEncoding)
	})
	return encoder, loadErr
}

// Count returns the token count of text under the cl100k_base encoding.
// When the encoding cannot be loaded it falls back to a rune-based estimate.
func Count(text string) int {
	enc, err := load()
	if err != nil {
		return len([]rune(text)) / 3
	}
	return len(enc.Encode(text, nil, nil))
}

// Truncate trims text to at most maxTokens tokens, preserving the prefix.
func Truncate(text string, maxTokens int) string {
	if maxTokens <= 0 {
		return ""
	}
	enc, err := load()
	if err != nil {
		runes := []rune(text)
		if len(runes) <= maxTokens*3 {
			return text
		}
		return string(runes[:maxTokens*3])
	}
	ids := enc.Encode(text, nil, nil)
	if len(ids) <= maxTokens {
		return text
	}
	return enc.Decode(ids[:maxTokens])
}
