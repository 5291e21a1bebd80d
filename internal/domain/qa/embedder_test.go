package qa

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/qazinvest/faq-assist/internal/infra/llm/chatgpt"
	apperrors "github.com/qazinvest/faq-assist/pkg/errors"
)

func embeddingWith(vectors ...[]float32) chatgpt.EmbeddingResponse {
	resp := chatgpt.EmbeddingResponse{}
	for i, v := range vectors {
		resp.Data = append(resp.Data, struct {
			Index     int       `json:"index"`
			Embedding []float32 `json:"embedding"`
		}{Index: i, Embedding: v})
	}
	return resp
}

func TestEmbedWithEnrichmentKeysOnOriginalText(t *testing.T) {
	client := &stubChatClient{embeddingResp: embeddingWith([]float32{0.1, 0.2})}
	e := NewEmbedder(client, "text-embedding-3-small", 0, discardLogger())

	got, err := e.EmbedWithEnrichment(context.Background(), "Как открыть счет?", []string{"аккаунт", "регистрация"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// synonyms go into the embedded text only
	if !strings.Contains(client.lastEmbedding.Input[0], "аккаунт") {
		t.Fatalf("embedded text must include synonyms, got %q", client.lastEmbedding.Input[0])
	}
	// fingerprint and normalization come from the original phrasing
	if got.Normalized != "как открыть счет" {
		t.Fatalf("unexpected normalized text %q", got.Normalized)
	}
	if got.Fingerprint != Fingerprint("как открыть счет") {
		t.Fatalf("fingerprint must be derived from the unenriched text")
	}
	if strings.Contains(got.Normalized, "аккаунт") {
		t.Fatalf("normalized text must not contain enrichment")
	}
}

func TestEmbedWithEnrichmentNoSynonyms(t *testing.T) {
	client := &stubChatClient{embeddingResp: embeddingWith([]float32{0.5})}
	e := NewEmbedder(client, "text-embedding-3-small", 0, discardLogger())

	_, err := e.EmbedWithEnrichment(context.Background(), "Как открыть счет?", nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if client.lastEmbedding.Input[0] != "Как открыть счет?" {
		t.Fatalf("without synonyms the original text is embedded, got %q", client.lastEmbedding.Input[0])
	}
}

func TestEmbedBatchPreservesAlignment(t *testing.T) {
	resp := chatgpt.EmbeddingResponse{}
	// response arrives out of order; indexes restore alignment
	resp.Data = append(resp.Data, struct {
		Index     int       `json:"index"`
		Embedding []float32 `json:"embedding"`
	}{Index: 1, Embedding: []float32{0.2}})
	resp.Data = append(resp.Data, struct {
		Index     int       `json:"index"`
		Embedding []float32 `json:"embedding"`
	}{Index: 0, Embedding: []float32{0.1}})

	client := &stubChatClient{embeddingResp: resp}
	e := NewEmbedder(client, "text-embedding-3-small", 0, discardLogger())

	got, err := e.EmbedBatch(context.Background(), []string{"first", "second"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got[0][0] != 0.1 || got[1][0] != 0.2 {
		t.Fatalf("batch alignment broken: %+v", got)
	}
}

func TestEmbedBatchFailsWholeOnMisalignment(t *testing.T) {
	client := &stubChatClient{embeddingResp: embeddingWith([]float32{0.1})}
	e := NewEmbedder(client, "text-embedding-3-small", 0, discardLogger())

	_, err := e.EmbedBatch(context.Background(), []string{"first", "second"})
	if err == nil {
		t.Fatalf("short response must fail the whole batch")
	}
	if !apperrors.IsCode(err, apperrors.CodeUpstreamUnavailable) {
		t.Fatalf("expected upstream_unavailable, got %v", err)
	}
}

func TestEmbedPropagatesUpstreamFailure(t *testing.T) {
	client := &stubChatClient{embeddingErr: errors.New("timeout")}
	e := NewEmbedder(client, "text-embedding-3-small", 0, discardLogger())

	_, err := e.Embed(context.Background(), "вопрос")
	if err == nil {
		t.Fatalf("expected error")
	}
	if !apperrors.IsCode(err, apperrors.CodeUpstreamUnavailable) {
		t.Fatalf("expected upstream_unavailable, got %v", err)
	}
	if client.embeddingCalls != 2 {
		t.Fatalf("expected one retry, got %d calls", client.embeddingCalls)
	}
}

func TestEmbedRejectsEmptyText(t *testing.T) {
	e := NewEmbedder(&stubChatClient{}, "text-embedding-3-small", 0, discardLogger())
	_, err := e.Embed(context.Background(), "   ")
	if !apperrors.IsCode(err, apperrors.CodeInvalidInput) {
		t.Fatalf("expected invalid_input, got %v", err)
	}
}
