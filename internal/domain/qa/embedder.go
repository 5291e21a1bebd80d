package qa

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/qazinvest/faq-assist/internal/infra/llm/chatgpt"
	apperrors "github.com/qazinvest/faq-assist/pkg/errors"
	"github.com/qazinvest/faq-assist/pkg/tokens"
)

// ChatClient is the slice of the LLM client the pipeline depends on.
type ChatClient interface {
	CreateChatCompletion(ctx context.Context, req chatgpt.ChatCompletionRequest) (chatgpt.ChatCompletionResponse, error)
	CreateEmbedding(ctx context.Context, req chatgpt.EmbeddingRequest) (chatgpt.EmbeddingResponse, error)
}

// EnrichedEmbedding bundles a query vector with the metadata derived from the
// original (unenriched) text. Synonym enrichment changes what gets embedded,
// never what gets fingerprinted, so cache keys survive synonym list edits.
type EnrichedEmbedding struct {
	Vector      []float32
	Normalized  string
	Keywords    []string
	Fingerprint string
}

// Embedder wraps the external text-to-vector capability.
type Embedder struct {
	client    ChatClient
	model     string
	maxTokens int
	logger    *slog.Logger
}

// NewEmbedder constructs the gateway.
func NewEmbedder(client ChatClient, model string, maxTokens int, logger *slog.Logger) *Embedder {
	if maxTokens <= 0 {
		maxTokens = 8000
	}
	return &Embedder{
		client:    client,
		model:     model,
		maxTokens: maxTokens,
		logger:    logger.With("component", "qa.embedder"),
	}
}

// Embed vectorizes a single text. Upstream failures are retried once and
// then surface as upstream_unavailable; a missing vector makes retrieval
// impossible, so this never degrades silently.
func (e *Embedder) Embed(ctx context.Context, text string) ([]float32, error) {
	vectors, err := e.EmbedBatch(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return vectors[0], nil
}

// EmbedBatch vectorizes a sequence of texts preserving order: result[i]
// corresponds to texts[i]. Either the whole batch succeeds or the whole
// batch fails; alignment is never silently corrupted.
func (e *Embedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, apperrors.Wrap(apperrors.CodeInvalidInput, "no texts to embed", nil)
	}
	input := make([]string, len(texts))
	for i, t := range texts {
		t = strings.TrimSpace(t)
		if t == "" {
			return nil, apperrors.Wrap(apperrors.CodeInvalidInput, "empty text in embedding batch", nil)
		}
		input[i] = tokens.Truncate(t, e.maxTokens)
	}

	resp, err := e.createWithRetry(ctx, chatgpt.EmbeddingRequest{Model: e.model, Input: input})
	if err != nil {
		return nil, apperrors.Wrap(apperrors.CodeUpstreamUnavailable, "embedding call failed", err)
	}
	if len(resp.Data) != len(input) {
		return nil, apperrors.Wrap(apperrors.CodeUpstreamUnavailable, "embedding response misaligned", nil)
	}

	vectors := make([][]float32, len(input))
	for _, item := range resp.Data {
		if item.Index < 0 || item.Index >= len(vectors) || len(item.Embedding) == 0 {
			return nil, apperrors.Wrap(apperrors.CodeUpstreamUnavailable, "embedding response malformed", nil)
		}
		vec := make([]float32, len(item.Embedding))
		copy(vec, item.Embedding)
		vectors[item.Index] = vec
	}
	for i, vec := range vectors {
		if vec == nil {
			e.logger.Error("embedding missing for batch item", "index", i)
			return nil, apperrors.Wrap(apperrors.CodeUpstreamUnavailable, "embedding response incomplete", nil)
		}
	}
	return vectors, nil
}

// EmbedWithEnrichment embeds the text optionally concatenated with synonyms.
// Normalized text, keywords and fingerprint always come from the original
// text so that cache hits are keyed on literal user phrasing.
func (e *Embedder) EmbedWithEnrichment(ctx context.Context, text string, synonyms []string) (EnrichedEmbedding, error) {
	embedded := text
	if len(synonyms) > 0 {
		embedded = text + ". " + strings.Join(synonyms, " ")
	}
	vector, err := e.Embed(ctx, embedded)
	if err != nil {
		return EnrichedEmbedding{}, err
	}
	normalized := Normalize(text)
	return EnrichedEmbedding{
		Vector:      vector,
		Normalized:  normalized,
		Keywords:    ExtractKeywords(text),
		Fingerprint: Fingerprint(normalized),
	}, nil
}

func (e *Embedder) createWithRetry(ctx context.Context, req chatgpt.EmbeddingRequest) (chatgpt.EmbeddingResponse, error) {
	resp, err := e.client.CreateEmbedding(ctx, req)
	if err == nil {
		return resp, nil
	}
	if ctx.Err() != nil {
		return chatgpt.EmbeddingResponse{}, err
	}
	e.logger.Warn("embedding call failed, retrying once", "error", err)
	resp, retryErr := e.client.CreateEmbedding(ctx, req)
	if retryErr != nil {
		return chatgpt.EmbeddingResponse{}, errors.Join(err, retryErr)
	}
	return resp, nil
}
