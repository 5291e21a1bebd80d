package http

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/qazinvest/faq-assist/internal/domain/qa"
	"github.com/qazinvest/faq-assist/internal/infra/config"
	"github.com/qazinvest/faq-assist/internal/infra/faqrepo"
	"github.com/qazinvest/faq-assist/internal/infra/llm/chatgpt"
	apperrors "github.com/qazinvest/faq-assist/pkg/errors"
)

func TestRouter_AskSuccess(t *testing.T) {
	best := qa.CandidateSummary{FAQID: 1, Question: "Как открыть счет?", Answer: "Через приложение.", Score: 0.8, Rank: 1}
	svc := &stubService{
		processFn: func(ctx context.Context, q qa.Query) (qa.DecisionResult, error) {
			require.Equal(t, "как открыть счет", q.Text)
			require.True(t, q.Options.UseCache) // default when omitted
			require.False(t, q.Options.UseRerank)
			return qa.DecisionResult{
				Action:   qa.ActionDirectAnswer,
				Best:     &best,
				Answer:   best.Answer,
				Score:    0.8,
				Language: qa.LanguageRussian,
				TraceID:  "t-1",
			}, nil
		},
	}

	recorder := performRequest(http.MethodPost, "/api/v1/ask", `{"question":"как открыть счет"}`, newRouterUnderTest(t, svc, ""))
	require.Equal(t, http.StatusOK, recorder.Code)

	var got qa.DecisionResult
	require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &got))
	require.Equal(t, qa.ActionDirectAnswer, got.Action)
	require.Equal(t, best.Answer, got.Answer)
	require.NotNil(t, got.Best)
}

func TestRouter_AskInvalidInput(t *testing.T) {
	svc := &stubService{
		processFn: func(ctx context.Context, q qa.Query) (qa.DecisionResult, error) {
			return qa.DecisionResult{}, apperrors.Wrap(apperrors.CodeInvalidInput, "question cannot be empty", nil)
		},
	}

	recorder := performRequest(http.MethodPost, "/api/v1/ask", `{"question":""}`, newRouterUnderTest(t, svc, ""))
	require.Equal(t, http.StatusBadRequest, recorder.Code)

	errBody := decodeErrorBody(t, recorder.Body.Bytes())
	require.Equal(t, "invalid_request", errBody["error"]["code"])
}

func TestRouter_AskUpstreamFailure(t *testing.T) {
	svc := &stubService{
		processFn: func(ctx context.Context, q qa.Query) (qa.DecisionResult, error) {
			return qa.DecisionResult{}, apperrors.Wrap(apperrors.CodeUpstreamUnavailable, "embedding call failed", nil)
		},
	}

	recorder := performRequest(http.MethodPost, "/api/v1/ask", `{"question":"вопрос"}`, newRouterUnderTest(t, svc, ""))
	require.Equal(t, http.StatusBadGateway, recorder.Code)
}

func TestRouter_EntryNotFound(t *testing.T) {
	svc := &stubService{
		faqByIDFn: func(ctx context.Context, id int64) (qa.FAQEntry, error) {
			return qa.FAQEntry{}, apperrors.Wrap(apperrors.CodeNotFound, "faq not found", nil)
		},
	}

	recorder := performRequest(http.MethodGet, "/api/v1/faq/entries/99", "", newRouterUnderTest(t, svc, ""))
	require.Equal(t, http.StatusNotFound, recorder.Code)

	errBody := decodeErrorBody(t, recorder.Body.Bytes())
	require.Equal(t, "not_found", errBody["error"]["code"])
}

func TestRouter_EntryHidesEmbedding(t *testing.T) {
	svc := &stubService{
		faqByIDFn: func(ctx context.Context, id int64) (qa.FAQEntry, error) {
			return qa.FAQEntry{ID: id, Question: "q", Answer: "a", Language: qa.LanguageRussian, Embedding: []float32{0.1}}, nil
		},
	}

	recorder := performRequest(http.MethodGet, "/api/v1/faq/entries/1", "", newRouterUnderTest(t, svc, ""))
	require.Equal(t, http.StatusOK, recorder.Code)
	require.NotContains(t, recorder.Body.String(), "Embedding")
	require.NotContains(t, recorder.Body.String(), "embedding")
}

func TestRouter_RebuildRequiresSecret(t *testing.T) {
	svc := &stubService{}
	server := newRouterUnderTest(t, svc, "s3cret")

	recorder := performRequest(http.MethodPost, "/internal/embeddings/rebuild", `{}`, server)
	require.Equal(t, http.StatusForbidden, recorder.Code)

	req := httptest.NewRequest(http.MethodPost, "/internal/embeddings/rebuild", bytes.NewBufferString(`{}`))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Internal-Secret", "s3cret")
	rec := httptest.NewRecorder()
	server.Handler.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	var body map[string]int
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Equal(t, 0, body["rebuilt"])
}

func TestRouter_RebuildClosedWithoutSecret(t *testing.T) {
	recorder := performRequest(http.MethodPost, "/internal/embeddings/rebuild", `{}`, newRouterUnderTest(t, &stubService{}, ""))
	require.Equal(t, http.StatusForbidden, recorder.Code)
}

func TestRouter_Healthz(t *testing.T) {
	recorder := performRequest(http.MethodGet, "/healthz", "", newRouterUnderTest(t, &stubService{}, ""))
	require.Equal(t, http.StatusOK, recorder.Code)
}

func performRequest(method, path, body string, server *http.Server) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	server.Handler.ServeHTTP(rec, req)
	return rec
}

func newRouterUnderTest(t *testing.T, svc qa.Service, secret string) *http.Server {
	t.Helper()
	backfiller := qa.NewBackfiller(faqrepo.NewMemoryRepository(), testEmbedder(), 0, 0, newTestLogger())
	handler := NewHandler(svc, backfiller, newTestLogger())
	cfg := &config.Config{
		HTTP: config.HTTPConfig{
			Address:      ":0",
			ReadTimeout:  time.Second,
			WriteTimeout: time.Second,
		},
		Internal: config.InternalConfig{WebhookSecret: secret},
	}
	return NewRouter(cfg, handler, newTestLogger())
}

func testEmbedder() *qa.Embedder {
	return qa.NewEmbedder(noopChatClient{}, "text-embedding-3-small", 0, newTestLogger())
}

func newTestLogger() *slog.Logger {
	handler := slog.NewTextHandler(io.Discard, nil)
	return slog.New(handler)
}

type noopChatClient struct{}

func (noopChatClient) CreateChatCompletion(context.Context, chatgpt.ChatCompletionRequest) (chatgpt.ChatCompletionResponse, error) {
	return chatgpt.ChatCompletionResponse{}, nil
}

func (noopChatClient) CreateEmbedding(context.Context, chatgpt.EmbeddingRequest) (chatgpt.EmbeddingResponse, error) {
	return chatgpt.EmbeddingResponse{}, nil
}

type stubService struct {
	processFn func(ctx context.Context, q qa.Query) (qa.DecisionResult, error)
	faqByIDFn func(ctx context.Context, id int64) (qa.FAQEntry, error)
}

func (s *stubService) ProcessQuery(ctx context.Context, q qa.Query) (qa.DecisionResult, error) {
	if s.processFn != nil {
		return s.processFn(ctx, q)
	}
	return qa.DecisionResult{}, nil
}

func (s *stubService) PopularQueries(context.Context, int) ([]qa.PopularQuery, error) {
	return nil, nil
}

func (s *stubService) FAQByID(ctx context.Context, id int64) (qa.FAQEntry, error) {
	if s.faqByIDFn != nil {
		return s.faqByIDFn(ctx, id)
	}
	return qa.FAQEntry{}, nil
}

func (s *stubService) Categories(context.Context, string) ([]string, error) {
	return nil, nil
}

func (s *stubService) FAQsByCategory(context.Context, string, string, int, int) ([]qa.FAQEntry, error) {
	return nil, nil
}

func (s *stubService) CorpusStats(context.Context) (qa.Stats, error) {
	return qa.Stats{}, nil
}

func decodeErrorBody(t *testing.T, raw []byte) map[string]map[string]string {
	t.Helper()
	var body map[string]map[string]string
	require.NoError(t, json.Unmarshal(raw, &body))
	return body
}
