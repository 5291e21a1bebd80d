package qa

import (
	"context"
	"errors"
	"testing"

	"github.com/qazinvest/faq-assist/internal/infra/llm/chatgpt"
)

type stubChatClient struct {
	completionResp chatgpt.ChatCompletionResponse
	completionErr  error
	embeddingResp  chatgpt.EmbeddingResponse
	embeddingErr   error

	lastCompletion chatgpt.ChatCompletionRequest
	lastEmbedding  chatgpt.EmbeddingRequest
	embeddingCalls int
}

func (s *stubChatClient) CreateChatCompletion(_ context.Context, req chatgpt.ChatCompletionRequest) (chatgpt.ChatCompletionResponse, error) {
	s.lastCompletion = req
	return s.completionResp, s.completionErr
}

func (s *stubChatClient) CreateEmbedding(_ context.Context, req chatgpt.EmbeddingRequest) (chatgpt.EmbeddingResponse, error) {
	s.lastEmbedding = req
	s.embeddingCalls++
	return s.embeddingResp, s.embeddingErr
}

func completionWith(content string) chatgpt.ChatCompletionResponse {
	return chatgpt.ChatCompletionResponse{
		Choices: []struct {
			Message chatgpt.Message `json:"message"`
		}{
			{Message: chatgpt.Message{Content: content}},
		},
	}
}

func rerankInput() []ScoredCandidate {
	return []ScoredCandidate{
		candidate(1, "A", 0.50),
		candidate(2, "B", 0.45),
		candidate(3, "C", 0.40),
	}
}

func TestRerankNoopWhenListFits(t *testing.T) {
	client := &stubChatClient{}
	r := NewReranker(client, "gpt-4o-mini", 0.6, discardLogger())

	input := rerankInput()
	got := r.Rerank(context.Background(), "вопрос", input, 5)
	if len(got) != len(input) {
		t.Fatalf("expected unchanged list, got %d candidates", len(got))
	}
	if client.lastCompletion.Model != "" {
		t.Fatalf("no judgment call expected when list fits in topK")
	}
}

func TestRerankBlendsJudgmentWithRetrievalScore(t *testing.T) {
	client := &stubChatClient{completionResp: completionWith(`{"scores": [2, 10, 5]}`)}
	r := NewReranker(client, "gpt-4o-mini", 0.6, discardLogger())

	got := r.Rerank(context.Background(), "вопрос", rerankInput(), 2)
	if len(got) != 2 {
		t.Fatalf("expected topK=2, got %d", len(got))
	}
	// B: 0.6*1.0 + 0.4*0.45 = 0.78 beats A: 0.6*0.2 + 0.4*0.50 = 0.32
	if got[0].Entry.ID != 2 {
		t.Fatalf("expected B promoted by judgment, got %+v", got[0])
	}
}

func TestRerankTopsUpBeyondJudgedWindow(t *testing.T) {
	var input []ScoredCandidate
	for i := 0; i < 12; i++ {
		input = append(input, candidate(int64(i+1), "Q"+string(rune('A'+i)), 0.90-float64(i)*0.05))
	}
	// only the first ten candidates are judged
	client := &stubChatClient{completionResp: completionWith(`{"scores": [10, 9, 8, 7, 6, 5, 4, 3, 2, 1]}`)}
	r := NewReranker(client, "gpt-4o-mini", 0.6, discardLogger())

	got := r.Rerank(context.Background(), "вопрос", input, 11)
	if len(got) != 11 {
		t.Fatalf("expected topK=11, got %d", len(got))
	}
	if got[10].Entry.ID != 11 {
		t.Fatalf("expected the unjudged tail to fill the list, got %+v", got[10])
	}
}

func TestRerankFallsBackOnJudgeError(t *testing.T) {
	client := &stubChatClient{completionErr: errors.New("timeout")}
	r := NewReranker(client, "gpt-4o-mini", 0.6, discardLogger())

	got := r.Rerank(context.Background(), "вопрос", rerankInput(), 2)
	if len(got) != 2 || got[0].Entry.ID != 1 || got[1].Entry.ID != 2 {
		t.Fatalf("expected original top 2 on failure, got %+v", got)
	}
}

func TestRerankFallsBackOnMalformedOutput(t *testing.T) {
	cases := []string{
		`not json`,
		`{"scores": [1]}`,
		`{"scores": [1, 11, 2]}`,
		`{"scores": [1, -1, 2]}`,
	}
	for _, content := range cases {
		client := &stubChatClient{completionResp: completionWith(content)}
		r := NewReranker(client, "gpt-4o-mini", 0.6, discardLogger())

		got := r.Rerank(context.Background(), "вопрос", rerankInput(), 2)
		if len(got) != 2 || got[0].Entry.ID != 1 {
			t.Fatalf("content %q: expected original ordering, got %+v", content, got)
		}
	}
}
