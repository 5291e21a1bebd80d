package qa

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"github.com/qazinvest/faq-assist/internal/infra/llm/chatgpt"
)

const maxJudgedCandidates = 10

// Reranker refines the retriever's top candidates with a stronger relevance
// judgment from the language model. Best effort only: any failure returns the
// original ordering.
type Reranker struct {
	client ChatClient
	model  string
	blend  float64
	logger *slog.Logger
}

// NewReranker constructs the reranker. blend weights the external judgment
// against the retrieval score; the judgment wins by default because it sees
// the full question context the vector score does not.
func NewReranker(client ChatClient, model string, blend float64, logger *slog.Logger) *Reranker {
	if blend <= 0 || blend > 1 {
		blend = 0.6
	}
	return &Reranker{
		client: client,
		model:  model,
		blend:  blend,
		logger: logger.With("component", "qa.reranker"),
	}
}

type judgeResponse struct {
	Scores []int `json:"scores"`
}

// Rerank re-scores the leading candidates and returns at most topK of them.
// When the list already fits in topK there is nothing to trim, so the input
// is returned unchanged.
func (r *Reranker) Rerank(ctx context.Context, question string, candidates []ScoredCandidate, topK int) []ScoredCandidate {
	if topK <= 0 || len(candidates) <= topK {
		return candidates
	}

	judged := candidates
	if len(judged) > maxJudgedCandidates {
		judged = judged[:maxJudgedCandidates]
	}

	scores, err := r.judge(ctx, question, judged)
	if err != nil {
		r.logger.Warn("rerank judgment failed, keeping retrieval order", "error", err)
		return candidates[:topK]
	}

	reranked := make([]ScoredCandidate, len(judged))
	for i, c := range judged {
		c.Score = r.blend*(float64(scores[i])/10) + (1-r.blend)*c.Score
		reranked[i] = c
	}
	sort.SliceStable(reranked, func(i, j int) bool {
		return reranked[i].Score > reranked[j].Score
	})
	if len(reranked) > topK {
		return reranked[:topK]
	}
	if len(reranked) < topK {
		// the judged window is capped; fill the remainder from the
		// unjudged tail in retrieval order
		reranked = append(reranked, candidates[len(judged):topK]...)
	}
	return reranked
}

func (r *Reranker) judge(ctx context.Context, question string, candidates []ScoredCandidate) ([]int, error) {
	var sb strings.Builder
	for i, c := range candidates {
		fmt.Fprintf(&sb, "%d. %s\n", i, c.Entry.Question)
	}

	system := "You score how relevant each FAQ question is to the user question. " +
		"Respond with strict JSON: {\"scores\": [..]} containing one integer from 0 to 10 " +
		"per candidate, in the given order. No other text."
	user := fmt.Sprintf("User question: %s\n\nCandidates:\n%s", question, sb.String())

	resp, err := r.client.CreateChatCompletion(ctx, chatgpt.ChatCompletionRequest{
		Model:          r.model,
		Messages:       []chatgpt.Message{{Role: "system", Content: system}, {Role: "user", Content: user}},
		Temperature:    0,
		ResponseFormat: &chatgpt.ResponseFormat{Type: "json_object"},
	})
	if err != nil {
		return nil, err
	}
	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("judge returned no choices")
	}

	var parsed judgeResponse
	if err := json.Unmarshal([]byte(resp.Choices[0].Message.Content), &parsed); err != nil {
		return nil, fmt.Errorf("judge output not valid JSON: %w", err)
	}
	if len(parsed.Scores) != len(candidates) {
		return nil, fmt.Errorf("judge returned %d scores for %d candidates", len(parsed.Scores), len(candidates))
	}
	for _, s := range parsed.Scores {
		if s < 0 || s > 10 {
			return nil, fmt.Errorf("judge score %d out of range", s)
		}
	}
	return parsed.Scores, nil
}
