package qa

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/qazinvest/faq-assist/internal/infra/llm/chatgpt"
	apperrors "github.com/qazinvest/faq-assist/pkg/errors"
	"github.com/qazinvest/faq-assist/pkg/metrics"
	"github.com/qazinvest/faq-assist/pkg/tokens"
)

// Synthesizer phrases clarifications and synthesizes answers from retrieved
// FAQ snippets. The system prompt pins the model to the supplied context;
// inventing answers is forbidden by instruction.
type Synthesizer struct {
	client        ChatClient
	model         string
	temperature   float32
	contextBudget int
	logger        *slog.Logger
}

// NewSynthesizer constructs the generative collaborator.
func NewSynthesizer(client ChatClient, model string, temperature float32, contextBudget int, logger *slog.Logger) *Synthesizer {
	if contextBudget <= 0 {
		contextBudget = 3000
	}
	return &Synthesizer{
		client:        client,
		model:         model,
		temperature:   temperature,
		contextBudget: contextBudget,
		logger:        logger.With("component", "qa.synthesizer"),
	}
}

func systemPrompt(language string) string {
	if language == LanguageKazakh {
		return `Сіз — инвестициялық көмекші боттың AI-ассистентісіз.
Сізде тек табылған FAQ контенті бар. Жауаптарды ОЙЛАП ШЫҒАРМАЙСЫЗ,
тек берілген контентті қолданасыз. Күмән болса — нақтылаушы сұрақ қойыңыз.
Берілген контексттен тыс кеңес беруге тыйым салынған.`
	}
	return `Ты — AI-ассистент инвестиционного бота-помощника.
У тебя есть только найденный FAQ-контент. Ты НЕ придумываешь ответы
и используешь только предоставленный контент. Если есть сомнение —
задай уточняющий вопрос. Советы вне переданного контекста запрещены.`
}

// Greeting produces a short persona reply for greeting intents.
func (s *Synthesizer) Greeting(ctx context.Context, question, language string) (string, error) {
	var user string
	if language == LanguageKazakh {
		user = fmt.Sprintf("Пайдаланушы жазды: %q\n\nДостық тонмен қысқа жауап бер (2-3 сөйлем) және не істей алатыныңды айт.", question)
	} else {
		user = fmt.Sprintf("Пользователь написал: %q\n\nОтветь дружелюбно и кратко (2-3 предложения) и объясни, что ты умеешь.", question)
	}
	return s.complete(ctx, language, user, 300)
}

// AnswerFromFAQs synthesizes one answer strictly from the matched snippets.
func (s *Synthesizer) AnswerFromFAQs(ctx context.Context, question string, matches []ScoredCandidate, language string) (string, error) {
	if len(matches) == 0 {
		return "", apperrors.Wrap(apperrors.CodeInvalidInput, "no matches to synthesize from", nil)
	}
	var sb strings.Builder
	for i, m := range matches {
		fmt.Fprintf(&sb, "%d) Вопрос: %s\nОтвет: %s\n\n", i+1, m.Entry.Question, m.Entry.Answer)
	}
	snippets := tokens.Truncate(sb.String(), s.contextBudget)

	var user string
	if language == LanguageKazakh {
		user = fmt.Sprintf("Пайдаланушы сұрады: %q\n\nТабылған контент:\n%s\nТек осы контентке сүйеніп қысқа жауап бер.", question, snippets)
	} else {
		user = fmt.Sprintf("Пользователь спросил: %q\n\nНайденный контент:\n%s\nОтветь кратко, опираясь ТОЛЬКО на этот контент.", question, snippets)
	}
	return s.complete(ctx, language, user, 500)
}

// Clarification phrases a clarifying question over the option set.
func (s *Synthesizer) Clarification(ctx context.Context, question string, options []ScoredCandidate, language string) (string, error) {
	var sb strings.Builder
	for i, o := range options {
		fmt.Fprintf(&sb, "%d. %s\n", i+1, o.Entry.Question)
	}
	var user string
	if language == LanguageKazakh {
		user = fmt.Sprintf("Пайдаланушы сұрады: %q\n\nНұсқалар:\n%s\nҚысқа нақтылаушы сұрақ қой (макс 2 сөйлем), нұсқаларды нөмірмен тізіп жаз.", question, sb.String())
	} else {
		user = fmt.Sprintf("Пользователь спросил: %q\n\nВарианты:\n%s\nЗадай короткий уточняющий вопрос (макс 2 предложения), перечисли варианты по номерам.", question, sb.String())
	}
	return s.complete(ctx, language, user, 300)
}

func (s *Synthesizer) complete(ctx context.Context, language, user string, maxTokens int) (string, error) {
	resp, err := s.client.CreateChatCompletion(ctx, chatgpt.ChatCompletionRequest{
		Model:       s.model,
		Temperature: s.temperature,
		MaxTokens:   maxTokens,
		Messages: []chatgpt.Message{
			{Role: "system", Content: systemPrompt(language)},
			{Role: "user", Content: user},
		},
	})
	if err != nil {
		return "", apperrors.Wrap(apperrors.CodeUpstreamUnavailable, "text generation failed", err)
	}
	if len(resp.Choices) == 0 {
		return "", apperrors.Wrap(apperrors.CodeUpstreamUnavailable, "text generation returned no choices", nil)
	}
	answer := strings.TrimSpace(resp.Choices[0].Message.Content)
	if answer == "" {
		return "", apperrors.Wrap(apperrors.CodeUpstreamUnavailable, "text generation returned empty content", nil)
	}
	usage := metrics.TokenUsage{
		PromptTokens:     resp.Usage.PromptTokens,
		CompletionTokens: resp.Usage.CompletionTokens,
		TotalTokens:      resp.Usage.TotalTokens,
	}
	if !usage.IsZero() {
		s.logger.Debug("synthesis tokens", "prompt", usage.PromptTokens, "completion", usage.CompletionTokens)
	}
	return answer, nil
}
