package qa

import (
	"context"
	"log/slog"
	"strings"

	"github.com/google/uuid"

	apperrors "github.com/qazinvest/faq-assist/pkg/errors"
)

// Service is the single entry point the transports call.
type Service interface {
	ProcessQuery(ctx context.Context, q Query) (DecisionResult, error)
	PopularQueries(ctx context.Context, limit int) ([]PopularQuery, error)

	FAQByID(ctx context.Context, id int64) (FAQEntry, error)
	Categories(ctx context.Context, language string) ([]string, error)
	FAQsByCategory(ctx context.Context, category, language string, offset, limit int) ([]FAQEntry, error)
	CorpusStats(ctx context.Context) (Stats, error)
}

type service struct {
	cfg       Config
	repo      Repository
	cache     ResultCache
	embedder  *Embedder
	retriever *Retriever
	reranker  *Reranker
	engine    *Engine
	synth     *Synthesizer
	logger    *slog.Logger
}

// NewService wires up the question answering pipeline.
func NewService(cfg Config, repo Repository, cache ResultCache, client ChatClient, logger *slog.Logger) Service {
	return &service{
		cfg:       cfg,
		repo:      repo,
		cache:     cache,
		embedder:  NewEmbedder(client, cfg.EmbeddingModel, cfg.EmbedMaxTokens, logger),
		retriever: NewRetriever(repo, cfg.VectorWeaknessThreshold, cfg.KeywordDiscount, logger),
		reranker:  NewReranker(client, cfg.Model, cfg.RerankBlend, logger),
		engine:    NewEngine(cfg.Thresholds),
		synth:     NewSynthesizer(client, cfg.Model, cfg.Temperature, cfg.ContextBudget, logger),
		logger:    logger.With("component", "qa.service"),
	}
}

// ProcessQuery runs the full pipeline: intent pre-filter, normalization and
// embedding with synonym enrichment, cache check, hybrid retrieval, optional
// rerank, decision, cache save. Stages execute strictly in this order.
func (s *service) ProcessQuery(ctx context.Context, q Query) (DecisionResult, error) {
	question := strings.TrimSpace(q.Text)
	if question == "" {
		return DecisionResult{}, apperrors.Wrap(apperrors.CodeInvalidInput, "question cannot be empty", nil)
	}

	traceID := uuid.NewString()
	language := ResolveLanguage(q.Language, question)
	log := s.logger.With("trace", traceID, "language", language)

	intent := ClassifyIntent(question)
	log.Info("query received", "intent", intent, "len", len([]rune(question)))

	switch intent {
	case IntentGreeting:
		return s.greetingResult(ctx, question, language, traceID), nil
	case IntentOffTopic:
		return DecisionResult{
			Action:    ActionNoMatch,
			Score:     0.0,
			Rationale: "off_topic",
			Language:  language,
			TraceID:   traceID,
		}, nil
	}

	limit := s.cfg.SearchLimit
	if intent == IntentVague {
		// vague queries get a reduced-scope search to produce
		// clarification options, not a direct answer
		limit = s.cfg.VagueSearchLimit
	}

	synonyms := s.retriever.Synonyms(ctx, language, question)
	enriched, err := s.embedder.EmbedWithEnrichment(ctx, question, synonyms)
	if err != nil {
		return DecisionResult{}, err
	}

	useCache := q.Options.UseCache && s.cfg.CacheEnabled
	if useCache {
		if cached, ok := s.checkCache(ctx, enriched.Fingerprint, language, log); ok {
			result := s.assemble(ctx, question, summariesToCandidates(cached.Results, language), language, traceID, false)
			result.FromCache = true
			log.Info("served from cache", "action", result.Action, "hits", cached.HitCount)
			return result, nil
		}
	}

	candidates, err := s.retriever.HybridSearch(ctx, question, enriched.Vector, language, limit)
	if err != nil {
		return DecisionResult{}, err
	}

	if q.Options.UseRerank && len(candidates) > s.cfg.RerankTopK {
		candidates = s.reranker.Rerank(ctx, question, candidates, s.cfg.RerankTopK)
	}

	result := s.assemble(ctx, question, candidates, language, traceID, s.cfg.SynthesizeMedium)

	if useCache {
		s.saveCache(ctx, CachedResult{
			Fingerprint:     enriched.Fingerprint,
			NormalizedQuery: enriched.Normalized,
			Language:        language,
			Results:         candidatesToSummaries(candidates),
		}, log)
	}

	log.Info("query decided", "action", result.Action, "score", result.Score, "rationale", result.Rationale, "candidates", len(candidates))
	return result, nil
}

// assemble turns a candidate list into the transport-facing result and fills
// in the answer text for direct answers.
func (s *service) assemble(ctx context.Context, question string, candidates []ScoredCandidate, language, traceID string, synthesize bool) DecisionResult {
	decision := s.engine.Decide(candidates)
	result := DecisionResult{
		Action:      decision.Action,
		Supporting:  candidatesToSummaries(decision.Supporting),
		Score:       decision.Score,
		Rationale:   decision.Rationale,
		Language:    language,
		TraceID:     traceID,
		Diagnostics: candidatesToSummaries(decision.Diagnostics),
	}
	if decision.Best != nil {
		summary := candidateToSummary(*decision.Best, 1)
		result.Best = &summary
	}

	if decision.Action != ActionDirectAnswer || decision.Best == nil {
		return result
	}

	result.Answer = answerText(decision.Best.Entry)
	if synthesize && decision.Rationale == RationaleSingleMediumMatch && len(decision.Supporting) > 0 {
		// a lone medium match reads better synthesized from the
		// surrounding snippets; fall back to the stored answer
		answer, err := s.synth.AnswerFromFAQs(ctx, question, decision.Supporting, language)
		if err != nil {
			s.logger.Warn("answer synthesis failed, using stored answer", "trace", traceID, "error", err)
		} else {
			result.Answer = answer
		}
	}
	return result
}

func (s *service) greetingResult(ctx context.Context, question, language, traceID string) DecisionResult {
	answer, err := s.synth.Greeting(ctx, question, language)
	if err != nil {
		s.logger.Warn("greeting synthesis failed, using template", "trace", traceID, "error", err)
		answer = greetingTemplate(language)
	}
	answer += exampleQuestions(language)
	return DecisionResult{
		Action:    ActionDirectAnswer,
		Answer:    answer,
		Score:     1.0,
		Rationale: "greeting",
		Language:  language,
		TraceID:   traceID,
	}
}

func (s *service) checkCache(ctx context.Context, fingerprint, language string, log *slog.Logger) (CachedResult, bool) {
	cached, ok, err := s.cache.Check(ctx, fingerprint, language)
	if err != nil {
		// the cache is an optimization, never a correctness dependency
		log.Warn("cache check failed, treating as miss", "error", err)
		return CachedResult{}, false
	}
	return cached, ok
}

func (s *service) saveCache(ctx context.Context, result CachedResult, log *slog.Logger) {
	if err := s.cache.Save(ctx, result, s.cfg.CacheTTL); err != nil {
		log.Warn("cache save failed", "error", err)
	}
}

func (s *service) PopularQueries(ctx context.Context, limit int) ([]PopularQuery, error) {
	queries, err := s.cache.PopularQueries(ctx, limit)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.CodeCacheError, "popular queries lookup failed", err)
	}
	return queries, nil
}

func (s *service) FAQByID(ctx context.Context, id int64) (FAQEntry, error) {
	entry, found, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return FAQEntry{}, apperrors.Wrap(apperrors.CodeRetrievalError, "faq lookup failed", err)
	}
	if !found {
		return FAQEntry{}, apperrors.Wrap(apperrors.CodeNotFound, "faq not found", nil)
	}
	return entry, nil
}

func (s *service) Categories(ctx context.Context, language string) ([]string, error) {
	categories, err := s.repo.Categories(ctx, language)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.CodeRetrievalError, "categories lookup failed", err)
	}
	return categories, nil
}

func (s *service) FAQsByCategory(ctx context.Context, category, language string, offset, limit int) ([]FAQEntry, error) {
	entries, err := s.repo.ByCategory(ctx, category, language, offset, limit)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.CodeRetrievalError, "category lookup failed", err)
	}
	return entries, nil
}

func (s *service) CorpusStats(ctx context.Context) (Stats, error) {
	stats, err := s.repo.Stats(ctx)
	if err != nil {
		return Stats{}, apperrors.Wrap(apperrors.CodeRetrievalError, "stats lookup failed", err)
	}
	return stats, nil
}

func answerText(entry FAQEntry) string {
	if entry.FooterDisclaimer == "" {
		return entry.Answer
	}
	return entry.Answer + "\n\n" + entry.FooterDisclaimer
}

func candidateToSummary(c ScoredCandidate, rank int) CandidateSummary {
	return CandidateSummary{
		FAQID:          c.Entry.ID,
		Question:       c.Entry.Question,
		Answer:         c.Entry.Answer,
		VideoReference: c.Entry.VideoReference,
		Category:       c.Entry.Category,
		Score:          c.Score,
		Rank:           rank,
	}
}

func candidatesToSummaries(candidates []ScoredCandidate) []CandidateSummary {
	if len(candidates) == 0 {
		return nil
	}
	summaries := make([]CandidateSummary, len(candidates))
	for i, c := range candidates {
		summaries[i] = candidateToSummary(c, i+1)
	}
	return summaries
}

func summariesToCandidates(summaries []CandidateSummary, language string) []ScoredCandidate {
	candidates := make([]ScoredCandidate, len(summaries))
	for i, s := range summaries {
		candidates[i] = ScoredCandidate{
			Entry: FAQEntry{
				ID:             s.FAQID,
				Question:       s.Question,
				Answer:         s.Answer,
				VideoReference: s.VideoReference,
				Category:       s.Category,
				Language:       language,
			},
			Score: s.Score,
		}
	}
	return candidates
}

func greetingTemplate(language string) string {
	if language == LanguageKazakh {
		return "Сәлеметсіз бе! Мен инвестиция бойынша сұрақтарға жауап беремін."
	}
	return "Здравствуйте! Я отвечаю на вопросы об инвестициях."
}

func exampleQuestions(language string) string {
	if language == LanguageKazakh {
		return "\n\nМысалы:\n• Шот қалай ашамыз?\n• Облигация қалай аламыз?\n• Валюта айырбасы"
	}
	return "\n\nНапример:\n• Как открыть счет?\n• Как купить облигацию?\n• Обмен валюты"
}
