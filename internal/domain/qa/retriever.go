package qa

import (
	"context"
	"log/slog"
	"sort"

	apperrors "github.com/qazinvest/faq-assist/pkg/errors"
)

// Retriever produces ranked candidate lists using a hybrid strategy:
// vector similarity first, lexical search as fallback or blend.
type Retriever struct {
	repo              Repository
	weaknessThreshold float64
	keywordDiscount   float64
	logger            *slog.Logger
}

// NewRetriever constructs the retriever.
func NewRetriever(repo Repository, weaknessThreshold, keywordDiscount float64, logger *slog.Logger) *Retriever {
	if keywordDiscount <= 0 || keywordDiscount > 1 {
		keywordDiscount = 0.8
	}
	return &Retriever{
		repo:              repo,
		weaknessThreshold: weaknessThreshold,
		keywordDiscount:   keywordDiscount,
		logger:            logger.With("component", "qa.retriever"),
	}
}

// HybridSearch returns up to limit candidates ordered by score descending.
// Keyword hits only join the list when vector results are absent or weak,
// and always carry a discounted score so a direct vector hit outranks them
// on ties. The final sort is stable: retrieval order breaks ties.
func (r *Retriever) HybridSearch(ctx context.Context, queryText string, vector []float32, language string, limit int) ([]ScoredCandidate, error) {
	if limit <= 0 {
		limit = 10
	}

	hits, err := r.repo.VectorSearch(ctx, vector, language, limit)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.CodeRetrievalError, "vector search failed", err)
	}

	candidates := make([]ScoredCandidate, 0, len(hits))
	for _, h := range hits {
		candidates = append(candidates, ScoredCandidate{
			Entry:  h.Entry,
			Score:  clampScore(1 - h.Distance),
			Source: SourceVector,
		})
	}

	if r.needsKeywordFallback(candidates) {
		keywordHits, err := r.repo.KeywordSearch(ctx, Normalize(queryText), language, limit)
		if err != nil {
			return nil, apperrors.Wrap(apperrors.CodeRetrievalError, "keyword search failed", err)
		}
		seen := make(map[int64]struct{}, len(candidates))
		for _, c := range candidates {
			seen[c.Entry.ID] = struct{}{}
		}
		for _, h := range keywordHits {
			if _, dup := seen[h.Entry.ID]; dup {
				continue
			}
			candidates = append(candidates, ScoredCandidate{
				Entry:  h.Entry,
				Score:  clampScore(h.Rank * r.keywordDiscount),
				Source: SourceKeyword,
			})
		}
		r.logger.Debug("keyword fallback merged", "vector", len(hits), "keyword", len(keywordHits))
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].Score > candidates[j].Score
	})
	if len(candidates) > limit {
		candidates = candidates[:limit]
	}
	return candidates, nil
}

// Synonyms looks up enrichment terms for the query. Failures degrade to no
// enrichment rather than failing the pipeline.
func (r *Retriever) Synonyms(ctx context.Context, language, query string) []string {
	synonyms, err := r.repo.Synonyms(ctx, language, query)
	if err != nil {
		r.logger.Warn("synonym lookup failed", "error", err)
		return nil
	}
	return synonyms
}

func (r *Retriever) needsKeywordFallback(candidates []ScoredCandidate) bool {
	if len(candidates) == 0 {
		return true
	}
	best := candidates[0]
	for _, c := range candidates[1:] {
		if c.Score > best.Score {
			best = c
		}
	}
	return best.Score < r.weaknessThreshold
}

func clampScore(score float64) float64 {
	if score < 0 {
		return 0
	}
	if score > 1 {
		return 1
	}
	return score
}
