package qa

import (
	"context"
	"log/slog"
	"time"

	apperrors "github.com/qazinvest/faq-assist/pkg/errors"
)

// Backfiller populates missing embedding vectors for published FAQ entries.
// Content management creates entries without vectors; this worker fills them
// in asynchronously so the query path always reads, never writes.
type Backfiller struct {
	repo      Repository
	embedder  *Embedder
	batchSize int
	interval  time.Duration
	logger    *slog.Logger
}

// NewBackfiller constructs the worker.
func NewBackfiller(repo Repository, embedder *Embedder, batchSize int, interval time.Duration, logger *slog.Logger) *Backfiller {
	if batchSize <= 0 {
		batchSize = 20
	}
	if interval <= 0 {
		interval = 5 * time.Minute
	}
	return &Backfiller{
		repo:      repo,
		embedder:  embedder,
		batchSize: batchSize,
		interval:  interval,
		logger:    logger.With("component", "qa.backfill"),
	}
}

// Run loops until the context is cancelled, processing one batch per tick.
func (b *Backfiller) Run(ctx context.Context) error {
	ticker := time.NewTicker(b.interval)
	defer ticker.Stop()

	for {
		if n, err := b.RunOnce(ctx); err != nil {
			b.logger.Warn("backfill batch failed", "error", err)
		} else if n > 0 {
			b.logger.Info("backfill batch done", "embedded", n)
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

// RunOnce embeds one batch of entries lacking vectors and returns how many
// were filled in.
func (b *Backfiller) RunOnce(ctx context.Context) (int, error) {
	entries, err := b.repo.MissingEmbeddings(ctx, b.batchSize)
	if err != nil {
		return 0, apperrors.Wrap(apperrors.CodeRetrievalError, "missing embeddings lookup failed", err)
	}
	if len(entries) == 0 {
		return 0, nil
	}

	texts := make([]string, len(entries))
	for i, e := range entries {
		texts[i] = e.Question + " " + e.Answer
	}
	vectors, err := b.embedder.EmbedBatch(ctx, texts)
	if err != nil {
		return 0, err
	}

	filled := 0
	for i, e := range entries {
		if err := b.repo.SetEmbedding(ctx, e.ID, vectors[i]); err != nil {
			b.logger.Warn("embedding store failed", "faqId", e.ID, "error", err)
			continue
		}
		filled++
	}
	return filled, nil
}

// Rebuild recomputes the vector for a single entry, used by the internal
// content-webhook endpoint after an edit.
func (b *Backfiller) Rebuild(ctx context.Context, id int64) error {
	entry, found, err := b.repo.GetByID(ctx, id)
	if err != nil {
		return apperrors.Wrap(apperrors.CodeRetrievalError, "faq lookup failed", err)
	}
	if !found {
		return apperrors.Wrap(apperrors.CodeNotFound, "faq not found", nil)
	}
	vector, err := b.embedder.Embed(ctx, entry.Question+" "+entry.Answer)
	if err != nil {
		return err
	}
	if err := b.repo.SetEmbedding(ctx, id, vector); err != nil {
		return apperrors.Wrap(apperrors.CodeRetrievalError, "embedding store failed", err)
	}
	return nil
}
