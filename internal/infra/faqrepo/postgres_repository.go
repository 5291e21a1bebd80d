package faqrepo

import (
	"context"
	"database/sql"
	"strings"

	"github.com/jackc/pgx/v5/pgxpool"
	pgvector "github.com/pgvector/pgvector-go"

	"github.com/qazinvest/faq-assist/internal/domain/qa"
)

// PostgresRepository implements qa.Repository using pgx.
type PostgresRepository struct {
	pool *pgxpool.Pool
}

// NewPostgresRepository constructs the repository.
func NewPostgresRepository(pool *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{pool: pool}
}

const entryColumns = `id, question, answer, category, language, video_reference, footer_disclaimer, published, created_at`

// VectorSearch returns published entries nearest to the query embedding.
// Distance is cosine, so 1-distance is the similarity the pipeline uses.
func (r *PostgresRepository) VectorSearch(ctx context.Context, vector []float32, language string, limit int) ([]qa.VectorHit, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+entryColumns+`, embedding <=> $1 AS distance
		FROM faq_entries
		WHERE language = $2 AND published AND embedding IS NOT NULL
		ORDER BY embedding <=> $1
		LIMIT $3
	`, pgvector.NewVector(vector), language, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var hits []qa.VectorHit
	for rows.Next() {
		var (
			hit      qa.VectorHit
			distance float64
		)
		entry, err := scanEntry(rows, &distance)
		if err != nil {
			return nil, err
		}
		hit.Entry = entry
		hit.Distance = distance
		hits = append(hits, hit)
	}
	return hits, rows.Err()
}

// KeywordSearch performs a lexical fallback over question and answer text.
// Question matches rank above answer-only matches.
func (r *PostgresRepository) KeywordSearch(ctx context.Context, query string, language string, limit int) ([]qa.KeywordHit, error) {
	pattern := "%" + query + "%"
	rows, err := r.pool.Query(ctx, `
		SELECT `+entryColumns+`,
			CASE
				WHEN question ILIKE $1 THEN 1.0
				ELSE 0.5
			END AS rank
		FROM faq_entries
		WHERE language = $2 AND published
			AND (question ILIKE $1 OR answer ILIKE $1)
		ORDER BY rank DESC, created_at DESC
		LIMIT $3
	`, pattern, language, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var hits []qa.KeywordHit
	for rows.Next() {
		var (
			hit  qa.KeywordHit
			rank float64
		)
		entry, err := scanEntry(rows, &rank)
		if err != nil {
			return nil, err
		}
		hit.Entry = entry
		hit.Rank = rank
		hits = append(hits, hit)
	}
	return hits, rows.Err()
}

// Synonyms collects expansion terms whose base term or synonym list touches
// the query. The match runs both directions so either side can trigger it.
func (r *PostgresRepository) Synonyms(ctx context.Context, language, query string) ([]string, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT DISTINCT UNNEST(synonyms)
		FROM faq_synonyms
		WHERE language = $1
			AND ($2 ILIKE '%' || term || '%' OR term ILIKE '%' || $2 || '%')
	`, language, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var terms []string
	for rows.Next() {
		var term string
		if err := rows.Scan(&term); err != nil {
			return nil, err
		}
		if strings.TrimSpace(term) != "" {
			terms = append(terms, term)
		}
	}
	return terms, rows.Err()
}

// GetByID fetches a single published entry.
func (r *PostgresRepository) GetByID(ctx context.Context, id int64) (qa.FAQEntry, bool, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+entryColumns+`
		FROM faq_entries
		WHERE id = $1 AND published
		LIMIT 1
	`, id)
	if err != nil {
		return qa.FAQEntry{}, false, err
	}
	defer rows.Close()
	if !rows.Next() {
		return qa.FAQEntry{}, false, rows.Err()
	}
	entry, err := scanEntry(rows)
	if err != nil {
		return qa.FAQEntry{}, false, err
	}
	return entry, true, rows.Err()
}

// Categories lists distinct categories for a language.
func (r *PostgresRepository) Categories(ctx context.Context, language string) ([]string, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT DISTINCT category
		FROM faq_entries
		WHERE language = $1 AND published AND category <> ''
		ORDER BY category
	`, language)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var categories []string
	for rows.Next() {
		var category string
		if err := rows.Scan(&category); err != nil {
			return nil, err
		}
		categories = append(categories, category)
	}
	return categories, rows.Err()
}

// ByCategory pages through entries of one category.
func (r *PostgresRepository) ByCategory(ctx context.Context, category, language string, offset, limit int) ([]qa.FAQEntry, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+entryColumns+`
		FROM faq_entries
		WHERE category = $1 AND language = $2 AND published
		ORDER BY id
		OFFSET $3 LIMIT $4
	`, category, language, offset, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []qa.FAQEntry
	for rows.Next() {
		entry, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, entry)
	}
	return entries, rows.Err()
}

// Stats summarizes the published corpus.
func (r *PostgresRepository) Stats(ctx context.Context) (qa.Stats, error) {
	var stats qa.Stats
	err := r.pool.QueryRow(ctx, `
		SELECT
			COUNT(*),
			COUNT(*) FILTER (WHERE video_reference <> ''),
			COUNT(*) FILTER (WHERE language = 'kk'),
			COUNT(*) FILTER (WHERE language = 'ru')
		FROM faq_entries
		WHERE published
	`).Scan(&stats.Total, &stats.WithVideo, &stats.Kazakh, &stats.Russian)
	if err != nil {
		return qa.Stats{}, err
	}
	return stats, nil
}

// MissingEmbeddings lists published entries the backfill worker still owes
// a vector.
func (r *PostgresRepository) MissingEmbeddings(ctx context.Context, limit int) ([]qa.FAQEntry, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+entryColumns+`
		FROM faq_entries
		WHERE published AND embedding IS NULL
		ORDER BY id
		LIMIT $1
	`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []qa.FAQEntry
	for rows.Next() {
		entry, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, entry)
	}
	return entries, rows.Err()
}

// SetEmbedding stores a freshly computed vector.
func (r *PostgresRepository) SetEmbedding(ctx context.Context, id int64, vector []float32) error {
	_, err := r.pool.Exec(ctx, `
		UPDATE faq_entries
		SET embedding = $2
		WHERE id = $1
	`, id, pgvector.NewVector(vector))
	return err
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanEntry(row rowScanner, extras ...any) (qa.FAQEntry, error) {
	var (
		entry      qa.FAQEntry
		category   sql.NullString
		video      sql.NullString
		disclaimer sql.NullString
	)
	args := []any{
		&entry.ID, &entry.Question, &entry.Answer, &category, &entry.Language,
		&video, &disclaimer, &entry.Published, &entry.CreatedAt,
	}
	args = append(args, extras...)
	if err := row.Scan(args...); err != nil {
		return qa.FAQEntry{}, err
	}
	entry.Category = category.String
	entry.VideoReference = video.String
	entry.FooterDisclaimer = disclaimer.String
	return entry, nil
}

var _ qa.Repository = (*PostgresRepository)(nil)
