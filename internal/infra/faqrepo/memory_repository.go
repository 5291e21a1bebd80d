package faqrepo

import (
	"context"
	"math"
	"sort"
	"strings"
	"sync"

	"github.com/qazinvest/faq-assist/internal/domain/qa"
)

// MemoryRepository is an in-memory qa.Repository used for tests/dev and as
// a degraded mode when Postgres is unreachable at startup.
type MemoryRepository struct {
	mu     sync.RWMutex
	nextID int64

	entries  map[int64]qa.FAQEntry
	synonyms []qa.SynonymEntry
}

// NewMemoryRepository constructs a repo backed by memory.
func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{
		nextID:  1,
		entries: make(map[int64]qa.FAQEntry),
	}
}

// Seed loads entries, assigning IDs where missing.
func (r *MemoryRepository) Seed(entries []qa.FAQEntry) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, entry := range entries {
		if entry.ID == 0 {
			entry.ID = r.nextID
		}
		if entry.ID >= r.nextID {
			r.nextID = entry.ID + 1
		}
		r.entries[entry.ID] = entry
	}
}

// SeedSynonyms loads the synonym dictionary.
func (r *MemoryRepository) SeedSynonyms(entries []qa.SynonymEntry) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.synonyms = append(r.synonyms, entries...)
}

// VectorSearch implements qa.Repository using cosine distance.
func (r *MemoryRepository) VectorSearch(_ context.Context, vector []float32, language string, limit int) ([]qa.VectorHit, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var hits []qa.VectorHit
	for _, entry := range r.entries {
		if !entry.Published || entry.Language != language || len(entry.Embedding) == 0 {
			continue
		}
		hits = append(hits, qa.VectorHit{
			Entry:    entry,
			Distance: cosineDistance(vector, entry.Embedding),
		})
	}
	sort.Slice(hits, func(i, j int) bool { return hits[i].Distance < hits[j].Distance })
	if len(hits) > limit {
		hits = hits[:limit]
	}
	return hits, nil
}

// KeywordSearch implements qa.Repository with token overlap ranking.
func (r *MemoryRepository) KeywordSearch(_ context.Context, query string, language string, limit int) ([]qa.KeywordHit, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	needle := strings.ToLower(strings.TrimSpace(query))
	if needle == "" {
		return nil, nil
	}

	var hits []qa.KeywordHit
	for _, entry := range r.entries {
		if !entry.Published || entry.Language != language {
			continue
		}
		switch {
		case strings.Contains(strings.ToLower(entry.Question), needle):
			hits = append(hits, qa.KeywordHit{Entry: entry, Rank: 1.0})
		case strings.Contains(strings.ToLower(entry.Answer), needle):
			hits = append(hits, qa.KeywordHit{Entry: entry, Rank: 0.5})
		}
	}
	sort.SliceStable(hits, func(i, j int) bool { return hits[i].Rank > hits[j].Rank })
	if len(hits) > limit {
		hits = hits[:limit]
	}
	return hits, nil
}

// Synonyms implements qa.Repository.
func (r *MemoryRepository) Synonyms(_ context.Context, language, query string) ([]string, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	needle := strings.ToLower(query)
	seen := make(map[string]struct{})
	var terms []string
	for _, entry := range r.synonyms {
		if entry.Language != language {
			continue
		}
		term := strings.ToLower(entry.Term)
		if !strings.Contains(needle, term) && !strings.Contains(term, needle) {
			continue
		}
		for _, syn := range entry.Synonyms {
			if _, ok := seen[syn]; ok {
				continue
			}
			seen[syn] = struct{}{}
			terms = append(terms, syn)
		}
	}
	return terms, nil
}

// GetByID implements qa.Repository.
func (r *MemoryRepository) GetByID(_ context.Context, id int64) (qa.FAQEntry, bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	entry, ok := r.entries[id]
	if !ok || !entry.Published {
		return qa.FAQEntry{}, false, nil
	}
	return entry, true, nil
}

// Categories implements qa.Repository.
func (r *MemoryRepository) Categories(_ context.Context, language string) ([]string, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	seen := make(map[string]struct{})
	var categories []string
	for _, entry := range r.entries {
		if !entry.Published || entry.Language != language || entry.Category == "" {
			continue
		}
		if _, ok := seen[entry.Category]; ok {
			continue
		}
		seen[entry.Category] = struct{}{}
		categories = append(categories, entry.Category)
	}
	sort.Strings(categories)
	return categories, nil
}

// ByCategory implements qa.Repository.
func (r *MemoryRepository) ByCategory(_ context.Context, category, language string, offset, limit int) ([]qa.FAQEntry, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var entries []qa.FAQEntry
	for _, entry := range r.entries {
		if !entry.Published || entry.Language != language || entry.Category != category {
			continue
		}
		entries = append(entries, entry)
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].ID < entries[j].ID })

	if offset >= len(entries) {
		return nil, nil
	}
	entries = entries[offset:]
	if len(entries) > limit {
		entries = entries[:limit]
	}
	return entries, nil
}

// Stats implements qa.Repository.
func (r *MemoryRepository) Stats(context.Context) (qa.Stats, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var stats qa.Stats
	for _, entry := range r.entries {
		if !entry.Published {
			continue
		}
		stats.Total++
		if entry.VideoReference != "" {
			stats.WithVideo++
		}
		switch entry.Language {
		case qa.LanguageKazakh:
			stats.Kazakh++
		case qa.LanguageRussian:
			stats.Russian++
		}
	}
	return stats, nil
}

// MissingEmbeddings implements qa.Repository.
func (r *MemoryRepository) MissingEmbeddings(_ context.Context, limit int) ([]qa.FAQEntry, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var entries []qa.FAQEntry
	for _, entry := range r.entries {
		if !entry.Published || len(entry.Embedding) > 0 {
			continue
		}
		entries = append(entries, entry)
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].ID < entries[j].ID })
	if len(entries) > limit {
		entries = entries[:limit]
	}
	return entries, nil
}

// SetEmbedding implements qa.Repository.
func (r *MemoryRepository) SetEmbedding(_ context.Context, id int64, vector []float32) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	entry, ok := r.entries[id]
	if !ok {
		return nil
	}
	entry.Embedding = append([]float32(nil), vector...)
	r.entries[id] = entry
	return nil
}

func cosineDistance(a, b []float32) float64 {
	length := len(a)
	if len(b) < length {
		length = len(b)
	}
	var dot, normA, normB float64
	for i := 0; i < length; i++ {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 1
	}
	return 1 - dot/(math.Sqrt(normA)*math.Sqrt(normB))
}

var _ qa.Repository = (*MemoryRepository)(nil)
