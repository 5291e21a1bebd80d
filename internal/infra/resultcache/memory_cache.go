package resultcache

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/qazinvest/faq-assist/internal/domain/qa"
)

type cachedEntry struct {
	payload   qa.CachedResult
	expiresAt time.Time
}

// MemoryCache is an in-memory qa.ResultCache used for tests/dev and as a
// degraded mode when Valkey is unreachable at startup. A max-entries bound
// with LRU eviction keeps a long-lived process from growing without limit.
type MemoryCache struct {
	mu         sync.Mutex
	maxEntries int

	results map[string]cachedEntry
	popular map[string]int64
}

// NewMemoryCache constructs a cache backed by process memory.
func NewMemoryCache(maxEntries int) *MemoryCache {
	if maxEntries <= 0 {
		maxEntries = 10000
	}
	return &MemoryCache{
		maxEntries: maxEntries,
		results:    make(map[string]cachedEntry),
		popular:    make(map[string]int64),
	}
}

// Check implements qa.ResultCache.
func (c *MemoryCache) Check(_ context.Context, fingerprint, language string) (qa.CachedResult, bool, error) {
	if fingerprint == "" {
		return qa.CachedResult{}, false, nil
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	key := cacheKey(fingerprint, language)
	entry, ok := c.results[key]
	if !ok {
		return qa.CachedResult{}, false, nil
	}
	if hasExpired(entry.expiresAt) {
		delete(c.results, key)
		return qa.CachedResult{}, false, nil
	}

	entry.payload.HitCount++
	entry.payload.LastUsedAt = time.Now().UTC()
	c.results[key] = entry
	c.popular[entry.payload.NormalizedQuery]++

	return entry.payload, true, nil
}

// Save implements qa.ResultCache. The first stored payload for a
// fingerprint wins; later writers only bump popularity and the stored
// bookkeeping fields.
func (c *MemoryCache) Save(_ context.Context, result qa.CachedResult, ttl time.Duration) error {
	if result.Fingerprint == "" {
		return nil
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	c.popular[result.NormalizedQuery]++

	key := cacheKey(result.Fingerprint, result.Language)
	if existing, ok := c.results[key]; ok && !hasExpired(existing.expiresAt) {
		existing.payload.HitCount++
		existing.payload.LastUsedAt = time.Now().UTC()
		c.results[key] = existing
		return nil
	}

	if len(c.results) >= c.maxEntries {
		c.evictOldest()
	}

	exp := time.Time{}
	if ttl > 0 {
		exp = time.Now().Add(ttl)
	}
	if result.LastUsedAt.IsZero() {
		result.LastUsedAt = time.Now().UTC()
	}
	c.results[key] = cachedEntry{payload: result, expiresAt: exp}
	return nil
}

// PopularQueries implements qa.ResultCache.
func (c *MemoryCache) PopularQueries(_ context.Context, limit int) ([]qa.PopularQuery, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if limit <= 0 {
		limit = len(c.popular)
	}
	items := make([]qa.PopularQuery, 0, len(c.popular))
	for query, count := range c.popular {
		items = append(items, qa.PopularQuery{Query: query, Count: count})
	}
	sort.Slice(items, func(i, j int) bool {
		if items[i].Count == items[j].Count {
			return items[i].Query < items[j].Query
		}
		return items[i].Count > items[j].Count
	})
	if len(items) > limit {
		items = items[:limit]
	}
	return items, nil
}

// evictOldest drops the least recently used entry. Callers hold the lock.
func (c *MemoryCache) evictOldest() {
	var (
		oldestKey string
		oldestAt  time.Time
	)
	for key, entry := range c.results {
		if oldestKey == "" || entry.payload.LastUsedAt.Before(oldestAt) {
			oldestKey = key
			oldestAt = entry.payload.LastUsedAt
		}
	}
	if oldestKey != "" {
		delete(c.results, oldestKey)
	}
}

func cacheKey(fingerprint, language string) string {
	return language + ":" + fingerprint
}

func hasExpired(ts time.Time) bool {
	if ts.IsZero() {
		return false
	}
	return ts.Before(time.Now())
}

var _ qa.ResultCache = (*MemoryCache)(nil)
