package qa

import (
	"context"
	"time"
)

// ResultCache persists computed candidate lists per normalized-query
// fingerprint. Implementations must make Check's hit bookkeeping atomic;
// everything else about the cache is best effort.
type ResultCache interface {
	// Check returns the stored payload and bumps hit count and last-used
	// time as a side effect.
	Check(ctx context.Context, fingerprint, language string) (CachedResult, bool, error)
	// Save inserts the payload unless the fingerprint already exists, in
	// which case only the bookkeeping fields change (first-writer-wins).
	Save(ctx context.Context, result CachedResult, ttl time.Duration) error
	PopularQueries(ctx context.Context, limit int) ([]PopularQuery, error)
}
