package resultcache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/valkey-io/valkey-go"

	"github.com/qazinvest/faq-assist/internal/domain/qa"
)

// ValkeyCache persists pipeline results using a Valkey-compatible database.
type ValkeyCache struct {
	client valkey.Client
	prefix string
}

// NewValkeyCache constructs a cache backed by Valkey.
func NewValkeyCache(client valkey.Client, prefix string) *ValkeyCache {
	if prefix == "" {
		prefix = "qa"
	}
	return &ValkeyCache{client: client, prefix: prefix}
}

// Check implements qa.ResultCache. A hit bumps the popularity counter and
// the bookkeeping fields. The hit counter lives in a sibling hash so the
// bump is a single server-side HINCRBY; the payload itself is never
// rewritten, which keeps concurrent hits from losing increments.
func (c *ValkeyCache) Check(ctx context.Context, fingerprint, language string) (qa.CachedResult, bool, error) {
	if fingerprint == "" {
		return qa.CachedResult{}, false, nil
	}
	key := c.resultKey(fingerprint, language)
	payload, err := c.client.Do(ctx, c.client.B().Get().Key(key).Build()).ToString()
	if err != nil {
		if valkey.IsValkeyNil(err) {
			return qa.CachedResult{}, false, nil
		}
		return qa.CachedResult{}, false, err
	}

	var result qa.CachedResult
	if err := json.Unmarshal([]byte(payload), &result); err != nil {
		return qa.CachedResult{}, false, err
	}

	meta := c.metaKey(fingerprint, language)
	count, err := c.client.Do(ctx, c.client.B().Hincrby().Key(meta).Field("hits").Increment(1).Build()).AsInt64()
	if err != nil {
		count = result.HitCount + 1
	}
	result.HitCount = count
	result.LastUsedAt = time.Now().UTC()
	_ = c.client.Do(ctx, c.client.B().Hset().Key(meta).FieldValue().FieldValue("lastUsed", result.LastUsedAt.Format(time.RFC3339Nano)).Build()).Error()
	_ = c.client.Do(ctx, c.client.B().Zincrby().Key(c.popularKey()).Increment(1).Member(result.NormalizedQuery).Build()).Error()

	return result, true, nil
}

// Save implements qa.ResultCache. NX keeps the first stored payload for a
// fingerprint; a later save for the same fingerprint only bumps the
// bookkeeping hash.
func (c *ValkeyCache) Save(ctx context.Context, result qa.CachedResult, ttl time.Duration) error {
	if result.Fingerprint == "" {
		return nil
	}
	payload, err := json.Marshal(result)
	if err != nil {
		return err
	}

	builder := c.client.B().Set().Key(c.resultKey(result.Fingerprint, result.Language)).Value(string(payload)).Nx()
	var cmd valkey.Completed
	if ttl > 0 {
		if ttl < time.Second {
			ttl = time.Second
		}
		cmd = builder.Ex(ttl).Build()
	} else {
		cmd = builder.Build()
	}

	meta := c.metaKey(result.Fingerprint, result.Language)
	now := time.Now().UTC().Format(time.RFC3339Nano)
	if err := c.client.Do(ctx, cmd).Error(); err != nil {
		if !valkey.IsValkeyNil(err) {
			return err
		}
		// NX left the stored payload in place.
		_ = c.client.Do(ctx, c.client.B().Hincrby().Key(meta).Field("hits").Increment(1).Build()).Error()
		_ = c.client.Do(ctx, c.client.B().Hset().Key(meta).FieldValue().FieldValue("lastUsed", now).Build()).Error()
	} else {
		_ = c.client.Do(ctx, c.client.B().Hset().Key(meta).FieldValue().FieldValue("lastUsed", now).Build()).Error()
		if ttl > 0 {
			_ = c.client.Do(ctx, c.client.B().Expire().Key(meta).Seconds(int64(ttl/time.Second)).Build()).Error()
		}
	}

	return c.client.Do(ctx, c.client.B().Zincrby().Key(c.popularKey()).Increment(1).Member(result.NormalizedQuery).Build()).Error()
}

// PopularQueries implements qa.ResultCache.
func (c *ValkeyCache) PopularQueries(ctx context.Context, limit int) ([]qa.PopularQuery, error) {
	if limit <= 0 {
		limit = 10
	}
	resp := c.client.Do(ctx, c.client.B().Zrevrange().Key(c.popularKey()).Start(0).Stop(int64(limit-1)).Withscores().Build())
	arr, err := resp.ToArray()
	if err != nil {
		if valkey.IsValkeyNil(err) {
			return nil, nil
		}
		return nil, err
	}

	out := make([]qa.PopularQuery, 0, len(arr))
	for i := 0; i < len(arr); {
		var (
			member string
			score  float64
		)
		if tuple, tupleErr := arr[i].ToArray(); tupleErr == nil && len(tuple) == 2 {
			// RESP3 returns [member, score] per element
			if member, err = tuple[0].ToString(); err != nil {
				if valkey.IsValkeyNil(err) {
					i++
					continue
				}
				return nil, err
			}
			if score, err = tuple[1].ToFloat64(); err != nil {
				return nil, err
			}
			i++
		} else {
			// RESP2 returns a flat alternating array.
			if i+1 >= len(arr) {
				break
			}
			if member, err = arr[i].ToString(); err != nil {
				if valkey.IsValkeyNil(err) {
					i += 2
					continue
				}
				return nil, err
			}
			if score, err = arr[i+1].ToFloat64(); err != nil {
				return nil, err
			}
			i += 2
		}
		out = append(out, qa.PopularQuery{Query: member, Count: int64(score)})
	}
	return out, nil
}

func (c *ValkeyCache) resultKey(fingerprint, language string) string {
	return fmt.Sprintf("%s:result:%s:%s", c.prefix, language, fingerprint)
}

func (c *ValkeyCache) metaKey(fingerprint, language string) string {
	return fmt.Sprintf("%s:meta:%s:%s", c.prefix, language, fingerprint)
}

func (c *ValkeyCache) popularKey() string {
	return fmt.Sprintf("%s:popular", c.prefix)
}

var _ qa.ResultCache = (*ValkeyCache)(nil)
