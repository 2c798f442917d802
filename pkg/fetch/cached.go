package fetch

import (
	"context"
	"encoding/json"
	"time"

	"github.com/matzehuels/reposgraph/pkg/cache"
	"github.com/matzehuels/reposgraph/pkg/observability"
)

// DefaultCacheTTL is how long a cached fetch result stays valid.
const DefaultCacheTTL = 24 * time.Hour

const keyType = "manifest"

// CachedFetcher memoizes another Fetcher. Found and absent results are
// cached; transport failures never are.
type CachedFetcher struct {
	inner   Fetcher
	cache   cache.Cache
	ttl     time.Duration
	refresh bool
}

// CacheOptions configures [NewCachedFetcher].
type CacheOptions struct {
	TTL     time.Duration // Default DefaultCacheTTL
	Refresh bool          // Skip reads, still write
}

// NewCachedFetcher wraps inner with c. Keys live in the "manifest:"
// namespace of c.
func NewCachedFetcher(inner Fetcher, c cache.Cache, opts CacheOptions) *CachedFetcher {
	ttl := opts.TTL
	if ttl <= 0 {
		ttl = DefaultCacheTTL
	}
	return &CachedFetcher{
		inner:   inner,
		cache:   cache.Namespace(c, keyType+":"),
		ttl:     ttl,
		refresh: opts.Refresh,
	}
}

type cachedResult struct {
	Found bool   `json:"found"`
	Text  string `json:"text,omitempty"`
}

// Fetch returns the cached result for rawURL or fetches and stores it.
// Cache backend errors degrade to a direct fetch.
func (f *CachedFetcher) Fetch(ctx context.Context, rawURL string) (Result, error) {
	key := cache.Hash([]byte(rawURL))
	hooks := observability.Cache()

	if !f.refresh {
		if data, ok, err := f.cache.Get(ctx, key); err == nil && ok {
			var cr cachedResult
			if json.Unmarshal(data, &cr) == nil {
				hooks.OnCacheHit(ctx, keyType)
				if cr.Found {
					return Found(cr.Text), nil
				}
				return NotFound(), nil
			}
		}
		hooks.OnCacheMiss(ctx, keyType)
	}

	res, err := f.inner.Fetch(ctx, rawURL)
	if err != nil {
		return Result{}, err
	}

	data, err := json.Marshal(cachedResult{Found: res.Status == StatusFound, Text: res.Text})
	if err == nil && f.cache.Set(ctx, key, data, f.ttl) == nil {
		hooks.OnCacheSet(ctx, keyType, len(data))
	}
	return res, nil
}

// Close closes the underlying cache.
func (f *CachedFetcher) Close() error {
	return f.cache.Close()
}

var _ Fetcher = (*CachedFetcher)(nil)
