package cache

import (
	"context"
	"time"
)

// Scoped prefixes every key of an inner cache. This keeps consumers sharing
// one backend (for example one Redis instance) in separate namespaces.
type Scoped struct {
	inner  Cache
	prefix string
}

// Namespace returns a cache that stores keys under prefix in c.
// A nil c is replaced by a [NullCache].
func Namespace(c Cache, prefix string) *Scoped {
	if c == nil {
		c = NewNullCache()
	}
	return &Scoped{inner: c, prefix: prefix}
}

func (s *Scoped) Get(ctx context.Context, key string) ([]byte, bool, error) {
	return s.inner.Get(ctx, s.prefix+key)
}

func (s *Scoped) Set(ctx context.Context, key string, data []byte, ttl time.Duration) error {
	return s.inner.Set(ctx, s.prefix+key, data, ttl)
}

func (s *Scoped) Delete(ctx context.Context, key string) error {
	return s.inner.Delete(ctx, s.prefix+key)
}

// Close closes the inner cache.
func (s *Scoped) Close() error {
	return s.inner.Close()
}

var _ Cache = (*Scoped)(nil)
