// Package cache provides byte-oriented caching backends for fetched manifests.
//
// Four backends implement [Cache]:
//
//   - [FileCache] stores entries as JSON files under a directory (CLI default)
//   - [MemoryCache] keeps a bounded LRU in process (server default)
//   - [RedisCache] shares entries between processes through Redis
//   - [NullCache] stores nothing
//
// Keys are opaque strings; [Namespace] prefixes every key so several
// consumers can share one backend without colliding.
package cache

import (
	"context"
	"time"
)

// Cache is a key-value store for raw bytes with optional expiry.
//
// A miss is reported as (nil, false, nil); the error return is reserved for
// backend failures. A ttl of zero stores the entry without expiry.
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
	Close() error
}
